package biz

import (
	"context"
	"strings"
	"time"

	"vidociki/internal/constants"
	vidErrors "vidociki/internal/errors"
	"vidociki/internal/metrics"

	pkgErrors "github.com/gaoyong06/go-pkg/errors"
	"github.com/go-kratos/kratos/v2/log"
)

// AnalysisPrompt 发给模型的分析提示词
const AnalysisPrompt = "Оцени видео по 10 бальной шкале и напиши что думаешь о нем"

// VideoAnalyzer 视频分析客户端接口
type VideoAnalyzer interface {
	Analyze(ctx context.Context, video []byte, mimeType, prompt string) (string, error)
}

// FileSource 聊天文件拉取接口（由聊天传输层实现）
type FileSource interface {
	FetchFile(ctx context.Context, fileID string) ([]byte, error)
}

// SessionStore 会话状态接口
// 用显式的 per-user 标记替代"等待下一条消息"的一次性回调，
// 并发用户下不会把别人的视频错配到当前会话
type SessionStore interface {
	AwaitVideo(ctx context.Context, userID string) error
	IsAwaitingVideo(ctx context.Context, userID string) (bool, error)
	ClearAwaitVideo(ctx context.Context, userID string) error
}

// AnalysisUseCase 分析编排：配额判定 → 外部分析调用 → 扣减
type AnalysisUseCase struct {
	accounts *AccountUseCase
	session  SessionStore
	files    FileSource
	analyzer VideoAnalyzer
	log      *log.Helper
	metrics  *metrics.BotMetrics
}

// NewAnalysisUseCase 创建分析 UseCase
func NewAnalysisUseCase(
	accounts *AccountUseCase,
	session SessionStore,
	files FileSource,
	analyzer VideoAnalyzer,
	logger log.Logger,
) *AnalysisUseCase {
	return &AnalysisUseCase{
		accounts: accounts,
		session:  session,
		files:    files,
		analyzer: analyzer,
		log:      log.NewHelper(logger),
		metrics:  metrics.GetMetrics(),
	}
}

// Request 请求一次分析：配额判定通过后打上等待视频标记
func (uc *AnalysisUseCase) Request(ctx context.Context, userID, username string) (*QuotaDecision, error) {
	decision, _, err := uc.accounts.Evaluate(ctx, userID, username)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return decision, nil
	}
	if err := uc.session.AwaitVideo(ctx, userID); err != nil {
		return nil, err
	}
	return decision, nil
}

// Awaiting 当前用户是否处于等待视频状态
func (uc *AnalysisUseCase) Awaiting(ctx context.Context, userID string) (bool, error) {
	return uc.session.IsAwaitingVideo(ctx, userID)
}

// Analyze 处理已收到的视频：再次判定配额、调用分析服务、成功后扣减
// 分析失败不扣减额度
func (uc *AnalysisUseCase) Analyze(ctx context.Context, userID, username, fileID string) (string, error) {
	decision, _, err := uc.accounts.Evaluate(ctx, userID, username)
	if err != nil {
		return "", err
	}
	if !decision.Allowed {
		return "", pkgErrors.NewBizErrorWithLang(ctx, vidErrors.ErrCodeInsufficientCredits)
	}

	video, err := uc.files.FetchFile(ctx, fileID)
	if err != nil {
		uc.countAnalysis(false)
		return "", pkgErrors.WrapErrorWithLang(ctx, err, vidErrors.ErrCodeVideoDownloadFailed)
	}

	startTime := time.Now()
	report, err := uc.analyzer.Analyze(ctx, video, "video/mp4", AnalysisPrompt)
	if uc.metrics != nil {
		uc.metrics.AnalysisDuration.Observe(time.Since(startTime).Seconds())
	}
	if err != nil {
		uc.countAnalysis(false)
		return "", pkgErrors.WrapErrorWithLang(ctx, err, vidErrors.ErrCodeAnalysisFailed)
	}
	// 模型拒绝分析按失败处理，不扣减
	if report == "" || strings.Contains(strings.ToLower(report), "не могу анализировать") {
		uc.countAnalysis(false)
		return "", pkgErrors.NewBizErrorWithLang(ctx, vidErrors.ErrCodeAnalysisFailed)
	}

	// 结果已产出，扣减失败只记日志（并发提交下允许 best-effort）
	if err := uc.accounts.Debit(ctx, userID); err != nil {
		uc.log.Warnf("Debit after analysis failed: user_id=%s, error=%v", userID, err)
	}

	if err := uc.session.ClearAwaitVideo(ctx, userID); err != nil {
		uc.log.Warnf("ClearAwaitVideo failed: user_id=%s, error=%v", userID, err)
	}

	uc.countAnalysis(true)
	return report, nil
}

func (uc *AnalysisUseCase) countAnalysis(ok bool) {
	if uc.metrics == nil {
		return
	}
	if ok {
		uc.metrics.AnalysisTotal.WithLabelValues(constants.ResultSuccess).Inc()
	} else {
		uc.metrics.AnalysisTotal.WithLabelValues(constants.ResultFailed).Inc()
	}
}
