package biz

import (
	"context"
	"time"

	"vidociki/internal/constants"
	"vidociki/internal/metrics"

	"github.com/go-kratos/kratos/v2/log"
)

// UserAccount 用户账户领域对象
type UserAccount struct {
	UserID           string
	Username         string
	RemainingCredits int
	LastResetDate    string // 2006-01-02，配置时区
	ReferralCode     string // 未生成时为空
	ReferredBy       string // 未绑定时为空
	CreatedAt        time.Time
}

// QuotaDecision 配额判定结果
type QuotaDecision struct {
	Allowed     bool
	Remaining   int
	NextResetAt time.Time
}

// AccountRepo 账户数据层接口（定义在 biz 层）
type AccountRepo interface {
	// GetAccount 获取账户，不存在返回 nil
	GetAccount(ctx context.Context, userID string) (*UserAccount, error)
	// CreateAccount 创建账户并赠送一次性初始额度
	CreateAccount(ctx context.Context, userID, username string, initialCredits int, today string) (*UserAccount, error)
	// ResetDaily 条件式每日重置：仅当 last_reset_date <> today 时把余额覆盖为 dailyCredits。
	// 返回是否实际执行了重置。
	ResetDaily(ctx context.Context, userID string, dailyCredits int, today string) (bool, error)
	// Debit 原子条件扣减 1 个额度（remaining_credits > 0 时才生效）
	Debit(ctx context.Context, userID string) error
	// AddCredits 入账指定额度并落流水
	AddCredits(ctx context.Context, userID string, credits int, entryType, paymentID string) error
	// CountDebitsSince 统计某时刻以来的扣减次数（个人中心展示用）
	CountDebitsSince(ctx context.Context, userID string, since time.Time) (int, error)
}

// AccountUseCase 账户/配额业务逻辑
type AccountUseCase struct {
	repo    AccountRepo
	conf    *BotConfig
	log     *log.Helper
	metrics *metrics.BotMetrics
}

// NewAccountUseCase 创建账户 UseCase
func NewAccountUseCase(repo AccountRepo, conf *BotConfig, logger log.Logger) *AccountUseCase {
	return &AccountUseCase{
		repo:    repo,
		conf:    conf,
		log:     log.NewHelper(logger),
		metrics: metrics.GetMetrics(),
	}
}

// GetOrCreate 获取账户，首次交互时创建并赠送初始额度
func (uc *AccountUseCase) GetOrCreate(ctx context.Context, userID, username string) (*UserAccount, error) {
	account, err := uc.repo.GetAccount(ctx, userID)
	if err != nil {
		return nil, err
	}
	if account != nil {
		return account, nil
	}

	today := uc.conf.Today(time.Now())
	created, err := uc.repo.CreateAccount(ctx, userID, username, uc.conf.InitialCredits, today)
	if err != nil {
		// 并发下可能重复创建，重新获取一次
		if existing, getErr := uc.repo.GetAccount(ctx, userID); getErr == nil && existing != nil {
			return existing, nil
		}
		return nil, err
	}

	uc.log.Infof("Account created: user_id=%s, initial_credits=%d", userID, uc.conf.InitialCredits)
	return created, nil
}

// Evaluate 配额判定：先做惰性日切重置，再判断是否允许
// 重置为覆盖写入（未用完的额度在日切时丢弃），同一天内幂等
func (uc *AccountUseCase) Evaluate(ctx context.Context, userID, username string) (*QuotaDecision, *UserAccount, error) {
	startTime := time.Now()
	defer func() {
		if uc.metrics != nil {
			uc.metrics.QuotaCheckDuration.Observe(time.Since(startTime).Seconds())
		}
	}()

	account, err := uc.GetOrCreate(ctx, userID, username)
	if err != nil {
		if uc.metrics != nil {
			uc.metrics.QuotaCheckTotal.WithLabelValues(constants.QuotaCheckResultError).Inc()
		}
		return nil, nil, err
	}

	now := time.Now()
	today := uc.conf.Today(now)
	if account.LastResetDate != today {
		applied, err := uc.repo.ResetDaily(ctx, userID, uc.conf.DailyCredits, today)
		if err != nil {
			return nil, nil, err
		}
		if applied {
			if uc.metrics != nil {
				uc.metrics.DailyResetTotal.Inc()
			}
			uc.log.Infof("Daily reset applied: user_id=%s, credits=%d", userID, uc.conf.DailyCredits)
		}
		// 重置后（或并发下已被别的请求重置）重新读取
		account, err = uc.repo.GetAccount(ctx, userID)
		if err != nil {
			return nil, nil, err
		}
	}

	decision := &QuotaDecision{
		Allowed:     account.RemainingCredits > 0,
		Remaining:   account.RemainingCredits,
		NextResetAt: uc.conf.NextResetAt(now),
	}

	if uc.metrics != nil {
		if decision.Allowed {
			uc.metrics.QuotaCheckTotal.WithLabelValues(constants.QuotaCheckResultAllowed).Inc()
		} else {
			uc.metrics.QuotaCheckTotal.WithLabelValues(constants.QuotaCheckResultDenied).Inc()
		}
	}

	return decision, account, nil
}

// Debit 扣减 1 个额度（仅在 Evaluate 返回 Allowed 后调用）
func (uc *AccountUseCase) Debit(ctx context.Context, userID string) error {
	err := uc.repo.Debit(ctx, userID)
	if uc.metrics != nil {
		if err == nil {
			uc.metrics.DebitTotal.WithLabelValues(constants.ResultSuccess).Inc()
		} else {
			uc.metrics.DebitTotal.WithLabelValues(constants.ResultFailed).Inc()
		}
	}
	return err
}

// TodayUsage 今日已用次数（个人中心展示用）
func (uc *AccountUseCase) TodayUsage(ctx context.Context, userID string) (int, error) {
	now := time.Now().In(uc.conf.Location)
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, uc.conf.Location)
	return uc.repo.CountDebitsSince(ctx, userID, dayStart)
}
