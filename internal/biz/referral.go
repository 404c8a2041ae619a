package biz

import (
	"context"
	"crypto/rand"
	"math/big"
	"time"

	"vidociki/internal/constants"
	vidErrors "vidociki/internal/errors"
	"vidociki/internal/metrics"

	pkgErrors "github.com/gaoyong06/go-pkg/errors"
	"github.com/go-kratos/kratos/v2/log"
)

// ReferralRepo 推荐数据层接口（定义在 biz 层）
type ReferralRepo interface {
	// GetAccountByReferralCode 按推荐码查找码主，不存在返回 nil
	GetAccountByReferralCode(ctx context.Context, code string) (*UserAccount, error)
	// SetReferralCode 写入推荐码（唯一索引冲突时返回错误，调用方重试）
	SetReferralCode(ctx context.Context, userID, code string) error
	// HasUse 判断 (code, userID) 是否已有使用记录
	HasUse(ctx context.Context, code, userID string) (bool, error)
	// RecordRedemption 单事务落地兑换：记使用、给兑换人打 referred_by（仅当为空）、给码主加奖励并落流水
	RecordRedemption(ctx context.Context, code, ownerID, redeemerID string, bonus int, today string) error
}

// ReferralUseCase 推荐业务逻辑
type ReferralUseCase struct {
	repo        ReferralRepo
	accountRepo AccountRepo
	conf        *BotConfig
	log         *log.Helper
	metrics     *metrics.BotMetrics
}

// NewReferralUseCase 创建推荐 UseCase
func NewReferralUseCase(repo ReferralRepo, accountRepo AccountRepo, conf *BotConfig, logger log.Logger) *ReferralUseCase {
	return &ReferralUseCase{
		repo:        repo,
		accountRepo: accountRepo,
		conf:        conf,
		log:         log.NewHelper(logger),
		metrics:     metrics.GetMetrics(),
	}
}

// GetOrCreateCode 获取用户推荐码，不存在则生成（随机字母数字，冲突重试）
func (uc *ReferralUseCase) GetOrCreateCode(ctx context.Context, userID string) (string, error) {
	account, err := uc.accountRepo.GetAccount(ctx, userID)
	if err != nil {
		return "", err
	}
	if account != nil && account.ReferralCode != "" {
		return account.ReferralCode, nil
	}

	// 推荐码一经生成不可变更，唯一索引冲突时换一个码重试
	for attempt := 0; attempt < 5; attempt++ {
		code, err := randomCode(constants.ReferralCodeLength)
		if err != nil {
			return "", pkgErrors.WrapErrorWithLang(ctx, err, vidErrors.ErrCodeReferralCodeGenFailed)
		}
		if err := uc.repo.SetReferralCode(ctx, userID, code); err != nil {
			uc.log.Warnf("SetReferralCode conflict: user_id=%s, code=%s, err=%v", userID, code, err)
			continue
		}
		return code, nil
	}
	return "", pkgErrors.NewBizErrorWithLang(ctx, vidErrors.ErrCodeReferralCodeGenFailed)
}

// Redeem 兑换推荐码，奖励发给码主（不是兑换人）
// 以下情况返回 false 且不产生任何变更：
//   - 推荐码不存在
//   - (code, redeemer) 已有使用记录
//   - 兑换人已绑定过 referred_by
//   - 码主兑换自己的码
func (uc *ReferralUseCase) Redeem(ctx context.Context, redeemerID, code string) (bool, error) {
	if code == "" {
		return false, nil
	}

	owner, err := uc.repo.GetAccountByReferralCode(ctx, code)
	if err != nil {
		return false, err
	}
	if owner == nil {
		uc.countRedeem(constants.ResultDenied)
		return false, nil
	}
	if owner.UserID == redeemerID {
		// 自我推荐，防御性拦截
		uc.countRedeem(constants.ResultDenied)
		return false, nil
	}

	redeemer, err := uc.accountRepo.GetAccount(ctx, redeemerID)
	if err != nil {
		return false, err
	}
	if redeemer != nil && redeemer.ReferredBy != "" {
		uc.countRedeem(constants.ResultDenied)
		return false, nil
	}

	used, err := uc.repo.HasUse(ctx, code, redeemerID)
	if err != nil {
		return false, err
	}
	if used {
		uc.countRedeem(constants.ResultDenied)
		return false, nil
	}

	today := uc.conf.Today(time.Now())
	if err := uc.repo.RecordRedemption(ctx, code, owner.UserID, redeemerID, uc.conf.ReferralBonus, today); err != nil {
		uc.countRedeem(constants.ResultError)
		return false, err
	}

	uc.countRedeem(constants.ResultSuccess)
	uc.log.Infof("Referral redeemed: code=%s, owner=%s, redeemer=%s, bonus=%d",
		code, owner.UserID, redeemerID, uc.conf.ReferralBonus)
	return true, nil
}

// OwnerOf 按推荐码查找码主账户，不存在返回 nil
func (uc *ReferralUseCase) OwnerOf(ctx context.Context, code string) (*UserAccount, error) {
	return uc.repo.GetAccountByReferralCode(ctx, code)
}

// InviteLink 生成邀请链接
func (uc *ReferralUseCase) InviteLink(code string) string {
	return "https://t.me/" + uc.conf.BotUsername + "?start=" + code
}

func (uc *ReferralUseCase) countRedeem(result string) {
	if uc.metrics != nil {
		uc.metrics.ReferralRedeemTotal.WithLabelValues(result).Inc()
	}
}

// randomCode 生成指定长度的随机字母数字码
func randomCode(length int) (string, error) {
	alphabet := constants.ReferralCodeAlphabet
	buf := make([]byte, length)
	max := big.NewInt(int64(len(alphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = alphabet[n.Int64()]
	}
	return string(buf), nil
}
