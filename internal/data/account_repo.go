package data

import (
	"context"
	"errors"
	"fmt"
	"time"

	"vidociki/internal/biz"
	"vidociki/internal/constants"
	"vidociki/internal/data/model"
	vidErrors "vidociki/internal/errors"

	pkgErrors "github.com/gaoyong06/go-pkg/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// accountRepo 账户相关数据访问
type accountRepo struct {
	data *Data
	log  *log.Helper
}

// NewAccountRepo 创建账户 repo（返回 biz.AccountRepo 接口）
func NewAccountRepo(data *Data, logger log.Logger) biz.AccountRepo {
	return &accountRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

func toBizAccount(m *model.UserAccount) *biz.UserAccount {
	account := &biz.UserAccount{
		UserID:           m.UserID,
		Username:         m.Username,
		RemainingCredits: m.RemainingCredits,
		LastResetDate:    m.LastResetDate,
		CreatedAt:        m.CreatedAt,
	}
	if m.ReferralCode != nil {
		account.ReferralCode = *m.ReferralCode
	}
	if m.ReferredBy != nil {
		account.ReferredBy = *m.ReferredBy
	}
	return account
}

// GetAccount 获取账户，不存在返回 nil
func (r *accountRepo) GetAccount(ctx context.Context, userID string) (*biz.UserAccount, error) {
	if userID == "" {
		return nil, fmt.Errorf("userID is required")
	}

	var m model.UserAccount
	if err := r.data.db.WithContext(ctx).Where("user_id = ?", userID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return toBizAccount(&m), nil
}

// CreateAccount 创建账户并赠送一次性初始额度（与 signup 流水同一事务）
func (r *accountRepo) CreateAccount(ctx context.Context, userID, username string, initialCredits int, today string) (*biz.UserAccount, error) {
	m := model.UserAccount{
		UserID:           userID,
		Username:         username,
		RemainingCredits: initialCredits,
		LastResetDate:    today,
	}

	err := r.data.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&m).Error; err != nil {
			return err
		}
		entry := model.LedgerEntry{
			LedgerEntryID: uuid.New().String(),
			UserID:        userID,
			Type:          constants.EntryTypeSignup,
			Credits:       initialCredits,
		}
		return tx.Create(&entry).Error
	})
	if err != nil {
		return nil, pkgErrors.WrapErrorWithLang(ctx, err, vidErrors.ErrCodeAccountCreateFailed)
	}

	r.updateCreditsCache(userID, initialCredits)
	return toBizAccount(&m), nil
}

// ResetDaily 条件式每日重置
// 单条 UPDATE 以 last_reset_date <> today 为守卫，同一天内天然幂等；
// 覆盖写入每日额度，前一天未用完的部分在日切时丢弃
func (r *accountRepo) ResetDaily(ctx context.Context, userID string, dailyCredits int, today string) (bool, error) {
	var applied bool
	err := r.data.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.UserAccount{}).
			Where("user_id = ? AND last_reset_date <> ?", userID, today).
			Updates(map[string]interface{}{
				"remaining_credits": dailyCredits,
				"last_reset_date":   today,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			// 今天已经重置过（本请求或并发请求），无事可做
			return nil
		}
		applied = true

		entry := model.LedgerEntry{
			LedgerEntryID: uuid.New().String(),
			UserID:        userID,
			Type:          constants.EntryTypeDailyReset,
			Credits:       dailyCredits,
		}
		return tx.Create(&entry).Error
	})
	if err != nil {
		return false, pkgErrors.WrapErrorWithLang(ctx, err, vidErrors.ErrCodeResetFailed)
	}

	if applied {
		r.updateCreditsCache(userID, dailyCredits)
	}
	return applied, nil
}

// Debit 原子条件扣减 1 个额度
// UPDATE ... WHERE remaining_credits > 0 保证余额不会被扣成负数，
// 并发重复提交时后到的一次直接失败而不是穿透
func (r *accountRepo) Debit(ctx context.Context, userID string) error {
	var remaining int
	err := r.data.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.UserAccount{}).
			Where("user_id = ? AND remaining_credits > 0", userID).
			Update("remaining_credits", gorm.Expr("remaining_credits - 1"))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return pkgErrors.NewBizErrorWithLang(ctx, vidErrors.ErrCodeInsufficientCredits)
		}

		entry := model.LedgerEntry{
			LedgerEntryID: uuid.New().String(),
			UserID:        userID,
			Type:          constants.EntryTypeDebit,
			Credits:       -1,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}

		var m model.UserAccount
		if err := tx.Select("remaining_credits").Where("user_id = ?", userID).First(&m).Error; err != nil {
			return err
		}
		remaining = m.RemainingCredits
		return nil
	})
	if err != nil {
		return err
	}

	r.updateCreditsCache(userID, remaining)
	return nil
}

// AddCredits 入账指定额度并落流水（账户不存在时自动创建）
func (r *accountRepo) AddCredits(ctx context.Context, userID string, credits int, entryType, paymentID string) error {
	var remaining int
	err := r.data.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m model.UserAccount
		if err := tx.Where("user_id = ?", userID).First(&m).Error; err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			// 支付成功但账户尚未创建（极少见），直接以入账额度建号
			m = model.UserAccount{
				UserID:           userID,
				RemainingCredits: credits,
				LastResetDate:    time.Now().Format(constants.TimeFormatDay),
			}
			if err := tx.Create(&m).Error; err != nil {
				return err
			}
			remaining = credits
		} else {
			if err := tx.Model(&m).Update("remaining_credits", gorm.Expr("remaining_credits + ?", credits)).Error; err != nil {
				return err
			}
			remaining = m.RemainingCredits + credits
		}

		entry := model.LedgerEntry{
			LedgerEntryID: uuid.New().String(),
			UserID:        userID,
			Type:          entryType,
			Credits:       credits,
			PaymentID:     paymentID,
		}
		return tx.Create(&entry).Error
	})
	if err != nil {
		return pkgErrors.WrapErrorWithLang(ctx, err, vidErrors.ErrCodeCreditFailed)
	}

	r.updateCreditsCache(userID, remaining)
	return nil
}

// CountDebitsSince 统计某时刻以来的扣减次数
func (r *accountRepo) CountDebitsSince(ctx context.Context, userID string, since time.Time) (int, error) {
	var count int64
	if err := r.data.db.WithContext(ctx).Model(&model.LedgerEntry{}).
		Where("user_id = ? AND type = ? AND created_at >= ?", userID, constants.EntryTypeDebit, since).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

// updateCreditsCache 更新额度缓存（失败不影响主流程，只记日志）
func (r *accountRepo) updateCreditsCache(userID string, remaining int) {
	cacheCtx, cacheCancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cacheCancel()
	key := fmt.Sprintf("%s%s", constants.RedisKeyBalance, userID)
	if err := r.data.rdb.Set(cacheCtx, key, remaining, 5*time.Minute).Err(); err != nil {
		r.log.Warnf("failed to update credits cache: user_id=%s, error=%v", userID, err)
	}
}
