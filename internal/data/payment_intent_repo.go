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
	"vidociki/internal/metrics"

	pkgErrors "github.com/gaoyong06/go-pkg/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-redsync/redsync/v4"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// paymentIntentRepo 支付订单相关数据访问
type paymentIntentRepo struct {
	data    *Data
	sync    *redsync.Redsync
	log     *log.Helper
	metrics *metrics.BotMetrics
}

// NewPaymentIntentRepo 创建支付订单 repo（返回 biz.PaymentIntentRepo 接口）
func NewPaymentIntentRepo(data *Data, sync *redsync.Redsync, logger log.Logger) biz.PaymentIntentRepo {
	return &paymentIntentRepo{
		data:    data,
		sync:    sync,
		log:     log.NewHelper(logger),
		metrics: metrics.GetMetrics(),
	}
}

func toBizIntent(m *model.PaymentIntent) *biz.PaymentIntent {
	return &biz.PaymentIntent{
		PaymentID:   m.PaymentID,
		UserID:      m.UserID,
		PackageType: m.PackageType,
		AmountMinor: m.AmountMinor,
		Credits:     m.Credits,
		Status:      m.Status,
		CreatedAt:   m.CreatedAt,
	}
}

// CreateIntent 创建支付订单记录
func (r *paymentIntentRepo) CreateIntent(ctx context.Context, intent *biz.PaymentIntent) error {
	m := model.PaymentIntent{
		PaymentID:   intent.PaymentID,
		UserID:      intent.UserID,
		PackageType: intent.PackageType,
		AmountMinor: intent.AmountMinor,
		Credits:     intent.Credits,
		Status:      model.IntentStatusPending,
	}
	return r.data.db.WithContext(ctx).Create(&m).Error
}

// GetIntent 通过 payment_id 查询支付订单
func (r *paymentIntentRepo) GetIntent(ctx context.Context, paymentID string) (*biz.PaymentIntent, error) {
	var m model.PaymentIntent
	if err := r.data.db.WithContext(ctx).Where("payment_id = ?", paymentID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return toBizIntent(&m), nil
}

// ListPending 列出待支付订单，最早创建的在前
func (r *paymentIntentRepo) ListPending(ctx context.Context, limit int) ([]*biz.PaymentIntent, error) {
	var models []model.PaymentIntent
	if err := r.data.db.WithContext(ctx).
		Where("status = ?", model.IntentStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, err
	}

	intents := make([]*biz.PaymentIntent, 0, len(models))
	for i := range models {
		intents = append(intents, toBizIntent(&models[i]))
	}
	return intents, nil
}

// ApplyCredit 带幂等性保证的入账
// 轮询和 Webhook 可能同时到达：先按 payment_id 拿分布式锁，再在事务内
// 行锁校验状态，pending → completed 翻转与入账是同一个事务
func (r *paymentIntentRepo) ApplyCredit(ctx context.Context, paymentID string) (*biz.PaymentIntent, bool, error) {
	// 获取分布式锁（按 payment_id）
	lockKey := fmt.Sprintf("%s%s", constants.RedisKeyApplyLock, paymentID)
	if r.sync != nil {
		lockStartTime := time.Now()
		mutex := r.sync.NewMutex(lockKey, redsync.WithExpiry(10*time.Second))
		if err := mutex.LockContext(ctx); err != nil {
			r.log.Errorf("Failed to acquire lock for apply credit: payment_id=%s, error=%v", paymentID, err)
			if r.metrics != nil {
				r.metrics.LockAcquireTotal.WithLabelValues(constants.ResultFailed).Inc()
				r.metrics.LockAcquireDuration.Observe(time.Since(lockStartTime).Seconds())
			}
			return nil, false, pkgErrors.NewBizErrorWithLang(ctx, vidErrors.ErrCodeApplyLockFailed)
		}
		if r.metrics != nil {
			r.metrics.LockAcquireTotal.WithLabelValues(constants.ResultSuccess).Inc()
			r.metrics.LockAcquireDuration.Observe(time.Since(lockStartTime).Seconds())
		}
		defer func() {
			if ok, err := mutex.Unlock(); !ok || err != nil {
				r.log.Warnf("Failed to unlock for apply credit: payment_id=%s, error=%v", paymentID, err)
			}
		}()
	}

	var result *biz.PaymentIntent
	var applied bool
	var remaining int
	var creditedUser string

	err := r.data.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1. 锁定订单记录
		var intent model.PaymentIntent
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("payment_id = ?", paymentID).
			First(&intent).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgErrors.NewBizErrorWithLang(ctx, vidErrors.ErrCodeIntentNotFound)
			}
			return err
		}

		result = toBizIntent(&intent)

		// 2. 状态守卫（幂等性）：非 pending 一律不再入账
		if intent.Status != model.IntentStatusPending {
			r.log.Infof("Apply credit already processed: payment_id=%s, status=%s", paymentID, intent.Status)
			return nil
		}

		// 3. 翻转状态
		if err := tx.Model(&intent).Update("status", model.IntentStatusCompleted).Error; err != nil {
			return pkgErrors.WrapErrorWithLang(ctx, err, vidErrors.ErrCodeIntentUpdateFailed)
		}

		// 4. 入账
		var account model.UserAccount
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ?", intent.UserID).
			First(&account).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// 用户账户不存在，直接以入账额度建号
				account = model.UserAccount{
					UserID:           intent.UserID,
					RemainingCredits: intent.Credits,
					LastResetDate:    time.Now().Format(constants.TimeFormatDay),
				}
				if err := tx.Create(&account).Error; err != nil {
					return pkgErrors.WrapErrorWithLang(ctx, err, vidErrors.ErrCodeAccountCreateFailed)
				}
				remaining = intent.Credits
			} else {
				return err
			}
		} else {
			if err := tx.Model(&account).Update("remaining_credits", gorm.Expr("remaining_credits + ?", intent.Credits)).Error; err != nil {
				return pkgErrors.WrapErrorWithLang(ctx, err, vidErrors.ErrCodeCreditFailed)
			}
			remaining = account.RemainingCredits + intent.Credits
		}

		// 5. 落流水
		entry := model.LedgerEntry{
			LedgerEntryID: uuid.New().String(),
			UserID:        intent.UserID,
			Type:          constants.EntryTypePurchase,
			Credits:       intent.Credits,
			PaymentID:     paymentID,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}

		applied = true
		creditedUser = intent.UserID
		result.Status = model.IntentStatusCompleted
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	if applied {
		// 更新额度缓存（失败不影响主流程）
		cacheCtx, cacheCancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cacheCancel()
		key := fmt.Sprintf("%s%s", constants.RedisKeyBalance, creditedUser)
		if err := r.data.rdb.Set(cacheCtx, key, remaining, 5*time.Minute).Err(); err != nil {
			r.log.Warnf("failed to update credits cache in ApplyCredit: %v", err)
		}
	}

	return result, applied, nil
}

// MarkCanceled 将 pending 订单翻转为 canceled
// completed 订单不受影响（不允许回退）
func (r *paymentIntentRepo) MarkCanceled(ctx context.Context, paymentID string) (bool, error) {
	result := r.data.db.WithContext(ctx).Model(&model.PaymentIntent{}).
		Where("payment_id = ? AND status = ?", paymentID, model.IntentStatusPending).
		Update("status", model.IntentStatusCanceled)
	if result.Error != nil {
		return false, pkgErrors.WrapErrorWithLang(ctx, result.Error, vidErrors.ErrCodeIntentUpdateFailed)
	}
	return result.RowsAffected > 0, nil
}

// CancelStale 批量作废长期 pending 的订单
func (r *paymentIntentRepo) CancelStale(ctx context.Context, olderThan time.Time) (int64, error) {
	result := r.data.db.WithContext(ctx).Model(&model.PaymentIntent{}).
		Where("status = ? AND created_at < ?", model.IntentStatusPending, olderThan).
		Update("status", model.IntentStatusCanceled)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
