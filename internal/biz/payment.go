package biz

import (
	"context"
	"fmt"
	"time"

	"vidociki/internal/constants"
	vidErrors "vidociki/internal/errors"
	"vidociki/internal/metrics"

	pkgErrors "github.com/gaoyong06/go-pkg/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
)

// PaymentIntent 支付订单领域对象
type PaymentIntent struct {
	PaymentID   string // 网关返回的 payment_id，主键
	UserID      string
	PackageType string
	AmountMinor int64
	Credits     int
	Status      string
	CreatedAt   time.Time
}

// PaymentIntentRepo 支付订单数据层接口（定义在 biz 层）
type PaymentIntentRepo interface {
	CreateIntent(ctx context.Context, intent *PaymentIntent) error
	GetIntent(ctx context.Context, paymentID string) (*PaymentIntent, error)
	// ListPending 列出所有待支付订单（进程重启后恢复轮询用）
	ListPending(ctx context.Context, limit int) ([]*PaymentIntent, error)
	// ApplyCredit 幂等入账：行锁校验 pending 状态，同一事务内入账并翻转为 completed。
	// 已处于终态时返回 applied=false，不重复入账。
	ApplyCredit(ctx context.Context, paymentID string) (intent *PaymentIntent, applied bool, err error)
	// MarkCanceled 将 pending 订单翻转为 canceled（终态，不入账）
	MarkCanceled(ctx context.Context, paymentID string) (bool, error)
	// CancelStale 批量作废早于指定时间仍 pending 的订单
	CancelStale(ctx context.Context, olderThan time.Time) (int64, error)
}

// GatewayPayment 网关支付对象
type GatewayPayment struct {
	ID              string
	Status          string
	ConfirmationURL string
}

// CreateGatewayPaymentRequest 网关创建支付请求
type CreateGatewayPaymentRequest struct {
	AmountMinor    int64
	Currency       string
	Description    string
	Metadata       map[string]string
	IdempotenceKey string
}

// PaymentGateway 支付网关客户端接口
type PaymentGateway interface {
	CreatePayment(ctx context.Context, req *CreateGatewayPaymentRequest) (*GatewayPayment, error)
	GetPayment(ctx context.Context, paymentID string) (*GatewayPayment, error)
}

// Notifier 用户通知接口（由聊天传输层实现）
type Notifier interface {
	SendText(ctx context.Context, chatID, text string) error
}

// PaymentUseCase 支付对账业务逻辑
type PaymentUseCase struct {
	repo     PaymentIntentRepo
	gateway  PaymentGateway
	notifier Notifier
	conf     *BotConfig
	log      *log.Helper
	metrics  *metrics.BotMetrics
}

// NewPaymentUseCase 创建支付 UseCase
func NewPaymentUseCase(
	repo PaymentIntentRepo,
	gateway PaymentGateway,
	notifier Notifier,
	conf *BotConfig,
	logger log.Logger,
) *PaymentUseCase {
	return &PaymentUseCase{
		repo:     repo,
		gateway:  gateway,
		notifier: notifier,
		conf:     conf,
		log:      log.NewHelper(logger),
		metrics:  metrics.GetMetrics(),
	}
}

// CreateIntent 创建支付订单，返回支付跳转链接
// 套餐校验在任何网关调用之前完成
func (uc *PaymentUseCase) CreateIntent(ctx context.Context, userID, packageType string) (string, error) {
	pkg, ok := uc.conf.Packages[packageType]
	if !ok {
		return "", pkgErrors.NewBizErrorWithLang(ctx, vidErrors.ErrCodeUnknownPackage)
	}

	payment, err := uc.gateway.CreatePayment(ctx, &CreateGatewayPaymentRequest{
		AmountMinor: pkg.PriceMinor,
		Currency:    "RUB",
		Description: fmt.Sprintf("Оплата подписки: %s", pkg.Description),
		Metadata: map[string]string{
			"user_id":      userID,
			"package_type": pkg.Name,
		},
		IdempotenceKey: uuid.New().String(),
	})
	if err != nil {
		uc.log.Errorf("CreatePayment failed: user_id=%s, package=%s, error=%v", userID, packageType, err)
		return "", pkgErrors.WrapErrorWithLang(ctx, err, vidErrors.ErrCodeGatewayCreateFailed)
	}

	intent := &PaymentIntent{
		PaymentID:   payment.ID,
		UserID:      userID,
		PackageType: pkg.Name,
		AmountMinor: pkg.PriceMinor,
		Credits:     pkg.Credits,
		Status:      constants.IntentStatusPending,
	}
	if err := uc.repo.CreateIntent(ctx, intent); err != nil {
		uc.log.Errorf("CreateIntent failed: payment_id=%s, error=%v", payment.ID, err)
		return "", pkgErrors.WrapErrorWithLang(ctx, err, vidErrors.ErrCodeIntentCreateFailed)
	}

	if uc.metrics != nil {
		uc.metrics.IntentTotal.WithLabelValues(constants.IntentStatusPending).Inc()
	}

	uc.log.Infof("Payment intent created: payment_id=%s, user_id=%s, package=%s, amount_minor=%d",
		payment.ID, userID, pkg.Name, pkg.PriceMinor)
	return payment.ConfirmationURL, nil
}

// ApplyCredit 幂等入账入口，轮询和 Webhook 两条路径都必须走这里
// 重复调用是安全的：已 completed 的订单直接返回，不会二次入账
func (uc *PaymentUseCase) ApplyCredit(ctx context.Context, paymentID string) error {
	intent, applied, err := uc.repo.ApplyCredit(ctx, paymentID)
	if err != nil {
		if uc.metrics != nil {
			uc.metrics.ApplyCreditTotal.WithLabelValues(constants.ResultFailed).Inc()
		}
		return err
	}

	if !applied {
		if uc.metrics != nil {
			uc.metrics.ApplyCreditTotal.WithLabelValues(constants.ResultDuplicate).Inc()
		}
		uc.log.Infof("Apply credit skipped, already processed: payment_id=%s", paymentID)
		return nil
	}

	if uc.metrics != nil {
		uc.metrics.ApplyCreditTotal.WithLabelValues(constants.ResultSuccess).Inc()
		uc.metrics.IntentTotal.WithLabelValues(constants.IntentStatusCompleted).Inc()
		uc.metrics.IntentAmount.WithLabelValues(constants.IntentStatusCompleted).Add(float64(intent.AmountMinor))
	}

	uc.log.Infof("Payment credited: payment_id=%s, user_id=%s, credits=%d",
		paymentID, intent.UserID, intent.Credits)
	uc.notifyCredited(ctx, intent)
	return nil
}

// notifyCredited 通知用户和管理群（失败只记日志，不影响入账）
func (uc *PaymentUseCase) notifyCredited(ctx context.Context, intent *PaymentIntent) {
	pkg := uc.conf.Packages[intent.PackageType]
	desc := intent.PackageType
	if pkg != nil {
		desc = pkg.Description
	}

	if err := uc.notifier.SendText(ctx, intent.UserID,
		fmt.Sprintf("Вы успешно оплатили подписку: %s с %d запросами!", desc, intent.Credits)); err != nil {
		uc.log.Warnf("notify user failed: payment_id=%s, error=%v", intent.PaymentID, err)
	}

	if uc.conf.AdminChatID != 0 {
		if err := uc.notifier.SendText(ctx, fmt.Sprintf("%d", uc.conf.AdminChatID),
			fmt.Sprintf("Какой-то пользователь купил подписку: %s\n\nНа сумму %.2f рублей",
				desc, float64(intent.AmountMinor)/100)); err != nil {
			uc.log.Warnf("notify admin failed: payment_id=%s, error=%v", intent.PaymentID, err)
		}
	}
}

// Cancel 将订单置为 canceled 终态（网关报告非 succeeded 的终态时调用）
func (uc *PaymentUseCase) Cancel(ctx context.Context, paymentID string) error {
	flipped, err := uc.repo.MarkCanceled(ctx, paymentID)
	if err != nil {
		return err
	}
	if flipped && uc.metrics != nil {
		uc.metrics.IntentTotal.WithLabelValues(constants.IntentStatusCanceled).Inc()
	}
	return nil
}

// Reconcile 对单个订单做一次对账：查询网关状态并收敛本地状态
// pending 状态下不做任何变更，等待下一轮
func (uc *PaymentUseCase) Reconcile(ctx context.Context, intent *PaymentIntent) error {
	payment, err := uc.gateway.GetPayment(ctx, intent.PaymentID)
	if err != nil {
		// 网关不可达不是终态，下一轮重试
		uc.log.Warnf("GetPayment failed: payment_id=%s, error=%v", intent.PaymentID, err)
		return pkgErrors.WrapErrorWithLang(ctx, err, vidErrors.ErrCodeGatewayQueryFailed)
	}

	if uc.metrics != nil {
		uc.metrics.GatewayPollTotal.WithLabelValues(payment.Status).Inc()
	}

	switch payment.Status {
	case constants.GatewayStatusSucceeded:
		return uc.ApplyCredit(ctx, intent.PaymentID)
	case constants.GatewayStatusPending:
		return nil
	default:
		// canceled 等其他终态：作废订单，通知用户，绝不入账
		uc.log.Infof("Payment terminal without success: payment_id=%s, status=%s", intent.PaymentID, payment.Status)
		if err := uc.Cancel(ctx, intent.PaymentID); err != nil {
			return err
		}
		if err := uc.notifier.SendText(ctx, intent.UserID,
			fmt.Sprintf("Платеж завершен с другим статусом: %s.", payment.Status)); err != nil {
			uc.log.Warnf("notify user failed: payment_id=%s, error=%v", intent.PaymentID, err)
		}
		return nil
	}
}

// ReconcilePending 对所有 pending 订单做一轮对账（对账服务每个轮询周期调用一次）
func (uc *PaymentUseCase) ReconcilePending(ctx context.Context) error {
	intents, err := uc.repo.ListPending(ctx, 100)
	if err != nil {
		return err
	}
	for _, intent := range intents {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := uc.Reconcile(ctx, intent); err != nil {
			// 单个订单失败不影响其他订单
			uc.log.Warnf("Reconcile failed: payment_id=%s, error=%v", intent.PaymentID, err)
		}
	}
	return nil
}

// ExpireStale 作废长期 pending 的订单（cron 调用）
func (uc *PaymentUseCase) ExpireStale(ctx context.Context) (int64, error) {
	olderThan := time.Now().AddDate(0, 0, -uc.conf.StaleAfterDays)
	count, err := uc.repo.CancelStale(ctx, olderThan)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		uc.log.Infof("Expired stale payment intents: count=%d, older_than=%s", count, olderThan.Format(time.RFC3339))
		if uc.metrics != nil {
			uc.metrics.IntentTotal.WithLabelValues(constants.IntentStatusCanceled).Add(float64(count))
		}
	}
	return count, nil
}

// GetIntent 查询订单
func (uc *PaymentUseCase) GetIntent(ctx context.Context, paymentID string) (*PaymentIntent, error) {
	return uc.repo.GetIntent(ctx, paymentID)
}
