package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BotMetrics 服务指标
type BotMetrics struct {
	// 配额检查相关指标
	QuotaCheckTotal    *prometheus.CounterVec // 配额检查总数（按结果）
	QuotaCheckDuration prometheus.Histogram   // 配额检查耗时

	// 扣减相关指标
	DebitTotal      *prometheus.CounterVec // 扣减总数（按结果）
	DailyResetTotal prometheus.Counter     // 每日重置次数

	// 分析相关指标
	AnalysisTotal    *prometheus.CounterVec // 分析请求总数（按结果）
	AnalysisDuration prometheus.Histogram   // 分析耗时

	// 推荐相关指标
	ReferralRedeemTotal *prometheus.CounterVec // 推荐码兑换总数（按结果）

	// 支付相关指标
	IntentTotal      *prometheus.CounterVec // 支付订单总数（按状态）
	IntentAmount     *prometheus.CounterVec // 支付金额（最小货币单位，按状态）
	ApplyCreditTotal *prometheus.CounterVec // 入账调用总数（按结果）
	GatewayPollTotal *prometheus.CounterVec // 网关轮询总数（按网关状态）
	WebhookTotal     *prometheus.CounterVec // Webhook 事件总数（按事件）

	// 分布式锁指标
	LockAcquireTotal    *prometheus.CounterVec // 锁获取总数（按结果）
	LockAcquireDuration prometheus.Histogram   // 锁获取耗时
}

// NewBotMetrics 创建指标集合
func NewBotMetrics() *BotMetrics {
	return &BotMetrics{
		QuotaCheckTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vidociki_quota_check_total",
				Help: "Total number of quota checks",
			},
			[]string{"result"}, // result: allowed/denied/error
		),
		QuotaCheckDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "vidociki_quota_check_duration_seconds",
				Help:    "Duration of quota checks",
				Buckets: prometheus.DefBuckets,
			},
		),

		DebitTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vidociki_debit_total",
				Help: "Total number of credit debits",
			},
			[]string{"result"},
		),
		DailyResetTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "vidociki_daily_reset_total",
				Help: "Total number of lazy daily credit resets",
			},
		),

		AnalysisTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vidociki_analysis_total",
				Help: "Total number of video analysis requests",
			},
			[]string{"result"},
		),
		AnalysisDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "vidociki_analysis_duration_seconds",
				Help:    "Duration of video analysis calls",
				Buckets: []float64{1, 2.5, 5, 10, 20, 30, 60, 120},
			},
		),

		ReferralRedeemTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vidociki_referral_redeem_total",
				Help: "Total number of referral code redemptions",
			},
			[]string{"result"},
		),

		IntentTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vidociki_payment_intent_total",
				Help: "Total number of payment intents",
			},
			[]string{"status"}, // status: pending/completed/canceled
		),
		IntentAmount: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vidociki_payment_amount_minor_total",
				Help: "Total payment amount in minor currency units",
			},
			[]string{"status"},
		),
		ApplyCreditTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vidociki_apply_credit_total",
				Help: "Total number of apply-credit invocations",
			},
			[]string{"result"}, // result: success/duplicate/failed
		),
		GatewayPollTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vidociki_gateway_poll_total",
				Help: "Total number of gateway status polls",
			},
			[]string{"status"},
		),
		WebhookTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vidociki_webhook_total",
				Help: "Total number of gateway webhook events",
			},
			[]string{"event"},
		),

		LockAcquireTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vidociki_lock_acquire_total",
				Help: "Total number of lock acquisition attempts",
			},
			[]string{"result"},
		),
		LockAcquireDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "vidociki_lock_acquire_duration_seconds",
				Help:    "Duration of lock acquisition",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
			},
		),
	}
}

// 全局指标实例
var defaultMetrics *BotMetrics

// InitMetrics 初始化全局指标
func InitMetrics() {
	defaultMetrics = NewBotMetrics()
}

// GetMetrics 获取全局指标实例
func GetMetrics() *BotMetrics {
	if defaultMetrics == nil {
		InitMetrics()
	}
	return defaultMetrics
}
