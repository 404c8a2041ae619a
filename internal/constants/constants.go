package constants

// 时间格式常量
const (
	// TimeFormatDay 日期格式 (YYYY-MM-DD)，用于每日额度重置
	TimeFormatDay = "2006-01-02"
)

// Redis Key 前缀常量
const (
	// RedisKeyBalance 额度缓存 key 前缀
	RedisKeyBalance = "credits:"
	// RedisKeyAwaitVideo 等待视频上传标记 key 前缀
	RedisKeyAwaitVideo = "await:video:"
	// RedisKeyApplyLock 入账锁 key 前缀（按 payment_id）
	RedisKeyApplyLock = "payment:apply:lock:"
)

// 支付订单状态常量
const (
	// IntentStatusPending 待支付
	IntentStatusPending = "pending"
	// IntentStatusCompleted 已入账
	IntentStatusCompleted = "completed"
	// IntentStatusCanceled 已作废（网关终态非 succeeded）
	IntentStatusCanceled = "canceled"
)

// 网关支付状态常量（ЮKassa）
const (
	// GatewayStatusSucceeded 支付成功
	GatewayStatusSucceeded = "succeeded"
	// GatewayStatusPending 等待支付
	GatewayStatusPending = "pending"
	// GatewayStatusCanceled 已取消
	GatewayStatusCanceled = "canceled"
)

// 网关 Webhook 事件常量
const (
	// WebhookEventSucceeded 支付成功事件
	WebhookEventSucceeded = "payment.succeeded"
	// WebhookEventCanceled 支付取消事件
	WebhookEventCanceled = "payment.canceled"
)

// 流水类型常量
const (
	// EntryTypeSignup 注册赠送
	EntryTypeSignup = "signup"
	// EntryTypeDebit 分析扣减
	EntryTypeDebit = "debit"
	// EntryTypeDailyReset 每日重置
	EntryTypeDailyReset = "daily_reset"
	// EntryTypeReferralBonus 邀请奖励
	EntryTypeReferralBonus = "referral_bonus"
	// EntryTypePurchase 购买入账
	EntryTypePurchase = "purchase"
)

// 配额检查结果常量（用于指标）
const (
	// QuotaCheckResultAllowed 允许
	QuotaCheckResultAllowed = "allowed"
	// QuotaCheckResultDenied 拒绝
	QuotaCheckResultDenied = "denied"
	// QuotaCheckResultError 错误
	QuotaCheckResultError = "error"
)

// 通用结果常量（用于指标）
const (
	// ResultSuccess 成功
	ResultSuccess = "success"
	// ResultFailed 失败
	ResultFailed = "failed"
	// ResultDenied 被规则拒绝
	ResultDenied = "denied"
	// ResultError 内部错误
	ResultError = "error"
	// ResultDuplicate 重复请求（幂等命中）
	ResultDuplicate = "duplicate"
)

// Telegram 回调数据常量
const (
	// CallbackProcessVideo 处理视频
	CallbackProcessVideo = "process_video"
	// CallbackInviteFriend 邀请好友
	CallbackInviteFriend = "invite_friend"
	// CallbackProfile 个人中心
	CallbackProfile = "profile"
	// CallbackBuyCredits 购买额度
	CallbackBuyCredits = "buy_credits"
	// CallbackBuyPrefix 购买套餐前缀，后接套餐名
	CallbackBuyPrefix = "buy_"
)

// 推荐码字符集与长度
const (
	// ReferralCodeAlphabet 推荐码字符集（去掉易混淆字符）
	ReferralCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz23456789"
	// ReferralCodeLength 推荐码长度
	ReferralCodeLength = 8
)
