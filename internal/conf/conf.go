package conf

// Bootstrap 启动配置（由 kratos config 从 YAML 扫描填充）
type Bootstrap struct {
	Server  *Server  `json:"server"`
	Data    *Data    `json:"data"`
	Bot     *Bot     `json:"bot"`
	Gateway *Gateway `json:"gateway"`
	Billing *Billing `json:"billing"`
}

// Server 服务配置
type Server struct {
	Http *HTTP `json:"http"`
}

// HTTP HTTP 服务配置
type HTTP struct {
	Network string `json:"network"`
	Addr    string `json:"addr"`
	Timeout string `json:"timeout"`
}

// Data 数据层配置
type Data struct {
	Database *Database `json:"database"`
	Redis    *Redis    `json:"redis"`
}

// Database 数据库配置
type Database struct {
	Driver string `json:"driver"`
	Source string `json:"source"`
}

// Redis Redis 配置
type Redis struct {
	Addr         string `json:"addr"`
	ReadTimeout  string `json:"read_timeout"`
	WriteTimeout string `json:"write_timeout"`
}

// Bot Telegram 机器人配置
type Bot struct {
	Token string `json:"token"`
	// Username 机器人用户名（用于生成邀请链接）
	Username string `json:"username"`
	// RequiredChannel 必须关注的频道（为空则不检查）
	RequiredChannel int64 `json:"required_channel"`
	// AdminChatID 管理通知群（支付成功播报，为 0 则不发送）
	AdminChatID int64 `json:"admin_chat_id"`
	// GeminiApiKey Gemini API Key
	GeminiApiKey string `json:"gemini_api_key"`
	// GeminiModel 分析使用的模型
	GeminiModel string `json:"gemini_model"`
}

// Gateway 支付网关（ЮKassa）配置
type Gateway struct {
	ShopID    string `json:"shop_id"`
	SecretKey string `json:"secret_key"`
	BaseURL   string `json:"base_url"`
	ReturnURL string `json:"return_url"`
	// PollInterval 支付状态轮询间隔（如 "30s"）
	PollInterval string `json:"poll_interval"`
	// StaleAfterDays 超过该天数仍 pending 的订单由 cron 作废
	StaleAfterDays int `json:"stale_after_days"`
}

// Billing 额度配置
type Billing struct {
	// InitialCredits 注册赠送的一次性额度
	InitialCredits int `json:"initial_credits"`
	// DailyCredits 每日重置后的额度（覆盖写入，不叠加）
	DailyCredits int `json:"daily_credits"`
	// ReferralBonus 邀请奖励额度（发给邀请人）
	ReferralBonus int `json:"referral_bonus"`
	// Timezone 日切时区
	Timezone string `json:"timezone"`
	// Packages 额度套餐表
	Packages []*Package `json:"packages"`
}

// Package 额度套餐
type Package struct {
	Name        string `json:"name"`
	Credits     int    `json:"credits"`
	PriceMinor  int64  `json:"price_minor"`
	Description string `json:"description"`
}
