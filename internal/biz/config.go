package biz

import (
	"time"

	"vidociki/internal/conf"
)

// PackageSpec 额度套餐（固定枚举表中的一项）
type PackageSpec struct {
	Name        string
	Credits     int
	PriceMinor  int64
	Description string
}

// BotConfig 业务配置
type BotConfig struct {
	InitialCredits int // 注册赠送额度
	DailyCredits   int // 每日重置额度（覆盖写入）
	ReferralBonus  int // 邀请奖励额度

	Location *time.Location // 日切时区

	Packages     map[string]*PackageSpec // 套餐表，按名称索引
	PackageOrder []string                // 菜单展示顺序

	BotUsername     string
	RequiredChannel int64
	AdminChatID     int64

	PollInterval   time.Duration // 支付状态轮询间隔
	StaleAfterDays int           // pending 订单作废天数
}

// defaultPackages 默认套餐表
func defaultPackages() []*conf.Package {
	return []*conf.Package{
		{Name: "plan_1", Credits: 10, PriceMinor: 500, Description: "План 1 - 10 обработок"},
		{Name: "plan_2", Credits: 30, PriceMinor: 1500, Description: "План 2 - 30 обработок"},
		{Name: "plan_3", Credits: 100, PriceMinor: 4000, Description: "План 3 - 100 обработок"},
	}
}

// NewBotConfig 从配置创建 BotConfig
func NewBotConfig(c *conf.Bootstrap) *BotConfig {
	config := &BotConfig{
		InitialCredits: 5,                // 默认值
		DailyCredits:   3,                // 默认值
		ReferralBonus:  5,                // 默认值
		Location:       time.UTC,
		Packages:       make(map[string]*PackageSpec),
		PollInterval:   30 * time.Second, // 默认值
		StaleAfterDays: 3,                // 默认值
	}

	pkgs := defaultPackages()
	if c.Billing != nil {
		if c.Billing.InitialCredits > 0 {
			config.InitialCredits = c.Billing.InitialCredits
		}
		if c.Billing.DailyCredits > 0 {
			config.DailyCredits = c.Billing.DailyCredits
		}
		if c.Billing.ReferralBonus > 0 {
			config.ReferralBonus = c.Billing.ReferralBonus
		}
		if c.Billing.Timezone != "" {
			if loc, err := time.LoadLocation(c.Billing.Timezone); err == nil {
				config.Location = loc
			}
		}
		if len(c.Billing.Packages) > 0 {
			pkgs = c.Billing.Packages
		}
	}

	for _, p := range pkgs {
		config.Packages[p.Name] = &PackageSpec{
			Name:        p.Name,
			Credits:     p.Credits,
			PriceMinor:  p.PriceMinor,
			Description: p.Description,
		}
		config.PackageOrder = append(config.PackageOrder, p.Name)
	}

	if c.Bot != nil {
		config.BotUsername = c.Bot.Username
		config.RequiredChannel = c.Bot.RequiredChannel
		config.AdminChatID = c.Bot.AdminChatID
	}

	if c.Gateway != nil {
		if c.Gateway.PollInterval != "" {
			if d, err := time.ParseDuration(c.Gateway.PollInterval); err == nil && d > 0 {
				config.PollInterval = d
			}
		}
		if c.Gateway.StaleAfterDays > 0 {
			config.StaleAfterDays = c.Gateway.StaleAfterDays
		}
	}

	return config
}

// Today 返回配置时区下的当前日期（YYYY-MM-DD）
func (c *BotConfig) Today(now time.Time) string {
	return now.In(c.Location).Format("2006-01-02")
}

// NextResetAt 返回配置时区下一个日切时间（仅用于向用户展示）
func (c *BotConfig) NextResetAt(now time.Time) time.Time {
	local := now.In(c.Location)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, c.Location).AddDate(0, 0, 1)
}
