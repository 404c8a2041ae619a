package errors

import (
	pkgErrors "github.com/gaoyong06/go-pkg/errors"
	i18nPkg "github.com/gaoyong06/go-pkg/middleware/i18n"
)

func init() {
	// 初始化全局错误管理器（使用项目特定的配置）
	pkgErrors.InitGlobalErrorManager("i18n", i18nPkg.Language)
}

// Vidociki 错误码定义
// 错误码格式：SSMMEE (6位数字)
//   SS: 服务标识，固定为 21
//   MM: 模块标识，按业务划分
//   EE: 模块内错误序号
//
// 模块划分：
//   00: 通用模块（复用 go-pkg 通用错误码）
//   01: 账户/额度模块
//   02: 推荐模块
//   03: 支付模块
//   04: 分析模块
//   05-99: 预留扩展

// 账户/额度模块错误码 (210100-210199)
const (
	// ErrCodeAccountNotFound 账户不存在
	ErrCodeAccountNotFound = 210101
	// ErrCodeAccountCreateFailed 账户创建失败
	ErrCodeAccountCreateFailed = 210102
	// ErrCodeInsufficientCredits 额度不足
	ErrCodeInsufficientCredits = 210103
	// ErrCodeDebitFailed 额度扣减失败
	ErrCodeDebitFailed = 210104
	// ErrCodeCreditFailed 额度入账失败
	ErrCodeCreditFailed = 210105
	// ErrCodeResetFailed 每日额度重置失败
	ErrCodeResetFailed = 210106
)

// 推荐模块错误码 (210200-210299)
const (
	// ErrCodeReferralCodeGenFailed 推荐码生成失败
	ErrCodeReferralCodeGenFailed = 210201
	// ErrCodeReferralRecordFailed 推荐使用记录写入失败
	ErrCodeReferralRecordFailed = 210202
)

// 支付模块错误码 (210300-210399)
const (
	// ErrCodeUnknownPackage 未知的套餐类型
	ErrCodeUnknownPackage = 210301
	// ErrCodeIntentCreateFailed 支付订单创建失败
	ErrCodeIntentCreateFailed = 210302
	// ErrCodeIntentNotFound 支付订单不存在
	ErrCodeIntentNotFound = 210303
	// ErrCodeIntentUpdateFailed 支付订单更新失败
	ErrCodeIntentUpdateFailed = 210304
	// ErrCodeGatewayCreateFailed 网关创建支付失败
	ErrCodeGatewayCreateFailed = 210305
	// ErrCodeGatewayQueryFailed 网关查询支付失败
	ErrCodeGatewayQueryFailed = 210306
	// ErrCodeApplyLockFailed 入账锁获取失败
	ErrCodeApplyLockFailed = 210307
)

// 分析模块错误码 (210400-210499)
const (
	// ErrCodeAnalysisFailed 视频分析失败
	ErrCodeAnalysisFailed = 210401
	// ErrCodeVideoDownloadFailed 视频下载失败
	ErrCodeVideoDownloadFailed = 210402
)
