package biz

import "context"

// Button 内联键盘按钮
type Button struct {
	Text string
	Data string
}

// ChatTransport 聊天传输层接口（消息投递、键盘、文件拉取、频道校验）
// 额度与支付状态不在传输层持有任何数据
type ChatTransport interface {
	SendText(ctx context.Context, chatID, text string) error
	SendKeyboard(ctx context.Context, chatID, text string, rows [][]Button) error
	AnswerCallback(ctx context.Context, callbackID string) error
	IsChannelMember(ctx context.Context, chatID string) (bool, error)
	FetchFile(ctx context.Context, fileID string) ([]byte, error)
}
