package data

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"vidociki/internal/biz"
	"vidociki/internal/conf"
	vidErrors "vidociki/internal/errors"

	pkgErrors "github.com/gaoyong06/go-pkg/errors"
	"github.com/go-kratos/kratos/v2/log"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramClient Telegram Bot API 传输层客户端
// 实现 biz.ChatTransport / biz.Notifier / biz.FileSource
type TelegramClient struct {
	api             *tgbotapi.BotAPI
	requiredChannel int64
	httpClient      *http.Client
	log             *log.Helper
}

// NewTelegramClient 创建 Telegram 客户端
func NewTelegramClient(c *conf.Bootstrap, logger log.Logger) (*TelegramClient, error) {
	if c.Bot == nil || c.Bot.Token == "" {
		return nil, fmt.Errorf("bot token is required")
	}

	api, err := tgbotapi.NewBotAPI(c.Bot.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot api: %w", err)
	}

	return &TelegramClient{
		api:             api,
		requiredChannel: c.Bot.RequiredChannel,
		httpClient:      &http.Client{Timeout: 60 * time.Second},
		log:             log.NewHelper(logger),
	}, nil
}

// Updates 返回长轮询更新通道
func (t *TelegramClient) Updates() tgbotapi.UpdatesChannel {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	return t.api.GetUpdatesChan(u)
}

// StopReceiving 停止长轮询
func (t *TelegramClient) StopReceiving() {
	t.api.StopReceivingUpdates()
}

// SendText 发送纯文本消息
func (t *TelegramClient) SendText(ctx context.Context, chatID, text string) error {
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid chat id %q: %w", chatID, err)
	}
	_, err = t.api.Send(tgbotapi.NewMessage(id, text))
	return err
}

// SendKeyboard 发送带内联键盘的消息
func (t *TelegramClient) SendKeyboard(ctx context.Context, chatID, text string, rows [][]biz.Button) error {
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid chat id %q: %w", chatID, err)
	}

	keyboard := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Data))
		}
		keyboard = append(keyboard, buttons)
	}

	msg := tgbotapi.NewMessage(id, text)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(keyboard...)
	_, err = t.api.Send(msg)
	return err
}

// AnswerCallback 应答回调查询（去掉按钮上的加载态）
func (t *TelegramClient) AnswerCallback(ctx context.Context, callbackID string) error {
	_, err := t.api.Request(tgbotapi.NewCallback(callbackID, ""))
	return err
}

// IsChannelMember 检查用户是否已加入指定频道（未配置频道时恒为 true）
func (t *TelegramClient) IsChannelMember(ctx context.Context, chatID string) (bool, error) {
	if t.requiredChannel == 0 {
		return true, nil
	}

	userID, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return false, fmt.Errorf("invalid chat id %q: %w", chatID, err)
	}

	member, err := t.api.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{
			ChatID: t.requiredChannel,
			UserID: userID,
		},
	})
	if err != nil {
		return false, err
	}

	switch member.Status {
	case "member", "administrator", "creator":
		return true, nil
	default:
		return false, nil
	}
}

// FetchFile 通过 Bot API 下载聊天文件
func (t *TelegramClient) FetchFile(ctx context.Context, fileID string) ([]byte, error) {
	url, err := t.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, pkgErrors.WrapErrorWithLang(ctx, err, vidErrors.ErrCodeVideoDownloadFailed)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, pkgErrors.WrapErrorWithLang(ctx, err, vidErrors.ErrCodeVideoDownloadFailed)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, pkgErrors.NewBizErrorWithLang(ctx, vidErrors.ErrCodeVideoDownloadFailed)
	}

	return io.ReadAll(resp.Body)
}
