package server

import (
	"context"
	"strconv"
	"sync"

	"vidociki/internal/data"
	"vidociki/internal/service"

	"github.com/go-kratos/kratos/v2/log"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// BotServer 以长轮询方式消费 Telegram 更新并分发到 BotService
type BotServer struct {
	client *data.TelegramClient
	svc    *service.BotService
	log    *log.Helper

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewBotServer 创建 BotServer
func NewBotServer(client *data.TelegramClient, svc *service.BotService, logger log.Logger) *BotServer {
	return &BotServer{
		client: client,
		svc:    svc,
		log:    log.NewHelper(logger),
	}
}

// Start 启动长轮询消费
func (s *BotServer) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	updates := s.client.Updates()
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.log.Info("Starting BotServer long polling")
		for {
			select {
			case <-runCtx.Done():
				return
			case update, ok := <-updates:
				if !ok {
					return
				}
				s.dispatch(runCtx, update)
			}
		}
	}()
	return nil
}

// Stop 停止消费并等待在途更新处理完成
func (s *BotServer) Stop(ctx context.Context) error {
	s.log.Info("Stopping BotServer")
	s.client.StopReceiving()
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	return nil
}

// dispatch 单条更新分发，每条更新一个 goroutine，互不阻塞
func (s *BotServer) dispatch(ctx context.Context, update tgbotapi.Update) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				s.log.Errorf("Update handler panic: update_id=%d, panic=%v", update.UpdateID, r)
			}
		}()

		switch {
		case update.CallbackQuery != nil:
			cb := update.CallbackQuery
			userID := strconv.FormatInt(cb.From.ID, 10)
			chatID := strconv.FormatInt(cb.Message.Chat.ID, 10)
			s.svc.HandleCallback(ctx, userID, chatID, cb.From.UserName, cb.ID, cb.Data)
		case update.Message != nil:
			s.dispatchMessage(ctx, update.Message)
		}
	}()
}

func (s *BotServer) dispatchMessage(ctx context.Context, msg *tgbotapi.Message) {
	userID := strconv.FormatInt(msg.From.ID, 10)
	chatID := strconv.FormatInt(msg.Chat.ID, 10)
	username := msg.From.UserName

	switch {
	case msg.IsCommand() && msg.Command() == "start":
		s.svc.HandleStart(ctx, userID, chatID, username, msg.CommandArguments())
	case msg.Video != nil:
		s.svc.HandleVideo(ctx, userID, chatID, username, msg.Video.FileID)
	case msg.VideoNote != nil:
		s.svc.HandleVideo(ctx, userID, chatID, username, msg.VideoNote.FileID)
	case msg.Document != nil && isVideoDocument(msg.Document):
		s.svc.HandleVideo(ctx, userID, chatID, username, msg.Document.FileID)
	}
}

// isVideoDocument 以文件方式发送的视频也接受
func isVideoDocument(doc *tgbotapi.Document) bool {
	switch doc.MimeType {
	case "video/mp4", "video/quicktime", "video/webm":
		return true
	}
	return false
}
