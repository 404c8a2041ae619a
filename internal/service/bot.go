package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"vidociki/internal/biz"
	"vidociki/internal/constants"

	"github.com/go-kratos/kratos/v2/log"
)

// 用户可见文案（俄语）
const (
	msgGreeting          = "Привет! Я бот для анализа видео. Отправь мне видео, и я оценю его по 10-балльной шкале.\n\nОсталось обработок: %d"
	msgSubscribeRequired = "Для использования бота подпишитесь на наш канал, затем нажмите /start."
	msgSendVideo         = "Отправьте видео для анализа."
	msgQuotaDenied       = "У вас закончились обработки. Лимит обновится %s.\n\nВы можете купить обработки или пригласить друга."
	msgAnalyzing         = "Видео получено, анализирую..."
	msgAnalysisFailed    = "Не удалось проанализировать видео. Обработка не списана, попробуйте еще раз."
	msgNotAwaitingVideo  = "Сначала нажмите «Обработать видео» в меню."
	msgProfile           = "Ваш профиль\n\nОсталось обработок: %d\nИспользовано сегодня: %d\nВаш код приглашения: %s"
	msgInvite            = "Приглашайте друзей и получайте обработки!\n\nВаша ссылка: %s\n\nЗа каждого друга, который запустит бота по вашей ссылке, вы получите %d обработок."
	msgReferralApplied   = "По вашей ссылке зарегистрировался новый пользователь! Вам начислено %d обработок."
	msgChoosePackage     = "Выберите пакет обработок:"
	msgPaymentLink       = "Для оплаты перейдите по ссылке:\n%s\n\nПосле оплаты обработки будут начислены автоматически."
	msgPaymentFailed     = "Не удалось создать платеж, попробуйте позже."
	msgInternalError     = "Что-то пошло не так, попробуйте позже."
)

// 主菜单按钮文案
const (
	btnProcessVideo = "Обработать видео"
	btnInviteFriend = "Пригласить друга"
	btnProfile      = "Профиль"
	btnBuyCredits   = "Купить обработки"
)

// BotService 处理机器人指令、回调和视频消息
type BotService struct {
	transport biz.ChatTransport
	accounts  *biz.AccountUseCase
	referrals *biz.ReferralUseCase
	payments  *biz.PaymentUseCase
	analysis  *biz.AnalysisUseCase
	conf      *biz.BotConfig
	log       *log.Helper
}

// NewBotService 创建 BotService
func NewBotService(
	transport biz.ChatTransport,
	accounts *biz.AccountUseCase,
	referrals *biz.ReferralUseCase,
	payments *biz.PaymentUseCase,
	analysis *biz.AnalysisUseCase,
	conf *biz.BotConfig,
	logger log.Logger,
) *BotService {
	return &BotService{
		transport: transport,
		accounts:  accounts,
		referrals: referrals,
		payments:  payments,
		analysis:  analysis,
		conf:      conf,
		log:       log.NewHelper(logger),
	}
}

// HandleStart 处理 /start，payload 为深链中携带的推荐码（可为空）
func (s *BotService) HandleStart(ctx context.Context, userID, chatID, username, payload string) {
	ok, err := s.transport.IsChannelMember(ctx, userID)
	if err != nil {
		s.log.Warnf("IsChannelMember failed: user_id=%s, error=%v", userID, err)
	}
	if !ok && err == nil {
		s.send(ctx, chatID, msgSubscribeRequired)
		return
	}

	account, err := s.accounts.GetOrCreate(ctx, userID, username)
	if err != nil {
		s.log.Errorf("GetOrCreate failed: user_id=%s, error=%v", userID, err)
		s.send(ctx, chatID, msgInternalError)
		return
	}

	// 深链推荐码只在首次 /start 时兑换，奖励发给码主
	if payload != "" {
		applied, err := s.referrals.Redeem(ctx, userID, payload)
		if err != nil {
			s.log.Warnf("Redeem failed: user_id=%s, code=%s, error=%v", userID, payload, err)
		}
		if applied {
			s.notifyReferralOwner(ctx, payload)
		}
	}

	s.sendMainMenu(ctx, chatID, fmt.Sprintf(msgGreeting, account.RemainingCredits))
}

// HandleCallback 处理内联键盘回调
func (s *BotService) HandleCallback(ctx context.Context, userID, chatID, username, callbackID, data string) {
	if err := s.transport.AnswerCallback(ctx, callbackID); err != nil {
		s.log.Warnf("AnswerCallback failed: callback_id=%s, error=%v", callbackID, err)
	}

	switch {
	case data == constants.CallbackProcessVideo:
		s.handleProcessVideo(ctx, userID, chatID, username)
	case data == constants.CallbackInviteFriend:
		s.handleInvite(ctx, userID, chatID)
	case data == constants.CallbackProfile:
		s.handleProfile(ctx, userID, chatID, username)
	case data == constants.CallbackBuyCredits:
		s.handleBuyMenu(ctx, chatID)
	case strings.HasPrefix(data, constants.CallbackBuyPrefix):
		s.handleBuy(ctx, userID, chatID, strings.TrimPrefix(data, constants.CallbackBuyPrefix))
	default:
		s.log.Warnf("Unknown callback data: user_id=%s, data=%s", userID, data)
	}
}

// HandleVideo 处理收到的视频消息
func (s *BotService) HandleVideo(ctx context.Context, userID, chatID, username, fileID string) {
	awaiting, err := s.analysis.Awaiting(ctx, userID)
	if err != nil {
		s.log.Warnf("Awaiting check failed: user_id=%s, error=%v", userID, err)
	}
	if !awaiting {
		s.send(ctx, chatID, msgNotAwaitingVideo)
		return
	}

	s.send(ctx, chatID, msgAnalyzing)

	report, err := s.analysis.Analyze(ctx, userID, username, fileID)
	if err != nil {
		s.log.Errorf("Analyze failed: user_id=%s, file_id=%s, error=%v", userID, fileID, err)
		s.send(ctx, chatID, msgAnalysisFailed)
		return
	}
	s.send(ctx, chatID, report)
}

func (s *BotService) handleProcessVideo(ctx context.Context, userID, chatID, username string) {
	decision, err := s.analysis.Request(ctx, userID, username)
	if err != nil {
		s.log.Errorf("Request failed: user_id=%s, error=%v", userID, err)
		s.send(ctx, chatID, msgInternalError)
		return
	}
	if !decision.Allowed {
		s.sendQuotaDenied(ctx, chatID, decision.NextResetAt)
		return
	}
	s.send(ctx, chatID, msgSendVideo)
}

func (s *BotService) handleProfile(ctx context.Context, userID, chatID, username string) {
	account, err := s.accounts.GetOrCreate(ctx, userID, username)
	if err != nil {
		s.log.Errorf("GetOrCreate failed: user_id=%s, error=%v", userID, err)
		s.send(ctx, chatID, msgInternalError)
		return
	}
	used, err := s.accounts.TodayUsage(ctx, userID)
	if err != nil {
		s.log.Warnf("TodayUsage failed: user_id=%s, error=%v", userID, err)
	}
	code, err := s.referrals.GetOrCreateCode(ctx, userID)
	if err != nil {
		s.log.Warnf("GetOrCreateCode failed: user_id=%s, error=%v", userID, err)
	}
	s.send(ctx, chatID, fmt.Sprintf(msgProfile, account.RemainingCredits, used, code))
}

func (s *BotService) handleInvite(ctx context.Context, userID, chatID string) {
	code, err := s.referrals.GetOrCreateCode(ctx, userID)
	if err != nil {
		s.log.Errorf("GetOrCreateCode failed: user_id=%s, error=%v", userID, err)
		s.send(ctx, chatID, msgInternalError)
		return
	}
	link := s.referrals.InviteLink(code)
	s.send(ctx, chatID, fmt.Sprintf(msgInvite, link, s.conf.ReferralBonus))
}

func (s *BotService) handleBuyMenu(ctx context.Context, chatID string) {
	rows := make([][]biz.Button, 0, len(s.conf.PackageOrder))
	for _, name := range s.conf.PackageOrder {
		pkg, ok := s.conf.Packages[name]
		if !ok {
			continue
		}
		label := fmt.Sprintf("%s - %d ₽", pkg.Description, pkg.PriceMinor/100)
		rows = append(rows, []biz.Button{{Text: label, Data: constants.CallbackBuyPrefix + pkg.Name}})
	}
	if err := s.transport.SendKeyboard(ctx, chatID, msgChoosePackage, rows); err != nil {
		s.log.Errorf("SendKeyboard failed: chat_id=%s, error=%v", chatID, err)
	}
}

func (s *BotService) handleBuy(ctx context.Context, userID, chatID, packageType string) {
	confirmationURL, err := s.payments.CreateIntent(ctx, userID, packageType)
	if err != nil {
		s.log.Errorf("CreateIntent failed: user_id=%s, package=%s, error=%v", userID, packageType, err)
		s.send(ctx, chatID, msgPaymentFailed)
		return
	}
	s.send(ctx, chatID, fmt.Sprintf(msgPaymentLink, confirmationURL))
}

// notifyReferralOwner 兑换成功后通知码主
func (s *BotService) notifyReferralOwner(ctx context.Context, code string) {
	owner, err := s.referrals.OwnerOf(ctx, code)
	if err != nil || owner == nil {
		return
	}
	s.send(ctx, owner.UserID, fmt.Sprintf(msgReferralApplied, s.conf.ReferralBonus))
}

func (s *BotService) sendQuotaDenied(ctx context.Context, chatID string, nextResetAt time.Time) {
	resetText := nextResetAt.In(s.conf.Location).Format("02.01.2006 в 15:04")
	text := fmt.Sprintf(msgQuotaDenied, resetText)
	rows := [][]biz.Button{
		{{Text: btnBuyCredits, Data: constants.CallbackBuyCredits}},
		{{Text: btnInviteFriend, Data: constants.CallbackInviteFriend}},
	}
	if err := s.transport.SendKeyboard(ctx, chatID, text, rows); err != nil {
		s.log.Errorf("SendKeyboard failed: chat_id=%s, error=%v", chatID, err)
	}
}

func (s *BotService) sendMainMenu(ctx context.Context, chatID, text string) {
	rows := [][]biz.Button{
		{{Text: btnProcessVideo, Data: constants.CallbackProcessVideo}},
		{{Text: btnInviteFriend, Data: constants.CallbackInviteFriend}},
		{{Text: btnProfile, Data: constants.CallbackProfile}},
		{{Text: btnBuyCredits, Data: constants.CallbackBuyCredits}},
	}
	if err := s.transport.SendKeyboard(ctx, chatID, text, rows); err != nil {
		s.log.Errorf("SendKeyboard failed: chat_id=%s, error=%v", chatID, err)
	}
}

func (s *BotService) send(ctx context.Context, chatID, text string) {
	if err := s.transport.SendText(ctx, chatID, text); err != nil {
		s.log.Errorf("SendText failed: chat_id=%s, error=%v", chatID, err)
	}
}
