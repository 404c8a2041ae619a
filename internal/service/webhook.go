package service

import (
	"encoding/json"
	"io"
	"net/http"

	"vidociki/internal/biz"
	"vidociki/internal/constants"
	"vidociki/internal/metrics"

	"github.com/go-kratos/kratos/v2/log"
)

// webhookNotification ЮKassa Webhook 通知体
type webhookNotification struct {
	Event  string `json:"event"`
	Object struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	} `json:"object"`
}

// WebhookService 处理支付网关的 Webhook 回调
// 入账统一走 PaymentUseCase.ApplyCredit，与轮询路径幂等汇合
type WebhookService struct {
	payments *biz.PaymentUseCase
	log      *log.Helper
	metrics  *metrics.BotMetrics
}

// NewWebhookService 创建 WebhookService
func NewWebhookService(payments *biz.PaymentUseCase, logger log.Logger) *WebhookService {
	return &WebhookService{
		payments: payments,
		log:      log.NewHelper(logger),
		metrics:  metrics.GetMetrics(),
	}
}

// ServeHTTP 处理 Webhook 请求
// 始终返回 200，避免网关对业务错误无限重试；处理失败靠轮询兜底
func (s *WebhookService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		s.log.Warnf("Webhook read body failed: %v", err)
		w.WriteHeader(http.StatusOK)
		return
	}

	var n webhookNotification
	if err := json.Unmarshal(body, &n); err != nil || n.Object.ID == "" {
		s.log.Warnf("Webhook malformed body: %s", string(body))
		w.WriteHeader(http.StatusOK)
		return
	}

	s.log.Infof("Webhook received: event=%s, payment_id=%s", n.Event, n.Object.ID)
	if s.metrics != nil {
		s.metrics.WebhookTotal.WithLabelValues(n.Event).Inc()
	}

	switch n.Event {
	case constants.WebhookEventSucceeded:
		if err := s.payments.ApplyCredit(r.Context(), n.Object.ID); err != nil {
			s.log.Errorf("Webhook ApplyCredit failed: payment_id=%s, error=%v", n.Object.ID, err)
		}
	case constants.WebhookEventCanceled:
		if err := s.payments.Cancel(r.Context(), n.Object.ID); err != nil {
			s.log.Errorf("Webhook Cancel failed: payment_id=%s, error=%v", n.Object.ID, err)
		}
	default:
		s.log.Warnf("Webhook unknown event: %s", n.Event)
	}

	w.WriteHeader(http.StatusOK)
}
