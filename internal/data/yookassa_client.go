package data

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"vidociki/internal/biz"
	"vidociki/internal/conf"
	vidErrors "vidociki/internal/errors"

	pkgErrors "github.com/gaoyong06/go-pkg/errors"
	"github.com/go-kratos/kratos/v2/log"
)

// defaultYooKassaBaseURL ЮKassa API 地址
const defaultYooKassaBaseURL = "https://api.yookassa.ru/v3"

// yooKassaGateway ЮKassa 支付网关客户端（实现 biz.PaymentGateway）
type yooKassaGateway struct {
	shopID    string
	secretKey string
	baseURL   string
	returnURL string
	client    *http.Client
	log       *log.Helper
}

// NewYooKassaGateway 创建 ЮKassa 客户端
func NewYooKassaGateway(c *conf.Bootstrap, logger log.Logger) (biz.PaymentGateway, error) {
	if c.Gateway == nil {
		return nil, fmt.Errorf("gateway config is nil")
	}

	baseURL := c.Gateway.BaseURL
	if baseURL == "" {
		baseURL = defaultYooKassaBaseURL
	}

	return &yooKassaGateway{
		shopID:    c.Gateway.ShopID,
		secretKey: c.Gateway.SecretKey,
		baseURL:   baseURL,
		returnURL: c.Gateway.ReturnURL,
		client:    &http.Client{Timeout: 15 * time.Second},
		log:       log.NewHelper(logger),
	}, nil
}

// yooKassaAmount 金额对象（value 为主货币单位字符串，如 "5.00"）
type yooKassaAmount struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

// yooKassaConfirmation 支付确认对象
type yooKassaConfirmation struct {
	Type            string `json:"type"`
	ReturnURL       string `json:"return_url,omitempty"`
	ConfirmationURL string `json:"confirmation_url,omitempty"`
}

// yooKassaPayment 支付对象
type yooKassaPayment struct {
	ID           string                `json:"id"`
	Status       string                `json:"status"`
	Amount       *yooKassaAmount       `json:"amount,omitempty"`
	Confirmation *yooKassaConfirmation `json:"confirmation,omitempty"`
}

// yooKassaCreateRequest 创建支付请求体
type yooKassaCreateRequest struct {
	Amount       yooKassaAmount       `json:"amount"`
	Confirmation yooKassaConfirmation `json:"confirmation"`
	Capture      bool                 `json:"capture"`
	Description  string               `json:"description"`
	Metadata     map[string]string    `json:"metadata,omitempty"`
}

// CreatePayment 创建支付（实现 biz.PaymentGateway 接口）
func (g *yooKassaGateway) CreatePayment(ctx context.Context, req *biz.CreateGatewayPaymentRequest) (*biz.GatewayPayment, error) {
	body := yooKassaCreateRequest{
		Amount: yooKassaAmount{
			// 最小货币单位转主单位字符串
			Value:    fmt.Sprintf("%.2f", float64(req.AmountMinor)/100),
			Currency: req.Currency,
		},
		Confirmation: yooKassaConfirmation{
			Type:      "redirect",
			ReturnURL: g.returnURL,
		},
		Capture:     true,
		Description: req.Description,
		Metadata:    req.Metadata,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/payments", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.SetBasicAuth(g.shopID, g.secretKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Idempotence-Key", req.IdempotenceKey)

	payment, err := g.do(ctx, httpReq)
	if err != nil {
		return nil, pkgErrors.WrapErrorWithLang(ctx, err, vidErrors.ErrCodeGatewayCreateFailed)
	}

	if payment.Confirmation == nil || payment.Confirmation.ConfirmationURL == "" {
		return nil, pkgErrors.NewBizErrorWithLang(ctx, vidErrors.ErrCodeGatewayCreateFailed)
	}

	g.log.Infof("Gateway payment created: payment_id=%s, amount=%s", payment.ID, body.Amount.Value)
	return &biz.GatewayPayment{
		ID:              payment.ID,
		Status:          payment.Status,
		ConfirmationURL: payment.Confirmation.ConfirmationURL,
	}, nil
}

// GetPayment 查询支付状态（实现 biz.PaymentGateway 接口）
func (g *yooKassaGateway) GetPayment(ctx context.Context, paymentID string) (*biz.GatewayPayment, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/payments/"+paymentID, nil)
	if err != nil {
		return nil, err
	}
	httpReq.SetBasicAuth(g.shopID, g.secretKey)

	payment, err := g.do(ctx, httpReq)
	if err != nil {
		return nil, pkgErrors.WrapErrorWithLang(ctx, err, vidErrors.ErrCodeGatewayQueryFailed)
	}

	result := &biz.GatewayPayment{
		ID:     payment.ID,
		Status: payment.Status,
	}
	if payment.Confirmation != nil {
		result.ConfirmationURL = payment.Confirmation.ConfirmationURL
	}
	return result, nil
}

func (g *yooKassaGateway) do(ctx context.Context, req *http.Request) (*yooKassaPayment, error) {
	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		g.log.Errorf("Gateway request failed: status=%d, body=%s", resp.StatusCode, string(data))
		return nil, fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}

	var payment yooKassaPayment
	if err := json.Unmarshal(data, &payment); err != nil {
		return nil, err
	}
	return &payment, nil
}
