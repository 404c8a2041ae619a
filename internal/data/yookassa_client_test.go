package data

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"vidociki/internal/biz"
	"vidociki/internal/conf"

	"github.com/go-kratos/kratos/v2/log"
)

func newTestGateway(t *testing.T, baseURL string) biz.PaymentGateway {
	t.Helper()
	gateway, err := NewYooKassaGateway(&conf.Bootstrap{
		Gateway: &conf.Gateway{
			ShopID:    "shop-1",
			SecretKey: "secret-1",
			BaseURL:   baseURL,
			ReturnURL: "https://t.me/testbot",
		},
	}, log.NewStdLogger(io.Discard))
	if err != nil {
		t.Fatalf("NewYooKassaGateway: %v", err)
	}
	return gateway
}

func TestCreatePaymentRequestShape(t *testing.T) {
	var gotAuthUser, gotAuthPass, gotIdemKey string
	var gotBody map[string]interface{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/payments" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		gotAuthUser, gotAuthPass, _ = r.BasicAuth()
		gotIdemKey = r.Header.Get("Idempotence-Key")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "pay-123",
			"status": "pending",
			"confirmation": {"type": "redirect", "confirmation_url": "https://yookassa.test/confirm"}
		}`))
	}))
	defer srv.Close()

	gateway := newTestGateway(t, srv.URL)
	payment, err := gateway.CreatePayment(context.Background(), &biz.CreateGatewayPaymentRequest{
		AmountMinor:    500,
		Currency:       "RUB",
		Description:    "Оплата подписки: План 1",
		IdempotenceKey: "idem-1",
	})
	if err != nil {
		t.Fatalf("CreatePayment: %v", err)
	}

	if payment.ID != "pay-123" || payment.ConfirmationURL != "https://yookassa.test/confirm" {
		t.Errorf("payment = %+v", payment)
	}
	if gotAuthUser != "shop-1" || gotAuthPass != "secret-1" {
		t.Errorf("basic auth = %q/%q", gotAuthUser, gotAuthPass)
	}
	if gotIdemKey != "idem-1" {
		t.Errorf("Idempotence-Key = %q", gotIdemKey)
	}

	amount, _ := gotBody["amount"].(map[string]interface{})
	// 最小货币单位 500 转主单位字符串
	if amount["value"] != "5.00" || amount["currency"] != "RUB" {
		t.Errorf("amount = %v", amount)
	}
	if gotBody["capture"] != true {
		t.Errorf("capture = %v", gotBody["capture"])
	}
	confirmation, _ := gotBody["confirmation"].(map[string]interface{})
	if confirmation["type"] != "redirect" || confirmation["return_url"] != "https://t.me/testbot" {
		t.Errorf("confirmation = %v", confirmation)
	}
}

func TestCreatePaymentWithoutConfirmationURLFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id": "pay-123", "status": "pending"}`))
	}))
	defer srv.Close()

	gateway := newTestGateway(t, srv.URL)
	if _, err := gateway.CreatePayment(context.Background(), &biz.CreateGatewayPaymentRequest{
		AmountMinor: 500, Currency: "RUB", IdempotenceKey: "idem-1",
	}); err == nil {
		t.Fatal("CreatePayment succeeded without confirmation_url")
	}
}

func TestGetPaymentStatuses(t *testing.T) {
	tests := []struct {
		name   string
		status string
	}{
		{"succeeded", "succeeded"},
		{"pending", "pending"},
		{"canceled", "canceled"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/payments/pay-123" {
					t.Errorf("path = %s", r.URL.Path)
				}
				json.NewEncoder(w).Encode(map[string]string{"id": "pay-123", "status": tt.status})
			}))
			defer srv.Close()

			gateway := newTestGateway(t, srv.URL)
			payment, err := gateway.GetPayment(context.Background(), "pay-123")
			if err != nil {
				t.Fatalf("GetPayment: %v", err)
			}
			if payment.Status != tt.status {
				t.Errorf("status = %q, want %q", payment.Status, tt.status)
			}
		})
	}
}

func TestGatewayErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"type": "error", "code": "invalid_credentials"}`))
	}))
	defer srv.Close()

	gateway := newTestGateway(t, srv.URL)
	if _, err := gateway.GetPayment(context.Background(), "pay-123"); err == nil {
		t.Fatal("GetPayment succeeded on 401")
	}
}
