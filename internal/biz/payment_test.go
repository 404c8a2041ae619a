package biz

import (
	"context"
	"strings"
	"testing"
	"time"

	"vidociki/internal/constants"
)

func paymentFixture(t *testing.T) (*fakeAccountRepo, *fakePaymentIntentRepo, *fakeGateway, *fakeNotifier, *PaymentUseCase) {
	t.Helper()
	conf := testConfig()
	accounts := newFakeAccountRepo()
	repo := newFakePaymentIntentRepo(accounts)
	gateway := newFakeGateway()
	notifier := &fakeNotifier{}
	uc := NewPaymentUseCase(repo, gateway, notifier, conf, testLogger())

	today := conf.Today(time.Now())
	accounts.put(&UserAccount{UserID: "u1", RemainingCredits: 1, LastResetDate: today})
	return accounts, repo, gateway, notifier, uc
}

func TestCreateIntentReturnsConfirmationURL(t *testing.T) {
	_, repo, gateway, _, uc := paymentFixture(t)

	url, err := uc.CreateIntent(context.Background(), "u1", "plan_1")
	if err != nil {
		t.Fatalf("CreateIntent: %v", err)
	}
	if !strings.HasPrefix(url, "https://gateway.test/confirm/") {
		t.Errorf("url = %q", url)
	}

	intents, _ := repo.ListPending(context.Background(), 10)
	if len(intents) != 1 {
		t.Fatalf("pending intents = %d, want 1", len(intents))
	}
	intent := intents[0]
	if intent.Credits != 10 || intent.AmountMinor != 500 {
		t.Errorf("intent = %+v", intent)
	}
	if gateway.created != 1 {
		t.Errorf("gateway calls = %d, want 1", gateway.created)
	}
}

func TestCreateIntentUnknownPackageFailsBeforeGateway(t *testing.T) {
	_, _, gateway, _, uc := paymentFixture(t)

	if _, err := uc.CreateIntent(context.Background(), "u1", "plan_99"); err == nil {
		t.Fatal("CreateIntent with unknown package succeeded")
	}
	// 套餐校验在网关调用之前，不会产生悬空支付
	if gateway.created != 0 {
		t.Errorf("gateway calls = %d, want 0", gateway.created)
	}
}

func TestApplyCreditIdempotent(t *testing.T) {
	accounts, repo, _, notifier, uc := paymentFixture(t)
	repo.intents["pay-1"] = &PaymentIntent{
		PaymentID: "pay-1", UserID: "u1", PackageType: "plan_2",
		AmountMinor: 1500, Credits: 30, Status: constants.IntentStatusPending,
	}

	if err := uc.ApplyCredit(context.Background(), "pay-1"); err != nil {
		t.Fatalf("ApplyCredit: %v", err)
	}
	if got := accounts.remaining("u1"); got != 31 {
		t.Errorf("remaining = %d, want 31", got)
	}
	if notifier.count() == 0 {
		t.Error("no notification sent after credit")
	}

	// 轮询和 Webhook 并发命中时第二次是无操作
	before := notifier.count()
	if err := uc.ApplyCredit(context.Background(), "pay-1"); err != nil {
		t.Fatalf("ApplyCredit again: %v", err)
	}
	if got := accounts.remaining("u1"); got != 31 {
		t.Errorf("remaining after duplicate = %d, want 31", got)
	}
	if notifier.count() != before {
		t.Error("duplicate apply sent another notification")
	}
}

func TestReconcileSucceededCredits(t *testing.T) {
	accounts, repo, gateway, _, uc := paymentFixture(t)
	repo.intents["pay-1"] = &PaymentIntent{
		PaymentID: "pay-1", UserID: "u1", PackageType: "plan_1",
		AmountMinor: 500, Credits: 10, Status: constants.IntentStatusPending,
	}
	gateway.setStatus("pay-1", constants.GatewayStatusSucceeded)

	intent, _ := repo.GetIntent(context.Background(), "pay-1")
	if err := uc.Reconcile(context.Background(), intent); err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if got := repo.status("pay-1"); got != constants.IntentStatusCompleted {
		t.Errorf("status = %q, want completed", got)
	}
	if got := accounts.remaining("u1"); got != 11 {
		t.Errorf("remaining = %d, want 11", got)
	}
}

func TestReconcilePendingLeavesIntentOpen(t *testing.T) {
	accounts, repo, gateway, _, uc := paymentFixture(t)
	repo.intents["pay-1"] = &PaymentIntent{
		PaymentID: "pay-1", UserID: "u1", Credits: 10, Status: constants.IntentStatusPending,
	}
	gateway.setStatus("pay-1", constants.GatewayStatusPending)

	intent, _ := repo.GetIntent(context.Background(), "pay-1")
	if err := uc.Reconcile(context.Background(), intent); err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if got := repo.status("pay-1"); got != constants.IntentStatusPending {
		t.Errorf("status = %q, want pending", got)
	}
	if got := accounts.remaining("u1"); got != 1 {
		t.Errorf("remaining = %d, want 1", got)
	}
}

func TestReconcileCanceledNeverCredits(t *testing.T) {
	accounts, repo, gateway, notifier, uc := paymentFixture(t)
	repo.intents["pay-1"] = &PaymentIntent{
		PaymentID: "pay-1", UserID: "u1", Credits: 10, Status: constants.IntentStatusPending,
	}
	gateway.setStatus("pay-1", constants.GatewayStatusCanceled)

	intent, _ := repo.GetIntent(context.Background(), "pay-1")
	if err := uc.Reconcile(context.Background(), intent); err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if got := repo.status("pay-1"); got != constants.IntentStatusCanceled {
		t.Errorf("status = %q, want canceled", got)
	}
	if got := accounts.remaining("u1"); got != 1 {
		t.Errorf("remaining = %d, want 1 (no credit on cancel)", got)
	}
	if notifier.count() == 0 {
		t.Error("user not notified about canceled payment")
	}

	// canceled 是终态，事后到达的 succeeded 不再入账
	if err := uc.ApplyCredit(context.Background(), "pay-1"); err != nil {
		t.Fatalf("ApplyCredit after cancel: %v", err)
	}
	if got := accounts.remaining("u1"); got != 1 {
		t.Errorf("remaining after late success = %d, want 1", got)
	}
}

func TestReconcilePendingSweepContinuesOnError(t *testing.T) {
	accounts, repo, gateway, _, uc := paymentFixture(t)
	repo.intents["pay-1"] = &PaymentIntent{
		PaymentID: "pay-1", UserID: "u1", Credits: 10, Status: constants.IntentStatusPending,
	}
	repo.intents["pay-2"] = &PaymentIntent{
		PaymentID: "pay-2", UserID: "u1", Credits: 30, Status: constants.IntentStatusPending,
	}
	// pay-1 网关查询报错，pay-2 成功
	gateway.setStatus("pay-2", constants.GatewayStatusSucceeded)

	if err := uc.ReconcilePending(context.Background()); err != nil {
		t.Fatalf("ReconcilePending: %v", err)
	}
	if got := repo.status("pay-2"); got != constants.IntentStatusCompleted {
		t.Errorf("pay-2 status = %q, want completed", got)
	}
	if got := repo.status("pay-1"); got != constants.IntentStatusPending {
		t.Errorf("pay-1 status = %q, want pending", got)
	}
	if got := accounts.remaining("u1"); got != 31 {
		t.Errorf("remaining = %d, want 31", got)
	}
}

func TestExpireStaleCancelsOldIntents(t *testing.T) {
	_, repo, _, _, uc := paymentFixture(t)
	repo.intents["pay-old"] = &PaymentIntent{
		PaymentID: "pay-old", UserID: "u1", Status: constants.IntentStatusPending,
		CreatedAt: time.Now().AddDate(0, 0, -7),
	}
	repo.intents["pay-new"] = &PaymentIntent{
		PaymentID: "pay-new", UserID: "u1", Status: constants.IntentStatusPending,
		CreatedAt: time.Now(),
	}

	count, err := uc.ExpireStale(context.Background())
	if err != nil {
		t.Fatalf("ExpireStale: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
	if got := repo.status("pay-old"); got != constants.IntentStatusCanceled {
		t.Errorf("pay-old status = %q, want canceled", got)
	}
	if got := repo.status("pay-new"); got != constants.IntentStatusPending {
		t.Errorf("pay-new status = %q, want pending", got)
	}
}
