package biz

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"vidociki/internal/constants"

	"github.com/go-kratos/kratos/v2/log"
)

func testLogger() log.Logger {
	return log.NewStdLogger(io.Discard)
}

func testConfig() *BotConfig {
	return &BotConfig{
		InitialCredits: 5,
		DailyCredits:   3,
		ReferralBonus:  5,
		Location:       time.UTC,
		Packages: map[string]*PackageSpec{
			"plan_1": {Name: "plan_1", Credits: 10, PriceMinor: 500, Description: "План 1 - 10 обработок"},
			"plan_2": {Name: "plan_2", Credits: 30, PriceMinor: 1500, Description: "План 2 - 30 обработок"},
		},
		PackageOrder:   []string{"plan_1", "plan_2"},
		BotUsername:    "testbot",
		PollInterval:   30 * time.Second,
		StaleAfterDays: 3,
	}
}

var errInsufficient = errors.New("insufficient credits")

// fakeAccountRepo 账户仓储内存实现
type fakeAccountRepo struct {
	mu       sync.Mutex
	accounts map[string]*UserAccount
	debits   map[string]int

	createErr error
	resetErr  error
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{
		accounts: make(map[string]*UserAccount),
		debits:   make(map[string]int),
	}
}

func (f *fakeAccountRepo) GetAccount(ctx context.Context, userID string) (*UserAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	account, ok := f.accounts[userID]
	if !ok {
		return nil, nil
	}
	clone := *account
	return &clone, nil
}

func (f *fakeAccountRepo) CreateAccount(ctx context.Context, userID, username string, initialCredits int, today string) (*UserAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	if _, ok := f.accounts[userID]; ok {
		return nil, errors.New("duplicate account")
	}
	account := &UserAccount{
		UserID:           userID,
		Username:         username,
		RemainingCredits: initialCredits,
		LastResetDate:    today,
		CreatedAt:        time.Now(),
	}
	f.accounts[userID] = account
	clone := *account
	return &clone, nil
}

func (f *fakeAccountRepo) ResetDaily(ctx context.Context, userID string, dailyCredits int, today string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.resetErr != nil {
		return false, f.resetErr
	}
	account, ok := f.accounts[userID]
	if !ok || account.LastResetDate == today {
		return false, nil
	}
	account.RemainingCredits = dailyCredits
	account.LastResetDate = today
	return true, nil
}

func (f *fakeAccountRepo) Debit(ctx context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	account, ok := f.accounts[userID]
	if !ok || account.RemainingCredits <= 0 {
		return errInsufficient
	}
	account.RemainingCredits--
	f.debits[userID]++
	return nil
}

func (f *fakeAccountRepo) AddCredits(ctx context.Context, userID string, credits int, entryType, paymentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	account, ok := f.accounts[userID]
	if !ok {
		return errors.New("account not found")
	}
	account.RemainingCredits += credits
	return nil
}

func (f *fakeAccountRepo) CountDebitsSince(ctx context.Context, userID string, since time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.debits[userID], nil
}

func (f *fakeAccountRepo) put(account *UserAccount) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accounts[account.UserID] = account
}

func (f *fakeAccountRepo) remaining(userID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if account, ok := f.accounts[userID]; ok {
		return account.RemainingCredits
	}
	return -1
}

// fakeReferralRepo 推荐仓储内存实现，底层账户复用 fakeAccountRepo
type fakeReferralRepo struct {
	mu       sync.Mutex
	accounts *fakeAccountRepo
	uses     map[string]bool // code + "|" + userID

	setCodeErr error
}

func newFakeReferralRepo(accounts *fakeAccountRepo) *fakeReferralRepo {
	return &fakeReferralRepo{
		accounts: accounts,
		uses:     make(map[string]bool),
	}
}

func (f *fakeReferralRepo) GetAccountByReferralCode(ctx context.Context, code string) (*UserAccount, error) {
	f.accounts.mu.Lock()
	defer f.accounts.mu.Unlock()
	for _, account := range f.accounts.accounts {
		if account.ReferralCode == code {
			clone := *account
			return &clone, nil
		}
	}
	return nil, nil
}

func (f *fakeReferralRepo) SetReferralCode(ctx context.Context, userID, code string) error {
	if f.setCodeErr != nil {
		return f.setCodeErr
	}
	f.accounts.mu.Lock()
	defer f.accounts.mu.Unlock()
	account, ok := f.accounts.accounts[userID]
	if !ok {
		return errors.New("account not found")
	}
	if account.ReferralCode != "" {
		return errors.New("code already set")
	}
	account.ReferralCode = code
	return nil
}

func (f *fakeReferralRepo) HasUse(ctx context.Context, code, userID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.uses[code+"|"+userID], nil
}

func (f *fakeReferralRepo) RecordRedemption(ctx context.Context, code, ownerID, redeemerID string, bonus int, today string) error {
	f.mu.Lock()
	f.uses[code+"|"+redeemerID] = true
	f.mu.Unlock()

	f.accounts.mu.Lock()
	defer f.accounts.mu.Unlock()
	if redeemer, ok := f.accounts.accounts[redeemerID]; ok && redeemer.ReferredBy == "" {
		redeemer.ReferredBy = ownerID
	}
	owner, ok := f.accounts.accounts[ownerID]
	if !ok {
		return errors.New("owner not found")
	}
	owner.RemainingCredits += bonus
	return nil
}

// fakePaymentIntentRepo 支付订单仓储内存实现
type fakePaymentIntentRepo struct {
	mu       sync.Mutex
	intents  map[string]*PaymentIntent
	accounts *fakeAccountRepo
}

func newFakePaymentIntentRepo(accounts *fakeAccountRepo) *fakePaymentIntentRepo {
	return &fakePaymentIntentRepo{
		intents:  make(map[string]*PaymentIntent),
		accounts: accounts,
	}
}

func (f *fakePaymentIntentRepo) CreateIntent(ctx context.Context, intent *PaymentIntent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.intents[intent.PaymentID]; ok {
		return errors.New("duplicate intent")
	}
	clone := *intent
	clone.CreatedAt = time.Now()
	f.intents[intent.PaymentID] = &clone
	return nil
}

func (f *fakePaymentIntentRepo) GetIntent(ctx context.Context, paymentID string) (*PaymentIntent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	intent, ok := f.intents[paymentID]
	if !ok {
		return nil, nil
	}
	clone := *intent
	return &clone, nil
}

func (f *fakePaymentIntentRepo) ListPending(ctx context.Context, limit int) ([]*PaymentIntent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*PaymentIntent
	for _, intent := range f.intents {
		if intent.Status == constants.IntentStatusPending && len(out) < limit {
			clone := *intent
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (f *fakePaymentIntentRepo) ApplyCredit(ctx context.Context, paymentID string) (*PaymentIntent, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	intent, ok := f.intents[paymentID]
	if !ok {
		return nil, false, errors.New("intent not found")
	}
	if intent.Status != constants.IntentStatusPending {
		clone := *intent
		return &clone, false, nil
	}
	intent.Status = constants.IntentStatusCompleted

	f.accounts.mu.Lock()
	if account, ok := f.accounts.accounts[intent.UserID]; ok {
		account.RemainingCredits += intent.Credits
	}
	f.accounts.mu.Unlock()

	clone := *intent
	return &clone, true, nil
}

func (f *fakePaymentIntentRepo) MarkCanceled(ctx context.Context, paymentID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	intent, ok := f.intents[paymentID]
	if !ok || intent.Status != constants.IntentStatusPending {
		return false, nil
	}
	intent.Status = constants.IntentStatusCanceled
	return true, nil
}

func (f *fakePaymentIntentRepo) CancelStale(ctx context.Context, olderThan time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, intent := range f.intents {
		if intent.Status == constants.IntentStatusPending && intent.CreatedAt.Before(olderThan) {
			intent.Status = constants.IntentStatusCanceled
			count++
		}
	}
	return count, nil
}

func (f *fakePaymentIntentRepo) status(paymentID string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if intent, ok := f.intents[paymentID]; ok {
		return intent.Status
	}
	return ""
}

// fakeGateway 支付网关桩
type fakeGateway struct {
	mu       sync.Mutex
	payments map[string]*GatewayPayment
	created  int

	createErr error
	getErr    error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{payments: make(map[string]*GatewayPayment)}
}

func (f *fakeGateway) CreatePayment(ctx context.Context, req *CreateGatewayPaymentRequest) (*GatewayPayment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created++
	payment := &GatewayPayment{
		ID:              "pay-" + req.IdempotenceKey,
		Status:          constants.GatewayStatusPending,
		ConfirmationURL: "https://gateway.test/confirm/" + req.IdempotenceKey,
	}
	f.payments[payment.ID] = payment
	return payment, nil
}

func (f *fakeGateway) GetPayment(ctx context.Context, paymentID string) (*GatewayPayment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	payment, ok := f.payments[paymentID]
	if !ok {
		return nil, errors.New("payment not found")
	}
	return payment, nil
}

func (f *fakeGateway) setStatus(paymentID, status string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if payment, ok := f.payments[paymentID]; ok {
		payment.Status = status
	} else {
		f.payments[paymentID] = &GatewayPayment{ID: paymentID, Status: status}
	}
}

// fakeNotifier 记录发出的通知
type fakeNotifier struct {
	mu    sync.Mutex
	sent  []string
	chats []string
}

func (f *fakeNotifier) SendText(ctx context.Context, chatID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chats = append(f.chats, chatID)
	f.sent = append(f.sent, text)
	return nil
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

// fakeSessionStore 会话标记内存实现
type fakeSessionStore struct {
	mu       sync.Mutex
	awaiting map[string]bool
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{awaiting: make(map[string]bool)}
}

func (f *fakeSessionStore) AwaitVideo(ctx context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.awaiting[userID] = true
	return nil
}

func (f *fakeSessionStore) IsAwaitingVideo(ctx context.Context, userID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.awaiting[userID], nil
}

func (f *fakeSessionStore) ClearAwaitVideo(ctx context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.awaiting, userID)
	return nil
}

// fakeFileSource 固定返回同一段字节
type fakeFileSource struct {
	data []byte
	err  error
}

func (f *fakeFileSource) FetchFile(ctx context.Context, fileID string) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.data, nil
}

// fakeAnalyzer 视频分析桩
type fakeAnalyzer struct {
	report string
	err    error
	calls  int
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, video []byte, mimeType, prompt string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.report, nil
}
