package biz

import (
	"context"
	"errors"
	"testing"
	"time"
)

func analysisFixture(t *testing.T, remaining int, analyzer *fakeAnalyzer) (*fakeAccountRepo, *fakeSessionStore, *AnalysisUseCase) {
	t.Helper()
	conf := testConfig()
	accounts := newFakeAccountRepo()
	session := newFakeSessionStore()
	files := &fakeFileSource{data: []byte("video-bytes")}
	accountUC := NewAccountUseCase(accounts, conf, testLogger())
	uc := NewAnalysisUseCase(accountUC, session, files, analyzer, testLogger())

	today := conf.Today(time.Now())
	accounts.put(&UserAccount{UserID: "u1", RemainingCredits: remaining, LastResetDate: today})
	return accounts, session, uc
}

func TestRequestSetsAwaitFlag(t *testing.T) {
	_, session, uc := analysisFixture(t, 2, &fakeAnalyzer{report: "ok"})

	decision, err := uc.Request(context.Background(), "u1", "")
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if !decision.Allowed {
		t.Fatal("Allowed = false, want true")
	}
	awaiting, _ := session.IsAwaitingVideo(context.Background(), "u1")
	if !awaiting {
		t.Error("await flag not set")
	}
}

func TestRequestDeniedDoesNotSetFlag(t *testing.T) {
	_, session, uc := analysisFixture(t, 0, &fakeAnalyzer{report: "ok"})

	decision, err := uc.Request(context.Background(), "u1", "")
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if decision.Allowed {
		t.Fatal("Allowed = true, want false")
	}
	awaiting, _ := session.IsAwaitingVideo(context.Background(), "u1")
	if awaiting {
		t.Error("await flag set despite denial")
	}
}

func TestAnalyzeDebitsAfterSuccess(t *testing.T) {
	accounts, session, uc := analysisFixture(t, 2, &fakeAnalyzer{report: "Оценка: 7/10"})
	_ = session.AwaitVideo(context.Background(), "u1")

	report, err := uc.Analyze(context.Background(), "u1", "", "file-1")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if report != "Оценка: 7/10" {
		t.Errorf("report = %q", report)
	}
	if got := accounts.remaining("u1"); got != 1 {
		t.Errorf("remaining = %d, want 1", got)
	}
	awaiting, _ := session.IsAwaitingVideo(context.Background(), "u1")
	if awaiting {
		t.Error("await flag not cleared after analysis")
	}
}

func TestAnalyzeFailureDoesNotDebit(t *testing.T) {
	tests := []struct {
		name     string
		analyzer *fakeAnalyzer
	}{
		{"analyzer error", &fakeAnalyzer{err: errors.New("model unavailable")}},
		{"empty report", &fakeAnalyzer{report: ""}},
		{"model refusal", &fakeAnalyzer{report: "Я не могу анализировать это видео."}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			accounts, _, uc := analysisFixture(t, 2, tt.analyzer)

			if _, err := uc.Analyze(context.Background(), "u1", "", "file-1"); err == nil {
				t.Fatal("Analyze succeeded, want error")
			}
			if got := accounts.remaining("u1"); got != 2 {
				t.Errorf("remaining = %d, want 2 (failure must not debit)", got)
			}
		})
	}
}

func TestAnalyzeDeniedWithoutCredits(t *testing.T) {
	analyzer := &fakeAnalyzer{report: "ok"}
	_, _, uc := analysisFixture(t, 0, analyzer)

	if _, err := uc.Analyze(context.Background(), "u1", "", "file-1"); err == nil {
		t.Fatal("Analyze succeeded with zero credits")
	}
	if analyzer.calls != 0 {
		t.Errorf("analyzer called %d times, want 0", analyzer.calls)
	}
}
