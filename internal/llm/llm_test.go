package llm

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"
)

func TestCompleteWithRetry_Success(t *testing.T) {
	mock := NewMock("پاسخ")

	got, err := CompleteWithRetry(context.Background(), mock, "درخواست", Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "پاسخ" {
		t.Errorf("unexpected response: %q", got)
	}
	if mock.Calls() != 1 {
		t.Errorf("expected 1 call, got %d", mock.Calls())
	}
}

func TestCompleteWithRetry_TransientRetriedOnce(t *testing.T) {
	old := retryBackoff
	retryBackoff = time.Millisecond
	defer func() { retryBackoff = old }()

	var calls atomic.Int32
	mock := &Mock{
		ResponseFunc: func(prompt string) (string, error) {
			if calls.Add(1) == 1 {
				return "", fmt.Errorf("%w: rate limited", ErrTransient)
			}
			return "پاسخ دوم", nil
		},
	}

	got, err := CompleteWithRetry(context.Background(), mock, "درخواست", Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "پاسخ دوم" {
		t.Errorf("unexpected response: %q", got)
	}
	if mock.Calls() != 2 {
		t.Errorf("expected exactly 2 calls, got %d", mock.Calls())
	}
}

func TestCompleteWithRetry_TransientFailsAfterSecondAttempt(t *testing.T) {
	old := retryBackoff
	retryBackoff = time.Millisecond
	defer func() { retryBackoff = old }()

	mock := NewMockWithError(fmt.Errorf("%w: still down", ErrTransient))

	_, err := CompleteWithRetry(context.Background(), mock, "درخواست", Options{})
	if !errors.Is(err, ErrTransient) {
		t.Fatalf("expected ErrTransient, got %v", err)
	}
	if mock.Calls() != 2 {
		t.Errorf("expected exactly 2 calls, got %d", mock.Calls())
	}
}

func TestCompleteWithRetry_ContentPolicyNotRetried(t *testing.T) {
	mock := NewMockWithError(fmt.Errorf("%w: refused", ErrContentPolicy))

	_, err := CompleteWithRetry(context.Background(), mock, "درخواست", Options{})
	if !errors.Is(err, ErrContentPolicy) {
		t.Fatalf("expected ErrContentPolicy, got %v", err)
	}
	if mock.Calls() != 1 {
		t.Errorf("content-policy failures must not be retried, got %d calls", mock.Calls())
	}
}

func TestCompleteWithRetry_ContextCancelledDuringBackoff(t *testing.T) {
	old := retryBackoff
	retryBackoff = time.Minute
	defer func() { retryBackoff = old }()

	mock := NewMockWithError(fmt.Errorf("%w: down", ErrTransient))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := CompleteWithRetry(ctx, mock, "درخواست", Options{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}
	if mock.Calls() != 1 {
		t.Errorf("expected no second call after cancellation, got %d", mock.Calls())
	}
}

func TestClassify_NetworkErrorIsTransient(t *testing.T) {
	err := classify(errors.New("connection reset by peer"))
	if !errors.Is(err, ErrTransient) {
		t.Errorf("expected network failures classified transient, got %v", err)
	}
}

func TestRateLimited_Delegates(t *testing.T) {
	mock := NewMock("پاسخ")
	limited := NewRateLimited(mock, 100, 1)

	got, err := limited.Complete(context.Background(), "درخواست", Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "پاسخ" {
		t.Errorf("unexpected response: %q", got)
	}
}

func TestRateLimited_DisabledWithoutRate(t *testing.T) {
	mock := NewMock("پاسخ")
	limited := NewRateLimited(mock, 0, 0)

	for i := 0; i < 10; i++ {
		if _, err := limited.Complete(context.Background(), "درخواست", Options{}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if mock.Calls() != 10 {
		t.Errorf("expected 10 calls, got %d", mock.Calls())
	}
}

func TestMock_RecordsPrompts(t *testing.T) {
	mock := NewMock("")
	_, _ = mock.Complete(context.Background(), "اول", Options{})
	_, _ = mock.Complete(context.Background(), "دوم", Options{})

	prompts := mock.Prompts()
	if len(prompts) != 2 || prompts[0] != "اول" || prompts[1] != "دوم" {
		t.Errorf("unexpected recorded prompts: %v", prompts)
	}
	if mock.LastPrompt() != "دوم" {
		t.Errorf("unexpected last prompt: %q", mock.LastPrompt())
	}
}
