package ai

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
)

type stubProvider struct {
	reply string
}

func (p *stubProvider) Chat(_ context.Context, _ []ChatMessage) (*ChatResult, error) {
	return &ChatResult{Message: p.reply}, nil
}

func TestGetOrCreateSessionReturnsSameSession(t *testing.T) {
	t.Parallel()

	svc := NewChatService(&stubProvider{reply: "ok"})
	userID := uuid.New()

	first := svc.GetOrCreateSession(userID)
	second := svc.GetOrCreateSession(userID)
	if first != second {
		t.Error("expected the same session for repeated lookups")
	}

	svc.CloseSession(userID)
	third := svc.GetOrCreateSession(userID)
	if third == first {
		t.Error("expected a fresh session after close")
	}
}

func TestChatSessionConcurrentMessages(t *testing.T) {
	t.Parallel()

	svc := NewChatService(&stubProvider{reply: "noted"})
	session := svc.GetOrCreateSession(uuid.New())

	const workers = 8
	const perWorker = 50

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				svc.AddMessage(session, "user", "hello")
				if _, err := svc.GetResponse(context.Background(), session); err != nil {
					t.Errorf("GetResponse: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	// Every user message gets an assistant reply appended.
	if got, want := len(session.Messages), workers*perWorker*2; got != want {
		t.Errorf("expected %d messages, got %d", want, got)
	}
}
