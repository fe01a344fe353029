package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/rowanhart/tasknest/internal/engine"
	"github.com/rowanhart/tasknest/internal/models"
	"github.com/rowanhart/tasknest/internal/request"
	"github.com/rowanhart/tasknest/internal/services/ai"
)

type fakeProvider struct {
	result *ai.ChatResult
	err    error
}

func (f *fakeProvider) Chat(_ context.Context, _ []ai.ChatMessage) (*ai.ChatResult, error) {
	return f.result, f.err
}

func newChatTestServer(t *testing.T, provider ai.Provider) (*mux.Router, *models.User) {
	t.Helper()

	user := &models.User{ID: uuid.New(), Username: "tester"}
	manager := engine.NewManager(newFakeTaskStore(), zap.NewNop())
	handler := NewChatHandler(ai.NewChatService(provider), manager, zap.NewNop())

	router := mux.NewRouter()
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(request.WithUser(r.Context(), user)))
		})
	})
	handler.RegisterRoutes(router.PathPrefix("/ai").Subrouter())
	return router, user
}

func TestSendMessageCreatesProposedTasks(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{result: &ai.ChatResult{
		Message: "Added two tasks.",
		Drafts: []ai.TaskDraft{
			{Title: "Book flights", DueDate: "2026-10-01", Hashtags: "#travel"},
			{Title: ""}, // rejected, must not fail the turn
			{Title: "Pack bags"},
		},
	}}
	router, user := newChatTestServer(t, provider)

	rec := doJSON(t, router, http.MethodPost, "/ai/chat/message", ChatMessageRequest{Message: "plan my trip"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp ChatMessageResponse
	dataField(t, rec, &resp)
	if resp.Message != "Added two tasks." {
		t.Errorf("unexpected message %q", resp.Message)
	}
	if len(resp.CreatedTasks) != 2 {
		t.Fatalf("expected 2 created tasks, got %d", len(resp.CreatedTasks))
	}
	for _, task := range resp.CreatedTasks {
		if task.Owner != user.ID {
			t.Errorf("task %s owned by %s, want %s", task.ID, task.Owner, user.ID)
		}
	}
	if resp.CreatedTasks[0].DueDate == nil {
		t.Error("expected first task to carry its due date")
	}
}

func TestSendMessageProviderFailure(t *testing.T) {
	t.Parallel()

	router, _ := newChatTestServer(t, &fakeProvider{err: errors.New("model offline")})

	rec := doJSON(t, router, http.MethodPost, "/ai/chat/message", ChatMessageRequest{Message: "hello"})
	if rec.Code != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", rec.Code)
	}
}

func TestSendMessageRequiresBody(t *testing.T) {
	t.Parallel()

	router, _ := newChatTestServer(t, &fakeProvider{result: &ai.ChatResult{Message: "hi"}})

	rec := doJSON(t, router, http.MethodPost, "/ai/chat/message", ChatMessageRequest{Message: "   "})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for blank message, got %d", rec.Code)
	}
}
