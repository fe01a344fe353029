package ai

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ChatService manages chat sessions
type ChatService struct {
	provider Provider
	sessions map[uuid.UUID]*ChatSession
	mu       sync.RWMutex // Protects concurrent access to sessions map
}

// ChatSession represents an active chat session. Messages and LastActivity
// are guarded by mu; concurrent requests for the same user share one session.
type ChatSession struct {
	UserID    uuid.UUID
	CreatedAt time.Time

	mu           sync.Mutex
	Messages     []ChatMessage
	LastActivity time.Time
}

func (cs *ChatSession) touch() {
	cs.mu.Lock()
	cs.LastActivity = time.Now()
	cs.mu.Unlock()
}

// NewChatService creates a new chat service
func NewChatService(provider Provider) *ChatService {
	return &ChatService{
		provider: provider,
		sessions: make(map[uuid.UUID]*ChatSession),
	}
}

// GetOrCreateSession gets or creates a chat session for a user
func (s *ChatService) GetOrCreateSession(userID uuid.UUID) *ChatSession {
	// Try read lock first for fast path
	s.mu.RLock()
	if session, exists := s.sessions[userID]; exists {
		s.mu.RUnlock()
		session.touch()
		return session
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Double-check after acquiring write lock
	if session, exists := s.sessions[userID]; exists {
		session.touch()
		return session
	}

	session := &ChatSession{
		UserID:       userID,
		Messages:     make([]ChatMessage, 0),
		CreatedAt:    time.Now(),
		LastActivity: time.Now(),
	}

	s.sessions[userID] = session
	return session
}

// AddMessage adds a message to the session
func (s *ChatService) AddMessage(session *ChatSession, role string, content string) {
	session.mu.Lock()
	defer session.mu.Unlock()
	session.Messages = append(session.Messages, ChatMessage{
		Role:    role,
		Content: content,
	})
	session.LastActivity = time.Now()
}

// GetResponse gets a response from the AI for the session. The history is
// snapshotted up front so the provider call runs outside the session lock.
func (s *ChatService) GetResponse(ctx context.Context, session *ChatSession) (*ChatResult, error) {
	session.mu.Lock()
	history := make([]ChatMessage, len(session.Messages))
	copy(history, session.Messages)
	session.mu.Unlock()

	result, err := s.provider.Chat(ctx, history)
	if err != nil {
		return nil, fmt.Errorf("failed to get chat response: %w", err)
	}

	s.AddMessage(session, "assistant", result.Message)
	return result, nil
}

// CloseSession closes a chat session
func (s *ChatService) CloseSession(userID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
}
