package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/rowanhart/tasknest/internal/engine"
	"github.com/rowanhart/tasknest/internal/models"
	"github.com/rowanhart/tasknest/internal/request"
	"github.com/rowanhart/tasknest/internal/services/ai"
	"github.com/rowanhart/tasknest/internal/validation"
)

// ChatHandler handles AI chat requests
type ChatHandler struct {
	chatService *ai.ChatService
	manager     *engine.Manager
	logger      *zap.Logger
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chatService *ai.ChatService, manager *engine.Manager, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{chatService: chatService, manager: manager, logger: logger}
}

// RegisterRoutes registers chat routes
func (h *ChatHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/chat/message", h.SendMessage).Methods("POST")
	r.HandleFunc("/chat", h.EndChat).Methods("DELETE")
}

// ChatMessageRequest represents a chat message request
type ChatMessageRequest struct {
	Message string `json:"message" validate:"required"`
}

// ChatMessageResponse carries the assistant's reply and any tasks it created
type ChatMessageResponse struct {
	Message      string        `json:"message"`
	CreatedTasks []models.Task `json:"created_tasks,omitempty"`
}

// SendMessage forwards a user message to the assistant. Task drafts in the
// reply are created through the user's engine; a draft that fails to create
// is dropped from the response rather than failing the whole chat turn.
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	var req ChatMessageRequest
	if !decodeBody(w, r, &req) {
		return
	}

	req.Message = validation.SanitizeText(req.Message)
	if req.Message == "" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Message is required")
		return
	}

	session := h.chatService.GetOrCreateSession(user.ID)
	h.chatService.AddMessage(session, "user", req.Message)

	result, err := h.chatService.GetResponse(r.Context(), session)
	if err != nil {
		h.logger.Error("chat_response_failed",
			zap.String("user_id", user.ID.String()),
			zap.Error(err),
		)
		respondJSONError(w, http.StatusBadGateway, "Bad Gateway", "Assistant is unavailable")
		return
	}

	response := ChatMessageResponse{Message: result.Message}
	for _, proposed := range result.Drafts {
		draft, prepErr := ai.PrepareDraft(proposed)
		if prepErr != nil {
			h.logger.Warn("chat_draft_rejected",
				zap.String("user_id", user.ID.String()),
				zap.Error(prepErr),
			)
			continue
		}

		createErr := h.manager.With(r.Context(), user.ID, func(e *engine.Engine) error {
			task, err := e.Create(r.Context(), draft)
			if err != nil {
				return err
			}
			response.CreatedTasks = append(response.CreatedTasks, task)
			return nil
		})
		if createErr != nil {
			h.logger.Warn("chat_task_create_failed",
				zap.String("user_id", user.ID.String()),
				zap.Error(createErr),
			)
		}
	}

	respondJSON(w, http.StatusOK, response)
}

// EndChat discards the user's chat session history
func (h *ChatHandler) EndChat(w http.ResponseWriter, r *http.Request) {
	user := request.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	h.chatService.CloseSession(user.ID)
	respondJSON(w, http.StatusOK, map[string]string{"status": "chat ended"})
}
