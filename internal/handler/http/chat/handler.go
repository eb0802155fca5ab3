package chat

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"nammaraitha-backend/internal/service/chat"
	"nammaraitha-backend/internal/service/conversation"
	"nammaraitha-backend/pkg/response"
)

// Handler handles chat HTTP requests
type Handler struct {
	chatService         *chat.Service
	conversationService *conversation.Service
}

// NewHandler creates a new chat handler
func NewHandler(chatService *chat.Service, conversationService *conversation.Service) *Handler {
	return &Handler{
		chatService:         chatService,
		conversationService: conversationService,
	}
}

// ResolveConversationRequest identifies a conversation by its triple
type ResolveConversationRequest struct {
	CropID     uuid.UUID `json:"crop_id" binding:"required"`
	FarmerID   uuid.UUID `json:"farmer_id" binding:"required"`
	RetailerID uuid.UUID `json:"retailer_id" binding:"required"`
}

// SendMessageRequest represents message send request
type SendMessageRequest struct {
	Content  string `json:"content" binding:"required"`
	Language string `json:"language"` // display language the text was typed in
}

// ResolveConversation finds or creates the conversation for a
// (crop, farmer, retailer) triple
// POST /v1/conversations/resolve
func (h *Handler) ResolveConversation(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req ResolveConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	if userID != req.FarmerID && userID != req.RetailerID {
		response.Forbidden(c, "Not a participant")
		return
	}

	conv, err := h.conversationService.Resolve(c.Request.Context(), req.CropID, req.FarmerID, req.RetailerID)
	if err != nil {
		if errors.Is(err, conversation.ErrMissingKey) {
			response.ValidationError(c, err.Error())
			return
		}
		response.InternalError(c, "Failed to resolve conversation")
		return
	}

	response.Success(c, http.StatusOK, conv)
}

// ListConversations returns the caller's conversations with unread counts
// GET /v1/conversations
func (h *Handler) ListConversations(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	conversations, err := h.chatService.ListConversations(c.Request.Context(), userID)
	if err != nil {
		response.InternalError(c, "Failed to get conversations")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"conversations": conversations})
}

// GetMessages returns the conversation history, newest first
// GET /v1/conversations/:id/messages
func (h *Handler) GetMessages(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "Invalid conversation ID")
		return
	}

	messages, err := h.chatService.GetMessages(c.Request.Context(), conversationID, userID)
	if err != nil {
		if strings.Contains(err.Error(), "not a participant") {
			response.Forbidden(c, "Not a participant")
			return
		}
		response.InternalError(c, "Failed to get messages")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"messages": messages})
}

// SendMessage sends a message into a conversation
// POST /v1/conversations/:id/messages
func (h *Handler) SendMessage(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "Invalid conversation ID")
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error())
		return
	}

	output, err := h.chatService.SendMessage(c.Request.Context(), &chat.SendMessageInput{
		ConversationID: conversationID,
		SenderID:       userID,
		Content:        req.Content,
		AuthoredLang:   req.Language,
	})
	if err != nil {
		if strings.Contains(err.Error(), "not a participant") {
			response.Forbidden(c, "Not a participant")
			return
		}
		response.InternalError(c, "Failed to send message")
		return
	}

	response.Success(c, http.StatusCreated, output.Message)
}

// MarkRead stamps every unread message from the counterpart as read
// POST /v1/conversations/:id/read
func (h *Handler) MarkRead(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ValidationError(c, "Invalid conversation ID")
		return
	}

	if err := h.chatService.MarkRead(c.Request.Context(), conversationID, userID); err != nil {
		if strings.Contains(err.Error(), "not a participant") {
			response.Forbidden(c, "Not a participant")
			return
		}
		response.InternalError(c, "Failed to mark conversation read")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Conversation marked read"})
}

func currentUser(c *gin.Context) (uuid.UUID, bool) {
	userIDVal, exists := c.Get("user_id")
	if !exists {
		response.Unauthorized(c, "Not authenticated")
		return uuid.Nil, false
	}
	userID, ok := userIDVal.(uuid.UUID)
	if !ok {
		response.InternalError(c, "Invalid user ID")
		return uuid.Nil, false
	}
	return userID, true
}
