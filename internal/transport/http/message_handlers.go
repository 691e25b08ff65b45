package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/duochat/internal/proto"
	"github.com/vovakirdan/duochat/internal/service/messages"
	"github.com/vovakirdan/duochat/internal/store"
)

// MessageHandlers provides HTTP handlers for the messaging endpoints.
// Every handler runs behind AuthMiddleware.
type MessageHandlers struct {
	service *messages.Service
	log     *zerolog.Logger
}

// NewMessageHandlers creates a new message handlers instance.
func NewMessageHandlers(service *messages.Service, logger *zerolog.Logger) *MessageHandlers {
	return &MessageHandlers{
		service: service,
		log:     logger,
	}
}

// SendRequest represents the send request body. Exactly one content kind
// must be populated.
type SendRequest struct {
	Text     string `json:"text"`
	ImageURL string `json:"image_url"`
	VoiceURL string `json:"voice_url"`
	Duration int    `json:"duration"`
	Emoji    string `json:"emoji"`
}

// ReactionRequest represents the add-reaction request body.
type ReactionRequest struct {
	Emoji string `json:"emoji" binding:"required"`
}

// SidebarUsers returns every user except the caller.
// GET /api/messages/users
func (h *MessageHandlers) SidebarUsers(c *gin.Context) {
	users, err := h.service.SidebarUsers(c.Request.Context(), currentUserID(c))
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list sidebar users")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	c.JSON(http.StatusOK, userData(users))
}

// History returns the full conversation with the peer in the path.
// GET /api/messages/:id
func (h *MessageHandlers) History(c *gin.Context) {
	peerID, ok := pathUserID(c)
	if !ok {
		return
	}

	msgs, err := h.service.History(c.Request.Context(), currentUserID(c), peerID)
	if err != nil {
		if errors.Is(err, messages.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "user not found"})
			return
		}
		h.log.Error().Err(err).Int64("peer_id", peerID).Msg("failed to load history")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	out := make([]proto.MessageData, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, messageData(m))
	}
	c.JSON(http.StatusOK, out)
}

// Send persists a message and pushes it to both participants.
// POST /api/messages/send/:id
func (h *MessageHandlers) Send(c *gin.Context) {
	receiverID, ok := pathUserID(c)
	if !ok {
		return
	}

	var req SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	msg, err := h.service.Send(c.Request.Context(), currentUserID(c), receiverID, messages.SendInput{
		Text:     req.Text,
		ImageURL: req.ImageURL,
		VoiceURL: req.VoiceURL,
		Duration: req.Duration,
		Emoji:    req.Emoji,
	})
	if err != nil {
		switch {
		case errors.Is(err, messages.ErrUserNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "user not found"})
		case errors.Is(err, messages.ErrSelfMessage),
			errors.Is(err, messages.ErrEmptyContent),
			errors.Is(err, messages.ErrAmbiguousContent):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		default:
			h.log.Error().Err(err).Int64("receiver_id", receiverID).Msg("failed to send message")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		}
		return
	}

	c.JSON(http.StatusCreated, messageData(msg))
}

// Delete removes a message the caller sent and pushes the deletion.
// DELETE /api/messages/:id
func (h *MessageHandlers) Delete(c *gin.Context) {
	messageID := c.Param("id")

	err := h.service.Delete(c.Request.Context(), currentUserID(c), messageID)
	if err != nil {
		switch {
		case errors.Is(err, messages.ErrMessageNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "message not found"})
		case errors.Is(err, messages.ErrNotSender):
			c.JSON(http.StatusForbidden, ErrorResponse{Error: "only the sender can delete a message"})
		default:
			h.log.Error().Err(err).Str("message_id", messageID).Msg("failed to delete message")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		}
		return
	}

	c.JSON(http.StatusOK, proto.MessageDeletedData{MessageID: messageID})
}

// AddReaction records a reaction and pushes it to both participants.
// POST /api/messages/:id/reactions
func (h *MessageHandlers) AddReaction(c *gin.Context) {
	messageID := c.Param("id")

	var req ReactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	reactions, err := h.service.AddReaction(c.Request.Context(), currentUserID(c), messageID, req.Emoji)
	if err != nil {
		switch {
		case errors.Is(err, messages.ErrMessageNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "message not found"})
		case errors.Is(err, messages.ErrNotParticipant):
			c.JSON(http.StatusForbidden, ErrorResponse{Error: "not a participant of this conversation"})
		case errors.Is(err, messages.ErrDuplicateReact):
			c.JSON(http.StatusConflict, ErrorResponse{Error: "reaction already exists"})
		default:
			h.log.Error().Err(err).Str("message_id", messageID).Msg("failed to add reaction")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		}
		return
	}

	c.JSON(http.StatusCreated, reactionList(reactions))
}

// RemoveReaction deletes the caller's reaction and pushes the removal.
// DELETE /api/messages/:id/reactions/:reactionId
func (h *MessageHandlers) RemoveReaction(c *gin.Context) {
	messageID := c.Param("id")
	reactionID := c.Param("reactionId")

	reactions, err := h.service.RemoveReaction(c.Request.Context(), currentUserID(c), messageID, reactionID)
	if err != nil {
		switch {
		case errors.Is(err, messages.ErrMessageNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "message not found"})
		case errors.Is(err, messages.ErrReactionNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "reaction not found"})
		default:
			h.log.Error().Err(err).Str("message_id", messageID).Msg("failed to remove reaction")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		}
		return
	}

	c.JSON(http.StatusOK, reactionList(reactions))
}

func reactionList(reactions []store.Reaction) []proto.ReactionData {
	out := reactionData(reactions)
	if out == nil {
		out = []proto.ReactionData{}
	}
	return out
}

func pathUserID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid user id"})
		return 0, false
	}
	return id, true
}
