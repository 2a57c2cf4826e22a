package handler

import (
	"errors"
	"net/http"
	"strconv"

	"anonchat/backend/internal/models"
	"anonchat/backend/internal/storage"

	"github.com/gin-gonic/gin"
)

type startChatRequest struct {
	RecipientID int64 `json:"recipient_id" binding:"required"`
}

// StartChat finds or creates the room for the caller and the recipient.
// A reused room comes back with the caller's exit flag cleared; a new one
// starts inactive and activates on the first message.
func (h *Handler) StartChat(c *gin.Context) {
	userID := currentUserID(c)

	var req startChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "recipient_id is required"})
		return
	}
	if req.RecipientID == userID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot start a chat with yourself"})
		return
	}
	if _, err := h.Storage.FindUser(req.RecipientID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "recipient not found"})
		return
	}

	room, err := h.Storage.FindOrCreateRoom(userID, req.RecipientID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start chat"})
		return
	}
	c.JSON(http.StatusOK, room)
}

// ListRooms returns the caller's active rooms.
func (h *Handler) ListRooms(c *gin.Context) {
	rooms, err := h.Storage.GetActiveRoomsFor(currentUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list rooms"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"rooms": rooms})
}

// ExitRoom records the caller's durable exit from a room. When the other
// side already left, this closes the room.
func (h *Handler) ExitRoom(c *gin.Context) {
	userID := currentUserID(c)
	roomID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return
	}

	switch err := h.Storage.ExitRoom(roomID, userID); {
	case errors.Is(err, storage.ErrRoomNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
	case errors.Is(err, models.ErrNotRoomMember):
		c.JSON(http.StatusForbidden, gin.H{"error": "not a room member"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to exit room"})
	default:
		c.Status(http.StatusNoContent)
	}
}

// ListMessages returns a cursor-paginated page of the room's messages,
// scoped to what the caller is allowed to see.
func (h *Handler) ListMessages(c *gin.Context) {
	userID := currentUserID(c)
	roomID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return
	}
	beforeID, _ := strconv.ParseInt(c.Query("before_id"), 10, 64)
	limit, _ := strconv.Atoi(c.Query("limit"))

	messages, err := h.Storage.GetMessages(roomID, userID, beforeID, limit)
	switch {
	case errors.Is(err, storage.ErrRoomNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
	case errors.Is(err, models.ErrNotRoomMember):
		c.JSON(http.StatusForbidden, gin.H{"error": "not a room member"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
	default:
		c.JSON(http.StatusOK, gin.H{"messages": messages})
	}
}
