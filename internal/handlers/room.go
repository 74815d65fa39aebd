package handlers

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"marketplace-service/internal/models"
	"marketplace-service/internal/services"
	"marketplace-service/internal/ws"
)

// RoomHandler manages chat room endpoints. Messages posted over REST are
// broadcast to live subscribers the same way the live channel does it.
type RoomHandler struct {
	chat     *services.ChatService
	messages *services.MessageService
	hub      *ws.Hub
}

// NewRoomHandler builds a RoomHandler.
func NewRoomHandler(chat *services.ChatService, messages *services.MessageService, hub *ws.Hub) *RoomHandler {
	return &RoomHandler{chat: chat, messages: messages, hub: hub}
}

// Start opens (or returns) the room between the caller and a listing. The
// operation is idempotent, so reuse and creation both answer 200.
func (h *RoomHandler) Start(c *gin.Context) {
	var req struct {
		ListingID int64 `json:"listing_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	room, err := h.chat.GetOrCreateRoom(c.Request.Context(), req.ListingID, currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

// List returns the caller's room list, newest activity first.
func (h *RoomHandler) List(c *gin.Context) {
	page, size := pageParams(c)
	result, err := h.messages.RoomList(c.Request.Context(), currentUserID(c), page, size)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Get returns one room to one of its participants.
func (h *RoomHandler) Get(c *gin.Context) {
	roomID, ok := pathID(c, "room_id")
	if !ok {
		return
	}
	room, err := h.chat.GetRoom(c.Request.Context(), roomID, currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

// Messages returns the room's full message history in send order.
func (h *RoomHandler) Messages(c *gin.Context) {
	roomID, ok := pathID(c, "room_id")
	if !ok {
		return
	}
	messages, err := h.messages.History(c.Request.Context(), roomID, currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

// PostMessage stores a message and broadcasts it to live subscribers.
func (h *RoomHandler) PostMessage(c *gin.Context) {
	roomID, ok := pathID(c, "room_id")
	if !ok {
		return
	}
	var req struct {
		Kind     string `json:"kind"`
		Content  string `json:"content"`
		ImageURL string `json:"image_url"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	msg, err := h.messages.Send(c.Request.Context(), roomID, currentUserID(c), services.SendInput{
		Kind:     models.MessageKind(req.Kind),
		Content:  req.Content,
		ImageURL: req.ImageURL,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	h.hub.BroadcastMessage(roomID, msg)
	c.JSON(http.StatusCreated, msg)
}

// MarkRead marks the other participant's messages read and notifies the room.
func (h *RoomHandler) MarkRead(c *gin.Context) {
	roomID, ok := pathID(c, "room_id")
	if !ok {
		return
	}
	userID := currentUserID(c)
	count, err := h.messages.MarkRead(c.Request.Context(), roomID, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	h.hub.BroadcastRead(roomID, userID)
	c.JSON(http.StatusOK, gin.H{"marked": count})
}

// Reserve pins the listing to the room's applicant for a scheduled trade.
func (h *RoomHandler) Reserve(c *gin.Context) {
	roomID, ok := pathID(c, "room_id")
	if !ok {
		return
	}
	// The body is optional: reserving without a scheduled time is valid.
	var req struct {
		ScheduledTradeAt *time.Time `json:"scheduled_trade_at"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	room, err := h.chat.Reserve(c.Request.Context(), roomID, currentUserID(c), req.ScheduledTradeAt)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

// Unreserve releases the room's reservation.
func (h *RoomHandler) Unreserve(c *gin.Context) {
	roomID, ok := pathID(c, "room_id")
	if !ok {
		return
	}
	room, err := h.chat.Unreserve(c.Request.Context(), roomID, currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

// Complete finishes the reserved trade; the listing is completed with it.
func (h *RoomHandler) Complete(c *gin.Context) {
	roomID, ok := pathID(c, "room_id")
	if !ok {
		return
	}
	room, err := h.chat.CompleteTrade(c.Request.Context(), roomID, currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

// Leave removes the caller from the room.
func (h *RoomHandler) Leave(c *gin.Context) {
	roomID, ok := pathID(c, "room_id")
	if !ok {
		return
	}
	if err := h.chat.Leave(c.Request.Context(), roomID, currentUserID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "left room"})
}
