package httpapi

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"voicerelay/internal/core"
	"voicerelay/internal/domain"
)

type Handler struct {
	Manager *core.Manager
}

type createRoomRequest struct {
	RoomName string `json:"room_name"`
}

// CreateRoom handles POST /voice/rooms. The body is optional; an
// unnamed room gets a name derived from its id.
func (h *Handler) CreateRoom(c *gin.Context) {
	var req createRoomRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid request body"})
			return
		}
	}

	user := currentUser(c)
	roomID := h.Manager.CreateRoom(user.ID, req.RoomName)
	status, _ := h.Manager.GetRoomStatus(roomID)

	c.JSON(http.StatusCreated, gin.H{
		"status":     "success",
		"room_id":    roomID,
		"room_name":  status.RoomName,
		"created_by": user.ID,
		"created_at": status.CreatedAt,
		"join_url":   fmt.Sprintf("/voice/ws/%s", roomID),
		"message":    "Voice room created successfully. Share the room ID to invite others.",
	})
}

// GetRoom handles GET /voice/rooms/:room_id.
func (h *Handler) GetRoom(c *gin.Context) {
	roomID := domain.RoomID(c.Param("room_id"))
	status, ok := h.Manager.GetRoomStatus(roomID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("Room %s not found", roomID)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "room": status})
}

// ListRooms handles GET /voice/rooms.
func (h *Handler) ListRooms(c *gin.Context) {
	user := currentUser(c)
	rooms := h.Manager.ListActiveRooms()

	var current any
	if roomID, ok := h.Manager.GetUserRoom(user.ID); ok {
		current = roomID
	}

	c.JSON(http.StatusOK, gin.H{
		"status":             "success",
		"total_active_rooms": len(rooms),
		"rooms":              rooms,
		"your_current_room":  current,
	})
}

// MyRoom handles GET /voice/my-room.
func (h *Handler) MyRoom(c *gin.Context) {
	user := currentUser(c)
	roomID, ok := h.Manager.GetUserRoom(user.ID)
	if !ok {
		c.JSON(http.StatusOK, gin.H{
			"status":  "no_room",
			"message": "You are not currently in any voice room",
		})
		return
	}
	status, _ := h.Manager.GetRoomStatus(roomID)
	c.JSON(http.StatusOK, gin.H{"status": "success", "room": status})
}

// EndRoom handles POST /voice/rooms/:room_id/end. Creator only.
func (h *Handler) EndRoom(c *gin.Context) {
	roomID := domain.RoomID(c.Param("room_id"))
	user := currentUser(c)

	switch err := h.Manager.EndRoom(roomID, user.ID); {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{
			"status":  "success",
			"message": fmt.Sprintf("Voice room %s has been ended", roomID),
			"room_id": roomID,
		})
	case errors.Is(err, core.ErrRoomNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("Room %s not found", roomID)})
	case errors.Is(err, core.ErrNotCreator):
		c.JSON(http.StatusForbidden, gin.H{"error": "Only room creator can end the room"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to end room"})
	}
}
