package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/boardsync/boardsync-server/internal/auth"
	"github.com/boardsync/boardsync-server/internal/core"
	"github.com/boardsync/boardsync-server/internal/store"
)

// RoomHandlers provides HTTP handlers for room metadata endpoints.
// Live collaboration state is owned by the hub; these handlers only
// manage durable room records.
type RoomHandlers struct {
	store store.Store
	hub   *core.Hub
	log   *zerolog.Logger
}

// NewRoomHandlers creates a new room handlers instance.
func NewRoomHandlers(st store.Store, hub *core.Hub, logger *zerolog.Logger) *RoomHandlers {
	return &RoomHandlers{
		store: st,
		hub:   hub,
		log:   logger,
	}
}

// CreateRoomRequest represents the create room request body.
type CreateRoomRequest struct {
	Name     string `json:"name" binding:"required,min=1,max=64"`
	Password string `json:"password,omitempty"`
}

// RoomResponse represents a room in API responses.
type RoomResponse struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	PasswordProtected bool   `json:"passwordProtected"`
	OwnerID           string `json:"ownerId"`
	CreatedAt         string `json:"createdAt"`
}

func roomResponse(room *store.Room) RoomResponse {
	return RoomResponse{
		ID:                room.ID,
		Name:              room.Name,
		PasswordProtected: room.PasswordHash != "",
		OwnerID:           room.OwnerID,
		CreatedAt:         room.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// CreateRoom handles room creation.
// POST /api/rooms
func (h *RoomHandlers) CreateRoom(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		h.log.Error().Msg("user_id not found in context")
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	var req CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid create room request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	passwordHash := ""
	if req.Password != "" {
		hash, err := auth.HashRoomPassword(req.Password)
		if err != nil {
			h.log.Error().Err(err).Msg("failed to hash room password")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
			return
		}
		passwordHash = hash
	}

	roomID := uuid.NewString()
	room, err := h.store.CreateRoom(c.Request.Context(), roomID, req.Name, passwordHash, uid)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			c.JSON(http.StatusConflict, ErrorResponse{Error: "room already exists"})
			return
		}
		h.log.Error().Err(err).Str("room_name", req.Name).Msg("failed to create room")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	// The creator owns the room from its first join.
	if err := h.store.SetRoomRole(c.Request.Context(), roomID, uid, string(core.RoleOwner)); err != nil {
		h.log.Warn().Err(err).Str("room_id", roomID).Msg("failed to record owner role")
	}

	h.log.Info().Str("room_id", room.ID).Str("owner_id", uid).Msg("room created")
	c.JSON(http.StatusCreated, roomResponse(room))
}

// ListRooms handles listing rooms.
// GET /api/rooms
func (h *RoomHandlers) ListRooms(c *gin.Context) {
	rooms, err := h.store.ListRooms(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list rooms")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	response := make([]RoomResponse, 0, len(rooms))
	for _, room := range rooms {
		response = append(response, roomResponse(room))
	}
	c.JSON(http.StatusOK, response)
}

// GetRoom handles fetching one room's metadata.
// GET /api/rooms/:id
func (h *RoomHandlers) GetRoom(c *gin.Context) {
	room, err := h.store.GetRoomByID(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "room not found"})
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("room_id", c.Param("id")).Msg("failed to get room")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	c.JSON(http.StatusOK, roomResponse(room))
}

// DeleteRoom handles room deletion. Only the room owner may delete; the
// live room, if any, is torn down along with the durable record.
// DELETE /api/rooms/:id
func (h *RoomHandlers) DeleteRoom(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	roomID := c.Param("id")
	room, err := h.store.GetRoomByID(c.Request.Context(), roomID)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "room not found"})
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("room_id", roomID).Msg("failed to get room")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	if room.OwnerID != uid {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "only the owner can delete a room"})
		return
	}

	h.hub.DropRoom(roomID)

	if err := h.store.DeleteRoom(c.Request.Context(), roomID); err != nil {
		h.log.Error().Err(err).Str("room_id", roomID).Msg("failed to delete room")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	h.log.Info().Str("room_id", roomID).Str("user_id", uid).Msg("room deleted")
	c.Status(http.StatusNoContent)
}
