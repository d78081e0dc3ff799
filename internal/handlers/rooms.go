package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"sort"

	"github.com/gin-gonic/gin"
	"github.com/mossy-p/peer-relay/internal/models"
	"github.com/mossy-p/peer-relay/internal/rooms"
	"github.com/mossy-p/peer-relay/internal/signaling"
	"github.com/rs/zerolog/log"
)

// RoomHandler serves room creation, lookup and access checks
type RoomHandler struct {
	registry *rooms.Registry
	router   *signaling.Router
}

func NewRoomHandler(registry *rooms.Registry, router *signaling.Router) *RoomHandler {
	return &RoomHandler{registry: registry, router: router}
}

// CreateRoom registers room metadata and returns the join link
func (h *RoomHandler) CreateRoom(c *gin.Context) {
	var req models.CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "room required"})
		return
	}

	room, err := h.registry.CreateRoom(c.Request.Context(), req.Room, req.Code, req.Mode)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.CreateRoomResponse{
		Link: "/join.html?room=" + url.QueryEscape(room.ID),
	})
}

// GetRoomInfo tells a client whether a room needs a code
func (h *RoomHandler) GetRoomInfo(c *gin.Context) {
	info, err := h.registry.GetRoomInfo(c.Request.Context(), c.Query("room"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

// ValidateRoom checks the access code before a client joins
func (h *RoomHandler) ValidateRoom(c *gin.Context) {
	var req models.ValidateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "room required"})
		return
	}

	if err := h.registry.ValidateAccess(c.Request.Context(), req.Room, req.Code); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ValidateRoomResponse{OK: true})
}

// ListRooms reports every registered room and every room with live members.
// Rooms joined without being created have an empty mode.
func (h *RoomHandler) ListRooms(c *gin.Context) {
	registered, err := h.registry.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	counts := h.router.MemberCounts()

	summaries := make([]models.RoomSummary, 0, len(registered)+len(counts))
	for _, room := range registered {
		summaries = append(summaries, models.RoomSummary{
			Room:         room.ID,
			Mode:         room.Mode,
			RequiresCode: room.RequiresCode(),
			CreatedAt:    room.CreatedAt,
			Members:      counts[room.ID],
		})
		delete(counts, room.ID)
	}
	for id, n := range counts {
		summaries = append(summaries, models.RoomSummary{Room: id, Members: n})
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].Room < summaries[j].Room })

	c.JSON(http.StatusOK, gin.H{"rooms": summaries})
}

func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, rooms.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": "room required"})
	case errors.Is(err, rooms.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, rooms.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "invalid code"})
	default:
		log.Error().Err(err).Str("module", "handlers").Str("path", c.FullPath()).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
