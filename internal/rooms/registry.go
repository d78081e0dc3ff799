// Package rooms holds room metadata: creation, lookup and access-code checks.
// Live membership belongs to the signaling router.
package rooms

import (
	"context"
	"crypto/subtle"
	"fmt"
	"time"

	"github.com/mossy-p/peer-relay/internal/models"
	"github.com/rs/zerolog/log"
)

// Registry validates and stores room metadata
type Registry struct {
	store Store
	now   func() time.Time
}

func NewRegistry(store Store) *Registry {
	return &Registry{store: store, now: time.Now}
}

// CreateRoom stores metadata for id, replacing whatever was stored before.
// An empty code leaves the room open and an empty mode becomes "practice".
func (r *Registry) CreateRoom(ctx context.Context, id, code, mode string) (models.RoomMetadata, error) {
	if id == "" {
		return models.RoomMetadata{}, fmt.Errorf("create room: %w", ErrInvalidRequest)
	}
	if mode == "" {
		mode = models.ModePractice
	}

	room := models.RoomMetadata{
		ID:        id,
		Code:      code,
		Mode:      mode,
		CreatedAt: r.now(),
	}
	if err := r.store.Put(ctx, room); err != nil {
		return models.RoomMetadata{}, fmt.Errorf("store room %s: %w", id, err)
	}

	log.Info().Str("module", "rooms").Str("room", id).Str("mode", mode).
		Bool("requires_code", room.RequiresCode()).Msg("room created")
	return room, nil
}

func (r *Registry) GetRoomInfo(ctx context.Context, id string) (models.RoomInfo, error) {
	room, err := r.get(ctx, id)
	if err != nil {
		return models.RoomInfo{}, err
	}
	return models.RoomInfo{RequiresCode: room.RequiresCode(), Mode: room.Mode}, nil
}

// ValidateAccess returns nil when code opens room id
func (r *Registry) ValidateAccess(ctx context.Context, id, code string) error {
	room, err := r.get(ctx, id)
	if err != nil {
		return err
	}
	if !room.RequiresCode() {
		return nil
	}
	if subtle.ConstantTimeCompare([]byte(room.Code), []byte(code)) != 1 {
		log.Warn().Str("module", "rooms").Str("room", id).Msg("access code mismatch")
		return fmt.Errorf("room %s: %w", id, ErrForbidden)
	}
	return nil
}

func (r *Registry) List(ctx context.Context) ([]models.RoomMetadata, error) {
	return r.store.List(ctx)
}

func (r *Registry) get(ctx context.Context, id string) (models.RoomMetadata, error) {
	if id == "" {
		return models.RoomMetadata{}, fmt.Errorf("room id required: %w", ErrInvalidRequest)
	}
	room, err := r.store.Get(ctx, id)
	if err != nil {
		return models.RoomMetadata{}, fmt.Errorf("room %s: %w", id, err)
	}
	return room, nil
}
