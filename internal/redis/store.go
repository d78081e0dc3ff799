package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/mossy-p/peer-relay/internal/models"
	"github.com/mossy-p/peer-relay/internal/rooms"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// roomIndexKey is a set of every room id written through RoomStore
const roomIndexKey = "rooms"

// RoomStore keeps room metadata in Redis with an expiry
type RoomStore struct {
	client *redis.Client
	ttl    time.Duration
}

var _ rooms.Store = (*RoomStore)(nil)

func NewRoomStore(client *redis.Client, ttl time.Duration) *RoomStore {
	return &RoomStore{client: client, ttl: ttl}
}

func roomKey(id string) string {
	return "room:" + id
}

func (s *RoomStore) Put(ctx context.Context, room models.RoomMetadata) error {
	roomData, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("encode room: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, roomKey(room.ID), roomData, s.ttl)
	pipe.SAdd(ctx, roomIndexKey, room.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store room in Redis: %w", err)
	}
	return nil
}

func (s *RoomStore) Get(ctx context.Context, id string) (models.RoomMetadata, error) {
	roomData, err := s.client.Get(ctx, roomKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.RoomMetadata{}, rooms.ErrNotFound
	}
	if err != nil {
		return models.RoomMetadata{}, fmt.Errorf("get room from Redis: %w", err)
	}

	var room models.RoomMetadata
	if err := json.Unmarshal(roomData, &room); err != nil {
		return models.RoomMetadata{}, fmt.Errorf("failed to parse room data: %w", err)
	}
	return room, nil
}

// List returns live rooms ordered by id. Index entries whose metadata has
// expired are removed on the way.
func (s *RoomStore) List(ctx context.Context) ([]models.RoomMetadata, error) {
	ids, err := s.client.SMembers(ctx, roomIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list rooms from Redis: %w", err)
	}

	out := make([]models.RoomMetadata, 0, len(ids))
	for _, id := range ids {
		room, err := s.Get(ctx, id)
		if errors.Is(err, rooms.ErrNotFound) {
			if err := s.client.SRem(ctx, roomIndexKey, id).Err(); err != nil {
				log.Warn().Err(err).Str("module", "redis").Str("room", id).Msg("failed to drop expired room from index")
			}
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, room)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
