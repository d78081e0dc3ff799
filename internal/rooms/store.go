package rooms

import (
	"context"
	"sort"
	"sync"

	"github.com/mossy-p/peer-relay/internal/models"
)

// Store keeps room metadata. Get returns ErrNotFound for unknown ids.
type Store interface {
	Put(ctx context.Context, room models.RoomMetadata) error
	Get(ctx context.Context, id string) (models.RoomMetadata, error)
	List(ctx context.Context) ([]models.RoomMetadata, error)
}

// MemoryStore is a process-lifetime Store
type MemoryStore struct {
	mu    sync.RWMutex
	rooms map[string]models.RoomMetadata
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rooms: make(map[string]models.RoomMetadata)}
}

func (s *MemoryStore) Put(_ context.Context, room models.RoomMetadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[room.ID] = room
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (models.RoomMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[id]
	if !ok {
		return models.RoomMetadata{}, ErrNotFound
	}
	return room, nil
}

// List returns rooms ordered by id
func (s *MemoryStore) List(_ context.Context) ([]models.RoomMetadata, error) {
	s.mu.RLock()
	out := make([]models.RoomMetadata, 0, len(s.rooms))
	for _, room := range s.rooms {
		out = append(out, room)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
