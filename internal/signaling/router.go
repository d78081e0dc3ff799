// Package signaling routes join, signal and disconnect events between the
// sessions connected to the relay.
package signaling

import (
	"errors"
	"fmt"
	"sync"

	"github.com/mossy-p/peer-relay/internal/models"
	"github.com/mossy-p/peer-relay/internal/rooms"
	"github.com/rs/zerolog/log"
)

var (
	ErrUnknownSession   = errors.New("unknown session")
	ErrDuplicateSession = errors.New("session already connected")
)

// Router owns the session table and room membership. All mutations happen
// under mu, and events for a mutation are queued on the senders before mu is
// released, so every member sees membership changes in the same order.
type Router struct {
	mu       sync.Mutex
	sessions map[string]*session
	members  membership
}

func NewRouter() *Router {
	return &Router{
		sessions: make(map[string]*session),
		members:  make(membership),
	}
}

// Connect registers a live connection under id
func (r *Router) Connect(id string, out Sender) error {
	if id == "" || out == nil {
		return fmt.Errorf("connect: %w", rooms.ErrInvalidRequest)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[id]; exists {
		return fmt.Errorf("connect %s: %w", id, ErrDuplicateSession)
	}
	r.sessions[id] = &session{id: id, out: out}
	log.Debug().Str("module", "signaling").Str("sid", id).Msg("session connected")
	return nil
}

// Join puts session id into req.Room. The joining session gets its id and the
// other members; those members get a peer-joined event. A session that is
// already in a room leaves it first.
func (r *Router) Join(id string, req models.JoinRequest) error {
	if req.Room == "" {
		return fmt.Errorf("join %s: room required: %w", id, rooms.ErrInvalidRequest)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return fmt.Errorf("join %s: %w", id, ErrUnknownSession)
	}
	if s.joined() {
		log.Info().Str("module", "signaling").Str("sid", id).Str("from", s.room).Str("to", req.Room).Msg("switching rooms")
		r.leaveLocked(s)
	}

	peers := r.members.list(req.Room)
	r.members.add(req.Room, id)
	s.room, s.name, s.role = req.Room, req.Name, req.Role

	r.deliver(s, models.Event{
		Type:    models.EventJoined,
		Payload: models.Joined{ID: id, Peers: peers},
	})

	joined := models.Event{
		Type:    models.EventPeerJoined,
		Payload: models.PeerJoined{ID: id, Name: req.Name, Role: req.Role},
	}
	for _, peerID := range peers {
		r.deliver(r.sessions[peerID], joined)
	}

	log.Info().Str("module", "signaling").Str("sid", id).Str("room", req.Room).
		Str("role", req.Role).Int("peers", len(peers)).Msg("peer joined")
	return nil
}

// Relay forwards req.Data to req.To untouched. It reports whether the target
// was connected; a missing target is not an error.
func (r *Router) Relay(from string, req models.SignalRequest) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	target, ok := r.sessions[req.To]
	if !ok {
		log.Debug().Str("module", "signaling").Str("sid", from).Str("to", req.To).Msg("signal target not connected")
		return false
	}
	r.deliver(target, models.Event{
		Type:    models.EventSignal,
		Payload: models.Signal{From: from, Data: req.Data},
	})
	return true
}

// Disconnect releases session id. Remaining members of its room get peer-left.
// It reports false when id was not connected, so repeated calls are no-ops.
func (r *Router) Disconnect(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return false
	}
	delete(r.sessions, id)
	if s.joined() {
		r.leaveLocked(s)
	}
	log.Info().Str("module", "signaling").Str("sid", id).Msg("session disconnected")
	return true
}

// Members returns a sorted snapshot of the sessions in room
func (r *Router) Members(room string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.members.list(room)
}

// MemberCounts returns the number of members of every non-empty room
func (r *Router) MemberCounts() map[string]int {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string]int, len(r.members))
	for room, members := range r.members {
		out[room] = len(members)
	}
	return out
}

// RoomOf returns the room session id is in
func (r *Router) RoomOf(id string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok || !s.joined() {
		return "", false
	}
	return s.room, true
}

func (r *Router) SessionCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// leaveLocked removes s from its room and notifies whoever is left
func (r *Router) leaveLocked(s *session) {
	room := s.room
	s.room = ""
	if !r.members.remove(room, s.id) {
		return
	}

	left := models.Event{Type: models.EventPeerLeft, Payload: models.PeerLeft{ID: s.id}}
	for _, peerID := range r.members.list(room) {
		r.deliver(r.sessions[peerID], left)
	}
	log.Info().Str("module", "signaling").Str("sid", s.id).Str("room", room).Msg("peer left")
}

func (r *Router) deliver(s *session, ev models.Event) {
	if err := s.out.Send(ev); err != nil {
		log.Warn().Err(err).Str("module", "signaling").Str("sid", s.id).
			Str("event", string(ev.Type)).Msg("event dropped")
	}
}
