package signaling

import "github.com/mossy-p/peer-relay/internal/models"

// Sender delivers events to one connected client. Send must not block: the
// router calls it while holding its lock.
type Sender interface {
	Send(ev models.Event) error
}

// session is the router's view of one connection. It exists from Connect to
// Disconnect; an empty room means the session has not joined.
type session struct {
	id   string
	name string
	role string
	room string
	out  Sender
}

func (s *session) joined() bool {
	return s.room != ""
}
