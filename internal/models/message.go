package models

// EventType names an event on the signaling connection
type EventType string

const (
	EventJoinRoom   EventType = "join-room"
	EventJoined     EventType = "joined"
	EventPeerJoined EventType = "peer-joined"
	EventSignal     EventType = "signal"
	EventPeerLeft   EventType = "peer-left"
)

// Envelope is the decoded form of an inbound frame. The payload is kept raw
// until the event type is known.
type Envelope struct {
	Type    EventType `json:"type" msgpack:"type"`
	Payload Raw       `json:"payload" msgpack:"payload"`
}

// Event is an outbound frame before encoding
type Event struct {
	Type    EventType `json:"type" msgpack:"type"`
	Payload any       `json:"payload" msgpack:"payload"`
}

// JoinRequest is the join-room payload sent by a client
type JoinRequest struct {
	Room string `json:"room" msgpack:"room"`
	Name string `json:"name" msgpack:"name"`
	Role string `json:"role" msgpack:"role"`
}

// SignalRequest is the signal payload sent by a client. Data is never inspected.
type SignalRequest struct {
	To   string `json:"to" msgpack:"to"`
	Data Raw    `json:"data" msgpack:"data"`
}

// Joined confirms a join to the joining session
type Joined struct {
	ID    string   `json:"id" msgpack:"id"`
	Peers []string `json:"peers" msgpack:"peers"`
}

// PeerJoined tells existing members about a new member
type PeerJoined struct {
	ID   string `json:"id" msgpack:"id"`
	Name string `json:"name" msgpack:"name"`
	Role string `json:"role" msgpack:"role"`
}

// Signal is a relayed negotiation message
type Signal struct {
	From string `json:"from" msgpack:"from"`
	Data Raw    `json:"data" msgpack:"data"`
}

// PeerLeft tells remaining members that a session is gone
type PeerLeft struct {
	ID string `json:"id" msgpack:"id"`
}
