package hub

import "log"

// Event is the envelope written to clients.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// Server-to-client event types.
const (
	EventMessage          = "message"
	EventTypingStatus     = "typingStatus"
	EventMessageEdited    = "messageEdited"
	EventMessageDeleted   = "messageDeleted"
	EventMessageReactions = "messageReactions"
	EventActiveUsers      = "activeUsers"
	EventUserJoined       = "userJoined"
	EventUserLeft         = "userLeft"
	EventDisconnected     = "disconnected"
)

// Sender writes events to one peer. Implementations must bound each
// write with a timeout so a dead peer cannot stall the caller.
type Sender interface {
	Send(event Event) error
	Close() error
}

// Broadcaster fans events out to registered connections. It is a thin
// addressing layer over the registry; transport failures are logged
// and swallowed here so they never abort the originating call.
type Broadcaster struct {
	registry *Registry
}

// NewBroadcaster creates a broadcaster over the given registry.
func NewBroadcaster(registry *Registry) *Broadcaster {
	return &Broadcaster{registry: registry}
}

// ToAll sends the event to every live connection.
func (b *Broadcaster) ToAll(event Event) {
	for _, conn := range b.registry.Connections() {
		b.send(conn, event)
	}
}

// ToAllExcept sends the event to every live connection except one.
func (b *Broadcaster) ToAllExcept(exceptConnID string, event Event) {
	for _, conn := range b.registry.Connections() {
		if conn.ID == exceptConnID {
			continue
		}
		b.send(conn, event)
	}
}

// ToOne sends the event to a single connection, if still registered.
func (b *Broadcaster) ToOne(connID string, event Event) {
	conn, ok := b.registry.Get(connID)
	if !ok {
		return
	}
	b.send(conn, event)
}

func (b *Broadcaster) send(conn Connection, event Event) {
	if conn.Sender == nil {
		return
	}
	if err := conn.Sender.Send(event); err != nil {
		// The failing peer is not the caller's concern.
		log.Printf("[hub] Send %s to %s failed: %v", event.Type, conn.ID, err)
	}
}
