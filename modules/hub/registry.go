package hub

import (
	"sort"
	"sync"
	"time"

	"github.com/example/chatroom-hub/domain/chatroom"
)

// Connection is one physical transport link, registered when its
// client successfully joins the room and removed on disconnect or
// eviction.
type Connection struct {
	ID             string
	SessionID      string
	Username       string
	ConnectedAt    time.Time
	LastActivityAt time.Time
	Sender         Sender
}

// JoinOutcome reports the state transition a Join caused. All fields
// are computed from a single consistent view of the registry.
type JoinOutcome struct {
	// Displaced is the prior live connection for the same session id,
	// already removed from the registry. The caller must notify and
	// close it.
	Displaced *Connection
	// DisplacedLastSession is true when removing Displaced left its
	// username with no live connection.
	DisplacedLastSession bool
	// FirstSession is true when the joining username had no live
	// connection before this call.
	FirstSession bool
}

// LeaveOutcome reports the state transition a Leave caused.
type LeaveOutcome struct {
	Username    string
	SessionID   string
	LastSession bool
}

// Registry is the single source of truth for who is online. It maps
// connection ids to connections and session ids to their one live
// connection. Every check-and-set sequence runs under one lock so
// first-session/last-session decisions never race.
type Registry struct {
	mu       sync.RWMutex
	conns    map[string]*Connection // connectionID -> connection
	sessions map[string]string      // sessionID -> connectionID
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		conns:    make(map[string]*Connection),
		sessions: make(map[string]string),
	}
}

// Join registers a connection under a session and username. If the
// session already maps to a different live connection, that connection
// is removed and returned as Displaced. A connection joins at most
// once: a repeat Join for a live connection id is rejected, since any
// client can send a second join frame on the same socket. The username
// is assumed validated by the caller.
func (r *Registry) Join(connID, sessionID, username string, sender Sender) (JoinOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.conns[connID]; exists {
		return JoinOutcome{}, chatroom.NewValidationError("connection has already joined the room")
	}

	activeBefore := r.activeSetLocked()

	var outcome JoinOutcome
	if oldID, ok := r.sessions[sessionID]; ok && oldID != connID {
		if old, ok := r.conns[oldID]; ok {
			displaced := *old
			outcome.Displaced = &displaced
			delete(r.conns, oldID)
		}
	}

	now := time.Now().UTC()
	r.conns[connID] = &Connection{
		ID:             connID,
		SessionID:      sessionID,
		Username:       username,
		ConnectedAt:    now,
		LastActivityAt: now,
		Sender:         sender,
	}
	r.sessions[sessionID] = connID

	activeAfter := r.activeSetLocked()

	_, wasActive := activeBefore[username]
	outcome.FirstSession = !wasActive
	if outcome.Displaced != nil {
		_, stillActive := activeAfter[outcome.Displaced.Username]
		outcome.DisplacedLastSession = !stillActive
	}
	return outcome, nil
}

// Leave removes a connection. The second call for the same id is a
// no-op: disconnect races with eviction must not double-fire leave
// notifications.
func (r *Registry) Leave(connID string) (LeaveOutcome, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.conns[connID]
	if !ok {
		return LeaveOutcome{}, false
	}

	delete(r.conns, connID)
	if r.sessions[conn.SessionID] == connID {
		delete(r.sessions, conn.SessionID)
	}

	activeAfter := r.activeSetLocked()
	_, stillActive := activeAfter[conn.Username]
	return LeaveOutcome{
		Username:    conn.Username,
		SessionID:   conn.SessionID,
		LastSession: !stillActive,
	}, true
}

// Touch updates the connection's last-activity timestamp. Called on
// every inbound client call, not only sends.
func (r *Registry) Touch(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if conn, ok := r.conns[connID]; ok {
		conn.LastActivityAt = time.Now().UTC()
	}
}

// Username resolves the registered username of a connection. It is the
// sole authorization mechanism: calls claiming another username are
// rejected against this mapping.
func (r *Registry) Username(connID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.conns[connID]
	if !ok {
		return "", false
	}
	return conn.Username, true
}

// Get returns a copy of a registered connection.
func (r *Registry) Get(connID string) (Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.conns[connID]
	if !ok {
		return Connection{}, false
	}
	return *conn, true
}

// ActiveUsernames returns the sorted distinct usernames with at least
// one live connection. It is always derived from the connection map,
// never cached, so it cannot drift.
func (r *Registry) ActiveUsernames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	active := r.activeSetLocked()
	users := make([]string, 0, len(active))
	for username := range active {
		users = append(users, username)
	}
	sort.Strings(users)
	return users
}

// Connections returns a snapshot copy of all live connections.
func (r *Registry) Connections() []Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Connection, 0, len(r.conns))
	for _, conn := range r.conns {
		out = append(out, *conn)
	}
	return out
}

// IdleConnections returns connections whose last activity is older
// than the cutoff.
func (r *Registry) IdleConnections(cutoff time.Time) []Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var idle []Connection
	for _, conn := range r.conns {
		if conn.LastActivityAt.Before(cutoff) {
			idle = append(idle, *conn)
		}
	}
	return idle
}

// Len returns the number of live connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

func (r *Registry) activeSetLocked() map[string]struct{} {
	active := make(map[string]struct{}, len(r.conns))
	for _, conn := range r.conns {
		active[conn.Username] = struct{}{}
	}
	return active
}
