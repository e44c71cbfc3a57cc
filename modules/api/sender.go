package api

import (
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"

	"github.com/example/chatroom-hub/modules/hub"
)

// writeTimeout bounds a single websocket write so a stalled peer cannot
// block the broadcast path.
const writeTimeout = 5 * time.Second

// wsSender adapts a websocket connection to the hub's Sender interface.
// The hub fans out from multiple goroutines while the read loop may
// reply concurrently, and gorilla websockets allow only one writer at a
// time, so writes are serialized with a mutex.
type wsSender struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

var _ hub.Sender = (*wsSender)(nil)

func newWSSender(conn *websocket.Conn) *wsSender {
	return &wsSender{conn: conn}
}

// Send writes one event with a bounded deadline.
func (s *wsSender) Send(event hub.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return s.conn.WriteJSON(event)
}

// Close closes the underlying websocket.
func (s *wsSender) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.Close()
}
