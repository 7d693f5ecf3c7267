package http

import (
	"sync"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/ospanenko/chesswire-server/internal/proto"
)

// session is one accepted websocket connection. Its id doubles as the
// client id in the registry; addr is the admission/rate-limit key resolved
// once at accept time.
type session struct {
	id   string
	addr string
	conn *websocket.Conn

	out    chan proto.Outbound
	closed chan struct{}

	closeOnce sync.Once
}

func newSession(conn *websocket.Conn, addr string) *session {
	return &session{
		id:     uuid.NewString(),
		addr:   addr,
		conn:   conn,
		out:    make(chan proto.Outbound, 16),
		closed: make(chan struct{}),
	}
}

// send queues an outbound frame for the write loop.
func (s *session) send(msg proto.Outbound) {
	select {
	case s.out <- msg:
	case <-s.closed:
	default:
		// Drop if slow consumer.
	}
}

// drop force-closes the connection. The read loop unblocks with an error
// and the handler runs its single teardown path; calling drop repeatedly is
// safe.
func (s *session) drop(code websocket.StatusCode, reason string) {
	s.closeOnce.Do(func() {
		close(s.closed)
		_ = s.conn.Close(code, reason)
	})
}
