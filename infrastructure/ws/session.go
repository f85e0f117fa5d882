package ws

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

const (
	SendQueueSize = 128
	writeWait     = 10 * time.Second
	pongWait      = 60 * time.Second
	pingPeriod    = (pongWait * 9) / 10
)

// Session owns one WebSocket connection. Only its write loop writes to the socket.
type Session struct {
	ID     string
	UserID string

	conn   *websocket.Conn
	log    *slog.Logger
	queue  chan []byte
	done   chan struct{}
	closed atomic.Bool
}

func NewSession(id, userID string, conn *websocket.Conn, log *slog.Logger) *Session {
	return &Session{
		ID:     id,
		UserID: userID,
		conn:   conn,
		log:    log.With("session_id", id, "user_id", userID),
		queue:  make(chan []byte, SendQueueSize),
		done:   make(chan struct{}),
	}
}

func (s *Session) Start() {
	go s.writeLoop()
}

func (s *Session) Done() <-chan struct{} {
	return s.done
}

// TrySend queues a frame. A full queue means the client cannot keep up:
// the connection is closed and the client resumes from its last position.
func (s *Session) TrySend(frame []byte) bool {
	if s.closed.Load() {
		return false
	}
	select {
	case s.queue <- frame:
		return true
	default:
		s.CloseWithReason(websocket.CloseTryAgainLater, "backpressure overflow")
		return false
	}
}

func (s *Session) Close() {
	s.CloseWithReason(websocket.CloseNormalClosure, "server closing")
}

func (s *Session) CloseWithReason(code int, reason string) {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	s.log.Debug("Closing session", "code", code, "reason", reason)
	close(s.done)

	deadline := time.Now().Add(time.Second)
	_ = s.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
	_ = s.conn.Close()
}

// ReadLoop discards client frames and returns when the client goes away.
// Pongs extend the read deadline.
func (s *Session) ReadLoop() {
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.log.Warn("Read loop error", "error", err)
			}
			return
		}
	}
}

func (s *Session) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.Close()
	}()

	for {
		select {
		case frame := <-s.queue:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				s.log.Warn("Write error", "error", err)
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.log.Warn("Ping error", "error", err)
				return
			}
		case <-s.done:
			return
		}
	}
}
