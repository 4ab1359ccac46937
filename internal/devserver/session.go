package devserver

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vovakirdan/arena-sync/internal/wire"
)

// SessionID identifies one websocket connection.
type SessionID uint64

// Session is one connected client. Outbound frames go through a bounded
// queue written by a dedicated goroutine, so the game loop never blocks on a
// slow socket.
type Session struct {
	id     SessionID
	ws     *websocket.Conn
	frames chan []byte
	done   chan struct{}
	once   sync.Once

	writeTimeout time.Duration
}

func newSession(id SessionID, ws *websocket.Conn, buffer int, writeTimeout time.Duration) *Session {
	if buffer < 1 {
		buffer = 256
	}
	return &Session{
		id:           id,
		ws:           ws,
		frames:       make(chan []byte, buffer),
		done:         make(chan struct{}),
		writeTimeout: writeTimeout,
	}
}

// ID returns the session identifier.
func (s *Session) ID() SessionID {
	return s.id
}

// Send queues an event. If the queue is full the oldest frame is dropped.
func (s *Session) Send(ev wire.Event) {
	s.sendFrame(wire.EncodeEvent(ev))
}

func (s *Session) sendFrame(frame []byte) {
	select {
	case <-s.done:
		return
	default:
	}

	select {
	case s.frames <- frame:
	default:
		// Buffer full, drop oldest and retry
		select {
		case <-s.frames:
		default:
		}
		select {
		case s.frames <- frame:
		default:
		}
	}
}

// Done closes when the session ends.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Close ends the session and its socket. Safe to call multiple times.
func (s *Session) Close() {
	s.once.Do(func() {
		close(s.done)
		_ = s.ws.Close()
	})
}

func (s *Session) writePump() {
	defer s.Close()
	for {
		select {
		case <-s.done:
			return
		case frame := <-s.frames:
			if s.writeTimeout > 0 {
				_ = s.ws.SetWriteDeadline(time.Now().Add(s.writeTimeout))
			}
			if err := s.ws.WriteMessage(websocket.BinaryMessage, frame); err != nil {
				return
			}
		}
	}
}

// readPump decodes commands and hands them to the game until the socket
// closes.
func (s *Session) readPump(g *Game, readLimit int64) {
	defer func() {
		g.Send(disconnectMsg{session: s})
		s.Close()
	}()
	if readLimit > 0 {
		s.ws.SetReadLimit(readLimit)
	}
	for {
		kind, data, err := s.ws.ReadMessage()
		if err != nil {
			return
		}
		if kind != websocket.BinaryMessage {
			continue
		}
		cmd, err := wire.DecodeCommand(data)
		if err != nil {
			g.logger.Warn("dropping malformed command", "session", s.id, "error", err)
			g.metrics.malformed.Inc()
			continue
		}
		g.Send(commandMsg{session: s, cmd: cmd})
	}
}
