package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vovakirdan/arena-sync/internal/wire"
)

// testServer upgrades every request, writes greeting (if any) and forwards
// received frames to frames.
type testServer struct {
	*httptest.Server
	frames chan []byte
	conns  chan *websocket.Conn
}

func newTestServer(t *testing.T, greeting []byte) *testServer {
	t.Helper()
	ts := &testServer{
		frames: make(chan []byte, 64),
		conns:  make(chan *websocket.Conn, 4),
	}
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	ts.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		ts.conns <- conn
		if greeting != nil {
			_ = conn.WriteMessage(websocket.BinaryMessage, greeting)
		}
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			ts.frames <- data
		}
	}))
	t.Cleanup(ts.Close)
	return ts
}

func (ts *testServer) wsURL() string {
	return "ws" + strings.TrimPrefix(ts.URL, "http")
}

func startWorker(t *testing.T, cfg Config) *Worker {
	t.Helper()
	w := NewWorker(cfg, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	w.Start(ctx)
	t.Cleanup(func() {
		w.Stop()
		cancel()
	})
	return w
}

func nextEvent(t *testing.T, w *Worker) Event {
	t.Helper()
	select {
	case ev := <-w.Events():
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a worker event")
		return nil
	}
}

func nextFrame(t *testing.T, ts *testServer) []byte {
	t.Helper()
	select {
	case f := <-ts.frames:
		return f
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a frame on the server")
		return nil
	}
}

func TestWorkerConnectRelaySend(t *testing.T) {
	greeting := wire.EncodeEvent(wire.Welcome{PlayerID: 3})
	ts := newTestServer(t, greeting)
	w := startWorker(t, DefaultConfig())

	w.Connect(ts.wsURL())
	ev := nextEvent(t, w)
	connected, ok := ev.(Connected)
	if !ok {
		t.Fatalf("first event = %T, expected Connected", ev)
	}
	if connected.Conn != 1 {
		t.Errorf("Conn = %d, expected 1", connected.Conn)
	}

	msg, ok := nextEvent(t, w).(Message)
	if !ok {
		t.Fatal("expected the greeting Message")
	}
	if string(msg.Data) != string(greeting) || msg.Generation() != 1 {
		t.Errorf("Message = %+v", msg)
	}

	frame := wire.EncodeCommand(wire.ChatMessage{Text: "hi"})
	w.Send(frame)
	if got := nextFrame(t, ts); string(got) != string(frame) {
		t.Errorf("server received % x, expected % x", got, frame)
	}

	w.Close()
	disc, ok := nextEvent(t, w).(Disconnected)
	if !ok {
		t.Fatal("expected Disconnected after Close")
	}
	if disc.Err != nil {
		t.Errorf("local close should report a nil error, got %v", disc.Err)
	}
}

func TestWorkerDropsWhenNotOpen(t *testing.T) {
	w := startWorker(t, DefaultConfig())
	w.Send([]byte{0})

	deadline := time.Now().Add(5 * time.Second)
	for w.Stats().Dropped == 0 {
		if time.Now().After(deadline) {
			t.Fatal("send on a closed socket was not counted as dropped")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestWorkerDialFailure(t *testing.T) {
	ts := newTestServer(t, nil)
	url := ts.wsURL()
	ts.Close()

	w := startWorker(t, DefaultConfig())
	w.Connect(url)

	failed, ok := nextEvent(t, w).(Failed)
	if !ok {
		t.Fatal("expected Failed for an unreachable server")
	}
	if failed.Err == nil || failed.URL != url {
		t.Errorf("Failed = %+v", failed)
	}
}

func TestWorkerHeartbeat(t *testing.T) {
	ts := newTestServer(t, nil)
	cfg := DefaultConfig()
	cfg.HeartbeatInterval = 20 * time.Millisecond
	w := startWorker(t, cfg)

	w.Connect(ts.wsURL())
	if _, ok := nextEvent(t, w).(Connected); !ok {
		t.Fatal("expected Connected")
	}

	frame := nextFrame(t, ts)
	if len(frame) != 1 || wire.Tag(frame[0]) != wire.TagHeartbeat {
		t.Errorf("heartbeat frame = % x, expected a lone Heartbeat tag", frame)
	}
	if w.Stats().Heartbeats == 0 {
		t.Error("Heartbeats counter should be non-zero")
	}
}

func TestWorkerReconnectUsesNewGeneration(t *testing.T) {
	ts := newTestServer(t, nil)
	w := startWorker(t, DefaultConfig())

	w.Connect(ts.wsURL())
	if c, ok := nextEvent(t, w).(Connected); !ok || c.Conn != 1 {
		t.Fatal("expected Connected for generation 1")
	}

	w.Connect(ts.wsURL())
	var sawOldClose, sawNew bool
	for !(sawOldClose && sawNew) {
		switch ev := nextEvent(t, w).(type) {
		case Disconnected:
			if ev.Conn != 1 {
				t.Errorf("Disconnected for generation %d, expected 1", ev.Conn)
			}
			sawOldClose = true
		case Connected:
			if ev.Conn != 2 {
				t.Errorf("Connected generation %d, expected 2", ev.Conn)
			}
			sawNew = true
		default:
			t.Fatalf("unexpected event %T", ev)
		}
	}
}

func TestWorkerReportsRemoteClose(t *testing.T) {
	ts := newTestServer(t, nil)
	w := startWorker(t, DefaultConfig())

	w.Connect(ts.wsURL())
	if _, ok := nextEvent(t, w).(Connected); !ok {
		t.Fatal("expected Connected")
	}

	var serverSide *websocket.Conn
	select {
	case serverSide = <-ts.conns:
	case <-time.After(5 * time.Second):
		t.Fatal("server never saw the connection")
	}
	serverSide.Close()

	disc, ok := nextEvent(t, w).(Disconnected)
	if !ok {
		t.Fatal("expected Disconnected")
	}
	if disc.Err == nil {
		t.Error("remote close should carry an error")
	}
}
