package devserver

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vovakirdan/arena-sync/internal/lb"
	"github.com/vovakirdan/arena-sync/internal/registry"
	"github.com/vovakirdan/arena-sync/internal/wire"
)

func startServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	cfg := DefaultConfig()
	cfg.TickInterval = 20 * time.Millisecond
	s := New(cfg, nil)
	s.Start()
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		srv.Close()
		s.Stop()
	})
	return s, srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, cmd wire.Command) {
	t.Helper()
	if err := conn.WriteMessage(websocket.BinaryMessage, wire.EncodeCommand(cmd)); err != nil {
		t.Fatalf("WriteMessage() failed: %v", err)
	}
}

// expect reads events until one of type E arrives.
func expect[E wire.Event](t *testing.T, conn *websocket.Conn) E {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			var zero E
			t.Fatalf("waiting for %T: %v", zero, err)
		}
		ev, err := wire.DecodeEvent(data)
		if err != nil {
			t.Fatalf("DecodeEvent() failed: %v", err)
		}
		if e, ok := ev.(E); ok {
			return e
		}
	}
}

func join(t *testing.T, conn *websocket.Conn, name string, fp uint32) (uint8, wire.PlayerRecord) {
	t.Helper()
	send(t, conn, wire.Join{Name: name, Fingerprint: fp})
	welcome := expect[wire.Welcome](t, conn)
	gs := expect[wire.GameState](t, conn)
	for _, p := range gs.Players {
		if p.ID == welcome.PlayerID {
			return welcome.PlayerID, p
		}
	}
	t.Fatalf("GameState does not contain player %d", welcome.PlayerID)
	return 0, wire.PlayerRecord{}
}

func TestJoinSendsWelcomeAndState(t *testing.T) {
	_, srv := startServer(t)
	conn := dial(t, srv)

	send(t, conn, wire.Join{Name: "Ada", Skin: 3, Fingerprint: 42})
	welcome := expect[wire.Welcome](t, conn)
	gs := expect[wire.GameState](t, conn)

	if len(gs.Players) != 1 || gs.Players[0].ID != welcome.PlayerID || gs.Players[0].Name != "Ada" {
		t.Errorf("Players = %+v", gs.Players)
	}
	if len(gs.NeutralBases) != 2 || len(gs.Rocks) != 2 || len(gs.Bushes) != 2 {
		t.Errorf("GameState layout = %d neutral, %d rocks, %d bushes", len(gs.NeutralBases), len(gs.Rocks), len(gs.Bushes))
	}

	ok, err := lb.NewClient(time.Second).CheckSession(t.Context(), srv.URL, 42)
	if err != nil || !ok {
		t.Errorf("CheckSession(42) = %v, %v after join", ok, err)
	}
}

func TestResourceTicks(t *testing.T) {
	_, srv := startServer(t)
	conn := dial(t, srv)
	join(t, conn, "Ada", 1)

	first := expect[wire.ResourceUpdate](t, conn)
	second := expect[wire.ResourceUpdate](t, conn)
	if second.Tick <= first.Tick || second.Gold <= first.Gold {
		t.Errorf("resources did not advance: %+v then %+v", first, second)
	}
}

func TestPlacement(t *testing.T) {
	_, srv := startServer(t)
	conn := dial(t, srv)
	id, me := join(t, conn, "Ada", 1)

	send(t, conn, wire.PlaceBuilding{Kind: registry.KindMine, X: me.X + 200, Y: me.Y})
	placed := expect[wire.BuildingPlaced](t, conn)
	if placed.OwnerID != id || placed.Kind != registry.KindMine || placed.X != me.X+200 {
		t.Errorf("BuildingPlaced = %+v", placed)
	}

	send(t, conn, wire.PlaceBuilding{Kind: 99, X: me.X + 400, Y: me.Y})
	if failed := expect[wire.PlacementFailed](t, conn); failed.Kind != 99 {
		t.Errorf("PlacementFailed = %+v", failed)
	}

	send(t, conn, wire.PlaceBuilding{Kind: registry.KindWall, X: me.X, Y: me.Y})
	if failed := expect[wire.PlacementFailed](t, conn); failed.Kind != registry.KindWall {
		t.Errorf("placement on the base: %+v", failed)
	}

	send(t, conn, wire.RemoveBuildings{IDs: []uint8{placed.BuildingID, 77}})
	removed := expect[wire.BuildingsRemoved](t, conn)
	if len(removed.IDs) != 1 || removed.IDs[0] != placed.BuildingID {
		t.Errorf("BuildingsRemoved = %+v", removed)
	}
}

func TestBarracksSpawnsUnits(t *testing.T) {
	_, srv := startServer(t)
	conn := dial(t, srv)
	_, me := join(t, conn, "Ada", 1)

	send(t, conn, wire.PlaceBuilding{Kind: registry.KindBarracks, X: me.X + 200, Y: me.Y + 200})
	placed := expect[wire.BuildingPlaced](t, conn)
	send(t, conn, wire.SetUnitSpawning{Building: placed.BuildingID, Active: true})
	if toggled := expect[wire.UnitSpawningToggled](t, conn); !toggled.Active {
		t.Errorf("UnitSpawningToggled = %+v", toggled)
	}
	spawned := expect[wire.UnitSpawned](t, conn)
	if spawned.BuildingID != placed.BuildingID {
		t.Errorf("UnitSpawned = %+v", spawned)
	}

	send(t, conn, wire.MoveUnits{TargetX: 1000, TargetY: 1000, IDs: []uint8{spawned.UnitID}})
	moved := expect[wire.UnitPositions](t, conn)
	if len(moved.Positions) != 1 || moved.Positions[0].X != 1000 {
		t.Errorf("UnitPositions = %+v", moved)
	}
}

func TestBroadcasts(t *testing.T) {
	_, srv := startServer(t)
	a := dial(t, srv)
	join(t, a, "Ada", 1)
	b := dial(t, srv)
	bID, _ := join(t, b, "Bob", 2)

	if joined := expect[wire.PlayerJoined](t, a); joined.ID != bID || joined.Name != "Bob" {
		t.Errorf("PlayerJoined = %+v", joined)
	}

	send(t, b, wire.ChatMessage{Text: "hello"})
	for _, conn := range []*websocket.Conn{a, b} {
		if chat := expect[wire.ChatBroadcast](t, conn); chat.PlayerID != bID || chat.Text != "hello" {
			t.Errorf("ChatBroadcast = %+v", chat)
		}
	}

	b.Close()
	if left := expect[wire.PlayerLeft](t, a); left.ID != bID {
		t.Errorf("PlayerLeft = %+v", left)
	}
}

func TestSkinAndResync(t *testing.T) {
	_, srv := startServer(t)
	conn := dial(t, srv)
	join(t, conn, "Ada", 1)

	send(t, conn, wire.RequestSkinData{Skin: 200})
	skin := expect[wire.SkinData](t, conn)
	if skin.Skin != 200 || len(skin.Data) == 0 {
		t.Errorf("SkinData = %+v", skin)
	}

	send(t, conn, wire.ResyncRequest{})
	if gs := expect[wire.GameState](t, conn); len(gs.Players) != 1 {
		t.Errorf("resync GameState has %d players", len(gs.Players))
	}
}

func TestLoadBalancerRoutes(t *testing.T) {
	_, srv := startServer(t)
	client := lb.NewClient(time.Second)

	addr, err := client.GetServer(t.Context(), srv.URL)
	if err != nil {
		t.Fatalf("GetServer() failed: %v", err)
	}
	if want := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"; addr != want {
		t.Errorf("GetServer() = %q, expected %q", addr, want)
	}

	if _, err := client.Ping(t.Context(), srv.URL); err != nil {
		t.Errorf("Ping() failed: %v", err)
	}

	resp, err := http.Get(srv.URL + lb.PathCheck + "?fingerprint=nope")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("/check with a bad fingerprint = %d", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + lb.PathCheck + "?fingerprint=5")
	if err != nil {
		t.Fatal(err)
	}
	var check lb.CheckResponse
	json.NewDecoder(resp.Body).Decode(&check)
	resp.Body.Close()
	if check.Valid {
		t.Error("unknown fingerprint reported valid")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	_, srv := startServer(t)
	conn := dial(t, srv)
	join(t, conn, "Ada", 1)

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	for _, name := range []string{"arena_dev_players", "arena_dev_commands_total"} {
		if !strings.Contains(string(body), name) {
			t.Errorf("/metrics missing %s", name)
		}
	}
}
