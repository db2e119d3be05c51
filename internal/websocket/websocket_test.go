package websocket

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"hat-store/internal/models"
)

type recordingBuyer struct {
	mu  sync.Mutex
	ids []string
}

func (b *recordingBuyer) BuyFromPartner(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ids = append(b.ids, id)
	return nil
}

func (b *recordingBuyer) bought() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.ids...)
}

func newTestServer(t *testing.T, hub *Hub, buyer BuyHandler) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	snapshot := func() models.Event {
		funds := 500
		return models.Event{
			Type: models.EventConnect,
			Products: map[string]models.Hat{
				"h1": {Name: "Gibus", Price: 10},
			},
			Remote: map[string]models.Hat{},
			Funds:  &funds,
		}
	}

	r := gin.New()
	r.GET("/ws", HandleWebSocket(hub, snapshot, buyer))
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) models.Event {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	var ev models.Event
	if err := json.Unmarshal(data, &ev); err != nil {
		t.Fatalf("frame not an event: %v", err)
	}
	return ev
}

func TestConnectReceivesSnapshotFirst(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	srv := newTestServer(t, hub, nil)

	conn := dial(t, srv)
	ev := readEvent(t, conn)

	if ev.Type != models.EventConnect {
		t.Fatalf("expected connect frame first, got %s", ev.Type)
	}
	if ev.Funds == nil || *ev.Funds != 500 {
		t.Error("snapshot missing funds")
	}
	if _, ok := ev.Products["h1"]; !ok {
		t.Error("snapshot missing products")
	}
}

func TestBroadcastReachesAllObservers(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	srv := newTestServer(t, hub, nil)

	first := dial(t, srv)
	second := dial(t, srv)
	readEvent(t, first)
	readEvent(t, second)

	hub.Broadcast(models.Event{
		Type: models.EventAddBLU,
		ID:   "h2",
		Item: &models.Hat{Name: "Pyro Mask", Price: 42},
	})

	for _, conn := range []*websocket.Conn{first, second} {
		ev := readEvent(t, conn)
		if ev.Type != models.EventAddBLU || ev.ID != "h2" {
			t.Errorf("expected addBLU for h2, got %+v", ev)
		}
		if ev.Timestamp == 0 {
			t.Error("broadcast missing timestamp")
		}
	}
}

func TestLateObserverMissesEarlierEvents(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	srv := newTestServer(t, hub, nil)

	early := dial(t, srv)
	readEvent(t, early)
	hub.Broadcast(models.Event{Type: models.EventRemoveBLU, ID: "h1"})
	readEvent(t, early) // delivered to the connected observer

	late := dial(t, srv)
	ev := readEvent(t, late)
	if ev.Type != models.EventConnect {
		t.Fatalf("late observer should only get the snapshot, got %s", ev.Type)
	}
}

func TestBuyFrameDispatched(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	buyer := &recordingBuyer{}
	srv := newTestServer(t, hub, buyer)

	conn := dial(t, srv)
	readEvent(t, conn)

	if err := conn.WriteJSON(models.ClientFrame{Type: models.EventBuy, ID: "r1"}); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(buyer.bought()) == 1 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if got := buyer.bought(); len(got) != 1 || got[0] != "r1" {
		t.Fatalf("expected buy dispatch for r1, got %v", got)
	}
}

func TestMalformedAndUnknownFramesIgnored(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	buyer := &recordingBuyer{}
	srv := newTestServer(t, hub, buyer)

	conn := dial(t, srv)
	readEvent(t, conn)

	conn.WriteMessage(websocket.TextMessage, []byte("{not json"))
	conn.WriteJSON(models.ClientFrame{Type: "subscribe", ID: "x"})
	conn.WriteJSON(models.ClientFrame{Type: models.EventBuy}) // no id

	time.Sleep(50 * time.Millisecond)
	if len(buyer.bought()) != 0 {
		t.Errorf("unexpected dispatches: %v", buyer.bought())
	}

	// The connection survives junk frames.
	hub.Broadcast(models.Event{Type: models.EventRestock, ID: "h1"})
	if ev := readEvent(t, conn); ev.Type != models.EventRestock {
		t.Errorf("expected restock after junk frames, got %s", ev.Type)
	}
}
