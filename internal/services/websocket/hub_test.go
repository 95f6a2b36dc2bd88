package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"cityguard/internal/logger"
)

func TestBroadcastEvent_NeverBlocks(t *testing.T) {
	hub := NewHubService(logger.NewDiscard())

	// no Run goroutine: the queue fills and further events are dropped
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			hub.BroadcastEvent(ResultEvent{ResultID: int64(i)})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("BroadcastEvent blocked on a full queue")
	}
}

func TestBroadcastEvent_Payload(t *testing.T) {
	hub := NewHubService(logger.NewDiscard())

	created := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)
	hub.BroadcastEvent(ResultEvent{
		ResultID:        7,
		ImageFilename:   "street.jpg",
		TotalViolations: 2,
		Status:          "detected",
		CreatedAt:       created,
	})

	select {
	case message := <-hub.broadcast:
		var event ResultEvent
		if err := json.Unmarshal(message, &event); err != nil {
			t.Fatalf("queued message is not valid JSON: %v", err)
		}
		if event.ResultID != 7 || event.ImageFilename != "street.jpg" {
			t.Errorf("event = %+v", event)
		}
		if !event.CreatedAt.Equal(created) {
			t.Errorf("CreatedAt = %v", event.CreatedAt)
		}
	default:
		t.Fatal("no message queued")
	}
}

func TestGetClientCount_Empty(t *testing.T) {
	hub := NewHubService(logger.NewDiscard())
	if count := hub.GetClientCount(); count != 0 {
		t.Errorf("GetClientCount = %d, want 0", count)
	}
}

func TestRun_PingsIdleClients(t *testing.T) {
	oldPeriod := pingPeriod
	pingPeriod = 20 * time.Millisecond
	defer func() { pingPeriod = oldPeriod }()

	hub := NewHubService(logger.NewDiscard())
	go hub.Run()

	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Register(conn)
	}))
	defer server.Close()

	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http"), nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer client.Close()

	pinged := make(chan struct{}, 1)
	client.SetPingHandler(func(string) error {
		select {
		case pinged <- struct{}{}:
		default:
		}
		return nil
	})
	go func() {
		for {
			if _, _, err := client.ReadMessage(); err != nil {
				return
			}
		}
	}()

	select {
	case <-pinged:
	case <-time.After(2 * time.Second):
		t.Fatal("idle client never received a ping")
	}
}
