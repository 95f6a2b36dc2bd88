package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"cityguard/internal/logger"
)

// ResultEvent is pushed to connected dashboard clients after each completed
// detection pass.
type ResultEvent struct {
	ResultID        int64     `json:"result_id"`
	ImageFilename   string    `json:"image_filename"`
	TotalViolations int       `json:"total_violations"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
}

// pingPeriod must stay under the 60s read deadline the events handler sets
// on each client.
var pingPeriod = 54 * time.Second

const writeWait = 10 * time.Second

// HubService fans detection events out to websocket clients.
type HubService struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan []byte
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	mutex      sync.RWMutex
	logger     *logger.Logger
}

func NewHubService(log *logger.Logger) *HubService {
	return &HubService{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan []byte, 16),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		logger:     log,
	}
}

func (h *HubService) Run() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			h.mutex.Unlock()
			h.logger.Info("Client connected. Total: %d", h.GetClientCount())

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.Close()
			}
			h.mutex.Unlock()
			h.logger.Info("Client disconnected. Total: %d", h.GetClientCount())

		case message := <-h.broadcast:
			h.mutex.Lock()
			for client := range h.clients {
				err := client.WriteMessage(websocket.TextMessage, message)
				if err != nil {
					h.logger.Error("Error sending message: %v", err)
					delete(h.clients, client)
					client.Close()
				}
			}
			h.mutex.Unlock()

		case <-ticker.C:
			// idle clients only refresh their read deadline on pong
			h.mutex.Lock()
			for client := range h.clients {
				client.SetWriteDeadline(time.Now().Add(writeWait))
				if err := client.WriteMessage(websocket.PingMessage, nil); err != nil {
					h.logger.Error("Ping failed: %v", err)
					delete(h.clients, client)
					client.Close()
				}
			}
			h.mutex.Unlock()
		}
	}
}

func (h *HubService) Register(client *websocket.Conn) {
	h.register <- client
}

func (h *HubService) Unregister(client *websocket.Conn) {
	h.unregister <- client
}

// BroadcastEvent encodes and queues a result event for all clients. A full
// queue drops the event rather than blocking the detection pipeline.
func (h *HubService) BroadcastEvent(event ResultEvent) {
	message, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("Error encoding event: %v", err)
		return
	}

	select {
	case h.broadcast <- message:
	default:
		h.logger.Warning("Event queue full, dropping result event %d", event.ResultID)
	}
}

func (h *HubService) GetClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}
