package handlers

import (
	"net/http"
	"time"

	"cityguard/internal/logger"
	"cityguard/internal/services"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// EventsHandler upgrades the connection and streams detection result events
// until the client disconnects.
func EventsHandler(manager *services.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		connection, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warning("WebSocket upgrade error: %v", err)
			return
		}
		connection.SetReadLimit(512)
		connection.SetReadDeadline(time.Now().Add(60 * time.Second))
		connection.SetPongHandler(func(appData string) error {
			connection.SetReadDeadline(time.Now().Add(60 * time.Second))
			return nil
		})
		defer connection.Close()

		manager.Hub().Register(connection)
		defer manager.Hub().Unregister(connection)

		logger.Info("Event client connected: %s", r.RemoteAddr)

		for {
			if _, _, err := connection.ReadMessage(); err != nil {
				logger.Info("Event client disconnected: %v", err)
				break
			}
		}
	}
}
