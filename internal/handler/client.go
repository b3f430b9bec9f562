package handler

import (
	"net/http"

	"boxcounter/internal/logger"
	"boxcounter/internal/middleware"
	"boxcounter/internal/service"

	"github.com/gorilla/websocket"
)

// NewUpgrader builds the websocket upgrader for the live feed, accepting the
// same origins as the CORS middleware.
func NewUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || middleware.OriginAllowed(allowedOrigins, origin)
		},
	}
}

// LiveWebsocketHandler handles viewer connections over WebSocket and
// registers them in the HubService to receive analysis summaries.
func LiveWebsocketHandler(manager *service.Manager, upgrader websocket.Upgrader, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		hub := manager.GetWebsocketService()
		if hub == nil {
			respondError(w, logger, http.StatusServiceUnavailable, "Service unavailable", "Live feed is disabled")
			return
		}

		connection, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Error("WebSocket upgrade error: %v", err)
			return
		}

		hub.Register(connection)
		defer hub.Unregister(connection)

		logger.Info("Live viewer connected from %s", r.RemoteAddr)

		for {
			_, _, err := connection.ReadMessage()
			if err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					logger.Info("Live viewer disconnected normally")
				} else {
					logger.Debug("Live viewer disconnected: %v", err)
				}
				break
			}
		}
	}
}
