package handlers

import (
	"log"
	"net/http"

	"sentinel/internal/middleware"
	"sentinel/internal/websocket"

	"github.com/google/uuid"
	ws "github.com/gorilla/websocket"
)

var upgrader = ws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin checking is handled by the CORS middleware config.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// HandleWebSocket upgrades the connection and attaches it to the feed event
// hub. A token may be supplied via query parameter since browsers cannot set
// headers on websocket dials; an anonymous connection still receives the
// broadcast feed.
func (s *Server) HandleWebSocket() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.GetUserIDFromContext(r.Context())
		if token := r.URL.Query().Get("token"); token != "" && userID == "" {
			claims, err := middleware.ValidateToken(token)
			if err != nil {
				log.Printf("WebSocket: Rejecting invalid token: %v", err)
				http.Error(w, "Invalid token", http.StatusUnauthorized)
				return
			}
			userID = claims.UserID()
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("WebSocket upgrade failed: %v", err)
			return
		}

		client := &websocket.Client{
			Hub:    s.Hub,
			ConnID: uuid.New().String(),
			UserID: userID,
			Conn:   conn,
			Send:   make(chan []byte, 256),
		}
		s.Hub.Register <- client

		go client.WritePump()
		go client.ReadPump()
	}
}
