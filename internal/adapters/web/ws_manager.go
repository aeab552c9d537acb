package web

import (
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/lcalzada-xor/honeytrap/internal/core/ports"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Same-origin requests omit the header entirely.
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		allowedOrigins := []string{
			"http://localhost:8080",
			"http://127.0.0.1:8080",
			"http://[::1]:8080",
		}
		for _, allowed := range allowedOrigins {
			if origin == allowed {
				return true
			}
		}
		log.Printf("WebSocket: Rejected origin: %s", origin)
		return false
	},
}

// WSMessage is one alert frame pushed to the operator console.
type WSMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// WSManager fans gateway events out to connected operator consoles. It is
// the web-side ports.Notifier implementation.
type WSManager struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]bool
}

func NewWSManager() *WSManager {
	return &WSManager{clients: make(map[*websocket.Conn]bool)}
}

// HandleWebSocket upgrades the request and tracks the console connection.
// Nothing is read from consoles beyond the close handshake.
func (m *WSManager) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("Upgrade error:", err)
		return
	}

	m.mu.Lock()
	m.clients[conn] = true
	m.mu.Unlock()

	go func() {
		defer conn.Close()
		defer func() {
			m.mu.Lock()
			delete(m.clients, conn)
			m.mu.Unlock()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()
}

// Notify broadcasts one event to every connected console. Dead connections
// are pruned on write failure.
func (m *WSManager) Notify(event string, payload any) {
	msg := WSMessage{Type: event, Payload: payload}

	m.mu.Lock()
	defer m.mu.Unlock()
	for conn := range m.clients {
		if err := conn.WriteJSON(msg); err != nil {
			conn.Close()
			delete(m.clients, conn)
		}
	}
}

// Ensure interface compliance
var _ ports.Notifier = (*WSManager)(nil)
