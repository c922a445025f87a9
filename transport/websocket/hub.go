package websocket

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// client serializes writes; gorilla connections allow one concurrent writer.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (that *client) send(resp Response) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.conn.WriteJSON(resp)
}

// close tells the peer the server is going away, then drops the connection.
func (that *client) close(deadline time.Time) {
	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutdown")
	_ = that.conn.WriteControl(websocket.CloseMessage, msg, deadline)
	_ = that.conn.Close()
}

// Hub tracks which connections watch which game.
type Hub struct {
	logger *slog.Logger

	mu    sync.RWMutex
	games map[string]map[*client]struct{}
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger: logger,
		games:  make(map[string]map[*client]struct{}),
	}
}

func (that *Hub) register(gameID string, c *client) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.games[gameID]; !ok {
		that.games[gameID] = make(map[*client]struct{})
	}
	that.games[gameID][c] = struct{}{}
}

func (that *Hub) unregister(gameID string, c *client) {
	that.mu.Lock()
	defer that.mu.Unlock()

	delete(that.games[gameID], c)
	if len(that.games[gameID]) == 0 {
		delete(that.games, gameID)
	}
}

// Watchers - number of connections on a game.
func (that *Hub) Watchers(gameID string) int {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return len(that.games[gameID])
}

// broadcast sends resp to every watcher of gameID except skip.
func (that *Hub) broadcast(gameID string, resp Response, skip *client) {
	that.mu.RLock()
	clients := make([]*client, 0, len(that.games[gameID]))
	for c := range that.games[gameID] {
		if c != skip {
			clients = append(clients, c)
		}
	}
	that.mu.RUnlock()

	for _, c := range clients {
		if err := c.send(resp); err != nil {
			that.logger.Warn("failed to send game update", "gameID", gameID, "error", err)
		}
	}
}

// closeAll - closes every tracked connection. Their read loops then unregister them.
func (that *Hub) closeAll(deadline time.Time) int {
	that.mu.RLock()
	var clients []*client
	for _, watchers := range that.games {
		for c := range watchers {
			clients = append(clients, c)
		}
	}
	that.mu.RUnlock()

	for _, c := range clients {
		c.close(deadline)
	}

	return len(clients)
}
