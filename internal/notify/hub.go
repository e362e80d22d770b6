package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
)

const writeTimeout = 5 * time.Second

// Hub pushes newly created notifications to connected clients over
// websockets. Targeted notifications go only to their recipients;
// broadcasts go to every connection.
type Hub struct {
	mu    sync.RWMutex
	conns map[*client]struct{}
}

type client struct {
	userID string
	conn   *websocket.Conn
}

func NewHub() *Hub {
	return &Hub{conns: make(map[*client]struct{})}
}

// Serve upgrades the request to a websocket and holds it open until the
// client disconnects or ctx is done. userID identifies the learner the
// connection belongs to.
func (h *Hub) Serve(ctx context.Context, w http.ResponseWriter, r *http.Request, userID string) error {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		return err
	}

	c := &client{userID: userID, conn: conn}
	h.mu.Lock()
	h.conns[c] = struct{}{}
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.conns, c)
		h.mu.Unlock()
		conn.Close(websocket.StatusNormalClosure, "")
	}()

	// Clients only receive; CloseRead surfaces disconnects.
	readCtx := conn.CloseRead(ctx)
	<-readCtx.Done()
	return nil
}

// Publish sends the notification to every connection it is visible to.
// Slow or dead connections are dropped rather than blocking the caller.
func (h *Hub) Publish(n Notification) {
	payload, err := json.Marshal(n)
	if err != nil {
		slog.Error("marshal notification for push", "error", err)
		return
	}

	h.mu.RLock()
	targets := make([]*client, 0, len(h.conns))
	for c := range h.conns {
		if n.Broadcast() || n.AddressedTo(c.userID) {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range targets {
		go func(c *client) {
			ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
			defer cancel()
			if err := c.conn.Write(ctx, websocket.MessageText, payload); err != nil {
				slog.Warn("push notification", "user_id", c.userID, "error", err)
				c.conn.Close(websocket.StatusPolicyViolation, "write failed")
			}
		}(c)
	}
}
