package api

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/pantryos/backend/internal/events"
	"github.com/pantryos/backend/internal/metrics"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

const (
	pongWait   = 60 * time.Second // time allowed to read the next pong
	pingPeriod = 30 * time.Second // must be < pongWait
	writeWait  = 10 * time.Second
	maxMsgSize = 4096
)

// streamClient is one WebSocket subscriber to a household's event
// stream. All writes go through writePump; readPump only services
// pongs and close frames.
type streamClient struct {
	conn    *websocket.Conn
	events  <-chan *events.Event
	cancel  func()
	done    chan struct{}
	once    sync.Once
	metrics *metrics.Metrics
}

// handleEventStream upgrades the connection and relays the household's
// domain events until either side hangs up.
func (s *Server) handleEventStream(w http.ResponseWriter, r *http.Request) {
	householdID := mux.Vars(r)["householdId"]

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("stream upgrade failed", "error", err)
		return
	}

	ch, cancel := s.bus.Subscribe(householdID)
	client := &streamClient{
		conn:    conn,
		events:  ch,
		cancel:  cancel,
		done:    make(chan struct{}),
		metrics: s.metrics,
	}

	slog.Info("stream client connected", "household_id", householdID, "remote", r.RemoteAddr)
	if s.metrics != nil {
		s.metrics.StreamClients.Inc()
	}

	go client.writePump()
	go client.readPump()
}

func (c *streamClient) close() {
	c.once.Do(func() {
		close(c.done)
		c.cancel()
		c.conn.Close()
		if c.metrics != nil {
			c.metrics.StreamClients.Dec()
		}
		slog.Info("stream client disconnected")
	})
}

// writePump owns all writes to the connection: events, pings, close.
func (c *streamClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case event, ok := <-c.events:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			payload, err := event.JSON()
			if err != nil {
				continue
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			return
		}
	}
}

// readPump drains the connection so control frames are processed; any
// read error tears the client down.
func (c *streamClient) readPump() {
	defer c.close()

	c.conn.SetReadLimit(maxMsgSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Warn("stream read error", "error", err)
			}
			return
		}
	}
}
