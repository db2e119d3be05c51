package websocket

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"hat-store/internal/models"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// BuyHandler receives cross-store purchase requests arriving over the
// WebSocket channel.
type BuyHandler interface {
	BuyFromPartner(id string) error
}

// Hub fans broadcast frames out to every connected observer. There is
// no replay: an observer that connects after an event never sees it,
// it gets a full snapshot on connect instead.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
}

type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

func NewHub() *Hub {
	return &Hub{
		broadcast:  make(chan []byte),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			logrus.Debug("Observer connected")

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				logrus.Debug("Observer disconnected")
			}

		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}
		}
	}
}

// Broadcast serializes the event and delivers it to every open
// observer channel. Slow or dead observers are dropped, never waited
// on.
func (h *Hub) Broadcast(event models.Event) {
	if event.Timestamp == 0 {
		event.Timestamp = time.Now().Unix()
	}
	data, err := json.Marshal(event)
	if err != nil {
		logrus.WithError(err).Warn("Failed to marshal broadcast event")
		return
	}
	h.broadcast <- data
}

// HandleWebSocket upgrades the connection, sends the full
// current-state snapshot as the first frame, and then joins the
// observer set.
func HandleWebSocket(hub *Hub, snapshot func() models.Event, buyer BuyHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logrus.WithError(err).Warn("WebSocket upgrade failed")
			return
		}

		client := &Client{
			hub:  hub,
			conn: conn,
			send: make(chan []byte, 256),
		}

		// Snapshot first, before any broadcast can be queued.
		if data, err := json.Marshal(snapshot()); err == nil {
			client.send <- data
		}

		client.hub.register <- client

		go client.writePump()
		go client.readPump(buyer)
	}
}

func (c *Client) readPump(buyer BuyHandler) {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.WithError(err).Warn("WebSocket read error")
			}
			break
		}

		var frame models.ClientFrame
		if err := json.Unmarshal(message, &frame); err != nil {
			continue
		}

		switch frame.Type {
		case models.EventBuy:
			if frame.ID == "" || buyer == nil {
				continue
			}
			// Failures surface only as an absent broadcast.
			if err := buyer.BuyFromPartner(frame.ID); err != nil {
				logrus.WithError(err).WithField("id", frame.ID).Warn("Cross-store purchase failed")
			}
		default:
			// Unknown frame types are dropped.
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			c.conn.WriteMessage(websocket.TextMessage, message)

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
