package services

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"snowball/internal/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// portfolioEvent is the wire shape pushed to connected clients.
type portfolioEvent struct {
	Type         string                       `json:"type"`
	Portfolio    *models.PortfolioCalculation `json:"portfolio,omitempty"`
	UpdatedCount int                          `json:"updatedCount,omitempty"`
}

// PortfolioHub pushes recalculated portfolio snapshots to connected clients
// after trades and bulk price refreshes.
type PortfolioHub struct {
	clients    map[*PortfolioClient]bool
	broadcast  chan portfolioEvent
	register   chan *PortfolioClient
	unregister chan *PortfolioClient
	log        zerolog.Logger
}

type PortfolioClient struct {
	hub  *PortfolioHub
	conn *websocket.Conn
	send chan []byte
}

func NewPortfolioHub(log zerolog.Logger) *PortfolioHub {
	return &PortfolioHub{
		clients:    make(map[*PortfolioClient]bool),
		broadcast:  make(chan portfolioEvent),
		register:   make(chan *PortfolioClient),
		unregister: make(chan *PortfolioClient),
		log:        log,
	}
}

func (h *PortfolioHub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			h.log.Debug().Int("clients", len(h.clients)).Msg("client connected")

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.log.Debug().Int("clients", len(h.clients)).Msg("client disconnected")
			}

		case event := <-h.broadcast:
			message, err := json.Marshal(event)
			if err != nil {
				h.log.Error().Err(err).Msg("marshaling portfolio event failed")
				continue
			}

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

// BroadcastPortfolio pushes a fresh post-trade snapshot to all clients.
func (h *PortfolioHub) BroadcastPortfolio(result *models.PortfolioCalculation) {
	h.broadcast <- portfolioEvent{Type: "portfolio", Portfolio: result}
}

// BroadcastPriceRefresh announces how many asset prices a bulk refresh
// updated, so clients know to reload.
func (h *PortfolioHub) BroadcastPriceRefresh(updated int) {
	h.broadcast <- portfolioEvent{Type: "pricesRefreshed", UpdatedCount: updated}
}

func (h *PortfolioHub) RegisterClient(conn *websocket.Conn) *PortfolioClient {
	client := &PortfolioClient{
		hub:  h,
		conn: conn,
		send: make(chan []byte, 256),
	}
	h.register <- client
	return client
}

func (c *PortfolioClient) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, _, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Warn().Err(err).Msg("websocket read error")
			}
			break
		}
	}
}

func (c *PortfolioClient) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
