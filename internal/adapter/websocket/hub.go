package websocket

import (
	"encoding/json"
	"sync"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/chargechain/internal/adapter/queue"
	"github.com/seu-repo/chargechain/internal/events"
)

// Hub pushes charging lifecycle events to connected clients. It consumes the
// same queue subjects as the index projector and fans each event out to every
// connection.
type Hub struct {
	// Registered clients.
	clients map[*Client]bool

	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	log *zap.Logger
	mu  sync.RWMutex
}

type Client struct {
	hub *Hub
	// The websocket connection.
	conn *websocket.Conn
	// Buffered channel of outbound messages.
	send chan []byte
	// Authenticated wallet address of the connection.
	wallet string
}

// eventFrame is the wire shape pushed to clients.
type eventFrame struct {
	Subject string          `json:"subject"`
	Event   json.RawMessage `json:"event"`
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		broadcast:  make(chan []byte),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		log:        log,
	}
}

// StartEventFeed subscribes the hub to every lifecycle subject.
func (h *Hub) StartEventFeed(mq queue.MessageQueue) error {
	subjects := []string{
		events.SubjectSessionStarted,
		events.SubjectSessionEnded,
		events.SubjectSessionPaid,
		events.SubjectReservationCreated,
		events.SubjectReservationCancelled,
	}
	for _, subject := range subjects {
		subject := subject
		err := mq.Subscribe(subject, func(data []byte) error {
			frame, err := json.Marshal(eventFrame{Subject: subject, Event: data})
			if err != nil {
				return nil
			}
			h.broadcast <- frame
			return nil
		})
		if err != nil {
			return err
		}
	}
	h.log.Info("Websocket hub subscribed to lifecycle events")
	return nil
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// AddClient registers an authenticated connection and starts its pumps.
func (h *Hub) AddClient(conn *websocket.Conn, wallet string) {
	client := &Client{hub: h, conn: conn, send: make(chan []byte, 256), wallet: wallet}
	client.hub.register <- client

	go client.writePump()
	go client.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	for {
		// Clients never send payloads; the loop only services control frames
		// and detects disconnects.
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (c *Client) writePump() {
	defer func() {
		c.conn.Close()
	}()
	for message := range c.send {
		w, err := c.conn.NextWriter(websocket.TextMessage)
		if err != nil {
			return
		}
		_, _ = w.Write(message)

		// Drain whatever queued up behind this frame.
		n := len(c.send)
		for i := 0; i < n; i++ {
			_, _ = w.Write(<-c.send)
		}

		if err := w.Close(); err != nil {
			return
		}
	}
	_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}
