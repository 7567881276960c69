package services

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Hub fans generation pipeline progress out to websocket subscribers. Each
// client subscribes to a single generation id; the orchestrator broadcasts a
// message on every state transition.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	mutex      sync.RWMutex
}

type Client struct {
	hub          *Hub
	socket       *websocket.Conn
	send         chan []byte
	generationID string
	userID       uint
}

type ProgressMessage struct {
	Type         string `json:"type"`
	GenerationID string `json:"generation_id"`
	State        string `json:"state"`
	Detail       string `json:"detail,omitempty"`
	Timestamp    string `json:"timestamp"`
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			h.mutex.Unlock()
			log.Printf("Progress client registered for generation %s (user %d) - total clients: %d",
				client.generationID, client.userID, h.clientCount())

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mutex.Unlock()
		}
	}
}

func (h *Hub) clientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// BroadcastProgress sends a pipeline state transition to every client
// subscribed to the generation.
func (h *Hub) BroadcastProgress(generationID, state, detail string) {
	message := ProgressMessage{
		Type:         "generation_progress",
		GenerationID: generationID,
		State:        state,
		Detail:       detail,
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
	}

	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("Error marshaling progress message: %v", err)
		return
	}

	h.mutex.Lock()
	for client := range h.clients {
		if client.generationID != generationID {
			continue
		}
		select {
		case client.send <- data:
		default:
			close(client.send)
			delete(h.clients, client)
		}
	}
	h.mutex.Unlock()
}

func (h *Hub) RegisterClient(conn *websocket.Conn, generationID string, userID uint) *Client {
	client := &Client{
		hub:          h,
		socket:       conn,
		send:         make(chan []byte, 64),
		generationID: generationID,
		userID:       userID,
	}

	h.register <- client

	go client.writePump()
	go client.readPump()

	return client
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.socket.Close()
	}()

	for {
		if _, _, err := c.socket.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("Progress websocket read error: %v", err)
			}
			break
		}
		// Subscribers only listen; inbound messages are ignored.
	}
}

func (c *Client) writePump() {
	defer c.socket.Close()

	for message := range c.send {
		if err := c.socket.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	c.socket.WriteMessage(websocket.CloseMessage, []byte{})
}
