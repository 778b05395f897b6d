package services

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"learningsite/logger"
)

// Content event types broadcast to a course channel.
const (
	EventCourseCreated   = "course_created"
	EventQuizCreated     = "quiz_created"
	EventQuizUpdated     = "quiz_updated"
	EventQuestionCreated = "question_created"
	EventQuestionUpdated = "question_updated"
	EventAnswersSaved    = "answers_saved"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	sendBufferSize = 256
)

// Hub fans content events out to the websocket clients watching a course.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan courseMessage
	register   chan *Client
	unregister chan *Client
	mutex      sync.RWMutex
	log        *logger.Logger
}

type Client struct {
	hub      *Hub
	id       string
	socket   *websocket.Conn
	send     chan []byte
	courseID uint
	userID   uint
}

type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type courseMessage struct {
	courseID uint
	data     []byte
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan courseMessage, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		log:        log.With("component", "Hub"),
	}
}

// Run owns the client set. It must run in its own goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			h.mutex.Unlock()
			h.log.Debug("client registered", "client_id", client.id, "course_id", client.courseID, "user_id", client.userID)

		case client := <-h.unregister:
			h.mutex.Lock()
			h.remove(client)
			h.mutex.Unlock()

		case msg := <-h.broadcast:
			h.mutex.Lock()
			delivered := 0
			for client := range h.clients {
				if client.courseID != msg.courseID {
					continue
				}
				select {
				case client.send <- msg.data:
					delivered++
				default:
					h.log.Warn("client send buffer full, dropping", "client_id", client.id)
					h.remove(client)
				}
			}
			h.mutex.Unlock()
			h.log.Debug("event broadcast", "course_id", msg.courseID, "clients", delivered)
		}
	}
}

// remove must be called with the mutex held.
func (h *Hub) remove(client *Client) {
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
		h.log.Debug("client unregistered", "client_id", client.id, "course_id", client.courseID)
	}
}

// BroadcastToCourse queues an event for every client watching the course.
func (h *Hub) BroadcastToCourse(courseID uint, messageType string, payload interface{}) {
	data, err := json.Marshal(Message{Type: messageType, Payload: payload})
	if err != nil {
		h.log.Error("marshal event", "type", messageType, "error", err)
		return
	}
	h.broadcast <- courseMessage{courseID: courseID, data: data}
}

// ClientCount reports how many clients watch the course.
func (h *Hub) ClientCount(courseID uint) int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	n := 0
	for client := range h.clients {
		if client.courseID == courseID {
			n++
		}
	}
	return n
}

func (h *Hub) RegisterClient(conn *websocket.Conn, courseID, userID uint) *Client {
	client := &Client{
		hub:      h,
		id:       uuid.NewString(),
		socket:   conn,
		send:     make(chan []byte, sendBufferSize),
		courseID: courseID,
		userID:   userID,
	}

	h.register <- client

	go client.writePump()
	go client.readPump()

	return client
}

func (h *Hub) UnregisterClient(client *Client) {
	h.unregister <- client
}

// readPump drains client frames so control messages are processed; the
// channel is server-to-client only.
func (c *Client) readPump() {
	defer func() {
		c.hub.UnregisterClient(c)
		c.socket.Close()
	}()

	c.socket.SetReadLimit(4096)
	_ = c.socket.SetReadDeadline(time.Now().Add(pongWait))
	c.socket.SetPongHandler(func(string) error {
		return c.socket.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.socket.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Warn("websocket read error", "client_id", c.id, "error", err)
			}
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.socket.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.socket.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.socket.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.socket.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
