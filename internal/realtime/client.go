package realtime

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 64
)

// Client is one websocket connection following a topic.
type Client struct {
	userID string
	send   chan []byte
	done   chan struct{}
	once   sync.Once
}

func NewClient(userID string) *Client {
	return &Client{
		userID: userID,
		send:   make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
	}
}

// enqueue reports false when the client cannot keep up.
func (c *Client) enqueue(payload []byte) bool {
	select {
	case <-c.done:
		return true
	default:
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.once.Do(func() { close(c.done) })
}

// Frames delivers encoded frames for transports that do not use Run.
func (c *Client) Frames() <-chan []byte {
	return c.send
}

// Done is closed when the hub drops the client.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Run pumps frames to conn until either side goes away. It owns conn and closes it.
func (c *Client) Run(conn *websocket.Conn) {
	defer conn.Close()
	go c.readPump(conn)
	c.writePump(conn)
}

// readPump only handles control frames. Anything the client sends is discarded.
func (c *Client) readPump(conn *websocket.Conn) {
	defer c.close()
	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) writePump(conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case payload := <-c.send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				c.close()
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		case <-c.done:
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		}
	}
}
