package main

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Allow all origins for now to avoid CORS issues during dev
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client is a middleman between the websocket connection and its session runner.
type Client struct {
	manager  *SessionManager
	conn     *websocket.Conn
	send     chan []byte
	done     chan struct{}
	codec    Codec
	identity Identity
	runner   *SessionRunner
}

func (c *Client) displayName() string {
	if c.identity.Guest() {
		return "guest@" + c.conn.RemoteAddr().String()
	}
	return c.identity.Name
}

// enqueue encodes msg for this client. Slow clients lose frames rather than
// stalling the runner.
func (c *Client) enqueue(msg ServerMessage) {
	data, err := c.codec.Encode(msg)
	if err != nil {
		log.Printf("[WS] Failed to encode %s: %v", msg.Type, err)
		return
	}
	select {
	case <-c.done:
	case c.send <- data:
	default:
		log.Printf("[WS] Send buffer full for %s, dropping %s", c.displayName(), msg.Type)
	}
}

// readPump pumps messages from the websocket connection to the runner.
func (c *Client) readPump() {
	defer func() {
		c.manager.leave(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[WS] error: %v", err)
			}
			break
		}
		msg, err := c.codec.Decode(message)
		if err != nil {
			log.Printf("[WS] Invalid message from %s: %v", c.displayName(), err)
			continue
		}
		c.runner.Post(msg)
	}
}

// writePump pumps messages from the runner to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			w, err := c.conn.NextWriter(c.codec.FrameType())
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
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}

// serveWs handles websocket requests from the peer. The token is optional;
// without a valid one the player is a guest.
func serveWs(manager *SessionManager, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println(err)
		return
	}

	q := r.URL.Query()
	client := &Client{
		manager:  manager,
		conn:     conn,
		send:     make(chan []byte, 256),
		done:     make(chan struct{}),
		codec:    codecFor(q.Get("codec")),
		identity: identityFromToken(q.Get("token")),
	}

	client.runner = manager.newClientRunner(client)
	if !manager.join(client) {
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}
