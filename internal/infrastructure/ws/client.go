package ws

import (
	"encoding/json"
	"log"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// clientCommand is what a connected viewer may send: declare or drop
// interest in a room's event stream.
type clientCommand struct {
	Action   string `json:"action"` // "join" or "leave"
	RoomCode string `json:"roomCode"`
}

// Client is one live WebSocket connection. A single connection may view
// several rooms at once; the hub tracks which.
type Client struct {
	ID   string
	conn *connWrapper

	send chan *Event
	done chan struct{}
}

func NewClient(conn *websocket.Conn) *Client {
	return &Client{
		ID:   uuid.NewString(),
		conn: newConnWrapper(conn),
		send: make(chan *Event, 64), // buffered so slow viewers never block a publish
		done: make(chan struct{}),
	}
}

// ReadPump consumes join/leave commands until the connection drops, then
// detaches the client from every room it was viewing.
func (c *Client) ReadPump(hub *Hub) {
	defer func() {
		hub.UnsubscribeAll(c)
		_ = c.conn.Close()
	}()

	for {
		_, raw, err := c.conn.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("ws read error (client %s): %v", c.ID, err)
			}
			return
		}

		var cmd clientCommand
		if err := json.Unmarshal(raw, &cmd); err != nil || cmd.RoomCode == "" {
			c.deliver(NewError("", "expected {\"action\":\"join|leave\",\"roomCode\":...}"))
			continue
		}

		switch cmd.Action {
		case "join":
			hub.Subscribe(cmd.RoomCode, c)
		case "leave":
			hub.Unsubscribe(cmd.RoomCode, c)
		default:
			c.deliver(NewError(cmd.RoomCode, "unknown action: "+cmd.Action))
		}
	}
}

// WritePump flushes queued events to the socket until the client is torn
// down.
func (c *Client) WritePump() {
	defer func() {
		_ = c.conn.Close()
	}()

	for {
		select {
		case evt := <-c.send:
			if err := c.conn.WriteJSON(evt); err != nil {
				log.Printf("ws write error (client %s): %v", c.ID, err)
				return
			}
		case <-c.done:
			return
		}
	}
}

// deliver queues an event without ever blocking; a full buffer drops the
// event for this client only.
func (c *Client) deliver(evt *Event) {
	select {
	case c.send <- evt:
	case <-c.done:
	default:
		log.Printf("client %s buffer full, dropping event %s", c.ID, evt.Type)
	}
}

func (c *Client) close() {
	select {
	case <-c.done:
	default:
		close(c.done)
	}
}
