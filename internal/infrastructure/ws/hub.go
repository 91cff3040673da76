package ws

import (
	"net/http"
	"sync"

	"github.com/beatvote/beatvote/internal/domain"
	"github.com/gorilla/websocket"
)

// Hub is the fan-out broadcaster: per room code it keeps the set of live
// viewer connections and delivers published events to all of them.
// Everything here is process-local and rebuilt from zero on restart; it is
// never a source of truth for room membership history.
type Hub struct {
	mu          sync.RWMutex
	rooms       map[string]map[string]*Client  // room code -> client ID -> client
	clientRooms map[string]map[string]struct{} // client ID -> room codes

	upgrader websocket.Upgrader
}

func NewHub() *Hub {
	return &Hub{
		rooms:       make(map[string]map[string]*Client),
		clientRooms: make(map[string]map[string]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

func (h *Hub) Upgrade(w http.ResponseWriter, r *http.Request) (*websocket.Conn, error) {
	return h.upgrader.Upgrade(w, r, nil)
}

// Subscribe adds the client to the room's live set and announces the new
// viewer count to everyone in the room, the new viewer included.
func (h *Hub) Subscribe(roomCode string, c *Client) {
	roomCode = domain.NormalizeCode(roomCode)

	h.mu.Lock()
	room, ok := h.rooms[roomCode]
	if !ok {
		room = make(map[string]*Client)
		h.rooms[roomCode] = room
	}
	room[c.ID] = c

	memberships, ok := h.clientRooms[c.ID]
	if !ok {
		memberships = make(map[string]struct{})
		h.clientRooms[c.ID] = memberships
	}
	memberships[roomCode] = struct{}{}

	count := len(room)
	viewers := snapshot(room)
	h.mu.Unlock()

	broadcast(viewers, NewViewerCountUpdated(roomCode, count))
}

// Unsubscribe removes the client from one room. An emptied room's live
// entry is discarded; otherwise the remaining viewers get a count update.
func (h *Hub) Unsubscribe(roomCode string, c *Client) {
	roomCode = domain.NormalizeCode(roomCode)

	h.mu.Lock()
	viewers, count := h.removeLocked(roomCode, c)
	h.mu.Unlock()

	if viewers != nil {
		broadcast(viewers, NewViewerCountUpdated(roomCode, count))
	}
}

// UnsubscribeAll detaches the client from every room it was viewing, used
// on abrupt disconnection. After it returns no further event can reach the
// client.
func (h *Hub) UnsubscribeAll(c *Client) {
	h.mu.Lock()
	type update struct {
		roomCode string
		viewers  []*Client
		count    int
	}
	var updates []update
	for roomCode := range h.clientRooms[c.ID] {
		if viewers, count := h.removeLocked(roomCode, c); viewers != nil {
			updates = append(updates, update{roomCode, viewers, count})
		}
	}
	delete(h.clientRooms, c.ID)
	h.mu.Unlock()

	c.close()

	for _, u := range updates {
		broadcast(u.viewers, NewViewerCountUpdated(u.roomCode, u.count))
	}
}

// Publish delivers the event to every viewer currently subscribed to the
// room. Delivery is fire-and-forget: a slow or gone viewer never blocks or
// fails the publish for the others.
func (h *Hub) Publish(roomCode string, evt *Event) {
	roomCode = domain.NormalizeCode(roomCode)

	h.mu.RLock()
	viewers := snapshot(h.rooms[roomCode])
	h.mu.RUnlock()

	broadcast(viewers, evt)
}

// ViewerCount reports the live viewer count of a room. Zero for rooms with
// no viewers, including rooms that don't exist.
func (h *Hub) ViewerCount(roomCode string) int {
	roomCode = domain.NormalizeCode(roomCode)

	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomCode])
}

// removeLocked drops the client from one room under h.mu and returns the
// remaining viewers plus their count, or nil if nothing changed.
func (h *Hub) removeLocked(roomCode string, c *Client) ([]*Client, int) {
	room, ok := h.rooms[roomCode]
	if !ok {
		return nil, 0
	}
	if _, ok := room[c.ID]; !ok {
		return nil, 0
	}

	delete(room, c.ID)
	if memberships, ok := h.clientRooms[c.ID]; ok {
		delete(memberships, roomCode)
	}

	if len(room) == 0 {
		delete(h.rooms, roomCode)
		return []*Client{}, 0
	}

	return snapshot(room), len(room)
}

func snapshot(room map[string]*Client) []*Client {
	if room == nil {
		return nil
	}
	viewers := make([]*Client, 0, len(room))
	for _, c := range room {
		viewers = append(viewers, c)
	}
	return viewers
}

func broadcast(viewers []*Client, evt *Event) {
	for _, c := range viewers {
		c.deliver(evt)
	}
}
