package gateway

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	pkgredis "github.com/mx-space/fieldkit/internal/pkg/redis"
	socketio "github.com/zishang520/socket.io/v2/socket"
	"go.uber.org/zap"
)

// NewHub builds the socket.io server. rc may be nil on a single instance.
func NewHub(rc *pkgredis.Client, logger *zap.Logger, sessions Sessions) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Hub{
		sidRooms:   make(map[string]map[string]struct{}),
		roomCount:  make(map[string]int),
		broadcast:  make(chan Message, 256),
		register:   make(chan clientMeta, 256),
		unregister: make(chan clientMeta, 256),
		done:       make(chan struct{}),
		instanceID: uuid.New().String(),
		rc:         rc,
		logger:     logger,
		sio:        socketio.NewServer(nil, nil),
		sessions:   sessions,
	}
	h.registerNamespaces()
	return h
}

// Run starts the hub loop and Redis subscriber.
func (h *Hub) Run(ctx context.Context) {
	if h.rc != nil {
		go h.subscribeRedis(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.sio.Close(nil)
			return

		case c := <-h.register:
			h.registerClient(c)

		case c := <-h.unregister:
			h.unregisterClient(c)

		case msg := <-h.broadcast:
			h.deliver(msg)
			h.publish(ctx, msg)
		}
	}
}

func (h *Hub) publish(ctx context.Context, msg Message) {
	if h.rc == nil {
		return
	}
	msg.Origin = h.instanceID
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Warn("gateway encode failed", zap.String("event", msg.Event), zap.Error(err))
		return
	}
	if err := h.rc.Publish(ctx, redisChanBuilder, string(data)); err != nil {
		h.logger.Warn("gateway publish failed", zap.String("channel", redisChanBuilder), zap.Error(err))
	}
}

// enqueue hands c to the loop, or drops it once Run has returned.
func (h *Hub) enqueue(ch chan<- clientMeta, c clientMeta) {
	select {
	case ch <- c:
	case <-h.done:
	}
}

func (h *Hub) registerClient(c clientMeta) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.sidRooms[c.sid]; !ok {
		h.sidRooms[c.sid] = make(map[string]struct{})
	}
}

func (h *Hub) unregisterClient(c clientMeta) {
	h.mu.Lock()
	defer h.mu.Unlock()

	rooms, ok := h.sidRooms[c.sid]
	if !ok {
		return
	}
	for room := range rooms {
		h.decRoom(room)
	}
	delete(h.sidRooms, c.sid)
}

// joinRoom records sid in room and reports whether it was new.
func (h *Hub) joinRoom(sid, room string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	rooms, ok := h.sidRooms[sid]
	if !ok {
		rooms = make(map[string]struct{})
		h.sidRooms[sid] = rooms
	}
	if _, joined := rooms[room]; joined {
		return false
	}
	rooms[room] = struct{}{}
	h.roomCount[room]++
	return true
}

func (h *Hub) leaveRoom(sid, room string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	rooms, ok := h.sidRooms[sid]
	if !ok {
		return false
	}
	if _, joined := rooms[room]; !joined {
		return false
	}
	delete(rooms, room)
	h.decRoom(room)
	return true
}

func (h *Hub) decRoom(room string) {
	if h.roomCount[room] <= 1 {
		delete(h.roomCount, room)
		return
	}
	h.roomCount[room]--
}

// Broadcast queues an event for every client in room, or the whole
// namespace when room is empty. It never blocks; a full queue drops the
// event.
func (h *Hub) Broadcast(event string, payload interface{}, room string) {
	select {
	case h.broadcast <- Message{Event: event, Payload: payload, Room: room}:
	default:
		h.logger.Warn("gateway broadcast queue full, event dropped", zap.String("event", event), zap.String("room", room))
	}
}

// BroadcastSession sends to the clients watching one builder session.
func (h *Hub) BroadcastSession(sessionID, event string, payload interface{}) {
	h.Broadcast(event, payload, roomFor(sessionID))
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sidRooms)
}

// Watchers returns how many clients joined a session's room.
func (h *Hub) Watchers(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.roomCount[roomFor(sessionID)]
}

// SessionCount returns how many sessions have at least one watcher.
func (h *Hub) SessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.roomCount)
}

// Handler returns the socket.io HTTP handler mounted at /socket.io.
func (h *Hub) Handler() http.Handler {
	return h.sio.ServeHandler(nil)
}

func roomFor(sessionID string) string { return roomPrefix + sessionID }
