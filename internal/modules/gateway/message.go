package gateway

import (
	"context"
	"encoding/json"

	socketio "github.com/zishang520/socket.io/v2/socket"
	"go.uber.org/zap"
)

func newFrame(event string, payload interface{}, code *int) frame {
	return frame{Type: event, Data: payload, Code: code}
}

func (h *Hub) deliver(msg Message) {
	nsp := h.sio.Of(namespaceBuilder, nil)
	f := newFrame(msg.Event, msg.Payload, msg.Code)
	if msg.Room == "" {
		_ = nsp.Emit("message", f)
		return
	}
	_ = nsp.To(socketio.Room(msg.Room)).Emit("message", f)
}

// subscribeRedis delivers broadcasts published by other instances.
func (h *Hub) subscribeRedis(ctx context.Context) {
	pubsub := h.rc.Subscribe(ctx, redisChanBuilder)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return

		case redisMsg, ok := <-ch:
			if !ok {
				return
			}
			msg, ok := h.decodeRemote(redisMsg.Payload)
			if !ok {
				continue
			}
			h.deliver(msg)
		}
	}
}

// decodeRemote parses a fan-out message, dropping this instance's own.
func (h *Hub) decodeRemote(raw string) (Message, bool) {
	var msg Message
	if err := json.Unmarshal([]byte(raw), &msg); err != nil {
		h.logger.Debug("gateway: malformed fan-out message", zap.Error(err))
		return Message{}, false
	}
	if msg.Origin == h.instanceID || msg.Event == "" {
		return Message{}, false
	}
	return msg, true
}
