package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/mx-space/fieldkit/internal/modules/schema/builder"
	"github.com/mx-space/fieldkit/internal/modules/schema/contenttype"
	"github.com/mx-space/fieldkit/internal/modules/schema/editor"
	socketio "github.com/zishang520/socket.io/v2/socket"
	"go.uber.org/zap"
)

const messageTimeout = 10 * time.Second

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type sessionRef struct {
	SessionID string `json:"sessionId"`
}

type inputPayload struct {
	SessionID string `json:"sessionId"`
	editor.Input
}

// reply is what handling one inbound message asks of the socket.
type reply struct {
	join  string
	leave string
	frame *frame
}

func (h *Hub) registerNamespaces() {
	nsp := h.sio.Of(namespaceBuilder, nil)
	_ = nsp.On("connection", func(args ...any) {
		client, ok := args[0].(*socketio.Socket)
		if !ok {
			return
		}
		sid := string(client.Id())
		h.enqueue(h.register, clientMeta{sid: sid})
		_ = client.Emit("message", newFrame(EventConnect, "WebSocket connected", nil))

		_ = client.On("message", func(eventArgs ...any) {
			msg, ok := parseInbound(eventArgs...)
			if !ok {
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), messageTimeout)
			r := h.handleMessage(ctx, sid, msg)
			cancel()

			if r.join != "" {
				client.Join(socketio.Room(r.join))
			}
			if r.leave != "" {
				client.Leave(socketio.Room(r.leave))
			}
			if r.frame != nil {
				_ = client.Emit("message", *r.frame)
			}
		})

		_ = client.On("disconnect", func(_ ...any) {
			h.enqueue(h.unregister, clientMeta{sid: sid})
		})
	})
}

func (h *Hub) handleMessage(ctx context.Context, sid string, msg inboundMessage) reply {
	switch msg.Type {
	case messageJoin:
		var ref sessionRef
		if !decodePayload(msg.Payload, &ref) {
			return errorReply("", "sessionId is required", http.StatusBadRequest)
		}
		view, err := h.sessions.View(ctx, ref.SessionID)
		if err != nil {
			return h.failure(ref.SessionID, err)
		}
		room := roomFor(ref.SessionID)
		h.joinRoom(sid, room)
		f := newFrame(EventJoined, joinedData{SessionID: ref.SessionID, View: view}, nil)
		return reply{join: room, frame: &f}

	case messageLeave:
		var ref sessionRef
		if !decodePayload(msg.Payload, &ref) {
			return reply{}
		}
		room := roomFor(ref.SessionID)
		if !h.leaveRoom(sid, room) {
			return reply{}
		}
		return reply{leave: room}

	case messageInput:
		var in inputPayload
		if !decodePayload(msg.Payload, &in) {
			return errorReply("", "sessionId is required", http.StatusBadRequest)
		}
		res, err := h.sessions.Input(ctx, in.SessionID, in.Input)
		if err != nil {
			return h.failure(in.SessionID, err)
		}
		f := newFrame(EventInputResult, res, nil)
		return reply{frame: &f}

	default:
		return errorReply("", "unknown message type "+msg.Type, http.StatusBadRequest)
	}
}

func (h *Hub) failure(sessionID string, err error) reply {
	code := errorCode(err)
	if code >= http.StatusInternalServerError {
		h.logger.Error("gateway message failed", zap.String("session", sessionID), zap.Error(err))
	}
	return errorReply(sessionID, err.Error(), code)
}

func errorReply(sessionID, message string, code int) reply {
	f := newFrame(EventError, errorData{SessionID: sessionID, Message: message}, &code)
	return reply{frame: &f}
}

func errorCode(err error) int {
	switch {
	case errors.Is(err, editor.ErrSessionNotFound), errors.Is(err, editor.ErrFieldNotFound),
		errors.Is(err, contenttype.ErrContentTypeNotFound):
		return http.StatusNotFound
	case errors.Is(err, editor.ErrFieldBusy):
		return http.StatusConflict
	case errors.Is(err, editor.ErrInvalidInput), errors.Is(err, builder.ErrUnknownKind):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// decodePayload fills v and requires a session id.
func decodePayload(raw json.RawMessage, v interface{}) bool {
	if len(raw) == 0 {
		return false
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false
	}
	switch p := v.(type) {
	case *sessionRef:
		p.SessionID = strings.TrimSpace(p.SessionID)
		return p.SessionID != ""
	case *inputPayload:
		p.SessionID = strings.TrimSpace(p.SessionID)
		return p.SessionID != ""
	}
	return true
}

// parseInbound accepts the shapes socket.io clients send: a decoded object,
// a JSON string or raw bytes.
func parseInbound(args ...any) (inboundMessage, bool) {
	if len(args) == 0 || args[0] == nil {
		return inboundMessage{}, false
	}

	var data []byte
	switch raw := args[0].(type) {
	case string:
		data = []byte(raw)
	case []byte:
		data = raw
	default:
		encoded, err := json.Marshal(raw)
		if err != nil {
			return inboundMessage{}, false
		}
		data = encoded
	}

	var msg inboundMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return inboundMessage{}, false
	}
	msg.Type = strings.TrimSpace(msg.Type)
	if msg.Type == "" {
		return inboundMessage{}, false
	}
	return msg, true
}
