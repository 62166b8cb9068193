package gateway

import (
	"context"
	"sync"

	"github.com/mx-space/fieldkit/internal/modules/schema/editor"
	pkgredis "github.com/mx-space/fieldkit/internal/pkg/redis"
	socketio "github.com/zishang520/socket.io/v2/socket"
	"go.uber.org/zap"
)

const (
	namespaceBuilder = "/builder"
	redisChanBuilder = "fieldkit:gateway:builder"
	roomPrefix       = "session:"
)

// Inbound message types.
const (
	messageJoin  = "join"
	messageLeave = "leave"
	messageInput = "input"
)

// Outbound events addressed to one client.
const (
	EventConnect     = "GATEWAY_CONNECT"
	EventJoined      = "BUILDER_JOINED"
	EventInputResult = "BUILDER_INPUT_RESULT"
	EventError       = "BUILDER_ERROR"
)

// Message is the envelope used by hub broadcasts and Redis fan-out.
type Message struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload"`
	Code    *int        `json:"code,omitempty"`
	Room    string      `json:"room,omitempty"`
	// Origin is the publishing instance; it skips its own echo.
	Origin string `json:"origin,omitempty"`
}

// frame is what clients receive on the "message" event.
type frame struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
	Code *int        `json:"code,omitempty"`
}

type errorData struct {
	SessionID string `json:"sessionId,omitempty"`
	Message   string `json:"message"`
}

type joinedData struct {
	SessionID string      `json:"sessionId"`
	View      editor.View `json:"view"`
}

type clientMeta struct {
	sid string
}

// Sessions is the editor API the gateway drives.
type Sessions interface {
	View(ctx context.Context, id string) (editor.View, error)
	Input(ctx context.Context, id string, in editor.Input) (editor.InputResult, error)
}

// Hub manages the builder namespace and cluster fan-out.
type Hub struct {
	mu sync.RWMutex

	// sidRooms holds the session rooms each connected client has joined.
	sidRooms  map[string]map[string]struct{}
	roomCount map[string]int

	broadcast  chan Message
	register   chan clientMeta
	unregister chan clientMeta
	// done is closed when Run returns.
	done chan struct{}

	instanceID string
	rc         *pkgredis.Client
	logger     *zap.Logger
	sio        *socketio.Server
	sessions   Sessions
}
