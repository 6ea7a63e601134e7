package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/coder/websocket"

	"github.com/mrwong99/adventure-engine/internal/session"
)

// defaultBufferCap is how many outbound messages are queued for a
// disconnected session before the oldest is dropped, per §5's "buffered up
// to a configured cap, then oldest-dropped" rule.
const defaultBufferCap = 64

// conn wraps a websocket.Conn with a write mutex: the Loop and the buffer
// flush on reconnect may both want to write, and coder/websocket requires
// writes to be serialized per connection.
type conn struct {
	mu sync.Mutex
	ws *websocket.Conn
}

func (c *conn) writeJSON(ctx context.Context, env Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("transport: marshal envelope: %w", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.Write(ctx, websocket.MessageText, data)
}

// boundSession tracks one session's live connection (nil while
// disconnected), its buffered-but-undelivered outbound messages, and
// whether a turn is currently in flight.
type boundSession struct {
	mu     sync.Mutex
	conn   *conn
	buffer []Envelope
	busy   atomic.Bool
}

func (b *boundSession) enqueue(env Envelope) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buffer = append(b.buffer, env)
	if len(b.buffer) > defaultBufferCap {
		b.buffer = b.buffer[len(b.buffer)-defaultBufferCap:]
	}
}

func (b *boundSession) drain() []Envelope {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.buffer
	b.buffer = nil
	return out
}

// Hub is the Session Channel: it accepts WebSocket connections, binds them
// to a session by session_id, and rebinds on reconnect rather than starting
// a new session. Disconnects do not destroy session state.
type Hub struct {
	registry  *session.Registry
	log       *slog.Logger
	jwtSecret string

	mu       sync.Mutex
	sessions map[string]*boundSession
}

// NewHub returns a Hub backed by registry, which resolves session_id to the
// session.Driver that runs its ReAct Loop. jwtSecret verifies the session
// token carried by each connect/reconnect; an empty secret accepts
// connections without a token, suitable for local development only.
func NewHub(registry *session.Registry, jwtSecret string, log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{registry: registry, jwtSecret: jwtSecret, log: log, sessions: make(map[string]*boundSession)}
}

// Accept upgrades r into a WebSocket connection bound to sessionID,
// flushes any outbound messages buffered while disconnected, and runs the
// read loop until the connection closes. Call this from the HTTP handler
// that owns the /sessions/{id}/channel route.
//
// The connection is rejected before the WebSocket upgrade if it carries no
// valid session token for sessionID — this is what makes a reconnect an
// authenticated rebind rather than an open hijack of another player's
// session_id.
func (h *Hub) Accept(w http.ResponseWriter, r *http.Request, sessionID string) error {
	binding, err := h.registry.MustLookup(sessionID)
	if err != nil {
		return err
	}

	if err := verifySessionToken(r, sessionID, h.jwtSecret); err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return err
	}

	ws, err := websocket.Accept(w, r, nil)
	if err != nil {
		return fmt.Errorf("transport: accept: %w", err)
	}

	h.mu.Lock()
	bs, ok := h.sessions[sessionID]
	if !ok {
		bs = &boundSession{}
		h.sessions[sessionID] = bs
	}
	h.mu.Unlock()

	c := &conn{ws: ws}
	bs.mu.Lock()
	bs.conn = c
	bs.mu.Unlock()

	ctx := r.Context()
	for _, env := range bs.drain() {
		if err := c.writeJSON(ctx, env); err != nil {
			h.log.WarnContext(ctx, "transport: failed to flush buffered message", "session_id", sessionID, "error", err)
			break
		}
	}

	defer func() {
		bs.mu.Lock()
		if bs.conn == c {
			bs.conn = nil
		}
		bs.mu.Unlock()
	}()

	h.readLoop(ctx, sessionID, ws, binding, bs)
	return nil
}

func (h *Hub) readLoop(ctx context.Context, sessionID string, ws *websocket.Conn, binding *session.Binding, bs *boundSession) {
	for {
		_, data, err := ws.Read(ctx)
		if err != nil {
			return
		}

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			h.sendError(ctx, sessionID, bs, "malformed message")
			continue
		}

		h.dispatch(ctx, sessionID, env, binding, bs)
	}
}

func (h *Hub) dispatch(ctx context.Context, sessionID string, env Envelope, binding *session.Binding, bs *boundSession) {
	switch env.Type {
	case "player_input":
		if !bs.busy.CompareAndSwap(false, true) {
			h.sendError(ctx, sessionID, bs, "busy")
			return
		}
		defer bs.busy.Store(false)

		var data PlayerInputData
		if err := json.Unmarshal(env.Data, &data); err != nil {
			h.sendError(ctx, sessionID, bs, "malformed player_input")
			return
		}
		if err := binding.Driver.HandlePlayerInput(ctx, data.Content, data.Lang); err != nil {
			h.sendError(ctx, sessionID, bs, err.Error())
		}

	case "dice_result":
		if binding.State.CurrentPhase() != session.PhaseDiceCheck {
			h.sendError(ctx, sessionID, bs, "busy")
			return
		}
		var data DiceResultData
		if err := json.Unmarshal(env.Data, &data); err != nil {
			h.sendError(ctx, sessionID, bs, "malformed dice_result")
			return
		}
		if err := binding.Driver.HandleDiceResult(ctx, session.DiceResultMsg{
			Total: data.Result, AllRolls: data.AllRolls, KeptRolls: data.KeptRolls, Outcome: data.Outcome,
		}); err != nil {
			h.sendError(ctx, sessionID, bs, err.Error())
		}

	default:
		h.sendError(ctx, sessionID, bs, fmt.Sprintf("unknown message type %q", env.Type))
	}
}

func (h *Hub) sendError(ctx context.Context, sessionID string, bs *boundSession, msg string) {
	env, err := encode("error", ErrorData{Error: msg})
	if err != nil {
		return
	}
	h.Send(ctx, sessionID, bs, env)
}

// Send delivers env to sessionID's live connection, or buffers it
// (oldest-dropped past the cap) if the session is currently disconnected.
func (h *Hub) Send(ctx context.Context, sessionID string, bs *boundSession, env Envelope) {
	bs.mu.Lock()
	c := bs.conn
	bs.mu.Unlock()

	if c == nil {
		bs.enqueue(env)
		return
	}
	if err := c.writeJSON(ctx, env); err != nil {
		h.log.WarnContext(ctx, "transport: write failed, buffering", "session_id", sessionID, "error", err)
		bs.enqueue(env)
	}
}

// binding returns the boundSession tracking object for sessionID, creating
// one if this is the first outbound message sent before any client has
// connected (e.g. a server-initiated status update).
func (h *Hub) binding(sessionID string) *boundSession {
	h.mu.Lock()
	defer h.mu.Unlock()
	bs, ok := h.sessions[sessionID]
	if !ok {
		bs = &boundSession{}
		h.sessions[sessionID] = bs
	}
	return bs
}

// Emit is the public send entrypoint used by the Coordinator: it resolves
// sessionID's boundSession internally rather than requiring callers to hold
// one themselves.
func (h *Hub) Emit(ctx context.Context, sessionID, msgType string, data any) {
	env, err := encode(msgType, data)
	if err != nil {
		h.log.ErrorContext(ctx, "transport: failed to encode outbound message", "session_id", sessionID, "type", msgType, "error", err)
		return
	}
	h.Send(ctx, sessionID, h.binding(sessionID), env)
}
