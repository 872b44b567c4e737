package ws

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/visualjsx/studio/backend/internal/bridge"
	"github.com/visualjsx/studio/backend/internal/compiler"
	"github.com/visualjsx/studio/backend/internal/domain/component"
	"github.com/visualjsx/studio/backend/internal/domain/session"
	"github.com/visualjsx/studio/backend/internal/infrastructure/logging"
	"github.com/visualjsx/studio/backend/internal/infrastructure/monitoring"
	"github.com/visualjsx/studio/backend/internal/serializer"
	"github.com/visualjsx/studio/backend/internal/surface"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS is enforced at the HTTP layer
	},
}

// Config tunes per-connection editor wiring.
type Config struct {
	SurfaceWidth     int
	Debounce         time.Duration
	SerializeTimeout time.Duration
}

// Handler manages editor WebSocket connections. Every connection gets
// its own session, rendering surface, and bridge; nothing is shared
// between editors except the component store.
type Handler struct {
	cfg      Config
	store    *component.Store
	compiler *compiler.Compiler
	logger   *logging.Logger
	metrics  *monitoring.Metrics
}

// NewHandler creates a WebSocket handler.
func NewHandler(cfg Config, store *component.Store, c *compiler.Compiler, logger *logging.Logger) *Handler {
	return &Handler{
		cfg:      cfg,
		store:    store,
		compiler: c,
		logger:   logger.Named("ws"),
	}
}

// WithMetrics attaches a metrics collector.
func (h *Handler) WithMetrics(m *monitoring.Metrics) *Handler {
	h.metrics = m
	return h
}

// clientMessage is the inbound editor command envelope.
type clientMessage struct {
	Type  string            `json:"type"`
	Code  string            `json:"code,omitempty"`
	X     float64           `json:"x,omitempty"`
	Y     float64           `json:"y,omitempty"`
	RID   string            `json:"rid,omitempty"`
	Text  *string           `json:"text,omitempty"`
	Style map[string]string `json:"style,omitempty"`
	Tab   string            `json:"tab,omitempty"`
}

// editorConn serializes writes to one websocket connection.
type editorConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (e *editorConn) send(v interface{}) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.conn.WriteJSON(v)
}

// HandleConnection upgrades the request and runs one editor session.
// The optional ?component=<id> query hydrates from a persisted record.
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	if h.metrics != nil {
		h.metrics.WSConnections.Inc()
		defer h.metrics.WSConnections.Dec()
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	ec := &editorConn{conn: conn}

	srf := surface.New(surface.Config{Width: h.cfg.SurfaceWidth}, h.compiler, h.logger)
	if h.metrics != nil {
		srf.WithMetrics(h.metrics)
	}

	sess := session.New(session.Config{
		Debounce: h.cfg.Debounce,
		OnSaved: func(rec *component.Record) {
			h.emit(ec, gin.H{"type": "saved", "id": rec.ID, "updatedAt": rec.UpdatedAt})
		},
	}, h.store, h.logger)
	defer func() {
		sess.Flush()
		sess.Close()
	}()

	br := bridge.New(bridge.Config{
		SurfaceID:        srf.ID(),
		SerializeTimeout: h.cfg.SerializeTimeout,
	}, srf.Send, h.logger)
	if h.metrics != nil {
		br.WithMetrics(h.metrics)
	}
	br.OnSelect(func(ev *bridge.SelectEvent) {
		sess.Select(ev)
		h.emit(ec, ev)
	})
	br.OnError(func(message string) {
		h.emit(ec, gin.H{"type": "error", "message": message})
	})

	go srf.Run(ctx)
	go h.pump(ctx, srf, br)

	h.emit(ec, gin.H{"type": "ready", "surface": srf.ID(), "label": sess.Label()})

	if id := c.Query("component"); id != "" {
		h.hydrate(ctx, ec, sess, srf, id)
	}

	for {
		var msg clientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("WebSocket read error", zap.Error(err))
			}
			return
		}
		h.countMessage(msg.Type, "in")

		switch msg.Type {
		case "code":
			h.handleCode(ec, sess, srf, msg.Code)
		case "click":
			srf.Click(msg.X, msg.Y)
		case "mutate":
			br.Mutate(msg.RID, msg.Text, msg.Style)
		case "serialize":
			go h.handleSerialize(ctx, ec, sess, br)
		case "tab":
			sess.SetActiveTab(session.Tab(msg.Tab))
		case "ping":
			h.emit(ec, gin.H{"type": "pong"})
		default:
			h.emit(ec, gin.H{"type": "error", "message": "unknown message type"})
		}
	}
}

// hydrate loads a persisted record and renders it.
func (h *Handler) hydrate(ctx context.Context, ec *editorConn, sess *session.Session, srf *surface.Surface, id string) {
	if err := sess.Hydrate(ctx, id); err != nil {
		h.emit(ec, gin.H{"type": "error", "message": "failed to load component: " + err.Error()})
		return
	}
	code := sess.CustomCode()
	h.emit(ec, gin.H{"type": "code", "code": code, "label": sess.Label()})
	if err := srf.Render(code); err != nil {
		h.emit(ec, gin.H{"type": "error", "message": err.Error()})
	}
}

// handleCode re-renders from a fresh source buffer. The old surface
// tree and its identifiers are gone after this, so the selection is
// cleared unconditionally.
func (h *Handler) handleCode(ec *editorConn, sess *session.Session, srf *surface.Surface, code string) {
	sess.SetCode(code)
	sess.ClearSelection()

	if err := srf.Render(code); err != nil {
		h.emit(ec, gin.H{"type": "error", "message": err.Error()})
		return
	}
	h.emit(ec, gin.H{"type": "rendered", "label": sess.Label()})
}

// handleSerialize asks the surface for its markup, converts it to JSX,
// and folds the result into the session's derived buffer.
func (h *Handler) handleSerialize(ctx context.Context, ec *editorConn, sess *session.Session, br *bridge.Bridge) {
	markup, err := br.Serialize(ctx)
	if err != nil {
		h.emit(ec, gin.H{"type": "error", "message": err.Error()})
		return
	}

	jsx, err := serializer.Serialize(markup)
	if err != nil {
		h.emit(ec, gin.H{"type": "error", "message": err.Error()})
		return
	}

	sess.SetGeneratedJSX(jsx)
	h.emit(ec, gin.H{"type": "jsx", "jsx": jsx, "label": sess.Label()})
}

// pump forwards surface events to the bridge until the session ends.
func (h *Handler) pump(ctx context.Context, srf *surface.Surface, br *bridge.Bridge) {
	for {
		select {
		case <-ctx.Done():
			return
		case raw := <-srf.Events():
			br.HandleMessage(raw)
		}
	}
}

func (h *Handler) emit(ec *editorConn, v interface{}) {
	if err := ec.send(v); err != nil {
		h.logger.Debug("WebSocket write failed", zap.Error(err))
		return
	}
	if m, ok := v.(gin.H); ok {
		if t, ok := m["type"].(string); ok {
			h.countMessage(t, "out")
		}
	}
}

func (h *Handler) countMessage(msgType, direction string) {
	if h.metrics == nil || msgType == "" {
		return
	}
	h.metrics.WSMessages.WithLabelValues(msgType, direction).Inc()
}
