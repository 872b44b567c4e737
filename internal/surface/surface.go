package surface

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/visualjsx/studio/backend/internal/bridge"
	"github.com/visualjsx/studio/backend/internal/compiler"
	"github.com/visualjsx/studio/backend/internal/infrastructure/logging"
	"github.com/visualjsx/studio/backend/internal/infrastructure/monitoring"
)

// ErrInboxFull indicates the surface cannot keep up with commands.
var ErrInboxFull = errors.New("surface inbox full")

// Config tunes one surface instance.
type Config struct {
	ID          string
	Width       int
	ExecTimeout time.Duration
}

// Surface is the isolated rendering context. It owns a live element
// tree built from compiled component code and communicates with the
// controller exclusively through bridge messages. The whole tree is
// discarded and rebuilt on every render, which doubles as the recovery
// path for any surface-side corruption.
type Surface struct {
	cfg       Config
	compiler  *compiler.Compiler
	logger    *logging.Logger
	metrics   *monitoring.Metrics
	sanitizer *bluemonday.Policy

	inbox  chan []byte
	outbox chan []byte

	mu             sync.Mutex
	root           *html.Node
	overlay        Rect
	overlayVisible bool
}

// New creates a surface with an empty root container.
func New(cfg Config, c *compiler.Compiler, logger *logging.Logger) *Surface {
	if cfg.ID == "" {
		cfg.ID = "srf_" + strings.ToLower(ulid.Make().String())
	}
	if cfg.Width <= 0 {
		cfg.Width = 800
	}
	if cfg.ExecTimeout <= 0 {
		cfg.ExecTimeout = 5 * time.Second
	}

	sanitizer := bluemonday.UGCPolicy()
	sanitizer.AllowAttrs("style", "class").Globally()

	return &Surface{
		cfg:       cfg,
		compiler:  c,
		logger:    logger.Named("surface"),
		sanitizer: sanitizer,
		inbox:     make(chan []byte, 64),
		outbox:    make(chan []byte, 64),
		root:      newRootContainer(),
	}
}

// WithMetrics attaches a metrics collector.
func (s *Surface) WithMetrics(m *monitoring.Metrics) *Surface {
	s.metrics = m
	return s
}

// ID returns the surface instance identifier stamped on every event.
func (s *Surface) ID() string {
	return s.cfg.ID
}

// Send enqueues one encoded command for the surface.
func (s *Surface) Send(raw []byte) error {
	select {
	case s.inbox <- raw:
		return nil
	default:
		return ErrInboxFull
	}
}

// Events exposes the surface's outbound message stream.
func (s *Surface) Events() <-chan []byte {
	return s.outbox
}

// Run services inbound commands until the context ends. This goroutine
// is the only writer of the live tree while running.
func (s *Surface) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case raw := <-s.inbox:
			s.dispatch(raw)
		}
	}
}

// dispatch handles one raw command. Unknown shapes and commands for
// other surface instances are dropped, never errors.
func (s *Surface) dispatch(raw []byte) {
	msg, err := bridge.Decode(raw)
	if err != nil {
		s.logger.Debug("Dropping undecodable command", zap.Error(err))
		return
	}

	switch m := msg.(type) {
	case *bridge.MutateCommand:
		if !s.addressedToMe(m.Surface) {
			return
		}
		s.ApplyMutation(m.RID, m.Text, m.Style)
	case *bridge.SerializeCommand:
		if !s.addressedToMe(m.Surface) {
			return
		}
		htmlText, err := s.InnerHTML()
		if err != nil {
			s.emit(&bridge.ErrorEvent{Type: bridge.TypeError, Surface: s.cfg.ID, Message: err.Error()})
			return
		}
		s.emit(&bridge.SerializedEvent{Type: bridge.TypeSerialized, Surface: s.cfg.ID, HTML: htmlText})
	default:
		s.logger.Debug("Dropping unexpected message on surface side")
	}
}

func (s *Surface) addressedToMe(target string) bool {
	return target == "" || target == s.cfg.ID
}

// Render compiles and executes component source, replacing the whole
// tree. Prior element identifiers do not survive: they belong to the
// discarded instance.
func (s *Surface) Render(source string) error {
	start := time.Now()

	compiled, err := s.compiler.Compile(source)
	if err != nil {
		s.countRenderError()
		return err
	}

	rootElem, err := s.execute(compiled.Code)
	if err != nil {
		s.countRenderError()
		return err
	}

	s.mu.Lock()
	s.root = newRootContainer()
	s.root.AppendChild(rootElem)
	s.overlayVisible = false
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.SurfaceRenders.Inc()
		s.metrics.RenderDuration.Observe(time.Since(start).Seconds())
	}
	return nil
}

func (s *Surface) countRenderError() {
	if s.metrics != nil {
		s.metrics.SurfaceErrors.Inc()
	}
}

// InnerHTML renders the current markup of the root container.
func (s *Surface) InnerHTML() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var b strings.Builder
	for c := s.root.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&b, c); err != nil {
			return "", err
		}
	}
	return b.String(), nil
}

// Overlay returns the highlight frame and whether it is shown.
func (s *Surface) Overlay() (Rect, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.overlay, s.overlayVisible
}

// highlight repositions the overlay frame over an element. The overlay
// is not part of the tree, so it can never become a selection target.
func (s *Surface) highlight(n *html.Node) {
	pass := layout(s.root, float64(s.cfg.Width))
	if r, ok := pass.rectOf(n); ok {
		s.overlay = r
		s.overlayVisible = true
	}
}

// emit pushes one event outward, dropping on backpressure: surface
// events are best-effort signals, not durable state.
func (s *Surface) emit(msg interface{}) {
	raw, err := bridge.Encode(msg)
	if err != nil {
		s.logger.Warn("Failed to encode surface event", zap.Error(err))
		return
	}
	select {
	case s.outbox <- raw:
	default:
		s.logger.Warn("Dropping surface event: outbox full")
	}
}

func newRootContainer() *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
		Attr:     []html.Attribute{{Key: "id", Val: "root"}},
	}
}
