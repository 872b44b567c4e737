package bridge

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/visualjsx/studio/backend/internal/infrastructure/logging"
	"github.com/visualjsx/studio/backend/internal/infrastructure/monitoring"
)

// DefaultSerializeTimeout bounds one serialize round-trip.
const DefaultSerializeTimeout = 3 * time.Second

// ErrSerializeTimeout indicates no serialized/error response arrived in time.
var ErrSerializeTimeout = errors.New("serialization timeout")

// Sender delivers an encoded payload to the rendering surface.
type Sender func(raw []byte) error

// Config tunes a bridge instance.
type Config struct {
	SurfaceID        string
	SerializeTimeout time.Duration
}

// Bridge is the controller end of the message channel to one rendering
// surface instance. Mutate commands are fire-and-forget; serialize
// requests are correlated through a single pending slot.
type Bridge struct {
	cfg      Config
	send     Sender
	logger   *logging.Logger
	metrics  *monitoring.Metrics
	onSelect func(*SelectEvent)
	onError  func(string)

	mu      sync.Mutex
	pending *pendingSerialize
}

type serializeOutcome struct {
	html string
	err  error
}

type pendingSerialize struct {
	result chan serializeOutcome
	timer  *time.Timer
	issued time.Time
}

// New creates a bridge that delivers commands through send.
func New(cfg Config, send Sender, logger *logging.Logger) *Bridge {
	if cfg.SerializeTimeout <= 0 {
		cfg.SerializeTimeout = DefaultSerializeTimeout
	}
	return &Bridge{
		cfg:    cfg,
		send:   send,
		logger: logger.Named("bridge"),
	}
}

// WithMetrics attaches a metrics collector.
func (b *Bridge) WithMetrics(m *monitoring.Metrics) *Bridge {
	b.metrics = m
	return b
}

// OnSelect registers the selection event callback.
func (b *Bridge) OnSelect(fn func(*SelectEvent)) {
	b.onSelect = fn
}

// OnError registers the surface error callback. Errors that answer a
// pending serialize request reject that request as well.
func (b *Bridge) OnError(fn func(string)) {
	b.onError = fn
}

// Mutate sends a mutate command. Failures are logged, never returned:
// the live preview is best-effort and the inspector keeps its own model.
func (b *Bridge) Mutate(rid string, text *string, style map[string]string) {
	raw, err := Encode(&MutateCommand{
		Type:    TypeMutate,
		Surface: b.cfg.SurfaceID,
		RID:     rid,
		Text:    text,
		Style:   style,
	})
	if err != nil {
		b.logger.Warn("Failed to encode mutate", zap.Error(err))
		return
	}
	if err := b.send(raw); err != nil {
		b.logger.Warn("Failed to send mutate", zap.String("rid", rid), zap.Error(err))
	}
}

// Serialize requests the surface's current markup and waits for the
// response. Issuing a new request while one is pending abandons the
// prior one: its timer is cancelled and its caller never hears back.
func (b *Bridge) Serialize(ctx context.Context) (string, error) {
	p := &pendingSerialize{
		result: make(chan serializeOutcome, 1),
		issued: time.Now(),
	}

	b.mu.Lock()
	if prior := b.pending; prior != nil {
		prior.timer.Stop()
	}
	p.timer = time.AfterFunc(b.cfg.SerializeTimeout, func() {
		b.expire(p)
	})
	b.pending = p
	b.mu.Unlock()

	if b.metrics != nil {
		b.metrics.SerializeRequests.Inc()
	}

	raw, err := Encode(&SerializeCommand{Type: TypeSerialize, Surface: b.cfg.SurfaceID})
	if err != nil {
		b.clear(p)
		return "", err
	}
	if err := b.send(raw); err != nil {
		b.clear(p)
		return "", fmt.Errorf("failed to reach surface: %w", err)
	}

	select {
	case out := <-p.result:
		if out.err == nil && b.metrics != nil {
			b.metrics.SerializeDuration.Observe(time.Since(p.issued).Seconds())
		}
		return out.html, out.err
	case <-ctx.Done():
		b.clear(p)
		return "", ctx.Err()
	}
}

// HandleMessage dispatches one raw payload from the surface. Unknown
// discriminants and payloads from other surface instances are dropped.
func (b *Bridge) HandleMessage(raw []byte) {
	msg, err := Decode(raw)
	if err != nil {
		b.logger.Debug("Dropping undecodable message", zap.Error(err))
		return
	}

	switch m := msg.(type) {
	case *SelectEvent:
		if !b.fromOwnSurface(m.Surface) {
			return
		}
		if b.onSelect != nil {
			b.onSelect(m)
		}
	case *SerializedEvent:
		if !b.fromOwnSurface(m.Surface) {
			return
		}
		b.settle(serializeOutcome{html: m.HTML})
	case *ErrorEvent:
		if !b.fromOwnSurface(m.Surface) {
			return
		}
		b.settle(serializeOutcome{err: errors.New(m.Message)})
		if b.onError != nil {
			b.onError(m.Message)
		}
	default:
		// Commands travel controller -> surface only.
		b.logger.Debug("Dropping unexpected message on controller side")
	}
}

func (b *Bridge) fromOwnSurface(origin string) bool {
	if origin == "" || b.cfg.SurfaceID == "" {
		return true
	}
	return origin == b.cfg.SurfaceID
}

// settle resolves or rejects the pending request, if any.
func (b *Bridge) settle(out serializeOutcome) {
	b.mu.Lock()
	p := b.pending
	if p != nil {
		p.timer.Stop()
		b.pending = nil
	}
	b.mu.Unlock()

	if p == nil {
		return
	}
	p.result <- out
}

// expire fires on timeout. Only the still-current slot is rejected;
// an abandoned request's timer was already stopped.
func (b *Bridge) expire(p *pendingSerialize) {
	b.mu.Lock()
	if b.pending != p {
		b.mu.Unlock()
		return
	}
	b.pending = nil
	b.mu.Unlock()

	if b.metrics != nil {
		b.metrics.SerializeTimeouts.Inc()
	}
	p.result <- serializeOutcome{err: ErrSerializeTimeout}
}

// clear removes p from the slot without settling it.
func (b *Bridge) clear(p *pendingSerialize) {
	b.mu.Lock()
	if b.pending == p {
		b.pending = nil
	}
	b.mu.Unlock()
	p.timer.Stop()
}

// HasPending reports whether a serialize request is outstanding.
func (b *Bridge) HasPending() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pending != nil
}
