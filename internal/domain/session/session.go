package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/visualjsx/studio/backend/internal/bridge"
	"github.com/visualjsx/studio/backend/internal/domain/component"
	"github.com/visualjsx/studio/backend/internal/infrastructure/logging"
)

// SaveStatus tracks the autosave lifecycle of a session.
type SaveStatus string

const (
	StatusIdle   SaveStatus = "idle"
	StatusSaving SaveStatus = "saving"
	StatusError  SaveStatus = "error"
)

// Tab is the active editor view.
type Tab string

const (
	TabPreview Tab = "preview"
	TabCode    Tab = "code"
)

// Persister is the slice of the component store a session needs.
type Persister interface {
	Create(ctx context.Context, code string) (*component.Record, error)
	Get(ctx context.Context, id string) (*component.Record, error)
	Update(ctx context.Context, id, code string) (*component.Record, error)
}

// Config tunes one session instance.
type Config struct {
	Debounce time.Duration

	// OnSaved fires after each successful persist, outside the session
	// lock. Optional.
	OnSaved func(rec *component.Record)
	// OnStatus fires on every save-status transition, outside the
	// session lock. Optional.
	OnStatus func(status SaveStatus)
}

// Session owns the editor's working state: the raw source buffer, the
// derived markup-as-source buffer, and the autosave machinery between
// them and the component store. One session per connected editor;
// in-memory only, discarded when the editor leaves.
type Session struct {
	cfg    Config
	store  Persister
	logger *logging.Logger

	mu           sync.Mutex
	componentID  string
	customCode   string
	generatedJSX string
	lastSaved    string
	status       SaveStatus
	activeTab    Tab
	selection    *bridge.SelectEvent
	loadErr      error
	hydrated     bool

	timer    *time.Timer
	inflight *saveAttempt
}

// saveAttempt identifies one in-flight persist so a finished attempt
// can never cancel a newer one.
type saveAttempt struct {
	cancel context.CancelFunc
}

// New creates an idle session bound to a store.
func New(cfg Config, store Persister, logger *logging.Logger) *Session {
	if cfg.Debounce <= 0 {
		cfg.Debounce = 700 * time.Millisecond
	}
	return &Session{
		cfg:       cfg,
		store:     store,
		logger:    logger.Named("session"),
		status:    StatusIdle,
		activeTab: TabPreview,
	}
}

// Hydrate loads a persisted record into the session. It runs at most
// once per session; a load failure is recorded and never retried.
func (s *Session) Hydrate(ctx context.Context, id string) error {
	s.mu.Lock()
	if s.hydrated {
		s.mu.Unlock()
		return nil
	}
	s.hydrated = true
	s.mu.Unlock()

	rec, err := s.store.Get(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.loadErr = err
		s.logger.Warn("Failed to hydrate session", zap.String("component_id", id), zap.Error(err))
		return err
	}
	s.componentID = rec.ID
	s.customCode = rec.Code
	s.lastSaved = rec.Code
	return nil
}

// SetCode replaces the raw source buffer and schedules autosave.
func (s *Session) SetCode(code string) {
	s.mu.Lock()
	s.customCode = code
	s.scheduleLocked()
	s.mu.Unlock()
}

// SetGeneratedJSX replaces the derived buffer and schedules autosave.
// The derived text takes priority over the raw buffer when persisting.
func (s *Session) SetGeneratedJSX(jsx string) {
	s.mu.Lock()
	s.generatedJSX = jsx
	s.scheduleLocked()
	s.mu.Unlock()
}

// scheduleLocked restarts the debounce window. Any in-flight persist is
// cancelled; its response would be stale by definition.
func (s *Session) scheduleLocked() {
	if s.inflight != nil {
		s.inflight.cancel()
		s.inflight = nil
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.cfg.Debounce, s.persist)
}

// payloadLocked computes the single desired save payload: the derived
// text when present, else the raw source buffer.
func (s *Session) payloadLocked() string {
	if s.generatedJSX != "" {
		return s.generatedJSX
	}
	return s.customCode
}

// persist runs once per quiet debounce window.
func (s *Session) persist() {
	s.mu.Lock()
	payload := s.payloadLocked()
	if payload == "" || payload == s.lastSaved {
		// Nothing to do: an abandoned "saving" from a cancelled cycle
		// must not stick.
		if s.status == StatusSaving && s.inflight == nil {
			s.setStatusLocked(StatusIdle)
		}
		s.mu.Unlock()
		return
	}
	fromGenerated := payload == s.generatedJSX && s.generatedJSX != ""
	id := s.componentID

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	attempt := &saveAttempt{cancel: cancel}
	s.inflight = attempt
	s.setStatusLocked(StatusSaving)
	s.mu.Unlock()

	var (
		rec *component.Record
		err error
	)
	if id == "" {
		rec, err = s.store.Create(ctx, payload)
	} else {
		rec, err = s.store.Update(ctx, id, payload)
	}

	s.mu.Lock()
	if s.inflight == attempt {
		s.inflight = nil
	}

	// Freshness check: if the desired payload moved while this request
	// was in flight, the response describes an outdated intent. Drop it
	// and let the newer debounce cycle persist the newer payload.
	if payload != s.payloadLocked() {
		if s.status == StatusSaving && s.inflight == nil {
			s.setStatusLocked(StatusIdle)
		}
		s.mu.Unlock()
		s.logger.Debug("Discarding stale save response")
		return
	}

	if err != nil {
		if ctx.Err() != nil {
			if s.status == StatusSaving && s.inflight == nil {
				s.setStatusLocked(StatusIdle)
			}
			s.mu.Unlock()
			return
		}
		s.setStatusLocked(StatusError)
		s.mu.Unlock()
		s.logger.Warn("Autosave failed", zap.Error(err))
		return
	}

	s.componentID = rec.ID
	s.lastSaved = payload
	if fromGenerated {
		// The derived representation becomes canonical.
		s.customCode = s.generatedJSX
		s.generatedJSX = ""
	}
	s.setStatusLocked(StatusIdle)
	s.mu.Unlock()

	if s.cfg.OnSaved != nil {
		s.cfg.OnSaved(rec)
	}
}

func (s *Session) setStatusLocked(status SaveStatus) {
	if s.status == status {
		return
	}
	s.status = status
	if s.cfg.OnStatus != nil {
		go s.cfg.OnStatus(status)
	}
}

// Select records the current selection snapshot from the surface.
func (s *Session) Select(ev *bridge.SelectEvent) {
	s.mu.Lock()
	s.selection = ev
	s.mu.Unlock()
}

// ClearSelection drops the current selection, if any.
func (s *Session) ClearSelection() {
	s.mu.Lock()
	s.selection = nil
	s.mu.Unlock()
}

// Selection returns the last selection snapshot, or nil.
func (s *Session) Selection() *bridge.SelectEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection
}

// SetActiveTab switches the editor view.
func (s *Session) SetActiveTab(tab Tab) {
	s.mu.Lock()
	s.activeTab = tab
	s.mu.Unlock()
}

// ActiveTab returns the current editor view.
func (s *Session) ActiveTab() Tab {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeTab
}

// ComponentID returns the persisted identifier, empty until the first
// successful save.
func (s *Session) ComponentID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.componentID
}

// CustomCode returns the raw source buffer.
func (s *Session) CustomCode() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.customCode
}

// GeneratedJSX returns the derived buffer, empty when not derived.
func (s *Session) GeneratedJSX() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generatedJSX
}

// LastSaved returns the last successfully persisted payload.
func (s *Session) LastSaved() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSaved
}

// Status returns the current save status.
func (s *Session) Status() SaveStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// LoadError returns the hydrate failure, if any.
func (s *Session) LoadError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadErr
}

// Label returns the autosave label for the session's current state.
func (s *Session) Label() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return AutosaveLabel(s.componentID != "", s.status)
}

// Flush persists the pending payload immediately, bypassing the
// debounce window. Used on teardown so the last edits are not lost.
func (s *Session) Flush() {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()
	s.persist()
}

// Close stops the debounce timer and cancels any in-flight persist.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.inflight != nil {
		s.inflight.cancel()
		s.inflight = nil
	}
}

// AutosaveLabel maps save state to the label shown next to the editor.
func AutosaveLabel(hasID bool, status SaveStatus) string {
	switch {
	case !hasID:
		return "Unsaved"
	case status == StatusSaving:
		return "Saving"
	case status == StatusError:
		return "Save Failed"
	default:
		return "Saved"
	}
}
