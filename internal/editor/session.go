// Package editor holds the state of one interactive editing session: the
// flow being edited, its validation result, the selection and the undo log.
package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/mur-run/flowspec/internal/document"
	"github.com/mur-run/flowspec/internal/flowspec"
	"github.com/mur-run/flowspec/internal/history"
	"github.com/mur-run/flowspec/internal/journal"
	"github.com/mur-run/flowspec/internal/validator"
)

// ErrNoWorkflow is returned by operations that need an open flow.
var ErrNoWorkflow = errors.New("no workflow open")

// Storage is where a session reads and writes documents.
type Storage interface {
	Read(ctx context.Context, name string) (string, error)
	Write(ctx context.Context, name, text string) (int, error)
}

// Recorder receives every accepted edit.
type Recorder interface {
	Record(ctx context.Context, e journal.Entry) error
}

// EditFunc produces the next flow from the current one. It must not modify
// its argument.
type EditFunc func(*flowspec.Flow) (*flowspec.Flow, error)

// Session is the editor state. It is not safe for concurrent use.
type Session struct {
	id       string
	file     string
	opts     document.Options
	current  *flowspec.Flow
	original *flowspec.Flow
	errs     []validator.ValidationError
	valid    bool
	selected string
	editMode bool
	history  *history.Manager
	recorder Recorder
	logger   *slog.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithValidation sets the options used to validate after every edit.
func WithValidation(opts document.Options) Option {
	return func(s *Session) { s.opts = opts }
}

// WithHistorySize bounds the undo log.
func WithHistorySize(n int) Option {
	return func(s *Session) { s.history = history.New(n) }
}

// WithRecorder journals accepted edits to r.
func WithRecorder(r Recorder) Option {
	return func(s *Session) { s.recorder = r }
}

// WithLogger sets the session logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// New returns an empty session.
func New(opts ...Option) *Session {
	s := &Session{
		id:      uuid.NewString(),
		history: history.New(history.DefaultSize),
		logger:  slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	s.logger = s.logger.With("session", s.id)
	return s
}

// ID identifies the session in the journal.
func (s *Session) ID() string { return s.id }

// File is the document name the session was opened from, if any.
func (s *Session) File() string { return s.file }

// Open loads name from storage and makes it the current flow. A document
// with blocking findings is not opened.
func (s *Session) Open(ctx context.Context, st Storage, name string) error {
	text, err := st.Read(ctx, name)
	if err != nil {
		return fmt.Errorf("open %s: %w", name, err)
	}
	flow, _, err := document.Load(text, s.opts)
	if err != nil {
		return fmt.Errorf("open %s: %w", name, err)
	}
	s.SetWorkflow(flow, name)
	s.record(ctx, history.ActionLoad, history.Describe(history.ActionLoad, history.Details{}))
	return nil
}

// SetWorkflow replaces the session contents with flow, which becomes the
// clean baseline for IsDirty. The undo log restarts from it.
func (s *Session) SetWorkflow(flow *flowspec.Flow, file string) {
	s.file = file
	s.current = flow.Clone()
	s.original = flow.Clone()
	s.selected = ""
	s.history.Clear()
	s.history.Push(s.current, history.Describe(history.ActionLoad, history.Details{}))
	s.revalidate()
	s.logger.Debug("workflow set", "flow", flow.ID, "file", file, "valid", s.valid)
}

// Clear closes the current flow and resets every piece of state.
func (s *Session) Clear() {
	s.file = ""
	s.current = nil
	s.original = nil
	s.errs = nil
	s.valid = false
	s.selected = ""
	s.editMode = false
	s.history.Clear()
}

// Flow returns a copy of the current flow, or nil when none is open.
func (s *Session) Flow() *flowspec.Flow {
	if s.current == nil {
		return nil
	}
	return s.current.Clone()
}

// Errors returns every finding for the current flow.
func (s *Session) Errors() []validator.ValidationError { return s.errs }

// IsValid reports whether a flow is open and has no blocking findings.
func (s *Session) IsValid() bool { return s.valid }

// Apply runs fn against the current flow. On success the result becomes
// current, is revalidated and pushed to the undo log under a description
// built from action and d. On failure nothing changes.
func (s *Session) Apply(ctx context.Context, action history.Action, d history.Details, fn EditFunc) error {
	if s.current == nil {
		return ErrNoWorkflow
	}
	next, err := fn(s.current)
	if err != nil {
		s.logger.Debug("edit rejected", "action", action, "error", err)
		return err
	}
	desc := history.Describe(action, d)
	s.current = next
	s.history.Push(next, desc)
	s.revalidate()
	if s.selected != "" && !s.current.HasStep(s.selected) {
		s.selected = ""
	}
	s.record(ctx, action, desc)
	return nil
}

// Undo steps back one snapshot. It reports false when there is nothing to
// undo.
func (s *Session) Undo() bool {
	e, ok := s.history.Undo()
	if !ok {
		return false
	}
	s.restore(e)
	return true
}

// Redo steps forward one snapshot. It reports false when there is nothing
// to redo.
func (s *Session) Redo() bool {
	e, ok := s.history.Redo()
	if !ok {
		return false
	}
	s.restore(e)
	return true
}

func (s *Session) restore(e history.Entry) {
	s.current = e.Flow
	s.revalidate()
	if s.selected != "" && !s.current.HasStep(s.selected) {
		s.selected = ""
	}
	s.logger.Debug("history moved", "to", e.Description)
}

// History summarizes the undo log.
func (s *Session) History() history.Info {
	return s.history.Info(2)
}

// Select marks a step as selected. An empty id clears the selection.
func (s *Session) Select(stepID string) error {
	if stepID == "" {
		s.selected = ""
		return nil
	}
	if s.current == nil {
		return ErrNoWorkflow
	}
	if !s.current.HasStep(stepID) {
		return fmt.Errorf("select: step %q not found", stepID)
	}
	s.selected = stepID
	return nil
}

// SelectedStep returns the selected step as it is in the current flow.
func (s *Session) SelectedStep() (flowspec.Step, bool) {
	if s.current == nil || s.selected == "" {
		return flowspec.Step{}, false
	}
	step, ok := s.current.Step(s.selected)
	if !ok {
		return flowspec.Step{}, false
	}
	return step.Clone(), true
}

// SetEditMode toggles edit mode.
func (s *Session) SetEditMode(enabled bool) { s.editMode = enabled }

// EditMode reports whether edit mode is on.
func (s *Session) EditMode() bool { return s.editMode }

// IsDirty reports whether the current flow serializes differently from the
// one that was opened or last saved.
func (s *Session) IsDirty() bool {
	if s.current == nil {
		return false
	}
	cur, err := document.Marshal(s.current)
	if err != nil {
		return true
	}
	orig, err := document.Marshal(s.original)
	if err != nil {
		return true
	}
	return cur != orig
}

// Reset discards unsaved changes. The reset itself can be undone.
func (s *Session) Reset(ctx context.Context) error {
	if s.current == nil {
		return ErrNoWorkflow
	}
	return s.Apply(ctx, history.ActionReset, history.Details{}, func(*flowspec.Flow) (*flowspec.Flow, error) {
		return s.original.Clone(), nil
	})
}

// Save writes the current flow to st under name, or under the file it was
// opened from when name is empty. Flows with blocking findings are refused.
// It returns the revision number the store assigned.
func (s *Session) Save(ctx context.Context, st Storage, name string) (int, error) {
	if s.current == nil {
		return 0, ErrNoWorkflow
	}
	if name == "" {
		name = s.file
	}
	if name == "" {
		return 0, errors.New("save: no file name")
	}
	if !s.valid {
		return 0, &document.ValidationFailedError{Op: "save", Errors: validator.Blocking(s.errs)}
	}
	text, err := document.Marshal(s.current)
	if err != nil {
		return 0, err
	}
	rev, err := st.Write(ctx, name, text)
	if err != nil {
		return 0, fmt.Errorf("save %s: %w", name, err)
	}
	s.file = name
	s.original = s.current.Clone()
	s.logger.Info("workflow saved", "file", name, "revision", rev)
	return rev, nil
}

func (s *Session) revalidate() {
	if s.current == nil {
		s.errs = nil
		s.valid = false
		return
	}
	s.errs = document.Validate(s.current, s.opts)
	s.valid = !validator.HasErrors(s.errs)
}

func (s *Session) record(ctx context.Context, action history.Action, desc string) {
	if s.recorder == nil || s.current == nil {
		return
	}
	err := s.recorder.Record(ctx, journal.Entry{
		SessionID:   s.id,
		FlowID:      s.current.ID,
		File:        s.file,
		Action:      string(action),
		Description: desc,
		Valid:       s.valid,
	})
	if err != nil {
		// The journal is advisory; a failed write never blocks an edit.
		s.logger.Warn("journal write failed", "error", err)
	}
}
