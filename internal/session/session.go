// Package session drives filter passes from UI input events.
//
// A Session plays the part of a browser tab showing one listing page: text
// typed into the search box and changes to the time selectors are debounced,
// while Enter and the search button run a pass at once.
package session

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/starford/pantry/internal/apperr"
	"github.com/starford/pantry/internal/debounce"
	"github.com/starford/pantry/internal/filter"
	"github.com/starford/pantry/internal/models"
)

// Event types accepted by Handle.
const (
	EventInput   = "input"
	EventChange  = "change"
	EventKeydown = "keydown"
	EventSubmit  = "submit"
)

// Input fields.
const (
	FieldQuery = "query"
	FieldPrep  = "prep"
	FieldCook  = "cook"
)

// Event is one UI input event.
type Event struct {
	Type  string `json:"type"`
	Field string `json:"field,omitempty"`
	Value string `json:"value,omitempty"`
	Key   string `json:"key,omitempty"`
}

// PublishFunc receives the result of every pass a session runs.
type PublishFunc func(sessionID string, res filter.Result)

// Snapshot is the externally visible state of a session.
type Snapshot struct {
	ID        string        `json:"id"`
	Page      string        `json:"page"`
	Inputs    filter.Inputs `json:"inputs"`
	Pending   bool          `json:"pending"`
	Result    filter.Result `json:"result"`
	CreatedAt time.Time     `json:"created_at"`
}

// Session holds the filter state of one page for one client.
type Session struct {
	id        string
	page      string
	createdAt time.Time
	publish   PublishFunc
	logger    *slog.Logger
	sched     *debounce.Scheduler

	mu     sync.Mutex // serializes passes and guards inputs
	state  *filter.PageState
	inputs filter.Inputs
	seq    uint64 // passes run so far

	pubMu     sync.Mutex // orders publishes
	published uint64     // seq of the last published pass
}

func newSession(id, page string, records []models.Record, delay time.Duration, publish PublishFunc, logger *slog.Logger, opts ...debounce.Option) *Session {
	s := &Session{
		id:        id,
		page:      page,
		createdAt: time.Now().UTC(),
		publish:   publish,
		logger:    logger,
		state:     filter.NewPageState(records),
	}
	s.sched = debounce.New(delay, s.run, opts...)
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Handle applies ev to the session inputs. It reports whether a pass ran
// before returning; debounced events run their pass later.
func (s *Session) Handle(ev Event) (applied bool, err error) {
	switch ev.Type {
	case EventInput:
		field := ev.Field
		if field == "" {
			field = FieldQuery
		}
		if field != FieldQuery {
			return false, fmt.Errorf("session: input on %q: %w", ev.Field, apperr.ErrInvalidInput)
		}
		s.setInput(field, ev.Value)
		s.sched.Schedule()
		return false, nil

	case EventChange:
		if ev.Field != FieldPrep && ev.Field != FieldCook {
			return false, fmt.Errorf("session: change on %q: %w", ev.Field, apperr.ErrInvalidInput)
		}
		s.setInput(ev.Field, ev.Value)
		s.sched.Schedule()
		return false, nil

	case EventKeydown:
		if ev.Key != "Enter" {
			return false, nil
		}
		s.sched.Fire()
		return true, nil

	case EventSubmit:
		s.sched.Fire()
		return true, nil
	}
	return false, fmt.Errorf("session: event type %q: %w", ev.Type, apperr.ErrInvalidInput)
}

// Apply replaces all inputs and runs a pass immediately.
func (s *Session) Apply(in filter.Inputs) filter.Result {
	s.mu.Lock()
	s.inputs = in
	s.mu.Unlock()
	s.sched.Fire()
	return s.Snapshot().Result
}

// Snapshot returns the current inputs and the result of the latest pass.
func (s *Session) Snapshot() Snapshot {
	pending := s.sched.Pending()
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		ID:        s.id,
		Page:      s.page,
		Inputs:    s.inputs,
		Pending:   pending,
		Result:    s.state.Result(),
		CreatedAt: s.createdAt,
	}
}

// Stop cancels any pending pass. Later events are accepted but never run.
func (s *Session) Stop() {
	s.sched.Stop()
}

func (s *Session) setInput(field, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch field {
	case FieldQuery:
		s.inputs.Query = value
	case FieldPrep:
		s.inputs.Prep = value
	case FieldCook:
		s.inputs.Cook = value
	}
}

// run is the scheduled pass.
func (s *Session) run() {
	s.mu.Lock()
	s.seq++
	seq := s.seq
	res := s.state.Apply(s.inputs)
	s.mu.Unlock()

	s.logger.Debug("session: pass applied",
		slog.String("session", s.id),
		slog.String("page", s.page),
		slog.Int("visible", res.VisibleCount))
	s.publishPass(seq, res)
}

// publishPass hands res to the publisher unless a later pass was already
// published, so the last event a subscriber sees matches the session state.
func (s *Session) publishPass(seq uint64, res filter.Result) {
	if s.publish == nil {
		return
	}
	s.pubMu.Lock()
	defer s.pubMu.Unlock()
	if seq <= s.published {
		s.logger.Debug("session: stale pass dropped",
			slog.String("session", s.id),
			slog.Uint64("seq", seq))
		return
	}
	s.published = seq
	s.publish(s.id, res)
}
