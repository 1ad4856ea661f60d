package review

import (
	"context"
	"strings"
	"time"

	"github.com/nikogura/cv-coach/pkg/critique"
	"github.com/nikogura/cv-coach/pkg/failure"
	"github.com/nikogura/cv-coach/pkg/logging"
	"github.com/rs/zerolog"
)

// DefaultRevisionTimeout bounds a single call to the Reviser.
const DefaultRevisionTimeout = 90 * time.Second

// Machine runs review sessions kept in a Store.
//
// Operations for one user must be serialized by the caller. The Reviser call in
// SubmitRevision runs without holding the user's store lock.
type Machine struct {
	store   Store
	reviser Reviser
	timeout time.Duration
	now     func() time.Time
	logger  zerolog.Logger
}

// Option configures a Machine.
type Option func(m *Machine)

// WithRevisionTimeout sets the per-revision timeout.
func WithRevisionTimeout(d time.Duration) Option {
	return func(m *Machine) {
		if d > 0 {
			m.timeout = d
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Machine) {
		m.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(m *Machine) {
		m.logger = logger
	}
}

// NewMachine creates a Machine.
func NewMachine(store Store, reviser Reviser, opts ...Option) (m *Machine) {
	m = &Machine{
		store:   store,
		reviser: reviser,
		timeout: DefaultRevisionTimeout,
		now:     time.Now,
		logger:  logging.Component("review"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start segments a critique and begins a review for the user, replacing any review
// already in progress (discarded reports that). When the critique has no recognizable
// sections the returned step is already finished and err is a SegmentationEmpty failure;
// Final then returns the critique untouched.
func (m *Machine) Start(ctx context.Context, userID int64, raw string) (step Step, discarded bool, err error) {
	doc := critique.Segment(raw)
	session := NewSession(userID, doc, m.now())

	prev := m.store.Start(session)
	discarded = prev != nil

	ctx = logging.WithSessionID(logging.WithUserID(ctx, userID), session.ID)
	event := m.logger.Info().Ctx(ctx).Int("sections", len(doc.Sections))
	if prev != nil {
		event = event.Str("discarded_session", prev.ID).Bool("discarded_finished", prev.Finished)
	}
	event.Msg("review started")

	err = m.update(userID, func(s *Session) (updErr error) {
		step = s.Present()
		return updErr
	})
	if err != nil {
		return step, discarded, err
	}

	if step.Empty {
		err = failure.New(failure.SegmentationEmpty, "start review", "no recognizable sections in critique")
	}

	return step, discarded, err
}

// Present returns the current step without changing it.
func (m *Machine) Present(userID int64) (step Step, err error) {
	err = m.update(userID, func(s *Session) (updErr error) {
		step = s.Present()
		return updErr
	})
	return step, err
}

// Decide applies an edit or skip choice.
func (m *Machine) Decide(ctx context.Context, userID int64, choice Choice) (step Step, err error) {
	err = m.update(userID, func(s *Session) (updErr error) {
		step, updErr = s.Decide(choice)
		return updErr
	})
	if err != nil {
		return step, err
	}

	m.logger.Debug().Ctx(logging.WithUserID(ctx, userID)).
		Str("choice", string(choice)).
		Str("state", string(step.State)).
		Int("cursor", step.Index).
		Msg("decision applied")

	return step, err
}

// SubmitRevision sends the user's replacement text through the Reviser and stores the
// result in the section awaiting revision. On a Reviser failure nothing changes and the
// session keeps waiting for a revision.
func (m *Machine) SubmitRevision(ctx context.Context, userID int64, text string) (step Step, err error) {
	var (
		sessionID string
		key       critique.SectionKey
		label     string
	)

	err = m.update(userID, func(s *Session) (updErr error) {
		if s.State() != StateAwaitingRevision {
			updErr = failure.New(failure.InvalidDecision, "submit revision", "no revision was requested")
			return updErr
		}
		sessionID = s.ID
		key = s.PendingEdit
		label = s.Document.Sections[s.Cursor].Label
		return updErr
	})
	if err != nil {
		return step, err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		err = failure.New(failure.InvalidDecision, "submit revision", "empty revision")
		return step, err
	}

	reviseCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	started := m.now()
	var revised string
	revised, err = m.reviser.Revise(reviseCtx, label, text)
	if err != nil {
		if _, classified := failure.KindOf(err); !classified {
			err = failure.Wrap(failure.Generation, "submit revision", err)
		}
		m.logger.Warn().Ctx(logging.WithSessionID(ctx, sessionID)).Err(err).Str("section", string(key)).Msg("revision failed")
		return step, err
	}

	err = m.update(userID, func(s *Session) (updErr error) {
		if s.ID != sessionID || s.PendingEdit != key {
			updErr = failure.New(failure.InvalidDecision, "submit revision", "review changed while the revision was prepared")
			return updErr
		}
		step, updErr = s.ApplyRevision(key, revised)
		return updErr
	})
	if err != nil {
		return step, err
	}

	m.logger.Info().Ctx(logging.WithSessionID(ctx, sessionID)).
		Str("section", string(key)).
		Dur("took", m.now().Sub(started)).
		Msg("section revised")

	return step, err
}

// Cancel abandons a pending edit and re-presents the same section.
func (m *Machine) Cancel(userID int64) (step Step, err error) {
	err = m.update(userID, func(s *Session) (updErr error) {
		step, updErr = s.CancelEdit()
		return updErr
	})
	return step, err
}

// Final assembles the reviewed critique. The review must be finished.
func (m *Machine) Final(userID int64) (text string, err error) {
	s, ok := m.store.Get(userID)
	if !ok {
		err = failure.New(failure.InvalidDecision, "final", "no review in progress")
		return text, err
	}

	if s.State() != StateFinished {
		err = failure.New(failure.InvalidDecision, "final", "review is not finished")
		return text, err
	}

	if s.Document.Empty() {
		text = s.Document.Original
		return text, err
	}

	text = critique.Assemble(s.Document)
	return text, err
}

// Session returns a snapshot of the user's session.
func (m *Machine) Session(userID int64) (s Session, ok bool) {
	s, ok = m.store.Get(userID)
	return s, ok
}

// Abandon drops the user's session and reports whether one existed.
func (m *Machine) Abandon(userID int64) (abandoned bool) {
	_, abandoned = m.store.Get(userID)
	m.store.Clear(userID)
	return abandoned
}

// Sweep drops sessions idle for longer than ttl.
func (m *Machine) Sweep(ttl time.Duration) (swept []int64) {
	swept = m.store.Sweep(m.now().Add(-ttl))
	if len(swept) > 0 {
		m.logger.Info().Int("count", len(swept)).Msg("idle reviews swept")
	}
	return swept
}

func (m *Machine) update(userID int64, fn func(s *Session) error) (err error) {
	err = m.store.Update(userID, func(s *Session) (updErr error) {
		updErr = fn(s)
		if updErr == nil {
			s.UpdatedAt = m.now()
		}
		return updErr
	})
	return err
}
