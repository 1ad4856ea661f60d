// Package review drives the step-by-step walk through a segmented critique.
//
// A Session presents one section at a time. The user either skips it or asks to edit it;
// an edit is followed by exactly one revision before the cursor moves on. The walk is
// forward-only: the cursor never decreases and finished sections are never revisited.
package review

import (
	"time"

	"github.com/google/uuid"
	"github.com/nikogura/cv-coach/pkg/critique"
	"github.com/nikogura/cv-coach/pkg/failure"
)

// State is the position of a session in the review cycle.
type State string

const (
	// StateAwaitingDecision means the current section is shown and needs edit or skip.
	StateAwaitingDecision State = "awaiting_decision"
	// StateAwaitingRevision means the user asked to edit and the replacement text is pending.
	StateAwaitingRevision State = "awaiting_revision"
	// StateFinished means every section has been decided.
	StateFinished State = "finished"
)

// Choice is the user's decision on a presented section.
type Choice string

const (
	// ChoiceEdit requests a revision of the current section.
	ChoiceEdit Choice = "edit"
	// ChoiceSkip keeps the current section and moves on.
	ChoiceSkip Choice = "skip"
)

// Session is one user's in-progress review.
type Session struct {
	ID          string
	UserID      int64
	Document    critique.Document
	Cursor      int
	PendingEdit critique.SectionKey
	Finished    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Step is what the transport shows after each operation.
type Step struct {
	SessionID string
	State     State
	Section   critique.Section
	Index     int
	Total     int
	Empty     bool
}

// NewSession creates a session over a segmented critique. A critique without sections
// starts out finished.
func NewSession(userID int64, doc critique.Document, now time.Time) (s Session) {
	s = Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		Document:  doc,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.Finished = doc.Empty()
	return s
}

// State reports where the session is in the cycle.
func (s *Session) State() (state State) {
	switch {
	case s.Finished || s.Cursor >= len(s.Document.Sections):
		state = StateFinished
	case s.PendingEdit != "":
		state = StateAwaitingRevision
	default:
		state = StateAwaitingDecision
	}
	return state
}

// Clone returns a deep copy that shares nothing with s.
func (s *Session) Clone() (clone Session) {
	clone = *s
	clone.Document = s.Document.Clone()
	return clone
}

// Present returns the section awaiting a decision. Once the cursor passes the last
// section the session is marked finished. Calling Present again without a decision
// returns the same step.
func (s *Session) Present() (step Step) {
	if s.Cursor >= len(s.Document.Sections) {
		s.Finished = true
	}

	step = Step{
		SessionID: s.ID,
		State:     s.State(),
		Index:     s.Cursor,
		Total:     len(s.Document.Sections),
		Empty:     s.Document.Empty(),
	}

	if step.State != StateFinished {
		step.Section = s.Document.Sections[s.Cursor]
	}

	return step
}

// Decide applies an edit or skip choice to the current section.
func (s *Session) Decide(choice Choice) (step Step, err error) {
	switch s.State() {
	case StateFinished:
		err = failure.New(failure.InvalidDecision, "decide", "review already finished")
		return step, err
	case StateAwaitingRevision:
		err = failure.New(failure.InvalidDecision, "decide", "still awaiting a revision")
		return step, err
	case StateAwaitingDecision:
	}

	switch choice {
	case ChoiceSkip:
		s.Cursor++
	case ChoiceEdit:
		s.PendingEdit = s.Document.Sections[s.Cursor].Key
	default:
		err = failure.New(failure.InvalidDecision, "decide", "unknown choice: "+string(choice))
		return step, err
	}

	step = s.Present()
	return step, err
}

// ApplyRevision replaces the body of the section awaiting revision and advances.
func (s *Session) ApplyRevision(key critique.SectionKey, body string) (step Step, err error) {
	if s.State() != StateAwaitingRevision {
		err = failure.New(failure.InvalidDecision, "revise", "no revision was requested")
		return step, err
	}

	if key != s.PendingEdit {
		err = failure.New(failure.InvalidDecision, "revise", "revision is for "+string(key)+", expected "+string(s.PendingEdit))
		return step, err
	}

	if body == "" {
		err = failure.New(failure.InvalidDecision, "revise", "empty revision")
		return step, err
	}

	section := &s.Document.Sections[s.Cursor]
	section.Body = body
	section.Revised = true

	s.PendingEdit = ""
	s.Cursor++

	step = s.Present()
	return step, err
}

// CancelEdit abandons a pending edit and shows the same section again.
func (s *Session) CancelEdit() (step Step, err error) {
	if s.State() != StateAwaitingRevision {
		err = failure.New(failure.InvalidDecision, "cancel", "no revision was requested")
		return step, err
	}

	s.PendingEdit = ""

	step = s.Present()
	return step, err
}
