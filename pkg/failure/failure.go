// Package failure classifies the errors a review conversation can run into.
//
// Callers branch on the Kind instead of inspecting message text, so an
// extraction problem can never be mistaken for document content.
package failure

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind names a class of failure scoped to one user's session.
type Kind string

const (
	// Extraction means the uploaded document could not be read.
	Extraction Kind = "extraction"
	// Generation means the text-generation service errored or returned nothing.
	Generation Kind = "generation"
	// SegmentationEmpty means no recognizable section was found in a critique.
	SegmentationEmpty Kind = "segmentation_empty"
	// InvalidDecision means a decision or revision arrived in the wrong state.
	InvalidDecision Kind = "invalid_decision"
)

// Error is a classified failure.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() (msg string) {
	switch {
	case e.Op != "" && e.Err != nil:
		msg = fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
	case e.Err != nil:
		msg = fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		msg = fmt.Sprintf("%s: %s", e.Kind, e.Op)
	}
	return msg
}

// Unwrap exposes the underlying cause.
func (e *Error) Unwrap() (err error) {
	err = e.Err
	return err
}

// Cause supports github.com/pkg/errors.Cause.
func (e *Error) Cause() (err error) {
	err = e.Err
	return err
}

// New builds a classified failure with a message.
func New(kind Kind, op, message string) (err error) {
	err = &Error{Kind: kind, Op: op, Err: errors.New(message)}
	return err
}

// Wrap classifies an existing error. A nil cause yields nil.
func Wrap(kind Kind, op string, cause error) (err error) {
	if cause == nil {
		return err
	}
	err = &Error{Kind: kind, Op: op, Err: cause}
	return err
}

// KindOf returns the kind of the first classified error in the chain.
func KindOf(err error) (kind Kind, ok bool) {
	var fe *Error
	if errors.As(err, &fe) {
		kind = fe.Kind
		ok = true
	}
	return kind, ok
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) (is bool) {
	got, ok := KindOf(err)
	is = ok && got == kind
	return is
}

// Retryable reports whether the user can simply try again.
func Retryable(err error) (retry bool) {
	kind, ok := KindOf(err)
	retry = ok && (kind == Extraction || kind == Generation)
	return retry
}
