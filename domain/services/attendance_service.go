package services

import (
	"context"
	"errors"

	"face-attendance/domain/models"
)

// Infrastructure faults. These propagate as errors to the boundary layer;
// everything in the outcome taxonomy below is returned as a value instead.
var (
	ErrLedgerUnavailable  = errors.New("attendance ledger unavailable")
	ErrExtractionFailed   = errors.New("embedding extraction failed")
	ErrIdentityNotFound   = errors.New("identity not found")
	ErrConcurrencyTimeout = errors.New("attendance request timed out on identity lock")
)

// MarkOutcome tags the result of an attendance request. Every rejection
// is a structured outcome, never a Go error, so the boundary can render a
// user-facing message.
type MarkOutcome string

const (
	// Accepted outcomes (an event was appended).
	OutcomeCheckedIn  MarkOutcome = "checked_in"
	OutcomeCheckedOut MarkOutcome = "checked_out"
	OutcomeVerified   MarkOutcome = "verified"

	// Idempotent success (no new event, still success).
	OutcomeAlreadyVerified MarkOutcome = "already_verified"

	// State-rule rejections (matched, but the transition is not allowed).
	OutcomeAlreadyCheckedIn MarkOutcome = "already_checked_in"
	OutcomeMustCheckInFirst MarkOutcome = "must_check_in_first"

	// Recognition rejections.
	OutcomeNoFaceDetected   MarkOutcome = "no_face_detected"
	OutcomeNoMatch          MarkOutcome = "no_match"
	OutcomeIdentityMismatch MarkOutcome = "identity_mismatch"
)

// Accepted reports whether the outcome appended a new ledger event.
func (o MarkOutcome) Accepted() bool {
	switch o {
	case OutcomeCheckedIn, OutcomeCheckedOut, OutcomeVerified:
		return true
	}
	return false
}

// MarkResult carries the outcome plus the fields relevant to it. RegNo and
// Name are set whenever an identity resolved, including for state-rule
// rejections. Score is the matcher's best similarity, retained even on
// no-match for diagnostics.
type MarkResult struct {
	Outcome MarkOutcome
	RegNo   string
	Name    string
	Score   float64
}

// AttendanceService is the attendance state engine: it resolves an identity
// from a captured image and applies the per-mode transition rules against
// the ledger.
type AttendanceService interface {
	// MarkIn handles on-site check-in. Allowed from no-record-today or
	// checked-out; rejected with OutcomeAlreadyCheckedIn otherwise.
	MarkIn(ctx context.Context, imageData []byte, mimeType string) (*MarkResult, error)

	// MarkOut handles on-site check-out. Allowed only from checked-in;
	// rejected with OutcomeMustCheckInFirst otherwise.
	MarkOut(ctx context.Context, imageData []byte, mimeType string) (*MarkResult, error)

	// MarkOnline handles remote verification against a claimed identity.
	// The match must equal the claim or the request is rejected with
	// OutcomeIdentityMismatch before any state lookup. At most one present
	// event per identity and day; repeats yield OutcomeAlreadyVerified.
	MarkOnline(ctx context.Context, imageData []byte, mimeType string, claimedRegNo string) (*MarkResult, error)

	// History returns the identity's events, newest first.
	History(ctx context.Context, regNo string) ([]models.AttendanceEvent, error)
}
