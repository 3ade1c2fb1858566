package repository

import (
	"context"
	"errors"
	"time"

	"github.com/pairmatch/compat-server-go/internal/model"
)

// Sentinel errors returned by SessionRepository implementations. Services
// translate these into client-facing AppErrors.
var (
	ErrNotFound            = errors.New("session not found")
	ErrCodeTaken           = errors.New("session code already in use")
	ErrSessionFull         = errors.New("session already has two participants")
	ErrUnknownParticipant  = errors.New("person id does not match a participant")
	ErrDuplicateSubmission = errors.New("answers already submitted")
	ErrConflict            = errors.New("session is not in the required state")
)

// SessionRepository holds sessions keyed by code. Every method is atomic
// with respect to a single session: two concurrent calls touching the same
// code are linearized, and returned sessions are snapshots the caller owns.
type SessionRepository interface {
	// Create persists a new session with slot A filled and status
	// awaiting_partner. Returns ErrCodeTaken when a live session already
	// uses the code.
	Create(ctx context.Context, params model.CreateSessionParams) (*model.Session, error)

	// FindByCode returns a snapshot of the session, or ErrNotFound.
	FindByCode(ctx context.Context, code string) (*model.Session, error)

	// FillPartnerSlot fills slot B and advances the session to
	// awaiting_answers. Exactly one of two racing calls succeeds; the
	// loser gets ErrSessionFull.
	FillPartnerSlot(ctx context.Context, code string, slot model.ParticipantSlot) (*model.Session, error)

	// RecordSubmission writes answers and the submission timestamp into
	// the slot owned by personID, at most once. Returns the post-write
	// snapshot so the caller can decide whether both slots are now
	// submitted.
	RecordSubmission(ctx context.Context, code, personID string, answers []int, submittedAt time.Time) (*model.Session, error)

	// TransitionStatus performs a compare-and-set on the status field.
	// Returns true only for the caller that actually moved the session
	// from `from` to `to`.
	TransitionStatus(ctx context.Context, code string, from, to model.SessionStatus) (bool, error)

	// SetResult stores the score and moves computing -> completed.
	// Returns ErrConflict unless the session is computing.
	SetResult(ctx context.Context, code string, result model.ScoreResult) error

	// SetFailed records the failure reason and moves computing -> failed.
	SetFailed(ctx context.Context, code string, reason string) error

	// DeleteExpired evicts sessions past their expiry.
	DeleteExpired(ctx context.Context) (int64, error)
}
