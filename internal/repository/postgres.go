package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/pairmatch/compat-server-go/internal/database"
	"github.com/pairmatch/compat-server-go/internal/model"
)

// postgresSessionRepo is the durable store. Atomicity comes from guarded
// UPDATE statements (CAS on status / slot occupancy) and a FOR UPDATE
// transaction on the submission path; see migrations/001_sessions.sql for
// the schema.
type postgresSessionRepo struct {
	db *database.DB
}

func NewPostgresSessionRepository(db *database.DB) SessionRepository {
	return &postgresSessionRepo{db: db}
}

type sessionRow struct {
	Code               string         `db:"code"`
	Status             string         `db:"status"`
	PersonAID          string         `db:"person_a_id"`
	PersonAName        string         `db:"person_a_name"`
	PersonAAnswers     pq.Int64Array  `db:"person_a_answers"`
	PersonASubmittedAt *time.Time     `db:"person_a_submitted_at"`
	PersonBID          *string        `db:"person_b_id"`
	PersonBName        *string        `db:"person_b_name"`
	PersonBAnswers     pq.Int64Array  `db:"person_b_answers"`
	PersonBSubmittedAt *time.Time     `db:"person_b_submitted_at"`
	Score              *int           `db:"score"`
	Message            *string        `db:"message"`
	ComputedAt         *time.Time     `db:"computed_at"`
	FailureReason      sql.NullString `db:"failure_reason"`
	CreatedAt          time.Time      `db:"created_at"`
	ExpiresAt          time.Time      `db:"expires_at"`
}

func (row *sessionRow) toModel() *model.Session {
	sess := &model.Session{
		Code:   row.Code,
		Status: model.SessionStatus(row.Status),
		SlotA: &model.ParticipantSlot{
			PersonID:    row.PersonAID,
			DisplayName: row.PersonAName,
			Answers:     toInts(row.PersonAAnswers),
			SubmittedAt: row.PersonASubmittedAt,
		},
		CreatedAt: row.CreatedAt,
		ExpiresAt: row.ExpiresAt,
	}

	if row.PersonBID != nil {
		sess.SlotB = &model.ParticipantSlot{
			PersonID:    *row.PersonBID,
			DisplayName: *row.PersonBName,
			Answers:     toInts(row.PersonBAnswers),
			SubmittedAt: row.PersonBSubmittedAt,
		}
	}

	if row.Score != nil && row.Message != nil && row.ComputedAt != nil {
		sess.Result = &model.ScoreResult{
			Score:      *row.Score,
			Message:    *row.Message,
			ComputedAt: *row.ComputedAt,
		}
	}

	if row.FailureReason.Valid {
		sess.FailureReason = row.FailureReason.String
	}

	return sess
}

func toInts(arr pq.Int64Array) []int {
	if arr == nil {
		return nil
	}
	out := make([]int, len(arr))
	for i, v := range arr {
		out[i] = int(v)
	}
	return out
}

func toInt64s(vals []int) pq.Int64Array {
	out := make(pq.Int64Array, len(vals))
	for i, v := range vals {
		out[i] = int64(v)
	}
	return out
}

func (r *postgresSessionRepo) Create(ctx context.Context, params model.CreateSessionParams) (*model.Session, error) {
	var row sessionRow
	err := r.db.GetContext(ctx, &row, `
		INSERT INTO sessions (code, status, person_a_id, person_a_name, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (code) DO NOTHING
		RETURNING *
	`, params.Code, model.SessionStatusAwaitingPartner, params.SlotA.PersonID, params.SlotA.DisplayName, params.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCodeTaken
	}
	if err != nil {
		return nil, err
	}
	return row.toModel(), nil
}

func (r *postgresSessionRepo) FindByCode(ctx context.Context, code string) (*model.Session, error) {
	var row sessionRow
	err := r.db.GetContext(ctx, &row, `SELECT * FROM sessions WHERE code = $1`, code)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.toModel(), nil
}

func (r *postgresSessionRepo) FillPartnerSlot(ctx context.Context, code string, slot model.ParticipantSlot) (*model.Session, error) {
	var row sessionRow
	err := r.db.GetContext(ctx, &row, `
		UPDATE sessions SET
			person_b_id = $2,
			person_b_name = $3,
			status = $4
		WHERE code = $1 AND person_b_id IS NULL
		RETURNING *
	`, code, slot.PersonID, slot.DisplayName, model.SessionStatusAwaitingAnswers)
	if errors.Is(err, sql.ErrNoRows) {
		// Either the code is unknown or the slot is already taken.
		if _, findErr := r.FindByCode(ctx, code); findErr != nil {
			return nil, findErr
		}
		return nil, ErrSessionFull
	}
	if err != nil {
		return nil, err
	}
	return row.toModel(), nil
}

func (r *postgresSessionRepo) RecordSubmission(ctx context.Context, code, personID string, answers []int, submittedAt time.Time) (*model.Session, error) {
	var row sessionRow

	err := r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		var current sessionRow
		err := tx.GetContext(ctx, &current, `SELECT * FROM sessions WHERE code = $1 FOR UPDATE`, code)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		var column string
		switch {
		case current.PersonAID == personID:
			if current.PersonASubmittedAt != nil {
				return ErrDuplicateSubmission
			}
			column = "a"
		case current.PersonBID != nil && *current.PersonBID == personID:
			if current.PersonBSubmittedAt != nil {
				return ErrDuplicateSubmission
			}
			column = "b"
		default:
			return ErrUnknownParticipant
		}

		return tx.GetContext(ctx, &row, `
			UPDATE sessions SET
				person_`+column+`_answers = $2,
				person_`+column+`_submitted_at = $3
			WHERE code = $1
			RETURNING *
		`, code, toInt64s(answers), submittedAt)
	})
	if err != nil {
		return nil, err
	}

	return row.toModel(), nil
}

func (r *postgresSessionRepo) TransitionStatus(ctx context.Context, code string, from, to model.SessionStatus) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE sessions SET status = $3
		WHERE code = $1 AND status = $2
	`, code, from, to)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected > 0 {
		return true, nil
	}

	if _, err := r.FindByCode(ctx, code); err != nil {
		return false, err
	}
	return false, nil
}

func (r *postgresSessionRepo) SetResult(ctx context.Context, code string, result model.ScoreResult) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE sessions SET
			status = $2,
			score = $3,
			message = $4,
			computed_at = $5
		WHERE code = $1 AND status = $6
	`, code, model.SessionStatusCompleted, result.Score, result.Message, result.ComputedAt, model.SessionStatusComputing)
	if err != nil {
		return err
	}
	return r.checkGuardedUpdate(ctx, res, code)
}

func (r *postgresSessionRepo) SetFailed(ctx context.Context, code string, reason string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE sessions SET
			status = $2,
			failure_reason = $3
		WHERE code = $1 AND status = $4
	`, code, model.SessionStatusFailed, reason, model.SessionStatusComputing)
	if err != nil {
		return err
	}
	return r.checkGuardedUpdate(ctx, res, code)
}

func (r *postgresSessionRepo) checkGuardedUpdate(ctx context.Context, res sql.Result, code string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}

	if _, err := r.FindByCode(ctx, code); err != nil {
		return err
	}
	return ErrConflict
}

func (r *postgresSessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < NOW()`)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
