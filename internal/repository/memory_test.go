package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pairmatch/compat-server-go/internal/model"
)

func createTestSession(t *testing.T, repo SessionRepository, code string) *model.Session {
	t.Helper()

	sess, err := repo.Create(context.Background(), model.CreateSessionParams{
		Code:      code,
		SlotA:     model.ParticipantSlot{PersonID: "p1", DisplayName: "Alice"},
		ExpiresAt: time.Now().Add(time.Hour),
	})
	require.NoError(t, err)
	return sess
}

func TestMemoryRepoCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("creates session awaiting partner", func(t *testing.T) {
		repo := NewMemorySessionRepository()

		sess := createTestSession(t, repo, "AAAA22")
		assert.Equal(t, model.SessionStatusAwaitingPartner, sess.Status)
		assert.Equal(t, "Alice", sess.SlotA.DisplayName)
		assert.Nil(t, sess.SlotB)
	})

	t.Run("rejects duplicate code", func(t *testing.T) {
		repo := NewMemorySessionRepository()
		createTestSession(t, repo, "AAAA22")

		_, err := repo.Create(ctx, model.CreateSessionParams{
			Code:      "AAAA22",
			SlotA:     model.ParticipantSlot{PersonID: "px", DisplayName: "Eve"},
			ExpiresAt: time.Now().Add(time.Hour),
		})
		assert.ErrorIs(t, err, ErrCodeTaken)
	})
}

func TestMemoryRepoFindByCode(t *testing.T) {
	ctx := context.Background()

	t.Run("returns ErrNotFound for unknown code", func(t *testing.T) {
		repo := NewMemorySessionRepository()

		_, err := repo.FindByCode(ctx, "ZZZZZZ")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("returns an isolated snapshot", func(t *testing.T) {
		repo := NewMemorySessionRepository()
		createTestSession(t, repo, "AAAA22")

		first, err := repo.FindByCode(ctx, "AAAA22")
		require.NoError(t, err)

		// Mutating the snapshot must not leak into the store.
		first.SlotA.DisplayName = "Mallory"
		first.Status = model.SessionStatusFailed

		second, err := repo.FindByCode(ctx, "AAAA22")
		require.NoError(t, err)
		assert.Equal(t, "Alice", second.SlotA.DisplayName)
		assert.Equal(t, model.SessionStatusAwaitingPartner, second.Status)
	})
}

func TestMemoryRepoFillPartnerSlot(t *testing.T) {
	ctx := context.Background()

	t.Run("fills slot B and advances status", func(t *testing.T) {
		repo := NewMemorySessionRepository()
		createTestSession(t, repo, "AAAA22")

		sess, err := repo.FillPartnerSlot(ctx, "AAAA22", model.ParticipantSlot{PersonID: "p2", DisplayName: "Bob"})
		require.NoError(t, err)
		assert.Equal(t, model.SessionStatusAwaitingAnswers, sess.Status)
		assert.Equal(t, "Bob", sess.SlotB.DisplayName)
	})

	t.Run("second fill fails ErrSessionFull", func(t *testing.T) {
		repo := NewMemorySessionRepository()
		createTestSession(t, repo, "AAAA22")

		_, err := repo.FillPartnerSlot(ctx, "AAAA22", model.ParticipantSlot{PersonID: "p2", DisplayName: "Bob"})
		require.NoError(t, err)

		_, err = repo.FillPartnerSlot(ctx, "AAAA22", model.ParticipantSlot{PersonID: "p3", DisplayName: "Carol"})
		assert.ErrorIs(t, err, ErrSessionFull)
	})

	t.Run("concurrent fills admit exactly one", func(t *testing.T) {
		repo := NewMemorySessionRepository()
		createTestSession(t, repo, "AAAA22")

		const racers = 16
		var wg sync.WaitGroup
		var mu sync.Mutex
		wins := 0

		for i := 0; i < racers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, err := repo.FillPartnerSlot(ctx, "AAAA22", model.ParticipantSlot{PersonID: "racer", DisplayName: "Racer"})
				if err == nil {
					mu.Lock()
					wins++
					mu.Unlock()
				}
			}(i)
		}
		wg.Wait()

		assert.Equal(t, 1, wins)
	})
}

func TestMemoryRepoRecordSubmission(t *testing.T) {
	ctx := context.Background()
	answers := []int{3, 4, 2, 5, 1}

	setup := func(t *testing.T) SessionRepository {
		repo := NewMemorySessionRepository()
		createTestSession(t, repo, "AAAA22")
		_, err := repo.FillPartnerSlot(ctx, "AAAA22", model.ParticipantSlot{PersonID: "p2", DisplayName: "Bob"})
		require.NoError(t, err)
		return repo
	}

	t.Run("records answers and timestamp", func(t *testing.T) {
		repo := setup(t)

		sess, err := repo.RecordSubmission(ctx, "AAAA22", "p1", answers, time.Now())
		require.NoError(t, err)
		assert.True(t, sess.SlotA.Submitted())
		assert.Equal(t, answers, sess.SlotA.Answers)
		assert.False(t, sess.SlotB.Submitted())
	})

	t.Run("the second writer observes both submissions", func(t *testing.T) {
		repo := setup(t)

		first, err := repo.RecordSubmission(ctx, "AAAA22", "p1", answers, time.Now())
		require.NoError(t, err)
		assert.False(t, first.BothSubmitted())

		second, err := repo.RecordSubmission(ctx, "AAAA22", "p2", answers, time.Now())
		require.NoError(t, err)
		assert.True(t, second.BothSubmitted())
	})

	t.Run("unknown person fails ErrUnknownParticipant", func(t *testing.T) {
		repo := setup(t)

		_, err := repo.RecordSubmission(ctx, "AAAA22", "p9", answers, time.Now())
		assert.ErrorIs(t, err, ErrUnknownParticipant)
	})

	t.Run("resubmission fails ErrDuplicateSubmission", func(t *testing.T) {
		repo := setup(t)

		_, err := repo.RecordSubmission(ctx, "AAAA22", "p1", answers, time.Now())
		require.NoError(t, err)

		_, err = repo.RecordSubmission(ctx, "AAAA22", "p1", answers, time.Now())
		assert.ErrorIs(t, err, ErrDuplicateSubmission)
	})
}

func TestMemoryRepoTransitionStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("only one of concurrent CAS calls wins", func(t *testing.T) {
		repo := NewMemorySessionRepository()
		createTestSession(t, repo, "AAAA22")
		_, err := repo.FillPartnerSlot(ctx, "AAAA22", model.ParticipantSlot{PersonID: "p2", DisplayName: "Bob"})
		require.NoError(t, err)

		const racers = 8
		var wg sync.WaitGroup
		var mu sync.Mutex
		wins := 0

		for i := 0; i < racers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				won, err := repo.TransitionStatus(ctx, "AAAA22", model.SessionStatusAwaitingAnswers, model.SessionStatusComputing)
				assert.NoError(t, err)
				if won {
					mu.Lock()
					wins++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, wins)
	})

	t.Run("mismatched from state returns false", func(t *testing.T) {
		repo := NewMemorySessionRepository()
		createTestSession(t, repo, "AAAA22")

		won, err := repo.TransitionStatus(ctx, "AAAA22", model.SessionStatusComputing, model.SessionStatusCompleted)
		require.NoError(t, err)
		assert.False(t, won)
	})
}

func TestMemoryRepoResultWrites(t *testing.T) {
	ctx := context.Background()

	computing := func(t *testing.T) SessionRepository {
		repo := NewMemorySessionRepository()
		createTestSession(t, repo, "AAAA22")
		_, err := repo.FillPartnerSlot(ctx, "AAAA22", model.ParticipantSlot{PersonID: "p2", DisplayName: "Bob"})
		require.NoError(t, err)
		won, err := repo.TransitionStatus(ctx, "AAAA22", model.SessionStatusAwaitingAnswers, model.SessionStatusComputing)
		require.NoError(t, err)
		require.True(t, won)
		return repo
	}

	t.Run("SetResult completes a computing session", func(t *testing.T) {
		repo := computing(t)

		err := repo.SetResult(ctx, "AAAA22", model.ScoreResult{Score: 85, Message: "great", ComputedAt: time.Now()})
		require.NoError(t, err)

		sess, err := repo.FindByCode(ctx, "AAAA22")
		require.NoError(t, err)
		assert.Equal(t, model.SessionStatusCompleted, sess.Status)
		assert.Equal(t, 85, sess.Result.Score)
	})

	t.Run("SetResult outside computing fails ErrConflict", func(t *testing.T) {
		repo := NewMemorySessionRepository()
		createTestSession(t, repo, "AAAA22")

		err := repo.SetResult(ctx, "AAAA22", model.ScoreResult{Score: 85, Message: "great", ComputedAt: time.Now()})
		assert.ErrorIs(t, err, ErrConflict)
	})

	t.Run("SetFailed records the reason", func(t *testing.T) {
		repo := computing(t)

		err := repo.SetFailed(ctx, "AAAA22", "scorer timed out")
		require.NoError(t, err)

		sess, err := repo.FindByCode(ctx, "AAAA22")
		require.NoError(t, err)
		assert.Equal(t, model.SessionStatusFailed, sess.Status)
		assert.Equal(t, "scorer timed out", sess.FailureReason)
	})

	t.Run("SetResult after completion fails ErrConflict", func(t *testing.T) {
		repo := computing(t)

		require.NoError(t, repo.SetResult(ctx, "AAAA22", model.ScoreResult{Score: 85, Message: "great", ComputedAt: time.Now()}))

		err := repo.SetResult(ctx, "AAAA22", model.ScoreResult{Score: 10, Message: "other", ComputedAt: time.Now()})
		assert.ErrorIs(t, err, ErrConflict)
	})
}

func TestMemoryRepoDeleteExpired(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes only expired sessions", func(t *testing.T) {
		repo := NewMemorySessionRepository()

		_, err := repo.Create(ctx, model.CreateSessionParams{
			Code:      "EXPIRE",
			SlotA:     model.ParticipantSlot{PersonID: "p1", DisplayName: "Alice"},
			ExpiresAt: time.Now().Add(-time.Minute),
		})
		require.NoError(t, err)
		createTestSession(t, repo, "AAAA22")

		count, err := repo.DeleteExpired(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)

		_, err = repo.FindByCode(ctx, "EXPIRE")
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = repo.FindByCode(ctx, "AAAA22")
		assert.NoError(t, err)
	})
}
