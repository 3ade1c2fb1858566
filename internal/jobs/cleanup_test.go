package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pairmatch/compat-server-go/internal/model"
	"github.com/pairmatch/compat-server-go/internal/repository"
)

func TestCleanupJob(t *testing.T) {
	ctx := context.Background()

	seed := func(t *testing.T, repo repository.SessionRepository, code string, expiresAt time.Time) {
		t.Helper()
		_, err := repo.Create(ctx, model.CreateSessionParams{
			Code:      code,
			SlotA:     model.ParticipantSlot{PersonID: "p1", DisplayName: "Alice"},
			ExpiresAt: expiresAt,
		})
		require.NoError(t, err)
	}

	t.Run("cleanup evicts expired sessions only", func(t *testing.T) {
		repo := repository.NewMemorySessionRepository()
		seed(t, repo, "OLDOLD", time.Now().Add(-time.Minute))
		seed(t, repo, "FRESH2", time.Now().Add(time.Hour))

		job := NewCleanupJob(repo, time.Hour)
		job.cleanup()

		_, err := repo.FindByCode(ctx, "OLDOLD")
		assert.ErrorIs(t, err, repository.ErrNotFound)

		_, err = repo.FindByCode(ctx, "FRESH2")
		assert.NoError(t, err)
	})

	t.Run("start runs an initial cleanup and stop terminates", func(t *testing.T) {
		repo := repository.NewMemorySessionRepository()
		seed(t, repo, "OLDOLD", time.Now().Add(-time.Minute))

		job := NewCleanupJob(repo, time.Hour)
		job.Start()
		defer job.Stop()

		assert.Eventually(t, func() bool {
			_, err := repo.FindByCode(ctx, "OLDOLD")
			return err != nil
		}, time.Second, 10*time.Millisecond)
	})
}
