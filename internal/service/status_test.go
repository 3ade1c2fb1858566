package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/pairmatch/compat-server-go/internal/errors"
	"github.com/pairmatch/compat-server-go/internal/model"
)

func TestStatusServiceGetStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown code fails NotFound", func(t *testing.T) {
		f := newSubmissionFixture(newFakeScorer())
		status := NewStatusService(f.repo)

		_, err := status.GetStatus(ctx, "ZZZZZZ")
		assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.GetCode(err))
	})

	t.Run("reports empty slot B before join", func(t *testing.T) {
		f := newSubmissionFixture(newFakeScorer())
		status := NewStatusService(f.repo)

		created, err := f.sessions.Create(ctx, "Alice")
		require.NoError(t, err)

		snapshot, err := status.GetStatus(ctx, created.SessionCode)
		require.NoError(t, err)
		assert.Equal(t, model.SessionStatusAwaitingPartner, snapshot.Status)
		assert.Equal(t, "Alice", snapshot.PersonAName)
		assert.False(t, snapshot.PersonASubmitted)
		assert.Nil(t, snapshot.PersonBName)
		assert.False(t, snapshot.PersonBSubmitted)
	})

	t.Run("tracks submissions per slot", func(t *testing.T) {
		f := newSubmissionFixture(newFakeScorer())
		status := NewStatusService(f.repo)

		code, personA, _ := f.createPair(t)
		require.NoError(t, f.submission.Submit(ctx, code, personA, validTestAnswers()))

		snapshot, err := status.GetStatus(ctx, code)
		require.NoError(t, err)
		assert.Equal(t, model.SessionStatusAwaitingAnswers, snapshot.Status)
		assert.True(t, snapshot.PersonASubmitted)
		require.NotNil(t, snapshot.PersonBName)
		assert.Equal(t, "Bob", *snapshot.PersonBName)
		assert.False(t, snapshot.PersonBSubmitted)
	})

	t.Run("never reports completed before both submissions", func(t *testing.T) {
		f := newSubmissionFixture(newFakeScorer())
		status := NewStatusService(f.repo)

		code, personA, personB := f.createPair(t)

		snapshot, err := status.GetStatus(ctx, code)
		require.NoError(t, err)
		assert.NotEqual(t, model.SessionStatusCompleted, snapshot.Status)

		require.NoError(t, f.submission.Submit(ctx, code, personA, validTestAnswers()))
		snapshot, err = status.GetStatus(ctx, code)
		require.NoError(t, err)
		assert.NotEqual(t, model.SessionStatusCompleted, snapshot.Status)

		require.NoError(t, f.submission.Submit(ctx, code, personB, validTestAnswers()))
		f.result.Wait()

		require.Eventually(t, func() bool {
			snapshot, err := status.GetStatus(ctx, code)
			return err == nil && snapshot.Status == model.SessionStatusCompleted
		}, time.Second, 10*time.Millisecond)

		snapshot, err = status.GetStatus(ctx, code)
		require.NoError(t, err)
		assert.True(t, snapshot.PersonASubmitted)
		assert.True(t, snapshot.PersonBSubmitted)
	})
}
