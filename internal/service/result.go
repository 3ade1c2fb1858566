package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pairmatch/compat-server-go/internal/config"
	apperrors "github.com/pairmatch/compat-server-go/internal/errors"
	"github.com/pairmatch/compat-server-go/internal/model"
	"github.com/pairmatch/compat-server-go/internal/repository"
	"github.com/pairmatch/compat-server-go/internal/scorer"
)

// ResultPolicy bounds a single scoring computation: per-attempt timeout,
// overall deadline, attempt count and the starting backoff between attempts.
type ResultPolicy struct {
	AttemptTimeout time.Duration
	TotalTimeout   time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration
}

func DefaultResultPolicy() ResultPolicy {
	return ResultPolicy{
		AttemptTimeout: config.ScorerAttemptTimeout,
		TotalTimeout:   config.ScorerTotalTimeout,
		MaxAttempts:    config.ScorerMaxAttempts,
		InitialBackoff: config.ScorerInitialBackoff,
	}
}

type ResultResponse struct {
	Score       int    `json:"score"`
	Message     string `json:"message"`
	PersonAName string `json:"person_a_name"`
	PersonBName string `json:"person_b_name"`
}

// ResultService invokes the scorer exactly once per session and serves the
// stored result afterwards.
type ResultService struct {
	repo   repository.SessionRepository
	scorer scorer.Scorer
	policy ResultPolicy
	wg     sync.WaitGroup
}

func NewResultService(repo repository.SessionRepository, sc scorer.Scorer, policy ResultPolicy) *ResultService {
	return &ResultService{
		repo:   repo,
		scorer: sc,
		policy: policy,
	}
}

// Trigger starts the scoring computation for a session whose two slots have
// both submitted. The status CAS awaiting_answers -> computing is the
// single-flight guard: only the caller that wins it launches the compute
// goroutine, every other trigger is a no-op.
//
// The CAS runs on a detached context. It must not inherit the caller's
// cancellation: once both submissions are recorded no later writer will
// observe the session as newly complete, so losing this claim to a client
// disconnect would strand the session in awaiting_answers.
func (s *ResultService) Trigger(_ context.Context, sess *model.Session) {
	ctx, cancel := context.WithTimeout(context.Background(), config.ResultWriteTimeout)
	defer cancel()

	won, err := s.repo.TransitionStatus(ctx, sess.Code, model.SessionStatusAwaitingAnswers, model.SessionStatusComputing)
	if err != nil {
		log.Error().Err(err).Str("code", sess.Code).Msg("failed to claim session for computation")
		return
	}
	if !won {
		return
	}

	answersA := sess.SlotA.Answers
	answersB := sess.SlotB.Answers

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.compute(sess.Code, answersA, answersB)
	}()
}

// Wait blocks until all in-flight computations have finished. Used on
// shutdown and in tests.
func (s *ResultService) Wait() {
	s.wg.Wait()
}

func (s *ResultService) compute(code string, answersA, answersB []int) {
	ctx, cancel := context.WithTimeout(context.Background(), s.policy.TotalTimeout)
	defer cancel()

	var lastErr error
	backoff := s.policy.InitialBackoff

	for attempt := 1; attempt <= s.policy.MaxAttempts; attempt++ {
		attemptCtx, attemptCancel := context.WithTimeout(ctx, s.policy.AttemptTimeout)
		result, err := s.scorer.Score(attemptCtx, answersA, answersB)
		attemptCancel()

		if err == nil {
			s.storeResult(code, result)
			return
		}

		lastErr = err
		log.Warn().Err(err).
			Str("code", code).
			Int("attempt", attempt).
			Msg("scorer invocation failed")

		if attempt == s.policy.MaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			s.storeFailure(code, ctx.Err())
			return
		case <-time.After(backoff):
			backoff *= 2
		}
	}

	s.storeFailure(code, lastErr)
}

func (s *ResultService) storeResult(code string, result *scorer.Result) {
	ctx, cancel := context.WithTimeout(context.Background(), config.ResultWriteTimeout)
	defer cancel()

	err := s.repo.SetResult(ctx, code, model.ScoreResult{
		Score:      result.Score,
		Message:    result.Message,
		ComputedAt: time.Now(),
	})
	if errors.Is(err, repository.ErrConflict) || errors.Is(err, repository.ErrNotFound) {
		// Another writer already moved the session out of computing, or it
		// was evicted. Nothing left to record.
		log.Warn().Err(err).Str("code", code).Msg("score result not stored")
		return
	}
	if err != nil {
		// The session is still computing and owes its participants a
		// terminal state; degrade to failed rather than strand it.
		log.Error().Err(err).Str("code", code).Msg("failed to store score result")
		s.storeFailure(code, fmt.Errorf("store result: %w", err))
		return
	}

	log.Info().
		Str("code", code).
		Int("score", result.Score).
		Msg("compatibility computed")
}

func (s *ResultService) storeFailure(code string, cause error) {
	reason := "scorer unavailable"
	if cause != nil {
		reason = cause.Error()
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.ResultWriteTimeout)
	defer cancel()

	if err := s.repo.SetFailed(ctx, code, reason); err != nil {
		log.Error().Err(err).Str("code", code).Msg("failed to mark session as failed")
		return
	}

	log.Error().
		Str("code", code).
		Str("reason", reason).
		Msg("compatibility computation failed")
}

// GetResult serves the stored result once the session is completed. The
// read is idempotent: repeated calls return the identical stored score and
// message.
func (s *ResultService) GetResult(ctx context.Context, code string) (*ResultResponse, error) {
	sess, err := s.repo.FindByCode(ctx, normalizeCode(code))
	if err != nil {
		return nil, mapRepositoryError(err)
	}

	switch sess.Status {
	case model.SessionStatusCompleted:
		if sess.Result == nil || sess.SlotB == nil {
			return nil, apperrors.Internal("completed session is missing its result")
		}
		return &ResultResponse{
			Score:       sess.Result.Score,
			Message:     sess.Result.Message,
			PersonAName: sess.SlotA.DisplayName,
			PersonBName: sess.SlotB.DisplayName,
		}, nil
	case model.SessionStatusFailed:
		return nil, apperrors.ComputationFailed(sess.FailureReason)
	default:
		return nil, apperrors.ResultNotReady()
	}
}
