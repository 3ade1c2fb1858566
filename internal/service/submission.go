package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "github.com/pairmatch/compat-server-go/internal/errors"
	"github.com/pairmatch/compat-server-go/internal/model"
	"github.com/pairmatch/compat-server-go/internal/repository"
)

// SubmissionService validates and records one participant's answers. The
// submission that completes the pair hands the session to the result
// coordinator.
type SubmissionService struct {
	repo        repository.SessionRepository
	coordinator *ResultService
}

func NewSubmissionService(repo repository.SessionRepository, coordinator *ResultService) *SubmissionService {
	return &SubmissionService{
		repo:        repo,
		coordinator: coordinator,
	}
}

func (s *SubmissionService) Submit(ctx context.Context, code, personID string, answers []int) error {
	normalized := normalizeCode(code)

	if _, err := s.repo.FindByCode(ctx, normalized); err != nil {
		return mapRepositoryError(err)
	}

	if err := validateAnswers(answers); err != nil {
		return err
	}

	sess, err := s.repo.RecordSubmission(ctx, normalized, personID, answers, time.Now())
	if err != nil {
		return mapRepositoryError(err)
	}

	log.Info().
		Str("code", sess.Code).
		Str("personId", personID).
		Bool("bothSubmitted", sess.BothSubmitted()).
		Msg("answers submitted")

	// The repository linearizes submissions, so exactly one of the two
	// writers observes both slots submitted in its snapshot.
	if sess.BothSubmitted() {
		s.coordinator.Trigger(ctx, sess)
	}

	return nil
}

func validateAnswers(answers []int) error {
	if len(answers) != model.NumQuestions {
		return apperrors.InvalidAnswers(
			fmt.Sprintf("expected %d answers, got %d", model.NumQuestions, len(answers)))
	}
	for i, a := range answers {
		if a < model.AnswerMin || a > model.AnswerMax {
			return apperrors.InvalidAnswers(
				fmt.Sprintf("answer %d must be between %d and %d, got %d", i+1, model.AnswerMin, model.AnswerMax, a))
		}
	}
	return nil
}
