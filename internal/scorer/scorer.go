package scorer

import (
	"context"
	"fmt"

	"github.com/pairmatch/compat-server-go/internal/model"
)

// Result is what a scorer produces for one pair of answer vectors.
type Result struct {
	Score   int
	Message string
}

// Scorer turns two answer vectors into a compatibility score in [0, 100]
// plus a message. Implementations may be slow and may fail; callers own
// timeouts and retries.
type Scorer interface {
	Score(ctx context.Context, answersA, answersB []int) (*Result, error)
}

// maxTotalDiff is the largest possible sum of per-question differences:
// (AnswerMax - AnswerMin) per question.
const maxTotalDiff = (model.AnswerMax - model.AnswerMin) * model.NumQuestions

// Local computes the score in-process from answer distance.
type Local struct{}

func NewLocal() *Local {
	return &Local{}
}

func (l *Local) Score(_ context.Context, answersA, answersB []int) (*Result, error) {
	if len(answersA) != model.NumQuestions || len(answersB) != model.NumQuestions {
		return nil, fmt.Errorf("expected %d answers per participant, got %d and %d",
			model.NumQuestions, len(answersA), len(answersB))
	}

	totalDiff := 0
	for i := range answersA {
		diff := answersA[i] - answersB[i]
		if diff < 0 {
			diff = -diff
		}
		totalDiff += diff
	}

	score := 100 - (totalDiff*100)/maxTotalDiff

	return &Result{
		Score:   score,
		Message: messageForScore(score),
	}, nil
}
