package service

import (
	"context"

	"github.com/pairmatch/compat-server-go/internal/model"
	"github.com/pairmatch/compat-server-go/internal/repository"
)

// StatusSnapshot is the poll-friendly projection of a session. It never
// carries answer values.
type StatusSnapshot struct {
	Status           model.SessionStatus `json:"status"`
	PersonAName      string              `json:"person_a_name"`
	PersonASubmitted bool                `json:"person_a_submitted"`
	PersonBName      *string             `json:"person_b_name"`
	PersonBSubmitted bool                `json:"person_b_submitted"`
}

// StatusService derives read-only status snapshots for polling clients.
// It performs no mutation, so clients may poll as often as they like.
type StatusService struct {
	repo repository.SessionRepository
}

func NewStatusService(repo repository.SessionRepository) *StatusService {
	return &StatusService{repo: repo}
}

func (s *StatusService) GetStatus(ctx context.Context, code string) (*StatusSnapshot, error) {
	sess, err := s.repo.FindByCode(ctx, normalizeCode(code))
	if err != nil {
		return nil, mapRepositoryError(err)
	}

	snapshot := &StatusSnapshot{
		Status:           sess.Status,
		PersonAName:      sess.SlotA.DisplayName,
		PersonASubmitted: sess.SlotA.Submitted(),
	}

	if sess.SlotB != nil {
		snapshot.PersonBName = &sess.SlotB.DisplayName
		snapshot.PersonBSubmitted = sess.SlotB.Submitted()
	}

	return snapshot, nil
}
