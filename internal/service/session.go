package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pairmatch/compat-server-go/internal/config"
	apperrors "github.com/pairmatch/compat-server-go/internal/errors"
	"github.com/pairmatch/compat-server-go/internal/model"
	"github.com/pairmatch/compat-server-go/internal/repository"
)

type CreateSessionResult struct {
	SessionCode string `json:"session_code"`
	PersonID    string `json:"person_id"`
}

type JoinSessionResult struct {
	SessionCode string `json:"session_code"`
	PersonID    string `json:"person_id"`
	PartnerName string `json:"partner_name"`
}

// SessionService owns session rendezvous: allocating codes, creating
// sessions and admitting the second participant.
type SessionService struct {
	repo repository.SessionRepository
	ttl  time.Duration
}

func NewSessionService(repo repository.SessionRepository, ttl time.Duration) *SessionService {
	return &SessionService{
		repo: repo,
		ttl:  ttl,
	}
}

// Create allocates a fresh code and persists a session with slot A filled.
// Code collisions are retried a bounded number of times; running out of
// attempts means the code space is too small for the session volume and is
// surfaced as a hard failure.
func (s *SessionService) Create(ctx context.Context, displayName string) (*CreateSessionResult, error) {
	personID, err := generatePersonID()
	if err != nil {
		return nil, apperrors.Internal("failed to generate person id").WithCause(err)
	}

	slotA := model.ParticipantSlot{
		PersonID:    personID,
		DisplayName: displayName,
	}

	for attempt := 0; attempt < config.MaxCodeAttempts; attempt++ {
		code := generateSessionCode()

		sess, err := s.repo.Create(ctx, model.CreateSessionParams{
			Code:      code,
			SlotA:     slotA,
			ExpiresAt: time.Now().Add(s.ttl),
		})
		if errors.Is(err, repository.ErrCodeTaken) {
			continue
		}
		if err != nil {
			return nil, apperrors.Database(err)
		}

		log.Info().
			Str("code", sess.Code).
			Str("personId", personID).
			Time("expiresAt", sess.ExpiresAt).
			Msg("session created")

		return &CreateSessionResult{
			SessionCode: sess.Code,
			PersonID:    personID,
		}, nil
	}

	log.Error().
		Int("attempts", config.MaxCodeAttempts).
		Msg("session code space exhausted")

	return nil, apperrors.GeneratorExhausted()
}

// Join fills slot B. Two concurrent joins racing for the same empty slot
// are decided by the repository: exactly one wins, the other observes
// SessionFull.
func (s *SessionService) Join(ctx context.Context, code, displayName string) (*JoinSessionResult, error) {
	normalizedCode := normalizeCode(code)

	personID, err := generatePersonID()
	if err != nil {
		return nil, apperrors.Internal("failed to generate person id").WithCause(err)
	}

	sess, err := s.repo.FillPartnerSlot(ctx, normalizedCode, model.ParticipantSlot{
		PersonID:    personID,
		DisplayName: displayName,
	})
	if err != nil {
		return nil, mapRepositoryError(err)
	}

	log.Info().
		Str("code", sess.Code).
		Str("personId", personID).
		Msg("participant joined session")

	return &JoinSessionResult{
		SessionCode: sess.Code,
		PersonID:    personID,
		PartnerName: sess.SlotA.DisplayName,
	}, nil
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func mapRepositoryError(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NotFound("Session")
	case errors.Is(err, repository.ErrSessionFull):
		return apperrors.SessionFull()
	case errors.Is(err, repository.ErrUnknownParticipant):
		return apperrors.UnknownParticipant()
	case errors.Is(err, repository.ErrDuplicateSubmission):
		return apperrors.DuplicateSubmission()
	default:
		return apperrors.Database(fmt.Errorf("session repository: %w", err))
	}
}
