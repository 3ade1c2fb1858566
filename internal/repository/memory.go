package repository

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/pairmatch/compat-server-go/internal/model"
)

const shardCount = 32

type shard struct {
	mu       sync.Mutex
	sessions map[string]*model.Session
}

// memorySessionRepo keeps sessions in sharded in-process maps. Exclusion is
// per shard, so unrelated sessions never contend on one lock and all
// mutations of a single session are serialized.
type memorySessionRepo struct {
	shards [shardCount]*shard
}

func NewMemorySessionRepository() SessionRepository {
	r := &memorySessionRepo{}
	for i := range r.shards {
		r.shards[i] = &shard{sessions: make(map[string]*model.Session)}
	}
	return r
}

func (r *memorySessionRepo) shardFor(code string) *shard {
	h := fnv.New32a()
	h.Write([]byte(code))
	return r.shards[h.Sum32()%shardCount]
}

func (r *memorySessionRepo) Create(_ context.Context, params model.CreateSessionParams) (*model.Session, error) {
	sh := r.shardFor(params.Code)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	if _, exists := sh.sessions[params.Code]; exists {
		return nil, ErrCodeTaken
	}

	slotA := params.SlotA
	sess := &model.Session{
		Code:      params.Code,
		Status:    model.SessionStatusAwaitingPartner,
		SlotA:     &slotA,
		CreatedAt: time.Now(),
		ExpiresAt: params.ExpiresAt,
	}
	sh.sessions[params.Code] = sess

	return sess.Clone(), nil
}

func (r *memorySessionRepo) FindByCode(_ context.Context, code string) (*model.Session, error) {
	sh := r.shardFor(code)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	sess, ok := sh.sessions[code]
	if !ok {
		return nil, ErrNotFound
	}
	return sess.Clone(), nil
}

func (r *memorySessionRepo) FillPartnerSlot(_ context.Context, code string, slot model.ParticipantSlot) (*model.Session, error) {
	sh := r.shardFor(code)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	sess, ok := sh.sessions[code]
	if !ok {
		return nil, ErrNotFound
	}
	if sess.SlotB != nil {
		return nil, ErrSessionFull
	}

	sess.SlotB = &slot
	sess.Status = model.SessionStatusAwaitingAnswers

	return sess.Clone(), nil
}

func (r *memorySessionRepo) RecordSubmission(_ context.Context, code, personID string, answers []int, submittedAt time.Time) (*model.Session, error) {
	sh := r.shardFor(code)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	sess, ok := sh.sessions[code]
	if !ok {
		return nil, ErrNotFound
	}

	slot := sess.SlotByPersonID(personID)
	if slot == nil {
		return nil, ErrUnknownParticipant
	}
	if slot.SubmittedAt != nil {
		return nil, ErrDuplicateSubmission
	}

	slot.Answers = append([]int(nil), answers...)
	at := submittedAt
	slot.SubmittedAt = &at

	return sess.Clone(), nil
}

func (r *memorySessionRepo) TransitionStatus(_ context.Context, code string, from, to model.SessionStatus) (bool, error) {
	sh := r.shardFor(code)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	sess, ok := sh.sessions[code]
	if !ok {
		return false, ErrNotFound
	}
	if sess.Status != from {
		return false, nil
	}

	sess.Status = to
	return true, nil
}

func (r *memorySessionRepo) SetResult(_ context.Context, code string, result model.ScoreResult) error {
	sh := r.shardFor(code)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	sess, ok := sh.sessions[code]
	if !ok {
		return ErrNotFound
	}
	if sess.Status != model.SessionStatusComputing {
		return ErrConflict
	}

	sess.Result = &result
	sess.Status = model.SessionStatusCompleted
	return nil
}

func (r *memorySessionRepo) SetFailed(_ context.Context, code string, reason string) error {
	sh := r.shardFor(code)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	sess, ok := sh.sessions[code]
	if !ok {
		return ErrNotFound
	}
	if sess.Status != model.SessionStatusComputing {
		return ErrConflict
	}

	sess.FailureReason = reason
	sess.Status = model.SessionStatusFailed
	return nil
}

func (r *memorySessionRepo) DeleteExpired(_ context.Context) (int64, error) {
	now := time.Now()
	var deleted int64

	for _, sh := range r.shards {
		sh.mu.Lock()
		for code, sess := range sh.sessions {
			if now.After(sess.ExpiresAt) {
				delete(sh.sessions, code)
				deleted++
			}
		}
		sh.mu.Unlock()
	}

	return deleted, nil
}
