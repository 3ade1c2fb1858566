package model

import (
	"time"
)

// ParticipantSlot is one of the two fixed positions (A/B) in a session.
// Answers stay nil until the participant submits; SubmittedAt marks the
// submission as done and is written at most once.
type ParticipantSlot struct {
	PersonID    string     `json:"personId"`
	DisplayName string     `json:"displayName"`
	Answers     []int      `json:"-"`
	SubmittedAt *time.Time `json:"submittedAt,omitempty"`
}

func (p *ParticipantSlot) Submitted() bool {
	return p != nil && p.SubmittedAt != nil
}

type ScoreResult struct {
	Score      int       `json:"score"`
	Message    string    `json:"message"`
	ComputedAt time.Time `json:"computedAt"`
}

// Session is the rendezvous record for one compatibility computation
// between two participants.
type Session struct {
	Code          string        `json:"code"`
	Status        SessionStatus `json:"status"`
	SlotA         *ParticipantSlot
	SlotB         *ParticipantSlot
	Result        *ScoreResult
	FailureReason string
	CreatedAt     time.Time
	ExpiresAt     time.Time
}

// SlotByPersonID returns the slot owned by personID, or nil if the id
// matches neither slot.
func (s *Session) SlotByPersonID(personID string) *ParticipantSlot {
	if s.SlotA != nil && s.SlotA.PersonID == personID {
		return s.SlotA
	}
	if s.SlotB != nil && s.SlotB.PersonID == personID {
		return s.SlotB
	}
	return nil
}

func (s *Session) BothSubmitted() bool {
	return s.SlotA.Submitted() && s.SlotB.Submitted()
}

// Clone returns a deep copy so callers can hand out snapshots without
// exposing store-owned memory to concurrent mutation.
func (s *Session) Clone() *Session {
	c := *s
	c.SlotA = s.SlotA.clone()
	c.SlotB = s.SlotB.clone()
	if s.Result != nil {
		r := *s.Result
		c.Result = &r
	}
	return &c
}

func (p *ParticipantSlot) clone() *ParticipantSlot {
	if p == nil {
		return nil
	}
	c := *p
	if p.Answers != nil {
		c.Answers = append([]int(nil), p.Answers...)
	}
	if p.SubmittedAt != nil {
		t := *p.SubmittedAt
		c.SubmittedAt = &t
	}
	return &c
}

type CreateSessionParams struct {
	Code      string
	SlotA     ParticipantSlot
	ExpiresAt time.Time
}
