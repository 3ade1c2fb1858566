package model

type SessionStatus string

const (
	// SessionStatusAwaitingPartner means slot A is filled and the session
	// is waiting for a second participant to join.
	SessionStatusAwaitingPartner SessionStatus = "awaiting_partner"
	// SessionStatusAwaitingAnswers means both slots are filled and at
	// least one participant has not submitted answers yet.
	SessionStatusAwaitingAnswers SessionStatus = "awaiting_answers"
	// SessionStatusComputing means both answer sets are in and the scorer
	// is running.
	SessionStatusComputing SessionStatus = "computing"
	SessionStatusCompleted SessionStatus = "completed"
	SessionStatusFailed    SessionStatus = "failed"
)
