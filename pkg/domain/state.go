package domain

import "time"

// Session is the serializable snapshot of one user's progress through a quiz.
//
// The transition lock is not part of the snapshot: it only exists while a running engine
// plays a transition and never survives persistence.
type Session struct {
	ID           string `json:"id"`
	DefinitionID string `json:"definition_id"`

	// StepIndex is the current step while in progress.
	StepIndex int `json:"step_index"`

	// Recorded holds every answer value recorded so far. Going back does not
	// truncate it, so the value for the current step may be a stale selection.
	Recorded []int `json:"recorded"`

	// Answered holds the per-step completion marks shown by step indicators.
	Answered []bool `json:"answered"`

	Completed   bool `json:"completed"`
	ResultIndex *int `json:"result_index,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Sealed is set only on envelopes written by an encrypting store; it holds the
	// whole session as ciphertext while the fields above stay zero.
	Sealed []byte `json:"sealed,omitempty"`
}

// NewSession creates a session positioned at the first step.
func NewSession(id, definitionID string, stepCount int) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:           id,
		DefinitionID: definitionID,
		Recorded:     []int{},
		Answered:     make([]bool, stepCount),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Answers returns the effective answers: one per completed step, no gaps.
func (s *Session) Answers() []int {
	n := s.StepIndex
	if s.Completed {
		n = len(s.Recorded)
	}
	if n > len(s.Recorded) {
		n = len(s.Recorded)
	}
	out := make([]int, n)
	copy(out, s.Recorded[:n])
	return out
}

// Selected returns the answer retained for the current step, if any.
func (s *Session) Selected() (int, bool) {
	if s.Completed || s.StepIndex >= len(s.Recorded) {
		return 0, false
	}
	return s.Recorded[s.StepIndex], true
}

// Snapshot returns a deep copy of the session.
func (s *Session) Snapshot() *Session {
	if s == nil {
		return nil
	}
	next := *s
	next.Recorded = append([]int(nil), s.Recorded...)
	next.Answered = append([]bool(nil), s.Answered...)
	if s.Sealed != nil {
		next.Sealed = append([]byte(nil), s.Sealed...)
	}
	if s.ResultIndex != nil {
		idx := *s.ResultIndex
		next.ResultIndex = &idx
	}
	return &next
}
