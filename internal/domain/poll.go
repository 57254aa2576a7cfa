package domain

import (
	"time"
)

// Time limit bounds for a question, in seconds
const (
	MinTimeLimitSeconds = 10
	MaxTimeLimitSeconds = 60
	MinOptions          = 2
)

// SessionState is the lifecycle state of the poll session
type SessionState string

const (
	StateIdle   SessionState = "idle"
	StateActive SessionState = "active"
)

// ResolutionReason records which path closed a round
type ResolutionReason string

const (
	ResolvedByTimeout     ResolutionReason = "timeout"
	ResolvedByAllAnswered ResolutionReason = "all_answered"
	ResolvedByPresenter   ResolutionReason = "ended"
)

// Participant represents one connected answering client
type Participant struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	HasAnswered bool   `json:"has_answered"`
	Answer      string `json:"answer,omitempty"`
}

// Question represents a poll question. It is never mutated after creation.
type Question struct {
	ID               int64     `json:"id"`
	Text             string    `json:"text"`
	Options          []string  `json:"options"`
	TimeLimitSeconds int       `json:"time_limit_seconds"`
	StartedAt        time.Time `json:"started_at"`
}

// Deadline returns the instant the question times out
func (q Question) Deadline() time.Time {
	return q.StartedAt.Add(time.Duration(q.TimeLimitSeconds) * time.Second)
}

// RemainingSeconds returns whole seconds left before the deadline, never negative
func (q Question) RemainingSeconds(now time.Time) int {
	elapsed := int(now.Sub(q.StartedAt) / time.Second)
	remaining := q.TimeLimitSeconds - elapsed
	if remaining < 0 {
		return 0
	}
	return remaining
}

// HasOption reports whether option is one of the question's options
func (q Question) HasOption(option string) bool {
	for _, o := range q.Options {
		if o == option {
			return true
		}
	}
	return false
}

// Clone returns a deep copy safe to hand to other goroutines
func (q Question) Clone() Question {
	c := q
	c.Options = append([]string(nil), q.Options...)
	return c
}

// OptionResult is the tally for one option
type OptionResult struct {
	Option     string `json:"option"`
	Votes      int    `json:"votes"`
	Percentage int    `json:"percentage"`
}

// HistoryEntry is the immutable record of a resolved round
type HistoryEntry struct {
	Question   Question         `json:"question"`
	Results    []OptionResult   `json:"results"`
	Reason     ResolutionReason `json:"reason"`
	ResolvedAt time.Time        `json:"resolved_at"`
}

// SessionStatus is a point-in-time view of the session for polling clients
type SessionStatus struct {
	State            SessionState   `json:"state"`
	Question         *Question      `json:"question,omitempty"`
	RemainingSeconds int            `json:"remaining_seconds"`
	Participants     []Participant  `json:"participants"`
	Results          []OptionResult `json:"results"`
	AnsweredCount    int            `json:"answered_count"`
	Total            int            `json:"total"`
	HistorySize      int            `json:"history_size"`
}

// AskQuestionRequest is the payload of the ask-question intent
type AskQuestionRequest struct {
	Text             string   `json:"text"`
	Options          []string `json:"options"`
	TimeLimitSeconds int      `json:"time_limit_seconds"`
}
