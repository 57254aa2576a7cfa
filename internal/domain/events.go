package domain

// EventType tags every outbound event
type EventType string

const (
	EventQuestionStarted  EventType = "question-started"
	EventAnswerAccepted   EventType = "answer-accepted"
	EventTallyUpdated     EventType = "tally-updated"
	EventQuestionResolved EventType = "question-resolved"
	EventRosterUpdated    EventType = "roster-updated"
	EventRemoved          EventType = "removed"
	EventHistorySnapshot  EventType = "history-snapshot"
	EventRejected         EventType = "rejected"
	EventPong             EventType = "pong"
)

// Event is implemented by every outbound payload. Payloads are snapshots and
// must not share mutable state with the coordinator.
type Event interface {
	Type() EventType
}

// QuestionStarted announces the active question. Late joiners receive it
// with the time left and their own answer state.
type QuestionStarted struct {
	Question         Question `json:"question"`
	RemainingSeconds int      `json:"remaining_seconds"`
	HasAnswered      bool     `json:"has_answered"`
}

func (QuestionStarted) Type() EventType { return EventQuestionStarted }

// AnswerAccepted confirms an answer to the participant who sent it
type AnswerAccepted struct {
	QuestionID int64          `json:"question_id"`
	Option     string         `json:"option"`
	Results    []OptionResult `json:"results"`
}

func (AnswerAccepted) Type() EventType { return EventAnswerAccepted }

// AnswerNotice identifies who answered what, for presenters only
type AnswerNotice struct {
	ParticipantID string `json:"participant_id"`
	DisplayName   string `json:"display_name"`
	Option        string `json:"option"`
}

// TallyUpdated carries the live tally to presenters
type TallyUpdated struct {
	QuestionID    int64          `json:"question_id"`
	Results       []OptionResult `json:"results"`
	AnsweredCount int            `json:"answered_count"`
	Total         int            `json:"total"`
	Answer        *AnswerNotice  `json:"answer,omitempty"`
}

func (TallyUpdated) Type() EventType { return EventTallyUpdated }

// QuestionResolved is sent once per round to every connection
type QuestionResolved struct {
	Question Question         `json:"question"`
	Results  []OptionResult   `json:"results"`
	Reason   ResolutionReason `json:"reason"`
}

func (QuestionResolved) Type() EventType { return EventQuestionResolved }

// RosterUpdated carries the ordered participant list to presenters
type RosterUpdated struct {
	Participants  []Participant `json:"participants"`
	AnsweredCount int           `json:"answered_count"`
	Total         int           `json:"total"`
}

func (RosterUpdated) Type() EventType { return EventRosterUpdated }

// Removed tells a participant it was taken off the roster
type Removed struct{}

func (Removed) Type() EventType { return EventRemoved }

// HistorySnapshot carries every resolved round, oldest first
type HistorySnapshot struct {
	Entries []HistoryEntry `json:"entries"`
}

func (HistorySnapshot) Type() EventType { return EventHistorySnapshot }

// Rejected reports a refused intent to its sender
type Rejected struct {
	Intent  string        `json:"intent"`
	Kind    RejectionKind `json:"kind"`
	Message string        `json:"message"`
}

func (Rejected) Type() EventType { return EventRejected }

// Pong answers a heartbeat ping
type Pong struct{}

func (Pong) Type() EventType { return EventPong }
