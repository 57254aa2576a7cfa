package domain

import "errors"

// Intent rejections. None of them is fatal to the session.
var (
	ErrInvalidQuestion       = errors.New("invalid question")
	ErrQuestionAlreadyActive = errors.New("a question is already active")
	ErrNoActiveQuestion      = errors.New("no active question")
	ErrUnknownParticipant    = errors.New("unknown participant")
	ErrAlreadyAnswered       = errors.New("participant already answered")
	ErrInvalidOption         = errors.New("option is not part of the active question")
	ErrSessionClosed         = errors.New("session is shutting down")

	// Raised by the transport before an intent reaches the coordinator
	ErrInvalidRequest = errors.New("invalid request")
	ErrRateLimited    = errors.New("too many requests")
)

// RejectionKind is the machine-readable reason carried by a rejected event
type RejectionKind string

const (
	RejectInvalidQuestion       RejectionKind = "invalid_question"
	RejectQuestionAlreadyActive RejectionKind = "question_already_active"
	RejectNoActiveQuestion      RejectionKind = "no_active_question"
	RejectUnknownParticipant    RejectionKind = "unknown_participant"
	RejectAlreadyAnswered       RejectionKind = "already_answered"
	RejectInvalidOption         RejectionKind = "invalid_option"
	RejectSessionClosed         RejectionKind = "session_closed"
	RejectInvalidRequest        RejectionKind = "invalid_request"
	RejectRateLimited           RejectionKind = "rate_limited"
	RejectInternal              RejectionKind = "internal"
)

var rejectionKinds = []struct {
	err  error
	kind RejectionKind
}{
	{ErrInvalidQuestion, RejectInvalidQuestion},
	{ErrQuestionAlreadyActive, RejectQuestionAlreadyActive},
	{ErrNoActiveQuestion, RejectNoActiveQuestion},
	{ErrUnknownParticipant, RejectUnknownParticipant},
	{ErrAlreadyAnswered, RejectAlreadyAnswered},
	{ErrInvalidOption, RejectInvalidOption},
	{ErrSessionClosed, RejectSessionClosed},
	{ErrInvalidRequest, RejectInvalidRequest},
	{ErrRateLimited, RejectRateLimited},
}

// RejectionKindOf maps an intent error to its rejection kind
func RejectionKindOf(err error) RejectionKind {
	for _, rk := range rejectionKinds {
		if errors.Is(err, rk.err) {
			return rk.kind
		}
	}
	return RejectInternal
}

// IsBenign reports whether a rejection should be swallowed instead of shown
// to the end user.
func IsBenign(err error) bool {
	return errors.Is(err, ErrAlreadyAnswered)
}
