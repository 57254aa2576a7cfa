package poll

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"livepoll/internal/domain"
)

// Coordinator owns the question, roster, answer and history state of one
// poll session. Every intent, including the deadline timer, runs inside the
// same critical section, so "has everyone answered" and "is this round still
// open" are always decided against a consistent state. Events are handed to
// the Emitter while the lock is held, which keeps per-connection event order
// equal to mutation order.
type Coordinator struct {
	mu sync.Mutex

	emitter             Emitter
	scheduler           Scheduler
	now                 func() time.Time
	logger              *zap.Logger
	observers           []RoundObserver
	retainDepartedVotes bool

	state    domain.SessionState
	active   *domain.Question
	timer    Timer
	nextID   int64
	roster   *Roster
	departed AnswerSet
	history  *History
	closed   bool
}

// Option configures a Coordinator
type Option func(*Coordinator)

// WithScheduler replaces the runtime timer used for question deadlines
func WithScheduler(s Scheduler) Option {
	return func(c *Coordinator) { c.scheduler = s }
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(c *Coordinator) { c.logger = logger }
}

// WithObserver adds a resolved-round observer
func WithObserver(o RoundObserver) Option {
	return func(c *Coordinator) { c.observers = append(c.observers, o) }
}

// WithRetainDepartedVotes controls whether a participant who leaves after
// answering still counts in the tally of the running round.
func WithRetainDepartedVotes(retain bool) Option {
	return func(c *Coordinator) { c.retainDepartedVotes = retain }
}

// NewCoordinator creates an idle session
func NewCoordinator(emitter Emitter, opts ...Option) *Coordinator {
	c := &Coordinator{
		emitter:             emitter,
		scheduler:           runtimeScheduler{},
		now:                 time.Now,
		logger:              zap.NewNop(),
		retainDepartedVotes: true,
		state:               domain.StateIdle,
		roster:              NewRoster(),
		departed:            make(AnswerSet),
		history:             NewHistory(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// JoinPresenter adds a connection to the presenter audience and pushes the
// current question, tally, roster and history to it.
func (c *Coordinator) JoinPresenter(connID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.roster.Has(connID) {
		c.dropParticipantLocked(connID)
	}
	c.emitter.JoinPresenters(connID)

	if c.active != nil {
		q := c.active.Clone()
		c.emitter.EmitToOne(connID, domain.QuestionStarted{
			Question:         q,
			RemainingSeconds: q.RemainingSeconds(c.now()),
		})
		c.emitter.EmitToOne(connID, c.tallyEventLocked(nil))
	}
	c.emitter.EmitToOne(connID, c.rosterEventLocked())
	c.emitter.EmitToOne(connID, domain.HistorySnapshot{Entries: c.history.Snapshot()})

	c.logger.Info("Presenter joined", zap.String("connection_id", connID))
}

// JoinParticipant adds or renames a participant. When a question is active
// the participant receives it with the time left, and its results when it
// had already answered.
func (c *Coordinator) JoinParticipant(connID, displayName string) {
	displayName = strings.TrimSpace(displayName)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.emitter.JoinParticipants(connID)
	rejoined := c.roster.Join(connID, displayName)

	if c.active == nil {
		c.emitter.EmitToPresenters(c.rosterEventLocked())
		c.logger.Info("Participant joined",
			zap.String("connection_id", connID),
			zap.String("display_name", displayName),
			zap.Bool("rejoined", rejoined))
		return
	}

	if answer, ok := c.departed[connID]; ok {
		delete(c.departed, connID)
		c.roster.Restore(connID, answer)
	}

	q := c.active.Clone()
	answer, answered := c.roster.Answer(connID)
	c.emitter.EmitToOne(connID, domain.QuestionStarted{
		Question:         q,
		RemainingSeconds: q.RemainingSeconds(c.now()),
		HasAnswered:      answered,
	})
	if answered {
		c.emitter.EmitToOne(connID, domain.AnswerAccepted{
			QuestionID: q.ID,
			Option:     answer,
			Results:    c.tallyLocked(),
		})
	}
	c.emitter.EmitToPresenters(c.rosterEventLocked())
	c.emitter.EmitToPresenters(c.tallyEventLocked(nil))

	c.logger.Info("Participant joined",
		zap.String("connection_id", connID),
		zap.String("display_name", displayName),
		zap.Bool("rejoined", rejoined),
		zap.Int64("question_id", q.ID))
}

// AskQuestion opens a new round
func (c *Coordinator) AskQuestion(text string, options []string, timeLimitSeconds int) (domain.Question, error) {
	q, err := newQuestion(text, options, timeLimitSeconds)
	if err != nil {
		return domain.Question{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return domain.Question{}, domain.ErrSessionClosed
	}
	if c.state != domain.StateIdle {
		return domain.Question{}, domain.ErrQuestionAlreadyActive
	}

	c.nextID++
	q.ID = c.nextID
	q.StartedAt = c.now()
	c.active = &q
	c.state = domain.StateActive
	c.roster.ClearAnswers()
	c.departed = make(AnswerSet)

	id := q.ID
	c.timer = c.scheduler.AfterFunc(time.Duration(q.TimeLimitSeconds)*time.Second, func() {
		c.deadlineElapsed(id)
	})

	c.emitter.EmitToAll(domain.QuestionStarted{
		Question:         q.Clone(),
		RemainingSeconds: q.TimeLimitSeconds,
	})
	c.emitter.EmitToPresenters(c.rosterEventLocked())
	c.emitter.EmitToPresenters(c.tallyEventLocked(nil))

	c.logger.Info("Question started",
		zap.Int64("question_id", q.ID),
		zap.Int("options", len(q.Options)),
		zap.Int("time_limit_seconds", q.TimeLimitSeconds),
		zap.Int("participants", c.roster.Total()))

	return q.Clone(), nil
}

// SubmitAnswer records a participant's first answer and resolves the round
// early once every connected participant has answered.
func (c *Coordinator) SubmitAnswer(participantID, option string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != domain.StateActive || c.active == nil {
		return domain.ErrNoActiveQuestion
	}
	if !c.roster.Has(participantID) {
		return domain.ErrUnknownParticipant
	}
	if _, answered := c.roster.Answer(participantID); answered {
		return domain.ErrAlreadyAnswered
	}
	if !c.active.HasOption(option) {
		return fmt.Errorf("%w: %q", domain.ErrInvalidOption, option)
	}
	if err := c.roster.Record(participantID, option); err != nil {
		return err
	}

	q := c.active
	results := c.tallyLocked()
	c.emitter.EmitToOne(participantID, domain.AnswerAccepted{
		QuestionID: q.ID,
		Option:     option,
		Results:    results,
	})
	c.emitter.EmitToPresenters(c.tallyEventLocked(&domain.AnswerNotice{
		ParticipantID: participantID,
		DisplayName:   c.roster.DisplayName(participantID),
		Option:        option,
	}))
	c.emitter.EmitToPresenters(c.rosterEventLocked())

	c.logger.Debug("Answer recorded",
		zap.Int64("question_id", q.ID),
		zap.String("participant_id", participantID),
		zap.Int("answered", c.roster.AnsweredCount()),
		zap.Int("total", c.roster.Total()))

	if c.roster.AllAnswered() {
		c.resolveLocked(q.ID, domain.ResolvedByAllAnswered)
	}
	return nil
}

// EndQuestion resolves the active round on the presenter's request
func (c *Coordinator) EndQuestion() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != domain.StateActive || c.active == nil {
		return domain.ErrNoActiveQuestion
	}
	c.resolveLocked(c.active.ID, domain.ResolvedByPresenter)
	return nil
}

// RemoveParticipant takes a participant off the roster and tells it so
func (c *Coordinator) RemoveParticipant(participantID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.roster.Has(participantID) {
		return domain.ErrUnknownParticipant
	}
	c.dropParticipantLocked(participantID)
	c.emitter.LeaveParticipants(participantID)
	c.emitter.EmitToOne(participantID, domain.Removed{})

	c.logger.Info("Participant removed", zap.String("participant_id", participantID))
	return nil
}

// Disconnect handles a closed connection. Unknown ids are ignored.
func (c *Coordinator) Disconnect(connID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.roster.Has(connID) {
		return
	}
	c.dropParticipantLocked(connID)
	c.logger.Info("Participant disconnected", zap.String("participant_id", connID))
}

// RequestHistory sends the history log to one connection
func (c *Coordinator) RequestHistory(connID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.emitter.EmitToOne(connID, domain.HistorySnapshot{Entries: c.history.Snapshot()})
}

// History returns every resolved round, oldest first
func (c *Coordinator) History() []domain.HistoryEntry {
	return c.history.Snapshot()
}

// Status returns a snapshot of the session
func (c *Coordinator) Status() domain.SessionStatus {
	c.mu.Lock()
	defer c.mu.Unlock()

	status := domain.SessionStatus{
		State:         c.state,
		Participants:  c.roster.List(),
		Results:       []domain.OptionResult{},
		AnsweredCount: c.roster.AnsweredCount(),
		Total:         c.roster.Total(),
		HistorySize:   c.history.Len(),
	}
	if c.active != nil {
		q := c.active.Clone()
		status.Question = &q
		status.RemainingSeconds = q.RemainingSeconds(c.now())
		status.Results = c.tallyLocked()
	}
	return status
}

// Close cancels a pending deadline and refuses new questions. A round still
// open stays open.
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// deadlineElapsed is the timer's intent. It only acts when the round it was
// scheduled for is still the active one.
func (c *Coordinator) deadlineElapsed(questionID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.resolveLocked(questionID, domain.ResolvedByTimeout) {
		c.logger.Debug("Ignoring stale question deadline", zap.Int64("question_id", questionID))
	}
}

// resolveLocked closes round questionID exactly once. Every later or
// concurrent attempt for the same round finds the session idle, or another
// round active, and does nothing.
func (c *Coordinator) resolveLocked(questionID int64, reason domain.ResolutionReason) bool {
	if c.state != domain.StateActive || c.active == nil || c.active.ID != questionID {
		return false
	}

	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}

	entry := domain.HistoryEntry{
		Question:   c.active.Clone(),
		Results:    c.tallyLocked(),
		Reason:     reason,
		ResolvedAt: c.now(),
	}
	c.history.Append(entry)
	c.state = domain.StateIdle
	c.active = nil

	c.emitter.EmitToAll(domain.QuestionResolved{
		Question: entry.Question.Clone(),
		Results:  cloneResults(entry.Results),
		Reason:   reason,
	})
	for _, o := range c.observers {
		o.RoundResolved(cloneEntry(entry))
	}

	c.logger.Info("Question resolved",
		zap.Int64("question_id", questionID),
		zap.String("reason", string(reason)),
		zap.Int("answers", c.roster.AnsweredCount()+len(c.departed)),
		zap.Int("history_size", c.history.Len()))
	return true
}

func (c *Coordinator) dropParticipantLocked(id string) {
	answer, answered := c.roster.Remove(id)
	if answered && c.active != nil && c.retainDepartedVotes {
		c.departed[id] = answer
	}

	c.emitter.EmitToPresenters(c.rosterEventLocked())
	if c.active != nil {
		c.emitter.EmitToPresenters(c.tallyEventLocked(nil))
	}
}

// tallyLocked counts the roster's answers plus retained answers of
// participants who left during the round.
func (c *Coordinator) tallyLocked() []domain.OptionResult {
	if c.active == nil {
		return []domain.OptionResult{}
	}
	answers := c.roster.Answers()
	for id, answer := range c.departed {
		if _, ok := answers[id]; !ok {
			answers[id] = answer
		}
	}
	return ComputeTally(*c.active, answers)
}

func (c *Coordinator) tallyEventLocked(notice *domain.AnswerNotice) domain.TallyUpdated {
	ev := domain.TallyUpdated{
		Results:       c.tallyLocked(),
		AnsweredCount: c.roster.AnsweredCount(),
		Total:         c.roster.Total(),
		Answer:        notice,
	}
	if c.active != nil {
		ev.QuestionID = c.active.ID
	}
	return ev
}

func (c *Coordinator) rosterEventLocked() domain.RosterUpdated {
	return domain.RosterUpdated{
		Participants:  c.roster.List(),
		AnsweredCount: c.roster.AnsweredCount(),
		Total:         c.roster.Total(),
	}
}

// newQuestion validates and normalizes an ask-question intent
func newQuestion(text string, options []string, timeLimitSeconds int) (domain.Question, error) {
	if len(options) < domain.MinOptions {
		return domain.Question{}, fmt.Errorf("%w: at least %d options are required", domain.ErrInvalidQuestion, domain.MinOptions)
	}
	if timeLimitSeconds < domain.MinTimeLimitSeconds || timeLimitSeconds > domain.MaxTimeLimitSeconds {
		return domain.Question{}, fmt.Errorf("%w: time limit must be between %d and %d seconds",
			domain.ErrInvalidQuestion, domain.MinTimeLimitSeconds, domain.MaxTimeLimitSeconds)
	}

	seen := make(map[string]struct{}, len(options))
	normalized := make([]string, 0, len(options))
	for _, option := range options {
		option = strings.TrimSpace(option)
		if option == "" {
			return domain.Question{}, fmt.Errorf("%w: options must not be empty", domain.ErrInvalidQuestion)
		}
		if _, dup := seen[option]; dup {
			return domain.Question{}, fmt.Errorf("%w: duplicate option %q", domain.ErrInvalidQuestion, option)
		}
		seen[option] = struct{}{}
		normalized = append(normalized, option)
	}

	return domain.Question{
		Text:             strings.TrimSpace(text),
		Options:          normalized,
		TimeLimitSeconds: timeLimitSeconds,
	}, nil
}
