package poll

import "livepoll/internal/domain"

// Roster tracks joined participants in join order together with the answer
// set of the current question. It is not safe for concurrent use; the
// Coordinator owns it.
type Roster struct {
	names   map[string]string
	order   []string
	answers AnswerSet
}

// NewRoster creates an empty roster
func NewRoster() *Roster {
	return &Roster{
		names:   make(map[string]string),
		answers: make(AnswerSet),
	}
}

// Join adds a participant, or renames it in place when the id is already
// present. A recorded answer survives a rejoin. Returns true on rejoin.
func (r *Roster) Join(id, displayName string) bool {
	if _, ok := r.names[id]; ok {
		r.names[id] = displayName
		return true
	}
	r.names[id] = displayName
	r.order = append(r.order, id)
	return false
}

// Remove deletes the participant and its answer, returning the answer it had
func (r *Roster) Remove(id string) (answer string, answered bool) {
	if _, ok := r.names[id]; !ok {
		return "", false
	}
	delete(r.names, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	answer, answered = r.answers[id]
	delete(r.answers, id)
	return answer, answered
}

// Has reports whether id is on the roster
func (r *Roster) Has(id string) bool {
	_, ok := r.names[id]
	return ok
}

// DisplayName returns the participant's name, empty when unknown
func (r *Roster) DisplayName(id string) string {
	return r.names[id]
}

// Record stores the first answer of a participant. Later answers are refused.
func (r *Roster) Record(id, option string) error {
	if !r.Has(id) {
		return domain.ErrUnknownParticipant
	}
	if _, ok := r.answers[id]; ok {
		return domain.ErrAlreadyAnswered
	}
	r.answers[id] = option
	return nil
}

// Restore puts back an answer recorded before the participant left
func (r *Roster) Restore(id, option string) {
	if r.Has(id) {
		r.answers[id] = option
	}
}

// Answer returns the participant's answer for the current question
func (r *Roster) Answer(id string) (string, bool) {
	answer, ok := r.answers[id]
	return answer, ok
}

// ClearAnswers empties the answer set for a new question
func (r *Roster) ClearAnswers() {
	r.answers = make(AnswerSet)
}

// Answers returns a copy of the answer set
func (r *Roster) Answers() AnswerSet {
	return r.answers.Clone()
}

// List returns the participants in join order
func (r *Roster) List() []domain.Participant {
	list := make([]domain.Participant, 0, len(r.order))
	for _, id := range r.order {
		answer, answered := r.answers[id]
		list = append(list, domain.Participant{
			ID:          id,
			DisplayName: r.names[id],
			HasAnswered: answered,
			Answer:      answer,
		})
	}
	return list
}

// Total is the number of participants on the roster
func (r *Roster) Total() int {
	return len(r.order)
}

// AnsweredCount is the number of participants with an answer
func (r *Roster) AnsweredCount() int {
	return len(r.answers)
}

// AllAnswered is true when the roster is non-empty and everyone answered
func (r *Roster) AllAnswered() bool {
	return len(r.order) > 0 && len(r.answers) == len(r.order)
}
