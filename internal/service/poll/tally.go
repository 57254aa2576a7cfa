package poll

import "livepoll/internal/domain"

// AnswerSet maps a participant id to the option it chose
type AnswerSet map[string]string

// Clone returns an independent copy
func (a AnswerSet) Clone() AnswerSet {
	c := make(AnswerSet, len(a))
	for k, v := range a {
		c[k] = v
	}
	return c
}

// ComputeTally counts answers per option, in option order. Percentages are
// rounded half up against the number of answers and are all zero when there
// are none. Rounding drift (sums of 99 or 101) is left as is.
func ComputeTally(q domain.Question, answers AnswerSet) []domain.OptionResult {
	results := make([]domain.OptionResult, len(q.Options))
	index := make(map[string]int, len(q.Options))
	for i, option := range q.Options {
		results[i] = domain.OptionResult{Option: option}
		index[option] = i
	}

	total := len(answers)
	if total == 0 {
		return results
	}

	for _, answer := range answers {
		if i, ok := index[answer]; ok {
			results[i].Votes++
		}
	}

	for i := range results {
		results[i].Percentage = percentage(results[i].Votes, total)
	}
	return results
}

// percentage computes round-half-up(votes/total*100) in integer arithmetic
func percentage(votes, total int) int {
	if total <= 0 {
		return 0
	}
	return (votes*200 + total) / (2 * total)
}

func cloneResults(results []domain.OptionResult) []domain.OptionResult {
	return append([]domain.OptionResult(nil), results...)
}
