package poll

import (
	"math/rand"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"

	"livepoll/internal/domain"
)

func TestComputeTally(t *testing.T) {
	q := domain.Question{Options: []string{"Mars", "Venus", "Pluto"}}

	tests := []struct {
		name     string
		answers  AnswerSet
		expected []domain.OptionResult
	}{
		{
			name:    "no answers gives zero percentages",
			answers: AnswerSet{},
			expected: []domain.OptionResult{
				{Option: "Mars"}, {Option: "Venus"}, {Option: "Pluto"},
			},
		},
		{
			name:    "even split",
			answers: AnswerSet{"a": "Mars", "b": "Venus"},
			expected: []domain.OptionResult{
				{Option: "Mars", Votes: 1, Percentage: 50},
				{Option: "Venus", Votes: 1, Percentage: 50},
				{Option: "Pluto"},
			},
		},
		{
			name:    "thirds round independently",
			answers: AnswerSet{"a": "Mars", "b": "Venus", "c": "Pluto"},
			expected: []domain.OptionResult{
				{Option: "Mars", Votes: 1, Percentage: 33},
				{Option: "Venus", Votes: 1, Percentage: 33},
				{Option: "Pluto", Votes: 1, Percentage: 33},
			},
		},
		{
			name:    "two thirds rounds up",
			answers: AnswerSet{"a": "Mars", "b": "Mars", "c": "Venus"},
			expected: []domain.OptionResult{
				{Option: "Mars", Votes: 2, Percentage: 67},
				{Option: "Venus", Votes: 1, Percentage: 33},
				{Option: "Pluto"},
			},
		},
		{
			name: "exact half rounds up",
			answers: AnswerSet{
				"a": "Mars", "b": "Venus", "c": "Venus", "d": "Venus",
				"e": "Venus", "f": "Venus", "g": "Venus", "h": "Venus",
			},
			expected: []domain.OptionResult{
				{Option: "Mars", Votes: 1, Percentage: 13},
				{Option: "Venus", Votes: 7, Percentage: 88},
				{Option: "Pluto"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ComputeTally(q, tt.answers))
		})
	}
}

func TestComputeTally_IsDeterministic(t *testing.T) {
	q := domain.Question{Options: []string{"A", "B"}}
	answers := AnswerSet{"x": "A", "y": "B", "z": "A"}

	first := ComputeTally(q, answers)
	second := ComputeTally(q, answers)

	assert.Equal(t, first, second)
	assert.Equal(t, AnswerSet{"x": "A", "y": "B", "z": "A"}, answers, "input must not be modified")
}

func TestComputeTally_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 200; round++ {
		optionCount := 2 + rng.Intn(5)
		options := make([]string, optionCount)
		for i := range options {
			options[i] = "opt-" + strconv.Itoa(i)
		}
		q := domain.Question{Options: options}

		answers := AnswerSet{}
		for i := 0; i < rng.Intn(40); i++ {
			answers["p-"+strconv.Itoa(i)] = options[rng.Intn(optionCount)]
		}

		results := ComputeTally(q, answers)
		assert.Len(t, results, optionCount)

		sum := 0
		for i, r := range results {
			assert.Equal(t, options[i], r.Option, "results follow option order")
			assert.GreaterOrEqual(t, r.Percentage, 0)
			assert.LessOrEqual(t, r.Percentage, 100)
			sum += r.Votes
		}
		assert.Equal(t, len(answers), sum)
	}
}
