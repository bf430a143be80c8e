package insight

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findResult(results []Result, typ string) *Result {
	for i := range results {
		if results[i].Type == typ {
			return &results[i]
		}
	}
	return nil
}

func TestClassifyBudget(t *testing.T) {
	results := Classify("What is the PRICE for this one? It fits my budget")

	r := findResult(results, TypeBudget)
	require.NotNil(t, r)
	assert.ElementsMatch(t, []string{"budget", "price"}, r.Keywords)
	assert.Equal(t, "positive", r.Sentiment)
	assert.Equal(t, 0.8, r.Confidence)
}

func TestClassifyBudgetNegativeSentiment(t *testing.T) {
	r := findResult(Classify("that is way too expensive for me"), TypeBudget)
	require.NotNil(t, r)
	assert.Equal(t, "negative", r.Sentiment)

	r = findResult(Classify("the price is too much"), TypeBudget)
	require.NotNil(t, r)
	assert.Equal(t, "negative", r.Sentiment)
}

func TestClassifyIntentLevels(t *testing.T) {
	r := findResult(Classify("I am interested in a viewing"), TypeIntent)
	require.NotNil(t, r)
	assert.Equal(t, "medium", r.Level)
	assert.Equal(t, 0.7, r.Confidence)

	r = findResult(Classify("I love it, I want to buy"), TypeIntent)
	require.NotNil(t, r)
	assert.Equal(t, "high", r.Level)
	assert.Equal(t, 0.9, r.Confidence)
}

func TestClassifyAreaPreference(t *testing.T) {
	r := findResult(Classify("is it close to the business district?"), TypeArea)
	require.NotNil(t, r)
	assert.ElementsMatch(t, []string{"district", "close to"}, r.Keywords)
	assert.Equal(t, 0.7, r.Confidence)
}

func TestClassifyUrgency(t *testing.T) {
	r := findResult(Classify("I need to move this week, ASAP"), TypeUrgency)
	require.NotNil(t, r)
	assert.Equal(t, "high", r.Level)
	assert.Equal(t, 0.85, r.Confidence)
	assert.ElementsMatch(t, []string{"asap", "this week"}, r.Keywords)
}

func TestClassifyMultipleSignals(t *testing.T) {
	results := Classify("Love the location, what does it cost? Need it today")

	assert.NotNil(t, findResult(results, TypeBudget))
	assert.NotNil(t, findResult(results, TypeIntent))
	assert.NotNil(t, findResult(results, TypeArea))
	assert.NotNil(t, findResult(results, TypeUrgency))
}

func TestClassifyNoSignals(t *testing.T) {
	assert.Empty(t, Classify("hello there"))
	assert.Empty(t, Classify(""))
}
