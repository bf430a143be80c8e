package insight

import "strings"

// Insight types
const (
	TypeBudget   = "budget_update"
	TypeIntent   = "intent_level"
	TypeArea     = "area_preference"
	TypeUrgency  = "urgency"
)

// Result is a single signal extracted from a chat message
type Result struct {
	Type       string   `json:"type"`
	Keywords   []string `json:"keywords"`
	Message    string   `json:"message"`
	Sentiment  string   `json:"sentiment,omitempty"`
	Level      string   `json:"level,omitempty"`
	Confidence float64  `json:"confidence"`
}

var (
	budgetKeywords  = []string{"budget", "price", "cost", "expensive", "cheap", "afford", "money"}
	intentKeywords  = []string{"interested", "buy", "purchase", "viewing", "visit", "see", "love", "perfect"}
	highIntent      = []string{"love", "perfect", "buy", "purchase"}
	areaKeywords    = []string{"location", "area", "neighborhood", "district", "near", "close to"}
	urgencyKeywords = []string{"urgent", "asap", "soon", "quickly", "immediately", "this week", "today"}
)

// Classify extracts insights from a message using keyword heuristics.
// Matching is case-insensitive substring containment.
func Classify(text string) []Result {
	lower := strings.ToLower(text)
	var results []Result

	if matched := matchKeywords(lower, budgetKeywords); len(matched) > 0 {
		sentiment := "positive"
		if strings.Contains(lower, "expensive") || strings.Contains(lower, "too much") {
			sentiment = "negative"
		}
		results = append(results, Result{
			Type:       TypeBudget,
			Keywords:   matched,
			Message:    text,
			Sentiment:  sentiment,
			Confidence: 0.8,
		})
	}

	if matched := matchKeywords(lower, intentKeywords); len(matched) > 0 {
		level := "medium"
		confidence := 0.7
		if len(matchKeywords(lower, highIntent)) > 0 {
			level = "high"
			confidence = 0.9
		}
		results = append(results, Result{
			Type:       TypeIntent,
			Keywords:   matched,
			Message:    text,
			Level:      level,
			Confidence: confidence,
		})
	}

	if matched := matchKeywords(lower, areaKeywords); len(matched) > 0 {
		results = append(results, Result{
			Type:       TypeArea,
			Keywords:   matched,
			Message:    text,
			Confidence: 0.7,
		})
	}

	if matched := matchKeywords(lower, urgencyKeywords); len(matched) > 0 {
		results = append(results, Result{
			Type:       TypeUrgency,
			Keywords:   matched,
			Message:    text,
			Level:      "high",
			Confidence: 0.85,
		})
	}

	return results
}

func matchKeywords(lower string, keywords []string) []string {
	var matched []string
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			matched = append(matched, kw)
		}
	}
	return matched
}
