// Package intent classifies the search intent of a keyword's SERP with an LLM.
package intent

import (
	"context"

	"serp-comparator/internal/models"
)

// Classifier labels a keyword and its top results with search intents.
// Failures are *errors.ClassificationError.
type Classifier interface {
	Classify(ctx context.Context, keyword string, results []models.Result) (models.IntentData, error)
}

// Noop is used when no LLM key is configured.
type Noop struct{}

var _ Classifier = Noop{}

func (Noop) Classify(context.Context, string, []models.Result) (models.IntentData, error) {
	return models.IntentData{OverallIntent: models.IntentUnavailable}, nil
}

// Attach copies page intents onto the first models.IntentTopN results, matching
// on 1-based position. Results without a matching intent get the "not analyzed"
// label. Nothing is attached when there are no page intents.
func Attach(results []models.Result, data models.IntentData) []models.Result {
	if len(data.PageIntents) == 0 {
		return results
	}
	byPos := make(map[int]models.PageIntent, len(data.PageIntents))
	for _, pi := range data.PageIntents {
		byPos[pi.Position] = pi
	}
	out := make([]models.Result, len(results))
	copy(out, results)
	for i := 0; i < len(out) && i < models.IntentTopN; i++ {
		if pi, ok := byPos[i+1]; ok {
			out[i].Intent = pi.Intent
			out[i].IntentExplanation = pi.Explanation
		} else {
			out[i].Intent = models.IntentNotAnalyzed
			out[i].IntentExplanation = ""
		}
	}
	return out
}
