package intent

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"serp-comparator/internal/models"
)

// jsonSpan grabs everything from the first '{' to the last '}'.
var jsonSpan = regexp.MustCompile(`(?s)\{.*\}`)

type rawIntent struct {
	OverallIntent string          `json:"overall_intent"`
	PageIntents   []rawPageIntent `json:"page_intents"`
}

type rawPageIntent struct {
	Position    flexInt `json:"position"`
	Intent      string  `json:"intent"`
	Explanation string  `json:"explanation"`
}

// flexInt accepts 3 as well as "3"; models are not consistent about it.
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return fmt.Errorf("position %q is not a number", s)
		}
		*f = flexInt(n)
		return nil
	}
	var n int
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexInt(n)
	return nil
}

// parseResponse extracts the intent JSON from a model reply that may be wrapped
// in code fences or surrounded by prose.
func parseResponse(text string) (models.IntentData, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	if m := jsonSpan.FindString(text); m != "" {
		text = m
	}

	var raw rawIntent
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return models.IntentData{}, fmt.Errorf("invalid JSON in model reply: %w", err)
	}

	out := models.IntentData{
		OverallIntent: strings.TrimSpace(raw.OverallIntent),
		PageIntents:   make([]models.PageIntent, 0, len(raw.PageIntents)),
	}
	if out.OverallIntent == "" {
		out.OverallIntent = models.IntentMissingLabel
	}
	for _, p := range raw.PageIntents {
		out.PageIntents = append(out.PageIntents, models.PageIntent{
			Position:    int(p.Position),
			Intent:      strings.TrimSpace(p.Intent),
			Explanation: strings.TrimSpace(p.Explanation),
		})
	}
	return out, nil
}
