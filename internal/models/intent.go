package models

import "strings"

// Intent categories the classifier is asked to choose from.
const (
	IntentNavigational  = "Navigationnelle"
	IntentTransactional = "Transactionnelle"
	IntentInformational = "Informationnelle"
	IntentDecisional    = "Décisionnelle"
)

// IntentCategories lists the categories in prompt order.
var IntentCategories = []string{IntentNavigational, IntentTransactional, IntentInformational, IntentDecisional}

// Placeholder values shown instead of a real classification.
const (
	IntentUnavailable  = "Non disponible (clé API Gemini manquante)"
	IntentNotAnalyzed  = "Non analysé"
	IntentErrorPrefix  = "Erreur d'analyse: "
	IntentMissingLabel = "Non disponible"
)

// IntentTopN bounds how many results are sent to the classifier and annotated.
const IntentTopN = 10

// PageIntent is the classification of the result at a 1-based Position.
type PageIntent struct {
	Position    int    `json:"position"`
	Intent      string `json:"intent"`
	Explanation string `json:"explanation"`
}

// IntentData is the classifier output for one keyword.
type IntentData struct {
	OverallIntent string       `json:"overall_intent"`
	PageIntents   []PageIntent `json:"page_intents"`
}

// IntentClass maps a free-text intent label onto a CSS-friendly class name.
// Labels like "Informationnelle - explication" are matched on their prefix.
func IntentClass(label string) string {
	l := strings.ToLower(label)
	if i := strings.Index(l, " - "); i >= 0 {
		l = l[:i]
	}
	switch {
	case strings.Contains(l, "information"):
		return "informational"
	case strings.Contains(l, "transaction"):
		return "transactional"
	case strings.Contains(l, "navigation"):
		return "navigational"
	case strings.Contains(l, "décision"), strings.Contains(l, "decision"):
		return "decisional"
	default:
		return "other"
	}
}
