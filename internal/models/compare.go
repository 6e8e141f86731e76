package models

// Form defaults applied when a field is absent.
const (
	DefaultCountry      = "FR"
	DefaultSearchEngine = "google.fr"
	DefaultNumResults   = 10
	DefaultLanguage     = "fr"
	DefaultDevice       = "desktop"
)

// CompareRequest is a validated comparison request.
type CompareRequest struct {
	Keywords []string
	SearchParams
}

// KeywordOutcome is the per-keyword result variant: either Results/Intent are
// set, or Err is.
type KeywordOutcome struct {
	Keyword string
	Results []Result
	Intent  IntentData
	Err     error
}

// Failed reports whether the keyword could not be fetched.
func (o KeywordOutcome) Failed() bool { return o.Err != nil }

// ResultSet returns the outcome as analyzer input. Failed outcomes contribute
// an empty set.
func (o KeywordOutcome) ResultSet() KeywordResultSet {
	if o.Failed() {
		return KeywordResultSet{Keyword: o.Keyword}
	}
	return KeywordResultSet{Keyword: o.Keyword, Results: o.Results}
}

// KeywordReport is the per-keyword section of a response.
type KeywordReport struct {
	Keyword       string       `json:"keyword"`
	Results       []Result     `json:"results"`
	OverallIntent string       `json:"overall_intent,omitempty"`
	PageIntents   []PageIntent `json:"page_intents"`
	Error         string       `json:"error,omitempty"`
}

// CompareResponse is the full answer to a comparison request.
type CompareResponse struct {
	SerpResults   []KeywordReport   `json:"serp_results"`
	Analysis      AnalysisResult    `json:"analysis"`
	SearchIntents map[string]string `json:"search_intents"`
	Failed        []string          `json:"failed_keywords,omitempty"`
}
