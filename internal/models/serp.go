package models

// Result is one organic SERP entry. Position is the 0-based index within its
// keyword's result list; the display fields are filled later and never feed
// the similarity computation.
type Result struct {
	URL      string `json:"link"`
	Title    string `json:"title"`
	Snippet  string `json:"snippet"`
	Position int    `json:"position"`

	Domain            string `json:"domain,omitempty"`
	Intent            string `json:"intent,omitempty"`
	IntentExplanation string `json:"intent_explanation,omitempty"`
}

// KeywordResultSet is the ordered result list fetched for one keyword.
type KeywordResultSet struct {
	Keyword string
	Results []Result
}

// SearchParams are the query knobs passed to the SERP provider for every keyword
// of a request.
type SearchParams struct {
	Country      string // gl
	Location     string // optional, omitted when empty
	SearchEngine string // google_domain, e.g. google.fr
	NumResults   int
	Language     string // hl
	Device       string // desktop | mobile
}
