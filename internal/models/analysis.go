package models

import "math"

// Recommendation is the page-strategy advice derived from the similarity score.
type Recommendation string

const (
	RecommendMerge    Recommendation = "merge into one page recommended"
	RecommendSections Recommendation = "single page with per-keyword sections recommended"
	RecommendSeparate Recommendation = "separate pages recommended"
)

// Overlap is a count of shared entries and its share of the total, in [0,100].
type Overlap struct {
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// AnalysisResult holds the cross-keyword overlap statistics at full precision.
type AnalysisResult struct {
	TotalURLs     int `json:"total_urls"`
	TotalTitles   int `json:"total_titles"`
	TotalSnippets int `json:"total_snippets"`

	ExactMatch     Overlap `json:"exact_match"`
	CommonURLs     Overlap `json:"common_urls"`
	CommonTitles   Overlap `json:"common_titles"`
	CommonSnippets Overlap `json:"common_snippets"`

	SimilarityScore float64        `json:"similarity_score"`
	Recommendation  Recommendation `json:"recommendation"`

	// URLMultiplicity maps "number of keywords sharing a URL" to how many URLs
	// are shared that many times. Only sizes > 1 appear.
	URLMultiplicity map[int]int `json:"common_url_counts"`
}

// Rounded returns a copy with every percentage rounded to one decimal place,
// the precision used in API responses.
func (a AnalysisResult) Rounded() AnalysisResult {
	out := a
	out.ExactMatch.Percentage = round1(a.ExactMatch.Percentage)
	out.CommonURLs.Percentage = round1(a.CommonURLs.Percentage)
	out.CommonTitles.Percentage = round1(a.CommonTitles.Percentage)
	out.CommonSnippets.Percentage = round1(a.CommonSnippets.Percentage)
	out.URLMultiplicity = make(map[int]int, len(a.URLMultiplicity))
	for k, v := range a.URLMultiplicity {
		out.URLMultiplicity[k] = v
	}
	return out
}

// ScorePercent is the similarity score as a whole percentage, for display.
func (a AnalysisResult) ScorePercent() int {
	return int(math.Round(a.SimilarityScore * 100))
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
