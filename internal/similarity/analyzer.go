// Package similarity computes cross-keyword overlap statistics over SERP result
// sets and turns them into a page-strategy recommendation. Everything here is
// pure and synchronous.
package similarity

import (
	"strings"

	"serp-comparator/internal/models"
)

// Weights applied to the overlap percentages. URL overlap dominates.
const (
	URLWeight     = 0.5
	TitleWeight   = 0.3
	SnippetWeight = 0.2
)

// Recommendation bands: score > MergeThreshold merges, score > SectionsThreshold
// keeps one page with sections, anything else is separate pages.
const (
	MergeThreshold    = 0.7
	SectionsThreshold = 0.4
)

// keywordSets maps a key to the set of keywords that produced it.
type keywordSets[K comparable] map[K]map[string]struct{}

// add records keyword under key. Repeated inserts are no-ops.
func (m keywordSets[K]) add(key K, keyword string) {
	set, ok := m[key]
	if !ok {
		set = make(map[string]struct{}, 1)
		m[key] = set
	}
	set[keyword] = struct{}{}
}

// shared counts the keys produced by more than one keyword.
func (m keywordSets[K]) shared() int {
	n := 0
	for _, set := range m {
		if len(set) > 1 {
			n++
		}
	}
	return n
}

func (m keywordSets[K]) overlap() models.Overlap {
	count := m.shared()
	return models.Overlap{Count: count, Percentage: percent(count, len(m))}
}

type urlAtPosition struct {
	url      string
	position int
}

// Analyze computes overlap statistics across the given result sets.
// Empty input, or sets without results, yield zero counts and a "separate
// pages" recommendation.
func Analyze(sets []models.KeywordResultSet) models.AnalysisResult {
	byPosition := keywordSets[urlAtPosition]{}
	byURL := keywordSets[string]{}
	byTitle := keywordSets[string]{}
	bySnippet := keywordSets[string]{}

	for _, set := range sets {
		for pos, r := range set.Results {
			if r.URL != "" {
				byPosition.add(urlAtPosition{url: r.URL, position: pos}, set.Keyword)
				byURL.add(r.URL, set.Keyword)
			}
			if t := strings.ToLower(r.Title); t != "" {
				byTitle.add(t, set.Keyword)
			}
			if s := strings.ToLower(r.Snippet); s != "" {
				bySnippet.add(s, set.Keyword)
			}
		}
	}

	res := models.AnalysisResult{
		TotalURLs:       len(byURL),
		TotalTitles:     len(byTitle),
		TotalSnippets:   len(bySnippet),
		ExactMatch:      byPosition.overlap(),
		CommonURLs:      byURL.overlap(),
		CommonTitles:    byTitle.overlap(),
		CommonSnippets:  bySnippet.overlap(),
		URLMultiplicity: map[int]int{},
	}

	res.SimilarityScore = (res.CommonURLs.Percentage*URLWeight +
		res.CommonTitles.Percentage*TitleWeight +
		res.CommonSnippets.Percentage*SnippetWeight) / 100
	res.Recommendation = Recommend(res.SimilarityScore)

	for _, kws := range byURL {
		if len(kws) > 1 {
			res.URLMultiplicity[len(kws)]++
		}
	}
	return res
}

// Recommend maps a similarity score onto its recommendation band.
func Recommend(score float64) models.Recommendation {
	switch {
	case score > MergeThreshold:
		return models.RecommendMerge
	case score > SectionsThreshold:
		return models.RecommendSections
	default:
		return models.RecommendSeparate
	}
}

func percent(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(count) / float64(total) * 100
}
