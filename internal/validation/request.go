package validation

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"serp-comparator/internal/models"
	"serp-comparator/internal/presets"
	errs "serp-comparator/pkg/errors"
	"serp-comparator/pkg/utils"
)

// KeywordFields is how many keywordN form fields are read.
const KeywordFields = 4

const (
	maxKeywordLen  = 200
	maxLocationLen = 200
	maxNumResults  = 100
	maxEchoLen     = 32
)

var (
	countryRegex  = regexp.MustCompile(`^[A-Za-z]{2}$`)
	languageRegex = regexp.MustCompile(`^[A-Za-z]{2}(-[A-Za-z]{2})?$`)
	domainRegex   = regexp.MustCompile(`^[a-z0-9-]+(\.[a-z0-9-]+)*\.[a-z]{2,}$`)
)

const op = "validation.ParseCompareForm"

func invalid(msg string) error { return errs.NewValidation(op, msg, nil) }

// echo bounds a user value quoted back in a message.
func echo(v string) string { return errs.Truncate(v, maxEchoLen) }

// ParseCompareForm turns the comparison form into a request. Missing optional
// fields get the country preset or the built-in defaults. maxKeywords caps how
// many distinct keywords are accepted.
func ParseCompareForm(form url.Values, maxKeywords int, p *presets.Presets) (models.CompareRequest, error) {
	var req models.CompareRequest

	keywords, err := Keywords(form, maxKeywords)
	if err != nil {
		return req, err
	}
	req.Keywords = keywords

	country := utils.FirstNonEmpty(strings.TrimSpace(form.Get("country")), models.DefaultCountry)
	if err := ValidateCountry(country); err != nil {
		return req, err
	}
	req.Country = strings.ToUpper(country)

	preset := presets.Preset{SearchEngine: models.DefaultSearchEngine, Language: models.DefaultLanguage}
	if p != nil {
		preset = p.For(req.Country)
	}

	engine := strings.ToLower(utils.FirstNonEmpty(strings.TrimSpace(form.Get("search_engine")), preset.SearchEngine))
	if !domainRegex.MatchString(engine) {
		return req, invalid(fmt.Sprintf("invalid search engine domain: %q", echo(engine)))
	}
	req.SearchEngine = engine

	lang := utils.FirstNonEmpty(strings.TrimSpace(form.Get("language")), preset.Language)
	if !languageRegex.MatchString(lang) {
		return req, invalid(fmt.Sprintf("invalid language code: %q", echo(lang)))
	}
	req.Language = strings.ToLower(lang)

	n, err := NumResults(form.Get("num_results"))
	if err != nil {
		return req, err
	}
	req.NumResults = n

	device := strings.ToLower(utils.FirstNonEmpty(strings.TrimSpace(form.Get("device")), models.DefaultDevice))
	if device != "desktop" && device != "mobile" {
		return req, invalid(fmt.Sprintf("device must be desktop or mobile, got %q", echo(device)))
	}
	req.Device = device

	loc := strings.TrimSpace(form.Get("location"))
	if utf8.RuneCountInString(loc) > maxLocationLen {
		return req, invalid(fmt.Sprintf("location must be at most %d characters", maxLocationLen))
	}
	req.Location = loc

	return req, nil
}

// Keywords reads keyword1..keyword4, trims, drops empties and collapses
// case-insensitive duplicates.
func Keywords(form url.Values, maxKeywords int) ([]string, error) {
	raw := make([]string, 0, KeywordFields)
	for i := 1; i <= KeywordFields; i++ {
		kw := utils.CleanKeyword(form.Get(fmt.Sprintf("keyword%d", i)))
		if kw == "" {
			continue
		}
		if utf8.RuneCountInString(kw) > maxKeywordLen {
			return nil, invalid(fmt.Sprintf("keyword %d must be at most %d characters", i, maxKeywordLen))
		}
		raw = append(raw, kw)
	}
	keywords := utils.DedupeFold(raw)
	if len(keywords) == 0 {
		return nil, invalid("At least one keyword is required")
	}
	if maxKeywords > 0 && len(keywords) > maxKeywords {
		return nil, invalid(fmt.Sprintf("at most %d keywords are allowed", maxKeywords))
	}
	return keywords, nil
}

// NumResults parses the result count; empty means the default.
func NumResults(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return models.DefaultNumResults, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > maxNumResults {
		return 0, invalid(fmt.Sprintf("num_results must be an integer between 1 and %d", maxNumResults))
	}
	return n, nil
}

// ValidateCountry checks a 2-letter country code.
func ValidateCountry(c string) error {
	if !countryRegex.MatchString(c) {
		return invalid(fmt.Sprintf("invalid country code: %q", echo(c)))
	}
	return nil
}
