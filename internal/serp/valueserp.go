package serp

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"serp-comparator/internal/models"
	"serp-comparator/pkg/circuit"
	errs "serp-comparator/pkg/errors"
	"serp-comparator/pkg/logging"
	"serp-comparator/pkg/metrics"
	"serp-comparator/pkg/utils"
)

const searchPath = "/search"

// Config configures a ValueSERPClient.
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// ValueSERPClient implements Provider on top of the ValueSERP search endpoint.
type ValueSERPClient struct {
	http    *resty.Client
	apiKey  string
	breaker *circuit.Breaker
	metrics *metrics.Metrics
	logger  *logging.ComponentLogger
}

var _ Provider = (*ValueSERPClient)(nil)

type searchResponse struct {
	RequestInfo struct {
		Success *bool  `json:"success"`
		Message string `json:"message"`
	} `json:"request_info"`
	OrganicResults []organicResult `json:"organic_results"`
}

type organicResult struct {
	Link    string `json:"link"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	Domain  string `json:"domain"`
}

// NewValueSERPClient builds a client. breaker and m may be nil.
func NewValueSERPClient(cfg Config, breaker *circuit.Breaker, m *metrics.Metrics, logger *logging.Logger) *ValueSERPClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if m == nil {
		m = metrics.Default
	}
	if logger == nil {
		logger = logging.Nop()
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "serp-comparator/1.0")

	return &ValueSERPClient{
		http:    client,
		apiKey:  cfg.APIKey,
		breaker: breaker,
		metrics: m,
		logger:  logger.WithComponent("serp"),
	}
}

// Search fetches the organic results for keyword. Results keep the API order
// and get 0-based positions.
func (c *ValueSERPClient) Search(ctx context.Context, keyword string, params models.SearchParams) ([]models.Result, error) {
	const op = "serp.Search"
	log := c.logger.Ctx(ctx)

	if c.apiKey == "" {
		c.metrics.ObserveSerp(metrics.OutcomeError, 0)
		return nil, errs.NewProvider(op, keyword, "api key not configured", 0, nil)
	}

	start := time.Now()
	var results []models.Result
	call := func(ctx context.Context) error {
		var err error
		results, err = c.fetch(ctx, op, keyword, params)
		return err
	}

	var err error
	if c.breaker != nil {
		err = c.breaker.Do(ctx, call)
	} else {
		err = call(ctx)
	}
	dur := time.Since(start)

	if err != nil {
		outcome := metrics.OutcomeError
		if errors.Is(err, circuit.ErrOpen) {
			outcome = metrics.OutcomeOpen
			err = errs.NewProvider(op, keyword, "provider temporarily unavailable", 0, err)
		}
		c.metrics.ObserveSerp(outcome, dur)
		log.Warn("SERP fetch failed", logging.Keyword(keyword), logging.Duration("duration", dur), logging.String("outcome", outcome), logging.String("error", err.Error()))
		return nil, err
	}

	c.metrics.ObserveSerp(metrics.OutcomeSuccess, dur)
	log.Info("SERP fetched", logging.Keyword(keyword), logging.Duration("duration", dur), logging.Int("results", len(results)))
	return results, nil
}

func (c *ValueSERPClient) fetch(ctx context.Context, op, keyword string, params models.SearchParams) ([]models.Result, error) {
	q := map[string]string{
		"api_key":       c.apiKey,
		"q":             keyword,
		"google_domain": params.SearchEngine,
		"gl":            params.Country,
		"hl":            params.Language,
		"num":           strconv.Itoa(params.NumResults),
		"device":        params.Device,
	}
	if params.Location != "" {
		q["location"] = params.Location
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(q).
		Get(searchPath)
	if err != nil {
		return nil, errs.NewProvider(op, keyword, "request failed", 0, stripKey(err, c.apiKey))
	}
	if resp.IsError() {
		return nil, errs.NewProvider(op, keyword, "unexpected status", resp.StatusCode(), errors.New(errs.Truncate(resp.String(), 200)))
	}

	var body searchResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return nil, errs.NewProvider(op, keyword, "invalid response body", resp.StatusCode(), err)
	}
	if s := body.RequestInfo.Success; s != nil && !*s {
		return nil, errs.NewProvider(op, keyword, utils.FirstNonEmpty(body.RequestInfo.Message, "request rejected"), resp.StatusCode(), nil)
	}

	out := make([]models.Result, 0, len(body.OrganicResults))
	for i, r := range body.OrganicResults {
		out = append(out, models.Result{
			URL:      r.Link,
			Title:    r.Title,
			Snippet:  r.Snippet,
			Position: i,
			Domain:   utils.FirstNonEmpty(r.Domain, utils.ExtractDomain(r.Link)),
		})
	}
	return out, nil
}

// stripKey keeps the API key out of transport errors, which embed the request URL.
func stripKey(err error, key string) error {
	msg := err.Error()
	if key == "" || !strings.Contains(msg, key) {
		return err
	}
	return &redactedError{msg: strings.ReplaceAll(msg, key, "***"), err: err}
}

type redactedError struct {
	msg string
	err error
}

func (e *redactedError) Error() string { return e.msg }
func (e *redactedError) Unwrap() error { return e.err }
