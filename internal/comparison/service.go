// Package comparison runs a keyword comparison end to end: location
// resolution, SERP fetches, intent classification and similarity analysis.
package comparison

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"serp-comparator/internal/intent"
	"serp-comparator/internal/location"
	"serp-comparator/internal/models"
	"serp-comparator/internal/serp"
	"serp-comparator/internal/similarity"
	errs "serp-comparator/pkg/errors"
	"serp-comparator/pkg/logging"
	"serp-comparator/pkg/metrics"
)

// DefaultConcurrency bounds per-request fan-out when none is configured.
const DefaultConcurrency = 4

// Comparer is what the web layer depends on.
type Comparer interface {
	Compare(ctx context.Context, req models.CompareRequest) (*models.CompareResponse, error)
}

// Service implements Comparer.
type Service struct {
	provider    serp.Provider
	classifier  intent.Classifier
	resolver    location.Resolver
	metrics     *metrics.Metrics
	logger      *logging.ComponentLogger
	concurrency int
}

var _ Comparer = (*Service)(nil)

// NewService wires the collaborators. A nil classifier or resolver falls back
// to the no-op implementations.
func NewService(p serp.Provider, c intent.Classifier, r location.Resolver, m *metrics.Metrics, logger *logging.Logger, concurrency int) *Service {
	if c == nil {
		c = intent.Noop{}
	}
	if r == nil {
		r = location.PassThrough{}
	}
	if m == nil {
		m = metrics.Default
	}
	if logger == nil {
		logger = logging.Nop()
	}
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Service{
		provider:    p,
		classifier:  c,
		resolver:    r,
		metrics:     m,
		logger:      logger.WithComponent("comparison"),
		concurrency: concurrency,
	}
}

// Compare fetches and classifies every keyword, then analyses the overlap.
// It fails only when no keyword could be fetched.
func (s *Service) Compare(ctx context.Context, req models.CompareRequest) (*models.CompareResponse, error) {
	log := s.logger.Ctx(ctx)
	start := time.Now()

	params := req.SearchParams
	if params.Location != "" {
		loc, err := s.resolver.Resolve(ctx, params.Location, params.Country)
		if err != nil {
			log.Warn("location not resolved, using input", logging.String("location", params.Location), logging.String("error", err.Error()))
		} else if loc != "" {
			params.Location = loc
		}
	}

	outcomes := make([]models.KeywordOutcome, len(req.Keywords))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, kw := range req.Keywords {
		i, kw := i, kw
		g.Go(func() error {
			outcomes[i] = s.run(gctx, kw, params)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		s.metrics.ObserveCompare(metrics.OutcomeError, 0)
		return nil, err
	}

	var failed []string
	for _, o := range outcomes {
		if o.Failed() {
			failed = append(failed, o.Keyword)
		}
	}
	if len(failed) == len(outcomes) {
		s.metrics.ObserveCompare(metrics.OutcomeError, 0)
		err := errs.NewAggregate("comparison.Compare", failed)
		log.Error("all keywords failed", err, logging.Strings("keywords", failed))
		return nil, err
	}
	if len(failed) > 0 {
		log.Warn("some keywords failed", logging.Strings("failed", failed), logging.Int("total", len(outcomes)))
	}

	resp := buildResponse(outcomes)
	resp.Failed = failed

	outcome := metrics.OutcomeSuccess
	if len(failed) > 0 {
		outcome = metrics.OutcomePartial
	}
	s.metrics.ObserveCompare(outcome, resp.Analysis.SimilarityScore)
	log.Info("comparison done",
		logging.Int("keywords", len(outcomes)),
		logging.Float64("similarity", resp.Analysis.SimilarityScore),
		logging.String("recommendation", string(resp.Analysis.Recommendation)),
		logging.Bool("partial", len(failed) > 0),
		logging.Duration("took", time.Since(start)))
	return resp, nil
}

// run fetches one keyword and classifies it. Classification problems never fail
// the keyword; they become a placeholder intent.
func (s *Service) run(ctx context.Context, kw string, params models.SearchParams) models.KeywordOutcome {
	log := s.logger.Ctx(ctx)
	results, err := s.provider.Search(ctx, kw, params)
	if err != nil {
		log.Warn("serp fetch failed", logging.Keyword(kw), logging.String("error", err.Error()))
		return models.KeywordOutcome{Keyword: kw, Err: err}
	}

	data, err := s.classifier.Classify(ctx, kw, results)
	if err != nil {
		log.Warn("intent analysis failed", logging.Keyword(kw), logging.String("error", err.Error()))
		data = models.IntentData{OverallIntent: intentErrorLabel(err)}
	}
	return models.KeywordOutcome{
		Keyword: kw,
		Results: intent.Attach(results, data),
		Intent:  data,
	}
}

// intentErrorLabel is the overall intent shown when classification failed.
func intentErrorLabel(err error) string {
	return models.IntentErrorPrefix + errs.Head(err.Error(), errs.MaxMessageLen) + "..."
}

func buildResponse(outcomes []models.KeywordOutcome) *models.CompareResponse {
	resp := &models.CompareResponse{
		SerpResults:   make([]models.KeywordReport, 0, len(outcomes)),
		SearchIntents: make(map[string]string, len(outcomes)),
	}
	sets := make([]models.KeywordResultSet, 0, len(outcomes))
	for _, o := range outcomes {
		sets = append(sets, o.ResultSet())
		rep := models.KeywordReport{
			Keyword:     o.Keyword,
			Results:     o.Results,
			PageIntents: o.Intent.PageIntents,
		}
		if rep.Results == nil {
			rep.Results = []models.Result{}
		}
		if rep.PageIntents == nil {
			rep.PageIntents = []models.PageIntent{}
		}
		if o.Failed() {
			rep.Error = errs.Surface(o.Err)
		} else {
			rep.OverallIntent = o.Intent.OverallIntent
			resp.SearchIntents[o.Keyword] = o.Intent.OverallIntent
		}
		resp.SerpResults = append(resp.SerpResults, rep)
	}
	resp.Analysis = similarity.Analyze(sets).Rounded()
	return resp
}
