package comparison

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"serp-comparator/internal/intent"
	"serp-comparator/internal/models"
	mocks "serp-comparator/internal/testing"
	errs "serp-comparator/pkg/errors"
	"serp-comparator/pkg/logging"
	"serp-comparator/pkg/metrics"
)

func results(urls ...string) []models.Result {
	out := make([]models.Result, 0, len(urls))
	for i, u := range urls {
		out = append(out, models.Result{URL: u, Title: "t " + u, Snippet: "s " + u, Position: i})
	}
	return out
}

func newService(p *mocks.MockProvider, c intent.Classifier, m *metrics.Metrics) *Service {
	return NewService(p, c, nil, m, logging.Nop(), 2)
}

func request(kws ...string) models.CompareRequest {
	return models.CompareRequest{
		Keywords: kws,
		SearchParams: models.SearchParams{
			Country: "FR", SearchEngine: "google.fr", NumResults: 10, Language: "fr", Device: "desktop",
		},
	}
}

func TestCompare_IdenticalSERPs(t *testing.T) {
	p := mocks.NewMockProvider()
	p.Resp["a"] = results("https://x.com/1", "https://y.com/2")
	p.Resp["b"] = results("https://x.com/1", "https://y.com/2")
	m := metrics.New()

	resp, err := newService(p, intent.Noop{}, m).Compare(context.Background(), request("a", "b"))
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if resp.Analysis.Recommendation != models.RecommendMerge {
		t.Fatalf("recommendation = %q", resp.Analysis.Recommendation)
	}
	if resp.Analysis.CommonURLs.Percentage != 100 || resp.Analysis.URLMultiplicity[2] != 2 {
		t.Fatalf("unexpected analysis: %+v", resp.Analysis)
	}
	if resp.SearchIntents["a"] != models.IntentUnavailable {
		t.Fatalf("expected unavailable placeholder, got %q", resp.SearchIntents["a"])
	}
	if got := testutil.ToFloat64(m.CompareRequests.WithLabelValues(metrics.OutcomeSuccess)); got != 1 {
		t.Fatalf("success counter = %v", got)
	}
}

func TestCompare_PreservesInputOrder(t *testing.T) {
	p := mocks.NewMockProvider()
	kws := []string{"d", "c", "b", "a", "e"}
	for _, k := range kws {
		p.Resp[k] = results("https://" + k + ".com")
	}
	resp, err := newService(p, nil, metrics.New()).Compare(context.Background(), request(kws...))
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	for i, k := range kws {
		if resp.SerpResults[i].Keyword != k {
			t.Fatalf("position %d = %q, want %q", i, resp.SerpResults[i].Keyword, k)
		}
	}
}

func TestCompare_PartialFailure(t *testing.T) {
	p := mocks.NewMockProvider()
	p.Resp["ok"] = results("https://x.com")
	p.Err["bad"] = errs.NewProvider("valueserp.Search", "bad", strings.Repeat("boom ", 60), 502, nil)
	m := metrics.New()

	resp, err := newService(p, nil, m).Compare(context.Background(), request("ok", "bad"))
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	bad := resp.SerpResults[1]
	if bad.Keyword != "bad" || bad.Error == "" || len(bad.Results) != 0 {
		t.Fatalf("unexpected failed report: %+v", bad)
	}
	if len(bad.Error) != errs.MaxMessageLen+3 || !strings.HasSuffix(bad.Error, "...") {
		t.Fatalf("error not truncated: %q", bad.Error)
	}
	if _, ok := resp.SearchIntents["bad"]; ok {
		t.Fatalf("failed keyword must not appear in search intents")
	}
	if _, ok := resp.SearchIntents["ok"]; !ok {
		t.Fatalf("successful keyword missing from search intents")
	}
	if len(resp.Failed) != 1 || resp.Failed[0] != "bad" {
		t.Fatalf("failed = %v", resp.Failed)
	}
	if resp.Analysis.TotalURLs != 1 || resp.Analysis.CommonURLs.Count != 0 {
		t.Fatalf("failed keyword should contribute an empty set: %+v", resp.Analysis)
	}
	if got := testutil.ToFloat64(m.CompareRequests.WithLabelValues(metrics.OutcomePartial)); got != 1 {
		t.Fatalf("partial counter = %v", got)
	}
}

func TestCompare_AllFailed(t *testing.T) {
	p := mocks.NewMockProvider()
	p.Err["a"] = errors.New("down")
	p.Err["b"] = errors.New("down")
	m := metrics.New()

	resp, err := newService(p, nil, m).Compare(context.Background(), request("a", "b"))
	if resp != nil {
		t.Fatalf("expected nil response")
	}
	if !errs.Is(err, errs.ErrAggregate) {
		t.Fatalf("expected aggregate error, got %v", err)
	}
	if err.Error() != "Error fetching SERP for all keywords: a, b" {
		t.Fatalf("message = %q", err.Error())
	}
	if got := testutil.ToFloat64(m.CompareRequests.WithLabelValues(metrics.OutcomeError)); got != 1 {
		t.Fatalf("error counter = %v", got)
	}
}

func TestCompare_ClassificationErrorBecomesPlaceholder(t *testing.T) {
	p := mocks.NewMockProvider()
	p.Resp["a"] = results("https://x.com")
	p.Resp["b"] = results("https://y.com")
	c := mocks.NewMockClassifier()
	c.Err["a"] = errs.NewClassification("intent.Classify", "a", "malformed response", nil)
	c.Resp["b"] = models.IntentData{
		OverallIntent: models.IntentTransactional,
		PageIntents:   []models.PageIntent{{Position: 1, Intent: models.IntentTransactional, Explanation: "shop"}},
	}

	resp, err := newService(p, c, metrics.New()).Compare(context.Background(), request("a", "b"))
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if got := resp.SearchIntents["a"]; !strings.HasPrefix(got, models.IntentErrorPrefix) {
		t.Fatalf("intent for a = %q", got)
	}
	if resp.SerpResults[0].Error != "" {
		t.Fatalf("classification failure must not mark the keyword failed")
	}
	if resp.SerpResults[1].Results[0].Intent != models.IntentTransactional {
		t.Fatalf("page intent not attached: %+v", resp.SerpResults[1].Results[0])
	}
}

func TestIntentErrorLabel(t *testing.T) {
	short := intentErrorLabel(errors.New("bad json"))
	if short != models.IntentErrorPrefix+"bad json..." {
		t.Fatalf("short label = %q", short)
	}
	long := intentErrorLabel(errors.New(strings.Repeat("z", 300)))
	if long != models.IntentErrorPrefix+strings.Repeat("z", errs.MaxMessageLen)+"..." {
		t.Fatalf("long label = %q", long)
	}
}

func TestCompare_ResolvesLocationOnce(t *testing.T) {
	p := mocks.NewMockProvider()
	r := mocks.NewMockResolver()
	r.Resp["paris"] = "Paris,Ile-de-France,France"
	req := request("a", "b", "c")
	req.Location = "paris"

	svc := NewService(p, nil, r, metrics.New(), logging.Nop(), 4)
	if _, err := svc.Compare(context.Background(), req); err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if r.Calls != 1 {
		t.Fatalf("resolver called %d times", r.Calls)
	}
	for _, params := range p.Params {
		if params.Location != "Paris,Ile-de-France,France" {
			t.Fatalf("location not passed through: %q", params.Location)
		}
	}
}

func TestCompare_ResolverErrorKeepsInput(t *testing.T) {
	p := mocks.NewMockProvider()
	r := mocks.NewMockResolver()
	r.Err = errors.New("quota")
	req := request("a")
	req.Location = "Lyon"

	if _, err := NewService(p, nil, r, metrics.New(), logging.Nop(), 1).Compare(context.Background(), req); err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if p.Params[0].Location != "Lyon" {
		t.Fatalf("location = %q", p.Params[0].Location)
	}
}

func TestCompare_CancelledContext(t *testing.T) {
	p := mocks.NewMockProvider()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := newService(p, nil, metrics.New()).Compare(ctx, request("a")); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
