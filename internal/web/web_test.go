package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"

	"serp-comparator/internal/models"
	"serp-comparator/internal/presets"
	errs "serp-comparator/pkg/errors"
	"serp-comparator/pkg/logging"
	"serp-comparator/pkg/metrics"
)

type fakeComparer struct {
	resp *models.CompareResponse
	err  error
	got  models.CompareRequest
}

func (f *fakeComparer) Compare(ctx context.Context, req models.CompareRequest) (*models.CompareResponse, error) {
	f.got = req
	return f.resp, f.err
}

func sampleResponse() *models.CompareResponse {
	return &models.CompareResponse{
		SerpResults: []models.KeywordReport{
			{Keyword: "a", Results: []models.Result{{URL: "https://x.com", Title: "X", Domain: "x.com", Intent: models.IntentInformational}}, OverallIntent: models.IntentInformational, PageIntents: []models.PageIntent{}},
			{Keyword: "b", Results: []models.Result{}, PageIntents: []models.PageIntent{}, Error: "serp: boom"},
		},
		Analysis: models.AnalysisResult{
			TotalURLs:       1,
			SimilarityScore: 0.5,
			Recommendation:  models.RecommendSections,
			URLMultiplicity: map[int]int{2: 1},
		},
		SearchIntents: map[string]string{"a": models.IntentInformational},
	}
}

func newTestRouter(t *testing.T, c *fakeComparer, base string) http.Handler {
	t.Helper()
	r, err := NewRenderer(os.DirFS("../../web/templates"), base)
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	p, err := presets.Load("")
	if err != nil {
		t.Fatalf("presets: %v", err)
	}
	health := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	return NewRouter(Deps{
		Comparer:    c,
		Presets:     p,
		Renderer:    r,
		Static:      os.DirFS("../../web/static"),
		Health:      health,
		Logger:      logging.Nop(),
		Metrics:     metrics.New(),
		MaxKeywords: 4,
	})
}

func post(h http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCompareAPI_OK(t *testing.T) {
	c := &fakeComparer{resp: sampleResponse()}
	h := newTestRouter(t, c, "/")

	rec := post(h, "/api/compare-serps", url.Values{"keyword1": {"a"}, "keyword2": {"b"}, "country": {"be"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	var body map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, k := range []string{"serp_results", "analysis", "search_intents"} {
		if _, ok := body[k]; !ok {
			t.Errorf("missing key %q", k)
		}
	}
	if !strings.Contains(string(body["analysis"]), `"common_url_counts":{"2":1}`) {
		t.Errorf("analysis = %s", body["analysis"])
	}
	if c.got.Country != "BE" || c.got.SearchEngine != "google.be" {
		t.Errorf("request not normalised: %+v", c.got.SearchParams)
	}
	if rec.Header().Get(RequestIDHeader) == "" {
		t.Errorf("missing request id header")
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("missing CORS header")
	}
}

func TestCompareAPI_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		form   url.Values
		err    error
		status int
		detail string
	}{
		{"no keywords", url.Values{"keyword1": {" "}}, nil, http.StatusBadRequest, "At least one keyword is required"},
		{"bad device", url.Values{"keyword1": {"a"}, "device": {"tv"}}, nil, http.StatusBadRequest, `device must be desktop or mobile, got "tv"`},
		{"all failed", url.Values{"keyword1": {"a"}, "keyword2": {"b"}}, errs.NewAggregate("comparison.Compare", []string{"a", "b"}), http.StatusInternalServerError, "Error fetching SERP for all keywords: a, b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestRouter(t, &fakeComparer{err: tt.err}, "/")
			rec := post(h, "/api/compare-serps", tt.form)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body["detail"] != tt.detail {
				t.Fatalf("detail = %q, want %q", body["detail"], tt.detail)
			}
		})
	}
}

func TestErrorDetailIsBounded(t *testing.T) {
	long := make([]string, 4)
	for i := range long {
		long[i] = strings.Repeat(string(rune('a'+i)), 200)
	}
	tests := []struct {
		name   string
		form   url.Values
		err    error
		status int
		run    string
	}{
		{"oversized search engine", url.Values{"keyword1": {"a"}, "search_engine": {strings.Repeat("x", 50000)}}, nil, http.StatusBadRequest, strings.Repeat("x", errs.MaxMessageLen)},
		{"oversized aggregate", url.Values{"keyword1": {"a"}}, errs.NewAggregate("comparison.Compare", long), http.StatusInternalServerError, long[1]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestRouter(t, &fakeComparer{err: tt.err}, "/")

			rec := post(h, "/api/compare-serps", tt.form)
			if rec.Code != tt.status {
				t.Fatalf("api status = %d, want %d", rec.Code, tt.status)
			}
			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if n := len(body["detail"]); n == 0 || n > errs.MaxMessageLen+3 {
				t.Fatalf("detail length = %d", n)
			}

			rec = post(h, "/compare", tt.form)
			if rec.Code != tt.status {
				t.Fatalf("page status = %d, want %d", rec.Code, tt.status)
			}
			if strings.Contains(rec.Body.String(), tt.run) {
				t.Fatalf("error page echoes the unbounded message")
			}
		})
	}
}

func TestIndexAndResultsPages(t *testing.T) {
	h := newTestRouter(t, &fakeComparer{resp: sampleResponse()}, "/tools/serp/")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tools/serp/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("index status = %d", rec.Code)
	}
	page := rec.Body.String()
	if !strings.Contains(page, `name="keyword4"`) || !strings.Contains(page, `/tools/serp/api/compare-serps`) {
		t.Fatalf("index page missing form fields")
	}

	rec = post(h, "/tools/serp/compare", url.Values{"keyword1": {"a"}, "keyword2": {"b"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("results status = %d", rec.Code)
	}
	page = rec.Body.String()
	if !strings.Contains(page, "Similarity: 50%") || !strings.Contains(page, "serp: boom") {
		t.Fatalf("results page incomplete: %s", page)
	}

	rec = post(h, "/tools/serp/compare", url.Values{})
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "At least one keyword is required") {
		t.Fatalf("error page: %d %s", rec.Code, rec.Body.String())
	}
}

func TestStaticAndHealth(t *testing.T) {
	h := newTestRouter(t, &fakeComparer{}, "/")
	for _, path := range []string{"/static/app.js", "/healthz"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("%s status = %d", path, rec.Code)
		}
	}
}

func TestCORSPreflight(t *testing.T) {
	h := newTestRouter(t, &fakeComparer{}, "/")
	req := httptest.NewRequest(http.MethodOptions, "/api/compare-serps", nil)
	req.Header.Set("Origin", "https://example.org")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent || rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("preflight: %d %v", rec.Code, rec.Header())
	}
}

func TestRecoverMiddleware(t *testing.T) {
	h := Recover(logging.Nop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestRequestID_ReusesIncoming(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { seen = logging.RequestIDFrom(r.Context()) }))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if seen != "abc-123" || rec.Header().Get(RequestIDHeader) != "abc-123" {
		t.Fatalf("request id = %q / %q", seen, rec.Header().Get(RequestIDHeader))
	}
}
