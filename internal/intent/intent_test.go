package intent

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"serp-comparator/internal/models"
	"serp-comparator/internal/prompts"
	errs "serp-comparator/pkg/errors"
	"serp-comparator/pkg/logging"
	"serp-comparator/pkg/metrics"
)

func TestParseResponse(t *testing.T) {
	tests := []struct {
		name      string
		in        string
		wantErr   bool
		overall   string
		positions []int
	}{
		{
			name:      "plain json",
			in:        `{"overall_intent":"Informationnelle - x","page_intents":[{"position":1,"intent":"Informationnelle","explanation":"e"}]}`,
			overall:   "Informationnelle - x",
			positions: []int{1},
		},
		{
			name:      "fenced",
			in:        "```json\n{\"overall_intent\":\"Transactionnelle\",\"page_intents\":[{\"position\":2,\"intent\":\"T\",\"explanation\":\"\"}]}\n```",
			overall:   "Transactionnelle",
			positions: []int{2},
		},
		{
			name:      "surrounded by prose",
			in:        "Voici l'analyse:\n{\"overall_intent\":\"Décisionnelle\",\"page_intents\":[]}\nBonne journée",
			overall:   "Décisionnelle",
			positions: []int{},
		},
		{
			name:      "string positions",
			in:        `{"overall_intent":"Navigationnelle","page_intents":[{"position":"3","intent":"N","explanation":"e"}]}`,
			overall:   "Navigationnelle",
			positions: []int{3},
		},
		{
			name:      "missing overall",
			in:        `{"page_intents":[]}`,
			overall:   models.IntentMissingLabel,
			positions: []int{},
		},
		{name: "malformed", in: `{"overall_intent": "x", "page_intents": [}`, wantErr: true},
		{name: "no json", in: "je ne sais pas", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseResponse(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseResponse: %v", err)
			}
			if got.OverallIntent != tt.overall {
				t.Errorf("overall = %q, want %q", got.OverallIntent, tt.overall)
			}
			if len(got.PageIntents) != len(tt.positions) {
				t.Fatalf("page intents = %+v", got.PageIntents)
			}
			for i, p := range tt.positions {
				if got.PageIntents[i].Position != p {
					t.Errorf("position[%d] = %d, want %d", i, got.PageIntents[i].Position, p)
				}
			}
		})
	}
}

func TestAttach(t *testing.T) {
	results := make([]models.Result, 12)
	for i := range results {
		results[i] = models.Result{URL: "u", Position: i}
	}
	data := models.IntentData{PageIntents: []models.PageIntent{
		{Position: 1, Intent: "Informationnelle", Explanation: "guide"},
		{Position: 3, Intent: "Transactionnelle", Explanation: "boutique"},
	}}

	got := Attach(results, data)
	if got[0].Intent != "Informationnelle" || got[0].IntentExplanation != "guide" {
		t.Errorf("result 1 = %+v", got[0])
	}
	if got[1].Intent != models.IntentNotAnalyzed || got[1].IntentExplanation != "" {
		t.Errorf("result 2 should be not analyzed: %+v", got[1])
	}
	if got[2].Intent != "Transactionnelle" {
		t.Errorf("result 3 = %+v", got[2])
	}
	if got[10].Intent != "" || got[11].Intent != "" {
		t.Errorf("results past the top 10 must stay untouched")
	}
	if results[0].Intent != "" {
		t.Errorf("Attach must not mutate its input")
	}
}

func TestAttach_NoPageIntents(t *testing.T) {
	results := []models.Result{{URL: "a"}}
	got := Attach(results, models.IntentData{OverallIntent: "x"})
	if got[0].Intent != "" {
		t.Fatalf("nothing should be attached: %+v", got[0])
	}
}

func TestNoop(t *testing.T) {
	got, err := Noop{}.Classify(context.Background(), "k", nil)
	if err != nil || got.OverallIntent != models.IntentUnavailable || len(got.PageIntents) != 0 {
		t.Fatalf("unexpected noop output: %+v %v", got, err)
	}
}

func chatServer(t *testing.T, content string, status int, captured *string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if captured != nil {
			b, _ := io.ReadAll(r.Body)
			*captured = string(b)
		}
		w.Header().Set("Content-Type", "application/json")
		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":{"message":"quota","type":"rate_limit"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "cmpl-1",
			"object": "chat.completion",
			"model":  "gemini-2.0-flash",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			}},
			"usage": map[string]any{"prompt_tokens": 120, "completion_tokens": 40, "total_tokens": 160},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newLLM(t *testing.T, url string, m *metrics.Metrics) *LLMClassifier {
	t.Helper()
	pm, err := prompts.NewManager()
	if err != nil {
		t.Fatalf("prompts: %v", err)
	}
	return NewLLMClassifier(Config{APIKey: "k", BaseURL: url + "/", Model: "gemini-2.0-flash", Timeout: 2 * time.Second, MaxTokens: 512}, pm, nil, m, logging.Nop())
}

func TestLLMClassifier_Success(t *testing.T) {
	var body string
	reply := `{"overall_intent":"Informationnelle - guides","page_intents":[{"position":1,"intent":"Informationnelle","explanation":"blog"}]}`
	srv := chatServer(t, reply, http.StatusOK, &body)
	m := metrics.New()
	c := newLLM(t, srv.URL, m)

	results := make([]models.Result, 15)
	for i := range results {
		results[i] = models.Result{URL: "https://ex.com/" + string(rune('a'+i)), Title: "T"}
	}
	results[0].Title = ""

	got, err := c.Classify(context.Background(), "vélo", results)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if got.OverallIntent != "Informationnelle - guides" || len(got.PageIntents) != 1 {
		t.Fatalf("unexpected intent data: %+v", got)
	}

	if !strings.Contains(body, "Sans titre") {
		t.Errorf("empty titles should be replaced in the prompt")
	}
	if strings.Contains(body, "11. Titre") {
		t.Errorf("only the top 10 results should be sent")
	}
	if !strings.Contains(body, `"gemini-2.0-flash"`) {
		t.Errorf("model not sent: %s", body)
	}

	if s := c.Usage().Stats(); s.TotalTokens != 160 || s.Requests != 1 {
		t.Errorf("usage = %+v", s)
	}
	if v := testutil.ToFloat64(m.IntentTokens.WithLabelValues("prompt")); v != 120 {
		t.Errorf("prompt tokens metric = %v", v)
	}
}

func TestLLMClassifier_Failures(t *testing.T) {
	tests := []struct {
		name    string
		content string
		status  int
	}{
		{"http error", "", http.StatusTooManyRequests},
		{"malformed json", "{not json", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := chatServer(t, tt.content, tt.status, nil)
			m := metrics.New()
			c := newLLM(t, srv.URL, m)

			_, err := c.Classify(context.Background(), "kw", []models.Result{{URL: "u", Title: "t"}})
			var ce *errs.ClassificationError
			if !errors.As(err, &ce) || ce.Keyword != "kw" {
				t.Fatalf("expected ClassificationError, got %T %v", err, err)
			}
			if v := testutil.ToFloat64(m.IntentRequests.WithLabelValues(metrics.OutcomeError)); v != 1 {
				t.Fatalf("error counter = %v", v)
			}
			if c.Usage().Stats().Failures != 1 {
				t.Fatalf("failure not tracked")
			}
		})
	}
}
