package intent

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"serp-comparator/internal/models"
	"serp-comparator/internal/prompts"
	"serp-comparator/pkg/circuit"
	errs "serp-comparator/pkg/errors"
	"serp-comparator/pkg/logging"
	"serp-comparator/pkg/metrics"
	"serp-comparator/pkg/utils"
)

// Config configures an LLMClassifier. BaseURL points at any OpenAI-compatible
// chat completions API; Gemini exposes one.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Timeout     time.Duration
	Temperature float64
	MaxTokens   int
}

// LLMClassifier asks a chat model to label the top results of a SERP.
type LLMClassifier struct {
	client  *openai.Client
	cfg     Config
	pm      *prompts.Manager
	usage   *UsageTracker
	breaker *circuit.Breaker
	metrics *metrics.Metrics
	logger  *logging.ComponentLogger
}

var _ Classifier = (*LLMClassifier)(nil)

// NewLLMClassifier builds a classifier. pm, breaker and m may be nil.
func NewLLMClassifier(cfg Config, pm *prompts.Manager, breaker *circuit.Breaker, m *metrics.Metrics, logger *logging.Logger) *LLMClassifier {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if m == nil {
		m = metrics.Default
	}
	if logger == nil {
		logger = logging.Nop()
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	oc.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &LLMClassifier{
		client:  openai.NewClientWithConfig(oc),
		cfg:     cfg,
		pm:      pm,
		usage:   NewUsageTracker(),
		breaker: breaker,
		metrics: m,
		logger:  logger.WithComponent("intent"),
	}
}

// Usage exposes accumulated token usage.
func (c *LLMClassifier) Usage() *UsageTracker { return c.usage }

// Classify sends the top results of keyword to the model and parses its reply.
func (c *LLMClassifier) Classify(ctx context.Context, keyword string, results []models.Result) (models.IntentData, error) {
	const op = "intent.Classify"
	log := c.logger.Ctx(ctx)

	data := promptData(keyword, results)
	req := openai.ChatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: c.systemPrompt(data)},
			{Role: openai.ChatMessageRoleUser, Content: c.userPrompt(data)},
		},
		Temperature:    float32(c.cfg.Temperature),
		MaxTokens:      c.cfg.MaxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	}

	start := time.Now()
	var resp openai.ChatCompletionResponse
	call := func(ctx context.Context) error {
		var err error
		resp, err = c.client.CreateChatCompletion(ctx, req)
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
		}
		return c.fail(log, op, keyword, outcome, dur, "request failed", err)
	}

	c.usage.AddUsage(resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
	if len(resp.Choices) == 0 {
		return c.fail(log, op, keyword, metrics.OutcomeError, dur, "no response", nil)
	}

	out, err := parseResponse(resp.Choices[0].Message.Content)
	if err != nil {
		return c.fail(log, op, keyword, metrics.OutcomeError, dur, "unparseable response", err)
	}

	c.metrics.ObserveIntent(metrics.OutcomeSuccess, resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
	log.Info("intent classified",
		logging.Keyword(keyword),
		logging.Duration("duration", dur),
		logging.Int("page_intents", len(out.PageIntents)),
		logging.Int("tokens", resp.Usage.TotalTokens))
	return out, nil
}

func (c *LLMClassifier) fail(log *logging.ContextLogger, op, keyword, outcome string, dur time.Duration, msg string, err error) (models.IntentData, error) {
	c.usage.AddFailure()
	c.metrics.ObserveIntent(outcome, 0, 0)
	cerr := errs.NewClassification(op, keyword, msg, err)
	log.Warn("intent classification failed", logging.Keyword(keyword), logging.Duration("duration", dur), logging.String("outcome", outcome), logging.String("error", cerr.Error()))
	return models.IntentData{}, cerr
}

func promptData(keyword string, results []models.Result) prompts.IntentData {
	n := len(results)
	if n > models.IntentTopN {
		n = models.IntentTopN
	}
	entries := make([]prompts.IntentEntry, 0, n)
	for i := 0; i < n; i++ {
		entries = append(entries, prompts.IntentEntry{
			Position: i + 1,
			Title:    utils.FirstNonEmpty(results[i].Title, "Sans titre"),
			URL:      utils.FirstNonEmpty(results[i].URL, "Sans URL"),
		})
	}
	return prompts.IntentData{Keyword: keyword, Entries: entries, Categories: models.IntentCategories}
}

func (c *LLMClassifier) systemPrompt(data prompts.IntentData) string {
	if c.pm != nil {
		if out, err := c.pm.Render(prompts.IntentSystem, data); err == nil {
			return out
		}
	}
	return fallbackSystemPrompt
}

func (c *LLMClassifier) userPrompt(data prompts.IntentData) string {
	if c.pm != nil {
		if out, err := c.pm.Render(prompts.IntentUser, data); err == nil {
			return out
		}
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Mot-clé: %s\n\nRésultats de recherche:\n", data.Keyword)
	for _, e := range data.Entries {
		fmt.Fprintf(&sb, "\n%d. Titre: %s\n   URL: %s\n", e.Position, e.Title, e.URL)
	}
	fmt.Fprintf(&sb, "\nClasse chaque résultat puis le mot-clé parmi: %s.\n", strings.Join(data.Categories, ", "))
	sb.WriteString(`Réponds uniquement en JSON: {"overall_intent": "Type - Explication", "page_intents": [{"position": 1, "intent": "Type", "explanation": "..."}]}`)
	return sb.String()
}

const fallbackSystemPrompt = `Tu es un expert SEO qui classe l'intention de recherche.
Réponds uniquement avec un objet JSON valide.`
