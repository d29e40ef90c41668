package adjudicator

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/pricepilot/backend/internal/domain"
)

const (
	defaultBaseURL = "https://openrouter.ai/api/v1"
	defaultModel   = "google/gemini-2.0-flash-exp:free"
	defaultTimeout = 30 * time.Second
	maxAttempts    = 3
)

// Config holds configuration for the OpenRouter adjudicator client.
type Config struct {
	APIKey            string
	BaseURL           string
	Model             string
	RequestTimeout    time.Duration
	RequestsPerSecond float64
	Debug             bool
}

// Client adjudicates ambiguous matches through an OpenAI-compatible chat
// endpoint. It owns its transport concerns: rate limiting, a bounded per-call
// timeout, retries, and parsing the model's JSON verdict.
type Client struct {
	api     *openai.Client
	model   string
	limiter *rate.Limiter
	timeout time.Duration
	debug   bool
}

// NewClient creates an adjudicator client.
func NewClient(cfg Config) *Client {
	apiCfg := openai.DefaultConfig(cfg.APIKey)
	apiCfg.BaseURL = cfg.BaseURL
	if apiCfg.BaseURL == "" {
		apiCfg.BaseURL = defaultBaseURL
	}

	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 1
	}

	return &Client{
		api:     openai.NewClientWithConfig(apiCfg),
		model:   model,
		limiter: rate.NewLimiter(rate.Limit(rps), 3),
		timeout: timeout,
		debug:   cfg.Debug,
	}
}

// verdictPayload is the strict JSON shape the prompt demands from the model.
type verdictPayload struct {
	IsMatch bool   `json:"is_match"`
	Reason  string `json:"reason"`
}

// Adjudicate asks the model whether the two product names denote the same
// product. Unreachable endpoint, timeout, or unparseable output all surface
// as ErrAdjudicatorUnavailable so the classifier's fallback policy governs —
// the gateway never fabricates a verdict.
func (c *Client) Adjudicate(ctx context.Context, queryName, candidateName string, queryPrice, candidatePrice float64) (*domain.Verdict, error) {
	prompt := buildPrompt(queryName, candidateName, queryPrice, candidatePrice)

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrAdjudicatorUnavailable, err)
		}

		verdict, err := c.complete(ctx, prompt)
		if err == nil {
			if c.debug {
				log.Printf("[ADJUDICATE] %q vs %q -> match=%v (%s)", queryName, candidateName, verdict.IsMatch, verdict.Reason)
			}
			return verdict, nil
		}
		lastErr = err
		log.Printf("[ADJUDICATE] attempt %d failed for %q: %v", attempt, queryName, err)
		if attempt < maxAttempts {
			select {
			case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", domain.ErrAdjudicatorUnavailable, ctx.Err())
			}
		}
	}
	return nil, fmt.Errorf("%w: %v", domain.ErrAdjudicatorUnavailable, lastErr)
}

func (c *Client) complete(ctx context.Context, prompt string) (*domain.Verdict, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.api.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty completion")
	}

	payload, err := parseVerdict(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}
	return &domain.Verdict{IsMatch: payload.IsMatch, Reason: payload.Reason}, nil
}

// parseVerdict extracts the JSON object from the completion text. Models
// routinely wrap JSON in code fences or prose, so it cuts from the first '{'
// to the last '}'.
func parseVerdict(content string) (*verdictPayload, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in completion: %q", content)
	}

	var payload verdictPayload
	if err := json.Unmarshal([]byte(content[start:end+1]), &payload); err != nil {
		return nil, fmt.Errorf("decode verdict: %w", err)
	}
	return &payload, nil
}

func buildPrompt(queryName, candidateName string, queryPrice, candidatePrice float64) string {
	return fmt.Sprintf(`You are a product-matching expert for a perfume retailer.
Compare these two listings:
Ours: %s at %.2f
Competitor: %s at %.2f

Are they exactly the same product (brand, concentration EDP/EDT, size)?
Answer with JSON only:
{"is_match": true/false, "reason": "short explanation"}`,
		queryName, queryPrice, candidateName, candidatePrice)
}
