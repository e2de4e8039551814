// Package summarizer is the LLM-backed Summary Generator. It talks to any
// OpenAI-compatible chat-completion endpoint (Zhipu GLM by default) and
// turns replies into daily bullet points and monthly reviews.
package summarizer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"golang.org/x/time/rate"

	"github.com/dmitrijs2005/daylog/internal/common"
	"github.com/dmitrijs2005/daylog/internal/journal"
	"github.com/dmitrijs2005/daylog/internal/logging"
)

const (
	DefaultBaseURL = "https://open.bigmodel.cn/api/paas/v4"
	DefaultModel   = "glm-4-flash"

	defaultTemperature  = 0.7
	keywordsTemperature = 0.5
	dailyMaxTokens      = 200
	monthlyMaxTokens    = 3000
	keywordsMaxTokens   = 1000

	defaultOverview = "No overview available."
)

// Config configures the chat-completion client.
type Config struct {
	APIKey    string
	BaseURL   string
	Model     string
	Timeout   time.Duration
	RateLimit float64 // requests per second
	Burst     int
}

// Client implements journal.Generator over langchaingo's OpenAI client.
type Client struct {
	llm     llms.Model
	limiter *rate.Limiter
	logger  logging.Logger
}

var _ journal.Generator = (*Client)(nil)

func New(cfg Config, logger logging.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("summarizer: api key required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 2
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 2
	}

	llm, err := openai.New(
		openai.WithToken(cfg.APIKey),
		openai.WithBaseURL(strings.TrimRight(cfg.BaseURL, "/")),
		openai.WithModel(cfg.Model),
		openai.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
	)
	if err != nil {
		return nil, fmt.Errorf("summarizer: %w", err)
	}

	return &Client{
		llm:     llm,
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.Burst),
		logger:  logger.With("module", "summarizer", "model", cfg.Model),
	}, nil
}

// Daily summarises one entry into newline-separated points. Meaningless
// content yields "" without calling the model.
func (c *Client) Daily(ctx context.Context, content string) (string, error) {
	if !journal.IsMeaningful(content) {
		return "", nil
	}

	out, err := c.complete(ctx, dailySystemPrompt, dailyUserPrompt(content),
		llms.WithTemperature(defaultTemperature),
		llms.WithMaxTokens(dailyMaxTokens),
	)
	if err != nil {
		return "", err
	}

	summary := CleanPoints(out)
	if !strings.Contains(summary, "\n") {
		summary = SplitPoints(summary)
		if !strings.Contains(summary, "\n") && strings.Contains(content, "\n") {
			if points := ExtractPoints(content); strings.Contains(points, "\n") {
				summary = points
			}
		}
	}
	return summary, nil
}

// Monthly produces a review from entries merged in date order.
func (c *Client) Monthly(ctx context.Context, merged string, year int, month time.Month) (*journal.Review, error) {
	out, err := c.complete(ctx, monthlySystemPrompt, monthlyUserPrompt(merged, year, int(month)),
		llms.WithTemperature(defaultTemperature),
		llms.WithMaxTokens(monthlyMaxTokens),
		llms.WithJSONMode(),
	)
	if err != nil {
		return nil, err
	}
	return ParseReview(out)
}

// Keywords extracts keyword frequencies from daily summaries.
func (c *Client) Keywords(ctx context.Context, summaries []string) ([]journal.Keyword, error) {
	if len(summaries) == 0 {
		return nil, nil
	}

	out, err := c.complete(ctx, keywordsSystemPrompt, keywordsUserPrompt(strings.Join(summaries, "\n")),
		llms.WithTemperature(keywordsTemperature),
		llms.WithMaxTokens(keywordsMaxTokens),
		llms.WithJSONMode(),
	)
	if err != nil {
		return nil, err
	}

	var raw struct {
		Keywords []rawKeyword `json:"keywords"`
	}
	if err := json.Unmarshal([]byte(stripFences(out)), &raw); err != nil {
		return nil, fmt.Errorf("%w: decode keywords: %v", common.ErrGeneration, err)
	}
	return normalizeKeywords(raw.Keywords), nil
}

func (c *Client) complete(ctx context.Context, system, user string, opts ...llms.CallOption) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	start := time.Now()
	resp, err := c.llm.GenerateContent(ctx, []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, system),
		llms.TextParts(llms.ChatMessageTypeHuman, user),
	}, opts...)
	if err != nil {
		c.logger.Warn(ctx, "completion failed", "error", err, "took", time.Since(start))
		return "", fmt.Errorf("%w: %v", common.ErrGeneration, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty response", common.ErrGeneration)
	}

	c.logger.Debug(ctx, "completion done", "took", time.Since(start))
	return resp.Choices[0].Content, nil
}

// FromConfig returns the chat-completion client when an API key is set and
// the offline generator otherwise.
func FromConfig(ctx context.Context, cfg Config, logger logging.Logger) journal.Generator {
	if cfg.APIKey == "" {
		logger.Warn(ctx, "no LLM API key configured, using offline summaries")
		return Offline{}
	}
	c, err := New(cfg, logger)
	if err != nil {
		logger.Error(ctx, "LLM client unavailable, using offline summaries", "error", err)
		return Offline{}
	}
	return c
}
