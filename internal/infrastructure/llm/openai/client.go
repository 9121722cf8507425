// Package openai talks to the OpenAI chat-completions API (or any
// API-compatible endpoint) to generate document summaries.
package openai

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dstepanov-dev/pdf-digest/internal/core/domain"
	"github.com/dstepanov-dev/pdf-digest/internal/infrastructure/resilience"
)

type Client struct {
	baseURL     string
	apiKey      string
	model       string
	maxTokens   int
	temperature float64
	httpClient  *http.Client
	executor    *resilience.Executor
	usageFunc   UsageFunc
}

// UsageFunc receives the token counts the API reports for a completion.
type UsageFunc func(model string, promptTokens, completionTokens int)

type Options struct {
	Model              string
	MaxTokens          int
	Temperature        float64
	Timeout            time.Duration
	ResilienceExecutor *resilience.Executor
	UsageFunc          UsageFunc
}

func New(baseURL, apiKey string, options Options) *Client {
	model := options.Model
	if model == "" {
		model = "gpt-4o-mini"
	}
	maxTokens := options.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1000
	}
	temperature := options.Temperature
	if temperature <= 0 {
		temperature = 0.7
	}
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		apiKey:      apiKey,
		model:       model,
		maxTokens:   maxTokens,
		temperature: temperature,
		httpClient:  &http.Client{Timeout: timeout},
		executor:    options.ResilienceExecutor,
		usageFunc:   options.UsageFunc,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// GenerateSummary submits the extracted text with the fixed analyzer prompt
// and returns the first completion. Empty completions are a model error, not
// a silent empty summary.
func (c *Client) GenerateSummary(ctx context.Context, text string) (string, error) {
	request := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildSummaryPrompt(text)},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	}

	var response chatResponse
	call := func(callCtx context.Context) error {
		return c.postJSON(callCtx, "/chat/completions", request, &response, "completion")
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "openai.completion", call, classifyCompletionError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return "", wrapModelError("completion", err)
	}

	if c.usageFunc != nil && (response.Usage.PromptTokens > 0 || response.Usage.CompletionTokens > 0) {
		c.usageFunc(c.model, response.Usage.PromptTokens, response.Usage.CompletionTokens)
	}

	if len(response.Choices) == 0 {
		return "", domain.WrapError(domain.ErrModel, "completion", errors.New("no completion choices returned"))
	}
	summary := strings.TrimSpace(response.Choices[0].Message.Content)
	if summary == "" {
		return "", domain.WrapError(domain.ErrModel, "completion", errors.New("empty completion content"))
	}
	return summary, nil
}

func (c *Client) Model() string {
	return c.model
}
