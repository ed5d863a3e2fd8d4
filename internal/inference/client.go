package inference

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/go-scripts/reviews/internal/errs"
	"github.com/go-scripts/reviews/pkg/common"
)

// Defaults point at Gemini's OpenAI-compatible endpoint.
const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai"
	DefaultModel   = "gemini-2.0-flash"
	DefaultTimeout = 60 * time.Second
)

// Config for a Client
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	// Timeout bounds a single model call. Zero disables it.
	Timeout time.Duration
	// JSONMode requests a JSON object response format from the endpoint.
	JSONMode bool
}

// Client infers selectors with a chat completion model
type Client struct {
	api     *openai.Client
	model   string
	temp    float32
	timeout time.Duration
	json    bool
}

// NewClient builds a client from cfg, filling in the default endpoint and
// model when they are empty.
func NewClient(cfg Config) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	apiConfig := openai.DefaultConfig(cfg.APIKey)
	apiConfig.BaseURL = baseURL

	return &Client{
		api:     openai.NewClientWithConfig(apiConfig),
		model:   model,
		temp:    cfg.Temperature,
		timeout: cfg.Timeout,
		json:    cfg.JSONMode,
	}
}

// Model returns the model name requests are sent to
func (c *Client) Model() string {
	return c.model
}

// Infer makes exactly one model call. Any failure, including a reply that
// is not a JSON object, is returned as *errs.ExternalServiceError.
func (c *Client) Infer(ctx context.Context, structure common.PageStructure) (common.SelectorMap, error) {
	prompt, err := BuildPrompt(structure)
	if err != nil {
		return common.SelectorMap{}, err
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		Temperature: c.temp,
	}
	if c.json {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return common.SelectorMap{}, &errs.ExternalServiceError{Service: ServiceName, Err: err}
	}
	if len(resp.Choices) == 0 {
		return common.SelectorMap{}, &errs.ExternalServiceError{
			Service: ServiceName,
			Err:     errors.New("no response choices returned"),
		}
	}

	return ParseSelectors(resp.Choices[0].Message.Content)
}
