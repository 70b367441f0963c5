package gemini

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"peerprep/interview/internal/llm"
)

const providerName = "gemini"

// Client represents a Gemini LLM client
type Client struct {
	client  *genai.Client
	config  *Config
	limiter *rate.Limiter
}

func NewClient(config *Config) (*Client, error) {
	ctx := context.Background()

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, &llm.ProviderError{
			Provider: providerName,
			Code:     llm.ErrCodeAPIKey,
			Message:  "Failed to create Gemini client",
			Err:      err,
		}
	}

	return newClientWith(client, config), nil
}

func newClientWith(client *genai.Client, config *Config) *Client {
	c := &Client{client: client, config: config}
	if config.RateLimitRPS > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(config.RateLimitRPS), config.Burst)
	}
	return c
}

// GenerateContent sends the conversation to the model and returns the reply text.
func (c *Client) GenerateContent(ctx context.Context, req *llm.GenerationRequest) (*llm.GenerationResponse, error) {
	if len(req.Messages) == 0 {
		return nil, &llm.ProviderError{
			Provider: providerName,
			Code:     llm.ErrCodeInvalidInput,
			Message:  "No messages to send",
		}
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &llm.ProviderError{
				Provider: providerName,
				Code:     llm.ErrCodeTimeout,
				Message:  "Rate limiter wait aborted",
				Err:      err,
			}
		}
	}

	startTime := time.Now()

	contents := make([]*genai.Content, 0, len(req.Messages))
	for _, msg := range req.Messages {
		contents = append(contents, &genai.Content{
			Role:  string(msg.Role),
			Parts: []*genai.Part{{Text: msg.Content}},
		})
	}

	result, err := c.client.Models.GenerateContent(ctx, c.config.Model, contents, generationConfig(req))
	if err != nil {
		return nil, classifyError(err)
	}

	if result == nil {
		return nil, &llm.ProviderError{
			Provider: providerName,
			Code:     llm.ErrCodeInvalidInput,
			Message:  "No response generated",
		}
	}

	text := result.Text()
	if strings.TrimSpace(text) == "" {
		return nil, &llm.ProviderError{
			Provider: providerName,
			Code:     llm.ErrCodeInvalidInput,
			Message:  "Empty response generated",
		}
	}

	return &llm.GenerationResponse{
		Content:   text,
		RequestID: req.RequestID,
		Metadata: llm.GenerationMetadata{
			ProcessingTime: int(time.Since(startTime).Milliseconds()),
			Provider:       providerName,
			Model:          c.config.Model,
		},
	}, nil
}

func generationConfig(req *llm.GenerationRequest) *genai.GenerateContentConfig {
	if req.Temperature <= 0 && !req.JSONResponse {
		return nil
	}
	config := &genai.GenerateContentConfig{}
	if req.Temperature > 0 {
		temperature := req.Temperature
		config.Temperature = &temperature
	}
	if req.JSONResponse {
		config.ResponseMIMEType = "application/json"
	}
	return config
}

func (c *Client) GetProviderName() string {
	return providerName
}

func classifyError(err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		return &llm.ProviderError{
			Provider: providerName,
			Code:     llm.ErrCodeTimeout,
			Message:  "Request timed out",
			Err:      err,
		}
	case isRateLimitError(err):
		return &llm.ProviderError{
			Provider: providerName,
			Code:     llm.ErrCodeRateLimit,
			Message:  "Rate limit exceeded",
			Err:      err,
		}
	default:
		return &llm.ProviderError{
			Provider: providerName,
			Code:     llm.ErrCodeServiceDown,
			Message:  "Failed to generate content",
			Err:      err,
		}
	}
}

func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "RESOURCE_EXHAUSTED") ||
		strings.Contains(strings.ToLower(msg), "quota")
}
