package llm

import (
	"context"
	"errors"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// one turn of a conversation sent to the provider
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type GenerationRequest struct {
	Messages    []Message
	Temperature float32
	RequestID   string

	// JSONResponse asks the provider to constrain its reply to a JSON document.
	JSONResponse bool
}

// Prompt returns the text of the final user turn.
func (r *GenerationRequest) Prompt() string {
	for i := len(r.Messages) - 1; i >= 0; i-- {
		if r.Messages[i].Role == RoleUser {
			return r.Messages[i].Content
		}
	}
	return ""
}

type GenerationResponse struct {
	Content   string             `json:"content"`
	RequestID string             `json:"request_id"`
	Metadata  GenerationMetadata `json:"metadata"`
}

type GenerationMetadata struct {
	ProcessingTime int    `json:"processing_time_ms"`
	Provider       string `json:"provider"`
	Model          string `json:"model"`
}

// defines the interface for LLM providers
type Provider interface {
	GenerateContent(ctx context.Context, req *GenerationRequest) (*GenerationResponse, error)
	GetProviderName() string
}

// represents an error from an LLM provider
type ProviderError struct {
	Provider string
	Code     string
	Message  string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return e.Provider + " error: " + e.Message + " (" + e.Err.Error() + ")"
	}
	return e.Provider + " error: " + e.Message
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Common error codes
// For current and future use across different providers
const (
	ErrCodeAPIKey       = "invalid_api_key"
	ErrCodeRateLimit    = "rate_limit_exceeded"
	ErrCodeServiceDown  = "service_unavailable"
	ErrCodeInvalidInput = "invalid_input"
	ErrCodeTimeout      = "timeout"
)

// ErrorCode extracts the provider error code, or "" for foreign errors.
func ErrorCode(err error) string {
	var provErr *ProviderError
	if errors.As(err, &provErr) {
		return provErr.Code
	}
	return ""
}
