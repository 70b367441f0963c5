package gemini

import (
	"errors"
	"os"
	"strconv"
)

// holds Gemini-specific configuration
type Config struct {
	APIKey string
	Model  string

	// RateLimitRPS caps outbound requests per second; zero disables limiting.
	RateLimitRPS float64
	Burst        int
}

func NewConfig() (*Config, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, errors.New("GEMINI_API_KEY environment variable is required")
	}

	model := os.Getenv("GEMINI_MODEL")
	if model == "" {
		model = "gemini-2.5-flash" // default model
	}

	rps := 5.0
	if raw := os.Getenv("AI_RATE_LIMIT_RPS"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed < 0 {
			return nil, errors.New("AI_RATE_LIMIT_RPS must be a non-negative number")
		}
		rps = parsed
	}

	burst := int(rps)
	if burst < 1 {
		burst = 1
	}

	return &Config{
		APIKey:       apiKey,
		Model:        model,
		RateLimitRPS: rps,
		Burst:        burst,
	}, nil
}
