package realtime

import (
	"fmt"
	"os"
)

const (
	apiKeyEnvVarShort = "OPENAI_KEY"
	apiKeyEnvVarLong  = "OPENAI_API_KEY"

	defaultBaseURL = "wss://api.openai.com/v1/realtime"
	defaultModel   = "gpt-4o-realtime-preview"
)

type clientConfig struct {
	apiKey     string
	model      string
	baseURL    string
	sampleRate int
}

func (c *clientConfig) validate() error {
	if c.apiKey == "" {
		return fmt.Errorf("missing api key")
	}
	if c.baseURL == "" {
		return fmt.Errorf("missing endpoint URL")
	}
	// The sample rate divides truncation offsets into milliseconds.
	if c.sampleRate <= 0 {
		return fmt.Errorf("invalid sample rate %d", c.sampleRate)
	}
	return nil
}

type ClientOption func(*clientConfig)

func WithAPIKey(apiKey string) ClientOption {
	return func(c *clientConfig) { c.apiKey = apiKey }
}

// WithEnvKey reads the API key from the first set environment variable.
func WithEnvKey(vars ...string) ClientOption {
	return func(c *clientConfig) {
		for _, name := range vars {
			if key, ok := os.LookupEnv(name); ok && key != "" {
				c.apiKey = key
				return
			}
		}
	}
}

func WithModel(model string) ClientOption {
	return func(c *clientConfig) { c.model = model }
}

// WithBaseURL points the client at a different endpoint, e.g. a local relay
// that holds the credential instead of the app process.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *clientConfig) { c.baseURL = baseURL }
}

func WithSampleRate(sampleRate int) ClientOption {
	return func(c *clientConfig) { c.sampleRate = sampleRate }
}

func withDefaults() ClientOption {
	return func(c *clientConfig) {
		c.model = defaultModel
		c.baseURL = defaultBaseURL
		c.sampleRate = 24000
		WithEnvKey(apiKeyEnvVarShort, apiKeyEnvVarLong)(c)
	}
}
