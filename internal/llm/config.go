package llm

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Provider names accepted by Config.Provider.
const (
	ProviderAnthropic  = "anthropic"
	ProviderOpenAI     = "openai"
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
	ProviderMock       = "mock"
)

// Config selects and configures the LLM provider.
type Config struct {
	Provider string

	Anthropic  AnthropicConfig
	OpenAI     OpenAIConfig
	Gemini     GeminiConfig
	OpenRouter OpenRouterConfig
	Retry      RetryConfig

	// Timeout bounds a single Generate call including retries.
	Timeout time.Duration
}

type AnthropicConfig struct {
	APIKey string
	Model  string
}

type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string // for OpenAI-compatible endpoints
}

type GeminiConfig struct {
	APIKey string
	Model  string
}

type OpenRouterConfig struct {
	APIKey  string
	Model   string
	BaseURL string

	// AppName and AppURL are sent as the X-Title and HTTP-Referer headers
	// OpenRouter uses for attribution.
	AppName string
	AppURL  string
}

// RetryConfig controls exponential backoff for transient failures.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// DefaultConfig returns the defaults: Anthropic Haiku, three attempts,
// 45s timeout.
func DefaultConfig() Config {
	return Config{
		Provider:  ProviderAnthropic,
		Anthropic: AnthropicConfig{Model: "claude-haiku"},
		OpenAI:    OpenAIConfig{Model: "gpt-4o-mini"},
		Gemini:    GeminiConfig{Model: "gemini-flash"},
		OpenRouter: OpenRouterConfig{
			Model:   "google/gemini-2.0-flash-001",
			AppName: "UniSupport",
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: time.Second,
			MaxWait:     10 * time.Second,
			Multiplier:  2,
		},
		Timeout: 45 * time.Second,
	}
}

// ConfigFromEnv overlays UNISUPPORT_* variables on DefaultConfig.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	setString(&cfg.Provider, "UNISUPPORT_LLM_PROVIDER")

	setString(&cfg.Anthropic.APIKey, "UNISUPPORT_ANTHROPIC_API_KEY")
	setString(&cfg.Anthropic.Model, "UNISUPPORT_ANTHROPIC_MODEL")

	setString(&cfg.OpenAI.APIKey, "UNISUPPORT_OPENAI_API_KEY")
	setString(&cfg.OpenAI.Model, "UNISUPPORT_OPENAI_MODEL")
	setString(&cfg.OpenAI.BaseURL, "UNISUPPORT_OPENAI_BASE_URL")

	setString(&cfg.Gemini.APIKey, "UNISUPPORT_GEMINI_API_KEY")
	setString(&cfg.Gemini.Model, "UNISUPPORT_GEMINI_MODEL")

	setString(&cfg.OpenRouter.APIKey, "UNISUPPORT_OPENROUTER_API_KEY")
	setString(&cfg.OpenRouter.Model, "UNISUPPORT_OPENROUTER_MODEL")
	setString(&cfg.OpenRouter.BaseURL, "UNISUPPORT_OPENROUTER_BASE_URL")
	setString(&cfg.OpenRouter.AppURL, "UNISUPPORT_OPENROUTER_APP_URL")

	if v := os.Getenv("UNISUPPORT_LLM_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Timeout = d
		} else {
			fmt.Fprintf(os.Stderr, "warning: ignoring UNISUPPORT_LLM_TIMEOUT=%q: %v\n", v, err)
		}
	}
	if v := os.Getenv("UNISUPPORT_LLM_MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Retry.MaxAttempts = n
		} else {
			fmt.Fprintf(os.Stderr, "warning: ignoring UNISUPPORT_LLM_MAX_ATTEMPTS=%q\n", v)
		}
	}

	return cfg
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// DiscoverConfig looks for the vendors' standard key variables (Gemini,
// OpenAI, Anthropic, OpenRouter, in that order) and configures the first
// one found.
func DiscoverConfig() (Config, bool) {
	cfg := DefaultConfig()

	switch {
	case os.Getenv("GEMINI_API_KEY") != "":
		cfg.Provider = ProviderGemini
		cfg.Gemini.APIKey = os.Getenv("GEMINI_API_KEY")
	case os.Getenv("OPENAI_API_KEY") != "":
		cfg.Provider = ProviderOpenAI
		cfg.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	case os.Getenv("ANTHROPIC_API_KEY") != "":
		cfg.Provider = ProviderAnthropic
		cfg.Anthropic.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	case os.Getenv("OPENROUTER_API_KEY") != "":
		cfg.Provider = ProviderOpenRouter
		cfg.OpenRouter.APIKey = os.Getenv("OPENROUTER_API_KEY")
	default:
		return Config{}, false
	}
	return cfg, true
}

// Validate checks that the selected provider has its API key.
func (c Config) Validate() error {
	var key, envVar string
	switch c.Provider {
	case ProviderAnthropic:
		key, envVar = c.Anthropic.APIKey, "UNISUPPORT_ANTHROPIC_API_KEY"
	case ProviderOpenAI:
		key, envVar = c.OpenAI.APIKey, "UNISUPPORT_OPENAI_API_KEY"
	case ProviderGemini:
		key, envVar = c.Gemini.APIKey, "UNISUPPORT_GEMINI_API_KEY"
	case ProviderOpenRouter:
		key, envVar = c.OpenRouter.APIKey, "UNISUPPORT_OPENROUTER_API_KEY"
	case ProviderMock:
		return nil
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	if key == "" {
		return fmt.Errorf("%s is required for the %s provider", envVar, c.Provider)
	}
	return nil
}
