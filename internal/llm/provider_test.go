package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestMockProvider_ReplaysInOrder(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Content: json.RawMessage(`{"n":1}`), Usage: Usage{InputTokens: 3}},
		MockJSON(map[string]int{"n": 2}),
	)

	for i, want := range []string{`{"n":1}`, `{"n":2}`} {
		resp, err := mock.Generate(context.Background(), Request{})
		if err != nil {
			t.Fatalf("call %d: unexpected error: %v", i, err)
		}
		if string(resp.Content) != want {
			t.Errorf("call %d: content = %s, want %s", i, resp.Content, want)
		}
	}

	_, err := mock.Generate(context.Background(), Request{})
	var unavail *ErrProviderUnavailable
	if !errors.As(err, &unavail) {
		t.Fatalf("expected ErrProviderUnavailable on empty queue, got %v", err)
	}
	if mock.CallCount() != 3 {
		t.Errorf("CallCount = %d, want 3", mock.CallCount())
	}
}

func TestMockProvider_RecordsRequests(t *testing.T) {
	mock := NewMockProvider(MockJSON(map[string]string{}))
	mock.AddResponse(MockResponse{Err: errors.New("boom")})

	req := Request{System: "advisor", Messages: []Message{{Role: RoleUser, Content: "hi"}}}
	_, _ = mock.Generate(context.Background(), req)
	_, err := mock.Generate(context.Background(), req)
	if err == nil || err.Error() != "boom" {
		t.Fatalf("expected configured error, got %v", err)
	}
	if mock.Calls[0].System != "advisor" {
		t.Errorf("recorded system = %q", mock.Calls[0].System)
	}
}

func TestPurposeContext(t *testing.T) {
	ctx := context.Background()
	if p := PurposeFrom(ctx); p != "unknown" {
		t.Fatalf("expected 'unknown', got %q", p)
	}
	ctx = WithPurpose(ctx, "recommendation")
	if p := PurposeFrom(ctx); p != "recommendation" {
		t.Fatalf("expected 'recommendation', got %q", p)
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{&ErrRateLimit{}, true},
		{&ErrProviderUnavailable{}, true},
		{errors.New("connection reset"), true},
		{&ErrInvalidResponse{}, false},
		{&ErrMaxTokensExceeded{}, false},
		{context.Canceled, false},
		{fmt.Errorf("wrapped: %w", context.DeadlineExceeded), false},
	}
	for _, tt := range tests {
		if got := IsTransient(tt.err); got != tt.want {
			t.Errorf("IsTransient(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"anthropic without key", Config{Provider: ProviderAnthropic}, true},
		{"anthropic with key", Config{Provider: ProviderAnthropic, Anthropic: AnthropicConfig{APIKey: "k"}}, false},
		{"openai without key", Config{Provider: ProviderOpenAI}, true},
		{"openrouter with key", Config{Provider: ProviderOpenRouter, OpenRouter: OpenRouterConfig{APIKey: "k"}}, false},
		{"gemini without key", Config{Provider: ProviderGemini}, true},
		{"mock needs no key", Config{Provider: ProviderMock}, false},
		{"unknown provider", Config{Provider: "llama"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("UNISUPPORT_LLM_PROVIDER", "openrouter")
	t.Setenv("UNISUPPORT_OPENROUTER_API_KEY", "sk-or")
	t.Setenv("UNISUPPORT_LLM_TIMEOUT", "5s")
	t.Setenv("UNISUPPORT_LLM_MAX_ATTEMPTS", "5")

	cfg := ConfigFromEnv()
	if cfg.Provider != ProviderOpenRouter || cfg.OpenRouter.APIKey != "sk-or" {
		t.Errorf("provider config = %+v", cfg.OpenRouter)
	}
	if cfg.Timeout != 5*time.Second {
		t.Errorf("Timeout = %s, want 5s", cfg.Timeout)
	}
	if cfg.Retry.MaxAttempts != 5 {
		t.Errorf("MaxAttempts = %d, want 5", cfg.Retry.MaxAttempts)
	}
}

func TestDiscoverConfig(t *testing.T) {
	for _, k := range []string{"GEMINI_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY", "OPENROUTER_API_KEY"} {
		t.Setenv(k, "")
	}
	if _, ok := DiscoverConfig(); ok {
		t.Fatal("expected no provider without keys")
	}

	t.Setenv("ANTHROPIC_API_KEY", "a")
	t.Setenv("OPENAI_API_KEY", "o")
	cfg, ok := DiscoverConfig()
	if !ok || cfg.Provider != ProviderOpenAI {
		t.Fatalf("expected openai to win over anthropic, got %q", cfg.Provider)
	}
}

func TestNewProvider_Mock(t *testing.T) {
	p, err := NewProvider(context.Background(), Config{Provider: ProviderMock}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ModelID() != "mock" {
		t.Errorf("ModelID = %q", p.ModelID())
	}
}

func TestNewProvider_RejectsMissingKey(t *testing.T) {
	if _, err := NewProvider(context.Background(), Config{Provider: ProviderOpenAI}, nil); err == nil {
		t.Fatal("expected error for missing key")
	}
}

type blockingProvider struct{}

func (blockingProvider) Generate(ctx context.Context, _ Request) (*Response, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (blockingProvider) ModelID() string { return "block" }

func TestWithTimeout(t *testing.T) {
	p := WithTimeout(blockingProvider{}, 10*time.Millisecond)
	_, err := p.Generate(context.Background(), Request{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if WithTimeout(blockingProvider{}, 0) != (blockingProvider{}) {
		t.Error("expected zero timeout to return the provider unchanged")
	}
}

func TestLookupCost(t *testing.T) {
	c := LookupCost("claude-haiku")
	if c == nil {
		t.Fatal("expected pricing for claude-haiku alias")
	}
	if got := c.Cost(1_000_000, 200_000); got != 2 {
		t.Errorf("Cost = %v, want 2", got)
	}
	if LookupCost("unknown-model") != nil {
		t.Error("expected nil for unknown model")
	}
}
