package recommend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/unisupport/unisupport/internal/auth"
	"github.com/unisupport/unisupport/internal/llm"
	"github.com/unisupport/unisupport/internal/quiz"
)

// ErrEmptyResult is returned when the model produced no usable
// recommendations.
var ErrEmptyResult = errors.New("no recommendations returned")

// Service generates career recommendations with an LLM provider.
type Service struct {
	provider llm.Provider
	cfg      Config
}

// NewService creates a recommendation service.
func NewService(provider llm.Provider, cfg Config) *Service {
	return &Service{provider: provider, cfg: cfg}
}

type recommendationOutput struct {
	Recommendations []Recommendation `json:"recommendations"`
}

// GenerateRecommendations asks the provider for recommendations for profile
// given attempts, newest first.
func (s *Service) GenerateRecommendations(ctx context.Context, profile auth.Profile, attempts []quiz.Attempt) ([]Recommendation, error) {
	ctx = llm.WithPurpose(ctx, "recommendation")

	req := llm.Request{
		System: systemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildUserMessage(profile, attempts, s.cfg)},
		},
		Schema:      RecommendationSchema,
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
	}

	resp, err := s.provider.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("recommendation generation: %w", err)
	}

	var out recommendationOutput
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return nil, fmt.Errorf("parse recommendation response: %w", err)
	}

	recs := make([]Recommendation, 0, len(out.Recommendations))
	for _, r := range out.Recommendations {
		r.Title = strings.TrimSpace(r.Title)
		if r.Title == "" {
			continue
		}
		if r.SuggestedSkills == nil {
			r.SuggestedSkills = []string{}
		}
		recs = append(recs, r)
	}
	if len(recs) == 0 {
		return nil, ErrEmptyResult
	}
	return recs, nil
}
