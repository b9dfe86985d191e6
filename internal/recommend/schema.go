package recommend

import "github.com/unisupport/unisupport/internal/llm"

// RecommendationSchema defines the JSON schema for career recommendations.
var RecommendationSchema = &llm.Schema{
	Name:        "career-recommendations",
	Description: "Career paths suited to a student, with reasoning and skills to learn",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"recommendations": map[string]any{
				"type":     "array",
				"minItems": 1,
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"title": map[string]any{
							"type":        "string",
							"description": "Career or role title (2-6 words)",
						},
						"description": map[string]any{
							"type":        "string",
							"description": "What the role involves (1-2 sentences)",
						},
						"reasoning": map[string]any{
							"type":        "string",
							"description": "Why it fits this student, citing quiz results or profile",
						},
						"suggested_skills_to_learn": map[string]any{
							"type":        "array",
							"items":       map[string]any{"type": "string"},
							"description": "2-5 concrete skills to learn next",
						},
					},
					"required":             []any{"title", "description", "reasoning", "suggested_skills_to_learn"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []any{"recommendations"},
		"additionalProperties": false,
	},
}
