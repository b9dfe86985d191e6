package llm

import (
	"testing"

	"google.golang.org/genai"
)

func TestGeminiModelMapping(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"gemini-flash", "gemini-2.5-flash"},
		{"gemini-pro", "gemini-2.5-pro"},
		{"gemini-2.5-flash-lite", "gemini-2.5-flash-lite"}, // Pass-through
	}
	for _, tt := range tests {
		got := resolveModel(tt.input, geminiModels)
		if got != tt.expected {
			t.Errorf("resolveModel(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestBuildGeminiSchema(t *testing.T) {
	schema := buildGeminiSchema(careerSchema.Definition)

	if schema.Type != genai.TypeObject {
		t.Fatalf("expected OBJECT type, got %s", schema.Type)
	}
	if len(schema.Required) != 1 || schema.Required[0] != "recommendations" {
		t.Fatalf("required = %v", schema.Required)
	}

	recs := schema.Properties["recommendations"]
	if recs == nil || recs.Type != genai.TypeArray {
		t.Fatalf("expected ARRAY for recommendations, got %+v", recs)
	}
	if recs.MinItems == nil || *recs.MinItems != 1 {
		t.Fatalf("expected minItems 1, got %v", recs.MinItems)
	}
	item := recs.Items
	if item.Type != genai.TypeObject {
		t.Fatalf("expected OBJECT items, got %s", item.Type)
	}
	if item.Properties["skills"].Items.Type != genai.TypeString {
		t.Fatalf("expected STRING skill items, got %s", item.Properties["skills"].Items.Type)
	}
}

func TestBuildGeminiSchema_Enum(t *testing.T) {
	schema := buildGeminiSchema(map[string]any{
		"type": "string",
		"enum": []any{"low", "mid", "high"},
	})
	if len(schema.Enum) != 3 {
		t.Fatalf("expected 3 enum values, got %d", len(schema.Enum))
	}
}

func TestBuildGeminiContents(t *testing.T) {
	got := buildGeminiContents([]Message{
		{Role: RoleUser, Content: "hello"},
		{Role: RoleAssistant, Content: "hi"},
	})
	if got[0].Role != string(genai.RoleUser) || got[1].Role != string(genai.RoleModel) {
		t.Fatalf("roles = %q, %q", got[0].Role, got[1].Role)
	}
	if got[1].Parts[0].Text != "hi" {
		t.Errorf("text = %q", got[1].Parts[0].Text)
	}
}
