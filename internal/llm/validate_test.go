package llm

import (
	"encoding/json"
	"errors"
	"testing"
)

var careerSchema = &Schema{
	Name: "test-career",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"recommendations": map[string]any{
				"type":     "array",
				"minItems": 1,
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"title":  map[string]any{"type": "string"},
						"skills": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
					},
					"required": []any{"title"},
				},
			},
		},
		"required": []any{"recommendations"},
	},
}

func TestValidateResponse(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"valid", `{"recommendations":[{"title":"Data Engineer","skills":["SQL"]}]}`, false},
		{"missing required", `{"other":1}`, true},
		{"empty array", `{"recommendations":[]}`, true},
		{"wrong item type", `{"recommendations":[{"title":5}]}`, true},
		{"not json", `not json`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateResponse(careerSchema, json.RawMessage(tt.raw))
			if (err != nil) != tt.wantErr {
				t.Fatalf("validateResponse() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				var invalid *ErrInvalidResponse
				if !errors.As(err, &invalid) {
					t.Fatalf("expected ErrInvalidResponse, got %T", err)
				}
				if string(invalid.Content) != tt.raw {
					t.Errorf("Content = %s, want raw input", invalid.Content)
				}
			}
		})
	}
}

func TestValidateResponse_NilSchema(t *testing.T) {
	if err := validateResponse(nil, json.RawMessage(`whatever`)); err != nil {
		t.Fatalf("nil schema should accept anything, got %v", err)
	}
}

func TestCompileSchema_Cached(t *testing.T) {
	a, err := compileSchema(careerSchema)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	b, err := compileSchema(careerSchema)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if a != b {
		t.Error("expected cached schema to be reused")
	}
}
