package feedback_test

import (
	"slices"
	"testing"

	"github.com/MrWong99/elocute/internal/feedback"
)

func TestNormalizeText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name            string
		content         string
		wantExplanation string
		wantSuggestions []string
	}{
		{
			name:            "blank content",
			content:         "  ",
			wantExplanation: feedback.DefaultExplanation,
			wantSuggestions: []string{},
		},
		{
			name:            "full answer in fence",
			content:         "```json\n{\"explanation\":\" Use the past tense. \",\"suggestions\":[\"I went home.\"]}\n```",
			wantExplanation: "Use the past tense.",
			wantSuggestions: []string{"I went home."},
		},
		{
			name:            "suggestions filtered and capped",
			content:         `{"explanation":"","suggestions":[" a ",1,"","b",null,"c","d"]}`,
			wantExplanation: feedback.DefaultExplanation,
			wantSuggestions: []string{"a", "b", "c"},
		},
		{
			name:            "wrong types",
			content:         `{"explanation":["x"],"suggestions":"y"}`,
			wantExplanation: feedback.DefaultExplanation,
			wantSuggestions: []string{},
		},
		{
			name:            "non-object",
			content:         `["x"]`,
			wantExplanation: feedback.DefaultExplanation,
			wantSuggestions: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := feedback.NormalizeText(tt.content, "I goed home.")
			if err != nil {
				t.Fatalf("NormalizeText: %v", err)
			}
			if got.SelectedText != "I goed home." {
				t.Errorf("SelectedText = %q", got.SelectedText)
			}
			if got.Explanation != tt.wantExplanation {
				t.Errorf("Explanation = %q, want %q", got.Explanation, tt.wantExplanation)
			}
			if got.Suggestions == nil || !slices.Equal(got.Suggestions, tt.wantSuggestions) {
				t.Errorf("Suggestions = %#v, want %#v", got.Suggestions, tt.wantSuggestions)
			}
		})
	}
}

func TestNormalizeText_Malformed(t *testing.T) {
	t.Parallel()

	if _, err := feedback.NormalizeText(`{"explanation": "x"`, "sel"); err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}
