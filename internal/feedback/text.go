package feedback

import (
	"encoding/json"
	"strings"
)

// DefaultExplanation is used when the model gives no usable explanation.
const DefaultExplanation = "No explanation available."

// MaxSuggestions caps the rewrites returned for a text selection.
const MaxSuggestions = 3

// Text is the writing feedback for one selected passage.
type Text struct {
	SelectedText string   `json:"selectedText"`
	Explanation  string   `json:"explanation"`
	Suggestions  []string `json:"suggestions"`
}

// NormalizeText builds writing feedback from raw model content. Blank content
// yields the default record. Code fences are stripped before parsing.
// Suggestions keep only non-blank strings, trimmed, at most
// [MaxSuggestions]. Only malformed JSON returns an error.
func NormalizeText(content, selectedText string) (*Text, error) {
	t := &Text{
		SelectedText: selectedText,
		Explanation:  DefaultExplanation,
		Suggestions:  []string{},
	}

	body := StripCodeFence(content)
	if body == "" {
		return t, nil
	}
	fields, err := decodeObject([]byte(body))
	if err != nil {
		return nil, err
	}

	t.Explanation = textField(fields["explanation"], DefaultExplanation)

	var items []json.RawMessage
	if raw := fields["suggestions"]; isArray(raw) && json.Unmarshal(raw, &items) == nil {
		for _, item := range items {
			if len(t.Suggestions) == MaxSuggestions {
				break
			}
			if s, ok := stringValue(item); ok {
				if s = strings.TrimSpace(s); s != "" {
					t.Suggestions = append(t.Suggestions, s)
				}
			}
		}
	}
	return t, nil
}
