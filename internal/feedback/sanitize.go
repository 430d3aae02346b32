package feedback

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Assessment is the sanitized content of one model response. Every field
// already holds a valid value: scores are normalized or nil, texts are
// trimmed and defaulted, lists are filtered and truncated.
type Assessment struct {
	OverallScore      *int
	AITimingScore     *int
	TargetMatchScore  *int
	EnglishConfidence *int
	IsTargetSentence  bool

	// TranscribedText is the model's own transcription, trimmed. Empty when
	// the model gave none.
	TranscribedText string

	Summary          string
	ConsonantComment string
	VowelComment     string
	StressComment    string
	Issues           []Issue
	Tips             []string
}

// Sanitize decodes a model response into an [Assessment].
//
// Each field is decoded independently from its raw JSON. A field that is
// missing or has the wrong type takes its default, it never causes an error.
// A valid JSON document that is not an object is treated as an empty object.
// Only a syntactically invalid document returns an error.
func Sanitize(data []byte) (Assessment, error) {
	fields, err := decodeObject(data)
	if err != nil {
		return Assessment{}, err
	}

	return Assessment{
		OverallScore:      scoreField(fields["overallScore"]),
		AITimingScore:     scoreField(fields["aiTimingScore"]),
		TargetMatchScore:  scoreField(fields["targetMatchScore"]),
		EnglishConfidence: scoreField(fields["englishConfidence"]),
		IsTargetSentence:  isTrue(fields["isTargetSentence"]),
		TranscribedText:   textField(fields["transcribedText"], ""),
		Summary:           textField(fields["summary"], DefaultSummary),
		ConsonantComment:  textField(fields["consonantComment"], DefaultConsonantComment),
		VowelComment:      textField(fields["vowelComment"], DefaultVowelComment),
		StressComment:     textField(fields["stressComment"], DefaultStressComment),
		Issues:            issuesField(fields["pronunciationIssues"]),
		Tips:              tipsField(fields["practiceTips"]),
	}, nil
}

// decodeObject validates data and returns the members of its top-level
// object. Non-object documents yield an empty map.
func decodeObject(data []byte) (map[string]json.RawMessage, error) {
	var doc json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("feedback: parse model output: %w", err)
	}
	fields := map[string]json.RawMessage{}
	if !isObject(doc) {
		return fields, nil
	}
	if err := json.Unmarshal(doc, &fields); err != nil {
		return nil, fmt.Errorf("feedback: parse model output: %w", err)
	}
	return fields, nil
}

// ── field decoders ──────────────────────────────────────────────────────────

func scoreField(raw json.RawMessage) *int {
	if len(raw) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil
	}
	return NormalizeScore(v)
}

func isTrue(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "true"
}

// textField returns the trimmed string in raw, or def when raw is not a
// string or is blank.
func textField(raw json.RawMessage, def string) string {
	s, ok := stringValue(raw)
	if !ok {
		return def
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	return s
}

func issuesField(raw json.RawMessage) []Issue {
	issues := []Issue{}
	var items []json.RawMessage
	if !isArray(raw) || json.Unmarshal(raw, &items) != nil {
		return issues
	}
	for _, item := range items {
		if len(issues) == MaxIssues {
			break
		}
		if !isObject(item) {
			continue
		}
		var obj map[string]json.RawMessage
		if json.Unmarshal(item, &obj) != nil {
			continue
		}
		issue := Issue{
			Expected: textField(obj["expected"], ""),
			Heard:    textField(obj["heard"], ""),
			Advice:   textField(obj["advice"], ""),
		}
		if issue.Expected == "" || issue.Heard == "" || issue.Advice == "" {
			continue
		}
		issues = append(issues, issue)
	}
	return issues
}

func tipsField(raw json.RawMessage) []string {
	tips := []string{}
	var items []json.RawMessage
	if !isArray(raw) || json.Unmarshal(raw, &items) != nil {
		return tips
	}
	for _, item := range items {
		if len(tips) == MaxTips {
			break
		}
		if s, ok := stringValue(item); ok {
			tips = append(tips, s)
		}
	}
	return tips
}

// stringValue decodes raw when it holds a JSON string. JSON null is not a
// string.
func stringValue(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '"' {
		return "", false
	}
	var s string
	if json.Unmarshal(raw, &s) != nil {
		return "", false
	}
	return s, true
}

func isObject(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '{'
}

func isArray(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '['
}
