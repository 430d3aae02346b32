package feedback

import "strings"

const fence = "```"

// StripCodeFence removes a markdown code fence wrapped around a model
// response. Both an opening "```json" (any case) and a bare "```" are
// recognised, as is a trailing "```". Text without a fence is returned
// trimmed.
func StripCodeFence(text string) string {
	s := strings.TrimSpace(text)
	if rest, ok := strings.CutPrefix(s, fence); ok {
		if len(rest) >= 4 && strings.EqualFold(rest[:4], "json") {
			rest = rest[4:]
		}
		s = strings.TrimSpace(rest)
	}
	s = strings.TrimSuffix(s, fence)
	return strings.TrimSpace(s)
}
