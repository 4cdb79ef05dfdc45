package callsession

import "strings"

func normalizeForMatch(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func containsPhrase(haystack, phrase string) bool {
	return strings.Contains(haystack, phrase)
}
