// Package llmutil holds helpers for coping with free-form LLM output.
package llmutil

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// jsonBlockRegex extracts the body of a markdown code fence. \x60 is a
// backtick, which Go raw strings cannot contain.
var jsonBlockRegex = regexp.MustCompile("(?s)\x60\x60\x60(?:json|JSON)?\\s*(.*?)\\s*\x60\x60\x60")

// ExtractJSONObject finds the JSON object in an LLM response. A fenced
// code block is preferred; otherwise the outermost braces of the response
// are taken, which tolerates conversational text around the object. The
// returned text is not validated.
func ExtractJSONObject(response string) (string, bool) {
	response = strings.TrimSpace(response)
	if m := jsonBlockRegex.FindStringSubmatch(response); len(m) > 1 {
		response = strings.TrimSpace(m[1])
	}
	first := strings.Index(response, "{")
	last := strings.LastIndex(response, "}")
	if first == -1 || last <= first {
		return "", false
	}
	return response[first : last+1], true
}

// Truncate shortens s to at most maxLen bytes for logging, marking the cut
// with "...". The cut never splits a UTF-8 sequence.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
