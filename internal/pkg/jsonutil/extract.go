package jsonutil

import (
	"regexp"
	"strings"
)

const codeFence = "```"

var spaceRun = regexp.MustCompile(`\s+`)

// Unfence returns the body of a ``` fenced block when the whole text is one
// fence (an optional language tag on the opening line is dropped). Other input
// is returned trimmed and unchanged.
func Unfence(raw string) string {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, codeFence) || !strings.HasSuffix(raw, codeFence) || len(raw) < 2*len(codeFence) {
		return raw
	}
	body := raw[len(codeFence) : len(raw)-len(codeFence)]
	body = strings.TrimLeft(body, "\r\n")
	if idx := strings.Index(body, "\n"); idx != -1 {
		first := strings.TrimSpace(body[:idx])
		if first != "" && !strings.ContainsAny(first, "[{") {
			body = body[idx+1:]
		}
	}
	return strings.TrimSpace(body)
}

// OuterSpan returns the substring from the first '{' to the last '}'.
func OuterSpan(raw string) (string, bool) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end < start {
		return "", false
	}
	return raw[start : end+1], true
}

// Collapse replaces tabs/newlines and runs of whitespace with one space.
func Collapse(raw string) string {
	return strings.TrimSpace(spaceRun.ReplaceAllString(raw, " "))
}
