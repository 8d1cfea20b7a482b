package decision

import (
	"regexp"
	"strings"
)

// DefaultReason fills in a heuristic decision that carried no usable reason.
const DefaultReason = "基于市场分析做出的决策"

var (
	actionPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)"action"\s*:\s*"(\w+)"`),
		regexp.MustCompile(`(?i)action["']?\s*:\s*["']?(\w+)`),
		regexp.MustCompile(`(?i)操作["']?\s*[:：]\s*["']?(\w+)`),
	}
	reasonPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)"reason"\s*:\s*"([^"]*)"`),
		regexp.MustCompile(`(?i)reason["']?\s*:\s*["']?([^"'\n]+)`),
		regexp.MustCompile(`(?i)理由["']?\s*[:：]\s*["']?([^"'\n]+)`),
	}
)

// parseHeuristic pulls action and reason out of loose text. It only succeeds
// when at least one of them was actually found; sizes and prices stay zero.
func parseHeuristic(raw string) (Decision, bool) {
	action, foundAction := matchAction(raw)
	reason, foundReason := matchReason(raw)
	if !foundAction && !foundReason {
		return Decision{}, false
	}
	if !foundAction {
		action = ActionHold
	}
	if !foundReason {
		reason = DefaultReason
	}
	return Decision{
		Action:     action,
		Confidence: ConfidenceMedium,
		Reason:     reason,
		Source:     SourceHeuristic,
	}, true
}

func matchAction(raw string) (Action, bool) {
	for _, re := range actionPatterns {
		for _, m := range re.FindAllStringSubmatch(raw, -1) {
			a := Action(strings.ToLower(m[1]))
			if a.Valid() {
				return a, true
			}
		}
	}
	return "", false
}

func matchReason(raw string) (string, bool) {
	for _, re := range reasonPatterns {
		m := re.FindStringSubmatch(raw)
		if m == nil {
			continue
		}
		if reason := strings.TrimSpace(m[1]); reason != "" {
			return reason, true
		}
	}
	return "", false
}
