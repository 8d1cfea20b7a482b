package decision

import (
	"regexp"
	"strings"

	"ethpilot/internal/logger"
	"ethpilot/internal/pkg/jsonutil"
)

// Strategy is one independent way of turning oracle text into a Decision.
type Strategy struct {
	Source  Source
	Extract func(raw string) (Decision, bool)
}

// Parser 按顺序尝试各解析层，第一个通过校验的结果胜出；永不返回错误。
type Parser struct {
	strategies []Strategy
}

func NewParser() *Parser {
	return &Parser{strategies: DefaultStrategies()}
}

// NewParserWith builds a parser over a custom strategy list.
func NewParserWith(strategies ...Strategy) *Parser {
	return &Parser{strategies: strategies}
}

func DefaultStrategies() []Strategy {
	return []Strategy{
		{Source: SourceDirect, Extract: parseDirect},
		{Source: SourceShape, Extract: parseShape},
		{Source: SourceSpan, Extract: parseSpan},
		{Source: SourceHeuristic, Extract: parseHeuristic},
	}
}

// Parse always returns a Decision whose action and confidence are members of
// their enumerations.
func (p *Parser) Parse(raw string) Decision {
	for _, s := range p.strategies {
		if d, ok := tryStrategy(s, raw); ok {
			logger.Debugf("decision parsed via %s: action=%s size=%s", s.Source, d.Action, d.PositionSize)
			return d
		}
	}
	logger.Warnf("decision parse failed on every tier, falling back to hold")
	return SafeDefault()
}

func tryStrategy(s Strategy, raw string) (d Decision, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("decision strategy %s panic: %v", s.Source, r)
			d, ok = Decision{}, false
		}
	}()
	if s.Extract == nil {
		return Decision{}, false
	}
	d, ok = s.Extract(raw)
	if !ok || !d.Action.Valid() || !d.Confidence.Valid() || d.PositionSize.IsNegative() {
		return Decision{}, false
	}
	d.Source = s.Source
	return d, true
}

func parseDirect(raw string) (Decision, bool) {
	d, err := decode(jsonutil.Unfence(raw), SourceDirect)
	return d, err == nil
}

var shapePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\{\s*"trading_decision"\s*:\s*\{[^{}]*\}\s*,\s*"position_management"\s*:\s*\{[^{}]*\}\s*\}`),
	regexp.MustCompile(`\{\s*"position_management"\s*:\s*\{[^{}]*\}\s*,\s*"trading_decision"\s*:\s*\{[^{}]*\}\s*\}`),
}

func parseShape(raw string) (Decision, bool) {
	for _, re := range shapePatterns {
		for _, candidate := range re.FindAllString(raw, -1) {
			d, err := decode(jsonutil.Collapse(candidate), SourceShape)
			if err == nil {
				return d, true
			}
			logger.Debugf("decision shape candidate rejected: %v", err)
		}
	}
	return Decision{}, false
}

func parseSpan(raw string) (Decision, bool) {
	span, ok := jsonutil.OuterSpan(raw)
	if !ok {
		return Decision{}, false
	}
	if d, err := decode(span, SourceSpan); err == nil {
		return d, true
	}
	collapsed := jsonutil.Collapse(span)
	if collapsed == strings.TrimSpace(span) {
		return Decision{}, false
	}
	d, err := decode(collapsed, SourceSpan)
	return d, err == nil
}
