package engine

import (
	"context"
	"errors"
	"fmt"

	"ethpilot/internal/agent/ports"
	"ethpilot/internal/decision"
	"ethpilot/internal/gateway/provider"
	"ethpilot/internal/logger"
	"ethpilot/internal/pkg/circuit"
	"ethpilot/internal/prompt"
)

// OracleFailureReason prefixes the hold reason when the model call fails.
const OracleFailureReason = "AI处理失败: "

type OracleParams struct {
	Provider    provider.ModelProvider
	Prompts     *prompt.Builder
	Parser      *decision.Parser
	Breaker     *circuit.CircuitBreaker
	Temperature float64
	MaxTokens   int
}

// Oracle 渲染提示词、调用模型并解析回复；任何失败都降级为 hold。
type Oracle struct {
	provider    provider.ModelProvider
	prompts     *prompt.Builder
	parser      *decision.Parser
	breaker     *circuit.CircuitBreaker
	temperature float64
	maxTokens   int
}

func NewOracle(p OracleParams) *Oracle {
	if p.Parser == nil {
		p.Parser = decision.NewParser()
	}
	return &Oracle{
		provider:    p.Provider,
		prompts:     p.Prompts,
		parser:      p.Parser,
		breaker:     p.Breaker,
		temperature: p.Temperature,
		maxTokens:   p.MaxTokens,
	}
}

var _ ports.Decider = (*Oracle)(nil)

func (o *Oracle) ProviderID() string {
	if o == nil || o.provider == nil {
		return ""
	}
	return o.provider.ID()
}

// BreakerState reports the provider breaker; closed when none is configured.
func (o *Oracle) BreakerState() circuit.State {
	if o == nil || o.breaker == nil {
		return circuit.StateClosed
	}
	return o.breaker.State()
}

func (o *Oracle) Decide(ctx context.Context, trace logger.Trace, snap decision.Snapshot) (decision.Decision, string) {
	trace.Infof("[AI] 可用余额: %s USDT 账户总权益: %s USDT 上次策略盈利: %s USDT",
		snap.Account.Available.StringFixed(6), snap.Account.TotalEquity.StringFixed(6), snap.Account.LastProfit.StringFixed(6))

	system, user, err := o.prompts.Build(snap)
	if err != nil {
		trace.Errorf("[AI] 构建提示词失败: %v", err)
		return failedDecision(err), ""
	}
	payload := provider.ChatPayload{System: system, User: user, Temperature: o.temperature, MaxTokens: o.maxTokens}
	logger.LogLLMRequest(o.provider.ID(), trace.ID(), system, user, "")

	var raw string
	err = o.breaker.Do(func() error {
		var callErr error
		raw, callErr = o.provider.Call(ctx, payload)
		return callErr
	})
	if err != nil {
		if errors.Is(err, circuit.ErrOpen) {
			trace.Warnf("[AI] 熔断中，跳过模型调用")
		} else {
			trace.Errorf("[AI] 决策获取失败: %v", err)
		}
		return failedDecision(err), ""
	}
	trace.Infof("[AI] 原始响应接收成功 (%d 字节)", len(raw))
	logger.LogLLMResponse(o.provider.ID(), trace.ID(), raw)

	d := o.parser.Parse(raw)
	summary := fmt.Sprintf("action=%s confidence=%s size=%s tp=%s sl=%s reason=%s",
		d.Action, d.Confidence, d.PositionSize, d.TakeProfit, d.StopLoss, d.Reason)
	logger.LogLLMDecision(trace.ID(), string(d.Source), summary)
	trace.Infof("[AI] 决策 via %s: %s", d.Source, summary)
	return d, raw
}

func failedDecision(err error) decision.Decision {
	return decision.Hold(decision.ConfidenceLow, OracleFailureReason+err.Error(), decision.SourceFallback)
}
