package provider

import (
	"fmt"
	"strings"
	"time"

	"ethpilot/internal/logger"
)

type ModelCfg struct {
	ID, Provider, APIURL, APIKey, Model string
	Headers                             map[string]string
}

var defaultAPIURL = map[string]string{
	"deepseek": "https://api.deepseek.com/v1",
	"openai":   "https://api.openai.com/v1",
	"qwen":     "https://dashscope.aliyuncs.com/compatible-mode/v1",
}

// BuildFromConfig builds the single decision model.
func BuildFromConfig(m ModelCfg, timeout time.Duration) (ModelProvider, error) {
	base := strings.ToLower(strings.TrimSpace(m.Provider))
	if base == "" {
		base = "deepseek"
	}
	url := strings.TrimSpace(m.APIURL)
	if url == "" {
		known, ok := defaultAPIURL[base]
		if !ok {
			return nil, fmt.Errorf("ai.api_url required for provider %q", m.Provider)
		}
		url = known
	}
	id := strings.TrimSpace(m.ID)
	if id == "" {
		id = base
		if model := strings.TrimSpace(m.Model); model != "" {
			id = fmt.Sprintf("%s:%s", base, model)
		}
		logger.Debugf("decision model id: %s", id)
	}
	return NewOpenAIChatClient(OpenAIConfig{
		ID:      id,
		BaseURL: url,
		APIKey:  m.APIKey,
		Model:   m.Model,
		Timeout: timeout,
		Headers: m.Headers,
	}), nil
}
