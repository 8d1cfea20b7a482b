package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"

	"ethpilot/internal/logger"
)

// 中文说明：
// OpenAIChatClient：兼容 OpenAI / DeepSeek / Qwen 的聊天补全接口（/v1/chat/completions）。
// 单次调用，不做内部重试；连续失败由上层熔断器处理。

type OpenAIChatClient struct {
	id           string
	model        string
	apiKey       string
	endpoint     string
	extraHeaders map[string]string
	http         *resty.Client
}

type OpenAIConfig struct {
	ID      string
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
	Headers map[string]string
}

func NewOpenAIChatClient(cfg OpenAIConfig) *OpenAIChatClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &OpenAIChatClient{
		id:           cfg.ID,
		model:        cfg.Model,
		apiKey:       cfg.APIKey,
		endpoint:     chatEndpoint(cfg.BaseURL),
		extraHeaders: cfg.Headers,
		http:         resty.New().SetTimeout(cfg.Timeout),
	}
}

// chatEndpoint 规范化 BaseURL，避免用户把完整的 /chat/completions 也写进了配置导致重复路径。
func chatEndpoint(base string) string {
	url := strings.TrimRight(strings.TrimSpace(base), "/")
	if url == "" {
		url = "https://api.openai.com/v1"
	}
	url = strings.TrimSuffix(url, "/chat/completions")
	return url + "/chat/completions"
}

func (c *OpenAIChatClient) ID() string { return c.id }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

func (c *OpenAIChatClient) Call(ctx context.Context, payload ChatPayload) (string, error) {
	messages := make([]chatMessage, 0, 2)
	if payload.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: payload.System})
	}
	messages = append(messages, chatMessage{Role: "user", Content: payload.User})

	req := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(chatRequest{
			Model:       c.model,
			Messages:    messages,
			Temperature: payload.Temperature,
			MaxTokens:   payload.MaxTokens,
		})
	if c.apiKey != "" {
		req.SetAuthToken(c.apiKey)
	}
	for k, v := range c.extraHeaders {
		req.SetHeader(k, v)
	}
	logger.Debugf("[AI] 请求: POST %s model=%s key=%s", c.endpoint, c.model, maskKey(c.apiKey))

	resp, err := req.Post(c.endpoint)
	if err != nil {
		return "", fmt.Errorf("%s: %w", c.id, err)
	}
	body := resp.Body()
	if resp.StatusCode()/100 != 2 {
		msg := strings.TrimSpace(gjson.GetBytes(body, "error.message").String())
		if msg == "" {
			msg = resp.Status()
		}
		return "", fmt.Errorf("%s: status=%d: %s", c.id, resp.StatusCode(), msg)
	}
	content := gjson.GetBytes(body, "choices.0.message.content")
	if !content.Exists() {
		return "", fmt.Errorf("%s: empty choices", c.id)
	}
	return content.String(), nil
}

func maskKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 4 {
		return "****"
	}
	return "****" + key[len(key)-4:]
}
