package notifier

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const telegramAPI = "https://api.telegram.org"

// Telegram 通知器：开仓、止盈止损挂单成功/失败时推送关键信息。
type Telegram struct {
	BotToken string
	ChatID   string
	http     *resty.Client
}

func NewTelegram(botToken, chatID string) *Telegram {
	return newTelegram(telegramAPI, botToken, chatID)
}

func newTelegram(baseURL, botToken, chatID string) *Telegram {
	return &Telegram{
		BotToken: strings.TrimSpace(botToken),
		ChatID:   strings.TrimSpace(chatID),
		http:     resty.New().SetBaseURL(baseURL).SetTimeout(15 * time.Second),
	}
}

// SendText 单次发送；通知失败只由调用方记录，不影响交易流程。
func (t *Telegram) SendText(text string) error {
	if t.BotToken == "" || t.ChatID == "" {
		return fmt.Errorf("Telegram 配置不完整")
	}
	resp, err := t.http.R().
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]any{
			"chat_id":    t.ChatID,
			"text":       text,
			"parse_mode": "Markdown",
		}).
		Post("/bot" + t.BotToken + "/sendMessage")
	if err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	if resp.StatusCode()/100 != 2 {
		return fmt.Errorf("telegram status=%d", resp.StatusCode())
	}
	return nil
}
