package provider

import "context"

type ChatPayload struct {
	System      string
	User        string
	Temperature float64
	MaxTokens   int
}

// ModelProvider 是决策模型的最小调用面；返回模型原始文本，无格式保证。
type ModelProvider interface {
	ID() string
	Call(ctx context.Context, payload ChatPayload) (string, error)
}
