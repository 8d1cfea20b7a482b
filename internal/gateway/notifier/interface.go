package notifier

// TextNotifier defines a minimal text notification interface.
// Components depend on it rather than on Telegram directly.
type TextNotifier interface {
	SendText(text string) error
}

// Nop discards every message; used when notifications are disabled.
type Nop struct{}

func (Nop) SendText(string) error { return nil }
