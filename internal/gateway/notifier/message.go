package notifier

import (
	"strings"
	"time"
)

// Telegram 单条消息上限 4096 字符，留出余量。
const maxMessageRunes = 3800

type MessageSection struct {
	Title string
	Lines []string
}

// StructuredMessage 是一条告警：标题、若干段落、脚注与时间。
type StructuredMessage struct {
	Icon      string
	Title     string
	Sections  []MessageSection
	Footer    string
	Timestamp time.Time
}

// RenderMarkdown 渲染为 Telegram Markdown；段落放在一个代码块里，空段落跳过。
func (m StructuredMessage) RenderMarkdown() string {
	var parts []string
	if header := strings.TrimSpace(m.Icon + " " + m.Title); header != "" {
		parts = append(parts, header)
	}
	if body := m.body(); body != "" {
		parts = append(parts, "```\n"+body+"\n```")
	}
	var tail []string
	if footer := strings.TrimSpace(m.Footer); footer != "" {
		tail = append(tail, escapeFence(footer))
	}
	if !m.Timestamp.IsZero() {
		tail = append(tail, "时间："+m.Timestamp.Format("2006-01-02 15:04:05 MST"))
	}
	if len(tail) > 0 {
		parts = append(parts, strings.Join(tail, "\n"))
	}
	return truncateRunes(strings.Join(parts, "\n\n"), maxMessageRunes)
}

func (m StructuredMessage) body() string {
	blocks := make([]string, 0, len(m.Sections))
	for _, sec := range m.Sections {
		var lines []string
		for _, l := range sec.Lines {
			if l = strings.TrimSpace(l); l != "" {
				lines = append(lines, "- "+escapeFence(l))
			}
		}
		if len(lines) == 0 {
			continue
		}
		if title := strings.TrimSpace(sec.Title); title != "" {
			lines = append([]string{escapeFence(title)}, lines...)
		}
		blocks = append(blocks, strings.Join(lines, "\n"))
	}
	return strings.Join(blocks, "\n\n")
}

// truncateRunes cuts on a rune boundary so CJK text stays valid UTF-8.
func truncateRunes(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}

// escapeFence keeps user text from closing the code block early.
func escapeFence(s string) string {
	return strings.ReplaceAll(s, "```", "'''")
}
