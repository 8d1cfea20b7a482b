// Package prompt renders the system/user messages sent to the decision model.
package prompt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"

	"ethpilot/internal/decision"
)

// File 映射可选的 YAML 提示词文件，未知字段直接报错。
type File struct {
	System string `yaml:"system"`
	User   string `yaml:"user"`
}

// Limits 是写进系统提示词的交易约束。
type Limits struct {
	InstID   string
	Leverage int
	MinOrder string
	MaxOrder string
}

type systemData struct {
	Limits
	Available   string
	TotalEquity string
	LastProfit  string
	Schema      string
}

type userData struct {
	Snapshot string
}

// Builder holds parsed templates; it is safe for concurrent use.
type Builder struct {
	system *template.Template
	user   *template.Template
	limits Limits
}

// Load parses the YAML file at path; an empty path uses the built-in prompt.
// Blank fields in the file fall back to the built-in text.
func Load(path string, limits Limits) (*Builder, error) {
	f := File{}
	if strings.TrimSpace(path) != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read prompt file: %w", err)
		}
		dec := yaml.NewDecoder(bytes.NewReader(raw))
		dec.KnownFields(true)
		if err := dec.Decode(&f); err != nil {
			return nil, fmt.Errorf("decode prompt file %s: %w", path, err)
		}
	}
	if strings.TrimSpace(f.System) == "" {
		f.System = defaultSystem
	}
	if strings.TrimSpace(f.User) == "" {
		f.User = defaultUser
	}
	return New(f, limits)
}

func New(f File, limits Limits) (*Builder, error) {
	sys, err := template.New("system").Option("missingkey=error").Parse(f.System)
	if err != nil {
		return nil, fmt.Errorf("parse system prompt: %w", err)
	}
	usr, err := template.New("user").Option("missingkey=error").Parse(f.User)
	if err != nil {
		return nil, fmt.Errorf("parse user prompt: %w", err)
	}
	return &Builder{system: sys, user: usr, limits: limits}, nil
}

// Build renders both messages for one cycle.
func (b *Builder) Build(snap decision.Snapshot) (system, user string, err error) {
	var sb bytes.Buffer
	if err := b.system.Execute(&sb, systemData{
		Limits:      b.limits,
		Available:   snap.Account.Available.StringFixed(6),
		TotalEquity: snap.Account.TotalEquity.StringFixed(6),
		LastProfit:  snap.Account.LastProfit.StringFixed(6),
		Schema:      SchemaExample,
	}); err != nil {
		return "", "", fmt.Errorf("render system prompt: %w", err)
	}
	payload, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", "", fmt.Errorf("marshal snapshot: %w", err)
	}
	var ub bytes.Buffer
	if err := b.user.Execute(&ub, userData{Snapshot: string(payload)}); err != nil {
		return "", "", fmt.Errorf("render user prompt: %w", err)
	}
	return strings.TrimSpace(sb.String()), strings.TrimSpace(ub.String()), nil
}
