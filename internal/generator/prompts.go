package generator

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed prompts.yaml
var defaultPrompts []byte

// PromptPair is a system prompt and a user prompt template.
type PromptPair struct {
	System string `yaml:"system"`
	User   string `yaml:"user"`
}

// Prompts holds the instruction templates used for generation.
type Prompts struct {
	Timeline PromptPair `yaml:"timeline"`
	Chat     PromptPair `yaml:"chat"`

	timelineUser *template.Template
	chatUser     *template.Template
}

// promptData is the value the user templates are executed against.
type promptData struct {
	Query     string
	Entity    string
	Reference string
}

// DefaultPrompts returns the embedded prompt set.
func DefaultPrompts() *Prompts {
	p, err := ParsePrompts(defaultPrompts)
	if err != nil {
		panic(fmt.Sprintf("embedded prompts: %v", err))
	}
	return p
}

// LoadPrompts reads a prompt set from path. An empty path yields the
// embedded defaults.
func LoadPrompts(path string) (*Prompts, error) {
	if path == "" {
		return DefaultPrompts(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompts: %w", err)
	}
	return ParsePrompts(data)
}

// ParsePrompts decodes YAML prompt data and compiles the user templates.
func ParsePrompts(data []byte) (*Prompts, error) {
	var p Prompts
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse prompts: %w", err)
	}
	if p.Timeline.System == "" || p.Timeline.User == "" {
		return nil, fmt.Errorf("prompts: timeline.system and timeline.user are required")
	}
	if p.Chat.System == "" || p.Chat.User == "" {
		return nil, fmt.Errorf("prompts: chat.system and chat.user are required")
	}

	var err error
	if p.timelineUser, err = template.New("timeline").Option("missingkey=error").Parse(p.Timeline.User); err != nil {
		return nil, fmt.Errorf("prompts: timeline.user: %w", err)
	}
	if p.chatUser, err = template.New("chat").Option("missingkey=error").Parse(p.Chat.User); err != nil {
		return nil, fmt.Errorf("prompts: chat.user: %w", err)
	}
	return &p, nil
}

func render(t *template.Template, data promptData) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s prompt: %w", t.Name(), err)
	}
	return strings.TrimSpace(buf.String()), nil
}
