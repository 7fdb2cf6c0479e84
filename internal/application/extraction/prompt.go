package extraction

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed prompts/invoice_extraction.yaml
var defaultPromptsYAML []byte

// PromptConfig holds the extraction prompt and its model parameters
type PromptConfig struct {
	InvoiceExtraction struct {
		Temperature  float32 `yaml:"temperature"`
		MaxTokens    int     `yaml:"max_tokens"`
		System       string  `yaml:"system"`
		UserTemplate string  `yaml:"user_template"`
	} `yaml:"invoice_extraction"`

	tmpl *template.Template
}

// DefaultPrompts returns the built-in prompt configuration
func DefaultPrompts() (*PromptConfig, error) {
	var prompts PromptConfig
	if err := yaml.Unmarshal(defaultPromptsYAML, &prompts); err != nil {
		return nil, fmt.Errorf("failed to unmarshal default prompts: %w", err)
	}
	if err := prompts.compile(); err != nil {
		return nil, err
	}
	return &prompts, nil
}

// LoadPrompts overlays a YAML prompt file on the built-in defaults.
// An empty path returns the defaults.
func LoadPrompts(promptsPath string) (*PromptConfig, error) {
	prompts, err := DefaultPrompts()
	if err != nil {
		return nil, err
	}
	if promptsPath == "" {
		return prompts, nil
	}

	data, err := os.ReadFile(promptsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompts file: %w", err)
	}
	if err := yaml.Unmarshal(data, prompts); err != nil {
		return nil, fmt.Errorf("failed to unmarshal prompts: %w", err)
	}
	if err := prompts.compile(); err != nil {
		return nil, err
	}

	return prompts, nil
}

func (p *PromptConfig) compile() error {
	tmpl, err := template.New("invoice_extraction").Parse(p.InvoiceExtraction.UserTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}
	p.tmpl = tmpl
	return nil
}

// Render builds the user prompt for a formatted document
func (p *PromptConfig) Render(document string) (string, error) {
	var buf bytes.Buffer
	if err := p.tmpl.Execute(&buf, struct{ Document string }{Document: document}); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.String(), nil
}
