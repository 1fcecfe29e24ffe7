// Package prompts loads the assistant prompt catalog.
package prompts

import (
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

const (
	ChatSystem = "chat_system"
	CRMContext = "crm_context"
)

type Catalog struct {
	Version int               `yaml:"version"`
	Prompts map[string]string `yaml:"prompts"`
}

// Load parses the embedded catalog.
func Load() (*Catalog, error) {
	return Parse(catalogYAML)
}

func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse prompt catalog: %w", err)
	}
	for _, name := range []string{ChatSystem, CRMContext} {
		if strings.TrimSpace(c.Prompts[name]) == "" {
			return nil, fmt.Errorf("prompt catalog is missing %q", name)
		}
	}
	return &c, nil
}

// Text returns a prompt verbatim.
func (c *Catalog) Text(name string) string {
	return strings.TrimSpace(c.Prompts[name])
}

// Render executes a prompt as a text/template.
func (c *Catalog) Render(name string, data any) (string, error) {
	tmpl, err := template.New(name).Option("missingkey=error").Parse(c.Prompts[name])
	if err != nil {
		return "", fmt.Errorf("parse prompt %s: %w", name, err)
	}
	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render prompt %s: %w", name, err)
	}
	return strings.TrimSpace(b.String()), nil
}
