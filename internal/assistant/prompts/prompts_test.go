package prompts

import (
	"strings"
	"testing"
)

func TestLoadEmbeddedCatalog(t *testing.T) {
	c, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !strings.Contains(c.Text(ChatSystem), "sales assistant") {
		t.Fatalf("unexpected system prompt %q", c.Text(ChatSystem))
	}
}

func TestParseRequiresBothPrompts(t *testing.T) {
	if _, err := Parse([]byte("prompts:\n  chat_system: hi\n")); err == nil {
		t.Fatal("expected error for missing crm_context")
	}
}

func TestRenderContext(t *testing.T) {
	c, err := Parse([]byte("prompts:\n  chat_system: hi\n  crm_context: \"{{.Name}} has {{.Count}}\"\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	out, err := c.Render(CRMContext, map[string]any{"Name": "Mia", "Count": 3})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out != "Mia has 3" {
		t.Fatalf("got %q", out)
	}
}
