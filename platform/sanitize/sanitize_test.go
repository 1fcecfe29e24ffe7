package sanitize

import "testing"

func TestTextStripsEncodedTags(t *testing.T) {
	got := Text("Hello &lt;script&gt;alert(1)&lt;/script&gt;   world")
	if got != "Hello alert(1) world" {
		t.Fatalf("unexpected sanitized text %q", got)
	}
}

func TestOptionalTextDropsBlank(t *testing.T) {
	blank := "  <b></b> "
	if OptionalText(&blank) != nil {
		t.Fatal("expected nil for blank input")
	}
}

func TestEmailLowercases(t *testing.T) {
	if got := Email("  Jane.Doe@Example.COM "); got != "jane.doe@example.com" {
		t.Fatalf("unexpected email %q", got)
	}
}
