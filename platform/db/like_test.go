package db

import "testing"

func TestContainsPatternEscapesWildcards(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"acme", "%acme%"},
		{"100%", `%100\%%`},
		{"a_b", `%a\_b%`},
		{`c:\temp`, `%c:\\temp%`},
		{`%_\`, `%\%\_\\%`},
	}
	for _, tt := range tests {
		if got := ContainsPattern(tt.in); got != tt.want {
			t.Fatalf("ContainsPattern(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
