package textnorm

import "testing"

func TestFold(t *testing.T) {
	cases := map[string]string{
		"  Jöhn-O'Brien ":  "john o brien",
		"E-MAIL Address":   "e mail address",
		"Téléphone\t(mob)": "telephone mob",
		"":                 "",
	}
	for in, want := range cases {
		if got := Fold(in); got != want {
			t.Errorf("Fold(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCompact(t *testing.T) {
	if got := Compact("E-mail"); got != "email" {
		t.Fatalf("Compact(E-mail) = %q", got)
	}
}
