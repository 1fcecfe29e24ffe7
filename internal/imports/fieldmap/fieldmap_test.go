package fieldmap

import (
	"reflect"
	"testing"
)

func TestGuessExactAndContains(t *testing.T) {
	headers := []string{"Full Name", "E-mail", "Mobile Phone", "Company Name", "Deal Value (€)", "Lead Owner", "Favourite colour"}
	m := Guess(headers)

	want := map[Field]int{
		FullName:   0,
		Email:      1,
		Phone:      2,
		Company:    3,
		Value:      4,
		AssignedTo: 5,
	}
	if !reflect.DeepEqual(m.Columns, want) {
		t.Fatalf("columns = %v, want %v", m.Columns, want)
	}
	if !reflect.DeepEqual(m.Unmapped, []string{"Favourite colour"}) {
		t.Fatalf("unmapped = %v", m.Unmapped)
	}
}

func TestGuessExactBeatsContains(t *testing.T) {
	// The exact "Email" header takes email; "Contact Email" falls back to fullName.
	m := Guess([]string{"Contact Email", "Email"})
	if m.Columns[Email] != 1 {
		t.Fatalf("exact header should win email, got %v", m.Columns)
	}
	if _, ok := m.Columns[FullName]; !ok || m.Columns[FullName] != 0 {
		t.Fatalf("contact email should fall back to fullName, got %v", m.Columns)
	}
}

func TestGuessEachFieldOnce(t *testing.T) {
	m := Guess([]string{"Phone", "Telephone", "Tel"})
	if m.Columns[Phone] != 0 {
		t.Fatalf("first phone column should win, got %v", m.Columns)
	}
	if len(m.Unmapped) != 2 {
		t.Fatalf("duplicates should be unmapped, got %v", m.Unmapped)
	}
}

func TestGuessSplitNamesAndDiacritics(t *testing.T) {
	m := Guess([]string{"Prénom", "Customer First Name", "Surname", "Téléphone"})
	if m.Columns[FirstName] != 1 || m.Columns[LastName] != 2 {
		t.Fatalf("unexpected name mapping %v", m.Columns)
	}
	if m.Columns[Phone] != 3 {
		t.Fatalf("téléphone folds to telephone and must map, got %v", m.Columns)
	}
}

func TestGuessValues(t *testing.T) {
	values, extras := GuessValues(map[string]string{
		"your-name":    "Ann Lee",
		"your-email":   "ann@example.com",
		"phone_number": "+1 650 253 0000",
		"budget":       "$5,000",
		"utm_medium":   "cpc",
		"empty":        "  ",
	})

	if values[FullName] != "Ann Lee" || values[Email] != "ann@example.com" || values[Phone] != "+1 650 253 0000" || values[Value] != "$5,000" {
		t.Fatalf("unexpected values %v", values)
	}
	if !reflect.DeepEqual(extras, map[string]string{"utm_medium": "cpc"}) {
		t.Fatalf("unexpected extras %v", extras)
	}
}

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"$1,234.50", 1234.5, true},
		{"€ 1.234,50", 1234.5, true},
		{"1,234", 1234, true},
		{"12,5", 12.5, true},
		{"1.000.000", 1000000, true},
		{"2500", 2500, true},
		{"USD 99.99", 99.99, true},
		{"-5", 0, false},
		{"n/a", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if (err == nil) != tc.ok {
			t.Errorf("%q: err = %v", tc.in, err)
			continue
		}
		if tc.ok && got != tc.want {
			t.Errorf("%q: got %v want %v", tc.in, got, tc.want)
		}
	}
}

func TestStatusFor(t *testing.T) {
	cases := map[string]string{
		"Closed Won":  "won",
		"NEGOTIATION": "negotiation",
		"proposal":    "proposal",
		"dead":        "lost",
		"":            "new",
		"¯\\_(ツ)_/¯": "new",
	}
	for in, want := range cases {
		if got := StatusFor(in, "new"); got != want {
			t.Errorf("%q: got %q want %q", in, got, want)
		}
	}
}
