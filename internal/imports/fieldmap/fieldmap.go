// Package fieldmap guesses which spreadsheet column or form field feeds which
// lead attribute.
package fieldmap

import (
	"sort"
	"strings"

	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/textnorm"
)

// Field is a lead attribute that a column can map to.
type Field string

const (
	FullName   Field = "fullName"
	FirstName  Field = "firstName"
	LastName   Field = "lastName"
	Email      Field = "email"
	Phone      Field = "phone"
	Company    Field = "company"
	Source     Field = "source"
	Status     Field = "status"
	Value      Field = "value"
	Notes      Field = "notes"
	AssignedTo Field = "assignedTo"
)

// Fields lists targets in tie-break order.
var Fields = []Field{FullName, FirstName, LastName, Email, Phone, Company, Source, Status, Value, Notes, AssignedTo}

var synonyms = map[Field][]string{
	FullName:   {"full name", "name", "contact name", "contact", "customer name", "client name", "lead name", "customer", "client", "nombre", "naam"},
	FirstName:  {"first name", "firstname", "given name", "forename", "voornaam"},
	LastName:   {"last name", "lastname", "surname", "family name", "achternaam"},
	Email:      {"email", "e mail", "email address", "e mail address", "mail", "correo"},
	Phone:      {"phone", "phone number", "telephone", "tel", "mobile", "mobile number", "cell", "cell phone", "whatsapp", "telefoon", "telefono"},
	Company:    {"company", "company name", "organization", "organisation", "business", "account", "employer", "firm", "bedrijf", "empresa"},
	Source:     {"source", "lead source", "channel", "origin", "campaign", "utm source"},
	Status:     {"status", "stage", "lead status", "pipeline stage", "deal stage"},
	Value:      {"value", "deal value", "amount", "budget", "revenue", "deal size", "price", "estimated value", "deal amount"},
	Notes:      {"notes", "note", "comments", "comment", "description", "remarks", "message", "details"},
	AssignedTo: {"assigned to", "owner", "assignee", "sales rep", "rep", "agent", "account owner", "lead owner", "salesperson"},
}

var fieldOrder = func() map[Field]int {
	m := make(map[Field]int, len(Fields))
	for i, f := range Fields {
		m[f] = i
	}
	return m
}()

// Normalize folds a header for comparison.
func Normalize(header string) string {
	return textnorm.Fold(header)
}

// Mapping is the guessed column assignment.
type Mapping struct {
	// Columns maps each field to a zero-based column index.
	Columns map[Field]int `json:"columns"`
	// Unmapped lists headers that feed no field, in file order.
	Unmapped []string `json:"unmapped"`
}

// Header returns the header text mapped to f, or "".
func (m Mapping) Header(headers []string, f Field) string {
	idx, ok := m.Columns[f]
	if !ok || idx < 0 || idx >= len(headers) {
		return ""
	}
	return headers[idx]
}

type candidate struct {
	field  Field
	suffix bool
	length int
}

func better(a, b candidate) bool {
	if a.suffix != b.suffix {
		return a.suffix
	}
	if a.length != b.length {
		return a.length > b.length
	}
	return fieldOrder[a.field] < fieldOrder[b.field]
}

// Guess maps headers onto fields. Exact synonym matches are assigned first,
// then word-level contains matches, preferring a synonym that ends the
// header and then the longest one. Every header and every field is used at
// most once; earlier headers win ties.
func Guess(headers []string) Mapping {
	normalized := make([]string, len(headers))
	for i, h := range headers {
		normalized[i] = Normalize(h)
	}

	columns := make(map[Field]int)
	taken := make([]bool, len(headers))

	for i, h := range normalized {
		if h == "" {
			continue
		}
		for _, f := range Fields {
			if _, used := columns[f]; used {
				continue
			}
			if exactMatch(h, f) {
				columns[f] = i
				taken[i] = true
				break
			}
		}
	}

	for i, h := range normalized {
		if taken[i] || h == "" {
			continue
		}
		var best *candidate
		for _, f := range Fields {
			if _, used := columns[f]; used {
				continue
			}
			if c, ok := containsMatch(h, f); ok && (best == nil || better(c, *best)) {
				cc := c
				best = &cc
			}
		}
		if best != nil {
			columns[best.field] = i
			taken[i] = true
		}
	}

	unmapped := make([]string, 0)
	for i, h := range headers {
		if !taken[i] && strings.TrimSpace(h) != "" {
			unmapped = append(unmapped, h)
		}
	}
	return Mapping{Columns: columns, Unmapped: unmapped}
}

func exactMatch(h string, f Field) bool {
	compact := strings.ReplaceAll(h, " ", "")
	for _, syn := range synonyms[f] {
		if h == syn || compact == strings.ReplaceAll(syn, " ", "") {
			return true
		}
	}
	return false
}

func containsMatch(h string, f Field) (candidate, bool) {
	padded := " " + h + " "
	var best candidate
	found := false
	for _, syn := range synonyms[f] {
		if !strings.Contains(padded, " "+syn+" ") {
			continue
		}
		c := candidate{field: f, suffix: strings.HasSuffix(h, syn), length: len(syn)}
		if !found || better(c, best) {
			best = c
			found = true
		}
	}
	return best, found
}

// GuessValues maps arbitrary form fields onto lead fields. Keys are visited
// in sorted order so the result is stable. Non-empty fields that map to
// nothing are returned as extras.
func GuessValues(form map[string]string) (map[Field]string, map[string]string) {
	keys := make([]string, 0, len(form))
	for k := range form {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	mapping := Guess(keys)
	values := make(map[Field]string, len(mapping.Columns))
	used := make(map[int]bool, len(mapping.Columns))
	for f, idx := range mapping.Columns {
		used[idx] = true
		if v := strings.TrimSpace(form[keys[idx]]); v != "" {
			values[f] = v
		}
	}

	extras := make(map[string]string)
	for i, k := range keys {
		if used[i] {
			continue
		}
		if v := strings.TrimSpace(form[k]); v != "" {
			extras[k] = v
		}
	}
	return values, extras
}

// JoinName combines first and last name columns.
func JoinName(first, last string) string {
	return strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
}
