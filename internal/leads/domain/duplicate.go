// Package domain holds the lead rules that need no storage: pipeline statuses
// and duplicate matching.
package domain

import (
	"sort"
	"strings"

	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/phone"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/textnorm"

	"github.com/google/uuid"
)

const (
	MatchPhone = "phone"
	MatchEmail = "email"
	MatchName  = "name"

	ConfidenceHigh = "high"
	ConfidenceLow  = "low"
)

// Contact is the part of a lead that duplicate detection compares.
type Contact struct {
	ID       uuid.UUID
	FullName string
	Email    string
	Phone    string
	Company  string
}

// Keys are the comparison forms of a Contact. Empty keys never match.
type Keys struct {
	Phone   string
	Email   string
	Name    string
	Company string
}

func KeysOf(c Contact) Keys {
	return Keys{
		Phone:   phone.MatchKey(c.Phone),
		Email:   strings.ToLower(strings.TrimSpace(c.Email)),
		Name:    textnorm.Fold(c.FullName),
		Company: textnorm.Fold(c.Company),
	}
}

func (k Keys) Empty() bool {
	return k.Phone == "" && k.Email == "" && k.Name == ""
}

// Match is an existing lead that looks like the candidate.
type Match struct {
	LeadID     uuid.UUID `json:"leadId"`
	FullName   string    `json:"fullName"`
	MatchedOn  []string  `json:"matchedOn"`
	Confidence string    `json:"confidence"`
}

// Compare returns the fields on which candidate and existing agree. A name
// only counts when the companies agree too, or both have none.
func Compare(candidate, existing Keys) []string {
	var on []string
	if candidate.Phone != "" && candidate.Phone == existing.Phone {
		on = append(on, MatchPhone)
	}
	if candidate.Email != "" && candidate.Email == existing.Email {
		on = append(on, MatchEmail)
	}
	if candidate.Name != "" && candidate.Name == existing.Name && candidate.Company == existing.Company {
		on = append(on, MatchName)
	}
	return on
}

func confidence(on []string) string {
	for _, f := range on {
		if f == MatchPhone || f == MatchEmail {
			return ConfidenceHigh
		}
	}
	return ConfidenceLow
}

// FindDuplicates checks candidate against existing and returns the matches,
// strongest first.
func FindDuplicates(candidate Contact, existing []Contact) []Match {
	ck := KeysOf(candidate)
	if ck.Empty() {
		return nil
	}

	matches := make([]Match, 0)
	for _, e := range existing {
		if e.ID == candidate.ID && e.ID != uuid.Nil {
			continue
		}
		on := Compare(ck, KeysOf(e))
		if len(on) == 0 {
			continue
		}
		matches = append(matches, Match{
			LeadID:     e.ID,
			FullName:   e.FullName,
			MatchedOn:  on,
			Confidence: confidence(on),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Confidence != matches[j].Confidence {
			return matches[i].Confidence == ConfidenceHigh
		}
		return len(matches[i].MatchedOn) > len(matches[j].MatchedOn)
	})
	return matches
}

// HasStrong reports whether any match is high confidence.
func HasStrong(matches []Match) bool {
	for _, m := range matches {
		if m.Confidence == ConfidenceHigh {
			return true
		}
	}
	return false
}

// Index detects duplicates among contacts that are not stored yet, such as the
// rows of one import file.
type Index struct {
	phones map[string]int
	emails map[string]int
	names  map[string]int
}

func NewIndex() *Index {
	return &Index{
		phones: make(map[string]int),
		emails: make(map[string]int),
		names:  make(map[string]int),
	}
}

func nameKey(k Keys) string {
	return k.Name + "\x00" + k.Company
}

// Seen returns the position of an earlier contact that matches c, or -1.
func (ix *Index) Seen(c Contact) int {
	k := KeysOf(c)
	if k.Phone != "" {
		if pos, ok := ix.phones[k.Phone]; ok {
			return pos
		}
	}
	if k.Email != "" {
		if pos, ok := ix.emails[k.Email]; ok {
			return pos
		}
	}
	if k.Name != "" {
		if pos, ok := ix.names[nameKey(k)]; ok {
			return pos
		}
	}
	return -1
}

// Add records c at position pos. Earlier positions win for shared keys.
func (ix *Index) Add(pos int, c Contact) {
	k := KeysOf(c)
	if _, ok := ix.phones[k.Phone]; k.Phone != "" && !ok {
		ix.phones[k.Phone] = pos
	}
	if _, ok := ix.emails[k.Email]; k.Email != "" && !ok {
		ix.emails[k.Email] = pos
	}
	if _, ok := ix.names[nameKey(k)]; k.Name != "" && !ok {
		ix.names[nameKey(k)] = pos
	}
}
