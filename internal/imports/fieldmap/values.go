package fieldmap

import (
	"errors"
	"strconv"
	"strings"
	"unicode"

	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/leads/domain"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/textnorm"
)

var errInvalidAmount = errors.New("invalid amount")

// ParseAmount reads a monetary value with currency symbols, spaces and
// thousand separators removed. A lone comma followed by exactly three digits
// is a thousand separator; otherwise the last of ',' and '.' is the decimal
// mark.
func ParseAmount(raw string) (float64, error) {
	var b strings.Builder
	for _, r := range raw {
		if unicode.IsDigit(r) || r == ',' || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	s := b.String()
	if s == "" {
		return 0, errInvalidAmount
	}

	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")
	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(s, ",") > 1 || len(s)-lastComma-1 == 3 {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.Replace(s, ",", ".", 1)
		}
	case strings.Count(s, ".") > 1:
		s = strings.ReplaceAll(s, ".", "")
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0, errInvalidAmount
	}
	return v, nil
}

var statusSynonyms = map[string]string{
	"new":            domain.StatusNew,
	"open":           domain.StatusNew,
	"fresh":          domain.StatusNew,
	"contacted":      domain.StatusContacted,
	"called":         domain.StatusContacted,
	"reached":        domain.StatusContacted,
	"in contact":     domain.StatusContacted,
	"attempted":      domain.StatusContacted,
	"qualified":      domain.StatusQualified,
	"sql":            domain.StatusQualified,
	"mql":            domain.StatusQualified,
	"proposal":       domain.StatusProposal,
	"proposal sent":  domain.StatusProposal,
	"quote":          domain.StatusProposal,
	"quoted":         domain.StatusProposal,
	"negotiation":    domain.StatusNegotiation,
	"negotiating":    domain.StatusNegotiation,
	"won":            domain.StatusWon,
	"closed won":     domain.StatusWon,
	"signed":         domain.StatusWon,
	"customer":       domain.StatusWon,
	"lost":           domain.StatusLost,
	"closed lost":    domain.StatusLost,
	"dead":           domain.StatusLost,
	"rejected":       domain.StatusLost,
	"disqualified":   domain.StatusLost,
	"not interested": domain.StatusLost,
}

// StatusFor maps free-form status text onto a pipeline stage.
func StatusFor(raw, fallback string) string {
	key := textnorm.Fold(raw)
	if key == "" {
		return fallback
	}
	if domain.ValidStatus(strings.ReplaceAll(key, " ", "_")) {
		return strings.ReplaceAll(key, " ", "_")
	}
	if status, ok := statusSynonyms[key]; ok {
		return status
	}
	return fallback
}
