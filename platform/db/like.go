package db

import "strings"

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ContainsPattern turns free text into a LIKE/ILIKE pattern that matches it
// as a literal substring. Postgres treats backslash as the default escape.
func ContainsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}
