package db

import "strings"

// ContainsEscape goes after every LIKE built from ContainsPattern.
const ContainsEscape = `ESCAPE '\'`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ContainsPattern turns user text into a lower-cased substring pattern with
// LIKE metacharacters escaped, so "100%" matches only a literal percent sign.
func ContainsPattern(term string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
}
