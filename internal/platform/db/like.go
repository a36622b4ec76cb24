package db

import "strings"

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Contains builds a LIKE pattern matching s literally anywhere in the column.
// MySQL の LIKE は既定で '\' をエスケープ文字として扱う
func Contains(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}
