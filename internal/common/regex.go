package common

import "regexp"

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// IsIdentifier reports whether s can be used verbatim as a SQL table or column name.
func IsIdentifier(s string) bool {
	return identifierPattern.MatchString(s)
}
