package common

import (
	"regexp"
	"strings"
)

// rowKeywords are leading keywords of statements that produce a result set.
var rowKeywords = map[string]bool{
	"SELECT":   true,
	"SHOW":     true,
	"DESCRIBE": true,
	"DESC":     true,
	"EXPLAIN":  true,
	"WITH":     true,
	"VALUES":   true,
	"PRAGMA":   true,
	"TABLE":    true,
	"CALL":     true,
	"EXEC":     true,
	"EXECUTE":  true,
	"CHECK":    true,
	"ANALYZE":  true,
	"HANDLER":  true,
}

var (
	lineComment   = regexp.MustCompile(`(?m)^\s*(--|#)[^\n]*$`)
	blockComment  = regexp.MustCompile(`(?s)/\*.*?\*/`)
	quotedLiteral = regexp.MustCompile(`'(?:[^'\\]|\\.|'')*'|"(?:[^"\\]|\\.|"")*"`)
	returningWord = regexp.MustCompile(`(?i)\b(RETURNING|OUTPUT\s+(INSERTED|DELETED))\b`)
)

// ReturnsRows reports whether a statement should be run as a query. It looks
// at the first keyword after comments and opening parentheses, and treats DML
// with RETURNING or OUTPUT clauses as row producing.
func ReturnsRows(query string) bool {
	q := blockComment.ReplaceAllString(query, " ")
	q = lineComment.ReplaceAllString(q, " ")
	q = strings.TrimLeft(q, " \t\r\n(")

	end := strings.IndexFunc(q, func(r rune) bool {
		return !(r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z' || r == '_')
	})
	word := q
	if end >= 0 {
		word = q[:end]
	}
	word = strings.ToUpper(word)

	if rowKeywords[word] {
		return true
	}

	switch word {
	case "INSERT", "UPDATE", "DELETE", "REPLACE", "MERGE":
		return returningWord.MatchString(quotedLiteral.ReplaceAllString(q, "''"))
	}
	return false
}
