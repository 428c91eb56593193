package mysql

import (
	"fmt"
	"strings"

	"github.com/redbco/redb-dbaccess/internal/database/common"
)

// QuoteIdentifier quotes a MySQL identifier using backticks
func QuoteIdentifier(name string) string {
	// Replace any existing backticks with double backticks to escape them
	name = strings.Replace(name, "`", "``", -1)
	// Wrap the entire name in backticks
	return fmt.Sprintf("`%s`", name)
}

// EscapeString escapes text the way the MySQL client library does for a
// connection in the default SQL mode: NUL, newline, carriage return,
// backslash, both quote characters and Ctrl-Z are prefixed with a backslash.
func EscapeString(s string) string {
	if !strings.ContainsAny(s, "\x00\n\r\\'\"\x1a") {
		return s
	}

	var b strings.Builder
	b.Grow(len(s) + 8)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case 0:
			b.WriteString(`\0`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\\':
			b.WriteString(`\\`)
		case '\'':
			b.WriteString(`\'`)
		case '"':
			b.WriteString(`\"`)
		case '\x1a':
			b.WriteString(`\Z`)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// EscapeStringQuotes escapes text for a session running with
// NO_BACKSLASH_ESCAPES, where only single quotes need doubling.
func EscapeStringQuotes(s string) string {
	return common.DoubleQuotes(s)
}

// escapeValue renders v for use between single quotes. Numbers pass through
// unchanged, LIKE wildcards are escaped only when extra is set.
func escapeValue(v interface{}, extra, noBackslashEscapes bool) string {
	text, numeric := common.FormatScalar(v)
	if numeric {
		return text
	}

	if noBackslashEscapes {
		text = EscapeStringQuotes(text)
	} else {
		text = EscapeString(text)
	}
	if extra {
		text = common.EscapeLike(text)
	}
	return text
}

func hasMode(modes []string, mode string) bool {
	for _, m := range modes {
		if strings.EqualFold(strings.TrimSpace(m), mode) {
			return true
		}
	}
	return false
}
