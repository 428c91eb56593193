package postgres

import (
	"strings"

	"github.com/lib/pq"

	"github.com/redbco/redb-dbaccess/internal/database/common"
)

// QuoteIdentifier quotes a PostgreSQL identifier using double quotes
func QuoteIdentifier(name string) string {
	return pq.QuoteIdentifier(name)
}

// escapeValue doubles single quotes and drops NUL bytes, which text values
// cannot hold.
func escapeValue(v interface{}, extra bool) string {
	text, numeric := common.FormatScalar(v)
	if numeric {
		return text
	}

	text = common.DoubleQuotes(strings.ReplaceAll(text, "\x00", ""))
	if extra {
		text = common.EscapeLike(text)
	}
	return text
}
