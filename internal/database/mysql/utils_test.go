package mysql

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestQuoteIdentifier(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"simple_table", "`simple_table`"},
		{"table`with`backticks", "`table``with``backticks`"},
		{"table-with-dashes", "`table-with-dashes`"},
		{"123table", "`123table`"},
		{"", "``"},
	}

	for _, test := range tests {
		result := QuoteIdentifier(test.input)
		if result != test.expected {
			t.Errorf("QuoteIdentifier(%q) = %q, expected %q", test.input, result, test.expected)
		}
	}
}

func TestEscapeValue(t *testing.T) {
	tests := []struct {
		name     string
		value    interface{}
		extra    bool
		nbe      bool
		expected string
	}{
		{"plain text", "hello", false, false, "hello"},
		{"single quote", "O'Reilly", false, false, `O\'Reilly`},
		{"double quote", `say "hi"`, false, false, `say \"hi\"`},
		{"backslash", `C:\path`, false, false, `C:\\path`},
		{"control characters", "a\x00b\nc\rd\x1ae", false, false, `a\0b\nc\rd\Ze`},
		{"like wildcards untouched", "50%_off", false, false, "50%_off"},
		{"like wildcards escaped", "50%_off", true, false, `50\%\_off`},
		{"no backslash escapes", `it's C:\`, false, true, `it''s C:\`},
		{"integer", 42, false, false, "42"},
		{"negative integer", int64(-7), false, false, "-7"},
		{"integer ignores extra", 5, true, false, "5"},
		{"float", 1.5, false, false, "1.5"},
		{"large float", 1e21, false, false, "1000000000000000000000"},
		{"bool", true, false, false, "1"},
		{"nil", nil, false, false, ""},
		{"bytes", []byte("x'y"), false, false, `x\'y`},
		{"time", time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC), false, false, "2024-03-01 12:30:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, escapeValue(tt.value, tt.extra, tt.nbe))
		})
	}
}

// literalEnd scans a MySQL single quoted literal starting at s[0] and returns
// the index of its closing quote, or -1 when the literal is unterminated.
func literalEnd(s string, backslashEscapes bool) int {
	for i := 1; i < len(s); i++ {
		switch {
		case backslashEscapes && s[i] == '\\':
			i++
		case s[i] == '\'':
			if i+1 < len(s) && s[i+1] == '\'' {
				i++
				continue
			}
			return i
		}
	}
	return -1
}

func TestEscapeKeepsLiteralClosed(t *testing.T) {
	inputs := []string{
		"' OR '1'='1",
		`\' OR 1=1 -- `,
		`\\'; DROP TABLE users; --`,
		"'')/*",
		"\x00'\x1a\\",
		`trailing backslash \`,
		"múltiple 'ünïcode' \\ 字",
	}

	for _, nbe := range []bool{false, true} {
		for _, in := range inputs {
			for _, extra := range []bool{false, true} {
				literal := "'" + escapeValue(in, extra, nbe) + "'"
				assert.Equal(t, len(literal)-1, literalEnd(literal, !nbe),
					"input %q escaped to %q escapes its literal", in, literal)
			}
		}
	}
}

func TestHasMode(t *testing.T) {
	assert.True(t, hasMode([]string{"ANSI_QUOTES", " no_backslash_escapes"}, "NO_BACKSLASH_ESCAPES"))
	assert.False(t, hasMode(nil, "NO_BACKSLASH_ESCAPES"))
}

func TestEscapeFloatSpecials(t *testing.T) {
	assert.Equal(t, "0.1", escapeValue(0.1, false, false))
	assert.Equal(t, "-0.25", escapeValue(float32(-0.25), false, false))
	assert.NotContains(t, escapeValue(math.Pi, false, false), ",")
}
