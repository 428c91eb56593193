package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReturnsRows(t *testing.T) {
	tests := []struct {
		query string
		rows  bool
	}{
		{"SELECT 1", true},
		{"  select * from users", true},
		{"(SELECT 1) UNION (SELECT 2)", true},
		{"SHOW TABLES", true},
		{"DESCRIBE users", true},
		{"desc users", true},
		{"EXPLAIN SELECT 1", true},
		{"WITH t AS (SELECT 1) SELECT * FROM t", true},
		{"PRAGMA table_info(users)", true},
		{"/* hint */ SELECT 1", true},
		{"-- comment\nSELECT 1", true},
		{"# mysql comment\nSELECT 1", true},
		{"INSERT INTO t (a) VALUES ('x') RETURNING id", true},
		{"DELETE FROM t OUTPUT DELETED.id WHERE id = 1", true},
		{"INSERT INTO t (a) VALUES ('x')", false},
		{"INSERT INTO t (note) VALUES ('returning soon')", false},
		{"INSERT INTO t (note) VALUES ('it''s \\' returning')", false},
		{"UPDATE t SET a = 1 WHERE b = 2", false},
		{"REPLACE INTO t SET a = 1", false},
		{"DELETE FROM t WHERE id = 1", false},
		{"CREATE TABLE t (id INT)", false},
		{"SET @@SESSION.sql_mode = ''", false},
		{"USE `shop`", false},
		{"LOCK TABLES `t` WRITE", false},
		{"SELECTION", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.rows, ReturnsRows(tt.query))
		})
	}
}
