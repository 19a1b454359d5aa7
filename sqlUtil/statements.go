package sqlUtil

import "strings"

// walkSQL calls visit for every byte outside of quoted identifiers and
// string literals.
func walkSQL(sql string, visit func(i int, c byte)) {
	var quote byte
	for i := 0; i < len(sql); i++ {
		c := sql[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'' || c == '`':
			quote = c
		case c == '[':
			quote = ']'
		default:
			visit(i, c)
		}
	}
}

// SplitStatements splits a blob of ';' terminated statements. Empty
// statements are dropped.
func SplitStatements(sql string) []string {
	result := make([]string, 0)
	start := 0
	appendStatement := func(statement string) {
		statement = strings.TrimSpace(statement)
		if len(statement) > 0 {
			result = append(result, statement)
		}
	}
	walkSQL(sql, func(i int, c byte) {
		if c == ';' {
			appendStatement(sql[start:i])
			start = i + 1
		}
	})
	appendStatement(sql[start:])
	return result
}

// CountPlaceholders returns the number of "?" placeholders of a statement.
func CountPlaceholders(sql string) int {
	count := 0
	walkSQL(sql, func(_ int, c byte) {
		if c == '?' {
			count++
		}
	})
	return count
}
