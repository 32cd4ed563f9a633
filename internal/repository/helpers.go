package repository

import (
	"fmt"
	"strings"
)

// prefixColumns qualifies every column of a comma separated list with a table
// alias, so shared column lists can be reused in joined queries.
func prefixColumns(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, part := range parts {
		parts[i] = alias + "." + strings.TrimSpace(part)
	}
	return strings.Join(parts, ", ")
}

// placeholders renders $1..$n for IN clauses.
func placeholders(n int) string {
	values := make([]string, n)
	for i := 1; i <= n; i++ {
		values[i-1] = fmt.Sprintf("$%d", i)
	}
	return strings.Join(values, ",")
}
