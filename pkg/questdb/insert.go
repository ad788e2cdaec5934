package questdb

import (
	"context"
	"fmt"
	"strings"
)

// DefaultInsertBatchSize is the number of rows sent per INSERT statement.
const DefaultInsertBatchSize = 500

// InsertBatch writes n rows into table using multi-row INSERT statements of at
// most batchSize rows each. rowFn returns the values of row i in column order.
// QuestDB does not accept COPY over the postgres wire, so rows go through Exec.
func InsertBatch(ctx context.Context, client QuestDBClient, table string, columns []string, n, batchSize int, rowFn func(i int) []any) error {
	if err := ValidateIdentifier(table); err != nil {
		return err
	}
	if batchSize <= 0 {
		batchSize = DefaultInsertBatchSize
	}

	for lo := 0; lo < n; lo += batchSize {
		hi := min(lo+batchSize, n)
		query, args := buildInsert(table, columns, lo, hi, rowFn)
		if err := client.Exec(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to insert rows %d-%d into %s: %w", lo, hi, table, err)
		}
	}

	return nil
}

func buildInsert(table string, columns []string, lo, hi int, rowFn func(i int) []any) (string, []any) {
	var sb strings.Builder
	args := make([]any, 0, (hi-lo)*len(columns))

	fmt.Fprintf(&sb, "INSERT INTO %s (%s) VALUES ", table, strings.Join(columns, ", "))
	for i := lo; i < hi; i++ {
		if i > lo {
			sb.WriteString(", ")
		}
		sb.WriteByte('(')
		for j, v := range rowFn(i) {
			if j > 0 {
				sb.WriteString(", ")
			}
			args = append(args, v)
			fmt.Fprintf(&sb, "$%d", len(args))
		}
		sb.WriteByte(')')
	}

	return sb.String(), args
}
