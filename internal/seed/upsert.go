package seed

import (
	"context"
	"fmt"
	"strings"

	"github.com/StevenLove/fantazy/internal/db"
)

// upsert is a prebuilt INSERT ... ON CONFLICT DO UPDATE for one table.
type upsert struct {
	table   string
	columns []string
	sql     string
}

// newUpsert builds the statement once. Every non-key column is overwritten
// from EXCLUDED; touch, when set, is stamped with NOW() on update.
func newUpsert(table string, columns, conflict []string, touch string) *upsert {
	keys := make(map[string]bool, len(conflict))
	for _, k := range conflict {
		keys[k] = true
	}

	placeholders := make([]string, len(columns))
	var sets []string
	for i, col := range columns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		if !keys[col] {
			sets = append(sets, col+" = EXCLUDED."+col)
		}
	}
	if touch != "" {
		sets = append(sets, touch+" = NOW()")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) ",
		table, strings.Join(columns, ", "), strings.Join(placeholders, ", "), strings.Join(conflict, ", "))
	if len(sets) == 0 {
		b.WriteString("DO NOTHING")
	} else {
		b.WriteString("DO UPDATE SET " + strings.Join(sets, ", "))
	}
	return &upsert{table: table, columns: columns, sql: b.String()}
}

func (u *upsert) exec(ctx context.Context, q db.Querier, values []any) error {
	if len(values) != len(u.columns) {
		return fmt.Errorf("%s: %d values for %d columns", u.table, len(values), len(u.columns))
	}
	if _, err := q.Exec(ctx, u.sql, values...); err != nil {
		return fmt.Errorf("upsert %s: %w", u.table, err)
	}
	return nil
}
