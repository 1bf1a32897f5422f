package seed

import (
	"context"
	"log/slog"

	"github.com/StevenLove/fantazy/internal/catalog"
	"github.com/StevenLove/fantazy/internal/config"
	"github.com/StevenLove/fantazy/internal/db"
	"github.com/StevenLove/fantazy/internal/nfl"
)

var fieldsUpsert = newUpsert(config.FieldDefinitionsTable, []string{
	"field_key", "field_label", "field_description", "data_type", "category", "timeframe",
	"format_type", "position_qb", "position_rb", "position_wr", "position_te", "position_k",
	"sort_order", "is_active",
}, []string{"field_key"}, "")

const deactivateFieldsSQL = `UPDATE ` + config.FieldDefinitionsTable + `
	SET is_active = FALSE WHERE is_active AND NOT (field_key = ANY($1::text[]))`

// SeedFields writes the field catalog in one transaction. Definitions that
// are no longer in the catalog are deactivated, never deleted, so existing
// cards keep resolving.
func SeedFields(ctx context.Context, q db.Querier, fields *catalog.Catalog, logger *slog.Logger) Result {
	var result Result

	tx, err := q.Begin(ctx)
	if err != nil {
		result.AddErrorf("begin: %v", err)
		return result
	}
	fail := func(format string, args ...interface{}) Result {
		_ = tx.Rollback(ctx)
		result.Upserted = 0
		result.AddErrorf(format, args...)
		return result
	}

	keys := make([]string, 0, fields.Len())
	for _, f := range fields.Fields() {
		keys = append(keys, f.Key)
		err := fieldsUpsert.exec(ctx, tx, []any{
			f.Key, f.Label, nullable(f.Description), f.DataType, f.Category, f.Timeframe,
			nullable(f.Format),
			f.HasPosition(nfl.QB), f.HasPosition(nfl.RB), f.HasPosition(nfl.WR),
			f.HasPosition(nfl.TE), f.HasPosition(nfl.K),
			f.SortOrder, true,
		})
		if err != nil {
			return fail("field %s: %v", f.Key, err)
		}
		result.Upserted++
	}

	tag, err := tx.Exec(ctx, deactivateFieldsSQL, keys)
	if err != nil {
		return fail("deactivate fields: %v", err)
	}
	result.Skipped = int(tag.RowsAffected())

	if err := tx.Commit(ctx); err != nil {
		return fail("commit: %v", err)
	}
	logger.Info("Field catalog done", "summary", result.Summary())
	return result
}
