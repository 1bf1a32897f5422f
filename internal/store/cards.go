package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/StevenLove/fantazy/internal/config"
	"github.com/StevenLove/fantazy/internal/db"
	"github.com/StevenLove/fantazy/internal/nfl"
)

// CardFilter narrows the card list. Empty fields do not filter.
type CardFilter struct {
	Timeframe string
	Type      string
	CreatedBy string
}

func listCardsQuery(f CardFilter) (string, []any) {
	var p placeholders
	var where []string
	if f.Timeframe != "" {
		where = append(where, "pc.timeframe = "+p.next(f.Timeframe))
	}
	if f.Type != "" {
		where = append(where, "pc.type = "+p.next(f.Type))
	}
	if f.CreatedBy != "" {
		where = append(where, "pc.created_by = "+p.next(f.CreatedBy))
	}

	var b strings.Builder
	b.WriteString("SELECT COALESCE(json_agg(row_to_json(c) ORDER BY c.is_default DESC, c.created_at DESC), '[]'::json) FROM (")
	b.WriteString(db.CardSelectSQL)
	if len(where) > 0 {
		b.WriteString("\n\tWHERE " + strings.Join(where, " AND "))
	}
	b.WriteString("\n\tGROUP BY pc.id) c")
	return b.String(), p.args
}

// ListCards returns cards with their ordered field keys, defaults first,
// newest first.
func (s *Store) ListCards(ctx context.Context, f CardFilter) ([]byte, error) {
	sql, args := listCardsQuery(f)
	raw, err := s.queryJSONList(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	return raw, nil
}

// GetCard returns one card with its fields or ErrNotFound.
func (s *Store) GetCard(ctx context.Context, id uuid.UUID) ([]byte, error) {
	raw, err := s.queryJSON(ctx, db.StmtCardByID, id)
	if err != nil {
		return nil, fmt.Errorf("get card %s: %w", id, err)
	}
	return raw, nil
}

// NewCard is a validated card ready to insert.
type NewCard struct {
	Name        string
	Description string
	Type        string
	Timeframe   string
	Positions   []nfl.Position
	GraphConfig json.RawMessage
	Fields      []string
	CreatedBy   string
}

const insertCardSQL = `
	INSERT INTO ` + config.CardsTable + ` (
		id, name, description, type, timeframe,
		position_qb, position_rb, position_wr, position_te, position_k,
		graph_config, created_by
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`

const insertCardFieldSQL = `
	INSERT INTO ` + config.CardFieldsTable + ` (player_card_id, field_name, display_order)
	VALUES ($1,$2,$3)`

// CreateCard inserts the card and its ordered field rows in one transaction,
// then re-reads the joined card. Any failure rolls the whole card back.
func (s *Store) CreateCard(ctx context.Context, c NewCard) ([]byte, error) {
	id := s.newID()
	flags := make(map[nfl.Position]bool, len(c.Positions))
	for _, p := range c.Positions {
		flags[p] = true
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin card tx: %w", err)
	}
	defer tx.Rollback(ctx) // no-op after Commit

	_, err = tx.Exec(ctx, insertCardSQL,
		id, c.Name, nilEmpty(c.Description), c.Type, c.Timeframe,
		flags[nfl.QB], flags[nfl.RB], flags[nfl.WR], flags[nfl.TE], flags[nfl.K],
		nilJSON(c.GraphConfig), c.CreatedBy,
	)
	if err != nil {
		return nil, fmt.Errorf("insert card: %w", err)
	}
	for i, field := range c.Fields {
		if _, err := tx.Exec(ctx, insertCardFieldSQL, id, field, i+1); err != nil {
			return nil, fmt.Errorf("insert card field %q: %w", field, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit card: %w", err)
	}

	return s.GetCard(ctx, id)
}

// DeleteCard removes a card; its field rows cascade. ErrNotFound when no
// card has that id.
func (s *Store) DeleteCard(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, db.StmtDeleteCard, id)
	if err != nil {
		return fmt.Errorf("delete card %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete card %s: %w", id, ErrNotFound)
	}
	return nil
}

// FieldFilter narrows the field catalog. Values must already be validated
// through the nfl package parsers.
type FieldFilter struct {
	Position  nfl.Position
	Timeframe string
	Category  string
}

func fieldDefinitionsQuery(f FieldFilter) (string, []any, error) {
	var p placeholders
	conds := []string{"d.is_active = TRUE"}
	if f.Position != "" {
		col := f.Position.Column()
		if col == "" {
			return "", nil, fmt.Errorf("unknown position %q", f.Position)
		}
		conds = append(conds, "d."+col+" = TRUE")
	}
	if f.Timeframe != "" {
		conds = append(conds, "(d.timeframe = "+p.next(f.Timeframe)+" OR d.timeframe = '"+nfl.TimeframeBoth+"')")
	}
	if f.Category != "" {
		conds = append(conds, "d.category = "+p.next(f.Category))
	}
	sql := "SELECT COALESCE(json_agg(row_to_json(d) ORDER BY d.sort_order, d.field_label), '[]'::json) FROM " +
		config.FieldDefinitionsTable + " d WHERE " + strings.Join(conds, " AND ")
	return sql, p.args, nil
}

// ListFieldDefinitions returns active catalog entries ordered for display.
func (s *Store) ListFieldDefinitions(ctx context.Context, f FieldFilter) ([]byte, error) {
	sql, args, err := fieldDefinitionsQuery(f)
	if err != nil {
		return nil, err
	}
	raw, err := s.queryJSONList(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list field definitions: %w", err)
	}
	return raw, nil
}

func nilEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nilJSON(raw json.RawMessage) any {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return raw
}
