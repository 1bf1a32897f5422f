package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/StevenLove/fantazy/internal/nfl"
)

func newMockStore(t *testing.T) (*Store, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return New(mock), mock
}

func jsonRow(raw string) *pgxmock.Rows {
	return pgxmock.NewRows([]string{"json"}).AddRow([]byte(raw))
}

// --------------------------------------------------------------------------
// Query composition
// --------------------------------------------------------------------------

func TestRangeStatsQuery(t *testing.T) {
	t.Run("LN window", func(t *testing.T) {
		sql, args := rangeStatsQuery(7, 2024, nfl.RangeL3)
		assert.Contains(t, sql, "COUNT(*) AS games_played")
		assert.Contains(t, sql, "AVG(w.passing_yards) AS avg_passing_yards")
		assert.Contains(t, sql, "AVG(w.fantasy_points_ppr) AS avg_fantasy_points_ppr")
		assert.Contains(t, sql, "w.week >= (SELECT MAX(m.week) - $3 + 1 FROM player_weekly_stats m WHERE m.player_id = $1 AND m.season = $2)")
		assert.Equal(t, []any{7, 2024, 3}, args)
	})

	t.Run("L10 window", func(t *testing.T) {
		_, args := rangeStatsQuery(7, 2024, nfl.RangeL10)
		assert.Equal(t, 10, args[2])
	})

	t.Run("season keeps every row", func(t *testing.T) {
		sql, args := rangeStatsQuery(7, 2024, nfl.RangeSeason)
		assert.NotContains(t, sql, "MAX(")
		assert.Contains(t, sql, "WHERE w.player_id = $1 AND w.season = $2) agg")
		assert.Equal(t, []any{7, 2024}, args)
	})
}

func TestWeeklyStatsQuery(t *testing.T) {
	sql, args := weeklyStatsQuery(3, 2024, nil)
	assert.NotContains(t, sql, "ANY(")
	assert.Contains(t, sql, "(g.away_team = w.recent_team OR g.home_team = w.recent_team)")
	assert.Contains(t, sql, "ORDER BY r.week")
	assert.Equal(t, []any{3, 2024}, args)

	sql, args = weeklyStatsQuery(3, 2024, []int{1, 2, 19})
	assert.Contains(t, sql, "AND w.week = ANY($3)")
	assert.Equal(t, []int{1, 2, 19}, args[2])
}

func TestListCardsQuery(t *testing.T) {
	sql, args := listCardsQuery(CardFilter{})
	assert.NotContains(t, sql, "WHERE")
	assert.Contains(t, sql, "ORDER BY c.is_default DESC, c.created_at DESC")
	assert.Contains(t, sql, "GROUP BY pc.id) c")
	assert.Empty(t, args)

	sql, args = listCardsQuery(CardFilter{Timeframe: "weekly", Type: "graph", CreatedBy: "alice"})
	assert.Contains(t, sql, "WHERE pc.timeframe = $1 AND pc.type = $2 AND pc.created_by = $3")
	assert.Equal(t, []any{"weekly", "graph", "alice"}, args)

	_, args = listCardsQuery(CardFilter{CreatedBy: "bob"})
	assert.Equal(t, []any{"bob"}, args)
}

func TestFieldDefinitionsQuery(t *testing.T) {
	sql, args, err := fieldDefinitionsQuery(FieldFilter{Position: nfl.QB, Timeframe: nfl.TimeframeWeekly})
	require.NoError(t, err)
	assert.Contains(t, sql, "d.is_active = TRUE AND d.position_qb = TRUE AND (d.timeframe = $1 OR d.timeframe = 'both')")
	assert.Contains(t, sql, "ORDER BY d.sort_order, d.field_label")
	assert.Equal(t, []any{"weekly"}, args)

	sql, args, err = fieldDefinitionsQuery(FieldFilter{Category: "fantasy"})
	require.NoError(t, err)
	assert.Contains(t, sql, "d.category = $1")
	assert.NotContains(t, sql, "position_")
	assert.Equal(t, []any{"fantasy"}, args)

	_, _, err = fieldDefinitionsQuery(FieldFilter{Position: nfl.Position("1=1; --")})
	assert.Error(t, err)
}

// --------------------------------------------------------------------------
// Reads
// --------------------------------------------------------------------------

func TestListPlayersDefaultsToFantasyPositions(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery("players_list").
		WithArgs([]string{"QB", "RB", "WR", "TE", "K"}, "ACT").
		WillReturnRows(jsonRow(`[{"id":1}]`))

	raw, err := s.ListPlayers(context.Background(), PlayerFilter{Status: DefaultStatus})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":1}]`, string(raw))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetPlayerNotFound(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery("player_by_id").WithArgs(99).WillReturnError(pgx.ErrNoRows)

	_, err := s.GetPlayer(context.Background(), 99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSeasonalStatsAbsentIsNil(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery("seasonal_stats").WithArgs(1, 2024, "REG").WillReturnError(pgx.ErrNoRows)

	raw, err := s.SeasonalStats(context.Background(), 1, 2024, "REG")
	require.NoError(t, err)
	assert.Nil(t, raw)
}

func TestNGSStatsRequestedKindsOnly(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery("ngs_rushing").WithArgs(4, 2024).WillReturnRows(jsonRow(`[{"week":1}]`))

	out, err := s.NGSStats(context.Background(), 4, 2024, []nfl.NGSKind{nfl.NGSRushing})
	require.NoError(t, err)
	assert.Len(t, out, 1)
	assert.JSONEq(t, `[{"week":1}]`, string(out[nfl.NGSRushing]))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGameStatsComposite(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery("game_by_id").WithArgs("2024_05_MIN_NYJ").
		WillReturnRows(pgxmock.NewRows([]string{"game", "season", "week"}).
			AddRow([]byte(`{"game_id":"2024_05_MIN_NYJ"}`), 2024, 5))
	mock.ExpectQuery("weekly_stats_for_week").WithArgs(1, 2024, 5).
		WillReturnRows(jsonRow(`{"week":5,"receiving_yards":98}`))
	mock.ExpectQuery("ngs_passing_for_week").WithArgs(1, 2024, 5).WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery("ngs_receiving_for_week").WithArgs(1, 2024, 5).
		WillReturnRows(jsonRow(`{"avg_separation":3.1}`))
	mock.ExpectQuery("ngs_rushing_for_week").WithArgs(1, 2024, 5).WillReturnError(pgx.ErrNoRows)

	gs, err := s.GameStats(context.Background(), 1, "2024_05_MIN_NYJ")
	require.NoError(t, err)

	out, err := json.Marshal(gs)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"game": {"game_id":"2024_05_MIN_NYJ"},
		"weekly_stats": {"week":5,"receiving_yards":98},
		"ngs_stats": {"passing": null, "receiving": {"avg_separation":3.1}, "rushing": null}
	}`, string(out))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGameStatsMissingGame(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery("game_by_id").WithArgs("nope").WillReturnError(pgx.ErrNoRows)

	_, err := s.GameStats(context.Background(), 1, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRangeStatsPassesThrough(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery("FROM player_weekly_stats w").WithArgs(2, 2024, 5).
		WillReturnRows(jsonRow(`{"games_played":5,"avg_passing_yards":250.2}`))

	raw, err := s.RangeStats(context.Background(), 2, 2024, nfl.RangeL5)
	require.NoError(t, err)
	assert.JSONEq(t, `{"games_played":5,"avg_passing_yards":250.2}`, string(raw))
}

// --------------------------------------------------------------------------
// Card writes
// --------------------------------------------------------------------------

func sequentialIDs(ids ...uuid.UUID) func() uuid.UUID {
	i := 0
	return func() uuid.UUID {
		id := ids[i]
		i++
		return id
	}
}

func TestCreateCardInsertsFieldsInOrder(t *testing.T) {
	s, mock := newMockStore(t)
	id := uuid.MustParse("6f1c1c8e-7c1e-4f5e-9a55-0d5b7f7f6a01")
	s.newID = sequentialIDs(id)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO player_cards").
		WithArgs(id, "QB basics", nil, "data_display", "weekly",
			true, false, false, false, false, nil, "alice").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO player_card_fields").
		WithArgs(id, "passing_yards", 1).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO player_card_fields").
		WithArgs(id, "passing_tds", 2).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()
	mock.ExpectQuery("card_by_id").WithArgs(id).
		WillReturnRows(jsonRow(`{"id":"6f1c1c8e-7c1e-4f5e-9a55-0d5b7f7f6a01","fields":["passing_yards","passing_tds"]}`))

	raw, err := s.CreateCard(context.Background(), NewCard{
		Name:      "QB basics",
		Type:      nfl.CardTypeDataDisplay,
		Timeframe: nfl.TimeframeWeekly,
		Positions: []nfl.Position{nfl.QB},
		Fields:    []string{"passing_yards", "passing_tds"},
		CreatedBy: "alice",
	})
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"fields":["passing_yards","passing_tds"]`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateCardRollsBackOnFieldFailure(t *testing.T) {
	s, mock := newMockStore(t)
	id := uuid.New()
	s.newID = sequentialIDs(id)
	graph := json.RawMessage(`{"x_axis":"week","y_axis":"receiving_yards","chart_type":"line"}`)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO player_cards").
		WithArgs(id, "WR trend", "yards by week", "graph", "cumulative",
			false, false, true, true, false, graph, "bob").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO player_card_fields").
		WithArgs(id, "receiving_yards", 1).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, err := s.CreateCard(context.Background(), NewCard{
		Name:        "WR trend",
		Description: "yards by week",
		Type:        nfl.CardTypeGraph,
		Timeframe:   nfl.TimeframeCumulative,
		Positions:   []nfl.Position{nfl.WR, nfl.TE},
		GraphConfig: graph,
		Fields:      []string{"receiving_yards"},
		CreatedBy:   "bob",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "receiving_yards")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateCardSameNameDifferentCreators(t *testing.T) {
	s, mock := newMockStore(t)
	first, second := uuid.New(), uuid.New()
	s.newID = sequentialIDs(first, second)

	for _, tc := range []struct {
		id      uuid.UUID
		creator string
	}{{first, "alice"}, {second, "bob"}} {
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO player_cards").
			WithArgs(tc.id, "Shared", nil, "data_display", "weekly",
				false, true, false, false, false, nil, tc.creator).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectExec("INSERT INTO player_card_fields").
			WithArgs(tc.id, "rushing_yards", 1).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectCommit()
		mock.ExpectQuery("card_by_id").WithArgs(tc.id).
			WillReturnRows(jsonRow(`{"id":"` + tc.id.String() + `"}`))
	}

	card := NewCard{
		Name: "Shared", Type: nfl.CardTypeDataDisplay, Timeframe: nfl.TimeframeWeekly,
		Positions: []nfl.Position{nfl.RB}, Fields: []string{"rushing_yards"},
	}
	card.CreatedBy = "alice"
	a, err := s.CreateCard(context.Background(), card)
	require.NoError(t, err)
	card.CreatedBy = "bob"
	b, err := s.CreateCard(context.Background(), card)
	require.NoError(t, err)

	assert.NotEqual(t, string(a), string(b))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteCardNotFound(t *testing.T) {
	s, mock := newMockStore(t)
	id := uuid.New()
	mock.ExpectExec("delete_card").WithArgs(id).WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := s.DeleteCard(context.Background(), id)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteCard(t *testing.T) {
	s, mock := newMockStore(t)
	id := uuid.New()
	mock.ExpectExec("delete_card").WithArgs(id).WillReturnResult(pgxmock.NewResult("DELETE", 1))

	require.NoError(t, s.DeleteCard(context.Background(), id))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListFieldDefinitions(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery("FROM player_card_field_definitions d").WithArgs("weekly").
		WillReturnRows(jsonRow(`[{"field_key":"passing_yards"}]`))

	raw, err := s.ListFieldDefinitions(context.Background(), FieldFilter{Position: nfl.QB, Timeframe: "weekly"})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"field_key":"passing_yards"}]`, string(raw))
}
