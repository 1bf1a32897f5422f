package nfl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePosition(t *testing.T) {
	tests := []struct {
		in      string
		want    Position
		wantErr bool
	}{
		{"QB", QB, false},
		{"wr", WR, false},
		{" te ", TE, false},
		{"PK", K, false},
		{"k", K, false},
		{"OL", "", true},
		{"position_qb", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePosition(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPositionColumn(t *testing.T) {
	assert.Equal(t, "position_qb", QB.Column())
	assert.Equal(t, "position_k", K.Column())
	assert.Equal(t, "", Position("DROP TABLE").Column())
}

func TestParseRange(t *testing.T) {
	tests := []struct {
		in     string
		want   Range
		window int
	}{
		{"L3", RangeL3, 3},
		{"l5", RangeL5, 5},
		{"L10", RangeL10, 10},
		{"season", RangeSeason, 0},
		{"", RangeSeason, 0},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRange(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.window, got.Window())
		})
	}

	_, err := ParseRange("L4")
	assert.Error(t, err)
}

func TestParseWeek(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"1", 1, false},
		{"18", 18, false},
		{"WC", 19, false},
		{"dr", 20, false},
		{"CC", 21, false},
		{"SB", 22, false},
		{"22", 22, false},
		{"0", 0, true},
		{"23", 0, true},
		{"PRO", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseWeek(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseWeekList(t *testing.T) {
	weeks, err := ParseWeekList("1, 2,WC,2,,SB")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 19, 22}, weeks)

	weeks, err = ParseWeekList("")
	require.NoError(t, err)
	assert.Nil(t, weeks)

	_, err = ParseWeekList("1,x")
	assert.Error(t, err)
}

func TestWeekLabelRoundTrip(t *testing.T) {
	for _, label := range []string{"WC", "DR", "CC", "SB"} {
		w, err := ParseWeek(label)
		require.NoError(t, err)
		assert.Equal(t, label, WeekLabel(w))
		assert.Equal(t, SeasonTypePost, SeasonType(w))
	}
	assert.Equal(t, "7", WeekLabel(7))
	assert.Equal(t, SeasonTypeRegular, SeasonType(18))
}

func TestParseRosterStatus(t *testing.T) {
	st, err := ParseRosterStatus(" res ")
	require.NoError(t, err)
	assert.Equal(t, "RES", st)

	st, err = ParseRosterStatus("All")
	require.NoError(t, err)
	assert.Empty(t, st)

	_, err = ParseRosterStatus("ACTIVE")
	assert.Error(t, err)
}

func TestParseSeasonType(t *testing.T) {
	st, err := ParseSeasonType("")
	require.NoError(t, err)
	assert.Equal(t, "REG", st)

	st, err = ParseSeasonType("post")
	require.NoError(t, err)
	assert.Equal(t, "POST", st)

	_, err = ParseSeasonType("PRE")
	assert.Error(t, err)
}

func TestParseNGSType(t *testing.T) {
	kinds, err := ParseNGSType("all")
	require.NoError(t, err)
	assert.Equal(t, NGSKinds, kinds)

	kinds, err = ParseNGSType("")
	require.NoError(t, err)
	assert.Len(t, kinds, 3)

	kinds, err = ParseNGSType("Rushing")
	require.NoError(t, err)
	assert.Equal(t, []NGSKind{NGSRushing}, kinds)

	_, err = ParseNGSType("kicking")
	assert.Error(t, err)
}

func TestCatalogEnums(t *testing.T) {
	v, err := ParseCategory("Game_Info")
	require.NoError(t, err)
	assert.Equal(t, "game_info", v)

	_, err = ParseCategory("misc")
	assert.Error(t, err)

	_, err = ParseTimeframe("both")
	assert.Error(t, err)

	v, err = ParseCardType("graph")
	require.NoError(t, err)
	assert.Equal(t, CardTypeGraph, v)
}

func TestTeamAbbr(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"Kansas City Chiefs", "KC", true},
		{"los angeles rams", "LA", true},
		{"LAR", "LA", true},
		{"wsh", "WAS", true},
		{"SF", "SF", true},
		{"Springfield Atoms", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := TeamAbbr(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
	assert.Len(t, Teams, 32)
}
