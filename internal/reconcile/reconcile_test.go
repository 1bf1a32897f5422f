package reconcile

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testIndex() *Index {
	return NewIndex([]Candidate{
		{ID: 1, Name: "Justin Jefferson", Team: "MIN", Position: "WR"},
		{ID: 2, Name: "Patrick Mahomes", Team: "KC", Position: "QB"},
		{ID: 3, Name: "Amon-Ra St. Brown", Team: "DET", Position: "WR"},
		{ID: 4, Name: "Mike Williams", Team: "NYJ", Position: "WR"},
		{ID: 5, Name: "Mike Williams", Team: "PIT", Position: "WR"},
		{ID: 6, Name: "Josh Allen", Team: "BUF", Position: "QB"},
		{ID: 7, Name: "Josh Allen", Team: "JAX", Position: "TE"},
		{ID: 8, Name: "Marvin Harrison Jr.", Team: "ARI", Position: "WR"},
		{ID: 9, Name: "Ja'Marr Chase", Team: "CIN", Position: "WR"},
	})
}

func TestLookupNameForms(t *testing.T) {
	ix := testIndex()

	tests := []struct {
		name   string
		input  string
		wantID int
	}{
		{"lowercase", "justin jefferson", 1},
		{"title case", "Justin Jefferson", 1},
		{"last first", "Jefferson, Justin", 1},
		{"extra whitespace", "  Justin   Jefferson ", 1},
		{"suffix on market side", "Patrick Mahomes II", 2},
		{"suffix on canonical side", "Marvin Harrison", 8},
		{"canonical with suffix verbatim", "Marvin Harrison Jr.", 8},
		{"periods dropped", "Amon-Ra St Brown", 3},
		{"first last of middle name", "Amon-Ra Brown", 3},
		{"curly apostrophe", "Ja’Marr Chase", 9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ix.Lookup(tt.input, Hint{})
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, got.ID)
		})
	}
}

func TestLookupInitialIsNotFound(t *testing.T) {
	_, err := testIndex().Lookup("J. Jefferson", Hint{})
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestLookupEmptyName(t *testing.T) {
	_, err := testIndex().Lookup("   ", Hint{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLookupCollisionDisambiguation(t *testing.T) {
	ix := testIndex()

	t.Run("no hint is ambiguous", func(t *testing.T) {
		_, err := ix.Lookup("Mike Williams", Hint{})
		assert.ErrorIs(t, err, ErrAmbiguous)
	})

	t.Run("event team picks one", func(t *testing.T) {
		got, err := ix.Lookup("Mike Williams", Hint{Teams: []string{"PIT", "BAL"}})
		require.NoError(t, err)
		assert.Equal(t, 5, got.ID)
	})

	t.Run("position picks one when teams do not", func(t *testing.T) {
		got, err := ix.Lookup("Josh Allen", Hint{Teams: []string{"KC", "LV"}, Positions: []string{"QB"}})
		require.NoError(t, err)
		assert.Equal(t, 6, got.ID)
	})

	t.Run("team and position together", func(t *testing.T) {
		got, err := ix.Lookup("Josh Allen", Hint{Teams: []string{"JAX", "BUF"}, Positions: []string{"te", "wr"}})
		require.NoError(t, err)
		assert.Equal(t, 7, got.ID)
	})

	t.Run("hint that matches both stays ambiguous", func(t *testing.T) {
		_, err := ix.Lookup("Mike Williams", Hint{Teams: []string{"NYJ", "PIT"}, Positions: []string{"WR"}})
		assert.ErrorIs(t, err, ErrAmbiguous)
	})
}

func TestVariants(t *testing.T) {
	assert.Equal(t,
		[]string{"justin jefferson", "jefferson, justin"},
		Variants("Justin Jefferson"))
	assert.Equal(t,
		[]string{"patrick mahomes ii", "patrick mahomes", "mahomes, patrick"},
		Variants("Patrick Mahomes II"))
	assert.Equal(t,
		[]string{"amon-ra st brown", "amon-ra brown", "brown, amon-ra"},
		Variants("Amon-Ra St. Brown"))
	assert.Equal(t, []string{"jefferson, justin"}, Variants("Jefferson,Justin"))
	assert.Equal(t, []string{"cher"}, Variants("Cher"))
	assert.Nil(t, Variants(""))
}

func TestIndexDeduplicatesCandidatePerKey(t *testing.T) {
	ix := NewIndex([]Candidate{{ID: 1, Name: "Justin Jefferson"}, {ID: 1, Name: "Justin Jefferson"}})
	assert.Len(t, ix.keys["justin jefferson"], 1)
	assert.Equal(t, 2, ix.Len())
}
