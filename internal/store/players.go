package store

import (
	"context"
	"fmt"

	"github.com/StevenLove/fantazy/internal/db"
	"github.com/StevenLove/fantazy/internal/nfl"
)

// DefaultStatus is the roster status the players list shows unless told
// otherwise.
const DefaultStatus = "ACT"

// PlayerFilter narrows the players list. Empty Positions means every fantasy
// position; empty Status means any status.
type PlayerFilter struct {
	Positions []nfl.Position
	Status    string
}

// ListPlayers returns players as a JSON array ordered by position then name.
func (s *Store) ListPlayers(ctx context.Context, f PlayerFilter) ([]byte, error) {
	positions := f.Positions
	if len(positions) == 0 {
		positions = nfl.FantasyPositions
	}
	raw, err := s.queryJSONList(ctx, db.StmtPlayersList, nfl.Strings(positions), f.Status)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	return raw, nil
}

// GetPlayer returns one player object or ErrNotFound.
func (s *Store) GetPlayer(ctx context.Context, id int) ([]byte, error) {
	raw, err := s.queryJSON(ctx, db.StmtPlayerByID, id)
	if err != nil {
		return nil, fmt.Errorf("get player %d: %w", id, err)
	}
	return raw, nil
}

// ListGames returns a season's games ordered by gameday, optionally one week.
func (s *Store) ListGames(ctx context.Context, season int, week *int) ([]byte, error) {
	raw, err := s.queryJSONList(ctx, db.StmtGamesBySeason, season, week)
	if err != nil {
		return nil, fmt.Errorf("list games %d: %w", season, err)
	}
	return raw, nil
}

// PlayerProps returns every bookmaker's prop row for a player in one game.
func (s *Store) PlayerProps(ctx context.Context, playerID int, gameID string) ([]byte, error) {
	raw, err := s.queryJSONList(ctx, db.StmtPropsForGame, playerID, gameID)
	if err != nil {
		return nil, fmt.Errorf("props for player %d game %s: %w", playerID, gameID, err)
	}
	return raw, nil
}
