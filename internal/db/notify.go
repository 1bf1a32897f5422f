package db

import (
	"context"
	"encoding/json"
	"fmt"
)

// Datasets announced on the stats_refreshed channel.
const (
	DatasetPlayers  = "players"
	DatasetGames    = "games"
	DatasetWeekly   = "weekly"
	DatasetSeasonal = "seasonal"
	DatasetNGS      = "ngs"
	DatasetFields   = "fields"
	DatasetProps    = "props"
)

// Refresh is the NOTIFY payload. Season is zero for season-less datasets.
type Refresh struct {
	Dataset string `json:"dataset"`
	Season  int    `json:"season,omitempty"`
}

// NotifyRefreshed publishes r on the stats_refreshed channel.
func NotifyRefreshed(ctx context.Context, q Querier, r Refresh) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode refresh payload: %w", err)
	}
	if _, err := q.Exec(ctx, StmtNotifyRefreshed, string(payload)); err != nil {
		return fmt.Errorf("notify %s: %w", r.Dataset, err)
	}
	return nil
}

// ParseRefresh decodes a NOTIFY payload.
func ParseRefresh(payload string) (Refresh, error) {
	var r Refresh
	if err := json.Unmarshal([]byte(payload), &r); err != nil {
		return Refresh{}, fmt.Errorf("decode refresh payload: %w", err)
	}
	if r.Dataset == "" {
		return Refresh{}, fmt.Errorf("refresh payload has no dataset")
	}
	return r, nil
}
