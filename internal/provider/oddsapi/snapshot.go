package oddsapi

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"
)

// EventsFile is the snapshot name for the events list.
const EventsFile = "nfl-events.json"

const propsPrefix = "player-props-"

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9]`)

// PropsFile returns the snapshot name for one event's props.
func PropsFile(eventID string) string {
	return propsPrefix + unsafeChars.ReplaceAllString(eventID, "-") + ".json"
}

// PropsSnapshot maps market key to that market's event odds.
type PropsSnapshot map[string]*EventOdds

type envelope struct {
	ImportedAt time.Time       `json:"imported_at"`
	Data       json.RawMessage `json:"data"`
}

// WriteSnapshot stores data under dir/name wrapped with its capture time.
// The file is written to a temp name and renamed so readers never see a
// partial snapshot.
func WriteSnapshot(dir, name string, data any, at time.Time) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode snapshot %s: %w", name, err)
	}
	out, err := json.MarshalIndent(envelope{ImportedAt: at.UTC(), Data: raw}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot %s: %w", name, err)
	}
	path := filepath.Join(dir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, out, 0o644); err != nil {
		return fmt.Errorf("write snapshot %s: %w", name, err)
	}
	return os.Rename(tmp, path)
}

// ReadSnapshot decodes the snapshot at path into v and returns its capture
// time.
func ReadSnapshot(path string, v any) (time.Time, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return time.Time{}, err
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return time.Time{}, fmt.Errorf("decode snapshot %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		return time.Time{}, fmt.Errorf("decode snapshot data %s: %w", filepath.Base(path), err)
	}
	return env.ImportedAt, nil
}

// PropsFiles lists the props snapshots in dir.
func PropsFiles(dir string) ([]string, error) {
	return filepath.Glob(filepath.Join(dir, propsPrefix+"*.json"))
}
