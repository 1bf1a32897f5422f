// Package nfl holds the football vocabulary shared by the API and ingestion:
// fantasy positions, stat ranges, week labels, teams and catalog enums.
package nfl

import (
	"fmt"
	"strconv"
	"strings"
)

// --------------------------------------------------------------------------
// Positions
// --------------------------------------------------------------------------

// Position is a fantasy-relevant roster position.
type Position string

const (
	QB Position = "QB"
	RB Position = "RB"
	WR Position = "WR"
	TE Position = "TE"
	K  Position = "K"
)

// FantasyPositions lists positions in display order.
var FantasyPositions = []Position{QB, RB, WR, TE, K}

// positionColumns maps a position to its boolean column on player_cards and
// player_card_field_definitions. Query builders only ever interpolate values
// from this table.
var positionColumns = map[Position]string{
	QB: "position_qb",
	RB: "position_rb",
	WR: "position_wr",
	TE: "position_te",
	K:  "position_k",
}

// ParsePosition accepts a position case-insensitively. Providers that report
// kickers as PK are folded into K.
func ParsePosition(s string) (Position, error) {
	p := Position(strings.ToUpper(strings.TrimSpace(s)))
	if p == "PK" {
		p = K
	}
	if _, ok := positionColumns[p]; !ok {
		return "", fmt.Errorf("unknown position %q", s)
	}
	return p, nil
}

// rosterStatuses are the status codes nflverse rosters carry.
var rosterStatuses = map[string]bool{
	"ACT": true, "RES": true, "INA": true, "DEV": true, "CUT": true, "RET": true,
	"EXE": true, "PUP": true, "SUS": true, "NWT": true, "UFA": true, "UDF": true,
	"RFA": true, "TRC": true, "TRD": true, "TRL": true, "TRT": true, "RSN": true,
	"RSR": true, "E01": true, "E02": true, "E14": true,
}

// ParseRosterStatus accepts a roster status case-insensitively. ALL returns
// "" so callers skip the filter.
func ParseRosterStatus(s string) (string, error) {
	st := strings.ToUpper(strings.TrimSpace(s))
	if st == "ALL" {
		return "", nil
	}
	if !rosterStatuses[st] {
		return "", fmt.Errorf("unknown roster status %q", s)
	}
	return st, nil
}

// Column returns the boolean flag column for p.
func (p Position) Column() string {
	return positionColumns[p]
}

// Strings returns positions as plain strings, for ANY($1::text[]) params.
func Strings(ps []Position) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = string(p)
	}
	return out
}

// --------------------------------------------------------------------------
// Stat ranges
// --------------------------------------------------------------------------

// Range selects which weekly rows feed an aggregate.
type Range string

const (
	RangeL3     Range = "L3"
	RangeL5     Range = "L5"
	RangeL10    Range = "L10"
	RangeSeason Range = "SEASON"
)

var rangeWindows = map[Range]int{
	RangeL3:     3,
	RangeL5:     5,
	RangeL10:    10,
	RangeSeason: 0,
}

// ParseRange accepts L3, L5, L10 or SEASON case-insensitively. Empty input
// means SEASON.
func ParseRange(s string) (Range, error) {
	if strings.TrimSpace(s) == "" {
		return RangeSeason, nil
	}
	r := Range(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := rangeWindows[r]; !ok {
		return "", fmt.Errorf("range must be one of L3, L5, L10, SEASON (got %q)", s)
	}
	return r, nil
}

// Window returns N for an LN range and 0 for SEASON.
func (r Range) Window() int {
	return rangeWindows[r]
}

// --------------------------------------------------------------------------
// Weeks
// --------------------------------------------------------------------------

// RegularSeasonWeeks is the last regular-season week number. Postseason
// rounds follow it.
const RegularSeasonWeeks = 18

// MaxWeek is the Super Bowl week number.
const MaxWeek = 22

var postseasonWeeks = map[string]int{
	"WC": 19,
	"DR": 20,
	"CC": 21,
	"SB": 22,
}

// ParseWeek accepts a week number (1-22) or a postseason round label
// (WC, DR, CC, SB).
func ParseWeek(s string) (int, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if w, ok := postseasonWeeks[s]; ok {
		return w, nil
	}
	w, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid week %q", s)
	}
	if w < 1 || w > MaxWeek {
		return 0, fmt.Errorf("week %d out of range 1-%d", w, MaxWeek)
	}
	return w, nil
}

// ParseWeekList parses a comma-separated week list such as "1,2,WC".
// Duplicates are dropped; order is preserved.
func ParseWeekList(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	seen := make(map[int]bool)
	var weeks []int
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		w, err := ParseWeek(part)
		if err != nil {
			return nil, err
		}
		if !seen[w] {
			seen[w] = true
			weeks = append(weeks, w)
		}
	}
	return weeks, nil
}

// WeekLabel renders a week number, using round labels for the postseason.
func WeekLabel(week int) string {
	for label, w := range postseasonWeeks {
		if w == week {
			return label
		}
	}
	return strconv.Itoa(week)
}

// SeasonType returns REG or POST for a week number.
func SeasonType(week int) string {
	if week > RegularSeasonWeeks {
		return SeasonTypePost
	}
	return SeasonTypeRegular
}

const (
	SeasonTypeRegular = "REG"
	SeasonTypePost    = "POST"
)

// ParseSeasonType accepts REG or POST; empty means REG.
func ParseSeasonType(s string) (string, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", SeasonTypeRegular:
		return SeasonTypeRegular, nil
	case SeasonTypePost:
		return SeasonTypePost, nil
	}
	return "", fmt.Errorf("season_type must be REG or POST (got %q)", s)
}

// --------------------------------------------------------------------------
// Next-gen stats
// --------------------------------------------------------------------------

// NGSKind is one of the three disjoint next-gen-stats datasets.
type NGSKind string

const (
	NGSPassing   NGSKind = "passing"
	NGSReceiving NGSKind = "receiving"
	NGSRushing   NGSKind = "rushing"
)

// NGSKinds lists every kind in response order.
var NGSKinds = []NGSKind{NGSPassing, NGSReceiving, NGSRushing}

// ParseNGSType resolves the type query parameter: all (or empty) expands to
// every kind.
func ParseNGSType(s string) ([]NGSKind, error) {
	switch k := NGSKind(strings.ToLower(strings.TrimSpace(s))); k {
	case "", "all":
		return NGSKinds, nil
	case NGSPassing, NGSReceiving, NGSRushing:
		return []NGSKind{k}, nil
	}
	return nil, fmt.Errorf("type must be one of all, passing, receiving, rushing (got %q)", s)
}
