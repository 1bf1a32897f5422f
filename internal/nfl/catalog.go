package nfl

import (
	"fmt"
	"strings"
)

// Card and field-catalog enumerations.

const (
	CardTypeDataDisplay = "data_display"
	CardTypeGraph       = "graph"

	TimeframeWeekly     = "weekly"
	TimeframeCumulative = "cumulative"
	TimeframeBoth       = "both"
)

// Categories lists the field-catalog categories.
var Categories = []string{"basic", "advanced", "fantasy", "efficiency", "game_info"}

// ChartTypes lists graph card chart styles.
var ChartTypes = []string{"line", "bar", "scatter", "bar_with_line"}

// ParseCardType validates a card type filter.
func ParseCardType(s string) (string, error) {
	return oneOf("type", s, CardTypeDataDisplay, CardTypeGraph)
}

// ParseTimeframe validates a card timeframe. "both" is only meaningful on
// field definitions, never on a card or a filter.
func ParseTimeframe(s string) (string, error) {
	return oneOf("timeframe", s, TimeframeWeekly, TimeframeCumulative)
}

// ParseCategory validates a field-catalog category.
func ParseCategory(s string) (string, error) {
	return oneOf("category", s, Categories...)
}

func oneOf(name, s string, allowed ...string) (string, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	for _, a := range allowed {
		if v == a {
			return a, nil
		}
	}
	return "", fmt.Errorf("%s must be one of %s (got %q)", name, strings.Join(allowed, ", "), s)
}
