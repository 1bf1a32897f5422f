package nfl

import "strings"

// Team is an NFL franchise. Abbr follows nflverse conventions (LA for the
// Rams, WAS for Washington).
type Team struct {
	Abbr string
	Name string
}

var Teams = []Team{
	{"ARI", "Arizona Cardinals"},
	{"ATL", "Atlanta Falcons"},
	{"BAL", "Baltimore Ravens"},
	{"BUF", "Buffalo Bills"},
	{"CAR", "Carolina Panthers"},
	{"CHI", "Chicago Bears"},
	{"CIN", "Cincinnati Bengals"},
	{"CLE", "Cleveland Browns"},
	{"DAL", "Dallas Cowboys"},
	{"DEN", "Denver Broncos"},
	{"DET", "Detroit Lions"},
	{"GB", "Green Bay Packers"},
	{"HOU", "Houston Texans"},
	{"IND", "Indianapolis Colts"},
	{"JAX", "Jacksonville Jaguars"},
	{"KC", "Kansas City Chiefs"},
	{"LV", "Las Vegas Raiders"},
	{"LAC", "Los Angeles Chargers"},
	{"LA", "Los Angeles Rams"},
	{"MIA", "Miami Dolphins"},
	{"MIN", "Minnesota Vikings"},
	{"NE", "New England Patriots"},
	{"NO", "New Orleans Saints"},
	{"NYG", "New York Giants"},
	{"NYJ", "New York Jets"},
	{"PHI", "Philadelphia Eagles"},
	{"PIT", "Pittsburgh Steelers"},
	{"SF", "San Francisco 49ers"},
	{"SEA", "Seattle Seahawks"},
	{"TB", "Tampa Bay Buccaneers"},
	{"TEN", "Tennessee Titans"},
	{"WAS", "Washington Commanders"},
}

// Alternate abbreviations seen across providers.
var teamAliases = map[string]string{
	"LAR": "LA",
	"WSH": "WAS",
	"JAC": "JAX",
	"OAK": "LV",
	"SD":  "LAC",
	"STL": "LA",
}

var teamsByName, teamsByAbbr = indexTeams()

func indexTeams() (map[string]string, map[string]string) {
	byName := make(map[string]string, len(Teams))
	byAbbr := make(map[string]string, len(Teams))
	for _, t := range Teams {
		byName[strings.ToLower(t.Name)] = t.Abbr
		byAbbr[t.Abbr] = t.Abbr
	}
	return byName, byAbbr
}

// TeamAbbr resolves a full franchise name ("Kansas City Chiefs") or any known
// abbreviation to the canonical abbreviation. ok is false when unknown.
func TeamAbbr(s string) (abbr string, ok bool) {
	s = strings.TrimSpace(s)
	if a, found := teamsByName[strings.ToLower(s)]; found {
		return a, true
	}
	up := strings.ToUpper(s)
	if a, found := teamAliases[up]; found {
		return a, true
	}
	a, found := teamsByAbbr[up]
	return a, found
}
