// Package reconcile maps free-form player names from betting markets onto
// canonical player records.
//
// An Index is built once per run from every candidate player. Each name is
// registered under several normalized keys; a key can hold more than one
// candidate (two "Josh Allen"s), in which case a Hint with the event's teams
// and the market's likely positions breaks the tie.
package reconcile

import (
	"errors"
	"strings"
)

var (
	// ErrNotFound means no key variant of the name matched any candidate.
	ErrNotFound = errors.New("player not found")
	// ErrAmbiguous means a key matched several candidates and the hint did
	// not narrow them to one.
	ErrAmbiguous = errors.New("player name is ambiguous")
)

// Candidate is a canonical player eligible for matching.
type Candidate struct {
	ID       int
	Name     string
	Team     string
	Position string
}

// Hint narrows a multi-candidate match. Empty fields do not filter.
type Hint struct {
	Teams     []string
	Positions []string
}

// Index is a read-only lookup from normalized name keys to candidates.
// Safe for concurrent use once built.
type Index struct {
	keys map[string][]Candidate
}

// NewIndex registers every candidate under its key variants.
func NewIndex(candidates []Candidate) *Index {
	ix := &Index{keys: make(map[string][]Candidate, len(candidates)*3)}
	for _, c := range candidates {
		for _, k := range Variants(c.Name) {
			ix.add(k, c)
		}
	}
	return ix
}

func (ix *Index) add(key string, c Candidate) {
	for _, existing := range ix.keys[key] {
		if existing.ID == c.ID {
			return
		}
	}
	ix.keys[key] = append(ix.keys[key], c)
}

// Len returns the number of distinct keys.
func (ix *Index) Len() int {
	return len(ix.keys)
}

// Lookup resolves name to a single candidate. The normalized input is tried
// verbatim first, then each of its variants in order; the first key that
// exists decides the outcome.
func (ix *Index) Lookup(name string, hint Hint) (Candidate, error) {
	tried := make(map[string]bool, 4)
	for _, key := range append([]string{Normalize(name)}, Variants(name)...) {
		if key == "" || tried[key] {
			continue
		}
		tried[key] = true
		cands, ok := ix.keys[key]
		if !ok {
			continue
		}
		return resolve(cands, hint)
	}
	return Candidate{}, ErrNotFound
}

func resolve(cands []Candidate, hint Hint) (Candidate, error) {
	if len(cands) == 1 {
		return cands[0], nil
	}
	narrowed := filter(cands, func(c Candidate) bool { return containsFold(hint.Teams, c.Team) })
	if len(narrowed) == 1 {
		return narrowed[0], nil
	}
	if len(narrowed) == 0 {
		narrowed = cands
	}
	narrowed = filter(narrowed, func(c Candidate) bool { return containsFold(hint.Positions, c.Position) })
	if len(narrowed) == 1 {
		return narrowed[0], nil
	}
	return Candidate{}, ErrAmbiguous
}

func filter(cands []Candidate, keep func(Candidate) bool) []Candidate {
	var out []Candidate
	for _, c := range cands {
		if keep(c) {
			out = append(out, c)
		}
	}
	return out
}

func containsFold(list []string, s string) bool {
	if s == "" {
		return false
	}
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

// --------------------------------------------------------------------------
// Normalization
// --------------------------------------------------------------------------

var suffixes = map[string]bool{
	"jr": true, "sr": true, "ii": true, "iii": true, "iv": true, "v": true,
}

// Normalize lowercases, trims, collapses whitespace, drops periods and
// unifies apostrophes. Commas are kept so "last, first" stays distinct.
func Normalize(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.NewReplacer(".", "", "’", "'", "`", "'").Replace(s)
	s = strings.ReplaceAll(s, ",", ", ")
	return strings.Join(strings.Fields(s), " ")
}

// Variants returns the lookup keys for a name, most specific first: the full
// normalized name, the name without a generational suffix, "first last" and
// "last, first". Duplicates are removed.
func Variants(name string) []string {
	full := Normalize(name)
	if full == "" {
		return nil
	}
	tokens := strings.Fields(strings.ReplaceAll(full, ",", ""))
	if strings.Contains(full, ",") {
		// Already "last, first": the full form is the only stable key.
		return []string{full}
	}
	for len(tokens) > 2 && suffixes[tokens[len(tokens)-1]] {
		tokens = tokens[:len(tokens)-1]
	}

	out := []string{full}
	seen := map[string]bool{full: true}
	push := func(k string) {
		if k != "" && !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	push(strings.Join(tokens, " "))
	if len(tokens) >= 2 {
		first, last := tokens[0], tokens[len(tokens)-1]
		push(first + " " + last)
		push(last + ", " + first)
	}
	return out
}
