// Package seed loads nflverse, Sleeper and Odds API data into Postgres.
//
// Every loader upserts, so a dataset can be re-run at any time. Row-level
// failures are collected in the Result instead of aborting the run.
package seed

import "fmt"

// Result tracks counts and errors from a seeding operation.
type Result struct {
	Upserted int
	Linked   int
	Skipped  int
	Errors   []string
}

// Add merges another Result into this one.
func (r *Result) Add(other Result) {
	r.Upserted += other.Upserted
	r.Linked += other.Linked
	r.Skipped += other.Skipped
	r.Errors = append(r.Errors, other.Errors...)
}

// AddError records an error message.
func (r *Result) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
}

// AddErrorf records a formatted error message.
func (r *Result) AddErrorf(format string, args ...interface{}) {
	r.AddError(fmt.Sprintf(format, args...))
}

// Failed reports whether any error was recorded.
func (r *Result) Failed() bool {
	return len(r.Errors) > 0
}

// Summary returns a human-readable summary of the seed operation.
func (r *Result) Summary() string {
	return fmt.Sprintf(
		"upserted=%d linked=%d skipped=%d errors=%d",
		r.Upserted, r.Linked, r.Skipped, len(r.Errors),
	)
}
