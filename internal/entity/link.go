// Package entity defines the entities and errors used in the application.
// It includes the Link struct, which binds an alias to its target URL,
// the per-day click counters and the domain error values.
package entity

import (
	"errors"
	"time"
)

var (
	// ErrAliasExists is returned when attempting to create a link with an alias that is already taken.
	ErrAliasExists = errors.New("alias exists")
	// ErrLinkNotFound is returned when a link with the specified alias cannot be found.
	ErrLinkNotFound = errors.New("link not found")
	// ErrInvalidAlias is returned when a user supplied alias fails validation.
	ErrInvalidAlias = errors.New("invalid alias")
	// ErrEmptyURL is returned when the long URL is missing.
	ErrEmptyURL = errors.New("empty url")
)

// DayLayout is the ISO calendar date layout used for per-day counters.
const DayLayout = "2006-01-02"

// Link represents a shortened URL.
type Link struct {
	Alias     string    // Alias is the lowercase path segment used in redirects.
	LongURL   string    // LongURL is the redirect target.
	Clicks    int64     // Clicks is the number of successful redirects through the alias.
	CreatedAt time.Time // CreatedAt is the timestamp when the link was created.
}

// DailyClickCount is the click volume for one alias on one calendar day.
type DailyClickCount struct {
	Alias string // Alias of the link the clicks belong to.
	Day   string // Day in DayLayout form, UTC.
	Count int64  // Count of redirects on that day.
}

// Day formats t as a DailyClickCount day in UTC.
func Day(t time.Time) string {
	return t.UTC().Format(DayLayout)
}
