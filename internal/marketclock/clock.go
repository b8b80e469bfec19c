// Package marketclock answers whether the US equity market is open and
// when the next scheduled analysis hour occurs, in Eastern time.
package marketclock

import (
	"fmt"
	"sort"
	"time"
)

// Observed NYSE full-day holidays. Extend annually; early-close days are
// treated as open.
var holidays = map[string]bool{
	"2025-01-01": true, // New Year's Day
	"2025-01-20": true, // Martin Luther King Jr. Day
	"2025-02-17": true, // Presidents' Day
	"2025-04-18": true, // Good Friday
	"2025-05-26": true, // Memorial Day
	"2025-06-19": true, // Juneteenth
	"2025-07-04": true, // Independence Day
	"2025-09-01": true, // Labor Day
	"2025-11-27": true, // Thanksgiving Day
	"2025-12-25": true, // Christmas Day

	"2026-01-01": true, // New Year's Day
	"2026-01-19": true, // Martin Luther King Jr. Day
	"2026-02-16": true, // Presidents' Day
	"2026-04-03": true, // Good Friday
	"2026-05-25": true, // Memorial Day
	"2026-06-19": true, // Juneteenth
	"2026-07-03": true, // Independence Day (observed)
	"2026-09-07": true, // Labor Day
	"2026-11-26": true, // Thanksgiving Day
	"2026-12-25": true, // Christmas Day
}

const (
	openHour    = 9
	openMinute  = 30
	closeHour   = 16
	closeMinute = 0
)

// Clock resolves market-open questions against a fixed location. The
// zero value is not usable; construct with New.
type Clock struct {
	loc *time.Location
}

// New loads the Eastern timezone. Fails only when the zone database is
// unavailable on the host.
func New() (*Clock, error) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		return nil, fmt.Errorf("load market timezone: %w", err)
	}
	return &Clock{loc: loc}, nil
}

// IsOpen reports whether the market is open at t, with a human-readable
// reason when it is not.
func (c *Clock) IsOpen(t time.Time) (bool, string) {
	et := t.In(c.loc)

	if wd := et.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return false, "market is closed on weekends"
	}

	day := et.Format("2006-01-02")
	if holidays[day] {
		return false, fmt.Sprintf("market is closed for holiday on %s", day)
	}

	open := time.Date(et.Year(), et.Month(), et.Day(), openHour, openMinute, 0, 0, c.loc)
	closing := time.Date(et.Year(), et.Month(), et.Day(), closeHour, closeMinute, 0, 0, c.loc)

	if et.Before(open) {
		return false, "market opens at 9:30 AM ET"
	}
	if et.After(closing) {
		return false, "market closed at 4:00 PM ET"
	}

	return true, ""
}

// IsTradingDay reports whether t falls on a weekday that is not a
// holiday, regardless of the hour.
func (c *Clock) IsTradingDay(t time.Time) bool {
	et := t.In(c.loc)
	if wd := et.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return false
	}
	return !holidays[et.Format("2006-01-02")]
}

// NextRun returns the next instant strictly after from at which the
// market is open and the Eastern hour matches one of hours. Used by the
// scheduler to line runs up with configured trading hours.
func (c *Clock) NextRun(from time.Time, hours []int) time.Time {
	et := from.In(c.loc)

	sorted := append([]int(nil), hours...)
	sort.Ints(sorted)

	for day := 0; day < 14; day++ {
		candidate := et.AddDate(0, 0, day)
		if !c.IsTradingDay(candidate) {
			continue
		}
		for _, h := range sorted {
			target := time.Date(candidate.Year(), candidate.Month(), candidate.Day(), h, 0, 0, 0, c.loc)
			if h == openHour {
				target = time.Date(candidate.Year(), candidate.Month(), candidate.Day(), openHour, openMinute, 0, 0, c.loc)
			}
			if target.After(et) {
				return target
			}
		}
	}

	// Two weeks of closures cannot happen on the NYSE calendar; keep a
	// sane fallback anyway.
	return et.Add(24 * time.Hour)
}

// Location exposes the Eastern location for callers that format times.
func (c *Clock) Location() *time.Location { return c.loc }
