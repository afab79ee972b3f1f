// Package timeline derives attendance facts (absences, late arrivals, early
// departures) from a roster snapshot and one day's event log.
package timeline

import (
	"fmt"
	"sort"

	"github.com/facegate/facegate/internal/database"
)

// LateArrival is an identity whose first entry came after the window start.
type LateArrival struct {
	Identity database.Identity `json:"identity"`
	Minutes  int               `json:"late_by_minutes"`
}

// EarlyDeparture is an identity whose last exit came before the window end.
type EarlyDeparture struct {
	Identity database.Identity `json:"identity"`
	Minutes  int               `json:"early_by_minutes"`
}

// Report holds one day's attendance facts. All slices are sorted by identity
// so identical inputs produce byte-identical reports.
type Report struct {
	Date            string              `json:"date"`
	Absentees       []database.Identity `json:"absent_employees"`
	LateArrivals    []LateArrival       `json:"late_arrivals"`
	EarlyDepartures []EarlyDeparture    `json:"early_departures"`
	Warnings        []string            `json:"warnings,omitempty"`
}

// Analyze computes the report for one date. It is a pure function over its
// inputs: no hidden state, no clock reads. Malformed rows arrive as warnings
// from the log read and are carried into the report; events for other dates
// are ignored.
func Analyze(roster []database.RosterEntry, events []database.AttendanceEvent, malformed []database.MalformedRecord, date string, window Window) (*Report, error) {
	if window.Start.Seconds() >= window.End.Seconds() {
		return nil, fmt.Errorf("%w: %s >= %s", ErrInvalidWindow, window.Start, window.End)
	}

	report := &Report{Date: date}
	for _, m := range malformed {
		report.Warnings = append(report.Warnings, m.String())
	}

	// First enter and last exit per identity present on the target date.
	type bounds struct {
		firstEnter, lastExit int // seconds since midnight, -1 when absent
	}
	present := make(map[database.Identity]*bounds)
	for _, e := range events {
		if e.Date() != date {
			continue
		}
		b, ok := present[e.Identity]
		if !ok {
			b = &bounds{firstEnter: -1, lastExit: -1}
			present[e.Identity] = b
		}
		secs := e.Timestamp.Hour()*3600 + e.Timestamp.Minute()*60 + e.Timestamp.Second()
		switch e.Direction {
		case database.DirectionEnter:
			if b.firstEnter == -1 || secs < b.firstEnter {
				b.firstEnter = secs
			}
		case database.DirectionExit:
			if secs > b.lastExit {
				b.lastExit = secs
			}
		default:
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("event for %s: invalid direction %q", e.Identity, e.Direction))
		}
	}

	// Absentees: enrolled but never observed on the date.
	for _, entry := range roster {
		if _, ok := present[entry.Identity]; !ok {
			report.Absentees = append(report.Absentees, entry.Identity)
		}
	}
	sort.Slice(report.Absentees, func(i, j int) bool {
		return report.Absentees[i] < report.Absentees[j]
	})

	// Deviations. No enter event means no late fact; same for exits. Only
	// strictly positive minute values make the report.
	for id, b := range present {
		if b.firstEnter >= 0 {
			if late := (b.firstEnter - window.Start.Seconds()) / 60; late > 0 {
				report.LateArrivals = append(report.LateArrivals, LateArrival{Identity: id, Minutes: late})
			}
		}
		if b.lastExit >= 0 {
			if early := (window.End.Seconds() - b.lastExit) / 60; early > 0 {
				report.EarlyDepartures = append(report.EarlyDepartures, EarlyDeparture{Identity: id, Minutes: early})
			}
		}
	}
	sort.Slice(report.LateArrivals, func(i, j int) bool {
		return report.LateArrivals[i].Identity < report.LateArrivals[j].Identity
	})
	sort.Slice(report.EarlyDepartures, func(i, j int) bool {
		return report.EarlyDepartures[i].Identity < report.EarlyDepartures[j].Identity
	})

	return report, nil
}
