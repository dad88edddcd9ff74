package models

import (
	"sort"
)

// ValidateMonth checks a batch of entries published for one month.
func ValidateMonth(month string, entries []AvailabilityEntry) error {
	m, err := ParseMonth(month)
	if err != nil {
		return invalid("", "month", "must look like \"June 2024\"")
	}

	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		d, err := ParseDate(e.Date)
		if err != nil {
			return invalid(e.Date, "date", "must be YYYY-MM-DD")
		}
		if d.Year() != m.Year() || d.Month() != m.Month() {
			return invalid(e.Date, "date", "outside of "+month)
		}
		if _, ok := seen[e.Date]; ok {
			return invalid(e.Date, "date", "listed more than once")
		}
		seen[e.Date] = struct{}{}

		if err := e.Validate(); err != nil {
			return err
		}
	}

	return nil
}

// Validate checks window ordering, interval and break placement of one entry.
func (e AvailabilityEntry) Validate() error {
	if e.Start > e.End {
		return invalid(e.Date, "endTime", "must not be before startTime")
	}
	if e.Interval <= 0 {
		return invalid(e.Date, "interval", "must be a positive number of minutes")
	}

	breaks := append([]Break(nil), e.Breaks...)
	sort.SliceStable(breaks, func(i, j int) bool { return breaks[i].Start < breaks[j].Start })

	for i, b := range breaks {
		if b.Start >= b.End {
			return invalid(e.Date, "breakTimings", "break "+b.Start.String()+"-"+b.End.String()+" is empty or reversed")
		}
		if b.Start < e.Start || b.End > e.End {
			return invalid(e.Date, "breakTimings", "break "+b.Start.String()+"-"+b.End.String()+" is outside working hours")
		}
		if i > 0 && breaks[i-1].End > b.Start {
			return invalid(e.Date, "breakTimings", "breaks "+breaks[i-1].Start.String()+"-"+breaks[i-1].End.String()+
				" and "+b.Start.String()+"-"+b.End.String()+" overlap")
		}
	}

	return nil
}
