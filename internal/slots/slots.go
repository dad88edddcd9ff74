// Package slots derives the bookable time slots of a single availability entry.
package slots

import "booking-service/internal/models"

// Generate walks the working window in interval steps and returns every whole slot
// in chronological order. Slots overlapping a break are returned with state Break.
// A trailing slot shorter than the interval is dropped.
func Generate(entry models.AvailabilityEntry) []models.Slot {
	if entry.Interval <= 0 || entry.End <= entry.Start {
		return nil
	}

	out := make([]models.Slot, 0, int(entry.End-entry.Start)/entry.Interval)

	for cur := entry.Start; cur.Add(entry.Interval) <= entry.End; cur = cur.Add(entry.Interval) {
		state := models.SlotFree
		if overlapsBreak(cur, cur.Add(entry.Interval), entry.Breaks) {
			state = models.SlotBreak
		}

		out = append(out, models.Slot{
			Date:  entry.Date,
			Time:  cur,
			State: state,
		})
	}

	return out
}

// overlapsBreak reports whether [start, end) intersects any break window.
func overlapsBreak(start, end models.Clock, breaks []models.Break) bool {
	for _, b := range breaks {
		if start < b.End && b.Start < end {
			return true
		}
	}
	return false
}
