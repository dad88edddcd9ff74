package slots

import (
	"testing"

	"booking-service/internal/models"
)

func clock(t *testing.T, s string) models.Clock {
	t.Helper()
	c, err := models.ParseClock(s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return c
}

func times(slots []models.Slot, state models.SlotState) []string {
	var out []string
	for _, s := range slots {
		if s.State == state {
			out = append(out, s.Time.String())
		}
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestGenerate_BreakSuppressesSlot(t *testing.T) {
	entry := models.AvailabilityEntry{
		Date:     "2024-06-10",
		Start:    clock(t, "09:00"),
		End:      clock(t, "10:00"),
		Interval: 20,
		Breaks:   []models.Break{{Start: clock(t, "09:20"), End: clock(t, "09:40")}},
	}

	got := Generate(entry)

	if free := times(got, models.SlotFree); !equal(free, []string{"09:00", "09:40"}) {
		t.Errorf("expected free slots [09:00 09:40], got %v", free)
	}
	if br := times(got, models.SlotBreak); !equal(br, []string{"09:20"}) {
		t.Errorf("expected break slot [09:20], got %v", br)
	}
}

func TestGenerate_Table(t *testing.T) {
	tests := []struct {
		name     string
		start    string
		end      string
		interval int
		breaks   [][2]string
		free     []string
	}{
		{"two half hours", "14:00", "15:00", 30, nil, []string{"14:00", "14:30"}},
		{"zero length", "09:00", "09:00", 30, nil, nil},
		{"partial trailing slot dropped", "09:00", "10:10", 30, nil, []string{"09:00", "09:30"}},
		{"interval longer than window", "09:00", "09:20", 30, nil, nil},
		{"break straddles slot boundary", "09:00", "11:00", 30, [][2]string{{"09:45", "10:15"}}, []string{"09:00", "10:30"}},
		{"break touching slot edges", "09:00", "10:30", 30, [][2]string{{"09:30", "10:00"}}, []string{"09:00", "10:00"}},
		{"multiple breaks", "08:00", "12:00", 60, [][2]string{{"09:00", "09:15"}, {"11:00", "12:00"}}, []string{"08:00", "10:00"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := models.AvailabilityEntry{
				Date:     "2024-06-10",
				Start:    clock(t, tt.start),
				End:      clock(t, tt.end),
				Interval: tt.interval,
			}
			for _, b := range tt.breaks {
				entry.Breaks = append(entry.Breaks, models.Break{Start: clock(t, b[0]), End: clock(t, b[1])})
			}

			if free := times(Generate(entry), models.SlotFree); !equal(free, tt.free) {
				t.Errorf("expected %v, got %v", tt.free, free)
			}
		})
	}
}

func TestGenerate_OrderedExactAndBreakFree(t *testing.T) {
	for _, interval := range []int{5, 15, 20, 25, 45, 60, 90} {
		entry := models.AvailabilityEntry{
			Date:     "2024-06-11",
			Start:    clock(t, "07:10"),
			End:      clock(t, "19:35"),
			Interval: interval,
			Breaks: []models.Break{
				{Start: clock(t, "12:00"), End: clock(t, "13:00")},
				{Start: clock(t, "16:20"), End: clock(t, "16:40")},
			},
		}

		got := Generate(entry)
		for i, s := range got {
			if i > 0 && s.Time-got[i-1].Time != models.Clock(interval) {
				t.Fatalf("interval %d: slots %s and %s are not exactly one interval apart", interval, got[i-1].Time, s.Time)
			}
			if s.Time.Add(interval) > entry.End {
				t.Fatalf("interval %d: slot %s runs past the window", interval, s.Time)
			}
			if s.State == models.SlotFree && overlapsBreak(s.Time, s.Time.Add(interval), entry.Breaks) {
				t.Fatalf("interval %d: free slot %s overlaps a break", interval, s.Time)
			}
		}
	}
}

func TestGenerate_Restartable(t *testing.T) {
	entry := models.AvailabilityEntry{Date: "2024-06-10", Start: 540, End: 720, Interval: 15}

	a, b := Generate(entry), Generate(entry)
	if len(a) != len(b) || len(a) != 12 {
		t.Fatalf("expected 12 slots twice, got %d and %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("slot %d differs between runs", i)
		}
	}
}
