package postgres

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	"booking-service/internal/models"
	"booking-service/pkg/response"

	"github.com/google/uuid"
)

// newTestStorage connects to the database named by TEST_STORAGE_PATH.
// Every test uses fresh emails, so runs never collide with existing rows.
func newTestStorage(t *testing.T) *Storage {
	t.Helper()

	dsn := os.Getenv("TEST_STORAGE_PATH")
	if dsn == "" {
		t.Skip("TEST_STORAGE_PATH is not set")
	}

	s, err := New(dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	return s
}

func email(prefix string) string {
	return prefix + "-" + uuid.NewString() + "@example.com"
}

func TestEncodeDecodeBreaks(t *testing.T) {
	in := []models.Break{{Start: 560, End: 580}, {Start: 720, End: 780}}

	raw := encodeBreaks(in)
	if raw[0] != "09:20-09:40" || raw[1] != "12:00-13:00" {
		t.Fatalf("unexpected encoding %v", raw)
	}

	out, err := decodeBreaks(raw)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 || out[0] != in[0] || out[1] != in[1] {
		t.Errorf("round trip mismatch: %v", out)
	}

	if _, err := decodeBreaks([]string{"0920"}); err == nil {
		t.Error("expected error for malformed break")
	}
}

func TestPostgres_ReserveSingleWinner(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	doctor := email("doctor")

	const n = 20
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.Reserve(ctx, email("user"), doctor, "2024-06-10", 840, "")
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		if !errors.Is(err, response.ErrConflict) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 {
		t.Fatalf("expected one winner, got %d", ok)
	}

	booked, err := s.BookedTimes(ctx, doctor, "2024-06-10")
	if err != nil {
		t.Fatal(err)
	}
	if len(booked) != 1 {
		t.Errorf("expected one held slot, got %d", len(booked))
	}
}

func TestPostgres_StatusLifecycle(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	doctor, user := email("doctor"), email("user")

	if _, err := s.Reserve(ctx, user, doctor, "2024-06-10", 840, "first visit"); err != nil {
		t.Fatal(err)
	}

	d, err := s.SetStatus(ctx, user, doctor, "2024-06-10", 840, models.StatusCompleted, "follow-up in 2 weeks")
	if err != nil {
		t.Fatal(err)
	}
	if d.SpecialistNotes != "follow-up in 2 weeks" || d.UserComments != "first visit" {
		t.Errorf("unexpected detail %+v", d)
	}

	_, err = s.SetStatus(ctx, user, doctor, "2024-06-10", 840, models.StatusCancelled, "")
	if !errors.Is(err, response.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}

	_, err = s.SetStatus(ctx, user, doctor, "2024-06-10", 900, models.StatusCancelled, "")
	if !errors.Is(err, response.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	recs, err := s.ListBySpecialist(ctx, doctor)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 || len(recs[0].Details) != 1 || recs[0].Details[0].Status != models.StatusCompleted {
		t.Fatalf("unexpected records %+v", recs)
	}
}

func TestPostgres_CancelFreesSlot(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	doctor, a, b := email("doctor"), email("a"), email("b")

	if _, err := s.Reserve(ctx, a, doctor, "2024-06-10", 840, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := s.SetStatus(ctx, a, doctor, "2024-06-10", 840, models.StatusCancelled, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Reserve(ctx, b, doctor, "2024-06-10", 840, ""); err != nil {
		t.Fatalf("expected cancelled slot to be free, got %v", err)
	}

	recs, err := s.ListByUser(ctx, a)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 || recs[0].Details[0].Status != models.StatusCancelled {
		t.Errorf("expected cancelled history to remain, got %+v", recs)
	}
}

func TestPostgres_AvailabilityOverwrite(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	doctor := email("doctor")

	first := []models.AvailabilityEntry{
		{Date: "2024-06-10", Start: 540, End: 600, Interval: 20, Breaks: []models.Break{{Start: 560, End: 580}}},
		{Date: "2024-06-11", Start: 540, End: 600, Interval: 30},
	}
	if err := s.SetAvailability(ctx, doctor, "June 2024", first); err != nil {
		t.Fatal(err)
	}
	if err := s.SetAvailability(ctx, doctor, "June 2024", []models.AvailabilityEntry{
		{Date: "2024-06-10", Start: 840, End: 900, Interval: 30},
	}); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetAvailability(ctx, doctor, "June 2024")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	if got[0].Start != 840 || got[0].Version != 2 || len(got[0].Breaks) != 0 {
		t.Errorf("unexpected overwritten entry %+v", got[0])
	}
	if got[1].Version != 1 {
		t.Errorf("expected untouched entry at version 1, got %d", got[1].Version)
	}

	if _, err := s.GetAvailabilityForDate(ctx, doctor, "2024-06-30"); !errors.Is(err, response.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
