// Package memory is a process-local implementation of the availability store
// and the booking ledger.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"booking-service/internal/models"
	"booking-service/pkg/response"

	"github.com/google/uuid"
)

type recordKey struct {
	user       string
	specialist string
}

type slotKey struct {
	specialist string
	date       string
	time       models.Clock
}

type Storage struct {
	mu sync.RWMutex

	// specialist -> date -> entry
	availability map[string]map[string]models.AvailabilityEntry

	records map[recordKey]*models.AppointmentRecord
	// held indexes every non-cancelled detail by its slot.
	held map[slotKey]recordKey

	now func() time.Time
}

func New() *Storage {
	return &Storage{
		availability: make(map[string]map[string]models.AvailabilityEntry),
		records:      make(map[recordKey]*models.AppointmentRecord),
		held:         make(map[slotKey]recordKey),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (s *Storage) Close() error {
	return nil
}

// #### availability ####

func (s *Storage) SetAvailability(_ context.Context, specialist, _ string, entries []models.AvailabilityEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dates, ok := s.availability[specialist]
	if !ok {
		dates = make(map[string]models.AvailabilityEntry)
		s.availability[specialist] = dates
	}

	now := s.now()
	for _, e := range entries {
		stored := e.Clone()
		stored.Version = dates[e.Date].Version + 1
		stored.UpdatedAt = now
		dates[e.Date] = stored
	}

	return nil
}

func (s *Storage) GetAvailability(_ context.Context, specialist, month string) ([]models.AvailabilityEntry, error) {
	const op = "storage.memory.GetAvailability"

	m, err := models.ParseMonth(month)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.AvailabilityEntry, 0)
	for date, e := range s.availability[specialist] {
		d, err := models.ParseDate(date)
		if err != nil {
			continue
		}
		if d.Year() == m.Year() && d.Month() == m.Month() {
			out = append(out, e.Clone())
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })

	return out, nil
}

func (s *Storage) GetAvailabilityForDate(_ context.Context, specialist, date string) (*models.AvailabilityEntry, error) {
	const op = "storage.memory.GetAvailabilityForDate"

	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.availability[specialist][date]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}

	c := e.Clone()
	return &c, nil
}

// #### ledger ####

// Reserve claims the slot for the user. The check and the insert happen under
// one write lock, so two callers can never both see the slot as free.
func (s *Storage) Reserve(_ context.Context, user, specialist, date string, t models.Clock, comments string) (*models.AppointmentDetail, error) {
	const op = "storage.memory.Reserve"

	s.mu.Lock()
	defer s.mu.Unlock()

	sk := slotKey{specialist: specialist, date: date, time: t}
	if _, taken := s.held[sk]; taken {
		return nil, fmt.Errorf("%s: %w", op, response.ErrConflict)
	}

	rk := recordKey{user: user, specialist: specialist}
	rec, ok := s.records[rk]
	if !ok {
		rec = &models.AppointmentRecord{
			ID:              uuid.New(),
			UserEmail:       user,
			SpecialistEmail: specialist,
		}
		s.records[rk] = rec
	}

	now := s.now()
	detail := models.AppointmentDetail{
		ID:           uuid.New(),
		Date:         date,
		Time:         t,
		Status:       models.StatusUpcoming,
		UserComments: comments,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	rec.Details = append(rec.Details, detail)
	s.held[sk] = rk

	return &detail, nil
}

func (s *Storage) SetStatus(_ context.Context, user, specialist, date string, t models.Clock, to models.Status, note string) (*models.AppointmentDetail, error) {
	const op = "storage.memory.SetStatus"

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[recordKey{user: user, specialist: specialist}]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}

	idx := matchDetail(rec.Details, date, t)
	if idx < 0 {
		return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}

	d := &rec.Details[idx]
	if !d.Status.CanTransition(to) {
		return nil, fmt.Errorf("%s: %s -> %s: %w", op, d.Status, to, response.ErrInvalidTransition)
	}

	d.Status = to
	d.UpdatedAt = s.now()
	if to == models.StatusCompleted {
		d.SpecialistNotes = note
	}

	if to == models.StatusCancelled {
		delete(s.held, slotKey{specialist: specialist, date: date, time: t})
	}

	out := *d
	return &out, nil
}

func (s *Storage) ListByUser(_ context.Context, user string) ([]models.AppointmentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.AppointmentRecord, 0)
	for k, rec := range s.records {
		if k.user == user {
			out = append(out, rec.Clone())
		}
	}

	sortRecords(out)
	return out, nil
}

func (s *Storage) ListBySpecialist(_ context.Context, specialist string) ([]models.AppointmentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.AppointmentRecord, 0)
	for k, rec := range s.records {
		if k.specialist == specialist {
			out = append(out, rec.Clone())
		}
	}

	sortRecords(out)
	return out, nil
}

func (s *Storage) BookedTimes(_ context.Context, specialist, date string) (map[models.Clock]struct{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[models.Clock]struct{})
	for k := range s.held {
		if k.specialist == specialist && k.date == date {
			out[k.time] = struct{}{}
		}
	}

	return out, nil
}

// matchDetail prefers the live detail at (date, t); otherwise the latest one so
// that transitions on a terminal detail are reported as invalid, not missing.
func matchDetail(details []models.AppointmentDetail, date string, t models.Clock) int {
	found := -1
	for i, d := range details {
		if d.Date != date || d.Time != t {
			continue
		}
		if d.Status != models.StatusCancelled {
			return i
		}
		found = i
	}
	return found
}

func sortRecords(recs []models.AppointmentRecord) {
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].UserEmail != recs[j].UserEmail {
			return recs[i].UserEmail < recs[j].UserEmail
		}
		return recs[i].SpecialistEmail < recs[j].SpecialistEmail
	})
}
