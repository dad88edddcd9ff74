package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"booking-service/api"
	"booking-service/internal/lock"
	"booking-service/internal/models"
	"booking-service/internal/slots"
	"booking-service/pkg/response"
)

const (
	RoleUser       = "user"
	RoleSpecialist = "specialist"
)

const defaultLockTTL = 10 * time.Second

type Service struct {
	store     Store
	locker    lock.Locker
	directory Directory
	lockTTL   time.Duration
}

func NewService(store Store, locker lock.Locker, directory Directory, lockTTL time.Duration) *Service {
	if lockTTL <= 0 {
		lockTTL = defaultLockTTL
	}

	return &Service{
		store:     store,
		locker:    locker,
		directory: directory,
		lockTTL:   lockTTL,
	}
}

type Store interface {
	AvailabilityStore
	Ledger
}

// AvailabilityStore persists published availability, overwriting by date.
type AvailabilityStore interface {
	SetAvailability(ctx context.Context, specialist, month string, entries []models.AvailabilityEntry) error
	GetAvailability(ctx context.Context, specialist, month string) ([]models.AvailabilityEntry, error)
	GetAvailabilityForDate(ctx context.Context, specialist, date string) (*models.AvailabilityEntry, error)
}

// Ledger is the authoritative appointment record. Reserve must be atomic per
// (specialist, date, time) and report response.ErrConflict when the slot is held.
type Ledger interface {
	Reserve(ctx context.Context, user, specialist, date string, t models.Clock, comments string) (*models.AppointmentDetail, error)
	SetStatus(ctx context.Context, user, specialist, date string, t models.Clock, to models.Status, note string) (*models.AppointmentDetail, error)
	ListByUser(ctx context.Context, user string) ([]models.AppointmentRecord, error)
	ListBySpecialist(ctx context.Context, specialist string) ([]models.AppointmentRecord, error)
	BookedTimes(ctx context.Context, specialist, date string) (map[models.Clock]struct{}, error)
}

type Directory interface {
	Lookup(ctx context.Context, email string) models.Profile
}

// Availability

func (s *Service) SetAvailability(ctx context.Context, specialistEmail string, req *api.AvailabilityRequest) (*api.AvailabilityResponse, error) {
	const op = "service.SetAvailability"

	specialist := models.NormalizeEmail(specialistEmail)
	if specialist == "" {
		return nil, fmt.Errorf("%s: %w", op, &models.ValidationError{Field: "specialist_email", Reason: "is required"})
	}

	if len(req.Entries) == 0 {
		return nil, fmt.Errorf("%s: %w", op, &models.ValidationError{Field: "entries", Reason: "at least one date is required"})
	}

	entries := make([]models.AvailabilityEntry, 0, len(req.Entries))
	for _, e := range req.Entries {
		entry, err := fromAPIEntry(e)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		entries = append(entries, entry)
	}

	if err := models.ValidateMonth(req.Month, entries); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	m, _ := models.ParseMonth(req.Month)
	month := models.MonthOf(m)

	if err := s.store.SetAvailability(ctx, specialist, month, entries); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.GetAvailability(ctx, specialist, month)
}

func (s *Service) GetAvailability(ctx context.Context, specialistEmail, month string) (*api.AvailabilityResponse, error) {
	const op = "service.GetAvailability"

	m, err := models.ParseMonth(month)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, &models.ValidationError{Field: "month", Reason: "must look like \"June 2024\""})
	}
	month = models.MonthOf(m)

	specialist := models.NormalizeEmail(specialistEmail)

	entries, err := s.store.GetAvailability(ctx, specialist, month)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := &api.AvailabilityResponse{
		SpecialistEmail: specialist,
		Month:           month,
		Entries:         make([]api.AvailabilityEntry, 0, len(entries)),
	}
	for _, e := range entries {
		result.Entries = append(result.Entries, toAPIEntry(e))
	}

	return result, nil
}

// Slots

// ListOpenSlots returns the Free and Break slots of a date. The result is
// advisory: BookSlot validates again before reserving.
func (s *Service) ListOpenSlots(ctx context.Context, specialistEmail, date string) ([]*api.SlotResponse, error) {
	const op = "service.ListOpenSlots"

	day, err := s.daySlots(ctx, models.NormalizeEmail(specialistEmail), date)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := make([]*api.SlotResponse, 0, len(day))
	for _, slot := range day {
		if slot.State == models.SlotBooked {
			continue
		}
		result = append(result, toAPISlot(slot))
	}

	return result, nil
}

// DaySchedule returns every slot of a date including booked ones.
func (s *Service) DaySchedule(ctx context.Context, specialistEmail, date string) ([]*api.SlotResponse, error) {
	const op = "service.DaySchedule"

	day, err := s.daySlots(ctx, models.NormalizeEmail(specialistEmail), date)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := make([]*api.SlotResponse, 0, len(day))
	for _, slot := range day {
		result = append(result, toAPISlot(slot))
	}

	return result, nil
}

func (s *Service) daySlots(ctx context.Context, specialist, date string) ([]models.Slot, error) {
	if _, err := models.ParseDate(date); err != nil {
		return nil, &models.ValidationError{Date: date, Field: "date", Reason: "must be YYYY-MM-DD"}
	}

	entry, err := s.store.GetAvailabilityForDate(ctx, specialist, date)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	day := slots.Generate(*entry)
	if len(day) == 0 {
		return day, nil
	}

	booked, err := s.store.BookedTimes(ctx, specialist, date)
	if err != nil {
		return nil, err
	}

	for i := range day {
		if _, ok := booked[day[i].Time]; ok {
			day[i].State = models.SlotBooked
		}
	}

	return day, nil
}

// Bookings

func (s *Service) BookSlot(ctx context.Context, req *api.BookingRequest) (*api.AppointmentDetail, error) {
	const op = "service.BookSlot"

	user := models.NormalizeEmail(req.UserEmail)
	specialist := models.NormalizeEmail(req.SpecialistEmail)

	if err := validateParties(user, specialist); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if user == specialist {
		return nil, fmt.Errorf("%s: %w", op, &models.ValidationError{Field: "user_email", Reason: "cannot book own slot"})
	}

	date, t, err := parseSlotRef(req.Date, req.Time)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	day, err := s.daySlots(ctx, specialist, date)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	slot, offered := findSlot(day, t)
	if !offered || slot.State == models.SlotBreak {
		return nil, fmt.Errorf("%s: %s %s: %w", op, date, t, response.ErrSlotNotOffered)
	}
	if slot.State == models.SlotBooked {
		return nil, fmt.Errorf("%s: %s %s: %w", op, date, t, response.ErrSlotNotAvailable)
	}

	lockKey := fmt.Sprintf("slot:%s:%s:%s", specialist, date, t)

	token, err := s.locker.Lock(ctx, lockKey, s.lockTTL)
	if errors.Is(err, response.ErrLocked) {
		return nil, fmt.Errorf("%s: %w: %w", op, err, response.ErrSlotNotAvailable)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: lock error: %w", op, err)
	}
	defer func() {
		_ = s.locker.Unlock(context.WithoutCancel(ctx), lockKey, token)
	}()

	detail, err := s.store.Reserve(ctx, user, specialist, date, t, req.Comments)
	if err != nil {
		if errors.Is(err, response.ErrConflict) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrSlotNotAvailable)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.detailView(ctx, user, specialist, *detail), nil
}

// Cancel lets either party of the appointment cancel an upcoming detail.
func (s *Service) Cancel(ctx context.Context, req *api.CancelRequest) (*api.AppointmentDetail, error) {
	const op = "service.Cancel"

	actor := models.NormalizeEmail(req.ActorEmail)
	user := models.NormalizeEmail(req.UserEmail)
	specialist := models.NormalizeEmail(req.SpecialistEmail)

	if err := validateParties(user, specialist); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if actor != user && actor != specialist {
		return nil, fmt.Errorf("%s: %w", op, response.ErrNotParticipant)
	}

	date, t, err := parseSlotRef(req.Date, req.Time)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	detail, err := s.store.SetStatus(ctx, user, specialist, date, t, models.StatusCancelled, "")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.detailView(ctx, user, specialist, *detail), nil
}

func (s *Service) Complete(ctx context.Context, req *api.CompleteRequest) (*api.AppointmentDetail, error) {
	const op = "service.Complete"

	user := models.NormalizeEmail(req.UserEmail)
	specialist := models.NormalizeEmail(req.SpecialistEmail)

	if err := validateParties(user, specialist); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	date, t, err := parseSlotRef(req.Date, req.Time)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	detail, err := s.store.SetStatus(ctx, user, specialist, date, t, models.StatusCompleted, req.Notes)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.detailView(ctx, user, specialist, *detail), nil
}

// Appointments lists every appointment of one party split by status.
func (s *Service) Appointments(ctx context.Context, email, role string) (*api.AppointmentsResponse, error) {
	const op = "service.Appointments"

	party := models.NormalizeEmail(email)
	if party == "" {
		return nil, fmt.Errorf("%s: %w", op, &models.ValidationError{Field: "email", Reason: "is required"})
	}

	var (
		records []models.AppointmentRecord
		err     error
	)

	switch role {
	case RoleUser:
		records, err = s.store.ListByUser(ctx, party)
	case RoleSpecialist:
		records, err = s.store.ListBySpecialist(ctx, party)
	default:
		return nil, fmt.Errorf("%s: %w", op, &models.ValidationError{Field: "role", Reason: "must be user or specialist"})
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := &api.AppointmentsResponse{
		Email:     party,
		Role:      role,
		Upcoming:  make([]api.AppointmentDetail, 0),
		Completed: make([]api.AppointmentDetail, 0),
		Cancelled: make([]api.AppointmentDetail, 0),
	}

	for _, rec := range records {
		userName := s.directory.Lookup(ctx, rec.UserEmail).DisplayName
		specialistName := s.directory.Lookup(ctx, rec.SpecialistEmail).DisplayName

		for _, d := range rec.Details {
			item := toAPIDetail(rec.UserEmail, rec.SpecialistEmail, d)
			item.UserName = userName
			item.SpecialistName = specialistName

			switch d.Status {
			case models.StatusUpcoming:
				result.Upcoming = append(result.Upcoming, item)
			case models.StatusCompleted:
				result.Completed = append(result.Completed, item)
			case models.StatusCancelled:
				result.Cancelled = append(result.Cancelled, item)
			}
		}
	}

	sortByWhen(result.Upcoming)
	sortByWhen(result.Completed)
	sortByWhen(result.Cancelled)

	return result, nil
}

func validateParties(user, specialist string) error {
	if user == "" {
		return &models.ValidationError{Field: "user_email", Reason: "is required"}
	}
	if specialist == "" {
		return &models.ValidationError{Field: "specialist_email", Reason: "is required"}
	}
	return nil
}

func parseSlotRef(date, clock string) (string, models.Clock, error) {
	if _, err := models.ParseDate(date); err != nil {
		return "", 0, &models.ValidationError{Date: date, Field: "date", Reason: "must be YYYY-MM-DD"}
	}

	t, err := models.ParseClock(clock)
	if err != nil {
		return "", 0, &models.ValidationError{Date: date, Field: "time", Reason: "must be HH:MM"}
	}

	return date, t, nil
}

func findSlot(day []models.Slot, t models.Clock) (models.Slot, bool) {
	for _, slot := range day {
		if slot.Time == t {
			return slot, true
		}
	}
	return models.Slot{}, false
}

func sortByWhen(items []api.AppointmentDetail) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Date != items[j].Date {
			return items[i].Date < items[j].Date
		}
		return items[i].Time < items[j].Time
	})
}
