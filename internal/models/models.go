package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusUpcoming  Status = "Upcoming"
	StatusCompleted Status = "Completed"
	StatusCancelled Status = "Cancelled"
)

// transitions lists the legal target states for every non-terminal state.
var transitions = map[Status][]Status{
	StatusUpcoming: {StatusCancelled, StatusCompleted},
}

func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusUpcoming, StatusCompleted, StatusCancelled:
		return Status(s), true
	default:
		return "", false
	}
}

func (s Status) Terminal() bool {
	return len(transitions[s]) == 0
}

func (s Status) CanTransition(to Status) bool {
	for _, t := range transitions[s] {
		if t == to {
			return true
		}
	}
	return false
}

type SlotState string

const (
	SlotFree   SlotState = "Free"
	SlotBooked SlotState = "Booked"
	SlotBreak  SlotState = "Break"
)

type Slot struct {
	Date  string
	Time  Clock
	State SlotState
}

type Break struct {
	Start Clock
	End   Clock
}

// AvailabilityEntry is a specialist's declared working hours for one date.
// Version grows by one every time the date is overwritten.
type AvailabilityEntry struct {
	Date      string
	Start     Clock
	End       Clock
	Interval  int
	Breaks    []Break
	Version   int64
	UpdatedAt time.Time
}

func (e AvailabilityEntry) Clone() AvailabilityEntry {
	c := e
	c.Breaks = append([]Break(nil), e.Breaks...)
	return c
}

type AppointmentDetail struct {
	ID              uuid.UUID
	Date            string
	Time            Clock
	Status          Status
	UserComments    string
	SpecialistNotes string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// AppointmentRecord holds every appointment between one user and one specialist.
type AppointmentRecord struct {
	ID              uuid.UUID
	UserEmail       string
	SpecialistEmail string
	Details         []AppointmentDetail
}

func (r AppointmentRecord) Clone() AppointmentRecord {
	c := r
	c.Details = append([]AppointmentDetail(nil), r.Details...)
	return c
}

// Profile is the display data of a user or specialist, owned by the profile service.
type Profile struct {
	Email       string
	DisplayName string
	Contact     string
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
