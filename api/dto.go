package api

import "time"

// BreakTiming is a [start, end] pair of "HH:MM" times.
type BreakTiming [2]string

type AvailabilityEntry struct {
	Date         string        `json:"date"`
	StartTime    string        `json:"start_time"`
	EndTime      string        `json:"end_time"`
	Interval     int           `json:"interval"`
	BreakTimings []BreakTiming `json:"break_timings"`
	Version      int64         `json:"version,omitempty"`
	UpdatedAt    *time.Time    `json:"updated_at,omitempty"`
}

type AvailabilityRequest struct {
	Month   string              `json:"month"`
	Entries []AvailabilityEntry `json:"entries"`
}

type AvailabilityResponse struct {
	SpecialistEmail string              `json:"specialist_email"`
	Month           string              `json:"month"`
	Entries         []AvailabilityEntry `json:"entries"`
}

type SlotResponse struct {
	Time  string `json:"time"`
	State string `json:"state"`
}

type BookingRequest struct {
	UserEmail       string `json:"user_email"`
	SpecialistEmail string `json:"specialist_email"`
	Date            string `json:"date"`
	Time            string `json:"time"`
	Comments        string `json:"comments,omitempty"`
}

type CancelRequest struct {
	ActorEmail      string `json:"actor_email"`
	UserEmail       string `json:"user_email"`
	SpecialistEmail string `json:"specialist_email"`
	Date            string `json:"date"`
	Time            string `json:"time"`
}

type CompleteRequest struct {
	SpecialistEmail string `json:"specialist_email"`
	UserEmail       string `json:"user_email"`
	Date            string `json:"date"`
	Time            string `json:"time"`
	Notes           string `json:"notes,omitempty"`
}

type AppointmentDetail struct {
	ID              string    `json:"id"`
	UserEmail       string    `json:"user_email"`
	UserName        string    `json:"user_name,omitempty"`
	SpecialistEmail string    `json:"specialist_email"`
	SpecialistName  string    `json:"specialist_name,omitempty"`
	Date            string    `json:"date"`
	Time            string    `json:"time"`
	Status          string    `json:"status"`
	UserComments    string    `json:"user_comments,omitempty"`
	SpecialistNotes string    `json:"specialist_notes,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// AppointmentsResponse partitions one party's appointments by status.
type AppointmentsResponse struct {
	Email     string              `json:"email"`
	Role      string              `json:"role"`
	Upcoming  []AppointmentDetail `json:"upcoming"`
	Completed []AppointmentDetail `json:"completed"`
	Cancelled []AppointmentDetail `json:"cancelled"`
}
