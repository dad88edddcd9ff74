package service

import (
	"context"
	"sort"

	"booking-service/api"
	"booking-service/internal/models"
)

func fromAPIEntry(e api.AvailabilityEntry) (models.AvailabilityEntry, error) {
	start, err := models.ParseClock(e.StartTime)
	if err != nil {
		return models.AvailabilityEntry{}, &models.ValidationError{Date: e.Date, Field: "startTime", Reason: "must be HH:MM"}
	}

	end, err := models.ParseClock(e.EndTime)
	if err != nil {
		return models.AvailabilityEntry{}, &models.ValidationError{Date: e.Date, Field: "endTime", Reason: "must be HH:MM"}
	}

	breaks := make([]models.Break, 0, len(e.BreakTimings))
	for _, b := range e.BreakTimings {
		bs, err := models.ParseClock(b[0])
		if err != nil {
			return models.AvailabilityEntry{}, &models.ValidationError{Date: e.Date, Field: "breakTimings", Reason: "break start must be HH:MM"}
		}
		be, err := models.ParseClock(b[1])
		if err != nil {
			return models.AvailabilityEntry{}, &models.ValidationError{Date: e.Date, Field: "breakTimings", Reason: "break end must be HH:MM"}
		}
		breaks = append(breaks, models.Break{Start: bs, End: be})
	}

	sort.SliceStable(breaks, func(i, j int) bool { return breaks[i].Start < breaks[j].Start })

	return models.AvailabilityEntry{
		Date:     e.Date,
		Start:    start,
		End:      end,
		Interval: e.Interval,
		Breaks:   breaks,
	}, nil
}

func toAPIEntry(e models.AvailabilityEntry) api.AvailabilityEntry {
	out := api.AvailabilityEntry{
		Date:         e.Date,
		StartTime:    e.Start.String(),
		EndTime:      e.End.String(),
		Interval:     e.Interval,
		BreakTimings: make([]api.BreakTiming, 0, len(e.Breaks)),
		Version:      e.Version,
	}

	if !e.UpdatedAt.IsZero() {
		updated := e.UpdatedAt
		out.UpdatedAt = &updated
	}

	for _, b := range e.Breaks {
		out.BreakTimings = append(out.BreakTimings, api.BreakTiming{b.Start.String(), b.End.String()})
	}

	return out
}

func toAPISlot(s models.Slot) *api.SlotResponse {
	return &api.SlotResponse{
		Time:  s.Time.String(),
		State: string(s.State),
	}
}

func toAPIDetail(user, specialist string, d models.AppointmentDetail) api.AppointmentDetail {
	return api.AppointmentDetail{
		ID:              d.ID.String(),
		UserEmail:       user,
		SpecialistEmail: specialist,
		Date:            d.Date,
		Time:            d.Time.String(),
		Status:          string(d.Status),
		UserComments:    d.UserComments,
		SpecialistNotes: d.SpecialistNotes,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}

func (s *Service) detailView(ctx context.Context, user, specialist string, d models.AppointmentDetail) *api.AppointmentDetail {
	out := toAPIDetail(user, specialist, d)
	out.UserName = s.directory.Lookup(ctx, user).DisplayName
	out.SpecialistName = s.directory.Lookup(ctx, specialist).DisplayName
	return &out
}
