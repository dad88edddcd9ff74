package get

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"booking-service/api"
	"booking-service/pkg/response"
	"booking-service/pkg/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

type SlotGetter interface {
	ListOpenSlots(ctx context.Context, specialistEmail, date string) ([]*api.SlotResponse, error)
	DaySchedule(ctx context.Context, specialistEmail, date string) ([]*api.SlotResponse, error)
}

type Response struct {
	response.Response
	SpecialistEmail string             `json:"specialist_email,omitempty"`
	Date            string             `json:"date,omitempty"`
	Slots           []api.SlotResponse `json:"slots"`
}

// New serves the open slots of a date. With all=true booked slots are listed too.
func New(log *slog.Logger, getter SlotGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.slots.get.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		email, err := url.PathUnescape(chi.URLParam(r, "email"))
		if err != nil {
			log.Error("invalid email in path", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.VALIDATION_ERROR), "specialist email is not a valid path segment"))
			return
		}

		date := r.URL.Query().Get("date")

		if date == "" {
			log.Error("date is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.VALIDATION_ERROR), "date is required"))
			return
		}

		all := false
		if v := r.URL.Query().Get("all"); v != "" {
			parsed, err := strconv.ParseBool(v)
			if err != nil {
				log.Error("invalid all flag", sl.Err(err))
				w.WriteHeader(http.StatusBadRequest)
				render.JSON(w, r, response.Error(string(response.VALIDATION_ERROR), "all must be true or false"))
				return
			}
			all = parsed
		}

		var slots []*api.SlotResponse
		if all {
			slots, err = getter.DaySchedule(r.Context(), email, date)
		} else {
			slots, err = getter.ListOpenSlots(r.Context(), email, date)
		}

		if errors.Is(err, response.ErrValidation) {
			log.Warn("invalid query", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.VALIDATION_ERROR), "date must be YYYY-MM-DD"))
			return
		}

		if err != nil {
			log.Error("Failed to list slots", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to list slots"))
			return
		}

		log.Info("Slots retrieved", slog.Int("count", len(slots)), slog.Bool("all", all))

		slotsResponse := make([]api.SlotResponse, len(slots))
		for i, s := range slots {
			slotsResponse[i] = *s
		}

		render.JSON(w, r, Response{
			Response:        response.OK(),
			SpecialistEmail: email,
			Date:            date,
			Slots:           slotsResponse,
		})
	}
}
