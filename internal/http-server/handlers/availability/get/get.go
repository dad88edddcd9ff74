package get

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"booking-service/api"
	"booking-service/pkg/response"
	"booking-service/pkg/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

type AvailabilityGetter interface {
	GetAvailability(ctx context.Context, specialistEmail, month string) (*api.AvailabilityResponse, error)
}

type Response struct {
	response.Response
	Availability *api.AvailabilityResponse `json:"availability,omitempty"`
}

func New(log *slog.Logger, getter AvailabilityGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.availability.get.New"

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

		month := r.URL.Query().Get("month")

		if month == "" {
			log.Error("month is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.VALIDATION_ERROR), "month is required"))
			return
		}

		availability, err := getter.GetAvailability(r.Context(), email, month)

		if errors.Is(err, response.ErrValidation) {
			log.Warn("invalid query", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.VALIDATION_ERROR), "month must look like \"June 2024\""))
			return
		}

		if err != nil {
			log.Error("Failed to get availability", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to get availability"))
			return
		}

		log.Info("Availability retrieved", slog.Int("entries", len(availability.Entries)))

		render.JSON(w, r, Response{
			Response:     response.OK(),
			Availability: availability,
		})
	}
}
