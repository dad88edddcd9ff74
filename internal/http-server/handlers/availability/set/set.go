package set

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"booking-service/api"
	"booking-service/internal/models"
	"booking-service/pkg/response"
	"booking-service/pkg/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

type AvailabilitySetter interface {
	SetAvailability(ctx context.Context, specialistEmail string, req *api.AvailabilityRequest) (*api.AvailabilityResponse, error)
}

type Request struct {
	api.AvailabilityRequest
}

type Response struct {
	response.Response
	Availability *api.AvailabilityResponse `json:"availability,omitempty"`
}

func New(log *slog.Logger, setter AvailabilitySetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.availability.set.New"

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
		if email == "" {
			log.Error("email is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.VALIDATION_ERROR), "specialist email is required"))
			return
		}

		var req Request

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("Failed to decode request body", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "failed to decode request"))
			return
		}

		log.Info("Request body decoded", slog.String("month", req.Month), slog.Int("entries", len(req.Entries)))

		availability, err := setter.SetAvailability(r.Context(), email, &req.AvailabilityRequest)

		var verr *models.ValidationError
		if errors.As(err, &verr) {
			log.Warn("availability rejected", slog.String("date", verr.Date), slog.String("field", verr.Field))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.VALIDATION_ERROR), verr.Error()))
			return
		}

		if err != nil {
			log.Error("Failed to set availability", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to set availability"))
			return
		}

		log.Info("Availability set", slog.String("specialist", availability.SpecialistEmail), slog.String("month", availability.Month))

		responseOK(w, r, availability)
	}
}

func responseOK(w http.ResponseWriter, r *http.Request, availability *api.AvailabilityResponse) {
	render.JSON(w, r, Response{
		Response:     response.OK(),
		Availability: availability,
	})
}
