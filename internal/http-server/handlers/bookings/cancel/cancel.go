package cancel

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"booking-service/api"
	"booking-service/internal/models"
	"booking-service/pkg/response"
	"booking-service/pkg/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type AppointmentCanceller interface {
	Cancel(ctx context.Context, req *api.CancelRequest) (*api.AppointmentDetail, error)
}

type Request struct {
	api.CancelRequest
}

type Response struct {
	response.Response
	Appointment *api.AppointmentDetail `json:"appointment,omitempty"`
}

func New(log *slog.Logger, canceller AppointmentCanceller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.bookings.cancel.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req Request

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("Failed to decode request body", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.BAD_REQUEST), "failed to decode request"))
			return
		}

		if req.ActorEmail == "" {
			log.Error("actor_email is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.VALIDATION_ERROR), "actor_email is required"))
			return
		}

		appointment, err := canceller.Cancel(r.Context(), &req.CancelRequest)

		var verr *models.ValidationError
		if errors.As(err, &verr) {
			log.Warn("cancel rejected", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.VALIDATION_ERROR), verr.Error()))
			return
		}

		if errors.Is(err, response.ErrNotParticipant) {
			log.Warn("actor is not a participant", slog.String("actor", req.ActorEmail))
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error(string(response.FORBIDDEN), "only the user or the specialist may cancel"))
			return
		}

		if errors.Is(err, response.ErrNotFound) {
			log.Error("appointment not found")
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error(string(response.NOT_FOUND), "appointment not found"))
			return
		}

		if errors.Is(err, response.ErrInvalidTransition) {
			log.Warn("invalid transition", sl.Err(err))
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error(string(response.INVALID_TRANSITION), "appointment is no longer upcoming"))
			return
		}

		if err != nil {
			log.Error("Failed to cancel appointment", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to cancel appointment"))
			return
		}

		log.Info("Appointment cancelled", slog.String("id", appointment.ID))
		responseOK(w, r, appointment)
	}
}

func responseOK(w http.ResponseWriter, r *http.Request, appointment *api.AppointmentDetail) {
	render.JSON(w, r, Response{
		Response:    response.OK(),
		Appointment: appointment,
	})
}
