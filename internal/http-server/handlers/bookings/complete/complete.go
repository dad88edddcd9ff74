package complete

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

type AppointmentCompleter interface {
	Complete(ctx context.Context, req *api.CompleteRequest) (*api.AppointmentDetail, error)
}

type Request struct {
	api.CompleteRequest
}

type Response struct {
	response.Response
	Appointment *api.AppointmentDetail `json:"appointment,omitempty"`
}

func New(log *slog.Logger, completer AppointmentCompleter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.bookings.complete.New"

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

		appointment, err := completer.Complete(r.Context(), &req.CompleteRequest)

		var verr *models.ValidationError
		if errors.As(err, &verr) {
			log.Warn("complete rejected", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.VALIDATION_ERROR), verr.Error()))
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
			log.Error("Failed to complete appointment", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to complete appointment"))
			return
		}

		log.Info("Appointment completed", slog.String("id", appointment.ID))
		responseOK(w, r, appointment)
	}
}

func responseOK(w http.ResponseWriter, r *http.Request, appointment *api.AppointmentDetail) {
	render.JSON(w, r, Response{
		Response:    response.OK(),
		Appointment: appointment,
	})
}
