package create

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

type SlotBooker interface {
	BookSlot(ctx context.Context, req *api.BookingRequest) (*api.AppointmentDetail, error)
}

type Request struct {
	api.BookingRequest
}

type Response struct {
	response.Response
	Appointment *api.AppointmentDetail `json:"appointment,omitempty"`
}

func New(log *slog.Logger, booker SlotBooker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.bookings.create.New"

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

		log.Info("Request body decoded",
			slog.String("specialist", req.SpecialistEmail),
			slog.String("date", req.Date),
			slog.String("time", req.Time),
		)

		appointment, err := booker.BookSlot(r.Context(), &req.BookingRequest)

		var verr *models.ValidationError
		if errors.As(err, &verr) {
			log.Warn("booking rejected", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.VALIDATION_ERROR), verr.Error()))
			return
		}

		if errors.Is(err, response.ErrSlotNotOffered) {
			log.Warn("slot is not offered", sl.Err(err))
			w.WriteHeader(http.StatusUnprocessableEntity)
			render.JSON(w, r, response.Error(string(response.SLOT_NOT_OFFERED), "slot is not offered"))
			return
		}

		if errors.Is(err, response.ErrSlotNotAvailable) {
			log.Warn("slot is not available", sl.Err(err))
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error(string(response.SLOT_NOT_AVAILABLE), "slot is not available"))
			return
		}

		if err != nil {
			log.Error("Failed to book slot", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to book slot"))
			return
		}

		log.Info("Slot booked", slog.String("id", appointment.ID))

		w.WriteHeader(http.StatusCreated)
		responseOK(w, r, appointment)
	}
}

func responseOK(w http.ResponseWriter, r *http.Request, appointment *api.AppointmentDetail) {
	render.JSON(w, r, Response{
		Response:    response.OK(),
		Appointment: appointment,
	})
}
