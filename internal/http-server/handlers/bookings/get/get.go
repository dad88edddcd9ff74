package get

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

type AppointmentsGetter interface {
	Appointments(ctx context.Context, email, role string) (*api.AppointmentsResponse, error)
}

type Response struct {
	response.Response
	*api.AppointmentsResponse
}

func New(log *slog.Logger, getter AppointmentsGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.bookings.get.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		email := r.URL.Query().Get("email")
		role := r.URL.Query().Get("role")

		if email == "" {
			log.Error("email is empty")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.VALIDATION_ERROR), "email is required"))
			return
		}

		appointments, err := getter.Appointments(r.Context(), email, role)

		var verr *models.ValidationError
		if errors.As(err, &verr) {
			log.Warn("invalid query", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error(string(response.VALIDATION_ERROR), verr.Error()))
			return
		}

		if err != nil {
			log.Error("Failed to list appointments", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error(string(response.FAILED_REQUEST), "failed to list appointments"))
			return
		}

		log.Info("Appointments retrieved",
			slog.Int("upcoming", len(appointments.Upcoming)),
			slog.Int("completed", len(appointments.Completed)),
			slog.Int("cancelled", len(appointments.Cancelled)),
		)

		render.JSON(w, r, Response{
			Response:             response.OK(),
			AppointmentsResponse: appointments,
		})
	}
}
