package complete

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"booking-service/api"
	"booking-service/internal/models"
	"booking-service/pkg/response"
)

type fakeCompleter struct {
	got *api.CompleteRequest
	err error
}

func (f *fakeCompleter) Complete(_ context.Context, req *api.CompleteRequest) (*api.AppointmentDetail, error) {
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	return &api.AppointmentDetail{
		ID:              "a1",
		Date:            req.Date,
		Time:            req.Time,
		Status:          string(models.StatusCompleted),
		SpecialistNotes: req.Notes,
	}, nil
}

func TestCompleteHandler(t *testing.T) {
	body := `{"specialist_email":"dr.ada@clinic.org","user_email":"amara@example.com","date":"2024-06-10","time":"14:00","notes":"follow-up in 2 weeks"}`

	tests := []struct {
		name     string
		body     string
		err      error
		wantCode int
		wantErr  string
	}{
		{name: "completed", body: body, wantCode: http.StatusOK},
		{name: "bad json", body: `{"notes":`, wantCode: http.StatusBadRequest, wantErr: "FAILED_TO_DECODE"},
		{
			name:     "validation",
			body:     body,
			err:      fmt.Errorf("service.Complete: %w", &models.ValidationError{Date: "2024-06-10", Field: "time", Reason: "must be HH:MM"}),
			wantCode: http.StatusBadRequest,
			wantErr:  "VALIDATION_ERROR",
		},
		{
			name:     "missing",
			body:     body,
			err:      fmt.Errorf("service.Complete: %w", response.ErrNotFound),
			wantCode: http.StatusNotFound,
			wantErr:  "NOT_FOUND",
		},
		{
			name:     "terminal",
			body:     body,
			err:      fmt.Errorf("service.Complete: %w", response.ErrInvalidTransition),
			wantCode: http.StatusConflict,
			wantErr:  "INVALID_TRANSITION",
		},
		{
			name:     "storage failure",
			body:     body,
			err:      errors.New("connection reset"),
			wantCode: http.StatusInternalServerError,
			wantErr:  "REQUEST_FAILED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			completer := &fakeCompleter{err: tt.err}
			h := New(slog.New(slog.NewTextHandler(io.Discard, nil)), completer)

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/appointments/complete", strings.NewReader(tt.body)))

			if rec.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d: %s", tt.wantCode, rec.Code, rec.Body.String())
			}

			var resp Response
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode response: %v", err)
			}

			if tt.wantErr != "" {
				if resp.Status != response.StatusError || resp.Code != tt.wantErr {
					t.Errorf("expected %s, got %s", tt.wantErr, rec.Body.String())
				}
				return
			}

			if resp.Appointment == nil || resp.Appointment.Status != "Completed" || resp.Appointment.SpecialistNotes != "follow-up in 2 weeks" {
				t.Errorf("unexpected body %s", rec.Body.String())
			}
		})
	}
}
