package get

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"booking-service/api"
	"booking-service/pkg/response"

	"github.com/go-chi/chi/v5"
)

type fakeGetter struct {
	email, month string
	calls        int
	err          error
}

func (f *fakeGetter) GetAvailability(_ context.Context, email, month string) (*api.AvailabilityResponse, error) {
	f.calls++
	f.email, f.month = email, month
	if f.err != nil {
		return nil, f.err
	}
	return &api.AvailabilityResponse{
		SpecialistEmail: email,
		Month:           month,
		Entries:         []api.AvailabilityEntry{{Date: "2024-06-10", StartTime: "14:00", EndTime: "15:00", Interval: 30}},
	}, nil
}

func serve(getter AvailabilityGetter, target string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Get("/specialists/{email}/availability", New(slog.New(slog.NewTextHandler(io.Discard, nil)), getter))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestGetHandler(t *testing.T) {
	tests := []struct {
		name      string
		target    string
		err       error
		wantCode  int
		wantErr   string
		wantCalls int
	}{
		{name: "found", target: "/specialists/dr%40clinic.org/availability?month=June%202024", wantCode: http.StatusOK, wantCalls: 1},
		{name: "missing month", target: "/specialists/dr@clinic.org/availability", wantCode: http.StatusBadRequest, wantErr: "VALIDATION_ERROR"},
		{
			name:      "bad month",
			target:    "/specialists/dr@clinic.org/availability?month=2024-06",
			err:       fmt.Errorf("service.GetAvailability: %w", response.ErrValidation),
			wantCode:  http.StatusBadRequest,
			wantErr:   "VALIDATION_ERROR",
			wantCalls: 1,
		},
		{
			name:      "storage failure",
			target:    "/specialists/dr@clinic.org/availability?month=June%202024",
			err:       errors.New("connection reset"),
			wantCode:  http.StatusInternalServerError,
			wantErr:   "REQUEST_FAILED",
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			getter := &fakeGetter{err: tt.err}
			rec := serve(getter, tt.target)

			if rec.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d: %s", tt.wantCode, rec.Code, rec.Body.String())
			}
			if getter.calls != tt.wantCalls {
				t.Errorf("expected %d service calls, got %d", tt.wantCalls, getter.calls)
			}

			var resp Response
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode response: %v", err)
			}

			if tt.wantErr != "" {
				if resp.Code != tt.wantErr {
					t.Errorf("expected %s, got %s", tt.wantErr, rec.Body.String())
				}
				return
			}

			if getter.email != "dr@clinic.org" || getter.month != "June 2024" {
				t.Errorf("unexpected call %q %q", getter.email, getter.month)
			}
			if resp.Availability == nil || len(resp.Availability.Entries) != 1 {
				t.Errorf("unexpected body %s", rec.Body.String())
			}
		})
	}
}
