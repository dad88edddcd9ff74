package set

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"booking-service/api"
	"booking-service/internal/models"

	"github.com/go-chi/chi/v5"
)

type fakeSetter struct {
	email string
	err   error
}

func (f *fakeSetter) SetAvailability(_ context.Context, email string, req *api.AvailabilityRequest) (*api.AvailabilityResponse, error) {
	f.email = email
	if f.err != nil {
		return nil, f.err
	}
	return &api.AvailabilityResponse{SpecialistEmail: email, Month: req.Month, Entries: req.Entries}, nil
}

func serve(setter AvailabilitySetter, body string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Put("/specialists/{email}/availability", New(slog.New(slog.NewTextHandler(io.Discard, nil)), setter))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/specialists/dr.ada@clinic.org/availability", strings.NewReader(body)))
	return rec
}

const body = `{"month":"June 2024","entries":[{"date":"2024-06-10","start_time":"09:00","end_time":"10:00","interval":20,"break_timings":[["09:20","09:40"]]}]}`

func TestSetHandler(t *testing.T) {
	setter := &fakeSetter{}
	rec := serve(setter, body)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if setter.email != "dr.ada@clinic.org" {
		t.Errorf("expected email from path, got %q", setter.email)
	}

	var resp Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Availability == nil || len(resp.Availability.Entries) != 1 || resp.Availability.Entries[0].BreakTimings[0][1] != "09:40" {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
}

func TestSetHandler_ValidationNamesDateAndField(t *testing.T) {
	setter := &fakeSetter{err: fmt.Errorf("service.SetAvailability: %w",
		&models.ValidationError{Date: "2024-06-10", Field: "interval", Reason: "must be a positive number of minutes"})}
	rec := serve(setter, body)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	var resp Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Code != "VALIDATION_ERROR" || !strings.Contains(resp.Message, "2024-06-10: interval") {
		t.Errorf("unexpected error body %s", rec.Body.String())
	}
}

func TestSetHandler_BadBody(t *testing.T) {
	setter := &fakeSetter{}
	rec := serve(setter, `[`)

	if rec.Code != http.StatusBadRequest || setter.email != "" {
		t.Fatalf("expected decode failure before service call, got %d", rec.Code)
	}
}

func TestSetHandler_EncodedEmail(t *testing.T) {
	setter := &fakeSetter{}

	r := chi.NewRouter()
	r.Put("/specialists/{email}/availability", New(slog.New(slog.NewTextHandler(io.Discard, nil)), setter))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/specialists/dr%40clinic.org/availability", strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if setter.email != "dr@clinic.org" {
		t.Errorf("expected decoded email, got %q", setter.email)
	}
}

func TestSetHandler_MalformedEscape(t *testing.T) {
	setter := &fakeSetter{}

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("email", "dr%zzclinic.org")

	req := httptest.NewRequest(http.MethodPut, "/specialists/x/availability", strings.NewReader(body))
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	rec := httptest.NewRecorder()
	New(slog.New(slog.NewTextHandler(io.Discard, nil)), setter).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest || setter.email != "" {
		t.Fatalf("expected 400 before service call, got %d", rec.Code)
	}

	var resp Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Code != "VALIDATION_ERROR" {
		t.Errorf("expected VALIDATION_ERROR, got %s", rec.Body.String())
	}
}
