package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"spendly/internal/pages"
)

func TestHTMXResponseBuilder_Basic(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().
		Status(http.StatusOK).
		BodyString("test").
		Write(w)

	if w.Code != http.StatusOK {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusOK)
	}
	if w.Body.String() != "test" {
		t.Errorf("Body = %q, want %q", w.Body.String(), "test")
	}
	if w.Header().Get("HX-Trigger") != "" {
		t.Errorf("HX-Trigger set without triggers: %q", w.Header().Get("HX-Trigger"))
	}
}

func TestHTMXResponseBuilder_Triggers(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().
		TriggerFormReset().
		TriggerRefresh("budgets").
		TriggerSuccessNotification("Budget created successfully!").
		Write(w)

	var got map[string]json.RawMessage
	if err := json.Unmarshal([]byte(w.Header().Get("HX-Trigger")), &got); err != nil {
		t.Fatalf("HX-Trigger is not JSON: %v", err)
	}
	for _, name := range []string{"form:reset", "budgets:refresh", "show-notification"} {
		if _, ok := got[name]; !ok {
			t.Errorf("HX-Trigger missing %q: %s", name, w.Header().Get("HX-Trigger"))
		}
	}
	if !strings.Contains(string(got["show-notification"]), `"duration":3000`) {
		t.Errorf("success notification duration: %s", got["show-notification"])
	}
}

func TestTriggerNotice(t *testing.T) {
	tests := []struct {
		notice   pages.Notice
		wantType string
		wantDur  string
	}{
		{pages.Notice{Level: pages.LevelSuccess, Message: "ok"}, "success", `"duration":3000`},
		{pages.Notice{Level: pages.LevelWarning, Message: "Please fill in all required fields"}, "warning", `"duration":5000`},
		{pages.Notice{Level: pages.LevelError, Message: "boom"}, "error", `"duration":5000`},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		NewHTMXResponse().TriggerNotice(tt.notice).Write(w)

		trigger := w.Header().Get("HX-Trigger")
		if !strings.Contains(trigger, `"type":"`+tt.wantType+`"`) {
			t.Errorf("type %q not in %s", tt.wantType, trigger)
		}
		if !strings.Contains(trigger, tt.wantDur) {
			t.Errorf("duration %s not in %s", tt.wantDur, trigger)
		}
	}
}

func TestHTMXResponseBuilder_Redirect(t *testing.T) {
	w := httptest.NewRecorder()
	NewHTMXResponse().Redirect("/login").Write(w)

	if got := w.Header().Get("HX-Redirect"); got != "/login" {
		t.Errorf("HX-Redirect = %q, want /login", got)
	}
	if w.Code != http.StatusOK {
		t.Errorf("Status code = %d, want 200", w.Code)
	}
}

func TestErrorResponse(t *testing.T) {
	tests := []struct {
		name       string
		builder    *HTMXResponseBuilder
		wantStatus int
		wantBody   string
	}{
		{
			name:       "bad request",
			builder:    BadRequestError("Invalid input"),
			wantStatus: http.StatusBadRequest,
			wantBody:   `<div class="alert alert-error" role="alert">Invalid input</div>`,
		},
		{
			name:       "unprocessable entity",
			builder:    UnprocessableEntityError("Validation failed"),
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   `<div class="alert alert-error" role="alert">Validation failed</div>`,
		},
		{
			name:       "internal server error",
			builder:    InternalServerError("Something broke"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   `<div class="alert alert-error" role="alert">Something broke</div>`,
		},
		{
			name:       "not found",
			builder:    NotFoundError("Goal not found"),
			wantStatus: http.StatusNotFound,
			wantBody:   `<div class="alert alert-error" role="alert">Goal not found</div>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.builder.Write(w)

			if w.Code != tt.wantStatus {
				t.Errorf("Status code = %d, want %d", w.Code, tt.wantStatus)
			}
			if w.Body.String() != tt.wantBody {
				t.Errorf("Body = %q, want %q", w.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestErrorResponse_EscapesHTML(t *testing.T) {
	w := httptest.NewRecorder()

	BadRequestError("<script>alert('xss')</script>").Write(w)

	body := w.Body.String()
	if strings.Contains(body, "<script>") {
		t.Error("Error response did not escape HTML")
	}
	if !strings.Contains(body, "&lt;script&gt;") {
		t.Error("Error response did not properly escape HTML entities")
	}
}
