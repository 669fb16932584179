package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"go.uber.org/zap"
)

var apiErrorCodes = []int{
	http.StatusBadRequest,
	http.StatusUnauthorized,
	http.StatusForbidden,
	http.StatusNotFound,
	http.StatusConflict,
	http.StatusTooManyRequests,
	http.StatusInternalServerError,
	http.StatusServiceUnavailable,
}

// Feature: pepperbot, Property 10: Every error body carries the same
// envelope with code, message and an RFC3339 timestamp
func TestProperty_ErrorEnvelopeIsConsistent(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("error responses share one envelope", prop.ForAll(
		func(message string, pick int) bool {
			statusCode := apiErrorCodes[pick%len(apiErrorCodes)]

			w := httptest.NewRecorder()
			RespondWithError(w, statusCode, message)

			if w.Code != statusCode {
				t.Logf("FAIL: status %d, want %d", w.Code, statusCode)
				return false
			}
			if w.Header().Get("Content-Type") != "application/json" {
				t.Logf("FAIL: content type %q", w.Header().Get("Content-Type"))
				return false
			}

			var response ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
				t.Logf("FAIL: body is not JSON: %v", err)
				return false
			}

			if response.Error.Code != http.StatusText(statusCode) {
				t.Logf("FAIL: code %q", response.Error.Code)
				return false
			}
			if response.Error.Message != message {
				t.Logf("FAIL: message %q, want %q", response.Error.Message, message)
				return false
			}
			if _, err := time.Parse(time.RFC3339, response.Error.Timestamp); err != nil {
				t.Logf("FAIL: bad timestamp %q", response.Error.Timestamp)
				return false
			}

			return true
		},
		gen.AlphaString().SuchThat(func(s string) bool { return len(s) > 0 }),
		gen.IntRange(0, 1000),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestRespondWithErrorDetails(t *testing.T) {
	w := httptest.NewRecorder()
	RespondWithErrorDetails(w, http.StatusConflict, "already registered", map[string]interface{}{
		"username": "alice",
	})

	var response ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if response.Error.Details["username"] != "alice" {
		t.Errorf("details not carried: %v", response.Error.Details)
	}
}

func TestRespondWithValidationErrors(t *testing.T) {
	w := httptest.NewRecorder()
	RespondWithValidationErrors(w, []ValidationError{
		{Field: "email", Message: "email must be a valid email address"},
		{Field: "password", Message: "password must be at least 8 characters long"},
	})

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", w.Code)
	}

	var response ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if response.Error.Message != "validation failed" {
		t.Errorf("message %q", response.Error.Message)
	}

	raw, ok := response.Error.Details["validation_errors"].([]interface{})
	if !ok || len(raw) != 2 {
		t.Fatalf("validation_errors missing or wrong length: %v", response.Error.Details)
	}
}

func TestErrorHandlingMiddlewareRecoversPanics(t *testing.T) {
	handler := ErrorHandlingMiddleware(zap.NewNop())(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("boom")
		}),
	)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/discounts", nil))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status %d, want 500", w.Code)
	}

	var response ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if response.Error.Message != "internal server error" {
		t.Errorf("message %q", response.Error.Message)
	}
}

func TestErrorHandlingMiddlewareRethrowsAbort(t *testing.T) {
	handler := ErrorHandlingMiddleware(zap.NewNop())(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic(http.ErrAbortHandler)
		}),
	)

	defer func() {
		if recover() != http.ErrAbortHandler {
			t.Fatal("http.ErrAbortHandler must propagate")
		}
	}()

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))
}

func TestRespondWithJSON(t *testing.T) {
	w := httptest.NewRecorder()
	RespondWithJSON(w, http.StatusCreated, map[string]string{"id": "abc"})

	if w.Code != http.StatusCreated {
		t.Fatalf("status %d, want 201", w.Code)
	}
	if w.Header().Get("Content-Type") != "application/json" {
		t.Errorf("content type %q", w.Header().Get("Content-Type"))
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if body["id"] != "abc" {
		t.Errorf("body %v", body)
	}
}
