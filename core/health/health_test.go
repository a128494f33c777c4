package health_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/realtime/core/health"
	"github.com/dmitrymomot/realtime/core/logger"
)

func TestLiveness(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	health.Liveness(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ALIVE", rec.Body.String())
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}

func TestNoContent(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	health.NoContent(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestReadiness(t *testing.T) {
	t.Parallel()

	ok := func(context.Context) error { return nil }
	fail := func(context.Context) error { return errors.New("bus closed") }

	tests := []struct {
		name   string
		checks []func(context.Context) error
		status int
		body   string
	}{
		{"no checks", nil, http.StatusOK, "READY"},
		{"all checks pass", []func(context.Context) error{ok, ok}, http.StatusOK, "READY"},
		{"one check fails", []func(context.Context) error{ok, fail}, http.StatusServiceUnavailable, "Service Unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := httptest.NewRecorder()
			health.Readiness(logger.Nop(), tt.checks...)(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.body, rec.Body.String())
		})
	}
}
