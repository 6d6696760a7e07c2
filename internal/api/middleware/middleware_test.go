package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-TutorBooking/internal/domain"
	"github.com/m04kA/SMC-TutorBooking/internal/integrations/identity"
	"github.com/m04kA/SMC-TutorBooking/pkg/logger"
)

func okHandler(t *testing.T, want *domain.Principal) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if want != nil {
			got, ok := GetPrincipal(r.Context())
			require.True(t, ok)
			assert.Equal(t, *want, got)
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestAuth(t *testing.T) {
	verifier := identity.NewVerifier("secret", "")
	auth := NewAuth(verifier, logger.NewNop())
	student := domain.Principal{ID: uuid.New(), Role: domain.RoleStudent}

	token, err := verifier.Sign(student, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		setup  func(r *http.Request)
		status int
	}{
		{name: "bearer header", setup: func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }, status: http.StatusNoContent},
		{name: "query token ignored", setup: func(r *http.Request) { r.URL.RawQuery = "access_token=" + token }, status: http.StatusUnauthorized},
		{name: "missing", setup: func(*http.Request) {}, status: http.StatusUnauthorized},
		{name: "wrong scheme", setup: func(r *http.Request) { r.Header.Set("Authorization", "Basic "+token) }, status: http.StatusUnauthorized},
		{name: "garbage", setup: func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, status: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/me/bookings", nil)
			tt.setup(req)
			rec := httptest.NewRecorder()

			auth.Required(okHandler(t, &student)).ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestAuth_RequiredForStream(t *testing.T) {
	verifier := identity.NewVerifier("secret", "")
	auth := NewAuth(verifier, logger.NewNop())
	student := domain.Principal{ID: uuid.New(), Role: domain.RoleStudent}

	token, err := verifier.Sign(student, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		setup  func(r *http.Request)
		status int
	}{
		{name: "query token", setup: func(r *http.Request) { r.URL.RawQuery = "access_token=" + token }, status: http.StatusNoContent},
		{name: "bearer header", setup: func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }, status: http.StatusNoContent},
		{name: "bad header wins over query", setup: func(r *http.Request) {
			r.Header.Set("Authorization", "Basic "+token)
			r.URL.RawQuery = "access_token=" + token
		}, status: http.StatusUnauthorized},
		{name: "garbage query", setup: func(r *http.Request) { r.URL.RawQuery = "access_token=nope" }, status: http.StatusUnauthorized},
		{name: "missing", setup: func(*http.Request) {}, status: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/events", nil)
			tt.setup(req)
			rec := httptest.NewRecorder()

			auth.RequiredForStream(okHandler(t, &student)).ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestRoleGuards(t *testing.T) {
	teacher := domain.Principal{ID: uuid.New(), Role: domain.RoleTeacher}
	student := domain.Principal{ID: uuid.New(), Role: domain.RoleStudent}

	serve := func(guard func(http.Handler) http.Handler, p *domain.Principal) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if p != nil {
			req = req.WithContext(WithPrincipal(req.Context(), *p))
		}
		rec := httptest.NewRecorder()
		guard(okHandler(t, nil)).ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusNoContent, serve(RequireTeacher, &teacher))
	assert.Equal(t, http.StatusForbidden, serve(RequireTeacher, &student))
	assert.Equal(t, http.StatusNoContent, serve(RequireStudent, &student))
	assert.Equal(t, http.StatusForbidden, serve(RequireStudent, &teacher))
	assert.Equal(t, http.StatusUnauthorized, serve(RequireTeacher, nil))
}

func TestRateLimiter(t *testing.T) {
	limiter := NewRateLimiter(1, 2, logger.NewNop())
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }
	handler := limiter.Middleware(okHandler(t, nil))

	call := func(ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", nil)
		req.RemoteAddr = ip + ":5555"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusNoContent, call("10.0.0.1"))
	assert.Equal(t, http.StatusNoContent, call("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, call("10.0.0.1"))
	// Другой IP не затронут
	assert.Equal(t, http.StatusNoContent, call("10.0.0.2"))

	// Через секунду токен восстановился
	now = now.Add(time.Second)
	assert.Equal(t, http.StatusNoContent, call("10.0.0.1"))
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.1.10:4000"
	assert.Equal(t, "192.168.1.10", clientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	assert.Equal(t, "203.0.113.7", clientIP(req))
}

type fakeCollector struct {
	method, route string
	status        int
}

func (f *fakeCollector) ObserveHTTPRequest(method, route string, status int, _ time.Duration) {
	f.method, f.route, f.status = method, route, status
}

func TestMetricsMiddleware_UsesRouteTemplate(t *testing.T) {
	collector := &fakeCollector{}
	r := mux.NewRouter()
	r.Use(MetricsMiddleware(collector))
	r.HandleFunc("/api/v1/bookings/{bookingId}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}).Methods(http.MethodGet)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/bookings/42", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, http.MethodGet, collector.method)
	assert.Equal(t, "/api/v1/bookings/{bookingId}", collector.route)
	assert.Equal(t, http.StatusNotFound, collector.status)
}
