package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/m04kA/SMC-TutorBooking/internal/api/handlers"
	"github.com/m04kA/SMC-TutorBooking/internal/domain"
)

// accessTokenParam query-параметр с токеном для EventSource, который не умеет слать заголовки
const accessTokenParam = "access_token"

const (
	msgUnauthorized = "требуется авторизация"
	msgForbidden    = "недостаточно прав"
)

type principalKey struct{}

// TokenVerifier проверка токена (реализуется identity.Verifier)
type TokenVerifier interface {
	Verify(tokenString string) (domain.Principal, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Auth проверяет Bearer-токен и кладет пользователя в контекст запроса
type Auth struct {
	verifier TokenVerifier
	logger   Logger
}

func NewAuth(verifier TokenVerifier, logger Logger) *Auth {
	return &Auth{verifier: verifier, logger: logger}
}

// Required пропускает только запросы с валидным токеном в заголовке Authorization
func (a *Auth) Required(next http.Handler) http.Handler {
	return a.authenticate(bearerToken, next)
}

// RequiredForStream как Required, но токен можно передать в access_token.
// Только для ленты событий
func (a *Auth) RequiredForStream(next http.Handler) http.Handler {
	return a.authenticate(streamToken, next)
}

func (a *Auth) authenticate(extract func(r *http.Request) string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extract(r)
		if token == "" {
			handlers.RespondUnauthorized(w, msgUnauthorized)
			return
		}

		principal, err := a.verifier.Verify(token)
		if err != nil {
			a.logger.Warn("Auth: %s %s - token rejected: %v", r.Method, r.URL.Path, err)
			handlers.RespondUnauthorized(w, msgUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
	})
}

// RequireTeacher пропускает только преподавателя, ставится после Required
func RequireTeacher(next http.Handler) http.Handler {
	return requireRole(domain.RoleTeacher, next)
}

// RequireStudent пропускает только ученика, ставится после Required
func RequireStudent(next http.Handler) http.Handler {
	return requireRole(domain.RoleStudent, next)
}

func requireRole(role domain.Role, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := GetPrincipal(r.Context())
		if !ok {
			handlers.RespondUnauthorized(w, msgUnauthorized)
			return
		}
		if principal.Role != role {
			handlers.RespondForbidden(w, msgForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WithPrincipal кладет пользователя в контекст
func WithPrincipal(ctx context.Context, p domain.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// GetPrincipal достает пользователя из контекста
func GetPrincipal(ctx context.Context) (domain.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(domain.Principal)
	return p, ok
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func streamToken(r *http.Request) string {
	if r.Header.Get("Authorization") != "" {
		return bearerToken(r)
	}
	return r.URL.Query().Get(accessTokenParam)
}
