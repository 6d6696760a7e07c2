package identity

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"

	"github.com/m04kA/SMC-TutorBooking/internal/domain"
)

var (
	// ErrInvalidToken токен не прошел проверку подписи или срока действия
	ErrInvalidToken = errors.New("identity: invalid token")

	// ErrInvalidClaims в токене нет sub/role нужного формата
	ErrInvalidClaims = errors.New("identity: invalid claims")
)

// Verifier проверяет HS256-токены провайдера идентификации
// Токены выпускает внешний провайдер, сервис их только проверяет
type Verifier struct {
	secret []byte
	issuer string
}

// NewVerifier создает верификатор. issuer пустой - claim iss не проверяется
func NewVerifier(secret, issuer string) *Verifier {
	return &Verifier{secret: []byte(secret), issuer: issuer}
}

// Verify разбирает токен и возвращает пользователя
func (v *Verifier) Verify(tokenString string) (domain.Principal, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return domain.Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return domain.Principal{}, ErrInvalidToken
	}

	if v.issuer != "" && !claims.VerifyIssuer(v.issuer, true) {
		return domain.Principal{}, fmt.Errorf("%w: unexpected issuer", ErrInvalidToken)
	}

	sub, _ := claims["sub"].(string)
	id, err := uuid.Parse(sub)
	if err != nil {
		return domain.Principal{}, fmt.Errorf("%w: sub is not a uuid", ErrInvalidClaims)
	}

	role := domain.Role(fmt.Sprint(claims["role"]))
	if role != domain.RoleStudent && role != domain.RoleTeacher {
		return domain.Principal{}, fmt.Errorf("%w: unknown role %q", ErrInvalidClaims, role)
	}

	return domain.Principal{ID: id, Role: role}, nil
}

// Sign выпускает токен тем же секретом (локальная разработка и тесты)
func (v *Verifier) Sign(p domain.Principal, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  p.ID.String(),
		"role": string(p.Role),
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
	}
	if v.issuer != "" {
		claims["iss"] = v.issuer
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(v.secret)
}
