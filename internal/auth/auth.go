// Package auth проверяет bearer-токены (JWT, HS256) входящих запросов.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/BuzzLyutic/kanban-board/pkg/respond"
)

var (
	ErrMissingAuthorization = errors.New("missing authorization header")
	ErrBadAuthorization     = errors.New("malformed authorization header")
	ErrInvalidToken         = errors.New("invalid token")
)

type ctxKey struct{}

// Authenticator валидирует токены общим секретом. С пустым секретом проверка
// выключена: так сервер запускается для локальной разработки.
type Authenticator struct {
	secret []byte
	parser *jwt.Parser
}

func New(secret string) *Authenticator {
	return &Authenticator{
		secret: []byte(secret),
		parser: jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})),
	}
}

func (a *Authenticator) Enabled() bool {
	return len(a.secret) > 0
}

// UserIDFromHeader возвращает subject токена из заголовка Authorization.
func (a *Authenticator) UserIDFromHeader(h string) (string, error) {
	if h == "" {
		return "", ErrMissingAuthorization
	}
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", ErrBadAuthorization
	}

	claims := jwt.MapClaims{}
	_, err := a.parser.ParseWithClaims(strings.TrimSpace(token), claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	})
	if err != nil {
		return "", errors.Join(ErrInvalidToken, err)
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", errors.Join(ErrInvalidToken, errors.New("missing sub"))
	}
	return sub, nil
}

// Middleware кладёт id пользователя в контекст запроса или отвечает 401.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.Enabled() {
			next.ServeHTTP(w, r)
			return
		}
		userID, err := a.UserIDFromHeader(r.Header.Get("Authorization"))
		if err != nil {
			respond.Error(w, r, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
	})
}

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, userID)
}

// UserID возвращает пользователя запроса или пустую строку.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// IssueToken подписывает токен для пользователя. Нужен для локальной разработки и тестов.
func IssueToken(secret, subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
