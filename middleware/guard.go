package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/MrEthical07/authcore"
)

type sessionContextKey struct{}

// ErrorHandler writes the response for a request the guard refused. err is
// authcore.ErrInvalidToken for a missing or bad token and authcore.ErrInternal
// (or ErrEngineNotReady) when the engine could not answer.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// SessionFromContext returns the session the guard validated for this request.
func SessionFromContext(ctx context.Context) (*authcore.Session, bool) {
	s, ok := ctx.Value(sessionContextKey{}).(*authcore.Session)
	return s, ok
}

// Guard admits requests carrying an active bearer token and stores the
// session in the request context. Refusals are plain-text 401 or 500.
func Guard(engine *authcore.Engine) func(http.Handler) http.Handler {
	return GuardWithErrorHandler(engine, defaultErrorHandler)
}

// GuardWithErrorHandler is Guard with a custom refusal writer.
func GuardWithErrorHandler(engine *authcore.Engine, onError ErrorHandler) func(http.Handler) http.Handler {
	if onError == nil {
		onError = defaultErrorHandler
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				onError(w, r, authcore.ErrEngineNotReady)
				return
			}

			token, ok := BearerToken(r)
			if !ok {
				onError(w, r, authcore.ErrInvalidToken)
				return
			}

			sess, err := engine.Validate(r.Context(), token)
			if err != nil {
				onError(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), sessionContextKey{}, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken extracts the token from an "Authorization: Bearer" header.
func BearerToken(r *http.Request) (string, bool) {
	return bearerToken(r.Header.Get("Authorization"))
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if len(value) < len(bearer) || !strings.EqualFold(value[:len(bearer)], bearer) {
		return "", false
	}

	token := strings.TrimSpace(value[len(bearer):])
	if token == "" {
		return "", false
	}

	return token, true
}

func defaultErrorHandler(w http.ResponseWriter, _ *http.Request, err error) {
	if errors.Is(err, authcore.ErrInvalidToken) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	http.Error(w, "internal error", http.StatusInternalServerError)
}
