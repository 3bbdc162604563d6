package httpapi

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/MrEthical07/authcore"
	"github.com/MrEthical07/authcore/middleware"
	"github.com/go-chi/chi/v5"
)

type handlers struct {
	engine *authcore.Engine
}

// credentialsRequest accepts "username" and "email" as older names for
// "identity". The first non-empty one wins.
type credentialsRequest struct {
	Identity string `json:"identity"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c credentialsRequest) identity() string {
	switch {
	case c.Identity != "":
		return c.Identity
	case c.Username != "":
		return c.Username
	default:
		return c.Email
	}
}

type tokenRequest struct {
	Token string `json:"token"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type logoutAllResponse struct {
	Revoked int `json:"revoked"`
}

type readyResponse struct {
	Status           string  `json:"status"`
	SessionBackendMs float64 `json:"sessionBackendMs"`
}

func (h *handlers) register(w http.ResponseWriter, r *http.Request) {
	var body credentialsRequest
	if err := decodeJSON(w, r, &body); err != nil {
		writeBadRequest(w)
		return
	}

	user, err := h.engine.Register(r.Context(), body.identity(), body.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

func (h *handlers) login(w http.ResponseWriter, r *http.Request) {
	var body credentialsRequest
	if err := decodeJSON(w, r, &body); err != nil {
		writeBadRequest(w)
		return
	}

	sess, err := h.engine.Login(r.Context(), body.identity(), body.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{Token: sess.Token, ExpiresAt: sess.ExpiresAt})
}

// logout takes the token from the JSON body or, failing that, the
// Authorization header.
func (h *handlers) logout(w http.ResponseWriter, r *http.Request) {
	var body tokenRequest
	if err := decodeJSON(w, r, &body); err != nil && !errors.Is(err, io.EOF) {
		writeBadRequest(w)
		return
	}

	token := body.Token
	if token == "" {
		token, _ = middleware.BearerToken(r)
	}
	if token == "" {
		writeError(w, authcore.ErrInvalidToken)
		return
	}

	if err := h.engine.Logout(r.Context(), token); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) logoutAll(w http.ResponseWriter, r *http.Request) {
	token, ok := middleware.BearerToken(r)
	if !ok {
		writeError(w, authcore.ErrInvalidToken)
		return
	}

	n, err := h.engine.LogoutAll(r.Context(), token)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, logoutAllResponse{Revoked: n})
}

func (h *handlers) listSessions(w http.ResponseWriter, r *http.Request) {
	token, ok := middleware.BearerToken(r)
	if !ok {
		writeError(w, authcore.ErrInvalidToken)
		return
	}

	sessions, err := h.engine.ListSessions(r.Context(), token)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sessions)
}

// validateToken answers 200 with the session, 401 with the fixed invalid
// message, or 500 whenever the token could not be checked at all.
func (h *handlers) validateToken(w http.ResponseWriter, r *http.Request) {
	res := h.engine.ValidateToken(r.Context(), r.URL.Query().Get("token"))
	switch {
	case res.Err != nil:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	case !res.Valid:
		writeJSON(w, http.StatusUnauthorized, res)
	default:
		sess := *res.Session
		sess.Token = ""
		res.Session = &sess
		writeJSON(w, http.StatusOK, res)
	}
}

func (h *handlers) getUser(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		writeError(w, authcore.ErrInvalidToken)
		return
	}

	user, err := h.engine.GetUserByIDForSession(r.Context(), caller, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func (h *handlers) ready(w http.ResponseWriter, r *http.Request) {
	status := h.engine.Health(r.Context())
	if !status.SessionBackendAvailable {
		writeJSON(w, http.StatusServiceUnavailable, readyResponse{Status: "unavailable"})
		return
	}

	writeJSON(w, http.StatusOK, readyResponse{
		Status:           "ready",
		SessionBackendMs: float64(status.SessionBackendLatency) / float64(time.Millisecond),
	})
}

func guardError(w http.ResponseWriter, _ *http.Request, err error) {
	writeError(w, err)
}
