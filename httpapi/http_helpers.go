package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/MrEthical07/authcore"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON reads one JSON object from the request body. Unknown fields are
// rejected. An empty body yields io.EOF.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func writeBadRequest(w http.ResponseWriter) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
}

// writeError maps engine errors to a status and a fixed public message.
func writeError(w http.ResponseWriter, err error) {
	status, msg := errorStatus(err)
	writeJSON(w, status, errorResponse{Error: msg})
}

func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, authcore.ErrDuplicateIdentity):
		return http.StatusConflict, "identity already registered"
	case errors.Is(err, authcore.ErrWeakCredential):
		return http.StatusBadRequest, "weak credential"
	case errors.Is(err, authcore.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid credentials"
	case errors.Is(err, authcore.ErrInvalidToken):
		return http.StatusUnauthorized, "invalid token"
	case errors.Is(err, authcore.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, authcore.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, authcore.ErrEngineNotReady):
		return http.StatusServiceUnavailable, "service unavailable"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}
