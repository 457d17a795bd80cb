package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ar1ocker/currencyledger/internal/ledgererr"
	"github.com/ar1ocker/currencyledger/internal/store"
)

// errorEnvelope is the uniform JSON error shape: message plus, for
// validation errors, an extra map that carries the per-field detail
// directly (or a single "detail" entry); the detail is not nested under a
// "fields" key.
type errorEnvelope struct {
	Message string            `json:"message"`
	Extra   map[string]string `json:"extra,omitempty"`
}

// writeError maps a ledgererr.Error (or any other error) to a status code
// and writes the envelope. A store.ErrNotFound from the database layer is
// reported as KindNotFound; any other non-ledgererr error is treated as
// internal and logged at error level without leaking its text to the caller.
func writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		err = ledgererr.NotFound("not found")
	}
	var lerr *ledgererr.Error
	if !errors.As(err, &lerr) {
		zap.L().Error("unhandled internal error", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorEnvelope{Message: "internal error"})
		return
	}

	status := http.StatusInternalServerError
	message := lerr.Message
	switch lerr.Kind {
	case ledgererr.KindValidation:
		status = http.StatusBadRequest
		message = "Validation error"
	case ledgererr.KindPermission:
		status = http.StatusForbidden
	case ledgererr.KindAuth:
		status = http.StatusUnauthorized
	case ledgererr.KindNotFound:
		status = http.StatusNotFound
	case ledgererr.KindConflict:
		status = http.StatusInternalServerError
		zap.L().Error("serialization conflict exhausted retries", zap.Error(lerr))
	}

	env := errorEnvelope{Message: message}
	if lerr.Kind == ledgererr.KindValidation {
		if lerr.Fields != nil {
			env.Extra = lerr.Fields
		} else {
			env.Extra = map[string]string{"detail": lerr.Message}
		}
	}
	writeJSON(w, status, env)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
