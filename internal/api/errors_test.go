package api

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ar1ocker/currencyledger/internal/ledgererr"
)

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) errorEnvelope {
	t.Helper()
	var env errorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestWriteError_ValidationMapsTo400WithFields(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, ledgererr.ValidationFields("bad amount", map[string]string{"amount": "must be positive"}))

	assert.Equal(t, 400, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, "Validation error", env.Message)
	assert.Equal(t, "must be positive", env.Extra["amount"])
}

func TestWriteError_PermissionMapsTo403(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, ledgererr.Permission("not allowed"))
	assert.Equal(t, 403, rec.Code)
}

func TestWriteError_AuthMapsTo401(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, ledgererr.Auth("bad signature"))
	assert.Equal(t, 401, rec.Code)
}

func TestWriteError_NotFoundMapsTo404(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, ledgererr.NotFound("no such account"))
	assert.Equal(t, 404, rec.Code)
}

func TestWriteError_ConflictMapsTo500(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, ledgererr.Conflict(errors.New("could not serialize access")))
	assert.Equal(t, 500, rec.Code)
}

func TestWriteError_UnknownErrorNeverLeaksText(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, errors.New("leaked db dsn or secret"))

	assert.Equal(t, 500, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, "internal error", env.Message)
}
