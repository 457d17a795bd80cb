package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/ar1ocker/currencyledger/internal/database"
	"github.com/ar1ocker/currencyledger/internal/hmacauth"
	"github.com/ar1ocker/currencyledger/internal/models"
)

func openTestStore(t *testing.T) *database.Store {
	t.Helper()
	db, err := database.Open(context.Background(), models.DatabaseConfig{
		Path:         "file::memory:?cache=shared",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func registerService(t *testing.T, db *database.Store, name, key string, battlemetrics, enabled bool) models.CurrencyService {
	t.Helper()
	ctx := context.Background()
	svc := models.CurrencyService{Id: uuid.NewString(), Name: name, Enabled: enabled, Permissions: []byte(`{"root": true}`)}
	require.NoError(t, db.CreateService(ctx, svc))
	require.NoError(t, db.CreateServiceAuth(ctx, models.ServiceAuth{
		Id: uuid.NewString(), ServiceId: svc.Id, Key: key, IsBattlemetrics: battlemetrics,
	}))
	return svc
}

func testHMACConfig() models.HMACConfig {
	return models.HMACConfig{
		Enabled:             true,
		TimestampDeviation:  5 * time.Minute,
		ServiceHeader:       "X-Service-Name",
		SignatureHeader:     "X-Signature",
		TimestampHeader:     "X-Timestamp",
		BattlemetricsHeader: "X-Hub-Signature",
	}
}

func TestAuthMiddleware_ValidSignaturePassesThrough(t *testing.T) {
	db := openTestStore(t)
	svc := registerService(t, db, "svc-a", "secret-key", false, true)
	cfg := testHMACConfig()

	var seenService string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenService = serviceFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	ts := time.Now().UTC().Format(time.RFC3339)
	path := "/adjustments/create/"
	body := []byte(`{"amount":"10"}`)
	canonical := hmacauth.TimestampGenerator{}.BuildCanonicalString(ts, path, body)
	sig := hmacauth.Sign("secret-key", canonical)

	req := httptest.NewRequest("POST", path, bytes.NewReader(body))
	req.Header.Set(cfg.ServiceHeader, svc.Name)
	req.Header.Set(cfg.TimestampHeader, ts)
	req.Header.Set(cfg.SignatureHeader, sig)

	rec := httptest.NewRecorder()
	authMiddleware(db, cfg)(next).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "svc-a", seenService)
}

func TestAuthMiddleware_WrongSignatureRejected(t *testing.T) {
	db := openTestStore(t)
	svc := registerService(t, db, "svc-a", "secret-key", false, true)
	cfg := testHMACConfig()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	ts := time.Now().UTC().Format(time.RFC3339)
	req := httptest.NewRequest("POST", "/adjustments/create/", bytes.NewReader([]byte(`{}`)))
	req.Header.Set(cfg.ServiceHeader, svc.Name)
	req.Header.Set(cfg.TimestampHeader, ts)
	req.Header.Set(cfg.SignatureHeader, "deadbeef")

	rec := httptest.NewRecorder()
	authMiddleware(db, cfg)(next).ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddleware_UnknownServiceRejected(t *testing.T) {
	db := openTestStore(t)
	cfg := testHMACConfig()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	req := httptest.NewRequest("POST", "/adjustments/create/", bytes.NewReader([]byte(`{}`)))
	req.Header.Set(cfg.ServiceHeader, "ghost")

	rec := httptest.NewRecorder()
	authMiddleware(db, cfg)(next).ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddleware_DisabledServiceRejected(t *testing.T) {
	db := openTestStore(t)
	svc := registerService(t, db, "svc-a", "secret-key", false, false)
	cfg := testHMACConfig()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	req := httptest.NewRequest("POST", "/adjustments/create/", bytes.NewReader([]byte(`{}`)))
	req.Header.Set(cfg.ServiceHeader, svc.Name)

	rec := httptest.NewRecorder()
	authMiddleware(db, cfg)(next).ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddleware_BattlemetricsSchemeValidated(t *testing.T) {
	db := openTestStore(t)
	svc := registerService(t, db, "svc-bm", "bm-secret", true, true)
	cfg := testHMACConfig()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	ts := time.Now().UTC().Format(time.RFC3339)
	body := []byte(`{"amount":"5"}`)
	canonical := hmacauth.BattlemetricsGenerator{}.BuildCanonicalString(ts, "", body)
	sig := hmacauth.Sign("bm-secret", canonical)

	req := httptest.NewRequest("POST", "/webhooks/bm/", bytes.NewReader(body))
	req.Header.Set(cfg.ServiceHeader, svc.Name)
	req.Header.Set(cfg.BattlemetricsHeader, "t="+ts+",s="+sig)

	rec := httptest.NewRecorder()
	authMiddleware(db, cfg)(next).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}
