package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/ar1ocker/currencyledger/internal/models"
)

func newTestServer(t *testing.T, permissions string) (*Server, models.CurrencyService) {
	t.Helper()
	db := openTestStore(t)
	svc := models.CurrencyService{Id: uuid.NewString(), Name: "svc-a", Enabled: true, Permissions: []byte(permissions)}
	require.NoError(t, db.CreateService(context.Background(), svc))

	cfg := &models.Config{HMAC: models.HMACConfig{Enabled: false, ServiceHeader: "X-Service-Name"}}
	return NewServer(db, cfg), svc
}

func doRequest(t *testing.T, s *Server, method, path string, svc models.CurrencyService, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("X-Service-Name", svc.Name)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func TestRouter_CreateAdjustment_EndToEnd(t *testing.T) {
	s, svc := newTestServer(t, `{"root": true}`)
	db := s.db

	require.NoError(t, db.CreateCurrencyUnit(context.Background(), models.CurrencyUnit{Symbol: "GOLD", Measurement: "coins", Precision: 2}))
	ht, err := db.EnsureHolderType(context.Background(), uuid.NewString(), "player")
	require.NoError(t, err)
	holder := models.Holder{Id: uuid.NewString(), HolderId: "player-1", Enabled: true}
	require.NoError(t, db.CreateHolder(context.Background(), holder, ht.Id))
	acc := models.CheckingAccount{Id: uuid.NewString(), HolderId: holder.Id, Unit: "GOLD"}
	require.NoError(t, db.CreateCheckingAccount(context.Background(), acc))

	rec := doRequest(t, s, "POST", "/adjustments/create/", svc, map[string]any{
		"checking_account_id": acc.Id,
		"amount":              "10",
	})
	require.Equal(t, 201, rec.Code)

	var resp transactionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "PENDING", resp.Status)
}

func TestRouter_CreateAdjustment_RespectsCreateDisabled(t *testing.T) {
	s, svc := newTestServer(t, `{"adjustments": {"enabled": true, "create": {"enabled": false}}}`)
	db := s.db

	require.NoError(t, db.CreateCurrencyUnit(context.Background(), models.CurrencyUnit{Symbol: "GOLD", Measurement: "coins", Precision: 2}))
	ht, err := db.EnsureHolderType(context.Background(), uuid.NewString(), "player")
	require.NoError(t, err)
	holder := models.Holder{Id: uuid.NewString(), HolderId: "player-1", Enabled: true}
	require.NoError(t, db.CreateHolder(context.Background(), holder, ht.Id))
	acc := models.CheckingAccount{Id: uuid.NewString(), HolderId: holder.Id, Unit: "GOLD"}
	require.NoError(t, db.CreateCheckingAccount(context.Background(), acc))

	rec := doRequest(t, s, "POST", "/adjustments/create/", svc, map[string]any{
		"checking_account_id": acc.Id,
		"amount":              "10",
	})
	require.Equal(t, 403, rec.Code, "create.enabled=false must block creation even if an amount range were configured")
}

func TestRouter_ListHolders_RequiresAccess(t *testing.T) {
	s, svc := newTestServer(t, `{}`)
	rec := doRequest(t, s, "GET", "/holders/", svc, nil)
	require.Equal(t, 403, rec.Code)
}
