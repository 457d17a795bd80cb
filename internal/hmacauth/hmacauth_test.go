package hmacauth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ar1ocker/currencyledger/internal/ledgererr"
)

func asAuthErr(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	var ledgerErr *ledgererr.Error
	require.ErrorAs(t, err, &ledgerErr)
	assert.Equal(t, ledgererr.KindAuth, ledgerErr.Kind)
}

func TestSignVerify_RoundTrip(t *testing.T) {
	sig := Sign("secret", "hello world")
	assert.True(t, Verify("secret", "hello world", sig))
	assert.False(t, Verify("wrong-secret", "hello world", sig))
	assert.False(t, Verify("secret", "hello world!", sig))
}

func TestTimestampValidator_ValidSignature(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	ts := now.Format(time.RFC3339)
	v := NewTimestampValidator("X-Timestamp", "X-Signature", 5*time.Minute)

	body := []byte(`{"amount":"10"}`)
	path := "/adjustments/create/"
	canonical := TimestampGenerator{}.BuildCanonicalString(ts, path, body)
	sig := Sign("key", canonical)

	headers := map[string]string{"X-Timestamp": ts, "X-Signature": sig}
	err := v.Validate("key", headers, path, body, now)
	assert.NoError(t, err)
}

func TestTimestampValidator_WrongSignature(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	ts := now.Format(time.RFC3339)
	v := NewTimestampValidator("X-Timestamp", "X-Signature", 5*time.Minute)

	headers := map[string]string{"X-Timestamp": ts, "X-Signature": "deadbeef"}
	err := v.Validate("key", headers, "/adjustments/create/", []byte(`{}`), now)
	asAuthErr(t, err)
}

func TestTimestampValidator_ExpiredTimestamp(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	stale := now.Add(-10 * time.Minute)
	ts := stale.Format(time.RFC3339)
	v := NewTimestampValidator("X-Timestamp", "X-Signature", 5*time.Minute)

	body := []byte(`{}`)
	path := "/adjustments/create/"
	canonical := TimestampGenerator{}.BuildCanonicalString(ts, path, body)
	sig := Sign("key", canonical)

	headers := map[string]string{"X-Timestamp": ts, "X-Signature": sig}
	err := v.Validate("key", headers, path, body, now)
	asAuthErr(t, err)
}

func TestTimestampValidator_MissingHeader(t *testing.T) {
	v := NewTimestampValidator("X-Timestamp", "X-Signature", 5*time.Minute)
	err := v.Validate("key", map[string]string{}, "/x/", []byte(``), time.Now())
	asAuthErr(t, err)
}

func TestTimestampValidator_MalformedTimestamp(t *testing.T) {
	v := NewTimestampValidator("X-Timestamp", "X-Signature", 5*time.Minute)
	headers := map[string]string{"X-Timestamp": "not-a-timestamp", "X-Signature": "abc"}
	err := v.Validate("key", headers, "/x/", []byte(``), time.Now())
	asAuthErr(t, err)
}

func TestBattlemetricsValidator_ValidSignature(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	ts := now.Format(time.RFC3339)
	v := NewBattlemetricsValidator("X-Hub-Signature", 5*time.Minute)

	body := []byte(`{"amount":"10"}`)
	canonical := BattlemetricsGenerator{}.BuildCanonicalString(ts, "", body)
	sig := Sign("key", canonical)

	header := "t=" + ts + ",s=" + sig
	err := v.Validate("key", map[string]string{"X-Hub-Signature": header}, "/ignored/", body, now)
	assert.NoError(t, err)
}

func TestBattlemetricsValidator_MalformedHeader(t *testing.T) {
	v := NewBattlemetricsValidator("X-Hub-Signature", 5*time.Minute)
	err := v.Validate("key", map[string]string{"X-Hub-Signature": "garbage"}, "/ignored/", []byte(``), time.Now())
	asAuthErr(t, err)
}

func TestRegexHeaderGetter_ExtractsNamedGroups(t *testing.T) {
	g := RegexHeaderGetter{Header: "X-Hub-Signature", Pattern: battlemetricsHeaderPattern}
	ts, sig, ok := g.Extract(map[string]string{"X-Hub-Signature": "t=2026-01-01T00:00:00Z,s=abc123"})
	require.True(t, ok)
	assert.Equal(t, "2026-01-01T00:00:00Z", ts)
	assert.Equal(t, "abc123", sig)
}
