// Package hmacauth implements the HMAC Auth layer (spec.md §4.8), grounded
// on original_source/gaming_billing_service/currencies_api/auth/{base.py,
// generators.py,getters.py,validators.py,decorators.py}: two signature
// schemes selected per ServiceAuth.IsBattlemetrics, constant-time
// comparison, and an RFC3339-with-timezone timestamp checked against a
// configurable deviation window. Naming (Sign/Verify/BuildCanonicalString)
// follows the Signer/Verifier shape seen across the security-focused
// example repos (other_examples' secure-payment-gateway ports file).
package hmacauth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"time"

	"github.com/ar1ocker/currencyledger/internal/ledgererr"
)

// Generator builds the canonical string a signature is computed over.
type Generator interface {
	BuildCanonicalString(timestamp, path string, body []byte) string
}

// TimestampGenerator implements the "{timestamp}.{fullPath}.{rawBody}"
// canonical form used by the default timestamp scheme.
type TimestampGenerator struct{}

func (TimestampGenerator) BuildCanonicalString(timestamp, path string, body []byte) string {
	return timestamp + "." + path + "." + string(body)
}

// BattlemetricsGenerator implements the "{timestamp}.{rawBody}" canonical
// form Battlemetrics' webhook signer uses (no path component).
type BattlemetricsGenerator struct{}

func (BattlemetricsGenerator) BuildCanonicalString(timestamp, _ string, body []byte) string {
	return timestamp + "." + string(body)
}

// Sign computes the hex-encoded HMAC-SHA256 of canonical under key.
func Sign(key, canonical string) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(canonical))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether signature is the correct HMAC-SHA256 of canonical
// under key, using a constant-time comparison so the check leaks no timing
// information about where a partial match diverges.
func Verify(key, canonical, signature string) bool {
	expected := Sign(key, canonical)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// HeaderGetter extracts the raw timestamp and signature strings that a
// request carries, independent of whether they live in one header or two.
type HeaderGetter interface {
	Extract(headers map[string]string) (timestamp, signature string, ok bool)
}

// SimpleHeaderGetter reads the timestamp and signature from two distinct
// headers, used by the default timestamp scheme.
type SimpleHeaderGetter struct {
	TimestampHeader string
	SignatureHeader string
}

func (g SimpleHeaderGetter) Extract(headers map[string]string) (string, string, bool) {
	ts, ok := headers[g.TimestampHeader]
	if !ok {
		return "", "", false
	}
	sig, ok := headers[g.SignatureHeader]
	if !ok {
		return "", "", false
	}
	return ts, sig, true
}

// battlemetricsHeaderPattern matches Battlemetrics' single combined header
// value, e.g. "t=2026-01-01T00:00:00Z,s=abcdef..."; the t value is parsed
// as RFC3339 by Validate.
var battlemetricsHeaderPattern = regexp.MustCompile(`t=(?P<ts>[^,]+),s=(?P<sig>[0-9a-fA-F]+)`)

// RegexHeaderGetter extracts both the timestamp and signature from one
// header value via a named-group regex, used by the Battlemetrics scheme.
type RegexHeaderGetter struct {
	Header  string
	Pattern *regexp.Regexp
}

func (g RegexHeaderGetter) Extract(headers map[string]string) (string, string, bool) {
	value, ok := headers[g.Header]
	if !ok {
		return "", "", false
	}
	match := g.Pattern.FindStringSubmatch(value)
	if match == nil {
		return "", "", false
	}
	names := g.Pattern.SubexpNames()
	var ts, sig string
	for i, name := range names {
		switch name {
		case "ts":
			ts = match[i]
		case "sig":
			sig = match[i]
		}
	}
	if ts == "" || sig == "" {
		return "", "", false
	}
	return ts, sig, true
}

// Validator checks a full HMAC request: resolves the timestamp/signature
// via its HeaderGetter, validates the timestamp's format and deviation
// window, rebuilds the canonical string via its Generator, and verifies
// the signature.
type Validator struct {
	Getter    HeaderGetter
	Generator Generator
	Deviation time.Duration
}

// NewTimestampValidator builds the default timestamp-header scheme's
// Validator.
func NewTimestampValidator(timestampHeader, signatureHeader string, deviation time.Duration) Validator {
	return Validator{
		Getter:    SimpleHeaderGetter{TimestampHeader: timestampHeader, SignatureHeader: signatureHeader},
		Generator: TimestampGenerator{},
		Deviation: deviation,
	}
}

// NewBattlemetricsValidator builds the Battlemetrics single-header scheme's
// Validator.
func NewBattlemetricsValidator(header string, deviation time.Duration) Validator {
	return Validator{
		Getter:    RegexHeaderGetter{Header: header, Pattern: battlemetricsHeaderPattern},
		Generator: BattlemetricsGenerator{},
		Deviation: deviation,
	}
}

// Validate runs the full check against a request's headers, path and raw
// body, returning a ledgererr.KindAuth error on any failure.
func (v Validator) Validate(key string, headers map[string]string, path string, body []byte, now time.Time) error {
	timestampStr, signature, ok := v.Getter.Extract(headers)
	if !ok {
		return ledgererr.Auth("missing timestamp or signature header")
	}

	timestamp, err := time.Parse(time.RFC3339, timestampStr)
	if err != nil {
		return ledgererr.Auth("timestamp is not a valid RFC3339 value with timezone")
	}

	delta := now.Sub(timestamp)
	if delta < 0 {
		delta = -delta
	}
	if delta > v.Deviation {
		return ledgererr.Auth("timestamp deviates from server time by more than the allowed window")
	}

	canonical := v.Generator.BuildCanonicalString(timestampStr, path, body)
	if !Verify(key, canonical, signature) {
		return ledgererr.Auth("signature does not match")
	}
	return nil
}
