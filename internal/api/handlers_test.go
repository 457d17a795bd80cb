package api

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadJSON_DecodesValidBody(t *testing.T) {
	var v struct {
		Amount string `json:"amount"`
	}
	req := httptest.NewRequest("POST", "/x", strings.NewReader(`{"amount":"10"}`))
	require.NoError(t, readJSON(req, &v))
	assert.Equal(t, "10", v.Amount)
}

func TestReadJSON_RejectsUnknownFields(t *testing.T) {
	var v struct {
		Amount string `json:"amount"`
	}
	req := httptest.NewRequest("POST", "/x", strings.NewReader(`{"amount":"10","typo_field":"oops"}`))
	err := readJSON(req, &v)
	require.Error(t, err)
}

func TestReadJSON_RejectsMalformedBody(t *testing.T) {
	var v struct {
		Amount string `json:"amount"`
	}
	req := httptest.NewRequest("POST", "/x", strings.NewReader(`not json`))
	err := readJSON(req, &v)
	require.Error(t, err)
}

func TestResolveAutoRejectAfter_FallsBackToDefault(t *testing.T) {
	before := time.Now().UTC()
	got := resolveAutoRejectAfter(nil, time.Hour)
	after := time.Now().UTC()

	assert.True(t, !got.Before(before.Add(time.Hour)) && !got.After(after.Add(time.Hour)))
}

func TestResolveAutoRejectAfter_UsesOverrideWhenGiven(t *testing.T) {
	override := 5 * time.Minute
	before := time.Now().UTC()
	got := resolveAutoRejectAfter(&override, time.Hour)
	after := time.Now().UTC()

	assert.True(t, !got.Before(before.Add(5*time.Minute)) && !got.After(after.Add(5*time.Minute)))
}
