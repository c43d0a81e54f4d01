package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brainforge/braind/internal/apierr"
)

func TestHealthDecodesResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/health", r.URL.Path)
		json.NewEncoder(w).Encode(HealthStatus{Status: "healthy", BackendAvailable: true, DBAvailable: true})
	}))
	defer srv.Close()

	c := New(srv.URL)
	status, err := c.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "healthy", status.Status)
}

func TestClaimConflictReturnsNotOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]any{"message": "claimed by r1", "claimedBy": "r1", "isStale": false})
	}))
	defer srv.Close()

	c := New(srv.URL)
	res, err := c.Claim(context.Background(), "proj", "t1", "r2")
	require.NoError(t, err)
	assert.False(t, res.OK)
}

func TestClaimSuccessReturnsOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"claimedAt": "now"})
	}))
	defer srv.Close()

	c := New(srv.URL)
	res, err := c.Claim(context.Background(), "proj", "t1", "r1")
	require.NoError(t, err)
	assert.True(t, res.OK)
}

func TestNotFoundTranslatesToApierrKind(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]any{"message": "no such entry"})
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.GetEntry(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, apierr.KindNotFound, apierr.KindOf(err))
}

func TestConnectionFailureIsRetryable(t *testing.T) {
	c := New("http://127.0.0.1:1")
	_, err := c.Health(context.Background())
	require.Error(t, err)
	assert.True(t, Retryable(err))
}

func TestBadRequestIsNotRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{"message": "bad request"})
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.GetEntry(context.Background(), "x")
	require.Error(t, err)
	assert.False(t, Retryable(err))
}
