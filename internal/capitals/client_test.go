package capitals

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup_Found(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/name/New Zealand", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("fullText"))
		assert.Equal(t, "capital", r.URL.Query().Get("fields"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"capital":["Wellington"]}]`))
	}))
	defer srv.Close()

	capital, err := NewClient(srv.URL, time.Second).Lookup(context.Background(), "New Zealand")
	require.NoError(t, err)
	assert.Equal(t, "Wellington", capital)
}

func TestLookup_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"status":404,"message":"Not Found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second).Lookup(context.Background(), "Atlantis")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLookup_EmptyCapitalIsNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"capital":[]}]`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second).Lookup(context.Background(), "Antarctica")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLookup_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second).Lookup(context.Background(), "France")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestLookup_ContextDeadline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := NewClient(srv.URL, 5*time.Second).Lookup(ctx, "France")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
}
