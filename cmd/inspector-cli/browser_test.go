package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeListenForBrowser(t *testing.T) {
	cases := map[string]string{
		"127.0.0.1:8787": "127.0.0.1:8787",
		"0.0.0.0:8787":   "127.0.0.1:8787",
		":9000":          "127.0.0.1:9000",
		"[::]:8787":      "127.0.0.1:8787",
		"example:80":     "example:80",
		"no-port":        "no-port",
	}
	for in, want := range cases {
		assert.Equal(t, want, normalizeListenForBrowser(in), in)
	}
}

func TestWaitForHTTP(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	require.NoError(t, waitForHTTP(context.Background(), srv.URL, 2*time.Second, 5*time.Millisecond))
	assert.Equal(t, int32(3), calls.Load())
}

func TestWaitForHTTP_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := waitForHTTP(context.Background(), srv.URL, 50*time.Millisecond, 10*time.Millisecond)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeout")
}
