package provider_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srgjo27/booking_flow/internal/adapter/provider"
)

func TestFetchScript(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/javascript")
		_, _ = w.Write([]byte("window.Cal = function () {};"))
	}))
	defer srv.Close()

	body, err := provider.NewScriptFetcher(time.Second).FetchScript(context.Background(), srv.URL+"/embed/embed.js")
	require.NoError(t, err)
	assert.Equal(t, "window.Cal = function () {};", string(body))
}

func TestFetchScript_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := provider.NewScriptFetcher(time.Second).FetchScript(context.Background(), srv.URL+"/embed/embed.js")
	assert.ErrorContains(t, err, "404")
}
