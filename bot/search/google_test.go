package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	cfg := Config{APIKey: "key", CX: "cx"}
	if err := cfg.Normalize(); err != nil {
		panic(err)
	}
	return cfg
}

func TestSearchParsesResults(t *testing.T) {
	var gotUA, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotQuery = r.URL.Query().Get("q")
		require.Equal(t, "key", r.URL.Query().Get("key"))
		require.Equal(t, "cx", r.URL.Query().Get("cx"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[{"title":"Adele","link":"https://example.com/adele"},{"title":"Elvis","link":"https://example.com/elvis"}]}`))
	}))
	defer srv.Close()

	c := NewClient(testConfig(), WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))

	results, err := c.Search(context.Background(), "singers", ProfileMobile)
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, "Adele", results[0].Title)
	require.Equal(t, "https://example.com/elvis", results[1].Link)
	require.Equal(t, "singers", gotQuery)
	require.Equal(t, ProfileMobile.UserAgent(), gotUA)
}

func TestSearchNoItems(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(testConfig(), WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))

	results, err := c.Search(context.Background(), "nothing", ProfileDesktop)
	require.NoError(t, err)
	require.Empty(t, results)
}

func TestSearchHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "quota exceeded", http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewClient(testConfig(), WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))

	_, err := c.Search(context.Background(), "anything", ProfileMobile)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unexpected status")
}

func TestProfileUserAgents(t *testing.T) {
	require.Contains(t, ProfileMobile.UserAgent(), "iPhone")
	require.Contains(t, ProfileDesktop.UserAgent(), "Windows NT")
	require.Equal(t, ProfileDesktop.UserAgent(), Profile("unknown").UserAgent())
}
