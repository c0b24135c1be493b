package player

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyticsClientRecordListen(t *testing.T) {
	var gotPath string
	var gotBody map[string]int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewAnalyticsClient(srv.URL)
	err := client.RecordListen(42, 7)

	require.NoError(t, err)
	assert.Equal(t, "/analytics/listen", gotPath)
	assert.Equal(t, int64(42), gotBody["track_id"])
	assert.Equal(t, int64(7), gotBody["playlist_id"])
}

func TestAnalyticsClientOmitsZeroPlaylist(t *testing.T) {
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewAnalyticsClient(srv.URL)
	require.NoError(t, client.RecordListen(42, 0))

	_, present := gotBody["playlist_id"]
	assert.False(t, present)
}

func TestAnalyticsClientErrorOnBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewAnalyticsClient(srv.URL)
	assert.Error(t, client.RecordListen(42, 0))
}

func TestAnalyticsClientTickFuncSwallowsErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	tick := NewAnalyticsClient(srv.URL).TickFunc()

	// A failing heartbeat must never panic or propagate.
	assert.NotPanics(t, func() { tick(42, 0) })
}
