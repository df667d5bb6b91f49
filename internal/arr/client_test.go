// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package arr

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientSendsAPIKey(t *testing.T) {
	t.Parallel()

	var gotKey, gotAgent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-Api-Key")
		gotAgent = r.Header.Get("User-Agent")
		w.Write([]byte(`{"version":"4.0.0"}`))
	}))
	defer srv.Close()

	c := NewSonarr(srv.URL, "secret")
	status, err := c.Ping(t.Context())
	require.NoError(t, err)

	assert.Equal(t, "secret", gotKey)
	assert.Contains(t, gotAgent, "pixlovarr/")
	assert.Equal(t, "4.0.0", status.Version)
}

func TestClientRetriesGet(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`[{"id":1,"name":"HD-1080p"}]`))
	}))
	defer srv.Close()

	c := NewRadarr(srv.URL, "key")
	profiles, err := c.QualityProfiles(t.Context())
	require.NoError(t, err)

	assert.EqualValues(t, 3, calls.Load())
	require.Len(t, profiles, 1)
	assert.Equal(t, "HD-1080p", profiles[0].Name)
}

func TestClientStatusError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewSonarr(srv.URL, "wrong")
	_, err := c.Series(t.Context())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestQueueDecodesPagedRecords(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/queue", r.URL.Path)
		w.Write([]byte(`{"page":1,"records":[{"id":9,"title":"Some.Release","status":"downloading","timeleft":"00:12:00"}]}`))
	}))
	defer srv.Close()

	c := NewRadarr(srv.URL, "key")
	items, err := c.Queue(t.Context())
	require.NoError(t, err)

	require.Len(t, items, 1)
	assert.EqualValues(t, 9, items[0].ID)
	assert.Equal(t, "downloading", items[0].Status)
}

func TestDeleteMovieQuery(t *testing.T) {
	t.Parallel()

	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/v3/movie/7", r.URL.Path)
		gotQuery = r.URL.RawQuery
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewRadarr(srv.URL, "key")
	require.NoError(t, c.DeleteMovie(t.Context(), 7, true, true))

	assert.Contains(t, gotQuery, "deleteFiles=true")
	assert.Contains(t, gotQuery, "addImportExclusion=true")
}

func TestLookupByIMDBEmpty(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "imdb:tt0000404", r.URL.Query().Get("term"))
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewRadarr(srv.URL, "key")
	_, err := c.LookupByIMDB(t.Context(), "tt0000404")
	assert.Error(t, err)
}

func TestAddSeriesPayload(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v3/series", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Write([]byte(`{"id":42,"title":"Dark"}`))
	}))
	defer srv.Close()

	c := NewSonarr(srv.URL, "key")

	req := AddSeriesRequest{Title: "Dark", TVDBID: 1234, QualityProfileID: 1, RootFolderPath: "/tv"}
	req.AddOptions.Monitor = "all"
	req.AddOptions.SearchForMissingEpisodes = true

	media, err := c.AddSeries(t.Context(), req)
	require.NoError(t, err)
	assert.EqualValues(t, 42, media.ID)
}
