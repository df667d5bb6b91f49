// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package arr

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// Radarr is a client for one Radarr v3 instance.
type Radarr struct {
	*client
}

func NewRadarr(baseURL, apiKey string) *Radarr {
	return &Radarr{client: newClient("radarr", baseURL, apiKey)}
}

func (r *Radarr) Movies(ctx context.Context) ([]Media, error) {
	var movies []Media
	err := r.get(ctx, "/movie", nil, &movies)
	return movies, err
}

func (r *Radarr) MovieByID(ctx context.Context, id int64) (Media, error) {
	var media Media
	err := r.get(ctx, fmt.Sprintf("/movie/%d", id), nil, &media)
	return media, err
}

// Lookup searches new and existing movies by term.
func (r *Radarr) Lookup(ctx context.Context, term string) ([]Media, error) {
	query := url.Values{}
	query.Set("term", term)

	var results []Media
	err := r.get(ctx, "/movie/lookup", query, &results)
	return results, err
}

// LookupByIMDB resolves a single movie through its IMDB id.
func (r *Radarr) LookupByIMDB(ctx context.Context, imdbID string) (Media, error) {
	results, err := r.Lookup(ctx, "imdb:"+imdbID)
	if err != nil {
		return Media{}, err
	}
	if len(results) == 0 {
		return Media{}, fmt.Errorf("no movie found for imdb id %s", imdbID)
	}
	return results[0], nil
}

// AddMovieRequest is the payload for adding a movie to the catalog.
type AddMovieRequest struct {
	Title               string `json:"title"`
	TMDBID              int64  `json:"tmdbId,omitempty"`
	IMDBID              string `json:"imdbId,omitempty"`
	QualityProfileID    int    `json:"qualityProfileId"`
	RootFolderPath      string `json:"rootFolderPath"`
	MinimumAvailability string `json:"minimumAvailability"`
	Monitored           bool   `json:"monitored"`
	Tags                []int  `json:"tags,omitempty"`
	AddOptions          struct {
		SearchForMovie bool `json:"searchForMovie"`
	} `json:"addOptions"`
}

func (r *Radarr) AddMovie(ctx context.Context, req AddMovieRequest) (Media, error) {
	var media Media
	err := r.post(ctx, "/movie", req, &media)
	return media, err
}

// UpdateMovie writes back a modified movie, used for tag changes.
func (r *Radarr) UpdateMovie(ctx context.Context, media Media) (Media, error) {
	var updated Media
	err := r.put(ctx, fmt.Sprintf("/movie/%d", media.ID), nil, media, &updated)
	return updated, err
}

func (r *Radarr) DeleteMovie(ctx context.Context, id int64, deleteFiles, addExclusion bool) error {
	query := url.Values{}
	query.Set("deleteFiles", strconv.FormatBool(deleteFiles))
	query.Set("addImportExclusion", strconv.FormatBool(addExclusion))
	return r.delete(ctx, fmt.Sprintf("/movie/%d", id), query)
}

// SearchMissing kicks off a search for all missing monitored movies.
func (r *Radarr) SearchMissing(ctx context.Context) error {
	return r.RunCommand(ctx, "MissingMoviesSearch")
}

func (r *Radarr) RSSSync(ctx context.Context) error {
	return r.RunCommand(ctx, "RssSync")
}
