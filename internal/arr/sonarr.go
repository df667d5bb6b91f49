// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package arr

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// Sonarr is a client for one Sonarr v3 instance.
type Sonarr struct {
	*client
}

func NewSonarr(baseURL, apiKey string) *Sonarr {
	return &Sonarr{client: newClient("sonarr", baseURL, apiKey)}
}

func (s *Sonarr) Series(ctx context.Context) ([]Media, error) {
	var series []Media
	err := s.get(ctx, "/series", nil, &series)
	return series, err
}

func (s *Sonarr) SeriesByID(ctx context.Context, id int64) (Media, error) {
	var media Media
	err := s.get(ctx, fmt.Sprintf("/series/%d", id), nil, &media)
	return media, err
}

// Lookup searches new and existing series by term.
func (s *Sonarr) Lookup(ctx context.Context, term string) ([]Media, error) {
	query := url.Values{}
	query.Set("term", term)

	var results []Media
	err := s.get(ctx, "/series/lookup", query, &results)
	return results, err
}

// LookupByTVDB resolves a single series through its TVDB id.
func (s *Sonarr) LookupByTVDB(ctx context.Context, tvdbID int64) (Media, error) {
	results, err := s.Lookup(ctx, "tvdb:"+strconv.FormatInt(tvdbID, 10))
	if err != nil {
		return Media{}, err
	}
	if len(results) == 0 {
		return Media{}, fmt.Errorf("no series found for tvdb id %d", tvdbID)
	}
	return results[0], nil
}

func (s *Sonarr) LanguageProfiles(ctx context.Context) ([]LanguageProfile, error) {
	var profiles []LanguageProfile
	err := s.get(ctx, "/languageprofile", nil, &profiles)
	return profiles, err
}

// AddSeriesRequest is the payload for adding a series to the catalog.
type AddSeriesRequest struct {
	Title             string   `json:"title"`
	TVDBID            int64    `json:"tvdbId"`
	QualityProfileID  int      `json:"qualityProfileId"`
	LanguageProfileID int      `json:"languageProfileId"`
	RootFolderPath    string   `json:"rootFolderPath"`
	SeasonFolder      bool     `json:"seasonFolder"`
	Monitored         bool     `json:"monitored"`
	Seasons           []Season `json:"seasons,omitempty"`
	Tags              []int    `json:"tags,omitempty"`
	AddOptions        struct {
		Monitor                   string `json:"monitor"`
		SearchForMissingEpisodes  bool   `json:"searchForMissingEpisodes"`
		SearchForCutoffUnmetItems bool   `json:"searchForCutoffUnmetEpisodes"`
	} `json:"addOptions"`
}

func (s *Sonarr) AddSeries(ctx context.Context, req AddSeriesRequest) (Media, error) {
	var media Media
	err := s.post(ctx, "/series", req, &media)
	return media, err
}

// UpdateSeries writes back a modified series, used for tag changes.
func (s *Sonarr) UpdateSeries(ctx context.Context, media Media) (Media, error) {
	var updated Media
	err := s.put(ctx, fmt.Sprintf("/series/%d", media.ID), nil, media, &updated)
	return updated, err
}

func (s *Sonarr) DeleteSeries(ctx context.Context, id int64, deleteFiles, addExclusion bool) error {
	query := url.Values{}
	query.Set("deleteFiles", strconv.FormatBool(deleteFiles))
	query.Set("addImportListExclusion", strconv.FormatBool(addExclusion))
	return s.delete(ctx, fmt.Sprintf("/series/%d", id), query)
}

// SearchMissing kicks off a search for all missing monitored episodes.
func (s *Sonarr) SearchMissing(ctx context.Context) error {
	return s.RunCommand(ctx, "MissingEpisodeSearch")
}

func (s *Sonarr) RSSSync(ctx context.Context) error {
	return s.RunCommand(ctx, "RssSync")
}
