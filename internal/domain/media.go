// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package domain

import (
	"fmt"
	"strings"
)

// MediaType discriminates between the two backends. The wire values
// appear inside callback tokens, so they must stay stable.
type MediaType string

const (
	MediaTypeSeries MediaType = "serie"
	MediaTypeMovie  MediaType = "movie"
)

func ParseMediaType(s string) (MediaType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "serie", "series", "show", "tv":
		return MediaTypeSeries, nil
	case "movie", "film":
		return MediaTypeMovie, nil
	default:
		return "", fmt.Errorf("unknown media type: %q", s)
	}
}

// Availabilities are the Radarr minimum-availability choices, in the
// order they are offered during the download wizard.
var Availabilities = []string{"announced", "inCinemas", "released", "preDB"}

// AvailabilityByIndex maps a wizard selection back to the Radarr value.
func AvailabilityByIndex(i int) (string, error) {
	if i < 0 || i >= len(Availabilities) {
		return "", fmt.Errorf("availability index out of range: %d", i)
	}
	return Availabilities[i], nil
}

// DownloadScope selects which episodes get monitored when a series is
// added. Movies only ever use ScopeAll.
type DownloadScope string

const (
	ScopeAll          DownloadScope = "all"
	ScopeFuture       DownloadScope = "future"
	ScopeMissing      DownloadScope = "missing"
	ScopeExisting     DownloadScope = "existing"
	ScopePilot        DownloadScope = "pilot"
	ScopeFirstSeason  DownloadScope = "firstSeason"
	ScopeLatestSeason DownloadScope = "latestSeason"
	ScopeNone         DownloadScope = "none"
)

// SeriesScopes lists the scopes offered for series, in menu order.
var SeriesScopes = []DownloadScope{
	ScopeAll, ScopeFuture, ScopeMissing, ScopeExisting,
	ScopePilot, ScopeFirstSeason, ScopeLatestSeason, ScopeNone,
}

func ParseDownloadScope(s string) (DownloadScope, error) {
	for _, sc := range SeriesScopes {
		if strings.EqualFold(s, string(sc)) {
			return sc, nil
		}
	}
	return "", fmt.Errorf("unknown download scope: %q", s)
}
