// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package arr

import "time"

// Media is the subset of a Sonarr series / Radarr movie the bot works
// with. Lookup results carry a zero ID until the item is in the catalog.
type Media struct {
	ID               int64      `json:"id"`
	Title            string     `json:"title"`
	SortTitle        string     `json:"sortTitle,omitempty"`
	Year             int        `json:"year"`
	TVDBID           int64      `json:"tvdbId,omitempty"`
	IMDBID           string     `json:"imdbId,omitempty"`
	TMDBID           int64      `json:"tmdbId,omitempty"`
	Overview         string     `json:"overview,omitempty"`
	Path             string     `json:"path,omitempty"`
	Status           string     `json:"status,omitempty"`
	Monitored        bool       `json:"monitored"`
	HasFile          bool       `json:"hasFile,omitempty"`
	Tags             []int      `json:"tags"`
	Genres           []string   `json:"genres,omitempty"`
	Runtime          int        `json:"runtime,omitempty"`
	Network          string     `json:"network,omitempty"`
	Studio           string     `json:"studio,omitempty"`
	Added            time.Time  `json:"added,omitempty"`
	Images           []Image    `json:"images,omitempty"`
	Seasons          []Season   `json:"seasons,omitempty"`
	Statistics       *Stats     `json:"statistics,omitempty"`
	YouTubeTrailerID string     `json:"youTubeTrailerId,omitempty"`
	InCinemas        *time.Time `json:"inCinemas,omitempty"`
	PhysicalRelease  *time.Time `json:"physicalRelease,omitempty"`
	FirstAired       *time.Time `json:"firstAired,omitempty"`
	SizeOnDisk       int64      `json:"sizeOnDisk,omitempty"`
}

// RemotePoster returns the first remote poster URL, if any.
func (m *Media) RemotePoster() string {
	for _, img := range m.Images {
		if img.CoverType == "poster" {
			if img.RemoteURL != "" {
				return img.RemoteURL
			}
			return img.URL
		}
	}
	return ""
}

type Image struct {
	CoverType string `json:"coverType"`
	URL       string `json:"url,omitempty"`
	RemoteURL string `json:"remoteUrl,omitempty"`
}

type Season struct {
	SeasonNumber int  `json:"seasonNumber"`
	Monitored    bool `json:"monitored"`
}

type Stats struct {
	EpisodeFileCount  int   `json:"episodeFileCount,omitempty"`
	EpisodeCount      int   `json:"episodeCount,omitempty"`
	TotalEpisodeCount int   `json:"totalEpisodeCount,omitempty"`
	SizeOnDisk        int64 `json:"sizeOnDisk,omitempty"`
	PercentOfEpisodes float64 `json:"percentOfEpisodes,omitempty"`
}

type QualityProfile struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type LanguageProfile struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type RootFolder struct {
	ID        int    `json:"id"`
	Path      string `json:"path"`
	FreeSpace int64  `json:"freeSpace"`
}

type Tag struct {
	ID    int    `json:"id"`
	Label string `json:"label"`
}

// QueueItem is one entry of the download queue. SeriesID/MovieID tell
// which catalog item it belongs to.
type QueueItem struct {
	ID                    int64   `json:"id"`
	SeriesID              int64   `json:"seriesId,omitempty"`
	MovieID               int64   `json:"movieId,omitempty"`
	Title                 string  `json:"title"`
	Status                string  `json:"status"`
	TimeLeft              string  `json:"timeleft,omitempty"`
	EstimatedCompletionTime *time.Time `json:"estimatedCompletionTime,omitempty"`
	Size                  float64 `json:"size,omitempty"`
	SizeLeft              float64 `json:"sizeleft,omitempty"`
	Protocol              string  `json:"protocol,omitempty"`
	TrackedDownloadStatus string  `json:"trackedDownloadStatus,omitempty"`
}

type queuePage struct {
	Records []QueueItem `json:"records"`
}

// CalendarItem covers both Sonarr episodes and Radarr movies on the
// calendar endpoints.
type CalendarItem struct {
	Title           string     `json:"title"`
	Year            int        `json:"year,omitempty"`
	SeasonNumber    int        `json:"seasonNumber,omitempty"`
	EpisodeNumber   int        `json:"episodeNumber,omitempty"`
	AirDateUTC      *time.Time `json:"airDateUtc,omitempty"`
	InCinemas       *time.Time `json:"inCinemas,omitempty"`
	PhysicalRelease *time.Time `json:"physicalRelease,omitempty"`
	HasFile         bool       `json:"hasFile"`
	Monitored       bool       `json:"monitored"`
	Series          *struct {
		Title string `json:"title"`
	} `json:"series,omitempty"`
}

type SystemStatus struct {
	AppName string `json:"appName,omitempty"`
	Version string `json:"version"`
}

// DiskSpace is one mount reported by the backend.
type DiskSpace struct {
	Path       string `json:"path"`
	FreeSpace  int64  `json:"freeSpace"`
	TotalSpace int64  `json:"totalSpace"`
}
