// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package arr talks to the Sonarr and Radarr v3 HTTP APIs.
package arr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/autobrr/pixlovarr/internal/buildinfo"
)

const (
	defaultTimeout = 30 * time.Second
	apiBase        = "/api/v3"
)

// ErrNotFound is returned when the backend answers 404 for a resource.
var ErrNotFound = errors.New("not found")

type client struct {
	name       string
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        zerolog.Logger
}

func newClient(name, baseURL, apiKey string) *client {
	return &client{
		name:       name,
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: defaultTimeout},
		log:        log.With().Str("module", name).Logger(),
	}
}

func (c *client) url(path string, query url.Values) string {
	u := c.baseURL + apiBase + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func (c *client) do(ctx context.Context, method, rawURL string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("User-Agent", buildinfo.UserAgent)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", c.name, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%s: %w", c.name, ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := string(data)
		if len(snippet) > 200 {
			snippet = snippet[:200]
		}
		return nil, fmt.Errorf("%s returned status %d: %s", c.name, resp.StatusCode, snippet)
	}

	return data, nil
}

// get runs an idempotent read with a few retries. Writes never retry.
func (c *client) get(ctx context.Context, path string, query url.Values, out any) error {
	rawURL := c.url(path, query)

	var data []byte
	err := retry.Do(
		func() error {
			var err error
			data, err = c.do(ctx, http.MethodGet, rawURL, nil)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(500*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return !errors.Is(err, ErrNotFound)
		}),
		retry.OnRetry(func(n uint, err error) {
			c.log.Debug().Err(err).Uint("attempt", n+1).Str("url", rawURL).Msg("retrying request")
		}),
	)
	if err != nil {
		return err
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", c.name, err)
	}
	return nil
}

func (c *client) post(ctx context.Context, path string, payload, out any) error {
	return c.write(ctx, http.MethodPost, path, nil, payload, out)
}

func (c *client) put(ctx context.Context, path string, query url.Values, payload, out any) error {
	return c.write(ctx, http.MethodPut, path, query, payload, out)
}

func (c *client) write(ctx context.Context, method, path string, query url.Values, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode payload: %w", err)
		}
		body = bytes.NewReader(data)
	}

	data, err := c.do(ctx, method, c.url(path, query), body)
	if err != nil {
		return err
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", c.name, err)
	}
	return nil
}

func (c *client) delete(ctx context.Context, path string, query url.Values) error {
	_, err := c.do(ctx, http.MethodDelete, c.url(path, query), nil)
	return err
}

// Ping checks connectivity and returns the backend version.
func (c *client) Ping(ctx context.Context) (SystemStatus, error) {
	var status SystemStatus
	err := c.get(ctx, "/system/status", nil, &status)
	return status, err
}

func (c *client) QualityProfiles(ctx context.Context) ([]QualityProfile, error) {
	var profiles []QualityProfile
	err := c.get(ctx, "/qualityprofile", nil, &profiles)
	return profiles, err
}

func (c *client) RootFolders(ctx context.Context) ([]RootFolder, error) {
	var folders []RootFolder
	err := c.get(ctx, "/rootfolder", nil, &folders)
	return folders, err
}

func (c *client) DiskSpace(ctx context.Context) ([]DiskSpace, error) {
	var disks []DiskSpace
	err := c.get(ctx, "/diskspace", nil, &disks)
	return disks, err
}

func (c *client) Tags(ctx context.Context) ([]Tag, error) {
	var tags []Tag
	err := c.get(ctx, "/tag", nil, &tags)
	return tags, err
}

func (c *client) CreateTag(ctx context.Context, label string) (Tag, error) {
	var tag Tag
	err := c.post(ctx, "/tag", map[string]string{"label": label}, &tag)
	return tag, err
}

func (c *client) Queue(ctx context.Context) ([]QueueItem, error) {
	query := url.Values{}
	query.Set("page", "1")
	query.Set("pageSize", "100")

	var page queuePage
	if err := c.get(ctx, "/queue", query, &page); err != nil {
		return nil, err
	}
	return page.Records, nil
}

// DeleteQueueItem removes a queue entry and blocklists the release so
// it is not grabbed again.
func (c *client) DeleteQueueItem(ctx context.Context, id int64) error {
	query := url.Values{}
	query.Set("removeFromClient", "true")
	query.Set("blocklist", "true")
	return c.delete(ctx, fmt.Sprintf("/queue/%d", id), query)
}

func (c *client) Calendar(ctx context.Context, start, end time.Time) ([]CalendarItem, error) {
	query := url.Values{}
	query.Set("start", start.Format(time.RFC3339))
	query.Set("end", end.Format(time.RFC3339))
	query.Set("includeSeries", "true")

	var items []CalendarItem
	err := c.get(ctx, "/calendar", query, &items)
	return items, err
}

// RunCommand triggers a backend command, e.g. RssSync.
func (c *client) RunCommand(ctx context.Context, name string) error {
	return c.post(ctx, "/command", map[string]string{"name": name}, nil)
}
