// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package ranking

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const imdbBaseURL = "https://www.imdb.com"

// IMDB scrapes the chart pages. The charts embed a schema.org ld+json
// block listing every entry, which spares us an HTML parser.
type IMDB struct {
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
}

func NewIMDB() *IMDB {
	return &IMDB{
		baseURL:    imdbBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        log.With().Str("module", "imdb").Logger(),
	}
}

func (c *IMDB) chartURL(chart Chart) string {
	if chart == ChartIndianMovies {
		return c.baseURL + "/india/" + string(chart) + "/"
	}
	return c.baseURL + "/chart/" + string(chart) + "/"
}

func (c *IMDB) Chart(ctx context.Context, chart Chart, limit int) ([]Title, error) {
	var body []byte
	err := retry.Do(
		func() error {
			var err error
			body, err = c.fetch(ctx, c.chartURL(chart))
			return err
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(time.Second),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, err
	}

	titles, err := parseChartJSON(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse chart %s: %w", chart, err)
	}

	if limit > 0 && len(titles) > limit {
		titles = titles[:limit]
	}
	return titles, nil
}

func (c *IMDB) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	// IMDB serves a bot wall to unknown agents.
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("imdb request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("imdb returned status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

// ld+json chart schema, e.g.
// {"@type":"ItemList","itemListElement":[{"item":{"name":"...","url":"..."}}]}
type chartDocument struct {
	Type            string `json:"@type"`
	ItemListElement []struct {
		Item struct {
			Name string `json:"name"`
			URL  string `json:"url"`
		} `json:"item"`
	} `json:"itemListElement"`
}

const (
	ldJSONOpen  = `<script type="application/ld+json">`
	ldJSONClose = `</script>`
)

func parseChartJSON(body []byte) ([]Title, error) {
	page := string(body)

	for {
		start := strings.Index(page, ldJSONOpen)
		if start < 0 {
			return nil, fmt.Errorf("no chart data found")
		}
		page = page[start+len(ldJSONOpen):]

		end := strings.Index(page, ldJSONClose)
		if end < 0 {
			return nil, fmt.Errorf("unterminated chart data")
		}

		var doc chartDocument
		if err := json.Unmarshal([]byte(page[:end]), &doc); err != nil || doc.Type != "ItemList" {
			// Not the list block, keep scanning.
			page = page[end+len(ldJSONClose):]
			continue
		}

		titles := make([]Title, 0, len(doc.ItemListElement))
		for _, el := range doc.ItemListElement {
			if el.Item.Name == "" {
				continue
			}
			titles = append(titles, Title{Title: el.Item.Name})
		}
		if len(titles) == 0 {
			return nil, fmt.Errorf("chart data contained no titles")
		}
		return titles, nil
	}
}
