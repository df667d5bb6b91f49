// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package ranking fetches IMDB chart listings for the top-N commands.
package ranking

import (
	"context"
	"regexp"
	"strconv"
)

var topAmountRe = regexp.MustCompile(`^[Tt](\d+)$`)

// ParseTopAmount interprets a T<#> argument, clamped to [minAmount,
// maxAmount]. The boolean is false when the argument was absent or
// malformed and the default was used.
func ParseTopAmount(arg string, defaultAmount, minAmount, maxAmount int) (int, bool) {
	m := topAmountRe.FindStringSubmatch(arg)
	if m == nil {
		return clampTopAmount(defaultAmount, minAmount, maxAmount), false
	}

	n, err := strconv.Atoi(m[1])
	if err != nil {
		return clampTopAmount(defaultAmount, minAmount, maxAmount), false
	}
	return clampTopAmount(n, minAmount, maxAmount), true
}

func clampTopAmount(n, minAmount, maxAmount int) int {
	if n < minAmount {
		return minAmount
	}
	if n > maxAmount {
		return maxAmount
	}
	return n
}

// Chart identifies one IMDB chart.
type Chart string

const (
	ChartTopTV        Chart = "toptv"
	ChartPopularTV    Chart = "tvmeter"
	ChartTopMovies    Chart = "top"
	ChartPopularMovies Chart = "moviemeter"
	ChartIndianMovies Chart = "top-rated-indian-movies"
	ChartBottomMovies Chart = "bottom"
)

// Title is one chart entry.
type Title struct {
	Title string
	Year  int
}

// Provider returns chart entries, best-ranked first.
type Provider interface {
	Chart(ctx context.Context, chart Chart, limit int) ([]Title, error)
}
