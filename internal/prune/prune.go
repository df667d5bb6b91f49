// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package prune removes tagged movies whose download age crossed the
// configured retention window, warning shortly before it does.
package prune

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/autobrr/pixlovarr/internal/arr"
	"github.com/autobrr/pixlovarr/internal/domain"
	"github.com/autobrr/pixlovarr/internal/tags"
)

// Backend is the Radarr surface the engine needs.
type Backend interface {
	Movies(ctx context.Context) ([]arr.Media, error)
	DeleteMovie(ctx context.Context, id int64, deleteFiles, addExclusion bool) error
	UpdateMovie(ctx context.Context, media arr.Media) (arr.Media, error)
}

// Pusher receives the warn, remove and summary messages.
type Pusher interface {
	Send(title, message string) error
}

// Result is one prune run's outcome.
type Result struct {
	Removed int
	Planned int

	// Log carries the run report lines, one per evaluated event.
	Log []string
}

// Summary is the end-of-run line mailed and pushed to the admin.
func (r Result) Summary(warnDays int) string {
	return fmt.Sprintf("Prune - There were %d movies removed and %d movies planned to be removed within %d days",
		r.Removed, r.Planned, warnDays)
}

type Engine struct {
	cfg      *domain.Config
	movies   Backend
	resolver *tags.Resolver
	push     Pusher
	log      zerolog.Logger

	// now is injectable so window boundaries can be tested.
	now func() time.Time
}

func New(cfg *domain.Config, movies Backend, resolver *tags.Resolver, push Pusher) *Engine {
	return &Engine{
		cfg:      cfg,
		movies:   movies,
		resolver: resolver,
		push:     push,
		log:      log.With().Str("module", "prune").Logger(),
		now:      time.Now,
	}
}

// tagSets carries the resolved tag id sets one run works with.
type tagSets struct {
	keep    []int
	monitor []int
	extend  []int
	exclude []int
}

func (e *Engine) Run(ctx context.Context) (Result, error) {
	var res Result

	if !e.cfg.Prune.Enabled {
		return res, fmt.Errorf("prune is disabled")
	}

	if e.cfg.Prune.DryRun {
		e.log.Info().Msg("dry run, nothing will be deleted or removed")
	}

	sets, err := e.resolveTags(ctx)
	if err != nil {
		return res, err
	}
	if len(sets.monitor) == 0 {
		e.log.Warn().Msg("no monitored tags resolve on the server, no movies will be removed this run")
	}

	movies, err := e.movies.Movies(ctx)
	if err != nil {
		return res, err
	}
	slices.SortFunc(movies, func(a, b arr.Media) int {
		return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
	})

	res.append(e.cfg, "Prune - Pixlovarr Prune started")

	for _, movie := range movies {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		e.evalMovie(ctx, movie, sets, &res)
	}

	summary := res.Summary(e.cfg.Prune.WarnDaysInfront)
	res.Log = append(res.Log, summary)
	e.log.Info().Int("removed", res.Removed).Int("planned", res.Planned).Msg("prune run finished")
	e.notify(summary)

	return res, nil
}

func (e *Engine) resolveTags(ctx context.Context) (tagSets, error) {
	var sets tagSets
	var err error

	if sets.keep, err = e.resolver.IDsForLabels(ctx, e.cfg.Radarr.TagsKeep); err != nil {
		return sets, err
	}
	if sets.monitor, err = e.resolver.IDsForLabels(ctx, e.cfg.Prune.MonitoredTags); err != nil {
		return sets, err
	}
	if sets.extend, err = e.resolver.IDsForLabels(ctx, e.cfg.Radarr.TagsExtendPeriod); err != nil {
		return sets, err
	}
	if sets.exclude, err = e.resolver.IDsForLabels(ctx, e.cfg.Radarr.TagsExclusion); err != nil {
		return sets, err
	}
	return sets, nil
}

func (e *Engine) evalMovie(ctx context.Context, movie arr.Media, sets tagSets, res *Result) {
	name := fmt.Sprintf("%s (%d)", movie.Title, movie.Year)

	if tags.HasAny(movie.Tags, sets.keep) {
		res.append(e.cfg, fmt.Sprintf("Prune - KEEPING - %s. Skipping.", name))
		return
	}

	if !tags.HasAny(movie.Tags, sets.monitor) {
		e.tagUntagged(ctx, movie, res)
		return
	}

	downloadDate, ok := e.downloadDate(movie.Path)
	if !ok {
		res.append(e.cfg, fmt.Sprintf("Prune - MISSING - %s is not downloaded yet. Skipping.", name))
		return
	}

	retention := time.Duration(e.cfg.Prune.RemoveAfterDays) * 24 * time.Hour
	if tags.HasAny(movie.Tags, sets.extend) {
		retention += time.Duration(e.cfg.Prune.ExtendPeriodByDays) * 24 * time.Hour
	}

	now := e.now()
	deadline := downloadDate.Add(retention)
	left := deadline.Sub(now)
	warnWindow := time.Duration(e.cfg.Prune.WarnDaysInfront) * 24 * time.Hour

	// Warn exactly once: inside the last warnDays before the deadline,
	// but only during the first day of that window.
	if left > 0 && left <= warnWindow && left > warnWindow-24*time.Hour {
		line := fmt.Sprintf("Prune - WILL BE REMOVED - %s in %s - %s",
			name, formatTimeLeft(left), downloadDate.Format("2006-01-02 15:04:05"))
		res.Log = append(res.Log, line)
		res.Planned++
		e.notify(line)
		return
	}

	if left <= 0 {
		deleteFiles := e.cfg.Bot.PermanentDeleteMedia
		// Only exclusion-tagged movies go on the import exclusion list.
		addExclusion := tags.HasAny(movie.Tags, sets.exclude)
		if !e.cfg.Prune.DryRun {
			if err := e.movies.DeleteMovie(ctx, movie.ID, deleteFiles, addExclusion); err != nil {
				e.log.Error().Err(err).Str("title", movie.Title).Msg("delete failed")
				res.Log = append(res.Log, fmt.Sprintf("Prune - FAILED - %s: %v", name, err))
				return
			}
		}

		filesText := ", files preserved."
		if deleteFiles {
			filesText = ", files deleted."
		}
		line := fmt.Sprintf("Prune - REMOVED - %s%s - %s",
			name, filesText, downloadDate.Format("2006-01-02 15:04:05"))
		res.Log = append(res.Log, line)
		res.Removed++
		e.notify(line)
	}
}

// tagUntagged attaches the configured marker tag to movies carrying no
// tags at all, so they show up in the monitored set next run.
func (e *Engine) tagUntagged(ctx context.Context, movie arr.Media, res *Result) {
	if len(movie.Tags) > 0 || !e.cfg.Prune.TagUntaggedMedia || e.cfg.Prune.UntaggedMediaTag == "" {
		return
	}

	if e.cfg.Prune.DryRun {
		res.append(e.cfg, fmt.Sprintf("Prune - TAGGED - %s (%d) with %s",
			movie.Title, movie.Year, e.cfg.Prune.UntaggedMediaTag))
		return
	}

	tag, err := e.resolver.Ensure(ctx, e.cfg.Prune.UntaggedMediaTag)
	if err != nil {
		e.log.Error().Err(err).Str("title", movie.Title).Msg("untagged tagging failed")
		return
	}

	movie.Tags = append(movie.Tags, tag.ID)
	if _, err := e.movies.UpdateMovie(ctx, movie); err != nil {
		e.log.Error().Err(err).Str("title", movie.Title).Msg("untagged tagging failed")
		return
	}

	res.append(e.cfg, fmt.Sprintf("Prune - TAGGED - %s (%d) with %s",
		movie.Title, movie.Year, e.cfg.Prune.UntaggedMediaTag))
}

// downloadDate takes the modification time of the newest video file in
// the movie folder as the download date. A stale sample or leftover
// beside the real download must not age the movie.
func (e *Engine) downloadDate(dir string) (time.Time, bool) {
	if dir == "" {
		return time.Time{}, false
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return time.Time{}, false
	}

	var newest time.Time
	var found bool
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if !slices.Contains(e.cfg.Prune.VideoExtensions, ext) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if mtime := info.ModTime(); !found || mtime.After(newest) {
			newest = mtime
			found = true
		}
	}
	return newest, found
}

func (e *Engine) notify(message string) {
	if e.push == nil {
		return
	}
	if err := e.push.Send("Pixlovarr Prune", message); err != nil {
		e.log.Error().Err(err).Msg("push notification failed")
	}
}

// append adds a log line unless the run is configured to only report
// removals.
func (r *Result) append(cfg *domain.Config, line string) {
	if cfg.Prune.OnlyShowRemoveMessages {
		return
	}
	r.Log = append(r.Log, line)
}

func formatTimeLeft(d time.Duration) string {
	d = d.Truncate(time.Minute)
	return fmt.Sprintf("%dh%02dm", int(d.Hours()), int(d.Minutes())%60)
}
