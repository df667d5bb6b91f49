// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package prune

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autobrr/pixlovarr/internal/arr"
	"github.com/autobrr/pixlovarr/internal/domain"
	"github.com/autobrr/pixlovarr/internal/tags"
)

type deletion struct {
	id           int64
	deleteFiles  bool
	addExclusion bool
}

type fakeBackend struct {
	movies  []arr.Media
	tagList []arr.Tag

	deleted []deletion
	updated []arr.Media
}

func (f *fakeBackend) Movies(_ context.Context) ([]arr.Media, error) { return f.movies, nil }

func (f *fakeBackend) DeleteMovie(_ context.Context, id int64, deleteFiles, addExclusion bool) error {
	f.deleted = append(f.deleted, deletion{id: id, deleteFiles: deleteFiles, addExclusion: addExclusion})
	return nil
}

func (f *fakeBackend) UpdateMovie(_ context.Context, media arr.Media) (arr.Media, error) {
	f.updated = append(f.updated, media)
	return media, nil
}

func (f *fakeBackend) Tags(_ context.Context) ([]arr.Tag, error) { return f.tagList, nil }

func (f *fakeBackend) CreateTag(_ context.Context, label string) (arr.Tag, error) {
	tag := arr.Tag{ID: len(f.tagList) + 1, Label: label}
	f.tagList = append(f.tagList, tag)
	return tag, nil
}

type fakePush struct {
	messages []string
}

func (f *fakePush) Send(_, message string) error {
	f.messages = append(f.messages, message)
	return nil
}

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

const (
	tagMonitor = 1
	tagKeep    = 2
	tagExtend  = 3
	tagExclude = 4
)

func testConfig() *domain.Config {
	cfg := &domain.Config{}
	cfg.Bot.PermanentDeleteMedia = true
	cfg.Radarr.Enabled = true
	cfg.Radarr.TagsKeep = []string{"keep"}
	cfg.Radarr.TagsExtendPeriod = []string{"extend"}
	cfg.Radarr.TagsExclusion = []string{"exclusion"}
	cfg.Prune.Enabled = true
	cfg.Prune.MonitoredTags = []string{"prune"}
	cfg.Prune.RemoveAfterDays = 30
	cfg.Prune.WarnDaysInfront = 4
	cfg.Prune.ExtendPeriodByDays = 9
	cfg.Prune.VideoExtensions = []string{".mkv", ".mp4", ".avi"}
	return cfg
}

// movieDir creates a movie folder holding one video file whose mtime
// lies the given number of days before testNow.
func movieDir(t *testing.T, ageDays float64) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "movie.mkv")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	mtime := testNow.Add(-time.Duration(ageDays * 24 * float64(time.Hour)))
	require.NoError(t, os.Chtimes(path, mtime, mtime))
	return dir
}

func setup(t *testing.T, mutate func(*domain.Config, *fakeBackend)) (*Engine, *fakeBackend, *fakePush) {
	t.Helper()

	cfg := testConfig()
	backend := &fakeBackend{
		tagList: []arr.Tag{
			{ID: tagMonitor, Label: "prune"},
			{ID: tagKeep, Label: "keep"},
			{ID: tagExtend, Label: "extend"},
			{ID: tagExclude, Label: "exclusion"},
		},
	}
	if mutate != nil {
		mutate(cfg, backend)
	}

	push := &fakePush{}
	engine := New(cfg, backend, tags.NewResolver(backend), push)
	engine.now = func() time.Time { return testNow }
	return engine, backend, push
}

func TestRunRemovesExpiredMovie(t *testing.T) {
	t.Parallel()

	engine, backend, push := setup(t, func(_ *domain.Config, b *fakeBackend) {
		b.movies = []arr.Media{
			{ID: 7, Title: "Alien", Year: 1979, Path: movieDir(t, 31), Tags: []int{tagMonitor}},
		}
	})

	res, err := engine.Run(t.Context())
	require.NoError(t, err)

	assert.Equal(t, 1, res.Removed)
	assert.Equal(t, 0, res.Planned)

	require.Len(t, backend.deleted, 1)
	assert.Equal(t, deletion{id: 7, deleteFiles: true, addExclusion: false}, backend.deleted[0])

	require.NotEmpty(t, push.messages)
	assert.Contains(t, push.messages[0], "Prune - REMOVED - Alien (1979), files deleted.")
}

func TestRunExclusionTagGatesImportExclusion(t *testing.T) {
	t.Parallel()

	engine, backend, _ := setup(t, func(_ *domain.Config, b *fakeBackend) {
		b.movies = []arr.Media{
			{ID: 7, Title: "Alien", Year: 1979, Path: movieDir(t, 31), Tags: []int{tagMonitor, tagExclude}},
			{ID: 8, Title: "Blade Runner", Year: 1982, Path: movieDir(t, 31), Tags: []int{tagMonitor}},
		}
	})

	_, err := engine.Run(t.Context())
	require.NoError(t, err)

	require.Len(t, backend.deleted, 2)
	assert.Equal(t, deletion{id: 7, deleteFiles: true, addExclusion: true}, backend.deleted[0])
	assert.Equal(t, deletion{id: 8, deleteFiles: true, addExclusion: false}, backend.deleted[1])
}

func TestRunWarnsInsideWarnWindow(t *testing.T) {
	t.Parallel()

	// 26.5 days old with a 30 day retention and a 4 day warn window:
	// 3.5 days left falls inside the one-day warn slot.
	engine, backend, push := setup(t, func(_ *domain.Config, b *fakeBackend) {
		b.movies = []arr.Media{
			{ID: 7, Title: "Alien", Year: 1979, Path: movieDir(t, 26.5), Tags: []int{tagMonitor}},
		}
	})

	res, err := engine.Run(t.Context())
	require.NoError(t, err)

	assert.Equal(t, 0, res.Removed)
	assert.Equal(t, 1, res.Planned)
	assert.Empty(t, backend.deleted)

	require.NotEmpty(t, push.messages)
	assert.Contains(t, push.messages[0], "Prune - WILL BE REMOVED - Alien (1979) in 84h00m")
}

func TestRunOutsideWarnWindowStaysQuiet(t *testing.T) {
	t.Parallel()

	engine, backend, push := setup(t, func(_ *domain.Config, b *fakeBackend) {
		b.movies = []arr.Media{
			{ID: 7, Title: "Alien", Year: 1979, Path: movieDir(t, 20), Tags: []int{tagMonitor}},
		}
	})

	res, err := engine.Run(t.Context())
	require.NoError(t, err)

	assert.Equal(t, 0, res.Removed)
	assert.Equal(t, 0, res.Planned)
	assert.Empty(t, backend.deleted)
	// Only the final summary is pushed.
	require.Len(t, push.messages, 1)
	assert.Contains(t, push.messages[0], "There were 0 movies removed")
}

func TestRunKeepTagWinsOverExpiry(t *testing.T) {
	t.Parallel()

	engine, backend, _ := setup(t, func(_ *domain.Config, b *fakeBackend) {
		b.movies = []arr.Media{
			{ID: 7, Title: "Alien", Year: 1979, Path: movieDir(t, 365), Tags: []int{tagMonitor, tagKeep}},
		}
	})

	res, err := engine.Run(t.Context())
	require.NoError(t, err)

	assert.Equal(t, 0, res.Removed)
	assert.Empty(t, backend.deleted)
	assert.Contains(t, res.Log, "Prune - KEEPING - Alien (1979). Skipping.")
}

func TestRunExtendTagPostponesRemoval(t *testing.T) {
	t.Parallel()

	// 32 days old: past the 30 day retention, but the extend tag adds
	// another 9 days.
	engine, backend, _ := setup(t, func(_ *domain.Config, b *fakeBackend) {
		b.movies = []arr.Media{
			{ID: 7, Title: "Alien", Year: 1979, Path: movieDir(t, 32), Tags: []int{tagMonitor, tagExtend}},
		}
	})

	res, err := engine.Run(t.Context())
	require.NoError(t, err)

	assert.Equal(t, 0, res.Removed)
	assert.Equal(t, 0, res.Planned)
	assert.Empty(t, backend.deleted)
}

func TestRunDryRunDeletesNothing(t *testing.T) {
	t.Parallel()

	engine, backend, _ := setup(t, func(cfg *domain.Config, b *fakeBackend) {
		cfg.Prune.DryRun = true
		b.movies = []arr.Media{
			{ID: 7, Title: "Alien", Year: 1979, Path: movieDir(t, 31), Tags: []int{tagMonitor}},
		}
	})

	res, err := engine.Run(t.Context())
	require.NoError(t, err)

	assert.Equal(t, 1, res.Removed)
	assert.Empty(t, backend.deleted)
}

func TestRunNewestVideoFileDecidesDownloadDate(t *testing.T) {
	t.Parallel()

	// A stale sample beside a fresh download must not age the movie.
	engine, backend, _ := setup(t, func(_ *domain.Config, b *fakeBackend) {
		dir := movieDir(t, 40)
		fresh := filepath.Join(dir, "zz-remux.mkv")
		require.NoError(t, os.WriteFile(fresh, []byte("x"), 0o644))
		mtime := testNow.Add(-2 * 24 * time.Hour)
		require.NoError(t, os.Chtimes(fresh, mtime, mtime))

		b.movies = []arr.Media{
			{ID: 7, Title: "Alien", Year: 1979, Path: dir, Tags: []int{tagMonitor}},
		}
	})

	res, err := engine.Run(t.Context())
	require.NoError(t, err)

	assert.Equal(t, 0, res.Removed)
	assert.Empty(t, backend.deleted)
}

func TestRunRemovalBoundary(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		ageDays     float64
		tags        []int
		wantRemoved bool
	}{
		{"exactly at retention", 30, []int{tagMonitor}, true},
		{"one day short of retention", 29, []int{tagMonitor}, false},
		{"extended, exactly at extended retention", 39, []int{tagMonitor, tagExtend}, true},
		{"extended, one day short", 38, []int{tagMonitor, tagExtend}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			engine, backend, _ := setup(t, func(_ *domain.Config, b *fakeBackend) {
				b.movies = []arr.Media{
					{ID: 7, Title: "Alien", Year: 1979, Path: movieDir(t, tt.ageDays), Tags: tt.tags},
				}
			})

			res, err := engine.Run(t.Context())
			require.NoError(t, err)

			if tt.wantRemoved {
				assert.Equal(t, 1, res.Removed)
				assert.Len(t, backend.deleted, 1)
			} else {
				assert.Equal(t, 0, res.Removed)
				assert.Empty(t, backend.deleted)
			}
		})
	}
}

func TestRunMissingDownloadIsSkipped(t *testing.T) {
	t.Parallel()

	engine, backend, _ := setup(t, func(_ *domain.Config, b *fakeBackend) {
		b.movies = []arr.Media{
			{ID: 7, Title: "Alien", Year: 1979, Path: t.TempDir(), Tags: []int{tagMonitor}},
		}
	})

	res, err := engine.Run(t.Context())
	require.NoError(t, err)

	assert.Equal(t, 0, res.Removed)
	assert.Empty(t, backend.deleted)
	assert.Contains(t, res.Log, "Prune - MISSING - Alien (1979) is not downloaded yet. Skipping.")
}

func TestRunTagsUntaggedMovies(t *testing.T) {
	t.Parallel()

	engine, backend, _ := setup(t, func(cfg *domain.Config, b *fakeBackend) {
		cfg.Prune.TagUntaggedMedia = true
		cfg.Prune.UntaggedMediaTag = "leftover"
		b.movies = []arr.Media{
			{ID: 7, Title: "Alien", Year: 1979, Tags: []int{}},
		}
	})

	res, err := engine.Run(t.Context())
	require.NoError(t, err)

	require.Len(t, backend.updated, 1)
	assert.Equal(t, []int{5}, backend.updated[0].Tags)
	assert.Contains(t, res.Log, "Prune - TAGGED - Alien (1979) with leftover")

	// A movie already carrying the marker is left alone.
	backend.movies[0].Tags = []int{5}
	backend.updated = nil
	_, err = engine.Run(t.Context())
	require.NoError(t, err)
	assert.Empty(t, backend.updated)
}

func TestRunOnlyShowRemoveMessages(t *testing.T) {
	t.Parallel()

	engine, _, _ := setup(t, func(cfg *domain.Config, b *fakeBackend) {
		cfg.Prune.OnlyShowRemoveMessages = true
		b.movies = []arr.Media{
			{ID: 1, Title: "Keeper", Year: 2000, Path: movieDir(t, 365), Tags: []int{tagMonitor, tagKeep}},
			{ID: 2, Title: "Goner", Year: 2001, Path: movieDir(t, 31), Tags: []int{tagMonitor}},
		}
	})

	res, err := engine.Run(t.Context())
	require.NoError(t, err)

	require.Len(t, res.Log, 2)
	assert.Contains(t, res.Log[0], "Prune - REMOVED - Goner (2001)")
	assert.Contains(t, res.Log[1], "There were 1 movies removed and 0 movies planned to be removed within 4 days")
}

func TestRunDisabled(t *testing.T) {
	t.Parallel()

	engine, _, _ := setup(t, func(cfg *domain.Config, _ *fakeBackend) {
		cfg.Prune.Enabled = false
	})

	_, err := engine.Run(t.Context())
	assert.Error(t, err)
}
