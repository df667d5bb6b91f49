// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package bot

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/autobrr/pixlovarr/internal/approval"
	"github.com/autobrr/pixlovarr/internal/arr"
	"github.com/autobrr/pixlovarr/internal/bot/wizard"
	"github.com/autobrr/pixlovarr/internal/chat"
	"github.com/autobrr/pixlovarr/internal/domain"
	"github.com/autobrr/pixlovarr/internal/models"
	"github.com/autobrr/pixlovarr/internal/policy"
	"github.com/autobrr/pixlovarr/internal/ranking"
	"github.com/autobrr/pixlovarr/internal/tags"
)

type fakeMessenger struct {
	texts     map[string][]string // chatID -> messages
	keyboards map[string][]chat.Keyboard
}

func newFakeMessenger() *fakeMessenger {
	return &fakeMessenger{
		texts:     make(map[string][]string),
		keyboards: make(map[string][]chat.Keyboard),
	}
}

func (m *fakeMessenger) SendText(_ context.Context, chatID, text string) error {
	m.texts[chatID] = append(m.texts[chatID], text)
	return nil
}

func (m *fakeMessenger) SendPhoto(_ context.Context, chatID, _, caption string) error {
	m.texts[chatID] = append(m.texts[chatID], caption)
	return nil
}

func (m *fakeMessenger) SendKeyboard(_ context.Context, chatID, text string, kb chat.Keyboard) error {
	m.texts[chatID] = append(m.texts[chatID], text)
	m.keyboards[chatID] = append(m.keyboards[chatID], kb)
	return nil
}

func (m *fakeMessenger) all(chatID string) string {
	return strings.Join(m.texts[chatID], "\n---\n")
}

func (m *fakeMessenger) lastKeyboard(t *testing.T, chatID string) chat.Keyboard {
	t.Helper()
	kbs := m.keyboards[chatID]
	require.NotEmpty(t, kbs)
	return kbs[len(kbs)-1]
}

// fakeBackend doubles as SeriesBackend, MovieBackend, and tags.API.
type fakeBackend struct {
	media   []arr.Media
	queue   []arr.QueueItem
	cal     []arr.CalendarItem
	tagList []arr.Tag

	deletedMedia []int64
	deletedQueue []int64
	updated      []arr.Media
	rssCalls     int
	missingCalls int
}

func (f *fakeBackend) Series(context.Context) ([]arr.Media, error) { return f.media, nil }
func (f *fakeBackend) Movies(context.Context) ([]arr.Media, error) { return f.media, nil }

func (f *fakeBackend) SeriesByID(_ context.Context, id int64) (arr.Media, error) {
	return f.byID(id)
}

func (f *fakeBackend) MovieByID(_ context.Context, id int64) (arr.Media, error) {
	return f.byID(id)
}

func (f *fakeBackend) byID(id int64) (arr.Media, error) {
	for _, m := range f.media {
		if m.ID == id {
			return m, nil
		}
	}
	return arr.Media{}, arr.ErrNotFound
}

func (f *fakeBackend) Lookup(_ context.Context, term string) ([]arr.Media, error) {
	var out []arr.Media
	for _, m := range f.media {
		if strings.Contains(strings.ToLower(m.Title), strings.ToLower(term)) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeBackend) UpdateSeries(_ context.Context, media arr.Media) (arr.Media, error) {
	f.updated = append(f.updated, media)
	return media, nil
}

func (f *fakeBackend) UpdateMovie(_ context.Context, media arr.Media) (arr.Media, error) {
	f.updated = append(f.updated, media)
	return media, nil
}

func (f *fakeBackend) DeleteSeries(_ context.Context, id int64, _, _ bool) error {
	f.deletedMedia = append(f.deletedMedia, id)
	return nil
}

func (f *fakeBackend) DeleteMovie(_ context.Context, id int64, _, _ bool) error {
	f.deletedMedia = append(f.deletedMedia, id)
	return nil
}

func (f *fakeBackend) Queue(context.Context) ([]arr.QueueItem, error) { return f.queue, nil }

func (f *fakeBackend) DeleteQueueItem(_ context.Context, id int64) error {
	f.deletedQueue = append(f.deletedQueue, id)
	return nil
}

func (f *fakeBackend) Calendar(_ context.Context, _, _ time.Time) ([]arr.CalendarItem, error) {
	return f.cal, nil
}

func (f *fakeBackend) Ping(context.Context) (arr.SystemStatus, error) {
	return arr.SystemStatus{Version: "4.0"}, nil
}

func (f *fakeBackend) RSSSync(context.Context) error {
	f.rssCalls++
	return nil
}

func (f *fakeBackend) SearchMissing(context.Context) error {
	f.missingCalls++
	return nil
}

func (f *fakeBackend) Tags(context.Context) ([]arr.Tag, error) { return f.tagList, nil }

func (f *fakeBackend) CreateTag(_ context.Context, label string) (arr.Tag, error) {
	tag := arr.Tag{ID: len(f.tagList) + 1, Label: label}
	f.tagList = append(f.tagList, tag)
	return tag, nil
}

type fakeRankings struct {
	titles []ranking.Title
}

func (f *fakeRankings) Chart(_ context.Context, _ ranking.Chart, limit int) ([]ranking.Title, error) {
	if len(f.titles) > limit {
		return f.titles[:limit], nil
	}
	return f.titles, nil
}

type fixture struct {
	handler *Handler
	msgr    *fakeMessenger
	series  *fakeBackend
	movies  *fakeBackend
	users   *models.UserStore
}

func setupHandler(t *testing.T, mutate func(cfg *domain.Config)) *fixture {
	t.Helper()

	sqlDB, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	_, err = sqlDB.ExecContext(t.Context(), `
		CREATE TABLE users (
			id TEXT PRIMARY KEY,
			first_name TEXT NOT NULL DEFAULT '',
			last_name TEXT NOT NULL DEFAULT '',
			username TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL CHECK (status IN ('new', 'allowed', 'blocked')),
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE command_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id TEXT NOT NULL,
			user_name TEXT NOT NULL DEFAULT '',
			command TEXT NOT NULL,
			executed_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	require.NoError(t, err)

	cfg := &domain.Config{
		Bot:    domain.BotConfig{AdminUserID: "1", SignUpIsOpen: true},
		Sonarr: domain.ArrConfig{Enabled: true, TagsKeep: []string{"keep"}, PeriodDaysNewDownload: 7, CalendarPeriodDays: 7},
		Radarr: domain.ArrConfig{Enabled: true, TagsKeep: []string{"keep"}, TagsExtendPeriod: []string{"extend"}, PeriodDaysNewDownload: 7, CalendarPeriodDays: 14},
		IMDB:   domain.IMDBConfig{DefaultLimitRanking: 10, MinLimitRanking: 3, MaxLimitRanking: 100},
		Prune:  domain.PruneConfig{ExtendPeriodByDays: 9},
	}
	if mutate != nil {
		mutate(cfg)
	}

	msgr := newFakeMessenger()
	users := models.NewUserStore(sqlDB)
	history := models.NewHistoryStore(sqlDB)
	pol := policy.New(cfg, users)
	series := &fakeBackend{}
	movies := &fakeBackend{}

	h := New(Params{
		Config:     cfg,
		Messenger:  msgr,
		Users:      users,
		History:    history,
		Policy:     pol,
		Approval:   approval.NewService(users, msgr, cfg.Bot.AdminUserID),
		Wizard:     wizard.New(cfg, msgr, nil, nil, nil, nil),
		Series:     series,
		Movies:     movies,
		SeriesTags: tags.NewResolver(series),
		MovieTags:  tags.NewResolver(movies),
		Rankings:   &fakeRankings{},
	})
	h.batchDelay = 0

	return &fixture{handler: h, msgr: msgr, series: series, movies: movies, users: users}
}

func (f *fixture) grant(t *testing.T, id, name string) {
	t.Helper()
	require.NoError(t, f.users.Create(t.Context(), &models.User{
		ID: id, FirstName: name, Status: models.StatusAllowed,
	}))
}

func memberCommand(name string, args ...string) chat.Command {
	return chat.Command{Name: name, Args: args, UserID: "2", FirstName: "Alice", ChatID: "100"}
}

func adminCommand(name string, args ...string) chat.Command {
	return chat.Command{Name: name, Args: args, UserID: "1", FirstName: "Admin", ChatID: "10"}
}

func TestMemberCommandsRequireGrant(t *testing.T) {
	t.Parallel()

	f := setupHandler(t, nil)
	ctx := t.Context()

	f.handler.HandleCommand(ctx, memberCommand("ls"))
	assert.Empty(t, f.msgr.texts["100"], "ungranted user must get no listing")

	f.grant(t, "2", "Alice")
	f.series.media = []arr.Media{{ID: 5, Title: "Dark", Year: 2017}}

	f.handler.HandleCommand(ctx, memberCommand("ls"))
	assert.Contains(t, f.msgr.all("100"), "Listed 1 series from the catalog.")
}

func TestBlockedUserIsIgnoredEverywhere(t *testing.T) {
	t.Parallel()

	f := setupHandler(t, nil)
	ctx := t.Context()

	require.NoError(t, f.users.Create(ctx, &models.User{ID: "2", Status: models.StatusBlocked}))

	f.handler.HandleCommand(ctx, memberCommand("help"))
	f.handler.HandleCommand(ctx, memberCommand("ls"))
	f.handler.HandleCommand(ctx, memberCommand("signup"))
	assert.Empty(t, f.msgr.texts["100"])
}

func TestStartBeforeAndAfterGrant(t *testing.T) {
	t.Parallel()

	f := setupHandler(t, nil)
	ctx := t.Context()

	f.handler.HandleCommand(ctx, memberCommand("start"))
	assert.Contains(t, f.msgr.all("100"), "request access with /signup")

	f.grant(t, "2", "Alice")
	f.handler.HandleCommand(ctx, memberCommand("start"))
	assert.Contains(t, f.msgr.all("100"), "You are still granted for the service.")
}

func TestStartIgnoredWhenSignupClosed(t *testing.T) {
	t.Parallel()

	f := setupHandler(t, func(cfg *domain.Config) { cfg.Bot.SignUpIsOpen = false })

	f.handler.HandleCommand(t.Context(), memberCommand("start"))
	assert.Empty(t, f.msgr.texts["100"])
}

func TestHelpShowsSectionsByRole(t *testing.T) {
	t.Parallel()

	f := setupHandler(t, nil)
	ctx := t.Context()

	f.handler.HandleCommand(ctx, memberCommand("help"))
	require.Len(t, f.msgr.texts["100"], 1)
	assert.NotContains(t, f.msgr.texts["100"][0], "/ds", "non-member sees no member commands")

	f.grant(t, "2", "Alice")
	f.handler.HandleCommand(ctx, memberCommand("help"))
	assert.Contains(t, f.msgr.texts["100"][1], "/ds T<#> <key> - Download series")
	assert.NotContains(t, f.msgr.texts["100"][1], "Admin commands")

	f.handler.HandleCommand(ctx, adminCommand("help"))
	assert.Contains(t, f.msgr.all("10"), "-- Admin commands --")
}

func TestListCatalogFilters(t *testing.T) {
	t.Parallel()

	f := setupHandler(t, nil)
	ctx := t.Context()
	f.grant(t, "2", "Alice")

	f.movies.media = []arr.Media{
		{ID: 1, Title: "Alien", Year: 1979, Genres: []string{"Horror", "Sci-Fi"}},
		{ID: 2, Title: "Aliens", Year: 1986, Genres: []string{"Action"}},
		{ID: 3, Title: "Amelie", Year: 2001, Genres: []string{"Comedy"}},
	}

	f.handler.HandleCommand(ctx, memberCommand("lm", "#horror", "alien"))

	kb := f.msgr.lastKeyboard(t, "100")
	require.Len(t, kb, 1)
	assert.Equal(t, "Alien (1979)", kb[0][0].Label)
	assert.Equal(t, "v1:mediainfo:movie:1", kb[0][0].Data)
	assert.Contains(t, f.msgr.all("100"), "Listed 1 of 3 movies from the catalog.")
}

func TestListMyMediaUsesUserTag(t *testing.T) {
	t.Parallel()

	f := setupHandler(t, nil)
	ctx := t.Context()
	f.grant(t, "2", "Alice")

	f.movies.tagList = []arr.Tag{{ID: 7, Label: "alice_2"}, {ID: 8, Label: "bob_3"}}
	f.movies.media = []arr.Media{
		{ID: 1, Title: "Mine", Year: 2020, Tags: []int{7}},
		{ID: 2, Title: "Theirs", Year: 2021, Tags: []int{8}},
	}

	f.handler.HandleCommand(ctx, memberCommand("mm"))

	kb := f.msgr.lastKeyboard(t, "100")
	require.Len(t, kb, 1)
	assert.Equal(t, "Mine (2020)", kb[0][0].Label)
}

func TestListNewMediaUsesAddedWindow(t *testing.T) {
	t.Parallel()

	f := setupHandler(t, nil)
	ctx := t.Context()
	f.grant(t, "2", "Alice")

	f.movies.media = []arr.Media{
		{ID: 1, Title: "Fresh", Year: 2026, Added: time.Now().AddDate(0, 0, -2)},
		{ID: 2, Title: "Stale", Year: 2019, Added: time.Now().AddDate(0, 0, -30)},
	}

	f.handler.HandleCommand(ctx, memberCommand("nm"))

	kb := f.msgr.lastKeyboard(t, "100")
	require.Len(t, kb, 1)
	assert.Equal(t, "Fresh (2026)", kb[0][0].Label)
}

func TestFindMediaSplitsCatalogAndLookup(t *testing.T) {
	t.Parallel()

	f := setupHandler(t, nil)
	ctx := t.Context()
	f.grant(t, "2", "Alice")

	f.movies.media = []arr.Media{
		{ID: 9, Title: "Dune", Year: 2021, IMDBID: "tt1160419"},
		{Title: "Dune Part Two", Year: 2024, IMDBID: "tt15239678"},
		{Title: "Dune Untitled", Year: 2030}, // no provider id, dropped
	}

	f.handler.HandleCommand(ctx, memberCommand("dm", "dune"))

	kbs := f.msgr.keyboards["100"]
	require.Len(t, kbs, 2)
	assert.Equal(t, "v1:mediainfo:movie:9", kbs[0][0][0].Data)
	assert.Equal(t, "v1:dlsummary:movie:tt15239678", kbs[1][0][0].Data)
	assert.Contains(t, f.msgr.all("100"), "We found these movies in your catalog:")
}

func TestFindMediaDefaultLimitFromConfig(t *testing.T) {
	t.Parallel()

	f := setupHandler(t, nil)
	ctx := t.Context()
	f.grant(t, "2", "Alice")

	for i := range 15 {
		f.movies.media = append(f.movies.media, arr.Media{
			Title:  fmt.Sprintf("Dune %d", i),
			Year:   2021,
			IMDBID: fmt.Sprintf("tt%07d", i),
		})
	}

	f.handler.HandleCommand(ctx, memberCommand("dm", "dune"))

	kbs := f.msgr.keyboards["100"]
	require.Len(t, kbs, 1)
	assert.Len(t, kbs[0], 10, "without an explicit count the configured default applies")
}

func TestFindMediaWithoutQuery(t *testing.T) {
	t.Parallel()

	f := setupHandler(t, nil)
	f.grant(t, "2", "Alice")

	f.handler.HandleCommand(t.Context(), memberCommand("dm", "T10"))
	assert.Contains(t, f.msgr.all("100"), "Please specify a query, Alice.")
}

func TestShowQueueCountsBothBackends(t *testing.T) {
	t.Parallel()

	f := setupHandler(t, nil)
	ctx := t.Context()
	f.grant(t, "2", "Alice")

	f.series.queue = []arr.QueueItem{{ID: 1, Title: "Dark S01E01", Status: "downloading", Protocol: "torrent"}}
	f.movies.queue = []arr.QueueItem{{ID: 2, Title: "Dune", Status: "queued", Protocol: "usenet"}}

	f.handler.HandleCommand(ctx, memberCommand("qu"))

	out := f.msgr.all("100")
	assert.Contains(t, out, "Dark S01E01")
	assert.Contains(t, out, "There are 2 items in the queue.")

	kb := f.msgr.keyboards["100"][0]
	assert.Equal(t, "v1:deletequeue:serie:1", kb[0][0].Data)
}

func TestDeleteQueueItemButton(t *testing.T) {
	t.Parallel()

	f := setupHandler(t, nil)
	ctx := t.Context()
	f.grant(t, "2", "Alice")

	f.movies.queue = []arr.QueueItem{{ID: 42, Title: "Dune"}}

	f.handler.HandleButton(ctx, chat.ButtonPress{
		Data: "v1:deletequeue:movie:42", UserID: "2", FirstName: "Alice", ChatID: "100",
	})

	assert.Equal(t, []int64{42}, f.movies.deletedQueue)
	assert.Contains(t, f.msgr.all("100"), "The movie Dune was deleted from the queue.")
}

func TestCalendarListsAndCounts(t *testing.T) {
	t.Parallel()

	f := setupHandler(t, nil)
	ctx := t.Context()
	f.grant(t, "2", "Alice")

	air := time.Date(2026, 9, 2, 20, 0, 0, 0, time.UTC)
	f.series.cal = []arr.CalendarItem{
		{Title: "Pilot", AirDateUTC: &air, Series: &struct {
			Title string `json:"title"`
		}{Title: "Dark"}},
	}

	f.handler.HandleCommand(ctx, memberCommand("sc"))

	out := f.msgr.all("100")
	assert.Contains(t, out, "Dark\nPilot")
	assert.Contains(t, out, "Airdate: 2026-09-02")
	assert.Contains(t, out, "Listed 1 scheduled episodes from the calendar.")
}

func TestRankingsPartitionCatalog(t *testing.T) {
	t.Parallel()

	f := setupHandler(t, nil)
	ctx := t.Context()
	f.grant(t, "2", "Alice")

	f.handler.rankings = &fakeRankings{titles: []ranking.Title{
		{Title: "Dune", Year: 2021},
		{Title: "Arrival", Year: 2016},
	}}
	f.movies.media = []arr.Media{
		{ID: 9, Title: "Dune", Year: 2021, IMDBID: "tt1160419"},
		{Title: "Arrival", Year: 2016, IMDBID: "tt2543164"},
	}

	f.handler.HandleCommand(ctx, memberCommand("tm", "T5"))

	out := f.msgr.all("100")
	assert.Contains(t, out, "Please be patient...")
	assert.Contains(t, out, "of the IMDb top 5 in the catalog:")
	assert.Contains(t, out, "are not in the catalog at the moment:")

	kbs := f.msgr.keyboards["100"]
	require.Len(t, kbs, 2)
	assert.Equal(t, "v1:mediainfo:movie:9", kbs[0][0][0].Data)
	assert.Equal(t, "v1:dlsummary:movie:tt2543164", kbs[1][0][0].Data)
}

func TestMediaInfoActions(t *testing.T) {
	t.Parallel()

	f := setupHandler(t, nil)
	ctx := t.Context()
	f.grant(t, "2", "Alice")

	f.movies.media = []arr.Media{{
		ID: 5, Title: "Dune", Year: 2021, Overview: "Spice.",
		YouTubeTrailerID: "abc123",
	}}

	f.handler.HandleButton(ctx, chat.ButtonPress{
		Data: "v1:mediainfo:movie:5", UserID: "2", FirstName: "Alice", ChatID: "100",
	})

	out := f.msgr.all("100")
	assert.Contains(t, out, "Dune (2021)")
	assert.Contains(t, out, "Spice.")
	assert.Contains(t, out, youTubeWatchURL+"abc123")

	kb := f.msgr.lastKeyboard(t, "100")
	var labels []string
	for _, row := range kb {
		labels = append(labels, row[0].Label)
	}
	assert.Contains(t, labels, "Delete 'Dune (2021)'")
	assert.Contains(t, labels, "Extend 'Dune (2021)' with 9 days")
	assert.Contains(t, labels, "Search 'Dune (2021)'")
	assert.NotContains(t, labels, "Keep 'Dune (2021)'", "keep is admin only")
}

func TestMediaInfoKeepTagHidesDelete(t *testing.T) {
	t.Parallel()

	f := setupHandler(t, nil)
	ctx := t.Context()
	f.grant(t, "2", "Alice")

	f.movies.tagList = []arr.Tag{{ID: 3, Label: "keep"}}
	f.movies.media = []arr.Media{{ID: 5, Title: "Dune", Year: 2021, HasFile: true, Tags: []int{3}}}

	f.handler.HandleButton(ctx, chat.ButtonPress{
		Data: "v1:mediainfo:movie:5", UserID: "2", FirstName: "Alice", ChatID: "100",
	})

	for _, kb := range f.msgr.keyboards["100"] {
		for _, row := range kb {
			assert.NotContains(t, row[0].Label, "Delete", "kept media is not deletable by members")
		}
	}
}

func TestDeleteMediaOwnershipGate(t *testing.T) {
	t.Parallel()

	f := setupHandler(t, func(cfg *domain.Config) {
		cfg.Bot.UsersCanOnlyDeleteOwnMedia = true
	})
	ctx := t.Context()
	f.grant(t, "2", "Alice")

	f.movies.tagList = []arr.Tag{{ID: 8, Label: "bob_3"}}
	f.movies.media = []arr.Media{{ID: 5, Title: "Dune", Year: 2021, Tags: []int{8}}}

	f.handler.HandleButton(ctx, chat.ButtonPress{
		Data: "v1:deletemedia:movie:5:false", UserID: "2", FirstName: "Alice", ChatID: "100",
	})
	assert.Empty(t, f.movies.deletedMedia, "someone else's media must survive")

	f.handler.HandleButton(ctx, chat.ButtonPress{
		Data: "v1:deletemedia:movie:5:true", UserID: "1", FirstName: "Admin", ChatID: "10",
	})
	assert.Equal(t, []int64{5}, f.movies.deletedMedia, "admin deletes regardless of owner")
}

func TestKeepMediaTagsAndIsIdempotent(t *testing.T) {
	t.Parallel()

	f := setupHandler(t, nil)
	ctx := t.Context()

	f.movies.media = []arr.Media{{ID: 5, Title: "Dune", Year: 2021}}

	press := chat.ButtonPress{Data: "v1:keepmedia:movie:5", UserID: "1", FirstName: "Admin", ChatID: "10"}
	f.handler.HandleButton(ctx, press)

	require.Len(t, f.movies.updated, 1)
	assert.Equal(t, []int{1}, f.movies.updated[0].Tags)
	assert.Contains(t, f.msgr.all("10"), "kept on the server")

	// Second press finds the tag already attached and changes nothing.
	f.movies.media[0].Tags = []int{1}
	f.handler.HandleButton(ctx, press)
	assert.Len(t, f.movies.updated, 1)
}

func TestExtendPeriodAddsExtendTag(t *testing.T) {
	t.Parallel()

	f := setupHandler(t, nil)
	ctx := t.Context()
	f.grant(t, "2", "Alice")

	f.movies.media = []arr.Media{{ID: 5, Title: "Dune", Year: 2021}}

	f.handler.HandleButton(ctx, chat.ButtonPress{
		Data: "v1:extendperiod:movie:5", UserID: "2", FirstName: "Alice", ChatID: "100",
	})

	require.Len(t, f.movies.updated, 1)
	require.Len(t, f.movies.tagList, 1)
	assert.Equal(t, "extend", f.movies.tagList[0].Label)
	assert.Contains(t, f.msgr.all("100"), "extended with another 9 days")
}

func TestSearchMissingCommandAndButton(t *testing.T) {
	t.Parallel()

	f := setupHandler(t, nil)
	ctx := t.Context()
	f.grant(t, "2", "Alice")

	f.handler.HandleCommand(ctx, memberCommand("smm"))
	f.handler.HandleButton(ctx, chat.ButtonPress{
		Data: "v1:searchmissing:-", UserID: "2", FirstName: "Alice", ChatID: "100",
	})

	assert.Equal(t, 2, f.movies.missingCalls)
}

func TestRSSSyncTriggersBothBackends(t *testing.T) {
	t.Parallel()

	f := setupHandler(t, nil)
	f.grant(t, "2", "Alice")

	f.handler.HandleCommand(t.Context(), memberCommand("rss"))

	assert.Equal(t, 1, f.series.rssCalls)
	assert.Equal(t, 1, f.movies.rssCalls)
	assert.Contains(t, f.msgr.all("100"), "-- RSS Sync triggered --")
}

func TestServiceStatus(t *testing.T) {
	t.Parallel()

	f := setupHandler(t, nil)
	ctx := t.Context()
	f.grant(t, "2", "Alice")

	f.series.media = []arr.Media{{ID: 1, Title: "Dark"}}
	f.movies.queue = []arr.QueueItem{{ID: 2, Title: "Dune"}}

	f.handler.HandleCommand(ctx, memberCommand("sts"))

	out := f.msgr.all("100")
	assert.Contains(t, out, "Series: 1")
	assert.Contains(t, out, "Items in queue: 1")
	assert.Contains(t, out, "Granted members: 1")
	assert.Contains(t, out, "Signup: Open")
}

func TestAdminCommandsRequireAdmin(t *testing.T) {
	t.Parallel()

	f := setupHandler(t, nil)
	ctx := t.Context()
	f.grant(t, "2", "Alice")

	f.handler.HandleCommand(ctx, memberCommand("open"))
	assert.NotContains(t, f.msgr.all("100"), "Signup")

	f.handler.HandleCommand(ctx, adminCommand("close"))
	assert.Contains(t, f.msgr.all("10"), "Signup is now closed.")

	f.handler.HandleCommand(ctx, adminCommand("close"))
	assert.Contains(t, f.msgr.all("10"), "Signup was already closed.")
}

func TestNewSignupsKeyboard(t *testing.T) {
	t.Parallel()

	f := setupHandler(t, nil)
	ctx := t.Context()

	require.NoError(t, f.users.Create(ctx, &models.User{ID: "5", FirstName: "Eve", Status: models.StatusNew}))

	f.handler.HandleCommand(ctx, adminCommand("new"))

	kb := f.msgr.lastKeyboard(t, "10")
	require.Len(t, kb, 1)
	require.Len(t, kb[0], 2)
	assert.Equal(t, "v1:grant:new:5", kb[0][0].Data)
	assert.Equal(t, "v1:block:new:5", kb[0][1].Data)
}

func TestApprovalButtonRoundTrip(t *testing.T) {
	t.Parallel()

	f := setupHandler(t, nil)
	ctx := t.Context()

	require.NoError(t, f.users.Create(ctx, &models.User{ID: "5", FirstName: "Eve", Status: models.StatusNew}))

	// A non-admin pressing a grant button is ignored outright.
	f.handler.HandleButton(ctx, chat.ButtonPress{Data: "v1:grant:new:5", UserID: "2", ChatID: "100"})
	user, err := f.users.Get(ctx, "5")
	require.NoError(t, err)
	assert.Equal(t, models.StatusNew, user.Status)

	f.handler.HandleButton(ctx, chat.ButtonPress{Data: "v1:grant:new:5", UserID: "1", ChatID: "10"})
	user, err = f.users.Get(ctx, "5")
	require.NoError(t, err)
	assert.Equal(t, models.StatusAllowed, user.Status)
}

func TestCommandHistoryRecordingAndListing(t *testing.T) {
	t.Parallel()

	f := setupHandler(t, func(cfg *domain.Config) {
		cfg.Bot.ExcludeAdminFromHistory = true
	})
	ctx := t.Context()
	f.grant(t, "2", "Alice")

	f.handler.HandleCommand(ctx, memberCommand("userid"))
	f.handler.HandleCommand(ctx, adminCommand("userid"))

	f.handler.HandleCommand(ctx, adminCommand("ch"))

	out := f.msgr.all("10")
	assert.Contains(t, out, "/userid - Alice - 2")
	assert.NotContains(t, out, "Admin - 1", "admin commands are excluded from history")
	assert.Contains(t, out, "Found 1 items in command history.")
}

func TestListTags(t *testing.T) {
	t.Parallel()

	f := setupHandler(t, nil)
	ctx := t.Context()
	f.grant(t, "2", "Jean-Luc")

	f.handler.HandleCommand(ctx, adminCommand("lt"))
	assert.Contains(t, f.msgr.all("10"), "jeanluc_2")
}

func TestUnknownCommand(t *testing.T) {
	t.Parallel()

	f := setupHandler(t, nil)
	f.grant(t, "2", "Alice")

	f.handler.HandleCommand(t.Context(), memberCommand("frobnicate"))
	assert.Contains(t, f.msgr.all("100"), "I didn't understand that command.")
}

func TestMalformedTokensAreIgnored(t *testing.T) {
	t.Parallel()

	f := setupHandler(t, nil)
	ctx := t.Context()
	f.grant(t, "2", "Alice")

	for _, data := range []string{
		"",
		"mediainfo:movie:5",
		"v0:mediainfo:movie:5",
		"v1:mediainfo:movie:x",
		"v1:deletemedia:movie:5",
		"v1:nonsense:movie:5",
	} {
		f.handler.HandleButton(ctx, chat.ButtonPress{Data: data, UserID: "2", ChatID: "100"})
	}

	assert.Empty(t, f.movies.deletedMedia)
	assert.Empty(t, f.msgr.keyboards["100"])
}
