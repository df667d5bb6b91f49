// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package bot routes chat commands and button presses to the media
// handlers. Every handler is gated by the access policy before it
// touches a backend.
package bot

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

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

// listLength caps buttons or lines per message before the output is
// split into a new one.
const listLength = 25

// SeriesBackend is the Sonarr surface the handlers use.
type SeriesBackend interface {
	Series(ctx context.Context) ([]arr.Media, error)
	SeriesByID(ctx context.Context, id int64) (arr.Media, error)
	Lookup(ctx context.Context, term string) ([]arr.Media, error)
	UpdateSeries(ctx context.Context, media arr.Media) (arr.Media, error)
	DeleteSeries(ctx context.Context, id int64, deleteFiles, addExclusion bool) error
	Queue(ctx context.Context) ([]arr.QueueItem, error)
	DeleteQueueItem(ctx context.Context, id int64) error
	Calendar(ctx context.Context, start, end time.Time) ([]arr.CalendarItem, error)
	Ping(ctx context.Context) (arr.SystemStatus, error)
	RSSSync(ctx context.Context) error
}

// MovieBackend is the Radarr surface the handlers use.
type MovieBackend interface {
	Movies(ctx context.Context) ([]arr.Media, error)
	MovieByID(ctx context.Context, id int64) (arr.Media, error)
	Lookup(ctx context.Context, term string) ([]arr.Media, error)
	UpdateMovie(ctx context.Context, media arr.Media) (arr.Media, error)
	DeleteMovie(ctx context.Context, id int64, deleteFiles, addExclusion bool) error
	Queue(ctx context.Context) ([]arr.QueueItem, error)
	DeleteQueueItem(ctx context.Context, id int64) error
	Calendar(ctx context.Context, start, end time.Time) ([]arr.CalendarItem, error)
	Ping(ctx context.Context) (arr.SystemStatus, error)
	RSSSync(ctx context.Context) error
	SearchMissing(ctx context.Context) error
}

// Params collects the handler dependencies. Series/Movies and their
// resolvers are nil when the backend is disabled.
type Params struct {
	Config     *domain.Config
	Messenger  chat.Messenger
	Users      *models.UserStore
	History    *models.HistoryStore
	Policy     *policy.Policy
	Approval   *approval.Service
	Wizard     *wizard.Wizard
	Series     SeriesBackend
	Movies     MovieBackend
	SeriesTags *tags.Resolver
	MovieTags  *tags.Resolver
	Rankings   ranking.Provider
}

// Handler implements chat.Handler for the full command set.
type Handler struct {
	cfg        *domain.Config
	msgr       chat.Messenger
	users      *models.UserStore
	history    *models.HistoryStore
	policy     *policy.Policy
	approval   *approval.Service
	wizard     *wizard.Wizard
	series     SeriesBackend
	movies     MovieBackend
	seriesTags *tags.Resolver
	movieTags  *tags.Resolver
	rankings   ranking.Provider

	started time.Time

	// batchDelay paces multi-message output so the platform does not
	// rate limit us. Zeroed in tests.
	batchDelay time.Duration

	log zerolog.Logger
}

func New(p Params) *Handler {
	return &Handler{
		cfg:        p.Config,
		msgr:       p.Messenger,
		users:      p.Users,
		history:    p.History,
		policy:     p.Policy,
		approval:   p.Approval,
		wizard:     p.Wizard,
		series:     p.Series,
		movies:     p.Movies,
		seriesTags: p.SeriesTags,
		movieTags:  p.MovieTags,
		rankings:   p.Rankings,
		started:    time.Now(),
		batchDelay: 2 * time.Second,
		log:        log.With().Str("module", "bot").Logger(),
	}
}

// adminCommands and memberCommands partition the command set by the
// access level they require. Everything else only needs the signup
// gate.
var (
	adminCommands = map[string]bool{
		"new": true, "am": true, "bm": true, "ch": true,
		"lt": true, "open": true, "close": true,
	}
	memberCommands = map[string]bool{
		"ls": true, "lm": true, "ms": true, "mm": true, "ns": true, "nm": true,
		"qu": true, "fq": true, "sc": true, "mc": true,
		"ts": true, "ps": true, "tm": true, "pm": true, "ti": true, "wm": true,
		"ds": true, "dm": true, "rss": true, "smm": true, "sts": true,
	}
)

func (h *Handler) HandleCommand(ctx context.Context, cmd chat.Command) {
	h.log.Debug().Str("user_id", cmd.UserID).Str("command", cmd.Name).Msg("command received")
	h.recordHistory(ctx, cmd)

	switch {
	case adminCommands[cmd.Name]:
		if !h.policy.IsAdmin(cmd.UserID) {
			return
		}
	case memberCommands[cmd.Name]:
		if !h.isMember(ctx, cmd.UserID) {
			return
		}
	default:
		if !h.mayApproach(ctx, cmd.UserID) {
			return
		}
	}

	switch cmd.Name {
	case "start":
		h.start(ctx, cmd)
	case "help":
		h.help(ctx, cmd)
	case "userid":
		h.userid(ctx, cmd)
	case "signup":
		h.signup(ctx, cmd)
	case "ls":
		h.listCatalog(ctx, cmd, domain.MediaTypeSeries, catalogAll)
	case "lm":
		h.listCatalog(ctx, cmd, domain.MediaTypeMovie, catalogAll)
	case "ms":
		h.listCatalog(ctx, cmd, domain.MediaTypeSeries, catalogMine)
	case "mm":
		h.listCatalog(ctx, cmd, domain.MediaTypeMovie, catalogMine)
	case "ns":
		h.listCatalog(ctx, cmd, domain.MediaTypeSeries, catalogNew)
	case "nm":
		h.listCatalog(ctx, cmd, domain.MediaTypeMovie, catalogNew)
	case "ds":
		h.findMedia(ctx, cmd, domain.MediaTypeSeries)
	case "dm":
		h.findMedia(ctx, cmd, domain.MediaTypeMovie)
	case "qu":
		h.showQueue(ctx, cmd)
	case "fq":
		h.futureQueue(ctx, cmd)
	case "sc":
		h.calendar(ctx, cmd, domain.MediaTypeSeries)
	case "mc":
		h.calendar(ctx, cmd, domain.MediaTypeMovie)
	case "ts", "ps", "tm", "pm", "ti", "wm":
		h.showRankings(ctx, cmd)
	case "sts":
		h.serviceStatus(ctx, cmd)
	case "rss":
		h.rssSync(ctx, cmd)
	case "smm":
		h.searchMissing(ctx, cmd.ChatID)
	case "new":
		h.listMembers(ctx, cmd, models.StatusNew)
	case "am":
		h.listMembers(ctx, cmd, models.StatusAllowed)
	case "bm":
		h.listMembers(ctx, cmd, models.StatusBlocked)
	case "ch":
		h.commandHistory(ctx, cmd)
	case "lt":
		h.listTags(ctx, cmd)
	case "open":
		h.toggleSignup(ctx, cmd, true)
	case "close":
		h.toggleSignup(ctx, cmd, false)
	default:
		h.send(ctx, cmd.ChatID, "Sorry "+cmd.FirstName+", I didn't understand that command.")
	}
}

func (h *Handler) HandleButton(ctx context.Context, press chat.ButtonPress) {
	parts := strings.SplitN(press.Data, ":", 3)
	if len(parts) < 3 || parts[0] != tokenVersion {
		h.log.Warn().Str("data", press.Data).Msg("ignoring malformed callback token")
		return
	}

	switch parts[1] {
	case string(approval.ActionGrant), string(approval.ActionBlock):
		if !h.policy.IsAdmin(press.UserID) {
			return
		}
		action, source, userID, err := approval.DecodeToken(press.Data)
		if err != nil {
			h.log.Warn().Err(err).Str("data", press.Data).Msg("bad approval token")
			return
		}
		if err := h.approval.Decide(ctx, press, action, source, userID); err != nil {
			h.log.Error().Err(err).Msg("approval decision failed")
		}

	case string(wizard.StepSummary), string(wizard.StepLanguage), string(wizard.StepAvailability),
		string(wizard.StepRootFolder), string(wizard.StepConfirm), string(wizard.StepDownload):
		if !h.isMember(ctx, press.UserID) {
			return
		}
		step, sel, err := wizard.Decode(press.Data)
		if err != nil {
			h.log.Warn().Err(err).Str("data", press.Data).Msg("bad wizard token")
			return
		}
		if err := h.wizard.HandleStep(ctx, press, step, sel); err != nil {
			h.log.Error().Err(err).Str("step", string(step)).Msg("wizard step failed")
		}

	case string(actionMediaInfo):
		h.memberButton(ctx, press, h.showMediaInfo)
	case string(actionDeleteMedia):
		h.memberButton(ctx, press, h.deleteMedia)
	case string(actionDeleteQueue):
		h.memberButton(ctx, press, h.deleteQueueItem)
	case string(actionExtendPeriod):
		h.memberButton(ctx, press, h.extendPeriod)
	case string(actionKeepMedia):
		h.memberButton(ctx, press, h.keepMedia)
	case string(actionSearchMissing):
		if h.isMember(ctx, press.UserID) {
			h.searchMissing(ctx, press.ChatID)
		}

	default:
		h.log.Warn().Str("data", press.Data).Msg("unknown callback token")
	}
}

func (h *Handler) memberButton(ctx context.Context, press chat.ButtonPress, fn func(context.Context, chat.ButtonPress) error) {
	if !h.isMember(ctx, press.UserID) {
		return
	}
	if err := fn(ctx, press); err != nil {
		h.log.Error().Err(err).Str("data", press.Data).Msg("button handler failed")
	}
}

// isMember reports whether the user may run member commands: granted
// and not blocked.
func (h *Handler) isMember(ctx context.Context, userID string) bool {
	blocked, err := h.policy.IsBlocked(ctx, userID)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("blocked lookup failed")
		return false
	}
	if blocked {
		return false
	}
	granted, err := h.policy.IsGranted(ctx, userID)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("granted lookup failed")
		return false
	}
	return granted
}

// mayApproach gates the signup-level commands: members always, and
// otherwise only unblocked users while signup is open.
func (h *Handler) mayApproach(ctx context.Context, userID string) bool {
	if h.isMember(ctx, userID) {
		return true
	}
	blocked, err := h.policy.IsBlocked(ctx, userID)
	if err != nil || blocked {
		return false
	}
	return h.policy.SignupOpen()
}

func (h *Handler) recordHistory(ctx context.Context, cmd chat.Command) {
	if h.cfg.Bot.ExcludeAdminFromHistory && h.policy.IsAdmin(cmd.UserID) {
		return
	}

	line := "/" + cmd.Name
	if len(cmd.Args) > 0 {
		line += " " + strings.Join(cmd.Args, " ")
	}
	if err := h.history.Record(ctx, cmd.UserID, cmd.FirstName, line); err != nil {
		h.log.Error().Err(err).Msg("failed to record command history")
	}
}

// send delivers a plain text message and logs delivery failures
// instead of surfacing them, matching how chatty handlers degrade.
func (h *Handler) send(ctx context.Context, chatID, text string) {
	if err := h.msgr.SendText(ctx, chatID, text); err != nil {
		h.log.Error().Err(err).Str("chat_id", chatID).Msg("failed to send message")
	}
}

func (h *Handler) sendKeyboard(ctx context.Context, chatID, text string, kb chat.Keyboard) {
	if err := h.msgr.SendKeyboard(ctx, chatID, text, kb); err != nil {
		h.log.Error().Err(err).Str("chat_id", chatID).Msg("failed to send keyboard")
	}
}

func (h *Handler) pause(ctx context.Context) {
	if h.batchDelay <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(h.batchDelay):
	}
}
