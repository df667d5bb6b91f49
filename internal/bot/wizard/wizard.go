// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package wizard

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/autobrr/pixlovarr/internal/arr"
	"github.com/autobrr/pixlovarr/internal/chat"
	"github.com/autobrr/pixlovarr/internal/domain"
	"github.com/autobrr/pixlovarr/internal/tags"
)

// SeriesBackend is the Sonarr surface the wizard needs.
type SeriesBackend interface {
	LookupByTVDB(ctx context.Context, tvdbID int64) (arr.Media, error)
	QualityProfiles(ctx context.Context) ([]arr.QualityProfile, error)
	LanguageProfiles(ctx context.Context) ([]arr.LanguageProfile, error)
	RootFolders(ctx context.Context) ([]arr.RootFolder, error)
	AddSeries(ctx context.Context, req arr.AddSeriesRequest) (arr.Media, error)
}

// MovieBackend is the Radarr surface the wizard needs.
type MovieBackend interface {
	LookupByIMDB(ctx context.Context, imdbID string) (arr.Media, error)
	QualityProfiles(ctx context.Context) ([]arr.QualityProfile, error)
	RootFolders(ctx context.Context) ([]arr.RootFolder, error)
	AddMovie(ctx context.Context, req arr.AddMovieRequest) (arr.Media, error)
}

// Wizard walks a user through quality, language/availability, root
// folder, and scope before submitting the download.
type Wizard struct {
	cfg        *domain.Config
	msgr       chat.Messenger
	series     SeriesBackend
	movies     MovieBackend
	seriesTags *tags.Resolver
	movieTags  *tags.Resolver
	log        zerolog.Logger
}

func New(cfg *domain.Config, msgr chat.Messenger, series SeriesBackend, movies MovieBackend, seriesTags, movieTags *tags.Resolver) *Wizard {
	return &Wizard{
		cfg:        cfg,
		msgr:       msgr,
		series:     series,
		movies:     movies,
		seriesTags: seriesTags,
		movieTags:  movieTags,
		log:        log.With().Str("module", "wizard").Logger(),
	}
}

// StartToken returns the token that opens the wizard for a lookup
// result, or "" when the media lacks the external id we key on.
func StartToken(media arr.Media, mediaType domain.MediaType) string {
	sel := Selection{MediaType: mediaType}
	switch mediaType {
	case domain.MediaTypeSeries:
		if media.TVDBID == 0 {
			return ""
		}
		sel.MediaID = strconv.FormatInt(media.TVDBID, 10)
	case domain.MediaTypeMovie:
		if media.IMDBID == "" {
			return ""
		}
		sel.MediaID = media.IMDBID
	}
	return Encode(StepSummary, sel)
}

// HandleStep advances the dialog for a decoded token.
func (w *Wizard) HandleStep(ctx context.Context, press chat.ButtonPress, step Step, sel Selection) error {
	if sel.MediaType == domain.MediaTypeSeries && w.series == nil {
		return w.msgr.SendText(ctx, press.ChatID, "Series support is not enabled.")
	}
	if sel.MediaType == domain.MediaTypeMovie && w.movies == nil {
		return w.msgr.SendText(ctx, press.ChatID, "Movie support is not enabled.")
	}

	switch step {
	case StepSummary:
		return w.showSummary(ctx, press.ChatID, sel)
	case StepLanguage:
		return w.chooseLanguage(ctx, press.ChatID, sel)
	case StepAvailability:
		return w.chooseAvailability(ctx, press.ChatID, sel)
	case StepRootFolder:
		return w.chooseRootFolder(ctx, press, sel)
	case StepConfirm:
		return w.confirm(ctx, press.ChatID, sel)
	case StepDownload:
		return w.download(ctx, press, sel)
	default:
		return fmt.Errorf("unhandled wizard step: %s", step)
	}
}

func (w *Wizard) lookup(ctx context.Context, sel Selection) (arr.Media, error) {
	if sel.MediaType == domain.MediaTypeSeries {
		tvdbID, err := strconv.ParseInt(sel.MediaID, 10, 64)
		if err != nil {
			return arr.Media{}, fmt.Errorf("bad tvdb id %q: %w", sel.MediaID, err)
		}
		return w.series.LookupByTVDB(ctx, tvdbID)
	}
	return w.movies.LookupByIMDB(ctx, sel.MediaID)
}

func (w *Wizard) showSummary(ctx context.Context, chatID string, sel Selection) error {
	media, err := w.lookup(ctx, sel)
	if err != nil {
		return w.fail(ctx, chatID, err)
	}

	if poster := media.RemotePoster(); poster != "" {
		caption := fmt.Sprintf("%s (%d)", media.Title, media.Year)
		if err := w.msgr.SendPhoto(ctx, chatID, poster, caption); err != nil {
			w.log.Debug().Err(err).Msg("failed to send poster")
		}
	}
	if media.Overview != "" {
		if err := w.msgr.SendText(ctx, chatID, media.Overview); err != nil {
			return err
		}
	}

	var profiles []arr.QualityProfile
	if sel.MediaType == domain.MediaTypeSeries {
		profiles, err = w.series.QualityProfiles(ctx)
	} else {
		profiles, err = w.movies.QualityProfiles(ctx)
	}
	if err != nil {
		return w.fail(ctx, chatID, err)
	}

	next := StepAvailability
	if sel.MediaType == domain.MediaTypeSeries {
		next = StepLanguage
	}

	buttons := make([]chat.Button, 0, len(profiles))
	for _, p := range profiles {
		s := sel
		s.QualityID = p.ID
		buttons = append(buttons, chat.Button{Label: p.Name, Data: Encode(next, s)})
	}

	return w.msgr.SendKeyboard(ctx, chatID, "Select a quality profile:", chat.Rows(buttons...))
}

func (w *Wizard) chooseLanguage(ctx context.Context, chatID string, sel Selection) error {
	profiles, err := w.series.LanguageProfiles(ctx)
	if err != nil {
		return w.fail(ctx, chatID, err)
	}

	buttons := make([]chat.Button, 0, len(profiles))
	for _, p := range profiles {
		s := sel
		s.OptionID = p.ID
		buttons = append(buttons, chat.Button{Label: p.Name, Data: Encode(StepRootFolder, s)})
	}

	return w.msgr.SendKeyboard(ctx, chatID, "Select a language profile:", chat.Rows(buttons...))
}

func (w *Wizard) chooseAvailability(ctx context.Context, chatID string, sel Selection) error {
	buttons := make([]chat.Button, 0, len(domain.Availabilities))
	for i, name := range domain.Availabilities {
		s := sel
		s.OptionID = i
		buttons = append(buttons, chat.Button{Label: name, Data: Encode(StepRootFolder, s)})
	}

	return w.msgr.SendKeyboard(ctx, chatID, "Select minimum availability:", chat.Rows(buttons...))
}

func (w *Wizard) chooseRootFolder(ctx context.Context, press chat.ButtonPress, sel Selection) error {
	chatID := press.ChatID

	var folders []arr.RootFolder
	var err error
	if sel.MediaType == domain.MediaTypeSeries {
		folders, err = w.series.RootFolders(ctx)
	} else {
		folders, err = w.movies.RootFolders(ctx)
	}
	if err != nil {
		return w.fail(ctx, chatID, err)
	}
	if len(folders) == 0 {
		return w.msgr.SendText(ctx, chatID, "No root folders are configured.")
	}

	// The admin always gets the full list to pick from.
	if w.cfg.Bot.OnlyLargestFreeSpacePath && press.UserID != w.cfg.Bot.AdminUserID {
		largest := folders[0]
		for _, f := range folders[1:] {
			if f.FreeSpace > largest.FreeSpace {
				largest = f
			}
		}
		folders = []arr.RootFolder{largest}
	}

	buttons := make([]chat.Button, 0, len(folders))
	for _, f := range folders {
		s := sel
		s.RootFolderID = f.ID
		label := fmt.Sprintf("%s (%s free)", f.Path, humanize.IBytes(uint64(f.FreeSpace)))
		buttons = append(buttons, chat.Button{Label: label, Data: Encode(StepConfirm, s)})
	}

	return w.msgr.SendKeyboard(ctx, chatID, "Select a download location:", chat.Rows(buttons...))
}

func (w *Wizard) confirm(ctx context.Context, chatID string, sel Selection) error {
	if sel.MediaType == domain.MediaTypeMovie {
		s := sel
		s.Scope = domain.ScopeAll
		kb := chat.Rows(chat.Button{Label: "Start download", Data: Encode(StepDownload, s)})
		return w.msgr.SendKeyboard(ctx, chatID, "Ready to download?", kb)
	}

	buttons := make([]chat.Button, 0, len(domain.SeriesScopes))
	for _, scope := range domain.SeriesScopes {
		s := sel
		s.Scope = scope
		buttons = append(buttons, chat.Button{Label: string(scope), Data: Encode(StepDownload, s)})
	}

	return w.msgr.SendKeyboard(ctx, chatID, "Which episodes should be monitored?", chat.Rows(buttons...))
}

func (w *Wizard) download(ctx context.Context, press chat.ButtonPress, sel Selection) error {
	media, err := w.lookup(ctx, sel)
	if err != nil {
		return w.fail(ctx, press.ChatID, err)
	}

	if media.ID != 0 {
		return w.msgr.SendText(ctx, press.ChatID,
			fmt.Sprintf("%s (%d) is already in the catalog.", media.Title, media.Year))
	}

	if sel.MediaType == domain.MediaTypeSeries {
		err = w.addSeries(ctx, press, media, sel)
	} else {
		err = w.addMovie(ctx, press, media, sel)
	}
	if err != nil {
		return w.fail(ctx, press.ChatID, err)
	}

	w.log.Info().
		Str("user_id", press.UserID).
		Str("title", media.Title).
		Str("type", string(sel.MediaType)).
		Msg("download requested")

	return w.msgr.SendText(ctx, press.ChatID,
		fmt.Sprintf("Download of %s (%d) has been requested, %s.", media.Title, media.Year, press.FirstName))
}

func (w *Wizard) addSeries(ctx context.Context, press chat.ButtonPress, media arr.Media, sel Selection) error {
	folderPath, err := w.folderPath(ctx, sel)
	if err != nil {
		return err
	}

	tag, err := w.seriesTags.EnsureUserTag(ctx, press.UserID, press.FirstName)
	if err != nil {
		return err
	}

	req := arr.AddSeriesRequest{
		Title:             media.Title,
		TVDBID:            media.TVDBID,
		QualityProfileID:  sel.QualityID,
		LanguageProfileID: sel.OptionID,
		RootFolderPath:    folderPath,
		SeasonFolder:      w.cfg.Sonarr.SeasonFolder,
		Monitored:         sel.Scope != domain.ScopeNone,
		Seasons:           media.Seasons,
		Tags:              []int{tag.ID},
	}
	req.AddOptions.Monitor = string(sel.Scope)
	req.AddOptions.SearchForMissingEpisodes = sel.Scope != domain.ScopeNone

	_, err = w.series.AddSeries(ctx, req)
	return err
}

func (w *Wizard) addMovie(ctx context.Context, press chat.ButtonPress, media arr.Media, sel Selection) error {
	folderPath, err := w.folderPath(ctx, sel)
	if err != nil {
		return err
	}

	availability, err := domain.AvailabilityByIndex(sel.OptionID)
	if err != nil {
		return err
	}

	tag, err := w.movieTags.EnsureUserTag(ctx, press.UserID, press.FirstName)
	if err != nil {
		return err
	}

	req := arr.AddMovieRequest{
		Title:               media.Title,
		TMDBID:              media.TMDBID,
		IMDBID:              media.IMDBID,
		QualityProfileID:    sel.QualityID,
		RootFolderPath:      folderPath,
		MinimumAvailability: availability,
		Monitored:           true,
		Tags:                []int{tag.ID},
	}
	req.AddOptions.SearchForMovie = true

	_, err = w.movies.AddMovie(ctx, req)
	return err
}

func (w *Wizard) folderPath(ctx context.Context, sel Selection) (string, error) {
	var folders []arr.RootFolder
	var err error
	if sel.MediaType == domain.MediaTypeSeries {
		folders, err = w.series.RootFolders(ctx)
	} else {
		folders, err = w.movies.RootFolders(ctx)
	}
	if err != nil {
		return "", err
	}
	for _, f := range folders {
		if f.ID == sel.RootFolderID {
			return f.Path, nil
		}
	}
	return "", fmt.Errorf("root folder %d no longer exists", sel.RootFolderID)
}

func (w *Wizard) fail(ctx context.Context, chatID string, err error) error {
	w.log.Error().Err(err).Msg("wizard step failed")
	msg := "Something went wrong, please try again later."
	if strings.Contains(err.Error(), "no longer exists") {
		msg = "That selection is no longer valid, please start over."
	}
	if sendErr := w.msgr.SendText(ctx, chatID, msg); sendErr != nil {
		return sendErr
	}
	return err
}
