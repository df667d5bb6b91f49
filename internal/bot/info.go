// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/autobrr/pixlovarr/internal/arr"
	"github.com/autobrr/pixlovarr/internal/chat"
	"github.com/autobrr/pixlovarr/internal/domain"
	"github.com/autobrr/pixlovarr/internal/tags"
)

const (
	// posterFallbackURL is shown when the backend has no artwork.
	posterFallbackURL = "https://postimg.cc/3dfySHP9"
	youTubeWatchURL   = "https://www.youtube.com/watch?v="

	// overviewLimit keeps the description inside the platform's
	// message size cap.
	overviewLimit = 4092
)

func (h *Handler) mediaByID(ctx context.Context, mediaType domain.MediaType, id int64) (arr.Media, *tags.Resolver, error) {
	if mediaType == domain.MediaTypeSeries {
		if h.series == nil {
			return arr.Media{}, nil, fmt.Errorf("series backend disabled")
		}
		media, err := h.series.SeriesByID(ctx, id)
		return media, h.seriesTags, err
	}
	if h.movies == nil {
		return arr.Media{}, nil, fmt.Errorf("movie backend disabled")
	}
	media, err := h.movies.MovieByID(ctx, id)
	return media, h.movieTags, err
}

func (h *Handler) arrConfig(mediaType domain.MediaType) domain.ArrConfig {
	if mediaType == domain.MediaTypeSeries {
		return h.cfg.Sonarr
	}
	return h.cfg.Radarr
}

// mediaInfoText assembles the description block under the poster.
func mediaInfoText(media arr.Media) string {
	var b strings.Builder

	overview := media.Overview
	if overview == "" {
		overview = "No description available."
	}
	if len(overview) > overviewLimit {
		overview = overview[:overviewLimit]
	}
	b.WriteString(overview + "\n\n")

	if media.InCinemas != nil {
		fmt.Fprintf(&b, "In cinemas: %s\n\n", media.InCinemas.Format("2006-01-02"))
	}
	if media.FirstAired != nil {
		fmt.Fprintf(&b, "First aired: %s\n\n", media.FirstAired.Format("2006-01-02"))
	}
	if media.Statistics != nil && media.Statistics.EpisodeCount > 0 {
		fmt.Fprintf(&b, "Episode count: %d\n\n", media.Statistics.EpisodeCount)
	}
	if len(media.Genres) > 0 {
		fmt.Fprintf(&b, "Genres: %s\n\n", strings.Join(media.Genres, ", "))
	}
	if media.Runtime > 0 {
		fmt.Fprintf(&b, "Runtime: %d minutes\n\n", media.Runtime)
	}
	if media.Status != "" {
		fmt.Fprintf(&b, "Status: %s\n\n", media.Status)
	}
	if media.Network != "" {
		fmt.Fprintf(&b, "Network: %s\n\n", media.Network)
	}
	if media.Studio != "" {
		fmt.Fprintf(&b, "Studio: %s\n\n", media.Studio)
	}

	return strings.TrimRight(b.String(), "\n")
}

func (h *Handler) showMediaInfo(ctx context.Context, press chat.ButtonPress) error {
	mediaType, id, err := decodeMediaToken(press.Data)
	if err != nil {
		return err
	}

	media, resolver, err := h.mediaByID(ctx, mediaType, id)
	if err != nil {
		h.send(ctx, press.ChatID, "Something went wrong...")
		return err
	}

	h.log.Info().Str("user_id", press.UserID).
		Str("title", media.Title).Int("year", media.Year).Msg("media info requested")

	poster := media.RemotePoster()
	if poster == "" {
		poster = posterFallbackURL
	}
	caption := fmt.Sprintf("%s (%d)", media.Title, media.Year)
	if err := h.msgr.SendPhoto(ctx, press.ChatID, poster, caption); err != nil {
		h.log.Error().Err(err).Msg("failed to send poster")
	}

	h.send(ctx, press.ChatID, mediaInfoText(media))
	if media.YouTubeTrailerID != "" {
		h.send(ctx, press.ChatID, youTubeWatchURL+media.YouTubeTrailerID)
	}

	kb, err := h.mediaActions(ctx, press.UserID, mediaType, media, resolver)
	if err != nil {
		return err
	}
	if len(kb) > 0 {
		h.sendKeyboard(ctx, press.ChatID, "Actions:", kb)
	}
	return nil
}

// mediaActions builds the action keyboard under a media info view.
// Which buttons show depends on the caller's rights and the media's
// keep/extend tags.
func (h *Handler) mediaActions(ctx context.Context, userID string, mediaType domain.MediaType, media arr.Media, resolver *tags.Resolver) (chat.Keyboard, error) {
	arrCfg := h.arrConfig(mediaType)
	isAdmin := h.policy.IsAdmin(userID)
	name := fmt.Sprintf("%s (%d)", media.Title, media.Year)

	keepIDs, err := resolver.IDsForLabels(ctx, arrCfg.TagsKeep)
	if err != nil {
		return nil, err
	}
	kept := tags.HasAny(media.Tags, keepIDs)

	var kb chat.Keyboard

	if !kept || isAdmin {
		owners, err := resolver.OwnerIDs(ctx, media.Tags)
		if err != nil {
			return nil, err
		}
		if h.policy.CanDelete(userID, owners) {
			deleteFiles := isAdmin || h.policy.DeleteFiles()
			kb = append(kb, []chat.Button{{
				Label: fmt.Sprintf("Delete '%s'", name),
				Data:  deleteToken(mediaType, media.ID, deleteFiles),
			}})
		}
	}

	if mediaType == domain.MediaTypeMovie {
		extendIDs, err := resolver.IDsForLabels(ctx, arrCfg.TagsExtendPeriod)
		if err != nil {
			return nil, err
		}
		if !tags.HasAny(media.Tags, extendIDs) {
			kb = append(kb, []chat.Button{{
				Label: fmt.Sprintf("Extend '%s' with %d days", name, h.cfg.Prune.ExtendPeriodByDays),
				Data:  mediaToken(actionExtendPeriod, mediaType, media.ID),
			}})
		}
	}

	if !kept && isAdmin {
		kb = append(kb, []chat.Button{{
			Label: fmt.Sprintf("Keep '%s'", name),
			Data:  mediaToken(actionKeepMedia, mediaType, media.ID),
		}})
	}

	if mediaType == domain.MediaTypeMovie && !media.HasFile {
		kb = append(kb, []chat.Button{{
			Label: fmt.Sprintf("Search '%s'", name),
			Data:  searchMissingToken(),
		}})
	}

	return kb, nil
}

func (h *Handler) deleteMedia(ctx context.Context, press chat.ButtonPress) error {
	mediaType, id, deleteFiles, err := decodeDeleteToken(press.Data)
	if err != nil {
		return err
	}

	media, resolver, err := h.mediaByID(ctx, mediaType, id)
	if err != nil {
		h.send(ctx, press.ChatID, "Something went wrong...")
		return err
	}

	// Re-check ownership at press time, the button may be stale.
	owners, err := resolver.OwnerIDs(ctx, media.Tags)
	if err != nil {
		return err
	}
	if !h.policy.CanDelete(press.UserID, owners) {
		return nil
	}

	exclusion := h.arrConfig(mediaType).AutoAddExclusion
	if mediaType == domain.MediaTypeSeries {
		err = h.series.DeleteSeries(ctx, id, deleteFiles, exclusion)
	} else {
		err = h.movies.DeleteMovie(ctx, id, deleteFiles, exclusion)
	}
	if err != nil {
		h.send(ctx, press.ChatID, "Something went wrong...")
		return err
	}

	h.log.Info().Str("user_id", press.UserID).Str("title", media.Title).
		Bool("delete_files", deleteFiles).Msg("media deleted")
	h.send(ctx, press.ChatID, fmt.Sprintf("The %s has been deleted.", mediaType))
	return nil
}

// addTag attaches one tag to the media unless it already carries any
// of the resolved set.
func (h *Handler) addTag(ctx context.Context, mediaType domain.MediaType, media arr.Media, resolver *tags.Resolver, labels []string) (bool, error) {
	if len(labels) == 0 {
		return false, nil
	}

	ids, err := resolver.IDsForLabels(ctx, labels)
	if err != nil {
		return false, err
	}
	if len(ids) == 0 {
		tag, err := resolver.Ensure(ctx, labels[0])
		if err != nil {
			return false, err
		}
		ids = []int{tag.ID}
	}
	if tags.HasAny(media.Tags, ids) {
		return false, nil
	}

	media.Tags = append(media.Tags, ids[0])
	if mediaType == domain.MediaTypeSeries {
		_, err = h.series.UpdateSeries(ctx, media)
	} else {
		_, err = h.movies.UpdateMovie(ctx, media)
	}
	return err == nil, err
}

func (h *Handler) keepMedia(ctx context.Context, press chat.ButtonPress) error {
	mediaType, id, err := decodeMediaToken(press.Data)
	if err != nil {
		return err
	}
	if !h.policy.IsAdmin(press.UserID) {
		return nil
	}

	media, resolver, err := h.mediaByID(ctx, mediaType, id)
	if err != nil {
		return err
	}

	tagged, err := h.addTag(ctx, mediaType, media, resolver, h.arrConfig(mediaType).TagsKeep)
	if err != nil {
		h.send(ctx, press.ChatID, "Something went wrong...")
		return err
	}
	if tagged {
		h.log.Info().Str("user_id", press.UserID).Str("title", media.Title).Msg("media kept")
		h.send(ctx, press.ChatID,
			fmt.Sprintf("The %s is kept on the server and refrained from pruning.", mediaType))
	}
	return nil
}

func (h *Handler) extendPeriod(ctx context.Context, press chat.ButtonPress) error {
	mediaType, id, err := decodeMediaToken(press.Data)
	if err != nil {
		return err
	}
	if mediaType != domain.MediaTypeMovie {
		return nil
	}

	media, resolver, err := h.mediaByID(ctx, mediaType, id)
	if err != nil {
		return err
	}

	tagged, err := h.addTag(ctx, mediaType, media, resolver, h.cfg.Radarr.TagsExtendPeriod)
	if err != nil {
		h.send(ctx, press.ChatID, "Something went wrong...")
		return err
	}
	if tagged {
		h.log.Info().Str("user_id", press.UserID).Str("title", media.Title).Msg("media retention extended")
		h.send(ctx, press.ChatID,
			fmt.Sprintf("The movie retention is extended with another %d days.", h.cfg.Prune.ExtendPeriodByDays))
	}
	return nil
}
