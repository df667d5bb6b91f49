// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package bot

import (
	"context"

	"github.com/autobrr/pixlovarr/internal/buildinfo"
	"github.com/autobrr/pixlovarr/internal/chat"
)

const baseHelp = `-- Commands --
/start - Start this bot
/help - Show this text
/signup - Request access
/userid - Show your userid
`

const memberHelp = `/ls #<genre> <key> - List all series
/lm #<genre> <key> - List all movies
/ms #<genre> <key> - List my series
/mm #<genre> <key> - List my movies
/ns #<genre> <key> - List new series
/nm #<genre> <key> - List new movies
/qu - List all queued items
/ts T<#> - Show Top series
/ps T<#> - Show Top popular series
/tm T<#> - Show Top movies
/pm T<#> - Show Top popular movies
/ti T<#> - Show Top Indian movies
/wm T<#> - Show Top worst movies
/fq - Show announced items in catalog
/sc - Show series calendar
/mc - Show movies calendar
/sts - Service status info
/rss - Trigger RSS fetching
/smm - Trigger missing media search
/ds T<#> <key> - Download series
/dm T<#> <key> - Download movie
`

const adminHelp = `
-- Admin commands --
/new - Show all new signups
/am - Show all allowed members
/bm - Show all blocked members
/ch - Show command history
/lt - List tags
/open - Open signup
/close - Close signup
`

func (h *Handler) start(ctx context.Context, cmd chat.Command) {
	if h.isMember(ctx, cmd.UserID) {
		h.send(ctx, cmd.ChatID, "You are still granted for the service.")
		return
	}

	h.send(ctx, cmd.ChatID,
		"Welcome "+cmd.FirstName+" to Pixlovarr, I'm your assistant for "+
			"downloading series and movies. Please use /help for more "+
			"information. But first request access with /signup.")
}

func (h *Handler) help(ctx context.Context, cmd chat.Command) {
	text := baseHelp
	if h.isMember(ctx, cmd.UserID) {
		text += memberHelp
	}
	if h.policy.IsAdmin(cmd.UserID) {
		text += adminHelp
	}
	text += "\nversion: " + buildinfo.Version + "\n"

	h.send(ctx, cmd.ChatID, text)
}

func (h *Handler) userid(ctx context.Context, cmd chat.Command) {
	h.send(ctx, cmd.ChatID, "Hi "+cmd.FirstName+", your userid is "+cmd.UserID+".")
}

func (h *Handler) signup(ctx context.Context, cmd chat.Command) {
	if err := h.approval.RequestAccess(ctx, cmd); err != nil {
		h.log.Error().Err(err).Str("user_id", cmd.UserID).Msg("signup request failed")
	}
}
