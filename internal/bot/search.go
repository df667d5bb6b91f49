// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/autobrr/pixlovarr/internal/arr"
	"github.com/autobrr/pixlovarr/internal/bot/wizard"
	"github.com/autobrr/pixlovarr/internal/chat"
	"github.com/autobrr/pixlovarr/internal/domain"
)

// findMedia handles /ds and /dm: look the query up on the backend and
// offer a download wizard button per result not yet in the catalog,
// plus info buttons for results that already are.
func (h *Handler) findMedia(ctx context.Context, cmd chat.Command, mediaType domain.MediaType) {
	if mediaType == domain.MediaTypeSeries && h.series == nil ||
		mediaType == domain.MediaTypeMovie && h.movies == nil {
		return
	}

	args := cmd.Args
	limit, _ := h.parseTopAmount("")
	if len(args) > 0 {
		if n, ok := h.parseTopAmount(args[0]); ok {
			limit = n
			args = args[1:]
		}
	}

	term := strings.Join(args, " ")
	if term == "" {
		h.send(ctx, cmd.ChatID, fmt.Sprintf("Please specify a query, %s.", cmd.FirstName))
		return
	}

	label := string(mediaType)
	h.send(ctx, cmd.ChatID, fmt.Sprintf("Searching for %ss...", label))

	var (
		results []arr.Media
		err     error
	)
	if mediaType == domain.MediaTypeSeries {
		results, err = h.series.Lookup(ctx, term)
	} else {
		results, err = h.movies.Lookup(ctx, term)
	}
	if err != nil {
		h.log.Error().Err(err).Str("term", term).Msg("lookup failed")
		h.send(ctx, cmd.ChatID, "Something went wrong...")
		return
	}

	var present, absent []chat.Button
	for _, m := range results {
		if len(absent) >= limit {
			break
		}

		btn := chat.Button{Label: fmt.Sprintf("%s (%d)", m.Title, m.Year)}
		if m.ID != 0 {
			btn.Data = mediaToken(actionMediaInfo, mediaType, m.ID)
			present = append(present, btn)
			continue
		}

		// Results without the external id we key on cannot start the
		// wizard.
		token := wizard.StartToken(m, mediaType)
		if token == "" {
			continue
		}
		btn.Data = token
		absent = append(absent, btn)
	}

	if len(present) == 0 && len(absent) == 0 {
		h.send(ctx, cmd.ChatID, fmt.Sprintf("The specified query has no results, %s.", cmd.FirstName))
		return
	}

	if len(present) > 0 {
		h.sendKeyboard(ctx, cmd.ChatID,
			fmt.Sprintf("We found these %ss in your catalog:", label), chat.Rows(present...))
	}
	if len(absent) > 0 {
		h.sendKeyboard(ctx, cmd.ChatID,
			"We found the following media for you:", chat.Rows(absent...))
	}
}
