// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/autobrr/pixlovarr/internal/approval"
	"github.com/autobrr/pixlovarr/internal/chat"
	"github.com/autobrr/pixlovarr/internal/models"
	"github.com/autobrr/pixlovarr/internal/tags"
)

var memberListTexts = map[models.UserStatus]struct{ header, empty string }{
	models.StatusNew:     {"These are your new signups. Please Grant or Block:", "No new signups in the queue."},
	models.StatusAllowed: {"These are your members. Please block if needed:", "No members in the list."},
	models.StatusBlocked: {"These members are blocked. Please grant if needed:", "No members in the list."},
}

// listMembers backs /new, /am and /bm: one button row per user with
// the transitions valid from their current status.
func (h *Handler) listMembers(ctx context.Context, cmd chat.Command, status models.UserStatus) {
	users, err := h.users.ListByStatus(ctx, status)
	if err != nil {
		h.log.Error().Err(err).Str("status", string(status)).Msg("member list failed")
		h.send(ctx, cmd.ChatID, "Something went wrong...")
		return
	}

	texts := memberListTexts[status]
	if len(users) == 0 {
		h.send(ctx, cmd.ChatID, texts.empty)
		return
	}

	var kb chat.Keyboard
	for _, user := range users {
		kb = append(kb, approval.Keyboard(user)...)
	}
	h.sendKeyboard(ctx, cmd.ChatID, texts.header, kb)
}

func (h *Handler) commandHistory(ctx context.Context, cmd chat.Command) {
	entries, err := h.history.List(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("history list failed")
		h.send(ctx, cmd.ChatID, "Something went wrong...")
		return
	}
	if len(entries) == 0 {
		h.send(ctx, cmd.ChatID, "No items in the command history.")
		return
	}

	var lines []string
	for _, e := range entries {
		lines = append(lines, fmt.Sprintf("%s - %s - %s - %s",
			e.ExecutedAt.Format("2006-01-02 15:04:05"), e.Command, e.UserName, e.UserID))

		if len(lines) == listLength {
			h.send(ctx, cmd.ChatID, strings.Join(lines, "\n"))
			lines = nil
			h.pause(ctx)
		}
	}
	if len(lines) > 0 {
		h.send(ctx, cmd.ChatID, strings.Join(lines, "\n"))
	}

	h.send(ctx, cmd.ChatID, fmt.Sprintf("Found %d items in command history.", len(entries)))
}

// listTags prints the canonical user tag of every granted member.
func (h *Handler) listTags(ctx context.Context, cmd chat.Command) {
	users, err := h.users.ListByStatus(ctx, models.StatusAllowed)
	if err != nil {
		h.log.Error().Err(err).Msg("member list failed")
		h.send(ctx, cmd.ChatID, "Something went wrong...")
		return
	}

	var b strings.Builder
	b.WriteString("-- Tags --\n")
	for _, user := range users {
		b.WriteString(tags.UserTagLabel(user.ID, user.FirstName) + "\n")
	}
	h.send(ctx, cmd.ChatID, b.String())
}

func (h *Handler) toggleSignup(ctx context.Context, cmd chat.Command, open bool) {
	state := "closed"
	if open {
		state = "open"
	}

	if h.policy.SignupOpen() == open {
		h.send(ctx, cmd.ChatID, fmt.Sprintf("Signup was already %s.", state))
		return
	}

	h.policy.SetSignupOpen(open)
	h.log.Info().Bool("open", open).Msg("signup toggled")
	h.send(ctx, cmd.ChatID, fmt.Sprintf("Signup is now %s.", state))
}
