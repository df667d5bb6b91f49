// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package approval implements the membership workflow: signup
// requests, admin grant/block decisions, and the callback tokens the
// admin keyboard uses.
package approval

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/autobrr/pixlovarr/internal/chat"
	"github.com/autobrr/pixlovarr/internal/models"
)

// tokenVersion matches the wizard token version so every callback in
// flight shares one format generation.
const tokenVersion = "v1"

// Action is an admin decision on a membership request.
type Action string

const (
	ActionGrant Action = "grant"
	ActionBlock Action = "block"
)

// Token builds the callback token for an admin decision button. The
// source status rides along so a stale button cannot move a user who
// has already been handled.
func Token(action Action, source models.UserStatus, userID string) string {
	return fmt.Sprintf("%s:%s:%s:%s", tokenVersion, action, source, userID)
}

// DecodeToken parses a decision token, validating every field.
func DecodeToken(data string) (Action, models.UserStatus, string, error) {
	parts := strings.Split(data, ":")
	if len(parts) != 4 {
		return "", "", "", fmt.Errorf("malformed approval token: %q", data)
	}
	if parts[0] != tokenVersion {
		return "", "", "", fmt.Errorf("unsupported token version: %q", parts[0])
	}

	action := Action(parts[1])
	if action != ActionGrant && action != ActionBlock {
		return "", "", "", fmt.Errorf("unknown approval action: %q", parts[1])
	}

	source, err := models.ParseUserStatus(parts[2])
	if err != nil {
		return "", "", "", err
	}
	if parts[3] == "" {
		return "", "", "", errors.New("empty user id in approval token")
	}

	return action, source, parts[3], nil
}

type Service struct {
	users   *models.UserStore
	msgr    chat.Messenger
	adminID string
	log     zerolog.Logger
}

func NewService(users *models.UserStore, msgr chat.Messenger, adminID string) *Service {
	return &Service{
		users:   users,
		msgr:    msgr,
		adminID: adminID,
		log:     log.With().Str("module", "approval").Logger(),
	}
}

// RequestAccess files a signup for the sender and pings the admin with
// decision buttons. Duplicate signups are answered politely.
func (s *Service) RequestAccess(ctx context.Context, cmd chat.Command) error {
	existing, err := s.users.Get(ctx, cmd.UserID)
	if err != nil && !errors.Is(err, models.ErrUserNotFound) {
		return err
	}

	if existing != nil {
		switch existing.Status {
		case models.StatusAllowed:
			return s.msgr.SendText(ctx, cmd.ChatID,
				fmt.Sprintf("No need to sign up twice, %s.", cmd.FirstName))
		case models.StatusNew:
			return s.msgr.SendText(ctx, cmd.ChatID,
				fmt.Sprintf("Your signup is still waiting for approval, %s.", cmd.FirstName))
		default:
			// Blocked users get silence.
			return nil
		}
	}

	user := &models.User{
		ID:        cmd.UserID,
		FirstName: cmd.FirstName,
		LastName:  cmd.LastName,
		Username:  cmd.Username,
		Status:    models.StatusNew,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return err
	}

	s.log.Info().Str("user_id", cmd.UserID).Str("name", user.DisplayName()).Msg("signup received")

	if err := s.msgr.SendText(ctx, cmd.ChatID,
		fmt.Sprintf("Thank you for signing up, %s. Your request is waiting for approval.", cmd.FirstName)); err != nil {
		return err
	}

	return s.notifyAdmin(ctx, user)
}

func (s *Service) notifyAdmin(ctx context.Context, user *models.User) error {
	kb := chat.Keyboard{{
		{Label: "Grant", Data: Token(ActionGrant, models.StatusNew, user.ID)},
		{Label: "Block", Data: Token(ActionBlock, models.StatusNew, user.ID)},
	}}
	text := fmt.Sprintf("New signup: %s (%s)", user.DisplayName(), user.ID)
	return s.msgr.SendKeyboard(ctx, s.adminID, text, kb)
}

// Decide applies an admin decision. A stale button (user already moved
// out of the source status) is reported back without side effects.
func (s *Service) Decide(ctx context.Context, press chat.ButtonPress, action Action, source models.UserStatus, userID string) error {
	target := models.StatusAllowed
	if action == ActionBlock {
		target = models.StatusBlocked
	}

	err := s.users.SetStatus(ctx, userID, source, target)
	switch {
	case errors.Is(err, models.ErrStatusConflict):
		return s.msgr.SendText(ctx, press.ChatID,
			fmt.Sprintf("User %s has already been handled.", userID))
	case errors.Is(err, models.ErrUserNotFound):
		return s.msgr.SendText(ctx, press.ChatID,
			fmt.Sprintf("User %s is unknown.", userID))
	case err != nil:
		return err
	}

	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return err
	}

	s.log.Info().
		Str("user_id", userID).
		Str("from", string(source)).
		Str("to", string(target)).
		Msg("membership decision applied")

	if action == ActionGrant {
		// The private chat id equals the user id on the platforms we
		// target, so the welcome goes straight to the member.
		if err := s.msgr.SendText(ctx, userID,
			fmt.Sprintf("You have been granted access, %s. Use /help to get started.", user.FirstName)); err != nil {
			s.log.Debug().Err(err).Msg("could not welcome user")
		}
		return s.msgr.SendText(ctx, press.ChatID,
			fmt.Sprintf("%s now has access.", user.DisplayName()))
	}

	return s.msgr.SendText(ctx, press.ChatID,
		fmt.Sprintf("%s has been blocked.", user.DisplayName()))
}

// Keyboard builds the per-user decision keyboard for the admin list
// commands: pending users offer both decisions, allowed users a block
// button, blocked users a grant button.
func Keyboard(user *models.User) chat.Keyboard {
	label := fmt.Sprintf("%s (%s)", user.DisplayName(), user.ID)

	switch user.Status {
	case models.StatusNew:
		return chat.Keyboard{{
			{Label: "Grant " + label, Data: Token(ActionGrant, models.StatusNew, user.ID)},
			{Label: "Block " + label, Data: Token(ActionBlock, models.StatusNew, user.ID)},
		}}
	case models.StatusAllowed:
		return chat.Keyboard{{
			{Label: "Block " + label, Data: Token(ActionBlock, models.StatusAllowed, user.ID)},
		}}
	default:
		return chat.Keyboard{{
			{Label: "Grant " + label, Data: Token(ActionGrant, models.StatusBlocked, user.ID)},
		}}
	}
}
