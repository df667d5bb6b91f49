// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package policy answers "may this user do that" for the bot handlers.
package policy

import (
	"context"
	"slices"
	"sync/atomic"

	"github.com/autobrr/pixlovarr/internal/domain"
	"github.com/autobrr/pixlovarr/internal/models"
)

type Policy struct {
	cfg   *domain.Config
	users *models.UserStore

	// signupOpen starts from config and is toggled by /open and
	// /close. Deliberately not persisted: a restart restores the
	// configured default.
	signupOpen atomic.Bool
}

func New(cfg *domain.Config, users *models.UserStore) *Policy {
	p := &Policy{cfg: cfg, users: users}
	p.signupOpen.Store(cfg.Bot.SignUpIsOpen)
	return p
}

func (p *Policy) IsAdmin(userID string) bool {
	return userID == p.cfg.Bot.AdminUserID
}

// IsGranted reports whether the user may use member commands. The
// admin is always granted.
func (p *Policy) IsGranted(ctx context.Context, userID string) (bool, error) {
	if p.IsAdmin(userID) {
		return true, nil
	}
	return p.users.HasStatus(ctx, userID, models.StatusAllowed)
}

func (p *Policy) IsBlocked(ctx context.Context, userID string) (bool, error) {
	return p.users.HasStatus(ctx, userID, models.StatusBlocked)
}

func (p *Policy) SignupOpen() bool {
	return p.signupOpen.Load()
}

func (p *Policy) SetSignupOpen(open bool) {
	p.signupOpen.Store(open)
}

// CanDelete decides whether userID may delete a media item owned by
// the users in ownerIDs. The admin may always delete; members may be
// restricted to their own items.
func (p *Policy) CanDelete(userID string, ownerIDs []string) bool {
	if p.IsAdmin(userID) {
		return true
	}
	if !p.cfg.Bot.UsersCanOnlyDeleteOwnMedia {
		return true
	}
	return slices.Contains(ownerIDs, userID)
}

// DeleteFiles reports whether deletions should remove files on disk.
func (p *Policy) DeleteFiles() bool {
	return p.cfg.Bot.PermanentDeleteMedia
}
