// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package notifications delivers prune summaries out-of-band: push
// messages through shoutrrr and mail with the run log attached.
package notifications

import (
	"errors"
	"strings"

	"github.com/nicholas-fedor/shoutrrr/pkg/router"
	"github.com/nicholas-fedor/shoutrrr/pkg/types"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/autobrr/pixlovarr/internal/domain"
)

// maxPushLength keeps messages inside the strictest provider cap.
const maxPushLength = 1024

// Push sends messages to a single shoutrrr URL.
type Push struct {
	url string
	log zerolog.Logger
}

func NewPush(cfg domain.PushConfig) *Push {
	if !cfg.Enabled || strings.TrimSpace(cfg.URL) == "" {
		return nil
	}
	return &Push{
		url: cfg.URL,
		log: log.With().Str("module", "push").Logger(),
	}
}

// ValidateURL checks a shoutrrr URL without sending anything.
func ValidateURL(rawURL string) error {
	_, err := router.New(nil, rawURL)
	return err
}

// Send delivers one message. A nil receiver is a no-op so callers
// never have to guard on whether push is configured.
func (p *Push) Send(title, message string) error {
	if p == nil {
		return nil
	}

	sender, err := router.New(nil, p.url)
	if err != nil {
		return err
	}

	params := types.Params{}
	if trimmed := strings.TrimSpace(title); trimmed != "" {
		params.SetTitle(trimmed)
	}

	if len(message) > maxPushLength {
		message = message[:maxPushLength]
	}

	var errs []error
	for _, sendErr := range sender.Send(message, &params) {
		if sendErr != nil {
			errs = append(errs, sendErr)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errors.Join(errs...)
}
