// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package chat abstracts the messaging platform behind small
// interfaces so handlers never touch transport details.
package chat

import "context"

// Button is one inline keyboard button. Data is an opaque callback
// token handed back on press; platforms cap it around 64 bytes.
type Button struct {
	Label string
	Data  string
}

// Keyboard is rows of buttons.
type Keyboard [][]Button

// Rows builds a keyboard with one button per row, the layout used for
// all listings.
func Rows(buttons ...Button) Keyboard {
	kb := make(Keyboard, 0, len(buttons))
	for _, b := range buttons {
		kb = append(kb, []Button{b})
	}
	return kb
}

// Messenger sends messages into a chat.
type Messenger interface {
	SendText(ctx context.Context, chatID, text string) error
	SendPhoto(ctx context.Context, chatID, photoURL, caption string) error
	SendKeyboard(ctx context.Context, chatID, text string, keyboard Keyboard) error
}

// Command is a slash command sent by a user.
type Command struct {
	Name      string
	Args      []string
	UserID    string
	FirstName string
	LastName  string
	Username  string
	ChatID    string
}

// ButtonPress is an inline button callback.
type ButtonPress struct {
	Data      string
	UserID    string
	FirstName string
	ChatID    string
}

// Handler consumes incoming events. Implementations must be safe for
// concurrent calls.
type Handler interface {
	HandleCommand(ctx context.Context, cmd Command)
	HandleButton(ctx context.Context, press ButtonPress)
}

// Transport pumps platform updates into a Handler until ctx ends.
type Transport interface {
	Run(ctx context.Context, handler Handler) error
}
