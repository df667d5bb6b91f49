// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	telegramBaseURL = "https://api.telegram.org"
	pollTimeout     = 50 * time.Second
)

// Telegram implements Messenger and Transport over the Bot API with
// long polling.
type Telegram struct {
	baseURL    string
	token      string
	httpClient *http.Client
	log        zerolog.Logger
}

func NewTelegram(token string) *Telegram {
	return &Telegram{
		baseURL: telegramBaseURL,
		token:   token,
		// Timeout must outlive the long poll.
		httpClient: &http.Client{Timeout: pollTimeout + 10*time.Second},
		log:        log.With().Str("module", "telegram").Logger(),
	}
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

func (t *Telegram) call(ctx context.Context, method string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode %s payload: %w", method, err)
		}
		body = bytes.NewReader(data)
	}

	url := fmt.Sprintf("%s/bot%s/%s", t.baseURL, t.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("telegram %s failed: %w", method, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var api apiResponse
	if err := json.Unmarshal(data, &api); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", method, err)
	}
	if !api.OK {
		return fmt.Errorf("telegram %s: %s", method, api.Description)
	}

	if out != nil {
		if err := json.Unmarshal(api.Result, out); err != nil {
			return fmt.Errorf("failed to decode %s result: %w", method, err)
		}
	}
	return nil
}

func (t *Telegram) SendText(ctx context.Context, chatID, text string) error {
	return t.call(ctx, "sendMessage", map[string]any{
		"chat_id": chatID,
		"text":    text,
	}, nil)
}

func (t *Telegram) SendPhoto(ctx context.Context, chatID, photoURL, caption string) error {
	return t.call(ctx, "sendPhoto", map[string]any{
		"chat_id": chatID,
		"photo":   photoURL,
		"caption": caption,
	}, nil)
}

type inlineButton struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data"`
}

func (t *Telegram) SendKeyboard(ctx context.Context, chatID, text string, keyboard Keyboard) error {
	rows := make([][]inlineButton, 0, len(keyboard))
	for _, row := range keyboard {
		buttons := make([]inlineButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, inlineButton{Text: b.Label, CallbackData: b.Data})
		}
		rows = append(rows, buttons)
	}

	return t.call(ctx, "sendMessage", map[string]any{
		"chat_id":      chatID,
		"text":         text,
		"reply_markup": map[string]any{"inline_keyboard": rows},
	}, nil)
}

type update struct {
	UpdateID int64 `json:"update_id"`
	Message  *struct {
		Text string    `json:"text"`
		From *tgUser   `json:"from"`
		Chat *struct { ID int64 `json:"id"` } `json:"chat"`
	} `json:"message"`
	CallbackQuery *struct {
		ID      string  `json:"id"`
		Data    string  `json:"data"`
		From    *tgUser `json:"from"`
		Message *struct {
			Chat *struct { ID int64 `json:"id"` } `json:"chat"`
		} `json:"message"`
	} `json:"callback_query"`
}

type tgUser struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
}

// Run long polls getUpdates and dispatches events until ctx is done.
func (t *Telegram) Run(ctx context.Context, handler Handler) error {
	var offset int64

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		var updates []update
		err := t.call(ctx, "getUpdates", map[string]any{
			"offset":          offset,
			"timeout":         int(pollTimeout / time.Second),
			"allowed_updates": []string{"message", "callback_query"},
		}, &updates)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return ctx.Err()
			}
			t.log.Error().Err(err).Msg("poll failed, backing off")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(5 * time.Second):
			}
			continue
		}

		for _, u := range updates {
			if u.UpdateID >= offset {
				offset = u.UpdateID + 1
			}
			t.dispatch(ctx, handler, u)
		}
	}
}

func (t *Telegram) dispatch(ctx context.Context, handler Handler, u update) {
	switch {
	case u.Message != nil && u.Message.From != nil && u.Message.Chat != nil &&
		strings.HasPrefix(u.Message.Text, "/"):
		fields := strings.Fields(u.Message.Text)
		name := strings.TrimPrefix(fields[0], "/")
		// strip bot mention suffix, e.g. /help@pixlovarr_bot
		if at := strings.Index(name, "@"); at > 0 {
			name = name[:at]
		}

		handler.HandleCommand(ctx, Command{
			Name:      strings.ToLower(name),
			Args:      fields[1:],
			UserID:    strconv.FormatInt(u.Message.From.ID, 10),
			FirstName: u.Message.From.FirstName,
			LastName:  u.Message.From.LastName,
			Username:  u.Message.From.Username,
			ChatID:    strconv.FormatInt(u.Message.Chat.ID, 10),
		})

	case u.CallbackQuery != nil && u.CallbackQuery.From != nil:
		chatID := strconv.FormatInt(u.CallbackQuery.From.ID, 10)
		if u.CallbackQuery.Message != nil && u.CallbackQuery.Message.Chat != nil {
			chatID = strconv.FormatInt(u.CallbackQuery.Message.Chat.ID, 10)
		}

		// Ack first so the client stops its spinner.
		if err := t.call(ctx, "answerCallbackQuery", map[string]any{
			"callback_query_id": u.CallbackQuery.ID,
		}, nil); err != nil {
			t.log.Debug().Err(err).Msg("failed to answer callback query")
		}

		handler.HandleButton(ctx, ButtonPress{
			Data:      u.CallbackQuery.Data,
			UserID:    strconv.FormatInt(u.CallbackQuery.From.ID, 10),
			FirstName: u.CallbackQuery.From.FirstName,
			ChatID:    chatID,
		})
	}
}
