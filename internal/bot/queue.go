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
)

// queueWord is the display word for queue items of one backend.
func queueWord(mediaType domain.MediaType) string {
	if mediaType == domain.MediaTypeSeries {
		return "episode"
	}
	return "movie"
}

func formatQueueItem(item arr.QueueItem) string {
	eta, timeLeft := "-", "-"
	if item.EstimatedCompletionTime != nil {
		eta = item.EstimatedCompletionTime.Local().Format("2006-01-02 15:04:05")
	}
	if item.TimeLeft != "" {
		timeLeft = item.TimeLeft
	}

	return fmt.Sprintf("%s\nStatus: %s\nProtocol: %s\nTimeleft: %s\nETA: %s",
		item.Title, item.Status, item.Protocol, timeLeft, eta)
}

func (h *Handler) showQueue(ctx context.Context, cmd chat.Command) {
	total := 0
	for _, mediaType := range []domain.MediaType{domain.MediaTypeSeries, domain.MediaTypeMovie} {
		backend := h.queueBackend(mediaType)
		if backend == nil {
			continue
		}

		items, err := backend.Queue(ctx)
		if err != nil {
			h.log.Error().Err(err).Str("media_type", string(mediaType)).Msg("queue fetch failed")
			continue
		}

		var blocks []string
		var buttons []chat.Button
		flush := func() {
			if len(blocks) == 0 {
				return
			}
			h.sendKeyboard(ctx, cmd.ChatID, strings.Join(blocks, "\n\n"), chat.Rows(buttons...))
			blocks, buttons = nil, nil
		}

		for _, item := range items {
			blocks = append(blocks, formatQueueItem(item))
			buttons = append(buttons, chat.Button{
				Label: "Remove " + item.Title,
				Data:  mediaToken(actionDeleteQueue, mediaType, item.ID),
			})
			total++

			if len(blocks) == listLength {
				flush()
				h.pause(ctx)
			}
		}
		flush()
	}

	h.send(ctx, cmd.ChatID, fmt.Sprintf("There are %d items in the queue.", total))
}

// queueBackend narrows a backend to its queue operations, hiding the
// two distinct interface types from the loop above.
type queueOps interface {
	Queue(ctx context.Context) ([]arr.QueueItem, error)
	DeleteQueueItem(ctx context.Context, id int64) error
}

func (h *Handler) queueBackend(mediaType domain.MediaType) queueOps {
	if mediaType == domain.MediaTypeSeries {
		if h.series == nil {
			return nil
		}
		return h.series
	}
	if h.movies == nil {
		return nil
	}
	return h.movies
}

func (h *Handler) deleteQueueItem(ctx context.Context, press chat.ButtonPress) error {
	mediaType, id, err := decodeMediaToken(press.Data)
	if err != nil {
		return err
	}

	backend := h.queueBackend(mediaType)
	if backend == nil {
		return nil
	}

	// Resolve the title before the item disappears from the queue.
	title := ""
	if items, err := backend.Queue(ctx); err == nil {
		for _, item := range items {
			if item.ID == id {
				title = item.Title
				break
			}
		}
	}

	if err := backend.DeleteQueueItem(ctx, id); err != nil {
		h.send(ctx, press.ChatID, "Something went wrong...")
		return err
	}

	h.log.Info().Str("user_id", press.UserID).Str("title", title).Msg("queue item deleted")
	h.send(ctx, press.ChatID, fmt.Sprintf("The %s %s was deleted from the queue.", queueWord(mediaType), title))
	return nil
}

// futureQueue lists catalog items that are announced but not on disk
// yet.
func (h *Handler) futureQueue(ctx context.Context, cmd chat.Command) {
	h.send(ctx, cmd.ChatID, "Please be patient...")

	total := 0
	if h.series != nil {
		series, err := h.series.Series(ctx)
		if err != nil {
			h.log.Error().Err(err).Msg("series fetch failed")
		} else {
			sortByTitle(series)
			lines := []string{"Series"}
			for _, s := range series {
				if s.Status != "upcoming" {
					continue
				}
				lines = append(lines, fmt.Sprintf("%s (%d)", s.Title, s.Year))
				total++
				if len(lines) >= listLength {
					h.send(ctx, cmd.ChatID, strings.Join(lines, "\n"))
					lines = nil
					h.pause(ctx)
				}
			}
			if len(lines) > 0 {
				h.send(ctx, cmd.ChatID, strings.Join(lines, "\n"))
			}
		}
	}

	if h.movies != nil {
		movies, err := h.movies.Movies(ctx)
		if err != nil {
			h.log.Error().Err(err).Msg("movies fetch failed")
		} else {
			sortByTitle(movies)
			lines := []string{"Movies"}
			for _, m := range movies {
				if m.HasFile {
					continue
				}
				lines = append(lines, fmt.Sprintf("%s (%d)", m.Title, m.Year))
				total++
				if len(lines) >= listLength {
					h.send(ctx, cmd.ChatID, strings.Join(lines, "\n"))
					lines = nil
					h.pause(ctx)
				}
			}
			if len(lines) > 0 {
				h.send(ctx, cmd.ChatID, strings.Join(lines, "\n"))
			}
		}
	}

	if total == 0 {
		h.send(ctx, cmd.ChatID, "There is no media in the announced queue.")
		return
	}
	h.send(ctx, cmd.ChatID, fmt.Sprintf("There are %d items in the announced queue.", total))
}
