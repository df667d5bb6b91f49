// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package bot

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/autobrr/pixlovarr/internal/domain"
)

// tokenVersion prefixes every callback token the bot hands out, so
// buttons minted by an incompatible build fail decoding cleanly.
const tokenVersion = "v1"

type action string

const (
	actionMediaInfo     action = "mediainfo"
	actionDeleteMedia   action = "deletemedia"
	actionDeleteQueue   action = "deletequeue"
	actionExtendPeriod  action = "extendperiod"
	actionKeepMedia     action = "keepmedia"
	actionSearchMissing action = "searchmissing"
)

// mediaToken builds a token addressing one catalog item.
func mediaToken(a action, mediaType domain.MediaType, id int64) string {
	return tokenVersion + ":" + string(a) + ":" + string(mediaType) + ":" + strconv.FormatInt(id, 10)
}

// deleteToken additionally carries whether files on disk go too. The
// flag is fixed at render time so the button keeps meaning what it
// said when it was shown.
func deleteToken(mediaType domain.MediaType, id int64, deleteFiles bool) string {
	return mediaToken(actionDeleteMedia, mediaType, id) + ":" + strconv.FormatBool(deleteFiles)
}

// searchMissingToken has no payload, it always triggers the same
// backend command.
func searchMissingToken() string {
	return tokenVersion + ":" + string(actionSearchMissing) + ":-"
}

// decodeMediaToken parses "v1:<action>:<type>:<id>" tokens.
func decodeMediaToken(data string) (domain.MediaType, int64, error) {
	parts := strings.Split(data, ":")
	if len(parts) != 4 {
		return "", 0, fmt.Errorf("malformed media token: %q", data)
	}

	mediaType, err := domain.ParseMediaType(parts[2])
	if err != nil {
		return "", 0, err
	}
	id, err := strconv.ParseInt(parts[3], 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("malformed media id in token %q: %w", data, err)
	}
	return mediaType, id, nil
}

// decodeDeleteToken parses "v1:deletemedia:<type>:<id>:<bool>" tokens.
func decodeDeleteToken(data string) (domain.MediaType, int64, bool, error) {
	parts := strings.Split(data, ":")
	if len(parts) != 5 {
		return "", 0, false, fmt.Errorf("malformed delete token: %q", data)
	}

	mediaType, id, err := decodeMediaToken(strings.Join(parts[:4], ":"))
	if err != nil {
		return "", 0, false, err
	}
	deleteFiles, err := strconv.ParseBool(parts[4])
	if err != nil {
		return "", 0, false, fmt.Errorf("malformed delete flag in token %q: %w", data, err)
	}
	return mediaType, id, deleteFiles, nil
}
