// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package wizard drives the multi-step download dialog. All dialog
// state lives in the callback tokens, so the process stays stateless
// and a restart never orphans a conversation.
package wizard

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/autobrr/pixlovarr/internal/domain"
)

// TokenVersion prefixes every callback token. Buttons from older
// processes fail decoding cleanly instead of being misread.
const TokenVersion = "v1"

// Step is the wizard step a token addresses.
type Step string

const (
	StepSummary      Step = "dlsummary"
	StepLanguage     Step = "selectlang"
	StepAvailability Step = "selectavail"
	StepRootFolder   Step = "selectrootfolder"
	StepConfirm      Step = "selectdownload"
	StepDownload     Step = "downloadmedia"
)

// stepArity gives the exact number of payload fields per step.
var stepArity = map[Step]int{
	StepSummary:      2, // type, media id
	StepLanguage:     3, // + quality profile
	StepAvailability: 3, // + quality profile
	StepRootFolder:   4, // + language profile / availability index
	StepConfirm:      5, // + root folder
	StepDownload:     6, // + scope
}

// Selection is the accumulated dialog state. MediaID is the TVDB id
// for series and the IMDB id for movies, since the item may not exist
// in the catalog yet.
type Selection struct {
	MediaType    domain.MediaType
	MediaID      string
	QualityID    int
	OptionID     int // language profile id (series) or availability index (movie)
	RootFolderID int
	Scope        domain.DownloadScope
}

// Encode builds the callback token for a step from the fields that
// step needs. Later fields are dropped.
func Encode(step Step, sel Selection) string {
	fields := []string{
		string(sel.MediaType),
		sel.MediaID,
		strconv.Itoa(sel.QualityID),
		strconv.Itoa(sel.OptionID),
		strconv.Itoa(sel.RootFolderID),
		string(sel.Scope),
	}
	return TokenVersion + ":" + string(step) + ":" + strings.Join(fields[:stepArity[step]], ":")
}

// Decode parses and validates a callback token. Unknown versions,
// unknown steps, wrong arity, and malformed fields are all errors.
func Decode(data string) (Step, Selection, error) {
	parts := strings.Split(data, ":")
	if len(parts) < 2 {
		return "", Selection{}, fmt.Errorf("malformed token: %q", data)
	}
	if parts[0] != TokenVersion {
		return "", Selection{}, fmt.Errorf("unsupported token version: %q", parts[0])
	}

	step := Step(parts[1])
	arity, ok := stepArity[step]
	if !ok {
		return "", Selection{}, fmt.Errorf("unknown wizard step: %q", parts[1])
	}

	fields := parts[2:]
	if len(fields) != arity {
		return "", Selection{}, fmt.Errorf("step %s expects %d fields, got %d", step, arity, len(fields))
	}

	var sel Selection
	var err error

	if sel.MediaType, err = domain.ParseMediaType(fields[0]); err != nil {
		return "", Selection{}, err
	}
	sel.MediaID = fields[1]
	if sel.MediaID == "" {
		return "", Selection{}, fmt.Errorf("empty media id in token")
	}

	if arity > 2 {
		if sel.QualityID, err = strconv.Atoi(fields[2]); err != nil {
			return "", Selection{}, fmt.Errorf("bad quality profile id %q: %w", fields[2], err)
		}
	}
	if arity > 3 {
		if sel.OptionID, err = strconv.Atoi(fields[3]); err != nil {
			return "", Selection{}, fmt.Errorf("bad option id %q: %w", fields[3], err)
		}
	}
	if arity > 4 {
		if sel.RootFolderID, err = strconv.Atoi(fields[4]); err != nil {
			return "", Selection{}, fmt.Errorf("bad root folder id %q: %w", fields[4], err)
		}
	}
	if arity > 5 {
		if sel.Scope, err = domain.ParseDownloadScope(fields[5]); err != nil {
			return "", Selection{}, err
		}
	}

	return step, sel, nil
}
