// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package tags maps chat users onto Sonarr/Radarr tags. A user tag is
// "<firstname>_<userid>" with the name lowercased and stripped to
// alphanumerics, so ownership survives name changes through the id
// suffix.
package tags

import (
	"context"
	"strings"
	"unicode"

	"github.com/autobrr/pixlovarr/internal/arr"
)

// API is the tag surface of a Sonarr or Radarr client.
type API interface {
	Tags(ctx context.Context) ([]arr.Tag, error)
	CreateTag(ctx context.Context, label string) (arr.Tag, error)
}

// UserTagLabel builds the canonical tag label for a user.
func UserTagLabel(userID, firstName string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(firstName) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String() + "_" + userID
}

// UserIDFromLabel extracts the user id suffix from a tag label, or ""
// when the label is not a user tag.
func UserIDFromLabel(label string) string {
	idx := strings.LastIndex(label, "_")
	if idx < 0 || idx == len(label)-1 {
		return ""
	}
	id := label[idx+1:]
	for _, r := range id {
		if !unicode.IsDigit(r) {
			return ""
		}
	}
	return id
}

// Resolver resolves tag labels against one backend, caching nothing:
// tag sets are tiny and admins edit them out-of-band.
type Resolver struct {
	api API
}

func NewResolver(api API) *Resolver {
	return &Resolver{api: api}
}

// EnsureUserTag returns the user's tag, creating it when absent.
func (r *Resolver) EnsureUserTag(ctx context.Context, userID, firstName string) (arr.Tag, error) {
	label := UserTagLabel(userID, firstName)

	existing, err := r.api.Tags(ctx)
	if err != nil {
		return arr.Tag{}, err
	}
	for _, tag := range existing {
		if strings.EqualFold(tag.Label, label) {
			return tag, nil
		}
	}

	return r.api.CreateTag(ctx, label)
}

// Ensure returns the tag for a label, creating it when absent.
func (r *Resolver) Ensure(ctx context.Context, label string) (arr.Tag, error) {
	existing, err := r.api.Tags(ctx)
	if err != nil {
		return arr.Tag{}, err
	}
	for _, tag := range existing {
		if strings.EqualFold(tag.Label, label) {
			return tag, nil
		}
	}

	return r.api.CreateTag(ctx, label)
}

// IDsForLabels maps labels to tag ids, silently skipping labels the
// backend does not know.
func (r *Resolver) IDsForLabels(ctx context.Context, labels []string) ([]int, error) {
	if len(labels) == 0 {
		return nil, nil
	}

	existing, err := r.api.Tags(ctx)
	if err != nil {
		return nil, err
	}

	byLabel := make(map[string]int, len(existing))
	for _, tag := range existing {
		byLabel[strings.ToLower(tag.Label)] = tag.ID
	}

	var ids []int
	for _, label := range labels {
		if id, ok := byLabel[strings.ToLower(label)]; ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// UserTagIDs returns the ids of all tags belonging to the given user.
func (r *Resolver) UserTagIDs(ctx context.Context, userID string) ([]int, error) {
	existing, err := r.api.Tags(ctx)
	if err != nil {
		return nil, err
	}

	var ids []int
	for _, tag := range existing {
		if UserIDFromLabel(tag.Label) == userID {
			ids = append(ids, tag.ID)
		}
	}
	return ids, nil
}

// OwnerIDs returns the user ids of every user tag attached to a media
// item, given its tag id list.
func (r *Resolver) OwnerIDs(ctx context.Context, tagIDs []int) ([]string, error) {
	existing, err := r.api.Tags(ctx)
	if err != nil {
		return nil, err
	}

	byID := make(map[int]string, len(existing))
	for _, tag := range existing {
		byID[tag.ID] = tag.Label
	}

	var owners []string
	for _, id := range tagIDs {
		if uid := UserIDFromLabel(byID[id]); uid != "" {
			owners = append(owners, uid)
		}
	}
	return owners, nil
}

// HasAny reports whether any of ids occurs in the media tag list.
func HasAny(mediaTags []int, ids []int) bool {
	set := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	for _, tag := range mediaTags {
		if _, ok := set[tag]; ok {
			return true
		}
	}
	return false
}
