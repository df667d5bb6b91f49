// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autobrr/pixlovarr/internal/config"
	"github.com/autobrr/pixlovarr/internal/domain"
	"github.com/autobrr/pixlovarr/internal/prune"
)

func TestWritePruneLogOverwritesPreviousRun(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "pixlovarr_prune.log")

	require.NoError(t, writePruneLog(path, []string{"Prune - REMOVED - Old (1990)", "summary one"}))
	require.NoError(t, writePruneLog(path, []string{"summary two"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "summary two\n", string(data))
}

func TestMailPruneReportGates(t *testing.T) {
	t.Parallel()

	cfg := &config.AppConfig{Config: &domain.Config{}}

	// Disabled mail never dials out.
	require.NoError(t, mailPruneReport(cfg, prune.Result{Removed: 3}))

	// Only-when-active suppresses idle runs.
	cfg.Config.Mail.Enabled = true
	cfg.Config.Mail.OnlyWhenActive = true
	require.NoError(t, mailPruneReport(cfg, prune.Result{}))
}
