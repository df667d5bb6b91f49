// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package domain

import "strings"

// RedactString masks a secret for log output, keeping its length.
func RedactString(s string) string {
	if len(s) == 0 {
		return ""
	}
	return strings.Repeat("*", len(s))
}
