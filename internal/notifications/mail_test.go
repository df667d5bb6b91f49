// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package notifications

import (
	"net/smtp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autobrr/pixlovarr/internal/domain"
)

func TestBuildMessage(t *testing.T) {
	t.Parallel()

	msg, err := buildMessage(
		"bot@example.com",
		[]string{"a@example.com", "b@example.com"},
		"Pruned 2 movies",
		"Hi,\n\nAttached is the prune log.\n",
		"prune.log",
		[]byte("Prune - REMOVED - Dune (2021)\n"),
	)
	require.NoError(t, err)

	out := string(msg)
	assert.Contains(t, out, "From: bot@example.com\r\n")
	assert.Contains(t, out, "To: a@example.com, b@example.com\r\n")
	assert.Contains(t, out, "Subject: Pruned 2 movies\r\n")
	assert.Contains(t, out, "Content-Type: multipart/mixed; boundary=")
	assert.Contains(t, out, "Content-Type: text/plain; charset=utf-8")
	assert.Contains(t, out, `attachment; filename="prune.log"`)
	assert.Contains(t, out, "Content-Transfer-Encoding: base64")
}

func TestBuildMessageWithoutAttachment(t *testing.T) {
	t.Parallel()

	msg, err := buildMessage("bot@example.com", []string{"a@example.com"}, "s", "body", "", nil)
	require.NoError(t, err)
	assert.NotContains(t, string(msg), "Content-Disposition")
}

func TestMailSendUsesConfiguredServer(t *testing.T) {
	t.Parallel()

	var gotAddr, gotFrom string
	var gotTo []string

	m := NewMail(domain.MailConfig{
		Enabled: true,
		Host:    "smtp.example.com",
		Port:    587,
		From:    "bot@example.com",
		To:      []string{"admin@example.com"},
	})
	require.NotNil(t, m)
	m.sendMail = func(addr string, _ smtp.Auth, from string, to []string, _ []byte) error {
		gotAddr, gotFrom, gotTo = addr, from, to
		return nil
	}

	require.NoError(t, m.Send("subject", "body", "", nil))
	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.Equal(t, "bot@example.com", gotFrom)
	assert.Equal(t, []string{"admin@example.com"}, gotTo)
}

func TestNilMailAndPushAreNoOps(t *testing.T) {
	t.Parallel()

	var m *Mail
	var p *Push
	assert.NoError(t, m.Send("s", "b", "", nil))
	assert.NoError(t, p.Send("s", "b"))

	assert.Nil(t, NewMail(domain.MailConfig{}))
	assert.Nil(t, NewPush(domain.PushConfig{}))
}
