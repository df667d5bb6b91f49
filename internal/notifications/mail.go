// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package notifications

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"mime/multipart"
	"net/smtp"
	"net/textproto"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/autobrr/pixlovarr/internal/domain"
)

// Mail sends plain-text mail with an optional attachment over SMTP
// with STARTTLS when the server offers it.
type Mail struct {
	cfg domain.MailConfig
	log zerolog.Logger

	// sendMail is swapped in tests.
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewMail(cfg domain.MailConfig) *Mail {
	if !cfg.Enabled {
		return nil
	}
	return &Mail{
		cfg:      cfg,
		log:      log.With().Str("module", "mail").Logger(),
		sendMail: smtp.SendMail,
	}
}

// Send mails the body to every configured receiver. A nil receiver is
// a no-op.
func (m *Mail) Send(subject, body, attachmentName string, attachment []byte) error {
	if m == nil {
		return nil
	}

	msg, err := buildMessage(m.cfg.From, m.cfg.To, subject, body, attachmentName, attachment)
	if err != nil {
		return err
	}

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	if err := m.sendMail(addr, auth, m.cfg.From, m.cfg.To, msg); err != nil {
		return fmt.Errorf("failed to send mail via %s: %w", addr, err)
	}

	m.log.Info().Str("to", strings.Join(m.cfg.To, ", ")).Str("subject", subject).Msg("mail sent")
	return nil
}

// buildMessage assembles a multipart/mixed message with a text part
// and an optional base64 attachment.
func buildMessage(from string, to []string, subject, body, attachmentName string, attachment []byte) ([]byte, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&buf, "Subject: %s\r\n", subject)
	buf.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%q\r\n\r\n", mw.Boundary())

	textHeader := textproto.MIMEHeader{}
	textHeader.Set("Content-Type", "text/plain; charset=utf-8")
	part, err := mw.CreatePart(textHeader)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write([]byte(body)); err != nil {
		return nil, err
	}

	if len(attachment) > 0 {
		attHeader := textproto.MIMEHeader{}
		attHeader.Set("Content-Type", "application/octet-stream")
		attHeader.Set("Content-Transfer-Encoding", "base64")
		attHeader.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", attachmentName))

		part, err := mw.CreatePart(attHeader)
		if err != nil {
			return nil, err
		}

		enc := base64.NewEncoder(base64.StdEncoding, part)
		if _, err := enc.Write(attachment); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
	}

	if err := mw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
