package mailer

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogMailer(t *testing.T) {
	var buf bytes.Buffer
	m := &LogMailer{Logger: slog.New(slog.NewTextHandler(&buf, nil))}

	body := "reset at http://localhost:3000/api/v1/users/resetPassword/0123abcd"
	err := m.Send(context.Background(), Message{To: "ann@x.com", Subject: "hi", Body: body})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "to=ann@x.com")
	assert.Contains(t, buf.String(), "subject=hi")
	assert.NotContains(t, buf.String(), "resetPassword")
	assert.NotContains(t, buf.String(), "0123abcd")
}

func TestSMTPMailer_NewMessage(t *testing.T) {
	m := NewSMTPMailer(SMTPConfig{Host: "localhost", Port: 2525, From: "Natours Dev <natours@example.com>"})

	msg, err := m.newMessage(Message{To: "ann@x.com", Subject: "Your password reset token", Body: "hello"})
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = msg.WriteTo(&buf)
	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "Subject: Your password reset token")
	assert.Contains(t, out, "<ann@x.com>")
	assert.True(t, strings.Contains(out, "hello"))
}

func TestSMTPMailer_BadAddress(t *testing.T) {
	m := NewSMTPMailer(SMTPConfig{Host: "localhost", Port: 2525, From: "natours@example.com"})

	_, err := m.newMessage(Message{To: "not an address", Subject: "x", Body: "y"})
	assert.Error(t, err)
}

func TestSMTPMailer_SendFailsWithoutServer(t *testing.T) {
	m := NewSMTPMailer(SMTPConfig{Host: "127.0.0.1", Port: 1, From: "natours@example.com"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := m.Send(ctx, Message{To: "ann@x.com", Subject: "x", Body: "y"})
	assert.Error(t, err)
}
