package mailer

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMessages(t *testing.T) {
	t.Parallel()

	msg, err := ConfirmationMessage("ana@example.com", "Ana", "http://localhost:8080/auth/confirm/tok")
	require.NoError(t, err)
	require.Equal(t, "ana@example.com", msg.To)
	require.Contains(t, msg.Body, "Hello Ana")
	require.Contains(t, msg.Body, "http://localhost:8080/auth/confirm/tok")

	msg, err = PasswordResetMessage("ana@example.com", "Ana", "http://localhost:8080/auth/forgot-password/tok")
	require.NoError(t, err)
	require.Equal(t, "Reset your password", msg.Subject)
	require.Contains(t, msg.Body, "/auth/forgot-password/tok")
}

func TestLogMailer(t *testing.T) {
	t.Parallel()
	require.NoError(t, Log{}.Send(context.Background(), Message{To: "a@b.c"}))
}

func TestSMTPSend(t *testing.T) {
	t.Parallel()

	s := NewSMTP("mail.example.com", 587, "user", "pass", "Estate <no-reply@example.com>")

	var (
		gotAddr string
		gotFrom string
		gotTo   []string
		gotMsg  string
	)
	s.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, string(msg)
		require.NotNil(t, a)
		return nil
	}

	err := s.Send(context.Background(), Message{To: "ana@example.com", Subject: "Hi", Body: "line1\nline2"})
	require.NoError(t, err)
	require.Equal(t, "mail.example.com:587", gotAddr)
	require.Equal(t, "no-reply@example.com", gotFrom)
	require.Equal(t, []string{"ana@example.com"}, gotTo)
	require.Contains(t, gotMsg, "Subject: Hi\r\n")
	require.True(t, strings.HasSuffix(gotMsg, "line1\r\nline2"))
}

func TestSMTPSendErrors(t *testing.T) {
	t.Parallel()

	t.Run("invalid recipient", func(t *testing.T) {
		s := NewSMTP("localhost", 25, "", "", "no-reply@example.com")
		s.send = func(string, smtp.Auth, string, []string, []byte) error { return nil }
		require.Error(t, s.Send(context.Background(), Message{To: "not an address"}))
	})

	t.Run("relay failure", func(t *testing.T) {
		boom := errors.New("relay down")
		s := NewSMTP("localhost", 25, "", "", "no-reply@example.com")
		s.send = func(string, smtp.Auth, string, []string, []byte) error { return boom }
		require.ErrorIs(t, s.Send(context.Background(), Message{To: "a@example.com"}), boom)
	})

	t.Run("context cancelled", func(t *testing.T) {
		s := NewSMTP("localhost", 25, "", "", "no-reply@example.com")
		block := make(chan struct{})
		t.Cleanup(func() { close(block) })
		s.send = func(string, smtp.Auth, string, []string, []byte) error { <-block; return nil }

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		require.ErrorIs(t, s.Send(ctx, Message{To: "a@example.com"}), context.DeadlineExceeded)
	})
}
