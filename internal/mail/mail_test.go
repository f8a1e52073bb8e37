package mail

import (
	"context"
	"mime"
	"strings"
	"testing"

	"adspace/internal/config"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestBuildMessage(t *testing.T) {
	msg := string(BuildMessage("Adspace <noreply@adspace.local>", "ops@example.com",
		"New inquiry\r\nBcc: victim@example.com", "<p>hi</p>", "hi"))

	assert.Contains(t, msg, "From: Adspace <noreply@adspace.local>\r\n")
	assert.Contains(t, msg, "Subject: New inquiry  Bcc: victim@example.com\r\n")
	assert.NotContains(t, msg, "\r\nBcc:")
	assert.Contains(t, msg, "Content-Type: text/plain; charset=UTF-8")
	assert.Contains(t, msg, "Content-Type: text/html; charset=UTF-8")
	assert.True(t, strings.HasSuffix(msg, "--\r\n"))
}

func TestBuildMessageWithoutHTML(t *testing.T) {
	msg := string(BuildMessage("a@b.c", "d@e.f", "s", "", "body"))
	assert.NotContains(t, msg, "text/html")
}

func TestBuildMessageEncodesNonASCIISubject(t *testing.T) {
	subject := "New inquiry from Émile Zoë"
	msg := string(BuildMessage("a@b.c", "d@e.f", subject, "", "body"))

	header, _, ok := strings.Cut(msg, "\r\n\r\n")
	assert.True(t, ok)
	assert.Contains(t, header, "Subject: =?UTF-8?q?")
	assert.NotContains(t, header, "Émile")

	var dec mime.WordDecoder
	for _, line := range strings.Split(header, "\r\n") {
		if v, found := strings.CutPrefix(line, "Subject: "); found {
			got, err := dec.DecodeHeader(v)
			assert.NoError(t, err)
			assert.Equal(t, subject, got)
		}
	}
}

func TestDisabledServiceDoesNotSend(t *testing.T) {
	svc := NewEmailService(&config.EmailConfig{Enabled: false}, zap.NewNop())
	assert.False(t, svc.IsEnabled())
	assert.NoError(t, svc.SendHTMLEmail(context.Background(), "ops@example.com", "s", "<p>x</p>", "x"))
}

func TestMisconfiguredServiceFails(t *testing.T) {
	svc := NewEmailService(&config.EmailConfig{Enabled: true}, zap.NewNop())
	assert.Error(t, svc.SendHTMLEmail(context.Background(), "ops@example.com", "s", "", "x"))
}
