package sendgridmail

import (
	"io"
	"log"
	"net/mail"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carbonschool/dashboard/core"
	logsvc "github.com/carbonschool/dashboard/services/logger"
)

func TestService_prepare(t *testing.T) {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf)
	svc := NewService(conf, logger).(*service)

	m := svc.prepare(core.EmailMessage{
		To:          []mail.Address{{Name: "한빛초", Address: "hanbit@sen.go.kr"}},
		Bcc:         []mail.Address{{Address: "audit@sen.go.kr"}},
		Subject:     "hello",
		TextContent: "text",
	})

	assert.Equal(t, conf.DefaultFromEmail, m.From.Address)
	require.Len(t, m.Personalizations, 1)
	p := m.Personalizations[0]
	assert.Equal(t, "["+conf.AppName+"] hello", p.Subject)
	require.Len(t, p.To, 1)
	assert.Equal(t, "hanbit@sen.go.kr", p.To[0].Address)
	require.Len(t, p.BCC, 1)
	require.Len(t, m.Content, 1)
	assert.Equal(t, "text/plain", m.Content[0].Type)
}
