package mailbox

import (
	"bytes"
	"testing"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessage_SkipsAndLogsMissingEnvelope(t *testing.T) {
	var logs bytes.Buffer
	g := NewGateway("imap.example.com", 993, "user", "pass", "INBOX", zerolog.New(&logs))

	_, ok := g.message(&imapclient.FetchMessageBuffer{UID: 42})

	assert.False(t, ok)
	assert.Contains(t, logs.String(), `"uid":42`)
	assert.Contains(t, logs.String(), "skipped")
}

func TestMessage_ConvertsEnvelope(t *testing.T) {
	g := NewGateway("imap.example.com", 993, "user", "pass", "INBOX", zerolog.Nop())

	msg, ok := g.message(&imapclient.FetchMessageBuffer{
		UID: 7,
		Envelope: &imap.Envelope{
			Subject:   "Refund status",
			MessageID: "<m1@mail.example.com>",
			Date:      time.Now(),
			From:      []imap.Address{{Mailbox: "customer", Host: "example.com"}},
		},
	})

	require.True(t, ok)
	assert.Equal(t, "<m1@mail.example.com>", msg.ExternalID)
	assert.Equal(t, uint32(7), msg.UID)
	assert.Equal(t, "customer@example.com", msg.From)
	assert.Equal(t, "Refund status", msg.Subject)
}

func TestMessage_MissingMessageIDFallsBackToUID(t *testing.T) {
	g := NewGateway("imap.example.com", 993, "user", "pass", "INBOX", zerolog.Nop())

	msg, ok := g.message(&imapclient.FetchMessageBuffer{
		UID:      9,
		Envelope: &imap.Envelope{Subject: "no id", Date: time.Now()},
	})

	require.True(t, ok)
	assert.Equal(t, "uid-9", msg.ExternalID)
	assert.Empty(t, msg.ThreadRef)
}
