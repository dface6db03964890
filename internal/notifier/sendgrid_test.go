package notifier

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSend_MissingAPIKey(t *testing.T) {
	n := New("", "agent@example.com", "Agent", zerolog.Nop())

	err := n.Send(Outbound{To: "customer@example.com", Subject: "Re: hi", Body: "hello"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "API key")
}

func TestSend_MissingRecipient(t *testing.T) {
	n := New("SG.key", "agent@example.com", "Agent", zerolog.Nop())

	err := n.Send(Outbound{Subject: "Re: hi", Body: "hello"})
	assert.Error(t, err)
}

func TestBuildMessage_ReplyWithThreadingAndCC(t *testing.T) {
	n := New("SG.key", "agent@example.com", "Maildesk", zerolog.Nop())

	message := n.buildMessage(Outbound{
		To:        "customer@example.com",
		CC:        "head@example.com",
		CCName:    "Dana Head",
		Subject:   "Re: Refund status",
		Body:      "Refunds take five business days.",
		ThreadRef: "<abc123@mail.example.com>",
	})

	require.Len(t, message.Personalizations, 1)
	p := message.Personalizations[0]
	require.Len(t, p.To, 1)
	assert.Equal(t, "customer@example.com", p.To[0].Address)
	require.Len(t, p.CC, 1)
	assert.Equal(t, "head@example.com", p.CC[0].Address)

	assert.Equal(t, "<abc123@mail.example.com>", message.Headers["In-Reply-To"])
	assert.Equal(t, "<abc123@mail.example.com>", message.Headers["References"])
	assert.Equal(t, "agent@example.com", message.From.Address)
	assert.Equal(t, "Maildesk", message.From.Name)
}

func TestBuildMessage_NoThreadRefNoHeaders(t *testing.T) {
	n := New("SG.key", "agent@example.com", "Maildesk", zerolog.Nop())

	message := n.buildMessage(Outbound{
		To:      "head@example.com",
		Subject: "[URGENT] Forwarded: outage",
		Body:    "original body",
	})

	assert.NotContains(t, message.Headers, "In-Reply-To")
	require.Len(t, message.Personalizations, 1)
	assert.Empty(t, message.Personalizations[0].CC)
}

func TestBuildMessage_DefaultFromName(t *testing.T) {
	n := New("SG.key", "agent@example.com", "", zerolog.Nop())
	message := n.buildMessage(Outbound{To: "x@example.com", Subject: "s", Body: "b"})
	assert.Equal(t, "Support", message.From.Name)
}
