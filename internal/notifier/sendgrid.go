// Package notifier sends outbound email via SendGrid.
package notifier

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Outbound is one email to send
type Outbound struct {
	To        string
	ToName    string
	CC        string
	CCName    string
	Subject   string
	Body      string
	ThreadRef string // Message-ID of the email being replied to, if any
}

// Notifier sends email through the SendGrid API
type Notifier struct {
	apiKey    string
	fromEmail string
	fromName  string
	logger    zerolog.Logger
}

// New creates a notifier. The API key is validated at send time so the
// pipeline can start without outbound credentials in development.
func New(apiKey, fromEmail, fromName string, logger zerolog.Logger) *Notifier {
	if fromName == "" {
		fromName = "Support"
	}
	return &Notifier{
		apiKey:    apiKey,
		fromEmail: fromEmail,
		fromName:  fromName,
		logger:    logger.With().Str("component", "notifier").Logger(),
	}
}

// Send delivers one email
func (n *Notifier) Send(out Outbound) error {
	if n.apiKey == "" {
		return fmt.Errorf("SendGrid API key not configured")
	}
	if out.To == "" {
		return fmt.Errorf("no recipient")
	}

	message := n.buildMessage(out)

	client := sendgrid.NewSendClient(n.apiKey)
	response, err := client.Send(message)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("SendGrid API error: status %d, body: %s", response.StatusCode, response.Body)
	}

	n.logger.Info().
		Str("to", out.To).
		Str("subject", out.Subject).
		Msg("email sent")
	return nil
}

// buildMessage assembles the SendGrid payload, including threading headers so
// replies land in the sender's existing conversation.
func (n *Notifier) buildMessage(out Outbound) *mail.SGMailV3 {
	from := mail.NewEmail(n.fromName, n.fromEmail)
	to := mail.NewEmail(out.ToName, out.To)
	message := mail.NewSingleEmail(from, out.Subject, to, out.Body, out.Body)

	if out.CC != "" && len(message.Personalizations) > 0 {
		message.Personalizations[0].AddCCs(mail.NewEmail(out.CCName, out.CC))
	}
	if out.ThreadRef != "" {
		message.SetHeader("In-Reply-To", out.ThreadRef)
		message.SetHeader("References", out.ThreadRef)
	}

	return message
}
