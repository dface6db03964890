// Package drafter turns an inbound email plus retrieved knowledge into a
// proposed reply with a self-assessed confidence score.
package drafter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"maildesk/internal/models"
	"maildesk/internal/utils"

	"github.com/rs/zerolog"
)

// chatClient is the slice of the AI client the drafter needs
type chatClient interface {
	ChatJSON(ctx context.Context, system, user string, maxTokens int) (string, error)
}

// Drafter produces reply drafts
type Drafter struct {
	chat   chatClient
	logger zerolog.Logger
}

// New creates a drafter
func New(chat chatClient, logger zerolog.Logger) *Drafter {
	return &Drafter{
		chat:   chat,
		logger: logger.With().Str("component", "drafter").Logger(),
	}
}

const draftSystemPrompt = "You are a customer support agent answering an email. " +
	"Use ONLY the provided context to answer. If the context does not cover the question, " +
	"say you will get back to the customer and score your confidence low. " +
	`Respond with JSON only: {"reply": "...", "confidence": 0-100} ` +
	"where confidence is how certain you are the reply fully answers the email."

// rawDraft is the loose wire shape of the model output
type rawDraft struct {
	Reply      string `json:"reply"`
	Confidence int    `json:"confidence"`
}

// Draft writes a reply to the message grounded on the given snippets. The
// reply is drafted in the language of the inbound message.
func (d *Drafter) Draft(ctx context.Context, subject, body string, snippets []models.Snippet) (models.Draft, error) {
	lang := utils.DetectLanguage(subject + " " + body)

	var sb strings.Builder
	if len(snippets) == 0 {
		sb.WriteString("Context: (no relevant documents found)\n")
	} else {
		sb.WriteString("Context:\n")
		for i, snippet := range snippets {
			fmt.Fprintf(&sb, "[%d] %s\n", i+1, snippet.Content)
		}
	}
	fmt.Fprintf(&sb, "\nEmail Subject: %s\nEmail Body:\n%s\n\n%s",
		subject, body, utils.GetLanguageInstruction(lang))

	content, err := d.chat.ChatJSON(ctx, draftSystemPrompt, sb.String(), 700)
	if err != nil {
		return models.Draft{}, fmt.Errorf("draft call failed: %w", err)
	}

	draft, err := parseDraft(content)
	if err != nil {
		return models.Draft{}, err
	}

	d.logger.Debug().
		Int("confidence", draft.Confidence).
		Str("language", lang.Code).
		Int("snippets", len(snippets)).
		Msg("reply drafted")
	return draft, nil
}

// parseDraft validates the model output; confidence is clamped to 0-100
func parseDraft(content string) (models.Draft, error) {
	var raw rawDraft
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &raw); err != nil {
		return models.Draft{}, fmt.Errorf("malformed draft %q: %w", content, err)
	}

	reply := strings.TrimSpace(raw.Reply)
	if reply == "" {
		return models.Draft{}, fmt.Errorf("draft missing reply text")
	}

	confidence := raw.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 100 {
		confidence = 100
	}

	return models.Draft{Text: reply, Confidence: confidence}, nil
}
