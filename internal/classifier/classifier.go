package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"maildesk/internal/models"

	"github.com/rs/zerolog"
)

// chatClient is the slice of the AI client the classifier needs
type chatClient interface {
	ChatJSON(ctx context.Context, system, user string, maxTokens int) (string, error)
}

// Classifier assigns a department label and a priority to a message. Its
// output is validated here at the boundary; callers get either a well-formed
// classification or an error.
type Classifier struct {
	chat   chatClient
	labels []string
	logger zerolog.Logger
}

// New creates a classifier constrained to the given department labels
func New(chat chatClient, labels []string, logger zerolog.Logger) *Classifier {
	return &Classifier{
		chat:   chat,
		labels: labels,
		logger: logger.With().Str("component", "classifier").Logger(),
	}
}

const classifySystemPrompt = "You are an email triage assistant. " +
	"Classify the email into exactly one of the given departments and assign a priority. " +
	`Respond with JSON only: {"department": "...", "priority": "HIGH"|"MEDIUM"|"LOW"}`

// rawClassification is the loose wire shape; it is validated before use
type rawClassification struct {
	Department string `json:"department"`
	Priority   string `json:"priority"`
}

// Classify returns the department label and priority for one message
func (c *Classifier) Classify(ctx context.Context, subject, body string) (models.Classification, error) {
	user := fmt.Sprintf("Departments: %s\n\nEmail Subject: %s\nEmail Body:\n%s",
		strings.Join(c.labels, ", "), subject, body)

	content, err := c.chat.ChatJSON(ctx, classifySystemPrompt, user, 100)
	if err != nil {
		return models.Classification{}, fmt.Errorf("classification call failed: %w", err)
	}

	cls, err := parseClassification(content)
	if err != nil {
		return models.Classification{}, err
	}

	c.logger.Debug().
		Str("department", cls.Department).
		Str("priority", cls.Priority).
		Msg("message classified")
	return cls, nil
}

// parseClassification validates the model output into a strict record
func parseClassification(content string) (models.Classification, error) {
	var raw rawClassification
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &raw); err != nil {
		return models.Classification{}, fmt.Errorf("malformed classification %q: %w", content, err)
	}

	department := strings.TrimSpace(raw.Department)
	if department == "" {
		return models.Classification{}, fmt.Errorf("classification missing department")
	}

	return models.Classification{
		Department: department,
		Priority:   normalizePriority(raw.Priority),
	}, nil
}

// normalizePriority maps loose model output onto the priority enum.
// Anything unrecognized becomes MEDIUM.
func normalizePriority(priority string) string {
	switch strings.ToUpper(strings.TrimSpace(priority)) {
	case models.PriorityHigh, "URGENT", "CRITICAL":
		return models.PriorityHigh
	case models.PriorityLow:
		return models.PriorityLow
	default:
		return models.PriorityMedium
	}
}
