// Package processor is the core of the pipeline: it drives each inbound
// message through classification, routing, drafting and the confidence
// decision, and orchestrates runs over the mailbox.
//
// All collaborators are consumed through the narrow interfaces below so the
// engine can be exercised against fakes.
package processor

import (
	"context"

	"maildesk/internal/models"
	"maildesk/internal/notifier"
)

// MailboxGateway fetches unread mail and acknowledges consumed messages
type MailboxGateway interface {
	FetchUnread(ctx context.Context) ([]models.InboundMessage, error)
	MarkSeen(ctx context.Context, uid uint32) error
}

// Classifier assigns a department label and priority to a message
type Classifier interface {
	Classify(ctx context.Context, subject, body string) (models.Classification, error)
}

// DepartmentResolver maps a free-form label to a department, falling back to
// the default department for unknown labels.
type DepartmentResolver interface {
	Resolve(ctx context.Context, label string) (models.Department, bool, error)
}

// KnowledgeRetriever returns relevant knowledge snippets for a message
type KnowledgeRetriever interface {
	Retrieve(ctx context.Context, text, department string) ([]models.Snippet, error)
}

// ReplyDrafter writes a reply candidate with a confidence score
type ReplyDrafter interface {
	Draft(ctx context.Context, subject, body string, snippets []models.Snippet) (models.Draft, error)
}

// Notifier delivers outbound email
type Notifier interface {
	Send(out notifier.Outbound) error
}

// CaseStore persists case lifecycle records. Every method is atomic.
type CaseStore interface {
	Create(ctx context.Context, msg models.InboundMessage) (*models.Case, bool, error)
	GetByID(ctx context.Context, id int) (*models.Case, error)
	UpdateState(ctx context.Context, id int, state string) error
	SetClassification(ctx context.Context, id int, cls models.Classification, departmentID *int, usedFallback bool) error
	SetDraft(ctx context.Context, id int, draft models.Draft) error
	MarkReplySent(ctx context.Context, id int) error
	MarkForwardSent(ctx context.Context, id int) error
	AppendFault(ctx context.Context, caseID int, stage, detail string) error
}
