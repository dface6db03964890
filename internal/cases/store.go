package cases

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"maildesk/internal/models"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
)

var (
	// ErrNotFound is returned when no case exists for the given identity
	ErrNotFound = errors.New("case not found")
	// ErrBackwardTransition is returned when an update would move a case
	// to an earlier lifecycle state
	ErrBackwardTransition = errors.New("backward case state transition")
)

// Store is the durable record of each message's lifecycle. All methods are
// single round-trips apart from the monotonic guard in UpdateState.
type Store struct {
	db     *sqlx.DB
	logger zerolog.Logger
}

// NewStore creates a case store on top of an sqlx connection
func NewStore(db *sqlx.DB, logger zerolog.Logger) *Store {
	return &Store{
		db:     db,
		logger: logger.With().Str("component", "case_store").Logger(),
	}
}

const caseColumns = `id, external_id, from_addr, subject, body, thread_ref, received_at,
	department, department_id, priority, used_fallback, draft_text, draft_confidence,
	state, reply_sent_at, forward_sent_at, created_at, updated_at`

// Create inserts a new case in the received state for the given message.
// Creation is idempotent per external message identity: if a case already
// exists the existing one is returned and created is false. A concurrent
// insert losing the unique-index race is resolved by re-reading.
func (s *Store) Create(ctx context.Context, msg models.InboundMessage) (*models.Case, bool, error) {
	existing, err := s.GetByExternalID(ctx, msg.ExternalID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	query := s.db.Rebind(`INSERT INTO cases
		(external_id, from_addr, subject, body, thread_ref, received_at, state)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if _, err := s.db.ExecContext(ctx, query,
		msg.ExternalID, msg.From, msg.Subject, msg.Body, msg.ThreadRef, msg.ReceivedAt,
		models.StateReceived); err != nil {
		// Unique violation means another run created it first; fall through
		// to the lookup either way.
		if c, lookupErr := s.GetByExternalID(ctx, msg.ExternalID); lookupErr == nil {
			s.logger.Debug().Str("external_id", msg.ExternalID).Msg("case already created by concurrent run")
			return c, false, nil
		}
		return nil, false, fmt.Errorf("failed to insert case: %w", err)
	}

	created, err := s.GetByExternalID(ctx, msg.ExternalID)
	if err != nil {
		return nil, false, err
	}
	return created, true, nil
}

// GetByExternalID loads a case by its mailbox-assigned message identity
func (s *Store) GetByExternalID(ctx context.Context, externalID string) (*models.Case, error) {
	var c models.Case
	query := s.db.Rebind(`SELECT ` + caseColumns + ` FROM cases WHERE external_id = ?`)
	if err := s.db.GetContext(ctx, &c, query, externalID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load case by external id: %w", err)
	}
	return &c, nil
}

// GetByID loads a case by its database id
func (s *Store) GetByID(ctx context.Context, id int) (*models.Case, error) {
	var c models.Case
	query := s.db.Rebind(`SELECT ` + caseColumns + ` FROM cases WHERE id = ?`)
	if err := s.db.GetContext(ctx, &c, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load case: %w", err)
	}
	return &c, nil
}

// UpdateState transitions a case to a new lifecycle state. Transitions are
// monotonic; an attempt to move backwards is rejected so a resumed run can
// never undo completed work.
func (s *Store) UpdateState(ctx context.Context, id int, state string) error {
	var current string
	query := s.db.Rebind(`SELECT state FROM cases WHERE id = ?`)
	if err := s.db.GetContext(ctx, &current, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to read case state: %w", err)
	}

	if models.StateRank(state) < models.StateRank(current) {
		return fmt.Errorf("%w: %s -> %s", ErrBackwardTransition, current, state)
	}
	if current == state {
		return nil
	}

	update := s.db.Rebind(`UPDATE cases SET state = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`)
	if _, err := s.db.ExecContext(ctx, update, state, id); err != nil {
		return fmt.Errorf("failed to update case state: %w", err)
	}
	return nil
}

// SetClassification records the classifier verdict and the resolved routing target
func (s *Store) SetClassification(ctx context.Context, id int, cls models.Classification, departmentID *int, usedFallback bool) error {
	query := s.db.Rebind(`UPDATE cases
		SET department = ?, department_id = ?, priority = ?, used_fallback = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`)
	if _, err := s.db.ExecContext(ctx, query, cls.Department, departmentID, cls.Priority, usedFallback, id); err != nil {
		return fmt.Errorf("failed to store classification: %w", err)
	}
	return nil
}

// SetDraft records the generated reply candidate
func (s *Store) SetDraft(ctx context.Context, id int, draft models.Draft) error {
	query := s.db.Rebind(`UPDATE cases
		SET draft_text = ?, draft_confidence = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`)
	if _, err := s.db.ExecContext(ctx, query, draft.Text, draft.Confidence, id); err != nil {
		return fmt.Errorf("failed to store draft: %w", err)
	}
	return nil
}

// MarkReplySent durably records that the sender-facing notification went out.
// This must land before the case's transition is considered complete so a
// crash cannot cause a duplicate send on recovery.
func (s *Store) MarkReplySent(ctx context.Context, id int) error {
	query := s.db.Rebind(`UPDATE cases SET reply_sent_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP WHERE id = ?`)
	if _, err := s.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to mark reply sent: %w", err)
	}
	return nil
}

// MarkForwardSent records that the urgent forward to the department head went out
func (s *Store) MarkForwardSent(ctx context.Context, id int) error {
	query := s.db.Rebind(`UPDATE cases SET forward_sent_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP WHERE id = ?`)
	if _, err := s.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to mark forward sent: %w", err)
	}
	return nil
}

// AppendFault records a per-case failure for later review and retry
func (s *Store) AppendFault(ctx context.Context, caseID int, stage, detail string) error {
	query := s.db.Rebind(`INSERT INTO case_faults (case_id, stage, detail) VALUES (?, ?, ?)`)
	if _, err := s.db.ExecContext(ctx, query, caseID, stage, detail); err != nil {
		return fmt.Errorf("failed to append fault: %w", err)
	}
	return nil
}

// PendingReview lists cases waiting for a human decision, newest first
func (s *Store) PendingReview(ctx context.Context) ([]models.Case, error) {
	var result []models.Case
	query := s.db.Rebind(`SELECT ` + caseColumns + ` FROM cases WHERE state = ? ORDER BY created_at DESC`)
	if err := s.db.SelectContext(ctx, &result, query, models.StateNeedsReview); err != nil {
		return nil, fmt.Errorf("failed to list review queue: %w", err)
	}
	return result, nil
}

// Metrics aggregates case counts for the dashboard
func (s *Store) Metrics(ctx context.Context) (models.QueueMetrics, error) {
	var m models.QueueMetrics

	if err := s.db.GetContext(ctx, &m.Total, `SELECT COUNT(*) FROM cases`); err != nil {
		return m, fmt.Errorf("failed to count cases: %w", err)
	}

	queueQuery := s.db.Rebind(`SELECT COUNT(*) FROM cases WHERE state = ?`)
	if err := s.db.GetContext(ctx, &m.Queue, queueQuery, models.StateNeedsReview); err != nil {
		return m, fmt.Errorf("failed to count review queue: %w", err)
	}

	answeredQuery := s.db.Rebind(`SELECT COUNT(*) FROM cases WHERE state IN (?, ?)`)
	if err := s.db.GetContext(ctx, &m.Answered, answeredQuery, models.StateAutoAnswered, models.StateHumanAnswered); err != nil {
		return m, fmt.Errorf("failed to count answered cases: %w", err)
	}

	var avg sql.NullFloat64
	if err := s.db.GetContext(ctx, &avg, `SELECT AVG(draft_confidence) FROM cases`); err != nil {
		return m, fmt.Errorf("failed to average confidence: %w", err)
	}
	if avg.Valid {
		m.AvgConfidence = avg.Float64
	}

	return m, nil
}
