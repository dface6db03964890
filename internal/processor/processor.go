package processor

import (
	"context"
	"errors"
	"sync"
	"time"

	"maildesk/internal/departments"
	"maildesk/internal/models"

	"github.com/rs/zerolog"
)

// ErrRunInProgress is returned when a run is requested while another run is
// still working the mailbox.
var ErrRunInProgress = errors.New("a processing run is already in progress")

// Processor orchestrates pipeline runs: fetch unread mail, drive each
// message's case through the engine, acknowledge consumed messages.
type Processor struct {
	mailbox     MailboxGateway
	engine      *Engine
	store       CaseStore
	callTimeout time.Duration
	logger      zerolog.Logger

	// mu serializes runs and review actions; only one path mutates case
	// state at a time.
	mu sync.Mutex
}

// New creates a processor
func New(mailbox MailboxGateway, engine *Engine, store CaseStore, callTimeout time.Duration, logger zerolog.Logger) *Processor {
	return &Processor{
		mailbox:     mailbox,
		engine:      engine,
		store:       store,
		callTimeout: callTimeout,
		logger:      logger.With().Str("component", "processor").Logger(),
	}
}

// RunOnce fetches unread mail and processes every message sequentially.
// Overlapping invocations are rejected rather than queued; the next scheduled
// run picks up whatever this one left. Per-message failures are recorded and
// skipped, except a missing fallback department which aborts the run.
func (p *Processor) RunOnce(ctx context.Context) (models.RunSummary, error) {
	if !p.mu.TryLock() {
		return models.RunSummary{}, ErrRunInProgress
	}
	defer p.mu.Unlock()

	fetchCtx, cancel := context.WithTimeout(ctx, p.callTimeout)
	messages, err := p.mailbox.FetchUnread(fetchCtx)
	cancel()
	if err != nil {
		return models.RunSummary{}, err
	}

	summary := models.RunSummary{Fetched: len(messages)}
	for _, msg := range messages {
		// Cancellation takes effect between messages, never mid-case
		if ctx.Err() != nil {
			p.logger.Warn().Err(ctx.Err()).Msg("run cancelled")
			break
		}

		if err := p.processMessage(ctx, msg); err != nil {
			if errors.Is(err, departments.ErrNoFallback) {
				return summary, err
			}
			summary.Failed++
			continue
		}
		summary.Processed++
	}

	p.logger.Info().
		Int("fetched", summary.Fetched).
		Int("processed", summary.Processed).
		Int("failed", summary.Failed).
		Msg("run complete")
	return summary, nil
}

// processMessage drives one message's case to needs_review or a terminal
// state. The mailbox message is marked seen only once the case is durably
// parked; until then a re-fetch lands on the same case via the idempotency
// key and resumes instead of duplicating work.
func (p *Processor) processMessage(ctx context.Context, msg models.InboundMessage) error {
	c, created, err := p.store.Create(ctx, msg)
	if err != nil {
		p.logger.Error().Err(err).Str("external_id", msg.ExternalID).Msg("case creation failed")
		return err
	}
	if !created {
		p.logger.Debug().Int("case_id", c.ID).Str("state", c.State).Msg("resuming existing case")
	}

	if err := p.engine.Advance(ctx, c); err != nil {
		p.logger.Error().Err(err).Int("case_id", c.ID).Msg("case advance failed")
		return err
	}

	if msg.UID != 0 {
		seenCtx, cancel := context.WithTimeout(ctx, p.callTimeout)
		err = p.mailbox.MarkSeen(seenCtx, msg.UID)
		cancel()
		if err != nil {
			// The message stays unread and the next run resumes the case
			p.logger.Warn().Err(err).Int("case_id", c.ID).Uint32("uid", msg.UID).
				Msg("failed to mark message seen")
		}
	}
	return nil
}

// ProcessMessage runs a single message through the pipeline outside a mailbox
// run. Used for simulated messages.
func (p *Processor) ProcessMessage(ctx context.Context, msg models.InboundMessage) (*models.Case, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	c, _, err := p.store.Create(ctx, msg)
	if err != nil {
		return nil, err
	}
	if err := p.engine.Advance(ctx, c); err != nil {
		return c, err
	}
	return c, nil
}

// Approve sends the stored draft of a pending case and closes it
func (p *Processor) Approve(ctx context.Context, id int) (*models.Case, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.engine.Approve(ctx, id)
}

// Dismiss archives a pending case without sending
func (p *Processor) Dismiss(ctx context.Context, id int) (*models.Case, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.engine.Dismiss(ctx, id)
}
