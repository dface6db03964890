package processor

import (
	"context"
	"fmt"
	"time"

	"maildesk/internal/models"
	"maildesk/internal/notifier"

	"github.com/rs/zerolog"
)

// holdingReplyText is the degraded draft used when the drafter itself fails.
// Confidence 0 guarantees the case lands in the review queue.
const holdingReplyText = "Thank you for reaching out. We have received your message " +
	"and a member of our team will get back to you shortly."

// Engine drives a single case through the lifecycle state machine. Each step
// persists its result before the case moves on, so a crashed run resumes from
// the last durable state instead of repeating side effects.
type Engine struct {
	classifier   Classifier
	resolver     DepartmentResolver
	retriever    KnowledgeRetriever
	drafter      ReplyDrafter
	notifier     Notifier
	store        CaseStore
	threshold    int
	urgentMarker string
	callTimeout  time.Duration
	logger       zerolog.Logger
}

// NewEngine creates the decision engine. Drafts scoring at or above threshold
// are auto-answered; everything below gets a holding reply and a human.
func NewEngine(
	classifier Classifier,
	resolver DepartmentResolver,
	retriever KnowledgeRetriever,
	drafter ReplyDrafter,
	n Notifier,
	store CaseStore,
	threshold int,
	urgentMarker string,
	callTimeout time.Duration,
	logger zerolog.Logger,
) *Engine {
	return &Engine{
		classifier:   classifier,
		resolver:     resolver,
		retriever:    retriever,
		drafter:      drafter,
		notifier:     n,
		store:        store,
		threshold:    threshold,
		urgentMarker: urgentMarker,
		callTimeout:  callTimeout,
		logger:       logger.With().Str("component", "engine").Logger(),
	}
}

// scratch carries non-durable intermediate results between steps of one
// Advance call. A resumed case simply recomputes them.
type scratch struct {
	snippets  []models.Snippet
	retrieved bool
}

// Advance drives the case from its current state until it parks at
// needs_review or a terminal state. The case struct is mutated to mirror the
// persisted record. A returned error leaves the case at its last durable
// state; the next run retries from there.
func (e *Engine) Advance(ctx context.Context, c *models.Case) error {
	var sc scratch
	for !e.parked(c.State) {
		if err := e.step(ctx, c, &sc); err != nil {
			return err
		}
	}
	return nil
}

// parked reports whether a case needs no further automated work
func (e *Engine) parked(state string) bool {
	return state == models.StateNeedsReview || models.IsTerminalState(state)
}

func (e *Engine) step(ctx context.Context, c *models.Case, sc *scratch) error {
	switch c.State {
	case models.StateReceived:
		return e.classify(ctx, c)
	case models.StateClassified:
		return e.route(ctx, c)
	case models.StateRouted:
		return e.branch(ctx, c, sc)
	case models.StateUrgentPending, models.StateContexted:
		return e.draft(ctx, c, sc)
	case models.StateDrafted:
		return e.decide(ctx, c)
	default:
		return fmt.Errorf("case %d in unknown state %q", c.ID, c.State)
	}
}

// classify runs the classifier. A classifier failure degrades to an
// unroutable label and MEDIUM priority so the fallback department picks the
// message up; it never drops the message.
func (e *Engine) classify(ctx context.Context, c *models.Case) error {
	callCtx, cancel := context.WithTimeout(ctx, e.callTimeout)
	cls, err := e.classifier.Classify(callCtx, c.Subject, c.Body)
	cancel()
	if err != nil {
		e.logger.Warn().Err(err).Int("case_id", c.ID).Msg("classification degraded to fallback")
		e.recordFault(ctx, c.ID, "classify", err)
		cls = models.Classification{Department: "", Priority: models.PriorityMedium}
	}

	if err := e.store.SetClassification(ctx, c.ID, cls, nil, false); err != nil {
		return fmt.Errorf("persist classification: %w", err)
	}
	if err := e.transition(ctx, c, models.StateClassified); err != nil {
		return err
	}
	c.Department = cls.Department
	c.Priority = cls.Priority
	return nil
}

// route resolves the classified label to a department. Resolution is total
// except for a missing fallback department, which is a configuration error
// and fails the whole run.
func (e *Engine) route(ctx context.Context, c *models.Case) error {
	dept, usedFallback, err := e.resolver.Resolve(ctx, c.Department)
	if err != nil {
		return fmt.Errorf("resolve department %q: %w", c.Department, err)
	}

	cls := models.Classification{Department: dept.Name, Priority: c.Priority}
	if err := e.store.SetClassification(ctx, c.ID, cls, &dept.ID, usedFallback); err != nil {
		return fmt.Errorf("persist routing: %w", err)
	}
	if err := e.transition(ctx, c, models.StateRouted); err != nil {
		return err
	}
	c.Department = dept.Name
	c.DepartmentID = &dept.ID
	c.UsedFallback = usedFallback
	return nil
}

// branch takes the priority branch: HIGH forwards to the department head and
// parks at urgent_pending; everything else retrieves knowledge context.
func (e *Engine) branch(ctx context.Context, c *models.Case, sc *scratch) error {
	if c.Priority == models.PriorityHigh {
		e.forwardUrgent(ctx, c)
		return e.transition(ctx, c, models.StateUrgentPending)
	}

	callCtx, cancel := context.WithTimeout(ctx, e.callTimeout)
	snippets, err := e.retriever.Retrieve(callCtx, c.Body, c.Department)
	cancel()
	if err != nil {
		// Retrieval failure degrades to an empty context set
		e.logger.Warn().Err(err).Int("case_id", c.ID).Msg("knowledge retrieval failed")
		e.recordFault(ctx, c.ID, "retrieve", err)
		snippets = nil
	}
	sc.snippets = snippets
	sc.retrieved = true
	return e.transition(ctx, c, models.StateContexted)
}

// forwardUrgent forwards the original message to the department head. The
// forward is best-effort: a failure is recorded but never blocks the case.
// Already-forwarded cases (resumed runs) are skipped.
func (e *Engine) forwardUrgent(ctx context.Context, c *models.Case) {
	if c.ForwardSentAt != nil {
		return
	}
	head, ok := e.departmentHead(ctx, c)
	if !ok || head.HeadEmail == "" {
		e.logger.Info().Int("case_id", c.ID).Str("department", c.Department).
			Msg("no accountable contact, urgent forward skipped")
		return
	}

	body := fmt.Sprintf("Urgent message from %s:\n\n%s", c.FromAddr, c.Body)
	err := e.notifier.Send(notifier.Outbound{
		To:      head.HeadEmail,
		ToName:  head.HeadName,
		Subject: fmt.Sprintf("%s %s", e.urgentMarker, c.Subject),
		Body:    body,
	})
	if err != nil {
		e.logger.Error().Err(err).Int("case_id", c.ID).Msg("urgent forward failed")
		e.recordFault(ctx, c.ID, "forward", err)
		return
	}
	if err := e.store.MarkForwardSent(ctx, c.ID); err != nil {
		e.logger.Error().Err(err).Int("case_id", c.ID).Msg("failed to record forward")
		return
	}
	now := time.Now()
	c.ForwardSentAt = &now
}

// draft generates the reply candidate. Retrieval runs here whenever this
// Advance call hasn't done it yet: the urgent branch skips the contexted
// step, and a case resumed at contexted or urgent_pending starts with empty
// scratch. A drafter failure degrades to a generic holding reply with
// confidence 0.
func (e *Engine) draft(ctx context.Context, c *models.Case, sc *scratch) error {
	if !sc.retrieved {
		callCtx, cancel := context.WithTimeout(ctx, e.callTimeout)
		snippets, err := e.retriever.Retrieve(callCtx, c.Body, c.Department)
		cancel()
		if err != nil {
			e.logger.Warn().Err(err).Int("case_id", c.ID).Msg("knowledge retrieval failed")
			e.recordFault(ctx, c.ID, "retrieve", err)
		} else {
			sc.snippets = snippets
		}
		sc.retrieved = true
	}

	callCtx, cancel := context.WithTimeout(ctx, e.callTimeout)
	draft, err := e.drafter.Draft(callCtx, c.Subject, c.Body, sc.snippets)
	cancel()
	if err != nil {
		e.logger.Warn().Err(err).Int("case_id", c.ID).Msg("drafting degraded to holding reply")
		e.recordFault(ctx, c.ID, "draft", err)
		draft = models.Draft{Text: holdingReplyText, Confidence: 0}
	}

	if err := e.store.SetDraft(ctx, c.ID, draft); err != nil {
		return fmt.Errorf("persist draft: %w", err)
	}
	if err := e.transition(ctx, c, models.StateDrafted); err != nil {
		return err
	}
	c.DraftText = draft.Text
	c.DraftConfidence = draft.Confidence
	return nil
}

// decide applies the confidence threshold. High-priority cases always park at
// needs_review; below-threshold drafts go out as holding replies, at or above
// they are the answer. A failed send blocks the transition so the case stays
// retryable instead of being marked answered without an actual send.
func (e *Engine) decide(ctx context.Context, c *models.Case) error {
	urgent := c.Priority == models.PriorityHigh
	sufficient := c.DraftConfidence >= e.threshold

	// Urgent cases with a sufficient draft hold the reply for the reviewer;
	// only the below-threshold holding reply is auto-sent on that path.
	sendNow := !urgent || !sufficient

	if sendNow && !c.ReplySent() {
		if err := e.sendReply(ctx, c, c.DraftText); err != nil {
			e.recordFault(ctx, c.ID, "reply", err)
			return fmt.Errorf("send reply for case %d: %w", c.ID, err)
		}
	}

	next := models.StateNeedsReview
	if !urgent && sufficient {
		next = models.StateAutoAnswered
	}
	if err := e.transition(ctx, c, next); err != nil {
		return err
	}

	e.logger.Info().
		Int("case_id", c.ID).
		Str("state", c.State).
		Int("confidence", c.DraftConfidence).
		Bool("urgent", urgent).
		Msg("case decided")
	return nil
}

// Approve sends the stored draft verbatim to the sender and closes the case.
// Only cases parked at needs_review can be approved.
func (e *Engine) Approve(ctx context.Context, id int) (*models.Case, error) {
	c, err := e.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.State != models.StateNeedsReview {
		return nil, fmt.Errorf("case %d is %s, not awaiting review", id, c.State)
	}

	if err := e.sendReply(ctx, c, c.DraftText); err != nil {
		e.recordFault(ctx, c.ID, "reply", err)
		return nil, fmt.Errorf("send approved reply for case %d: %w", id, err)
	}
	if err := e.transition(ctx, c, models.StateHumanAnswered); err != nil {
		return nil, err
	}
	return c, nil
}

// Dismiss archives a pending case without sending anything
func (e *Engine) Dismiss(ctx context.Context, id int) (*models.Case, error) {
	c, err := e.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.State != models.StateNeedsReview {
		return nil, fmt.Errorf("case %d is %s, not awaiting review", id, c.State)
	}
	if err := e.transition(ctx, c, models.StateArchived); err != nil {
		return nil, err
	}
	return c, nil
}

// sendReply delivers a reply to the original sender, CCing the department
// head when one exists and threading onto the original message. The sent
// mark is persisted before the caller transitions state.
func (e *Engine) sendReply(ctx context.Context, c *models.Case, text string) error {
	out := notifier.Outbound{
		To:        c.FromAddr,
		Subject:   "Re: " + c.Subject,
		Body:      text,
		ThreadRef: c.ThreadRef,
	}
	if head, ok := e.departmentHead(ctx, c); ok && head.HeadEmail != "" {
		out.CC = head.HeadEmail
		out.CCName = head.HeadName
	}

	if err := e.notifier.Send(out); err != nil {
		return err
	}
	if err := e.store.MarkReplySent(ctx, c.ID); err != nil {
		return fmt.Errorf("record sent reply: %w", err)
	}
	now := time.Now()
	c.ReplySentAt = &now
	return nil
}

// departmentHead re-resolves the case's department to pick up its current
// accountable contact.
func (e *Engine) departmentHead(ctx context.Context, c *models.Case) (models.Department, bool) {
	dept, _, err := e.resolver.Resolve(ctx, c.Department)
	if err != nil {
		e.logger.Warn().Err(err).Int("case_id", c.ID).Msg("department head lookup failed")
		return models.Department{}, false
	}
	return dept, true
}

// transition persists a forward state change and mirrors it on the struct
func (e *Engine) transition(ctx context.Context, c *models.Case, state string) error {
	if err := e.store.UpdateState(ctx, c.ID, state); err != nil {
		return fmt.Errorf("transition case %d to %s: %w", c.ID, state, err)
	}
	c.State = state
	return nil
}

func (e *Engine) recordFault(ctx context.Context, caseID int, stage string, cause error) {
	if err := e.store.AppendFault(ctx, caseID, stage, cause.Error()); err != nil {
		e.logger.Error().Err(err).Int("case_id", caseID).Str("stage", stage).
			Msg("failed to record fault")
	}
}
