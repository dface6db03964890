package models

import "time"

// Priority levels assigned by the classifier
const (
	PriorityHigh   = "HIGH"
	PriorityMedium = "MEDIUM"
	PriorityLow    = "LOW"
)

// Case lifecycle states. Transitions are monotonic: a case never moves
// backwards, and the three *Answered/Archived states are terminal.
const (
	StateReceived      = "received"
	StateClassified    = "classified"
	StateRouted        = "routed"
	StateUrgentPending = "urgent_pending"
	StateContexted     = "contexted"
	StateDrafted       = "drafted"
	StateAutoAnswered  = "auto_answered"
	StateNeedsReview   = "needs_review"
	StateHumanAnswered = "human_answered"
	StateArchived      = "archived"
)

var stateRank = map[string]int{
	StateReceived:      0,
	StateClassified:    1,
	StateRouted:        2,
	StateUrgentPending: 3,
	StateContexted:     3,
	StateDrafted:       4,
	StateAutoAnswered:  5,
	StateNeedsReview:   5,
	StateHumanAnswered: 6,
	StateArchived:      6,
}

// StateRank returns the ordering rank of a case state, used to enforce
// forward-only transitions. Unknown states rank below everything.
func StateRank(state string) int {
	rank, ok := stateRank[state]
	if !ok {
		return -1
	}
	return rank
}

// IsTerminalState reports whether a case in the given state is finished.
func IsTerminalState(state string) bool {
	return state == StateAutoAnswered || state == StateHumanAnswered || state == StateArchived
}

// InboundMessage is a single unread message fetched from the mailbox.
// It is read-only: the pipeline never mutates it.
type InboundMessage struct {
	ExternalID string    `json:"external_id"`
	UID        uint32    `json:"uid"`
	From       string    `json:"from"`
	Subject    string    `json:"subject"`
	Body       string    `json:"body"`
	ThreadRef  string    `json:"thread_ref,omitempty"`
	ReceivedAt time.Time `json:"received_at"`
}

// Classification is the classifier's verdict for one message.
type Classification struct {
	Department string `json:"department"`
	Priority   string `json:"priority"`
}

// Department is a routing target. HeadEmail may be empty, which simply
// disables urgent forwarding for cases routed to it.
type Department struct {
	ID        int    `db:"id" json:"id"`
	Name      string `db:"name" json:"name"`
	HeadName  string `db:"head_name" json:"head_name"`
	HeadEmail string `db:"head_email" json:"head_email"`
}

// Draft is a generated reply candidate. Confidence is an ordinal score in
// [0,100]; it only feeds the auto-answer threshold, it is not a probability.
type Draft struct {
	Text       string `json:"text"`
	Confidence int    `json:"confidence"`
}

// Snippet is one retrieved knowledge chunk.
type Snippet struct {
	Content string  `json:"content"`
	Source  string  `json:"source,omitempty"`
	Score   float32 `json:"score,omitempty"`
}

// Case is the durable lifecycle record for one inbound message.
type Case struct {
	ID              int        `db:"id" json:"id"`
	ExternalID      string     `db:"external_id" json:"external_id"`
	FromAddr        string     `db:"from_addr" json:"from"`
	Subject         string     `db:"subject" json:"subject"`
	Body            string     `db:"body" json:"body"`
	ThreadRef       string     `db:"thread_ref" json:"thread_ref,omitempty"`
	ReceivedAt      time.Time  `db:"received_at" json:"received_at"`
	Department      string     `db:"department" json:"department"`
	DepartmentID    *int       `db:"department_id" json:"department_id,omitempty"`
	Priority        string     `db:"priority" json:"priority"`
	UsedFallback    bool       `db:"used_fallback" json:"used_fallback"`
	DraftText       string     `db:"draft_text" json:"draft_text"`
	DraftConfidence int        `db:"draft_confidence" json:"draft_confidence"`
	State           string     `db:"state" json:"state"`
	ReplySentAt     *time.Time `db:"reply_sent_at" json:"reply_sent_at,omitempty"`
	ForwardSentAt   *time.Time `db:"forward_sent_at" json:"forward_sent_at,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

// ReplySent reports whether the sender-facing notification for this case
// has already gone out. Resumed runs must never send it twice.
func (c *Case) ReplySent() bool {
	return c.ReplySentAt != nil
}

// CaseFault is a recorded per-case failure, kept for the review UI and for
// retry decisions on later runs.
type CaseFault struct {
	ID        int       `db:"id" json:"id"`
	CaseID    int       `db:"case_id" json:"case_id"`
	Stage     string    `db:"stage" json:"stage"`
	Detail    string    `db:"detail" json:"detail"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// RunSummary is the outcome of one pipeline run.
type RunSummary struct {
	Fetched   int `json:"fetched"`
	Processed int `json:"processed"`
	Failed    int `json:"failed"`
}
