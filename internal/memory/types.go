package memory

import (
	"fmt"
	"strings"
	"time"
)

// Kind identifies one of the five per-user memory namespaces.
type Kind string

const (
	KindProfile      Kind = "profile"
	KindTicket       Kind = "ticket"
	KindInstructions Kind = "instructions"
	KindFeedback     Kind = "feedback"
	KindResearch     Kind = "research"
)

// Kinds lists all memory kinds in presentation order.
var Kinds = []Kind{KindProfile, KindTicket, KindInstructions, KindFeedback, KindResearch}

// ParseKind validates a kind string coming from untrusted input
// (model-emitted tool arguments).
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindProfile:
		return KindProfile, nil
	case KindTicket:
		return KindTicket, nil
	case KindInstructions:
		return KindInstructions, nil
	case KindFeedback:
		return KindFeedback, nil
	case KindResearch:
		return KindResearch, nil
	}
	return "", fmt.Errorf("unknown memory kind: %q", s)
}

// Structured reports whether records of this kind carry a fixed schema.
// Profile and ticket are structured; the rest are free-text blobs.
func (k Kind) Structured() bool {
	return k == KindProfile || k == KindTicket
}

// SingletonKey returns the fixed record key for singleton kinds.
// Ticket namespaces hold many records and have no singleton key.
func (k Kind) SingletonKey() string {
	if k == KindProfile {
		return "user_profile"
	}
	return string(k)
}

// Namespace scopes records to one (kind, user) pair. All reads and
// writes are bounded by it; there is no cross-user path.
type Namespace struct {
	Kind   Kind
	UserID string
}

// String renders the namespace for logging.
func (n Namespace) String() string {
	return string(n.Kind) + "/" + n.UserID
}

// Status is the lifecycle state of a ticket.
type Status string

const (
	StatusNotStarted Status = "not started"
	StatusInProgress Status = "in progress"
	StatusDone       Status = "done"
	StatusArchived   Status = "archived"
)

// ParseStatus validates a status string; empty defaults to "not started".
func ParseStatus(s string) (Status, error) {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return StatusNotStarted, nil
	case StatusNotStarted:
		return StatusNotStarted, nil
	case StatusInProgress:
		return StatusInProgress, nil
	case StatusDone:
		return StatusDone, nil
	case StatusArchived:
		return StatusArchived, nil
	}
	return "", fmt.Errorf("unknown ticket status: %q", s)
}

// Profile is the singleton structured record describing the user.
// Updates overwrite the stored record wholesale.
type Profile struct {
	Name        string `json:"name,omitempty"`
	Location    string `json:"location,omitempty"`
	Team        string `json:"team,omitempty"`
	Designation string `json:"designation,omitempty"`
	Email       string `json:"email,omitempty"`
}

// ApplyDefaults fills the default team and designation when absent.
func (p *Profile) ApplyDefaults() {
	if p.Team == "" {
		p.Team = "management"
	}
	if p.Designation == "" {
		p.Designation = "manager"
	}
}

// Ticket is a structured multi-valued record tracking one task.
type Ticket struct {
	Task           string     `json:"task"`
	TimeToComplete *int       `json:"time_to_complete,omitempty"` // estimated minutes
	Deadline       *time.Time `json:"deadline,omitempty"`
	Solutions      []string   `json:"solutions,omitempty"`
	Status         Status     `json:"status"`
}

// Validate rejects tickets that cannot be stored.
func (t *Ticket) Validate() error {
	if strings.TrimSpace(t.Task) == "" {
		return fmt.Errorf("ticket task is required")
	}
	st, err := ParseStatus(string(t.Status))
	if err != nil {
		return err
	}
	t.Status = st
	return nil
}

// Summary renders a ticket for confirmation messages and memory snapshots.
func (t *Ticket) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, " - Task: %s\n", t.Task)
	fmt.Fprintf(&b, "   Status: %s\n", t.Status)
	if t.TimeToComplete != nil {
		fmt.Fprintf(&b, "   Time to complete: %d minutes\n", *t.TimeToComplete)
	} else {
		b.WriteString("   Time to complete: N/A\n")
	}
	if t.Deadline != nil {
		fmt.Fprintf(&b, "   Deadline: %s\n", t.Deadline.Format(time.RFC3339))
	} else {
		b.WriteString("   Deadline: N/A\n")
	}
	if len(t.Solutions) > 0 {
		fmt.Fprintf(&b, "   Solutions: %s", strings.Join(t.Solutions, ", "))
	} else {
		b.WriteString("   Solutions: None listed")
	}
	return b.String()
}

// Note is the free-text record for instructions, feedback and research.
// The content is always replaced as a whole, never appended to.
type Note struct {
	Content string `json:"memory"`
}
