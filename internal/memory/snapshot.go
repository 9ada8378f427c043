package memory

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Render sentinels. Absent data always renders as an explicit marker so a
// decision prompt can tell "nothing collected" apart from an empty value.
const (
	sentinelNoProfile      = "Not yet collected."
	sentinelNoTickets      = "No tickets yet."
	sentinelNoInstructions = "None specified."
	sentinelNoNotes        = "None yet."
)

// TicketItem pairs a stored ticket with its stable item key.
type TicketItem struct {
	ID     string
	Ticket Ticket
}

// Snapshot is a read view of all five memory namespaces for one user.
type Snapshot struct {
	UserID       string
	Profile      *Profile // nil when not yet collected
	Tickets      []TicketItem
	Instructions string
	Feedback     string
	Research     string
}

// LoadSnapshot reads every namespace for the user from the store.
func LoadSnapshot(store Store, userID string) (*Snapshot, error) {
	snap := &Snapshot{UserID: userID}

	var profile Profile
	ok, err := GetAs(store, Namespace{KindProfile, userID}, KindProfile.SingletonKey(), &profile)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if ok {
		snap.Profile = &profile
	}

	items, err := store.List(Namespace{KindTicket, userID})
	if err != nil {
		return nil, fmt.Errorf("load tickets: %w", err)
	}
	for _, item := range items {
		var t Ticket
		if err := json.Unmarshal(item.Value, &t); err != nil {
			return nil, fmt.Errorf("decode ticket %s: %w", item.Key, err)
		}
		snap.Tickets = append(snap.Tickets, TicketItem{ID: item.Key, Ticket: t})
	}

	for _, kind := range []Kind{KindInstructions, KindFeedback, KindResearch} {
		var note Note
		ok, err := GetAs(store, Namespace{kind, userID}, kind.SingletonKey(), &note)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", kind, err)
		}
		if !ok {
			continue
		}
		switch kind {
		case KindInstructions:
			snap.Instructions = note.Content
		case KindFeedback:
			snap.Feedback = note.Content
		case KindResearch:
			snap.Research = note.Content
		}
	}

	return snap, nil
}

// RenderProfile renders the profile section for a decision prompt.
func (s *Snapshot) RenderProfile() string {
	if s.Profile == nil {
		return sentinelNoProfile
	}
	data, err := json.MarshalIndent(s.Profile, "", "  ")
	if err != nil {
		return sentinelNoProfile
	}
	return string(data)
}

// RenderTickets renders the ticket list section for a decision prompt.
func (s *Snapshot) RenderTickets() string {
	if len(s.Tickets) == 0 {
		return sentinelNoTickets
	}
	lines := make([]string, 0, len(s.Tickets))
	for _, item := range s.Tickets {
		lines = append(lines, fmt.Sprintf("- Task: %s, Status: %s", item.Ticket.Task, item.Ticket.Status))
	}
	return strings.Join(lines, "\n")
}

// RenderInstructions renders the ticket-management instructions section.
func (s *Snapshot) RenderInstructions() string {
	if strings.TrimSpace(s.Instructions) == "" {
		return sentinelNoInstructions
	}
	return s.Instructions
}

// RenderFeedback renders the collected-feedback section.
func (s *Snapshot) RenderFeedback() string {
	if strings.TrimSpace(s.Feedback) == "" {
		return sentinelNoNotes
	}
	return s.Feedback
}

// RenderResearch renders the research-notes section.
func (s *Snapshot) RenderResearch() string {
	if strings.TrimSpace(s.Research) == "" {
		return sentinelNoNotes
	}
	return s.Research
}

// RenderKind renders one namespace section by kind.
func (s *Snapshot) RenderKind(kind Kind) string {
	switch kind {
	case KindProfile:
		return s.RenderProfile()
	case KindTicket:
		return s.RenderTickets()
	case KindInstructions:
		return s.RenderInstructions()
	case KindFeedback:
		return s.RenderFeedback()
	case KindResearch:
		return s.RenderResearch()
	}
	return ""
}
