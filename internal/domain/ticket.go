package domain

import "time"

// TicketStatus enumerates lifecycle states.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusClosed     TicketStatus = "closed"
)

// ParseTicketStatus validates an incoming status string. Any of the three
// values is reachable from any other; there is no transition table.
func ParseTicketStatus(raw string) (TicketStatus, bool) {
	switch TicketStatus(raw) {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusClosed:
		return TicketStatus(raw), true
	}
	return "", false
}

// Ticket links one client, one technician and N catalog services.
type Ticket struct {
	ID        string
	ClientID  string
	TechID    string
	Status    TicketStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TicketWithServices is the listing projection: the ticket, its linked
// services and the summed price.
type TicketWithServices struct {
	Ticket
	Services   []Service
	TotalPrice string
}
