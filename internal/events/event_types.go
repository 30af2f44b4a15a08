package events

import (
	"time"

	"github.com/opendesk/helpdesk-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketServicesAdded EventType = "ticket_services_added"
	EventTechnicianCreated   EventType = "technician_created"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	ID   string      `json:"id"`
	Role domain.Role `json:"role"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	TicketID   string   `json:"ticket_id"`
	TechID     string   `json:"tech_id"`
	ServiceIDs []string `json:"service_ids"`
	TotalPrice string   `json:"total_price"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	TicketID  string              `json:"ticket_id"`
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
}

// TicketServicesAddedPayload payload.
type TicketServicesAddedPayload struct {
	TicketID   string   `json:"ticket_id"`
	ServiceIDs []string `json:"service_ids"`
}

// TechnicianCreatedPayload payload.
type TechnicianCreatedPayload struct {
	TechID string   `json:"tech_id"`
	Slots  []string `json:"slots"`
}
