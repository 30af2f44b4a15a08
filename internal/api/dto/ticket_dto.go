package dto

import (
	"time"

	"github.com/opendesk/helpdesk-service/internal/domain"
)

// CreateTicketRequest payload. The client id is never part of the body; it
// comes from the authenticated identity.
type CreateTicketRequest struct {
	TechID      string   `json:"techId"`
	ServicesIDs []string `json:"servicesIds"`
}

// AddServicesRequest payload.
type AddServicesRequest struct {
	ServicesIDs []string `json:"servicesIds"`
}

// UpdateStatusRequest payload.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// TicketResponse is the aggregated projection used by every listing.
type TicketResponse struct {
	ID         string              `json:"id"`
	ClientID   string              `json:"clientId"`
	TechID     string              `json:"techId"`
	Status     domain.TicketStatus `json:"status"`
	CreatedAt  time.Time           `json:"createdAt"`
	UpdatedAt  time.Time           `json:"updatedAt"`
	Services   []ServiceResponse   `json:"services"`
	TotalPrice string              `json:"totalPrice"`
}

// NewTicketResponse projects an aggregated ticket.
func NewTicketResponse(ticket *domain.TicketWithServices) TicketResponse {
	return TicketResponse{
		ID:         ticket.ID,
		ClientID:   ticket.ClientID,
		TechID:     ticket.TechID,
		Status:     ticket.Status,
		CreatedAt:  ticket.CreatedAt,
		UpdatedAt:  ticket.UpdatedAt,
		Services:   NewServiceResponses(ticket.Services),
		TotalPrice: ticket.TotalPrice,
	}
}

// NewTicketResponses projects a slice.
func NewTicketResponses(tickets []domain.TicketWithServices) []TicketResponse {
	result := make([]TicketResponse, 0, len(tickets))
	for i := range tickets {
		result = append(result, NewTicketResponse(&tickets[i]))
	}
	return result
}
