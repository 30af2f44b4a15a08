package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/opendesk/helpdesk-service/internal/api/dto"
	"github.com/opendesk/helpdesk-service/internal/auth"
	"github.com/opendesk/helpdesk-service/internal/domain"
	"github.com/opendesk/helpdesk-service/internal/service"
	apperrors "github.com/opendesk/helpdesk-service/pkg/util"
)

// TicketsHandler manages ticket lifecycle endpoints.
type TicketsHandler struct {
	tickets *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{tickets: ticketService}
}

// Create handles POST /tickets (client only). The client id comes from the
// token, never from the body.
func (h *TicketsHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := auth.CheckRole(principal, domain.RoleClient); err != nil {
		return err
	}

	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.TechID == "" || len(req.ServicesIDs) == 0 {
		return apperrors.NewValidationError("techId and servicesIds required", nil)
	}

	created, err := h.tickets.Create(c.Context(), principal.ID, req.TechID, req.ServicesIDs)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewTicketResponse(created)})
}

// ClientHistory handles GET /tickets/clientHistory (client only, own rows).
func (h *TicketsHandler) ClientHistory(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := auth.CheckRole(principal, domain.RoleClient); err != nil {
		return err
	}

	history, err := h.tickets.ClientHistory(c.Context(), principal.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponses(history)})
}

// TechTickets handles GET /tickets/tech (tech only, own rows).
func (h *TicketsHandler) TechTickets(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := auth.CheckRole(principal, domain.RoleTech); err != nil {
		return err
	}

	tickets, err := h.tickets.TechTickets(c.Context(), principal.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponses(tickets)})
}

// ListAll handles GET /tickets/list (admin only).
func (h *TicketsHandler) ListAll(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := auth.CheckRole(principal, domain.RoleAdmin); err != nil {
		return err
	}

	tickets, err := h.tickets.AllTickets(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponses(tickets)})
}

// AddServices handles PUT /tickets/addServices/:ticketId.
func (h *TicketsHandler) AddServices(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := auth.CheckRole(principal, domain.RoleTech, domain.RoleAdmin); err != nil {
		return err
	}
	ticketID, err := parseID(c, "ticketId")
	if err != nil {
		return err
	}

	var req dto.AddServicesRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if len(req.ServicesIDs) == 0 {
		return apperrors.NewValidationError("servicesIds required", nil)
	}

	linked, err := h.tickets.AddServices(c.Context(), principal, ticketID, req.ServicesIDs)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"serviceIds": linked}})
}

// UpdateStatus handles PUT /tickets/status/:ticketId.
func (h *TicketsHandler) UpdateStatus(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := auth.CheckRole(principal, domain.RoleTech, domain.RoleAdmin); err != nil {
		return err
	}
	ticketID, err := parseID(c, "ticketId")
	if err != nil {
		return err
	}

	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	status, valid := domain.ParseTicketStatus(req.Status)
	if !valid {
		return apperrors.NewValidationError("status must be open, in_progress or closed", nil)
	}

	updated, err := h.tickets.UpdateStatus(c.Context(), principal, ticketID, status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"id":        updated.ID,
		"clientId":  updated.ClientID,
		"techId":    updated.TechID,
		"status":    updated.Status,
		"createdAt": updated.CreatedAt,
		"updatedAt": updated.UpdatedAt,
	}})
}
