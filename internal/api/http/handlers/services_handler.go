package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/opendesk/helpdesk-service/internal/api/dto"
	"github.com/opendesk/helpdesk-service/internal/service"
	apperrors "github.com/opendesk/helpdesk-service/pkg/util"
)

// ServicesHandler exposes catalog endpoints.
type ServicesHandler struct {
	catalog *service.CatalogService
}

// NewServicesHandler constructs handler.
func NewServicesHandler(catalogService *service.CatalogService) *ServicesHandler {
	return &ServicesHandler{catalog: catalogService}
}

// Create handles POST /services (admin only).
func (h *ServicesHandler) Create(c *fiber.Ctx) error {
	title, price, err := parseServiceRequest(c)
	if err != nil {
		return err
	}

	created, err := h.catalog.CreateService(c.Context(), title, price)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewServiceResponse(created)})
}

// Update handles PUT /services/:id (admin only).
func (h *ServicesHandler) Update(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	title, price, err := parseServiceRequest(c)
	if err != nil {
		return err
	}

	updated, err := h.catalog.UpdateService(c.Context(), id, title, price)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewServiceResponse(updated)})
}

// Deactivate handles DELETE /services/:id (admin only). The row survives
// with active=false so ticket history stays intact.
func (h *ServicesHandler) Deactivate(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := h.catalog.DeactivateService(c.Context(), id); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// List handles GET /services/list (any authenticated caller).
func (h *ServicesHandler) List(c *fiber.Ctx) error {
	services, err := h.catalog.ListServices(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewServiceResponses(services)})
}

func parseServiceRequest(c *fiber.Ctx) (string, string, error) {
	var req dto.ServiceRequest
	if err := c.BodyParser(&req); err != nil {
		return "", "", apperrors.NewValidationError("invalid payload", nil)
	}

	details := map[string]any{}
	if len(strings.TrimSpace(req.Title)) < 3 {
		details["title"] = "must be at least 3 characters"
	}
	if req.Price < 0 {
		details["price"] = "must not be negative"
	}
	if len(details) > 0 {
		return "", "", apperrors.NewValidationError("invalid service payload", details)
	}

	return strings.TrimSpace(req.Title), strconv.FormatFloat(req.Price, 'f', 2, 64), nil
}
