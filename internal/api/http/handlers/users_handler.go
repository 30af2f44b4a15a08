package handlers

import (
	"encoding/base64"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/opendesk/helpdesk-service/internal/api/dto"
	"github.com/opendesk/helpdesk-service/internal/auth"
	"github.com/opendesk/helpdesk-service/internal/domain"
	"github.com/opendesk/helpdesk-service/internal/service"
	apperrors "github.com/opendesk/helpdesk-service/pkg/util"
)

var slotPattern = regexp.MustCompile(`^([01]\d|2[0-3]):00$`)

// UsersHandler exposes auth and account directory endpoints.
type UsersHandler struct {
	auth  *service.AuthService
	users *service.UserService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(authService *service.AuthService, userService *service.UserService) *UsersHandler {
	return &UsersHandler{auth: authService, users: userService}
}

// Login handles POST /users/login.
func (h *UsersHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}

	user, token, exp, err := h.auth.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"user": dto.NewUserResponse(user),
			"auth": dto.AuthResponse{Token: token, ExpiresAt: exp},
		},
	})
}

// CreateTech handles POST /users/tech (admin only).
func (h *UsersHandler) CreateTech(c *fiber.Ctx) error {
	input, err := parseAccountInput(c)
	if err != nil {
		return err
	}

	user, slots, err := h.users.CreateTechAccount(c.Context(), input)
	if err != nil {
		return err
	}

	resp := dto.TechResponse{UserResponse: dto.NewUserResponse(user), Availabilities: slots}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": resp})
}

// CreateClient handles POST /users/client (public self-signup).
func (h *UsersHandler) CreateClient(c *fiber.Ctx) error {
	input, err := parseAccountInput(c)
	if err != nil {
		return err
	}

	user, err := h.users.CreateClientAccount(c.Context(), input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// ListTechs handles GET /users/techList (admin only).
func (h *UsersHandler) ListTechs(c *fiber.Ctx) error {
	techs, err := h.users.ListTechAccounts(c.Context())
	if err != nil {
		return err
	}

	items := make([]dto.TechResponse, 0, len(techs))
	for i := range techs {
		items = append(items, dto.TechResponse{
			UserResponse:   dto.NewUserResponse(&techs[i].User),
			Availabilities: techs[i].Availabilities,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

// ListClients handles GET /users/clientList (admin only).
func (h *UsersHandler) ListClients(c *fiber.Ctx) error {
	clients, err := h.users.ListClientAccounts(c.Context())
	if err != nil {
		return err
	}

	items := make([]dto.UserResponse, 0, len(clients))
	for i := range clients {
		items = append(items, dto.NewUserResponse(&clients[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// UpdateAdmin handles PUT /users/admin/:id.
func (h *UsersHandler) UpdateAdmin(c *fiber.Ctx) error {
	return h.updateAccount(c, domain.RoleAdmin)
}

// UpdateTech handles PUT /users/tech/:id.
func (h *UsersHandler) UpdateTech(c *fiber.Ctx) error {
	return h.updateAccount(c, domain.RoleTech)
}

// UpdateClient handles PUT /users/client/:id.
func (h *UsersHandler) UpdateClient(c *fiber.Ctx) error {
	return h.updateAccount(c, domain.RoleClient)
}

func (h *UsersHandler) updateAccount(c *fiber.Ctx, role domain.Role) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	// The endpoint role must match the actor unless the actor is an admin.
	if err := auth.CheckRole(principal, role, domain.RoleAdmin); err != nil {
		return err
	}
	if err := auth.CheckSelfOrAdmin(principal, id); err != nil {
		return err
	}

	var req dto.UpdateAccountRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	input := service.AccountInput{Name: req.NewName, Email: req.NewEmail, Password: req.NewPassword}
	if err := validateAccountInput(input); err != nil {
		return err
	}

	user, err := h.users.UpdateAccount(c.Context(), role, id, input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// UpdateAvailabilities handles PUT /users/techAvailabilities/:id.
func (h *UsersHandler) UpdateAvailabilities(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	if err := auth.CheckRole(principal, domain.RoleTech, domain.RoleAdmin); err != nil {
		return err
	}
	if err := auth.CheckSelfOrAdmin(principal, id); err != nil {
		return err
	}

	var req dto.UpdateAvailabilityRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if len(req.NewAvailabilities) == 0 {
		return apperrors.NewValidationError("newAvailabilities required", nil)
	}
	for _, slot := range req.NewAvailabilities {
		if !slotPattern.MatchString(slot) {
			return apperrors.NewValidationError("invalid availability slot: "+slot, nil)
		}
	}

	replaced, err := h.users.ReplaceAvailability(c.Context(), id, req.NewAvailabilities)
	if err != nil {
		return err
	}

	slots := make([]string, 0, len(replaced))
	for _, row := range replaced {
		slots = append(slots, row.Time)
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"availabilities": slots}})
}

// UpdatePicture handles PUT /users/picture/:id (multipart field "picture").
func (h *UsersHandler) UpdatePicture(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := auth.CheckSelfOrAdmin(principal, id); err != nil {
		return err
	}

	fileHeader, err := c.FormFile("picture")
	if err != nil {
		return apperrors.NewValidationError("picture file required", nil)
	}
	file, err := fileHeader.Open()
	if err != nil {
		return apperrors.MapError(err)
	}
	defer file.Close() //nolint:errcheck

	raw, err := io.ReadAll(file)
	if err != nil {
		return apperrors.MapError(err)
	}

	encoded := base64.StdEncoding.EncodeToString(raw)
	url, err := h.users.UpdatePicture(c.Context(), id, encoded)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"pictureUrl": url}})
}

// GetPicture handles GET /users/picture/:id (public).
func (h *UsersHandler) GetPicture(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	picture, err := h.users.GetPicture(c.Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"picture": picture}})
}

// DeleteClient handles DELETE /users/client/:id.
func (h *UsersHandler) DeleteClient(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	if err := auth.CheckRole(principal, domain.RoleClient, domain.RoleAdmin); err != nil {
		return err
	}
	if err := auth.CheckSelfOrAdmin(principal, id); err != nil {
		return err
	}

	if err := h.users.DeleteClientAccount(c.Context(), id); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func parseAccountInput(c *fiber.Ctx) (service.AccountInput, error) {
	var req dto.CreateAccountRequest
	if err := c.BodyParser(&req); err != nil {
		return service.AccountInput{}, apperrors.NewValidationError("invalid payload", nil)
	}
	input := service.AccountInput{Name: req.Name, Email: req.Email, Password: req.Password}
	return input, validateAccountInput(input)
}

func validateAccountInput(input service.AccountInput) error {
	details := map[string]any{}
	if strings.TrimSpace(input.Name) == "" {
		details["name"] = "required"
	}
	if !strings.Contains(input.Email, "@") {
		details["email"] = "must be a valid email"
	}
	if len(input.Password) < 6 {
		details["password"] = "must be at least 6 characters"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid account payload", details)
	}
	return nil
}

func parseID(c *fiber.Ctx, name string) (string, error) {
	raw := c.Params(name)
	if _, err := uuid.Parse(raw); err != nil {
		return "", apperrors.NewValidationError("invalid "+name+" parameter", nil)
	}
	return raw, nil
}
