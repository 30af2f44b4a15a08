package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/opendesk/helpdesk-service/internal/api/http/handlers"
	"github.com/opendesk/helpdesk-service/internal/auth"
	"github.com/opendesk/helpdesk-service/internal/config"
	"github.com/opendesk/helpdesk-service/internal/domain"
	"github.com/opendesk/helpdesk-service/internal/observability"
	"github.com/opendesk/helpdesk-service/internal/repository"
	"github.com/opendesk/helpdesk-service/internal/service"
)

type testEnv struct {
	app      *fiber.App
	users    *repository.MemoryUserRepository
	services *repository.MemoryServiceRepository
	admin    *domain.User
	tech     *domain.User
	techB    *domain.User
	client   *domain.User
}

// newTestEnv wires the full route table over in-memory repositories with the
// ticket clock pinned inside business hours.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	availRepo := repository.NewMemoryAvailabilityRepository()
	userRepo := repository.NewMemoryUserRepository(availRepo)
	serviceRepo := repository.NewMemoryServiceRepository()
	ticketRepo := repository.NewMemoryTicketRepository(serviceRepo)

	authCfg := config.AuthConfig{JWTSecret: "test-secret", AccessTokenTTLMinutes: 5, BcryptCost: bcrypt.MinCost}
	authService := service.NewAuthService(authCfg, userRepo)
	userService := service.NewUserService(service.UserDependencies{
		UserRepo:         userRepo,
		AvailabilityRepo: availRepo,
		BcryptCost:       bcrypt.MinCost,
		PublicBaseURL:    "http://localhost:3333",
	})
	catalogService := service.NewCatalogService(serviceRepo, nil, zap.NewNop())
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:       ticketRepo,
		UserRepo:         userRepo,
		AvailabilityRepo: availRepo,
		ServiceRepo:      serviceRepo,
		Now: func() time.Time {
			return time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)
		},
	})

	metrics := observability.NewMetrics()
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(zap.NewNop(), metrics)})
	RegisterRoutes(app, Handlers{
		Users:    handlers.NewUsersHandler(authService, userService),
		Services: handlers.NewServicesHandler(catalogService),
		Tickets:  handlers.NewTicketsHandler(ticketService),
		Health:   handlers.NewHealthHandler(nil, nil, "test"),
	}, auth.NewMiddleware(authService.TokenManager()))

	env := &testEnv{app: app, users: userRepo, services: serviceRepo}
	env.admin = env.seedUser(t, domain.RoleAdmin, "admin@example.com")
	env.tech = env.seedUser(t, domain.RoleTech, "tech@example.com")
	env.techB = env.seedUser(t, domain.RoleTech, "tech-b@example.com")
	env.client = env.seedUser(t, domain.RoleClient, "client@example.com")

	_, err := availRepo.Replace(context.Background(), env.tech.ID, service.DefaultTechAvailability)
	require.NoError(t, err)

	return env
}

func (e *testEnv) seedUser(t *testing.T, role domain.Role, email string) *domain.User {
	t.Helper()
	hash, err := auth.HashPassword("secret123", bcrypt.MinCost)
	require.NoError(t, err)
	user := &domain.User{Name: "User " + email, Email: email, PasswordHash: hash, Role: role}
	require.NoError(t, e.users.Create(context.Background(), user))
	return user
}

func (e *testEnv) seedService(t *testing.T, title, price string) *domain.Service {
	t.Helper()
	svc := &domain.Service{Title: title, Price: price}
	require.NoError(t, e.services.Create(context.Background(), svc))
	return svc
}

func (e *testEnv) login(t *testing.T, email string) string {
	t.Helper()
	body := e.do(t, http.MethodPost, "/users/login", "", fiber.Map{"email": email, "password": "secret123"}, http.StatusOK)
	token := body["data"].(map[string]any)["auth"].(map[string]any)["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func (e *testEnv) do(t *testing.T, method, path, token string, payload any, wantStatus int) map[string]any {
	t.Helper()

	var reqBody io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		reqBody = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reqBody)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, wantStatus, resp.StatusCode, "body: %s", raw)

	if len(raw) == 0 {
		return nil
	}
	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}

func errorCode(t *testing.T, body map[string]any) string {
	t.Helper()
	errObj, ok := body["error"].(map[string]any)
	require.True(t, ok, "missing error envelope: %v", body)
	return errObj["code"].(string)
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)

	body := env.do(t, http.MethodPost, "/users/login", "", fiber.Map{"email": "admin@example.com", "password": "secret123"}, http.StatusOK)
	user := body["data"].(map[string]any)["user"].(map[string]any)
	assert.Equal(t, "admin", user["role"])
	assert.NotContains(t, user, "passwordHash")

	body = env.do(t, http.MethodPost, "/users/login", "", fiber.Map{"email": "admin@example.com", "password": "wrong-one"}, http.StatusUnauthorized)
	assert.Equal(t, "UNAUTHORIZED", errorCode(t, body))

	// Unknown email fails identically to a wrong password.
	body = env.do(t, http.MethodPost, "/users/login", "", fiber.Map{"email": "ghost@example.com", "password": "secret123"}, http.StatusUnauthorized)
	assert.Equal(t, "UNAUTHORIZED", errorCode(t, body))
}

func TestMissingTokenIsRejected(t *testing.T) {
	env := newTestEnv(t)

	body := env.do(t, http.MethodGet, "/services/list", "", nil, http.StatusUnauthorized)
	assert.Equal(t, "UNAUTHORIZED", errorCode(t, body))
}

func TestRoleGates(t *testing.T) {
	env := newTestEnv(t)
	clientToken := env.login(t, "client@example.com")
	adminToken := env.login(t, "admin@example.com")

	body := env.do(t, http.MethodGet, "/users/techList", clientToken, nil, http.StatusForbidden)
	assert.Equal(t, "FORBIDDEN", errorCode(t, body))

	body = env.do(t, http.MethodGet, "/users/techList", adminToken, nil, http.StatusOK)
	techs := body["data"].([]any)
	assert.Len(t, techs, 2)

	body = env.do(t, http.MethodPost, "/services", clientToken, fiber.Map{"title": "Cleaning", "price": 40.0}, http.StatusForbidden)
	assert.Equal(t, "FORBIDDEN", errorCode(t, body))
}

func TestAccountSignupValidation(t *testing.T) {
	env := newTestEnv(t)

	body := env.do(t, http.MethodPost, "/users/client", "", fiber.Map{"name": "", "email": "not-an-email", "password": "123"}, http.StatusBadRequest)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(t, body))

	body = env.do(t, http.MethodPost, "/users/client", "", fiber.Map{"name": "Cleo", "email": "cleo@example.com", "password": "secret123"}, http.StatusCreated)
	created := body["data"].(map[string]any)
	assert.Equal(t, "client", created["role"])

	// Same email again conflicts, surfaced as a plain 400.
	body = env.do(t, http.MethodPost, "/users/client", "", fiber.Map{"name": "Cleo", "email": "cleo@example.com", "password": "secret123"}, http.StatusBadRequest)
	assert.Equal(t, "CONFLICT", errorCode(t, body))
}

func TestInvalidIDParameter(t *testing.T) {
	env := newTestEnv(t)
	adminToken := env.login(t, "admin@example.com")

	body := env.do(t, http.MethodPut, "/services/not-a-uuid", adminToken, fiber.Map{"title": "Cleaning", "price": 40.0}, http.StatusBadRequest)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(t, body))
}

func TestTicketFlow(t *testing.T) {
	env := newTestEnv(t)
	clientToken := env.login(t, "client@example.com")
	techToken := env.login(t, "tech@example.com")
	techBToken := env.login(t, "tech-b@example.com")
	adminToken := env.login(t, "admin@example.com")

	wash := env.seedService(t, "Wash", "40.00")
	wax := env.seedService(t, "Wax", "60.00")

	// Techs cannot open tickets.
	body := env.do(t, http.MethodPost, "/tickets", techToken, fiber.Map{"techId": env.tech.ID, "servicesIds": []string{wash.ID}}, http.StatusForbidden)
	assert.Equal(t, "FORBIDDEN", errorCode(t, body))

	body = env.do(t, http.MethodPost, "/tickets", clientToken, fiber.Map{"techId": env.tech.ID, "servicesIds": []string{wash.ID, wax.ID}}, http.StatusCreated)
	created := body["data"].(map[string]any)
	ticketID := created["id"].(string)
	assert.Equal(t, "open", created["status"])
	assert.Equal(t, "100.0", created["totalPrice"])
	assert.Equal(t, env.client.ID, created["clientId"])

	// Tech B never worked this ticket.
	body = env.do(t, http.MethodPut, "/tickets/status/"+ticketID, techBToken, fiber.Map{"status": "closed"}, http.StatusForbidden)
	assert.Equal(t, "FORBIDDEN", errorCode(t, body))

	body = env.do(t, http.MethodPut, "/tickets/status/"+ticketID, techToken, fiber.Map{"status": "in_progress"}, http.StatusOK)
	assert.Equal(t, "in_progress", body["data"].(map[string]any)["status"])

	body = env.do(t, http.MethodPut, "/tickets/status/"+ticketID, techToken, fiber.Map{"status": "shredded"}, http.StatusBadRequest)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(t, body))

	body = env.do(t, http.MethodGet, "/tickets/clientHistory", clientToken, nil, http.StatusOK)
	history := body["data"].([]any)
	require.Len(t, history, 1)

	body = env.do(t, http.MethodGet, "/tickets/list", adminToken, nil, http.StatusOK)
	assert.Len(t, body["data"].([]any), 1)

	// Ticket against an unavailable tech fails with a business 400.
	body = env.do(t, http.MethodPost, "/tickets", clientToken, fiber.Map{"techId": env.techB.ID, "servicesIds": []string{wash.ID}}, http.StatusBadRequest)
	assert.Equal(t, "UNAVAILABLE", errorCode(t, body))
}

func TestHealthLive(t *testing.T) {
	env := newTestEnv(t)

	body := env.do(t, http.MethodGet, "/health/live", "", nil, http.StatusOK)
	assert.Equal(t, "ok", body["status"])
}
