package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opendesk/helpdesk-service/internal/auth"
	"github.com/opendesk/helpdesk-service/internal/domain"
	"github.com/opendesk/helpdesk-service/internal/repository"
	apperrors "github.com/opendesk/helpdesk-service/pkg/util"
)

type ticketFixture struct {
	svc      *TicketService
	users    *repository.MemoryUserRepository
	avail    *repository.MemoryAvailabilityRepository
	services *repository.MemoryServiceRepository
	tickets  *repository.MemoryTicketRepository
}

// newTicketFixture pins the clock inside business hours (09:00).
func newTicketFixture() *ticketFixture {
	availRepo := repository.NewMemoryAvailabilityRepository()
	userRepo := repository.NewMemoryUserRepository(availRepo)
	serviceRepo := repository.NewMemoryServiceRepository()
	ticketRepo := repository.NewMemoryTicketRepository(serviceRepo)

	svc := NewTicketService(TicketDependencies{
		TicketRepo:       ticketRepo,
		UserRepo:         userRepo,
		AvailabilityRepo: availRepo,
		ServiceRepo:      serviceRepo,
		Now: func() time.Time {
			return time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)
		},
	})
	return &ticketFixture{svc: svc, users: userRepo, avail: availRepo, services: serviceRepo, tickets: ticketRepo}
}

func (f *ticketFixture) seedUser(t *testing.T, role domain.Role, email string) *domain.User {
	t.Helper()
	user := &domain.User{Name: "User " + email, Email: email, PasswordHash: "x", Role: role}
	require.NoError(t, f.users.Create(context.Background(), user))
	return user
}

func (f *ticketFixture) seedTech(t *testing.T, email string, slots ...string) *domain.User {
	t.Helper()
	tech := f.seedUser(t, domain.RoleTech, email)
	if len(slots) == 0 {
		slots = DefaultTechAvailability
	}
	_, err := f.avail.Replace(context.Background(), tech.ID, slots)
	require.NoError(t, err)
	return tech
}

func (f *ticketFixture) seedService(t *testing.T, title, price string) *domain.Service {
	t.Helper()
	service := &domain.Service{Title: title, Price: price}
	require.NoError(t, f.services.Create(context.Background(), service))
	return service
}

func TestCreateTicket(t *testing.T) {
	f := newTicketFixture()
	ctx := context.Background()

	tech := f.seedTech(t, "tess@example.com")
	client := f.seedUser(t, domain.RoleClient, "cleo@example.com")
	wash := f.seedService(t, "Wash", "40.00")
	wax := f.seedService(t, "Wax", "60.00")

	created, err := f.svc.Create(ctx, client.ID, tech.ID, []string{wash.ID, wax.ID})
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusOpen, created.Status)
	assert.Equal(t, client.ID, created.ClientID)
	assert.Equal(t, tech.ID, created.TechID)
	assert.Len(t, created.Services, 2)
	assert.Equal(t, "100.0", created.TotalPrice)
}

func TestCreateTicketOutsideAvailability(t *testing.T) {
	f := newTicketFixture()
	ctx := context.Background()

	// Clock is pinned at 09:30 but this technician only works afternoons.
	tech := f.seedTech(t, "tess@example.com", "14:00", "15:00")
	client := f.seedUser(t, domain.RoleClient, "cleo@example.com")
	wash := f.seedService(t, "Wash", "40.00")

	_, err := f.svc.Create(ctx, client.ID, tech.ID, []string{wash.ID})
	require.Error(t, err)
	domainErr := apperrors.ToDomainError(err)
	assert.Equal(t, "UNAVAILABLE", domainErr.Code)
	assert.Equal(t, http.StatusBadRequest, domainErr.HTTPStatus)
	assert.Equal(t, "technician is not available at 09:00", domainErr.Message)
}

func TestCreateTicketRejectsNonTechnician(t *testing.T) {
	f := newTicketFixture()
	ctx := context.Background()

	client := f.seedUser(t, domain.RoleClient, "cleo@example.com")
	other := f.seedUser(t, domain.RoleClient, "mallory@example.com")
	wash := f.seedService(t, "Wash", "40.00")

	_, err := f.svc.Create(ctx, client.ID, other.ID, []string{wash.ID})
	require.Error(t, err)
	assert.Equal(t, "technician not found", apperrors.ToDomainError(err).Message)

	_, err = f.svc.Create(ctx, client.ID, "ffffffff-0000-0000-0000-000000000000", []string{wash.ID})
	require.Error(t, err)
	assert.Equal(t, "technician not found", apperrors.ToDomainError(err).Message)
}

func TestCreateTicketRejectsInactiveService(t *testing.T) {
	f := newTicketFixture()
	ctx := context.Background()

	tech := f.seedTech(t, "tess@example.com")
	client := f.seedUser(t, domain.RoleClient, "cleo@example.com")
	wash := f.seedService(t, "Wash", "40.00")
	retired := f.seedService(t, "Retired", "10.00")
	require.NoError(t, f.services.Deactivate(ctx, retired.ID))

	_, err := f.svc.Create(ctx, client.ID, tech.ID, []string{wash.ID, retired.ID})
	require.Error(t, err)
	assert.Equal(t, "one or more services do not exist or are inactive", apperrors.ToDomainError(err).Message)

	_, err = f.svc.Create(ctx, client.ID, tech.ID, nil)
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)
}

func TestAddServicesIsIdempotent(t *testing.T) {
	f := newTicketFixture()
	ctx := context.Background()

	tech := f.seedTech(t, "tess@example.com")
	client := f.seedUser(t, domain.RoleClient, "cleo@example.com")
	wash := f.seedService(t, "Wash", "40.00")
	wax := f.seedService(t, "Wax", "60.00")

	created, err := f.svc.Create(ctx, client.ID, tech.ID, []string{wash.ID})
	require.NoError(t, err)

	actor := &auth.Principal{ID: tech.ID, Role: domain.RoleTech}

	linked, err := f.svc.AddServices(ctx, actor, created.ID, []string{wash.ID, wax.ID})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{wash.ID, wax.ID}, linked)

	// Re-adding the same ids changes nothing.
	linked, err = f.svc.AddServices(ctx, actor, created.ID, []string{wax.ID})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{wash.ID, wax.ID}, linked)
}

func TestAddServicesAccessControl(t *testing.T) {
	f := newTicketFixture()
	ctx := context.Background()

	techA := f.seedTech(t, "a@example.com")
	techB := f.seedTech(t, "b@example.com")
	client := f.seedUser(t, domain.RoleClient, "cleo@example.com")
	wash := f.seedService(t, "Wash", "40.00")

	created, err := f.svc.Create(ctx, client.ID, techA.ID, []string{wash.ID})
	require.NoError(t, err)

	_, err = f.svc.AddServices(ctx, &auth.Principal{ID: techB.ID, Role: domain.RoleTech}, created.ID, []string{wash.ID})
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, apperrors.ToDomainError(err).HTTPStatus)

	// Admins operate on any ticket.
	_, err = f.svc.AddServices(ctx, &auth.Principal{ID: "admin", Role: domain.RoleAdmin}, created.ID, []string{wash.ID})
	assert.NoError(t, err)

	// A missing ticket reports not-found before any access decision.
	_, err = f.svc.AddServices(ctx, &auth.Principal{ID: techB.ID, Role: domain.RoleTech}, "ffffffff-0000-0000-0000-000000000000", []string{wash.ID})
	require.Error(t, err)
	assert.Equal(t, "ticket not found", apperrors.ToDomainError(err).Message)
}

func TestUpdateStatusAllowsAnyTransition(t *testing.T) {
	f := newTicketFixture()
	ctx := context.Background()

	tech := f.seedTech(t, "tess@example.com")
	client := f.seedUser(t, domain.RoleClient, "cleo@example.com")
	wash := f.seedService(t, "Wash", "40.00")

	created, err := f.svc.Create(ctx, client.ID, tech.ID, []string{wash.ID})
	require.NoError(t, err)

	actor := &auth.Principal{ID: tech.ID, Role: domain.RoleTech}

	updated, err := f.svc.UpdateStatus(ctx, actor, created.ID, domain.TicketStatusClosed)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusClosed, updated.Status)

	// Reopening a closed ticket is legal; there is no transition table.
	updated, err = f.svc.UpdateStatus(ctx, actor, created.ID, domain.TicketStatusOpen)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusOpen, updated.Status)

	_, err = f.svc.UpdateStatus(ctx, &auth.Principal{ID: client.ID, Role: domain.RoleClient}, created.ID, domain.TicketStatusClosed)
	assert.Error(t, err)
}

func TestListingOrders(t *testing.T) {
	f := newTicketFixture()
	ctx := context.Background()

	tech := f.seedTech(t, "tess@example.com")
	client := f.seedUser(t, domain.RoleClient, "cleo@example.com")
	wash := f.seedService(t, "Wash", "40.00")

	first, err := f.svc.Create(ctx, client.ID, tech.ID, []string{wash.ID})
	require.NoError(t, err)
	second, err := f.svc.Create(ctx, client.ID, tech.ID, []string{wash.ID})
	require.NoError(t, err)

	// Clients read their history newest first.
	history, err := f.svc.ClientHistory(ctx, client.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, second.ID, history[0].ID)
	assert.Equal(t, first.ID, history[1].ID)

	// Technicians and admins work oldest first.
	queue, err := f.svc.TechTickets(ctx, tech.ID)
	require.NoError(t, err)
	require.Len(t, queue, 2)
	assert.Equal(t, first.ID, queue[0].ID)

	all, err := f.svc.AllTickets(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, first.ID, all[0].ID)
	assert.Equal(t, "40.0", all[0].TotalPrice)
}

func TestHistoryKeepsDeactivatedServices(t *testing.T) {
	f := newTicketFixture()
	ctx := context.Background()

	tech := f.seedTech(t, "tess@example.com")
	client := f.seedUser(t, domain.RoleClient, "cleo@example.com")
	wash := f.seedService(t, "Wash", "40.00")
	wax := f.seedService(t, "Wax", "60.00")

	created, err := f.svc.Create(ctx, client.ID, tech.ID, []string{wash.ID, wax.ID})
	require.NoError(t, err)

	require.NoError(t, f.services.Deactivate(ctx, wax.ID))

	history, err := f.svc.ClientHistory(ctx, client.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, created.ID, history[0].ID)
	assert.Len(t, history[0].Services, 2)
	assert.Equal(t, "100.0", history[0].TotalPrice)
}
