package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/opendesk/helpdesk-service/internal/auth"
	"github.com/opendesk/helpdesk-service/internal/domain"
	"github.com/opendesk/helpdesk-service/internal/events"
	"github.com/opendesk/helpdesk-service/internal/repository"
	apperrors "github.com/opendesk/helpdesk-service/pkg/util"
)

// TicketService coordinates the ticket lifecycle.
type TicketService struct {
	tickets        repository.TicketRepository
	users          repository.UserRepository
	availabilities repository.AvailabilityRepository
	services       repository.ServiceRepository
	dispatcher     events.Dispatcher
	now            func() time.Time
}

// TicketDependencies bundles requirements for the ticket service. Now is
// optional and defaults to time.Now; tests inject a fixed clock.
type TicketDependencies struct {
	TicketRepo       repository.TicketRepository
	UserRepo         repository.UserRepository
	AvailabilityRepo repository.AvailabilityRepository
	ServiceRepo      repository.ServiceRepository
	Dispatcher       events.Dispatcher
	Now              func() time.Time
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &TicketService{
		tickets:        deps.TicketRepo,
		users:          deps.UserRepo,
		availabilities: deps.AvailabilityRepo,
		services:       deps.ServiceRepo,
		dispatcher:     deps.Dispatcher,
		now:            now,
	}
}

// CurrentSlot returns the wall-clock hour truncated to a slot string.
func (s *TicketService) CurrentSlot() string {
	return fmt.Sprintf("%02d:00", s.now().Hour())
}

// Create opens a ticket for the client against an available technician. The
// client id always comes from the authenticated identity.
func (s *TicketService) Create(ctx context.Context, clientID, techID string, serviceIDs []string) (*domain.TicketWithServices, error) {
	tech, err := s.users.GetByID(ctx, techID)
	if err != nil || tech.Role != domain.RoleTech {
		return nil, apperrors.NewNotFound("technician")
	}

	slot := s.CurrentSlot()
	available, err := s.availabilities.ExistsAt(ctx, techID, slot)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !available {
		return nil, apperrors.NewUnavailable("technician is not available at " + slot)
	}

	resolved, err := s.resolveServices(ctx, serviceIDs)
	if err != nil {
		return nil, err
	}

	ticket := &domain.Ticket{ClientID: clientID, TechID: techID}
	if err := s.tickets.CreateWithServices(ctx, ticket, serviceIDs); err != nil {
		return nil, apperrors.MapError(err)
	}

	result := &domain.TicketWithServices{
		Ticket:     *ticket,
		Services:   resolved,
		TotalPrice: sumPrices(resolved),
	}

	s.publishEvent(ctx, events.Event{
		Type:  events.EventTicketCreated,
		Actor: events.Actor{ID: clientID, Role: domain.RoleClient},
		Payload: events.TicketCreatedPayload{
			TicketID:   ticket.ID,
			TechID:     techID,
			ServiceIDs: serviceIDs,
			TotalPrice: result.TotalPrice,
		},
	})
	return result, nil
}

// AddServices links more services to a ticket. Already-linked ids are
// silently skipped; the full current id set is returned.
func (s *TicketService) AddServices(ctx context.Context, actor *auth.Principal, ticketID string, serviceIDs []string) ([]string, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket")
		}
		return nil, apperrors.MapError(err)
	}

	if err := auth.CheckTicketAccess(actor, ticket); err != nil {
		return nil, err
	}

	if _, err := s.resolveServices(ctx, serviceIDs); err != nil {
		return nil, err
	}

	if err := s.tickets.AddServices(ctx, ticketID, serviceIDs); err != nil {
		return nil, apperrors.MapError(err)
	}

	linked, err := s.tickets.ListServiceIDs(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:  events.EventTicketServicesAdded,
		Actor: events.Actor{ID: actor.ID, Role: actor.Role},
		Payload: events.TicketServicesAddedPayload{
			TicketID:   ticketID,
			ServiceIDs: serviceIDs,
		},
	})
	return linked, nil
}

// UpdateStatus overwrites the ticket status. Any of the three values is
// accepted from any current value; there is no transition table.
func (s *TicketService) UpdateStatus(ctx context.Context, actor *auth.Principal, ticketID string, status domain.TicketStatus) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket")
		}
		return nil, apperrors.MapError(err)
	}

	if err := auth.CheckTicketAccess(actor, ticket); err != nil {
		return nil, err
	}

	oldStatus := ticket.Status
	updated, err := s.tickets.UpdateStatus(ctx, ticketID, status)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:  events.EventTicketStatusChanged,
		Actor: events.Actor{ID: actor.ID, Role: actor.Role},
		Payload: events.TicketStatusChangedPayload{
			TicketID:  ticketID,
			OldStatus: oldStatus,
			NewStatus: status,
		},
	})
	return updated, nil
}

// ClientHistory returns the client's tickets, newest first, with aggregated
// services and totals.
func (s *TicketService) ClientHistory(ctx context.Context, clientID string) ([]domain.TicketWithServices, error) {
	tickets, err := s.tickets.ListByClient(ctx, clientID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return s.aggregate(ctx, tickets)
}

// TechTickets returns the technician's tickets, oldest first.
func (s *TicketService) TechTickets(ctx context.Context, techID string) ([]domain.TicketWithServices, error) {
	tickets, err := s.tickets.ListByTech(ctx, techID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return s.aggregate(ctx, tickets)
}

// AllTickets returns every ticket, oldest first.
func (s *TicketService) AllTickets(ctx context.Context) ([]domain.TicketWithServices, error) {
	tickets, err := s.tickets.ListAll(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return s.aggregate(ctx, tickets)
}

func (s *TicketService) aggregate(ctx context.Context, tickets []domain.Ticket) ([]domain.TicketWithServices, error) {
	ids := make([]string, 0, len(tickets))
	for _, ticket := range tickets {
		ids = append(ids, ticket.ID)
	}

	byTicket, err := s.tickets.ServicesByTicket(ctx, ids)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	result := make([]domain.TicketWithServices, 0, len(tickets))
	for _, ticket := range tickets {
		services := byTicket[ticket.ID]
		if services == nil {
			services = []domain.Service{}
		}
		result = append(result, domain.TicketWithServices{
			Ticket:     ticket,
			Services:   services,
			TotalPrice: sumPrices(services),
		})
	}
	return result, nil
}

func (s *TicketService) resolveServices(ctx context.Context, serviceIDs []string) ([]domain.Service, error) {
	if len(serviceIDs) == 0 {
		return nil, apperrors.NewValidationError("at least one service is required", nil)
	}
	resolved, err := s.services.ResolveActive(ctx, serviceIDs)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if len(resolved) != len(serviceIDs) {
		return nil, apperrors.NewDomainError("NOT_FOUND",
			"one or more services do not exist or are inactive", http.StatusBadRequest, nil)
	}
	return resolved, nil
}

// sumPrices adds decimal price strings and renders the total with one
// decimal place, e.g. "100.0".
func sumPrices(services []domain.Service) string {
	var total float64
	for _, service := range services {
		price, err := strconv.ParseFloat(service.Price, 64)
		if err != nil {
			continue
		}
		total += price
	}
	return strconv.FormatFloat(total, 'f', 1, 64)
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
