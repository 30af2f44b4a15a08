package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/opendesk/helpdesk-service/internal/domain"
)

// In-memory implementations of the repository interfaces. They back the
// service and handler tests and mirror the Postgres behavior, including
// pgx.ErrNoRows on missing rows and listing order.

// MemoryUserRepository stores users in a map.
type MemoryUserRepository struct {
	mu    sync.Mutex
	users map[string]*domain.User
	order []string
	avail *MemoryAvailabilityRepository
}

// NewMemoryUserRepository builds an empty store. The availability repository
// is optional and only needed for ListTechsWithAvailability.
func NewMemoryUserRepository(avail *MemoryAvailabilityRepository) *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[string]*domain.User), avail: avail}
}

func (r *MemoryUserRepository) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	copied := *user
	r.users[user.ID] = &copied
	r.order = append(r.order, user.ID)
	return nil
}

func (r *MemoryUserRepository) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.users[user.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	existing.Name = user.Name
	existing.Email = user.Email
	existing.PasswordHash = user.PasswordHash
	existing.UpdatedAt = time.Now()
	return nil
}

func (r *MemoryUserRepository) UpdatePicture(_ context.Context, id, picture string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	existing.Picture = &picture
	existing.UpdatedAt = time.Now()
	return nil
}

func (r *MemoryUserRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.users, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *MemoryUserRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *user
	return &copied, nil
}

func (r *MemoryUserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *MemoryUserRepository) ListByRole(_ context.Context, role domain.Role) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.User
	for _, id := range r.order {
		if user, ok := r.users[id]; ok && user.Role == role {
			result = append(result, *user)
		}
	}
	return result, nil
}

func (r *MemoryUserRepository) ListTechsWithAvailability(ctx context.Context) ([]domain.TechWithAvailability, error) {
	techs, err := r.ListByRole(ctx, domain.RoleTech)
	if err != nil {
		return nil, err
	}
	result := make([]domain.TechWithAvailability, 0, len(techs))
	for _, tech := range techs {
		entry := domain.TechWithAvailability{User: tech, Availabilities: []string{}}
		if r.avail != nil {
			slots, err := r.avail.ListByUser(ctx, tech.ID)
			if err != nil {
				return nil, err
			}
			if slots != nil {
				entry.Availabilities = slots
			}
		}
		result = append(result, entry)
	}
	return result, nil
}

// MemoryAvailabilityRepository stores slots per technician.
type MemoryAvailabilityRepository struct {
	mu    sync.Mutex
	slots map[string][]string
}

// NewMemoryAvailabilityRepository builds an empty store.
func NewMemoryAvailabilityRepository() *MemoryAvailabilityRepository {
	return &MemoryAvailabilityRepository{slots: make(map[string][]string)}
}

func (r *MemoryAvailabilityRepository) Replace(_ context.Context, userID string, slots []string) ([]domain.Availability, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.slots[userID] = append([]string(nil), slots...)
	result := make([]domain.Availability, 0, len(slots))
	for _, slot := range slots {
		result = append(result, domain.Availability{ID: uuid.NewString(), UserID: userID, Time: slot})
	}
	return result, nil
}

func (r *MemoryAvailabilityRepository) ListByUser(_ context.Context, userID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	slots := append([]string(nil), r.slots[userID]...)
	sort.Strings(slots)
	return slots, nil
}

func (r *MemoryAvailabilityRepository) ExistsAt(_ context.Context, userID, slot string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.slots[userID] {
		if existing == slot {
			return true, nil
		}
	}
	return false, nil
}

// MemoryServiceRepository stores catalog rows.
type MemoryServiceRepository struct {
	mu       sync.Mutex
	services map[string]*domain.Service
	order    []string
}

// NewMemoryServiceRepository builds an empty store.
func NewMemoryServiceRepository() *MemoryServiceRepository {
	return &MemoryServiceRepository{services: make(map[string]*domain.Service)}
}

func (r *MemoryServiceRepository) Create(_ context.Context, service *domain.Service) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if service.ID == "" {
		service.ID = uuid.NewString()
	}
	service.Active = true
	copied := *service
	r.services[service.ID] = &copied
	r.order = append(r.order, service.ID)
	return nil
}

func (r *MemoryServiceRepository) Update(_ context.Context, service *domain.Service) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.services[service.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	existing.Title = service.Title
	existing.Price = service.Price
	return nil
}

func (r *MemoryServiceRepository) Deactivate(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.services[id]
	if !ok {
		return pgx.ErrNoRows
	}
	existing.Active = false
	return nil
}

func (r *MemoryServiceRepository) GetByID(_ context.Context, id string) (*domain.Service, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	service, ok := r.services[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *service
	return &copied, nil
}

func (r *MemoryServiceRepository) ListActive(_ context.Context) ([]domain.Service, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Service
	for _, id := range r.order {
		if service, ok := r.services[id]; ok && service.Active {
			result = append(result, *service)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Title < result[j].Title })
	return result, nil
}

func (r *MemoryServiceRepository) ResolveActive(_ context.Context, ids []string) ([]domain.Service, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Service
	for _, id := range ids {
		if service, ok := r.services[id]; ok && service.Active {
			result = append(result, *service)
		}
	}
	return result, nil
}

// MemoryTicketRepository stores tickets and their service links.
type MemoryTicketRepository struct {
	mu       sync.Mutex
	tickets  map[string]*domain.Ticket
	links    map[string][]string
	order    []string
	services *MemoryServiceRepository
	seq      int
}

// NewMemoryTicketRepository builds an empty store resolving service details
// against the given catalog.
func NewMemoryTicketRepository(services *MemoryServiceRepository) *MemoryTicketRepository {
	return &MemoryTicketRepository{
		tickets:  make(map[string]*domain.Ticket),
		links:    make(map[string][]string),
		services: services,
	}
}

func (r *MemoryTicketRepository) CreateWithServices(_ context.Context, ticket *domain.Ticket, serviceIDs []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ticket.ID == "" {
		ticket.ID = uuid.NewString()
	}
	ticket.Status = domain.TicketStatusOpen
	r.seq++
	ticket.CreatedAt = time.Unix(int64(r.seq), 0)
	ticket.UpdatedAt = ticket.CreatedAt
	copied := *ticket
	r.tickets[ticket.ID] = &copied
	r.order = append(r.order, ticket.ID)
	r.links[ticket.ID] = append([]string(nil), serviceIDs...)
	return nil
}

func (r *MemoryTicketRepository) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *ticket
	return &copied, nil
}

func (r *MemoryTicketRepository) AddServices(_ context.Context, ticketID string, serviceIDs []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tickets[ticketID]; !ok {
		return pgx.ErrNoRows
	}
	for _, serviceID := range serviceIDs {
		linked := false
		for _, existing := range r.links[ticketID] {
			if existing == serviceID {
				linked = true
				break
			}
		}
		if !linked {
			r.links[ticketID] = append(r.links[ticketID], serviceID)
		}
	}
	return nil
}

func (r *MemoryTicketRepository) ListServiceIDs(_ context.Context, ticketID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.links[ticketID]...), nil
}

func (r *MemoryTicketRepository) UpdateStatus(_ context.Context, ticketID string, status domain.TicketStatus) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[ticketID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	ticket.Status = status
	ticket.UpdatedAt = time.Now()
	copied := *ticket
	return &copied, nil
}

func (r *MemoryTicketRepository) ListByClient(_ context.Context, clientID string) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Ticket
	for i := len(r.order) - 1; i >= 0; i-- {
		if ticket, ok := r.tickets[r.order[i]]; ok && ticket.ClientID == clientID {
			result = append(result, *ticket)
		}
	}
	return result, nil
}

func (r *MemoryTicketRepository) ListByTech(_ context.Context, techID string) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Ticket
	for _, id := range r.order {
		if ticket, ok := r.tickets[id]; ok && ticket.TechID == techID {
			result = append(result, *ticket)
		}
	}
	return result, nil
}

func (r *MemoryTicketRepository) ListAll(_ context.Context) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Ticket
	for _, id := range r.order {
		if ticket, ok := r.tickets[id]; ok {
			result = append(result, *ticket)
		}
	}
	return result, nil
}

func (r *MemoryTicketRepository) ServicesByTicket(ctx context.Context, ticketIDs []string) (map[string][]domain.Service, error) {
	r.mu.Lock()
	linkedIDs := make(map[string][]string, len(ticketIDs))
	for _, ticketID := range ticketIDs {
		linkedIDs[ticketID] = append([]string(nil), r.links[ticketID]...)
	}
	r.mu.Unlock()

	result := make(map[string][]domain.Service, len(ticketIDs))
	for ticketID, serviceIDs := range linkedIDs {
		for _, serviceID := range serviceIDs {
			service, err := r.services.GetByID(ctx, serviceID)
			if err != nil {
				continue
			}
			result[ticketID] = append(result[ticketID], *service)
		}
	}
	return result, nil
}

func (r *MemoryTicketRepository) ListOpenOlderThan(_ context.Context, cutoff time.Time) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Ticket
	for _, id := range r.order {
		if ticket, ok := r.tickets[id]; ok && ticket.Status == domain.TicketStatusOpen && ticket.CreatedAt.Before(cutoff) {
			result = append(result, *ticket)
		}
	}
	return result, nil
}
