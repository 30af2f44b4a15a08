package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/opendesk/helpdesk-service/internal/domain"
)

// TicketOrder controls listing direction. Client history reads newest first,
// technician and admin listings oldest first.
type TicketOrder string

const (
	OrderNewestFirst TicketOrder = "DESC"
	OrderOldestFirst TicketOrder = "ASC"
)

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	// CreateWithServices inserts the ticket row and one join row per service
	// in a single transaction; a failure rolls both back.
	CreateWithServices(ctx context.Context, ticket *domain.Ticket, serviceIDs []string) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	// AddServices links services to a ticket, silently skipping pairs that
	// already exist.
	AddServices(ctx context.Context, ticketID string, serviceIDs []string) error
	ListServiceIDs(ctx context.Context, ticketID string) ([]string, error)
	UpdateStatus(ctx context.Context, ticketID string, status domain.TicketStatus) (*domain.Ticket, error)
	ListByClient(ctx context.Context, clientID string) ([]domain.Ticket, error)
	ListByTech(ctx context.Context, techID string) ([]domain.Ticket, error)
	ListAll(ctx context.Context) ([]domain.Ticket, error)
	// ServicesByTicket fetches linked services for a batch of tickets.
	ServicesByTicket(ctx context.Context, ticketIDs []string) (map[string][]domain.Service, error)
	ListOpenOlderThan(ctx context.Context, cutoff time.Time) ([]domain.Ticket, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

func (r *ticketRepository) CreateWithServices(ctx context.Context, ticket *domain.Ticket, serviceIDs []string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if ticket.ID == "" {
		ticket.ID = uuid.NewString()
	}
	ticket.Status = domain.TicketStatusOpen

	if err := tx.QueryRow(ctx,
		`INSERT INTO tickets (id, client_id, tech_id, status) VALUES ($1, $2, $3, $4)
         RETURNING created_at, updated_at`,
		ticket.ID, ticket.ClientID, ticket.TechID, ticket.Status,
	).Scan(&ticket.CreatedAt, &ticket.UpdatedAt); err != nil {
		return err
	}

	for _, serviceID := range serviceIDs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO ticket_services (ticket_id, service_id) VALUES ($1, $2)`,
			ticket.ID, serviceID,
		); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := r.pool.QueryRow(ctx,
		`SELECT id, client_id, tech_id, status, created_at, updated_at FROM tickets WHERE id=$1`, id,
	).Scan(
		&ticket.ID,
		&ticket.ClientID,
		&ticket.TechID,
		&ticket.Status,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) AddServices(ctx context.Context, ticketID string, serviceIDs []string) error {
	for _, serviceID := range serviceIDs {
		if _, err := r.pool.Exec(ctx,
			`INSERT INTO ticket_services (ticket_id, service_id) VALUES ($1, $2)
             ON CONFLICT (ticket_id, service_id) DO NOTHING`,
			ticketID, serviceID,
		); err != nil {
			return err
		}
	}
	return nil
}

func (r *ticketRepository) ListServiceIDs(ctx context.Context, ticketID string) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT service_id FROM ticket_services WHERE ticket_id=$1`, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *ticketRepository) UpdateStatus(ctx context.Context, ticketID string, status domain.TicketStatus) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := r.pool.QueryRow(ctx,
		`UPDATE tickets SET status=$1, updated_at=NOW() WHERE id=$2
         RETURNING id, client_id, tech_id, status, created_at, updated_at`,
		status, ticketID,
	).Scan(
		&ticket.ID,
		&ticket.ClientID,
		&ticket.TechID,
		&ticket.Status,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) ListByClient(ctx context.Context, clientID string) ([]domain.Ticket, error) {
	return r.list(ctx, `WHERE client_id=$1`, OrderNewestFirst, clientID)
}

func (r *ticketRepository) ListByTech(ctx context.Context, techID string) ([]domain.Ticket, error) {
	return r.list(ctx, `WHERE tech_id=$1`, OrderOldestFirst, techID)
}

func (r *ticketRepository) ListAll(ctx context.Context) ([]domain.Ticket, error) {
	return r.list(ctx, ``, OrderOldestFirst)
}

func (r *ticketRepository) list(ctx context.Context, where string, order TicketOrder, args ...any) ([]domain.Ticket, error) {
	query := `SELECT id, client_id, tech_id, status, created_at, updated_at FROM tickets ` +
		where + ` ORDER BY created_at ` + string(order)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) ServicesByTicket(ctx context.Context, ticketIDs []string) (map[string][]domain.Service, error) {
	result := make(map[string][]domain.Service, len(ticketIDs))
	if len(ticketIDs) == 0 {
		return result, nil
	}

	rows, err := r.pool.Query(ctx,
		`SELECT ts.ticket_id, s.id, s.title, s.price::text, s.active
         FROM ticket_services ts
         JOIN services s ON s.id = ts.service_id
         WHERE ts.ticket_id = ANY($1)`,
		ticketIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var ticketID string
		var service domain.Service
		if err := rows.Scan(&ticketID, &service.ID, &service.Title, &service.Price, &service.Active); err != nil {
			return nil, err
		}
		result[ticketID] = append(result[ticketID], service)
	}
	return result, rows.Err()
}

func (r *ticketRepository) ListOpenOlderThan(ctx context.Context, cutoff time.Time) ([]domain.Ticket, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, client_id, tech_id, status, created_at, updated_at
         FROM tickets WHERE status=$1 AND created_at < $2 ORDER BY created_at`,
		domain.TicketStatusOpen, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(
			&ticket.ID,
			&ticket.ClientID,
			&ticket.TechID,
			&ticket.Status,
			&ticket.CreatedAt,
			&ticket.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
