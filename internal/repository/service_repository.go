package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/opendesk/helpdesk-service/internal/domain"
)

// ServiceRepository encapsulates catalog persistence.
type ServiceRepository interface {
	Create(ctx context.Context, service *domain.Service) error
	Update(ctx context.Context, service *domain.Service) error
	Deactivate(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Service, error)
	ListActive(ctx context.Context) ([]domain.Service, error)
	// ResolveActive returns the subset of ids that exist and are active.
	ResolveActive(ctx context.Context, ids []string) ([]domain.Service, error)
}

type serviceRepository struct {
	pool *pgxpool.Pool
}

// NewServiceRepository returns a Postgres-backed implementation.
func NewServiceRepository(pool *pgxpool.Pool) ServiceRepository {
	return &serviceRepository{pool: pool}
}

func (r *serviceRepository) Create(ctx context.Context, service *domain.Service) error {
	if service.ID == "" {
		service.ID = uuid.NewString()
	}
	service.Active = true
	_, err := r.pool.Exec(ctx,
		`INSERT INTO services (id, title, price, active) VALUES ($1, $2, $3, TRUE)`,
		service.ID, service.Title, service.Price)
	return err
}

func (r *serviceRepository) Update(ctx context.Context, service *domain.Service) error {
	cmd, err := r.pool.Exec(ctx,
		`UPDATE services SET title=$1, price=$2 WHERE id=$3`,
		service.Title, service.Price, service.ID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *serviceRepository) Deactivate(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE services SET active=FALSE WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *serviceRepository) GetByID(ctx context.Context, id string) (*domain.Service, error) {
	var service domain.Service
	if err := r.pool.QueryRow(ctx,
		`SELECT id, title, price::text, active FROM services WHERE id=$1`, id,
	).Scan(&service.ID, &service.Title, &service.Price, &service.Active); err != nil {
		return nil, err
	}
	return &service, nil
}

func (r *serviceRepository) ListActive(ctx context.Context) ([]domain.Service, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, title, price::text, active FROM services WHERE active ORDER BY title`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanServices(rows)
}

func (r *serviceRepository) ResolveActive(ctx context.Context, ids []string) ([]domain.Service, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, title, price::text, active FROM services WHERE active AND id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanServices(rows)
}

func scanServices(rows pgx.Rows) ([]domain.Service, error) {
	var result []domain.Service
	for rows.Next() {
		var service domain.Service
		if err := rows.Scan(&service.ID, &service.Title, &service.Price, &service.Active); err != nil {
			return nil, err
		}
		result = append(result, service)
	}
	return result, rows.Err()
}
