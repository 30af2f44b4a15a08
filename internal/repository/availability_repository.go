package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/opendesk/helpdesk-service/internal/domain"
)

// AvailabilityRepository manages technician hour slots.
type AvailabilityRepository interface {
	// Replace removes every slot the technician has and inserts the new set
	// in one transaction. There are no merge semantics.
	Replace(ctx context.Context, userID string, slots []string) ([]domain.Availability, error)
	ListByUser(ctx context.Context, userID string) ([]string, error)
	ExistsAt(ctx context.Context, userID, slot string) (bool, error)
}

type availabilityRepository struct {
	pool *pgxpool.Pool
}

// NewAvailabilityRepository returns a Postgres-backed implementation.
func NewAvailabilityRepository(pool *pgxpool.Pool) AvailabilityRepository {
	return &availabilityRepository{pool: pool}
}

func (r *availabilityRepository) Replace(ctx context.Context, userID string, slots []string) ([]domain.Availability, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `DELETE FROM technician_availability WHERE user_id=$1`, userID); err != nil {
		return nil, err
	}

	inserted := make([]domain.Availability, 0, len(slots))
	for _, slot := range slots {
		row := domain.Availability{ID: uuid.NewString(), UserID: userID, Time: slot}
		if _, err := tx.Exec(ctx,
			`INSERT INTO technician_availability (id, user_id, time) VALUES ($1, $2, $3)`,
			row.ID, row.UserID, row.Time,
		); err != nil {
			return nil, err
		}
		inserted = append(inserted, row)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return inserted, nil
}

func (r *availabilityRepository) ListByUser(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT time FROM technician_availability WHERE user_id=$1 ORDER BY time`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var slots []string
	for rows.Next() {
		var slot string
		if err := rows.Scan(&slot); err != nil {
			return nil, err
		}
		slots = append(slots, slot)
	}
	return slots, rows.Err()
}

func (r *availabilityRepository) ExistsAt(ctx context.Context, userID, slot string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM technician_availability WHERE user_id=$1 AND time=$2)`,
		userID, slot,
	).Scan(&exists)
	return exists, err
}
