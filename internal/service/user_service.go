package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/opendesk/helpdesk-service/internal/auth"
	"github.com/opendesk/helpdesk-service/internal/domain"
	"github.com/opendesk/helpdesk-service/internal/events"
	"github.com/opendesk/helpdesk-service/internal/repository"
	apperrors "github.com/opendesk/helpdesk-service/pkg/util"
)

// DefaultTechAvailability is the business-hours slot set seeded for every new
// technician: 08:00-11:00 and 14:00-17:00.
var DefaultTechAvailability = []string{
	"08:00", "09:00", "10:00", "11:00",
	"14:00", "15:00", "16:00", "17:00",
}

// UserService manages the account directory: creation, updates, availability
// and profile pictures.
type UserService struct {
	users          repository.UserRepository
	availabilities repository.AvailabilityRepository
	dispatcher     events.Dispatcher
	bcryptCost     int
	publicBaseURL  string
}

// UserDependencies bundles requirements for the user service.
type UserDependencies struct {
	UserRepo         repository.UserRepository
	AvailabilityRepo repository.AvailabilityRepository
	Dispatcher       events.Dispatcher
	BcryptCost       int
	PublicBaseURL    string
}

// AccountInput carries the full overwrite payload for account updates. All
// three fields are required; there is no partial update.
type AccountInput struct {
	Name     string
	Email    string
	Password string
}

// NewUserService constructs the service.
func NewUserService(deps UserDependencies) *UserService {
	return &UserService{
		users:          deps.UserRepo,
		availabilities: deps.AvailabilityRepo,
		dispatcher:     deps.Dispatcher,
		bcryptCost:     deps.BcryptCost,
		publicBaseURL:  deps.PublicBaseURL,
	}
}

// CreateTechAccount registers a technician and seeds default availability.
func (s *UserService) CreateTechAccount(ctx context.Context, input AccountInput) (*domain.User, []string, error) {
	user, err := s.createAccount(ctx, input, domain.RoleTech)
	if err != nil {
		return nil, nil, err
	}

	if _, err := s.availabilities.Replace(ctx, user.ID, DefaultTechAvailability); err != nil {
		return nil, nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:  events.EventTechnicianCreated,
		Actor: events.Actor{ID: user.ID, Role: domain.RoleTech},
		Payload: events.TechnicianCreatedPayload{
			TechID: user.ID,
			Slots:  DefaultTechAvailability,
		},
	})
	return user, DefaultTechAvailability, nil
}

// CreateClientAccount registers a client via public self-signup.
func (s *UserService) CreateClientAccount(ctx context.Context, input AccountInput) (*domain.User, error) {
	return s.createAccount(ctx, input, domain.RoleClient)
}

func (s *UserService) createAccount(ctx context.Context, input AccountInput, role domain.Role) (*domain.User, error) {
	if _, err := s.users.GetByEmail(ctx, input.Email); err == nil {
		return nil, apperrors.NewConflict("email already in use")
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	user := &domain.User{
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// UpdateAccount overwrites name, email and password of an account that must
// exist with the expected role.
func (s *UserService) UpdateAccount(ctx context.Context, role domain.Role, id string, input AccountInput) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil || user.Role != role {
		return nil, apperrors.NewNotFound(string(role))
	}

	if other, err := s.users.GetByEmail(ctx, input.Email); err == nil && other.ID != id {
		return nil, apperrors.NewConflict("email already in use by another account")
	} else if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	user.Name = input.Name
	user.Email = input.Email
	user.PasswordHash = hash
	if err := s.users.Update(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// ReplaceAvailability swaps a technician's entire slot set.
func (s *UserService) ReplaceAvailability(ctx context.Context, techID string, slots []string) ([]domain.Availability, error) {
	user, err := s.users.GetByID(ctx, techID)
	if err != nil || user.Role != domain.RoleTech {
		return nil, apperrors.NewNotFound("technician")
	}

	replaced, err := s.availabilities.Replace(ctx, techID, slots)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return replaced, nil
}

// UpdatePicture stores the encoded image and returns its public URL.
func (s *UserService) UpdatePicture(ctx context.Context, userID, encoded string) (string, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return "", apperrors.NewNotFound("user")
	}
	if err := s.users.UpdatePicture(ctx, userID, encoded); err != nil {
		return "", apperrors.MapError(err)
	}
	return fmt.Sprintf("%s/users/picture/%s", s.publicBaseURL, userID), nil
}

// GetPicture returns the stored image payload, or nil when none is set.
func (s *UserService) GetPicture(ctx context.Context, userID string) (*string, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, apperrors.NewNotFound("user")
	}
	return user.Picture, nil
}

// DeleteClientAccount hard-deletes a client; owned tickets cascade away.
func (s *UserService) DeleteClientAccount(ctx context.Context, clientID string) error {
	user, err := s.users.GetByID(ctx, clientID)
	if err != nil || user.Role != domain.RoleClient {
		return apperrors.NewNotFound("client")
	}
	if err := s.users.Delete(ctx, clientID); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

// ListTechAccounts returns technicians with their slots sorted ascending.
func (s *UserService) ListTechAccounts(ctx context.Context) ([]domain.TechWithAvailability, error) {
	techs, err := s.users.ListTechsWithAvailability(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return techs, nil
}

// ListClientAccounts returns every client account.
func (s *UserService) ListClientAccounts(ctx context.Context) ([]domain.User, error) {
	clients, err := s.users.ListByRole(ctx, domain.RoleClient)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return clients, nil
}

func (s *UserService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
