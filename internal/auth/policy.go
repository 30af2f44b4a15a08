package auth

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/opendesk/helpdesk-service/internal/domain"
	apperrors "github.com/opendesk/helpdesk-service/pkg/util"
)

// The access policy is a set of pure predicates over (actor, resource).
// Every mutating handler evaluates its predicate before touching business
// logic, so a denial always wins over a validation or lookup failure.

// CheckRole allows only actors whose role is in the allowed set.
func CheckRole(actor *Principal, allowed ...domain.Role) error {
	if actor == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	for _, role := range allowed {
		if actor.Role == role {
			return nil
		}
	}
	return apperrors.NewForbidden(fmt.Sprintf("access denied: requires role %s", rolesLabel(allowed)))
}

// CheckSelfOrAdmin allows the owner of the resource or any admin.
func CheckSelfOrAdmin(actor *Principal, resourceID string) error {
	if actor == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	if actor.ID == resourceID || actor.Role == domain.RoleAdmin {
		return nil
	}
	return apperrors.NewForbidden("access denied: not the account owner")
}

// CheckTicketAccess allows the ticket's assigned technician or any admin.
func CheckTicketAccess(actor *Principal, ticket *domain.Ticket) error {
	if actor == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	if actor.Role == domain.RoleAdmin {
		return nil
	}
	if actor.Role == domain.RoleTech && actor.ID == ticket.TechID {
		return nil
	}
	return apperrors.NewForbidden("access denied: ticket belongs to another technician")
}

// RequireRole is route-level middleware gating on exact role membership.
func RequireRole(allowed ...domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if err := CheckRole(principal, allowed...); err != nil {
			return err
		}
		return c.Next()
	}
}

// RequireAuthenticated only demands a valid principal.
func RequireAuthenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := PrincipalFromContext(c); !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		return c.Next()
	}
}

func rolesLabel(roles []domain.Role) string {
	label := ""
	for i, role := range roles {
		if i > 0 {
			label += " or "
		}
		label += string(role)
	}
	return label
}
