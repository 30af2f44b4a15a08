package auth

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opendesk/helpdesk-service/internal/domain"
	apperrors "github.com/opendesk/helpdesk-service/pkg/util"
)

func TestCheckRole(t *testing.T) {
	admin := &Principal{ID: "a", Role: domain.RoleAdmin}
	client := &Principal{ID: "c", Role: domain.RoleClient}

	assert.NoError(t, CheckRole(admin, domain.RoleAdmin))
	assert.NoError(t, CheckRole(client, domain.RoleTech, domain.RoleClient))

	err := CheckRole(client, domain.RoleAdmin)
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, apperrors.ToDomainError(err).HTTPStatus)

	err = CheckRole(nil, domain.RoleAdmin)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, apperrors.ToDomainError(err).HTTPStatus)
}

func TestCheckSelfOrAdmin(t *testing.T) {
	assert.NoError(t, CheckSelfOrAdmin(&Principal{ID: "u1", Role: domain.RoleClient}, "u1"))
	assert.NoError(t, CheckSelfOrAdmin(&Principal{ID: "other", Role: domain.RoleAdmin}, "u1"))

	err := CheckSelfOrAdmin(&Principal{ID: "u2", Role: domain.RoleClient}, "u1")
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, apperrors.ToDomainError(err).HTTPStatus)
}

func TestCheckTicketAccess(t *testing.T) {
	ticket := &domain.Ticket{ID: "t1", TechID: "tech-a", ClientID: "client-a"}

	assert.NoError(t, CheckTicketAccess(&Principal{ID: "x", Role: domain.RoleAdmin}, ticket))
	assert.NoError(t, CheckTicketAccess(&Principal{ID: "tech-a", Role: domain.RoleTech}, ticket))

	// Another technician never touches a colleague's ticket.
	err := CheckTicketAccess(&Principal{ID: "tech-b", Role: domain.RoleTech}, ticket)
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, apperrors.ToDomainError(err).HTTPStatus)

	// The owning client cannot mutate the ticket either.
	err = CheckTicketAccess(&Principal{ID: "client-a", Role: domain.RoleClient}, ticket)
	assert.Error(t, err)
}
