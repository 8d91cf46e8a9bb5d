package authz_test

import (
	"testing"

	"github.com/geocoder89/worklink/internal/authz"
	"github.com/stretchr/testify/assert"
)

func TestOwns(t *testing.T) {
	assert.NoError(t, authz.Owns("u1", "u1"))
	assert.ErrorIs(t, authz.Owns("u1", "u2"), authz.ErrForbidden)
	assert.ErrorIs(t, authz.Owns("", ""), authz.ErrForbidden, "empty caller never owns")
}

func TestParticipates(t *testing.T) {
	participants := []string{"worker-1", "contractor-1"}

	assert.NoError(t, authz.Participates("worker-1", participants))
	assert.NoError(t, authz.Participates("contractor-1", participants))
	assert.ErrorIs(t, authz.Participates("stranger", participants), authz.ErrForbidden)
	assert.ErrorIs(t, authz.Participates("worker-1", nil), authz.ErrForbidden)
	assert.ErrorIs(t, authz.Participates("", []string{""}), authz.ErrForbidden)
}

func TestHasRole(t *testing.T) {
	assert.True(t, authz.HasRole("worker", "contractor", "worker"))
	assert.False(t, authz.HasRole("admin", "contractor", "worker"))
	assert.False(t, authz.HasRole("worker"))
}
