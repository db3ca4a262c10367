package handler

import (
	"net/http"
	"testing"

	"github.com/dafibh/spaces/spaces-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileHandler_GetBeforeUpdate(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/v1/me", "alice", nil)
	requireStatus(t, rec, http.StatusNotFound)

	rec = s.do(t, http.MethodGet, "/api/v1/me", "", nil)
	requireStatus(t, rec, http.StatusUnauthorized)
}

func TestProfileHandler_UpdateReconcilesSpaces(t *testing.T) {
	s := newTestServer(t)
	space := s.createSpace(t, domain.VisibilityPrivate)

	rec := s.do(t, http.MethodPut, "/api/v1/me", "alice", UpdateProfileRequest{Name: "Alice Smith", Email: "alice@example.com"})
	requireStatus(t, rec, http.StatusOK)

	got := decode[UpdateProfileResponse](t, rec)
	require.NotNil(t, got.User)
	assert.Equal(t, "alice", got.User.ID)
	assert.Equal(t, "Alice Smith", got.User.Name)
	assert.Equal(t, domain.PlanFree, got.User.Plan)
	assert.Equal(t, 1, got.SpacesUpdated)

	stored, _ := s.repo.GetByID(space.ID)
	assert.Equal(t, "Alice Smith", stored.Owner.Name)

	user := decode[domain.User](t, s.do(t, http.MethodGet, "/api/v1/me", "alice", nil))
	assert.Equal(t, "alice@example.com", user.Email)

	// Another identity does not see the cached profile
	requireStatus(t, s.do(t, http.MethodGet, "/api/v1/me", "bob", nil), http.StatusNotFound)
}

func TestProfileHandler_UpdateDefaultsNameFromIdentity(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPut, "/api/v1/me", "bob", UpdateProfileRequest{})
	requireStatus(t, rec, http.StatusOK)
	assert.Equal(t, "Bob", decode[UpdateProfileResponse](t, rec).User.Name)
}

func TestProfileHandler_Clear(t *testing.T) {
	s := newTestServer(t)
	requireStatus(t, s.do(t, http.MethodPut, "/api/v1/me", "alice", UpdateProfileRequest{Name: "Alice"}), http.StatusOK)

	requireStatus(t, s.do(t, http.MethodDelete, "/api/v1/me", "alice", nil), http.StatusNoContent)
	requireStatus(t, s.do(t, http.MethodGet, "/api/v1/me", "alice", nil), http.StatusNotFound)
}
