package service

import (
	"context"
	"testing"
	"time"

	"github.com/dafibh/spaces/spaces-backend/internal/domain"
	"github.com/dafibh/spaces/spaces-backend/internal/repository/memory"
	"github.com/dafibh/spaces/spaces-backend/internal/testutil"
	"github.com/stretchr/testify/require"
)

var testStart = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func newTestRepo(t *testing.T) (*memory.SpaceRepository, *testutil.Clock) {
	t.Helper()
	clock := testutil.NewClock(testStart)
	repo, _ := testutil.NewSpaceRepository(clock)
	return repo, clock
}

func createTestSpace(t *testing.T, repo domain.SpaceRepository, visibility domain.Visibility) *domain.Space {
	t.Helper()
	space, err := repo.Create(context.Background(), domain.CreateSpaceInput{
		Name:        "Research",
		Description: "x",
		Category:    "research",
		Visibility:  visibility,
		AIModel:     "gpt-4",
		Owner:       domain.UserRef{ID: "u1", Name: "Alice"},
	})
	require.NoError(t, err)
	return space
}
