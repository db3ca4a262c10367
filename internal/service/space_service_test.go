package service

import (
	"context"
	"errors"
	"testing"

	"github.com/dafibh/spaces/spaces-backend/internal/domain"
	"github.com/dafibh/spaces/spaces-backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSpaceService(t *testing.T, gateway domain.SpaceGateway) (*SpaceService, *testutil.RecordingPublisher) {
	t.Helper()
	repo, _ := newTestRepo(t)
	svc := NewSpaceService(repo, gateway)
	pub := &testutil.RecordingPublisher{}
	svc.SetEventPublisher(pub)
	return svc, pub
}

func TestSpaceService_CreateAndGet(t *testing.T) {
	svc, pub := newSpaceService(t, nil)
	ctx := context.Background()

	space, err := svc.Create(ctx, domain.CreateSpaceInput{
		Name:        "Research",
		Description: "x",
		Category:    "research",
		Owner:       domain.UserRef{ID: "u1", Name: "Alice"},
	})
	require.NoError(t, err)

	require.Len(t, space.Members, 1)
	assert.Equal(t, "u1", space.Members[0].ID)
	assert.Equal(t, domain.RoleOwner, space.Members[0].Role)
	assert.Equal(t, domain.Stats{Members: 1}, space.Stats)
	assert.Equal(t, []string{"space.created"}, pub.Types())

	got, err := svc.Get(space.ID)
	require.NoError(t, err)
	assert.Equal(t, space.ID, got.ID)

	_, err = svc.Get("missing")
	assert.ErrorIs(t, err, domain.ErrSpaceNotFound)
}

func TestSpaceService_CreateValidation(t *testing.T) {
	svc, pub := newSpaceService(t, nil)

	_, err := svc.Create(context.Background(), domain.CreateSpaceInput{Name: "Only name"})

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Empty(t, pub.Events())
}

func TestSpaceService_Lists(t *testing.T) {
	svc, _ := newSpaceService(t, nil)
	ctx := context.Background()

	pub1, err := svc.Create(ctx, domain.CreateSpaceInput{
		Name: "Open", Description: "d", Category: "c", Visibility: domain.VisibilityPublic,
		Owner: domain.UserRef{ID: "u1"},
	})
	require.NoError(t, err)
	_, err = svc.Create(ctx, domain.CreateSpaceInput{
		Name: "Closed", Description: "d", Category: "c",
		Owner: domain.UserRef{ID: "u2"},
	})
	require.NoError(t, err)

	assert.Len(t, svc.ListAll(), 2)
	public := svc.ListPublic()
	require.Len(t, public, 1)
	assert.Equal(t, pub1.ID, public[0].ID)
	assert.Len(t, svc.ListForUser("u2"), 1)
	assert.Empty(t, svc.ListForUser("u3"))
}

func TestSpaceService_JoinIsIdempotent(t *testing.T) {
	svc, pub := newSpaceService(t, nil)
	ctx := context.Background()
	space := createTestSpace(t, svc.repo, domain.VisibilityPublic)

	got, joined, err := svc.Join(ctx, space.ID, "u2", "Bob")
	require.NoError(t, err)
	assert.True(t, joined)
	assert.Len(t, got.Members, 2)

	got, joined, err = svc.Join(ctx, space.ID, "u2", "Bob")
	require.NoError(t, err)
	assert.False(t, joined)
	assert.Len(t, got.Members, 2)
	assert.Equal(t, 2, got.Stats.Members)

	assert.Equal(t, []string{"member.joined"}, pub.Types())
}

func TestSpaceService_Leave(t *testing.T) {
	svc, pub := newSpaceService(t, nil)
	ctx := context.Background()
	space := createTestSpace(t, svc.repo, domain.VisibilityPublic)
	_, _, err := svc.Join(ctx, space.ID, "u2", "Bob")
	require.NoError(t, err)

	_, err = svc.Leave(ctx, space.ID, "u1")
	assert.ErrorIs(t, err, domain.ErrOwnerCannotLeave)

	_, err = svc.Leave(ctx, space.ID, "u9")
	assert.ErrorIs(t, err, domain.ErrNotAMember)

	got, err := svc.Leave(ctx, space.ID, "u2")
	require.NoError(t, err)
	assert.Len(t, got.Members, 1)

	_, err = svc.Leave(ctx, "missing", "u2")
	assert.ErrorIs(t, err, domain.ErrSpaceNotFound)

	assert.Equal(t, []string{"member.joined", "member.left"}, pub.Types())
}

func TestSpaceService_UpdateAndDelete(t *testing.T) {
	svc, pub := newSpaceService(t, nil)
	ctx := context.Background()
	space := createTestSpace(t, svc.repo, domain.VisibilityPrivate)

	name := "Renamed"
	got, err := svc.Update(ctx, space.ID, domain.SpaceUpdate{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)

	require.NoError(t, svc.Delete(ctx, space.ID))
	_, err = svc.Get(space.ID)
	assert.ErrorIs(t, err, domain.ErrSpaceNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, space.ID), domain.ErrSpaceNotFound)

	events := pub.Events()
	require.Len(t, events, 2)
	assert.Equal(t, "space.updated", events[0].Event.Type)
	assert.Equal(t, "space.deleted", events[1].Event.Type)
	assert.Equal(t, space.ID, events[1].SpaceID)
}

func TestSpaceService_DeleteRemovesStoredObjects(t *testing.T) {
	svc, _ := newSpaceService(t, nil)
	store := &testutil.MockDocumentStorage{}
	svc.SetDocumentStorage(store)
	ctx := context.Background()
	space := createTestSpace(t, svc.repo, domain.VisibilityPrivate)

	_, err := svc.repo.AddDocument(ctx, space.ID, domain.Document{Name: "a.pdf", ObjectKey: "spaces/" + space.ID + "/d1/a.pdf"})
	require.NoError(t, err)
	_, err = svc.repo.AddDocument(ctx, space.ID, domain.Document{Name: "link", URL: "https://example.com/link"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, space.ID))
	assert.Equal(t, []string{"spaces/" + space.ID + "/d1/a.pdf"}, store.Deleted)
}

func TestSpaceService_DeleteIgnoresStorageErrors(t *testing.T) {
	svc, pub := newSpaceService(t, nil)
	svc.SetDocumentStorage(&testutil.MockDocumentStorage{DeleteErr: errors.New("bucket unavailable")})
	ctx := context.Background()
	space := createTestSpace(t, svc.repo, domain.VisibilityPrivate)
	_, err := svc.repo.AddDocument(ctx, space.ID, domain.Document{Name: "a.pdf", ObjectKey: "k"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, space.ID))
	_, err = svc.Get(space.ID)
	assert.ErrorIs(t, err, domain.ErrSpaceNotFound)
	assert.Equal(t, []string{"space.deleted"}, pub.Types())
}

func validSettings() domain.SpaceSettings {
	return domain.SpaceSettings{
		Name:             "Research v2",
		Description:      "updated",
		Category:         "science",
		Tags:             []string{"ml"},
		Visibility:       domain.VisibilityPublic,
		AIModel:          "claude",
		ResourcesVisible: true,
	}
}

func TestSpaceService_UpdateSettings_RemoteFirst(t *testing.T) {
	gw := &testutil.MockSpaceGateway{}
	svc, _ := newSpaceService(t, gw)
	space := createTestSpace(t, svc.repo, domain.VisibilityPrivate)

	got, err := svc.UpdateSettings(context.Background(), space.ID, validSettings())
	require.NoError(t, err)

	require.Len(t, gw.SettingsCalls, 1)
	assert.Equal(t, space.ID, gw.SettingsCalls[0].SpaceID)
	assert.Equal(t, "Research v2", gw.SettingsCalls[0].Settings.Name)
	assert.Equal(t, "Research v2", got.Name)
	assert.Equal(t, domain.VisibilityPublic, got.Visibility)
	assert.True(t, got.Settings.ResourcesVisible)
}

func TestSpaceService_UpdateSettings_RemoteFailureLeavesSpaceUnchanged(t *testing.T) {
	gw := testutil.NewFailingSpaceGateway()
	svc, pub := newSpaceService(t, gw)
	space := createTestSpace(t, svc.repo, domain.VisibilityPrivate)

	_, err := svc.UpdateSettings(context.Background(), space.ID, validSettings())

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
	got, _ := svc.Get(space.ID)
	assert.Equal(t, "Research", got.Name)
	assert.Equal(t, domain.VisibilityPrivate, got.Visibility)
	assert.Empty(t, pub.Events())
}

func TestSpaceService_UpdateSettings_NoGatewayAppliesLocally(t *testing.T) {
	svc, _ := newSpaceService(t, nil)
	space := createTestSpace(t, svc.repo, domain.VisibilityPrivate)

	got, err := svc.UpdateSettings(context.Background(), space.ID, validSettings())
	require.NoError(t, err)
	assert.Equal(t, "science", got.Category)
}

func TestSpaceService_UpdateSettings_Errors(t *testing.T) {
	gw := &testutil.MockSpaceGateway{}
	svc, _ := newSpaceService(t, gw)
	space := createTestSpace(t, svc.repo, domain.VisibilityPrivate)

	_, err := svc.UpdateSettings(context.Background(), "missing", validSettings())
	assert.ErrorIs(t, err, domain.ErrSpaceNotFound)

	bad := validSettings()
	bad.Name = ""
	_, err = svc.UpdateSettings(context.Background(), space.ID, bad)
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{"name"}, verr.Fields)

	assert.Empty(t, gw.SettingsCalls, "invalid settings must not reach the remote API")
}
