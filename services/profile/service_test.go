package profile

import (
	"context"
	"errors"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"creatorhub-controlplane/pkg/errutil"
	"creatorhub-controlplane/services/testutil"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func newTestService(t *testing.T) *Service {
	t.Helper()

	db := testutil.NewTestDB(t, &Profile{})
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return NewService(ServiceParams{DB: db, Node: node})
}

func requireStatusCode(t *testing.T, err error, want errutil.CoreStatus) {
	t.Helper()

	var be errutil.BaseError
	require.True(t, errors.As(err, &be), "expected BaseError, got %v", err)
	require.Equal(t, want, be.Status())
}

func TestCreateAndGet(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	brand, err := svc.CreateBrand(ctx, CreateParams{DisplayName: "Acme Merch"})
	require.NoError(t, err)
	require.Equal(t, RoleBrand, brand.Role)
	require.Equal(t, StatusActive, brand.Status)
	require.False(t, brand.Verified)

	influencer, err := svc.CreateInfluencer(ctx, CreateParams{
		DisplayName: "Jamie",
		Categories:  []string{"fitness", "travel"},
	})
	require.NoError(t, err)
	require.Equal(t, RoleInfluencer, influencer.Role)

	got, err := svc.Get(ctx, influencer.ID)
	require.NoError(t, err)
	require.JSONEq(t, `["fitness","travel"]`, string(got.Categories))

	_, err = svc.Get(ctx, "missing")
	requireStatusCode(t, err, errutil.StatusNotFound)

	_, err = svc.CreateBrand(ctx, CreateParams{})
	requireStatusCode(t, err, errutil.StatusValidationFailed)
}

func TestUpdateMutableFields(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	p, err := svc.CreateInfluencer(ctx, CreateParams{DisplayName: "Jamie"})
	require.NoError(t, err)
	require.False(t, p.Onboarded)

	onboarded := true
	updated, err := svc.Update(ctx, p.ID, UpdateParams{
		DisplayName: "Jamie B",
		Categories:  []string{"music"},
		Onboarded:   &onboarded,
	})
	require.NoError(t, err)
	require.Equal(t, "Jamie B", updated.DisplayName)
	require.True(t, updated.Onboarded)
	require.JSONEq(t, `["music"]`, string(updated.Categories))

	// Role and status are untouched by Update.
	require.Equal(t, RoleInfluencer, updated.Role)
	require.Equal(t, StatusActive, updated.Status)
}

func TestVerifiedBadge(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	p, err := svc.CreateBrand(ctx, CreateParams{DisplayName: "Acme"})
	require.NoError(t, err)

	p, err = svc.SetVerified(ctx, p.ID, true)
	require.NoError(t, err)
	require.True(t, p.Verified)

	p, err = svc.SetVerified(ctx, p.ID, false)
	require.NoError(t, err)
	require.False(t, p.Verified)
}

func TestSuspendAndReactivate(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	p, err := svc.CreateInfluencer(ctx, CreateParams{DisplayName: "Jamie"})
	require.NoError(t, err)

	p, err = svc.Suspend(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, StatusSuspended, p.Status)

	// Suspending twice is a transition error.
	_, err = svc.Suspend(ctx, p.ID)
	requireStatusCode(t, err, errutil.StatusInvalidTransition)

	p, err = svc.Reactivate(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, StatusActive, p.Status)

	_, err = svc.Reactivate(ctx, p.ID)
	requireStatusCode(t, err, errutil.StatusInvalidTransition)
}

func TestDeactivateIsTerminal(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	p, err := svc.CreateBrand(ctx, CreateParams{DisplayName: "Acme"})
	require.NoError(t, err)

	p, err = svc.Deactivate(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, StatusDeactivated, p.Status)

	_, err = svc.Deactivate(ctx, p.ID)
	requireStatusCode(t, err, errutil.StatusInvalidTransition)
	_, err = svc.Suspend(ctx, p.ID)
	requireStatusCode(t, err, errutil.StatusInvalidTransition)
	_, err = svc.Reactivate(ctx, p.ID)
	requireStatusCode(t, err, errutil.StatusInvalidTransition)

	// The row survives for historical references.
	got, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, StatusDeactivated, got.Status)
}

func TestListByRole(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateBrand(ctx, CreateParams{DisplayName: "Acme"})
	require.NoError(t, err)
	_, err = svc.CreateInfluencer(ctx, CreateParams{DisplayName: "Jamie"})
	require.NoError(t, err)
	_, err = svc.CreateInfluencer(ctx, CreateParams{DisplayName: "Sam"})
	require.NoError(t, err)

	brands, err := svc.ListByRole(ctx, RoleBrand)
	require.NoError(t, err)
	require.Len(t, brands, 1)

	influencers, err := svc.ListByRole(ctx, RoleInfluencer)
	require.NoError(t, err)
	require.Len(t, influencers, 2)
}
