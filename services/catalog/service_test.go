package catalog

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

type notifierMock struct {
	calls []notifierCall
}

type notifierCall struct {
	RecipientID string
	Kind        string
	Payload     map[string]any
}

func (m *notifierMock) Notify(_ context.Context, recipientID, kind string, payload map[string]any) error {
	m.calls = append(m.calls, notifierCall{RecipientID: recipientID, Kind: kind, Payload: payload})
	return nil
}

func newTestService(t *testing.T) (*Service, *notifierMock) {
	t.Helper()

	db := testutil.NewTestDB(t, &Product{})
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	notifier := &notifierMock{}
	svc := NewService(ServiceParams{DB: db, Node: node, Notifier: notifier})
	return svc, notifier
}

func requireStatusCode(t *testing.T, err error, want errutil.CoreStatus) {
	t.Helper()

	var be errutil.BaseError
	require.True(t, errors.As(err, &be), "expected BaseError, got %v", err)
	require.Equal(t, want, be.Status())
}

func TestCreateStartsInDraft(t *testing.T) {
	svc, _ := newTestService(t)

	product, err := svc.Create(context.Background(), CreateParams{
		BrandID: "brand-1",
		Name:    "Enamel Pin",
		Price:   1200,
	})
	require.NoError(t, err)
	require.Equal(t, StatusDraft, product.Status)
	require.Equal(t, "USD", product.Currency)
	require.NotEmpty(t, product.ID)
	require.NotEmpty(t, product.Code)
}

func TestCreateValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateParams{Name: "x", Price: 100})
	requireStatusCode(t, err, errutil.StatusValidationFailed)

	_, err = svc.Create(ctx, CreateParams{BrandID: "brand-1", Price: 100})
	requireStatusCode(t, err, errutil.StatusValidationFailed)

	_, err = svc.Create(ctx, CreateParams{BrandID: "brand-1", Name: "x", Price: 0})
	requireStatusCode(t, err, errutil.StatusValidationFailed)
}

func TestApprovalPath(t *testing.T) {
	svc, notifier := newTestService(t)
	ctx := context.Background()

	product, err := svc.Create(ctx, CreateParams{BrandID: "brand-1", Name: "Tote Bag", Price: 2500})
	require.NoError(t, err)

	product, err = svc.Submit(ctx, product.ID)
	require.NoError(t, err)
	require.Equal(t, StatusSubmitted, product.Status)

	product, err = svc.Approve(ctx, product.ID)
	require.NoError(t, err)
	require.Equal(t, StatusApproved, product.Status)

	require.Len(t, notifier.calls, 1)
	require.Equal(t, "brand-1", notifier.calls[0].RecipientID)
	require.Equal(t, KindProductApproved, notifier.calls[0].Kind)
}

func TestRejectionPath(t *testing.T) {
	svc, notifier := newTestService(t)
	ctx := context.Background()

	product, err := svc.Create(ctx, CreateParams{BrandID: "brand-1", Name: "Sticker Pack", Price: 500})
	require.NoError(t, err)

	_, err = svc.Submit(ctx, product.ID)
	require.NoError(t, err)

	product, err = svc.Reject(ctx, product.ID)
	require.NoError(t, err)
	require.Equal(t, StatusRejected, product.Status)

	// A rejected product can still be taken down for good.
	product, err = svc.Remove(ctx, product.ID)
	require.NoError(t, err)
	require.Equal(t, StatusRemoved, product.Status)

	require.Len(t, notifier.calls, 2)
	require.Equal(t, KindProductRejected, notifier.calls[0].Kind)
	require.Equal(t, KindProductRemoved, notifier.calls[1].Kind)
}

func TestIllegalTransitions(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	product, err := svc.Create(ctx, CreateParams{BrandID: "brand-1", Name: "Mug", Price: 1800})
	require.NoError(t, err)

	// Draft cannot be approved directly.
	_, err = svc.Approve(ctx, product.ID)
	requireStatusCode(t, err, errutil.StatusInvalidTransition)

	_, err = svc.Submit(ctx, product.ID)
	require.NoError(t, err)
	_, err = svc.Approve(ctx, product.ID)
	require.NoError(t, err)
	_, err = svc.Remove(ctx, product.ID)
	require.NoError(t, err)

	// Removed is terminal.
	_, err = svc.Submit(ctx, product.ID)
	requireStatusCode(t, err, errutil.StatusInvalidTransition)
	_, err = svc.Approve(ctx, product.ID)
	requireStatusCode(t, err, errutil.StatusInvalidTransition)
	_, err = svc.Remove(ctx, product.ID)
	requireStatusCode(t, err, errutil.StatusInvalidTransition)
}

func TestStatusChangedAtTracksTransitions(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	product, err := svc.Create(ctx, CreateParams{BrandID: "brand-1", Name: "Poster", Price: 900})
	require.NoError(t, err)
	createdAt := product.StatusChangedAt

	product, err = svc.Submit(ctx, product.ID)
	require.NoError(t, err)
	require.True(t, product.StatusChangedAt.After(createdAt) || product.StatusChangedAt.Equal(createdAt))
	require.False(t, product.StatusChangedAt.Before(createdAt))
}

func TestGetNotFound(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Get(context.Background(), "missing")
	requireStatusCode(t, err, errutil.StatusNotFound)

	_, err = svc.Submit(context.Background(), "missing")
	requireStatusCode(t, err, errutil.StatusNotFound)
}

func TestListByStatusAndOwner(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, CreateParams{BrandID: "brand-1", Name: "A", Price: 100})
	require.NoError(t, err)
	second, err := svc.Create(ctx, CreateParams{BrandID: "brand-1", Name: "B", Price: 200})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateParams{BrandID: "brand-2", Name: "C", Price: 300})
	require.NoError(t, err)

	_, err = svc.Submit(ctx, first.ID)
	require.NoError(t, err)

	drafts, err := svc.ListByStatus(ctx, StatusDraft)
	require.NoError(t, err)
	require.Len(t, drafts, 2)

	submitted, err := svc.ListByStatus(ctx, StatusSubmitted)
	require.NoError(t, err)
	require.Len(t, submitted, 1)
	require.Equal(t, first.ID, submitted[0].ID)

	owned, err := svc.ListByOwner(ctx, "brand-1")
	require.NoError(t, err)
	require.Len(t, owned, 2)
	require.Equal(t, first.ID, owned[0].ID)
	require.Equal(t, second.ID, owned[1].ID)
}
