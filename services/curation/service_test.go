package curation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"creatorhub-controlplane/pkg/db/pagination"
	"creatorhub-controlplane/pkg/errutil"
	"creatorhub-controlplane/services/catalog"
	"creatorhub-controlplane/services/testutil"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

type notifierMock struct {
	calls []string
}

func (m *notifierMock) Notify(_ context.Context, _, kind string, _ map[string]any) error {
	m.calls = append(m.calls, kind)
	return nil
}

type fixture struct {
	db       *gorm.DB
	catalog  *catalog.Service
	curation *Service
	notifier *notifierMock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testutil.NewTestDB(t, &catalog.Product{}, &Entry{})
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	notifier := &notifierMock{}
	return &fixture{
		db:       db,
		catalog:  catalog.NewService(catalog.ServiceParams{DB: db, Node: node}),
		curation: NewService(ServiceParams{DB: db, Notifier: notifier}),
		notifier: notifier,
	}
}

// approvedProduct walks a product through the full approval path.
func (f *fixture) approvedProduct(t *testing.T, name string) *catalog.Product {
	t.Helper()
	ctx := context.Background()

	product, err := f.catalog.Create(ctx, catalog.CreateParams{BrandID: "brand-1", Name: name, Price: 1000})
	require.NoError(t, err)
	_, err = f.catalog.Submit(ctx, product.ID)
	require.NoError(t, err)
	product, err = f.catalog.Approve(ctx, product.ID)
	require.NoError(t, err)
	return product
}

func requireStatusCode(t *testing.T, err error, want errutil.CoreStatus) {
	t.Helper()

	var be errutil.BaseError
	require.True(t, errors.As(err, &be), "expected BaseError, got %v", err)
	require.Equal(t, want, be.Status())
}

func TestAcceptIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	product := f.approvedProduct(t, "Cap")

	first, err := f.curation.Accept(ctx, "inf-1", product.ID)
	require.NoError(t, err)
	require.Equal(t, StatusAccepted, first.Status)

	second, err := f.curation.Accept(ctx, "inf-1", product.ID)
	require.NoError(t, err)
	require.WithinDuration(t, first.DecidedAt, second.DecidedAt, time.Second)

	var count int64
	require.NoError(t, f.db.Model(&Entry{}).Count(&count).Error)
	require.Equal(t, int64(1), count)

	// The brand hears about the decision exactly once.
	require.Equal(t, []string{KindCurationAccepted}, f.notifier.calls)
}

func TestDecisionRequiresApprovedProduct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	product, err := f.catalog.Create(ctx, catalog.CreateParams{BrandID: "brand-1", Name: "Draft Item", Price: 100})
	require.NoError(t, err)

	_, err = f.curation.Accept(ctx, "inf-1", product.ID)
	requireStatusCode(t, err, errutil.StatusProductNotApproved)

	_, err = f.curation.Accept(ctx, "inf-1", "missing")
	requireStatusCode(t, err, errutil.StatusNotFound)
}

func TestDeclineFlipsExistingEntryAfterRemoval(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	product := f.approvedProduct(t, "Hoodie")

	_, err := f.curation.Accept(ctx, "inf-1", product.ID)
	require.NoError(t, err)

	_, err = f.catalog.Remove(ctx, product.ID)
	require.NoError(t, err)

	// The entry exists, so the stale accept can still be withdrawn even
	// though the product left approved.
	entry, err := f.curation.Decline(ctx, "inf-1", product.ID)
	require.NoError(t, err)
	require.Equal(t, StatusDeclined, entry.Status)

	// A different influencer deciding fresh on the removed product cannot.
	_, err = f.curation.Accept(ctx, "inf-2", product.ID)
	requireStatusCode(t, err, errutil.StatusProductNotApproved)
}

func TestAcceptRequiresApprovedProductEvenWithExistingEntry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	product := f.approvedProduct(t, "Tote")

	_, err := f.curation.Decline(ctx, "inf-1", product.ID)
	require.NoError(t, err)

	_, err = f.catalog.Remove(ctx, product.ID)
	require.NoError(t, err)

	// The existing declined entry does not license accepting a product that
	// has left the approved state.
	_, err = f.curation.Accept(ctx, "inf-1", product.ID)
	requireStatusCode(t, err, errutil.StatusProductNotApproved)

	decisions, err := f.curation.ListDecisions(ctx, "inf-1")
	require.NoError(t, err)
	require.Len(t, decisions, 1)
	require.Equal(t, StatusDeclined, decisions[0].Status)

	// Only the original decline reached the brand.
	require.Equal(t, []string{KindCurationDeclined}, f.notifier.calls)
}

func TestStorefrontExcludesRemovedProducts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	kept := f.approvedProduct(t, "Kept")
	removed := f.approvedProduct(t, "Removed")

	_, err := f.curation.Accept(ctx, "inf-1", kept.ID)
	require.NoError(t, err)
	_, err = f.curation.Accept(ctx, "inf-1", removed.ID)
	require.NoError(t, err)

	_, err = f.catalog.Remove(ctx, removed.ID)
	require.NoError(t, err)

	products, _, err := f.curation.ListAccepted(ctx, "inf-1", nil)
	require.NoError(t, err)
	require.Len(t, products, 1)
	require.Equal(t, kept.ID, products[0].ID)

	// The decision history still remembers both.
	decisions, err := f.curation.ListDecisions(ctx, "inf-1")
	require.NoError(t, err)
	require.Len(t, decisions, 2)
}

func TestStorefrontCursorPagination(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, name := range []string{"One", "Two", "Three"} {
		product := f.approvedProduct(t, name)
		_, err := f.curation.Accept(ctx, "inf-1", product.ID)
		require.NoError(t, err)
	}

	firstPage, pageInfo, err := f.curation.ListAccepted(ctx, "inf-1", &pagination.Pagination{Limit: 2})
	require.NoError(t, err)
	require.Len(t, firstPage, 2)
	require.True(t, pageInfo.HasMore)
	require.NotEmpty(t, pageInfo.NextCursor)

	secondPage, pageInfo, err := f.curation.ListAccepted(ctx, "inf-1", &pagination.Pagination{
		Limit:  2,
		Cursor: pageInfo.NextCursor,
	})
	require.NoError(t, err)
	require.Len(t, secondPage, 1)
	require.False(t, pageInfo.HasMore)

	seen := map[string]bool{}
	for _, p := range append(firstPage, secondPage...) {
		require.False(t, seen[p.ID], "product %s paged twice", p.ID)
		seen[p.ID] = true
	}
}

func TestStorefrontRejectsBadCursor(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.curation.ListAccepted(context.Background(), "inf-1", &pagination.Pagination{
		Cursor: "not-base64!",
	})
	requireStatusCode(t, err, errutil.StatusBadRequest)
}

func TestEndToEndCurationFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	product, err := f.catalog.Create(ctx, catalog.CreateParams{BrandID: "brand-1", Name: "Launch Tee", Price: 3500})
	require.NoError(t, err)
	_, err = f.catalog.Submit(ctx, product.ID)
	require.NoError(t, err)
	_, err = f.catalog.Approve(ctx, product.ID)
	require.NoError(t, err)

	_, err = f.curation.Accept(ctx, "inf-1", product.ID)
	require.NoError(t, err)

	storefront, _, err := f.curation.ListAccepted(ctx, "inf-1", nil)
	require.NoError(t, err)
	require.Len(t, storefront, 1)
	require.Equal(t, catalog.StatusApproved, storefront[0].Status)

	_, err = f.catalog.Remove(ctx, product.ID)
	require.NoError(t, err)

	storefront, _, err = f.curation.ListAccepted(ctx, "inf-1", nil)
	require.NoError(t, err)
	require.Empty(t, storefront)
}
