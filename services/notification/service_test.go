package notification

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

	db := testutil.NewTestDB(t, &Notification{})
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return NewService(ServiceParams{DB: db, Node: node})
}

func TestEnqueueAndListOrdering(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	kinds := []string{"product.approved", "payout.completed", "curation.accepted"}
	for _, kind := range kinds {
		_, err := svc.Enqueue(ctx, "user-1", kind, map[string]any{"k": kind})
		require.NoError(t, err)
	}
	_, err := svc.Enqueue(ctx, "user-2", "product.rejected", nil)
	require.NoError(t, err)

	list, err := svc.List(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, list, 3)
	for i, n := range list {
		require.Equal(t, kinds[i], n.Kind)
		require.False(t, n.Read)
	}
}

func TestEnqueueAllowsDuplicates(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	// Two identical events are two distinct notifications.
	_, err := svc.Enqueue(ctx, "user-1", "payout.failed", map[string]any{"request_id": "req-1"})
	require.NoError(t, err)
	_, err = svc.Enqueue(ctx, "user-1", "payout.failed", map[string]any{"request_id": "req-1"})
	require.NoError(t, err)

	list, err := svc.List(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
}

func TestEnqueueValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Enqueue(ctx, "", "kind", nil)
	require.Error(t, err)
	_, err = svc.Enqueue(ctx, "user-1", "", nil)
	require.Error(t, err)
}

func TestMarkReadIsIdempotent(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	n, err := svc.Enqueue(ctx, "user-1", "product.approved", nil)
	require.NoError(t, err)

	require.NoError(t, svc.MarkRead(ctx, n.ID))
	require.NoError(t, svc.MarkRead(ctx, n.ID))

	list, err := svc.List(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.True(t, list[0].Read)
	require.NotNil(t, list[0].ReadAt)
}

func TestMarkReadUnknownNotification(t *testing.T) {
	svc := newTestService(t)

	err := svc.MarkRead(context.Background(), "missing")
	var be errutil.BaseError
	require.True(t, errors.As(err, &be))
	require.Equal(t, errutil.StatusNotFound, be.Status())
}

func TestUnreadCountAndMarkAllRead(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.Enqueue(ctx, "user-1", "curation.accepted", nil)
		require.NoError(t, err)
	}
	n, err := svc.Enqueue(ctx, "user-1", "payout.requested", nil)
	require.NoError(t, err)

	count, err := svc.UnreadCount(ctx, "user-1")
	require.NoError(t, err)
	require.Equal(t, int64(4), count)

	require.NoError(t, svc.MarkRead(ctx, n.ID))
	count, err = svc.UnreadCount(ctx, "user-1")
	require.NoError(t, err)
	require.Equal(t, int64(3), count)

	require.NoError(t, svc.MarkAllRead(ctx, "user-1"))
	count, err = svc.UnreadCount(ctx, "user-1")
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestNotifierFanOut(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	var notifier Notifier = svc
	require.NoError(t, notifier.Notify(ctx, "user-1", "report.resolved", map[string]any{"report_id": "r-1"}))

	list, err := svc.List(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "report.resolved", list[0].Kind)
	require.JSONEq(t, `{"report_id":"r-1"}`, string(list[0].Payload))
}
