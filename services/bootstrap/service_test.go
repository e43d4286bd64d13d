package bootstrap

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"creatorhub-controlplane/pkg/errutil"
	"creatorhub-controlplane/services/testutil"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func TestMigrateStampsAllNamespaces(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()

	require.NoError(t, Migrate(ctx, db))

	var stamped []SchemaVersion
	require.NoError(t, db.Find(&stamped).Error)
	require.Len(t, stamped, len(versions))
	for _, sv := range stamped {
		require.Equal(t, versions[sv.Namespace], sv.Version)
	}

	// Re-running against an up-to-date store is a no-op.
	require.NoError(t, Migrate(ctx, db))
}

func TestMigrateRefusesNewerSchema(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()

	require.NoError(t, Migrate(ctx, db))

	// A future binary wrote a newer layout; this build must not touch it.
	require.NoError(t, db.Model(&SchemaVersion{}).
		Where("namespace = ?", "payout").
		Update("version", versions["payout"]+1).Error)

	err := Migrate(ctx, db)
	require.Error(t, err)

	var be errutil.BaseError
	require.True(t, errors.As(err, &be))
	require.Equal(t, errutil.StatusStorageCorrupted, be.Status())
}
