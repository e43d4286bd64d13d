package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"creatorhub-controlplane/pkg/errutil"
	"creatorhub-controlplane/services/catalog"
	"creatorhub-controlplane/services/curation"
	"creatorhub-controlplane/services/moderation"
	"creatorhub-controlplane/services/notification"
	"creatorhub-controlplane/services/payout"
	"creatorhub-controlplane/services/profile"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SchemaVersion records, per store namespace, the newest schema a binary has
// ever run against. A downgrade refuses to start instead of misreading rows.
type SchemaVersion struct {
	Namespace string `gorm:"primaryKey;column:namespace"`
	Version   int    `gorm:"column:version"`
}

func (SchemaVersion) TableName() string {
	return "schema_versions"
}

// versions bumps when a namespace's on-disk layout changes incompatibly.
var versions = map[string]int{
	"catalog":      1,
	"curation":     1,
	"payout":       1,
	"moderation":   1,
	"notification": 1,
	"profile":      1,
}

func models() []any {
	return []any{
		&SchemaVersion{},
		&catalog.Product{},
		&curation.Entry{},
		&payout.Balance{},
		&payout.LedgerEntry{},
		&payout.PayoutRequest{},
		&moderation.Report{},
		&notification.Notification{},
		&profile.Profile{},
	}
}

// Migrate brings the database up to the current schema and stamps each
// namespace version. It fails with a corruption error when the stored version
// is newer than this binary understands.
func Migrate(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for namespace, version := range versions {
			var stored SchemaVersion
			err := tx.Where("namespace = ?", namespace).First(&stored).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
			case err != nil:
				return err
			case stored.Version > version:
				return errutil.StorageCorrupted(
					fmt.Sprintf("store %s has schema version %d, this build understands %d",
						namespace, stored.Version, version), nil)
			}

			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "namespace"}},
				DoUpdates: clause.AssignmentColumns([]string{"version"}),
			}).Create(&SchemaVersion{Namespace: namespace, Version: version}).Error; err != nil {
				return err
			}

			zap.L().Info("schema namespace ready",
				zap.String("namespace", namespace),
				zap.Int("version", version),
			)
		}
		return nil
	})
}
