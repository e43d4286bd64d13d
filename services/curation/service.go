package curation

import (
	"context"
	"fmt"
	"time"

	"creatorhub-controlplane/pkg/db/pagination"
	"creatorhub-controlplane/pkg/errutil"
	"creatorhub-controlplane/pkg/repository"
	"creatorhub-controlplane/services/catalog"
	"creatorhub-controlplane/services/notification"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Service struct {
	db       *gorm.DB
	notifier notification.Notifier

	entries  repository.Repository[Entry]
	products repository.Repository[catalog.Product]
}

type ServiceParams struct {
	fx.In
	DB       *gorm.DB
	Notifier notification.Notifier `optional:"true"`
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:       p.DB,
		notifier: p.Notifier,
		entries:  repository.ProvideStore[Entry](p.DB),
		products: repository.ProvideStore[catalog.Product](p.DB),
	}
}

// Accept records the influencer's decision to list an approved product in
// their storefront. Idempotent: repeating the call leaves exactly one entry
// and emits no duplicate notification.
func (s *Service) Accept(ctx context.Context, influencerID, productID string) (*Entry, error) {
	return s.decide(ctx, influencerID, productID, StatusAccepted, KindCurationAccepted)
}

// Decline is symmetric to Accept. It is also valid against an existing entry
// whose product has since left the approved state.
func (s *Service) Decline(ctx context.Context, influencerID, productID string) (*Entry, error) {
	return s.decide(ctx, influencerID, productID, StatusDeclined, KindCurationDeclined)
}

func (s *Service) decide(ctx context.Context, influencerID, productID string, decision Status, kind string) (*Entry, error) {
	if influencerID == "" {
		return nil, errutil.ValidationFailed("influencer_id is required", nil)
	}
	if productID == "" {
		return nil, errutil.ValidationFailed("product_id is required", nil)
	}

	var (
		entry    *Entry
		brandID  string
		repeated bool
	)

	err := s.db.Transaction(func(tx *gorm.DB) error {
		product, err := s.products.WithTrx(tx).FindOne(ctx, &catalog.Product{ID: productID})
		if err != nil {
			return err
		}
		if product == nil {
			return errutil.NotFound("product not found", nil)
		}
		brandID = product.BrandID

		existing, err := s.findEntry(ctx, tx, influencerID, productID)
		if err != nil {
			return err
		}

		if existing != nil && existing.Status == decision {
			entry = existing
			repeated = true
			return nil
		}

		// Accepting requires the product to be approved right now, whether
		// the entry is new or flipping from declined. Only the decline of an
		// existing entry stays permissive, so a stale accept can still be
		// withdrawn after removal.
		if product.Status != catalog.StatusApproved &&
			(decision == StatusAccepted || existing == nil) {
			return errutil.ProductNotApproved(
				fmt.Sprintf("product is %s, not approved", product.Status), nil)
		}

		entry = &Entry{
			InfluencerID: influencerID,
			ProductID:    productID,
			Status:       decision,
			DecidedAt:    time.Now(),
		}

		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "influencer_id"}, {Name: "product_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"status", "decided_at"}),
		}).Create(entry).Error
	})
	if err != nil {
		return nil, err
	}

	if !repeated && s.notifier != nil {
		if err := s.notifier.Notify(ctx, brandID, kind, map[string]any{
			"product_id":    productID,
			"influencer_id": influencerID,
		}); err != nil {
			zap.L().Warn("failed to notify brand of curation decision",
				zap.Error(err), zap.String("product_id", productID))
		}
	}

	return entry, nil
}

func (s *Service) findEntry(ctx context.Context, tx *gorm.DB, influencerID, productID string) (*Entry, error) {
	return s.entries.WithTrx(tx).FindOne(ctx, &Entry{
		InfluencerID: influencerID,
		ProductID:    productID,
	})
}

type acceptedRow struct {
	catalog.Product   `gorm:"embedded"`
	CurationDecidedAt time.Time `gorm:"column:curation_decided_at"`
}

// ListAccepted is the storefront read: a live join of accepted entries with
// the catalog, so removed products disappear even while their entries remain.
// Restartable through the returned cursor.
func (s *Service) ListAccepted(ctx context.Context, influencerID string, page *pagination.Pagination) ([]*catalog.Product, *pagination.PageInfo, error) {
	limit := 20
	cursor := ""
	if page != nil {
		if page.Limit > 0 {
			limit = page.Limit
		}
		cursor = page.Cursor
	}

	q := s.db.WithContext(ctx).
		Table("products").
		Select("products.*, curation_entries.decided_at AS curation_decided_at").
		Joins("JOIN curation_entries ON curation_entries.product_id = products.id").
		Where("curation_entries.influencer_id = ? AND curation_entries.status = ?", influencerID, StatusAccepted).
		Where("products.status <> ?", catalog.StatusRemoved).
		Order("curation_entries.decided_at ASC").
		Order("products.id ASC").
		Limit(limit + 1)

	if cursor != "" {
		cur, err := pagination.DecodeCursor(cursor)
		if err != nil {
			return nil, nil, errutil.BadRequest("invalid cursor", err)
		}
		decidedAt, err := time.Parse(time.RFC3339Nano, cur.DecidedAt)
		if err != nil {
			return nil, nil, errutil.BadRequest("invalid cursor", err)
		}
		q = q.Where(
			"(curation_entries.decided_at > ?) OR (curation_entries.decided_at = ? AND products.id > ?)",
			decidedAt, decidedAt, cur.ID,
		)
	}

	var rows []*acceptedRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, nil, err
	}

	rows, pageInfo := pagination.BuildCursorPageInfo(rows, limit, func(r *acceptedRow) string {
		c, _ := pagination.EncodeCursor(pagination.Cursor{
			DecidedAt: r.CurationDecidedAt.UTC().Format(time.RFC3339Nano),
			ID:        r.Product.ID,
		})
		return c
	})

	products := make([]*catalog.Product, 0, len(rows))
	for _, r := range rows {
		product := r.Product
		products = append(products, &product)
	}

	return products, pageInfo, nil
}

// ListDecisions returns the influencer's full decision history, including
// entries orphaned by product removal.
func (s *Service) ListDecisions(ctx context.Context, influencerID string) ([]*Entry, error) {
	var out []*Entry
	if err := s.db.WithContext(ctx).
		Where("influencer_id = ?", influencerID).
		Order("decided_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
