package catalog

import (
	"context"
	"fmt"
	"time"

	"creatorhub-controlplane/pkg/db/option"
	"creatorhub-controlplane/pkg/errutil"
	"creatorhub-controlplane/pkg/repository"
	"creatorhub-controlplane/pkg/sequence"
	"creatorhub-controlplane/services/notification"

	"github.com/bwmarrin/snowflake"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db       *gorm.DB
	node     *snowflake.Node
	seq      sequence.Generator
	notifier notification.Notifier

	products repository.Repository[Product]
}

type ServiceParams struct {
	fx.In
	DB       *gorm.DB
	Node     *snowflake.Node
	Seq      sequence.Generator    `optional:"true"`
	Notifier notification.Notifier `optional:"true"`
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:       p.DB,
		node:     p.Node,
		seq:      p.Seq,
		notifier: p.Notifier,
		products: repository.ProvideStore[Product](p.DB),
	}
}

type CreateParams struct {
	BrandID     string
	Name        string
	Description string
	Price       int64
	Currency    string
}

// Create registers a new product in draft for the owning brand.
func (s *Service) Create(ctx context.Context, p CreateParams) (*Product, error) {
	if p.BrandID == "" {
		return nil, errutil.ValidationFailed("brand_id is required", nil)
	}
	if p.Name == "" {
		return nil, errutil.ValidationFailed("name is required", nil)
	}
	if p.Price <= 0 {
		return nil, errutil.ValidationFailed("price must be > 0", nil)
	}

	currency := p.Currency
	if currency == "" {
		currency = "USD"
	}

	id := s.node.Generate().String()

	var code string
	if s.seq != nil {
		var err error
		if code, err = s.seq.NextProductCode(ctx, p.BrandID); err != nil {
			zap.L().Warn("failed to generate product code", zap.Error(err), zap.String("brand_id", p.BrandID))
		}
	}
	if code == "" {
		code = "PRD-" + id
	}

	now := time.Now()
	product := &Product{
		ID:              id,
		Code:            code,
		BrandID:         p.BrandID,
		Name:            p.Name,
		Description:     p.Description,
		Price:           p.Price,
		Currency:        currency,
		Status:          StatusDraft,
		CreatedAt:       now,
		StatusChangedAt: now,
	}

	if err := s.products.Create(ctx, product); err != nil {
		return nil, err
	}

	return product, nil
}

// Submit moves a draft into the moderation queue.
func (s *Service) Submit(ctx context.Context, productID string) (*Product, error) {
	return s.transition(ctx, productID, StatusSubmitted, "")
}

// Approve makes a submitted product visible to influencers. Concurrent
// approve/reject on the same product: the first to observe submitted wins.
func (s *Service) Approve(ctx context.Context, productID string) (*Product, error) {
	return s.transition(ctx, productID, StatusApproved, KindProductApproved)
}

func (s *Service) Reject(ctx context.Context, productID string) (*Product, error) {
	return s.transition(ctx, productID, StatusRejected, KindProductRejected)
}

// Remove takes a product off the marketplace for good. Curation entries that
// point at it are kept for audit; the storefront join filters them out.
func (s *Service) Remove(ctx context.Context, productID string) (*Product, error) {
	return s.transition(ctx, productID, StatusRemoved, KindProductRemoved)
}

func (s *Service) transition(ctx context.Context, productID string, to Status, kind string) (*Product, error) {
	span := trace.SpanFromContext(ctx)

	zapLog := zap.L().With(
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("product_id", productID),
		zap.String("to_status", string(to)),
	)

	var product *Product
	err := s.db.Transaction(func(tx *gorm.DB) error {
		current, err := s.products.WithTrx(tx).FindOne(ctx, &Product{ID: productID}, option.WithLockingUpdate())
		if err != nil {
			zapLog.Error("failed to load product", zap.Error(err))
			return err
		}
		if current == nil {
			return errutil.NotFound("product not found", nil)
		}
		if !CanTransition(current.Status, to) {
			return errutil.InvalidTransition(
				fmt.Sprintf("cannot move product from %s to %s", current.Status, to), nil)
		}

		now := time.Now()
		res := tx.Model(&Product{}).
			Where("id = ? AND status = ?", productID, current.Status).
			Updates(map[string]any{
				"status":            to,
				"status_changed_at": now,
				"updated_at":        now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Lost the race: someone else moved the product first.
			return errutil.InvalidTransition(
				fmt.Sprintf("product left %s before this transition applied", current.Status), nil)
		}

		current.Status = to
		current.StatusChangedAt = now
		current.UpdatedAt = now
		product = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	if kind != "" && s.notifier != nil {
		if err := s.notifier.Notify(ctx, product.BrandID, kind, map[string]any{
			"product_id": product.ID,
			"name":       product.Name,
			"status":     product.Status,
		}); err != nil {
			zapLog.Warn("failed to notify brand", zap.Error(err))
		}
	}

	return product, nil
}

func (s *Service) Get(ctx context.Context, productID string) (*Product, error) {
	product, err := s.products.FindOne(ctx, &Product{ID: productID})
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, errutil.NotFound("product not found", nil)
	}
	return product, nil
}

// ListByStatus returns a creation-ordered snapshot of products in one status.
func (s *Service) ListByStatus(ctx context.Context, status Status) ([]*Product, error) {
	return s.products.Find(ctx, &Product{Status: status}, option.WithSortBy(option.QuerySortBy{
		SortBy:  "created_at",
		OrderBy: "asc",
		Allow:   map[string]bool{"created_at": true},
	}))
}

func (s *Service) ListByOwner(ctx context.Context, brandID string) ([]*Product, error) {
	return s.products.Find(ctx, &Product{BrandID: brandID}, option.WithSortBy(option.QuerySortBy{
		SortBy:  "created_at",
		OrderBy: "asc",
		Allow:   map[string]bool{"created_at": true},
	}))
}
