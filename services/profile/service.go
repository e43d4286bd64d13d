package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"creatorhub-controlplane/pkg/db/option"
	"creatorhub-controlplane/pkg/errutil"
	"creatorhub-controlplane/pkg/repository"
	"creatorhub-controlplane/services/notification"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db       *gorm.DB
	node     *snowflake.Node
	notifier notification.Notifier

	profiles repository.Repository[Profile]
}

type ServiceParams struct {
	fx.In
	DB       *gorm.DB
	Node     *snowflake.Node
	Notifier notification.Notifier `optional:"true"`
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:       p.DB,
		node:     p.Node,
		notifier: p.Notifier,
		profiles: repository.ProvideStore[Profile](p.DB),
	}
}

type CreateParams struct {
	DisplayName string
	Categories  []string
}

// CreateBrand registers a brand account in active status.
func (s *Service) CreateBrand(ctx context.Context, p CreateParams) (*Profile, error) {
	return s.create(ctx, RoleBrand, p)
}

// CreateInfluencer registers an influencer account in active status.
func (s *Service) CreateInfluencer(ctx context.Context, p CreateParams) (*Profile, error) {
	return s.create(ctx, RoleInfluencer, p)
}

func (s *Service) create(ctx context.Context, role Role, p CreateParams) (*Profile, error) {
	if p.DisplayName == "" {
		return nil, errutil.ValidationFailed("display_name is required", nil)
	}

	var categories []byte
	if len(p.Categories) > 0 {
		var err error
		if categories, err = json.Marshal(p.Categories); err != nil {
			return nil, errutil.BadRequest("invalid categories", err)
		}
	}

	now := time.Now()
	profile := &Profile{
		ID:          s.node.Generate().String(),
		Role:        role,
		DisplayName: p.DisplayName,
		Categories:  categories,
		Status:      StatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.profiles.Create(ctx, profile); err != nil {
		return nil, err
	}

	return profile, nil
}

func (s *Service) Get(ctx context.Context, profileID string) (*Profile, error) {
	profile, err := s.profiles.FindOne(ctx, &Profile{ID: profileID})
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, errutil.NotFound("profile not found", nil)
	}
	return profile, nil
}

type UpdateParams struct {
	DisplayName string
	Categories  []string
	Onboarded   *bool
}

// Update edits the mutable account fields. Role and status never change here.
func (s *Service) Update(ctx context.Context, profileID string, p UpdateParams) (*Profile, error) {
	profile, err := s.Get(ctx, profileID)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{"updated_at": time.Now()}
	if p.DisplayName != "" {
		fields["display_name"] = p.DisplayName
	}
	if p.Categories != nil {
		categories, err := json.Marshal(p.Categories)
		if err != nil {
			return nil, errutil.BadRequest("invalid categories", err)
		}
		fields["categories"] = categories
	}
	if p.Onboarded != nil {
		fields["onboarded"] = *p.Onboarded
	}

	if err := s.db.WithContext(ctx).Model(&Profile{}).
		Where("id = ?", profile.ID).
		Updates(fields).Error; err != nil {
		return nil, err
	}

	return s.Get(ctx, profileID)
}

// SetVerified toggles the admin-granted verification badge.
func (s *Service) SetVerified(ctx context.Context, profileID string, verified bool) (*Profile, error) {
	if _, err := s.Get(ctx, profileID); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(&Profile{}).
		Where("id = ?", profileID).
		Updates(map[string]any{"verified": verified, "updated_at": time.Now()}).Error; err != nil {
		return nil, err
	}
	return s.Get(ctx, profileID)
}

// Suspend locks an active account out of the marketplace.
func (s *Service) Suspend(ctx context.Context, profileID string) (*Profile, error) {
	return s.setStatus(ctx, profileID, StatusSuspended, StatusActive, kindAccountSuspended)
}

// Reactivate restores a suspended account.
func (s *Service) Reactivate(ctx context.Context, profileID string) (*Profile, error) {
	return s.setStatus(ctx, profileID, StatusActive, StatusSuspended, kindAccountReactivated)
}

// Deactivate retires an account permanently. The row is kept so historical
// ledger entries and reports keep resolving.
func (s *Service) Deactivate(ctx context.Context, profileID string) (*Profile, error) {
	profile, err := s.Get(ctx, profileID)
	if err != nil {
		return nil, err
	}
	if profile.Status == StatusDeactivated {
		return nil, errutil.InvalidTransition("account already deactivated", nil)
	}
	return s.setStatus(ctx, profileID, StatusDeactivated, profile.Status, "")
}

func (s *Service) setStatus(ctx context.Context, profileID string, to, from Status, kind string) (*Profile, error) {
	var profile *Profile
	err := s.db.Transaction(func(tx *gorm.DB) error {
		current, err := s.profiles.WithTrx(tx).FindOne(ctx, &Profile{ID: profileID}, option.WithLockingUpdate())
		if err != nil {
			return err
		}
		if current == nil {
			return errutil.NotFound("profile not found", nil)
		}
		if current.Status != from {
			return errutil.InvalidTransition(
				fmt.Sprintf("cannot move account from %s to %s", current.Status, to), nil)
		}

		now := time.Now()
		res := tx.Model(&Profile{}).
			Where("id = ? AND status = ?", profileID, from).
			Updates(map[string]any{"status": to, "updated_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errutil.InvalidTransition(
				fmt.Sprintf("account left %s before this transition applied", from), nil)
		}

		current.Status = to
		current.UpdatedAt = now
		profile = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	if kind != "" && s.notifier != nil {
		if err := s.notifier.Notify(ctx, profile.ID, kind, map[string]any{
			"profile_id": profile.ID,
			"status":     profile.Status,
		}); err != nil {
			zap.L().Warn("failed to notify account", zap.Error(err), zap.String("profile_id", profile.ID))
		}
	}

	return profile, nil
}

// ListByRole returns accounts for one role ordered by creation time.
func (s *Service) ListByRole(ctx context.Context, role Role) ([]*Profile, error) {
	return s.profiles.Find(ctx, &Profile{Role: role}, option.WithSortBy(option.QuerySortBy{
		SortBy:  "created_at",
		OrderBy: "asc",
		Allow:   map[string]bool{"created_at": true},
	}))
}
