package moderation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"creatorhub-controlplane/pkg/db/option"
	"creatorhub-controlplane/pkg/errutil"
	"creatorhub-controlplane/pkg/repository"
	"creatorhub-controlplane/pkg/sequence"
	"creatorhub-controlplane/services/catalog"
	"creatorhub-controlplane/services/notification"
	"creatorhub-controlplane/services/profile"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CatalogDesk is the slice of the catalog the desk needs for overrides.
type CatalogDesk interface {
	Get(ctx context.Context, productID string) (*catalog.Product, error)
	Approve(ctx context.Context, productID string) (*catalog.Product, error)
	Reject(ctx context.Context, productID string) (*catalog.Product, error)
	Remove(ctx context.Context, productID string) (*catalog.Product, error)
}

// ProfileDesk is the slice of account management the desk needs for overrides.
type ProfileDesk interface {
	Get(ctx context.Context, profileID string) (*profile.Profile, error)
	Suspend(ctx context.Context, profileID string) (*profile.Profile, error)
	Reactivate(ctx context.Context, profileID string) (*profile.Profile, error)
}

type Service struct {
	db       *gorm.DB
	node     *snowflake.Node
	seq      sequence.Generator
	notifier notification.Notifier
	catalog  CatalogDesk
	profiles ProfileDesk

	reports repository.Repository[Report]
}

type ServiceParams struct {
	fx.In
	DB       *gorm.DB
	Node     *snowflake.Node
	Seq      sequence.Generator    `optional:"true"`
	Notifier notification.Notifier `optional:"true"`
	Catalog  CatalogDesk
	Profiles ProfileDesk
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:       p.DB,
		node:     p.Node,
		seq:      p.Seq,
		notifier: p.Notifier,
		catalog:  p.Catalog,
		profiles: p.Profiles,
		reports:  repository.ProvideStore[Report](p.DB),
	}
}

type FileParams struct {
	ReporterID string
	TargetType TargetType
	TargetID   string
	Reason     string
}

// FileReport opens a new report. Product targets are resolved against the
// catalog up front so the desk never queues reports about unknown products.
func (s *Service) FileReport(ctx context.Context, p FileParams) (*Report, error) {
	if p.ReporterID == "" {
		return nil, errutil.ValidationFailed("reporter_id is required", nil)
	}
	if !p.TargetType.Valid() {
		return nil, errutil.ValidationFailed(fmt.Sprintf("unknown target type %q", p.TargetType), nil)
	}
	if p.TargetID == "" {
		return nil, errutil.ValidationFailed("target_id is required", nil)
	}
	if strings.TrimSpace(p.Reason) == "" {
		return nil, errutil.ValidationFailed("reason is required", nil)
	}

	if p.TargetType == TargetProduct {
		if _, err := s.catalog.Get(ctx, p.TargetID); err != nil {
			return nil, err
		}
	}
	if p.TargetType == TargetUser {
		if _, err := s.profiles.Get(ctx, p.TargetID); err != nil {
			return nil, err
		}
	}

	id := s.node.Generate().String()

	var code string
	if s.seq != nil {
		var err error
		if code, err = s.seq.NextReportCode(ctx); err != nil {
			zap.L().Warn("failed to generate report code", zap.Error(err))
		}
	}
	if code == "" {
		code = "RPT-" + id
	}

	now := time.Now()
	report := &Report{
		ID:         id,
		Code:       code,
		ReporterID: p.ReporterID,
		TargetType: p.TargetType,
		TargetID:   p.TargetID,
		Reason:     p.Reason,
		Status:     StatusOpen,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.reports.Create(ctx, report); err != nil {
		return nil, err
	}

	return report, nil
}

func (s *Service) Get(ctx context.Context, reportID string) (*Report, error) {
	report, err := s.reports.FindOne(ctx, &Report{ID: reportID})
	if err != nil {
		return nil, err
	}
	if report == nil {
		return nil, errutil.NotFound("report not found", nil)
	}
	return report, nil
}

// Investigate claims an open report for review.
func (s *Service) Investigate(ctx context.Context, reportID string) (*Report, error) {
	return s.transition(ctx, reportID, StatusInvestigating, "", []Status{StatusOpen}, "")
}

// Resolve closes a report as actioned. Terminal.
func (s *Service) Resolve(ctx context.Context, reportID, note string) (*Report, error) {
	return s.transition(ctx, reportID, StatusResolved, note,
		[]Status{StatusOpen, StatusInvestigating}, kindReportResolved)
}

// Dismiss closes a report without action. Terminal.
func (s *Service) Dismiss(ctx context.Context, reportID, note string) (*Report, error) {
	return s.transition(ctx, reportID, StatusDismissed, note,
		[]Status{StatusOpen, StatusInvestigating}, kindReportDismissed)
}

func (s *Service) transition(ctx context.Context, reportID string, to Status, note string, allowedFrom []Status, kind string) (*Report, error) {
	var report *Report
	err := s.db.Transaction(func(tx *gorm.DB) error {
		current, err := s.reports.WithTrx(tx).FindOne(ctx, &Report{ID: reportID}, option.WithLockingUpdate())
		if err != nil {
			return err
		}
		if current == nil {
			return errutil.NotFound("report not found", nil)
		}

		allowed := false
		for _, from := range allowedFrom {
			if current.Status == from {
				allowed = true
				break
			}
		}
		if !allowed {
			return errutil.InvalidTransition(
				fmt.Sprintf("cannot move report from %s to %s", current.Status, to), nil)
		}

		now := time.Now()
		fields := map[string]any{
			"status":     to,
			"updated_at": now,
		}
		if note != "" {
			fields["resolution_note"] = note
		}
		if to == StatusResolved || to == StatusDismissed {
			fields["resolved_at"] = now
			current.ResolvedAt = &now
		}

		res := tx.Model(&Report{}).
			Where("id = ? AND status = ?", reportID, current.Status).
			Updates(fields)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errutil.InvalidTransition(
				fmt.Sprintf("report left %s before this transition applied", current.Status), nil)
		}

		current.Status = to
		current.UpdatedAt = now
		if note != "" {
			current.ResolutionNote = note
		}
		report = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	if kind != "" && s.notifier != nil {
		if err := s.notifier.Notify(ctx, report.ReporterID, kind, map[string]any{
			"report_id": report.ID,
			"status":    report.Status,
			"note":      report.ResolutionNote,
		}); err != nil {
			zap.L().Warn("failed to notify reporter", zap.Error(err), zap.String("report_id", report.ID))
		}
	}

	return report, nil
}

type ProductAction string

const (
	ProductApprove ProductAction = "approve"
	ProductReject  ProductAction = "reject"
	ProductRemove  ProductAction = "remove"
)

// OverrideProductStatus lets an admin force a product transition from the
// desk. The catalog's state machine still applies, so an illegal move is
// rejected rather than forced.
func (s *Service) OverrideProductStatus(ctx context.Context, productID string, action ProductAction) (*catalog.Product, error) {
	switch action {
	case ProductApprove:
		return s.catalog.Approve(ctx, productID)
	case ProductReject:
		return s.catalog.Reject(ctx, productID)
	case ProductRemove:
		return s.catalog.Remove(ctx, productID)
	default:
		return nil, errutil.BadRequest(fmt.Sprintf("unknown product action %q", action), nil)
	}
}

type UserAction string

const (
	UserSuspend    UserAction = "suspend"
	UserReactivate UserAction = "reactivate"
)

// OverrideUserStatus lets an admin suspend or reinstate an account from the
// desk, usually as the outcome of a user-targeted report.
func (s *Service) OverrideUserStatus(ctx context.Context, profileID string, action UserAction) (*profile.Profile, error) {
	switch action {
	case UserSuspend:
		return s.profiles.Suspend(ctx, profileID)
	case UserReactivate:
		return s.profiles.Reactivate(ctx, profileID)
	default:
		return nil, errutil.BadRequest(fmt.Sprintf("unknown user action %q", action), nil)
	}
}

type ListParams struct {
	Status     Status
	TargetType TargetType
	TargetID   string
}

// ListReports filters the desk queue. Zero-value params return everything,
// oldest first.
func (s *Service) ListReports(ctx context.Context, p ListParams) ([]*Report, error) {
	filter := &Report{
		Status:     p.Status,
		TargetType: p.TargetType,
		TargetID:   p.TargetID,
	}
	return s.reports.Find(ctx, filter, option.WithSortBy(option.QuerySortBy{
		SortBy:  "created_at",
		OrderBy: "asc",
		Allow:   map[string]bool{"created_at": true},
	}))
}
