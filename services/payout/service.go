package payout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"creatorhub-controlplane/pkg/db/option"
	"creatorhub-controlplane/pkg/errutil"
	"creatorhub-controlplane/pkg/repository"
	"creatorhub-controlplane/pkg/sequence"
	"creatorhub-controlplane/pkg/task"
	"creatorhub-controlplane/services/notification"

	"github.com/bwmarrin/snowflake"
	"github.com/hibiken/asynq"
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
	enqueuer task.Enqueuer

	balances repository.Repository[Balance]
	entries  repository.Repository[LedgerEntry]
	requests repository.Repository[PayoutRequest]
}

type ServiceParams struct {
	fx.In
	DB       *gorm.DB
	Node     *snowflake.Node
	Seq      sequence.Generator    `optional:"true"`
	Notifier notification.Notifier `optional:"true"`
	Enqueuer task.Enqueuer         `optional:"true"`
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:       p.DB,
		node:     p.Node,
		seq:      p.Seq,
		notifier: p.Notifier,
		enqueuer: p.Enqueuer,
		balances: repository.ProvideStore[Balance](p.DB),
		entries:  repository.ProvideStore[LedgerEntry](p.DB),
		requests: repository.ProvideStore[PayoutRequest](p.DB),
	}
}

type CreditParams struct {
	PayeeID     string
	Amount      int64
	ReferenceID string
	Description string
}

// Credit accrues attributed sales into the payee's balance. Idempotent by
// reference id: replaying the same sale is rejected with DuplicateAction.
func (s *Service) Credit(ctx context.Context, p CreditParams) (*LedgerEntry, error) {
	if p.PayeeID == "" {
		return nil, errutil.ValidationFailed("payee_id is required", nil)
	}
	if p.ReferenceID == "" {
		return nil, errutil.ValidationFailed("reference_id is required", nil)
	}
	if p.Amount <= 0 {
		return nil, errutil.ValidationFailed("amount must be > 0", nil)
	}

	var entry *LedgerEntry
	err := s.db.Transaction(func(tx *gorm.DB) error {
		existing, err := s.entries.WithTrx(tx).FindOne(ctx, &LedgerEntry{ReferenceID: p.ReferenceID})
		if err != nil {
			return err
		}
		if existing != nil {
			return errutil.DuplicateAction(
				fmt.Sprintf("reference %s already credited", p.ReferenceID), nil)
		}

		entry, err = s.appendEntry(ctx, tx, p.PayeeID, EntryCredit, p.Amount, p.ReferenceID, p.Description)
		if err != nil {
			return err
		}

		return s.adjustBalance(ctx, tx, p.PayeeID, p.Amount)
	})
	if err != nil {
		return nil, err
	}

	return entry, nil
}

// GetBalance returns the payee's available balance; unknown payees have zero.
func (s *Service) GetBalance(ctx context.Context, payeeID string) (int64, error) {
	balance, err := s.balances.FindOne(ctx, &Balance{PayeeID: payeeID})
	if err != nil {
		return 0, err
	}
	if balance == nil {
		return 0, nil
	}
	return balance.Balance, nil
}

// RequestPayout reserves the amount out of the payee's balance and opens a
// pending request. The decrement happens here, at request time, so concurrent
// requests cannot spend the same funds twice.
func (s *Service) RequestPayout(ctx context.Context, payeeID string, amount int64) (*PayoutRequest, error) {
	span := trace.SpanFromContext(ctx)
	zapLog := zap.L().With(
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("payee_id", payeeID),
		zap.Int64("amount", amount),
	)

	if payeeID == "" {
		return nil, errutil.ValidationFailed("payee_id is required", nil)
	}
	if amount <= 0 {
		return nil, errutil.ValidationFailed("amount must be > 0", nil)
	}

	var request *PayoutRequest
	err := s.db.Transaction(func(tx *gorm.DB) error {
		balance, err := s.balances.WithTrx(tx).FindOne(ctx, &Balance{PayeeID: payeeID}, option.WithLockingUpdate())
		if err != nil {
			return err
		}
		if balance == nil || balance.Balance < amount {
			return errutil.InsufficientBalance(
				fmt.Sprintf("requested %d exceeds available balance", amount), nil)
		}

		// Guarded decrement: the WHERE clause keeps the balance non-negative
		// even if the locked read raced.
		res := tx.Model(&Balance{}).
			Where("id = ? AND balance >= ?", balance.ID, amount).
			Updates(map[string]any{
				"balance":    gorm.Expr("balance - ?", amount),
				"updated_at": time.Now(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errutil.InsufficientBalance(
				fmt.Sprintf("requested %d exceeds available balance", amount), nil)
		}

		requestID := s.node.Generate().String()

		var code string
		if s.seq != nil {
			if code, err = s.seq.NextPayoutCode(ctx); err != nil {
				zapLog.Warn("failed to generate payout code", zap.Error(err))
			}
		}
		if code == "" {
			code = "PO-" + requestID
		}

		if _, err := s.appendEntry(ctx, tx, payeeID, EntryDebit, amount, requestID, "payout reservation"); err != nil {
			return err
		}

		request = &PayoutRequest{
			ID:          requestID,
			Code:        code,
			PayeeID:     payeeID,
			Amount:      amount,
			Status:      StatusPending,
			RequestedAt: time.Now(),
		}
		return s.requests.WithTrx(tx).Create(ctx, request)
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, payeeID, KindPayoutRequested, request)
	return request, nil
}

// Process hands a pending request to the settlement worker. The asynq task id
// equals the request id, so processing is fenced to at most once per request.
func (s *Service) Process(ctx context.Context, requestID string) (*PayoutRequest, error) {
	var request *PayoutRequest
	err := s.db.Transaction(func(tx *gorm.DB) error {
		req, err := s.requests.WithTrx(tx).FindOne(ctx, &PayoutRequest{ID: requestID}, option.WithLockingUpdate())
		if err != nil {
			return err
		}
		if req == nil {
			return errutil.NotFound("payout request not found", nil)
		}
		if req.Status == StatusProcessing {
			return errutil.DuplicateAction("payout request is already being processed", nil)
		}
		if req.Status != StatusPending {
			return errutil.InvalidTransition(
				fmt.Sprintf("cannot process a %s payout request", req.Status), nil)
		}

		res := tx.Model(&PayoutRequest{}).
			Where("id = ? AND status = ?", requestID, StatusPending).
			Updates(map[string]any{"status": StatusProcessing, "updated_at": time.Now()})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errutil.InvalidTransition("payout request left pending before processing", nil)
		}

		req.Status = StatusProcessing
		request = req
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.enqueuer != nil {
		settleTask, err := NewSettleTask(requestID)
		if err != nil {
			return nil, errutil.Internal("failed to build settlement task", err)
		}
		if _, err := s.enqueuer.Enqueue(ctx, settleTask); err != nil {
			if errors.Is(err, asynq.ErrTaskIDConflict) {
				return nil, errutil.DuplicateAction("settlement already enqueued for this request", err)
			}
			return nil, err
		}
	}

	s.notify(ctx, request.PayeeID, KindPayoutProcessing, request)
	return request, nil
}

// Cancel is the compensating transition out of the working set: the request
// fails and the reserved amount returns to the balance.
func (s *Service) Cancel(ctx context.Context, requestID string) (*PayoutRequest, error) {
	return s.failWithRestore(ctx, requestID, "canceled", KindPayoutCanceled,
		StatusPending, StatusProcessing)
}

// ListPending returns the non-terminal working set, optionally per payee.
func (s *Service) ListPending(ctx context.Context, payeeID string) ([]*PayoutRequest, error) {
	q := s.db.WithContext(ctx).
		Where("status IN ?", []RequestStatus{StatusPending, StatusProcessing}).
		Order("requested_at ASC")
	if payeeID != "" {
		q = q.Where("payee_id = ?", payeeID)
	}

	var out []*PayoutRequest
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ListRequests returns the payee's full payout history, newest first.
func (s *Service) ListRequests(ctx context.Context, payeeID string) ([]*PayoutRequest, error) {
	return s.requests.Find(ctx, &PayoutRequest{PayeeID: payeeID}, option.WithSortBy(option.QuerySortBy{
		SortBy:  "requested_at",
		OrderBy: "desc",
		Allow:   map[string]bool{"requested_at": true},
	}))
}

// ListEntries returns the payee's audit trail in chain order.
func (s *Service) ListEntries(ctx context.Context, payeeID string) ([]*LedgerEntry, error) {
	return s.entries.Find(ctx, &LedgerEntry{PayeeID: payeeID}, option.WithSortBy(option.QuerySortBy{
		SortBy:  "created_at",
		OrderBy: "asc",
		Allow:   map[string]bool{"created_at": true},
	}))
}

// VerifyChain recomputes the payee's ledger hash chain.
func (s *Service) VerifyChain(ctx context.Context, payeeID string) (bool, error) {
	entries, err := s.ListEntries(ctx, payeeID)
	if err != nil {
		return false, err
	}

	lastHash := "GENESIS"
	for _, entry := range entries {
		if entry.Hash != entry.GenerateHash() || entry.PreviousHash != lastHash {
			return false, nil
		}
		lastHash = entry.Hash
	}

	return true, nil
}

// completeSettlement records a successful external settlement. Valid only
// while the request is processing.
func (s *Service) completeSettlement(ctx context.Context, requestID string) (*PayoutRequest, error) {
	var request *PayoutRequest
	err := s.db.Transaction(func(tx *gorm.DB) error {
		req, err := s.requests.WithTrx(tx).FindOne(ctx, &PayoutRequest{ID: requestID}, option.WithLockingUpdate())
		if err != nil {
			return err
		}
		if req == nil {
			return errutil.NotFound("payout request not found", nil)
		}
		if req.Status != StatusProcessing {
			return errutil.InvalidTransition(
				fmt.Sprintf("cannot complete a %s payout request", req.Status), nil)
		}

		now := time.Now()
		res := tx.Model(&PayoutRequest{}).
			Where("id = ? AND status = ?", requestID, StatusProcessing).
			Updates(map[string]any{
				"status":       StatusCompleted,
				"processed_at": now,
				"updated_at":   now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errutil.InvalidTransition("payout request left processing before completion", nil)
		}

		req.Status = StatusCompleted
		req.ProcessedAt = &now
		request = req
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, request.PayeeID, KindPayoutCompleted, request)
	return request, nil
}

// failSettlement records a failed external settlement and restores the
// reserved balance.
func (s *Service) failSettlement(ctx context.Context, requestID, reason string) (*PayoutRequest, error) {
	return s.failWithRestore(ctx, requestID, reason, KindPayoutFailed, StatusProcessing)
}

func (s *Service) failWithRestore(ctx context.Context, requestID, reason, kind string, from ...RequestStatus) (*PayoutRequest, error) {
	var request *PayoutRequest
	err := s.db.Transaction(func(tx *gorm.DB) error {
		req, err := s.requests.WithTrx(tx).FindOne(ctx, &PayoutRequest{ID: requestID}, option.WithLockingUpdate())
		if err != nil {
			return err
		}
		if req == nil {
			return errutil.NotFound("payout request not found", nil)
		}

		allowed := false
		for _, status := range from {
			if req.Status == status {
				allowed = true
				break
			}
		}
		if !allowed {
			return errutil.InvalidTransition(
				fmt.Sprintf("cannot fail a %s payout request", req.Status), nil)
		}

		now := time.Now()
		res := tx.Model(&PayoutRequest{}).
			Where("id = ? AND status = ?", requestID, req.Status).
			Updates(map[string]any{
				"status":         StatusFailed,
				"failure_reason": reason,
				"processed_at":   now,
				"updated_at":     now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errutil.InvalidTransition("payout request changed state before failure applied", nil)
		}

		// Compensating action: the reservation comes back in full.
		if _, err := s.appendEntry(ctx, tx, req.PayeeID, EntryCredit, req.Amount,
			req.ID+":refund", "payout reservation refund"); err != nil {
			return err
		}
		if err := s.adjustBalance(ctx, tx, req.PayeeID, req.Amount); err != nil {
			return err
		}

		req.Status = StatusFailed
		req.FailureReason = reason
		req.ProcessedAt = &now
		request = req
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, request.PayeeID, kind, request)
	return request, nil
}

func (s *Service) getRequest(ctx context.Context, requestID string) (*PayoutRequest, error) {
	return s.requests.FindOne(ctx, &PayoutRequest{ID: requestID})
}

// appendEntry links a new ledger entry onto the payee's hash chain. Callers
// hold the transaction; the last entry is locked to keep the chain linear.
func (s *Service) appendEntry(ctx context.Context, tx *gorm.DB, payeeID string, typ EntryType, amount int64, referenceID, description string) (*LedgerEntry, error) {
	last, err := s.entries.WithTrx(tx).FindOne(ctx, &LedgerEntry{PayeeID: payeeID},
		option.WithSortBy(option.QuerySortBy{
			SortBy:  "created_at",
			OrderBy: "desc",
			Allow:   map[string]bool{"created_at": true},
		}),
		option.WithLockingUpdate(),
	)
	if err != nil {
		return nil, err
	}

	previousHash := "GENESIS"
	if last != nil {
		previousHash = last.Hash
	}

	entry := &LedgerEntry{
		ID:           s.node.Generate().String(),
		PayeeID:      payeeID,
		Type:         typ,
		Amount:       amount,
		ReferenceID:  referenceID,
		Description:  description,
		PreviousHash: previousHash,
		CreatedAt:    time.Now(),
	}
	entry.Hash = entry.GenerateHash()

	if err := s.entries.WithTrx(tx).Create(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *Service) adjustBalance(ctx context.Context, tx *gorm.DB, payeeID string, delta int64) error {
	balance, err := s.balances.WithTrx(tx).FindOne(ctx, &Balance{PayeeID: payeeID}, option.WithLockingUpdate())
	if err != nil {
		return err
	}

	if balance == nil {
		if delta < 0 {
			return errutil.InsufficientBalance("no balance to debit", nil)
		}
		return s.balances.WithTrx(tx).Create(ctx, &Balance{
			ID:        s.node.Generate().String(),
			PayeeID:   payeeID,
			Balance:   delta,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		})
	}

	return tx.Model(&Balance{}).
		Where("id = ?", balance.ID).
		Updates(map[string]any{
			"balance":    gorm.Expr("balance + ?", delta),
			"updated_at": time.Now(),
		}).Error
}

func (s *Service) notify(ctx context.Context, payeeID, kind string, req *PayoutRequest) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, payeeID, kind, map[string]any{
		"request_id": req.ID,
		"amount":     req.Amount,
		"status":     req.Status,
	}); err != nil {
		zap.L().Warn("failed to notify payee", zap.Error(err),
			zap.String("request_id", req.ID), zap.String("kind", kind))
	}
}
