package payout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"creatorhub-controlplane/pkg/config"
	"creatorhub-controlplane/pkg/errutil"
	"creatorhub-controlplane/pkg/taskname"

	"github.com/hibiken/asynq"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Gateway models the external settlement call behind payout processing.
type Gateway interface {
	Settle(ctx context.Context, req *PayoutRequest) error
}

// SimulatedGateway settles after a bounded delay and declines a configurable
// fraction of requests. No real funds move here.
type SimulatedGateway struct {
	delay       time.Duration
	failureRate float64

	mu  sync.Mutex
	rng *rand.Rand
}

func NewSimulatedGateway(cfg *config.Config) Gateway {
	return &SimulatedGateway{
		delay:       cfg.Settlement.Delay,
		failureRate: cfg.Settlement.FailureRate,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (g *SimulatedGateway) Settle(ctx context.Context, req *PayoutRequest) error {
	timer := time.NewTimer(g.delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
	}

	g.mu.Lock()
	declined := g.rng.Float64() < g.failureRate
	g.mu.Unlock()

	if declined {
		return fmt.Errorf("settlement declined for request %s", req.ID)
	}
	return nil
}

type SettlePayload struct {
	RequestID string `json:"request_id"`
}

// NewSettleTask builds the settlement task for a payout request. The task id
// equals the request id, so re-enqueueing the same request conflicts instead
// of settling twice; no retries, the compensating transition handles failure.
func NewSettleTask(requestID string) (*asynq.Task, error) {
	payload, err := json.Marshal(SettlePayload{RequestID: requestID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(taskname.PayoutSettle, payload,
		asynq.TaskID(requestID),
		asynq.Queue("critical"),
		asynq.MaxRetry(0),
	), nil
}

var TaskModule = fx.Module("task.payout",
	fx.Provide(NewTask),
)

type Task struct {
	svc     *Service
	gateway Gateway
}

type TaskParams struct {
	fx.In
	Service *Service
	Gateway Gateway
}

func NewTask(p TaskParams) *Task {
	return &Task{
		svc:     p.Service,
		gateway: p.Gateway,
	}
}

// HandleSettleTask drives one settlement attempt. Outcomes are applied with
// guarded transitions, so a request that is no longer processing is skipped
// rather than settled again.
func (t *Task) HandleSettleTask(ctx context.Context, at *asynq.Task) error {
	var payload SettlePayload
	if err := json.Unmarshal(at.Payload(), &payload); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}

	zapLog := zap.L().With(
		zap.String("task_type", at.Type()),
		zap.String("request_id", payload.RequestID),
	)
	zapLog.Info("start settlement")

	req, err := t.svc.getRequest(ctx, payload.RequestID)
	if err != nil {
		return err
	}
	if req == nil {
		zapLog.Warn("payout request not found, dropping settlement task")
		return nil
	}
	if req.Status != StatusProcessing {
		zapLog.Info("payout request no longer processing, skipping",
			zap.String("status", string(req.Status)))
		return nil
	}

	if err := t.gateway.Settle(ctx, req); err != nil {
		zapLog.Warn("settlement failed, restoring balance", zap.Error(err))
		if _, aerr := t.svc.failSettlement(ctx, req.ID, err.Error()); aerr != nil {
			if isInvalidTransition(aerr) {
				// Canceled while the gateway call was in flight.
				zapLog.Info("failure outcome skipped, request already terminal")
				return nil
			}
			return aerr
		}
		return nil
	}

	if _, err := t.svc.completeSettlement(ctx, req.ID); err != nil {
		if isInvalidTransition(err) {
			zapLog.Info("completion skipped, request already terminal")
			return nil
		}
		return err
	}

	zapLog.Info("settlement completed")
	return nil
}

func isInvalidTransition(err error) bool {
	var be errutil.BaseError
	return errors.As(err, &be) && be.Code == errutil.StatusInvalidTransition
}
