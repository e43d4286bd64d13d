package payout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"creatorhub-controlplane/pkg/config"
)

type gatewayStub struct {
	err   error
	calls int
}

func (g *gatewayStub) Settle(_ context.Context, _ *PayoutRequest) error {
	g.calls++
	return g.err
}

func processingRequest(t *testing.T, svc *Service, payeeID string, amount int64) *PayoutRequest {
	t.Helper()
	ctx := context.Background()

	_, err := svc.Credit(ctx, CreditParams{PayeeID: payeeID, Amount: amount * 2, ReferenceID: "seed-" + payeeID})
	require.NoError(t, err)
	request, err := svc.RequestPayout(ctx, payeeID, amount)
	require.NoError(t, err)
	request, err = svc.Process(ctx, request.ID)
	require.NoError(t, err)
	return request
}

func TestHandleSettleTaskSuccess(t *testing.T) {
	svc := newTestService(t)
	gateway := &gatewayStub{}
	worker := NewTask(TaskParams{Service: svc, Gateway: gateway})
	ctx := context.Background()

	request := processingRequest(t, svc, "inf-1", 3000)

	settleTask, err := NewSettleTask(request.ID)
	require.NoError(t, err)
	require.NoError(t, worker.HandleSettleTask(ctx, settleTask))
	require.Equal(t, 1, gateway.calls)

	settled, err := svc.getRequest(ctx, request.ID)
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, settled.Status)

	pending, err := svc.ListPending(ctx, "inf-1")
	require.NoError(t, err)
	require.Empty(t, pending)
}

func TestHandleSettleTaskFailure(t *testing.T) {
	svc := newTestService(t)
	gateway := &gatewayStub{err: errors.New("insufficient funds at gateway")}
	worker := NewTask(TaskParams{Service: svc, Gateway: gateway})
	ctx := context.Background()

	request := processingRequest(t, svc, "inf-1", 3000)

	settleTask, err := NewSettleTask(request.ID)
	require.NoError(t, err)
	require.NoError(t, worker.HandleSettleTask(ctx, settleTask))

	failed, err := svc.getRequest(ctx, request.ID)
	require.NoError(t, err)
	require.Equal(t, StatusFailed, failed.Status)
	require.Equal(t, "insufficient funds at gateway", failed.FailureReason)

	balance, err := svc.GetBalance(ctx, "inf-1")
	require.NoError(t, err)
	require.Equal(t, int64(6000), balance)

	valid, err := svc.VerifyChain(ctx, "inf-1")
	require.NoError(t, err)
	require.True(t, valid)
}

func TestHandleSettleTaskSkipsNonProcessing(t *testing.T) {
	svc := newTestService(t)
	gateway := &gatewayStub{}
	worker := NewTask(TaskParams{Service: svc, Gateway: gateway})
	ctx := context.Background()

	request := processingRequest(t, svc, "inf-1", 3000)
	_, err := svc.completeSettlement(ctx, request.ID)
	require.NoError(t, err)

	// A redelivered task for a settled request is dropped, not re-settled.
	settleTask, err := NewSettleTask(request.ID)
	require.NoError(t, err)
	require.NoError(t, worker.HandleSettleTask(ctx, settleTask))
	require.Zero(t, gateway.calls)

	// Unknown requests are dropped too.
	orphan, err := NewSettleTask("missing")
	require.NoError(t, err)
	require.NoError(t, worker.HandleSettleTask(ctx, orphan))
}

func TestSimulatedGatewayHonorsContext(t *testing.T) {
	gateway := &SimulatedGateway{delay: time.Minute}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := gateway.Settle(ctx, &PayoutRequest{ID: "req-1"})
	require.ErrorIs(t, err, context.Canceled)
}

func TestSimulatedGatewayFailureRate(t *testing.T) {
	always := gatewayWithRate(1.0)
	require.Error(t, always.Settle(context.Background(), &PayoutRequest{ID: "req-1"}))

	never := gatewayWithRate(0)
	require.NoError(t, never.Settle(context.Background(), &PayoutRequest{ID: "req-2"}))
}

func gatewayWithRate(rate float64) Gateway {
	cfg := &config.Config{}
	cfg.Settlement.FailureRate = rate
	return NewSimulatedGateway(cfg)
}
