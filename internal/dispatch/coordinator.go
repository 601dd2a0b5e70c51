// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package dispatch

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/holiman/uint256"

	"github.com/nearx-labs/nearx-pool/internal/registry"
)

// Coordinator issues asynchronous calls to a Gateway and delivers their
// results back to the pool under the pool's own lock, guaranteeing the
// single-writer model of spec §5 holds even though the call itself runs
// on a separate goroutine.
//
// Each in-flight call is tagged with a correlation ID so a result is
// only ever applied once, even if a caller resolves the same logical
// call twice (spec §4.G: "every dispatch has a paired callback... must
// be idempotent under callback failure").
type Coordinator struct {
	gateway Gateway

	mu       sync.Mutex
	inFlight map[uuid.UUID]*sync.Once
}

// NewCoordinator returns a Coordinator that issues calls against gw.
func NewCoordinator(gw Gateway) *Coordinator {
	return &Coordinator{
		gateway:  gw,
		inFlight: make(map[uuid.UUID]*sync.Once),
	}
}

// InFlightCount reports the number of calls dispatched but not yet
// resolved. Exposed for tests and for metrics.
func (c *Coordinator) InFlightCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.inFlight)
}

func (c *Coordinator) begin() (uuid.UUID, *sync.Once) {
	id := uuid.New()
	once := &sync.Once{}
	c.mu.Lock()
	c.inFlight[id] = once
	c.mu.Unlock()
	return id, once
}

func (c *Coordinator) end(id uuid.UUID) {
	c.mu.Lock()
	delete(c.inFlight, id)
	c.mu.Unlock()
}

// DispatchStake issues a deposit_and_stake call to validator for amount.
// On remote failure, onFailure runs once, under runLocked. On remote
// success, the coordinator chains a get_account_staked_balance query
// (spec §4.G's reconciliation callback) and runs onReconcile with the
// reported balance, also under runLocked. If the reconcile query itself
// fails, neither callback runs again this round; a subsequent
// sync_balance_from_validator call is expected to retry it.
func (c *Coordinator) DispatchStake(
	ctx context.Context,
	validator registry.ID,
	amount *uint256.Int,
	runLocked func(func()),
	onFailure func(),
	onReconcile func(reportedBalance *uint256.Int),
) {
	id, once := c.begin()
	resultCh := c.gateway.DepositAndStake(ctx, validator, amount)
	go func() {
		defer c.end(id)
		result := <-resultCh
		once.Do(func() {
			if result.Err != nil {
				runLocked(onFailure)
				return
			}
			balanceCh := c.gateway.GetAccountStakedBalance(ctx, validator)
			balance := <-balanceCh
			runLocked(func() {
				if balance.Err != nil {
					return
				}
				onReconcile(balance.Balance)
			})
		})
	}()
}

// DispatchUnstake issues an unstake call to validator for amount. Exactly
// one of onSuccess or onFailure runs, under runLocked, once the remote
// result is known.
func (c *Coordinator) DispatchUnstake(
	ctx context.Context,
	validator registry.ID,
	amount *uint256.Int,
	runLocked func(func()),
	onSuccess func(),
	onFailure func(),
) {
	id, once := c.begin()
	resultCh := c.gateway.Unstake(ctx, validator, amount)
	go func() {
		defer c.end(id)
		result := <-resultCh
		once.Do(func() {
			runLocked(func() {
				if result.Err != nil {
					onFailure()
					return
				}
				onSuccess()
			})
		})
	}()
}

// DispatchWithdraw issues a withdraw_all call to validator. Exactly one
// of onSuccess or onFailure runs, under runLocked, once the remote
// result is known.
func (c *Coordinator) DispatchWithdraw(
	ctx context.Context,
	validator registry.ID,
	runLocked func(func()),
	onSuccess func(),
	onFailure func(),
) {
	id, once := c.begin()
	resultCh := c.gateway.WithdrawAll(ctx, validator)
	go func() {
		defer c.end(id)
		result := <-resultCh
		once.Do(func() {
			runLocked(func() {
				if result.Err != nil {
					onFailure()
					return
				}
				onSuccess()
			})
		})
	}()
}

// DispatchBalanceQuery issues a get_account_staked_balance query to
// validator, used by sync_balance_from_validator (spec §6) outside the
// stake-dispatch reconcile chain. onResult runs under runLocked with the
// reported balance, or is skipped on remote failure.
func (c *Coordinator) DispatchBalanceQuery(
	ctx context.Context,
	validator registry.ID,
	runLocked func(func()),
	onResult func(reportedBalance *uint256.Int),
) {
	id, once := c.begin()
	resultCh := c.gateway.GetAccountStakedBalance(ctx, validator)
	go func() {
		defer c.end(id)
		result := <-resultCh
		once.Do(func() {
			if result.Err != nil {
				return
			}
			runLocked(func() {
				onResult(result.Balance)
			})
		})
	}()
}
