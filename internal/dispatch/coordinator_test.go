// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package dispatch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/nearx-labs/nearx-pool/internal/registry"
)

// scriptedGateway is an in-memory Gateway whose responses are queued up
// front, used to drive the Coordinator's goroutines deterministically.
type scriptedGateway struct {
	deposit  chan DepositResult
	unstake  chan UnstakeResult
	withdraw chan WithdrawResult
	balance  chan BalanceResult
}

func newScriptedGateway() *scriptedGateway {
	return &scriptedGateway{
		deposit:  make(chan DepositResult, 1),
		unstake:  make(chan UnstakeResult, 1),
		withdraw: make(chan WithdrawResult, 1),
		balance:  make(chan BalanceResult, 1),
	}
}

func (g *scriptedGateway) DepositAndStake(context.Context, registry.ID, *uint256.Int) <-chan DepositResult {
	return g.deposit
}

func (g *scriptedGateway) Unstake(context.Context, registry.ID, *uint256.Int) <-chan UnstakeResult {
	return g.unstake
}

func (g *scriptedGateway) WithdrawAll(context.Context, registry.ID) <-chan WithdrawResult {
	return g.withdraw
}

func (g *scriptedGateway) GetAccountStakedBalance(context.Context, registry.ID) <-chan BalanceResult {
	return g.balance
}

// syncRunLocked runs f synchronously under a mutex, standing in for the
// pool's real lock in tests.
func syncRunLocked(mu *sync.Mutex) func(func()) {
	return func(f func()) {
		mu.Lock()
		defer mu.Unlock()
		f()
	}
}

func TestDispatchStakeSuccessChainsReconcile(t *testing.T) {
	require := require.New(t)

	gw := newScriptedGateway()
	c := NewCoordinator(gw)
	var mu sync.Mutex

	reconciled := make(chan *uint256.Int, 1)
	c.DispatchStake(context.Background(), "v1.near", uint256.NewInt(100), syncRunLocked(&mu),
		func() { t.Fatal("onFailure must not run on success") },
		func(reported *uint256.Int) { reconciled <- reported },
	)

	gw.deposit <- DepositResult{}
	gw.balance <- BalanceResult{Balance: uint256.NewInt(99)}

	select {
	case reported := <-reconciled:
		require.Equal(uint256.NewInt(99), reported)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for reconcile")
	}
	require.Eventually(func() bool { return c.InFlightCount() == 0 }, time.Second, time.Millisecond)
}

func TestDispatchStakeFailureSkipsReconcile(t *testing.T) {
	require := require.New(t)

	gw := newScriptedGateway()
	c := NewCoordinator(gw)
	var mu sync.Mutex

	failed := make(chan struct{}, 1)
	c.DispatchStake(context.Background(), "v1.near", uint256.NewInt(100), syncRunLocked(&mu),
		func() { failed <- struct{}{} },
		func(*uint256.Int) { t.Fatal("onReconcile must not run on failure") },
	)

	gw.deposit <- DepositResult{Err: errors.New("remote rejected")}

	select {
	case <-failed:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for failure callback")
	}
	require.Eventually(func() bool { return c.InFlightCount() == 0 }, time.Second, time.Millisecond)
}

func TestDispatchUnstakeSuccessAndFailure(t *testing.T) {
	var mu sync.Mutex

	t.Run("success", func(t *testing.T) {
		gw := newScriptedGateway()
		c := NewCoordinator(gw)
		done := make(chan struct{}, 1)
		c.DispatchUnstake(context.Background(), "v1.near", uint256.NewInt(10), syncRunLocked(&mu),
			func() { done <- struct{}{} },
			func() { t.Fatal("onFailure must not run") },
		)
		gw.unstake <- UnstakeResult{}
		<-done
	})

	t.Run("failure", func(t *testing.T) {
		gw := newScriptedGateway()
		c := NewCoordinator(gw)
		done := make(chan struct{}, 1)
		c.DispatchUnstake(context.Background(), "v1.near", uint256.NewInt(10), syncRunLocked(&mu),
			func() { t.Fatal("onSuccess must not run") },
			func() { done <- struct{}{} },
		)
		gw.unstake <- UnstakeResult{Err: errors.New("remote rejected")}
		<-done
	})
}

func TestReconcileStakeOnValidatorHandlesBothDeltaDirections(t *testing.T) {
	require := require.New(t)

	v := &registry.Validator{Staked: uint256.NewInt(100)}
	newTotal := ReconcileStakeOnValidator(v, uint256.NewInt(90), uint256.NewInt(1000))
	require.Equal(uint256.NewInt(90), v.Staked)
	require.Equal(uint256.NewInt(990), newTotal)

	v2 := &registry.Validator{Staked: uint256.NewInt(100)}
	newTotal2 := ReconcileStakeOnValidator(v2, uint256.NewInt(110), uint256.NewInt(1000))
	require.Equal(uint256.NewInt(110), v2.Staked)
	require.Equal(uint256.NewInt(1010), newTotal2)
}

func TestUnstakeRollbackRestoresPriorEpoch(t *testing.T) {
	require := require.New(t)

	v := &registry.Validator{UnstakeStartEpoch: 5}
	BeginUnstakeOnValidator(v, 10)
	require.EqualValues(10, v.UnstakeStartEpoch)
	require.EqualValues(5, v.LastUnstakeStartEpoch)

	RollbackUnstakeOnValidator(v)
	require.EqualValues(5, v.UnstakeStartEpoch)
}

func TestWithdrawRollbackRestoresAmount(t *testing.T) {
	require := require.New(t)

	v := &registry.Validator{UnstakedAmount: uint256.NewInt(50)}
	cleared := BeginWithdrawOnValidator(v)
	require.True(v.UnstakedAmount.IsZero())
	require.Equal(uint256.NewInt(50), cleared)

	RollbackWithdrawOnValidator(v, cleared)
	require.Equal(uint256.NewInt(50), v.UnstakedAmount)
}
