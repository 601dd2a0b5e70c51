// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package nearxtest provides an in-memory fake of dispatch.Gateway and
// harness helpers used across the module's own tests, the same role
// avalanchego's various "testtoken"/mock packages play for their unit
// tests: a hand-rolled fake kept close to the interface it stands in
// for, rather than a generated mock.
package nearxtest

import (
	"context"
	"sync"

	"github.com/holiman/uint256"

	"github.com/nearx-labs/nearx-pool/internal/dispatch"
	"github.com/nearx-labs/nearx-pool/internal/registry"
)

// FakeGateway is a deterministic, synchronous dispatch.Gateway: every
// call resolves its channel immediately from scripted or default
// responses, so tests driving a pool.Pool against it don't need to
// coordinate goroutine timing.
type FakeGateway struct {
	mu sync.Mutex

	// Balances is each validator's simulated on-chain staked balance,
	// consulted by GetAccountStakedBalance and by DepositAndStake's
	// default success behavior (it credits the deposited amount).
	Balances map[registry.ID]*uint256.Int

	// FailDeposit, FailUnstake, FailWithdraw name validators whose next
	// call of that kind fails; the entry is consumed on use.
	FailDeposit  map[registry.ID]bool
	FailUnstake  map[registry.ID]bool
	FailWithdraw map[registry.ID]bool
}

// NewFakeGateway returns a ready-to-use FakeGateway.
func NewFakeGateway() *FakeGateway {
	return &FakeGateway{
		Balances:     make(map[registry.ID]*uint256.Int),
		FailDeposit:  make(map[registry.ID]bool),
		FailUnstake:  make(map[registry.ID]bool),
		FailWithdraw: make(map[registry.ID]bool),
	}
}

func (g *FakeGateway) balance(id registry.ID) *uint256.Int {
	if b, ok := g.Balances[id]; ok {
		return b
	}
	b := new(uint256.Int)
	g.Balances[id] = b
	return b
}

// SetBalance sets validator id's simulated staked balance directly,
// used by tests to model externally-accrued rewards before a harvest.
func (g *FakeGateway) SetBalance(id registry.ID, amount *uint256.Int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Balances[id] = new(uint256.Int).Set(amount)
}

func (g *FakeGateway) DepositAndStake(_ context.Context, id registry.ID, amount *uint256.Int) <-chan dispatch.DepositResult {
	ch := make(chan dispatch.DepositResult, 1)
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.FailDeposit[id] {
		delete(g.FailDeposit, id)
		ch <- dispatch.DepositResult{Err: errFake}
		return ch
	}
	b := g.balance(id)
	g.Balances[id] = new(uint256.Int).Add(b, amount)
	ch <- dispatch.DepositResult{}
	return ch
}

func (g *FakeGateway) Unstake(_ context.Context, id registry.ID, amount *uint256.Int) <-chan dispatch.UnstakeResult {
	ch := make(chan dispatch.UnstakeResult, 1)
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.FailUnstake[id] {
		delete(g.FailUnstake, id)
		ch <- dispatch.UnstakeResult{Err: errFake}
		return ch
	}
	b := g.balance(id)
	g.Balances[id] = new(uint256.Int).Sub(b, amount)
	ch <- dispatch.UnstakeResult{}
	return ch
}

func (g *FakeGateway) WithdrawAll(_ context.Context, id registry.ID) <-chan dispatch.WithdrawResult {
	ch := make(chan dispatch.WithdrawResult, 1)
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.FailWithdraw[id] {
		delete(g.FailWithdraw, id)
		ch <- dispatch.WithdrawResult{Err: errFake}
		return ch
	}
	ch <- dispatch.WithdrawResult{}
	return ch
}

func (g *FakeGateway) GetAccountStakedBalance(_ context.Context, id registry.ID) <-chan dispatch.BalanceResult {
	ch := make(chan dispatch.BalanceResult, 1)
	g.mu.Lock()
	defer g.mu.Unlock()
	ch <- dispatch.BalanceResult{Balance: new(uint256.Int).Set(g.balance(id))}
	return ch
}

type fakeError string

func (e fakeError) Error() string { return string(e) }

const errFake = fakeError("nearxtest: simulated remote failure")
