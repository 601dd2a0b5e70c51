// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package dispatch implements the asynchronous validator coordination
// protocol (spec §4.G, §6): every external validator interaction is a
// two-phase dispatch/callback operation. The pool applies an optimistic
// state delta before the call returns; the paired callback, delivered
// later over a channel, either confirms or rolls back that delta.
//
// Go has no native promise type, so the suspension points of spec §5 are
// modeled with goroutines and result channels, the same idiom
// avalanchego's networking and consensus engine packages use for
// asynchronous request/response traffic.
package dispatch

import (
	"context"

	"github.com/holiman/uint256"

	"github.com/nearx-labs/nearx-pool/internal/registry"
)

// DepositResult is the outcome of a deposit_and_stake call against a
// validator. A nil Err is success; any non-nil Err is treated as a
// remote failure regardless of its concrete type (spec §7: remote
// failures are always recovered locally, never surfaced to the user).
type DepositResult struct {
	Err error
}

// UnstakeResult is the outcome of an unstake call against a validator.
type UnstakeResult struct {
	Err error
}

// WithdrawResult is the outcome of a withdraw_all call against a
// validator.
type WithdrawResult struct {
	Err error
}

// BalanceResult is the outcome of a get_account_staked_balance query.
type BalanceResult struct {
	Balance *uint256.Int
	Err     error
}

// Gateway is the observable interface of an external staking validator
// (spec §6). Every method is asynchronous: it returns immediately with a
// channel that receives exactly one result.
type Gateway interface {
	DepositAndStake(ctx context.Context, validator registry.ID, amount *uint256.Int) <-chan DepositResult
	Unstake(ctx context.Context, validator registry.ID, amount *uint256.Int) <-chan UnstakeResult
	WithdrawAll(ctx context.Context, validator registry.ID) <-chan WithdrawResult
	GetAccountStakedBalance(ctx context.Context, validator registry.ID) <-chan BalanceResult
}
