// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pool

import (
	"math/big"

	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/nearx-labs/nearx-pool/internal/account"
	"github.com/nearx-labs/nearx-pool/internal/selection"
)

// DepositAndStake credits caller with shares for amount and records the
// intent for the next epoch reconciliation (spec §4.E). The validator
// dispatch itself does not happen here; it is drained later by
// StakingEpoch.
func (p *Pool) DepositAndStake(caller account.ID, amount *uint256.Int, currentEpoch uint64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.OperationsControl.StakePaused {
		return ErrStakePaused
	}
	if amount.Cmp(uint256.NewInt(p.cfg.MinDepositAmount)) < 0 {
		return ErrBelowMinDeposit
	}

	shares := p.rate().SharesFromAmountDown(amount)
	if shares.IsZero() {
		return ErrZeroShares
	}

	acc := p.accounts.Get(caller)
	acc.StakeShares = new(uint256.Int).Add(acc.StakeShares, shares)
	p.accounts.Put(caller, acc)

	p.TotalStaked = new(uint256.Int).Add(p.TotalStaked, amount)
	p.TotalStakeShares = new(uint256.Int).Add(p.TotalStakeShares, shares)
	p.UserAmountToStakeInEpoch = new(uint256.Int).Add(p.UserAmountToStakeInEpoch, amount)

	p.logger.Info("deposit_and_stake",
		zap.String("account_id", string(caller)),
		zap.Stringer("amount", amount),
		zap.Stringer("shares", shares),
		zap.Uint64("epoch", currentEpoch),
	)
	if p.metrics != nil {
		p.metrics.TotalStaked.Set(f64(p.TotalStaked))
		p.metrics.TotalStakeShares.Set(f64(p.TotalStakeShares))
		p.metrics.ExchangeRateMilli.Set(p.exchangeRateMilli())
	}
	return nil
}

// Unstake debits caller's shares, credits a pending unstaked_amount, and
// sets its withdrawable epoch from the selection policy's release
// estimate (spec §4.E).
func (p *Pool) Unstake(caller account.ID, amount *uint256.Int, currentEpoch uint64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.OperationsControl.UnstakePaused {
		return ErrUnstakePaused
	}
	if amount.IsZero() {
		return ErrAmountZero
	}
	if p.TotalStaked.IsZero() {
		return ErrNothingStaked
	}

	acc := p.accounts.Get(caller)
	shares := p.rate().SharesFromAmountUp(amount)
	if shares.Cmp(acc.StakeShares) > 0 {
		return account.ErrInsufficientShares
	}

	receiveAmount := p.rate().AmountFromSharesUp(shares)

	delay := selection.UnstakeReleaseEpochs(p.validators, currentEpoch, receiveAmount)
	if p.LastReconciliationEpoch == currentEpoch {
		delay++
	}

	acc.StakeShares = new(uint256.Int).Sub(acc.StakeShares, shares)
	acc.UnstakedAmount = new(uint256.Int).Add(acc.UnstakedAmount, receiveAmount)
	acc.WithdrawableEpochHeight = currentEpoch + delay
	p.accounts.Put(caller, acc)

	p.TotalStaked = new(uint256.Int).Sub(p.TotalStaked, receiveAmount)
	p.TotalStakeShares = new(uint256.Int).Sub(p.TotalStakeShares, shares)
	p.UserAmountToUnstakeInEpoch = new(uint256.Int).Add(p.UserAmountToUnstakeInEpoch, receiveAmount)

	p.logger.Info("unstake",
		zap.String("account_id", string(caller)),
		zap.Stringer("amount", amount),
		zap.Stringer("receive_amount", receiveAmount),
		zap.Uint64("withdrawable_epoch_height", acc.WithdrawableEpochHeight),
	)
	if p.metrics != nil {
		p.metrics.TotalStaked.Set(f64(p.TotalStaked))
		p.metrics.TotalStakeShares.Set(f64(p.TotalStakeShares))
		p.metrics.ExchangeRateMilli.Set(p.exchangeRateMilli())
	}
	return nil
}

// Withdraw transfers a previously-unstaked, now-releasable amount back
// to caller (spec §4.E). Native-token transfer itself is the host
// runtime's concern; this method only performs the accounting checks
// and the ContractNativeBalance debit.
func (p *Pool) Withdraw(caller account.ID, amount *uint256.Int, currentEpoch uint64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.OperationsControl.WithdrawPaused {
		return ErrWithdrawPaused
	}

	acc := p.accounts.Get(caller)
	if acc.UnstakedAmount.Cmp(amount) < 0 {
		return account.ErrInsufficientShares
	}
	if acc.WithdrawableEpochHeight > currentEpoch {
		return ErrWithdrawNotYetReleasable
	}
	available := new(uint256.Int).Sub(p.ContractNativeBalance, uint256.NewInt(p.cfg.MinStorageReserve))
	if available.Sign() < 0 || available.Cmp(amount) < 0 {
		return ErrInsufficientReserve
	}

	acc.UnstakedAmount = new(uint256.Int).Sub(acc.UnstakedAmount, amount)
	if acc.UnstakedAmount.IsZero() {
		acc.WithdrawableEpochHeight = 0
	}
	p.accounts.Put(caller, acc)
	p.ContractNativeBalance = new(uint256.Int).Sub(p.ContractNativeBalance, amount)

	p.logger.Info("withdraw",
		zap.String("account_id", string(caller)),
		zap.Stringer("amount", amount),
	)
	return nil
}

// Transfer moves stake shares between two accounts (ft_transfer, spec
// §6). Neither account has to be registered beforehand; a receiver with
// no entry yet is created. The fungible-token metadata surface itself is
// out of scope (§1); only the balance arithmetic, which the account
// package already owns, is exposed here.
func (p *Pool) Transfer(sender, receiver account.ID, amount *uint256.Int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.accounts.Transfer(sender, receiver, amount)
}

// StorageUnregister deregisters caller's account if it is fully empty
// (spec §4.B, §9 open question: the stricter behavior is kept, with no
// force-flag override).
func (p *Pool) StorageUnregister(caller account.ID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.accounts.Deregister(caller)
}

// UpdateRewardsBuffer lets the operator donate native-token liquidity
// that offsets unstake dispatch amounts during reconciliation (spec
// §4.F, §6).
func (p *Pool) UpdateRewardsBuffer(caller account.ID, amount *uint256.Int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if caller != p.OperatorAccountID {
		return ErrUnauthorized
	}
	p.RewardsBuffer = new(uint256.Int).Add(p.RewardsBuffer, amount)
	p.ContractNativeBalance = new(uint256.Int).Add(p.ContractNativeBalance, amount)
	return nil
}

// f64 renders a uint256 amount as a float64 for metrics gauges, which
// the prometheus client library represents natively as float64.
func f64(v *uint256.Int) float64 {
	f, _ := new(big.Float).SetInt(v.ToBig()).Float64()
	return f
}
