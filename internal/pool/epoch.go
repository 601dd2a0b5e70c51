// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pool

import (
	"context"

	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/nearx-labs/nearx-pool/internal/account"
	"github.com/nearx-labs/nearx-pool/internal/dispatch"
	"github.com/nearx-labs/nearx-pool/internal/registry"
	"github.com/nearx-labs/nearx-pool/internal/rewards"
	"github.com/nearx-labs/nearx-pool/internal/selection"
)

// EpochReconcile nets the epoch's accumulated user intents into
// dispatchable amounts (spec §4.F). It is a no-op if it already ran for
// currentEpoch.
func (p *Pool) EpochReconcile(currentEpoch uint64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.epochReconcileLocked(currentEpoch)
}

func (p *Pool) epochReconcileLocked(currentEpoch uint64) error {
	if p.LastReconciliationEpoch == currentEpoch {
		return nil
	}

	s := p.UserAmountToStakeInEpoch
	u := p.UserAmountToUnstakeInEpoch

	if u.Cmp(s) > 0 {
		deficit := new(uint256.Int).Sub(u, s)
		offset := deficit
		if p.RewardsBuffer.Cmp(deficit) < 0 {
			offset = p.RewardsBuffer
		}
		u = new(uint256.Int).Sub(u, offset)
		p.RewardsBuffer = new(uint256.Int).Sub(p.RewardsBuffer, offset)
	}

	if s.Cmp(u) > 0 {
		p.ReconciledEpochStakeAmount = new(uint256.Int).Sub(s, u)
		p.ReconciledEpochUnstakeAmount = new(uint256.Int)
	} else {
		p.ReconciledEpochUnstakeAmount = new(uint256.Int).Sub(u, s)
		p.ReconciledEpochStakeAmount = new(uint256.Int)
	}

	p.UserAmountToStakeInEpoch = new(uint256.Int)
	p.UserAmountToUnstakeInEpoch = new(uint256.Int)
	p.LastReconciliationEpoch = currentEpoch

	if p.metrics != nil {
		p.metrics.EpochReconciliations.Inc()
	}
	p.logger.Info("epoch_reconcilation",
		zap.Uint64("epoch", currentEpoch),
		zap.Stringer("reconciled_stake", p.ReconciledEpochStakeAmount),
		zap.Stringer("reconciled_unstake", p.ReconciledEpochUnstakeAmount),
	)
	return nil
}

// StakingEpoch drains ReconciledEpochStakeAmount by dispatching one
// stake call per invocation, to be polled repeatedly until it returns
// false (spec §4.G).
func (p *Pool) StakingEpoch(ctx context.Context, currentEpoch uint64) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.OperationsControl.StakingEpochPaused {
		return false, ErrStakingEpochPaused
	}
	if err := p.epochReconcileLocked(currentEpoch); err != nil {
		return false, err
	}
	if p.ReconciledEpochStakeAmount.IsZero() {
		return false, nil
	}

	choice := selection.PickValidatorToStake(p.validators, p.TotalStaked, p.ReconciledEpochStakeAmount)
	if choice == nil {
		return false, ErrNoEligibleValidator
	}

	amount := choice.Amount
	validatorID := choice.Validator.ID
	p.ReconciledEpochStakeAmount = new(uint256.Int).Sub(p.ReconciledEpochStakeAmount, amount)

	p.logger.Info("staking_epoch.dispatch", zap.String("validator_id", string(validatorID)), zap.Stringer("amount", amount))

	p.dispatcher.DispatchStake(ctx, validatorID, amount, p.runLocked,
		func() {
			// Remote failure: restore the optimistic decrement.
			p.ReconciledEpochStakeAmount = new(uint256.Int).Add(p.ReconciledEpochStakeAmount, amount)
			if p.metrics != nil {
				p.metrics.RemoteCallFailures.WithLabelValues("deposit_and_stake").Inc()
			}
			p.syncPendingDispatches()
		},
		func(reportedBalance *uint256.Int) {
			defer p.syncPendingDispatches()
			v := p.validators.Get(validatorID)
			if v == nil {
				return
			}
			v.Staked = new(uint256.Int).Add(v.Staked, amount)
			p.TotalStaked = dispatch.ReconcileStakeOnValidator(v, reportedBalance, p.TotalStaked)
			if p.metrics != nil {
				p.metrics.TotalStaked.Set(f64(p.TotalStaked))
				p.metrics.ExchangeRateMilli.Set(p.exchangeRateMilli())
			}
		},
	)
	p.syncPendingDispatches()
	return true, nil
}

// UnstakingEpoch drains ReconciledEpochUnstakeAmount by dispatching one
// unstake call per invocation (spec §4.G).
func (p *Pool) UnstakingEpoch(ctx context.Context, currentEpoch uint64) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.OperationsControl.UnstakingEpochPaused {
		return false, ErrUnstakingEpochPaused
	}
	if err := p.epochReconcileLocked(currentEpoch); err != nil {
		return false, err
	}
	if p.ReconciledEpochUnstakeAmount.IsZero() {
		return false, nil
	}

	v := selection.PickValidatorToUnstake(p.validators, currentEpoch)
	if v == nil {
		return false, ErrNoEligibleValidator
	}

	amount := new(uint256.Int).Set(v.Staked)
	if amount.Cmp(p.ReconciledEpochUnstakeAmount) > 0 {
		amount = new(uint256.Int).Set(p.ReconciledEpochUnstakeAmount)
	}

	p.ReconciledEpochUnstakeAmount = new(uint256.Int).Sub(p.ReconciledEpochUnstakeAmount, amount)
	dispatch.BeginUnstakeOnValidator(v, currentEpoch)
	validatorID := v.ID

	p.logger.Info("unstaking_epoch.dispatch", zap.String("validator_id", string(validatorID)), zap.Stringer("amount", amount))

	p.dispatcher.DispatchUnstake(ctx, validatorID, amount, p.runLocked,
		func() {
			if vv := p.validators.Get(validatorID); vv != nil {
				dispatch.ConfirmUnstakeOnValidator(vv, amount)
			}
			p.syncPendingDispatches()
		},
		func() {
			p.ReconciledEpochUnstakeAmount = new(uint256.Int).Add(p.ReconciledEpochUnstakeAmount, amount)
			if vv := p.validators.Get(validatorID); vv != nil {
				dispatch.RollbackUnstakeOnValidator(vv)
			}
			if p.metrics != nil {
				p.metrics.RemoteCallFailures.WithLabelValues("unstake").Inc()
			}
			p.syncPendingDispatches()
		},
	)
	p.syncPendingDispatches()
	return true, nil
}

// WithdrawEpoch issues withdraw_all against validatorID once its
// unstaked amount has cleared the unbonding window (spec §4.G). A
// withdraw success re-injects the amount into next epoch's stake intent
// so it re-enters circulation rather than sitting idle on the pool.
func (p *Pool) WithdrawEpoch(ctx context.Context, validatorID registry.ID, currentEpoch uint64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.OperationsControl.WithdrawEpochPaused {
		return ErrWithdrawEpochPaused
	}
	v := p.validators.Get(validatorID)
	if v == nil {
		return registry.ErrNotFound
	}
	if v.UnstakedAmount.IsZero() {
		return ErrNothingStaked
	}
	if currentEpoch-v.UnstakeStartEpoch < registry.UnbondingEpochs {
		return ErrValidatorPendingUnstakeRelease
	}

	return p.dispatchWithdraw(ctx, v)
}

// DrainUnstake is the owner-initiated unstake of a paused validator's
// entire staked balance back to the pool, reusing the same dispatcher
// state machine as unstaking_epoch but targeting exactly one validator
// id and ignoring the epoch counters (SPEC_FULL supplemental feature).
func (p *Pool) DrainUnstake(ctx context.Context, caller account.ID, validatorID registry.ID, currentEpoch uint64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if caller != p.OwnerAccountID {
		return ErrUnauthorized
	}
	v := p.validators.Get(validatorID)
	if v == nil {
		return registry.ErrNotFound
	}
	if !v.Paused() {
		return ErrValidatorNotPaused
	}
	if v.Staked.IsZero() {
		return ErrNothingStaked
	}
	if v.PendingUnstakeRelease(currentEpoch) {
		return ErrValidatorPendingUnstakeRelease
	}

	amount := new(uint256.Int).Set(v.Staked)
	dispatch.BeginUnstakeOnValidator(v, currentEpoch)

	p.dispatcher.DispatchUnstake(ctx, validatorID, amount, p.runLocked,
		func() {
			if vv := p.validators.Get(validatorID); vv != nil {
				dispatch.ConfirmUnstakeOnValidator(vv, amount)
			}
			p.syncPendingDispatches()
		},
		func() {
			if vv := p.validators.Get(validatorID); vv != nil {
				dispatch.RollbackUnstakeOnValidator(vv)
			}
			p.syncPendingDispatches()
		},
	)
	p.syncPendingDispatches()
	return nil
}

// DrainWithdraw is the owner-initiated withdraw-all of a paused,
// fully-unbonded validator's balance (SPEC_FULL supplemental feature).
func (p *Pool) DrainWithdraw(ctx context.Context, caller account.ID, validatorID registry.ID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if caller != p.OwnerAccountID {
		return ErrUnauthorized
	}
	v := p.validators.Get(validatorID)
	if v == nil {
		return registry.ErrNotFound
	}
	if !v.Paused() {
		return ErrValidatorNotPaused
	}
	if v.UnstakedAmount.IsZero() {
		return ErrNothingStaked
	}
	return p.dispatchWithdraw(ctx, v)
}

func (p *Pool) dispatchWithdraw(ctx context.Context, v *registry.Validator) error {
	amount := dispatch.BeginWithdrawOnValidator(v)
	validatorID := v.ID

	p.dispatcher.DispatchWithdraw(ctx, validatorID, p.runLocked,
		func() {
			// Success: the withdrawn native amount lands back on the
			// contract's balance and re-enters circulation via next
			// epoch's stake intent.
			p.ContractNativeBalance = new(uint256.Int).Add(p.ContractNativeBalance, amount)
			p.UserAmountToStakeInEpoch = new(uint256.Int).Add(p.UserAmountToStakeInEpoch, amount)
			p.syncPendingDispatches()
		},
		func() {
			if vv := p.validators.Get(validatorID); vv != nil {
				dispatch.RollbackWithdrawOnValidator(vv, amount)
			}
			p.syncPendingDispatches()
		},
	)
	p.syncPendingDispatches()
	return nil
}

// AutocompoundingEpoch queries validatorID's reported staked balance
// and, on callback, applies the reward harvest (spec §4.H).
func (p *Pool) AutocompoundingEpoch(ctx context.Context, validatorID registry.ID, currentEpoch uint64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.OperationsControl.AutocompoundingEpochPaused {
		return ErrAutocompoundingEpochPaused
	}
	v := p.validators.Get(validatorID)
	if v == nil {
		return registry.ErrNotFound
	}
	if err := rewards.CanHarvest(v, currentEpoch); err != nil {
		return err
	}
	v.LastAskedRewardsEpochHeight = currentEpoch

	p.dispatcher.DispatchBalanceQuery(ctx, validatorID, p.runLocked, func(reportedBalance *uint256.Int) {
		defer p.syncPendingDispatches()
		vv := p.validators.Get(validatorID)
		if vv == nil {
			return
		}
		h, ok := rewards.Apply(vv, reportedBalance, p.TotalStaked, p.TotalStakeShares, p.RewardsFeeNumerator, p.RewardsFeeDenominator)
		if !ok {
			vv.LastRedeemedRewardsEpoch = currentEpoch
			return
		}

		treasury := p.accounts.Get(p.TreasuryAccountID)
		treasury.StakeShares = new(uint256.Int).Add(treasury.StakeShares, h.FeeShares)
		p.accounts.Put(p.TreasuryAccountID, treasury)

		p.TotalStaked = h.NewTotalStaked
		p.TotalStakeShares = new(uint256.Int).Add(p.TotalStakeShares, h.FeeShares)
		vv.Staked = h.NewValidatorStaked
		p.AccumulatedStakedRewards = new(uint256.Int).Add(p.AccumulatedStakedRewards, h.Delta)
		vv.LastRedeemedRewardsEpoch = currentEpoch

		if p.metrics != nil {
			p.metrics.AccumulatedRewards.Add(f64(h.Delta))
			p.metrics.TotalStaked.Set(f64(p.TotalStaked))
			p.metrics.TotalStakeShares.Set(f64(p.TotalStakeShares))
			p.metrics.ExchangeRateMilli.Set(p.exchangeRateMilli())
		}
		p.logger.Info("autocompounding_epoch",
			zap.String("validator_id", string(validatorID)),
			zap.Stringer("delta", h.Delta),
			zap.Stringer("fee_shares", h.FeeShares),
		)
	})
	p.syncPendingDispatches()
	return nil
}

// SyncBalanceFromValidator manually reconciles the pool's local record
// of validatorID's staked balance against the validator's reported
// value, outside the reward-harvest flow (spec §6).
func (p *Pool) SyncBalanceFromValidator(ctx context.Context, validatorID registry.ID) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.OperationsControl.SyncValidatorBalancePaused {
		return ErrSyncValidatorBalancePaused
	}
	if p.validators.Get(validatorID) == nil {
		return registry.ErrNotFound
	}

	p.dispatcher.DispatchBalanceQuery(ctx, validatorID, p.runLocked, func(reportedBalance *uint256.Int) {
		defer p.syncPendingDispatches()
		v := p.validators.Get(validatorID)
		if v == nil {
			return
		}
		p.TotalStaked = dispatch.ReconcileStakeOnValidator(v, reportedBalance, p.TotalStaked)
		if p.metrics != nil {
			p.metrics.TotalStaked.Set(f64(p.TotalStaked))
			p.metrics.ExchangeRateMilli.Set(p.exchangeRateMilli())
		}
	})
	p.syncPendingDispatches()
	return nil
}
