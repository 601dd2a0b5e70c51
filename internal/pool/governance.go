// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pool

import (
	"github.com/holiman/uint256"

	"github.com/nearx-labs/nearx-pool/internal/account"
	"github.com/nearx-labs/nearx-pool/internal/registry"
)

// SetOwner records a pending owner transfer (spec §4.I). The current
// owner must call it; the new owner then confirms with CommitOwner.
func (p *Pool) SetOwner(caller, newOwner account.ID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if caller != p.OwnerAccountID {
		return ErrUnauthorized
	}
	if newOwner == p.OperatorAccountID || newOwner == p.TreasuryAccountID {
		return ErrRoleCollision
	}
	if newOwner == p.ID {
		return ErrSelfCall
	}
	p.TempOwnerAccountID = newOwner
	return nil
}

// CommitOwner promotes TempOwnerAccountID to OwnerAccountID. Must be
// called by the pending new owner itself.
func (p *Pool) CommitOwner(caller account.ID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.TempOwnerAccountID == "" {
		return ErrNoPendingTransfer
	}
	if caller != p.TempOwnerAccountID {
		return ErrUnauthorized
	}
	p.OwnerAccountID = p.TempOwnerAccountID
	p.TempOwnerAccountID = ""
	return nil
}

// SetOperatorID records a pending operator transfer (spec §4.I).
func (p *Pool) SetOperatorID(caller, newOperator account.ID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if caller != p.OwnerAccountID {
		return ErrUnauthorized
	}
	if newOperator == p.OwnerAccountID || newOperator == p.TreasuryAccountID {
		return ErrRoleCollision
	}
	if newOperator == p.ID {
		return ErrSelfCall
	}
	p.TempOperatorID = newOperator
	return nil
}

// CommitOperator promotes TempOperatorID to OperatorAccountID.
func (p *Pool) CommitOperator(caller account.ID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.TempOperatorID == "" {
		return ErrNoPendingTransfer
	}
	if caller != p.TempOperatorID {
		return ErrUnauthorized
	}
	p.OperatorAccountID = p.TempOperatorID
	p.TempOperatorID = ""
	return nil
}

// SetTreasuryID records a pending treasury transfer (spec §4.I).
func (p *Pool) SetTreasuryID(caller, newTreasury account.ID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if caller != p.OwnerAccountID {
		return ErrUnauthorized
	}
	if newTreasury == p.OwnerAccountID || newTreasury == p.OperatorAccountID {
		return ErrRoleCollision
	}
	if newTreasury == p.ID {
		return ErrSelfCall
	}
	p.TempTreasuryID = newTreasury
	return nil
}

// CommitTreasury promotes TempTreasuryID to TreasuryAccountID.
func (p *Pool) CommitTreasury(caller account.ID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.TempTreasuryID == "" {
		return ErrNoPendingTransfer
	}
	if caller != p.TempTreasuryID {
		return ErrUnauthorized
	}
	p.TreasuryAccountID = p.TempTreasuryID
	p.TempTreasuryID = ""
	return nil
}

// SetRewardFee records a pending reward-fee change, capped at 10%
// (spec §4.I, §6).
func (p *Pool) SetRewardFee(caller account.ID, numerator, denominator uint64, currentEpoch uint64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if caller != p.OwnerAccountID {
		return ErrUnauthorized
	}
	if denominator == 0 || numerator*MaxRewardFeeDenominator > MaxRewardFeeNumerator*denominator {
		return ErrFeeAboveCap
	}
	p.TempRewardFeeSet = true
	p.TempRewardFeeNumerator = numerator
	p.TempRewardFeeDenominator = denominator
	p.LastRewardFeeSetEpoch = currentEpoch
	return nil
}

// CommitRewardFee promotes the pending reward fee once
// FeeCommitDelayEpochs have elapsed (spec §4.I). Callable by the
// operator.
func (p *Pool) CommitRewardFee(caller account.ID, currentEpoch uint64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if caller != p.OperatorAccountID {
		return ErrUnauthorized
	}
	if !p.TempRewardFeeSet {
		return ErrNoPendingFeeChange
	}
	if currentEpoch-p.LastRewardFeeSetEpoch < FeeCommitDelayEpochs {
		return ErrFeeCommitTooEarly
	}
	p.RewardsFeeNumerator = p.TempRewardFeeNumerator
	p.RewardsFeeDenominator = p.TempRewardFeeDenominator
	p.TempRewardFeeSet = false
	return nil
}

// SetMinDeposit updates the governance-tunable minimum deposit amount,
// bounded to [1, 100] native units (spec §6).
func (p *Pool) SetMinDeposit(caller account.ID, amount uint64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if caller != p.OwnerAccountID {
		return ErrUnauthorized
	}
	if amount < MinDepositAmountFloor || amount > MinDepositAmountCeiling {
		return ErrMinDepositOutOfBounds
	}
	p.cfg.MinDepositAmount = amount
	return nil
}

// AddMinStorageReserve increases the pool's minimum storage reserve and
// the matching native-token deposit that funds it (payable, spec §6).
func (p *Pool) AddMinStorageReserve(caller account.ID, amount *uint256.Int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if caller != p.OwnerAccountID {
		return ErrUnauthorized
	}
	p.cfg.MinStorageReserve += amount.ToBig().Uint64()
	p.ContractNativeBalance = new(uint256.Int).Add(p.ContractNativeBalance, amount)
	return nil
}

// UpdateOperationsControl toggles the eight pause flags (spec §4.I). A
// nil pointer leaves the corresponding flag unchanged.
func (p *Pool) UpdateOperationsControl(caller account.ID, patch OperationsControlPatch) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if caller != p.OwnerAccountID {
		return ErrUnauthorized
	}
	apply(&p.OperationsControl.StakePaused, patch.StakePaused)
	apply(&p.OperationsControl.UnstakePaused, patch.UnstakePaused)
	apply(&p.OperationsControl.WithdrawPaused, patch.WithdrawPaused)
	apply(&p.OperationsControl.StakingEpochPaused, patch.StakingEpochPaused)
	apply(&p.OperationsControl.UnstakingEpochPaused, patch.UnstakingEpochPaused)
	apply(&p.OperationsControl.WithdrawEpochPaused, patch.WithdrawEpochPaused)
	apply(&p.OperationsControl.AutocompoundingEpochPaused, patch.AutocompoundingEpochPaused)
	apply(&p.OperationsControl.SyncValidatorBalancePaused, patch.SyncValidatorBalancePaused)
	return nil
}

// OperationsControlPatch carries an optional value per pause flag, the
// Go analogue of the source's "accepting an optional value per flag".
type OperationsControlPatch struct {
	StakePaused                *bool
	UnstakePaused              *bool
	WithdrawPaused             *bool
	StakingEpochPaused         *bool
	UnstakingEpochPaused       *bool
	WithdrawEpochPaused        *bool
	AutocompoundingEpochPaused *bool
	SyncValidatorBalancePaused *bool
}

func apply(field *bool, v *bool) {
	if v != nil {
		*field = *v
	}
}

// AddValidator registers a new validator (spec §4.C, owner-only).
func (p *Pool) AddValidator(caller account.ID, id registry.ID, weight uint64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if caller != p.OwnerAccountID {
		return ErrUnauthorized
	}
	return p.validators.Add(id, weight)
}

// RemoveValidator deregisters a drained validator (spec §4.C,
// owner-only).
func (p *Pool) RemoveValidator(caller account.ID, id registry.ID, currentEpoch uint64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if caller != p.OwnerAccountID {
		return ErrUnauthorized
	}
	return p.validators.Remove(id, currentEpoch)
}

// UpdateValidator changes a validator's weight (spec §4.C, owner-only).
func (p *Pool) UpdateValidator(caller account.ID, id registry.ID, newWeight uint64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if caller != p.OwnerAccountID {
		return ErrUnauthorized
	}
	return p.validators.Update(id, newWeight)
}

// PauseValidator sets a validator's weight to zero (spec §4.C,
// owner-only).
func (p *Pool) PauseValidator(caller account.ID, id registry.ID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if caller != p.OwnerAccountID {
		return ErrUnauthorized
	}
	return p.validators.Pause(id)
}
