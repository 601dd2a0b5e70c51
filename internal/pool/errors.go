// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pool

import "errors"

// Error taxonomy (spec §7). Every operation either commits fully or
// returns one of these; there is no partial-effect error.
var (
	// Authentication.
	ErrUnauthorized  = errors.New("pool: caller is not authorized for this operation")
	ErrSelfCall      = errors.New("pool: operation may not target the contract's own account")
	ErrRoleCollision = errors.New("pool: owner, operator and treasury must be pairwise distinct")

	// State gating.
	ErrStakePaused                    = errors.New("pool: deposit_and_stake is paused")
	ErrUnstakePaused                  = errors.New("pool: unstake is paused")
	ErrWithdrawPaused                 = errors.New("pool: withdraw is paused")
	ErrStakingEpochPaused             = errors.New("pool: staking_epoch is paused")
	ErrUnstakingEpochPaused           = errors.New("pool: unstaking_epoch is paused")
	ErrWithdrawEpochPaused            = errors.New("pool: withdraw_epoch is paused")
	ErrAutocompoundingEpochPaused     = errors.New("pool: autocompounding_epoch is paused")
	ErrSyncValidatorBalancePaused     = errors.New("pool: sync_balance_from_validator is paused")
	ErrValidatorNotPaused             = errors.New("pool: validator must be paused for this operation")
	ErrValidatorPendingUnstakeRelease = errors.New("pool: validator is still inside its unbonding window")

	// Input validity.
	ErrAmountZero            = errors.New("pool: amount must be > 0")
	ErrBelowMinDeposit       = errors.New("pool: amount is below the minimum deposit")
	ErrZeroShares            = errors.New("pool: amount converts to zero shares")
	ErrFeeAboveCap           = errors.New("pool: reward fee exceeds the maximum allowed fraction")
	ErrMinDepositOutOfBounds = errors.New("pool: min_deposit_amount is outside its governance bounds")

	// Accounting feasibility.
	ErrNothingStaked            = errors.New("pool: nothing is staked")
	ErrWithdrawNotYetReleasable = errors.New("pool: unstaked amount is not yet withdrawable")
	ErrInsufficientReserve      = errors.New("pool: withdraw would breach the minimum storage reserve")
	ErrNoEligibleValidator      = errors.New("pool: no eligible validator for this dispatch")

	// Governance two-phase transitions.
	ErrNoPendingTransfer  = errors.New("pool: no pending role transfer to commit")
	ErrNoPendingFeeChange = errors.New("pool: no pending reward-fee change to commit")
	ErrFeeCommitTooEarly  = errors.New("pool: reward-fee commit delay has not elapsed")
)
