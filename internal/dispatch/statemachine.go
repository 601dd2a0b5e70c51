// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package dispatch

import (
	"github.com/holiman/uint256"

	"github.com/nearx-labs/nearx-pool/internal/registry"
)

// BeginUnstakeOnValidator records the optimistic start of an unstake
// dispatch against v, saving the prior unstake_start_epoch so a remote
// failure can roll it back (spec §4.G).
func BeginUnstakeOnValidator(v *registry.Validator, currentEpoch uint64) {
	v.LastUnstakeStartEpoch = v.UnstakeStartEpoch
	v.UnstakeStartEpoch = currentEpoch
}

// RollbackUnstakeOnValidator undoes BeginUnstakeOnValidator after a
// remote unstake failure.
func RollbackUnstakeOnValidator(v *registry.Validator) {
	v.UnstakeStartEpoch = v.LastUnstakeStartEpoch
}

// ConfirmUnstakeOnValidator moves amount from v.Staked into
// v.UnstakedAmount after a successful remote unstake call.
func ConfirmUnstakeOnValidator(v *registry.Validator, amount *uint256.Int) {
	v.Staked = new(uint256.Int).Sub(v.Staked, amount)
	v.UnstakedAmount = new(uint256.Int).Add(v.UnstakedAmount, amount)
}

// BeginWithdrawOnValidator optimistically zeroes v.UnstakedAmount before
// a withdraw_all dispatch, returning the amount that was cleared so a
// remote failure can restore it.
func BeginWithdrawOnValidator(v *registry.Validator) *uint256.Int {
	amount := v.UnstakedAmount
	v.UnstakedAmount = new(uint256.Int)
	return amount
}

// RollbackWithdrawOnValidator restores amount to v.UnstakedAmount after
// a remote withdraw failure.
func RollbackWithdrawOnValidator(v *registry.Validator, amount *uint256.Int) {
	v.UnstakedAmount = new(uint256.Int).Add(v.UnstakedAmount, amount)
}

// ReconcileStakeOnValidator sets v.Staked to reported and returns the
// pool's new total_staked after applying the same signed delta (spec
// §4.G: "adjusts total_staked by the same delta"). The delta may be
// negative (the validator rounded the deposit down) or positive (reward
// accrued between the dispatch and the reconcile callback).
func ReconcileStakeOnValidator(v *registry.Validator, reported, totalStaked *uint256.Int) *uint256.Int {
	old := v.Staked
	v.Staked = new(uint256.Int).Set(reported)

	if reported.Cmp(old) >= 0 {
		delta := new(uint256.Int).Sub(reported, old)
		return new(uint256.Int).Add(totalStaked, delta)
	}
	delta := new(uint256.Int).Sub(old, reported)
	return new(uint256.Int).Sub(totalStaked, delta)
}
