// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package rewards implements autocompounding_epoch (spec §4.H): querying
// a validator's reported staked balance, bumping the pool's exchange
// rate by the observed delta, and minting the treasury's fee share.
package rewards

import (
	"errors"

	"github.com/holiman/uint256"

	"github.com/nearx-labs/nearx-pool/internal/registry"
	"github.com/nearx-labs/nearx-pool/internal/sharemath"
)

var (
	ErrNotYetElapsed = errors.New("rewards: validator already redeemed rewards this epoch")
	ErrNothingStaked = errors.New("rewards: validator has no staked balance")
)

// CanHarvest checks the preconditions of autocompounding_epoch for v at
// currentEpoch (spec §4.H).
func CanHarvest(v *registry.Validator, currentEpoch uint64) error {
	if v.LastRedeemedRewardsEpoch >= currentEpoch {
		return ErrNotYetElapsed
	}
	if v.Staked.IsZero() {
		return ErrNothingStaked
	}
	return nil
}

// Harvest is the outcome Apply computes from one validator balance
// report: the reward delta, the fee in native units and in shares, and
// the new validator and pool staked totals. It is the data the callback
// half of autocompounding_epoch (spec §4.H step 2) applies to the pool;
// Harvest itself changes nothing.
type Harvest struct {
	Delta              *uint256.Int
	FeeNative          *uint256.Int
	FeeShares          *uint256.Int
	NewValidatorStaked *uint256.Int
	NewTotalStaked     *uint256.Int
}

// Apply computes the harvest outcome for validator v reporting
// reportedBalance, under the pool's current totalStaked and
// totalStakeShares, at fee rewardsFeeNumerator / rewardsFeeDenominator.
// It does not mutate v or any pool field; the caller applies the
// returned deltas under its own lock.
//
// Order matters (spec §4.H): total_staked is bumped by the full reward
// delta *before* the fee shares are minted, so fee_shares is computed
// against the post-harvest exchange rate. The treasury is diluted
// exactly like every other share holder, then receives fee_native's
// worth of shares at that new rate.
func Apply(
	v *registry.Validator,
	reportedBalance *uint256.Int,
	totalStaked, totalStakeShares *uint256.Int,
	rewardsFeeNumerator, rewardsFeeDenominator uint64,
) (*Harvest, bool) {
	if reportedBalance.Cmp(v.Staked) <= 0 {
		return nil, false
	}

	delta := new(uint256.Int).Sub(reportedBalance, v.Staked)
	newTotalStaked := new(uint256.Int).Add(totalStaked, delta)

	feeNative := new(uint256.Int).Mul(delta, uint256.NewInt(rewardsFeeNumerator))
	feeNative.Div(feeNative, uint256.NewInt(rewardsFeeDenominator))

	postHarvestRate := sharemath.Rate{TotalStaked: newTotalStaked, TotalStakeShares: totalStakeShares}
	feeShares := postHarvestRate.SharesFromAmountDown(feeNative)

	return &Harvest{
		Delta:              delta,
		FeeNative:          feeNative,
		FeeShares:          feeShares,
		NewValidatorStaked: new(uint256.Int).Set(reportedBalance),
		NewTotalStaked:     newTotalStaked,
	}, true
}
