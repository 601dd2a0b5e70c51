// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package selection implements the pool's validator selection policy
// (spec §4.D): which validator receives a stake dispatch, which
// validator an unstake is drawn from, and the unstake-release-epoch
// estimate used to set a user's withdrawable epoch.
package selection

import (
	"github.com/holiman/uint256"

	"github.com/nearx-labs/nearx-pool/internal/registry"
)

// StakeChoice is the outcome of picking a validator to stake into.
type StakeChoice struct {
	Validator *registry.Validator
	Amount    *uint256.Int
}

// PickValidatorToStake selects the non-paused validator with the
// largest deficit against its weight-proportional target and returns
// how much of amount to dispatch to it (spec §4.D). It returns nil if
// no validator is eligible (all paused, or the registry is empty).
func PickValidatorToStake(r *registry.Registry, totalStaked *uint256.Int, amount *uint256.Int) *StakeChoice {
	var best *registry.Validator
	var bestDeficit *uint256.Int

	r.Range(func(v *registry.Validator) {
		if v.Paused() {
			return
		}
		deficit := deficitOf(r, v, totalStaked)
		if best == nil || deficit.Cmp(bestDeficit) > 0 {
			best, bestDeficit = v, deficit
		}
	})
	if best == nil {
		return nil
	}

	dispatch := new(uint256.Int).Set(amount)
	if bestDeficit.Sign() > 0 && dispatch.Cmp(bestDeficit) > 0 {
		dispatch = bestDeficit
	}
	return &StakeChoice{Validator: best, Amount: dispatch}
}

// deficitOf returns max(0, target - validator.Staked), where target is
// the validator's weight-proportional share of totalStaked.
func deficitOf(r *registry.Registry, v *registry.Validator, totalStaked *uint256.Int) *uint256.Int {
	if r.TotalValidatorWeight == 0 {
		return new(uint256.Int)
	}
	target := new(uint256.Int).Mul(totalStaked, uint256.NewInt(v.Weight))
	target.Div(target, uint256.NewInt(r.TotalValidatorWeight))

	if target.Cmp(v.Staked) <= 0 {
		return new(uint256.Int)
	}
	return target.Sub(target, v.Staked)
}

// PickValidatorToUnstake selects the largest-staked validator that is
// neither paused nor inside its unbonding window (spec §4.D). It
// returns nil if no validator is eligible.
func PickValidatorToUnstake(r *registry.Registry, currentEpoch uint64) *registry.Validator {
	var candidates []*registry.Validator
	r.Range(func(v *registry.Validator) {
		if v.Paused() || v.PendingUnstakeRelease(currentEpoch) || v.Staked.IsZero() {
			return
		}
		candidates = append(candidates, v)
	})
	if len(candidates) == 0 {
		return nil
	}
	return r.SortedByStakedDesc(candidates)[0]
}

// UnstakeReleaseEpochs estimates, in epochs from now, when a requested
// unstake of amount will become withdrawable (spec §4.D). The source
// contract sums validators in declaration order; this package instead
// walks the registry's deterministic ID order (spec §9 open question)
// so the estimate never depends on map iteration order.
func UnstakeReleaseEpochs(r *registry.Registry, currentEpoch uint64, amount *uint256.Int) uint64 {
	available := new(uint256.Int)
	totalStaked := new(uint256.Int)

	found := false
	r.Range(func(v *registry.Validator) {
		if found {
			return
		}
		totalStaked.Add(totalStaked, v.Staked)

		if !v.Paused() && !v.PendingUnstakeRelease(currentEpoch) && v.Staked.Sign() > 0 {
			available.Add(available, v.Staked)
		}
		if available.Cmp(amount) >= 0 {
			found = true
		}
	})

	if found {
		return registry.UnbondingEpochs
	}
	if totalStaked.IsZero() {
		return registry.UnbondingEpochs
	}
	return 2 * registry.UnbondingEpochs
}
