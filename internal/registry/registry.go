// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package registry implements the pool's validator registry: per-validator
// staked/unstaked amounts, unbonding-window bookkeeping and weights, plus
// the deterministic total order over validator IDs that selection (§4.D)
// and the unstake-release-epoch estimate require.
package registry

import (
	"errors"
	"sort"

	"github.com/google/btree"
	"github.com/holiman/uint256"
	"golang.org/x/exp/slices"
)

// ID identifies a validator. The host chain's account-id format is
// opaque to this package.
type ID string

// UnbondingEpochs is the length, in epochs, of the underlying chain's
// unbonding window (spec §3, §6: UNBONDING_EPOCHS = 4).
const UnbondingEpochs = 4

var (
	ErrZeroWeight         = errors.New("registry: weight must be > 0")
	ErrDuplicateValidator = errors.New("registry: validator already registered")
	ErrNotFound           = errors.New("registry: validator not found")
	ErrNotDrainable       = errors.New("registry: validator still has staked or unstaked balance, or is in the unbonding window")
)

// Validator is the pool's bookkeeping record for one external staking
// validator.
type Validator struct {
	ID ID

	Staked         *uint256.Int
	UnstakedAmount *uint256.Int

	UnstakeStartEpoch     uint64
	LastUnstakeStartEpoch uint64

	LastRedeemedRewardsEpoch    uint64
	LastAskedRewardsEpochHeight uint64

	Weight uint64
}

// Paused reports whether the validator accepts no new stake dispatch and
// is excluded from selection (spec §3 invariant 6: weight == 0).
func (v *Validator) Paused() bool {
	return v.Weight == 0
}

// PendingUnstakeRelease reports whether the validator is still inside
// its unbonding window and therefore ineligible for a new unstake
// dispatch (spec §3 invariant 5).
func (v *Validator) PendingUnstakeRelease(currentEpoch uint64) bool {
	return currentEpoch-v.UnstakeStartEpoch < UnbondingEpochs
}

func newValidator(id ID, weight uint64) *Validator {
	return &Validator{
		ID:             id,
		Staked:         new(uint256.Int),
		UnstakedAmount: new(uint256.Int),
		Weight:         weight,
	}
}

// idItem adapts ID into a btree.Item so the registry can maintain a
// deterministically ordered index of validator IDs without relying on
// Go map iteration order, which is not a valid total order for the
// tie-break rule spec §4.D requires.
type idItem ID

func (a idItem) Less(than btree.Item) bool {
	return a < than.(idItem)
}

// Registry is the pool's validator store, keyed by validator ID.
type Registry struct {
	validators           map[ID]*Validator
	order                *btree.BTree
	TotalValidatorWeight uint64
}

func New() *Registry {
	return &Registry{
		validators: make(map[ID]*Validator),
		order:      btree.New(32),
	}
}

// Add registers a new validator with the given weight. weight must be
// > 0; duplicate IDs are rejected.
func (r *Registry) Add(id ID, weight uint64) error {
	if weight == 0 {
		return ErrZeroWeight
	}
	if _, ok := r.validators[id]; ok {
		return ErrDuplicateValidator
	}
	r.validators[id] = newValidator(id, weight)
	r.order.ReplaceOrInsert(idItem(id))
	r.TotalValidatorWeight += weight
	return nil
}

// Remove deregisters a validator. It requires the validator to be
// paused, fully unstaked and withdrawn, and outside the unbonding
// window (spec §4.C).
func (r *Registry) Remove(id ID, currentEpoch uint64) error {
	v, ok := r.validators[id]
	if !ok {
		return ErrNotFound
	}
	if !v.Paused() || !v.Staked.IsZero() || !v.UnstakedAmount.IsZero() || v.PendingUnstakeRelease(currentEpoch) {
		return ErrNotDrainable
	}
	delete(r.validators, id)
	r.order.Delete(idItem(id))
	return nil
}

// Update changes a validator's weight, which must remain > 0. Use Pause
// to drive the weight to zero.
func (r *Registry) Update(id ID, newWeight uint64) error {
	if newWeight == 0 {
		return ErrZeroWeight
	}
	v, ok := r.validators[id]
	if !ok {
		return ErrNotFound
	}
	r.TotalValidatorWeight = r.TotalValidatorWeight - v.Weight + newWeight
	v.Weight = newWeight
	return nil
}

// Pause sets the validator's weight to zero, excluding it from stake
// dispatch and selection while leaving its staked/unstaked balances
// addressable for drain operations.
func (r *Registry) Pause(id ID) error {
	v, ok := r.validators[id]
	if !ok {
		return ErrNotFound
	}
	r.TotalValidatorWeight -= v.Weight
	v.Weight = 0
	return nil
}

// Get returns the validator for id, or nil if it is not registered.
func (r *Registry) Get(id ID) *Validator {
	return r.validators[id]
}

// Len returns the number of registered validators.
func (r *Registry) Len() int {
	return len(r.validators)
}

// OrderedIDs returns every registered validator ID in the registry's
// deterministic total order. The same input sequence of Add calls
// always yields the same order, independent of Go map iteration.
func (r *Registry) OrderedIDs() []ID {
	ids := make([]ID, 0, r.order.Len())
	r.order.Ascend(func(item btree.Item) bool {
		ids = append(ids, ID(item.(idItem)))
		return true
	})
	return ids
}

// Range calls fn for every validator in the registry's deterministic
// order.
func (r *Registry) Range(fn func(v *Validator)) {
	for _, id := range r.OrderedIDs() {
		fn(r.validators[id])
	}
}

// sortedByStakedDesc returns validators sorted by Staked amount
// descending, ties broken by the deterministic ID order. Used by
// unstake selection (spec §4.D).
func (r *Registry) sortedByStakedDesc(validators []*Validator) []*Validator {
	out := slices.Clone(validators)
	sort.SliceStable(out, func(i, j int) bool {
		c := out[i].Staked.Cmp(out[j].Staked)
		if c != 0 {
			return c > 0
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// SortedByStakedDesc exposes sortedByStakedDesc to other pool
// subpackages (selection).
func (r *Registry) SortedByStakedDesc(validators []*Validator) []*Validator {
	return r.sortedByStakedDesc(validators)
}
