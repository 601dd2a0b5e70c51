// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package selection

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/nearx-labs/nearx-pool/internal/registry"
)

func setupRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	r := registry.New()
	require.NoError(t, r.Add("v1.near", 1))
	require.NoError(t, r.Add("v2.near", 1))
	require.NoError(t, r.Add("v3.near", 1))
	return r
}

func TestPickValidatorToStakePicksLargestDeficit(t *testing.T) {
	require := require.New(t)

	r := setupRegistry(t)
	// total staked 90 split evenly 3 ways -> target 30 each.
	r.Get("v1.near").Staked = uint256.NewInt(30)
	r.Get("v2.near").Staked = uint256.NewInt(10) // deficit 20, largest
	r.Get("v3.near").Staked = uint256.NewInt(50)

	choice := PickValidatorToStake(r, uint256.NewInt(90), uint256.NewInt(100))
	require.NotNil(choice)
	require.Equal(registry.ID("v2.near"), choice.Validator.ID)
	require.Equal(uint256.NewInt(20), choice.Amount) // capped at deficit
}

func TestPickValidatorToStakeSkipsPaused(t *testing.T) {
	require := require.New(t)

	r := setupRegistry(t)
	require.NoError(r.Pause("v1.near"))
	require.NoError(r.Pause("v2.near"))

	choice := PickValidatorToStake(r, uint256.NewInt(0), uint256.NewInt(10))
	require.NotNil(choice)
	require.Equal(registry.ID("v3.near"), choice.Validator.ID)
}

func TestPickValidatorToStakeNoneEligible(t *testing.T) {
	require := require.New(t)

	r := registry.New()
	require.Nil(PickValidatorToStake(r, uint256.NewInt(0), uint256.NewInt(10)))
}

func TestPickValidatorToUnstakePicksLargestEligible(t *testing.T) {
	require := require.New(t)

	r := setupRegistry(t)
	r.Get("v1.near").Staked = uint256.NewInt(10)
	r.Get("v2.near").Staked = uint256.NewInt(40)
	r.Get("v3.near").Staked = uint256.NewInt(40)
	r.Get("v2.near").UnstakeStartEpoch = 99 // still unbonding at epoch 100

	v := PickValidatorToUnstake(r, 100)
	require.NotNil(v)
	require.Equal(registry.ID("v3.near"), v.ID) // v2 ties at 40 but is unbonding; v3 outranks v1
}

func TestUnstakeReleaseEpochsSingleWindowWhenCoverable(t *testing.T) {
	require := require.New(t)

	r := setupRegistry(t)
	r.Get("v1.near").Staked = uint256.NewInt(100)

	// v1 never unstaked (UnstakeStartEpoch 0), so it is out of its
	// unbonding window from epoch UnbondingEpochs on.
	got := UnstakeReleaseEpochs(r, registry.UnbondingEpochs, uint256.NewInt(50))
	require.EqualValues(registry.UnbondingEpochs, got)
}

func TestUnstakeReleaseEpochsDoubleWindowWhenNotCoverable(t *testing.T) {
	require := require.New(t)

	r := setupRegistry(t)
	r.Get("v1.near").Staked = uint256.NewInt(10)
	r.Get("v1.near").UnstakeStartEpoch = 0 // inside unbonding window at epoch 1

	got := UnstakeReleaseEpochs(r, 1, uint256.NewInt(50))
	require.EqualValues(2*registry.UnbondingEpochs, got)
}

func TestUnstakeReleaseEpochsSingleWindowWhenNothingStaked(t *testing.T) {
	require := require.New(t)

	r := setupRegistry(t)
	got := UnstakeReleaseEpochs(r, 0, uint256.NewInt(50))
	require.EqualValues(registry.UnbondingEpochs, got)
}
