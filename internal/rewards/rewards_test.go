// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rewards

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/nearx-labs/nearx-pool/internal/registry"
)

func TestCanHarvestPreconditions(t *testing.T) {
	require := require.New(t)

	v := &registry.Validator{Staked: uint256.NewInt(100), LastRedeemedRewardsEpoch: 5}
	require.ErrorIs(CanHarvest(v, 5), ErrNotYetElapsed)
	require.NoError(CanHarvest(v, 6))

	v2 := &registry.Validator{Staked: new(uint256.Int), LastRedeemedRewardsEpoch: 0}
	require.ErrorIs(CanHarvest(v2, 1), ErrNothingStaked)
}

func TestApplyNoOpWhenBalanceDidNotGrow(t *testing.T) {
	require := require.New(t)

	v := &registry.Validator{Staked: uint256.NewInt(100)}

	_, ok := Apply(v, uint256.NewInt(100), uint256.NewInt(100), uint256.NewInt(100), 10, 100)
	require.False(ok)

	_, ok = Apply(v, uint256.NewInt(90), uint256.NewInt(100), uint256.NewInt(100), 10, 100)
	require.False(ok)
}

func TestApplyScenarioFromSpecWalkthrough(t *testing.T) {
	require := require.New(t)

	// Scenario 1->2 from spec §8: three users deposited 10N each.
	// total_staked = 30N, total_stake_shares = 30N, exchange rate = 1.
	// A reward of 30N lands on the single validator.
	v := &registry.Validator{Staked: uint256.NewInt(30)}

	h, ok := Apply(v, uint256.NewInt(60), uint256.NewInt(30), uint256.NewInt(30), 10, 100)
	require.True(ok)
	require.Equal(uint256.NewInt(30), h.Delta)
	require.Equal(uint256.NewInt(3), h.FeeNative) // 10% of 30
	// post-harvest rate is 60 staked : 30 shares = 2:1, so 3N of fee
	// converts to floor(30*3/60) = 1 share; the spec's "≈1.5N" is the
	// un-rounded continuous approximation.
	require.Equal(uint256.NewInt(1), h.FeeShares)
	require.Equal(uint256.NewInt(60), h.NewValidatorStaked)
	require.Equal(uint256.NewInt(60), h.NewTotalStaked)
}
