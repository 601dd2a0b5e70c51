// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pool

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/nearx-labs/nearx-pool/internal/migrate"
)

func pauseEverything(t *testing.T, p *Pool) {
	t.Helper()
	on := true
	require.NoError(t, p.UpdateOperationsControl("owner.near", OperationsControlPatch{
		StakePaused: &on, UnstakePaused: &on, WithdrawPaused: &on,
		StakingEpochPaused: &on, UnstakingEpochPaused: &on, WithdrawEpochPaused: &on,
		AutocompoundingEpochPaused: &on, SyncValidatorBalancePaused: &on,
	}))
}

func TestMigrateContractStateRequiresFullPause(t *testing.T) {
	require := require.New(t)
	p, _ := newTestPool(t)

	legacy := &migrate.LegacyPoolState{TotalStaked: "1000", TotalStakeShares: "900"}
	require.ErrorIs(p.MigrateContractState("owner.near", legacy), migrate.ErrNotPaused)

	pauseEverything(t, p)
	require.NoError(p.MigrateContractState("owner.near", legacy))
	require.Equal(uint256.NewInt(1000), p.TotalStaked)
	require.Equal(uint256.NewInt(900), p.TotalStakeShares)
}

func TestMigrateUserAndValidatorState(t *testing.T) {
	require := require.New(t)
	p, _ := newTestPool(t)
	pauseEverything(t, p)

	require.NoError(p.MigrateUserState("owner.near", []migrate.LegacyAccount{
		{AccountID: "user1.near", StakeShares: "10", WithdrawableEpochHeight: 3},
	}))
	require.Equal(uint256.NewInt(10), p.FtBalanceOf("user1.near"))

	require.NoError(p.MigrateValidatorState("owner.near", []migrate.LegacyValidator{
		{ValidatorID: "v1.near", Staked: "500", Weight: 10},
	}))
	v := p.GetValidatorInfo("v1.near")
	require.NotNil(v)
	require.Equal(uint256.NewInt(500), v.Staked)
}
