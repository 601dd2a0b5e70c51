// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package nearxtest_test

import (
	"context"
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/nearx-labs/nearx-pool/internal/pool"
	"github.com/nearx-labs/nearx-pool/nearxtest"
)

func TestDrainEpochPumpsStakeAndUnstakeToCompletion(t *testing.T) {
	require := require.New(t)
	gw := nearxtest.NewFakeGateway()
	p, err := pool.New(pool.DefaultConfig(), "nearx-pool.near", "owner.near", "operator.near", "treasury.near", gw, nil, nil)
	require.NoError(err)

	require.NoError(p.AddValidator("owner.near", "v1.near", 1))
	require.NoError(p.DepositAndStake("user1.near", uint256.NewInt(100), 1))

	const epoch = 1
	err = nearxtest.DrainEpoch(context.Background(),
		func(ctx context.Context) (bool, error) { return p.StakingEpoch(ctx, epoch) },
		func(ctx context.Context) (bool, error) { return p.UnstakingEpoch(ctx, epoch) },
	)
	require.NoError(err)

	require.Eventually(func() bool {
		return p.GetValidatorInfo("v1.near").Staked.Cmp(uint256.NewInt(100)) == 0
	}, time.Second, time.Millisecond)
}
