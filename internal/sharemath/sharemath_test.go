// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package sharemath

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func u256(v uint64) *uint256.Int {
	return uint256.NewInt(v)
}

func TestBootstrapRateIsOneToOne(t *testing.T) {
	require := require.New(t)

	r := Rate{TotalStaked: u256(0), TotalStakeShares: u256(0)}
	require.Equal(u256(100), r.SharesFromAmountDown(u256(100)))
	require.Equal(u256(100), r.SharesFromAmountUp(u256(100)))
	require.Equal(u256(100), r.AmountFromSharesDown(u256(100)))
	require.Equal(u256(100), r.AmountFromSharesUp(u256(100)))
}

func TestRoundingDirection(t *testing.T) {
	require := require.New(t)

	// exchange rate 2:1 with a remainder: 7 native units backed by 3 shares
	r := Rate{TotalStaked: u256(7), TotalStakeShares: u256(3)}

	// 3 * 1 / 7 = 0 (down), ceil = 1
	require.Equal(u256(0), r.SharesFromAmountDown(u256(1)))
	require.Equal(u256(1), r.SharesFromAmountUp(u256(1)))

	// 7 * 1 / 3 = 2 (down), ceil = 3
	require.Equal(u256(2), r.AmountFromSharesDown(u256(1)))
	require.Equal(u256(3), r.AmountFromSharesUp(u256(1)))
}

func TestUnstakeReceiveAmountNeverUndershoots(t *testing.T) {
	require := require.New(t)

	r := Rate{TotalStaked: u256(101), TotalStakeShares: u256(10)}
	requested := u256(13)

	shares := r.SharesFromAmountUp(requested)
	receive := r.AmountFromSharesUp(shares)
	require.True(receive.Cmp(requested) >= 0, "receive amount must be >= requested amount")
}

func TestExactDivisionHasNoRoundingSlack(t *testing.T) {
	require := require.New(t)

	r := Rate{TotalStaked: u256(100), TotalStakeShares: u256(100)}
	for _, amount := range []uint64{0, 1, 50, 100, 9999} {
		down := r.SharesFromAmountDown(u256(amount))
		up := r.SharesFromAmountUp(u256(amount))
		require.Equal(down, up, "exact division should round identically")
	}
}
