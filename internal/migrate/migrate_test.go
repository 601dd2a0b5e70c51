// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package migrate

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeLegacyPoolStateWeaklyTypedInput(t *testing.T) {
	require := require.New(t)

	raw := map[string]any{
		"OwnerAccountID":        "owner.near",
		"TotalStaked":           "1000",
		"TotalStakeShares":      "900",
		"LastReconciliationEpoch": "42", // string -> uint64, exercises WeaklyTypedInput
		"RewardsFeeNumerator":   5,
		"RewardsFeeDenominator": 100,
	}

	out, err := DecodeLegacyPoolState(raw)
	require.NoError(err)
	require.Equal("owner.near", out.OwnerAccountID)
	require.Equal("1000", out.TotalStaked)
	require.EqualValues(42, out.LastReconciliationEpoch)
	require.EqualValues(5, out.RewardsFeeNumerator)
}

func TestDecodeLegacyAccountsAndValidators(t *testing.T) {
	require := require.New(t)

	accounts, err := DecodeLegacyAccounts([]map[string]any{
		{"AccountID": "user1.near", "StakeShares": "10", "WithdrawableEpochHeight": 3},
	})
	require.NoError(err)
	require.Len(accounts, 1)
	require.Equal("user1.near", accounts[0].AccountID)

	validators, err := DecodeLegacyValidators([]map[string]any{
		{"ValidatorID": "v1.near", "Staked": "500", "Weight": 10},
	})
	require.NoError(err)
	require.Len(validators, 1)
	require.EqualValues(10, validators[0].Weight)
}
