// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package registry

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func TestAddRejectsZeroWeightAndDuplicates(t *testing.T) {
	require := require.New(t)

	r := New()
	require.ErrorIs(r.Add("v1.near", 0), ErrZeroWeight)
	require.NoError(r.Add("v1.near", 10))
	require.ErrorIs(r.Add("v1.near", 10), ErrDuplicateValidator)
	require.EqualValues(10, r.TotalValidatorWeight)
}

func TestPauseExcludesFromTotalWeight(t *testing.T) {
	require := require.New(t)

	r := New()
	require.NoError(r.Add("v1.near", 10))
	require.NoError(r.Add("v2.near", 20))

	require.NoError(r.Pause("v1.near"))
	require.EqualValues(20, r.TotalValidatorWeight)
	require.True(r.Get("v1.near").Paused())
}

func TestUpdateAdjustsTotalWeightByDelta(t *testing.T) {
	require := require.New(t)

	r := New()
	require.NoError(r.Add("v1.near", 10))
	require.NoError(r.Update("v1.near", 30))
	require.EqualValues(30, r.TotalValidatorWeight)

	require.ErrorIs(r.Update("v1.near", 0), ErrZeroWeight)
	require.ErrorIs(r.Update("missing.near", 5), ErrNotFound)
}

func TestRemoveRequiresFullyDrainedAndOutsideUnbonding(t *testing.T) {
	require := require.New(t)

	r := New()
	require.NoError(r.Add("v1.near", 10))
	v := r.Get("v1.near")

	// still has weight: paused required first
	require.ErrorIs(r.Remove("v1.near", 100), ErrNotDrainable)

	require.NoError(r.Pause("v1.near"))
	v.Staked = uint256.NewInt(5)
	require.ErrorIs(r.Remove("v1.near", 100), ErrNotDrainable)

	v.Staked = new(uint256.Int)
	v.UnstakeStartEpoch = 99
	require.ErrorIs(r.Remove("v1.near", 100), ErrNotDrainable) // inside unbonding window

	require.NoError(r.Remove("v1.near", 200))
	require.Nil(r.Get("v1.near"))
}

func TestOrderedIDsIsDeterministicAcrossInsertOrder(t *testing.T) {
	require := require.New(t)

	a := New()
	require.NoError(a.Add("zz.near", 1))
	require.NoError(a.Add("aa.near", 1))
	require.NoError(a.Add("mm.near", 1))

	b := New()
	require.NoError(b.Add("mm.near", 1))
	require.NoError(b.Add("zz.near", 1))
	require.NoError(b.Add("aa.near", 1))

	require.Equal(a.OrderedIDs(), b.OrderedIDs())
	require.Equal([]ID{"aa.near", "mm.near", "zz.near"}, a.OrderedIDs())
}

func TestSortedByStakedDescTieBreaksByID(t *testing.T) {
	require := require.New(t)

	r := New()
	require.NoError(r.Add("b.near", 1))
	require.NoError(r.Add("a.near", 1))
	r.Get("a.near").Staked = uint256.NewInt(50)
	r.Get("b.near").Staked = uint256.NewInt(50)

	sorted := r.SortedByStakedDesc([]*Validator{r.Get("b.near"), r.Get("a.near")})
	require.Equal(ID("a.near"), sorted[0].ID)
	require.Equal(ID("b.near"), sorted[1].ID)
}
