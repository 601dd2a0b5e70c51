// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package account

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func TestGetAbsentReturnsZeroAccount(t *testing.T) {
	require := require.New(t)

	s := NewStore()
	a := s.Get("alice.near")
	require.True(a.IsEmpty())
	require.Equal(0, s.Len())
}

func TestPutThenGetRoundTrips(t *testing.T) {
	require := require.New(t)

	s := NewStore()
	a := s.Get("alice.near")
	a.StakeShares = uint256.NewInt(10)
	s.Put("alice.near", a)

	got := s.Get("alice.near")
	require.Equal(uint256.NewInt(10), got.StakeShares)
	require.Equal(1, s.Len())
}

func TestDeregisterRejectsNonEmptyAccount(t *testing.T) {
	require := require.New(t)

	s := NewStore()
	a := s.Get("alice.near")
	a.StakeShares = uint256.NewInt(1)
	s.Put("alice.near", a)

	require.ErrorIs(s.Deregister("alice.near"), ErrNotEmpty)
	require.Equal(1, s.Len())
}

func TestDeregisterRemovesEmptyAccount(t *testing.T) {
	require := require.New(t)

	s := NewStore()
	a := s.Get("alice.near")
	s.Put("alice.near", a)

	require.NoError(s.Deregister("alice.near"))
	require.Equal(0, s.Len())
}

func TestDeregisterAbsentAccountIsNoop(t *testing.T) {
	require := require.New(t)

	s := NewStore()
	require.NoError(s.Deregister("nobody.near"))
}

func TestTotalStakeSharesSumsAllAccounts(t *testing.T) {
	require := require.New(t)

	s := NewStore()
	for id, shares := range map[ID]uint64{"alice.near": 10, "bob.near": 20} {
		a := s.Get(id)
		a.StakeShares = uint256.NewInt(shares)
		s.Put(id, a)
	}

	require.Equal(uint256.NewInt(30), s.TotalStakeShares())
}
