// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package sharemath implements the pool's fixed-point conversions between
// native-token amounts and stake shares under a single global exchange
// rate. All intermediates are carried in 256 bits so that
// totalStakeShares * amount never overflows before the final division.
package sharemath

import "github.com/holiman/uint256"

// Rate is the exchange rate state the conversions are performed against:
// totalStaked native-token units backing totalStakeShares outstanding
// shares. A Rate with TotalStaked == 0 or TotalStakeShares == 0 is the
// bootstrap rate of 1 share per native unit.
type Rate struct {
	TotalStaked      *uint256.Int
	TotalStakeShares *uint256.Int
}

func (r Rate) isBootstrap() bool {
	return r.TotalStaked.IsZero() || r.TotalStakeShares.IsZero()
}

// SharesFromAmountDown converts a native amount to shares, rounding down.
// Used by deposits: the pool must never over-issue shares.
func (r Rate) SharesFromAmountDown(amount *uint256.Int) *uint256.Int {
	if r.isBootstrap() {
		return new(uint256.Int).Set(amount)
	}
	var num uint256.Int
	num.Mul(r.TotalStakeShares, amount)
	return num.Div(&num, r.TotalStaked)
}

// SharesFromAmountUp converts a native amount to shares, rounding up.
// Used by unstakes: the user must burn at least enough shares to cover
// the native amount they receive.
func (r Rate) SharesFromAmountUp(amount *uint256.Int) *uint256.Int {
	if r.isBootstrap() {
		return new(uint256.Int).Set(amount)
	}
	var num uint256.Int
	num.Mul(r.TotalStakeShares, amount)
	return ceilDiv(&num, r.TotalStaked)
}

// AmountFromSharesDown converts shares to a native amount, rounding down.
func (r Rate) AmountFromSharesDown(shares *uint256.Int) *uint256.Int {
	if r.isBootstrap() {
		return new(uint256.Int).Set(shares)
	}
	var num uint256.Int
	num.Mul(r.TotalStaked, shares)
	return num.Div(&num, r.TotalStakeShares)
}

// AmountFromSharesUp converts shares to a native amount, rounding up.
// Used to compute an unstake's receive amount: it consumes the rounding
// slack introduced by SharesFromAmountUp so it is always >= the amount
// the user asked to unstake.
func (r Rate) AmountFromSharesUp(shares *uint256.Int) *uint256.Int {
	if r.isBootstrap() {
		return new(uint256.Int).Set(shares)
	}
	var num uint256.Int
	num.Mul(r.TotalStaked, shares)
	return ceilDiv(&num, r.TotalStakeShares)
}

// ceilDiv returns ceil(num/den) without mutating num or den. den must be
// non-zero; callers guard this via isBootstrap.
func ceilDiv(num, den *uint256.Int) *uint256.Int {
	var quotient, remainder uint256.Int
	quotient.DivMod(num, den, &remainder)
	if !remainder.IsZero() {
		quotient.AddUint64(&quotient, 1)
	}
	return &quotient
}
