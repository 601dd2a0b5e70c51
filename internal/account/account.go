// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package account implements the pool's per-user account store: share
// balances, pending-unstake amounts and the epoch at which those amounts
// become withdrawable.
package account

import (
	"errors"

	"github.com/holiman/uint256"
)

// ID identifies a user account. The host chain's account-id format is
// opaque to this package.
type ID string

var ErrNotEmpty = errors.New("account: account has a non-zero balance")

// Account is a user's stake position in the pool.
type Account struct {
	StakeShares             *uint256.Int
	UnstakedAmount          *uint256.Int
	WithdrawableEpochHeight uint64
}

// IsEmpty reports whether every field of the account is at its zero
// value, the precondition for automatic removal on deregistration.
func (a *Account) IsEmpty() bool {
	return a.StakeShares.IsZero() && a.UnstakedAmount.IsZero() && a.WithdrawableEpochHeight == 0
}

func empty() *Account {
	return &Account{
		StakeShares:    new(uint256.Int),
		UnstakedAmount: new(uint256.Int),
	}
}

// Store is a key-value map from account ID to Account. Construct one
// with NewStore; the zero Store has no map and panics on Put.
type Store struct {
	accounts map[ID]*Account
}

func NewStore() *Store {
	return &Store{accounts: make(map[ID]*Account)}
}

// Get returns the account for id, or a fresh zero-valued account if none
// exists yet. The returned value is never persisted until Put is called.
func (s *Store) Get(id ID) *Account {
	if a, ok := s.accounts[id]; ok {
		return a
	}
	return empty()
}

// Put inserts or updates the account for id. If the account is empty it
// is not removed automatically; removal only happens via Deregister, per
// spec §4.B ("removed when all zero AND the user explicitly
// deregisters").
func (s *Store) Put(id ID, a *Account) {
	s.accounts[id] = a
}

// Deregister removes the account for id. It fails if the account is
// non-empty; the spec leaves storage_unregister's force-flag semantics
// underspecified and this package keeps the stricter behavior.
func (s *Store) Deregister(id ID) error {
	a, ok := s.accounts[id]
	if !ok {
		return nil
	}
	if !a.IsEmpty() {
		return ErrNotEmpty
	}
	delete(s.accounts, id)
	return nil
}

// Len returns the number of registered (non-default) accounts.
func (s *Store) Len() int {
	return len(s.accounts)
}

// Range calls fn for every registered account in unspecified order. fn
// must not mutate the store.
func (s *Store) Range(fn func(id ID, a *Account)) {
	for id, a := range s.accounts {
		fn(id, a)
	}
}

var (
	ErrSameAccount       = errors.New("account: sender and receiver must differ")
	ErrInsufficientShares = errors.New("account: sender has insufficient stake shares")
)

// Transfer moves amount stake shares from sender to receiver. It never
// changes the sum of shares across the store (spec §6, ft_transfer):
// the share-token transfer surface is out of scope as a fungible-token
// implementation, but the balance arithmetic it reduces to belongs here
// alongside the rest of the account model.
func (s *Store) Transfer(sender, receiver ID, amount *uint256.Int) error {
	if sender == receiver {
		return ErrSameAccount
	}
	from := s.Get(sender)
	if from.StakeShares.Cmp(amount) < 0 {
		return ErrInsufficientShares
	}
	to := s.Get(receiver)

	from.StakeShares = new(uint256.Int).Sub(from.StakeShares, amount)
	to.StakeShares = new(uint256.Int).Add(to.StakeShares, amount)

	s.Put(sender, from)
	s.Put(receiver, to)
	return nil
}

// TotalStakeShares sums StakeShares across all registered accounts.
// Exposed for invariant checks (spec §8 invariant 1) in tests.
func (s *Store) TotalStakeShares() *uint256.Int {
	total := new(uint256.Int)
	for _, a := range s.accounts {
		total.Add(total, a.StakeShares)
	}
	return total
}
