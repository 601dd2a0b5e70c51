// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pool

import (
	"github.com/holiman/uint256"

	"github.com/nearx-labs/nearx-pool/internal/account"
	"github.com/nearx-labs/nearx-pool/internal/migrate"
	"github.com/nearx-labs/nearx-pool/internal/registry"
)

// allPaused reports whether every pause flag is set, the precondition
// Design Notes recommends before exposing a migration entry point in
// production (spec §9: "implementers should require a hash-check or a
// paused-state precondition").
func (p *Pool) allPaused() bool {
	c := p.OperationsControl
	return c.StakePaused && c.UnstakePaused && c.WithdrawPaused &&
		c.StakingEpochPaused && c.UnstakingEpochPaused && c.WithdrawEpochPaused &&
		c.AutocompoundingEpochPaused && c.SyncValidatorBalancePaused
}

// MigrateContractState rehydrates the pool's process-wide totals from a
// previous version's state (spec §6 migrate_contract_state, detailed
// by SPEC_FULL's supplemental upgrade.rs reading). Owner-only, and
// requires every operation to already be paused.
func (p *Pool) MigrateContractState(caller account.ID, legacy *migrate.LegacyPoolState) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if caller != p.OwnerAccountID {
		return ErrUnauthorized
	}
	if !p.allPaused() {
		return migrate.ErrNotPaused
	}

	totalStaked, err := parseAmount(legacy.TotalStaked)
	if err != nil {
		return err
	}
	totalStakeShares, err := parseAmount(legacy.TotalStakeShares)
	if err != nil {
		return err
	}
	rewardsBuffer, err := parseAmount(legacy.RewardsBuffer)
	if err != nil {
		return err
	}

	p.TotalStaked = totalStaked
	p.TotalStakeShares = totalStakeShares
	p.RewardsBuffer = rewardsBuffer
	p.LastReconciliationEpoch = legacy.LastReconciliationEpoch
	p.RewardsFeeNumerator = legacy.RewardsFeeNumerator
	p.RewardsFeeDenominator = legacy.RewardsFeeDenominator
	if legacy.OwnerAccountID != "" {
		p.OwnerAccountID = account.ID(legacy.OwnerAccountID)
	}
	if legacy.OperatorAccountID != "" {
		p.OperatorAccountID = account.ID(legacy.OperatorAccountID)
	}
	if legacy.TreasuryAccountID != "" {
		p.TreasuryAccountID = account.ID(legacy.TreasuryAccountID)
	}
	return nil
}

// MigrateUserState rehydrates a batch of legacy accounts (spec §6
// migrate_user_state). Owner-only, requires the pool fully paused.
func (p *Pool) MigrateUserState(caller account.ID, legacy []migrate.LegacyAccount) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if caller != p.OwnerAccountID {
		return ErrUnauthorized
	}
	if !p.allPaused() {
		return migrate.ErrNotPaused
	}

	for _, la := range legacy {
		shares, err := parseAmount(la.StakeShares)
		if err != nil {
			return err
		}
		unstaked, err := parseAmount(la.UnstakedAmount)
		if err != nil {
			return err
		}
		p.accounts.Put(account.ID(la.AccountID), &account.Account{
			StakeShares:             shares,
			UnstakedAmount:          unstaked,
			WithdrawableEpochHeight: la.WithdrawableEpochHeight,
		})
	}
	return nil
}

// MigrateValidatorState rehydrates a batch of legacy validator records
// (spec §6 migrate_validator_state). Owner-only, requires the pool
// fully paused. A validator id already registered is updated in place
// rather than rejected as a duplicate: its staked and unstaked amounts
// and unstake epochs are overwritten, its weight is left unchanged. This
// lets migration run against a freshly-constructed Pool or reconcile
// drift after a partial prior migration.
func (p *Pool) MigrateValidatorState(caller account.ID, legacy []migrate.LegacyValidator) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if caller != p.OwnerAccountID {
		return ErrUnauthorized
	}
	if !p.allPaused() {
		return migrate.ErrNotPaused
	}

	for _, lv := range legacy {
		staked, err := parseAmount(lv.Staked)
		if err != nil {
			return err
		}
		unstaked, err := parseAmount(lv.UnstakedAmount)
		if err != nil {
			return err
		}
		id := registry.ID(lv.ValidatorID)
		if p.validators.Get(id) == nil {
			if err := p.validators.Add(id, lv.Weight); err != nil {
				return err
			}
		}
		v := p.validators.Get(id)
		v.Staked = staked
		v.UnstakedAmount = unstaked
		v.UnstakeStartEpoch = lv.UnstakeStartEpoch
		v.LastUnstakeStartEpoch = lv.LastUnstakeStartEpoch
	}
	return nil
}

func parseAmount(s string) (*uint256.Int, error) {
	if s == "" {
		return new(uint256.Int), nil
	}
	return uint256.FromDecimal(s)
}
