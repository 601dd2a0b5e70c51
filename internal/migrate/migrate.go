// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package migrate implements the pool's one-shot legacy-state migration
// path (spec §4.I's migrate_user_state / migrate_contract_state /
// migrate_validator_state, detailed by original_source/contracts/near-x/
// src/contract/upgrade.rs's migrate()). The original performs a
// field-by-field copy from a previous version's struct, gated on the
// contract being paused; this package keeps that shape but decodes an
// untyped payload via mapstructure instead of relying on a compile-time
// struct rename, since the host-side representation of "legacy state" is
// not fixed by this module.
package migrate

import (
	"errors"

	"github.com/mitchellh/mapstructure"
)

var ErrNotPaused = errors.New("migrate: contract must be fully paused before migration")

// LegacyPoolState is the untyped shape of a previous contract version's
// top-level fields, decoded from an operator-supplied payload. Fields
// absent from an older version decode to their zero value.
type LegacyPoolState struct {
	OwnerAccountID               string
	OperatorAccountID            string
	TreasuryAccountID            string
	TotalStaked                  string // decimal string; parsed to uint256 by the pool's migrate entry points
	TotalStakeShares             string
	AccumulatedStakedRewards     string
	UserAmountToStakeInEpoch     string
	UserAmountToUnstakeInEpoch   string
	ReconciledEpochStakeAmount   string
	ReconciledEpochUnstakeAmount string
	LastReconciliationEpoch      uint64
	RewardsBuffer                string
	AccumulatedRewardsBuffer     string
	RewardsFeeNumerator          uint64
	RewardsFeeDenominator        uint64
	MinDepositAmount             string
	MinStorageReserve            string
}

// DecodeLegacyPoolState decodes an arbitrary map (e.g. JSON-unmarshaled
// operator input) into LegacyPoolState, the same way the original's
// migrate() reads a previous NearxPool struct out of host storage.
func DecodeLegacyPoolState(raw map[string]any) (*LegacyPoolState, error) {
	var out LegacyPoolState
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &out,
		WeaklyTypedInput: true,
		ErrorUnused:      false,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, err
	}
	return &out, nil
}

// LegacyAccount mirrors the per-user fields migrate_user_state rehydrates.
type LegacyAccount struct {
	AccountID               string
	StakeShares             string
	UnstakedAmount          string
	WithdrawableEpochHeight uint64
}

// DecodeLegacyAccounts decodes a slice of untyped account records, used
// by migrate_user_state.
func DecodeLegacyAccounts(raw []map[string]any) ([]LegacyAccount, error) {
	out := make([]LegacyAccount, 0, len(raw))
	for _, r := range raw {
		var a LegacyAccount
		if err := mapstructure.Decode(r, &a); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// LegacyValidator mirrors the per-validator fields migrate_validator_state
// rehydrates.
type LegacyValidator struct {
	ValidatorID           string
	Staked                string
	UnstakedAmount        string
	UnstakeStartEpoch     uint64
	LastUnstakeStartEpoch uint64
	Weight                uint64
}

// DecodeLegacyValidators decodes a slice of untyped validator records,
// used by migrate_validator_state.
func DecodeLegacyValidators(raw []map[string]any) ([]LegacyValidator, error) {
	out := make([]LegacyValidator, 0, len(raw))
	for _, r := range raw {
		var v LegacyValidator
		if err := mapstructure.Decode(r, &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
