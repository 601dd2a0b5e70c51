// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pool

import (
	"github.com/holiman/uint256"

	"github.com/nearx-labs/nearx-pool/internal/account"
	"github.com/nearx-labs/nearx-pool/internal/registry"
)

// priceScale is the fixed-point scale get_nearx_price reports at: the
// exchange rate multiplied by 10^24, matching the NEAR token's own
// yoctoNEAR precision convention so callers never see a fraction.
var priceScale = new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(24))

// GetNearxPrice returns the current exchange rate scaled by
// priceScale (spec GLOSSARY: "native-token value of one share").
func (p *Pool) GetNearxPrice() *uint256.Int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.TotalStakeShares.IsZero() {
		return new(uint256.Int).Set(priceScale)
	}
	scaled := new(uint256.Int).Mul(p.TotalStaked, priceScale)
	return scaled.Div(scaled, p.TotalStakeShares)
}

// GetTotalStaked returns total_staked.
func (p *Pool) GetTotalStaked() *uint256.Int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return new(uint256.Int).Set(p.TotalStaked)
}

// AccountView is the read-only projection of an Account returned by
// GetAccount, with a derived staked-balance estimate under the current
// exchange rate.
type AccountView struct {
	StakeShares             *uint256.Int
	UnstakedAmount          *uint256.Int
	WithdrawableEpochHeight uint64
	StakedBalance           *uint256.Int
}

// GetAccount returns id's account view.
func (p *Pool) GetAccount(id account.ID) AccountView {
	p.mu.Lock()
	defer p.mu.Unlock()
	a := p.accounts.Get(id)
	return AccountView{
		StakeShares:             new(uint256.Int).Set(a.StakeShares),
		UnstakedAmount:          new(uint256.Int).Set(a.UnstakedAmount),
		WithdrawableEpochHeight: a.WithdrawableEpochHeight,
		StakedBalance:           p.rate().AmountFromSharesDown(a.StakeShares),
	}
}

// GetValidators returns every registered validator ID in deterministic
// order.
func (p *Pool) GetValidators() []registry.ID {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.validators.OrderedIDs()
}

// GetValidatorInfo returns a copy of validatorID's registry record, or
// nil if it is not registered.
func (p *Pool) GetValidatorInfo(validatorID registry.ID) *registry.Validator {
	p.mu.Lock()
	defer p.mu.Unlock()
	v := p.validators.Get(validatorID)
	if v == nil {
		return nil
	}
	cp := *v
	return &cp
}

// NearxState is the GetNearxState view: the process-wide accounting
// totals (spec §6).
type NearxState struct {
	TotalStaked                  *uint256.Int
	TotalStakeShares             *uint256.Int
	AccumulatedStakedRewards     *uint256.Int
	UserAmountToStakeInEpoch     *uint256.Int
	UserAmountToUnstakeInEpoch   *uint256.Int
	ReconciledEpochStakeAmount   *uint256.Int
	ReconciledEpochUnstakeAmount *uint256.Int
	LastReconciliationEpoch      uint64
	RewardsBuffer                *uint256.Int
}

// GetNearxState returns the pool's process-wide accounting totals.
func (p *Pool) GetNearxState() NearxState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return NearxState{
		TotalStaked:                  new(uint256.Int).Set(p.TotalStaked),
		TotalStakeShares:             new(uint256.Int).Set(p.TotalStakeShares),
		AccumulatedStakedRewards:     new(uint256.Int).Set(p.AccumulatedStakedRewards),
		UserAmountToStakeInEpoch:     new(uint256.Int).Set(p.UserAmountToStakeInEpoch),
		UserAmountToUnstakeInEpoch:   new(uint256.Int).Set(p.UserAmountToUnstakeInEpoch),
		ReconciledEpochStakeAmount:   new(uint256.Int).Set(p.ReconciledEpochStakeAmount),
		ReconciledEpochUnstakeAmount: new(uint256.Int).Set(p.ReconciledEpochUnstakeAmount),
		LastReconciliationEpoch:      p.LastReconciliationEpoch,
		RewardsBuffer:                new(uint256.Int).Set(p.RewardsBuffer),
	}
}

// GetRewardFee returns the live reward-fee fraction.
func (p *Pool) GetRewardFee() (numerator, denominator uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.RewardsFeeNumerator, p.RewardsFeeDenominator
}

// GetOperationsControl returns the live pause-flag set.
func (p *Pool) GetOperationsControl() OperationsControl {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.OperationsControl
}

// Summary is the GetContractSummary snapshot: a supplemental view
// (grounded on upgrade.rs's migration sanity check) useful both after a
// migration and for metrics export.
type Summary struct {
	Owner                 account.ID
	Operator              account.ID
	Treasury              account.ID
	TotalStaked           *uint256.Int
	TotalStakeShares      *uint256.Int
	ValidatorCount        int
	RegisteredAccounts    int
	RewardsFeeNumerator   uint64
	RewardsFeeDenominator uint64
}

// Summary returns a point-in-time snapshot of the pool, the Go
// analogue of upgrade.rs's get_contract_summary used as a post-
// migration sanity check.
func (p *Pool) Summary() Summary {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Summary{
		Owner:                 p.OwnerAccountID,
		Operator:              p.OperatorAccountID,
		Treasury:              p.TreasuryAccountID,
		TotalStaked:           new(uint256.Int).Set(p.TotalStaked),
		TotalStakeShares:      new(uint256.Int).Set(p.TotalStakeShares),
		ValidatorCount:        p.validators.Len(),
		RegisteredAccounts:    p.accounts.Len(),
		RewardsFeeNumerator:   p.RewardsFeeNumerator,
		RewardsFeeDenominator: p.RewardsFeeDenominator,
	}
}

// FtTotalSupply returns total_stake_shares, the share token's total
// supply (spec §6).
func (p *Pool) FtTotalSupply() *uint256.Int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return new(uint256.Int).Set(p.TotalStakeShares)
}

// FtBalanceOf returns id's share-token balance.
func (p *Pool) FtBalanceOf(id account.ID) *uint256.Int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return new(uint256.Int).Set(p.accounts.Get(id).StakeShares)
}
