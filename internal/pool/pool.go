// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package pool wires sharemath, account, registry, selection, dispatch
// and rewards into the pool's user-facing operations, epoch
// reconciliation/dispatch orchestration, governance and views (spec
// §4.E, §4.F, §4.G orchestration, §4.H orchestration, §4.I). It is the
// only package in this module whose lock guards pool state: the other
// packages hold no pool state under a lock of their own (the
// dispatch.Coordinator's mutex guards only its in-flight call table),
// and Pool is the caller that the dispatch.Coordinator's runLocked
// callbacks close over.
package pool

import (
	"sync"

	"github.com/holiman/uint256"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/nearx-labs/nearx-pool/internal/account"
	"github.com/nearx-labs/nearx-pool/internal/dispatch"
	"github.com/nearx-labs/nearx-pool/internal/metrics"
	"github.com/nearx-labs/nearx-pool/internal/registry"
	"github.com/nearx-labs/nearx-pool/internal/sharemath"
)

// Numeric constants required to be explicit by spec §6.
const (
	UnbondingEpochs      = registry.UnbondingEpochs
	FeeCommitDelayEpochs = 5

	MaxRewardFeeNumerator   = 10
	MaxRewardFeeDenominator = 100

	MinDepositAmountFloor    = 1
	MinDepositAmountCeiling  = 100
	DefaultMinStorageReserve = 50
)

// Config holds the pool's genesis parameters and governance-tunable
// constants. It is constructed with defaults and optionally rebound
// from process flags, the same split avalanchego's config package uses
// between compiled-in defaults and pflag-sourced overrides.
type Config struct {
	MinDepositAmount  uint64
	MinStorageReserve uint64
}

// DefaultConfig returns the genesis defaults named in spec §6.
func DefaultConfig() Config {
	return Config{
		MinDepositAmount:  MinDepositAmountFloor,
		MinStorageReserve: DefaultMinStorageReserve,
	}
}

// BindFlags registers the config's fields on fs, letting a host binary
// override genesis defaults without this module depending on a CLI
// framework itself (cobra/viper are out of scope; pflag's binding
// surface alone is not).
func (c *Config) BindFlags(fs *pflag.FlagSet) {
	fs.Uint64Var(&c.MinDepositAmount, "min-deposit-amount", c.MinDepositAmount, "minimum native-token amount accepted by deposit_and_stake")
	fs.Uint64Var(&c.MinStorageReserve, "min-storage-reserve", c.MinStorageReserve, "native-token reserve withdraw must never breach")
}

// OperationsControl holds the eight independent pause flags named in
// spec §3 / §6.
type OperationsControl struct {
	StakePaused                bool
	UnstakePaused              bool
	WithdrawPaused             bool
	StakingEpochPaused         bool
	UnstakingEpochPaused       bool
	WithdrawEpochPaused        bool
	AutocompoundingEpochPaused bool
	SyncValidatorBalancePaused bool
}

// Pool is the pool's entire process-wide state (spec §3), plus the
// subpackage handles it dispatches work through.
type Pool struct {
	mu sync.Mutex

	cfg Config

	accounts   *account.Store
	validators *registry.Registry
	dispatcher *dispatch.Coordinator
	logger     *zap.Logger
	metrics    *metrics.Metrics

	// ContractNativeBalance models the host chain's account balance of
	// this contract, consulted by Withdraw's reserve check (spec
	// §4.E). The host-chain wallet itself is out of scope (§1); this
	// field is a caller-maintained mirror of it.
	ContractNativeBalance *uint256.Int

	TotalStaked              *uint256.Int
	TotalStakeShares         *uint256.Int
	AccumulatedStakedRewards *uint256.Int

	UserAmountToStakeInEpoch     *uint256.Int
	UserAmountToUnstakeInEpoch   *uint256.Int
	ReconciledEpochStakeAmount   *uint256.Int
	ReconciledEpochUnstakeAmount *uint256.Int
	LastReconciliationEpoch      uint64

	RewardsBuffer            *uint256.Int
	AccumulatedRewardsBuffer *uint256.Int

	RewardsFeeNumerator      uint64
	RewardsFeeDenominator    uint64
	TempRewardFeeSet         bool
	TempRewardFeeNumerator   uint64
	TempRewardFeeDenominator uint64
	LastRewardFeeSetEpoch    uint64

	// ID is this pool's own account id on the host chain. Owner,
	// operator and treasury must each remain distinct from it (spec
	// §4.I: "remain distinct and distinct from the contract's own id").
	ID account.ID

	OwnerAccountID     account.ID
	OperatorAccountID  account.ID
	TreasuryAccountID  account.ID
	TempOwnerAccountID account.ID
	TempOperatorID     account.ID
	TempTreasuryID     account.ID

	OperationsControl OperationsControl
}

// New constructs a Pool with id as its own account id. owner, operator
// and treasury must be pairwise distinct and distinct from id (spec
// §4.I).
func New(cfg Config, id, owner, operator, treasury account.ID, gw dispatch.Gateway, logger *zap.Logger, m *metrics.Metrics) (*Pool, error) {
	if owner == operator || owner == treasury || operator == treasury {
		return nil, ErrRoleCollision
	}
	if owner == id || operator == id || treasury == id {
		return nil, ErrSelfCall
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pool{
		cfg:        cfg,
		accounts:   account.NewStore(),
		validators: registry.New(),
		dispatcher: dispatch.NewCoordinator(gw),
		logger:     logger,
		metrics:    m,

		ID: id,

		ContractNativeBalance: new(uint256.Int),

		TotalStaked:              new(uint256.Int),
		TotalStakeShares:         new(uint256.Int),
		AccumulatedStakedRewards: new(uint256.Int),

		UserAmountToStakeInEpoch:     new(uint256.Int),
		UserAmountToUnstakeInEpoch:   new(uint256.Int),
		ReconciledEpochStakeAmount:   new(uint256.Int),
		ReconciledEpochUnstakeAmount: new(uint256.Int),

		RewardsBuffer:            new(uint256.Int),
		AccumulatedRewardsBuffer: new(uint256.Int),

		RewardsFeeNumerator:   0,
		RewardsFeeDenominator: 100,

		OwnerAccountID:    owner,
		OperatorAccountID: operator,
		TreasuryAccountID: treasury,
	}, nil
}

// rate returns the pool's current exchange rate.
func (p *Pool) rate() sharemath.Rate {
	return sharemath.Rate{TotalStaked: p.TotalStaked, TotalStakeShares: p.TotalStakeShares}
}

// exchangeRateMilli renders the current exchange rate scaled by 1000,
// for Metrics.ExchangeRateMilli. The bootstrap rate (no shares issued
// yet) is 1000, i.e. a rate of 1.
func (p *Pool) exchangeRateMilli() float64 {
	if p.TotalStakeShares.IsZero() {
		return 1000
	}
	milli := new(uint256.Int).Mul(p.TotalStaked, uint256.NewInt(1000))
	milli = new(uint256.Int).Div(milli, p.TotalStakeShares)
	return f64(milli)
}

// syncPendingDispatches refreshes Metrics.PendingDispatches from the
// dispatcher's live in-flight count.
func (p *Pool) syncPendingDispatches() {
	if p.metrics != nil {
		p.metrics.PendingDispatches.Set(float64(p.dispatcher.InFlightCount()))
	}
}

// runLocked is the function every dispatch.Coordinator call is given:
// it lets a callback running on its own goroutine apply its state
// delta under the pool's single lock, preserving the single-writer
// model of spec §5 across the asynchronous suspension point.
func (p *Pool) runLocked(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn()
}
