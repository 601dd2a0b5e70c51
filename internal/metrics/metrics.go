// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package metrics exposes the pool's Prometheus instrumentation,
// following the github.com/prometheus/client_golang dependency
// avalanchego registers its own subsystem metrics against.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds every gauge/counter the pool updates as it processes
// entry points.
type Metrics struct {
	ExchangeRateMilli    prometheus.Gauge
	TotalStaked          prometheus.Gauge
	TotalStakeShares     prometheus.Gauge
	AccumulatedRewards   prometheus.Counter
	PendingDispatches    prometheus.Gauge
	EpochReconciliations prometheus.Counter
	RemoteCallFailures   *prometheus.CounterVec
}

// New registers and returns a Metrics struct under the given namespace
// (e.g. "nearx_pool"). Registration failures (duplicate registration in
// a shared registry) are returned rather than panicking, matching
// avalanchego's metrics registration convention of surfacing errors to
// the caller instead of crashing the node.
func New(namespace string, reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		ExchangeRateMilli: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "exchange_rate_milli",
			Help:      "Current total_staked/total_stake_shares exchange rate, scaled by 1000.",
		}),
		TotalStaked: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "total_staked",
			Help:      "Native-token amount the pool considers staked.",
		}),
		TotalStakeShares: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "total_stake_shares",
			Help:      "Outstanding share-token supply.",
		}),
		AccumulatedRewards: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "accumulated_staked_rewards_total",
			Help:      "Cumulative staking rewards observed across all validators.",
		}),
		PendingDispatches: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pending_dispatches",
			Help:      "Number of validator calls dispatched but not yet resolved.",
		}),
		EpochReconciliations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "epoch_reconciliations_total",
			Help:      "Number of times epoch_reconcilation has run.",
		}),
		RemoteCallFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "remote_call_failures_total",
			Help:      "Remote validator call failures by operation.",
		}, []string{"operation"}),
	}

	collectors := []prometheus.Collector{
		m.ExchangeRateMilli,
		m.TotalStaked,
		m.TotalStakeShares,
		m.AccumulatedRewards,
		m.PendingDispatches,
		m.EpochReconciliations,
		m.RemoteCallFailures,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}
