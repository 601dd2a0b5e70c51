// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package nearxtest

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// DrainEpoch repeatedly calls stake and unstake, typically
// pool.Pool.StakingEpoch and pool.Pool.UnstakingEpoch, concurrently,
// each until it reports no more work, the way a host runtime's
// periodic epoch cron keeps invoking both entry points until the
// epoch's reconciled amounts are fully dispatched. Mirrors the
// golang.org/x/sync/errgroup fan-out avalanchego uses to drive
// independent worker loops to completion and collect the first error.
func DrainEpoch(ctx context.Context, stake, unstake func(context.Context) (bool, error)) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return drainLoop(ctx, stake) })
	g.Go(func() error { return drainLoop(ctx, unstake) })
	return g.Wait()
}

func drainLoop(ctx context.Context, step func(context.Context) (bool, error)) error {
	for {
		more, err := step(ctx)
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}
}
