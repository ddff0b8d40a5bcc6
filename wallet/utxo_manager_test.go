// Copyright (c) 2024 The txwallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"context"
	"testing"
	"time"

	"github.com/novaledger/txwallet/ledger"
	"github.com/stretchr/testify/require"
)

// TestListUnspent checks outputs are returned in ascending amount order
// with their lease state.
func TestListUnspent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newTestHarness(t,
		testInput(1, basicOutput(3_000_000, testOwner)),
		testInput(2, basicOutput(1_000_000, testOwner)),
		testInput(3, basicOutput(2_000_000, testOwner)),
	)

	_, err := h.wallet.LeaseOutput(
		ctx, LockID{0x01}, testOutputID(3), time.Minute,
	)
	require.NoError(t, err)

	utxos, err := h.wallet.ListUnspent(ctx, UtxoQuery{})
	require.NoError(t, err)
	require.Len(t, utxos, 3)

	var (
		order  []ledger.OutputID
		leased []bool
	)
	for _, utxo := range utxos {
		require.Equal(t, testAccount, utxo.Account)
		require.Equal(t, testSlot, utxo.IncludedSlot)
		order = append(order, utxo.OutputID)
		leased = append(leased, utxo.Leased)
	}
	require.Equal(t, []ledger.OutputID{
		testOutputID(2), testOutputID(3), testOutputID(1),
	}, order)
	require.Equal(t, []bool{false, true, false}, leased)

	_, err = h.wallet.ListUnspent(ctx, UtxoQuery{Account: "unknown"})
	require.ErrorIs(t, err, ErrAccountNotFound)
}

func TestGetUtxo(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newTestHarness(t, testInput(1, basicOutput(1_000_000, testOwner)))

	utxo, err := h.wallet.GetUtxo(ctx, testOutputID(1))
	require.NoError(t, err)
	require.Equal(t, uint64(1_000_000), utxo.Output.BaseTokenAmount())

	_, err = h.wallet.GetUtxo(ctx, testOutputID(2))
	require.ErrorIs(t, err, ErrUnknownOutput)
}

// TestLeaseOutput checks leases are exclusive to their lock id until they
// expire.
func TestLeaseOutput(t *testing.T) {
	t.Parallel()

	var (
		ctx    = context.Background()
		lockA  = LockID{0x0a}
		lockB  = LockID{0x0b}
		output = testOutputID(1)
	)
	h := newTestHarness(t, testInput(1, basicOutput(1_000_000, testOwner)))

	expiration, err := h.wallet.LeaseOutput(ctx, lockA, output, time.Minute)
	require.NoError(t, err)
	require.Equal(t, testStartTime.Add(time.Minute), expiration)

	// Another lock id cannot take or release the lease.
	_, err = h.wallet.LeaseOutput(ctx, lockB, output, time.Minute)
	require.ErrorIs(t, err, ErrOutputAlreadyLeased)
	err = h.wallet.ReleaseOutput(ctx, lockB, output)
	require.ErrorIs(t, err, ErrOutputUnlockNotAllowed)

	// The holder may extend it.
	expiration, err = h.wallet.LeaseOutput(
		ctx, lockA, output, 2*time.Minute,
	)
	require.NoError(t, err)
	require.Equal(t, testStartTime.Add(2*time.Minute), expiration)

	leases, err := h.wallet.ListLeasedOutputs(ctx)
	require.NoError(t, err)
	require.Equal(t, []*LeasedOutput{{
		OutputID:   output,
		LockID:     lockA,
		Expiration: expiration,
	}}, leases)

	// Once expired the output can be leased by anyone.
	h.clock.SetTime(expiration)
	leases, err = h.wallet.ListLeasedOutputs(ctx)
	require.NoError(t, err)
	require.Empty(t, leases)

	_, err = h.wallet.LeaseOutput(ctx, lockB, output, time.Minute)
	require.NoError(t, err)

	require.NoError(t, h.wallet.ReleaseOutput(ctx, lockB, output))
	require.NoError(t, h.wallet.ReleaseOutput(ctx, lockB, output))

	leases, err = h.wallet.ListLeasedOutputs(ctx)
	require.NoError(t, err)
	require.Empty(t, leases)

	_, err = h.wallet.LeaseOutput(ctx, lockA, testOutputID(9), time.Minute)
	require.ErrorIs(t, err, ErrUnknownOutput)
}

func TestDeleteExpiredLeases(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newTestHarness(t,
		testInput(1, basicOutput(1_000_000, testOwner)),
		testInput(2, basicOutput(1_000_000, testOwner)),
	)

	_, err := h.wallet.LeaseOutput(
		ctx, LockID{0x01}, testOutputID(1), time.Minute,
	)
	require.NoError(t, err)
	_, err = h.wallet.LeaseOutput(
		ctx, LockID{0x01}, testOutputID(2), time.Hour,
	)
	require.NoError(t, err)

	require.Zero(t, h.wallet.deleteExpiredLeases())

	h.clock.SetTime(testStartTime.Add(time.Minute))
	require.Equal(t, 1, h.wallet.deleteExpiredLeases())
	require.Equal(t, []ledger.OutputID{testOutputID(2)},
		h.wallet.forbiddenOutputs(LockID{0x02}))
	require.Empty(t, h.wallet.forbiddenOutputs(LockID{0x01}))
}
