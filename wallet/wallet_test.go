// Copyright (c) 2024 The txwallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"context"
	"testing"
	"time"

	"github.com/lightningnetwork/lnd/clock"
	"github.com/lightningnetwork/lnd/ticker"
	"github.com/novaledger/txwallet/ledger"
	"github.com/novaledger/txwallet/wallet/txauthor"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	testAccount = "default"
	testSlot    = ledger.SlotIndex(100)
)

var (
	testOwner     = ledger.Ed25519Address{0x01}
	testRecipient = ledger.Ed25519Address{0x02}
	testStartTime = time.Unix(1_700_000_000, 0)
)

func testOutputID(n byte) ledger.OutputID {
	return ledger.NewOutputID(ledger.TransactionID{n}, 0)
}

func basicOutput(amount uint64, addr ledger.Address) *ledger.BasicOutput {
	return &ledger.BasicOutput{
		Amount:           amount,
		UnlockConditions: ledger.UnlockConditions{Address: addr},
	}
}

func testInput(n byte, o ledger.Output) *txauthor.InputSigningData {
	return &txauthor.InputSigningData{
		Output:   o,
		OutputID: testOutputID(n),
		Metadata: txauthor.OutputMetadata{IncludedSlot: testSlot},
	}
}

// testHarness bundles a wallet with the mocks it runs on.
type testHarness struct {
	wallet *Wallet
	chain  *mockChainSource
	clock  *clock.TestClock
	ticker *ticker.Force
}

// newTestHarness creates a wallet with a single account owning testOwner
// whose chain source serves the given unspent outputs.
func newTestHarness(t testing.TB,
	unspent ...*txauthor.InputSigningData) *testHarness {

	t.Helper()

	chain := &mockChainSource{}
	chain.On("ProtocolParameters", mock.Anything).Return(
		ledger.DefaultProtocolParameters(), nil,
	)
	chain.On("CurrentSlot", mock.Anything).Return(testSlot, nil)
	chain.On("LatestCommitment", mock.Anything).Return(
		ledger.SlotCommitmentID{Slot: 90}, nil,
	)
	chain.On("UnspentOutputs", mock.Anything, mock.Anything).Return(
		unspent, nil,
	)

	testClock := clock.NewTestClock(testStartTime)
	forceTicker := ticker.NewForce(time.Hour)

	w, err := New(Config{
		Chain: chain,
		Accounts: map[string][]ledger.Address{
			testAccount: {testOwner},
		},
		Clock:       testClock,
		LeaseTicker: forceTicker,
	})
	require.NoError(t, err)

	return &testHarness{
		wallet: w,
		chain:  chain,
		clock:  testClock,
		ticker: forceTicker,
	}
}

func TestNewConfig(t *testing.T) {
	t.Parallel()

	_, err := New(Config{})
	require.ErrorIs(t, err, ErrNilChainSource)

	_, err = New(Config{Chain: &mockChainSource{}})
	require.ErrorIs(t, err, ErrNoAccounts)

	_, err = New(Config{
		Chain:    &mockChainSource{},
		Accounts: map[string][]ledger.Address{"empty": nil},
	})
	require.Error(t, err)

	w, err := New(Config{
		Chain: &mockChainSource{},
		Accounts: map[string][]ledger.Address{
			"b": {testOwner},
			"a": {testRecipient},
		},
	})
	require.NoError(t, err)
	require.Equal(t, DefaultLeaseDuration, w.cfg.LeaseDuration)
	require.NotNil(t, w.cfg.Clock)
	require.Equal(t, []string{"a", "b"}, w.Accounts())

	w.Start()
	w.Stop()
}

// TestLeaseSweeper checks expired leases are removed on a tick.
func TestLeaseSweeper(t *testing.T) {
	t.Parallel()

	h := newTestHarness(t, testInput(1, basicOutput(1_000_000, testOwner)))
	h.wallet.Start()
	defer h.wallet.Stop()

	_, err := h.wallet.LeaseOutput(
		context.Background(), LockID{0x01}, testOutputID(1), time.Minute,
	)
	require.NoError(t, err)

	h.clock.SetTime(testStartTime.Add(2 * time.Minute))
	h.ticker.Force <- h.clock.Now()

	require.Eventually(t, func() bool {
		h.wallet.leaseMtx.Lock()
		defer h.wallet.leaseMtx.Unlock()

		return len(h.wallet.leases) == 0
	}, time.Second, 10*time.Millisecond)
}
