// Copyright (c) 2024 The txwallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/novaledger/txwallet/ledger"
	"github.com/novaledger/txwallet/wallet/txauthor"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestValidateTxRequest(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		req  *TxRequest
		err  error
	}{
		{
			name: "nil request",
			err:  ErrNilTxRequest,
		},
		{
			name: "nil intent",
			req:  &TxRequest{Account: testAccount},
			err:  ErrNilTxIntent,
		},
		{
			name: "missing account",
			req:  &TxRequest{Intent: txauthor.NewTxIntent()},
			err:  ErrMissingAccountName,
		},
		{
			name: "valid",
			req: &TxRequest{
				Account: testAccount,
				Intent:  txauthor.NewTxIntent(),
			},
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			err := validateTxRequest(test.req)
			if test.err == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, test.err)
		})
	}
}

// TestCreateTransaction checks a transaction is built from the account's
// outputs and its inputs are leased.
func TestCreateTransaction(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newTestHarness(t, testInput(1, basicOutput(2_000_000, testOwner)))

	lockID := LockID{0x01}
	tx, err := h.wallet.CreateTransaction(ctx, &TxRequest{
		Account: testAccount,
		Intent: txauthor.NewTxIntent(
			basicOutput(1_000_000, testRecipient),
		),
		LockID: lockID,
	})
	require.NoError(t, err)

	require.Equal(t, testSlot, tx.Transaction.CreationSlot)
	require.Len(t, tx.Inputs, 1)
	require.Len(t, tx.Transaction.Outputs, 2)
	require.Len(t, tx.Remainders, 1)
	require.Equal(t, testOwner, tx.Remainders[0].Address)

	leases, err := h.wallet.ListLeasedOutputs(ctx)
	require.NoError(t, err)
	require.Equal(t, []*LeasedOutput{{
		OutputID:   testOutputID(1),
		LockID:     lockID,
		Expiration: testStartTime.Add(DefaultLeaseDuration),
	}}, leases)
}

// TestCreateTransactionLeasedInputs checks outputs leased by another lock id
// are not selected while those leased by the requester are.
func TestCreateTransactionLeasedInputs(t *testing.T) {
	t.Parallel()

	var (
		ctx   = context.Background()
		lockA = LockID{0x0a}
		lockB = LockID{0x0b}
	)
	h := newTestHarness(t,
		testInput(1, basicOutput(2_000_000, testOwner)),
		testInput(2, basicOutput(3_000_000, testOwner)),
	)

	_, err := h.wallet.LeaseOutput(ctx, lockA, testOutputID(1), time.Hour)
	require.NoError(t, err)

	request := func(lockID LockID) *TxRequest {
		return &TxRequest{
			Account: testAccount,
			Intent: txauthor.NewTxIntent(
				basicOutput(1_000_000, testRecipient),
			),
			LockID:        lockID,
			LeaseDuration: time.Minute,
		}
	}

	tx, err := h.wallet.CreateTransaction(ctx, request(lockB))
	require.NoError(t, err)
	require.Len(t, tx.Inputs, 1)
	require.Equal(t, testOutputID(2), tx.Inputs[0].OutputID)

	// Every output is now leased by someone else.
	_, err = h.wallet.CreateTransaction(ctx, request(LockID{0x0c}))
	require.ErrorIs(t, err, txauthor.ErrNoAvailableInputsProvided)

	// The holder of a lease may still spend its output.
	tx, err = h.wallet.CreateTransaction(ctx, request(lockA))
	require.NoError(t, err)
	require.Len(t, tx.Inputs, 1)
	require.Equal(t, testOutputID(1), tx.Inputs[0].OutputID)
}

// TestCreateTransactionRewards checks rewards of burned delegations are
// fetched and claimed.
func TestCreateTransactionRewards(t *testing.T) {
	t.Parallel()

	delegationID := ledger.DelegationID{0xde}
	h := newTestHarness(t, testInput(1, &ledger.DelegationOutput{
		Amount:          1_000_000,
		DelegatedAmount: 1_000_000,
		DelegationID:    delegationID,
		Validator:       ledger.AccountAddress{0x77},
		UnlockConditions: ledger.UnlockConditions{
			Address: testOwner,
		},
	}))
	h.chain.On(
		"ManaRewards", mock.Anything, testOutputID(1), testSlot,
	).Return(uint64(5_000), nil)

	intent := txauthor.NewTxIntent()
	intent.Burn = &txauthor.Burn{
		Delegations: []ledger.DelegationID{delegationID},
	}

	tx, err := h.wallet.CreateTransaction(context.Background(), &TxRequest{
		Account: testAccount,
		Intent:  intent,
	})
	require.NoError(t, err)

	require.Equal(t, uint64(5_000), tx.ManaRewards[testOutputID(1)])
	require.Contains(t, tx.Transaction.ContextInputs,
		ledger.ContextInput(ledger.RewardInput{Index: 0}))
	require.Nil(t, intent.ManaRewards)
	h.chain.AssertCalled(t, "ManaRewards", mock.Anything,
		testOutputID(1), testSlot)
}

// TestCreateTransactionChainError checks chain failures are returned.
func TestCreateTransactionChainError(t *testing.T) {
	t.Parallel()

	errChain := errors.New("chain unavailable")
	chain := &mockChainSource{}
	chain.On("ProtocolParameters", mock.Anything).Return(nil, errChain)
	chain.On("CurrentSlot", mock.Anything).Return(testSlot, nil)
	chain.On("LatestCommitment", mock.Anything).Return(
		ledger.SlotCommitmentID{Slot: 90}, nil,
	)
	chain.On("UnspentOutputs", mock.Anything, mock.Anything).Return(
		nil, nil,
	)

	w, err := New(Config{
		Chain: chain,
		Accounts: map[string][]ledger.Address{
			testAccount: {testOwner},
		},
	})
	require.NoError(t, err)

	_, err = w.CreateTransaction(context.Background(), &TxRequest{
		Account: testAccount,
		Intent:  txauthor.NewTxIntent(),
	})
	require.ErrorIs(t, err, errChain)

	_, err = w.CreateTransaction(context.Background(), &TxRequest{
		Account: "unknown",
		Intent:  txauthor.NewTxIntent(),
	})
	require.ErrorIs(t, err, ErrAccountNotFound)
}

// TestCreateTransactionAccountLock checks a build waits for the account
// lock and gives up when its context is done.
func TestCreateTransactionAccountLock(t *testing.T) {
	t.Parallel()

	h := newTestHarness(t, testInput(1, basicOutput(2_000_000, testOwner)))

	lock := h.wallet.accountLocks[testAccount]
	require.True(t, lock.TryAcquire(1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.wallet.CreateTransaction(ctx, &TxRequest{
		Account: testAccount,
		Intent: txauthor.NewTxIntent(
			basicOutput(1_000_000, testRecipient),
		),
	})
	require.ErrorIs(t, err, context.Canceled)
	h.chain.AssertNotCalled(t, "UnspentOutputs", mock.Anything,
		mock.Anything)

	lock.Release(1)
}

func TestCreateTransactionStopped(t *testing.T) {
	t.Parallel()

	h := newTestHarness(t)
	h.wallet.Start()
	h.wallet.Stop()

	_, err := h.wallet.CreateTransaction(context.Background(), &TxRequest{
		Account: testAccount,
		Intent:  txauthor.NewTxIntent(),
	})
	require.ErrorIs(t, err, ErrWalletShuttingDown)
}

func TestRewardClaimants(t *testing.T) {
	t.Parallel()

	stakingAccount := func(id byte) *ledger.AccountOutput {
		return &ledger.AccountOutput{
			Amount:    1_000_000,
			AccountID: ledger.AccountID{id},
			UnlockConditions: ledger.UnlockConditions{
				Address: testOwner,
			},
			Features: ledger.Features{
				Staking: &ledger.StakingFeature{
					StakedAmount: 500_000,
					EndEpoch:     10,
				},
			},
		}
	}
	delegation := func(id byte) *ledger.DelegationOutput {
		return &ledger.DelegationOutput{
			Amount:       1_000_000,
			DelegationID: ledger.DelegationID{id},
			Validator:    ledger.AccountAddress{0x77},
			UnlockConditions: ledger.UnlockConditions{
				Address: testOwner,
			},
		}
	}

	available := []*txauthor.InputSigningData{
		testInput(1, delegation(0x01)),
		testInput(2, delegation(0x02)),
		testInput(3, delegation(0x03)),
		testInput(4, stakingAccount(0x04)),
		testInput(5, stakingAccount(0x05)),
		testInput(6, stakingAccount(0x06)),
		testInput(7, basicOutput(1_000_000, testOwner)),
		testInput(8, delegation(0x08)),
	}

	intent := txauthor.NewTxIntent()
	intent.Burn = &txauthor.Burn{
		Delegations: []ledger.DelegationID{{0x01}, {0x08}},
		Accounts:    []ledger.AccountID{{0x04}},
	}
	intent.RequiredInputs = []ledger.OutputID{
		testOutputID(2), testOutputID(5), testOutputID(6),
		testOutputID(7),
	}
	intent.Transitions = &txauthor.Transitions{
		Accounts: map[ledger.AccountID]txauthor.AccountChange{
			{0x05}: txauthor.EndStaking{},
			{0x06}: txauthor.ExtendStaking{AdditionalEpochs: 5},
		},
	}
	intent.ManaRewards = map[ledger.OutputID]uint64{testOutputID(8): 10}

	require.Equal(t, []ledger.OutputID{
		testOutputID(1), testOutputID(2), testOutputID(4),
		testOutputID(5),
	}, rewardClaimants(available, intent))
}
