// Copyright (c) 2024 The txwallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txrules

import (
	"math"
	"testing"

	"github.com/novaledger/txwallet/ledger"
	"github.com/novaledger/txwallet/wallet/txsizes"
	"github.com/stretchr/testify/require"
)

func TestCheckOutput(t *testing.T) {
	t.Parallel()

	params := ledger.DefaultProtocolParameters()
	owner := ledger.Ed25519Address{1}

	deposit, err := txsizes.SimpleDepositAmount(owner, params.StorageScore)
	require.NoError(t, err)

	withReturn := func(amount, ret uint64) *ledger.BasicOutput {
		return &ledger.BasicOutput{
			Amount: amount,
			UnlockConditions: ledger.UnlockConditions{
				Address: owner,
				StorageDepositReturn: &ledger.StorageDepositReturn{
					ReturnAddress: ledger.Ed25519Address{2},
					Amount:        ret,
				},
			},
		}
	}

	tests := []struct {
		name   string
		output ledger.Output
		err    error
	}{
		{
			name: "at deposit",
			output: &ledger.BasicOutput{
				Amount:           deposit,
				UnlockConditions: ledger.UnlockConditions{Address: owner},
			},
		},
		{
			name: "below deposit",
			output: &ledger.BasicOutput{
				Amount:           deposit - 1,
				UnlockConditions: ledger.UnlockConditions{Address: owner},
			},
			err: ErrBelowStorageDeposit,
		},
		{
			name: "exceeds supply",
			output: &ledger.BasicOutput{
				Amount:           math.MaxUint64,
				UnlockConditions: ledger.UnlockConditions{Address: owner},
			},
			err: ErrAmountExceedsSupply,
		},
		{
			name:   "missing address",
			output: &ledger.BasicOutput{Amount: deposit},
			err:    ledger.ErrMissingAddressCondition,
		},
		{
			name:   "return below deposit",
			output: withReturn(10*deposit, deposit-1),
			err:    ErrReturnBelowDeposit,
		},
		{
			name:   "return exceeds amount",
			output: withReturn(10*deposit, 11*deposit),
			err:    ErrReturnExceedsAmount,
		},
		{
			name:   "valid return",
			output: withReturn(10*deposit, deposit),
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			err := CheckOutput(test.output, params)
			if test.err == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, test.err)
		})
	}
}

func TestCountBounds(t *testing.T) {
	t.Parallel()

	require.False(t, ValidInputCount(0))
	require.True(t, ValidInputCount(1))
	require.True(t, ValidInputCount(MaxInputCount))
	require.False(t, ValidInputCount(MaxInputCount+1))

	require.False(t, ValidOutputCount(0))
	require.True(t, ValidOutputCount(MaxOutputCount))
	require.False(t, ValidOutputCount(MaxOutputCount+1))
}

func TestManaCost(t *testing.T) {
	t.Parallel()

	cost, err := ManaCost(10, 500)
	require.NoError(t, err)
	require.EqualValues(t, 5000, cost)

	_, err = ManaCost(math.MaxUint64, 2)
	require.ErrorIs(t, err, ErrManaCostOverflow)
}
