// Copyright (c) 2024 The txwallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"context"
	"fmt"
	"testing"

	"github.com/novaledger/txwallet/ledger"
	"github.com/novaledger/txwallet/wallet/txauthor"
	"github.com/stretchr/testify/require"
)

// benchmarkSizes are the wallet sizes, in unspent outputs, the benchmarks
// run against.
var benchmarkSizes = []int{8, 64, 512}

// benchmarkInputs returns n unspent outputs of increasing amount owned by
// testOwner.
func benchmarkInputs(n int) []*txauthor.InputSigningData {
	inputs := make([]*txauthor.InputSigningData, n)
	for i := range inputs {
		inputs[i] = &txauthor.InputSigningData{
			Output: basicOutput(
				uint64(i+1)*1_000_000, testOwner,
			),
			OutputID: ledger.NewOutputID(
				ledger.TransactionID{byte(i), byte(i >> 8)}, 0,
			),
			Metadata: txauthor.OutputMetadata{IncludedSlot: testSlot},
		}
	}
	return inputs
}

// BenchmarkListUnspent benchmarks listing and sorting the unspent outputs of
// an account.
func BenchmarkListUnspent(b *testing.B) {
	for _, size := range benchmarkSizes {
		b.Run(fmt.Sprintf("%d-utxos", size), func(b *testing.B) {
			h := newTestHarness(b, benchmarkInputs(size)...)
			query := UtxoQuery{Account: testAccount}

			b.ReportAllocs()
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				utxos, err := h.wallet.ListUnspent(
					context.Background(), query,
				)
				require.NoError(b, err)
				require.Len(b, utxos, size)
			}
		})
	}
}

// BenchmarkCreateTransaction benchmarks building a single payment from
// wallets of different sizes.  Each iteration uses a fresh lock id so the
// inputs leased by earlier iterations are released first.
func BenchmarkCreateTransaction(b *testing.B) {
	for _, size := range benchmarkSizes {
		b.Run(fmt.Sprintf("%d-utxos", size), func(b *testing.B) {
			h := newTestHarness(b, benchmarkInputs(size)...)
			lock := LockID{0x01}

			b.ReportAllocs()
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				intent := txauthor.NewTxIntent(
					basicOutput(1_500_000, testRecipient),
				)
				tx, err := h.wallet.CreateTransaction(
					context.Background(), &TxRequest{
						Account: testAccount,
						Intent:  intent,
						LockID:  lock,
					},
				)
				require.NoError(b, err)

				for _, input := range tx.Inputs {
					err := h.wallet.ReleaseOutput(
						context.Background(), lock,
						input.OutputID,
					)
					require.NoError(b, err)
				}
			}
		})
	}
}
