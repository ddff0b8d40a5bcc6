// Copyright (c) 2024 The txwallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txsizes

import (
	"math/big"
	"testing"

	"github.com/novaledger/txwallet/ledger"
	"github.com/stretchr/testify/require"
)

func basicOutput(amount uint64) *ledger.BasicOutput {
	return &ledger.BasicOutput{
		Amount: amount,
		UnlockConditions: ledger.UnlockConditions{
			Address: ledger.Ed25519Address{1},
		},
	}
}

func TestMinimumAmountScalesWithCost(t *testing.T) {
	t.Parallel()

	params := ledger.DefaultProtocolParameters().StorageScore
	out := basicOutput(0)

	score, err := StorageScore(out, params)
	require.NoError(t, err)
	require.Greater(t, score, params.OffsetOutputOverhead)

	minAmount, err := MinimumAmount(out, params)
	require.NoError(t, err)
	require.Equal(t, score*params.StorageCost, minAmount)

	simple, err := SimpleDepositAmount(ledger.Ed25519Address{1}, params)
	require.NoError(t, err)
	require.Equal(t, minAmount, simple)

	params.StorageCost *= 2
	doubled, err := MinimumAmount(out, params)
	require.NoError(t, err)
	require.Equal(t, 2*minAmount, doubled)
}

func TestStorageScoreOffsets(t *testing.T) {
	t.Parallel()

	params := ledger.DefaultProtocolParameters().StorageScore
	params.FactorData = 0

	account := &ledger.AccountOutput{
		UnlockConditions: ledger.UnlockConditions{
			Address: ledger.Ed25519Address{1},
		},
	}
	plain, err := StorageScore(account, params)
	require.NoError(t, err)
	require.Equal(t, params.OffsetOutputOverhead, plain)

	account.Features.BlockIssuer = &ledger.BlockIssuerFeature{
		Keys: []ledger.BlockIssuerKey{{1}, {2}},
	}
	account.Features.Staking = &ledger.StakingFeature{StakedAmount: 1}
	issuer, err := StorageScore(account, params)
	require.NoError(t, err)
	require.Equal(t, plain+2*params.OffsetEd25519BlockIssuerKey+
		params.OffsetStakingFeature, issuer)

	delegation := &ledger.DelegationOutput{
		Validator: ledger.AccountAddress{1},
		UnlockConditions: ledger.UnlockConditions{
			Address: ledger.Ed25519Address{1},
		},
	}
	score, err := StorageScore(delegation, params)
	require.NoError(t, err)
	require.Equal(t, params.OffsetOutputOverhead+params.OffsetDelegation,
		score)
}

func TestMinimumAmountGrowsWithTokens(t *testing.T) {
	t.Parallel()

	params := ledger.DefaultProtocolParameters().StorageScore
	plain, err := MinimumAmount(basicOutput(0), params)
	require.NoError(t, err)

	withToken := basicOutput(0)
	withToken.NativeTokens = ledger.NativeTokens{{
		ID:     ledger.NewFoundryID(ledger.AccountID{1}, 1, 0),
		Amount: big.NewInt(1),
	}}
	tokens, err := MinimumAmount(withToken, params)
	require.NoError(t, err)
	require.Greater(t, tokens, plain)
}

func TestEstimateWorkScore(t *testing.T) {
	t.Parallel()

	params := ledger.DefaultProtocolParameters().WorkScore
	out := basicOutput(100)
	out.NativeTokens = ledger.NativeTokens{{
		ID:     ledger.NewFoundryID(ledger.AccountID{1}, 1, 0),
		Amount: big.NewInt(1),
	}}

	tx := &ledger.Transaction{
		Inputs: []ledger.UTXOInput{{}},
		ContextInputs: []ledger.ContextInput{
			ledger.CommitmentInput{},
		},
		Outputs: []ledger.Output{out},
	}

	// block + input + context input + two signatures + output + token.
	require.EqualValues(t, 7, EstimateWorkScore(tx, 2, params))

	tx.Allotments = []ledger.ManaAllotment{{Mana: 1}}
	require.EqualValues(t, 8, EstimateWorkScore(tx, 2, params))
}
