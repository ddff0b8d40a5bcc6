// Copyright (c) 2016 The btcsuite developers
// Copyright (c) 2024 The txwallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txsizes

import (
	"math/bits"

	"github.com/novaledger/txwallet/ledger"
)

// Fixed storage and signature size components.
const (
	// BlockIDSize is the size of the id of the block an output was
	// included in. The node stores it with every output.
	BlockIDSize = ledger.IDLength + 4

	// OutputMetadataSize is the per output metadata a node stores in
	// addition to the serialized output. It is calculated as:
	//
	//   - 34 bytes output id
	//   - 36 bytes block id
	//   - 4 bytes slot booked
	OutputMetadataSize = ledger.OutputIDLength + BlockIDSize + 4

	// Ed25519SignatureUnlockSize is the size of an unlock that carries an
	// ed25519 signature. It is calculated as:
	//
	//   - 1 byte unlock kind
	//   - 1 byte signature kind
	//   - 32 bytes public key
	//   - 64 bytes signature
	Ed25519SignatureUnlockSize = 1 + 1 + 32 + 64

	// ReferenceUnlockSize is the size of an unlock that points at an
	// earlier signature or chain unlock. It is calculated as:
	//
	//   - 1 byte unlock kind
	//   - 2 bytes unlock index
	ReferenceUnlockSize = 1 + 2
)

// StorageScore returns the storage score of an output: its metadata
// overhead plus its weighted serialized size plus the offsets charged for
// block issuer keys, staking and delegation.
func StorageScore(o ledger.Output,
	params ledger.StorageScoreParameters) (uint64, error) {

	serialized, err := ledger.SerializeOutput(o)
	if err != nil {
		return 0, err
	}

	factor := uint64(params.FactorData)
	score := params.OffsetOutputOverhead +
		factor*uint64(OutputMetadataSize) +
		factor*uint64(len(serialized))

	if features := o.FeatureSet(); features != nil {
		if bi := features.BlockIssuer; bi != nil {
			score += uint64(len(bi.Keys)) *
				params.OffsetEd25519BlockIssuerKey
		}
		if features.Staking != nil {
			score += params.OffsetStakingFeature
		}
	}
	if o.Kind() == ledger.OutputDelegation {
		score += params.OffsetDelegation
	}

	return score, nil
}

// MinimumAmount returns the smallest base token amount the output must hold
// to cover its storage deposit.
func MinimumAmount(o ledger.Output,
	params ledger.StorageScoreParameters) (uint64, error) {

	score, err := StorageScore(o, params)
	if err != nil {
		return 0, err
	}

	hi, lo := bits.Mul64(score, params.StorageCost)
	if hi != 0 {
		return 0, ErrScoreOverflow
	}
	return lo, nil
}

// SimpleDepositAmount returns the minimum amount of a basic output that only
// carries an address unlock condition for addr.
func SimpleDepositAmount(addr ledger.Address,
	params ledger.StorageScoreParameters) (uint64, error) {

	return MinimumAmount(&ledger.BasicOutput{
		UnlockConditions: ledger.UnlockConditions{Address: addr},
	}, params)
}

// EstimateWorkScore returns the work score of a transaction carrying the
// given number of ed25519 signatures. The block the transaction is issued
// in is included.
func EstimateWorkScore(tx *ledger.Transaction, signatures int,
	params ledger.WorkScoreParameters) uint64 {

	score := uint64(params.Block)
	score += uint64(len(tx.Inputs)) * uint64(params.Input)
	score += uint64(len(tx.ContextInputs)) * uint64(params.ContextInput)
	score += uint64(len(tx.Allotments)) * uint64(params.Allotment)
	score += uint64(signatures) * uint64(params.SignatureEd25519)

	for _, o := range tx.Outputs {
		score += uint64(params.Output)
		score += uint64(len(o.NativeTokenList())) *
			uint64(params.NativeToken)

		if features := o.FeatureSet(); features != nil {
			if features.BlockIssuer != nil {
				score += uint64(params.BlockIssuer)
			}
			if features.Staking != nil {
				score += uint64(params.Staking)
			}
		}
	}

	return score
}
