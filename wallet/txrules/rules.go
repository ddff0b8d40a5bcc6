// Copyright (c) 2016 The btcsuite developers
// Copyright (c) 2024 The txwallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txrules

import (
	"errors"
	"fmt"
	"math/bits"

	"github.com/novaledger/txwallet/ledger"
	"github.com/novaledger/txwallet/wallet/txsizes"
)

// Transaction count bounds.
const (
	MinInputCount  = 1
	MaxInputCount  = 128
	MinOutputCount = 1
	MaxOutputCount = 128
)

// Transaction rule violations
var (
	ErrAmountExceedsSupply = errors.New("output amount exceeds token supply")
	ErrBelowStorageDeposit = errors.New("output amount below storage deposit")
	ErrReturnBelowDeposit  = errors.New("storage deposit return below minimum")
	ErrReturnExceedsAmount = errors.New("storage deposit return exceeds output amount")
	ErrManaCostOverflow    = errors.New("mana cost overflows u64")
)

// IsBelowStorageDeposit determines whether an output holds fewer base tokens
// than its storage deposit.
func IsBelowStorageDeposit(output ledger.Output,
	params ledger.StorageScoreParameters) (bool, error) {

	minAmount, err := txsizes.MinimumAmount(output, params)
	if err != nil {
		return false, err
	}
	return output.BaseTokenAmount() < minAmount, nil
}

// CheckOutput performs the syntactic and storage deposit checks on a
// transaction output.
func CheckOutput(output ledger.Output, params *ledger.ProtocolParameters) error {
	if err := output.Validate(); err != nil {
		return err
	}
	if output.BaseTokenAmount() > params.TokenSupply {
		return ErrAmountExceedsSupply
	}

	below, err := IsBelowStorageDeposit(output, params.StorageScore)
	if err != nil {
		return err
	}
	if below {
		return ErrBelowStorageDeposit
	}

	sdr := output.UnlockConditionSet().StorageDepositReturn
	if sdr == nil {
		return nil
	}
	minReturn, err := txsizes.SimpleDepositAmount(
		sdr.ReturnAddress, params.StorageScore,
	)
	if err != nil {
		return err
	}
	switch {
	case sdr.Amount < minReturn:
		return fmt.Errorf("%w: %d < %d", ErrReturnBelowDeposit,
			sdr.Amount, minReturn)
	case sdr.Amount > output.BaseTokenAmount():
		return ErrReturnExceedsAmount
	}
	return nil
}

// ValidInputCount reports whether n inputs are allowed.
func ValidInputCount(n int) bool {
	return n >= MinInputCount && n <= MaxInputCount
}

// ValidOutputCount reports whether n outputs are allowed.
func ValidOutputCount(n int) bool {
	return n >= MinOutputCount && n <= MaxOutputCount
}

// ManaCost calculates the mana a transaction with the given work score costs
// at the reference mana cost.
func ManaCost(workScore, referenceManaCost uint64) (uint64, error) {
	hi, lo := bits.Mul64(workScore, referenceManaCost)
	if hi != 0 {
		return 0, ErrManaCostOverflow
	}
	return lo, nil
}
