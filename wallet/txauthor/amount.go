// Copyright (c) 2024 The txwallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txauthor

import (
	"math/bits"

	"github.com/novaledger/txwallet/ledger"
	"github.com/novaledger/txwallet/wallet/txsizes"
)

// addU64 adds two base token amounts.
func addU64(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, ErrAmountOverflow
	}
	return sum, nil
}

type addressAmount struct {
	address ledger.Address
	amount  uint64
}

// storageDepositReturns returns the storage deposit the selected inputs owe
// per return address, in selection order.
func (b *TransactionBuilder) storageDepositReturns() ([]addressAmount, error) {
	var owed []addressAmount
	for _, input := range b.selected {
		sdr := input.Output.UnlockConditionSet().StorageDepositReturnDue(
			b.commitment.Slot, b.params.MinCommittableAge,
		)
		if sdr == nil {
			continue
		}

		i := 0
		for ; i < len(owed); i++ {
			if owed[i].address == sdr.ReturnAddress {
				break
			}
		}
		if i == len(owed) {
			owed = append(owed, addressAmount{address: sdr.ReturnAddress})
		}

		sum, err := addU64(owed[i].amount, sdr.Amount)
		if err != nil {
			return nil, err
		}
		owed[i].amount = sum
	}
	return owed, nil
}

// coveredReturn returns the amount the provided outputs already send to
// addr in simple deposits.
func (b *TransactionBuilder) coveredReturn(addr ledger.Address) uint64 {
	var covered uint64
	for _, o := range b.providedOutputs {
		if ledger.IsSimpleDeposit(o, addr) {
			covered += o.BaseTokenAmount()
		}
	}
	return covered
}

// amountSums returns the base tokens of the selected inputs and of the
// outputs, including storage deposit returns that still have to be created.
func (b *TransactionBuilder) amountSums() (uint64, uint64, error) {
	var in, out uint64
	var err error
	for _, input := range b.selected {
		in, err = addU64(in, input.Output.BaseTokenAmount())
		if err != nil {
			return 0, 0, err
		}
	}
	for _, o := range b.nonRemainderOutputs() {
		out, err = addU64(out, o.BaseTokenAmount())
		if err != nil {
			return 0, 0, err
		}
	}

	owed, err := b.storageDepositReturns()
	if err != nil {
		return 0, 0, err
	}
	for _, r := range owed {
		covered := b.coveredReturn(r.address)
		if r.amount <= covered {
			continue
		}
		out, err = addU64(out, r.amount-covered)
		if err != nil {
			return 0, 0, err
		}
	}

	return in, out, nil
}

// requiredRemainderAmount returns the storage deposit of the remainder
// outputs the current selection would need, whether native tokens have to
// be sent to a remainder, and whether surplus mana has no output to go to.
func (b *TransactionBuilder) requiredRemainderAmount() (uint64, bool, bool, error) {
	addr, ok := b.remainderAddress()
	if !ok {
		addr = ledger.Ed25519Address{}
	}

	surplus, err := b.nativeTokenSurplus()
	if err != nil {
		return 0, false, false, err
	}

	var amount uint64
	if len(surplus) > 0 {
		for _, chunk := range chunkNativeTokens(surplus) {
			deposit, err := txsizes.MinimumAmount(&ledger.BasicOutput{
				NativeTokens: chunk,
				UnlockConditions: ledger.UnlockConditions{
					Address: addr,
				},
			}, b.params.StorageScore)
			if err != nil {
				return 0, false, false, err
			}
			if amount, err = addU64(amount, deposit); err != nil {
				return 0, false, false, err
			}
		}
	} else {
		amount, err = txsizes.SimpleDepositAmount(addr, b.params.StorageScore)
		if err != nil {
			return 0, false, false, err
		}
	}

	manaIn, manaOut, err := b.manaSums()
	if err != nil {
		return 0, false, false, err
	}
	if b.burn.burnsMana() {
		manaOut, err = addU64(manaOut, b.initialManaExcess)
		if err != nil {
			return 0, false, false, err
		}
	}
	manaRemainder := manaIn > manaOut &&
		(!ok || b.manaFoldTarget(addr) == nil)

	return amount, len(surplus) > 0, manaRemainder, nil
}

// amountBalance returns the base tokens of the inputs and the base tokens
// the outputs need, including the deposit of a remainder when surplus value
// cannot be added to an existing output.
func (b *TransactionBuilder) amountBalance() (uint64, uint64, error) {
	in, out, err := b.amountSums()
	if err != nil {
		return 0, 0, err
	}
	remainder, nativeTokens, mana, err := b.requiredRemainderAmount()
	if err != nil {
		return 0, 0, err
	}

	switch {
	case in > out:
		diff := in - out
		if remainder > diff &&
			(nativeTokens || mana || !b.amountFoldable()) {

			out, err = addU64(out, remainder)
			if err != nil {
				return 0, 0, err
			}
		}

	case nativeTokens || mana:
		out, err = addU64(out, remainder)
		if err != nil {
			return 0, 0, err
		}
	}

	return in, out, nil
}

// amountFoldable reports whether surplus base tokens can be added to an
// existing output instead of a new remainder.
func (b *TransactionBuilder) amountFoldable() bool {
	addr, ok := b.remainderAddress()
	return ok && b.amountFoldTarget(addr) != nil
}

// fulfillAmountRequirement selects inputs until the inputs cover the base
// tokens of the outputs and the remainder.
func (b *TransactionBuilder) fulfillAmountRequirement() ([]*InputSigningData, error) {
	in, out, err := b.amountBalance()
	if err != nil {
		return nil, err
	}
	if in >= out {
		return nil, nil
	}

	if !b.allowAdditionalInputSelection {
		return nil, &AdditionalInputsRequiredError{
			Requirement: AmountRequirement{},
		}
	}

	log.Debugf("Missing %d base tokens, selecting more inputs", out-in)

	var picked []*InputSigningData
	missing := out - in
	for missing > 0 {
		i, net := b.nextInputForAmount(missing)
		if i < 0 {
			return nil, &InsufficientAmountError{
				Found:    out - missing,
				Required: out,
			}
		}
		picked = append(picked, b.takeAvailable(i))
		if net >= missing {
			break
		}
		missing -= net
	}

	return picked, nil
}

// nextInputForAmount returns the index of the available input that best
// covers missing base tokens and the amount it contributes.  Inputs that
// cover the amount on their own are preferred, then inputs without native
// tokens.  Among covering inputs the smallest wins, otherwise the largest.
func (b *TransactionBuilder) nextInputForAmount(missing uint64) (int, uint64) {
	best, bestNet, bestTokens := -1, uint64(0), false
	for i, input := range b.available {
		net, ok := b.netAmount(input)
		if !ok || net == 0 {
			continue
		}
		tokens := len(input.Output.NativeTokenList()) > 0
		if best < 0 || betterAmountCandidate(
			net, tokens, bestNet, bestTokens, missing,
		) {

			best, bestNet, bestTokens = i, net, tokens
		}
	}
	return best, bestNet
}

func betterAmountCandidate(net uint64, tokens bool, bestNet uint64,
	bestTokens bool, missing uint64) bool {

	covers, bestCovers := net >= missing, bestNet >= missing
	switch {
	case covers != bestCovers:
		return covers
	case tokens != bestTokens:
		return !tokens
	case covers:
		return net < bestNet
	default:
		return net > bestNet
	}
}

// netAmount returns the base tokens an input frees up once the deposit of
// its chain transition and any storage deposit return are paid.
func (b *TransactionBuilder) netAmount(input *InputSigningData) (uint64, bool) {
	switch input.Output.Kind() {
	case ledger.OutputBasic, ledger.OutputAccount, ledger.OutputFoundry,
		ledger.OutputNft:

	default:
		return 0, false
	}

	next, err := b.transition(input)
	if err != nil {
		return 0, false
	}

	var locked uint64
	if next != nil {
		locked = next.BaseTokenAmount()
	}
	sdr := input.Output.UnlockConditionSet().StorageDepositReturnDue(
		b.commitment.Slot, b.params.MinCommittableAge,
	)
	if sdr != nil {
		locked += sdr.Amount
	}

	amount := input.Output.BaseTokenAmount()
	if amount <= locked {
		return 0, true
	}
	return amount - locked, true
}
