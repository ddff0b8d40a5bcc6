// Copyright (c) 2024 The txwallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txauthor

import (
	"github.com/novaledger/txwallet/ledger"
	"github.com/novaledger/txwallet/wallet/txsizes"
)

// remainderState holds the outputs derived from the balance of the current
// selection.  It is recomputed from scratch by updateRemainders.
type remainderState struct {
	returns    []ledger.Output
	remainders []RemainderData

	// foldedAmount and foldedMana are surplus added to existing outputs
	// instead of a new remainder.
	foldedAmount map[ledger.Output]uint64
	foldedMana   map[ledger.Output]uint64
}

func (b *TransactionBuilder) resetRemainders() {
	b.remainder = remainderState{}
}

// remainderAddress returns the address surplus value is sent to: the
// custom address, or the first ed25519 address unlocking a selected input.
func (b *TransactionBuilder) remainderAddress() (ledger.Address, bool) {
	if custom, ok := b.remainderStrategy.(CustomAddress); ok &&
		custom.Address != nil {

		return custom.Address, true
	}

	for _, input := range b.selected {
		required, ok := b.requiredAddress(input)
		if !ok {
			continue
		}
		if backing, ok := ledger.BackingEd25519(required); ok {
			return backing, true
		}
	}
	return nil, false
}

// foldable reports whether surplus may be added to o: it must be owned by
// addr without time based or return conditions.
func (b *TransactionBuilder) foldable(o ledger.Output, addr ledger.Address) bool {
	switch o.Kind() {
	case ledger.OutputBasic, ledger.OutputAccount, ledger.OutputNft:
	default:
		return false
	}

	u := o.UnlockConditionSet()
	if u.Expiration != nil || u.Timelock != nil ||
		u.StorageDepositReturn != nil {

		return false
	}
	required, ok := u.RequiredAddress(
		b.commitment.Slot, b.params.CommittableAgeRange(),
	)
	return ok && required == addr
}

// amountFoldTarget returns the output surplus base tokens can be added to.
// Provided outputs are only eligible when micro amounts are allowed.
func (b *TransactionBuilder) amountFoldTarget(addr ledger.Address) ledger.Output {
	for _, o := range b.addedOutputs {
		if b.foldable(o, addr) {
			return o
		}
	}
	if !b.allowMicroAmount {
		return nil
	}
	for _, o := range b.providedOutputs {
		if b.foldable(o, addr) {
			return o
		}
	}
	return nil
}

// manaFoldTarget returns the transitioned output surplus mana can be added
// to.
func (b *TransactionBuilder) manaFoldTarget(addr ledger.Address) ledger.Output {
	for _, o := range b.addedOutputs {
		if b.foldable(o, addr) {
			return o
		}
	}
	return nil
}

// updateRemainders recomputes the storage deposit returns and the
// remainders of the current selection.
func (b *TransactionBuilder) updateRemainders() error {
	b.resetRemainders()

	owed, err := b.storageDepositReturns()
	if err != nil {
		return err
	}
	for _, r := range owed {
		covered := b.coveredReturn(r.address)
		if r.amount <= covered {
			continue
		}
		b.remainder.returns = append(b.remainder.returns,
			&ledger.BasicOutput{
				Amount: r.amount - covered,
				UnlockConditions: ledger.UnlockConditions{
					Address: r.address,
				},
			})
	}

	in, out, err := b.amountSums()
	if err != nil {
		return err
	}
	if in < out {
		return &InsufficientAmountError{Found: in, Required: out}
	}
	amountDiff := in - out

	manaIn, manaOut, err := b.manaSums()
	if err != nil {
		return err
	}
	if manaIn < manaOut {
		return b.insufficientManaError(manaIn, manaOut, nil)
	}
	manaDiff := manaIn - manaOut
	if b.burn.burnsMana() {
		if manaDiff > b.initialManaExcess {
			manaDiff -= b.initialManaExcess
		} else {
			manaDiff = 0
		}
	}

	surplus, err := b.nativeTokenSurplus()
	if err != nil {
		return err
	}

	if amountDiff == 0 && manaDiff == 0 && len(surplus) == 0 {
		return nil
	}

	addr, ok := b.remainderAddress()
	if !ok {
		return ErrMissingInputWithEd25519Address
	}

	// Without native tokens, surplus goes into existing outputs when
	// possible.  Mana can only be folded into transitioned outputs, so a
	// remainder is needed whenever mana has nowhere else to go.
	if len(surplus) == 0 {
		manaTarget := b.manaFoldTarget(addr)
		if manaDiff == 0 || manaTarget != nil {
			if amountDiff > 0 {
				if target := b.amountFoldTarget(addr); target != nil {
					b.foldAmount(target, amountDiff)
					amountDiff = 0
				}
			}
			if manaDiff > 0 {
				b.foldMana(manaTarget, manaDiff)
				manaDiff = 0
			}
			if amountDiff == 0 {
				return nil
			}
		}
	}

	return b.createRemainders(addr, in, amountDiff, manaDiff, surplus)
}

func (b *TransactionBuilder) foldAmount(o ledger.Output, amount uint64) {
	if b.remainder.foldedAmount == nil {
		b.remainder.foldedAmount = make(map[ledger.Output]uint64)
	}
	b.remainder.foldedAmount[o] += amount
}

func (b *TransactionBuilder) foldMana(o ledger.Output, mana uint64) {
	if b.remainder.foldedMana == nil {
		b.remainder.foldedMana = make(map[ledger.Output]uint64)
	}
	b.remainder.foldedMana[o] += mana
}

// createRemainders sends surplus to new basic outputs owned by addr.  Every
// native token chunk but the last gets its own output holding the storage
// deposit; the last output takes the remaining base tokens and the mana.
func (b *TransactionBuilder) createRemainders(addr ledger.Address, in,
	amount, mana uint64, tokens ledger.NativeTokens) error {

	chunks := chunkNativeTokens(tokens)
	var last ledger.NativeTokens
	if len(chunks) > 0 {
		last = chunks[len(chunks)-1]
		chunks = chunks[:len(chunks)-1]
	}

	remaining := amount
	for _, chunk := range chunks {
		o := &ledger.BasicOutput{
			NativeTokens: chunk.Clone(),
			UnlockConditions: ledger.UnlockConditions{
				Address: addr,
			},
		}
		deposit, err := txsizes.MinimumAmount(o, b.params.StorageScore)
		if err != nil {
			return err
		}
		if remaining < deposit {
			return &InsufficientAmountError{
				Found:    in,
				Required: in - remaining + deposit,
			}
		}
		o.Amount = deposit
		remaining -= deposit
		b.remainder.remainders = append(b.remainder.remainders,
			RemainderData{Output: o, Address: addr})
	}

	o := &ledger.BasicOutput{
		Amount:       remaining,
		Mana:         mana,
		NativeTokens: last.Clone(),
		UnlockConditions: ledger.UnlockConditions{
			Address: addr,
		},
	}
	deposit, err := txsizes.MinimumAmount(o, b.params.StorageScore)
	if err != nil {
		return err
	}
	if remaining < deposit {
		return &InsufficientAmountError{
			Found:    in,
			Required: in - remaining + deposit,
		}
	}
	b.remainder.remainders = append(b.remainder.remainders,
		RemainderData{Output: o, Address: addr})

	log.Debugf("Created %d remainder outputs for %s",
		len(b.remainder.remainders), addressString(addr))

	return nil
}

// allOutputs returns the outputs of the transaction: provided outputs,
// transitioned outputs, storage deposit returns and remainders.  Outputs
// receiving folded surplus are copied.
func (b *TransactionBuilder) allOutputs() []ledger.Output {
	nonRemainder := b.nonRemainderOutputs()
	outputs := make([]ledger.Output, 0, len(nonRemainder)+
		len(b.remainder.returns)+len(b.remainder.remainders))

	for _, o := range nonRemainder {
		amount, foldAmount := b.remainder.foldedAmount[o]
		mana, foldMana := b.remainder.foldedMana[o]
		if foldAmount || foldMana {
			o = o.Clone()
			o.SetBaseTokenAmount(o.BaseTokenAmount() + amount)
			o.SetStoredMana(o.StoredMana() + mana)
		}
		outputs = append(outputs, o)
	}
	outputs = append(outputs, b.remainder.returns...)
	for _, r := range b.remainder.remainders {
		outputs = append(outputs, r.Output)
	}
	return outputs
}
