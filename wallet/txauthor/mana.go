// Copyright (c) 2024 The txwallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txauthor

import (
	"math/bits"

	"github.com/novaledger/txwallet/ledger"
	"github.com/novaledger/txwallet/wallet/txrules"
	"github.com/novaledger/txwallet/wallet/txsizes"
)

func addMana(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, ledger.ErrManaOverflow
	}
	return sum, nil
}

// generationAmount returns the base tokens of an input that generate mana,
// everything above its storage deposit.
func (b *TransactionBuilder) generationAmount(input *InputSigningData) (uint64, error) {
	deposit, err := txsizes.MinimumAmount(input.Output, b.params.StorageScore)
	if err != nil {
		return 0, err
	}
	amount := input.Output.BaseTokenAmount()
	if amount <= deposit {
		return 0, nil
	}
	return amount - deposit, nil
}

// generatedMana returns the mana an input generated between its inclusion
// and the creation slot.
func (b *TransactionBuilder) generatedMana(input *InputSigningData) (uint64, error) {
	amount, err := b.generationAmount(input)
	if err != nil {
		return 0, err
	}
	return b.params.GeneratedMana(
		amount, input.Metadata.IncludedSlot, b.creationSlot,
	)
}

// inputMana returns the stored mana of an input, its generated mana unless
// excluded, and the rewards it claims.
func (b *TransactionBuilder) inputMana(input *InputSigningData,
	includeGenerated bool) (uint64, error) {

	total := input.Output.StoredMana()
	if includeGenerated {
		generated, err := b.generatedMana(input)
		if err != nil {
			return 0, err
		}
		if total, err = addMana(total, generated); err != nil {
			return 0, err
		}
	}
	return addMana(total, b.manaRewards[input.OutputID])
}

// manaSums returns the mana of the selected inputs and the mana the outputs
// and allotments need.
func (b *TransactionBuilder) manaSums() (uint64, uint64, error) {
	includeGenerated := !b.burn.burnsGeneratedMana()

	var in, out uint64
	var err error
	for _, input := range b.selected {
		mana, err := b.inputMana(input, includeGenerated)
		if err != nil {
			return 0, 0, err
		}
		if in, err = addMana(in, mana); err != nil {
			return 0, 0, err
		}
	}
	for _, o := range b.nonRemainderOutputs() {
		if out, err = addMana(out, o.StoredMana()); err != nil {
			return 0, 0, err
		}
	}
	for _, mana := range b.allotments {
		if out, err = addMana(out, mana); err != nil {
			return 0, 0, err
		}
	}
	return in, out, nil
}

// fulfillManaRequirement raises the allotment of the issuer to the cost of
// the transaction and selects inputs until the mana is covered.
func (b *TransactionBuilder) fulfillManaRequirement() ([]*InputSigningData, error) {
	if issuer, ok := b.issuer(); ok {
		required, err := b.requiredAllotment(issuer)
		if err != nil {
			return nil, err
		}
		if required > b.allotments[issuer] {
			log.Debugf("Raising allotment of issuer %v to %d", issuer,
				required)
			b.allotments[issuer] = required
		}
	}

	in, out, err := b.manaSums()
	if err != nil || in >= out {
		return nil, err
	}

	if !b.allowAdditionalInputSelection {
		return nil, &AdditionalInputsRequiredError{
			Requirement: ManaRequirement{},
		}
	}

	includeGenerated := !b.burn.burnsGeneratedMana()
	var picked []*InputSigningData
	for in < out {
		i, gain := b.nextInputForMana(includeGenerated)
		if i < 0 {
			return nil, b.insufficientManaError(in, out, picked)
		}
		picked = append(picked, b.takeAvailable(i))
		if in, err = addMana(in, gain); err != nil {
			return nil, err
		}
	}
	return picked, nil
}

// nextInputForMana returns the index of the available input contributing
// the most mana.
func (b *TransactionBuilder) nextInputForMana(includeGenerated bool) (int, uint64) {
	best, bestGain := -1, uint64(0)
	for i, input := range b.available {
		if input.Output.Kind() == ledger.OutputDelegation {
			continue
		}
		gain, err := b.inputMana(input, includeGenerated)
		if err != nil || gain <= bestGain {
			continue
		}
		best, bestGain = i, gain
	}
	return best, bestGain
}

// insufficientManaError reports a mana shortfall together with the number
// of slots the selected inputs need to generate the missing mana.
func (b *TransactionBuilder) insufficientManaError(found, required uint64,
	extra []*InputSigningData) error {

	var generating uint64
	for _, pool := range [][]*InputSigningData{b.selected, extra} {
		for _, input := range pool {
			amount, err := b.generationAmount(input)
			if err != nil {
				continue
			}
			generating, err = addU64(generating, amount)
			if err != nil {
				return err
			}
		}
	}

	return &InsufficientManaError{
		Found:    found,
		Required: required,
		SlotsRemaining: b.params.SlotsToGenerate(
			generating, required-found,
		),
	}
}

// requiredAllotment returns the mana the issuer has to be allotted to pay
// for the transaction as currently selected.
func (b *TransactionBuilder) requiredAllotment(issuer ledger.AccountID) (uint64, error) {
	if _, ok := b.allotments[issuer]; !ok {
		b.allotments[issuer] = 0
	}

	// Remainders only exist for a balanced selection.  While unbalanced
	// the estimate omits them and is raised again once they appear.
	if b.balanced() {
		if err := b.updateRemainders(); err != nil {
			b.resetRemainders()
		}
	} else {
		b.resetRemainders()
	}

	ordered := b.orderedInputs()
	outputs := b.allOutputs()
	draft := &ledger.Transaction{
		NetworkID:     b.params.NetworkID(),
		CreationSlot:  b.creationSlot,
		ContextInputs: b.deriveContextInputs(ordered, outputs),
		Inputs:        utxoInputs(ordered),
		Allotments:    b.allotmentList(),
		Capabilities:  b.capabilities,
		Outputs:       outputs,
		Payload:       b.payload,
	}

	workScore := txsizes.EstimateWorkScore(
		draft, b.signatureCount(), b.params.WorkScore,
	)
	return txrules.ManaCost(workScore, b.params.ReferenceManaCost)
}

// balanced reports whether the selected inputs cover the base tokens and
// mana of the outputs.
func (b *TransactionBuilder) balanced() bool {
	in, out, err := b.amountBalance()
	if err != nil || in < out {
		return false
	}
	manaIn, manaOut, err := b.manaSums()
	return err == nil && manaIn >= manaOut
}

// signatureCount returns the number of distinct ed25519 addresses that sign
// for the selected inputs.
func (b *TransactionBuilder) signatureCount() int {
	signers := make(map[ledger.Ed25519Address]struct{})
	for _, input := range b.selected {
		required, ok := b.requiredAddress(input)
		if !ok {
			continue
		}
		if backing, ok := ledger.BackingEd25519(required); ok {
			signers[backing] = struct{}{}
		}
	}
	return len(signers)
}

// generatedManaCapability allows burning mana when generated mana of the
// inputs is burned.
func (b *TransactionBuilder) generatedManaCapability() error {
	if !b.burn.burnsGeneratedMana() {
		return nil
	}
	for _, input := range b.selected {
		generated, err := b.generatedMana(input)
		if err != nil {
			return err
		}
		if generated > 0 {
			b.capabilities |= ledger.CapBurnMana
			return nil
		}
	}
	return nil
}
