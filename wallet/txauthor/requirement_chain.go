// Copyright (c) 2024 The txwallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txauthor

import (
	"github.com/novaledger/txwallet/ledger"
)

// fulfillChainRequirement makes sure the chain is consumed by the
// transaction.  Selected inputs are searched first so an already satisfied
// requirement leaves both pools untouched.
func (b *TransactionBuilder) fulfillChainRequirement(r Requirement,
	chainID ledger.ChainID) ([]*InputSigningData, error) {

	for _, input := range b.selected {
		id, ok := input.Output.ChainID(input.OutputID)
		if ok && id == chainID {
			return nil, nil
		}
	}

	if !b.allowAdditionalInputSelection {
		return nil, &AdditionalInputsRequiredError{Requirement: r}
	}

	for i, input := range b.available {
		id, ok := input.Output.ChainID(input.OutputID)
		if ok && id == chainID {
			log.Debugf("Selecting %v for %v", input.OutputID, r)
			return []*InputSigningData{b.takeAvailable(i)}, nil
		}
	}

	return nil, &UnfulfillableRequirementError{Requirement: r}
}

// fulfillEd25519Requirement makes sure an input unlocked by addr is
// consumed.  Basic outputs are preferred over chain outputs so that no
// chain is transitioned just to provide a signature.
func (b *TransactionBuilder) fulfillEd25519Requirement(
	addr ledger.Ed25519Address) ([]*InputSigningData, error) {

	r := Ed25519Requirement{Address: addr}

	for _, input := range b.selected {
		if b.unlockedByEd25519(input, addr) {
			return nil, nil
		}
	}

	if !b.allowAdditionalInputSelection {
		return nil, &AdditionalInputsRequiredError{Requirement: r}
	}

	found := -1
	for i, input := range b.available {
		if !b.unlockedByEd25519(input, addr) {
			continue
		}
		if input.Output.Kind() == ledger.OutputBasic {
			found = i
			break
		}
		if found < 0 {
			found = i
		}
	}
	if found < 0 {
		return nil, &UnfulfillableRequirementError{Requirement: r}
	}

	return []*InputSigningData{b.takeAvailable(found)}, nil
}

// unlockedByEd25519 reports whether the input is unlocked by a signature of
// addr at the commitment slot.
func (b *TransactionBuilder) unlockedByEd25519(input *InputSigningData,
	addr ledger.Ed25519Address) bool {

	required, ok := b.requiredAddress(input)
	if !ok {
		return false
	}
	backing, ok := ledger.BackingEd25519(required)
	return ok && backing == addr
}
