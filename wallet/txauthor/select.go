// Copyright (c) 2024 The txwallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txauthor

import (
	"github.com/novaledger/txwallet/ledger"
	"github.com/novaledger/txwallet/wallet/txrules"
)

// OutputMetadata is the ledger metadata of an unspent output.
type OutputMetadata struct {
	// IncludedSlot is the slot the output was created in.  Mana is
	// generated from this slot on.
	IncludedSlot ledger.SlotIndex
}

// InputSigningData is an unspent output that may be consumed by the
// transaction.
type InputSigningData struct {
	Output   ledger.Output
	OutputID ledger.OutputID
	Metadata OutputMetadata
}

// takeAvailable removes the available input at index i by swapping in the
// last element.
func (b *TransactionBuilder) takeAvailable(i int) *InputSigningData {
	input := b.available[i]
	last := len(b.available) - 1
	b.available[i] = b.available[last]
	b.available[last] = nil
	b.available = b.available[:last]
	return input
}

// takeAvailableByID removes the available input with the given output id.
func (b *TransactionBuilder) takeAvailableByID(id ledger.OutputID) (*InputSigningData, bool) {
	for i, input := range b.available {
		if input.OutputID == id {
			return b.takeAvailable(i), true
		}
	}
	return nil, false
}

func (b *TransactionBuilder) isSelected(id ledger.OutputID) bool {
	for _, input := range b.selected {
		if input.OutputID == id {
			return true
		}
	}
	return false
}

// selectInput moves an input into the selected pool.  Chain inputs that
// are not burned are transitioned, and inputs owned by an account or nft
// require that chain to be consumed too.
func (b *TransactionBuilder) selectInput(input *InputSigningData) error {
	if len(b.selected) >= txrules.MaxInputCount {
		return &InvalidInputCountError{Count: len(b.selected) + 1}
	}

	log.Debugf("Selecting input %v (%v, amount %d)", input.OutputID,
		input.Output.Kind(), input.Output.BaseTokenAmount())

	next, err := b.transition(input)
	if err != nil {
		return err
	}
	if next != nil {
		b.addedOutputs = append(b.addedOutputs, next)
	}

	if required, ok := b.requiredAddress(input); ok {
		switch a := unwrapRestricted(required).(type) {
		case ledger.AccountAddress:
			b.pushRequirement(AccountRequirement{AccountID: a.AccountID()})
		case ledger.NftAddress:
			b.pushRequirement(NftRequirement{NftID: a.NftID()})
		}
	}

	b.selected = append(b.selected, input)
	return nil
}

// requiredAddress returns the address that unlocks the input at the
// commitment slot.  False is returned inside the expiration deadzone.
func (b *TransactionBuilder) requiredAddress(input *InputSigningData) (ledger.Address, bool) {
	return input.Output.UnlockConditionSet().RequiredAddress(
		b.commitment.Slot, b.params.CommittableAgeRange(),
	)
}

// normalizeAddress strips restricted wrappers and maps implicit account
// creation addresses to the ed25519 address that signs for them.
func normalizeAddress(addr ledger.Address) ledger.Address {
	addr = unwrapRestricted(addr)
	if implicit, ok := addr.(ledger.ImplicitAccountCreationAddress); ok {
		return ledger.Ed25519Address(implicit)
	}
	return addr
}

// filterInputs drops the available inputs that cannot or must not be
// consumed: forbidden ones, kinds the builder does not spend unless asked
// to, timelocked ones, and those not unlockable by a controlled address.
func (b *TransactionBuilder) filterInputs() {
	filtered := b.available[:0]
	for _, input := range b.available {
		if b.usableInput(input) {
			filtered = append(filtered, input)
			continue
		}
		log.Tracef("Ignoring unusable input %v", input.OutputID)
	}
	for i := len(filtered); i < len(b.available); i++ {
		b.available[i] = nil
	}
	b.available = filtered
}

func (b *TransactionBuilder) usableInput(input *InputSigningData) bool {
	if _, ok := b.forbidden[input.OutputID]; ok {
		return false
	}
	_, required := b.required[input.OutputID]

	switch o := input.Output.(type) {
	case *ledger.BasicOutput, *ledger.AccountOutput, *ledger.FoundryOutput,
		*ledger.NftOutput:

	case *ledger.DelegationOutput:
		id := o.DelegationIDOrFrom(input.OutputID)
		if !required && !b.burn.hasDelegation(id) {
			return false
		}

	default:
		return false
	}

	conditions := input.Output.UnlockConditionSet()
	if conditions.IsTimelocked(b.commitment.Slot, b.params.MinCommittableAge) {
		return false
	}

	addr, ok := b.requiredAddress(input)
	if !ok {
		return false
	}
	addr = unwrapRestricted(addr)

	switch a := addr.(type) {
	case ledger.AnchorAddress:
		return false

	case ledger.ImplicitAccountCreationAddress:
		if !required {
			return false
		}
		_, ok := b.addresses[ledger.Ed25519Address(a)]
		return ok

	default:
		_, ok := b.addresses[normalizeAddress(a)]
		return ok
	}
}

// orderedInputs returns the selected inputs in unlock order: inputs
// unlocked by a signature first, each followed by the inputs owned by the
// account or nft it transitions.  Owned inputs whose owner is not selected
// are appended last.
func (b *TransactionBuilder) orderedInputs() []*InputSigningData {
	owned := make(map[ledger.ChainID][]*InputSigningData)
	var roots []*InputSigningData
	for _, input := range b.selected {
		owner, ok := b.owningChain(input)
		if !ok {
			roots = append(roots, input)
			continue
		}
		owned[owner] = append(owned[owner], input)
	}

	ordered := make([]*InputSigningData, 0, len(b.selected))
	placed := make(map[ledger.OutputID]struct{}, len(b.selected))

	var place func(*InputSigningData)
	place = func(input *InputSigningData) {
		if _, ok := placed[input.OutputID]; ok {
			return
		}
		placed[input.OutputID] = struct{}{}
		ordered = append(ordered, input)

		chainID, ok := input.Output.ChainID(input.OutputID)
		if !ok {
			return
		}
		for _, child := range owned[chainID] {
			place(child)
		}
	}

	for _, input := range roots {
		place(input)
	}
	for _, input := range b.selected {
		place(input)
	}
	return ordered
}

// owningChain returns the account or nft chain that unlocks the input.
func (b *TransactionBuilder) owningChain(input *InputSigningData) (ledger.ChainID, bool) {
	addr, ok := b.requiredAddress(input)
	if !ok {
		return ledger.ChainID{}, false
	}
	switch a := unwrapRestricted(addr).(type) {
	case ledger.AccountAddress:
		return ledger.AccountChainID(a.AccountID()), true
	case ledger.NftAddress:
		return ledger.NftChainID(a.NftID()), true
	}
	return ledger.ChainID{}, false
}

// outputChainID returns the chain an output continues.  Outputs creating a
// new chain carry a null id and belong to no chain yet.
func outputChainID(o ledger.Output) (ledger.ChainID, bool) {
	switch o := o.(type) {
	case *ledger.AccountOutput:
		if o.AccountID.IsNull() {
			return ledger.ChainID{}, false
		}
		return ledger.AccountChainID(o.AccountID), true

	case *ledger.NftOutput:
		if o.NftID.IsNull() {
			return ledger.ChainID{}, false
		}
		return ledger.NftChainID(o.NftID), true

	case *ledger.DelegationOutput:
		if o.DelegationID.IsNull() {
			return ledger.ChainID{}, false
		}
		return ledger.DelegationChainID(o.DelegationID), true

	case *ledger.AnchorOutput:
		if o.AnchorID.IsNull() {
			return ledger.ChainID{}, false
		}
		return ledger.AnchorChainID(o.AnchorID), true

	case *ledger.FoundryOutput:
		return ledger.FoundryChainID(o.FoundryID()), true
	}
	return ledger.ChainID{}, false
}
