// Copyright (c) 2024 The txwallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package txauthor selects the inputs of a transaction and builds the
// unsigned transaction around them.
package txauthor

import (
	"sort"

	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/novaledger/txwallet/ledger"
	"github.com/novaledger/txwallet/wallet/txrules"
)

// TransactionBuilder selects inputs for a set of outputs.  It resolves the
// requirements the outputs and selected inputs imply until none is left,
// balances base tokens, native tokens and mana, and creates the remainder
// outputs.  A builder is single use and not safe for concurrent access.
type TransactionBuilder struct {
	available       []*InputSigningData
	selected        []*InputSigningData
	providedOutputs []ledger.Output
	addedOutputs    []ledger.Output
	remainder       remainderState
	requirements    []Requirement

	addresses    map[ledger.Address]struct{}
	required     map[ledger.OutputID]struct{}
	requiredIDs  []ledger.OutputID
	forbidden    map[ledger.OutputID]struct{}
	allotments   map[ledger.AccountID]uint64
	manaRewards  map[ledger.OutputID]uint64
	issuerID     fn.Option[ledger.AccountID]
	burn         *Burn
	transitions  *Transitions
	capabilities ledger.Capabilities
	payload      []byte

	creationSlot ledger.SlotIndex
	commitment   ledger.SlotCommitmentID
	params       *ledger.ProtocolParameters

	remainderStrategy             RemainderValueStrategy
	allowMicroAmount              bool
	allowAdditionalInputSelection bool

	initialManaExcess uint64

	ordered               []*InputSigningData
	outputs               []ledger.Output
	contextInputs         []ledger.ContextInput
	contextInputsResolved bool
	consumed              bool
}

// NewTransactionBuilder returns a builder that selects from available to
// satisfy intent.  Addresses are the addresses the caller can unlock; the
// account and nft addresses of available chain outputs are added to them.
func NewTransactionBuilder(available []*InputSigningData,
	addresses []ledger.Address, state ChainState,
	intent *TxIntent) *TransactionBuilder {

	if intent == nil {
		intent = NewTxIntent()
	}
	params := state.Params
	if params == nil {
		params = ledger.DefaultProtocolParameters()
	}

	b := &TransactionBuilder{
		available:                     append([]*InputSigningData(nil), available...),
		addresses:                     make(map[ledger.Address]struct{}),
		required:                      make(map[ledger.OutputID]struct{}),
		forbidden:                     make(map[ledger.OutputID]struct{}),
		allotments:                    make(map[ledger.AccountID]uint64),
		manaRewards:                   make(map[ledger.OutputID]uint64),
		issuerID:                      intent.IssuerID,
		burn:                          intent.Burn,
		transitions:                   intent.Transitions,
		capabilities:                  intent.Capabilities,
		payload:                       intent.Payload,
		creationSlot:                  state.CreationSlot,
		commitment:                    state.Commitment,
		params:                        params,
		remainderStrategy:             intent.Remainder,
		allowMicroAmount:              intent.AllowMicroAmount,
		allowAdditionalInputSelection: intent.AllowAdditionalInputSelection,
	}
	if b.remainderStrategy == nil {
		b.remainderStrategy = ReuseAddress{}
	}

	for _, o := range intent.Outputs {
		b.providedOutputs = append(b.providedOutputs, o.Clone())
	}

	for _, addr := range addresses {
		b.addresses[normalizeAddress(addr)] = struct{}{}
	}
	for _, input := range available {
		switch o := input.Output.(type) {
		case *ledger.AccountOutput:
			id := o.AccountIDOrFrom(input.OutputID)
			b.addresses[ledger.AccountAddress(id)] = struct{}{}
		case *ledger.NftOutput:
			id := o.NftIDOrFrom(input.OutputID)
			b.addresses[ledger.NftAddress(id)] = struct{}{}
		}
	}

	b.addRequired(intent.RequiredInputs...)
	if t := intent.Transitions; t != nil {
		implicit := make([]ledger.OutputID, 0, len(t.ImplicitAccounts))
		for id := range t.ImplicitAccounts {
			implicit = append(implicit, id)
		}
		sort.Slice(implicit, func(i, j int) bool {
			return implicit[i].Compare(implicit[j]) < 0
		})
		b.addRequired(implicit...)
	}

	for _, id := range intent.ForbiddenInputs {
		b.forbidden[id] = struct{}{}
	}
	for _, a := range intent.ManaAllotments {
		b.allotments[a.AccountID] += a.Mana
	}
	for id, reward := range intent.ManaRewards {
		b.manaRewards[id] = reward
	}

	return b
}

func (b *TransactionBuilder) addRequired(ids ...ledger.OutputID) {
	for _, id := range ids {
		if _, ok := b.required[id]; ok {
			continue
		}
		b.required[id] = struct{}{}
		b.requiredIDs = append(b.requiredIDs, id)
	}
}

// issuer returns the account paying for the transaction, if any.
func (b *TransactionBuilder) issuer() (ledger.AccountID, bool) {
	return optionValue(b.issuerID)
}

// Build selects the inputs and returns the prepared transaction.  A
// builder can only build once; later calls return ErrBuilderConsumed.
func (b *TransactionBuilder) Build() (*PreparedTransaction, error) {
	if b.consumed {
		return nil, ErrBuilderConsumed
	}
	b.consumed = true

	// Without outputs, only a burn, allotments or required inputs give the
	// transaction a purpose.
	numOutputs := len(b.providedOutputs)
	switch {
	case numOutputs > txrules.MaxOutputCount:
		return nil, &InvalidOutputCountError{Count: numOutputs}
	case numOutputs == 0 && b.burn.empty() && len(b.allotments) == 0 &&
		len(b.requiredIDs) == 0:

		return nil, &InvalidOutputCountError{Count: numOutputs}
	}

	for _, id := range b.requiredIDs {
		if _, ok := b.forbidden[id]; ok {
			return nil, &RequiredInputIsForbiddenError{OutputID: id}
		}
	}

	b.filterInputs()
	if len(b.available) == 0 {
		return nil, ErrNoAvailableInputsProvided
	}

	if err := b.init(); err != nil {
		return nil, err
	}
	if err := b.resolveRequirements(); err != nil {
		return nil, err
	}

	manaIn, manaOut, err := b.manaSums()
	if err != nil {
		return nil, err
	}
	if manaIn < manaOut {
		return nil, b.insufficientManaError(manaIn, manaOut, nil)
	}

	if err := b.updateRemainders(); err != nil {
		return nil, err
	}

	if !txrules.ValidInputCount(len(b.selected)) {
		return nil, &InvalidInputCountError{Count: len(b.selected)}
	}

	if err := b.generatedManaCapability(); err != nil {
		return nil, err
	}

	b.outputs = b.allOutputs()
	if !txrules.ValidOutputCount(len(b.outputs)) {
		return nil, &InvalidOutputCountError{Count: len(b.outputs)}
	}

	b.ordered = b.orderedInputs()

	if err := b.checkManaRewards(); err != nil {
		return nil, err
	}

	if err := b.fulfillRequirement(ContextInputsRequirement{}); err != nil {
		return nil, err
	}

	return b.assemble()
}

// init seeds the requirement stack and selects the required inputs.
func (b *TransactionBuilder) init() error {
	b.pushRequirement(ManaRequirement{})
	b.pushRequirement(AmountRequirement{})
	b.pushRequirement(NativeTokensRequirement{})

	for _, id := range b.requiredIDs {
		if b.isSelected(id) {
			continue
		}
		input, ok := b.takeAvailableByID(id)
		if !ok {
			return &RequiredInputIsNotAvailableError{OutputID: id}
		}
		if err := b.selectInput(input); err != nil {
			return err
		}
	}

	b.outputsRequirements()
	if err := b.burnRequirements(); err != nil {
		return err
	}

	if b.burn.burnsMana() {
		in, out, err := b.manaSums()
		if err != nil {
			return err
		}
		if in > out {
			b.initialManaExcess = in - out
			b.capabilities |= ledger.CapBurnMana
		}
	}

	return nil
}

// maxIdleAllotmentPasses bounds the mana passes that may raise the issuer
// allotment without selecting an input.
const maxIdleAllotmentPasses = 4

// resolveRequirements drains the requirement stack until no requirement
// selects another input.  Every newly selected input can unbalance the
// transaction, so the balance requirements are pushed again whenever the
// selection changed.
func (b *TransactionBuilder) resolveRequirements() error {
	idle := 0
	for {
		before := len(b.selected)
		for {
			r, ok := b.popRequirement()
			if !ok {
				break
			}
			if err := b.fulfillRequirement(r); err != nil {
				return err
			}
		}

		if len(b.selected) != before {
			idle = 0
			b.pushRequirement(ManaRequirement{})
			b.pushRequirement(AmountRequirement{})
			b.pushRequirement(NativeTokensRequirement{})
			continue
		}

		issuer, ok := b.issuer()
		if !ok {
			return nil
		}
		required, err := b.requiredAllotment(issuer)
		if err != nil {
			return err
		}
		if required <= b.allotments[issuer] {
			return nil
		}
		if idle == maxIdleAllotmentPasses {
			return &AllotmentNotSettledError{
				AccountID: issuer,
				Allotted:  b.allotments[issuer],
				Required:  required,
			}
		}
		idle++
		b.pushRequirement(ManaRequirement{})
	}
}

// checkManaRewards makes sure every reward belongs to a consumed input.
func (b *TransactionBuilder) checkManaRewards() error {
	ids := make([]ledger.OutputID, 0, len(b.manaRewards))
	for id := range b.manaRewards {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return ids[i].Compare(ids[j]) < 0
	})

	for _, id := range ids {
		if !b.isSelected(id) {
			return &ExtraManaRewardsError{OutputID: id}
		}
	}
	return nil
}

// nonRemainderOutputs returns the provided outputs followed by the outputs
// added by chain transitions.
func (b *TransactionBuilder) nonRemainderOutputs() []ledger.Output {
	outputs := make([]ledger.Output, 0,
		len(b.providedOutputs)+len(b.addedOutputs))
	outputs = append(outputs, b.providedOutputs...)
	return append(outputs, b.addedOutputs...)
}
