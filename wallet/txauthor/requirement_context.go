// Copyright (c) 2024 The txwallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txauthor

import (
	"github.com/novaledger/txwallet/ledger"
)

// fulfillContextInputsRequirement sets the epochs of delegation outputs and
// derives the context inputs from the final inputs and outputs.  It runs
// once, after every other requirement is resolved.
func (b *TransactionBuilder) fulfillContextInputsRequirement() error {
	if b.contextInputsResolved {
		return ErrBuilderConsumed
	}
	b.contextInputsResolved = true

	for _, o := range b.outputs {
		delegation, ok := o.(*ledger.DelegationOutput)
		if !ok {
			continue
		}
		if delegation.DelegationID.IsNull() {
			delegation.StartEpoch = b.params.DelegationStartEpoch(
				b.commitment,
			)
		} else {
			delegation.EndEpoch = b.params.DelegationEndEpoch(
				b.commitment,
			)
		}
	}

	b.contextInputs = b.deriveContextInputs(b.ordered, b.outputs)

	log.Debugf("Derived %d context inputs", len(b.contextInputs))
	return nil
}

// deriveContextInputs returns the context inputs the transaction needs:
// block issuance credits of block issuing inputs, reward claims at the index
// of the claiming input, and the commitment whenever time based conditions,
// rewards, delegations or block issuance credits are involved.
func (b *TransactionBuilder) deriveContextInputs(inputs []*InputSigningData,
	outputs []ledger.Output) []ledger.ContextInput {

	var (
		credits         []ledger.ContextInput
		rewards         []ledger.ContextInput
		needsCommitment bool
	)
	seen := make(map[ledger.AccountID]struct{})
	addCredit := func(id ledger.AccountID) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		credits = append(credits, ledger.BlockIssuanceCreditInput{
			AccountID: id,
		})
	}

	for i, input := range inputs {
		switch o := input.Output.(type) {
		case *ledger.AccountOutput:
			if o.Features.BlockIssuer != nil {
				addCredit(o.AccountIDOrFrom(input.OutputID))
			}
		case *ledger.BasicOutput:
			if ledger.IsImplicitAccount(o) {
				addCredit(ledger.AccountIDFromOutputID(input.OutputID))
			}
		}

		u := input.Output.UnlockConditionSet()
		if u.Timelock != nil || u.Expiration != nil {
			needsCommitment = true
		}

		if _, ok := b.manaRewards[input.OutputID]; ok {
			rewards = append(rewards, ledger.RewardInput{
				Index: uint16(i),
			})
			needsCommitment = true
		}
	}

	for _, o := range outputs {
		if o.Kind() == ledger.OutputDelegation {
			needsCommitment = true
			break
		}
	}
	if len(credits) > 0 {
		needsCommitment = true
	}

	contextInputs := make([]ledger.ContextInput, 0,
		len(credits)+len(rewards)+1)
	if needsCommitment {
		contextInputs = append(contextInputs, ledger.CommitmentInput{
			CommitmentID: b.commitment,
		})
	}
	contextInputs = append(contextInputs, credits...)
	contextInputs = append(contextInputs, rewards...)
	ledger.SortContextInputs(contextInputs)

	return contextInputs
}
