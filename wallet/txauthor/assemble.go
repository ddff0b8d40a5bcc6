// Copyright (c) 2024 The txwallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txauthor

import (
	"fmt"

	"github.com/novaledger/txwallet/ledger"
	"github.com/novaledger/txwallet/wallet/txrules"
)

// assemble packages the final selection into an unsigned transaction and
// checks its outputs and size.
func (b *TransactionBuilder) assemble() (*PreparedTransaction, error) {
	for i, o := range b.outputs {
		if err := txrules.CheckOutput(o, b.params); err != nil {
			return nil, fmt.Errorf("output %d: %w", i, err)
		}
	}

	tx := &ledger.Transaction{
		NetworkID:     b.params.NetworkID(),
		CreationSlot:  b.creationSlot,
		ContextInputs: b.contextInputs,
		Inputs:        utxoInputs(b.ordered),
		Allotments:    b.allotmentList(),
		Capabilities:  b.capabilities,
		Outputs:       b.outputs,
		Payload:       b.payload,
	}
	size, err := tx.CheckSize(b.params.MaxTransactionSize)
	if err != nil {
		return nil, err
	}

	rewards := make(map[ledger.OutputID]uint64, len(b.manaRewards))
	for id, reward := range b.manaRewards {
		rewards[id] = reward
	}

	log.Debugf("Built transaction with %d inputs, %d outputs, %d bytes",
		len(tx.Inputs), len(tx.Outputs), size)
	log.Tracef("Transaction: %v", spewClosure(tx))

	return &PreparedTransaction{
		Transaction: tx,
		Inputs:      b.ordered,
		Remainders:  b.remainder.remainders,
		ManaRewards: rewards,
	}, nil
}

// utxoInputs converts inputs into transaction input references.
func utxoInputs(inputs []*InputSigningData) []ledger.UTXOInput {
	refs := make([]ledger.UTXOInput, len(inputs))
	for i, input := range inputs {
		refs[i] = ledger.UTXOInput{OutputID: input.OutputID}
	}
	return refs
}

// allotmentList returns the mana allotments sorted by account id.
func (b *TransactionBuilder) allotmentList() []ledger.ManaAllotment {
	if len(b.allotments) == 0 {
		return nil
	}
	allotments := make([]ledger.ManaAllotment, 0, len(b.allotments))
	for id, mana := range b.allotments {
		allotments = append(allotments, ledger.ManaAllotment{
			AccountID: id,
			Mana:      mana,
		})
	}
	ledger.SortAllotments(allotments)
	return allotments
}
