// Copyright (c) 2024 The txwallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/novaledger/txwallet/ledger"
	"github.com/novaledger/txwallet/wallet/txauthor"
)

// txView is the JSON rendering of a built transaction, or of the error that
// prevented building it.
type txView struct {
	File          string            `json:"file"`
	Error         string            `json:"error,omitempty"`
	TransactionID string            `json:"transactionId,omitempty"`
	NetworkID     uint64            `json:"networkId,omitempty"`
	CreationSlot  ledger.SlotIndex  `json:"creationSlot,omitempty"`
	Size          int               `json:"size,omitempty"`
	Capabilities  uint8             `json:"capabilities,omitempty"`
	ContextInputs []string          `json:"contextInputs,omitempty"`
	Inputs        []inputView       `json:"inputs,omitempty"`
	Outputs       []outputView      `json:"outputs,omitempty"`
	Allotments    []allotmentView   `json:"allotments,omitempty"`
	ManaRewards   map[string]uint64 `json:"manaRewards,omitempty"`
}

type inputView struct {
	OutputID string `json:"outputId"`
	Kind     string `json:"kind"`
	Amount   uint64 `json:"amount"`
	Mana     uint64 `json:"mana"`
}

type tokenView struct {
	ID     string `json:"id"`
	Amount string `json:"amount"`
}

type outputView struct {
	Kind         string      `json:"kind"`
	Amount       uint64      `json:"amount"`
	Mana         uint64      `json:"mana"`
	Address      string      `json:"address,omitempty"`
	NativeTokens []tokenView `json:"nativeTokens,omitempty"`
	Remainder    bool        `json:"remainder,omitempty"`
}

type allotmentView struct {
	AccountID string `json:"accountId"`
	Mana      uint64 `json:"mana"`
}

// newTxView renders a prepared transaction.  Addresses are bech32 encoded
// with hrp.
func newTxView(file string, tx *txauthor.PreparedTransaction,
	params *ledger.ProtocolParameters) (*txView, error) {

	id, err := tx.Transaction.ID()
	if err != nil {
		return nil, err
	}
	size, err := tx.Transaction.CheckSize(params.MaxTransactionSize)
	if err != nil {
		return nil, err
	}

	view := &txView{
		File:          file,
		TransactionID: id.String(),
		NetworkID:     tx.Transaction.NetworkID,
		CreationSlot:  tx.Transaction.CreationSlot,
		Size:          size,
		Capabilities:  uint8(tx.Transaction.Capabilities),
	}

	for _, c := range tx.Transaction.ContextInputs {
		view.ContextInputs = append(view.ContextInputs,
			contextInputString(c))
	}

	for _, input := range tx.Inputs {
		view.Inputs = append(view.Inputs, inputView{
			OutputID: input.OutputID.String(),
			Kind:     input.Output.Kind().String(),
			Amount:   input.Output.BaseTokenAmount(),
			Mana:     input.Output.StoredMana(),
		})
	}

	remainders := make(map[ledger.Output]struct{}, len(tx.Remainders))
	for _, r := range tx.Remainders {
		remainders[r.Output] = struct{}{}
	}
	for _, o := range tx.Transaction.Outputs {
		out := outputView{
			Kind:   o.Kind().String(),
			Amount: o.BaseTokenAmount(),
			Mana:   o.StoredMana(),
		}
		if addr := o.UnlockConditionSet().Address; addr != nil {
			out.Address, err = ledger.Bech32(params.Bech32HRP, addr)
			if err != nil {
				return nil, err
			}
		}
		for _, token := range o.NativeTokenList() {
			out.NativeTokens = append(out.NativeTokens, tokenView{
				ID:     token.ID.String(),
				Amount: token.Amount.String(),
			})
		}
		_, out.Remainder = remainders[o]
		view.Outputs = append(view.Outputs, out)
	}

	for _, a := range tx.Transaction.Allotments {
		view.Allotments = append(view.Allotments, allotmentView{
			AccountID: a.AccountID.String(),
			Mana:      a.Mana,
		})
	}

	if len(tx.ManaRewards) > 0 {
		view.ManaRewards = make(map[string]uint64, len(tx.ManaRewards))
		for id, reward := range tx.ManaRewards {
			view.ManaRewards[id.String()] = reward
		}
	}

	return view, nil
}

func contextInputString(c ledger.ContextInput) string {
	switch c := c.(type) {
	case ledger.CommitmentInput:
		return "commitment " + c.CommitmentID.String()
	case ledger.BlockIssuanceCreditInput:
		return "bic " + c.AccountID.String()
	case ledger.RewardInput:
		return fmt.Sprintf("reward %d", c.Index)
	default:
		return fmt.Sprintf("unknown %v", c.Kind())
	}
}
