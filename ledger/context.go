// Copyright (c) 2024 The txwallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledger

import (
	"bytes"
	"sort"
)

// ContextInputKind is the serialized type byte of a context input.
type ContextInputKind byte

// Context input kinds known to the protocol.
const (
	ContextCommitment          ContextInputKind = 0
	ContextBlockIssuanceCredit ContextInputKind = 1
	ContextReward              ContextInputKind = 2
)

// ContextInput is transaction level data that is not tied to a consumed
// output.
type ContextInput interface {
	Kind() ContextInputKind
	isContextInput()
}

// CommitmentInput references the slot commitment the transaction is
// validated against.
type CommitmentInput struct {
	CommitmentID SlotCommitmentID
}

// BlockIssuanceCreditInput references the block issuance credit of an
// account.
type BlockIssuanceCreditInput struct {
	AccountID AccountID
}

// RewardInput claims the mana rewards of the input at Index.
type RewardInput struct {
	Index uint16
}

func (CommitmentInput) isContextInput()          {}
func (BlockIssuanceCreditInput) isContextInput() {}
func (RewardInput) isContextInput()              {}

func (CommitmentInput) Kind() ContextInputKind          { return ContextCommitment }
func (BlockIssuanceCreditInput) Kind() ContextInputKind { return ContextBlockIssuanceCredit }
func (RewardInput) Kind() ContextInputKind              { return ContextReward }

// SortContextInputs orders context inputs by kind and then by their payload,
// the canonical order of a transaction.
func SortContextInputs(inputs []ContextInput) {
	sort.SliceStable(inputs, func(i, j int) bool {
		ki, kj := inputs[i].Kind(), inputs[j].Kind()
		if ki != kj {
			return ki < kj
		}
		switch a := inputs[i].(type) {
		case BlockIssuanceCreditInput:
			b := inputs[j].(BlockIssuanceCreditInput)
			return bytes.Compare(a.AccountID[:], b.AccountID[:]) < 0
		case RewardInput:
			return a.Index < inputs[j].(RewardInput).Index
		default:
			return false
		}
	})
}

// UTXOInput references the output being consumed.
type UTXOInput struct {
	OutputID OutputID
}

// ManaAllotment assigns mana to an account's block issuance credit.
type ManaAllotment struct {
	AccountID AccountID `json:"accountId" yaml:"accountId"`
	Mana      uint64    `json:"mana" yaml:"mana"`
}

// SortAllotments orders allotments by account id.
func SortAllotments(allotments []ManaAllotment) {
	sort.Slice(allotments, func(i, j int) bool {
		return bytes.Compare(
			allotments[i].AccountID[:], allotments[j].AccountID[:],
		) < 0
	})
}

// Capabilities are the transaction capability flags. A transaction must
// declare every destructive action it performs.
type Capabilities uint8

// Transaction capability flags.
const (
	CapBurnNativeTokens Capabilities = 1 << iota
	CapBurnMana
	CapDestroyAccount
	CapDestroyAnchor
	CapDestroyFoundry
	CapDestroyNft
)

// Has reports whether all flags in c2 are set.
func (c Capabilities) Has(c2 Capabilities) bool {
	return c&c2 == c2
}
