// Copyright (c) 2024 The txwallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txauthor

import (
	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/novaledger/txwallet/ledger"
)

// ChainState is the snapshot of the ledger a transaction is built against.
type ChainState struct {
	// CreationSlot is the slot the transaction is created in.  Mana is
	// generated up to this slot.
	CreationSlot ledger.SlotIndex

	// Commitment is the latest slot commitment.  Time based unlock
	// conditions are evaluated against its slot and it is referenced by
	// the commitment context input.
	Commitment ledger.SlotCommitmentID

	// Params are the protocol parameters of the network.
	Params *ledger.ProtocolParameters
}

// RemainderValueStrategy decides where surplus value is sent.
type RemainderValueStrategy interface {
	isRemainderValueStrategy()
}

// ReuseAddress sends the remainder back to the first ed25519 address that
// unlocks a selected input.
type ReuseAddress struct{}

// CustomAddress sends the remainder to Address.
type CustomAddress struct {
	Address ledger.Address
}

func (ReuseAddress) isRemainderValueStrategy()  {}
func (CustomAddress) isRemainderValueStrategy() {}

// AccountChange is a staking change applied to an account when it is
// transitioned.
type AccountChange interface {
	isAccountChange()
}

// BeginStaking adds a staking feature to an account that does not stake.
// Without a StakingPeriod the account stakes until it is ended.
type BeginStaking struct {
	StakedAmount  uint64
	FixedCost     uint64
	StakingPeriod fn.Option[uint32]
}

// ExtendStaking extends the current staking period, or starts a new one
// when the current period has ended.
type ExtendStaking struct {
	AdditionalEpochs uint32
}

// EndStaking removes the staking feature.
type EndStaking struct{}

func (BeginStaking) isAccountChange()  {}
func (ExtendStaking) isAccountChange() {}
func (EndStaking) isAccountChange()    {}

// Transitions are explicit chain transitions requested by the caller.
type Transitions struct {
	// ImplicitAccounts transitions implicit account outputs into block
	// issuing accounts using the given key.  Every listed output is a
	// required input.
	ImplicitAccounts map[ledger.OutputID]ledger.BlockIssuerKey

	// Accounts applies staking changes to transitioned accounts.
	Accounts map[ledger.AccountID]AccountChange
}

// optionValue unpacks an option into a value and a presence flag.
func optionValue[T any](o fn.Option[T]) (T, bool) {
	var (
		v  T
		ok bool
	)
	o.WhenSome(func(x T) {
		v, ok = x, true
	})
	return v, ok
}

func (t *Transitions) implicitAccount(id ledger.OutputID) (ledger.BlockIssuerKey, bool) {
	if t == nil {
		return ledger.BlockIssuerKey{}, false
	}
	key, ok := t.ImplicitAccounts[id]
	return key, ok
}

func (t *Transitions) account(id ledger.AccountID) (AccountChange, bool) {
	if t == nil {
		return nil, false
	}
	change, ok := t.Accounts[id]
	return change, ok
}

// TxIntent describes the transaction a caller wants built.
type TxIntent struct {
	// Outputs are the outputs the caller wants created.  They are cloned
	// by the builder.
	Outputs []ledger.Output

	// RequiredInputs must be consumed by the transaction.
	RequiredInputs []ledger.OutputID

	// ForbiddenInputs must not be consumed by the transaction.
	ForbiddenInputs []ledger.OutputID

	// Burn lists the chains, native tokens and mana to destroy.
	Burn *Burn

	// Remainder selects where surplus value is sent.  Nil reuses an input
	// address.
	Remainder RemainderValueStrategy

	// ManaAllotments allot mana to accounts.
	ManaAllotments []ledger.ManaAllotment

	// ManaRewards are the rewards claimable by inputs, keyed by output id.
	ManaRewards map[ledger.OutputID]uint64

	// IssuerID is the account issuing the block carrying the
	// transaction.  When set it is allotted enough mana to pay for the
	// transaction.
	IssuerID fn.Option[ledger.AccountID]

	// Transitions are explicit chain transitions.
	Transitions *Transitions

	// Capabilities are added to the capabilities derived from the burn.
	Capabilities ledger.Capabilities

	// Payload is an optional tagged data payload.
	Payload []byte

	// AllowMicroAmount lets surplus below the storage deposit of a
	// remainder be added to an output owned by the remainder address.
	AllowMicroAmount bool

	// AllowAdditionalInputSelection lets the builder select inputs
	// beyond RequiredInputs.
	AllowAdditionalInputSelection bool
}

// NewTxIntent returns an intent creating outputs that may select any
// available input.
func NewTxIntent(outputs ...ledger.Output) *TxIntent {
	return &TxIntent{
		Outputs:                       outputs,
		AllowAdditionalInputSelection: true,
	}
}

// RemainderData is a remainder output created by the builder.
type RemainderData struct {
	Output  ledger.Output
	Address ledger.Address
}

// PreparedTransaction is an unsigned transaction together with the data
// needed to sign it.
type PreparedTransaction struct {
	Transaction *ledger.Transaction

	// Inputs are the consumed inputs in transaction order.
	Inputs []*InputSigningData

	// Remainders are the remainder outputs of the transaction.
	Remainders []RemainderData

	// ManaRewards are the rewards claimed by the transaction.
	ManaRewards map[ledger.OutputID]uint64
}
