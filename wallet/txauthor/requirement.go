// Copyright (c) 2024 The txwallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txauthor

import (
	"encoding/hex"
	"fmt"

	"github.com/novaledger/txwallet/ledger"
)

// Requirement is an unmet precondition discovered while selecting inputs.
// The set of requirements is closed; every resolver switches over it
// exhaustively.
type Requirement interface {
	fmt.Stringer
	isRequirement()
}

// SenderRequirement demands an input unlocked by Address so a sender
// feature naming it is valid.
type SenderRequirement struct {
	Address ledger.Address
}

// IssuerRequirement demands an input unlocked by Address so an issuer
// feature naming it is valid.
type IssuerRequirement struct {
	Address ledger.Address
}

// Ed25519Requirement demands an input unlocked by an ed25519 address.
type Ed25519Requirement struct {
	Address ledger.Ed25519Address
}

// AccountRequirement demands the account chain be transitioned.
type AccountRequirement struct {
	AccountID ledger.AccountID
}

// FoundryRequirement demands the foundry chain be transitioned.
type FoundryRequirement struct {
	FoundryID ledger.FoundryID
}

// NftRequirement demands the nft chain be transitioned.
type NftRequirement struct {
	NftID ledger.NftID
}

// DelegationRequirement demands the delegation chain be consumed.
type DelegationRequirement struct {
	DelegationID ledger.DelegationID
}

// NativeTokensRequirement demands the inputs cover every native token
// balance of the outputs.
type NativeTokensRequirement struct{}

// AmountRequirement demands the inputs cover the base tokens of the outputs
// and any remainder.
type AmountRequirement struct{}

// ManaRequirement demands the inputs cover the mana of the outputs and
// allotments.
type ManaRequirement struct{}

// ContextInputsRequirement derives the context inputs of the transaction.
type ContextInputsRequirement struct{}

func (SenderRequirement) isRequirement()        {}
func (IssuerRequirement) isRequirement()        {}
func (Ed25519Requirement) isRequirement()       {}
func (AccountRequirement) isRequirement()       {}
func (FoundryRequirement) isRequirement()       {}
func (NftRequirement) isRequirement()           {}
func (DelegationRequirement) isRequirement()    {}
func (NativeTokensRequirement) isRequirement()  {}
func (AmountRequirement) isRequirement()        {}
func (ManaRequirement) isRequirement()          {}
func (ContextInputsRequirement) isRequirement() {}

func addressString(addr ledger.Address) string {
	if addr == nil {
		return "<nil>"
	}
	return addr.Kind().String() + "(0x" + hex.EncodeToString(addr.Bytes()[1:]) + ")"
}

func (r SenderRequirement) String() string {
	return "sender " + addressString(r.Address)
}

func (r IssuerRequirement) String() string {
	return "issuer " + addressString(r.Address)
}

func (r Ed25519Requirement) String() string {
	return "ed25519 " + addressString(r.Address)
}

func (r AccountRequirement) String() string { return "account " + r.AccountID.String() }
func (r FoundryRequirement) String() string { return "foundry " + r.FoundryID.String() }
func (r NftRequirement) String() string     { return "nft " + r.NftID.String() }

func (r DelegationRequirement) String() string {
	return "delegation " + r.DelegationID.String()
}

func (NativeTokensRequirement) String() string  { return "native tokens" }
func (AmountRequirement) String() string        { return "amount" }
func (ManaRequirement) String() string          { return "mana" }
func (ContextInputsRequirement) String() string { return "context inputs" }

// pushRequirement adds a requirement on top of the work stack.
func (b *TransactionBuilder) pushRequirement(r Requirement) {
	b.requirements = append(b.requirements, r)
}

// popRequirement removes the most recently pushed requirement.
func (b *TransactionBuilder) popRequirement() (Requirement, bool) {
	n := len(b.requirements)
	if n == 0 {
		return nil, false
	}
	r := b.requirements[n-1]
	b.requirements = b.requirements[:n-1]
	return r, true
}

// fulfillRequirement resolves a single requirement and selects every input
// the resolver picked.
func (b *TransactionBuilder) fulfillRequirement(r Requirement) error {
	log.Tracef("Fulfilling requirement %v", r)

	var (
		inputs []*InputSigningData
		err    error
	)
	switch r := r.(type) {
	case SenderRequirement:
		inputs, err = b.fulfillSenderRequirement(r.Address)
	case IssuerRequirement:
		inputs, err = b.fulfillIssuerRequirement(r.Address)
	case Ed25519Requirement:
		inputs, err = b.fulfillEd25519Requirement(r.Address)
	case AccountRequirement:
		inputs, err = b.fulfillChainRequirement(
			r, ledger.AccountChainID(r.AccountID),
		)
	case FoundryRequirement:
		inputs, err = b.fulfillChainRequirement(
			r, ledger.FoundryChainID(r.FoundryID),
		)
	case NftRequirement:
		inputs, err = b.fulfillChainRequirement(
			r, ledger.NftChainID(r.NftID),
		)
	case DelegationRequirement:
		inputs, err = b.fulfillChainRequirement(
			r, ledger.DelegationChainID(r.DelegationID),
		)
	case NativeTokensRequirement:
		inputs, err = b.fulfillNativeTokensRequirement()
	case AmountRequirement:
		inputs, err = b.fulfillAmountRequirement()
	case ManaRequirement:
		inputs, err = b.fulfillManaRequirement()
	case ContextInputsRequirement:
		err = b.fulfillContextInputsRequirement()
	default:
		err = fmt.Errorf("unknown requirement %T", r)
	}
	if err != nil {
		return err
	}

	for _, input := range inputs {
		if err := b.selectInput(input); err != nil {
			return err
		}
	}
	return nil
}

// outputsRequirements pushes the requirements implied by the provided
// outputs: chains that must be transitioned and addresses that must unlock
// an input because a sender or issuer feature names them.
func (b *TransactionBuilder) outputsRequirements() {
	for _, output := range b.providedOutputs {
		created := false

		switch o := output.(type) {
		case *ledger.AccountOutput:
			if o.AccountID.IsNull() {
				created = true
			} else {
				b.pushRequirement(AccountRequirement{o.AccountID})
			}

		case *ledger.NftOutput:
			if o.NftID.IsNull() {
				created = true
			} else {
				b.pushRequirement(NftRequirement{o.NftID})
			}

		case *ledger.DelegationOutput:
			if !o.DelegationID.IsNull() {
				b.pushRequirement(DelegationRequirement{
					o.DelegationID,
				})
			}

		case *ledger.FoundryOutput:
			chainID := ledger.FoundryChainID(o.FoundryID())
			if b.hasInputWithChain(chainID) {
				b.pushRequirement(FoundryRequirement{o.FoundryID()})
			} else {
				created = true
			}
			b.pushRequirement(AccountRequirement{
				o.AccountAddress().AccountID(),
			})
		}

		if features := output.FeatureSet(); features != nil &&
			features.Sender != nil {

			b.pushRequirement(SenderRequirement{features.Sender})
		}
		if issuer := immutableIssuer(output); created && issuer != nil {
			b.pushRequirement(IssuerRequirement{issuer})
		}
	}
}

// hasInputWithChain reports whether any available or selected input belongs
// to chainID.
func (b *TransactionBuilder) hasInputWithChain(chainID ledger.ChainID) bool {
	for _, pool := range [][]*InputSigningData{b.available, b.selected} {
		for _, input := range pool {
			id, ok := input.Output.ChainID(input.OutputID)
			if ok && id == chainID {
				return true
			}
		}
	}
	return false
}

func immutableIssuer(o ledger.Output) ledger.Address {
	switch o := o.(type) {
	case *ledger.AccountOutput:
		return o.ImmutableFeatures.Issuer
	case *ledger.NftOutput:
		return o.ImmutableFeatures.Issuer
	case *ledger.FoundryOutput:
		return o.ImmutableFeatures.Issuer
	case *ledger.AnchorOutput:
		return o.ImmutableFeatures.Issuer
	}
	return nil
}
