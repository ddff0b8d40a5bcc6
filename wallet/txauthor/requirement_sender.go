// Copyright (c) 2024 The txwallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txauthor

import (
	"errors"

	"github.com/novaledger/txwallet/ledger"
)

// maxRestrictedDepth bounds how many restricted address wrappers are
// unwrapped when resolving an address.
const maxRestrictedDepth = 8

// fulfillSenderRequirement makes sure addr unlocks an input of the
// transaction.  Unfulfillable inner requirements are reported as an
// unfulfillable sender requirement that wraps the inner failure.
func (b *TransactionBuilder) fulfillSenderRequirement(
	addr ledger.Address) ([]*InputSigningData, error) {

	inputs, err := b.addressInputs(addr, 0)
	var unfulfillable *UnfulfillableRequirementError
	if errors.As(err, &unfulfillable) {
		log.Debugf("Sender %v unfulfillable: %v", addressString(addr),
			err)

		return nil, &UnfulfillableRequirementError{
			Requirement: SenderRequirement{Address: addr},
			Err:         err,
		}
	}
	return inputs, err
}

// fulfillIssuerRequirement makes sure addr unlocks an input of the
// transaction, reporting failures as an issuer requirement.
func (b *TransactionBuilder) fulfillIssuerRequirement(
	addr ledger.Address) ([]*InputSigningData, error) {

	inputs, err := b.addressInputs(addr, 0)
	var unfulfillable *UnfulfillableRequirementError
	if errors.As(err, &unfulfillable) {
		return nil, &UnfulfillableRequirementError{
			Requirement: IssuerRequirement{Address: addr},
			Err:         err,
		}
	}
	return inputs, err
}

// addressInputs dispatches on the address kind: ed25519 addresses need a
// signing input, account and nft addresses need their chain transitioned,
// and restricted addresses are resolved through their inner address.
func (b *TransactionBuilder) addressInputs(addr ledger.Address,
	depth int) ([]*InputSigningData, error) {

	switch a := addr.(type) {
	case ledger.Ed25519Address:
		return b.fulfillEd25519Requirement(a)

	case ledger.AccountAddress:
		id := a.AccountID()
		return b.fulfillChainRequirement(
			AccountRequirement{AccountID: id}, ledger.AccountChainID(id),
		)

	case ledger.NftAddress:
		id := a.NftID()
		return b.fulfillChainRequirement(
			NftRequirement{NftID: id}, ledger.NftChainID(id),
		)

	case ledger.RestrictedAddress:
		if depth >= maxRestrictedDepth {
			return nil, &UnsupportedAddressTypeError{
				Kind: ledger.AddressRestricted,
			}
		}
		return b.addressInputs(a.Inner, depth+1)

	case nil:
		return nil, ErrNilAddress

	default:
		return nil, &UnsupportedAddressTypeError{Kind: a.Kind()}
	}
}

// unwrapRestricted returns the address wrapped by any number of restricted
// address layers, up to maxRestrictedDepth.
func unwrapRestricted(addr ledger.Address) ledger.Address {
	for depth := 0; depth < maxRestrictedDepth; depth++ {
		r, ok := addr.(ledger.RestrictedAddress)
		if !ok {
			return addr
		}
		addr = r.Inner
	}
	return addr
}
