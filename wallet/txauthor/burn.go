// Copyright (c) 2024 The txwallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txauthor

import (
	"github.com/novaledger/txwallet/ledger"
)

// Burn lists what the transaction destroys instead of carrying forward.
type Burn struct {
	// Mana burns the mana of the initially required inputs that exceeds
	// the outputs.
	Mana bool

	// GeneratedMana burns the mana generated by the inputs.
	GeneratedMana bool

	Accounts     []ledger.AccountID
	Foundries    []ledger.FoundryID
	Nfts         []ledger.NftID
	Delegations  []ledger.DelegationID
	NativeTokens ledger.NativeTokens
}

func (b *Burn) hasAccount(id ledger.AccountID) bool {
	return b != nil && contains(b.Accounts, id)
}

func (b *Burn) hasFoundry(id ledger.FoundryID) bool {
	return b != nil && contains(b.Foundries, id)
}

func (b *Burn) hasNft(id ledger.NftID) bool {
	return b != nil && contains(b.Nfts, id)
}

func (b *Burn) hasDelegation(id ledger.DelegationID) bool {
	return b != nil && contains(b.Delegations, id)
}

func (b *Burn) burnsMana() bool {
	return b != nil && b.Mana
}

func (b *Burn) burnsGeneratedMana() bool {
	return b != nil && b.GeneratedMana
}

func (b *Burn) nativeTokens() ledger.NativeTokens {
	if b == nil {
		return nil
	}
	return b.NativeTokens
}

func (b *Burn) empty() bool {
	return b == nil || (!b.Mana && !b.GeneratedMana &&
		len(b.Accounts) == 0 && len(b.Foundries) == 0 &&
		len(b.Nfts) == 0 && len(b.Delegations) == 0 &&
		len(b.NativeTokens) == 0)
}

func contains[T comparable](s []T, v T) bool {
	for _, e := range s {
		if e == v {
			return true
		}
	}
	return false
}

// burnRequirements pushes a requirement for every burned chain and derives
// the capabilities the burn needs.  A chain that is burned must not also be
// given a successor.
func (b *TransactionBuilder) burnRequirements() error {
	burn := b.burn
	if burn == nil {
		return nil
	}

	for _, id := range burn.Accounts {
		chainID := ledger.AccountChainID(id)
		if b.providesChain(chainID) {
			return &BurnAndTransitionError{ChainID: chainID}
		}
		if _, ok := b.transitions.account(id); ok {
			return &BurnAndTransitionError{ChainID: chainID}
		}
		b.pushRequirement(AccountRequirement{AccountID: id})
		b.capabilities |= ledger.CapDestroyAccount
	}

	for _, id := range burn.Foundries {
		chainID := ledger.FoundryChainID(id)
		if b.providesChain(chainID) {
			return &BurnAndTransitionError{ChainID: chainID}
		}
		b.pushRequirement(FoundryRequirement{FoundryID: id})
		b.capabilities |= ledger.CapDestroyFoundry
	}

	for _, id := range burn.Nfts {
		chainID := ledger.NftChainID(id)
		if b.providesChain(chainID) {
			return &BurnAndTransitionError{ChainID: chainID}
		}
		b.pushRequirement(NftRequirement{NftID: id})
		b.capabilities |= ledger.CapDestroyNft
	}

	for _, id := range burn.Delegations {
		chainID := ledger.DelegationChainID(id)
		if b.providesChain(chainID) {
			return &BurnAndTransitionError{ChainID: chainID}
		}
		b.pushRequirement(DelegationRequirement{DelegationID: id})
	}

	if len(burn.NativeTokens) > 0 {
		b.capabilities |= ledger.CapBurnNativeTokens
	}

	return nil
}

// providesChain reports whether a provided output continues chainID.
func (b *TransactionBuilder) providesChain(chainID ledger.ChainID) bool {
	for _, o := range b.providedOutputs {
		if id, ok := outputChainID(o); ok && id == chainID {
			return true
		}
	}
	return false
}
