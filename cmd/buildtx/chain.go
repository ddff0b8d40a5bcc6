// Copyright (c) 2024 The txwallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"context"

	"github.com/novaledger/txwallet/ledger"
	"github.com/novaledger/txwallet/wallet"
	"github.com/novaledger/txwallet/wallet/txauthor"
)

// staticChain serves the ledger snapshot of a request file.
type staticChain struct {
	params     *ledger.ProtocolParameters
	slot       ledger.SlotIndex
	commitment ledger.SlotCommitmentID
	unspent    []*txauthor.InputSigningData
	rewards    map[ledger.OutputID]uint64
}

var _ wallet.ChainSource = (*staticChain)(nil)

func (c *staticChain) ProtocolParameters(
	context.Context) (*ledger.ProtocolParameters, error) {

	return c.params, nil
}

func (c *staticChain) CurrentSlot(context.Context) (ledger.SlotIndex, error) {
	return c.slot, nil
}

func (c *staticChain) LatestCommitment(
	context.Context) (ledger.SlotCommitmentID, error) {

	return c.commitment, nil
}

// UnspentOutputs returns the outputs whose address or expiration return
// address is backed by one of addrs, together with every output locked to
// an account or nft.  Whether the chain owning such an output is
// controlled is decided when the transaction is built.
func (c *staticChain) UnspentOutputs(_ context.Context,
	addrs []ledger.Address) ([]*txauthor.InputSigningData, error) {

	owned := make(map[ledger.Ed25519Address]struct{}, len(addrs))
	for _, addr := range addrs {
		if backing, ok := ledger.BackingEd25519(addr); ok {
			owned[backing] = struct{}{}
		}
	}

	var unspent []*txauthor.InputSigningData
	for _, input := range c.unspent {
		if c.owns(owned, input.Output) {
			unspent = append(unspent, input)
		}
	}
	return unspent, nil
}

func (c *staticChain) owns(owned map[ledger.Ed25519Address]struct{},
	o ledger.Output) bool {

	u := o.UnlockConditionSet()
	candidates := []ledger.Address{u.Address}
	if u.Expiration != nil {
		candidates = append(candidates, u.Expiration.ReturnAddress)
	}

	for _, addr := range candidates {
		if addr == nil {
			continue
		}
		if backing, ok := ledger.BackingEd25519(addr); ok {
			if _, ok := owned[backing]; ok {
				return true
			}
			continue
		}
		switch unwrapped(addr).(type) {
		case ledger.AccountAddress, ledger.NftAddress:
			return true
		}
	}
	return false
}

func (c *staticChain) ManaRewards(_ context.Context, outputID ledger.OutputID,
	_ ledger.SlotIndex) (uint64, error) {

	return c.rewards[outputID], nil
}

// unwrapped strips restricted address wrappers.
func unwrapped(addr ledger.Address) ledger.Address {
	for {
		restricted, ok := addr.(ledger.RestrictedAddress)
		if !ok {
			return addr
		}
		addr = restricted.Inner
	}
}
