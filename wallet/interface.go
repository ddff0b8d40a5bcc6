// Copyright (c) 2024 The txwallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"context"

	"github.com/novaledger/txwallet/ledger"
	"github.com/novaledger/txwallet/wallet/txauthor"
)

// ChainSource is the view of the ledger the wallet builds transactions
// against.  Implementations must be safe for concurrent use.
type ChainSource interface {
	// ProtocolParameters returns the parameters of the network.
	ProtocolParameters(ctx context.Context) (*ledger.ProtocolParameters,
		error)

	// CurrentSlot returns the slot new transactions are created in.
	CurrentSlot(ctx context.Context) (ledger.SlotIndex, error)

	// LatestCommitment returns the latest slot commitment.
	LatestCommitment(ctx context.Context) (ledger.SlotCommitmentID, error)

	// UnspentOutputs returns the unspent outputs unlockable by any of the
	// given addresses.
	UnspentOutputs(ctx context.Context,
		addrs []ledger.Address) ([]*txauthor.InputSigningData, error)

	// ManaRewards returns the mana rewards claimable by consuming the
	// given delegation or staking output in slot.
	ManaRewards(ctx context.Context, outputID ledger.OutputID,
		slot ledger.SlotIndex) (uint64, error)
}
