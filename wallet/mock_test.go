// Copyright (c) 2024 The txwallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// This file contains a mock implementation of the ChainSource interface.
// It is used in various tests to isolate wallet logic from the ledger.

package wallet

import (
	"context"

	"github.com/novaledger/txwallet/ledger"
	"github.com/novaledger/txwallet/wallet/txauthor"
	"github.com/stretchr/testify/mock"
)

// mockChainSource is a mock implementation of the ChainSource interface.
type mockChainSource struct {
	mock.Mock
}

// A compile-time assertion to ensure that mockChainSource implements the
// ChainSource interface.
var _ ChainSource = (*mockChainSource)(nil)

// ProtocolParameters implements the ChainSource interface.
func (m *mockChainSource) ProtocolParameters(
	ctx context.Context) (*ledger.ProtocolParameters, error) {

	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*ledger.ProtocolParameters), args.Error(1)
}

// CurrentSlot implements the ChainSource interface.
func (m *mockChainSource) CurrentSlot(
	ctx context.Context) (ledger.SlotIndex, error) {

	args := m.Called(ctx)
	return args.Get(0).(ledger.SlotIndex), args.Error(1)
}

// LatestCommitment implements the ChainSource interface.
func (m *mockChainSource) LatestCommitment(
	ctx context.Context) (ledger.SlotCommitmentID, error) {

	args := m.Called(ctx)
	return args.Get(0).(ledger.SlotCommitmentID), args.Error(1)
}

// UnspentOutputs implements the ChainSource interface.
func (m *mockChainSource) UnspentOutputs(ctx context.Context,
	addrs []ledger.Address) ([]*txauthor.InputSigningData, error) {

	args := m.Called(ctx, addrs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*txauthor.InputSigningData), args.Error(1)
}

// ManaRewards implements the ChainSource interface.
func (m *mockChainSource) ManaRewards(ctx context.Context,
	outputID ledger.OutputID, slot ledger.SlotIndex) (uint64, error) {

	args := m.Called(ctx, outputID, slot)
	return args.Get(0).(uint64), args.Error(1)
}
