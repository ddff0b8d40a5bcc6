// Copyright (c) 2024 The txwallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txauthor

import (
	"math"

	"github.com/novaledger/txwallet/ledger"
	"github.com/novaledger/txwallet/wallet/txsizes"
)

// transition returns the successor of a selected chain input, or nil when
// the chain is burned, continued by a provided output, or the input is not
// a chain.  The builder state is not modified.
func (b *TransactionBuilder) transition(input *InputSigningData) (ledger.Output, error) {
	switch o := input.Output.(type) {
	case *ledger.AccountOutput:
		return b.transitionAccount(o, input.OutputID)

	case *ledger.NftOutput:
		return b.transitionNft(o, input.OutputID)

	case *ledger.FoundryOutput:
		return b.transitionFoundry(o)

	case *ledger.BasicOutput:
		key, ok := b.transitions.implicitAccount(input.OutputID)
		if !ok {
			return nil, nil
		}
		if !ledger.IsImplicitAccount(o) {
			return nil, &TransitionNonImplicitAccountError{
				OutputID: input.OutputID,
			}
		}
		return b.transitionImplicitAccount(o, input.OutputID, key)
	}

	return nil, nil
}

func (b *TransactionBuilder) transitionAccount(input *ledger.AccountOutput,
	outputID ledger.OutputID) (ledger.Output, error) {

	id := input.AccountIDOrFrom(outputID)
	if b.burn.hasAccount(id) || b.providesChain(ledger.AccountChainID(id)) {
		return nil, nil
	}

	next := input.Clone().(*ledger.AccountOutput)
	next.AccountID = id
	next.Mana = 0
	next.Features.Sender = nil

	// New foundries of the account are numbered after its counter.
	for _, o := range b.providedOutputs {
		foundry, ok := o.(*ledger.FoundryOutput)
		if !ok || foundry.AccountAddress().AccountID() != id {
			continue
		}
		if foundry.SerialNumber > next.FoundryCounter {
			next.FoundryCounter = foundry.SerialNumber
		}
	}

	if change, ok := b.transitions.account(id); ok {
		if err := b.applyAccountChange(next, change); err != nil {
			return nil, err
		}
	}

	return b.withMinimumAmount(next)
}

// applyAccountChange applies a staking change to a transitioned account.
func (b *TransactionBuilder) applyAccountChange(account *ledger.AccountOutput,
	change AccountChange) error {

	pastBounded := b.params.EpochOf(b.params.PastBoundedSlot(b.commitment))
	features := &account.Features

	switch c := change.(type) {
	case BeginStaking:
		if features.Staking != nil {
			return &AlreadyStakingError{AccountID: account.AccountID}
		}
		end := ledger.EpochIndex(math.MaxUint32)
		if period, ok := optionValue(c.StakingPeriod); ok {
			if ledger.EpochIndex(period) < b.params.StakingUnbondingPeriod {
				return &StakingPeriodTooShortError{
					AdditionalEpochs: period,
					Min:              b.params.StakingUnbondingPeriod,
				}
			}
			end = addEpochs(pastBounded, period)
		}
		features.Staking = &ledger.StakingFeature{
			StakedAmount: c.StakedAmount,
			FixedCost:    c.FixedCost,
			StartEpoch:   pastBounded,
			EndEpoch:     end,
		}

	case ExtendStaking:
		staking := features.Staking
		if staking == nil {
			return &NotStakingError{AccountID: account.AccountID}
		}
		futureBounded := b.params.EpochOf(
			b.params.FutureBoundedSlot(b.commitment),
		)

		// A running period is extended, an ended one is restarted.
		if futureBounded <= staking.EndEpoch {
			staking.EndEpoch = addEpochs(
				staking.EndEpoch, c.AdditionalEpochs,
			)
			return nil
		}
		if ledger.EpochIndex(c.AdditionalEpochs) < b.params.StakingUnbondingPeriod {
			return &StakingPeriodTooShortError{
				AdditionalEpochs: c.AdditionalEpochs,
				Min:              b.params.StakingUnbondingPeriod,
			}
		}
		staking.StartEpoch = pastBounded
		staking.EndEpoch = addEpochs(pastBounded, c.AdditionalEpochs)

	case EndStaking:
		if features.Staking == nil {
			return &NotStakingError{AccountID: account.AccountID}
		}
		features.Staking = nil
	}

	return nil
}

func addEpochs(epoch ledger.EpochIndex, n uint32) ledger.EpochIndex {
	sum := uint64(epoch) + uint64(n)
	if sum > math.MaxUint32 {
		return math.MaxUint32
	}
	return ledger.EpochIndex(sum)
}

func (b *TransactionBuilder) transitionNft(input *ledger.NftOutput,
	outputID ledger.OutputID) (ledger.Output, error) {

	id := input.NftIDOrFrom(outputID)
	if b.burn.hasNft(id) || b.providesChain(ledger.NftChainID(id)) {
		return nil, nil
	}

	next := input.Clone().(*ledger.NftOutput)
	next.NftID = id
	next.Mana = 0
	next.Features.Sender = nil

	return b.withMinimumAmount(next)
}

func (b *TransactionBuilder) transitionFoundry(
	input *ledger.FoundryOutput) (ledger.Output, error) {

	id := input.FoundryID()
	if b.burn.hasFoundry(id) || b.providesChain(ledger.FoundryChainID(id)) {
		return nil, nil
	}

	return b.withMinimumAmount(input.Clone())
}

// transitionImplicitAccount turns an implicit account into an account that
// keeps the full amount and issues blocks with key.
func (b *TransactionBuilder) transitionImplicitAccount(
	input *ledger.BasicOutput, outputID ledger.OutputID,
	key ledger.BlockIssuerKey) (ledger.Output, error) {

	owner, _ := ledger.BackingEd25519(input.UnlockConditions.Address)

	return &ledger.AccountOutput{
		Amount:       input.Amount,
		NativeTokens: input.NativeTokens.Clone(),
		AccountID:    ledger.AccountIDFromOutputID(outputID),
		UnlockConditions: ledger.UnlockConditions{
			Address: owner,
		},
		Features: ledger.Features{
			BlockIssuer: &ledger.BlockIssuerFeature{
				ExpirySlot: math.MaxUint32,
				Keys:       []ledger.BlockIssuerKey{key},
			},
		},
	}, nil
}

func (b *TransactionBuilder) withMinimumAmount(o ledger.Output) (ledger.Output, error) {
	amount, err := txsizes.MinimumAmount(o, b.params.StorageScore)
	if err != nil {
		return nil, err
	}
	o.SetBaseTokenAmount(amount)
	return o, nil
}
