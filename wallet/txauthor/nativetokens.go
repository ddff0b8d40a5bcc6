// Copyright (c) 2024 The txwallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txauthor

import (
	"math/big"
	"sort"

	"github.com/novaledger/txwallet/ledger"
)

// nativeTokenSums returns the native tokens entering the transaction, the
// selected inputs plus minted tokens, and those leaving it, the outputs plus
// melted and burned tokens.
func (b *TransactionBuilder) nativeTokenSums() (ledger.NativeTokensBuilder,
	ledger.NativeTokensBuilder, error) {

	in := ledger.NewNativeTokensBuilder()
	out := ledger.NewNativeTokensBuilder()

	for _, input := range b.selected {
		if err := in.AddTokens(input.Output.NativeTokenList()); err != nil {
			return nil, nil, err
		}
	}
	for _, o := range b.nonRemainderOutputs() {
		if err := out.AddTokens(o.NativeTokenList()); err != nil {
			return nil, nil, err
		}
	}

	minted, melted, err := b.mintedAndMelted()
	if err != nil {
		return nil, nil, err
	}
	if err := in.Merge(minted); err != nil {
		return nil, nil, err
	}
	if err := out.Merge(melted); err != nil {
		return nil, nil, err
	}
	if err := out.AddTokens(b.burn.nativeTokens()); err != nil {
		return nil, nil, err
	}

	return in, out, nil
}

// mintedAndMelted compares the circulating supply of every foundry output
// with its input.  Foundries created by the transaction mint their whole
// circulating supply.
func (b *TransactionBuilder) mintedAndMelted() (ledger.NativeTokensBuilder,
	ledger.NativeTokensBuilder, error) {

	minted := ledger.NewNativeTokensBuilder()
	melted := ledger.NewNativeTokensBuilder()

	for _, o := range b.nonRemainderOutputs() {
		foundry, ok := o.(*ledger.FoundryOutput)
		if !ok {
			continue
		}
		id := foundry.TokenID()

		inSupply := new(big.Int)
		for _, input := range b.selected {
			f, ok := input.Output.(*ledger.FoundryOutput)
			if ok && f.TokenID() == id {
				inSupply = f.TokenScheme.CirculatingSupply()
				break
			}
		}
		outSupply := foundry.TokenScheme.CirculatingSupply()

		var err error
		switch outSupply.Cmp(inSupply) {
		case 1:
			err = minted.Add(id, new(big.Int).Sub(outSupply, inSupply))
		case -1:
			err = melted.Add(id, new(big.Int).Sub(inSupply, outSupply))
		}
		if err != nil {
			return nil, nil, err
		}
	}

	return minted, melted, nil
}

// nativeTokenSurplus returns the native tokens that enter the transaction
// but leave it through no output, sorted by id.
func (b *TransactionBuilder) nativeTokenSurplus() (ledger.NativeTokens, error) {
	in, out, err := b.nativeTokenSums()
	if err != nil {
		return nil, err
	}

	surplus := ledger.NewNativeTokensBuilder()
	for id, amount := range in {
		if diff := new(big.Int).Sub(amount, out.Get(id)); diff.Sign() > 0 {
			if err := surplus.Add(id, diff); err != nil {
				return nil, err
			}
		}
	}
	return surplus.Finish(), nil
}

type tokenShortfall struct {
	id       ledger.TokenID
	found    *big.Int
	required *big.Int
}

// missingNativeTokens returns the native tokens the outputs need beyond what
// the inputs provide, sorted by id.
func (b *TransactionBuilder) missingNativeTokens() ([]tokenShortfall, error) {
	in, out, err := b.nativeTokenSums()
	if err != nil {
		return nil, err
	}

	var missing []tokenShortfall
	for id, amount := range out {
		found := in.Get(id)
		if amount.Cmp(found) > 0 {
			missing = append(missing, tokenShortfall{
				id:       id,
				found:    found,
				required: new(big.Int).Set(amount),
			})
		}
	}
	sort.Slice(missing, func(i, j int) bool {
		return missing[i].id.Compare(missing[j].id) < 0
	})
	return missing, nil
}

// fulfillNativeTokensRequirement selects inputs holding the native tokens
// the outputs miss.
func (b *TransactionBuilder) fulfillNativeTokensRequirement() ([]*InputSigningData, error) {
	missing, err := b.missingNativeTokens()
	if err != nil || len(missing) == 0 {
		return nil, err
	}

	if !b.allowAdditionalInputSelection {
		return nil, &AdditionalInputsRequiredError{
			Requirement: NativeTokensRequirement{},
		}
	}

	var picked []*InputSigningData
	gathered := ledger.NewNativeTokensBuilder()
	for _, shortfall := range missing {
		need := new(big.Int).Sub(shortfall.required, shortfall.found)
		need.Sub(need, gathered.Get(shortfall.id))

		for i := 0; i < len(b.available) && need.Sign() > 0; {
			input := b.available[i]
			amount := input.Output.NativeTokenList().Get(shortfall.id)
			if amount.Sign() == 0 ||
				input.Output.Kind() == ledger.OutputDelegation {

				i++
				continue
			}

			// takeAvailable moves the last input to i, so i is not
			// advanced.
			picked = append(picked, b.takeAvailable(i))
			if err := gathered.AddTokens(input.Output.NativeTokenList()); err != nil {
				return nil, err
			}
			need.Sub(need, amount)
		}

		if need.Sign() > 0 {
			found := new(big.Int).Add(
				shortfall.found, gathered.Get(shortfall.id),
			)
			return nil, &InsufficientNativeTokenAmountError{
				TokenID:  shortfall.id,
				Found:    found,
				Required: shortfall.required,
			}
		}
	}

	return picked, nil
}

// chunkNativeTokens splits tokens into lists an output can hold.
func chunkNativeTokens(tokens ledger.NativeTokens) []ledger.NativeTokens {
	var chunks []ledger.NativeTokens
	for len(tokens) > 0 {
		n := len(tokens)
		if n > ledger.MaxNativeTokensPerOutput {
			n = ledger.MaxNativeTokensPerOutput
		}
		chunks = append(chunks, tokens[:n])
		tokens = tokens[n:]
	}
	return chunks
}
