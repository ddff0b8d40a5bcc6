// Copyright (c) 2024 The txwallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledger

import (
	"errors"
	"fmt"
	"math/big"
	"sort"
)

// MaxNativeTokensPerOutput is the largest number of distinct native tokens a
// single output may hold.
const MaxNativeTokensPerOutput = 64

var (
	// MaxNativeTokenAmount is the largest amount a native token balance can
	// reach: 2^256 - 1.
	MaxNativeTokenAmount = new(big.Int).Sub(
		new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1),
	)

	// ErrNativeTokenOverflow is returned when a native token sum exceeds
	// MaxNativeTokenAmount.
	ErrNativeTokenOverflow = errors.New("native token amount overflows u256")

	// ErrNativeTokenUnderflow is returned when subtracting more of a native
	// token than is present.
	ErrNativeTokenUnderflow = errors.New("native token amount underflow")

	// ErrNativeTokenZero is returned for a native token entry with a zero
	// amount.
	ErrNativeTokenZero = errors.New("native token amount is zero")

	// ErrNativeTokensUnsorted is returned when native tokens are not sorted
	// by id or contain a duplicate id.
	ErrNativeTokensUnsorted = errors.New("native tokens not sorted and unique")

	// ErrTooManyNativeTokens is returned when an output holds more than
	// MaxNativeTokensPerOutput tokens.
	ErrTooManyNativeTokens = errors.New("too many native tokens")
)

// NativeToken is an amount of a single token.
type NativeToken struct {
	ID     TokenID
	Amount *big.Int
}

// NativeTokens is a list of native tokens sorted by id.
type NativeTokens []NativeToken

// Clone returns a deep copy of the tokens.
func (n NativeTokens) Clone() NativeTokens {
	if n == nil {
		return nil
	}
	c := make(NativeTokens, len(n))
	for i, t := range n {
		c[i] = NativeToken{ID: t.ID, Amount: new(big.Int).Set(t.Amount)}
	}
	return c
}

// Get returns the amount held of token id, zero if absent.
func (n NativeTokens) Get(id TokenID) *big.Int {
	for _, t := range n {
		if t.ID == id {
			return new(big.Int).Set(t.Amount)
		}
	}
	return new(big.Int)
}

// Contains reports whether the list holds token id.
func (n NativeTokens) Contains(id TokenID) bool {
	for _, t := range n {
		if t.ID == id {
			return true
		}
	}
	return false
}

// Validate checks that the list is sorted, unique, non-zero and in range.
func (n NativeTokens) Validate() error {
	if len(n) > MaxNativeTokensPerOutput {
		return fmt.Errorf("%w: %d", ErrTooManyNativeTokens, len(n))
	}
	for i, t := range n {
		if t.Amount == nil || t.Amount.Sign() <= 0 {
			return fmt.Errorf("%w: %v", ErrNativeTokenZero, t.ID)
		}
		if t.Amount.Cmp(MaxNativeTokenAmount) > 0 {
			return fmt.Errorf("%w: %v", ErrNativeTokenOverflow, t.ID)
		}
		if i > 0 && n[i-1].ID.Compare(t.ID) >= 0 {
			return ErrNativeTokensUnsorted
		}
	}
	return nil
}

// NativeTokensBuilder accumulates native token balances.
type NativeTokensBuilder map[TokenID]*big.Int

// NewNativeTokensBuilder returns an empty builder.
func NewNativeTokensBuilder() NativeTokensBuilder {
	return make(NativeTokensBuilder)
}

// Add increases the balance of id by amount.
func (b NativeTokensBuilder) Add(id TokenID, amount *big.Int) error {
	cur, ok := b[id]
	if !ok {
		cur = new(big.Int)
		b[id] = cur
	}
	cur.Add(cur, amount)
	if cur.Cmp(MaxNativeTokenAmount) > 0 {
		return fmt.Errorf("%w: %v", ErrNativeTokenOverflow, id)
	}
	return nil
}

// AddTokens adds every token in tokens.
func (b NativeTokensBuilder) AddTokens(tokens NativeTokens) error {
	for _, t := range tokens {
		if err := b.Add(t.ID, t.Amount); err != nil {
			return err
		}
	}
	return nil
}

// Merge adds every balance of other.
func (b NativeTokensBuilder) Merge(other NativeTokensBuilder) error {
	for id, amount := range other {
		if err := b.Add(id, amount); err != nil {
			return err
		}
	}
	return nil
}

// Sub decreases the balance of id by amount.
func (b NativeTokensBuilder) Sub(id TokenID, amount *big.Int) error {
	cur := b.Get(id)
	if cur.Cmp(amount) < 0 {
		return fmt.Errorf("%w: %v", ErrNativeTokenUnderflow, id)
	}
	b[id] = cur.Sub(cur, amount)
	return nil
}

// Get returns a copy of the balance of id.
func (b NativeTokensBuilder) Get(id TokenID) *big.Int {
	if cur, ok := b[id]; ok {
		return new(big.Int).Set(cur)
	}
	return new(big.Int)
}

// Finish returns the non-zero balances sorted by token id.
func (b NativeTokensBuilder) Finish() NativeTokens {
	out := make(NativeTokens, 0, len(b))
	for id, amount := range b {
		if amount.Sign() == 0 {
			continue
		}
		out = append(out, NativeToken{ID: id, Amount: new(big.Int).Set(amount)})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID.Compare(out[j].ID) < 0
	})
	return out
}
