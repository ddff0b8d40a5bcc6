// Copyright (c) 2024 The txwallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledger

import (
	"errors"
	"fmt"
)

// OutputKind is the serialized type byte of an output.
type OutputKind byte

// Output kinds known to the protocol.
const (
	OutputBasic      OutputKind = 3
	OutputAccount    OutputKind = 4
	OutputAnchor     OutputKind = 5
	OutputFoundry    OutputKind = 6
	OutputNft        OutputKind = 7
	OutputDelegation OutputKind = 8
)

// String returns the name of the output kind.
func (k OutputKind) String() string {
	switch k {
	case OutputBasic:
		return "basic"
	case OutputAccount:
		return "account"
	case OutputAnchor:
		return "anchor"
	case OutputFoundry:
		return "foundry"
	case OutputNft:
		return "nft"
	case OutputDelegation:
		return "delegation"
	default:
		return fmt.Sprintf("unknown(%d)", byte(k))
	}
}

var (
	// ErrMissingAddressCondition is returned for an output lacking the
	// unlock condition its kind requires.
	ErrMissingAddressCondition = errors.New("missing required unlock condition")

	// ErrUnexpectedCondition is returned for an output carrying an unlock
	// condition its kind does not allow.
	ErrUnexpectedCondition = errors.New("unlock condition not allowed")

	// ErrInvalidTokenScheme is returned for a foundry whose token scheme
	// counters are inconsistent.
	ErrInvalidTokenScheme = errors.New("invalid token scheme")

	// ErrNullValidator is returned for a delegation without a validator.
	ErrNullValidator = errors.New("delegation validator is null")
)

// Output is the closed set of output kinds. Every implementation is a
// pointer type; builders only mutate outputs they cloned themselves.
type Output interface {
	// Kind returns the output kind.
	Kind() OutputKind

	// BaseTokenAmount returns the amount of base tokens held.
	BaseTokenAmount() uint64

	// SetBaseTokenAmount replaces the amount of base tokens held.
	SetBaseTokenAmount(uint64)

	// StoredMana returns the mana stored in the output.
	StoredMana() uint64

	// SetStoredMana replaces the stored mana. Outputs that cannot hold
	// mana ignore the call.
	SetStoredMana(uint64)

	// NativeTokenList returns the native tokens held.
	NativeTokenList() NativeTokens

	// UnlockConditionSet returns the unlock conditions.
	UnlockConditionSet() *UnlockConditions

	// FeatureSet returns the mutable features, nil for kinds without.
	FeatureSet() *Features

	// ChainID returns the chain the output belongs to. Null ids are
	// derived from outputID. Basic outputs have no chain.
	ChainID(outputID OutputID) (ChainID, bool)

	// Clone returns a deep copy.
	Clone() Output

	// Validate performs the syntactic checks of the output kind.
	Validate() error

	isOutput()
}

// BasicOutput holds base tokens, mana and native tokens without any chain
// state.
type BasicOutput struct {
	Amount           uint64
	Mana             uint64
	NativeTokens     NativeTokens
	UnlockConditions UnlockConditions
	Features         Features
}

func (*BasicOutput) isOutput()                               {}
func (*BasicOutput) Kind() OutputKind                        { return OutputBasic }
func (o *BasicOutput) BaseTokenAmount() uint64               { return o.Amount }
func (o *BasicOutput) SetBaseTokenAmount(a uint64)           { o.Amount = a }
func (o *BasicOutput) StoredMana() uint64                    { return o.Mana }
func (o *BasicOutput) SetStoredMana(m uint64)                { o.Mana = m }
func (o *BasicOutput) NativeTokenList() NativeTokens         { return o.NativeTokens }
func (o *BasicOutput) UnlockConditionSet() *UnlockConditions { return &o.UnlockConditions }
func (o *BasicOutput) FeatureSet() *Features                 { return &o.Features }
func (o *BasicOutput) ChainID(OutputID) (ChainID, bool)      { return ChainID{}, false }

// Clone returns a deep copy of the output.
func (o *BasicOutput) Clone() Output {
	return &BasicOutput{
		Amount:           o.Amount,
		Mana:             o.Mana,
		NativeTokens:     o.NativeTokens.Clone(),
		UnlockConditions: o.UnlockConditions.Clone(),
		Features:         o.Features.Clone(),
	}
}

// Validate checks the output is owned by an address and its tokens are well
// formed.
func (o *BasicOutput) Validate() error {
	u := &o.UnlockConditions
	if u.Address == nil {
		return fmt.Errorf("%w: basic output needs an address",
			ErrMissingAddressCondition)
	}
	if u.StateController != nil || u.Governor != nil ||
		u.ImmutableAccount != nil {

		return fmt.Errorf("%w: basic output", ErrUnexpectedCondition)
	}
	if o.Features.BlockIssuer != nil || o.Features.Staking != nil {
		return fmt.Errorf("%w: basic output holds account features",
			ErrUnexpectedCondition)
	}
	return o.NativeTokens.Validate()
}

// IsImplicitAccount reports whether o is a basic output owned by an implicit
// account creation address.
func IsImplicitAccount(o Output) bool {
	basic, ok := o.(*BasicOutput)
	if !ok {
		return false
	}
	_, ok = basic.UnlockConditions.Address.(ImplicitAccountCreationAddress)
	return ok
}

// IsSimpleDeposit reports whether o is a basic output that only carries an
// address unlock condition, the shape required for storage deposit returns.
func IsSimpleDeposit(o Output, to Address) bool {
	basic, ok := o.(*BasicOutput)
	if !ok {
		return false
	}
	u := &basic.UnlockConditions
	return u.Address == to && u.StorageDepositReturn == nil &&
		u.Timelock == nil && u.Expiration == nil &&
		len(basic.NativeTokens) == 0 && basic.Mana == 0 &&
		basic.Features.Sender == nil && basic.Features.Metadata == nil &&
		basic.Features.Tag == nil
}
