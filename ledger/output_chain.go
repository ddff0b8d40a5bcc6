// Copyright (c) 2024 The txwallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledger

import (
	"fmt"
	"math/big"
)

// AccountOutput is the state of an account chain.
type AccountOutput struct {
	Amount            uint64
	Mana              uint64
	NativeTokens      NativeTokens
	AccountID         AccountID
	FoundryCounter    uint32
	UnlockConditions  UnlockConditions
	Features          Features
	ImmutableFeatures ImmutableFeatures
}

func (*AccountOutput) isOutput()                               {}
func (*AccountOutput) Kind() OutputKind                        { return OutputAccount }
func (o *AccountOutput) BaseTokenAmount() uint64               { return o.Amount }
func (o *AccountOutput) SetBaseTokenAmount(a uint64)           { o.Amount = a }
func (o *AccountOutput) StoredMana() uint64                    { return o.Mana }
func (o *AccountOutput) SetStoredMana(m uint64)                { o.Mana = m }
func (o *AccountOutput) NativeTokenList() NativeTokens         { return o.NativeTokens }
func (o *AccountOutput) UnlockConditionSet() *UnlockConditions { return &o.UnlockConditions }
func (o *AccountOutput) FeatureSet() *Features                 { return &o.Features }

// ChainID returns the account chain id, derived from outputID when null.
func (o *AccountOutput) ChainID(outputID OutputID) (ChainID, bool) {
	return AccountChainID(o.AccountIDOrFrom(outputID)), true
}

// AccountIDOrFrom returns the account id, derived from outputID when null.
func (o *AccountOutput) AccountIDOrFrom(outputID OutputID) AccountID {
	if o.AccountID.IsNull() {
		return AccountIDFromOutputID(outputID)
	}
	return o.AccountID
}

// Clone returns a deep copy of the output.
func (o *AccountOutput) Clone() Output {
	c := *o
	c.NativeTokens = o.NativeTokens.Clone()
	c.UnlockConditions = o.UnlockConditions.Clone()
	c.Features = o.Features.Clone()
	c.ImmutableFeatures = o.ImmutableFeatures.Clone()
	return &c
}

// Validate checks the account is owned by an address and carries no time
// based conditions.
func (o *AccountOutput) Validate() error {
	u := &o.UnlockConditions
	if u.Address == nil {
		return fmt.Errorf("%w: account output needs an address",
			ErrMissingAddressCondition)
	}
	if u.StorageDepositReturn != nil || u.Timelock != nil ||
		u.Expiration != nil || u.ImmutableAccount != nil {

		return fmt.Errorf("%w: account output", ErrUnexpectedCondition)
	}
	if o.Features.Staking != nil && o.Features.BlockIssuer == nil {
		return fmt.Errorf("%w: staking requires a block issuer feature",
			ErrUnexpectedCondition)
	}
	return o.NativeTokens.Validate()
}

// TokenSchemeKind is the serialized type byte of a token scheme.
type TokenSchemeKind byte

// SimpleTokenSchemeKind is the only token scheme the protocol defines.
const SimpleTokenSchemeKind TokenSchemeKind = 0

// SimpleTokenScheme tracks the supply of the native token a foundry
// controls.
type SimpleTokenScheme struct {
	MintedTokens  *big.Int
	MeltedTokens  *big.Int
	MaximumSupply *big.Int
}

// CirculatingSupply returns minted minus melted tokens.
func (s SimpleTokenScheme) CirculatingSupply() *big.Int {
	return new(big.Int).Sub(orZero(s.MintedTokens), orZero(s.MeltedTokens))
}

func (s SimpleTokenScheme) clone() SimpleTokenScheme {
	return SimpleTokenScheme{
		MintedTokens:  new(big.Int).Set(orZero(s.MintedTokens)),
		MeltedTokens:  new(big.Int).Set(orZero(s.MeltedTokens)),
		MaximumSupply: new(big.Int).Set(orZero(s.MaximumSupply)),
	}
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}

// FoundryOutput controls the supply of one native token.
type FoundryOutput struct {
	Amount            uint64
	NativeTokens      NativeTokens
	SerialNumber      uint32
	TokenScheme       SimpleTokenScheme
	UnlockConditions  UnlockConditions
	Features          Features
	ImmutableFeatures ImmutableFeatures
}

func (*FoundryOutput) isOutput()                               {}
func (*FoundryOutput) Kind() OutputKind                        { return OutputFoundry }
func (o *FoundryOutput) BaseTokenAmount() uint64               { return o.Amount }
func (o *FoundryOutput) SetBaseTokenAmount(a uint64)           { o.Amount = a }
func (o *FoundryOutput) StoredMana() uint64                    { return 0 }
func (o *FoundryOutput) SetStoredMana(uint64)                  {}
func (o *FoundryOutput) NativeTokenList() NativeTokens         { return o.NativeTokens }
func (o *FoundryOutput) UnlockConditionSet() *UnlockConditions { return &o.UnlockConditions }
func (o *FoundryOutput) FeatureSet() *Features                 { return &o.Features }

// AccountAddress returns the account controlling the foundry.
func (o *FoundryOutput) AccountAddress() AccountAddress {
	if o.UnlockConditions.ImmutableAccount == nil {
		return AccountAddress{}
	}
	return *o.UnlockConditions.ImmutableAccount
}

// FoundryID returns the id of the foundry.
func (o *FoundryOutput) FoundryID() FoundryID {
	return NewFoundryID(
		o.AccountAddress().AccountID(), o.SerialNumber,
		SimpleTokenSchemeKind,
	)
}

// TokenID returns the id of the native token controlled by the foundry.
func (o *FoundryOutput) TokenID() TokenID {
	return o.FoundryID()
}

// ChainID returns the foundry chain id.
func (o *FoundryOutput) ChainID(OutputID) (ChainID, bool) {
	return FoundryChainID(o.FoundryID()), true
}

// Clone returns a deep copy of the output.
func (o *FoundryOutput) Clone() Output {
	c := *o
	c.NativeTokens = o.NativeTokens.Clone()
	c.TokenScheme = o.TokenScheme.clone()
	c.UnlockConditions = o.UnlockConditions.Clone()
	c.Features = o.Features.Clone()
	c.ImmutableFeatures = o.ImmutableFeatures.Clone()
	return &c
}

// Validate checks the foundry is bound to an account and its token scheme
// is consistent.
func (o *FoundryOutput) Validate() error {
	u := &o.UnlockConditions
	if u.ImmutableAccount == nil {
		return fmt.Errorf("%w: foundry needs an immutable account",
			ErrMissingAddressCondition)
	}
	if u.Address != nil || u.StorageDepositReturn != nil ||
		u.Timelock != nil || u.Expiration != nil {

		return fmt.Errorf("%w: foundry output", ErrUnexpectedCondition)
	}

	ts := o.TokenScheme
	minted, melted := orZero(ts.MintedTokens), orZero(ts.MeltedTokens)
	switch {
	case orZero(ts.MaximumSupply).Sign() <= 0:
		return fmt.Errorf("%w: maximum supply is zero", ErrInvalidTokenScheme)
	case melted.Cmp(minted) > 0:
		return fmt.Errorf("%w: melted exceeds minted", ErrInvalidTokenScheme)
	case ts.CirculatingSupply().Cmp(ts.MaximumSupply) > 0:
		return fmt.Errorf("%w: circulating supply exceeds maximum",
			ErrInvalidTokenScheme)
	}
	return o.NativeTokens.Validate()
}

// NftOutput is the state of an nft chain.
type NftOutput struct {
	Amount            uint64
	Mana              uint64
	NativeTokens      NativeTokens
	NftID             NftID
	UnlockConditions  UnlockConditions
	Features          Features
	ImmutableFeatures ImmutableFeatures
}

func (*NftOutput) isOutput()                               {}
func (*NftOutput) Kind() OutputKind                        { return OutputNft }
func (o *NftOutput) BaseTokenAmount() uint64               { return o.Amount }
func (o *NftOutput) SetBaseTokenAmount(a uint64)           { o.Amount = a }
func (o *NftOutput) StoredMana() uint64                    { return o.Mana }
func (o *NftOutput) SetStoredMana(m uint64)                { o.Mana = m }
func (o *NftOutput) NativeTokenList() NativeTokens         { return o.NativeTokens }
func (o *NftOutput) UnlockConditionSet() *UnlockConditions { return &o.UnlockConditions }
func (o *NftOutput) FeatureSet() *Features                 { return &o.Features }

// ChainID returns the nft chain id, derived from outputID when null.
func (o *NftOutput) ChainID(outputID OutputID) (ChainID, bool) {
	return NftChainID(o.NftIDOrFrom(outputID)), true
}

// NftIDOrFrom returns the nft id, derived from outputID when null.
func (o *NftOutput) NftIDOrFrom(outputID OutputID) NftID {
	if o.NftID.IsNull() {
		return NftIDFromOutputID(outputID)
	}
	return o.NftID
}

// Clone returns a deep copy of the output.
func (o *NftOutput) Clone() Output {
	c := *o
	c.NativeTokens = o.NativeTokens.Clone()
	c.UnlockConditions = o.UnlockConditions.Clone()
	c.Features = o.Features.Clone()
	c.ImmutableFeatures = o.ImmutableFeatures.Clone()
	return &c
}

// Validate checks the nft is owned by an address.
func (o *NftOutput) Validate() error {
	u := &o.UnlockConditions
	if u.Address == nil {
		return fmt.Errorf("%w: nft output needs an address",
			ErrMissingAddressCondition)
	}
	if u.StateController != nil || u.Governor != nil ||
		u.ImmutableAccount != nil {

		return fmt.Errorf("%w: nft output", ErrUnexpectedCondition)
	}
	return o.NativeTokens.Validate()
}

// DelegationOutput delegates base tokens to a validator for an epoch range.
type DelegationOutput struct {
	Amount           uint64
	DelegatedAmount  uint64
	DelegationID     DelegationID
	Validator        AccountAddress
	StartEpoch       EpochIndex
	EndEpoch         EpochIndex
	UnlockConditions UnlockConditions
}

func (*DelegationOutput) isOutput()                               {}
func (*DelegationOutput) Kind() OutputKind                        { return OutputDelegation }
func (o *DelegationOutput) BaseTokenAmount() uint64               { return o.Amount }
func (o *DelegationOutput) SetBaseTokenAmount(a uint64)           { o.Amount = a }
func (o *DelegationOutput) StoredMana() uint64                    { return 0 }
func (o *DelegationOutput) SetStoredMana(uint64)                  {}
func (o *DelegationOutput) NativeTokenList() NativeTokens         { return nil }
func (o *DelegationOutput) UnlockConditionSet() *UnlockConditions { return &o.UnlockConditions }
func (o *DelegationOutput) FeatureSet() *Features                 { return nil }

// ChainID returns the delegation chain id, derived from outputID when null.
func (o *DelegationOutput) ChainID(outputID OutputID) (ChainID, bool) {
	return DelegationChainID(o.DelegationIDOrFrom(outputID)), true
}

// DelegationIDOrFrom returns the delegation id, derived from outputID when
// null.
func (o *DelegationOutput) DelegationIDOrFrom(outputID OutputID) DelegationID {
	if o.DelegationID.IsNull() {
		return DelegationIDFromOutputID(outputID)
	}
	return o.DelegationID
}

// Clone returns a deep copy of the output.
func (o *DelegationOutput) Clone() Output {
	c := *o
	c.UnlockConditions = o.UnlockConditions.Clone()
	return &c
}

// Validate checks the delegation names a validator and is owned by an
// address.
func (o *DelegationOutput) Validate() error {
	if AccountID(o.Validator).IsNull() {
		return ErrNullValidator
	}
	u := &o.UnlockConditions
	if u.Address == nil {
		return fmt.Errorf("%w: delegation output needs an address",
			ErrMissingAddressCondition)
	}
	if u.StorageDepositReturn != nil || u.Timelock != nil ||
		u.Expiration != nil || u.StateController != nil ||
		u.Governor != nil || u.ImmutableAccount != nil {

		return fmt.Errorf("%w: delegation output", ErrUnexpectedCondition)
	}
	return nil
}

// AnchorOutput is the state of an anchor chain, controlled by a state
// controller and a governor.
type AnchorOutput struct {
	Amount            uint64
	Mana              uint64
	AnchorID          AnchorID
	StateIndex        uint32
	UnlockConditions  UnlockConditions
	Features          Features
	ImmutableFeatures ImmutableFeatures
}

func (*AnchorOutput) isOutput()                               {}
func (*AnchorOutput) Kind() OutputKind                        { return OutputAnchor }
func (o *AnchorOutput) BaseTokenAmount() uint64               { return o.Amount }
func (o *AnchorOutput) SetBaseTokenAmount(a uint64)           { o.Amount = a }
func (o *AnchorOutput) StoredMana() uint64                    { return o.Mana }
func (o *AnchorOutput) SetStoredMana(m uint64)                { o.Mana = m }
func (o *AnchorOutput) NativeTokenList() NativeTokens         { return nil }
func (o *AnchorOutput) UnlockConditionSet() *UnlockConditions { return &o.UnlockConditions }
func (o *AnchorOutput) FeatureSet() *Features                 { return &o.Features }

// ChainID returns the anchor chain id, derived from outputID when null.
func (o *AnchorOutput) ChainID(outputID OutputID) (ChainID, bool) {
	id := o.AnchorID
	if id.IsNull() {
		id = AnchorIDFromOutputID(outputID)
	}
	return AnchorChainID(id), true
}

// Clone returns a deep copy of the output.
func (o *AnchorOutput) Clone() Output {
	c := *o
	c.UnlockConditions = o.UnlockConditions.Clone()
	c.Features = o.Features.Clone()
	c.ImmutableFeatures = o.ImmutableFeatures.Clone()
	return &c
}

// Validate checks both controllers are present.
func (o *AnchorOutput) Validate() error {
	u := &o.UnlockConditions
	if u.StateController == nil || u.Governor == nil {
		return fmt.Errorf("%w: anchor needs state controller and "+
			"governor", ErrMissingAddressCondition)
	}
	if u.Address != nil || u.StorageDepositReturn != nil ||
		u.Timelock != nil || u.Expiration != nil {

		return fmt.Errorf("%w: anchor output", ErrUnexpectedCondition)
	}
	return nil
}
