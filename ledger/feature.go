// Copyright (c) 2024 The txwallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledger

// BlockIssuerKey is the hash of an ed25519 public key allowed to issue
// blocks on behalf of an account.
type BlockIssuerKey [IDLength]byte

// BlockIssuerFeature turns an account into a block issuer.
type BlockIssuerFeature struct {
	ExpirySlot SlotIndex
	Keys       []BlockIssuerKey
}

// StakingFeature registers an account as a validator.
type StakingFeature struct {
	StakedAmount uint64
	FixedCost    uint64
	StartEpoch   EpochIndex
	EndEpoch     EpochIndex
}

// Features are the mutable features of an output.
type Features struct {
	Sender      Address
	Metadata    []byte
	Tag         []byte
	BlockIssuer *BlockIssuerFeature
	Staking     *StakingFeature
}

// ImmutableFeatures are fixed when a chain output is created.
type ImmutableFeatures struct {
	Issuer   Address
	Metadata []byte
}

// Clone returns a deep copy of the features.
func (f Features) Clone() Features {
	c := f
	c.Metadata = cloneBytes(f.Metadata)
	c.Tag = cloneBytes(f.Tag)
	if f.BlockIssuer != nil {
		bi := *f.BlockIssuer
		bi.Keys = append([]BlockIssuerKey(nil), f.BlockIssuer.Keys...)
		c.BlockIssuer = &bi
	}
	if f.Staking != nil {
		st := *f.Staking
		c.Staking = &st
	}
	return c
}

// Clone returns a deep copy of the immutable features.
func (f ImmutableFeatures) Clone() ImmutableFeatures {
	c := f
	c.Metadata = cloneBytes(f.Metadata)
	return c
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}
