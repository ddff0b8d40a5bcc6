// Copyright (c) 2024 The txwallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledger

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"

	"github.com/lightningnetwork/lnd/tlv"
)

// ErrAmountTooLarge is returned when a 256 bit value cannot be serialized.
var ErrAmountTooLarge = errors.New("value does not fit in 256 bits")

// recordSet collects tlv records in ascending type order.
type recordSet []tlv.Record

func (r *recordSet) u8(typ tlv.Type, v uint8) {
	*r = append(*r, tlv.MakePrimitiveRecord(typ, &v))
}

func (r *recordSet) u32(typ tlv.Type, v uint32) {
	*r = append(*r, tlv.MakePrimitiveRecord(typ, &v))
}

func (r *recordSet) u64(typ tlv.Type, v uint64) {
	*r = append(*r, tlv.MakePrimitiveRecord(typ, &v))
}

func (r *recordSet) id(typ tlv.Type, v [IDLength]byte) {
	*r = append(*r, tlv.MakePrimitiveRecord(typ, &v))
}

// bytes adds a variable length record. Nil values are skipped so absent
// optional fields take no space.
func (r *recordSet) bytes(typ tlv.Type, v []byte) {
	if v == nil {
		return
	}
	*r = append(*r, tlv.MakePrimitiveRecord(typ, &v))
}

func (r recordSet) encode() ([]byte, error) {
	stream, err := tlv.NewStream(r...)
	if err != nil {
		return nil, err
	}

	var b bytes.Buffer
	if err := stream.Encode(&b); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

func u256Bytes(v *big.Int) ([]byte, error) {
	if v == nil {
		return make([]byte, 32), nil
	}
	if v.Sign() < 0 || v.BitLen() > 256 {
		return nil, ErrAmountTooLarge
	}
	return v.FillBytes(make([]byte, 32)), nil
}

func addressBytes(a Address) []byte {
	if a == nil {
		return nil
	}
	return a.Bytes()
}

func encodeNativeTokens(tokens NativeTokens) ([]byte, error) {
	if len(tokens) == 0 {
		return nil, nil
	}
	b := make([]byte, 0, len(tokens)*(FoundryIDLength+32))
	for _, t := range tokens {
		amount, err := u256Bytes(t.Amount)
		if err != nil {
			return nil, fmt.Errorf("token %v: %w", t.ID, err)
		}
		b = append(b, t.ID[:]...)
		b = append(b, amount...)
	}
	return b, nil
}

func encodeUnlockConditions(u *UnlockConditions) ([]byte, error) {
	var r recordSet
	r.bytes(0, addressBytes(u.Address))
	if sdr := u.StorageDepositReturn; sdr != nil {
		b := binary.LittleEndian.AppendUint64(
			addressBytes(sdr.ReturnAddress), sdr.Amount,
		)
		r.bytes(1, b)
	}
	if u.Timelock != nil {
		r.u32(2, uint32(*u.Timelock))
	}
	if e := u.Expiration; e != nil {
		b := binary.LittleEndian.AppendUint32(
			addressBytes(e.ReturnAddress), uint32(e.Slot),
		)
		r.bytes(3, b)
	}
	r.bytes(4, addressBytes(u.StateController))
	r.bytes(5, addressBytes(u.Governor))
	if u.ImmutableAccount != nil {
		r.bytes(6, u.ImmutableAccount.Bytes())
	}
	return r.encode()
}

func encodeFeatures(f *Features) ([]byte, error) {
	if f == nil {
		return nil, nil
	}

	var r recordSet
	r.bytes(0, addressBytes(f.Sender))
	r.bytes(1, f.Metadata)
	r.bytes(2, f.Tag)
	if bi := f.BlockIssuer; bi != nil {
		b := binary.LittleEndian.AppendUint32(nil, uint32(bi.ExpirySlot))
		for _, k := range bi.Keys {
			b = append(b, k[:]...)
		}
		r.bytes(3, b)
	}
	if st := f.Staking; st != nil {
		b := binary.LittleEndian.AppendUint64(nil, st.StakedAmount)
		b = binary.LittleEndian.AppendUint64(b, st.FixedCost)
		b = binary.LittleEndian.AppendUint32(b, uint32(st.StartEpoch))
		b = binary.LittleEndian.AppendUint32(b, uint32(st.EndEpoch))
		r.bytes(4, b)
	}
	if len(r) == 0 {
		return nil, nil
	}
	return r.encode()
}

func encodeImmutableFeatures(f *ImmutableFeatures) ([]byte, error) {
	var r recordSet
	r.bytes(0, addressBytes(f.Issuer))
	r.bytes(1, f.Metadata)
	if len(r) == 0 {
		return nil, nil
	}
	return r.encode()
}

func encodeTokenScheme(s SimpleTokenScheme) ([]byte, error) {
	b := make([]byte, 0, 96)
	for _, v := range []*big.Int{s.MintedTokens, s.MeltedTokens, s.MaximumSupply} {
		enc, err := u256Bytes(v)
		if err != nil {
			return nil, err
		}
		b = append(b, enc...)
	}
	return b, nil
}

// SerializeOutput returns the canonical serialization of o. Its length
// drives the storage score of the output.
func SerializeOutput(o Output) ([]byte, error) {
	tokens, err := encodeNativeTokens(o.NativeTokenList())
	if err != nil {
		return nil, err
	}
	conditions, err := encodeUnlockConditions(o.UnlockConditionSet())
	if err != nil {
		return nil, err
	}
	features, err := encodeFeatures(o.FeatureSet())
	if err != nil {
		return nil, err
	}

	var r recordSet
	r.u8(0, uint8(o.Kind()))
	r.u64(1, o.BaseTokenAmount())

	var immutable *ImmutableFeatures
	switch out := o.(type) {
	case *BasicOutput:
		r.u64(2, out.Mana)
		r.bytes(5, tokens)

	case *AccountOutput:
		r.u64(2, out.Mana)
		r.id(3, out.AccountID)
		r.u32(4, out.FoundryCounter)
		r.bytes(5, tokens)
		immutable = &out.ImmutableFeatures

	case *FoundryOutput:
		scheme, err := encodeTokenScheme(out.TokenScheme)
		if err != nil {
			return nil, err
		}
		r.u32(4, out.SerialNumber)
		r.bytes(5, tokens)
		r.bytes(6, scheme)
		immutable = &out.ImmutableFeatures

	case *NftOutput:
		r.u64(2, out.Mana)
		r.id(3, out.NftID)
		r.bytes(5, tokens)
		immutable = &out.ImmutableFeatures

	case *DelegationOutput:
		r.id(3, out.DelegationID)
		r.u64(7, out.DelegatedAmount)
		r.id(8, out.Validator)
		r.u32(9, uint32(out.StartEpoch))
		r.u32(10, uint32(out.EndEpoch))

	case *AnchorOutput:
		r.u64(2, out.Mana)
		r.id(3, out.AnchorID)
		r.u32(4, out.StateIndex)
		immutable = &out.ImmutableFeatures

	default:
		return nil, fmt.Errorf("unknown output %T", o)
	}

	r.bytes(11, conditions)
	r.bytes(12, features)
	if immutable != nil {
		enc, err := encodeImmutableFeatures(immutable)
		if err != nil {
			return nil, err
		}
		r.bytes(13, enc)
	}
	return r.encode()
}

func encodeContextInput(c ContextInput) []byte {
	b := []byte{byte(c.Kind())}
	switch in := c.(type) {
	case CommitmentInput:
		b = append(b, in.CommitmentID.Bytes()...)
	case BlockIssuanceCreditInput:
		b = append(b, in.AccountID[:]...)
	case RewardInput:
		b = binary.LittleEndian.AppendUint16(b, in.Index)
	}
	return b
}
