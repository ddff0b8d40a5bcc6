// Copyright (c) 2024 The txwallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledger

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/blake2b"
)

const (
	// IDLength is the length of every 32-byte identifier.
	IDLength = 32

	// OutputIDLength is the length of a serialized OutputID.
	OutputIDLength = IDLength + 2

	// FoundryIDLength is the length of a FoundryID: the account address
	// (kind byte plus account id), the serial number and the token scheme
	// kind.
	FoundryIDLength = 1 + IDLength + 4 + 1
)

var (
	// ErrInvalidIDLength is returned when a hex identifier does not decode
	// to the expected number of bytes.
	ErrInvalidIDLength = errors.New("invalid identifier length")
)

// SlotIndex is the index of a slot since genesis.
type SlotIndex uint32

// EpochIndex is the index of an epoch since genesis.
type EpochIndex uint32

// TransactionID is the blake2b-256 hash of a serialized transaction essence.
type TransactionID [IDLength]byte

// String returns the hex encoding of the transaction id.
func (id TransactionID) String() string {
	return "0x" + hex.EncodeToString(id[:])
}

// OutputID identifies an output by the transaction that created it and its
// index within that transaction.
type OutputID struct {
	TxID  TransactionID
	Index uint16
}

// NewOutputID returns the id of output index of the transaction txID.
func NewOutputID(txID TransactionID, index uint16) OutputID {
	return OutputID{TxID: txID, Index: index}
}

// Bytes returns the 34 byte serialization of the output id.
func (id OutputID) Bytes() []byte {
	b := make([]byte, OutputIDLength)
	copy(b, id.TxID[:])
	binary.LittleEndian.PutUint16(b[IDLength:], id.Index)
	return b
}

// String returns the hex encoding of the output id.
func (id OutputID) String() string {
	return "0x" + hex.EncodeToString(id.Bytes())
}

// Compare orders output ids by their serialized form.
func (id OutputID) Compare(other OutputID) int {
	return bytes.Compare(id.Bytes(), other.Bytes())
}

// hash returns the blake2b-256 digest of the serialized output id. Chain ids
// of newly created chain outputs are derived from it.
func (id OutputID) hash() [IDLength]byte {
	return blake2b.Sum256(id.Bytes())
}

// ParseOutputID decodes a 0x prefixed hex output id.
func ParseOutputID(s string) (OutputID, error) {
	b, err := decodeHex(s, OutputIDLength)
	if err != nil {
		return OutputID{}, err
	}

	var id OutputID
	copy(id.TxID[:], b[:IDLength])
	id.Index = binary.LittleEndian.Uint16(b[IDLength:])
	return id, nil
}

// AccountID identifies an account chain.
type AccountID [IDLength]byte

// NftID identifies an nft chain.
type NftID [IDLength]byte

// DelegationID identifies a delegation chain.
type DelegationID [IDLength]byte

// AnchorID identifies an anchor chain.
type AnchorID [IDLength]byte

// FoundryID identifies a foundry chain. It doubles as the TokenID of the
// native token the foundry controls.
type FoundryID [FoundryIDLength]byte

// TokenID identifies a native token.
type TokenID = FoundryID

// AccountIDFromOutputID derives the id of an account created by outputID.
func AccountIDFromOutputID(outputID OutputID) AccountID {
	return AccountID(outputID.hash())
}

// NftIDFromOutputID derives the id of an nft created by outputID.
func NftIDFromOutputID(outputID OutputID) NftID {
	return NftID(outputID.hash())
}

// DelegationIDFromOutputID derives the id of a delegation created by outputID.
func DelegationIDFromOutputID(outputID OutputID) DelegationID {
	return DelegationID(outputID.hash())
}

// AnchorIDFromOutputID derives the id of an anchor created by outputID.
func AnchorIDFromOutputID(outputID OutputID) AnchorID {
	return AnchorID(outputID.hash())
}

// IsNull returns whether the id is all zeroes.
func (id AccountID) IsNull() bool { return id == AccountID{} }

// IsNull returns whether the id is all zeroes.
func (id NftID) IsNull() bool { return id == NftID{} }

// IsNull returns whether the id is all zeroes.
func (id DelegationID) IsNull() bool { return id == DelegationID{} }

// IsNull returns whether the id is all zeroes.
func (id AnchorID) IsNull() bool { return id == AnchorID{} }

func (id AccountID) String() string    { return "0x" + hex.EncodeToString(id[:]) }
func (id NftID) String() string        { return "0x" + hex.EncodeToString(id[:]) }
func (id DelegationID) String() string { return "0x" + hex.EncodeToString(id[:]) }
func (id AnchorID) String() string     { return "0x" + hex.EncodeToString(id[:]) }
func (id FoundryID) String() string    { return "0x" + hex.EncodeToString(id[:]) }

// ParseAccountID decodes a 0x prefixed hex account id.
func ParseAccountID(s string) (AccountID, error) {
	b, err := decodeHex(s, IDLength)
	if err != nil {
		return AccountID{}, err
	}
	return AccountID(b), nil
}

// ParseTokenID decodes a 0x prefixed hex token (foundry) id.
func ParseTokenID(s string) (TokenID, error) {
	b, err := decodeHex(s, FoundryIDLength)
	if err != nil {
		return TokenID{}, err
	}
	return TokenID(b), nil
}

// NewFoundryID builds the id of the foundry with the given serial number
// controlled by account.
func NewFoundryID(account AccountID, serial uint32,
	schemeKind TokenSchemeKind) FoundryID {

	var id FoundryID
	id[0] = byte(AddressAccount)
	copy(id[1:], account[:])
	binary.LittleEndian.PutUint32(id[1+IDLength:], serial)
	id[FoundryIDLength-1] = byte(schemeKind)
	return id
}

// AccountID returns the id of the account controlling the foundry.
func (id FoundryID) AccountID() AccountID {
	var a AccountID
	copy(a[:], id[1:1+IDLength])
	return a
}

// SerialNumber returns the serial number of the foundry.
func (id FoundryID) SerialNumber() uint32 {
	return binary.LittleEndian.Uint32(id[1+IDLength:])
}

// Compare orders foundry (and token) ids lexicographically.
func (id FoundryID) Compare(other FoundryID) int {
	return bytes.Compare(id[:], other[:])
}

// SlotCommitmentID identifies a slot commitment. The slot the commitment
// was made for is encoded in the trailing four bytes.
type SlotCommitmentID struct {
	Root [IDLength]byte
	Slot SlotIndex
}

// Bytes returns the 36 byte serialization of the commitment id.
func (c SlotCommitmentID) Bytes() []byte {
	b := make([]byte, IDLength+4)
	copy(b, c.Root[:])
	binary.LittleEndian.PutUint32(b[IDLength:], uint32(c.Slot))
	return b
}

// String returns the hex encoding of the commitment id.
func (c SlotCommitmentID) String() string {
	return "0x" + hex.EncodeToString(c.Bytes())
}

// ParseSlotCommitmentID decodes a 0x prefixed hex slot commitment id.
func ParseSlotCommitmentID(s string) (SlotCommitmentID, error) {
	b, err := decodeHex(s, IDLength+4)
	if err != nil {
		return SlotCommitmentID{}, err
	}

	var c SlotCommitmentID
	copy(c.Root[:], b[:IDLength])
	c.Slot = SlotIndex(binary.LittleEndian.Uint32(b[IDLength:]))
	return c, nil
}

// ChainID is any of the chain identifiers. It is comparable so it can be used
// as a map key.
type ChainID struct {
	Kind OutputKind
	ID   [FoundryIDLength]byte
}

func chainIDOf(kind OutputKind, id []byte) ChainID {
	c := ChainID{Kind: kind}
	copy(c.ID[:], id)
	return c
}

// AccountChainID wraps an account id.
func AccountChainID(id AccountID) ChainID { return chainIDOf(OutputAccount, id[:]) }

// NftChainID wraps an nft id.
func NftChainID(id NftID) ChainID { return chainIDOf(OutputNft, id[:]) }

// FoundryChainID wraps a foundry id.
func FoundryChainID(id FoundryID) ChainID { return chainIDOf(OutputFoundry, id[:]) }

// DelegationChainID wraps a delegation id.
func DelegationChainID(id DelegationID) ChainID {
	return chainIDOf(OutputDelegation, id[:])
}

// AnchorChainID wraps an anchor id.
func AnchorChainID(id AnchorID) ChainID { return chainIDOf(OutputAnchor, id[:]) }

// String returns a readable form of the chain id.
func (c ChainID) String() string {
	n := IDLength
	if c.Kind == OutputFoundry {
		n = FoundryIDLength
	}
	return fmt.Sprintf("%v(0x%s)", c.Kind, hex.EncodeToString(c.ID[:n]))
}

func decodeHex(s string, n int) ([]byte, error) {
	b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return nil, err
	}
	if len(b) != n {
		return nil, fmt.Errorf("%w: got %d bytes, want %d",
			ErrInvalidIDLength, len(b), n)
	}
	return b, nil
}
