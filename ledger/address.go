// Copyright (c) 2024 The txwallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledger

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/bech32"
)

// AddressKind is the serialized type byte of an address.
type AddressKind byte

// Address kinds known to the protocol.
const (
	AddressEd25519                 AddressKind = 0
	AddressAccount                 AddressKind = 8
	AddressNft                     AddressKind = 16
	AddressAnchor                  AddressKind = 24
	AddressImplicitAccountCreation AddressKind = 32
	AddressRestricted              AddressKind = 48
)

// String returns the name of the address kind.
func (k AddressKind) String() string {
	switch k {
	case AddressEd25519:
		return "ed25519"
	case AddressAccount:
		return "account"
	case AddressNft:
		return "nft"
	case AddressAnchor:
		return "anchor"
	case AddressImplicitAccountCreation:
		return "implicit account creation"
	case AddressRestricted:
		return "restricted"
	default:
		return fmt.Sprintf("unknown(%d)", byte(k))
	}
}

var (
	// ErrUnknownAddressKind is returned when decoding an address with an
	// unrecognised kind byte.
	ErrUnknownAddressKind = errors.New("unknown address kind")

	// ErrMalformedAddress is returned when an encoded address has the wrong
	// length for its kind.
	ErrMalformedAddress = errors.New("malformed address")
)

// Address is the closed set of address kinds. All implementations are
// comparable values, so addresses can be used as map keys.
type Address interface {
	// Kind returns the kind of the address.
	Kind() AddressKind

	// Bytes returns the serialized address: the kind byte followed by
	// the payload.
	Bytes() []byte

	isAddress()
}

// Ed25519Address is the blake2b-256 hash of an ed25519 public key.
type Ed25519Address [IDLength]byte

// AccountAddress is controlled by the account chain with the same id.
type AccountAddress AccountID

// NftAddress is controlled by the nft chain with the same id.
type NftAddress NftID

// AnchorAddress is controlled by the anchor chain with the same id.
type AnchorAddress AnchorID

// ImplicitAccountCreationAddress is an ed25519 address that creates an
// implicit account when funds are sent to it.
type ImplicitAccountCreationAddress [IDLength]byte

// RestrictedAddress wraps another address with a set of capabilities that
// restrict what outputs sent to it may carry.
type RestrictedAddress struct {
	Inner        Address
	Capabilities byte
}

func (Ed25519Address) isAddress()                 {}
func (AccountAddress) isAddress()                 {}
func (NftAddress) isAddress()                     {}
func (AnchorAddress) isAddress()                  {}
func (ImplicitAccountCreationAddress) isAddress() {}
func (RestrictedAddress) isAddress()              {}

func (Ed25519Address) Kind() AddressKind                 { return AddressEd25519 }
func (AccountAddress) Kind() AddressKind                 { return AddressAccount }
func (NftAddress) Kind() AddressKind                     { return AddressNft }
func (AnchorAddress) Kind() AddressKind                  { return AddressAnchor }
func (ImplicitAccountCreationAddress) Kind() AddressKind { return AddressImplicitAccountCreation }
func (RestrictedAddress) Kind() AddressKind              { return AddressRestricted }

func kindBytes(k AddressKind, payload []byte) []byte {
	b := make([]byte, 0, 1+len(payload))
	b = append(b, byte(k))
	return append(b, payload...)
}

func (a Ed25519Address) Bytes() []byte { return kindBytes(AddressEd25519, a[:]) }
func (a AccountAddress) Bytes() []byte { return kindBytes(AddressAccount, a[:]) }
func (a NftAddress) Bytes() []byte     { return kindBytes(AddressNft, a[:]) }
func (a AnchorAddress) Bytes() []byte  { return kindBytes(AddressAnchor, a[:]) }

func (a ImplicitAccountCreationAddress) Bytes() []byte {
	return kindBytes(AddressImplicitAccountCreation, a[:])
}

// Bytes serializes the address. A nil inner address is written without a
// payload and does not decode.
func (a RestrictedAddress) Bytes() []byte {
	var inner []byte
	if a.Inner != nil {
		inner = a.Inner.Bytes()
	}
	b := kindBytes(AddressRestricted, inner)
	return append(b, a.Capabilities)
}

// checkAddress rejects a nil address, including one wrapped by restricted
// layers.
func checkAddress(addr Address) error {
	for depth := 0; depth < maxAddressDepth; depth++ {
		switch a := addr.(type) {
		case nil:
			return fmt.Errorf("%w: nil address", ErrMalformedAddress)
		case RestrictedAddress:
			addr = a.Inner
		default:
			return nil
		}
	}
	return fmt.Errorf("%w: nested too deep", ErrMalformedAddress)
}

// AccountID returns the account controlling the address.
func (a AccountAddress) AccountID() AccountID { return AccountID(a) }

// NftID returns the nft controlling the address.
func (a NftAddress) NftID() NftID { return NftID(a) }

// BackingEd25519 returns the ed25519 address that ultimately signs for addr,
// if there is one. Restricted addresses are unwrapped.
func BackingEd25519(addr Address) (Ed25519Address, bool) {
	for depth := 0; depth < maxAddressDepth; depth++ {
		switch a := addr.(type) {
		case Ed25519Address:
			return a, true
		case ImplicitAccountCreationAddress:
			return Ed25519Address(a), true
		case RestrictedAddress:
			addr = a.Inner
		default:
			return Ed25519Address{}, false
		}
	}
	return Ed25519Address{}, false
}

// maxAddressDepth bounds how many restricted wrappers are unwrapped.
const maxAddressDepth = 8

// Bech32 encodes the address with the given human readable part.
func Bech32(hrp string, addr Address) (string, error) {
	if err := checkAddress(addr); err != nil {
		return "", err
	}
	conv, err := bech32.ConvertBits(addr.Bytes(), 8, 5, true)
	if err != nil {
		return "", err
	}
	return bech32.Encode(hrp, conv)
}

// ParseBech32 decodes a bech32 encoded address, returning its human readable
// part alongside the address.
func ParseBech32(s string) (string, Address, error) {
	hrp, data, err := bech32.Decode(s)
	if err != nil {
		return "", nil, err
	}
	raw, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return "", nil, err
	}
	addr, n, err := DecodeAddress(raw)
	if err != nil {
		return "", nil, err
	}
	if n != len(raw) {
		return "", nil, fmt.Errorf("%w: %d trailing bytes",
			ErrMalformedAddress, len(raw)-n)
	}
	return hrp, addr, nil
}

// DecodeAddress decodes a serialized address from the front of b and
// returns it together with the number of bytes consumed.
func DecodeAddress(b []byte) (Address, int, error) {
	return decodeAddress(b, 0)
}

func decodeAddress(b []byte, depth int) (Address, int, error) {
	if len(b) == 0 {
		return nil, 0, ErrMalformedAddress
	}
	if depth >= maxAddressDepth {
		return nil, 0, fmt.Errorf("%w: nested too deep", ErrMalformedAddress)
	}

	kind := AddressKind(b[0])
	if kind == AddressRestricted {
		inner, n, err := decodeAddress(b[1:], depth+1)
		if err != nil {
			return nil, 0, err
		}
		if len(b) < 1+n+1 {
			return nil, 0, ErrMalformedAddress
		}
		return RestrictedAddress{
			Inner:        inner,
			Capabilities: b[1+n],
		}, n + 2, nil
	}

	if len(b) < 1+IDLength {
		return nil, 0, ErrMalformedAddress
	}
	var payload [IDLength]byte
	copy(payload[:], b[1:1+IDLength])

	var addr Address
	switch kind {
	case AddressEd25519:
		addr = Ed25519Address(payload)
	case AddressAccount:
		addr = AccountAddress(payload)
	case AddressNft:
		addr = NftAddress(payload)
	case AddressAnchor:
		addr = AnchorAddress(payload)
	case AddressImplicitAccountCreation:
		addr = ImplicitAccountCreationAddress(payload)
	default:
		return nil, 0, fmt.Errorf("%w: %d", ErrUnknownAddressKind, b[0])
	}
	return addr, 1 + IDLength, nil
}
