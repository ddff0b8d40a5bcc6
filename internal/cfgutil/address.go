// Copyright (c) 2024 The txwallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package cfgutil

import (
	"fmt"

	"github.com/novaledger/txwallet/ledger"
)

// AddressFlag holds a bech32 encoded ledger address and implements the
// flags.Marshaler and Unmarshaler interfaces so it can be used as a config
// struct field.  An unset flag holds a nil Address.
type AddressFlag struct {
	HRP     string
	Address ledger.Address
}

// MarshalFlag satisfies the flags.Marshaler interface.
func (a *AddressFlag) MarshalFlag() (string, error) {
	if a.Address == nil {
		return "", nil
	}
	return ledger.Bech32(a.HRP, a.Address)
}

// UnmarshalFlag satisfies the flags.Unmarshaler interface.
func (a *AddressFlag) UnmarshalFlag(value string) error {
	hrp, addr, err := ledger.ParseBech32(value)
	if err != nil {
		return fmt.Errorf("invalid address %q: %w", value, err)
	}
	a.HRP = hrp
	a.Address = addr
	return nil
}

// CheckNetwork returns an error when the address is set and was encoded
// for a network other than the one using hrp.
func (a *AddressFlag) CheckNetwork(hrp string) error {
	if a.Address == nil || a.HRP == hrp {
		return nil
	}
	return fmt.Errorf("address is for network %q, expected %q", a.HRP,
		hrp)
}
