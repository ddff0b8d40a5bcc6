// Copyright (c) 2024 The txwallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package cfgutil

import (
	"fmt"
	"math/big"
	"strings"
)

// unitSuffixes maps the accepted amount suffixes to their multiplier in
// base token units.
var unitSuffixes = []struct {
	suffix     string
	multiplier int64
}{
	{"Gi", 1_000_000_000},
	{"Mi", 1_000_000},
	{"Ki", 1_000},
	{"i", 1},
}

// AmountFlag holds an amount of base tokens and implements the
// flags.Marshaler and Unmarshaler interfaces so it can be used as a config
// struct field.  Values are integers of base units or decimals followed by
// one of the Ki, Mi or Gi suffixes, such as 1.5Mi.
type AmountFlag struct {
	Amount uint64
}

// NewAmountFlag creates an AmountFlag with a default amount.
func NewAmountFlag(defaultValue uint64) *AmountFlag {
	return &AmountFlag{defaultValue}
}

// MarshalFlag satisfies the flags.Marshaler interface.
func (a *AmountFlag) MarshalFlag() (string, error) {
	return fmt.Sprintf("%di", a.Amount), nil
}

// UnmarshalFlag satisfies the flags.Unmarshaler interface.
func (a *AmountFlag) UnmarshalFlag(value string) error {
	amount, err := ParseAmount(value)
	if err != nil {
		return err
	}
	a.Amount = amount
	return nil
}

// ParseAmount parses an amount of base tokens.
func ParseAmount(value string) (uint64, error) {
	value = strings.TrimSpace(value)

	multiplier := int64(1)
	for _, unit := range unitSuffixes {
		if strings.HasSuffix(value, unit.suffix) {
			value = strings.TrimSuffix(value, unit.suffix)
			multiplier = unit.multiplier
			break
		}
	}

	r, ok := new(big.Rat).SetString(strings.TrimSpace(value))
	if !ok {
		return 0, fmt.Errorf("invalid amount %q", value)
	}
	r.Mul(r, new(big.Rat).SetInt64(multiplier))
	if !r.IsInt() {
		return 0, fmt.Errorf("amount %q is not a whole number of "+
			"base units", value)
	}
	n := r.Num()
	if n.Sign() < 0 || !n.IsUint64() {
		return 0, fmt.Errorf("amount %q out of range", value)
	}
	return n.Uint64(), nil
}
