// Copyright (c) 2024 The txwallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package cfgutil

// ExplicitString is a string config field that remembers whether it was set
// through the flags.Unmarshaler interface, so a flag left at its default can
// be told apart from one explicitly set to the default value.
type ExplicitString struct {
	Value         string
	explicitlySet bool
}

// NewExplicitString creates a string flag with the provided default value.
func NewExplicitString(defaultValue string) *ExplicitString {
	return &ExplicitString{Value: defaultValue}
}

// ExplicitlySet returns whether the flag was set by the flags package.
func (e *ExplicitString) ExplicitlySet() bool { return e.explicitlySet }

// Or returns the value when it was explicitly set and fallback otherwise.
func (e *ExplicitString) Or(fallback string) string {
	if e.explicitlySet {
		return e.Value
	}
	return fallback
}

// MarshalFlag implements the flags.Marshaler interface.
func (e *ExplicitString) MarshalFlag() (string, error) { return e.Value, nil }

// UnmarshalFlag implements the flags.Unmarshaler interface.
func (e *ExplicitString) UnmarshalFlag(value string) error {
	e.Value = value
	e.explicitlySet = true
	return nil
}
