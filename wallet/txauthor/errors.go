// Copyright (c) 2024 The txwallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txauthor

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/novaledger/txwallet/ledger"
)

var (
	// ErrNoAvailableInputsProvided is returned when no candidate input
	// survives filtering.
	ErrNoAvailableInputsProvided = errors.New("no available inputs provided")

	// ErrMissingInputWithEd25519Address is returned when no remainder
	// address was configured and no selected input is unlocked by an
	// ed25519 address.
	ErrMissingInputWithEd25519Address = errors.New("no input with " +
		"matching ed25519 address provided")

	// ErrBuilderConsumed is returned when a builder, or its context input
	// step, is run a second time.
	ErrBuilderConsumed = errors.New("transaction builder already used")

	// ErrNilAddress is returned when a sender, issuer or owner address
	// that has to be unlocked is missing.
	ErrNilAddress = errors.New("nil address")

	// ErrAmountOverflow is returned when a base token sum does not fit in
	// 64 bits.
	ErrAmountOverflow = errors.New("amount overflow")
)

// BuilderError describes a failure of the transaction builder to produce a
// transaction for the given intent.  A typed error is used so callers can
// tell selection failures apart from passthrough ledger errors.
type BuilderError interface {
	error
	BuilderError()
}

// InvalidInputCountError is returned when the number of selected inputs
// falls outside the protocol bounds.
type InvalidInputCountError struct {
	Count int
}

func (*InvalidInputCountError) BuilderError() {}

func (e *InvalidInputCountError) Error() string {
	return fmt.Sprintf("invalid amount of inputs: %d", e.Count)
}

// InvalidOutputCountError is returned when the number of outputs falls
// outside the protocol bounds.
type InvalidOutputCountError struct {
	Count int
}

func (*InvalidOutputCountError) BuilderError() {}

func (e *InvalidOutputCountError) Error() string {
	return fmt.Sprintf("invalid amount of outputs: %d", e.Count)
}

// BurnAndTransitionError is returned when a chain is both burned and given
// a successor output.
type BurnAndTransitionError struct {
	ChainID ledger.ChainID
}

func (*BurnAndTransitionError) BuilderError() {}

func (e *BurnAndTransitionError) Error() string {
	return fmt.Sprintf("can't burn and transition an output at the same "+
		"time, chain id: %v", e.ChainID)
}

// ExtraManaRewardsError is returned when rewards were supplied for an
// output that is not consumed by the transaction.
type ExtraManaRewardsError struct {
	OutputID ledger.OutputID
}

func (*ExtraManaRewardsError) BuilderError() {}

func (e *ExtraManaRewardsError) Error() string {
	return fmt.Sprintf("mana rewards provided without an associated burn "+
		"or custom input, output id: %v", e.OutputID)
}

// InsufficientAmountError is returned when the available inputs cannot
// cover the base tokens the outputs need.
type InsufficientAmountError struct {
	Found    uint64
	Required uint64
}

func (*InsufficientAmountError) BuilderError() {}

func (e *InsufficientAmountError) Error() string {
	return fmt.Sprintf("insufficient amount: found %d, required %d",
		e.Found, e.Required)
}

// InsufficientNativeTokenAmountError is returned when the inputs cannot
// cover a native token balance.
type InsufficientNativeTokenAmountError struct {
	TokenID  ledger.TokenID
	Found    *big.Int
	Required *big.Int
}

func (*InsufficientNativeTokenAmountError) BuilderError() {}

func (e *InsufficientNativeTokenAmountError) Error() string {
	return fmt.Sprintf("insufficient native token amount for %v: found "+
		"%v, required %v", e.TokenID, e.Found, e.Required)
}

// InsufficientManaError is returned when the inputs cannot cover the mana
// the outputs and allotments need.  SlotsRemaining estimates how long the
// selected inputs have to keep generating before the transaction fits.
type InsufficientManaError struct {
	Found          uint64
	Required       uint64
	SlotsRemaining uint64
}

func (*InsufficientManaError) BuilderError() {}

func (e *InsufficientManaError) Error() string {
	return fmt.Sprintf("insufficient mana: found %d, required %d, slots "+
		"remaining until enough mana is generated: %d", e.Found,
		e.Required, e.SlotsRemaining)
}

// AllotmentNotSettledError is returned when raising the allotment of the
// issuer keeps changing the cost of the transaction without selecting
// another input.
type AllotmentNotSettledError struct {
	AccountID ledger.AccountID
	Allotted  uint64
	Required  uint64
}

func (*AllotmentNotSettledError) BuilderError() {}

func (e *AllotmentNotSettledError) Error() string {
	return fmt.Sprintf("allotment of issuer %v did not settle: allotted "+
		"%d, required %d", e.AccountID, e.Allotted, e.Required)
}

// UnfulfillableRequirementError is returned when no available input can
// satisfy a requirement.  Err holds the failure of the inner requirement
// when it was remapped, e.g. a sender requirement that failed on the
// account it reduces to.
type UnfulfillableRequirementError struct {
	Requirement Requirement
	Err         error
}

func (*UnfulfillableRequirementError) BuilderError() {}

func (e *UnfulfillableRequirementError) Error() string {
	return fmt.Sprintf("unfulfillable requirement %v", e.Requirement)
}

// Unwrap returns the inner failure, if any.
func (e *UnfulfillableRequirementError) Unwrap() error {
	return e.Err
}

// AdditionalInputsRequiredError is returned when a requirement needs more
// inputs but additional input selection is disabled.
type AdditionalInputsRequiredError struct {
	Requirement Requirement
}

func (*AdditionalInputsRequiredError) BuilderError() {}

func (e *AdditionalInputsRequiredError) Error() string {
	return fmt.Sprintf("additional inputs required for %v, but additional "+
		"input selection is disabled", e.Requirement)
}

// RequiredInputIsForbiddenError is returned when an input is both required
// and forbidden.
type RequiredInputIsForbiddenError struct {
	OutputID ledger.OutputID
}

func (*RequiredInputIsForbiddenError) BuilderError() {}

func (e *RequiredInputIsForbiddenError) Error() string {
	return fmt.Sprintf("required input %v is forbidden", e.OutputID)
}

// RequiredInputIsNotAvailableError is returned when a required input is not
// among the usable candidates.
type RequiredInputIsNotAvailableError struct {
	OutputID ledger.OutputID
}

func (*RequiredInputIsNotAvailableError) BuilderError() {}

func (e *RequiredInputIsNotAvailableError) Error() string {
	return fmt.Sprintf("required input %v is not available", e.OutputID)
}

// UnsupportedAddressTypeError is returned for addresses the builder cannot
// unlock.
type UnsupportedAddressTypeError struct {
	Kind ledger.AddressKind
}

func (*UnsupportedAddressTypeError) BuilderError() {}

func (e *UnsupportedAddressTypeError) Error() string {
	return fmt.Sprintf("unsupported address type %v", e.Kind)
}

// AlreadyStakingError is returned when staking is started on an account
// that already stakes.
type AlreadyStakingError struct {
	AccountID ledger.AccountID
}

func (*AlreadyStakingError) BuilderError() {}

func (e *AlreadyStakingError) Error() string {
	return fmt.Sprintf("account %v is already staking", e.AccountID)
}

// NotStakingError is returned when a staking change targets an account
// without a staking feature.
type NotStakingError struct {
	AccountID ledger.AccountID
}

func (*NotStakingError) BuilderError() {}

func (e *NotStakingError) Error() string {
	return fmt.Sprintf("account %v is not staking", e.AccountID)
}

// StakingPeriodTooShortError is returned when a restarted staking period is
// shorter than the unbonding period.
type StakingPeriodTooShortError struct {
	AdditionalEpochs uint32
	Min              ledger.EpochIndex
}

func (*StakingPeriodTooShortError) BuilderError() {}

func (e *StakingPeriodTooShortError) Error() string {
	return fmt.Sprintf("staking period %d is less than the minimum %d",
		e.AdditionalEpochs, e.Min)
}

// TransitionNonImplicitAccountError is returned when an implicit account
// transition names an output that is not an implicit account.
type TransitionNonImplicitAccountError struct {
	OutputID ledger.OutputID
}

func (*TransitionNonImplicitAccountError) BuilderError() {}

func (e *TransitionNonImplicitAccountError) Error() string {
	return fmt.Sprintf("output %v is not an implicit account", e.OutputID)
}
