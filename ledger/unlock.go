// Copyright (c) 2024 The txwallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledger

// CommittableAgeRange is the window, in slots, in which a slot commitment may
// be referenced by a block.
type CommittableAgeRange struct {
	Min SlotIndex
	Max SlotIndex
}

// StorageDepositReturn requires the consuming transaction to send Amount back
// to ReturnAddress in a simple basic output.
type StorageDepositReturn struct {
	ReturnAddress Address
	Amount        uint64
}

// Expiration hands control of the output to ReturnAddress once Slot is
// reached.
type Expiration struct {
	ReturnAddress Address
	Slot          SlotIndex
}

// UnlockConditions is the kind-unique set of unlock conditions an output can
// carry. A nil field means the condition is absent.
type UnlockConditions struct {
	Address              Address
	StorageDepositReturn *StorageDepositReturn
	Timelock             *SlotIndex
	Expiration           *Expiration
	StateController      Address
	Governor             Address
	ImmutableAccount     *AccountAddress
}

// Clone returns a copy that shares no pointers with u.
func (u UnlockConditions) Clone() UnlockConditions {
	c := u
	if u.StorageDepositReturn != nil {
		sdr := *u.StorageDepositReturn
		c.StorageDepositReturn = &sdr
	}
	if u.Timelock != nil {
		t := *u.Timelock
		c.Timelock = &t
	}
	if u.Expiration != nil {
		e := *u.Expiration
		c.Expiration = &e
	}
	if u.ImmutableAccount != nil {
		a := *u.ImmutableAccount
		c.ImmutableAccount = &a
	}
	return c
}

// IsTimelocked reports whether the timelock still prevents the output from
// being consumed in a transaction created at slot.
func (u *UnlockConditions) IsTimelocked(slot, minCommittableAge SlotIndex) bool {
	if u.Timelock == nil {
		return false
	}
	return uint64(slot)+uint64(minCommittableAge) < uint64(*u.Timelock)
}

// IsExpired reports whether the expiration has handed control to the return
// address.
func (u *UnlockConditions) IsExpired(slot, minCommittableAge SlotIndex) bool {
	if u.Expiration == nil {
		return false
	}
	return uint64(slot)+uint64(minCommittableAge) >= uint64(u.Expiration.Slot)
}

// ownerCanUnlock reports whether the expiration is still far enough away for
// the owner to consume the output.
func (u *UnlockConditions) ownerCanUnlock(slot, maxCommittableAge SlotIndex) bool {
	if u.Expiration == nil {
		return true
	}
	return uint64(slot)+uint64(maxCommittableAge) < uint64(u.Expiration.Slot)
}

// LockedAddress returns the address that owns the output ignoring time based
// conditions: the address, the state controller, or the immutable account.
func (u *UnlockConditions) LockedAddress() Address {
	switch {
	case u.Address != nil:
		return u.Address
	case u.StateController != nil:
		return u.StateController
	case u.ImmutableAccount != nil:
		return *u.ImmutableAccount
	default:
		return nil
	}
}

// RequiredAddress returns the address that must unlock the output in a
// transaction created at slot. The second return value is false while the
// output sits in the expiration deadzone, where neither the owner nor the
// return address can unlock it.
func (u *UnlockConditions) RequiredAddress(slot SlotIndex,
	ages CommittableAgeRange) (Address, bool) {

	if u.Expiration != nil {
		switch {
		case u.IsExpired(slot, ages.Min):
			return u.Expiration.ReturnAddress, true
		case !u.ownerCanUnlock(slot, ages.Max):
			return nil, false
		}
	}

	addr := u.LockedAddress()
	return addr, addr != nil
}

// StorageDepositReturnDue returns the storage deposit return that the
// consuming transaction must honour, if any. Once the expiration has passed
// the return address consumes the output and nothing is owed.
func (u *UnlockConditions) StorageDepositReturnDue(slot,
	minCommittableAge SlotIndex) *StorageDepositReturn {

	if u.StorageDepositReturn == nil {
		return nil
	}
	if u.IsExpired(slot, minCommittableAge) {
		return nil
	}
	return u.StorageDepositReturn
}
