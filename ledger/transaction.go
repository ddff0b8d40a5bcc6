// Copyright (c) 2024 The txwallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledger

import (
	"encoding/binary"
	"errors"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// ErrTransactionTooLarge is returned when the serialized transaction exceeds
// the protocol maximum.
var ErrTransactionTooLarge = errors.New("transaction exceeds maximum size")

// Transaction is the unsigned transaction essence.
type Transaction struct {
	NetworkID     uint64
	CreationSlot  SlotIndex
	ContextInputs []ContextInput
	Inputs        []UTXOInput
	Allotments    []ManaAllotment
	Capabilities  Capabilities
	Outputs       []Output
	Payload       []byte
}

// Serialize returns the canonical serialization of the transaction.
func (t *Transaction) Serialize() ([]byte, error) {
	var contextInputs []byte
	for _, c := range t.ContextInputs {
		contextInputs = append(contextInputs, encodeContextInput(c)...)
	}

	inputs := make([]byte, 0, len(t.Inputs)*OutputIDLength)
	for _, in := range t.Inputs {
		inputs = append(inputs, in.OutputID.Bytes()...)
	}

	var allotments []byte
	for _, a := range t.Allotments {
		allotments = append(allotments, a.AccountID[:]...)
		allotments = binary.LittleEndian.AppendUint64(allotments, a.Mana)
	}

	var outputs []byte
	for i, o := range t.Outputs {
		enc, err := SerializeOutput(o)
		if err != nil {
			return nil, fmt.Errorf("output %d: %w", i, err)
		}
		outputs = binary.LittleEndian.AppendUint32(outputs, uint32(len(enc)))
		outputs = append(outputs, enc...)
	}

	var r recordSet
	r.u64(0, t.NetworkID)
	r.u32(1, uint32(t.CreationSlot))
	r.bytes(2, contextInputs)
	r.bytes(3, inputs)
	r.bytes(4, allotments)
	r.u8(5, uint8(t.Capabilities))
	r.bytes(6, outputs)
	r.bytes(7, t.Payload)
	return r.encode()
}

// ID returns the blake2b-256 hash of the serialized transaction.
func (t *Transaction) ID() (TransactionID, error) {
	b, err := t.Serialize()
	if err != nil {
		return TransactionID{}, err
	}
	return TransactionID(blake2b.Sum256(b)), nil
}

// CheckSize serializes the transaction and verifies it fits within max
// bytes, returning the serialized size.
func (t *Transaction) CheckSize(max int) (int, error) {
	b, err := t.Serialize()
	if err != nil {
		return 0, err
	}
	if max > 0 && len(b) > max {
		return len(b), fmt.Errorf("%w: %d > %d bytes",
			ErrTransactionTooLarge, len(b), max)
	}
	return len(b), nil
}
