// Copyright (c) 2024 The txwallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

/*
Package ledger defines the protocol vocabulary consumed by the transaction
builder: identifiers, addresses, unlock conditions, features, native tokens,
the six output kinds, context inputs and the transaction essence.

All types are plain values. Outputs are handed around as the sealed Output
interface and are never mutated in place once they have been given to the
builder; Clone returns a deep copy that can be changed freely.

Epoch and mana arithmetic lives on ProtocolParameters so that callers thread
the slot and commitment explicitly instead of consulting a clock.
*/
package ledger
