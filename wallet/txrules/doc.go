// Copyright (c) 2015 The btcsuite developers
// Copyright (c) 2024 The txwallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

/*
Package txrules provides functions that help establish whether or not a
transaction abides by the protocol rules the builder enforces before handing
a transaction to the network.

Storage Deposit

Every output must hold at least as many base tokens as its storage score
multiplied by the storage cost. Outputs below this minimum are rejected by
CheckOutput. Storage deposit returns must themselves be able to fund a
simple basic output owned by the return address.

Counts

Transactions consume between MinInputCount and MaxInputCount inputs and
create between MinOutputCount and MaxOutputCount outputs.

Mana Cost

The mana a block issuer must burn for a transaction is its work score
multiplied by the reference mana cost. ManaCost performs this computation
with overflow checking.
*/
package txrules
