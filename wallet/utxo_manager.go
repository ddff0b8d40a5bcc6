// Copyright (c) 2024 The txwallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/novaledger/txwallet/ledger"
	"github.com/novaledger/txwallet/wallet/txauthor"
)

var (
	// ErrOutputAlreadyLeased is returned when an output is leased under a
	// different lock id that has not expired yet.
	ErrOutputAlreadyLeased = errors.New("output already leased")

	// ErrOutputUnlockNotAllowed is returned when an output is released
	// with a lock id other than the one it was leased with.
	ErrOutputUnlockNotAllowed = errors.New("output unlock not allowed")

	// ErrUnknownOutput is returned when an output is not unspent in any
	// of the wallet's accounts.
	ErrUnknownOutput = errors.New("unknown output")
)

// LockID identifies the holder of an output lease.
type LockID [32]byte

// LeasedOutput is an output that is excluded from input selection until
// Expiration.
type LeasedOutput struct {
	OutputID   ledger.OutputID
	LockID     LockID
	Expiration time.Time
}

// Utxo is an unspent output owned by one of the wallet's accounts.
type Utxo struct {
	// OutputID identifies the output.
	OutputID ledger.OutputID

	// Output is the output itself.
	Output ledger.Output

	// IncludedSlot is the slot the output was created in.
	IncludedSlot ledger.SlotIndex

	// Account is the name of the account that owns the output.
	Account string

	// Leased indicates whether the output is currently leased.
	Leased bool
}

// UtxoQuery holds the set of options for a ListUnspent query.
type UtxoQuery struct {
	// Account specifies the account to query outputs for.  If empty,
	// outputs from all accounts are returned.
	Account string
}

// UtxoManager provides an interface for querying and leasing the wallet's
// unspent outputs.
type UtxoManager interface {
	// ListUnspent returns the unspent outputs matching the query sorted
	// by base token amount in ascending order.
	ListUnspent(ctx context.Context, query UtxoQuery) ([]*Utxo, error)

	// GetUtxo returns the unspent output with the given id.
	GetUtxo(ctx context.Context, id ledger.OutputID) (*Utxo, error)

	// LeaseOutput excludes an output from input selection for the given
	// duration and returns the expiration.
	LeaseOutput(ctx context.Context, id LockID, op ledger.OutputID,
		duration time.Duration) (time.Time, error)

	// ReleaseOutput removes a lease previously taken with id.
	ReleaseOutput(ctx context.Context, id LockID,
		op ledger.OutputID) error

	// ListLeasedOutputs returns the outputs that are currently leased.
	ListLeasedOutputs(ctx context.Context) ([]*LeasedOutput, error)
}

// ListUnspent returns the unspent outputs of the queried accounts.
//
// NOTE: This is part of the UtxoManager interface implementation.
func (w *Wallet) ListUnspent(ctx context.Context,
	query UtxoQuery) ([]*Utxo, error) {

	log.Debugf("ListUnspent using query: %v", query)

	accounts := w.Accounts()
	if query.Account != "" {
		if _, err := w.accountAddresses(query.Account); err != nil {
			return nil, err
		}
		accounts = []string{query.Account}
	}

	now := w.cfg.Clock.Now()

	var utxos []*Utxo
	for _, account := range accounts {
		unspent, err := w.cfg.Chain.UnspentOutputs(
			ctx, w.cfg.Accounts[account],
		)
		if err != nil {
			return nil, fmt.Errorf("unable to fetch outputs of "+
				"account %q: %w", account, err)
		}

		w.leaseMtx.Lock()
		for _, input := range unspent {
			utxos = append(utxos, &Utxo{
				OutputID:     input.OutputID,
				Output:       input.Output,
				IncludedSlot: input.Metadata.IncludedSlot,
				Account:      account,
				Leased:       w.isLeased(input.OutputID, now),
			})
		}
		w.leaseMtx.Unlock()
	}

	sort.SliceStable(utxos, func(i, j int) bool {
		return utxos[i].Output.BaseTokenAmount() <
			utxos[j].Output.BaseTokenAmount()
	})

	return utxos, nil
}

// GetUtxo returns the unspent output with the given id or ErrUnknownOutput.
//
// NOTE: This is part of the UtxoManager interface implementation.
func (w *Wallet) GetUtxo(ctx context.Context,
	id ledger.OutputID) (*Utxo, error) {

	utxos, err := w.ListUnspent(ctx, UtxoQuery{})
	if err != nil {
		return nil, err
	}
	for _, utxo := range utxos {
		if utxo.OutputID == id {
			return utxo, nil
		}
	}
	return nil, fmt.Errorf("%w: %v", ErrUnknownOutput, id)
}

// LeaseOutput leases an unspent output of the wallet.  Leasing an output
// again with the same lock id extends the lease.
//
// NOTE: This is part of the UtxoManager interface implementation.
func (w *Wallet) LeaseOutput(ctx context.Context, id LockID,
	op ledger.OutputID, duration time.Duration) (time.Time, error) {

	if _, err := w.GetUtxo(ctx, op); err != nil {
		return time.Time{}, err
	}

	w.leaseMtx.Lock()
	defer w.leaseMtx.Unlock()

	return w.leaseOutput(id, op, duration)
}

// leaseOutput records a lease.
//
// NOTE: The caller must hold leaseMtx.
func (w *Wallet) leaseOutput(id LockID, op ledger.OutputID,
	duration time.Duration) (time.Time, error) {

	now := w.cfg.Clock.Now()
	if lease, ok := w.leases[op]; ok && lease.LockID != id &&
		now.Before(lease.Expiration) {

		return time.Time{}, fmt.Errorf("%w: %v", ErrOutputAlreadyLeased,
			op)
	}

	expiration := now.Add(duration)
	w.leases[op] = &LeasedOutput{
		OutputID:   op,
		LockID:     id,
		Expiration: expiration,
	}

	log.Tracef("Leased output %v until %v", op, expiration)

	return expiration, nil
}

// ReleaseOutput releases a lease.  Releasing an output that is not leased
// is not an error.
//
// NOTE: This is part of the UtxoManager interface implementation.
func (w *Wallet) ReleaseOutput(_ context.Context, id LockID,
	op ledger.OutputID) error {

	w.leaseMtx.Lock()
	defer w.leaseMtx.Unlock()

	lease, ok := w.leases[op]
	if !ok {
		return nil
	}
	if lease.LockID != id {
		return fmt.Errorf("%w: %v", ErrOutputUnlockNotAllowed, op)
	}
	delete(w.leases, op)

	log.Tracef("Released output %v", op)

	return nil
}

// ListLeasedOutputs returns the unexpired leases ordered by output id.
//
// NOTE: This is part of the UtxoManager interface implementation.
func (w *Wallet) ListLeasedOutputs(
	_ context.Context) ([]*LeasedOutput, error) {

	w.leaseMtx.Lock()
	defer w.leaseMtx.Unlock()

	now := w.cfg.Clock.Now()

	leases := make([]*LeasedOutput, 0, len(w.leases))
	for op, lease := range w.leases {
		if !w.isLeased(op, now) {
			continue
		}
		leaseCopy := *lease
		leases = append(leases, &leaseCopy)
	}
	sort.Slice(leases, func(i, j int) bool {
		return leases[i].OutputID.Compare(leases[j].OutputID) < 0
	})

	return leases, nil
}

// isLeased reports whether op is leased at now.
//
// NOTE: The caller must hold leaseMtx.
func (w *Wallet) isLeased(op ledger.OutputID, now time.Time) bool {
	lease, ok := w.leases[op]
	return ok && now.Before(lease.Expiration)
}

// forbiddenOutputs returns the outputs leased by anyone other than id.
func (w *Wallet) forbiddenOutputs(id LockID) []ledger.OutputID {
	w.leaseMtx.Lock()
	defer w.leaseMtx.Unlock()

	now := w.cfg.Clock.Now()

	var forbidden []ledger.OutputID
	for op, lease := range w.leases {
		if lease.LockID == id || !now.Before(lease.Expiration) {
			continue
		}
		forbidden = append(forbidden, op)
	}
	sort.Slice(forbidden, func(i, j int) bool {
		return forbidden[i].Compare(forbidden[j]) < 0
	})

	return forbidden
}

// leaseInputs leases every input of a created transaction.  Either all
// inputs are leased or none.
func (w *Wallet) leaseInputs(id LockID, inputs []*txauthor.InputSigningData,
	duration time.Duration) error {

	w.leaseMtx.Lock()
	defer w.leaseMtx.Unlock()

	prev := make(map[ledger.OutputID]*LeasedOutput, len(inputs))
	for _, input := range inputs {
		prev[input.OutputID] = w.leases[input.OutputID]

		_, err := w.leaseOutput(id, input.OutputID, duration)
		if err == nil {
			continue
		}

		for op, lease := range prev {
			if lease == nil {
				delete(w.leases, op)
				continue
			}
			w.leases[op] = lease
		}
		return err
	}

	return nil
}

// deleteExpiredLeases removes expired leases and returns how many were
// removed.
func (w *Wallet) deleteExpiredLeases() int {
	w.leaseMtx.Lock()
	defer w.leaseMtx.Unlock()

	now := w.cfg.Clock.Now()

	var n int
	for op, lease := range w.leases {
		if now.Before(lease.Expiration) {
			continue
		}
		delete(w.leases, op)
		n++
	}
	return n
}
