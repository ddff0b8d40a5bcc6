// Copyright (c) 2024 The txwallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/novaledger/txwallet/ledger"
	"github.com/novaledger/txwallet/wallet/txauthor"
	"golang.org/x/sync/errgroup"
)

// maxConcurrentRewardQueries bounds the reward lookups in flight for one
// transaction.
const maxConcurrentRewardQueries = 8

var (
	// ErrNilTxRequest is returned when a nil TxRequest is provided.
	ErrNilTxRequest = errors.New("nil TxRequest")

	// ErrNilTxIntent is returned when a request carries no TxIntent.
	ErrNilTxIntent = errors.New("nil TxIntent")

	// ErrMissingAccountName is returned when an account name is required
	// but not provided.
	ErrMissingAccountName = errors.New("account name cannot be empty")

	// ErrAccountNotFound is returned when an account is not found.
	ErrAccountNotFound = errors.New("account not found")
)

// TxCreator creates unsigned transactions for the wallet's accounts.
type TxCreator interface {
	// CreateTransaction builds the transaction described by the request
	// from the outputs of its account and leases the selected inputs.
	CreateTransaction(ctx context.Context,
		req *TxRequest) (*txauthor.PreparedTransaction, error)
}

// TxRequest asks the wallet to build a transaction.
type TxRequest struct {
	// Account is the account whose outputs fund the transaction.  Its
	// addresses are the addresses the builder may unlock.
	Account string

	// Intent describes the transaction.  It is not modified.
	Intent *txauthor.TxIntent

	// LockID leases the selected inputs.  Outputs already leased under
	// the same id remain selectable.
	LockID LockID

	// LeaseDuration overrides the wallet's lease duration when non-zero.
	LeaseDuration time.Duration
}

// validateTxRequest checks the request is complete.
func validateTxRequest(req *TxRequest) error {
	switch {
	case req == nil:
		return ErrNilTxRequest

	case req.Intent == nil:
		return ErrNilTxIntent

	case req.Account == "":
		return ErrMissingAccountName
	}

	return nil
}

// chainSnapshot is the ledger state a transaction is built against.
type chainSnapshot struct {
	state     txauthor.ChainState
	available []*txauthor.InputSigningData
}

// CreateTransaction builds the requested transaction.
//
// Builds for the same account are serialized: the account lock is taken
// before the unspent outputs are fetched and released after the selected
// inputs are leased, so a concurrent build never sees them as available.
// Outputs leased under another lock id are forbidden inputs.  Rewards that
// the intent does not provide are fetched for burned delegations, required
// delegations and staking accounts that are burned or end staking.
//
// NOTE: This is part of the TxCreator interface implementation.
func (w *Wallet) CreateTransaction(ctx context.Context,
	req *TxRequest) (*txauthor.PreparedTransaction, error) {

	if err := validateTxRequest(req); err != nil {
		return nil, err
	}
	addrs, err := w.accountAddresses(req.Account)
	if err != nil {
		return nil, err
	}

	select {
	case <-w.quit:
		return nil, ErrWalletShuttingDown
	default:
	}

	lock := w.accountLocks[req.Account]
	if err := lock.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("unable to lock account %q: %w",
			req.Account, err)
	}
	defer lock.Release(1)

	snapshot, err := w.fetchSnapshot(ctx, addrs)
	if err != nil {
		return nil, err
	}

	intent := *req.Intent
	intent.ForbiddenInputs = append(
		slices.Clone(intent.ForbiddenInputs),
		w.forbiddenOutputs(req.LockID)...,
	)

	rewards, err := w.fetchManaRewards(
		ctx, snapshot.available, &intent, snapshot.state.CreationSlot,
	)
	if err != nil {
		return nil, err
	}
	intent.ManaRewards = rewards

	builder := txauthor.NewTransactionBuilder(
		snapshot.available, addrs, snapshot.state, &intent,
	)
	tx, err := builder.Build()
	if err != nil {
		return nil, err
	}

	duration := req.LeaseDuration
	if duration == 0 {
		duration = w.cfg.LeaseDuration
	}
	if err := w.leaseInputs(req.LockID, tx.Inputs, duration); err != nil {
		return nil, fmt.Errorf("unable to lease inputs: %w", err)
	}

	log.Infof("Created transaction for account %q spending %d %s into "+
		"%d %s", req.Account, len(tx.Inputs),
		pickNoun(len(tx.Inputs), "input", "inputs"),
		len(tx.Transaction.Outputs),
		pickNoun(len(tx.Transaction.Outputs), "output", "outputs"))

	return tx, nil
}

// fetchSnapshot queries the chain state and the unspent outputs of addrs
// concurrently.
func (w *Wallet) fetchSnapshot(ctx context.Context,
	addrs []ledger.Address) (*chainSnapshot, error) {

	var snapshot chainSnapshot

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		params, err := w.cfg.Chain.ProtocolParameters(gctx)
		if err != nil {
			return fmt.Errorf("unable to fetch protocol "+
				"parameters: %w", err)
		}
		snapshot.state.Params = params
		return nil
	})
	g.Go(func() error {
		slot, err := w.cfg.Chain.CurrentSlot(gctx)
		if err != nil {
			return fmt.Errorf("unable to fetch current slot: %w",
				err)
		}
		snapshot.state.CreationSlot = slot
		return nil
	})
	g.Go(func() error {
		commitment, err := w.cfg.Chain.LatestCommitment(gctx)
		if err != nil {
			return fmt.Errorf("unable to fetch latest "+
				"commitment: %w", err)
		}
		snapshot.state.Commitment = commitment
		return nil
	})
	g.Go(func() error {
		available, err := w.cfg.Chain.UnspentOutputs(gctx, addrs)
		if err != nil {
			return fmt.Errorf("unable to fetch unspent outputs: "+
				"%w", err)
		}
		snapshot.available = available
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &snapshot, nil
}

// fetchManaRewards returns the rewards of the intent extended by the
// non-zero rewards of the claiming inputs it does not cover.
func (w *Wallet) fetchManaRewards(ctx context.Context,
	available []*txauthor.InputSigningData, intent *txauthor.TxIntent,
	slot ledger.SlotIndex) (map[ledger.OutputID]uint64, error) {

	rewards := make(map[ledger.OutputID]uint64, len(intent.ManaRewards))
	for id, reward := range intent.ManaRewards {
		rewards[id] = reward
	}

	claimants := rewardClaimants(available, intent)
	if len(claimants) == 0 {
		return rewards, nil
	}

	log.Debugf("Fetching rewards of %d %s", len(claimants),
		pickNoun(len(claimants), "output", "outputs"))

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentRewardQueries)
	for _, id := range claimants {
		g.Go(func() error {
			reward, err := w.cfg.Chain.ManaRewards(gctx, id, slot)
			if err != nil {
				return fmt.Errorf("unable to fetch rewards of "+
					"%v: %w", id, err)
			}
			if reward == 0 {
				return nil
			}

			mu.Lock()
			rewards[id] = reward
			mu.Unlock()

			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return rewards, nil
}

// rewardClaimants returns the available outputs that claim rewards when the
// intent consumes them and whose reward is not given by the intent.
func rewardClaimants(available []*txauthor.InputSigningData,
	intent *txauthor.TxIntent) []ledger.OutputID {

	burn := intent.Burn
	if burn == nil {
		burn = &txauthor.Burn{}
	}

	var claimants []ledger.OutputID
	for _, input := range available {
		id := input.OutputID
		if _, ok := intent.ManaRewards[id]; ok {
			continue
		}
		if slices.Contains(intent.ForbiddenInputs, id) {
			continue
		}
		required := slices.Contains(intent.RequiredInputs, id)

		switch o := input.Output.(type) {
		case *ledger.DelegationOutput:
			delegationID := o.DelegationIDOrFrom(id)
			if required ||
				slices.Contains(burn.Delegations, delegationID) {

				claimants = append(claimants, id)
			}

		case *ledger.AccountOutput:
			if o.Features.Staking == nil {
				continue
			}
			accountID := o.AccountIDOrFrom(id)
			if slices.Contains(burn.Accounts, accountID) ||
				required && endsStaking(intent, accountID) {

				claimants = append(claimants, id)
			}
		}
	}

	return claimants
}

// endsStaking reports whether the intent removes the staking feature of the
// account.
func endsStaking(intent *txauthor.TxIntent, id ledger.AccountID) bool {
	if intent.Transitions == nil {
		return false
	}
	_, ok := intent.Transitions.Accounts[id].(txauthor.EndStaking)
	return ok
}
