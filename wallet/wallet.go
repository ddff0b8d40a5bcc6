// Copyright (c) 2024 The txwallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package wallet builds transactions for named accounts on top of a
// ChainSource.  It serializes builds per account and leases the inputs of
// every transaction it creates so concurrent builds never select the same
// output.
package wallet

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/lightningnetwork/lnd/clock"
	"github.com/lightningnetwork/lnd/ticker"
	"github.com/novaledger/txwallet/ledger"
	"golang.org/x/sync/semaphore"
)

const (
	// DefaultLeaseDuration is how long the inputs of a created
	// transaction stay leased when the request does not say otherwise.
	DefaultLeaseDuration = 10 * time.Minute

	// DefaultLeaseSweepInterval is how often expired leases are removed.
	DefaultLeaseSweepInterval = time.Minute
)

var (
	// ErrNilChainSource is returned when a wallet is created without a
	// chain source.
	ErrNilChainSource = errors.New("nil chain source")

	// ErrNoAccounts is returned when a wallet is created without any
	// account.
	ErrNoAccounts = errors.New("no accounts configured")

	// ErrWalletShuttingDown is returned when a lease is attempted after
	// the wallet has been stopped.
	ErrWalletShuttingDown = errors.New("wallet shutting down")
)

// Config holds the collaborators and settings of a Wallet.
type Config struct {
	// Chain provides protocol parameters, unspent outputs and rewards.
	Chain ChainSource

	// Accounts maps account names to the addresses they own.
	Accounts map[string][]ledger.Address

	// LeaseDuration is the default lease duration of created
	// transactions.  Zero uses DefaultLeaseDuration.
	LeaseDuration time.Duration

	// Clock is used to compute lease expirations.  Nil uses the system
	// clock.
	Clock clock.Clock

	// LeaseTicker drives the removal of expired leases.  Nil uses a
	// ticker firing every DefaultLeaseSweepInterval.
	LeaseTicker ticker.Ticker
}

// Wallet creates transactions for its accounts.
type Wallet struct {
	cfg Config

	// accountLocks serializes transaction creation per account.  The map
	// is never modified after New.
	accountLocks map[string]*semaphore.Weighted

	leaseMtx sync.Mutex
	leases   map[ledger.OutputID]*LeasedOutput

	startOnce sync.Once
	stopOnce  sync.Once
	wg        sync.WaitGroup
	quit      chan struct{}
}

// A compile-time assertion to ensure Wallet implements both the TxCreator
// and UtxoManager interfaces.
var (
	_ TxCreator   = (*Wallet)(nil)
	_ UtxoManager = (*Wallet)(nil)
)

// New creates a wallet from cfg, filling in defaults for unset fields.
func New(cfg Config) (*Wallet, error) {
	if cfg.Chain == nil {
		return nil, ErrNilChainSource
	}
	if len(cfg.Accounts) == 0 {
		return nil, ErrNoAccounts
	}
	if cfg.LeaseDuration == 0 {
		cfg.LeaseDuration = DefaultLeaseDuration
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.NewDefaultClock()
	}
	if cfg.LeaseTicker == nil {
		cfg.LeaseTicker = ticker.New(DefaultLeaseSweepInterval)
	}

	locks := make(map[string]*semaphore.Weighted, len(cfg.Accounts))
	for name, addrs := range cfg.Accounts {
		if len(addrs) == 0 {
			return nil, fmt.Errorf("account %q has no addresses",
				name)
		}
		locks[name] = semaphore.NewWeighted(1)
	}

	return &Wallet{
		cfg:          cfg,
		accountLocks: locks,
		leases:       make(map[ledger.OutputID]*LeasedOutput),
		quit:         make(chan struct{}),
	}, nil
}

// Start launches the lease sweeper.
func (w *Wallet) Start() {
	w.startOnce.Do(func() {
		log.Infof("Starting wallet with %d %s", len(w.accountLocks),
			pickNoun(len(w.accountLocks), "account", "accounts"))

		w.cfg.LeaseTicker.Resume()

		w.wg.Add(1)
		go w.leaseSweeper()
	})
}

// Stop signals the lease sweeper to exit and waits for it.
func (w *Wallet) Stop() {
	w.stopOnce.Do(func() {
		log.Info("Stopping wallet")

		close(w.quit)
		w.wg.Wait()
		w.cfg.LeaseTicker.Stop()
	})
}

// Accounts returns the names of the wallet's accounts in lexical order.
func (w *Wallet) Accounts() []string {
	names := make([]string, 0, len(w.cfg.Accounts))
	for name := range w.cfg.Accounts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// accountAddresses returns the addresses owned by the named account.
func (w *Wallet) accountAddresses(name string) ([]ledger.Address, error) {
	addrs, ok := w.cfg.Accounts[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrAccountNotFound, name)
	}
	return addrs, nil
}

// leaseSweeper removes expired leases on every tick until the wallet is
// stopped.
//
// NOTE: This MUST be run as a goroutine.
func (w *Wallet) leaseSweeper() {
	defer w.wg.Done()

	for {
		select {
		case <-w.cfg.LeaseTicker.Ticks():
			if n := w.deleteExpiredLeases(); n > 0 {
				log.Debugf("Removed %d expired %s", n,
					pickNoun(n, "lease", "leases"))
			}

		case <-w.quit:
			return
		}
	}
}
