// Copyright (c) 2024 The txwallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// buildtx builds unsigned transactions from request files describing a
// ledger snapshot and the transaction wanted, and prints them as JSON.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/novaledger/txwallet/ledger"
	"github.com/novaledger/txwallet/wallet"
	"github.com/novaledger/txwallet/wallet/txauthor"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"
)

// ErrSpendLimit is returned when a transaction sends more than the
// configured maximum to addresses outside the request.
var ErrSpendLimit = errors.New("transaction exceeds spend limit")

func main() {
	if err := buildTxMain(); err != nil {
		if !errors.Is(err, errShowAndExit) {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
}

// buildTxMain is the real main function for buildtx.  It is necessary to
// work around the fact that deferred functions do not run when os.Exit() is
// called.
func buildTxMain() error {
	cfg, files, err := loadConfig(os.Args[1:])
	if err != nil {
		return err
	}
	defer closeLogRotator()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	views := buildAll(ctx, cfg, files)

	indent := !cfg.Compact && term.IsTerminal(int(os.Stdout.Fd()))
	if err := writeViews(os.Stdout, views, indent); err != nil {
		return err
	}

	var failed int
	for _, v := range views {
		if v.Error != "" {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d requests failed", failed, len(views))
	}
	return nil
}

// buildAll builds the request files concurrently, at most cfg.Parallel at a
// time.  The views are returned in the order of files; a file that fails to
// build yields a view carrying the error.
func buildAll(ctx context.Context, cfg *config,
	files []string) []*txView {

	views := make([]*txView, len(files))

	var g errgroup.Group
	g.SetLimit(cfg.Parallel)
	for i, file := range files {
		g.Go(func() error {
			view, err := buildFile(ctx, cfg, file)
			if err != nil {
				log.Errorf("Unable to build %s: %v", file, err)
				view = &txView{File: file, Error: err.Error()}
			}
			views[i] = view
			return nil
		})
	}
	_ = g.Wait()

	return views
}

// buildFile builds the transaction described by the request file.
func buildFile(ctx context.Context, cfg *config, file string) (*txView,
	error) {

	req, err := loadRequest(file)
	if err != nil {
		return nil, err
	}
	return buildRequest(ctx, cfg, file, req)
}

func buildRequest(ctx context.Context, cfg *config, file string,
	req *request) (*txView, error) {

	if cfg.Remainder.Address != nil {
		if err := cfg.Remainder.CheckNetwork(
			req.chain.params.Bech32HRP,
		); err != nil {
			return nil, err
		}
		if req.intent.Remainder == nil {
			req.intent.Remainder = txauthor.CustomAddress{
				Address: cfg.Remainder.Address,
			}
		}
	}

	w, err := wallet.New(wallet.Config{
		Chain: req.chain,
		Accounts: map[string][]ledger.Address{
			req.account: req.addresses,
		},
	})
	if err != nil {
		return nil, err
	}
	w.Start()
	defer w.Stop()

	tx, err := w.CreateTransaction(ctx, &wallet.TxRequest{
		Account: req.account,
		Intent:  req.intent,
	})
	if err != nil {
		return nil, err
	}

	log.Debugf("Built %s: %v", file, newLogClosure(func() string {
		return fmt.Sprintf("%d inputs, %d outputs, %d remainders",
			len(tx.Inputs), len(tx.Transaction.Outputs),
			len(tx.Remainders))
	}))

	if limit := cfg.MaxSpend.Amount; limit > 0 {
		if spent := spentAmount(tx, req.addresses); spent > limit {
			return nil, fmt.Errorf("%w: sends %d, limit %d",
				ErrSpendLimit, spent, limit)
		}
	}

	return newTxView(file, tx, req.chain.params)
}

// spentAmount returns the base tokens the transaction sends to addresses
// not backed by any of addrs.
func spentAmount(tx *txauthor.PreparedTransaction,
	addrs []ledger.Address) uint64 {

	owned := make(map[ledger.Ed25519Address]struct{}, len(addrs))
	for _, addr := range addrs {
		if backing, ok := ledger.BackingEd25519(addr); ok {
			owned[backing] = struct{}{}
		}
	}

	var spent uint64
	for _, o := range tx.Transaction.Outputs {
		addr := o.UnlockConditionSet().Address
		if addr == nil {
			continue
		}
		if backing, ok := ledger.BackingEd25519(addr); ok {
			if _, ok := owned[backing]; ok {
				continue
			}
		}
		spent += o.BaseTokenAmount()
	}
	return spent
}

// writeViews writes one JSON document per view.
func writeViews(w io.Writer, views []*txView, indent bool) error {
	enc := json.NewEncoder(w)
	if indent {
		enc.SetIndent("", "  ")
	}
	for _, v := range views {
		if err := enc.Encode(v); err != nil {
			return err
		}
	}
	return nil
}
