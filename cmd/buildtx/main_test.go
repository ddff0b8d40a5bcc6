// Copyright (c) 2024 The txwallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/novaledger/txwallet/internal/cfgutil"
	"github.com/novaledger/txwallet/ledger"
	"github.com/novaledger/txwallet/wallet/txauthor"
	"github.com/stretchr/testify/require"
)

var (
	testOwner     = ledger.Ed25519Address{0x01}
	testRecipient = ledger.Ed25519Address{0x02}
)

func bech32(t *testing.T, addr ledger.Address) string {
	t.Helper()

	s, err := ledger.Bech32("rms", addr)
	require.NoError(t, err)
	return s
}

func outputID(n byte) string {
	return ledger.NewOutputID(ledger.TransactionID{n}, 0).String()
}

func testConfig() *config {
	return &config{
		Parallel:  2,
		Remainder: &cfgutil.AddressFlag{},
		MaxSpend:  cfgutil.NewAmountFlag(0),
	}
}

// paymentRequest is a YAML request paying 1Mi out of a 2Mi output.
func paymentRequest(t *testing.T) string {
	t.Helper()

	return fmt.Sprintf(`
addresses: [%s]
slot: 100
unspent:
  - outputId: "%s"
    includedSlot: 100
    output:
      amount: 2Mi
      address: %s
transaction:
  outputs:
    - amount: 1Mi
      address: %s
`, bech32(t, testOwner), outputID(1), bech32(t, testOwner),
		bech32(t, testRecipient))
}

func TestDecodeRequest(t *testing.T) {
	t.Parallel()

	req, err := decodeRequest([]byte(paymentRequest(t)))
	require.NoError(t, err)

	require.Equal(t, defaultAccount, req.account)
	require.Equal(t, []ledger.Address{testOwner}, req.addresses)
	require.Equal(t, ledger.SlotIndex(100), req.chain.slot)
	require.Equal(t, ledger.SlotIndex(90), req.chain.commitment.Slot)
	require.Len(t, req.chain.unspent, 1)
	require.Equal(t, uint64(2_000_000),
		req.chain.unspent[0].Output.BaseTokenAmount())

	require.Len(t, req.intent.Outputs, 1)
	require.Equal(t, uint64(1_000_000),
		req.intent.Outputs[0].BaseTokenAmount())
	require.True(t, req.intent.AllowAdditionalInputSelection)
}

func TestDecodeRequestJSON(t *testing.T) {
	t.Parallel()

	doc := fmt.Sprintf(`{
  "account": "savings",
  "addresses": ["%s"],
  "slot": 100,
  "parameters": {"bech32Hrp": "rms", "minCommittableAge": 5},
  "unspent": [{
    "outputId": "%s",
    "includedSlot": 100,
    "reward": 5000,
    "output": {
      "kind": "delegation",
      "amount": 1000000,
      "delegatedAmount": 1000000,
      "delegationId": "0x%s",
      "validator": "%s",
      "address": "%s"
    }
  }],
  "transaction": {
    "burn": {"delegations": ["0x%s"]},
    "allowAdditionalInputSelection": false
  }
}`, bech32(t, testOwner), outputID(1), strings.Repeat("de", 32),
		bech32(t, ledger.AccountAddress{0x77}), bech32(t, testOwner),
		strings.Repeat("de", 32))

	req, err := decodeRequest([]byte(doc))
	require.NoError(t, err)

	require.Equal(t, "savings", req.account)
	require.Equal(t, ledger.SlotIndex(95), req.chain.commitment.Slot)
	require.Equal(t, ledger.SlotIndex(20),
		req.chain.params.MaxCommittableAge)
	require.False(t, req.intent.AllowAdditionalInputSelection)
	require.Len(t, req.intent.Burn.Delegations, 1)

	delegation, ok := req.chain.unspent[0].Output.(*ledger.DelegationOutput)
	require.True(t, ok)
	require.Equal(t, ledger.AccountAddress{0x77}, delegation.Validator)
	require.Equal(t, uint64(5_000),
		req.chain.rewards[req.chain.unspent[0].OutputID])
}

func TestDecodeRequestErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		doc  string
	}{
		{
			name: "unknown field",
			doc:  "addresses: []\nunknown: 1\n",
		},
		{
			name: "no addresses",
			doc:  "slot: 1\n",
		},
		{
			name: "bad address",
			doc:  "addresses: [nope]\n",
		},
		{
			name: "bad amount",
			doc: fmt.Sprintf("addresses: [%s]\ntransaction:\n"+
				"  outputs:\n    - amount: 1.5\n",
				bech32(t, testOwner)),
		},
		{
			name: "bad kind",
			doc: fmt.Sprintf("addresses: [%s]\ntransaction:\n"+
				"  outputs:\n    - kind: anchor\n"+
				"      address: %s\n",
				bech32(t, testOwner), bech32(t, testOwner)),
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			_, err := decodeRequest([]byte(test.doc))
			require.Error(t, err)
		})
	}
}

// TestBuildRequest checks a request file is built into a transaction with a
// remainder back to the owner.
func TestBuildRequest(t *testing.T) {
	t.Parallel()

	req, err := decodeRequest([]byte(paymentRequest(t)))
	require.NoError(t, err)

	view, err := buildRequest(
		context.Background(), testConfig(), "payment.yaml", req,
	)
	require.NoError(t, err)

	require.Equal(t, "payment.yaml", view.File)
	require.NotEmpty(t, view.TransactionID)
	require.Equal(t, ledger.SlotIndex(100), view.CreationSlot)
	require.Len(t, view.Inputs, 1)
	require.Equal(t, outputID(1), view.Inputs[0].OutputID)
	require.Len(t, view.Outputs, 2)

	var remainders int
	for _, o := range view.Outputs {
		if o.Remainder {
			remainders++
			require.Equal(t, bech32(t, testOwner), o.Address)
		}
	}
	require.Equal(t, 1, remainders)
}

func TestBuildRequestRemainderFlag(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	remainder := ledger.Ed25519Address{0x03}
	require.NoError(t, cfg.Remainder.UnmarshalFlag(bech32(t, remainder)))

	req, err := decodeRequest([]byte(paymentRequest(t)))
	require.NoError(t, err)

	view, err := buildRequest(context.Background(), cfg, "r.yaml", req)
	require.NoError(t, err)
	require.Equal(t, txauthor.CustomAddress{Address: remainder},
		req.intent.Remainder)

	for _, o := range view.Outputs {
		if o.Remainder {
			require.Equal(t, bech32(t, remainder), o.Address)
		}
	}
}

func TestBuildRequestSpendLimit(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.MaxSpend.Amount = 500_000

	req, err := decodeRequest([]byte(paymentRequest(t)))
	require.NoError(t, err)

	_, err = buildRequest(context.Background(), cfg, "p.yaml", req)
	require.ErrorIs(t, err, ErrSpendLimit)
}

// TestBuildAll checks files are reported in order with failures inline.
func TestBuildAll(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	good := filepath.Join(dir, "good.yaml")
	require.NoError(t, os.WriteFile(good, []byte(paymentRequest(t)), 0600))
	missing := filepath.Join(dir, "missing.yaml")

	views := buildAll(
		context.Background(), testConfig(),
		[]string{good, missing, good},
	)
	require.Len(t, views, 3)
	require.Empty(t, views[0].Error)
	require.NotEmpty(t, views[1].Error)
	require.Equal(t, missing, views[1].File)
	require.Equal(t, views[0].TransactionID, views[2].TransactionID)

	var buf bytes.Buffer
	require.NoError(t, writeViews(&buf, views, false))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)

	var decoded txView
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &decoded))
	require.Equal(t, views[1].Error, decoded.Error)
}

func TestContextInputString(t *testing.T) {
	t.Parallel()

	require.Equal(t, "reward 2",
		contextInputString(ledger.RewardInput{Index: 2}))
	require.Equal(t, "bic "+ledger.AccountID{0x01}.String(),
		contextInputString(ledger.BlockIssuanceCreditInput{
			AccountID: ledger.AccountID{0x01},
		}))
}
