// Copyright (c) 2024 The txwallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"
	"os"

	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/novaledger/txwallet/internal/cfgutil"
	"github.com/novaledger/txwallet/ledger"
	"github.com/novaledger/txwallet/wallet/txauthor"
	"gopkg.in/yaml.v3"
)

// defaultAccount names the account of requests that do not name one.
const defaultAccount = "default"

// amount is a base token amount written as an integer or with a Ki, Mi or
// Gi suffix.
type amount uint64

// UnmarshalYAML implements the yaml.Unmarshaler interface.
func (a *amount) UnmarshalYAML(value *yaml.Node) error {
	v, err := cfgutil.ParseAmount(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*a = amount(v)
	return nil
}

// requestFile describes a ledger snapshot and the transaction to build from
// it.  JSON documents are accepted as well since they are valid YAML.
type requestFile struct {
	Account    string                     `yaml:"account"`
	Addresses  []string                   `yaml:"addresses"`
	Slot       ledger.SlotIndex           `yaml:"slot"`
	Commitment string                     `yaml:"commitment"`
	Parameters *ledger.ProtocolParameters `yaml:"parameters"`
	Unspent    []unspentSpec              `yaml:"unspent"`
	Tx         intentSpec                 `yaml:"transaction"`
}

type unspentSpec struct {
	OutputID     string           `yaml:"outputId"`
	IncludedSlot ledger.SlotIndex `yaml:"includedSlot"`
	Reward       uint64           `yaml:"reward"`
	Output       outputSpec       `yaml:"output"`
}

type tokenSpec struct {
	ID     string `yaml:"id"`
	Amount string `yaml:"amount"`
}

type expirationSpec struct {
	ReturnAddress string           `yaml:"returnAddress"`
	Slot          ledger.SlotIndex `yaml:"slot"`
}

type storageReturnSpec struct {
	ReturnAddress string `yaml:"returnAddress"`
	Amount        amount `yaml:"amount"`
}

type blockIssuerSpec struct {
	ExpirySlot ledger.SlotIndex `yaml:"expirySlot"`
	Keys       []string         `yaml:"keys"`
}

type stakingSpec struct {
	StakedAmount amount            `yaml:"stakedAmount"`
	FixedCost    uint64            `yaml:"fixedCost"`
	StartEpoch   ledger.EpochIndex `yaml:"startEpoch"`
	EndEpoch     ledger.EpochIndex `yaml:"endEpoch"`
}

type outputSpec struct {
	Kind                 string             `yaml:"kind"`
	Amount               amount             `yaml:"amount"`
	Mana                 uint64             `yaml:"mana"`
	Address              string             `yaml:"address"`
	NativeTokens         []tokenSpec        `yaml:"nativeTokens"`
	AccountID            string             `yaml:"accountId"`
	FoundryCounter       uint32             `yaml:"foundryCounter"`
	NftID                string             `yaml:"nftId"`
	DelegationID         string             `yaml:"delegationId"`
	Validator            string             `yaml:"validator"`
	DelegatedAmount      amount             `yaml:"delegatedAmount"`
	StartEpoch           ledger.EpochIndex  `yaml:"startEpoch"`
	EndEpoch             ledger.EpochIndex  `yaml:"endEpoch"`
	Timelock             *ledger.SlotIndex  `yaml:"timelock"`
	Expiration           *expirationSpec    `yaml:"expiration"`
	StorageDepositReturn *storageReturnSpec `yaml:"storageDepositReturn"`
	Sender               string             `yaml:"sender"`
	Tag                  string             `yaml:"tag"`
	Metadata             string             `yaml:"metadata"`
	BlockIssuer          *blockIssuerSpec   `yaml:"blockIssuer"`
	Staking              *stakingSpec       `yaml:"staking"`
}

type burnSpec struct {
	Mana          bool        `yaml:"mana"`
	GeneratedMana bool        `yaml:"generatedMana"`
	Accounts      []string    `yaml:"accounts"`
	Foundries     []string    `yaml:"foundries"`
	Nfts          []string    `yaml:"nfts"`
	Delegations   []string    `yaml:"delegations"`
	NativeTokens  []tokenSpec `yaml:"nativeTokens"`
}

type allotmentSpec struct {
	AccountID string `yaml:"accountId"`
	Mana      uint64 `yaml:"mana"`
}

type beginStakingSpec struct {
	StakedAmount  amount  `yaml:"stakedAmount"`
	FixedCost     uint64  `yaml:"fixedCost"`
	StakingPeriod *uint32 `yaml:"stakingPeriod"`
}

type accountChangeSpec struct {
	Begin  *beginStakingSpec `yaml:"beginStaking"`
	Extend uint32            `yaml:"extendStaking"`
	End    bool              `yaml:"endStaking"`
}

type transitionsSpec struct {
	ImplicitAccounts map[string]string            `yaml:"implicitAccounts"`
	Accounts         map[string]accountChangeSpec `yaml:"accounts"`
}

type intentSpec struct {
	Outputs                       []outputSpec     `yaml:"outputs"`
	RequiredInputs                []string         `yaml:"requiredInputs"`
	ForbiddenInputs               []string         `yaml:"forbiddenInputs"`
	Burn                          *burnSpec        `yaml:"burn"`
	RemainderAddress              string           `yaml:"remainderAddress"`
	Allotments                    []allotmentSpec  `yaml:"allotments"`
	IssuerID                      string           `yaml:"issuerId"`
	Transitions                   *transitionsSpec `yaml:"transitions"`
	Capabilities                  uint8            `yaml:"capabilities"`
	Payload                       string           `yaml:"payload"`
	AllowMicroAmount              bool             `yaml:"allowMicroAmount"`
	AllowAdditionalInputSelection *bool            `yaml:"allowAdditionalInputSelection"`
}

// request is a decoded request file.
type request struct {
	account   string
	addresses []ledger.Address
	chain     *staticChain
	intent    *txauthor.TxIntent
}

// loadRequest reads and decodes the request file at path.
func loadRequest(path string) (*request, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return decodeRequest(b)
}

// decodeRequest decodes a YAML or JSON request.  Unknown fields are
// rejected.
func decodeRequest(b []byte) (*request, error) {
	file := requestFile{
		Account:    defaultAccount,
		Parameters: ledger.DefaultProtocolParameters(),
	}

	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("unable to decode request: %w", err)
	}

	return file.toRequest()
}

func (f *requestFile) toRequest() (*request, error) {
	if f.Parameters == nil {
		f.Parameters = ledger.DefaultProtocolParameters()
	}
	if len(f.Addresses) == 0 {
		return nil, errors.New("request has no addresses")
	}
	addrs := make([]ledger.Address, len(f.Addresses))
	for i, s := range f.Addresses {
		addr, err := parseAddress(s)
		if err != nil {
			return nil, err
		}
		addrs[i] = addr
	}

	commitment := ledger.SlotCommitmentID{
		Slot: f.Slot - min(f.Slot, f.Parameters.MinCommittableAge),
	}
	if f.Commitment != "" {
		var err error
		commitment, err = ledger.ParseSlotCommitmentID(f.Commitment)
		if err != nil {
			return nil, fmt.Errorf("invalid commitment: %w", err)
		}
	}

	chain := &staticChain{
		params:     f.Parameters,
		slot:       f.Slot,
		commitment: commitment,
		rewards:    make(map[ledger.OutputID]uint64),
	}
	for i, u := range f.Unspent {
		id, err := ledger.ParseOutputID(u.OutputID)
		if err != nil {
			return nil, fmt.Errorf("unspent %d: %w", i, err)
		}
		o, err := u.Output.toOutput()
		if err != nil {
			return nil, fmt.Errorf("unspent %v: %w", id, err)
		}
		chain.unspent = append(chain.unspent, &txauthor.InputSigningData{
			Output:   o,
			OutputID: id,
			Metadata: txauthor.OutputMetadata{
				IncludedSlot: u.IncludedSlot,
			},
		})
		if u.Reward > 0 {
			chain.rewards[id] = u.Reward
		}
	}

	intent, err := f.Tx.toIntent()
	if err != nil {
		return nil, err
	}

	return &request{
		account:   f.Account,
		addresses: addrs,
		chain:     chain,
		intent:    intent,
	}, nil
}

func (s *intentSpec) toIntent() (*txauthor.TxIntent, error) {
	intent := txauthor.NewTxIntent()

	for i, out := range s.Outputs {
		o, err := out.toOutput()
		if err != nil {
			return nil, fmt.Errorf("output %d: %w", i, err)
		}
		intent.Outputs = append(intent.Outputs, o)
	}

	var err error
	intent.RequiredInputs, err = parseEach(s.RequiredInputs,
		ledger.ParseOutputID)
	if err != nil {
		return nil, fmt.Errorf("required inputs: %w", err)
	}
	intent.ForbiddenInputs, err = parseEach(s.ForbiddenInputs,
		ledger.ParseOutputID)
	if err != nil {
		return nil, fmt.Errorf("forbidden inputs: %w", err)
	}

	if s.Burn != nil {
		intent.Burn, err = s.Burn.toBurn()
		if err != nil {
			return nil, fmt.Errorf("burn: %w", err)
		}
	}

	if s.RemainderAddress != "" {
		addr, err := parseAddress(s.RemainderAddress)
		if err != nil {
			return nil, fmt.Errorf("remainder: %w", err)
		}
		intent.Remainder = txauthor.CustomAddress{Address: addr}
	}

	for _, a := range s.Allotments {
		id, err := ledger.ParseAccountID(a.AccountID)
		if err != nil {
			return nil, fmt.Errorf("allotment: %w", err)
		}
		intent.ManaAllotments = append(intent.ManaAllotments,
			ledger.ManaAllotment{AccountID: id, Mana: a.Mana})
	}

	if s.IssuerID != "" {
		id, err := ledger.ParseAccountID(s.IssuerID)
		if err != nil {
			return nil, fmt.Errorf("issuer: %w", err)
		}
		intent.IssuerID = fn.Some(id)
	}

	if s.Transitions != nil {
		intent.Transitions, err = s.Transitions.toTransitions()
		if err != nil {
			return nil, fmt.Errorf("transitions: %w", err)
		}
	}

	intent.Capabilities = ledger.Capabilities(s.Capabilities)
	if s.Payload != "" {
		intent.Payload = []byte(s.Payload)
	}
	intent.AllowMicroAmount = s.AllowMicroAmount
	if s.AllowAdditionalInputSelection != nil {
		intent.AllowAdditionalInputSelection =
			*s.AllowAdditionalInputSelection
	}

	return intent, nil
}

func (s *burnSpec) toBurn() (*txauthor.Burn, error) {
	burn := &txauthor.Burn{
		Mana:          s.Mana,
		GeneratedMana: s.GeneratedMana,
	}

	var err error
	if burn.Accounts, err = parseEach(s.Accounts,
		ledger.ParseAccountID); err != nil {

		return nil, err
	}
	if burn.Foundries, err = parseEach(s.Foundries,
		ledger.ParseTokenID); err != nil {

		return nil, err
	}
	if burn.Nfts, err = parseEach(s.Nfts, parseNftID); err != nil {
		return nil, err
	}
	if burn.Delegations, err = parseEach(s.Delegations,
		parseDelegationID); err != nil {

		return nil, err
	}
	if burn.NativeTokens, err = parseTokens(s.NativeTokens); err != nil {
		return nil, err
	}

	return burn, nil
}

func (s *transitionsSpec) toTransitions() (*txauthor.Transitions, error) {
	t := &txauthor.Transitions{
		ImplicitAccounts: make(map[ledger.OutputID]ledger.BlockIssuerKey),
		Accounts:         make(map[ledger.AccountID]txauthor.AccountChange),
	}

	for outputID, key := range s.ImplicitAccounts {
		id, err := ledger.ParseOutputID(outputID)
		if err != nil {
			return nil, err
		}
		k, err := ledger.ParseAccountID(key)
		if err != nil {
			return nil, fmt.Errorf("block issuer key: %w", err)
		}
		t.ImplicitAccounts[id] = ledger.BlockIssuerKey(k)
	}

	for accountID, change := range s.Accounts {
		id, err := ledger.ParseAccountID(accountID)
		if err != nil {
			return nil, err
		}

		switch {
		case change.Begin != nil:
			begin := txauthor.BeginStaking{
				StakedAmount: uint64(change.Begin.StakedAmount),
				FixedCost:    change.Begin.FixedCost,
			}
			if change.Begin.StakingPeriod != nil {
				begin.StakingPeriod = fn.Some(
					*change.Begin.StakingPeriod,
				)
			}
			t.Accounts[id] = begin

		case change.Extend > 0:
			t.Accounts[id] = txauthor.ExtendStaking{
				AdditionalEpochs: change.Extend,
			}

		case change.End:
			t.Accounts[id] = txauthor.EndStaking{}

		default:
			return nil, fmt.Errorf("account %v: no staking change",
				id)
		}
	}

	return t, nil
}

func (s *outputSpec) toOutput() (ledger.Output, error) {
	conditions, err := s.unlockConditions()
	if err != nil {
		return nil, err
	}
	tokens, err := parseTokens(s.NativeTokens)
	if err != nil {
		return nil, err
	}
	features, err := s.features()
	if err != nil {
		return nil, err
	}

	switch s.Kind {
	case "", "basic":
		return &ledger.BasicOutput{
			Amount:           uint64(s.Amount),
			Mana:             s.Mana,
			NativeTokens:     tokens,
			UnlockConditions: conditions,
			Features:         features,
		}, nil

	case "account":
		var id ledger.AccountID
		if s.AccountID != "" {
			if id, err = ledger.ParseAccountID(s.AccountID); err != nil {
				return nil, err
			}
		}
		return &ledger.AccountOutput{
			Amount:           uint64(s.Amount),
			Mana:             s.Mana,
			NativeTokens:     tokens,
			AccountID:        id,
			FoundryCounter:   s.FoundryCounter,
			UnlockConditions: conditions,
			Features:         features,
		}, nil

	case "nft":
		var id ledger.NftID
		if s.NftID != "" {
			if id, err = parseNftID(s.NftID); err != nil {
				return nil, err
			}
		}
		return &ledger.NftOutput{
			Amount:           uint64(s.Amount),
			Mana:             s.Mana,
			NativeTokens:     tokens,
			NftID:            id,
			UnlockConditions: conditions,
			Features:         features,
		}, nil

	case "delegation":
		var id ledger.DelegationID
		if s.DelegationID != "" {
			if id, err = parseDelegationID(s.DelegationID); err != nil {
				return nil, err
			}
		}
		validator, err := parseAddress(s.Validator)
		if err != nil {
			return nil, fmt.Errorf("validator: %w", err)
		}
		account, ok := validator.(ledger.AccountAddress)
		if !ok {
			return nil, fmt.Errorf("validator must be an account "+
				"address, got %v", validator.Kind())
		}
		return &ledger.DelegationOutput{
			Amount:           uint64(s.Amount),
			DelegatedAmount:  uint64(s.DelegatedAmount),
			DelegationID:     id,
			Validator:        account,
			StartEpoch:       s.StartEpoch,
			EndEpoch:         s.EndEpoch,
			UnlockConditions: conditions,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported output kind %q", s.Kind)
	}
}

func (s *outputSpec) unlockConditions() (ledger.UnlockConditions, error) {
	var (
		u   ledger.UnlockConditions
		err error
	)
	if u.Address, err = parseAddress(s.Address); err != nil {
		return u, err
	}
	if s.Timelock != nil {
		slot := *s.Timelock
		u.Timelock = &slot
	}
	if e := s.Expiration; e != nil {
		addr, err := parseAddress(e.ReturnAddress)
		if err != nil {
			return u, fmt.Errorf("expiration: %w", err)
		}
		u.Expiration = &ledger.Expiration{
			ReturnAddress: addr,
			Slot:          e.Slot,
		}
	}
	if r := s.StorageDepositReturn; r != nil {
		addr, err := parseAddress(r.ReturnAddress)
		if err != nil {
			return u, fmt.Errorf("storage deposit return: %w", err)
		}
		u.StorageDepositReturn = &ledger.StorageDepositReturn{
			ReturnAddress: addr,
			Amount:        uint64(r.Amount),
		}
	}
	return u, nil
}

func (s *outputSpec) features() (ledger.Features, error) {
	var f ledger.Features
	if s.Sender != "" {
		addr, err := parseAddress(s.Sender)
		if err != nil {
			return f, fmt.Errorf("sender: %w", err)
		}
		f.Sender = addr
	}
	if s.Tag != "" {
		f.Tag = []byte(s.Tag)
	}
	if s.Metadata != "" {
		f.Metadata = []byte(s.Metadata)
	}
	if b := s.BlockIssuer; b != nil {
		keys, err := parseEach(b.Keys, ledger.ParseAccountID)
		if err != nil {
			return f, fmt.Errorf("block issuer key: %w", err)
		}
		f.BlockIssuer = &ledger.BlockIssuerFeature{
			ExpirySlot: b.ExpirySlot,
		}
		for _, k := range keys {
			f.BlockIssuer.Keys = append(f.BlockIssuer.Keys,
				ledger.BlockIssuerKey(k))
		}
	}
	if st := s.Staking; st != nil {
		f.Staking = &ledger.StakingFeature{
			StakedAmount: uint64(st.StakedAmount),
			FixedCost:    st.FixedCost,
			StartEpoch:   st.StartEpoch,
			EndEpoch:     st.EndEpoch,
		}
	}
	return f, nil
}

// parseAddress decodes a bech32 address.
func parseAddress(s string) (ledger.Address, error) {
	var flag cfgutil.AddressFlag
	if err := flag.UnmarshalFlag(s); err != nil {
		return nil, err
	}
	return flag.Address, nil
}

func parseNftID(s string) (ledger.NftID, error) {
	id, err := ledger.ParseAccountID(s)
	return ledger.NftID(id), err
}

func parseDelegationID(s string) (ledger.DelegationID, error) {
	id, err := ledger.ParseAccountID(s)
	return ledger.DelegationID(id), err
}

// parseTokens decodes native tokens with decimal amounts.
func parseTokens(specs []tokenSpec) (ledger.NativeTokens, error) {
	if len(specs) == 0 {
		return nil, nil
	}

	builder := ledger.NewNativeTokensBuilder()
	for _, token := range specs {
		id, err := ledger.ParseTokenID(token.ID)
		if err != nil {
			return nil, err
		}
		v, ok := new(big.Int).SetString(token.Amount, 10)
		if !ok {
			return nil, fmt.Errorf("invalid token amount %q",
				token.Amount)
		}
		if err := builder.Add(id, v); err != nil {
			return nil, err
		}
	}
	return builder.Finish(), nil
}

// parseEach applies parse to every string.
func parseEach[T any](values []string, parse func(string) (T, error)) ([]T,
	error) {

	if len(values) == 0 {
		return nil, nil
	}
	parsed := make([]T, len(values))
	for i, v := range values {
		p, err := parse(v)
		if err != nil {
			return nil, err
		}
		parsed[i] = p
	}
	return parsed, nil
}
