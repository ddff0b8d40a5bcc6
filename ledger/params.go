// Copyright (c) 2024 The txwallet developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledger

import (
	"encoding/binary"
	"errors"
	"math/big"
	"math/bits"

	"golang.org/x/crypto/blake2b"
)

var (
	// ErrManaOverflow is returned when a mana computation does not fit in
	// 64 bits.
	ErrManaOverflow = errors.New("mana overflow")
)

// StorageScoreParameters weigh the serialized size and special features of
// an output into its storage score.
type StorageScoreParameters struct {
	// StorageCost is the number of base tokens required per unit of
	// storage score.
	StorageCost uint64 `json:"storageCost" yaml:"storageCost"`

	// FactorData is the weight of one serialized byte.
	FactorData uint8 `json:"factorData" yaml:"factorData"`

	// OffsetOutputOverhead accounts for the output metadata the node has
	// to store.
	OffsetOutputOverhead uint64 `json:"offsetOutputOverhead" yaml:"offsetOutputOverhead"`

	// OffsetEd25519BlockIssuerKey is charged per block issuer key.
	OffsetEd25519BlockIssuerKey uint64 `json:"offsetEd25519BlockIssuerKey" yaml:"offsetEd25519BlockIssuerKey"`

	// OffsetStakingFeature is charged for a staking feature.
	OffsetStakingFeature uint64 `json:"offsetStakingFeature" yaml:"offsetStakingFeature"`

	// OffsetDelegation is charged for a delegation output.
	OffsetDelegation uint64 `json:"offsetDelegation" yaml:"offsetDelegation"`
}

// ManaParameters drive mana generation.
type ManaParameters struct {
	// GenerationRate is the amount of mana generated per base token per
	// slot, scaled by 2^GenerationRateExponent.
	GenerationRate uint8 `json:"generationRate" yaml:"generationRate"`

	// GenerationRateExponent scales GenerationRate.
	GenerationRateExponent uint8 `json:"generationRateExponent" yaml:"generationRateExponent"`
}

// WorkScoreParameters price the parts of a transaction in work score units.
type WorkScoreParameters struct {
	Block            uint32 `json:"block" yaml:"block"`
	Input            uint32 `json:"input" yaml:"input"`
	ContextInput     uint32 `json:"contextInput" yaml:"contextInput"`
	Output           uint32 `json:"output" yaml:"output"`
	NativeToken      uint32 `json:"nativeToken" yaml:"nativeToken"`
	Staking          uint32 `json:"staking" yaml:"staking"`
	BlockIssuer      uint32 `json:"blockIssuer" yaml:"blockIssuer"`
	Allotment        uint32 `json:"allotment" yaml:"allotment"`
	SignatureEd25519 uint32 `json:"signatureEd25519" yaml:"signatureEd25519"`
}

// ProtocolParameters are the chain constants the builder validates against.
type ProtocolParameters struct {
	NetworkName            string                 `json:"networkName" yaml:"networkName"`
	Bech32HRP              string                 `json:"bech32Hrp" yaml:"bech32Hrp"`
	TokenSupply            uint64                 `json:"tokenSupply" yaml:"tokenSupply"`
	StorageScore           StorageScoreParameters `json:"storageScoreParameters" yaml:"storageScoreParameters"`
	Mana                   ManaParameters         `json:"manaParameters" yaml:"manaParameters"`
	WorkScore              WorkScoreParameters    `json:"workScoreParameters" yaml:"workScoreParameters"`
	ReferenceManaCost      uint64                 `json:"referenceManaCost" yaml:"referenceManaCost"`
	GenesisSlot            SlotIndex              `json:"genesisSlot" yaml:"genesisSlot"`
	SlotsPerEpochExponent  uint8                  `json:"slotsPerEpochExponent" yaml:"slotsPerEpochExponent"`
	MinCommittableAge      SlotIndex              `json:"minCommittableAge" yaml:"minCommittableAge"`
	MaxCommittableAge      SlotIndex              `json:"maxCommittableAge" yaml:"maxCommittableAge"`
	EpochNearingThreshold  SlotIndex              `json:"epochNearingThreshold" yaml:"epochNearingThreshold"`
	StakingUnbondingPeriod EpochIndex             `json:"stakingUnbondingPeriod" yaml:"stakingUnbondingPeriod"`
	MaxTransactionSize     int                    `json:"maxTransactionSize" yaml:"maxTransactionSize"`
}

// DefaultProtocolParameters returns the parameters of a local test network.
func DefaultProtocolParameters() *ProtocolParameters {
	return &ProtocolParameters{
		NetworkName: "testnet",
		Bech32HRP:   "rms",
		TokenSupply: 1_813_620_509_061_365,
		StorageScore: StorageScoreParameters{
			StorageCost:                 100,
			FactorData:                  1,
			OffsetOutputOverhead:        10,
			OffsetEd25519BlockIssuerKey: 100,
			OffsetStakingFeature:        100,
			OffsetDelegation:            100,
		},
		Mana: ManaParameters{
			GenerationRate:         1,
			GenerationRateExponent: 17,
		},
		WorkScore: WorkScoreParameters{
			Block:            1,
			Input:            1,
			ContextInput:     1,
			Output:           1,
			NativeToken:      1,
			Staking:          1,
			BlockIssuer:      1,
			Allotment:        1,
			SignatureEd25519: 1,
		},
		ReferenceManaCost:      1,
		GenesisSlot:            0,
		SlotsPerEpochExponent:  13,
		MinCommittableAge:      10,
		MaxCommittableAge:      20,
		EpochNearingThreshold:  60,
		StakingUnbondingPeriod: 10,
		MaxTransactionSize:     32768,
	}
}

// NetworkID is derived from the network name.
func (p *ProtocolParameters) NetworkID() uint64 {
	h := blake2b.Sum256([]byte(p.NetworkName))
	return binary.LittleEndian.Uint64(h[:8])
}

// CommittableAgeRange returns the committable age window.
func (p *ProtocolParameters) CommittableAgeRange() CommittableAgeRange {
	return CommittableAgeRange{
		Min: p.MinCommittableAge,
		Max: p.MaxCommittableAge,
	}
}

// EpochOf returns the epoch containing slot.
func (p *ProtocolParameters) EpochOf(slot SlotIndex) EpochIndex {
	if slot < p.GenesisSlot {
		return 0
	}
	return EpochIndex((slot - p.GenesisSlot) >> p.SlotsPerEpochExponent)
}

// FirstSlotOf returns the first slot of epoch.
func (p *ProtocolParameters) FirstSlotOf(epoch EpochIndex) SlotIndex {
	return p.GenesisSlot + SlotIndex(epoch)<<p.SlotsPerEpochExponent
}

// LastSlotOf returns the last slot of epoch.
func (p *ProtocolParameters) LastSlotOf(epoch EpochIndex) SlotIndex {
	return p.FirstSlotOf(epoch+1) - 1
}

// RegistrationSlot returns the slot at the end of which validator and
// delegator registration for epoch closes.
func (p *ProtocolParameters) RegistrationSlot(epoch EpochIndex) SlotIndex {
	first := p.FirstSlotOf(epoch)
	if first < p.EpochNearingThreshold+1 {
		return 0
	}
	return first - p.EpochNearingThreshold - 1
}

// PastBoundedSlot is the latest slot a block referencing commitment can be
// issued in.
func (p *ProtocolParameters) PastBoundedSlot(commitment SlotCommitmentID) SlotIndex {
	return commitment.Slot + p.MaxCommittableAge
}

// FutureBoundedSlot is the earliest slot a block referencing commitment can
// be issued in.
func (p *ProtocolParameters) FutureBoundedSlot(commitment SlotCommitmentID) SlotIndex {
	return commitment.Slot + p.MinCommittableAge
}

// DelegationStartEpoch returns the first epoch a delegation created in a
// transaction referencing commitment counts for.
func (p *ProtocolParameters) DelegationStartEpoch(commitment SlotCommitmentID) EpochIndex {
	pastBounded := p.PastBoundedSlot(commitment)
	epoch := p.EpochOf(pastBounded)
	if pastBounded <= p.RegistrationSlot(epoch+1) {
		return epoch + 1
	}
	return epoch + 2
}

// DelegationEndEpoch returns the last epoch a delegation claimed in a
// transaction referencing commitment counts for.
func (p *ProtocolParameters) DelegationEndEpoch(commitment SlotCommitmentID) EpochIndex {
	futureBounded := p.FutureBoundedSlot(commitment)
	epoch := p.EpochOf(futureBounded)
	if futureBounded <= p.RegistrationSlot(epoch+1) {
		return epoch
	}
	return epoch + 1
}

// GeneratedMana returns the mana generated by amount base tokens held from
// slot from to slot to. Decay is not applied.
func (p *ProtocolParameters) GeneratedMana(amount uint64, from,
	to SlotIndex) (uint64, error) {

	if to <= from {
		return 0, nil
	}

	// amount * slots * rate as a 128 bit value.
	hi, lo := bits.Mul64(amount, uint64(to-from))
	rate := uint64(p.Mana.GenerationRate)
	c0, r0 := bits.Mul64(lo, rate)
	c1, r1 := bits.Mul64(hi, rate)
	r1, carry := bits.Add64(r1, c0, 0)
	if c1 != 0 || carry != 0 {
		return 0, ErrManaOverflow
	}

	shift := uint(p.Mana.GenerationRateExponent)
	switch {
	case shift == 0:
		if r1 != 0 {
			return 0, ErrManaOverflow
		}
		return r0, nil

	case shift >= 64:
		return r1 >> (shift - 64), nil
	}

	if r1>>shift != 0 {
		return 0, ErrManaOverflow
	}
	return r0>>shift | r1<<(64-shift), nil
}

// SlotsToGenerate estimates how many slots amount base tokens need to
// generate deficit mana. Zero is returned when amount generates nothing.
func (p *ProtocolParameters) SlotsToGenerate(amount, deficit uint64) uint64 {
	perSlot := new(big.Int).Mul(
		new(big.Int).SetUint64(amount),
		big.NewInt(int64(p.Mana.GenerationRate)),
	)
	if perSlot.Sign() == 0 || deficit == 0 {
		return 0
	}

	need := new(big.Int).Lsh(
		new(big.Int).SetUint64(deficit), uint(p.Mana.GenerationRateExponent),
	)
	need.Add(need, perSlot)
	need.Sub(need, big.NewInt(1))
	need.Quo(need, perSlot)
	if !need.IsUint64() {
		return ^uint64(0)
	}
	return need.Uint64()
}
