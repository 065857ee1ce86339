// Copyright 2024 The slotcast Authors
// This file is part of the slotcast library.
//
// The slotcast library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The slotcast library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the slotcast library. If not, see <http://www.gnu.org/licenses/>.

// Package stream contains the in-process event pipeline: the message model
// pushed by the embedded producer, the unbounded ingestion queue, the lossy
// fan-out bus and the broadcast loop that aligns messages to commitment
// levels.
package stream

import (
	"fmt"

	"github.com/btcsuite/btcutil/base58"
)

// CommitmentLevel describes how durable a slot is on the source chain.
// Levels are ordered: Processed < Confirmed < Finalized.
type CommitmentLevel int32

const (
	CommitmentProcessed CommitmentLevel = iota
	CommitmentConfirmed
	CommitmentFinalized
)

func (c CommitmentLevel) String() string {
	switch c {
	case CommitmentProcessed:
		return "processed"
	case CommitmentConfirmed:
		return "confirmed"
	case CommitmentFinalized:
		return "finalized"
	default:
		return fmt.Sprintf("unknown(%d)", int32(c))
	}
}

// IsValid reports whether c is one of the three defined levels.
func (c CommitmentLevel) IsValid() bool {
	return c >= CommitmentProcessed && c <= CommitmentFinalized
}

// Pubkey is a 32-byte account address.
type Pubkey [32]byte

// PubkeyFromBase58 parses the base58 text form of an address.
func PubkeyFromBase58(s string) (Pubkey, error) {
	var pk Pubkey
	raw := base58.Decode(s)
	if len(raw) != len(pk) {
		return pk, fmt.Errorf("invalid pubkey %q: decoded length %d", s, len(raw))
	}
	copy(pk[:], raw)
	return pk, nil
}

func (p Pubkey) String() string { return base58.Encode(p[:]) }

// Signature is a 64-byte transaction signature.
type Signature [64]byte

func (s Signature) String() string { return base58.Encode(s[:]) }

// AccountInfo is the full state of one account at a write version.
type AccountInfo struct {
	Pubkey       Pubkey
	Lamports     uint64
	Owner        Pubkey
	Executable   bool
	RentEpoch    uint64
	Data         []byte
	WriteVersion uint64
	TxnSignature *Signature
}

// Reward is a per-account payout attached to block metadata.
type Reward struct {
	Pubkey      string
	Lamports    int64
	PostBalance uint64
	RewardType  int32
	Commission  *uint8
}

// TransactionError is the failure recorded in execution meta, nil for
// successful transactions.
type TransactionError struct {
	Err string
}

// TransactionMeta carries the execution results of one transaction.
type TransactionMeta struct {
	Err          *TransactionError
	Fee          uint64
	PreBalances  []uint64
	PostBalances []uint64
	LogMessages  []string
}

// TransactionInfo is one executed transaction in canonical form together
// with its execution meta and position inside the block.
type TransactionInfo struct {
	Signature   Signature
	IsVote      bool
	AccountKeys []Pubkey
	Payload     []byte
	Meta        TransactionMeta
	Index       uint64
}

// Message is one state-change event pushed by the producer. The concrete
// types are MessageSlot, MessageAccount, MessageTransaction, MessageBlock
// and MessageBlockMeta; every one carries the slot it is anchored to.
type Message interface {
	GetSlot() uint64
}

// MessageSlot reports a slot reaching a commitment level.
type MessageSlot struct {
	Slot   uint64
	Parent *uint64
	Status CommitmentLevel
}

// MessageAccount reports one account write.
type MessageAccount struct {
	Account   AccountInfo
	Slot      uint64
	IsStartup bool
}

// MessageTransaction reports one executed transaction.
type MessageTransaction struct {
	Transaction TransactionInfo
	Slot        uint64
}

// MessageBlockMeta reports the metadata of a produced block.
type MessageBlockMeta struct {
	ParentSlot               uint64
	Slot                     uint64
	ParentBlockhash          string
	Blockhash                string
	Rewards                  []Reward
	BlockTime                *int64
	BlockHeight              *uint64
	ExecutedTransactionCount uint64
}

// MessageBlock is a reconstructed full block: metadata joined with the
// complete ordered transaction list. It is synthesized by the broadcast
// loop, never pushed by the producer.
type MessageBlock struct {
	ParentSlot      uint64
	Slot            uint64
	ParentBlockhash string
	Blockhash       string
	Rewards         []Reward
	BlockTime       *int64
	BlockHeight     *uint64
	Transactions    []TransactionInfo
}

func (m *MessageSlot) GetSlot() uint64        { return m.Slot }
func (m *MessageAccount) GetSlot() uint64     { return m.Slot }
func (m *MessageTransaction) GetSlot() uint64 { return m.Slot }
func (m *MessageBlockMeta) GetSlot() uint64   { return m.Slot }
func (m *MessageBlock) GetSlot() uint64       { return m.Slot }

// newBlock joins block metadata with its sorted transaction list.
func newBlock(meta *MessageBlockMeta, txs []TransactionInfo) *MessageBlock {
	return &MessageBlock{
		ParentSlot:      meta.ParentSlot,
		Slot:            meta.Slot,
		ParentBlockhash: meta.ParentBlockhash,
		Blockhash:       meta.Blockhash,
		Rewards:         meta.Rewards,
		BlockTime:       meta.BlockTime,
		BlockHeight:     meta.BlockHeight,
		Transactions:    txs,
	}
}

// Batch is an immutable commitment-tagged message group published on the
// fan-out bus. Subscribers share the backing slice and must not mutate it.
type Batch struct {
	Commitment CommitmentLevel
	Messages   []Message
}
