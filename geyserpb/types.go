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

// Package geyserpb defines the wire messages and the hand-maintained service
// descriptor of the Geyser RPC surface. Messages travel through the JSON
// codec registered in codec.go.
package geyserpb

// CommitmentLevel mirrors the commitment enum on the wire.
type CommitmentLevel int32

const (
	CommitmentLevel_PROCESSED CommitmentLevel = 0
	CommitmentLevel_CONFIRMED CommitmentLevel = 1
	CommitmentLevel_FINALIZED CommitmentLevel = 2
)

// SubscribeRequest installs or replaces the session filter. All fields are
// optional; an absent commitment means processed.
type SubscribeRequest struct {
	Accounts          map[string]*SubscribeRequestFilterAccounts     `json:"accounts,omitempty"`
	Slots             map[string]*SubscribeRequestFilterSlots        `json:"slots,omitempty"`
	Transactions      map[string]*SubscribeRequestFilterTransactions `json:"transactions,omitempty"`
	Blocks            map[string]*SubscribeRequestFilterBlocks       `json:"blocks,omitempty"`
	BlocksMeta        map[string]*SubscribeRequestFilterBlocksMeta   `json:"blocks_meta,omitempty"`
	Commitment        *CommitmentLevel                               `json:"commitment,omitempty"`
	AccountsDataSlice []*SubscribeRequestAccountsDataSlice           `json:"accounts_data_slice,omitempty"`
}

// SubscribeRequestFilterAccounts selects account updates by address and/or
// owner, both in base58. Empty criteria match every account.
type SubscribeRequestFilterAccounts struct {
	Account []string `json:"account,omitempty"`
	Owner   []string `json:"owner,omitempty"`
}

// SubscribeRequestFilterSlots subscribes to slot status updates.
type SubscribeRequestFilterSlots struct{}

// SubscribeRequestFilterTransactions selects transactions. Nil tri-states
// leave the dimension unconstrained.
type SubscribeRequestFilterTransactions struct {
	Vote           *bool    `json:"vote,omitempty"`
	Failed         *bool    `json:"failed,omitempty"`
	Signature      *string  `json:"signature,omitempty"`
	AccountInclude []string `json:"account_include,omitempty"`
	AccountExclude []string `json:"account_exclude,omitempty"`
}

// SubscribeRequestFilterBlocks subscribes to reconstructed full blocks.
type SubscribeRequestFilterBlocks struct{}

// SubscribeRequestFilterBlocksMeta subscribes to block metadata updates.
type SubscribeRequestFilterBlocksMeta struct{}

// SubscribeRequestAccountsDataSlice extracts data[offset:offset+length] on
// the wire instead of the full account data.
type SubscribeRequestAccountsDataSlice struct {
	Offset uint64 `json:"offset"`
	Length uint64 `json:"length"`
}

// SubscribeUpdate is a tagged union: exactly one of the update fields is set.
// Filters lists the names of the client filters the update matched.
type SubscribeUpdate struct {
	Filters     []string                    `json:"filters"`
	Slot        *SubscribeUpdateSlot        `json:"slot,omitempty"`
	Account     *SubscribeUpdateAccount     `json:"account,omitempty"`
	Transaction *SubscribeUpdateTransaction `json:"transaction,omitempty"`
	Block       *SubscribeUpdateBlock       `json:"block,omitempty"`
	BlockMeta   *SubscribeUpdateBlockMeta   `json:"block_meta,omitempty"`
	Ping        *SubscribeUpdatePing        `json:"ping,omitempty"`
}

type SubscribeUpdateSlot struct {
	Slot   uint64          `json:"slot"`
	Parent *uint64         `json:"parent,omitempty"`
	Status CommitmentLevel `json:"status"`
}

type SubscribeUpdateAccount struct {
	Account   *SubscribeUpdateAccountInfo `json:"account"`
	Slot      uint64                      `json:"slot"`
	IsStartup bool                        `json:"is_startup"`
}

type SubscribeUpdateAccountInfo struct {
	Pubkey       []byte `json:"pubkey"`
	Lamports     uint64 `json:"lamports"`
	Owner        []byte `json:"owner"`
	Executable   bool   `json:"executable"`
	RentEpoch    uint64 `json:"rent_epoch"`
	Data         []byte `json:"data"`
	WriteVersion uint64 `json:"write_version"`
	TxnSignature []byte `json:"txn_signature,omitempty"`
}

type SubscribeUpdateTransaction struct {
	Transaction *SubscribeUpdateTransactionInfo `json:"transaction"`
	Slot        uint64                          `json:"slot"`
}

type SubscribeUpdateTransactionInfo struct {
	Signature   []byte                 `json:"signature"`
	IsVote      bool                   `json:"is_vote"`
	Transaction []byte                 `json:"transaction"`
	Meta        *TransactionStatusMeta `json:"meta,omitempty"`
	Index       uint64                 `json:"index"`
}

type TransactionStatusMeta struct {
	Err          *TransactionError `json:"err,omitempty"`
	Fee          uint64            `json:"fee"`
	PreBalances  []uint64          `json:"pre_balances,omitempty"`
	PostBalances []uint64          `json:"post_balances,omitempty"`
	LogMessages  []string          `json:"log_messages,omitempty"`
}

type TransactionError struct {
	Err string `json:"err"`
}

type SubscribeUpdateBlock struct {
	Slot            uint64                            `json:"slot"`
	Blockhash       string                            `json:"blockhash"`
	Rewards         []*Reward                         `json:"rewards,omitempty"`
	BlockTime       *int64                            `json:"block_time,omitempty"`
	BlockHeight     *uint64                           `json:"block_height,omitempty"`
	ParentSlot      uint64                            `json:"parent_slot"`
	ParentBlockhash string                            `json:"parent_blockhash"`
	Transactions    []*SubscribeUpdateTransactionInfo `json:"transactions,omitempty"`
}

type SubscribeUpdateBlockMeta struct {
	Slot                     uint64    `json:"slot"`
	Blockhash                string    `json:"blockhash"`
	Rewards                  []*Reward `json:"rewards,omitempty"`
	BlockTime                *int64    `json:"block_time,omitempty"`
	BlockHeight              *uint64   `json:"block_height,omitempty"`
	ParentSlot               uint64    `json:"parent_slot"`
	ParentBlockhash          string    `json:"parent_blockhash"`
	ExecutedTransactionCount uint64    `json:"executed_transaction_count"`
}

type SubscribeUpdatePing struct{}

type Reward struct {
	Pubkey      string `json:"pubkey"`
	Lamports    int64  `json:"lamports"`
	PostBalance uint64 `json:"post_balance"`
	RewardType  int32  `json:"reward_type"`
	Commission  *uint8 `json:"commission,omitempty"`
}

type PingRequest struct {
	Count int32 `json:"count"`
}

type PongResponse struct {
	Count int32 `json:"count"`
}

type GetLatestBlockhashRequest struct {
	Commitment *CommitmentLevel `json:"commitment,omitempty"`
}

type GetLatestBlockhashResponse struct {
	Slot                 uint64 `json:"slot"`
	Blockhash            string `json:"blockhash"`
	LastValidBlockHeight uint64 `json:"last_valid_block_height"`
}

type GetBlockHeightRequest struct {
	Commitment *CommitmentLevel `json:"commitment,omitempty"`
}

type GetBlockHeightResponse struct {
	BlockHeight uint64 `json:"block_height"`
}

type GetSlotRequest struct {
	Commitment *CommitmentLevel `json:"commitment,omitempty"`
}

type GetSlotResponse struct {
	Slot uint64 `json:"slot"`
}

type IsBlockhashValidRequest struct {
	Blockhash  string           `json:"blockhash"`
	Commitment *CommitmentLevel `json:"commitment,omitempty"`
}

type IsBlockhashValidResponse struct {
	Valid bool   `json:"valid"`
	Slot  uint64 `json:"slot"`
}

type GetVersionRequest struct{}

type GetVersionResponse struct {
	Version string `json:"version"`
}
