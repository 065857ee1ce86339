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

package geyserpb

import (
	"github.com/slotcast/slotcast/stream"
)

// CommitmentFromStream converts the pipeline commitment to its wire enum.
func CommitmentFromStream(c stream.CommitmentLevel) CommitmentLevel {
	return CommitmentLevel(c)
}

// CommitmentToStream converts the wire enum to the pipeline commitment.
func CommitmentToStream(c CommitmentLevel) stream.CommitmentLevel {
	return stream.CommitmentLevel(c)
}

// UpdateFromMessage renders msg as a SubscribeUpdate attributed to the given
// matched filter names. Account data is reduced to dataSlices when non-empty.
func UpdateFromMessage(filters []string, msg stream.Message, dataSlices []*SubscribeRequestAccountsDataSlice) *SubscribeUpdate {
	update := &SubscribeUpdate{Filters: filters}
	switch m := msg.(type) {
	case *stream.MessageSlot:
		update.Slot = &SubscribeUpdateSlot{
			Slot:   m.Slot,
			Parent: m.Parent,
			Status: CommitmentFromStream(m.Status),
		}
	case *stream.MessageAccount:
		update.Account = &SubscribeUpdateAccount{
			Account:   accountInfo(&m.Account, dataSlices),
			Slot:      m.Slot,
			IsStartup: m.IsStartup,
		}
	case *stream.MessageTransaction:
		update.Transaction = &SubscribeUpdateTransaction{
			Transaction: transactionInfo(&m.Transaction),
			Slot:        m.Slot,
		}
	case *stream.MessageBlock:
		txs := make([]*SubscribeUpdateTransactionInfo, 0, len(m.Transactions))
		for i := range m.Transactions {
			txs = append(txs, transactionInfo(&m.Transactions[i]))
		}
		update.Block = &SubscribeUpdateBlock{
			Slot:            m.Slot,
			Blockhash:       m.Blockhash,
			Rewards:         rewards(m.Rewards),
			BlockTime:       m.BlockTime,
			BlockHeight:     m.BlockHeight,
			ParentSlot:      m.ParentSlot,
			ParentBlockhash: m.ParentBlockhash,
			Transactions:    txs,
		}
	case *stream.MessageBlockMeta:
		update.BlockMeta = &SubscribeUpdateBlockMeta{
			Slot:                     m.Slot,
			Blockhash:                m.Blockhash,
			Rewards:                  rewards(m.Rewards),
			BlockTime:                m.BlockTime,
			BlockHeight:              m.BlockHeight,
			ParentSlot:               m.ParentSlot,
			ParentBlockhash:          m.ParentBlockhash,
			ExecutedTransactionCount: m.ExecutedTransactionCount,
		}
	default:
		return nil
	}
	return update
}

// PingUpdate is the periodic heartbeat item.
func PingUpdate() *SubscribeUpdate {
	return &SubscribeUpdate{Filters: []string{}, Ping: &SubscribeUpdatePing{}}
}

func accountInfo(acc *stream.AccountInfo, dataSlices []*SubscribeRequestAccountsDataSlice) *SubscribeUpdateAccountInfo {
	data := acc.Data
	if len(dataSlices) > 0 {
		var total uint64
		for _, ds := range dataSlices {
			total += ds.Length
		}
		data = make([]byte, 0, total)
		for _, ds := range dataSlices {
			end := ds.Offset + ds.Length
			if uint64(len(acc.Data)) >= end {
				data = append(data, acc.Data[ds.Offset:end]...)
			}
		}
	}
	info := &SubscribeUpdateAccountInfo{
		Pubkey:       acc.Pubkey[:],
		Lamports:     acc.Lamports,
		Owner:        acc.Owner[:],
		Executable:   acc.Executable,
		RentEpoch:    acc.RentEpoch,
		Data:         data,
		WriteVersion: acc.WriteVersion,
	}
	if acc.TxnSignature != nil {
		info.TxnSignature = acc.TxnSignature[:]
	}
	return info
}

func transactionInfo(tx *stream.TransactionInfo) *SubscribeUpdateTransactionInfo {
	meta := &TransactionStatusMeta{
		Fee:          tx.Meta.Fee,
		PreBalances:  tx.Meta.PreBalances,
		PostBalances: tx.Meta.PostBalances,
		LogMessages:  tx.Meta.LogMessages,
	}
	if tx.Meta.Err != nil {
		meta.Err = &TransactionError{Err: tx.Meta.Err.Err}
	}
	return &SubscribeUpdateTransactionInfo{
		Signature:   tx.Signature[:],
		IsVote:      tx.IsVote,
		Transaction: tx.Payload,
		Meta:        meta,
		Index:       tx.Index,
	}
}

func rewards(in []stream.Reward) []*Reward {
	if len(in) == 0 {
		return nil
	}
	out := make([]*Reward, 0, len(in))
	for i := range in {
		out = append(out, &Reward{
			Pubkey:      in[i].Pubkey,
			Lamports:    in[i].Lamports,
			PostBalance: in[i].PostBalance,
			RewardType:  in[i].RewardType,
			Commission:  in[i].Commission,
		})
	}
	return out
}
