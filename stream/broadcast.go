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

package stream

import (
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/slotcast/slotcast/metrics"
)

const (
	// processedBatchMax is the number of non-slot messages buffered before a
	// Processed batch is forced out.
	processedBatchMax = 31

	// processedBatchWait flushes a partial Processed batch when no slot
	// message arrives to do it first.
	processedBatchWait = 10 * time.Millisecond
)

// slotAggregate collects the pieces needed to reconstruct a full block:
// the block metadata and the transactions seen so far for one slot.
type slotAggregate struct {
	meta         *MessageBlockMeta
	transactions []TransactionInfo
}

// accountIndex remembers where the current winner for a pubkey sits in the
// per-slot message list and at which write version.
type accountIndex struct {
	writeVersion uint64
	index        int
}

// slotMessages is the per-slot replay arena: an append-only list where
// superseded account writes are tombstoned (nil) in place, plus the pubkey
// index used for write-version deduplication.
type slotMessages struct {
	list     []Message
	accounts map[Pubkey]accountIndex
}

// live returns the non-tombstoned messages in insertion order. The result
// has one spare slot so the caller can append the closing slot message
// without reallocating.
func (s *slotMessages) live() []Message {
	out := make([]Message, 0, len(s.list)+1)
	for _, msg := range s.list {
		if msg != nil {
			out = append(out, msg)
		}
	}
	return out
}

// Broadcaster is the single task that consumes the ingestion queue,
// reconstructs full blocks, deduplicates account writes within a slot and
// publishes commitment-tagged batches to the fan-out bus. All of its state
// is owned by the run goroutine; there is no locking.
type Broadcaster struct {
	in   *Queue[Message]
	meta *Queue[Message]
	bus  *Bus[Batch]
	done chan struct{}
}

// NewBroadcaster starts the broadcast loop. It runs until the ingestion
// queue is closed and drained, then closes the block-meta queue and the bus.
func NewBroadcaster(in, meta *Queue[Message], bus *Bus[Batch]) *Broadcaster {
	b := &Broadcaster{
		in:   in,
		meta: meta,
		bus:  bus,
		done: make(chan struct{}),
	}
	go b.run()
	return b
}

// Done is closed once the loop has terminated.
func (b *Broadcaster) Done() <-chan struct{} { return b.done }

func (b *Broadcaster) run() {
	defer close(b.done)
	defer b.bus.Close()
	defer b.meta.Close()

	// Pending full-block aggregates, keyed by slot.
	txAgg := make(map[uint64]*slotAggregate)
	// Per-slot replay arenas for Confirmed/Finalized payloads.
	perSlot := make(map[uint64]*slotMessages)
	// Messages awaiting batched publication at Processed commitment.
	batch := make([]Message, 0, processedBatchMax)

	timer := time.NewTimer(processedBatchWait)
	defer timer.Stop()

	resetTimer := func() {
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(processedBatchWait)
	}

	flushProcessed := func() {
		b.bus.Send(Batch{Commitment: CommitmentProcessed, Messages: batch})
		batch = make([]Message, 0, processedBatchMax)
		resetTimer()
	}

	var processMessage func(msg Message)
	processMessage = func(msg Message) {
		slot, isSlot := msg.(*MessageSlot)
		if isSlot {
			var confirmed, finalized []Message
			switch slot.Status {
			case CommitmentConfirmed:
				// Replay the surviving messages without consuming them; the
				// arena stays available for the Finalized replay.
				if entry, ok := perSlot[slot.Slot]; ok {
					confirmed = entry.live()
				}
			case CommitmentFinalized:
				for s := range perSlot {
					if s < slot.Slot {
						delete(perSlot, s)
					}
				}
				if entry, ok := perSlot[slot.Slot]; ok {
					delete(perSlot, slot.Slot)
					finalized = entry.live()
				}
			}

			// Every slot message is observable on all three commitment
			// channels; only the payload around it differs.
			batch = append(batch, msg)
			flushProcessed()

			confirmed = append(confirmed, msg)
			b.bus.Send(Batch{Commitment: CommitmentConfirmed, Messages: confirmed})

			finalized = append(finalized, msg)
			b.bus.Send(Batch{Commitment: CommitmentFinalized, Messages: finalized})
			return
		}

		batch = append(batch, msg)
		if len(batch) >= processedBatchMax {
			flushProcessed()
		}

		entry, ok := perSlot[msg.GetSlot()]
		if !ok {
			entry = &slotMessages{accounts: make(map[Pubkey]accountIndex)}
			perSlot[msg.GetSlot()] = entry
		}
		if acc, isAccount := msg.(*MessageAccount); isAccount {
			writeVersion := acc.Account.WriteVersion
			if prev, seen := entry.accounts[acc.Account.Pubkey]; seen {
				if prev.writeVersion < writeVersion {
					// Tombstone instead of replacing in place, keeping the
					// surviving write at its post-replacement position.
					entry.list[prev.index] = nil
					entry.accounts[acc.Account.Pubkey] = accountIndex{writeVersion: writeVersion, index: len(entry.list)}
					entry.list = append(entry.list, msg)
				}
			} else {
				entry.accounts[acc.Account.Pubkey] = accountIndex{writeVersion: writeVersion, index: len(entry.list)}
				entry.list = append(entry.list, msg)
			}
		} else {
			entry.list = append(entry.list, msg)
		}
	}

	for {
		select {
		case msg, ok := <-b.in.Out():
			if !ok {
				return
			}
			metrics.MessageQueueSize.Dec()

			switch msg.(type) {
			case *MessageSlot, *MessageBlockMeta:
				b.meta.Push(msg)
			}

			// Collect the pieces of the full block for this slot.
			slot := msg.GetSlot()
			collected := false
			switch m := msg.(type) {
			case *MessageTransaction:
				agg := txAgg[slot]
				if agg == nil {
					agg = &slotAggregate{}
					txAgg[slot] = agg
				}
				agg.transactions = append(agg.transactions, m.Transaction)
				collected = true
			case *MessageBlockMeta:
				agg := txAgg[slot]
				if agg == nil {
					agg = &slotAggregate{}
					txAgg[slot] = agg
				}
				agg.meta = m
				collected = true
			}
			if agg := txAgg[slot]; collected && agg.meta != nil &&
				agg.meta.ExecutedTransactionCount == uint64(len(agg.transactions)) {
				delete(txAgg, slot)
				txs := agg.transactions
				slices.SortFunc(txs, func(a, b TransactionInfo) int {
					switch {
					case a.Index < b.Index:
						return -1
					case a.Index > b.Index:
						return 1
					default:
						return 0
					}
				})
				processMessage(newBlock(agg.meta, txs))
			}

			// A finalized slot obsoletes every aggregate at or below it; an
			// aggregate at the finalized slot that still holds metadata means
			// the transaction count never matched.
			if m, isSlot := msg.(*MessageSlot); isSlot && m.Status == CommitmentFinalized {
				keys := maps.Keys(txAgg)
				slices.Sort(keys)
				for _, k := range keys {
					if k > m.Slot {
						break
					}
					agg := txAgg[k]
					delete(txAgg, k)
					if k == m.Slot && agg.meta != nil {
						metrics.InvalidFullBlocks.Inc()
						log.Errorf("%d transactions left for block %d", len(agg.transactions), k)
					}
				}
			}

			processMessage(msg)

		case <-timer.C:
			if len(batch) > 0 {
				b.bus.Send(Batch{Commitment: CommitmentProcessed, Messages: batch})
				batch = make([]Message, 0, processedBatchMax)
			}
			timer.Reset(processedBatchWait)
		}
	}
}
