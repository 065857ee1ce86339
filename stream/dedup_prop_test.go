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
	"context"
	"testing"
	"time"

	"pgregory.net/rapid"
)

// TestDedupProperty checks that for any write sequence within one slot, the
// confirmed replay keeps exactly one account message per pubkey: the first
// one carrying the highest write version seen.
func TestDedupProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		const slot = 42
		numWrites := rapid.IntRange(1, 40).Draw(rt, "writes").(int)

		type write struct {
			pk byte
			wv uint64
		}
		writes := make([]write, 0, numWrites)
		for i := 0; i < numWrites; i++ {
			writes = append(writes, write{
				pk: byte(rapid.IntRange(0, 4).Draw(rt, "pk").(int)),
				wv: uint64(rapid.IntRange(0, 9).Draw(rt, "wv").(int)),
			})
		}

		in := NewQueue[Message]()
		meta := NewQueue[Message]()
		go func() {
			for range meta.Out() {
			}
		}()
		bus := NewBus[Batch](64)
		rx := bus.Subscribe()
		b := NewBroadcaster(in, meta, bus)
		defer func() {
			in.Close()
			<-b.Done()
		}()

		for i, w := range writes {
			in.Push(accountMsg(slot, w.pk, w.wv, byte(i)))
		}
		in.Push(slotMsg(slot, CommitmentConfirmed))

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		var confirmed *Batch
		for confirmed == nil {
			batch, err := rx.Recv(ctx)
			if err != nil {
				rt.Fatalf("recv: %v", err)
			}
			if batch.Commitment == CommitmentConfirmed {
				confirmed = &batch
			}
		}

		// The expected winner per pubkey: highest write version, first wins
		// ties.
		winner := make(map[byte]uint64)
		for _, w := range writes {
			if best, ok := winner[w.pk]; !ok || w.wv > best {
				winner[w.pk] = w.wv
			}
		}

		seen := make(map[byte]bool)
		for _, msg := range confirmed.Messages[:len(confirmed.Messages)-1] {
			acc, ok := msg.(*MessageAccount)
			if !ok {
				rt.Fatalf("unexpected message type %T", msg)
			}
			pk := acc.Account.Pubkey[0]
			if seen[pk] {
				rt.Fatalf("pubkey %d appears twice in confirmed batch", pk)
			}
			seen[pk] = true
			if acc.Account.WriteVersion != winner[pk] {
				rt.Fatalf("pubkey %d survived with write version %d, want %d",
					pk, acc.Account.WriteVersion, winner[pk])
			}
		}
		if len(seen) != len(winner) {
			rt.Fatalf("confirmed batch has %d accounts, want %d", len(seen), len(winner))
		}
	})
}
