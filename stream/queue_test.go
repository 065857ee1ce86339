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
	"sync"
	"testing"
	"time"
)

func TestQueueFIFO(t *testing.T) {
	q := NewQueue[int]()
	for i := 0; i < 100; i++ {
		if !q.Push(i) {
			t.Fatalf("push %d rejected", i)
		}
	}
	q.Close()
	var got []int
	for v := range q.Out() {
		got = append(got, v)
	}
	if len(got) != 100 {
		t.Fatalf("received %d items, want 100", len(got))
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("item %d: got %d", i, v)
		}
	}
}

func TestQueuePushNeverBlocks(t *testing.T) {
	q := NewQueue[int]()
	done := make(chan struct{})
	go func() {
		defer close(done)
		// No consumer is draining; all pushes must still return.
		for i := 0; i < 10000; i++ {
			q.Push(i)
		}
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("push blocked without a consumer")
	}
	q.Close()
	n := 0
	for range q.Out() {
		n++
	}
	if n != 10000 {
		t.Fatalf("drained %d items, want 10000", n)
	}
}

func TestQueuePushAfterClose(t *testing.T) {
	q := NewQueue[int]()
	q.Close()
	if q.Push(1) {
		t.Fatal("push accepted after close")
	}
	if _, ok := <-q.Out(); ok {
		t.Fatal("received item from closed empty queue")
	}
}

func TestQueueConcurrentProducers(t *testing.T) {
	q := NewQueue[int]()
	var wg sync.WaitGroup
	const producers, perProducer = 8, 500
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				q.Push(i)
			}
		}()
	}
	wg.Wait()
	q.Close()
	n := 0
	for range q.Out() {
		n++
	}
	if n != producers*perProducer {
		t.Fatalf("drained %d items, want %d", n, producers*perProducer)
	}
}
