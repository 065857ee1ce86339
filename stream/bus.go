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
	"errors"
	"fmt"
	"sync"
)

// ErrBusClosed is returned by Receiver.Recv after the bus has been closed
// and the receiver has drained its remaining backlog.
var ErrBusClosed = errors.New("bus closed")

// ErrLagged reports that a receiver fell behind the ring and missed items.
// The receiver is snapped forward to the oldest retained item and may keep
// receiving.
type ErrLagged struct {
	Missed uint64
}

func (e *ErrLagged) Error() string {
	return fmt.Sprintf("lagged behind broadcast by %d items", e.Missed)
}

// Bus is a lossy multi-consumer broadcast with a fixed backlog. Send never
// blocks and never fails; a receiver that falls more than the backlog behind
// observes a lag error carrying the number of missed items.
type Bus[T any] struct {
	mu     sync.Mutex
	ring   []T
	head   uint64 // sequence number of the next item to be written
	closed bool
	wakeup chan struct{} // closed and replaced on every send
}

// NewBus creates a bus retaining the last capacity items.
func NewBus[T any](capacity int) *Bus[T] {
	if capacity <= 0 {
		panic("stream: bus capacity must be positive")
	}
	return &Bus[T]{
		ring:   make([]T, capacity),
		wakeup: make(chan struct{}),
	}
}

// Send publishes v to all current receivers. Having no receivers is not an
// error; the item is written to the ring either way, and receivers that
// subscribe later start after it.
func (b *Bus[T]) Send(v T) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.ring[b.head%uint64(len(b.ring))] = v
	b.head++
	wake := b.wakeup
	b.wakeup = make(chan struct{})
	b.mu.Unlock()
	close(wake)
}

// Close wakes all receivers; pending items can still be drained before
// Recv reports ErrBusClosed.
func (b *Bus[T]) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	wake := b.wakeup
	b.mu.Unlock()
	close(wake)
}

// Subscribe registers a receiver whose cursor starts at the next published
// item.
func (b *Bus[T]) Subscribe() *Receiver[T] {
	b.mu.Lock()
	defer b.mu.Unlock()
	return &Receiver[T]{bus: b, cursor: b.head}
}

// Receiver is one consumer cursor of a Bus.
type Receiver[T any] struct {
	bus    *Bus[T]
	cursor uint64
}

// Recv blocks until the next item is available, the bus closes, or ctx is
// done. When the cursor has been overwritten it returns *ErrLagged and snaps
// the cursor to the oldest retained item.
func (r *Receiver[T]) Recv(ctx context.Context) (T, error) {
	var zero T
	for {
		b := r.bus
		b.mu.Lock()
		if r.cursor < b.head {
			oldest := uint64(0)
			if b.head > uint64(len(b.ring)) {
				oldest = b.head - uint64(len(b.ring))
			}
			if r.cursor < oldest {
				missed := oldest - r.cursor
				r.cursor = oldest
				b.mu.Unlock()
				return zero, &ErrLagged{Missed: missed}
			}
			v := b.ring[r.cursor%uint64(len(b.ring))]
			r.cursor++
			b.mu.Unlock()
			return v, nil
		}
		if b.closed {
			b.mu.Unlock()
			return zero, ErrBusClosed
		}
		wake := b.wakeup
		b.mu.Unlock()

		select {
		case <-wake:
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}
}
