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

package server

import (
	"context"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/slotcast/slotcast/config"
	"github.com/slotcast/slotcast/geyserpb"
	"github.com/slotcast/slotcast/stream"
)

// fakeSubscribeStream drives a session without a transport. Send can be
// slowed down to simulate a congested client.
type fakeSubscribeStream struct {
	grpc.ServerStream
	ctx       context.Context
	inbound   chan *geyserpb.SubscribeRequest
	sent      chan *geyserpb.SubscribeUpdate
	sendDelay time.Duration
	sends     atomic.Int64
}

func newFakeStream(ctx context.Context) *fakeSubscribeStream {
	return &fakeSubscribeStream{
		ctx:     ctx,
		inbound: make(chan *geyserpb.SubscribeRequest),
		sent:    make(chan *geyserpb.SubscribeUpdate, 1024),
	}
}

func (f *fakeSubscribeStream) Context() context.Context { return f.ctx }

func (f *fakeSubscribeStream) Send(update *geyserpb.SubscribeUpdate) error {
	if f.sendDelay > 0 {
		time.Sleep(f.sendDelay)
	}
	f.sends.Add(1)
	select {
	case f.sent <- update:
		return nil
	case <-f.ctx.Done():
		return f.ctx.Err()
	}
}

func (f *fakeSubscribeStream) Recv() (*geyserpb.SubscribeRequest, error) {
	select {
	case req, ok := <-f.inbound:
		if !ok {
			return nil, io.EOF
		}
		return req, nil
	case <-f.ctx.Done():
		return nil, f.ctx.Err()
	}
}

func newTestService(outboundCapacity int) *Service {
	return &Service{
		cfg: config.GrpcConfig{ChannelCapacity: outboundCapacity},
		bus: stream.NewBus[stream.Batch](64),
	}
}

func allAccountsRequest() *geyserpb.SubscribeRequest {
	return &geyserpb.SubscribeRequest{
		Accounts: map[string]*geyserpb.SubscribeRequestFilterAccounts{"all": {}},
	}
}

func accountBatch(n int) stream.Batch {
	msgs := make([]stream.Message, 0, n)
	for i := 0; i < n; i++ {
		var pubkey stream.Pubkey
		pubkey[0] = byte(i)
		msgs = append(msgs, &stream.MessageAccount{
			Slot:    uint64(100 + i),
			Account: stream.AccountInfo{Pubkey: pubkey, WriteVersion: 1},
		})
	}
	return stream.Batch{Commitment: stream.CommitmentProcessed, Messages: msgs}
}

func TestSessionLagKill(t *testing.T) {
	svc := newTestService(1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	fake := newFakeStream(ctx)
	fake.sendDelay = 50 * time.Millisecond

	errc := make(chan error, 1)
	go func() { errc <- svc.Subscribe(fake) }()

	fake.inbound <- allAccountsRequest()
	time.Sleep(100 * time.Millisecond)

	// With outbound capacity 1 and a slow client, the dispatcher cannot
	// enqueue the whole flood; the session must die with a lagged status.
	svc.bus.Send(accountBatch(100))

	select {
	case err := <-errc:
		st, ok := status.FromError(err)
		require.True(t, ok)
		require.Equal(t, codes.Internal, st.Code())
		require.Equal(t, "lagged", st.Message())
	case <-time.After(5 * time.Second):
		t.Fatal("session did not terminate")
	}
	require.LessOrEqual(t, fake.sends.Load(), int64(2), "no further updates after the kill")
}

func TestSessionInvalidFilter(t *testing.T) {
	svc := newTestService(16)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	fake := newFakeStream(ctx)

	errc := make(chan error, 1)
	go func() { errc <- svc.Subscribe(fake) }()

	fake.inbound <- &geyserpb.SubscribeRequest{
		Accounts: map[string]*geyserpb.SubscribeRequestFilterAccounts{
			"bad": {Account: []string{"!!"}},
		},
	}

	select {
	case err := <-errc:
		st, ok := status.FromError(err)
		require.True(t, ok)
		require.Equal(t, codes.InvalidArgument, st.Code())
		require.Contains(t, st.Message(), "failed to create filter")
	case <-time.After(5 * time.Second):
		t.Fatal("session did not terminate")
	}
}

func TestSessionInboundEOF(t *testing.T) {
	svc := newTestService(16)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	fake := newFakeStream(ctx)

	errc := make(chan error, 1)
	go func() { errc <- svc.Subscribe(fake) }()

	close(fake.inbound)

	select {
	case err := <-errc:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("session did not terminate on EOF")
	}
}

func TestSessionFilterHotSwap(t *testing.T) {
	svc := newTestService(16)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	fake := newFakeStream(ctx)

	errc := make(chan error, 1)
	go func() { errc <- svc.Subscribe(fake) }()

	// The initial empty filter drops everything.
	svc.bus.Send(accountBatch(1))

	fake.inbound <- &geyserpb.SubscribeRequest{
		Slots: map[string]*geyserpb.SubscribeRequestFilterSlots{"slots": {}},
	}
	time.Sleep(100 * time.Millisecond)
	svc.bus.Send(stream.Batch{
		Commitment: stream.CommitmentProcessed,
		Messages:   []stream.Message{&stream.MessageSlot{Slot: 1}},
	})

	select {
	case update := <-fake.sent:
		require.NotNil(t, update.Slot)
		require.Equal(t, uint64(1), update.Slot.Slot)
	case <-time.After(5 * time.Second):
		t.Fatal("no update for the installed filter")
	}

	// Swap to accounts; slot updates must stop matching.
	fake.inbound <- allAccountsRequest()
	time.Sleep(100 * time.Millisecond)
	svc.bus.Send(stream.Batch{
		Commitment: stream.CommitmentProcessed,
		Messages:   []stream.Message{&stream.MessageSlot{Slot: 2}},
	})
	svc.bus.Send(accountBatch(1))

	select {
	case update := <-fake.sent:
		require.Nil(t, update.Slot)
		require.NotNil(t, update.Account)
	case <-time.After(5 * time.Second):
		t.Fatal("no update after filter swap")
	}

	close(fake.inbound)
	require.NoError(t, <-errc)
}

func TestSessionIgnoresOtherCommitments(t *testing.T) {
	svc := newTestService(16)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	fake := newFakeStream(ctx)

	errc := make(chan error, 1)
	go func() { errc <- svc.Subscribe(fake) }()

	commitment := geyserpb.CommitmentLevel_CONFIRMED
	fake.inbound <- &geyserpb.SubscribeRequest{
		Slots:      map[string]*geyserpb.SubscribeRequestFilterSlots{"slots": {}},
		Commitment: &commitment,
	}
	time.Sleep(100 * time.Millisecond)

	svc.bus.Send(stream.Batch{
		Commitment: stream.CommitmentProcessed,
		Messages:   []stream.Message{&stream.MessageSlot{Slot: 1}},
	})
	svc.bus.Send(stream.Batch{
		Commitment: stream.CommitmentConfirmed,
		Messages:   []stream.Message{&stream.MessageSlot{Slot: 2}},
	})

	select {
	case update := <-fake.sent:
		require.NotNil(t, update.Slot)
		require.Equal(t, uint64(2), update.Slot.Slot)
	case <-time.After(5 * time.Second):
		t.Fatal("no update on the confirmed stream")
	}

	close(fake.inbound)
	require.NoError(t, <-errc)
}

func TestSessionBusClosed(t *testing.T) {
	svc := newTestService(16)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	fake := newFakeStream(ctx)

	errc := make(chan error, 1)
	go func() { errc <- svc.Subscribe(fake) }()

	time.Sleep(50 * time.Millisecond)
	svc.bus.Close()

	select {
	case err := <-errc:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("session did not terminate on bus close")
	}
}
