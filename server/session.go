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
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/slotcast/slotcast/config"
	"github.com/slotcast/slotcast/filters"
	"github.com/slotcast/slotcast/geyserpb"
	"github.com/slotcast/slotcast/metrics"
	"github.com/slotcast/slotcast/stream"
)

// heartbeatPeriod is how often a ping update is injected into idle streams
// to detect half-open connections.
const heartbeatPeriod = 10 * time.Second

// session is one subscriber connection. Three sibling goroutines share it:
// the dispatch loop consuming the fan-out bus, the reader loop compiling
// inbound filter updates, and the heartbeat loop. The handler goroutine
// drains out onto the wire.
type session struct {
	id uint64
	st geyserpb.Geyser_SubscribeServer

	// out holds rendered updates awaiting transmission; writers only ever
	// try-send, a full queue kills the session.
	out     chan *geyserpb.SubscribeUpdate
	control *stream.Queue[*filters.Filter]

	exit atomic.Bool
	done chan struct{}

	termOnce sync.Once
	termErr  error
}

// terminate records the status delivered to the client after the queued
// updates drain. Only the first call wins.
func (c *session) terminate(err error) {
	c.termOnce.Do(func() { c.termErr = err })
}

// Subscribe implements the bidirectional stream: it starts the sibling
// tasks and pumps the outbound queue onto the wire until the session ends.
func (s *Service) Subscribe(st geyserpb.Geyser_SubscribeServer) error {
	// The initial filter matches nothing; the client installs its real
	// filter with the first inbound message.
	empty, err := filters.New(&geyserpb.SubscribeRequest{}, &s.cfg.Filters)
	if err != nil {
		return status.Errorf(codes.Internal, "failed to create empty filter: %v", err)
	}

	c := &session{
		id:      s.subscribeID.Add(1) - 1,
		st:      st,
		out:     make(chan *geyserpb.SubscribeUpdate, s.cfg.ChannelCapacity),
		control: stream.NewQueue[*filters.Filter](),
		done:    make(chan struct{}),
	}
	defer func() {
		c.exit.Store(true)
		c.control.Close()
		for range c.control.Out() {
		}
	}()

	go c.dispatchLoop(empty, s.bus.Subscribe())
	go c.readerLoop(&s.cfg.Filters)
	go c.heartbeatLoop()

	for {
		select {
		case update := <-c.out:
			if err := st.Send(update); err != nil {
				return err
			}
		case <-c.done:
			// Deliver what was queued ahead of the terminal status.
			for {
				select {
				case update := <-c.out:
					if err := st.Send(update); err != nil {
						return err
					}
				default:
					return c.termErr
				}
			}
		}
	}
}

type busResult struct {
	batch stream.Batch
	err   error
}

// dispatchLoop applies the current filter to every batch of the session's
// commitment stream and try-sends the resulting updates.
func (c *session) dispatchLoop(filter *filters.Filter, rx *stream.Receiver[stream.Batch]) {
	metrics.ConnectionsTotal.Inc()
	clientLog := log.WithField("client", c.id)
	clientLog.Info("new subscriber")
	defer func() {
		clientLog.Info("subscriber removed")
		metrics.ConnectionsTotal.Dec()
		c.exit.Store(true)
		close(c.done)
	}()

	ctx := c.st.Context()
	results := make(chan busResult)
	go func() {
		for {
			batch, err := rx.Recv(ctx)
			select {
			case results <- busResult{batch: batch, err: err}:
			case <-ctx.Done():
				return
			}
			if err != nil {
				return
			}
		}
	}()

	for {
		select {
		case next := <-c.control.Out():
			if next == nil {
				return
			}
			filter = next
			clientLog.Info("filter updated")

		case r := <-results:
			if r.err != nil {
				var lagged *stream.ErrLagged
				if errors.As(r.err, &lagged) {
					clientLog.WithField("missed", lagged.Missed).Error("lagged to receive messages")
					c.terminate(status.Error(codes.Internal, "lagged"))
				}
				return
			}
			if r.batch.Commitment != filter.CommitmentLevel() {
				continue
			}
			for _, msg := range r.batch.Messages {
				update := filter.Update(msg)
				if update == nil {
					continue
				}
				select {
				case c.out <- update:
				default:
					clientLog.Error("lagged to send update")
					c.terminate(status.Error(codes.Internal, "lagged"))
					return
				}
			}

		case <-ctx.Done():
			return
		}
	}
}

// readerLoop consumes inbound filter updates. A compile failure becomes the
// terminal status of the session; EOF ends the session cleanly.
func (c *session) readerLoop(limits *config.FilterLimits) {
	for !c.exit.Load() {
		req, err := c.st.Recv()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				log.WithField("client", c.id).WithError(err).Debug("inbound stream closed")
			}
			c.control.Push(nil)
			return
		}
		filter, err := filters.New(req, limits)
		if err != nil {
			c.terminate(status.Errorf(codes.InvalidArgument, "failed to create filter: %v", err))
			c.control.Push(nil)
			return
		}
		c.control.Push(filter)
	}
}

// heartbeatLoop injects a ping every heartbeatPeriod so half-open TCP
// connections are detected. The wait is cancellable through the stream
// context, so the loop does not outlive the session.
func (c *session) heartbeatLoop() {
	ctx := c.st.Context()
	for !c.exit.Load() {
		select {
		case <-time.After(heartbeatPeriod):
		case <-ctx.Done():
			c.control.Push(nil)
			return
		}
		select {
		case c.out <- geyserpb.PingUpdate():
		default:
		}
	}
}
