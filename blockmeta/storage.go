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

// Package blockmeta caches recent block metadata and blockhash commitment
// flags, backing the point queries of the RPC surface.
package blockmeta

import (
	"sync"

	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/slotcast/slotcast/geyserpb"
	"github.com/slotcast/slotcast/stream"
)

const (
	// keepSlots is how many slots below the finalized tip the blocks map
	// retains.
	keepSlots = 3

	// DefaultMaxRecentBlockhashes is the chain constant bounding how long a
	// blockhash stays valid, in slots.
	DefaultMaxRecentBlockhashes = 300
)

// blockhashStatus tracks which commitment levels a blockhash has reached.
type blockhashStatus struct {
	slot      uint64
	processed bool
	confirmed bool
	finalized bool
}

// Storage is the block-meta cache: one writer goroutine applies messages
// from the feed queue, point-query readers share the lock.
type Storage struct {
	mu sync.RWMutex

	blocks      map[uint64]*stream.MessageBlockMeta
	blockhashes map[string]*blockhashStatus

	processed *uint64
	confirmed *uint64
	finalized *uint64

	maxRecentBlockhashes int
}

// New creates the cache and the queue feeding its writer goroutine. Only
// slot and block-meta messages are valid inputs; anything else is logged
// and skipped. recentBlockhashes of 0 selects the chain default.
func New(recentBlockhashes int) (*Storage, *stream.Queue[stream.Message]) {
	if recentBlockhashes <= 0 {
		recentBlockhashes = DefaultMaxRecentBlockhashes
	}
	s := &Storage{
		blocks:               make(map[uint64]*stream.MessageBlockMeta),
		blockhashes:          make(map[string]*blockhashStatus),
		maxRecentBlockhashes: recentBlockhashes,
	}
	queue := stream.NewQueue[stream.Message]()
	go func() {
		for msg := range queue.Out() {
			s.apply(msg)
		}
	}()
	return s, queue
}

func (s *Storage) apply(msg stream.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch m := msg.(type) {
	case *stream.MessageSlot:
		slot := m.Slot
		switch m.Status {
		case stream.CommitmentProcessed:
			s.processed = &slot
		case stream.CommitmentConfirmed:
			s.confirmed = &slot
		case stream.CommitmentFinalized:
			s.finalized = &slot
		}

		if block, ok := s.blocks[m.Slot]; ok {
			entry, ok := s.blockhashes[block.Blockhash]
			if !ok {
				entry = &blockhashStatus{slot: m.Slot}
				s.blockhashes[block.Blockhash] = entry
			}
			switch m.Status {
			case stream.CommitmentProcessed:
				entry.processed = true
			case stream.CommitmentConfirmed:
				entry.confirmed = true
			case stream.CommitmentFinalized:
				entry.finalized = true
			}
		}

		if m.Status == stream.CommitmentFinalized {
			var keep uint64
			if m.Slot > keepSlots {
				keep = m.Slot - keepSlots
			}
			for slot := range s.blocks {
				if slot < keep {
					delete(s.blocks, slot)
				}
			}

			window := uint64(s.maxRecentBlockhashes + 32)
			keep = 0
			if m.Slot > window {
				keep = m.Slot - window
			}
			for hash, entry := range s.blockhashes {
				if entry.slot < keep {
					delete(s.blockhashes, hash)
				}
			}
		}

	case *stream.MessageBlockMeta:
		s.blocks[m.Slot] = m

	default:
		log.Errorf("invalid message in block meta storage: %T", msg)
	}
}

// cursor returns the latest slot seen at the given commitment, nil before
// the first slot update of that level.
func (s *Storage) cursor(commitment stream.CommitmentLevel) *uint64 {
	switch commitment {
	case stream.CommitmentConfirmed:
		return s.confirmed
	case stream.CommitmentFinalized:
		return s.finalized
	default:
		return s.processed
	}
}

// getBlock resolves the cached metadata at the commitment cursor.
func (s *Storage) getBlock(commitment stream.CommitmentLevel) (*stream.MessageBlockMeta, error) {
	slot := s.cursor(commitment)
	if slot == nil {
		return nil, status.Error(codes.Internal, "startup")
	}
	block, ok := s.blocks[*slot]
	if !ok {
		return nil, status.Error(codes.Internal, "block is not available yet")
	}
	return block, nil
}

// LatestBlockhash reports the blockhash at the commitment cursor together
// with its last valid block height.
func (s *Storage) LatestBlockhash(commitment stream.CommitmentLevel) (*geyserpb.GetLatestBlockhashResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	block, err := s.getBlock(commitment)
	if err != nil {
		return nil, err
	}
	if block.BlockHeight == nil {
		return nil, status.Error(codes.Internal, "failed to build response")
	}
	return &geyserpb.GetLatestBlockhashResponse{
		Slot:                 block.Slot,
		Blockhash:            block.Blockhash,
		LastValidBlockHeight: *block.BlockHeight,
	}, nil
}

// BlockHeight reports the block height at the commitment cursor.
func (s *Storage) BlockHeight(commitment stream.CommitmentLevel) (*geyserpb.GetBlockHeightResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	block, err := s.getBlock(commitment)
	if err != nil {
		return nil, err
	}
	if block.BlockHeight == nil {
		return nil, status.Error(codes.Internal, "failed to build response")
	}
	return &geyserpb.GetBlockHeightResponse{BlockHeight: *block.BlockHeight}, nil
}

// Slot reports the cursor slot for the commitment.
func (s *Storage) Slot(commitment stream.CommitmentLevel) (*geyserpb.GetSlotResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	block, err := s.getBlock(commitment)
	if err != nil {
		return nil, err
	}
	return &geyserpb.GetSlotResponse{Slot: block.Slot}, nil
}

// IsBlockhashValid reports whether the blockhash has reached the commitment
// level. Until the registry holds a full validity window of hashes the
// answer would produce false negatives, so the call fails with "startup".
func (s *Storage) IsBlockhashValid(blockhash string, commitment stream.CommitmentLevel) (*geyserpb.IsBlockhashValidResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.blockhashes) < s.maxRecentBlockhashes+32 {
		return nil, status.Error(codes.Internal, "startup")
	}

	slot := s.cursor(commitment)
	if slot == nil {
		return nil, status.Error(codes.Internal, "startup")
	}

	valid := false
	if entry, ok := s.blockhashes[blockhash]; ok {
		switch commitment {
		case stream.CommitmentConfirmed:
			valid = entry.confirmed
		case stream.CommitmentFinalized:
			valid = entry.finalized
		default:
			valid = entry.processed
		}
	}
	return &geyserpb.IsBlockhashValidResponse{Valid: valid, Slot: *slot}, nil
}
