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

// Package server assembles the pipeline and exposes it over gRPC: the
// Subscribe stream plus the point queries backed by the block-meta cache.
package server

import (
	"context"
	"fmt"
	"net"
	"sync/atomic"
	"time"

	grpc_middleware "github.com/grpc-ecosystem/go-grpc-middleware"
	grpc_logrus "github.com/grpc-ecosystem/go-grpc-middleware/logging/logrus"
	grpc_recovery "github.com/grpc-ecosystem/go-grpc-middleware/recovery"
	grpc_ctxtags "github.com/grpc-ecosystem/go-grpc-middleware/tags"
	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	_ "google.golang.org/grpc/encoding/gzip" // register gzip compressor
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/status"

	"github.com/slotcast/slotcast/blockmeta"
	"github.com/slotcast/slotcast/config"
	"github.com/slotcast/slotcast/geyserpb"
	"github.com/slotcast/slotcast/metrics"
	"github.com/slotcast/slotcast/stream"
	"github.com/slotcast/slotcast/version"
)

const (
	tcpKeepAlive   = 20 * time.Second
	http2KeepAlive = 5 * time.Second
)

// Service implements geyserpb.GeyserServer on top of the pipeline.
type Service struct {
	cfg         config.GrpcConfig
	blocksMeta  *blockmeta.Storage
	bus         *stream.Bus[stream.Batch]
	subscribeID atomic.Uint64
}

// Server owns the full pipeline: ingestion queue, broadcast loop, block-meta
// cache and the gRPC listener.
type Server struct {
	service     *Service
	ingest      *stream.Queue[stream.Message]
	broadcaster *stream.Broadcaster
	grpcServer  *grpc.Server
	lis         net.Listener
}

// Create binds the address, starts the pipeline goroutines and serves the
// RPC surface in the background.
func Create(cfg *config.GrpcConfig) (*Server, error) {
	lc := net.ListenConfig{KeepAlive: tcpKeepAlive}
	lis, err := lc.Listen(context.Background(), "tcp", cfg.Address)
	if err != nil {
		return nil, fmt.Errorf("bind %s: %w", cfg.Address, err)
	}

	blocksMeta, metaQueue := blockmeta.New(cfg.RecentBlockhashes)
	bus := stream.NewBus[stream.Batch](cfg.ChannelCapacity)
	ingest := stream.NewQueue[stream.Message]()
	broadcaster := stream.NewBroadcaster(ingest, metaQueue, bus)

	service := &Service{
		cfg:        *cfg,
		blocksMeta: blocksMeta,
		bus:        bus,
	}

	entry := log.NewEntry(log.StandardLogger())
	grpcServer := grpc.NewServer(
		grpc.ForceServerCodec(geyserpb.Codec{}),
		grpc.KeepaliveParams(keepalive.ServerParameters{Time: http2KeepAlive}),
		grpc_middleware.WithUnaryServerChain(
			grpc_ctxtags.UnaryServerInterceptor(),
			grpc_logrus.UnaryServerInterceptor(entry),
			grpc_recovery.UnaryServerInterceptor(),
		),
		grpc_middleware.WithStreamServerChain(
			grpc_ctxtags.StreamServerInterceptor(),
			grpc_logrus.StreamServerInterceptor(entry),
			grpc_recovery.StreamServerInterceptor(),
		),
	)
	geyserpb.RegisterGeyserServer(grpcServer, service)

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus(geyserpb.ServiceName, healthpb.HealthCheckResponse_SERVING)

	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			log.WithError(err).Error("grpc server terminated")
		}
	}()
	log.WithField("address", lis.Addr()).Info("grpc server started")

	return &Server{
		service:     service,
		ingest:      ingest,
		broadcaster: broadcaster,
		grpcServer:  grpcServer,
		lis:         lis,
	}, nil
}

// Push hands one producer message to the pipeline. It never blocks; it
// reports false after Stop.
func (s *Server) Push(msg stream.Message) bool {
	if !s.ingest.Push(msg) {
		return false
	}
	metrics.MessageQueueSize.Inc()
	return true
}

// Addr returns the bound listener address.
func (s *Server) Addr() net.Addr { return s.lis.Addr() }

// Stop closes the ingestion queue, waits for the broadcast loop to drain and
// shuts the RPC surface down. In-flight sessions end through their normal
// closed-stream paths once the bus closes.
func (s *Server) Stop() {
	s.ingest.Close()
	<-s.broadcaster.Done()
	s.grpcServer.GracefulStop()
}

func parseCommitment(c *geyserpb.CommitmentLevel) (stream.CommitmentLevel, error) {
	if c == nil {
		return stream.CommitmentProcessed, nil
	}
	commitment := geyserpb.CommitmentToStream(*c)
	if !commitment.IsValid() {
		return 0, status.Errorf(codes.Unknown, "failed to create CommitmentLevel from %d", int32(*c))
	}
	return commitment, nil
}

// Ping echoes the request counter.
func (s *Service) Ping(_ context.Context, in *geyserpb.PingRequest) (*geyserpb.PongResponse, error) {
	return &geyserpb.PongResponse{Count: in.Count}, nil
}

func (s *Service) GetLatestBlockhash(_ context.Context, in *geyserpb.GetLatestBlockhashRequest) (*geyserpb.GetLatestBlockhashResponse, error) {
	commitment, err := parseCommitment(in.Commitment)
	if err != nil {
		return nil, err
	}
	return s.blocksMeta.LatestBlockhash(commitment)
}

func (s *Service) GetBlockHeight(_ context.Context, in *geyserpb.GetBlockHeightRequest) (*geyserpb.GetBlockHeightResponse, error) {
	commitment, err := parseCommitment(in.Commitment)
	if err != nil {
		return nil, err
	}
	return s.blocksMeta.BlockHeight(commitment)
}

func (s *Service) GetSlot(_ context.Context, in *geyserpb.GetSlotRequest) (*geyserpb.GetSlotResponse, error) {
	commitment, err := parseCommitment(in.Commitment)
	if err != nil {
		return nil, err
	}
	return s.blocksMeta.Slot(commitment)
}

func (s *Service) IsBlockhashValid(_ context.Context, in *geyserpb.IsBlockhashValidRequest) (*geyserpb.IsBlockhashValidResponse, error) {
	commitment, err := parseCommitment(in.Commitment)
	if err != nil {
		return nil, err
	}
	return s.blocksMeta.IsBlockhashValid(in.Blockhash, commitment)
}

func (s *Service) GetVersion(context.Context, *geyserpb.GetVersionRequest) (*geyserpb.GetVersionResponse, error) {
	return &geyserpb.GetVersionResponse{Version: version.JSON()}, nil
}
