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

// Package metrics holds the prometheus collectors of the event pipeline and
// an optional HTTP exporter.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/slotcast/slotcast/version"
)

var (
	// MessageQueueSize tracks the current depth of the ingestion queue.
	// Producers increment on push, the broadcast loop decrements on receive.
	MessageQueueSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "slotcast_message_queue_size",
		Help: "Number of messages buffered in the ingestion queue",
	})

	// ConnectionsTotal tracks currently attached subscriber sessions.
	ConnectionsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "slotcast_connections_total",
		Help: "Number of active subscriber connections",
	})

	// InvalidFullBlocks counts slots finalized with a block-meta whose
	// executed transaction count never matched the collected transactions.
	InvalidFullBlocks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "slotcast_invalid_full_blocks_total",
		Help: "Total number of fully finalized slots with an incomplete block aggregate",
	})

	versionInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "slotcast_version",
		Help: "Version information of the running service",
	}, []string{"version"})
)

func init() {
	versionInfo.WithLabelValues(version.Version).Set(1)
}

// Serve exposes the default registry on addr until the server fails or the
// returned shutdown func is called. A nil error from the server after
// shutdown is reported as http.ErrServerClosed by ListenAndServe.
func Serve(addr string) (shutdown func(), errc <-chan error) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errs := make(chan error, 1)
	go func() {
		errs <- srv.ListenAndServe()
	}()
	return func() { _ = srv.Close() }, errs
}
