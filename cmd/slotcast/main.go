// Copyright 2024 The slotcast Authors
// This file is part of slotcast.
//
// slotcast is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// slotcast is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with slotcast. If not, see <http://www.gnu.org/licenses/>.

// slotcast serves the Geyser RPC surface of an embedded producer. The
// producer links the server package and pushes messages directly; this
// binary runs the surface standalone.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	_ "go.uber.org/automaxprocs"
	"golang.org/x/sync/errgroup"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/slotcast/slotcast/config"
	"github.com/slotcast/slotcast/metrics"
	"github.com/slotcast/slotcast/server"
	"github.com/slotcast/slotcast/version"
)

func main() {
	app := &cli.App{
		Name:    "slotcast",
		Usage:   "streaming fan-out service for chain state events",
		Version: version.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "config",
				Aliases:  []string{"c"},
				Usage:    "path to the YAML configuration file",
				Required: true,
			},
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx *cli.Context) error {
	cfg, err := config.Load(ctx.String("config"))
	if err != nil {
		return err
	}
	setupLogging(cfg.Log)

	srv, err := server.Create(&cfg.Grpc)
	if err != nil {
		return err
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(sigCtx)
	if cfg.Prometheus.Address != "" {
		shutdown, errc := metrics.Serve(cfg.Prometheus.Address)
		log.WithField("address", cfg.Prometheus.Address).Info("prometheus exporter started")
		g.Go(func() error {
			select {
			case err := <-errc:
				return fmt.Errorf("prometheus exporter: %w", err)
			case <-gctx.Done():
				shutdown()
				return nil
			}
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		srv.Stop()
		return nil
	})
	return g.Wait()
}

func setupLogging(cfg config.LogConfig) {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	if cfg.File != "" {
		log.SetOutput(&lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
		})
	}
}
