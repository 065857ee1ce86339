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

// Package config loads and validates the service configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultChannelCapacity bounds the fan-out backlog and the per-subscriber
// outbound queue when the config leaves it unset.
const DefaultChannelCapacity = 250_000

// Config is the root of the YAML configuration file.
type Config struct {
	Log        LogConfig        `yaml:"log"`
	Grpc       GrpcConfig       `yaml:"grpc"`
	Prometheus PrometheusConfig `yaml:"prometheus"`
}

// LogConfig selects level and optional rotated file output.
type LogConfig struct {
	Level string `yaml:"level"`
	// File enables rotated file logging when non-empty.
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

// GrpcConfig configures the RPC surface and the pipeline capacities.
type GrpcConfig struct {
	Address         string `yaml:"address"`
	ChannelCapacity int    `yaml:"channel_capacity"`
	// RecentBlockhashes overrides the chain constant used for the blockhash
	// validity window; 0 keeps the default of 300.
	RecentBlockhashes int          `yaml:"recent_blockhashes"`
	Filters           FilterLimits `yaml:"filters"`
}

// PrometheusConfig enables the metrics exporter when Address is non-empty.
type PrometheusConfig struct {
	Address string `yaml:"address"`
}

// FilterLimits caps what a single subscribe request may install. Zero
// values mean unlimited.
type FilterLimits struct {
	Accounts     AccountsLimits     `yaml:"accounts"`
	Slots        SlotsLimits        `yaml:"slots"`
	Transactions TransactionsLimits `yaml:"transactions"`
	Blocks       BlocksLimits       `yaml:"blocks"`
	BlocksMeta   BlocksMetaLimits   `yaml:"blocks_meta"`
}

// AccountsLimits bounds account filters. Reject lists name base58 keys that
// may never be used as criteria; RejectAny forbids criteria-less (match-all)
// filters, which are allowed by default.
type AccountsLimits struct {
	Max           int      `yaml:"max"`
	RejectAny     bool     `yaml:"reject_any"`
	AccountMax    int      `yaml:"account_max"`
	AccountReject []string `yaml:"account_reject"`
	OwnerMax      int      `yaml:"owner_max"`
	OwnerReject   []string `yaml:"owner_reject"`
}

type SlotsLimits struct {
	Max int `yaml:"max"`
}

// TransactionsLimits bounds transaction filters.
type TransactionsLimits struct {
	Max               int  `yaml:"max"`
	RejectAny         bool `yaml:"reject_any"`
	AccountIncludeMax int  `yaml:"account_include_max"`
	AccountExcludeMax int  `yaml:"account_exclude_max"`
}

type BlocksLimits struct {
	Max int `yaml:"max"`
}

type BlocksMetaLimits struct {
	Max int `yaml:"max"`
}

// Load reads, parses and validates the file at path.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := new(Config)
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.setDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) setDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Grpc.ChannelCapacity == 0 {
		c.Grpc.ChannelCapacity = DefaultChannelCapacity
	}
}

// Validate reports the first configuration error.
func (c *Config) Validate() error {
	if c.Grpc.Address == "" {
		return fmt.Errorf("grpc.address is required")
	}
	if c.Grpc.ChannelCapacity < 0 {
		return fmt.Errorf("grpc.channel_capacity must be positive")
	}
	if c.Grpc.RecentBlockhashes < 0 {
		return fmt.Errorf("grpc.recent_blockhashes must not be negative")
	}
	return nil
}
