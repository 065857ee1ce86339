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

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
grpc:
  address: "127.0.0.1:10000"
`))
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:10000", cfg.Grpc.Address)
	require.Equal(t, DefaultChannelCapacity, cfg.Grpc.ChannelCapacity)
	require.Equal(t, "info", cfg.Log.Level)
}

func TestLoadFull(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
log:
  level: debug
  file: /tmp/slotcast.log
grpc:
  address: "0.0.0.0:10000"
  channel_capacity: 1024
  recent_blockhashes: 150
  filters:
    accounts:
      max: 2
      account_max: 10
    transactions:
      max: 1
      reject_any: true
prometheus:
  address: "127.0.0.1:8999"
`))
	require.NoError(t, err)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, 1024, cfg.Grpc.ChannelCapacity)
	require.Equal(t, 150, cfg.Grpc.RecentBlockhashes)
	require.Equal(t, 2, cfg.Grpc.Filters.Accounts.Max)
	require.Equal(t, 10, cfg.Grpc.Filters.Accounts.AccountMax)
	require.True(t, cfg.Grpc.Filters.Transactions.RejectAny)
	require.Equal(t, "127.0.0.1:8999", cfg.Prometheus.Address)
}

func TestLoadMissingAddress(t *testing.T) {
	_, err := Load(writeConfig(t, `
grpc:
  channel_capacity: 10
`))
	require.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	require.Error(t, err)
}

func TestLoadMalformed(t *testing.T) {
	_, err := Load(writeConfig(t, `grpc: [`))
	require.Error(t, err)
}
