// Lectern - Learning Platform Content Protection and Security Audit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package main

import (
	"context"
	"fmt"

	"github.com/tomtom215/lectern/internal/config"
	"github.com/tomtom215/lectern/internal/logging"
	"github.com/tomtom215/lectern/internal/seclog"
)

// openStore opens the security log store selected by cfg.Backend.
func openStore(ctx context.Context, cfg config.StorageConfig) (seclog.Store, error) {
	switch cfg.Backend {
	case config.StorageMemory:
		store := seclog.NewMemoryStore(cfg.MemoryMaxRecords)
		logging.Warn().
			Int("max_records", store.Capacity()).
			Msg("Memory security log evicts the oldest records when full and loses all of them on restart; it is not an audit trail")
		return store, nil
	case config.StorageBadger:
		store, err := seclog.OpenBadgerStore(seclog.BadgerOptions{
			Path:       cfg.Path,
			SyncWrites: cfg.SyncWrites,
		})
		if err != nil {
			return nil, fmt.Errorf("open badger store at %s: %w", cfg.Path, err)
		}
		return store, nil
	case config.StorageDuckDB:
		store, err := seclog.OpenDuckDBStore(ctx, seclog.DuckDBOptions{
			Path:      cfg.Path,
			Threads:   cfg.DuckDBThreads,
			MaxMemory: cfg.DuckDBMaxMemory,
		})
		if err != nil {
			return nil, fmt.Errorf("open duckdb store at %s: %w", cfg.Path, err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
