// Lectern - Learning Platform Content Protection and Security Audit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package seclog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/lectern/internal/logging"
)

// Key layout. Primary keys sort chronologically because the timestamp is
// zero padded: seclog/<unix-nano>/<id>. The ID index maps an ID back to its
// primary key.
const (
	recordKeyPrefix = "seclog/"
	idKeyPrefix     = "seclog-id/"
	tsWidth         = 20
)

// BadgerStore implements Store on BadgerDB.
type BadgerStore struct {
	db   *badger.DB
	owns bool
}

// BadgerOptions configures OpenBadgerStore.
type BadgerOptions struct {
	Path       string
	InMemory   bool
	SyncWrites bool
}

// OpenBadgerStore opens a database and returns a store that closes it on
// Close.
func OpenBadgerStore(o BadgerOptions) (*BadgerStore, error) {
	opts := badger.DefaultOptions(o.Path)
	if o.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.SyncWrites = o.SyncWrites
	opts.Logger = nil // Suppress BadgerDB logs

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db for security log: %w", err)
	}
	return &BadgerStore{db: db, owns: true}, nil
}

// NewBadgerStore wraps an existing database. Close leaves db open.
func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

func recordKey(ts time.Time, id string) []byte {
	return []byte(fmt.Sprintf("%s%0*d/%s", recordKeyPrefix, tsWidth, ts.UnixNano(), id))
}

// parseRecordKey extracts the timestamp and ID from a primary key.
func parseRecordKey(key []byte) (time.Time, string, bool) {
	rest := bytes.TrimPrefix(key, []byte(recordKeyPrefix))
	if len(rest) < tsWidth+2 || rest[tsWidth] != '/' {
		return time.Time{}, "", false
	}
	nanos, err := strconv.ParseInt(string(rest[:tsWidth]), 10, 64)
	if err != nil {
		return time.Time{}, "", false
	}
	return time.Unix(0, nanos).UTC(), string(rest[tsWidth+1:]), true
}

// Save appends a record and its ID index entry in one transaction.
func (s *BadgerStore) Save(ctx context.Context, rec *Record) error {
	if rec == nil {
		return fmt.Errorf("record cannot be nil")
	}
	if rec.ID == "" {
		return fmt.Errorf("record ID is required")
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	key := recordKey(rec.Timestamp, rec.ID)
	return s.db.Update(func(txn *badger.Txn) error {
		idKey := []byte(idKeyPrefix + rec.ID)
		if _, err := txn.Get(idKey); err == nil {
			return fmt.Errorf("record %s already exists", rec.ID)
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("check record id: %w", err)
		}

		if err := txn.Set(key, data); err != nil {
			return fmt.Errorf("set record: %w", err)
		}
		if err := txn.Set(idKey, key); err != nil {
			return fmt.Errorf("set id index: %w", err)
		}
		return nil
	})
}

// Get retrieves a record by ID.
func (s *BadgerStore) Get(ctx context.Context, id string) (*Record, error) {
	var rec Record
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(idKeyPrefix + id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get id index: %w", err)
		}
		key, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}

		item, err = txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get record: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// scan visits matching records newest first until fn returns false.
// Records outside the filter's time window are skipped using the key alone.
func (s *BadgerStore) scan(ctx context.Context, filter Filter, fn func(*Record) bool) error {
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = []byte(recordKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		seek := append([]byte(recordKeyPrefix), 0xFF)
		if filter.End != nil {
			seek = append([]byte(fmt.Sprintf("%s%0*d/", recordKeyPrefix, tsWidth, filter.End.UnixNano())), 0xFF)
		}

		for it.Seek(seek); it.ValidForPrefix(opts.Prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			ts, _, ok := parseRecordKey(item.Key())
			if !ok {
				continue
			}
			if filter.Start != nil && ts.Before(*filter.Start) {
				return nil
			}

			var rec Record
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				logging.Warn().Err(err).Str("key", string(item.Key())).Msg("Failed to decode security log record")
				continue
			}
			if !filter.matches(&rec) {
				continue
			}
			if !fn(&rec) {
				return nil
			}
		}
		return nil
	})
}

// Query returns matching records, newest first.
func (s *BadgerStore) Query(ctx context.Context, filter Filter) ([]Record, error) {
	p := newPage(filter)
	if err := s.scan(ctx, filter, func(rec *Record) bool {
		return p.add(*rec)
	}); err != nil {
		return nil, fmt.Errorf("query security log: %w", err)
	}
	return p.out, nil
}

// Count returns the number of matching records.
func (s *BadgerStore) Count(ctx context.Context, filter Filter) (int64, error) {
	var count int64
	if err := s.scan(ctx, filter, func(*Record) bool {
		count++
		return true
	}); err != nil {
		return 0, fmt.Errorf("count security log: %w", err)
	}
	return count, nil
}

// Stats computes the monitoring aggregate.
func (s *BadgerStore) Stats(ctx context.Context, now time.Time) (*Stats, error) {
	acc := newStatsAccumulator(now)
	if err := s.scan(ctx, Filter{}, func(rec *Record) bool {
		acc.add(rec)
		return true
	}); err != nil {
		return nil, fmt.Errorf("security log stats: %w", err)
	}
	return acc.result(), nil
}

// Summary groups matching records by action.
func (s *BadgerStore) Summary(ctx context.Context, filter Filter) ([]ActionCount, error) {
	acc := summaryAccumulator{}
	if err := s.scan(ctx, filter, func(rec *Record) bool {
		acc.add(rec)
		return true
	}); err != nil {
		return nil, fmt.Errorf("security log summary: %w", err)
	}
	return acc.result(), nil
}

// Prune removes records older than olderThan along with their index entries.
func (s *BadgerStore) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	var keys [][]byte
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(recordKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.ValidForPrefix(opts.Prefix); it.Next() {
			key := it.Item().KeyCopy(nil)
			ts, _, ok := parseRecordKey(key)
			if !ok {
				continue
			}
			if !ts.Before(olderThan) {
				break
			}
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("scan expired records: %w", err)
	}
	if len(keys) == 0 {
		return 0, nil
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for _, key := range keys {
		_, id, _ := parseRecordKey(key)
		if err := wb.Delete(key); err != nil {
			return 0, fmt.Errorf("delete record: %w", err)
		}
		if err := wb.Delete([]byte(idKeyPrefix + id)); err != nil {
			return 0, fmt.Errorf("delete id index: %w", err)
		}
	}
	if err := wb.Flush(); err != nil {
		return 0, fmt.Errorf("flush deletes: %w", err)
	}

	logging.Info().Int("deleted", len(keys)).Time("older_than", olderThan).Msg("Pruned security log records")
	return int64(len(keys)), nil
}

// RunGC reclaims value log space after pruning.
func (s *BadgerStore) RunGC() error {
	for {
		err := s.db.RunValueLogGC(0.5)
		if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrGCInMemoryMode) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("run GC: %w", err)
		}
	}
}

// Backend implements Store.
func (s *BadgerStore) Backend() string { return "badger" }

// Close closes the database when the store opened it.
func (s *BadgerStore) Close() error {
	if !s.owns {
		return nil
	}
	return s.db.Close()
}
