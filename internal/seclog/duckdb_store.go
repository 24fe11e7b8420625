// Lectern - Learning Platform Content Protection and Security Audit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lectern

package seclog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/goccy/go-json"

	"github.com/tomtom215/lectern/internal/actions"
	"github.com/tomtom215/lectern/internal/logging"
)

// DuckDBStore implements Store on DuckDB. Filtering and aggregation run in SQL.
type DuckDBStore struct {
	db   *sql.DB
	owns bool
}

// DuckDBOptions configures OpenDuckDBStore.
type DuckDBOptions struct {
	Path      string
	Threads   int
	MaxMemory string
}

// OpenDuckDBStore opens (or creates) a database file, ensures the schema and
// returns a store that closes the database on Close.
func OpenDuckDBStore(ctx context.Context, o DuckDBOptions) (*DuckDBStore, error) {
	threads := o.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	maxMemory := o.MaxMemory
	if maxMemory == "" {
		maxMemory = "1GB"
	}

	if dir := filepath.Dir(o.Path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
		}
	}

	// Extension auto-loading is disabled so startup never waits on the network.
	connStr := fmt.Sprintf("%s?access_mode=read_write&threads=%d&max_memory=%s&autoinstall_known_extensions=false&autoload_known_extensions=false",
		o.Path, threads, maxMemory)
	db, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &DuckDBStore{db: db, owns: true}
	if err := s.CreateTable(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewDuckDBStore wraps an existing connection. The caller must call
// CreateTable before use, and Close leaves db open.
func NewDuckDBStore(db *sql.DB) *DuckDBStore {
	return &DuckDBStore{db: db}
}

// CreateTable creates the security_logs table and its indexes if missing.
func (s *DuckDBStore) CreateTable(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS security_logs (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			user_name TEXT,
			user_email TEXT,
			action TEXT NOT NULL,
			page TEXT NOT NULL,
			details TEXT,
			timestamp TIMESTAMP NOT NULL,
			user_agent TEXT,
			ip TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_security_logs_timestamp ON security_logs(timestamp);
		CREATE INDEX IF NOT EXISTS idx_security_logs_action ON security_logs(action);
		CREATE INDEX IF NOT EXISTS idx_security_logs_user_id ON security_logs(user_id);
	`

	for _, stmt := range strings.Split(query, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}

	logging.Info().Msg("Security log table created/verified")
	return nil
}

// Save inserts a record.
func (s *DuckDBStore) Save(ctx context.Context, rec *Record) error {
	if rec == nil {
		return fmt.Errorf("record cannot be nil")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO security_logs (
			id, user_id, user_name, user_email, action, page, details, timestamp, user_agent, ip
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.UserID,
		rec.UserName,
		rec.UserEmail,
		string(rec.Action),
		rec.Page,
		marshalDetails(rec.Details),
		rec.Timestamp.UTC(),
		rec.UserAgent,
		rec.IP,
	)
	if err != nil {
		return fmt.Errorf("failed to save security log record: %w", err)
	}
	return nil
}

// marshalDetails returns the JSON text for the details column, or nil.
func marshalDetails(details map[string]any) *string {
	if len(details) == 0 {
		return nil
	}
	data, err := json.Marshal(details)
	if err != nil {
		logging.Debug().Err(err).Msg("Dropping unmarshalable security log details")
		return nil
	}
	s := string(data)
	return &s
}

const selectColumns = `
	SELECT id, user_id, user_name, user_email, action, page, details, timestamp, user_agent, ip
	FROM security_logs`

// Get retrieves a record by ID.
func (s *DuckDBStore) Get(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+" WHERE id = ?", id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get security log record: %w", err)
	}
	return rec, nil
}

// Query returns matching records, newest first.
func (s *DuckDBStore) Query(ctx context.Context, filter Filter) ([]Record, error) {
	conditions, args := buildFilterConditions(filter)
	query := selectColumns + whereClause(conditions) + appendOrderAndLimit(filter)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query security log: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			logging.Warn().Err(err).Msg("Failed to scan security log row")
			continue
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating security log: %w", err)
	}
	return records, nil
}

// Count returns the number of matching records.
func (s *DuckDBStore) Count(ctx context.Context, filter Filter) (int64, error) {
	conditions, args := buildFilterConditions(filter)

	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM security_logs"+whereClause(conditions), args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count security log: %w", err)
	}
	return count, nil
}

// Stats computes the monitoring aggregate in one pass.
func (s *DuckDBStore) Stats(ctx context.Context, now time.Time) (*Stats, error) {
	var stats Stats
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COUNT(DISTINCT NULLIF(user_id, '')),
			COUNT(*) FILTER (WHERE timestamp >= ?)
		FROM security_logs`,
		now.Add(-lastHour).UTC(),
	).Scan(&stats.TotalAttempts, &stats.UniqueUsers, &stats.LastHourAttempts)
	if err != nil {
		return nil, fmt.Errorf("failed to compute security log stats: %w", err)
	}
	return &stats, nil
}

// Summary groups matching records by action.
func (s *DuckDBStore) Summary(ctx context.Context, filter Filter) ([]ActionCount, error) {
	conditions, args := buildFilterConditions(filter)
	query := "SELECT action, COUNT(*) AS n FROM security_logs" + whereClause(conditions) +
		" GROUP BY action ORDER BY n DESC, action ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get action counts: %w", err)
	}
	defer rows.Close()

	out := []ActionCount{}
	for rows.Next() {
		var action string
		var count int64
		if err := rows.Scan(&action, &count); err != nil {
			return nil, fmt.Errorf("failed to scan action count: %w", err)
		}
		out = append(out, ActionCount{Action: actions.Action(action), Count: count})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating action counts: %w", err)
	}
	return out, nil
}

// Prune removes records older than olderThan.
func (s *DuckDBStore) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, "DELETE FROM security_logs WHERE timestamp < ?", olderThan.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to prune security log: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get deleted count: %w", err)
	}
	if count > 0 {
		logging.Info().Int64("deleted", count).Time("older_than", olderThan).Msg("Pruned security log records")
	}
	return count, nil
}

// Backend implements Store.
func (s *DuckDBStore) Backend() string { return "duckdb" }

// Close closes the connection when the store opened it.
func (s *DuckDBStore) Close() error {
	if !s.owns {
		return nil
	}
	return s.db.Close()
}

// buildFilterConditions builds WHERE conditions from a Filter.
func buildFilterConditions(filter Filter) ([]string, []interface{}) {
	var conditions []string
	var args []interface{}

	conditions, args = appendStringCondition(conditions, args, "action", string(filter.Action))
	conditions, args = appendStringCondition(conditions, args, "user_id", filter.UserID)

	if filter.Start != nil {
		conditions = append(conditions, "timestamp >= ?")
		args = append(args, filter.Start.UTC())
	}
	if filter.End != nil {
		conditions = append(conditions, "timestamp <= ?")
		args = append(args, filter.End.UTC())
	}
	return conditions, args
}

// appendStringCondition adds an equality condition if value is non-empty.
func appendStringCondition(conditions []string, args []interface{}, column, value string) ([]string, []interface{}) {
	if value != "" {
		conditions = append(conditions, column+" = ?")
		args = append(args, value)
	}
	return conditions, args
}

func whereClause(conditions []string) string {
	if len(conditions) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conditions, " AND ")
}

// appendOrderAndLimit returns the newest-first ordering with paging.
func appendOrderAndLimit(filter Filter) string {
	clause := fmt.Sprintf(" ORDER BY timestamp DESC, id DESC LIMIT %d", filter.EffectiveLimit())
	if filter.Offset > 0 {
		clause += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}
	return clause
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanRecord scans one row produced by selectColumns.
func scanRecord(row rowScanner) (*Record, error) {
	var (
		rec                       Record
		action                    string
		userName, userEmail       sql.NullString
		details, userAgent, ipStr sql.NullString
	)
	if err := row.Scan(&rec.ID, &rec.UserID, &userName, &userEmail, &action, &rec.Page,
		&details, &rec.Timestamp, &userAgent, &ipStr); err != nil {
		return nil, err
	}

	rec.Action = actions.Action(action)
	rec.UserName = userName.String
	rec.UserEmail = userEmail.String
	rec.UserAgent = userAgent.String
	rec.IP = ipStr.String
	rec.Timestamp = rec.Timestamp.UTC()
	if details.Valid && details.String != "" {
		if err := json.Unmarshal([]byte(details.String), &rec.Details); err != nil {
			logging.Debug().Err(err).Str("id", rec.ID).Msg("Failed to parse security log details")
		}
	}
	return &rec, nil
}
