package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/a3tai/pdf-sign-server/internal/audit/migrations"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteStore implements Store on a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the ledger database at path and
// migrates its schema. path can be ":memory:" for tests.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}

	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate audit schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// OpenConnection opens and configures a SQLite connection for the ledger.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite serializes writers anyway, and a single connection keeps
	// ":memory:" databases from fragmenting across the pool.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return db, nil
}

// Close releases the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Save inserts the record as one atomic row, assigning a UUID identity if
// the record carries none.
func (s *SQLiteStore) Save(ctx context.Context, rec *Record) (*Record, error) {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}

	fieldsJSON, err := json.Marshal(rec.Fields)
	if err != nil {
		return nil, fmt.Errorf("failed to encode field list: %w", err)
	}

	const q = `INSERT INTO audit_records
		(id, pdf_id, original_hash, signed_hash, fields, ip_address, user_agent,
		 total_fields, has_signature, page_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = s.db.ExecContext(ctx, q,
		rec.ID, rec.PDFID, rec.OriginalHash, rec.SignedHash, string(fieldsJSON),
		rec.IPAddress, rec.UserAgent,
		rec.Metadata.TotalFields, rec.Metadata.HasSignature, rec.Metadata.PageCount,
		rec.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("failed to insert audit record: %w", err)
	}
	return rec, nil
}

// FindByID returns the record with the given identity or ErrNotFound.
func (s *SQLiteStore) FindByID(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+" WHERE id = ?", id)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load audit record %s: %w", id, err)
	}
	return rec, nil
}

// FindByHash returns records whose original or signed hash matches, most
// recent first.
func (s *SQLiteStore) FindByHash(ctx context.Context, hash string) ([]*Record, error) {
	rows, err := s.db.QueryContext(ctx,
		selectColumns+" WHERE original_hash = ? OR signed_hash = ? ORDER BY created_at DESC",
		hash, hash)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit records by hash: %w", err)
	}
	defer rows.Close()

	return collectRecords(rows)
}

// FindRecent returns up to limit records, most recent first.
func (s *SQLiteStore) FindRecent(ctx context.Context, limit int) ([]*Record, error) {
	rows, err := s.db.QueryContext(ctx,
		selectColumns+" ORDER BY created_at DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent audit records: %w", err)
	}
	defer rows.Close()

	return collectRecords(rows)
}

const selectColumns = `SELECT id, pdf_id, original_hash, signed_hash, fields,
	ip_address, user_agent, total_fields, has_signature, page_count, created_at
	FROM audit_records`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var rec Record
	var fieldsJSON string

	err := row.Scan(&rec.ID, &rec.PDFID, &rec.OriginalHash, &rec.SignedHash,
		&fieldsJSON, &rec.IPAddress, &rec.UserAgent,
		&rec.Metadata.TotalFields, &rec.Metadata.HasSignature, &rec.Metadata.PageCount,
		&rec.Timestamp)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(fieldsJSON), &rec.Fields); err != nil {
		return nil, fmt.Errorf("failed to decode field list: %w", err)
	}
	return &rec, nil
}

func collectRecords(rows *sql.Rows) ([]*Record, error) {
	var recs []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit record: %w", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate audit records: %w", err)
	}
	return recs, nil
}
