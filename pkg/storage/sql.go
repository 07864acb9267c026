// Copyright FAL Driver Test Authors
// SPDX-License-Identifier: Apache-2.0

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

func init() {
	Catalogs.Register("sql", func(ctx context.Context, params map[string]string) (Catalog, error) {
		return OpenSQLCatalog(ctx, params["driver"], params["dsn"])
	}, "dsn")
}

// compile-time check
var _ Catalog = (*SQLCatalog)(nil)

// SQLCatalog reads storage records from the sys_file_storage table of a
// SQLite ("sqlite") or PostgreSQL ("pgx") database. The configuration
// column holds a JSON object of string values.
type SQLCatalog struct {
	db       *sql.DB
	postgres bool
}

// OpenSQLCatalog connects to the database. driverName is "sqlite" or "pgx".
func OpenSQLCatalog(ctx context.Context, driverName, dsn string) (*SQLCatalog, error) {
	if dsn == "" {
		return nil, fmt.Errorf("sql catalog: dsn is required")
	}
	if driverName == "" {
		driverName = "sqlite"
	}
	if driverName != "sqlite" && driverName != "pgx" {
		return nil, fmt.Errorf("sql catalog: unsupported driver %q (want sqlite or pgx)", driverName)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("%s open: %w", driverName, err)
	}
	if driverName == "sqlite" {
		// every connection to ":memory:" is a separate database
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s ping: %w", driverName, err)
	}
	return &SQLCatalog{db: db, postgres: driverName == "pgx"}, nil
}

// EnsureSchema creates the sys_file_storage table if it does not exist.
func (c *SQLCatalog) EnsureSchema(ctx context.Context) error {
	stmt := `CREATE TABLE IF NOT EXISTS sys_file_storage (
		uid INTEGER PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		driver TEXT NOT NULL,
		configuration TEXT NOT NULL DEFAULT '{}'
	)`
	if _, err := c.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("create sys_file_storage: %w", err)
	}
	return nil
}

// Put inserts or replaces a record.
func (c *SQLCatalog) Put(ctx context.Context, rec Record) error {
	conf, err := json.Marshal(rec.Configuration)
	if err != nil {
		return fmt.Errorf("marshal configuration: %w", err)
	}
	if rec.Configuration == nil {
		conf = []byte("{}")
	}
	query := c.rebind(`INSERT INTO sys_file_storage (uid, name, driver, configuration)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (uid) DO UPDATE SET name = excluded.name, driver = excluded.driver, configuration = excluded.configuration`)
	if _, err := c.db.ExecContext(ctx, query, int(rec.UID), rec.Name, rec.Driver, string(conf)); err != nil {
		return fmt.Errorf("put storage %d: %w", rec.UID, err)
	}
	return nil
}

// Lookup returns the record for id.
func (c *SQLCatalog) Lookup(ctx context.Context, id StorageID) (Record, error) {
	query := c.rebind(`SELECT uid, name, driver, configuration FROM sys_file_storage WHERE uid = ?`)
	rec, err := scanRecord(c.db.QueryRowContext(ctx, query, int(id)))
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("storage %d: %w", id, ErrUnknownStorage)
	}
	if err != nil {
		return Record{}, fmt.Errorf("lookup storage %d: %w", id, err)
	}
	return rec, nil
}

// List returns all records ordered by UID.
func (c *SQLCatalog) List(ctx context.Context) ([]Record, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT uid, name, driver, configuration FROM sys_file_storage ORDER BY uid`)
	if err != nil {
		return nil, fmt.Errorf("list storages: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("list storages: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Close closes the database connection.
func (c *SQLCatalog) Close() error {
	return c.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var (
		rec  Record
		uid  int
		conf string
	)
	if err := row.Scan(&uid, &rec.Name, &rec.Driver, &conf); err != nil {
		return Record{}, err
	}
	rec.UID = StorageID(uid)
	if conf != "" {
		if err := json.Unmarshal([]byte(conf), &rec.Configuration); err != nil {
			return Record{}, fmt.Errorf("decode configuration of storage %d: %w", uid, err)
		}
	}
	return rec, nil
}

// rebind turns "?" placeholders into "$n" for PostgreSQL.
func (c *SQLCatalog) rebind(query string) string {
	if !c.postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
