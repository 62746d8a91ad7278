package clients

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"crmagent/internal/campaign"
)

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

const clientsSchema = `CREATE TABLE IF NOT EXISTS clients (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	sector TEXT NOT NULL DEFAULT '',
	average_spend REAL NOT NULL DEFAULT 0,
	risk TEXT NOT NULL,
	social_channel TEXT NOT NULL DEFAULT ''
)`

func openSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}
	return db, nil
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

// LoadSQLite reads every row of the clients table, ordered by rowid.
func LoadSQLite(ctx context.Context, path string) ([]campaign.ClientRecord, error) {
	db, err := openSQLite(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	var records []campaign.ClientRecord
	err = retryOnBusy(ctx, func() error {
		records = records[:0]
		rows, err := db.QueryContext(ctx, `SELECT id, name, sector, average_spend, risk, social_channel FROM clients ORDER BY rowid`)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var (
				id, name, sector, risk, channel string
				spend                           float64
			)
			if err := rows.Scan(&id, &name, &sector, &spend, &risk, &channel); err != nil {
				return err
			}
			record, err := buildRecord(id, name, sector, strconv.FormatFloat(spend, 'f', -1, 64), risk, channel)
			if err != nil {
				return err
			}
			records = append(records, record)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("query clients: %w", err)
	}
	return records, nil
}

// SaveSQLite writes records into the clients table at path, creating the
// database and table when missing. Existing rows with the same id are replaced.
func SaveSQLite(ctx context.Context, path string, records []campaign.ClientRecord) error {
	db, err := openSQLite(path)
	if err != nil {
		return err
	}
	defer db.Close()

	return retryOnBusy(ctx, func() error {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(ctx, clientsSchema); err != nil {
			return fmt.Errorf("create clients table: %w", err)
		}
		stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO clients (id, name, sector, average_spend, risk, social_channel) VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare insert: %w", err)
		}
		defer stmt.Close()
		for _, r := range records {
			if _, err := stmt.ExecContext(ctx, r.ID, r.Name, r.Sector, r.AverageSpend, string(r.Risk), r.SocialChannel); err != nil {
				return fmt.Errorf("insert client %s: %w", r.ID, err)
			}
		}
		return tx.Commit()
	})
}
