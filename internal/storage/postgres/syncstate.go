package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
)

// SyncVersion reports the last version persisted under syncKey. A key
// that has never synced yields ("", false, nil).
func (db *Database) SyncVersion(ctx context.Context, syncKey string) (string, bool, error) {
	if err := db.ensureReady(); err != nil {
		return "", false, err
	}
	if strings.TrimSpace(syncKey) == "" {
		return "", false, ErrSyncKeyRequired
	}

	query := `
	SELECT version
	FROM sync_state
	WHERE sync_key = $1`
	var version string
	if err := db.pool.QueryRow(ctx, query, syncKey).Scan(&version); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("query sync version for %q: %w", syncKey, err)
	}
	return version, true, nil
}

// SetSyncVersion records version for syncKey, stamping updated_at.
func (db *Database) SetSyncVersion(ctx context.Context, syncKey, version string) error {
	if err := db.ensureReady(); err != nil {
		return err
	}
	if strings.TrimSpace(syncKey) == "" {
		return ErrSyncKeyRequired
	}
	if strings.TrimSpace(version) == "" {
		return fmt.Errorf("version is required")
	}

	query := `
	INSERT INTO sync_state (sync_key, version, updated_at)
	VALUES ($1, $2, $3)
	ON CONFLICT (sync_key) DO UPDATE
	SET version = excluded.version,
		updated_at = excluded.updated_at`
	if _, err := db.pool.Exec(ctx, query, syncKey, version, time.Now().UTC()); err != nil {
		return fmt.Errorf("set sync version for %q: %w", syncKey, err)
	}
	return nil
}
