package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/trackscope/trackscope/internal/riot/cdn"
)

// UpsertChampions replaces the catalog content for a version with one
// batched upsert-by-key. Keys absent from the new version are left in
// place; the catalog is replace-by-key, not delete-then-insert, so a
// champion removed upstream lingers until it reappears.
func (db *Database) UpsertChampions(ctx context.Context, version string, champs []cdn.Champion, fetchedAt time.Time) error {
	if version = strings.TrimSpace(version); version == "" {
		return fmt.Errorf("version is required")
	}
	if fetchedAt.IsZero() {
		fetchedAt = time.Now().UTC()
	}

	query := `
	INSERT INTO champions (key, id, name, title, tags, version, data, fetched_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (key) DO UPDATE
	SET id = excluded.id,
		name = excluded.name,
		title = excluded.title,
		tags = excluded.tags,
		version = excluded.version,
		data = excluded.data,
		fetched_at = excluded.fetched_at`
	return db.withTx(ctx, func(tx pgx.Tx) error {
		return runQueuedBatch(ctx, tx, "upsert champions batch", func(b *pgx.Batch) error {
			for _, champ := range champs {
				key := strings.TrimSpace(champ.Key)
				if key == "" {
					continue
				}
				tags := champ.Tags
				if tags == nil {
					tags = []string{}
				}
				payload, err := json.Marshal(champ)
				if err != nil {
					return fmt.Errorf("marshal champion %s: %w", key, err)
				}
				b.Queue(query, key, champ.ID, champ.Name, champ.Title, tags, version, payload, fetchedAt)
			}
			return nil
		})
	})
}

// Champions returns every cached catalog entry ordered by name.
func (db *Database) Champions(ctx context.Context) ([]cdn.Champion, error) {
	if err := db.ensureReady(); err != nil {
		return nil, err
	}

	query := `
	SELECT data
	FROM champions
	ORDER BY name`
	rows, err := db.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query champions: %w", err)
	}
	defer rows.Close()

	champions, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (cdn.Champion, error) {
		var payload []byte
		if err := row.Scan(&payload); err != nil {
			return cdn.Champion{}, err
		}
		var champ cdn.Champion
		if err := json.Unmarshal(payload, &champ); err != nil {
			return cdn.Champion{}, fmt.Errorf("unmarshal champion data: %w", err)
		}
		return champ, nil
	})
	if err != nil {
		return nil, fmt.Errorf("collect champion rows: %w", err)
	}
	return champions, nil
}

// ChampionByKey returns one catalog entry by its stable key.
func (db *Database) ChampionByKey(ctx context.Context, key string) (cdn.Champion, bool, error) {
	if err := db.ensureReady(); err != nil {
		return cdn.Champion{}, false, err
	}
	if key = strings.TrimSpace(key); key == "" {
		return cdn.Champion{}, false, nil
	}

	query := `
	SELECT data
	FROM champions
	WHERE key = $1`
	var payload []byte
	if err := db.pool.QueryRow(ctx, query, key).Scan(&payload); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return cdn.Champion{}, false, nil
		}
		return cdn.Champion{}, false, fmt.Errorf("query champion %q: %w", key, err)
	}
	var champ cdn.Champion
	if err := json.Unmarshal(payload, &champ); err != nil {
		return cdn.Champion{}, false, fmt.Errorf("unmarshal champion %q: %w", key, err)
	}
	return champ, true, nil
}

func (db *Database) CountChampions(ctx context.Context) (int, error) {
	if err := db.ensureReady(); err != nil {
		return 0, err
	}

	var count int
	if err := db.pool.QueryRow(ctx, `SELECT COUNT(*) FROM champions`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count champions: %w", err)
	}
	return count, nil
}
