/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package publish uploads a chunk run to a shared PostgreSQL database so a
// retrieval service can serve it. Each run becomes one batch; the whole
// upload is a single transaction.
package publish

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"log/slog"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"playchunk/internal/domain"
	applog "playchunk/internal/log"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// DefaultTable is the chunk table the embedded migrations create.
const DefaultTable = "chunks"

var tableNameRe = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Result describes a completed publish run.
type Result struct {
	BatchID string
	Chunks  int
}

// Options controls a publish run. Table selects the chunk table; when it is
// not the default, the table is created on demand with the same shape.
type Options struct {
	Source string // where the chunks came from, recorded with the batch
	Table  string
}

// Publish uploads chunks to the database at dsn, applying embedded schema
// migrations first.
func Publish(ctx context.Context, dsn string, chunks []domain.Chunk, opt Options) (*Result, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("publish DSN is required")
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("nothing to publish: no chunks")
	}
	table := opt.Table
	if table == "" {
		table = DefaultTable
	}
	if !tableNameRe.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}
	if err := applyMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	if table != DefaultTable {
		if err := ensureChunkTable(ctx, db, table); err != nil {
			return nil, err
		}
	}

	batchID := uuid.NewString()
	l := applog.WithOperation(applog.WithComponent("publish"), "publish").With(
		slog.String("batch_id", batchID), slog.String("source", opt.Source),
	)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO publish_batches (batch_id, source, chunk_count) VALUES ($1, $2, $3)`,
		batchID, opt.Source, len(chunks)); err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("insert batch: %w", err)
	}
	// table passed tableNameRe above, safe to interpolate
	ins, err := tx.PrepareContext(ctx, fmt.Sprintf(`INSERT INTO %s
		(batch_id, seq, play, act, scene, first_line, last_line, speakers, characters, body)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`, table))
	if err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("prepare insert: %w", err)
	}
	defer ins.Close()
	for i, c := range chunks {
		speakers, err := jsonList(c.Speakers)
		if err != nil {
			_ = tx.Rollback()
			return nil, err
		}
		characters, err := jsonList(c.CharactersPresent)
		if err != nil {
			_ = tx.Rollback()
			return nil, err
		}
		if _, err := ins.ExecContext(ctx, batchID, i+1, c.Play, c.Act, c.Scene,
			c.FirstLine, c.LastLine, speakers, characters, c.PlayerLine); err != nil {
			_ = tx.Rollback()
			return nil, fmt.Errorf("insert chunk %d: %w", i+1, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	l.Info("batch published", slog.Int("chunks", len(chunks)))
	return &Result{BatchID: batchID, Chunks: len(chunks)}, nil
}

// ensureChunkTable creates a non-default chunk table with the same shape as
// the migrated one.
func ensureChunkTable(ctx context.Context, db *sql.DB, table string) error {
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id         BIGSERIAL PRIMARY KEY,
		batch_id   UUID NOT NULL REFERENCES publish_batches(batch_id) ON DELETE CASCADE,
		seq        INTEGER NOT NULL,
		play       TEXT NOT NULL,
		act        TEXT NOT NULL,
		scene      TEXT NOT NULL,
		first_line TEXT NOT NULL,
		last_line  TEXT NOT NULL,
		speakers   JSONB NOT NULL,
		characters JSONB NOT NULL,
		body       TEXT NOT NULL,
		UNIQUE (batch_id, seq)
	)`, table)
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("ensure table %s: %w", table, err)
	}
	return nil
}

// jsonList marshals names for a JSONB column; nil becomes an empty array.
func jsonList(names []string) ([]byte, error) {
	if names == nil {
		names = []string{}
	}
	b, err := json.Marshal(names)
	if err != nil {
		return nil, fmt.Errorf("marshal name list: %w", err)
	}
	return b, nil
}

// applyMigrations applies embedded SQL migrations in filename order.
func applyMigrations(ctx context.Context, db *sql.DB) error {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasSuffix(strings.ToLower(e.Name()), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version BIGINT PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`); err != nil {
		return fmt.Errorf("ensure schema_migrations: %w", err)
	}

	applied := map[int64]bool{}
	rows, err := db.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return fmt.Errorf("select schema_migrations: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var v int64
		if err := rows.Scan(&v); err != nil {
			return err
		}
		applied[v] = true
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, fname := range files {
		version, err := parseVersion(fname)
		if err != nil {
			return err
		}
		if applied[version] {
			continue
		}
		b, err := migrationsFS.ReadFile(path.Join("migrations", fname))
		if err != nil {
			return err
		}
		if strings.TrimSpace(string(b)) == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, string(b)); err != nil {
			return fmt.Errorf("apply %s: %w", fname, err)
		}
		if _, err := db.ExecContext(ctx,
			`INSERT INTO schema_migrations (version, name) VALUES ($1, $2)`, version, fname); err != nil {
			return fmt.Errorf("record %s: %w", fname, err)
		}
	}
	return nil
}

func parseVersion(name string) (int64, error) {
	parts := strings.SplitN(path.Base(name), "_", 2)
	v, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse version from %s: %w", name, err)
	}
	return v, nil
}
