/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package storage maintains an embedded SQLite index over a chunk file so
// chunks can be searched by full text and filtered by play, position and
// speaker without re-reading the JSON.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	applog "playchunk/internal/log"
	"playchunk/internal/domain"
	"playchunk/internal/version"
	"log/slog"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

// schemaVersion tracks the local SQLite schema for the chunk index.
// Bump this when you perform breaking schema changes and add migrations.
const schemaVersion = 1

// IndexPath returns the index database path for a given chunk file.
func IndexPath(chunkPath string) string {
	return chunkPath + ".sqlite"
}

// OpenIndex opens (creating if necessary) the index database at path,
// enables WAL mode, and ensures the meta/version and chunk tables exist.
// The returned *sql.DB is ready for use. Callers close it when done.
func OpenIndex(path string) (*sql.DB, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "index_open").With(
		slog.String("path", path),
	)
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("index path is required")
	}
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		l.Error("enable WAL failed", slog.Any("err", err))
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if err := ensureMetaAndVersion(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure meta/version failed", slog.Any("err", err))
		return nil, err
	}
	if err := ensureIndexSchema(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure index schema failed", slog.Any("err", err))
		return nil, err
	}
	l.Info("index ready")
	return db, nil
}

func ensureMetaAndVersion(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS version (
			id          INTEGER PRIMARY KEY CHECK(id=1),
			schema      INTEGER NOT NULL,
			app         TEXT,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	now := time.Now().UTC().Format(time.RFC3339)
	appv := version.String()
	var curSchema int
	err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&curSchema)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := db.ExecContext(ctx, `INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, ?, ?, ?, ?)`, schemaVersion, appv, now, now); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	default:
		if _, err := db.ExecContext(ctx, `UPDATE version SET app=?, updated_at=? WHERE id=1`, appv, now); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

// ensureIndexSchema creates the chunk table and FTS structures if absent.
func ensureIndexSchema(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS chunks (
			chunk_id   INTEGER PRIMARY KEY,
			play       TEXT NOT NULL,
			act        TEXT NOT NULL,
			scene      TEXT NOT NULL,
			first_line TEXT NOT NULL,
			last_line  TEXT NOT NULL,
			speakers   TEXT NOT NULL,
			characters TEXT NOT NULL,
			text       TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_chunks_play ON chunks(play);`,
		`CREATE INDEX IF NOT EXISTS idx_chunks_position ON chunks(play, act, scene);`,

		// Contentless FTS5 index fed from chunks via triggers.
		`CREATE VIRTUAL TABLE IF NOT EXISTS fts_chunks USING fts5(
			text,
			content='',
			tokenize = 'unicode61'
		);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure index schema: %w", err)
		}
	}
	triggers := []string{
		`CREATE TRIGGER IF NOT EXISTS chunks_ai AFTER INSERT ON chunks BEGIN
			INSERT INTO fts_chunks(rowid, text) VALUES (new.chunk_id, new.text);
		END;`,
		`CREATE TRIGGER IF NOT EXISTS chunks_ad AFTER DELETE ON chunks BEGIN
			INSERT INTO fts_chunks(fts_chunks, rowid, text) VALUES ('delete', old.chunk_id, old.text);
		END;`,
		`CREATE TRIGGER IF NOT EXISTS chunks_au AFTER UPDATE OF text ON chunks BEGIN
			INSERT INTO fts_chunks(fts_chunks, rowid, text) VALUES ('delete', old.chunk_id, old.text);
			INSERT INTO fts_chunks(rowid, text) VALUES (new.chunk_id, new.text);
		END;`,
	}
	for _, q := range triggers {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure fts triggers: %w", err)
		}
	}
	return nil
}

// listSep joins speaker and character lists for storage. A newline cannot
// appear in a name, so splitting on it round-trips exactly.
const listSep = "\n"

// BuildIndex replaces the index content at path with the given chunks.
// chunk_id is the position of the chunk in the run, starting at 1, so
// results can be mapped back to the chunk file.
func BuildIndex(ctx context.Context, path string, chunks []domain.Chunk) error {
	db, err := OpenIndex(path)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM chunks;"); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("clear chunks: %w", err)
	}
	ins, err := tx.PrepareContext(ctx, `INSERT INTO chunks
		(chunk_id, play, act, scene, first_line, last_line, speakers, characters, text)
		VALUES(?,?,?,?,?,?,?,?,?);`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer ins.Close()
	for i, c := range chunks {
		_, err := ins.ExecContext(ctx, i+1, c.Play, c.Act, c.Scene, c.FirstLine, c.LastLine,
			strings.Join(c.Speakers, listSep), strings.Join(c.CharactersPresent, listSep), c.PlayerLine)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert chunk %d: %w", i+1, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	applog.WithComponent("storage").Info("index built",
		slog.String("path", path), slog.Int("chunks", len(chunks)))
	return nil
}
