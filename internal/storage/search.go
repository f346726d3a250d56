/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// SearchQuery describes a chunk search request.
// Text uses SQLite FTS5 syntax (simple terms, phrases in quotes, AND/OR/NOT).
// Filters are optional; empty strings mean unset.
// Speaker matches chunks where the named character speaks.
// Limit/Offset implement pagination; reasonable defaults applied if zero.
type SearchQuery struct {
	Text    string
	Play    string
	Act     string
	Scene   string
	Speaker string
	Limit   int
	Offset  int
}

// SearchResult represents a single matching chunk.
// ChunkID is the 1-based position of the chunk in the indexed run.
// Snippet is a highlighted excerpt using [ ] markers when FTS text is used.
type SearchResult struct {
	ChunkID   int64
	Play      string
	Act       string
	Scene     string
	FirstLine string
	LastLine  string
	Speakers  []string
	Snippet   string
}

// Search performs full-text search with optional filters over the chunk index
// at path. When q.Text is empty, it falls back to a non-FTS scan with the
// filters applied.
func Search(ctx context.Context, path string, q SearchQuery) ([]SearchResult, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("index path is required")
	}
	db, err := OpenIndex(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return searchDB(ctx, db, q)
}

func searchDB(ctx context.Context, db *sql.DB, q SearchQuery) ([]SearchResult, error) {
	var args []any
	var sb strings.Builder
	useFTS := strings.TrimSpace(q.Text) != ""
	if useFTS {
		sb.WriteString("SELECT c.chunk_id, c.play, c.act, c.scene, c.first_line, c.last_line, c.speakers, snippet(fts_chunks, 0, '[', ']', '...', 10)\n")
		sb.WriteString("FROM fts_chunks JOIN chunks c ON fts_chunks.rowid = c.chunk_id\n")
		sb.WriteString("WHERE fts_chunks MATCH ?\n")
		args = append(args, q.Text)
	} else {
		sb.WriteString("SELECT c.chunk_id, c.play, c.act, c.scene, c.first_line, c.last_line, c.speakers, ''\n")
		sb.WriteString("FROM chunks c\nWHERE 1=1\n")
	}
	if s := strings.TrimSpace(q.Play); s != "" {
		sb.WriteString(" AND c.play = ?\n")
		args = append(args, s)
	}
	if s := strings.TrimSpace(q.Act); s != "" {
		sb.WriteString(" AND c.act = ?\n")
		args = append(args, s)
	}
	if s := strings.TrimSpace(q.Scene); s != "" {
		sb.WriteString(" AND c.scene = ?\n")
		args = append(args, s)
	}
	// Speaker names are stored newline-separated; wrap both sides so a name
	// only matches whole entries, never substrings of longer names.
	if s := strings.TrimSpace(q.Speaker); s != "" {
		sb.WriteString(" AND instr(char(10) || upper(c.speakers) || char(10), char(10) || ? || char(10)) > 0\n")
		args = append(args, strings.ToUpper(s))
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	sb.WriteString("ORDER BY c.chunk_id\n")
	sb.WriteString("LIMIT ? OFFSET ?")
	args = append(args, limit, q.Offset)

	rows, err := db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()
	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		var speakers string
		var sn sql.NullString
		if err := rows.Scan(&r.ChunkID, &r.Play, &r.Act, &r.Scene, &r.FirstLine, &r.LastLine, &speakers, &sn); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		if speakers != "" {
			r.Speakers = strings.Split(speakers, listSep)
		}
		if sn.Valid {
			r.Snippet = sn.String
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
