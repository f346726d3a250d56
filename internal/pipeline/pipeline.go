/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package pipeline implements the three-stage transformation that turns a
// transcript of theatrical dialogue into word-bounded retrieval chunks:
// position resolution, cast tracking, and greedy chunking. Each stage is a
// pure function over the previous stage's output sequence.
package pipeline

import (
	"log/slog"

	"github.com/google/uuid"

	"playchunk/internal/domain"
	applog "playchunk/internal/log"
)

// Options is the configuration surface of the pipeline.
type Options struct {
	// MaxWords is the word budget per chunk; must be positive.
	MaxWords int
	// Play optionally restricts processing to a single play by exact name.
	Play string
}

// Run executes the full pipeline over the input rows. Rows are grouped by
// play (position inheritance and cast tracking reset at play boundaries), the
// three stages run per play, and the per-play chunk sequences are
// concatenated in input order.
func Run(rows []domain.Row, opts Options) ([]domain.Chunk, error) {
	// Validate configuration before any processing begins.
	if opts.MaxWords <= 0 {
		return nil, &InvalidConfigurationError{MaxWords: opts.MaxWords}
	}
	l := applog.WithComponent("pipeline").With(slog.String("run", uuid.NewString()))

	var chunks []domain.Chunk
	for _, g := range groupByPlay(rows) {
		if opts.Play != "" && g.play != opts.Play {
			continue
		}
		resolved, err := ResolvePositions(g.rows)
		if err != nil {
			return nil, err
		}
		annotated := TrackCast(resolved)
		cs, err := ChunkRows(annotated, opts.MaxWords)
		if err != nil {
			return nil, err
		}
		l.Debug("play processed",
			slog.String("play", g.play),
			slog.Int("rows", len(g.rows)),
			slog.Int("chunks", len(cs)))
		chunks = append(chunks, cs...)
	}
	l.Info("pipeline done", slog.Int("rows", len(rows)), slog.Int("chunks", len(chunks)))
	return chunks, nil
}

type playGroup struct {
	play string
	rows []domain.Row
}

// groupByPlay splits the row sequence into contiguous per-play groups,
// preserving input order. Rows of a play are contiguous in well-formed
// transcripts; if a play name reappears later it starts a fresh group, which
// also keeps cast tracking from leaking across the gap.
func groupByPlay(rows []domain.Row) []playGroup {
	var groups []playGroup
	for _, r := range rows {
		if n := len(groups); n == 0 || groups[n-1].play != r.Play {
			groups = append(groups, playGroup{play: r.Play})
		}
		g := &groups[len(groups)-1]
		g.rows = append(g.rows, r)
	}
	return groups
}
