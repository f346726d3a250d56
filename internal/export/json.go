/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export writes chunk runs to their output formats: the JSON file
// downstream retrieval tooling ingests, and a PDF report for human review.
package export

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"

	"log/slog"

	"playchunk/internal/domain"
	applog "playchunk/internal/log"
)

// WriteChunks writes chunks as an indented JSON array to outPath with
// transactional semantics: to a temp file in the same directory, then a
// rename over the target, so a crash never leaves a half-written file.
func WriteChunks(chunks []domain.Chunk, outPath string) error {
	data, err := json.MarshalIndent(chunks, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal chunks: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(outPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	temp := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d-%d", filepath.Base(outPath), os.Getpid(), rand.Int()))
	if werr := writeFileSync(temp, data); werr != nil {
		return fmt.Errorf("write temp output: %w", werr)
	}
	// On Windows, replace by removing destination first if needed
	if _, err := os.Stat(outPath); err == nil {
		_ = os.Remove(outPath)
	}
	if rerr := os.Rename(temp, outPath); rerr != nil {
		_ = os.Remove(temp)
		return fmt.Errorf("replace output: %w", rerr)
	}
	applog.WithComponent("export").Info("chunks written",
		slog.String("path", outPath), slog.Int("chunks", len(chunks)))
	return nil
}

// ReadChunks loads a previously written chunk file.
func ReadChunks(path string) ([]domain.Chunk, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read chunk file: %w", err)
	}
	var chunks []domain.Chunk
	if err := json.Unmarshal(b, &chunks); err != nil {
		return nil, fmt.Errorf("parse chunk file %s: %w", path, err)
	}
	return chunks, nil
}

// writeFileSync writes data to a file, ensures it is flushed to disk.
func writeFileSync(path string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := f.Write(data); err != nil {
		return err
	}
	if err := f.Sync(); err != nil {
		return err
	}
	return nil
}
