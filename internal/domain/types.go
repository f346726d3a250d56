/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import "strings"

// This file defines the data model for the playchunk pipeline: the input
// transcript rows, the per-stage annotated row shapes, and the output chunk
// record. Rows flow through three stages (position resolution, cast tracking,
// chunking); every stage produces a fresh sequence and never mutates its input.

// Row is one record of the input transcript: a spoken line or a stage
// direction. DataIndex preserves the original file order and is the only
// reliable sequencing signal for rows without a position.
type Row struct {
	DataIndex        int
	Play             string
	PlayerLineNumber *int    // present only for spoken lines
	RawPosition      *string // "Act.Scene.Line"; nil for stage directions
	Speaker          string  // uppercase speaker name, empty for stage directions
	Text             string
}

// IsStageDirection reports whether the row is a stage direction rather than a
// spoken line. Transcripts mark these by omitting the position and leaving the
// speaker blank (some sources use a literal "stage direction" sentinel).
func (r Row) IsStageDirection() bool {
	sp := strings.TrimSpace(r.Speaker)
	if sp == "" || strings.EqualFold(sp, "stage direction") {
		return true
	}
	return r.RawPosition == nil && r.PlayerLineNumber == nil
}

// ResolvedRow is a Row with its hierarchical position filled in. After the
// position stage all three fields are always populated; stage directions carry
// the position of the nearest preceding positioned row.
type ResolvedRow struct {
	Row
	Act   string
	Scene string
	Line  string
}

// CastRow is a ResolvedRow annotated with the set of characters on stage as it
// stood after processing the row's own stage direction, if any. The slice is a
// sorted snapshot; callers must not assume it is shared between rows.
type CastRow struct {
	ResolvedRow
	CharactersPresent []string
}

// Chunk is the output retrieval unit. Field names and shapes are fixed by the
// downstream consumer; do not rename the JSON keys.
type Chunk struct {
	Play              string   `json:"Play"`
	PlayerLine        string   `json:"PlayerLine"`
	Act               string   `json:"Act"`
	Scene             string   `json:"Scene"`
	Speakers          []string `json:"Speakers"`
	FirstLine         string   `json:"firstLine"`
	LastLine          string   `json:"lastLine"`
	CharactersPresent []string `json:"CharactersPresent"`
}
