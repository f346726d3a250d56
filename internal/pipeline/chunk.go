/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package pipeline

import (
	"sort"
	"strings"

	"playchunk/internal/domain"
)

// DefaultMaxWords is the word budget per chunk when none is configured.
const DefaultMaxWords = 150

// ChunkRows packs consecutive cast-annotated rows into chunks of at most
// maxWords words, greedily and in a single pass. A chunk never crosses an Act
// or Scene boundary. A single row whose own word count exceeds maxWords is
// never split; it becomes its own oversized chunk, since splitting mid-line
// would break speaker attribution.
func ChunkRows(rows []domain.CastRow, maxWords int) ([]domain.Chunk, error) {
	if maxWords <= 0 {
		return nil, &InvalidConfigurationError{MaxWords: maxWords}
	}
	var chunks []domain.Chunk
	var acc *chunkAccumulator
	for _, r := range rows {
		w := len(strings.Fields(r.Text))
		switch {
		case acc == nil:
			acc = newChunkAccumulator(r, w)
		case r.Play != acc.play || r.Act != acc.act || r.Scene != acc.scene:
			chunks = append(chunks, acc.finish())
			acc = newChunkAccumulator(r, w)
		case acc.words+w > maxWords:
			chunks = append(chunks, acc.finish())
			acc = newChunkAccumulator(r, w)
		default:
			acc.add(r, w)
		}
	}
	if acc != nil {
		chunks = append(chunks, acc.finish())
	}
	return chunks, nil
}

// chunkAccumulator collects the member rows of the chunk under construction.
type chunkAccumulator struct {
	play, act, scene    string
	firstLine, lastLine string
	words               int
	text                strings.Builder
	speakers            []string // first-appearance order
	seenSpeakers        map[string]struct{}
	lastSpeaker         string
	charactersPresent   map[string]struct{}
}

func newChunkAccumulator(r domain.CastRow, wordCount int) *chunkAccumulator {
	acc := &chunkAccumulator{
		play:              r.Play,
		act:               r.Act,
		scene:             r.Scene,
		firstLine:         r.Line,
		seenSpeakers:      make(map[string]struct{}),
		charactersPresent: make(map[string]struct{}),
	}
	acc.add(r, wordCount)
	return acc
}

func (acc *chunkAccumulator) add(r domain.CastRow, wordCount int) {
	acc.lastLine = r.Line
	acc.words += wordCount
	for _, c := range r.CharactersPresent {
		acc.charactersPresent[c] = struct{}{}
	}

	if r.IsStageDirection() {
		if acc.text.Len() > 0 {
			acc.text.WriteString("\n")
		}
		acc.text.WriteString(r.Text)
		return
	}

	sp := strings.ToUpper(strings.TrimSpace(r.Speaker))
	if sp != acc.lastSpeaker {
		// New speaker turn: blank line before it and a name prefix.
		if acc.text.Len() > 0 {
			acc.text.WriteString("\n\n")
		}
		acc.text.WriteString(sp)
		acc.text.WriteString(": ")
		acc.text.WriteString(r.Text)
		acc.lastSpeaker = sp
	} else {
		if acc.text.Len() > 0 {
			acc.text.WriteString("\n")
		}
		acc.text.WriteString(r.Text)
	}
	if _, seen := acc.seenSpeakers[sp]; !seen {
		acc.seenSpeakers[sp] = struct{}{}
		acc.speakers = append(acc.speakers, sp)
	}
}

func (acc *chunkAccumulator) finish() domain.Chunk {
	chars := make([]string, 0, len(acc.charactersPresent))
	for c := range acc.charactersPresent {
		chars = append(chars, c)
	}
	sort.Strings(chars)
	return domain.Chunk{
		Play:              acc.play,
		PlayerLine:        acc.text.String(),
		Act:               acc.act,
		Scene:             acc.scene,
		Speakers:          acc.speakers,
		FirstLine:         acc.firstLine,
		LastLine:          acc.lastLine,
		CharactersPresent: chars,
	}
}
