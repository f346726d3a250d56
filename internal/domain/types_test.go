/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestIsStageDirection(t *testing.T) {
	pos := "1.1.1"
	n := 1
	spoken := Row{DataIndex: 1, Play: "Hamlet", PlayerLineNumber: &n, RawPosition: &pos, Speaker: "HAMLET", Text: "Words, words, words."}
	if spoken.IsStageDirection() {
		t.Fatalf("spoken line classified as stage direction: %+v", spoken)
	}
	sd := Row{DataIndex: 2, Play: "Hamlet", Speaker: "", Text: "Enter HAMLET"}
	if !sd.IsStageDirection() {
		t.Fatalf("stage direction not recognized: %+v", sd)
	}
	sentinel := Row{DataIndex: 3, Play: "Hamlet", PlayerLineNumber: &n, RawPosition: &pos, Speaker: "stage direction", Text: "Exit"}
	if !sentinel.IsStageDirection() {
		t.Fatalf("sentinel speaker not recognized as stage direction: %+v", sentinel)
	}
}

func TestChunkJSONFieldNames(t *testing.T) {
	c := Chunk{
		Play:              "Hamlet",
		PlayerLine:        "HAMLET: To be, or not to be",
		Act:               "3",
		Scene:             "1",
		Speakers:          []string{"HAMLET"},
		FirstLine:         "63",
		LastLine:          "79",
		CharactersPresent: []string{"HAMLET", "OPHELIA"},
	}
	b, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("marshal chunk: %v", err)
	}
	s := string(b)
	// The downstream consumer depends on these exact key names.
	for _, key := range []string{`"Play"`, `"PlayerLine"`, `"Act"`, `"Scene"`, `"Speakers"`, `"firstLine"`, `"lastLine"`, `"CharactersPresent"`} {
		if !strings.Contains(s, key) {
			t.Fatalf("marshaled chunk is missing key %s: %s", key, s)
		}
	}
}
