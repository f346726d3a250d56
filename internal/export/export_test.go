/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"playchunk/internal/domain"
)

func sampleChunks() []domain.Chunk {
	return []domain.Chunk{
		{
			Play:              "Hamlet",
			PlayerLine:        "HAMLET: To be, or not to be: that is the question.",
			Act:               "3",
			Scene:             "1",
			Speakers:          []string{"HAMLET"},
			FirstLine:         "63",
			LastLine:          "63",
			CharactersPresent: []string{"HAMLET", "LORD POLONIUS"},
		},
		{
			Play:       "Hamlet",
			PlayerLine: "OPHELIA: Good my lord.",
			Act:        "3",
			Scene:      "1",
			Speakers:   []string{"OPHELIA"},
			FirstLine:  "96",
			LastLine:   "96",
		},
	}
}

func TestWriteChunksRoundTrip(t *testing.T) {
	out := filepath.Join(t.TempDir(), "chunks.json")
	chunks := sampleChunks()
	if err := WriteChunks(chunks, out); err != nil {
		t.Fatalf("WriteChunks: %v", err)
	}
	got, err := ReadChunks(out)
	if err != nil {
		t.Fatalf("ReadChunks: %v", err)
	}
	if !reflect.DeepEqual(got, chunks) {
		t.Fatalf("round trip mismatch:\n got: %+v\nwant: %+v", got, chunks)
	}
}

func TestWriteChunksLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "chunks.json")
	if err := WriteChunks(sampleChunks(), out); err != nil {
		t.Fatalf("WriteChunks: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "chunks.json" {
		t.Fatalf("unexpected directory contents: %v", entries)
	}
}

func TestWriteChunksOverwritesExisting(t *testing.T) {
	out := filepath.Join(t.TempDir(), "chunks.json")
	if err := os.WriteFile(out, []byte("stale"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := WriteChunks(sampleChunks(), out); err != nil {
		t.Fatalf("WriteChunks: %v", err)
	}
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Contains(b, []byte("stale")) {
		t.Fatalf("old content survived the overwrite")
	}
}

func TestChunkFileConformsToSchema(t *testing.T) {
	out := filepath.Join(t.TempDir(), "chunks.json")
	if err := WriteChunks(sampleChunks(), out); err != nil {
		t.Fatalf("WriteChunks: %v", err)
	}
	msgs, err := ValidateFile(out)
	if err != nil {
		t.Fatalf("ValidateFile: %v", err)
	}
	if len(msgs) != 0 {
		t.Fatalf("written chunks do not conform to schema: %v", msgs)
	}
}

func TestValidateRejectsBadDocument(t *testing.T) {
	bad := []byte(`[{"Play":"Hamlet","Act":"three"}]`)
	msgs, err := ValidateBytes(bad)
	if err != nil {
		t.Fatalf("ValidateBytes: %v", err)
	}
	if len(msgs) == 0 {
		t.Fatalf("expected schema violations for bad document")
	}
}

func TestWriteReportProducesPDF(t *testing.T) {
	out := filepath.Join(t.TempDir(), "review.pdf")
	err := WriteReport(sampleChunks(), out, PDFOptions{Title: "Hamlet review", MaxWords: 150})
	if err != nil {
		t.Fatalf("WriteReport: %v", err)
	}
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(b), "%PDF") {
		t.Fatalf("output is not a PDF (starts with %q)", string(b[:8]))
	}
}

func TestWriteReportRejectsEmptyInput(t *testing.T) {
	out := filepath.Join(t.TempDir(), "review.pdf")
	if err := WriteReport(nil, out, PDFOptions{}); err == nil {
		t.Fatalf("expected error for empty chunk set")
	}
}
