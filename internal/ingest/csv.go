/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package ingest reads the transcript CSV at the input boundary and produces
// the ordered row sequence the pipeline consumes. Expected columns:
// Dataline, Play, PlayerLinenumber, ActSceneLine, Player, PlayerLine.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"

	"playchunk/internal/domain"
	applog "playchunk/internal/log"
)

// Column names as they appear in the transcript header.
const (
	colDataline   = "Dataline"
	colPlay       = "Play"
	colLineNumber = "PlayerLinenumber"
	colPosition   = "ActSceneLine"
	colPlayer     = "Player"
	colPlayerLine = "PlayerLine"
)

// Load reads the transcript CSV at path.
func Load(path string) ([]domain.Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open transcript: %w", err)
	}
	defer f.Close()
	rows, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("read transcript %s: %w", path, err)
	}
	applog.WithComponent("ingest").Info("transcript loaded",
		slog.String("path", path), slog.Int("rows", len(rows)))
	return rows, nil
}

// Read parses transcript rows from r. The first record must be the header;
// unknown columns are ignored so exports with extra columns still load.
func Read(r io.Reader) ([]domain.Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // validated against the header below

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{colDataline, colPlay, colPlayer, colPlayerLine} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("transcript is missing column %q", required)
		}
	}

	var rows []domain.Row
	for recNo := 2; ; recNo++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", recNo, err)
		}
		row, err := parseRecord(cols, rec)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", recNo, err)
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("transcript contains no rows")
	}
	return rows, nil
}

func parseRecord(cols map[string]int, rec []string) (domain.Row, error) {
	field := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	idx, err := strconv.Atoi(field(colDataline))
	if err != nil {
		return domain.Row{}, fmt.Errorf("bad %s value %q", colDataline, field(colDataline))
	}
	row := domain.Row{
		DataIndex: idx,
		Play:      field(colPlay),
		Speaker:   field(colPlayer),
		Text:      field(colPlayerLine),
	}
	if v := field(colLineNumber); v != "" {
		// pandas exports write line numbers as floats ("4.0"); accept both.
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return domain.Row{}, fmt.Errorf("bad %s value %q", colLineNumber, v)
		}
		n := int(f)
		row.PlayerLineNumber = &n
	}
	if v := field(colPosition); v != "" {
		row.RawPosition = &v
	}
	return row, nil
}

// PlayPlayers lists the unique uppercase speaker names of one play.
type PlayPlayers struct {
	Play    string   `json:"Play"`
	Players []string `json:"Players"`
}

// Players returns the sorted unique speakers of each play, in order of first
// play appearance. Only fully uppercase names count; mixed-case values are
// transcription artifacts, not speakers.
func Players(rows []domain.Row) []PlayPlayers {
	var order []string
	byPlay := make(map[string]map[string]struct{})
	for _, r := range rows {
		sp := strings.TrimSpace(r.Speaker)
		if sp == "" || sp != strings.ToUpper(sp) {
			continue
		}
		set, ok := byPlay[r.Play]
		if !ok {
			set = make(map[string]struct{})
			byPlay[r.Play] = set
			order = append(order, r.Play)
		}
		set[sp] = struct{}{}
	}
	out := make([]PlayPlayers, 0, len(order))
	for _, play := range order {
		names := make([]string, 0, len(byPlay[play]))
		for n := range byPlay[play] {
			names = append(names, n)
		}
		sort.Strings(names)
		out = append(out, PlayPlayers{Play: play, Players: names})
	}
	return out
}
