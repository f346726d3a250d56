/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ingest

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

const sampleCSV = `Dataline,Play,PlayerLinenumber,ActSceneLine,Player,PlayerLine
1,Henry IV,,,,ACT I
2,Henry IV,,,,SCENE I. London. The palace.
3,Henry IV,,,,"Enter KING HENRY, LORD JOHN OF LANCASTER and others"
4,Henry IV,1.0,1.1.1,KING HENRY IV,"So shaken as we are, so wan with care,"
5,Henry IV,1.0,1.1.2,KING HENRY IV,"Find we a time for frighted peace to pant,"
`

func TestReadParsesRows(t *testing.T) {
	rows, err := Read(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(rows) != 5 {
		t.Fatalf("expected 5 rows, got %d", len(rows))
	}
	r := rows[3]
	if r.DataIndex != 4 || r.Play != "Henry IV" || r.Speaker != "KING HENRY IV" {
		t.Fatalf("unexpected row: %+v", r)
	}
	if r.PlayerLineNumber == nil || *r.PlayerLineNumber != 1 {
		t.Fatalf("line number not parsed from float form: %+v", r.PlayerLineNumber)
	}
	if r.RawPosition == nil || *r.RawPosition != "1.1.1" {
		t.Fatalf("position not parsed: %+v", r.RawPosition)
	}
	if !rows[2].IsStageDirection() {
		t.Fatalf("row 3 should be a stage direction: %+v", rows[2])
	}
}

func TestReadRejectsMissingColumn(t *testing.T) {
	_, err := Read(strings.NewReader("Dataline,Play,Player\n1,Hamlet,HAMLET\n"))
	if err == nil || !strings.Contains(err.Error(), "PlayerLine") {
		t.Fatalf("expected missing-column error, got %v", err)
	}
}

func TestReadRejectsBadDataline(t *testing.T) {
	csv := "Dataline,Play,PlayerLinenumber,ActSceneLine,Player,PlayerLine\nx,Hamlet,,,HAMLET,hi\n"
	_, err := Read(strings.NewReader(csv))
	if err == nil || !strings.Contains(err.Error(), "Dataline") {
		t.Fatalf("expected Dataline parse error, got %v", err)
	}
}

func TestReadRejectsEmptyTranscript(t *testing.T) {
	_, err := Read(strings.NewReader("Dataline,Play,PlayerLinenumber,ActSceneLine,Player,PlayerLine\n"))
	if err == nil {
		t.Fatalf("expected error for empty transcript")
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "will.csv")
	if err := os.WriteFile(path, []byte(sampleCSV), 0o644); err != nil {
		t.Fatal(err)
	}
	rows, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(rows) != 5 {
		t.Fatalf("expected 5 rows, got %d", len(rows))
	}
}

func TestPlayersUniqueSortedPerPlay(t *testing.T) {
	csv := `Dataline,Play,PlayerLinenumber,ActSceneLine,Player,PlayerLine
1,Hamlet,1.0,1.1.1,BERNARDO,Who's there?
2,Hamlet,1.0,1.1.2,FRANCISCO,Nay answer me.
3,Hamlet,2.0,1.1.3,BERNARDO,Long live the king!
4,Macbeth,1.0,1.1.1,FIRST WITCH,When shall we three meet again?
`
	rows, err := Read(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	got := Players(rows)
	want := []PlayPlayers{
		{Play: "Hamlet", Players: []string{"BERNARDO", "FRANCISCO"}},
		{Play: "Macbeth", Players: []string{"FIRST WITCH"}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Players = %+v, want %+v", got, want)
	}
}

func TestPlayersIgnoresMixedCaseSpeakers(t *testing.T) {
	rows, err := Read(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	got := Players(rows)
	if len(got) != 1 || !reflect.DeepEqual(got[0].Players, []string{"KING HENRY IV"}) {
		t.Fatalf("Players = %+v", got)
	}
}
