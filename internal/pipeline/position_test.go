/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package pipeline

import (
	"errors"
	"testing"

	"playchunk/internal/domain"
)

func strPtr(s string) *string { return &s }

func spokenRow(idx int, play, pos, speaker, text string) domain.Row {
	n := idx
	return domain.Row{DataIndex: idx, Play: play, PlayerLineNumber: &n, RawPosition: strPtr(pos), Speaker: speaker, Text: text}
}

func directionRow(idx int, play, text string) domain.Row {
	return domain.Row{DataIndex: idx, Play: play, Text: text}
}

func TestPositionInheritance(t *testing.T) {
	rows := []domain.Row{
		spokenRow(1, "Hamlet", "1.1.1", "BERNARDO", "Who's there?"),
		directionRow(2, "Hamlet", "Enter FRANCISCO"),
		spokenRow(3, "Hamlet", "1.1.2", "FRANCISCO", "Nay, answer me."),
	}
	out, err := ResolvePositions(rows)
	if err != nil {
		t.Fatalf("ResolvePositions: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("expected 3 resolved rows, got %d", len(out))
	}
	sd := out[1]
	if sd.Act != "1" || sd.Scene != "1" || sd.Line != "1" {
		t.Fatalf("stage direction did not inherit preceding position: %+v", sd)
	}
	if out[2].Line != "2" {
		t.Fatalf("positioned row lost its own position: %+v", out[2])
	}
}

func TestPositionsDoNotMutateInput(t *testing.T) {
	rows := []domain.Row{spokenRow(1, "Hamlet", "1.1.1", "BERNARDO", "Who's there?")}
	before := *rows[0].RawPosition
	if _, err := ResolvePositions(rows); err != nil {
		t.Fatalf("ResolvePositions: %v", err)
	}
	if *rows[0].RawPosition != before {
		t.Fatalf("input row mutated")
	}
}

func TestMalformedPosition(t *testing.T) {
	cases := []string{"1.2", "1.2.3.4", "1.a.2", "x.y.z", "-1.1.1", ""}
	for _, bad := range cases {
		rows := []domain.Row{spokenRow(7, "Hamlet", bad, "HAMLET", "Words.")}
		_, err := ResolvePositions(rows)
		var mpe *MalformedPositionError
		if !errors.As(err, &mpe) {
			t.Fatalf("position %q: expected MalformedPositionError, got %v", bad, err)
		}
		if mpe.DataIndex != 7 || mpe.Play != "Hamlet" || mpe.Value != bad {
			t.Fatalf("error does not name the offending row: %+v", mpe)
		}
	}
}

func TestMissingInitialPosition(t *testing.T) {
	rows := []domain.Row{
		directionRow(1, "Hamlet", "Enter BERNARDO"),
		spokenRow(2, "Hamlet", "1.1.1", "BERNARDO", "Who's there?"),
	}
	_, err := ResolvePositions(rows)
	var mie *MissingInitialPositionError
	if !errors.As(err, &mie) {
		t.Fatalf("expected MissingInitialPositionError, got %v", err)
	}
	if mie.Play != "Hamlet" || mie.DataIndex != 1 {
		t.Fatalf("error does not name the offending row: %+v", mie)
	}
}

func TestParsePositionKeepsStringForm(t *testing.T) {
	act, scene, line, ok := parsePosition("3.1.63")
	if !ok {
		t.Fatalf("parsePosition rejected a valid value")
	}
	if act != "3" || scene != "1" || line != "63" {
		t.Fatalf("unexpected parts: %s %s %s", act, scene, line)
	}
}
