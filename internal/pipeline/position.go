/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package pipeline

import (
	"strconv"
	"strings"

	"playchunk/internal/domain"
)

// ResolvePositions fills in Act/Scene/Line for every row of a single play.
// Rows without a raw position inherit the position of the nearest preceding
// positioned row, so a stage direction carries the context of the dialogue it
// accompanies. The input sequence must be ordered by DataIndex and belong to
// one play.
func ResolvePositions(rows []domain.Row) ([]domain.ResolvedRow, error) {
	out := make([]domain.ResolvedRow, 0, len(rows))
	var act, scene, line string
	resolved := false
	for _, r := range rows {
		if r.RawPosition != nil {
			a, s, l, ok := parsePosition(*r.RawPosition)
			if !ok {
				return nil, &MalformedPositionError{Play: r.Play, DataIndex: r.DataIndex, Value: *r.RawPosition}
			}
			act, scene, line = a, s, l
			resolved = true
		} else if !resolved {
			return nil, &MissingInitialPositionError{Play: r.Play, DataIndex: r.DataIndex}
		}
		out = append(out, domain.ResolvedRow{Row: r, Act: act, Scene: scene, Line: line})
	}
	return out, nil
}

// parsePosition splits "Act.Scene.Line" into its parts. Each part must be a
// non-negative integer; the string forms are kept for output.
func parsePosition(v string) (act, scene, line string, ok bool) {
	parts := strings.Split(strings.TrimSpace(v), ".")
	if len(parts) != 3 {
		return "", "", "", false
	}
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return "", "", "", false
		}
	}
	return parts[0], parts[1], parts[2], true
}
