/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package pipeline

import (
	"regexp"
	"sort"
	"strings"

	"playchunk/internal/domain"
)

// TrackCast scans stage directions and annotates every row with the set of
// characters on stage. The input is the resolved row sequence of a single
// play; the cast set starts empty and carries forward unchanged between stage
// directions. A row carrying an entrance direction already reflects the added
// characters.
//
// Direction matching is a small rule-based classifier: an ordered pattern
// list, first match wins, default is a no-op. Stage-direction phrasing in
// source transcriptions is inconsistent, so unrecognized text degrades to "no
// change" rather than erroring.
func TrackCast(rows []domain.ResolvedRow) []domain.CastRow {
	out := make([]domain.CastRow, 0, len(rows))
	present := make(map[string]struct{})
	lastSpeaker := ""
	for _, r := range rows {
		if r.IsStageDirection() {
			applyDirection(present, r.Text, lastSpeaker)
		} else if sp := strings.TrimSpace(r.Speaker); sp != "" {
			lastSpeaker = strings.ToUpper(sp)
		}
		out = append(out, domain.CastRow{ResolvedRow: r, CharactersPresent: snapshot(present)})
	}
	return out
}

var (
	enterRe        = regexp.MustCompile(`(?i)\b(?:re-)?enter\b`)
	exitRe         = regexp.MustCompile(`(?i)\bexit\b`)
	exeuntRe       = regexp.MustCompile(`(?i)\bexeunt\b`)
	exeuntAllButRe = regexp.MustCompile(`(?i)\bexeunt all but\b`)
)

func applyDirection(present map[string]struct{}, text, lastSpeaker string) {
	names := extractNames(text)
	switch {
	case exeuntAllButRe.MatchString(text):
		// Only the named characters remain.
		for k := range present {
			delete(present, k)
		}
		for _, n := range names {
			present[n] = struct{}{}
		}
	case enterRe.MatchString(text):
		for _, n := range names {
			present[n] = struct{}{}
		}
	case exeuntRe.MatchString(text):
		if len(names) == 0 {
			// Bare "Exeunt" (or "Exeunt all"): everyone leaves.
			for k := range present {
				delete(present, k)
			}
			return
		}
		for _, n := range names {
			delete(present, n)
		}
	case exitRe.MatchString(text):
		if len(names) == 0 {
			// "Exit" with no names: the current speaker is leaving.
			if lastSpeaker != "" {
				delete(present, lastSpeaker)
			}
			return
		}
		for _, n := range names {
			delete(present, n)
		}
	}
}

func snapshot(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
