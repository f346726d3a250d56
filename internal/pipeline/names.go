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
	"strings"
)

// Name extraction from stage-direction text. Transcribed directions write
// character names in capitals ("Enter HAMLET and LORD POLONIUS, with a
// torch"), so the heuristic is: split on list separators, strip the direction
// keywords, and drop lowercase words. Everything that survives is a name.

var (
	nameListSplitRe = regexp.MustCompile(`,? and |, |\. `)
	directionWordRe = regexp.MustCompile(`(?i)\b(re-enter|enter|exeunt|exit)\b`)
)

// extractNames returns the character names mentioned in a stage direction,
// uppercased and in order of appearance. Unparseable text yields an empty
// slice, never an error.
func extractNames(text string) []string {
	parts := nameListSplitRe.Split(text, -1)
	names := make([]string, 0, len(parts))
	for _, part := range parts {
		p := strings.TrimSpace(part)
		if p == "" {
			continue
		}
		hadKeyword := directionWordRe.MatchString(p)
		p = strings.TrimSpace(directionWordRe.ReplaceAllString(p, ""))
		// A fragment that is entirely lowercase is prose ("with a torch"),
		// not a name, unless it sat right next to a direction keyword.
		if !hadKeyword && p != "" && p == strings.ToLower(p) {
			continue
		}
		words := strings.Fields(p)
		kept := words[:0]
		for _, w := range words {
			if w == strings.ToLower(w) {
				continue
			}
			kept = append(kept, w)
		}
		name := strings.Trim(strings.Join(kept, " "), " .,;:")
		if name == "" {
			continue
		}
		names = append(names, strings.ToUpper(name))
	}
	return names
}
