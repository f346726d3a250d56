/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package pipeline

import "fmt"

// Errors are detected eagerly during the relevant stage and abort the whole
// run; there is no row-level skip-and-continue. Messages always name the play
// and the offending row's data index so a bad transcript can be fixed by hand.

// MalformedPositionError reports a position value that does not parse as three
// dot-separated non-negative integers. A corrupt position cannot be safely
// guessed, so the run stops.
type MalformedPositionError struct {
	Play      string
	DataIndex int
	Value     string
}

func (e *MalformedPositionError) Error() string {
	return fmt.Sprintf("malformed position %q at row %d of play %q: want Act.Scene.Line with non-negative integer parts", e.Value, e.DataIndex, e.Play)
}

// MissingInitialPositionError reports a play whose first row carries no
// position, leaving nothing for later rows to inherit.
type MissingInitialPositionError struct {
	Play      string
	DataIndex int
}

func (e *MissingInitialPositionError) Error() string {
	return fmt.Sprintf("play %q opens without a position at row %d: every play must begin with a positioned line", e.Play, e.DataIndex)
}

// InvalidConfigurationError reports a non-positive word budget. Detected
// before any processing begins.
type InvalidConfigurationError struct {
	MaxWords int
}

func (e *InvalidConfigurationError) Error() string {
	return fmt.Sprintf("invalid max words %d: must be a positive integer", e.MaxWords)
}
