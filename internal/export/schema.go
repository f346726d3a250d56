/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	_ "embed"
	"fmt"
	"os"

	gojsonschema "github.com/xeipuuv/gojsonschema"
)

//go:embed chunks.schema.json
var chunkSchema []byte

// ValidateBytes checks that data conforms to the chunk file schema.
// The returned slice lists one message per violation; it is nil when valid.
func ValidateBytes(data []byte) ([]string, error) {
	schemaLoader := gojsonschema.NewBytesLoader(chunkSchema)
	docLoader := gojsonschema.NewBytesLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		return nil, fmt.Errorf("schema validate: %w", err)
	}
	if result.Valid() {
		return nil, nil
	}
	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return msgs, nil
}

// ValidateFile checks a chunk file on disk against the schema.
func ValidateFile(path string) ([]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read chunk file: %w", err)
	}
	return ValidateBytes(b)
}
