/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"playchunk/internal/domain"
)

// PDFOptions controls the chunk review report.
type PDFOptions struct {
	Title    string
	MaxWords int // printed in the header so reviewers know the budget used
}

// WriteReport renders chunks as a printable review report: one header block
// per chunk with its play, position, speakers and cast, then the chunk text.
// Built-in Helvetica keeps text vector without embedding.
func WriteReport(chunks []domain.Chunk, outPath string, opt PDFOptions) error {
	if len(chunks) == 0 {
		return fmt.Errorf("nothing to report: no chunks")
	}
	title := opt.Title
	if title == "" {
		title = "Chunk review"
	}

	pdf := gofpdf.New("P", "pt", "A4", "")
	pdf.SetTitle(title, false)
	pdf.SetAuthor("playchunk", false)
	pdf.SetMargins(48, 56, 48)
	pdf.SetAutoPageBreak(true, 56)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 20, title, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	sub := fmt.Sprintf("%d chunks", len(chunks))
	if opt.MaxWords > 0 {
		sub = fmt.Sprintf("%d chunks, max %d words each", len(chunks), opt.MaxWords)
	}
	pdf.CellFormat(0, 14, sub, "", 1, "L", false, 0, "")
	pdf.Ln(8)

	for i, c := range chunks {
		pdf.SetFont("Helvetica", "B", 11)
		head := fmt.Sprintf("%d. %s  %s.%s lines %s-%s", i+1, c.Play, c.Act, c.Scene, c.FirstLine, c.LastLine)
		pdf.CellFormat(0, 14, head, "", 1, "L", false, 0, "")

		pdf.SetFont("Helvetica", "I", 9)
		pdf.CellFormat(0, 12, "Speakers: "+joinOrDash(c.Speakers), "", 1, "L", false, 0, "")
		pdf.CellFormat(0, 12, "On stage: "+joinOrDash(c.CharactersPresent), "", 1, "L", false, 0, "")

		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(0, 12, c.PlayerLine, "", "L", false)
		pdf.Ln(10)
	}

	dir := filepath.Dir(outPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	if err := pdf.OutputFileAndClose(outPath); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func joinOrDash(names []string) string {
	if len(names) == 0 {
		return "-"
	}
	return strings.Join(names, ", ")
}
