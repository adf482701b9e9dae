// Copyright 2025 The Paperless RAG Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package extract

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/nguyenthenguyen/docx"
	"github.com/xuri/excelize/v2"
)

var (
	// Paragraph and row boundaries in the document XML, kept as line breaks
	// so table rows survive tag stripping.
	docxBreakRe = regexp.MustCompile(`</w:p>|</w:tr>`)
	xmlTagRe    = regexp.MustCompile(`<[^>]+>`)
)

// extractDOCX returns the cleaned text of a Word document. Paragraphs are
// separated by line breaks; table cells within a row are joined with " | ".
func extractDOCX(filename string, content []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", &Error{FileType: FileTypeDOCX, Filename: filename, Message: "failed to parse DOCX", Err: err}
	}
	defer doc.Close()

	raw := doc.Editable().GetContent()

	raw = docxBreakRe.ReplaceAllString(raw, "\n")
	raw = strings.ReplaceAll(raw, "</w:tc>", " | ")
	raw = xmlTagRe.ReplaceAllString(raw, "")

	var lines []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSuffix(strings.TrimSpace(line), "|")
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}

	return CleanText(strings.Join(lines, "\n")), nil
}

// extractXLSX returns the cleaned cell contents of a spreadsheet, one
// sheet after another with rows joined by " | ".
func extractXLSX(filename string, content []byte) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return "", &Error{FileType: FileTypeXLSX, Filename: filename, Message: "failed to parse XLSX", Err: err}
	}
	defer f.Close()

	var parts []string
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			continue
		}

		var sheetLines []string
		for _, row := range rows {
			var cells []string
			for _, cell := range row {
				if cell = strings.TrimSpace(cell); cell != "" {
					cells = append(cells, cell)
				}
			}
			if len(cells) > 0 {
				sheetLines = append(sheetLines, strings.Join(cells, " | "))
			}
		}

		if len(sheetLines) > 0 {
			parts = append(parts, "Sheet: "+sheet+"\n"+strings.Join(sheetLines, "\n"))
		}
	}

	return CleanText(strings.Join(parts, "\n\n")), nil
}
