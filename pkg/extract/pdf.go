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
	"fmt"
	"log/slog"

	"github.com/ledongthuc/pdf"
)

// extractPDF returns one cleaned Page per PDF page that contains text.
// Pages that fail to extract are skipped rather than failing the document.
func extractPDF(filename string, content []byte) (pages []Page, err error) {
	// The pdf package panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = &Error{FileType: FileTypePDF, Filename: filename, Message: fmt.Sprintf("parser panic: %v", r)}
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, &Error{FileType: FileTypePDF, Filename: filename, Message: "failed to parse PDF", Err: err}
	}

	totalPages := reader.NumPage()
	for pageNum := 1; pageNum <= totalPages; pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			slog.Warn("Failed to extract PDF page", "file", filename, "page", pageNum, "error", err)
			continue
		}

		if cleaned := CleanText(text); cleaned != "" {
			pages = append(pages, Page{Number: pageNum, Text: cleaned})
		}
	}

	return pages, nil
}
