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

// Package extract converts downloaded document files into cleaned text.
//
// Extraction works on in-memory content: paperless-ngx serves the original
// file over HTTP and nothing is written to disk. PDFs yield one entry per
// page; other formats yield a single unpaginated entry.
package extract

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"
)

// FileType identifies a supported document format.
type FileType string

const (
	FileTypePDF     FileType = "pdf"
	FileTypeDOCX    FileType = "docx"
	FileTypeXLSX    FileType = "xlsx"
	FileTypeText    FileType = "txt"
	FileTypeUnknown FileType = "unknown"
)

// Page is a unit of extracted text. Number is 1-based for paginated
// formats and 0 when the format has no page structure.
type Page struct {
	Number int
	Text   string
}

// Error reports a failed extraction.
type Error struct {
	FileType FileType // Format being parsed
	Filename string   // Original filename
	Message  string   // Error message
	Err      error    // Underlying error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("[%s] extraction failed for %s: %s", e.FileType, e.Filename, e.Message)
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Detect determines the file type from the filename extension, falling
// back to content sniffing (magic bytes, then UTF-8 validity).
func Detect(filename string, content []byte) FileType {
	name := strings.ToLower(filename)

	switch {
	case strings.HasSuffix(name, ".pdf"):
		return FileTypePDF
	case strings.HasSuffix(name, ".docx"):
		return FileTypeDOCX
	case strings.HasSuffix(name, ".xlsx"):
		return FileTypeXLSX
	case strings.HasSuffix(name, ".txt"), strings.HasSuffix(name, ".text"):
		return FileTypeText
	}

	if bytes.HasPrefix(content, []byte("%PDF")) {
		return FileTypePDF
	}

	if bytes.HasPrefix(content, []byte("PK\x03\x04")) {
		head := content
		if len(head) > 1024 {
			head = head[:1024]
		}
		if bytes.Contains(head, []byte("word/")) {
			return FileTypeDOCX
		}
		if bytes.Contains(head, []byte("xl/")) {
			return FileTypeXLSX
		}
	}

	head := content
	if len(head) > 1024 {
		head = head[:1024]
	}
	if utf8.Valid(head) {
		return FileTypeText
	}

	return FileTypeUnknown
}

// Extract parses the file content and returns cleaned text pages.
// Unsupported formats return no pages and no error; callers treat an
// empty result as "nothing to index".
func Extract(filename string, content []byte) ([]Page, error) {
	switch Detect(filename, content) {
	case FileTypePDF:
		return extractPDF(filename, content)

	case FileTypeDOCX:
		text, err := extractDOCX(filename, content)
		if err != nil {
			return nil, err
		}
		return singlePage(text), nil

	case FileTypeXLSX:
		text, err := extractXLSX(filename, content)
		if err != nil {
			return nil, err
		}
		return singlePage(text), nil

	case FileTypeText:
		return singlePage(CleanText(decodeText(content))), nil

	default:
		return nil, nil
	}
}

// SupportedExtensions returns the file extensions Extract understands.
func SupportedExtensions() []string {
	return []string{".pdf", ".docx", ".xlsx", ".txt", ".text"}
}

func singlePage(text string) []Page {
	if text == "" {
		return nil
	}
	return []Page{{Number: 0, Text: text}}
}
