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
	"strings"
	"testing"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		content  []byte
		want     FileType
	}{
		{
			name:     "PDF by extension",
			filename: "report.PDF",
			content:  nil,
			want:     FileTypePDF,
		},
		{
			name:     "DOCX by extension",
			filename: "notes.docx",
			content:  nil,
			want:     FileTypeDOCX,
		},
		{
			name:     "XLSX by extension",
			filename: "sheet.xlsx",
			content:  nil,
			want:     FileTypeXLSX,
		},
		{
			name:     "Text by extension",
			filename: "readme.txt",
			content:  nil,
			want:     FileTypeText,
		},
		{
			name:     "PDF by magic bytes",
			filename: "download",
			content:  []byte("%PDF-1.7 rest of file"),
			want:     FileTypePDF,
		},
		{
			name:     "DOCX by zip content",
			filename: "download",
			content:  []byte("PK\x03\x04 word/document.xml"),
			want:     FileTypeDOCX,
		},
		{
			name:     "XLSX by zip content",
			filename: "download",
			content:  []byte("PK\x03\x04 xl/workbook.xml"),
			want:     FileTypeXLSX,
		},
		{
			name:     "Plain text sniffed",
			filename: "download",
			content:  []byte("just some plain text content"),
			want:     FileTypeText,
		},
		{
			name:     "Binary junk",
			filename: "download",
			content:  []byte{0x00, 0xff, 0xfe, 0x01, 0x02},
			want:     FileTypeUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Detect(tt.filename, tt.content); got != tt.want {
				t.Errorf("Detect(%q) = %q, want %q", tt.filename, got, tt.want)
			}
		})
	}
}

func TestCleanText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "Whitespace collapsed",
			in:   "hello    world\t\tagain",
			want: "hello world again",
		},
		{
			name: "Null bytes removed",
			in:   "hello\x00world",
			want: "hello world",
		},
		{
			name: "Trimmed",
			in:   "   padded   ",
			want: "padded",
		},
		{
			name: "Punctuation kept",
			in:   `Total: $1,200.50 (see notes #3) -> a@b.example`,
			want: `Total: $1,200.50 (see notes #3) -> a@b.example`,
		},
		{
			name: "Unicode letters kept",
			in:   "Straße Café 東京",
			want: "Straße Café 東京",
		},
		{
			name: "Empty",
			in:   "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanText(tt.in); got != tt.want {
				t.Errorf("CleanText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestExtractPlainText(t *testing.T) {
	pages, err := Extract("note.txt", []byte("  some   text  "))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(pages) != 1 {
		t.Fatalf("got %d pages, want 1", len(pages))
	}
	if pages[0].Number != 0 {
		t.Errorf("page number = %d, want 0 for unpaginated text", pages[0].Number)
	}
	if pages[0].Text != "some text" {
		t.Errorf("text = %q", pages[0].Text)
	}
}

func TestExtractUnknownType(t *testing.T) {
	pages, err := Extract("blob.bin", []byte{0x00, 0xff, 0x01})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if pages != nil {
		t.Errorf("expected no pages for unknown type, got %d", len(pages))
	}
}

func TestDecodeTextUTF16(t *testing.T) {
	// "hi" encoded UTF-16 little endian with BOM.
	content := []byte{0xff, 0xfe, 'h', 0x00, 'i', 0x00}
	got := decodeText(content)
	if got != "hi" {
		t.Errorf("decodeText() = %q, want %q", got, "hi")
	}
}

func TestDecodeTextLatin1(t *testing.T) {
	// 0xe9 is é in ISO-8859-1 and invalid standalone UTF-8.
	got := decodeText([]byte{'c', 'a', 'f', 0xe9})
	if got != "café" {
		t.Errorf("decodeText() = %q, want %q", got, "café")
	}
}

func TestSupportedExtensions(t *testing.T) {
	exts := SupportedExtensions()
	joined := strings.Join(exts, ",")
	for _, want := range []string{".pdf", ".docx", ".xlsx", ".txt"} {
		if !strings.Contains(joined, want) {
			t.Errorf("SupportedExtensions() missing %s: %v", want, exts)
		}
	}
}
