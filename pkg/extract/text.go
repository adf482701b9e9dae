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
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// Legacy encodings tried in order after UTF-8 fails. Windows-1252 is last
// because Latin-1 decodes any byte sequence.
var fallbackEncodings = []encoding.Encoding{
	unicode.UTF16(unicode.LittleEndian, unicode.UseBOM),
	charmap.ISO8859_1,
	charmap.Windows1252,
}

// decodeText converts raw file bytes to a string, trying UTF-8 first and
// then the legacy encoding chain. As a last resort invalid UTF-8 bytes are
// replaced.
func decodeText(content []byte) string {
	if utf8.Valid(content) {
		// UTF-16 content with a BOM is not valid UTF-8, so this branch is
		// safe for genuine UTF-8 files.
		return string(content)
	}

	if hasUTF16BOM(content) {
		decoder := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
		if decoded, err := decoder.Bytes(content); err == nil && utf8.Valid(decoded) {
			return string(decoded)
		}
	}

	for _, enc := range fallbackEncodings[1:] {
		if decoded, err := enc.NewDecoder().Bytes(content); err == nil && utf8.Valid(decoded) {
			return string(decoded)
		}
	}

	return strings.ToValidUTF8(string(content), "�")
}

func hasUTF16BOM(content []byte) bool {
	if len(content) < 2 {
		return false
	}
	return (content[0] == 0xFF && content[1] == 0xFE) || (content[0] == 0xFE && content[1] == 0xFF)
}
