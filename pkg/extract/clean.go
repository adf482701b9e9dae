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
	"regexp"
	"strings"
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	blankLinesRe = regexp.MustCompile(`\n\s*\n\s*\n+`)

	// Characters outside this class are OCR noise.
	artifactRe = regexp.MustCompile("[^\\p{L}\\p{N}_\\s\\-.,;:!?()\\[\\]{}\"'/\\\\@#$%^&*+=<>~`|]")
)

// CleanText normalizes extracted text: NUL bytes become spaces, runs of
// whitespace collapse to a single space, excessive blank lines collapse to
// one paragraph break, and OCR artifact characters are dropped.
func CleanText(text string) string {
	if text == "" {
		return ""
	}

	text = strings.ReplaceAll(text, "\x00", " ")
	text = whitespaceRe.ReplaceAllString(text, " ")
	text = blankLinesRe.ReplaceAllString(text, "\n\n")
	text = artifactRe.ReplaceAllString(text, " ")

	return strings.TrimSpace(text)
}
