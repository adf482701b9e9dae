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

package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultGateKeywords is the built-in list of terms that mark a question
// as being about the document corpus. Queries containing none of these
// skip retrieval entirely.
var DefaultGateKeywords = []string{
	"project", "document", "construction", "methodology", "procedure",
	"specification", "requirement", "helipad", "warehouse", "port",
	"yanbu", "kkmc", "neom", "progress", "report", "contract",
	"personnel", "team", "engineer", "safety", "quality",
}

// gateKeywordsFile is the YAML shape of a keyword override file.
type gateKeywordsFile struct {
	Keywords []string `yaml:"keywords"`
}

// LoadGateKeywords returns the retrieval-gate keyword list. When path is
// empty the built-in list is returned; otherwise the YAML file at path
// replaces it.
func LoadGateKeywords(path string) ([]string, error) {
	if path == "" {
		return DefaultGateKeywords, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read keywords file %s: %w", path, err)
	}

	var file gateKeywordsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse keywords file %s: %w", path, err)
	}

	keywords := make([]string, 0, len(file.Keywords))
	for _, kw := range file.Keywords {
		if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
			keywords = append(keywords, kw)
		}
	}

	if len(keywords) == 0 {
		return nil, fmt.Errorf("keywords file %s contains no keywords", path)
	}

	return keywords, nil
}
