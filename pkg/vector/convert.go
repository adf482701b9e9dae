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

package vector

import (
	"fmt"

	"github.com/qdrant/go-client/qdrant"
)

// docFilter matches points belonging to a single document.
func docFilter(docID int) *qdrant.Filter {
	return &qdrant.Filter{
		Must: []*qdrant.Condition{
			{
				ConditionOneOf: &qdrant.Condition_Field{
					Field: &qdrant.FieldCondition{
						Key: "doc_id",
						Match: &qdrant.Match{
							MatchValue: &qdrant.Match_Integer{Integer: int64(docID)},
						},
					},
				},
			},
		},
	}
}

// tagFilter matches points carrying at least one of the given tags.
func tagFilter(tags []string) *qdrant.Filter {
	return &qdrant.Filter{
		Must: []*qdrant.Condition{
			{
				ConditionOneOf: &qdrant.Condition_Field{
					Field: &qdrant.FieldCondition{
						Key: "tags",
						Match: &qdrant.Match{
							MatchValue: &qdrant.Match_Keywords{
								Keywords: &qdrant.RepeatedStrings{Strings: tags},
							},
						},
					},
				},
			},
		},
	}
}

// pointIDString renders a point id as a string. Chunk ids are UUIDs, but
// numeric ids are handled for completeness.
func pointIDString(id *qdrant.PointId) string {
	if id == nil {
		return ""
	}
	switch v := id.PointIdOptions.(type) {
	case *qdrant.PointId_Uuid:
		return v.Uuid
	case *qdrant.PointId_Num:
		return fmt.Sprintf("%d", v.Num)
	default:
		return ""
	}
}

// payloadToQdrant converts a payload map to Qdrant values. String slices
// are widened to []any, which qdrant.NewValue understands.
func payloadToQdrant(payload map[string]any) (map[string]*qdrant.Value, error) {
	converted := make(map[string]*qdrant.Value, len(payload))
	for key, value := range payload {
		if strs, ok := value.([]string); ok {
			items := make([]any, len(strs))
			for i, s := range strs {
				items[i] = s
			}
			value = items
		}

		val, err := qdrant.NewValue(value)
		if err != nil {
			return nil, fmt.Errorf("unsupported payload value for key %s: %w", key, err)
		}
		converted[key] = val
	}
	return converted, nil
}

// payloadFromQdrant converts Qdrant values back to plain Go values.
func payloadFromQdrant(payload map[string]*qdrant.Value) map[string]any {
	converted := make(map[string]any, len(payload))
	for key, value := range payload {
		converted[key] = valueToAny(value)
	}
	return converted
}

func valueToAny(value *qdrant.Value) any {
	if value == nil {
		return nil
	}
	switch v := value.Kind.(type) {
	case *qdrant.Value_StringValue:
		return v.StringValue
	case *qdrant.Value_IntegerValue:
		return v.IntegerValue
	case *qdrant.Value_DoubleValue:
		return v.DoubleValue
	case *qdrant.Value_BoolValue:
		return v.BoolValue
	case *qdrant.Value_ListValue:
		if v.ListValue == nil {
			return nil
		}
		list := make([]any, len(v.ListValue.Values))
		for i, item := range v.ListValue.Values {
			list[i] = valueToAny(item)
		}
		return list
	default:
		return nil
	}
}
