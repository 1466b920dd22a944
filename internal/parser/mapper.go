package parser

import (
	"sort"
	"strings"
)

const (
	confidenceExact     = 1.0
	confidenceSubstring = 0.7
	maxSuggestions      = 3
)

// 병합 헤더에서 상위 행이 분류어일 때 하위 토큰을 앞에 붙인다.
// 예: 상위 "수당" + 하위 "식대" -> "식대수당"
var categoryHeaderWords = []string{"수당", "공제", "지급액", "공제액", "보험"}

// ColumnMapper 헤더 텍스트를 표준 시스템 필드로 매핑
type ColumnMapper struct {
	dict *Dictionary
}

// NewColumnMapper 컬럼 매퍼 생성
func NewColumnMapper(dict *Dictionary) *ColumnMapper {
	return &ColumnMapper{dict: dict}
}

// MergeHeaderRows 주 헤더 행과 보조 헤더 행을 토큰 단위로 병합.
// 병합 셀로 비어 있는 주 헤더는 직전 값을 이어받는다.
func MergeHeaderRows(primary, sub []string) []string {
	n := len(primary)
	if len(sub) > n {
		n = len(sub)
	}

	merged := make([]string, n)
	lastPrimary := ""
	for i := 0; i < n; i++ {
		p := ""
		if i < len(primary) {
			p = strings.TrimSpace(primary[i])
		}
		if p != "" {
			lastPrimary = p
		} else {
			p = lastPrimary
		}

		s := ""
		if i < len(sub) {
			s = strings.TrimSpace(sub[i])
		}

		switch {
		case s == "":
			merged[i] = p
		case p == "":
			merged[i] = s
		case ContainsAny(p, categoryHeaderWords):
			merged[i] = s + p
		default:
			merged[i] = p + s
		}
	}
	return merged
}

// Map 헤더 목록을 컬럼 매핑으로 변환.
// 정확 일치 -> 부분 문자열 -> 토큰 중첩 순으로 시도하고,
// 같은 시스템 필드를 두 헤더가 주장하면 신뢰도가 높은 쪽이 가져간다.
func (m *ColumnMapper) Map(headers []string) *ColumnMapping {
	mapping := &ColumnMapping{Columns: make(map[int]MappedField)}

	// 필드 -> 현재 승자 컬럼
	claims := make(map[string]int)

	for idx, raw := range headers {
		normalized := NormalizeHeader(raw)
		if normalized == "" {
			continue
		}

		field, confidence := m.bestMatch(normalized)
		if field == "" || confidence < m.dict.MinConfidence {
			mapping.Unmapped = append(mapping.Unmapped, UnmappedColumn{
				Header:          raw,
				ColumnIndex:     idx,
				SuggestedFields: m.suggest(normalized),
			})
			continue
		}

		if winnerIdx, claimed := claims[field]; claimed {
			winner := mapping.Columns[winnerIdx]
			if confidence > winner.Confidence {
				// 기존 승자를 밀어내고 추천 필드로 남긴다
				delete(mapping.Columns, winnerIdx)
				mapping.Unmapped = append(mapping.Unmapped, UnmappedColumn{
					Header:          winner.Header,
					ColumnIndex:     winnerIdx,
					SuggestedFields: []string{field},
				})
			} else {
				mapping.Unmapped = append(mapping.Unmapped, UnmappedColumn{
					Header:          raw,
					ColumnIndex:     idx,
					SuggestedFields: []string{field},
				})
				continue
			}
		}

		claims[field] = idx
		mapping.Columns[idx] = MappedField{
			Header:      raw,
			Field:       field,
			Confidence:  confidence,
			ColumnIndex: idx,
		}
	}

	mapping.Confidence = m.weightedConfidence(mapping)
	return mapping
}

// bestMatch 정규화된 헤더에 대한 최적 필드와 신뢰도
func (m *ColumnMapper) bestMatch(header string) (string, float64) {
	// 1) 정확 일치
	for _, spec := range m.dict.Fields {
		for _, alias := range spec.Aliases {
			if header == alias {
				return spec.Field, confidenceExact
			}
		}
	}

	// 2) 부분 문자열 포함 (가장 긴 별칭 우선)
	bestField := ""
	bestLen := 0
	for _, spec := range m.dict.Fields {
		for _, alias := range spec.Aliases {
			if strings.Contains(header, alias) && len(alias) > bestLen {
				bestField = spec.Field
				bestLen = len(alias)
			}
		}
	}
	if bestField != "" {
		return bestField, confidenceSubstring
	}

	// 3) 퍼지 토큰 중첩
	bestField = ""
	bestRatio := 0.0
	for _, spec := range m.dict.Fields {
		for _, alias := range spec.Aliases {
			if r := TokenOverlap(header, alias); r > bestRatio {
				bestField = spec.Field
				bestRatio = r
			}
		}
	}
	if bestRatio >= m.dict.MinConfidence {
		return bestField, bestRatio
	}
	return "", 0
}

// suggest 토큰 중첩 기준 상위 추천 필드
func (m *ColumnMapper) suggest(header string) []string {
	type scored struct {
		field string
		ratio float64
	}
	var ranked []scored
	for _, spec := range m.dict.Fields {
		best := 0.0
		for _, alias := range spec.Aliases {
			if r := TokenOverlap(header, alias); r > best {
				best = r
			}
		}
		if best > 0 {
			ranked = append(ranked, scored{spec.Field, best})
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].ratio > ranked[j].ratio })

	var fields []string
	for i := 0; i < len(ranked) && i < maxSuggestions; i++ {
		fields = append(fields, ranked[i].field)
	}
	return fields
}

// weightedConfidence 필드 중요도 가중 평균 신뢰도
func (m *ColumnMapper) weightedConfidence(mapping *ColumnMapping) float64 {
	sum, weightSum := 0.0, 0.0
	for _, mf := range mapping.Columns {
		w := m.dict.WeightOf(mf.Field)
		sum += mf.Confidence * w
		weightSum += w
	}
	if weightSum == 0 {
		return 0
	}
	return sum / weightSum
}
