package parser

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// dictionaryFile 고객사별 사전 덮어쓰기 파일 형식
type dictionaryFile struct {
	MinConfidence float64                `toml:"min_confidence"`
	SheetKeywords []string               `toml:"sheet_keywords"`
	Fields        []dictionaryFieldEntry `toml:"fields"`
}

type dictionaryFieldEntry struct {
	Field    string   `toml:"field"`
	Category string   `toml:"category"`
	Weight   float64  `toml:"weight"`
	Aliases  []string `toml:"aliases"`
}

// LoadDictionary TOML 사전 파일을 기본 사전 위에 병합해 반환.
// 기존 필드는 별칭 추가/가중치 덮어쓰기, 새 필드는 추가된다.
func LoadDictionary(path string) (*Dictionary, error) {
	base := DefaultDictionary()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dictionary file: %w", err)
	}

	var file dictionaryFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse dictionary file %s: %w", path, err)
	}

	fields := make([]FieldSpec, len(base.Fields))
	copy(fields, base.Fields)

	index := make(map[string]int, len(fields))
	for i, spec := range fields {
		index[spec.Field] = i
	}

	for _, entry := range file.Fields {
		if entry.Field == "" {
			continue
		}
		if i, ok := index[entry.Field]; ok {
			fields[i].Aliases = appendNewAliases(fields[i].Aliases, entry.Aliases)
			if entry.Weight > 0 {
				fields[i].Weight = entry.Weight
			}
			if entry.Category != "" {
				fields[i].Category = FieldCategory(entry.Category)
			}
			continue
		}
		if entry.Category == "" {
			return nil, fmt.Errorf("dictionary field %q: new fields require a category", entry.Field)
		}
		weight := entry.Weight
		if weight <= 0 {
			weight = 1
		}
		index[entry.Field] = len(fields)
		fields = append(fields, FieldSpec{
			Field:    entry.Field,
			Category: FieldCategory(entry.Category),
			Weight:   weight,
			Aliases:  normalizeAliases(entry.Aliases),
		})
	}

	keywords := append([]string{}, base.SheetKeywords...)
	keywords = appendNewAliases(keywords, file.SheetKeywords)

	minConfidence := base.MinConfidence
	if file.MinConfidence > 0 {
		minConfidence = file.MinConfidence
	}

	return NewDictionary(fields, keywords, minConfidence), nil
}

// appendNewAliases 정규화 후 중복 없는 별칭만 추가
func appendNewAliases(existing, added []string) []string {
	seen := make(map[string]struct{}, len(existing))
	for _, a := range existing {
		seen[a] = struct{}{}
	}
	for _, a := range normalizeAliases(added) {
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		existing = append(existing, a)
	}
	return existing
}

func normalizeAliases(aliases []string) []string {
	out := make([]string, 0, len(aliases))
	for _, a := range aliases {
		if n := NormalizeHeader(a); n != "" {
			out = append(out, n)
		}
	}
	return out
}
