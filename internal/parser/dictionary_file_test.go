package parser

import (
	"os"
	"path/filepath"
	"testing"
)

func writeDictionaryFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dictionary.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write dictionary: %v", err)
	}
	return path
}

func TestLoadDictionary_MergesOverDefault(t *testing.T) {
	t.Parallel()

	path := writeDictionaryFile(t, `
min_confidence = 0.6
sheet_keywords = ["봉급"]

[[fields]]
field = "baseSalary"
aliases = ["본봉"]

[[fields]]
field = "carAllowance"
category = "allowance"
aliases = ["차량유지비", "차량 유지비"]
`)

	dict, err := LoadDictionary(path)
	if err != nil {
		t.Fatalf("load dictionary: %v", err)
	}

	if dict.MinConfidence != 0.6 {
		t.Errorf("min confidence = %.2f, want 0.6", dict.MinConfidence)
	}
	if !ContainsAny("봉급명세", dict.SheetKeywords) {
		t.Error("added sheet keyword missing")
	}

	base := dict.Lookup(FieldBaseSalary)
	if base == nil {
		t.Fatal("baseSalary missing after merge")
	}
	found := false
	for _, a := range base.Aliases {
		if a == "본봉" {
			found = true
		}
	}
	if !found {
		t.Errorf("본봉 not merged into baseSalary aliases: %v", base.Aliases)
	}
	if base.Weight != 2 {
		t.Errorf("weight = %.0f, default weight must survive the merge", base.Weight)
	}

	car := dict.Lookup("carAllowance")
	if car == nil {
		t.Fatal("new field carAllowance missing")
	}
	if car.Category != CategoryAllowance {
		t.Errorf("category = %s, want allowance", car.Category)
	}

	// 내장 사전이 훼손되지 않았는지: 병합된 사전으로 매핑도 동작해야 한다
	mapping := NewColumnMapper(dict).Map([]string{"성명", "본봉", "차량유지비"})
	if mapping.Columns[1].Field != FieldBaseSalary {
		t.Errorf("본봉 mapped to %s, want baseSalary", mapping.Columns[1].Field)
	}
	if mapping.Columns[2].Field != "carAllowance" {
		t.Errorf("차량유지비 mapped to %s, want carAllowance", mapping.Columns[2].Field)
	}
}

func TestLoadDictionary_NewFieldRequiresCategory(t *testing.T) {
	t.Parallel()

	path := writeDictionaryFile(t, `
[[fields]]
field = "mysteryPay"
aliases = ["알수없음"]
`)

	if _, err := LoadDictionary(path); err == nil {
		t.Fatal("expected error for new field without category")
	}
}

func TestLoadDictionary_MissingFile(t *testing.T) {
	t.Parallel()

	if _, err := LoadDictionary(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
