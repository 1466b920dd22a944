package parser

import "testing"

func TestMap_ExactAndSubstring(t *testing.T) {
	t.Parallel()

	m := NewColumnMapper(DefaultDictionary())
	mapping := m.Map([]string{"사번", "성명", "기본급(원)", "국민연금 납부액", "실지급액"})

	wantFields := map[int]string{
		0: FieldEmployeeID,
		1: FieldName,
		2: FieldBaseSalary,
		3: FieldNationalPension,
		4: FieldNetPay,
	}
	for idx, field := range wantFields {
		mf, ok := mapping.Columns[idx]
		if !ok {
			t.Fatalf("column %d is not mapped", idx)
		}
		if mf.Field != field {
			t.Errorf("column %d = %s, want %s", idx, mf.Field, field)
		}
	}

	// 괄호 주석이 제거되면 정확 일치
	if c := mapping.Columns[2].Confidence; c != 1.0 {
		t.Errorf("기본급(원) confidence = %.2f, want 1.0", c)
	}
	// 부가 텍스트가 붙으면 부분 일치
	if c := mapping.Columns[3].Confidence; c != 0.7 {
		t.Errorf("국민연금 납부액 confidence = %.2f, want 0.7", c)
	}
}

func TestMap_FuzzyCompoundHeader(t *testing.T) {
	t.Parallel()

	m := NewColumnMapper(DefaultDictionary())
	mapping := m.Map([]string{"성명", "야간근무수당"})

	mf, ok := mapping.Columns[1]
	if !ok {
		t.Fatalf("야간근무수당 is not mapped: unmapped=%v", mapping.Unmapped)
	}
	if mf.Field != FieldNightAllowance {
		t.Errorf("field = %s, want %s", mf.Field, FieldNightAllowance)
	}
	if mf.Confidence >= 0.7 || mf.Confidence < 0.5 {
		t.Errorf("confidence = %.2f, want fuzzy range [0.5, 0.7)", mf.Confidence)
	}
}

func TestMap_UnmappedWithSuggestions(t *testing.T) {
	t.Parallel()

	m := NewColumnMapper(DefaultDictionary())
	mapping := m.Map([]string{"성명", "비고"})

	if _, ok := mapping.Columns[1]; ok {
		t.Fatal("비고 should not be mapped")
	}
	if len(mapping.Unmapped) != 1 {
		t.Fatalf("unmapped = %d, want 1", len(mapping.Unmapped))
	}
	if mapping.Unmapped[0].Header != "비고" {
		t.Errorf("unmapped header = %q, want 비고", mapping.Unmapped[0].Header)
	}
	if len(mapping.Unmapped[0].SuggestedFields) > 3 {
		t.Errorf("suggestions = %d, want <= 3", len(mapping.Unmapped[0].SuggestedFields))
	}
}

func TestMap_DuplicateFieldClaim(t *testing.T) {
	t.Parallel()

	// 정확 일치 "기본급"이 부분 일치 "기본급여액"을 이겨야 한다
	m := NewColumnMapper(DefaultDictionary())
	mapping := m.Map([]string{"기본급여액", "기본급"})

	winner, ok := mapping.Columns[1]
	if !ok {
		t.Fatal("기본급 should win the claim")
	}
	if winner.Field != FieldBaseSalary || winner.Confidence != 1.0 {
		t.Errorf("winner = %+v, want baseSalary at 1.0", winner)
	}

	if _, ok := mapping.Columns[0]; ok {
		t.Error("기본급여액 should be displaced")
	}
	if len(mapping.Unmapped) != 1 || mapping.Unmapped[0].ColumnIndex != 0 {
		t.Fatalf("unmapped = %+v, want displaced column 0", mapping.Unmapped)
	}
	if got := mapping.Unmapped[0].SuggestedFields; len(got) != 1 || got[0] != FieldBaseSalary {
		t.Errorf("suggestions = %v, want [baseSalary]", got)
	}
}

func TestMergeHeaderRows(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		primary []string
		sub     []string
		want    []string
	}{
		{
			name:    "분류어 상위 행",
			primary: []string{"성명", "수당", "", ""},
			sub:     []string{"", "식대", "연장", "야간"},
			want:    []string{"성명", "식대수당", "연장수당", "야간수당"},
		},
		{
			name:    "일반 상위 행",
			primary: []string{"근무", ""},
			sub:     []string{"일수", "시간"},
			want:    []string{"근무일수", "근무시간"},
		},
		{
			name:    "보조 행 없음",
			primary: []string{"성명", "기본급"},
			sub:     []string{"", ""},
			want:    []string{"성명", "기본급"},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := MergeHeaderRows(tt.primary, tt.sub)
			if len(got) != len(tt.want) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("merged[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestWeightedConfidence(t *testing.T) {
	t.Parallel()

	// baseSalary 는 가중치 2: 중요 필드의 낮은 신뢰도가 평균을 더 끌어내려야 한다
	m := NewColumnMapper(DefaultDictionary())

	high := m.Map([]string{"기본급", "부서명칭"})   // 중요 필드 정확, 일반 필드 부분
	low := m.Map([]string{"기본급여액", "부서"}) // 중요 필드 부분, 일반 필드 정확

	if high.Confidence <= low.Confidence {
		t.Errorf("weighted confidence: exact-important %.3f should exceed exact-minor %.3f",
			high.Confidence, low.Confidence)
	}
}
