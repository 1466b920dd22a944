package parser

import (
	"errors"
	"testing"
)

func TestSalaryLikelihood(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		largeNumeric int
		totalNumeric int
		keyword      bool
		want         float64
	}{
		{"숫자 없음", 0, 0, false, 0},
		{"키워드만", 0, 0, true, 30},
		{"전부 큰 금액", 9, 9, false, 40},
		{"큰 금액 + 키워드", 9, 9, true, 70},
		{"대형 시트 만점", 60, 60, true, 100},
		{"작은 숫자 위주", 1, 100, false, 10.4},
		{"비율만 반영", 1, 40, false, 1},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := SalaryLikelihood(tt.largeNumeric, tt.totalNumeric, tt.keyword)
			if got != tt.want {
				t.Errorf("SalaryLikelihood(%d, %d, %v) = %.2f, want %.2f",
					tt.largeNumeric, tt.totalNumeric, tt.keyword, got, tt.want)
			}
		})
	}
}

func TestAnalyze_PicksPayrollSheet(t *testing.T) {
	t.Parallel()

	wb := &Workbook{Sheets: []*Sheet{
		buildSheet("표지", 0, cellRow("안내문")),
		payrollSheet("2025년 7월 급여", 1),
	}}

	a := NewStructureAnalyzer(DefaultDictionary())
	result, err := a.Analyze(wb)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if result.MainSheet != 1 {
		t.Fatalf("main sheet = %d, want 1", result.MainSheet)
	}
	if len(result.Profiles) != 2 {
		t.Fatalf("profiles = %d, want 2", len(result.Profiles))
	}

	main := result.Profiles[1]
	if main.Score <= 20 {
		t.Errorf("payroll sheet score = %.1f, want > 20", main.Score)
	}
	if len(main.HeaderCandidates) == 0 {
		t.Error("payroll sheet has no header candidates")
	}
}

func TestAnalyze_NoPayrollSheet(t *testing.T) {
	t.Parallel()

	wb := &Workbook{Sheets: []*Sheet{
		buildSheet("메모", 0,
			cellRow("회의록"),
			cellRow("참석자", "안건", "결론"),
		),
	}}

	a := NewStructureAnalyzer(DefaultDictionary())
	result, err := a.Analyze(wb)
	if !errors.Is(err, ErrNoPayrollSheet) {
		t.Fatalf("err = %v, want ErrNoPayrollSheet", err)
	}
	if result.MainSheet != -1 {
		t.Errorf("main sheet = %d, want -1", result.MainSheet)
	}
}

func TestAnalyze_TieBreaksToEarlierSheet(t *testing.T) {
	t.Parallel()

	// 동일 구조의 시트 둘: 앞선 시트가 주 시트가 되어야 한다
	wb := &Workbook{Sheets: []*Sheet{
		payrollSheet("급여 1월", 0),
		payrollSheet("급여 2월", 1),
	}}

	a := NewStructureAnalyzer(DefaultDictionary())
	result, err := a.Analyze(wb)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if result.MainSheet != 0 {
		t.Errorf("main sheet = %d, want 0", result.MainSheet)
	}
}

func TestHeaderCandidates_RejectNumericRows(t *testing.T) {
	t.Parallel()

	sheet := payrollSheet("급여", 0)
	a := NewStructureAnalyzer(DefaultDictionary())
	candidates := a.headerCandidates(sheet)

	if len(candidates) != 1 {
		t.Fatalf("candidates = %d, want 1", len(candidates))
	}
	if candidates[0].RowIndex != 1 {
		t.Errorf("header row = %d, want 1", candidates[0].RowIndex)
	}
}
