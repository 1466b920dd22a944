package parser

import (
	"errors"
	"testing"
)

func TestExtract_CoercesAndDerives(t *testing.T) {
	t.Parallel()

	dict := DefaultDictionary()
	sheet := payrollSheet("급여", 0)
	mapping := NewColumnMapper(dict).Map([]string{"사번", "성명", "부서", "기본급", "국민연금", "실지급액"})

	records, err := NewRecordExtractor(dict, 1000).Extract(sheet, 2, mapping)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("records = %d, want 3", len(records))
	}

	r := records[0]
	if r.EmployeeID != "E001" || r.Name != "김철수" || r.Department != "영업" {
		t.Fatalf("identity fields: %+v", r)
	}
	if r.BaseSalary != 3000000 {
		t.Errorf("base salary = %.0f, want 3000000", r.BaseSalary)
	}
	if r.Deductions[FieldNationalPension] != 135000 {
		t.Errorf("national pension = %.0f, want 135000", r.Deductions[FieldNationalPension])
	}
	if r.NetPay != 2865000 {
		t.Errorf("net pay = %.0f, want 2865000", r.NetPay)
	}

	// 3000000 - 135000 = 2865000: 허용 오차 내이므로 경고 없음
	if len(r.ValidationWarnings) != 0 {
		t.Errorf("warnings = %v, want none", r.ValidationWarnings)
	}
	if r.ComputedGross != 3000000 || r.GrossSalaryPreTax != 3000000 {
		t.Errorf("gross: computed %.0f, preTax %.0f", r.ComputedGross, r.GrossSalaryPreTax)
	}
	if r.CalculatedTotalDeductions != 135000 {
		t.Errorf("total deductions = %.0f, want 135000", r.CalculatedTotalDeductions)
	}
}

func TestExtract_MismatchWarningIsAdvisory(t *testing.T) {
	t.Parallel()

	dict := DefaultDictionary()
	sheet := buildSheet("급여", 0,
		cellRow("성명", "기본급", "국민연금", "실지급액"),
		cellRow("김철수", "3000000", "135000", "2000000"),
	)
	mapping := NewColumnMapper(dict).Map([]string{"성명", "기본급", "국민연금", "실지급액"})

	records, err := NewRecordExtractor(dict, 1000).Extract(sheet, 1, mapping)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}

	// 실지급액 불일치는 행을 버리지 않고 경고만 남긴다
	r := records[0]
	if len(r.ValidationWarnings) != 1 {
		t.Fatalf("warnings = %v, want exactly one", r.ValidationWarnings)
	}
	if r.NetPay != 2000000 {
		t.Errorf("net pay = %.0f, want declared value preserved", r.NetPay)
	}
}

func TestExtract_DeclaredDeductionMismatchWarning(t *testing.T) {
	t.Parallel()

	dict := DefaultDictionary()
	headers := []string{"성명", "기본급", "국민연금", "공제총액"}
	mapping := NewColumnMapper(dict).Map(headers)

	sheet := buildSheet("급여", 0,
		cellRow(headers...),
		cellRow("김철수", "3000000", "135000", "200000"),
		cellRow("이영희", "2800000", "126000", "126500"),
	)

	records, err := NewRecordExtractor(dict, 1000).Extract(sheet, 1, mapping)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}

	// 공제 합계 불일치도 지급/실지급 검증과 마찬가지로 경고만 남긴다
	r := records[0]
	if len(r.ValidationWarnings) != 1 {
		t.Fatalf("warnings = %v, want exactly one", r.ValidationWarnings)
	}
	if r.CalculatedTotalDeductions != 135000 || r.DeclaredTotalDeductions != 200000 {
		t.Errorf("deductions: calculated %.0f, declared %.0f",
			r.CalculatedTotalDeductions, r.DeclaredTotalDeductions)
	}

	// 500원 차이는 허용 오차 이내
	if w := records[1].ValidationWarnings; len(w) != 0 {
		t.Errorf("warnings = %v, want none within tolerance", w)
	}
}

func TestExtract_NonNumericCoercedToZero(t *testing.T) {
	t.Parallel()

	dict := DefaultDictionary()
	sheet := buildSheet("급여", 0,
		cellRow("성명", "기본급", "식대"),
		cellRow("김철수", "협의", "100000"),
	)
	mapping := NewColumnMapper(dict).Map([]string{"성명", "기본급", "식대"})

	records, err := NewRecordExtractor(dict, 1000).Extract(sheet, 1, mapping)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	r := records[0]
	if r.BaseSalary != 0 {
		t.Errorf("base salary = %.0f, want 0 for non-numeric cell", r.BaseSalary)
	}
	if r.Allowances[FieldMealAllowance] != 100000 {
		t.Errorf("meal allowance = %.0f, want 100000", r.Allowances[FieldMealAllowance])
	}
}

func TestExtract_StopsAfterConsecutiveEmptyRows(t *testing.T) {
	t.Parallel()

	dict := DefaultDictionary()
	sheet := buildSheet("급여", 0,
		cellRow("성명", "기본급"),
		cellRow("김철수", "3000000"),
		cellRow("", ""),
		cellRow("이영희", "2800000"), // 빈 행 1개 뒤: 계속 진행
		cellRow("", ""),
		cellRow("", ""),
		cellRow("박민수", "2500000"), // 빈 행 2개 뒤: 도달하지 않음
	)
	mapping := NewColumnMapper(dict).Map([]string{"성명", "기본급"})

	records, err := NewRecordExtractor(dict, 1000).Extract(sheet, 1, mapping)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2 (stop after two empty rows)", len(records))
	}
	if records[1].Name != "이영희" {
		t.Errorf("last record = %q, want 이영희", records[1].Name)
	}
}

func TestExtract_SkipsRowsWithoutName(t *testing.T) {
	t.Parallel()

	dict := DefaultDictionary()
	sheet := buildSheet("급여", 0,
		cellRow("성명", "기본급"),
		cellRow("김철수", "3000000"),
		cellRow("", "5800000"), // 소계 행
		cellRow("이영희", "2800000"),
	)
	mapping := NewColumnMapper(dict).Map([]string{"성명", "기본급"})

	records, err := NewRecordExtractor(dict, 1000).Extract(sheet, 1, mapping)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2 (subtotal row skipped)", len(records))
	}
}

func TestExtract_NoNameColumn(t *testing.T) {
	t.Parallel()

	dict := DefaultDictionary()
	mapping := NewColumnMapper(dict).Map([]string{"사번", "기본급"})

	_, err := NewRecordExtractor(dict, 1000).Extract(payrollSheet("급여", 0), 1, mapping)
	if !errors.Is(err, ErrNoNameColumn) {
		t.Fatalf("err = %v, want ErrNoNameColumn", err)
	}
}
