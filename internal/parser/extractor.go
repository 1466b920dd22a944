package parser

import (
	"fmt"
	"math"

	"salarysync/internal/model"
)

const emptyRowStop = 2 // 연속 빈 행이 이 수에 도달하면 표 종료로 간주

// RecordExtractor 매핑된 헤더 아래 데이터 행을 순회하며 급여 레코드를 추출.
// 추출은 관대하게 진행하고 산술 불일치는 경고로만 표시한다.
type RecordExtractor struct {
	dict      *Dictionary
	tolerance float64 // 총액 대사 허용 오차 (통화 최소 단위)
}

// NewRecordExtractor 레코드 추출기 생성
func NewRecordExtractor(dict *Dictionary, tolerance float64) *RecordExtractor {
	return &RecordExtractor{dict: dict, tolerance: tolerance}
}

// Extract 헤더 행 아래의 데이터 행을 추출.
// dataStart 는 첫 데이터 행 인덱스 (병합 헤더면 보조 행 다음).
func (e *RecordExtractor) Extract(sheet *Sheet, dataStart int, mapping *ColumnMapping) ([]*model.PayrollRecord, error) {
	nameCol := mapping.FieldColumn(FieldName)
	if nameCol < 0 {
		return nil, ErrNoNameColumn
	}

	var records []*model.PayrollRecord
	emptyStreak := 0

	for rowIdx := dataStart; rowIdx < sheet.MaxRow; rowIdx++ {
		row := sheet.Rows[rowIdx]

		if rowIsEmpty(row) {
			emptyStreak++
			if emptyStreak >= emptyRowStop {
				break
			}
			continue
		}
		emptyStreak = 0

		// 성명 없는 행은 소계/공백 행으로 간주하고 건너뛴다
		nameCell := sheet.Cell(rowIdx, nameCol)
		if nameCell.IsEmpty() || nameCell.Text == "" {
			continue
		}

		records = append(records, e.extractRow(sheet, rowIdx, mapping))
	}

	return records, nil
}

// extractRow 단일 데이터 행을 급여 레코드로 변환
func (e *RecordExtractor) extractRow(sheet *Sheet, rowIdx int, mapping *ColumnMapping) *model.PayrollRecord {
	record := &model.PayrollRecord{
		RowIndex:   rowIdx,
		Allowances: make(map[string]float64),
		Deductions: make(map[string]float64),
	}

	for colIdx, mf := range mapping.Columns {
		cell := sheet.Cell(rowIdx, colIdx)
		e.setFieldValue(record, mf.Field, cell)
	}

	e.computeDerived(record)
	return record
}

// setFieldValue 셀 값을 카테고리에 맞는 타입으로 읽어 필드에 기록.
// 숫자 필드의 비숫자/빈 셀은 0, 텍스트 필드의 빈 셀은 빈 문자열로 강제한다.
func (e *RecordExtractor) setFieldValue(record *model.PayrollRecord, field string, cell Cell) {
	switch e.dict.CategoryOf(field) {
	case CategoryIdentity:
		switch field {
		case FieldEmployeeID:
			record.EmployeeID = cell.Text
		case FieldName:
			record.Name = cell.Text
		case FieldDepartment:
			record.Department = cell.Text
		case FieldJobType:
			record.JobType = cell.Text
		}

	case CategoryBasePay:
		record.BaseSalary = numericValue(cell)

	case CategoryAllowance:
		record.Allowances[field] = numericValue(cell)

	case CategoryDeduction:
		record.Deductions[field] = numericValue(cell)

	case CategorySummary:
		switch field {
		case FieldGrossSalary:
			record.DeclaredGross = numericValue(cell)
		case FieldTotalDeductions:
			record.DeclaredTotalDeductions = numericValue(cell)
		case FieldNetPay:
			record.NetPay = numericValue(cell)
		}

	case CategoryAttendance:
		switch field {
		case FieldWorkDays:
			record.WorkDays = numericValue(cell)
		case FieldOvertimeHours:
			record.OvertimeHours = numericValue(cell)
		}
	}
}

// computeDerived 파생 합계 계산과 산술 검증
func (e *RecordExtractor) computeDerived(record *model.PayrollRecord) {
	for _, v := range record.Allowances {
		record.TotalAllowances += v
	}
	for _, v := range record.Deductions {
		record.CalculatedTotalDeductions += v
	}

	record.ComputedGross = record.BaseSalary + record.TotalAllowances

	// 시트에 명시된 지급총액이 있으면 그 값을 우선하되 둘 다 보존
	record.GrossSalaryPreTax = record.ComputedGross
	if record.DeclaredGross != 0 {
		record.GrossSalaryPreTax = record.DeclaredGross
	}

	if record.DeclaredGross != 0 {
		if diff := math.Abs(record.ComputedGross - record.DeclaredGross); diff > e.tolerance {
			record.ValidationWarnings = append(record.ValidationWarnings,
				fmt.Sprintf("gross mismatch: computed %.0f, declared %.0f (diff %.0f)",
					record.ComputedGross, record.DeclaredGross, diff))
		}
	}

	if record.DeclaredTotalDeductions != 0 {
		if diff := math.Abs(record.CalculatedTotalDeductions - record.DeclaredTotalDeductions); diff > e.tolerance {
			record.ValidationWarnings = append(record.ValidationWarnings,
				fmt.Sprintf("deduction mismatch: computed %.0f, declared %.0f (diff %.0f)",
					record.CalculatedTotalDeductions, record.DeclaredTotalDeductions, diff))
		}
	}

	if record.NetPay != 0 {
		expected := record.GrossSalaryPreTax - record.CalculatedTotalDeductions
		if diff := math.Abs(record.NetPay - expected); diff > e.tolerance {
			record.ValidationWarnings = append(record.ValidationWarnings,
				fmt.Sprintf("net pay mismatch: declared %.0f, expected %.0f (diff %.0f)",
					record.NetPay, expected, diff))
		}
	}
}

// numericValue 숫자 강제 변환. 비숫자/빈 셀은 0.
func numericValue(cell Cell) float64 {
	switch cell.Kind {
	case CellNumber:
		return cell.Number
	case CellText:
		if v, ok := parseNumeric(cell.Text); ok {
			return v
		}
	}
	return 0
}

// rowIsEmpty 행 전체가 빈 셀인지
func rowIsEmpty(row []Cell) bool {
	for _, cell := range row {
		if !cell.IsEmpty() {
			return false
		}
	}
	return true
}
