package parser

// cellRow 원본 문자열 목록을 셀 행으로 변환
func cellRow(values ...string) []Cell {
	cells := make([]Cell, len(values))
	for i, v := range values {
		cells[i] = classifyCell(v)
	}
	return cells
}

// buildSheet 문자열 그리드로 시트 구성
func buildSheet(name string, index int, rows ...[]Cell) *Sheet {
	sheet := &Sheet{Name: name, Index: index, Rows: rows, MaxRow: len(rows)}
	for _, row := range rows {
		if len(row) > sheet.MaxCol {
			sheet.MaxCol = len(row)
		}
	}
	return sheet
}

// payrollSheet 표준 6열 급여 시트 픽스처
func payrollSheet(name string, index int) *Sheet {
	return buildSheet(name, index,
		cellRow("2025년 7월 급여대장"),
		cellRow("사번", "성명", "부서", "기본급", "국민연금", "실지급액"),
		cellRow("E001", "김철수", "영업", "3000000", "135000", "2865000"),
		cellRow("E002", "이영희", "개발", "3500000", "157500", "3342500"),
		cellRow("E003", "박민수", "총무", "2800000", "126000", "2674000"),
	)
}
