package parser

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// CellKind 셀 값 종류
type CellKind int

const (
	CellEmpty CellKind = iota
	CellText
	CellNumber
)

// Cell 타입이 붙은 셀 값. 숫자 셀은 Number, 문자 셀은 Text 를 사용한다.
type Cell struct {
	Kind   CellKind
	Text   string  // 원본 문자열 (빈 셀은 "")
	Number float64 // Kind == CellNumber 일 때만 유효
}

// IsEmpty 빈 셀 여부
func (c Cell) IsEmpty() bool {
	return c.Kind == CellEmpty
}

// String 셀의 문자열 표현
func (c Cell) String() string {
	return c.Text
}

// Sheet 워크북의 단일 시트. 2차원 셀 그리드와 경계 범위를 가진다.
type Sheet struct {
	Name   string
	Index  int
	Rows   [][]Cell
	MaxRow int
	MaxCol int
}

// Cell 좌표의 셀을 반환. 범위를 벗어나면 빈 셀.
func (s *Sheet) Cell(row, col int) Cell {
	if row < 0 || row >= len(s.Rows) {
		return Cell{}
	}
	if col < 0 || col >= len(s.Rows[row]) {
		return Cell{}
	}
	return s.Rows[row][col]
}

// Workbook 분석 요청 동안 불변으로 취급되는 시트 목록
type Workbook struct {
	Sheets []*Sheet
}

// LoadWorkbook 바이트 버퍼에서 워크북을 읽어 셀 그리드로 변환
func LoadWorkbook(data []byte) (*Workbook, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	wb := &Workbook{}
	for idx, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %q: %w", name, err)
		}

		sheet := &Sheet{Name: name, Index: idx}
		for _, row := range rows {
			cells := make([]Cell, len(row))
			for i, raw := range row {
				cells[i] = classifyCell(raw)
			}
			if len(row) > sheet.MaxCol {
				sheet.MaxCol = len(row)
			}
			sheet.Rows = append(sheet.Rows, cells)
		}
		sheet.MaxRow = len(sheet.Rows)
		wb.Sheets = append(wb.Sheets, sheet)
	}

	if len(wb.Sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	return wb, nil
}

// classifyCell 원본 문자열을 태그 붙은 셀로 분류
func classifyCell(raw string) Cell {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Cell{}
	}
	if v, ok := parseNumeric(trimmed); ok {
		return Cell{Kind: CellNumber, Text: trimmed, Number: v}
	}
	return Cell{Kind: CellText, Text: trimmed}
}

// parseNumeric 천단위 구분자와 통화 기호를 허용하는 숫자 파싱
func parseNumeric(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimPrefix(s, "₩")
	s = strings.TrimSuffix(s, "원")
	if s == "" || s == "-" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
