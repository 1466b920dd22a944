package parser

import (
	"fmt"
	"time"
)

// Parser 급여 스프레드시트 파서.
// 구조 분석 -> 컬럼 매핑 -> 레코드 추출을 순서대로 수행하는 순수 파이프라인으로,
// 저장소 접근 없이 파일 단위로 병렬 실행할 수 있다.
type Parser struct {
	dict      *Dictionary
	analyzer  *StructureAnalyzer
	mapper    *ColumnMapper
	extractor *RecordExtractor
}

// NewParser 파서 생성. tolerance 는 총액 대사 허용 오차.
func NewParser(dict *Dictionary, tolerance float64) *Parser {
	return &Parser{
		dict:      dict,
		analyzer:  NewStructureAnalyzer(dict),
		mapper:    NewColumnMapper(dict),
		extractor: NewRecordExtractor(dict, tolerance),
	}
}

// ParseBytes 바이트 버퍼의 워크북을 파싱해 결과를 반환
func (p *Parser) ParseBytes(data []byte, sourceFile string) (*ParseResult, error) {
	wb, err := LoadWorkbook(data)
	if err != nil {
		return nil, err
	}
	return p.ParseWorkbook(wb, sourceFile)
}

// ParseWorkbook 주 시트를 선택하고 레코드를 추출
func (p *Parser) ParseWorkbook(wb *Workbook, sourceFile string) (*ParseResult, error) {
	analysis, err := p.analyzer.Analyze(wb)
	if err != nil {
		return nil, err
	}

	sheet := wb.Sheets[analysis.MainSheet]
	profile := analysis.Profiles[analysis.MainSheet]
	if len(profile.HeaderCandidates) == 0 {
		return nil, ErrNoHeaderRow
	}

	mapping, dataStart := p.chooseHeader(sheet, profile.HeaderCandidates)

	records, err := p.extractor.Extract(sheet, dataStart, mapping)
	if err != nil {
		return nil, fmt.Errorf("extract sheet %q: %w", sheet.Name, err)
	}

	result := &ParseResult{
		SourceFile:    sourceFile,
		ExtractedAt:   time.Now(),
		SheetName:     sheet.Name,
		TotalRecords:  len(records),
		PayrollData:   records,
		MappingReport: mapping,
		Analysis:      analysis,
	}

	// 연월 추론: 시트명 우선, 다음 파일명
	if y, m, ok := ExtractYearMonth(sheet.Name); ok {
		result.Year, result.Month = y, m
	} else if y, m, ok := ExtractYearMonth(sourceFile); ok {
		result.Year, result.Month = y, m
	}

	return result, nil
}

// chooseHeader 헤더 후보별 매핑을 비교해 최적 헤더를 고른다.
// 바로 다음 행도 헤더 후보이면 토큰 병합 헤더를 함께 평가한다.
func (p *Parser) chooseHeader(sheet *Sheet, candidates []HeaderCandidate) (*ColumnMapping, int) {
	type attempt struct {
		mapping   *ColumnMapping
		dataStart int
	}

	best := attempt{}
	better := func(a attempt) bool {
		if best.mapping == nil {
			return true
		}
		if len(a.mapping.Columns) != len(best.mapping.Columns) {
			return len(a.mapping.Columns) > len(best.mapping.Columns)
		}
		return a.mapping.Confidence > best.mapping.Confidence
	}

	for _, cand := range candidates {
		plain := attempt{
			mapping:   p.mapper.Map(cand.HeaderTexts),
			dataStart: cand.RowIndex + 1,
		}
		if better(plain) {
			best = plain
		}

		// 바로 아래 행이 헤더성 행이면 토큰 병합 헤더도 평가한다.
		// 보조 행은 병합 셀 탓에 셀 수가 적어 단독 후보 기준을 못 넘는 경우가 많다.
		if sub, ok := subHeaderTexts(sheet, cand.RowIndex+1); ok {
			merged := attempt{
				mapping:   p.mapper.Map(MergeHeaderRows(cand.HeaderTexts, sub)),
				dataStart: cand.RowIndex + 2,
			}
			if better(merged) {
				best = merged
			}
		}
	}

	return best.mapping, best.dataStart
}

// subHeaderTexts 보조 헤더로 쓸 수 있는 행이면 텍스트 목록을 반환.
// 텍스트 셀이 숫자 셀보다 많아야 한다 (데이터 행과의 병합 방지).
func subHeaderTexts(sheet *Sheet, rowIdx int) ([]string, bool) {
	if rowIdx < 0 || rowIdx >= len(sheet.Rows) {
		return nil, false
	}

	textCount, numberCount := 0, 0
	var texts []string
	for _, cell := range sheet.Rows[rowIdx] {
		switch cell.Kind {
		case CellText:
			textCount++
		case CellNumber:
			numberCount++
		}
		texts = append(texts, cell.Text)
	}
	if textCount == 0 || textCount <= numberCount {
		return nil, false
	}
	return texts, true
}
