package parser

import "strings"

const (
	headerScanRows      = 20
	maxHeaderCandidates = 5
	minHeaderCells      = 3
	largeAmountFloor    = 10000 // 급여성 금액으로 보는 숫자 하한
	scoreFloor          = 20    // 이 점수 이하의 시트는 급여 시트로 취급하지 않음
)

// StructureAnalyzer 워크북 구조 분석기.
// 시트별 급여 가능성 점수와 헤더 행 후보를 산출한다.
type StructureAnalyzer struct {
	dict *Dictionary
}

// NewStructureAnalyzer 구조 분석기 생성
func NewStructureAnalyzer(dict *Dictionary) *StructureAnalyzer {
	return &StructureAnalyzer{dict: dict}
}

// Analyze 워크북 전체를 분석하고 주 시트를 선택한다.
// 어떤 시트도 점수 하한을 넘지 못하면 ErrNoPayrollSheet.
func (a *StructureAnalyzer) Analyze(wb *Workbook) (*AnalysisResult, error) {
	result := &AnalysisResult{MainSheet: -1}

	best := -1.0
	for _, sheet := range wb.Sheets {
		profile := a.ProfileSheet(sheet)
		result.Profiles = append(result.Profiles, profile)

		// 동점은 앞선 시트 우선
		if profile.Score > best {
			best = profile.Score
			result.MainSheet = sheet.Index
		}
	}

	if best <= scoreFloor {
		result.MainSheet = -1
		return result, ErrNoPayrollSheet
	}
	return result, nil
}

// ProfileSheet 단일 시트의 구조 메타데이터 산출
func (a *StructureAnalyzer) ProfileSheet(sheet *Sheet) SheetProfile {
	profile := SheetProfile{
		Name:   sheet.Name,
		Index:  sheet.Index,
		MaxRow: sheet.MaxRow,
		MaxCol: sheet.MaxCol,
	}

	numericCells := 0
	largeCells := 0
	for _, row := range sheet.Rows {
		for _, cell := range row {
			if cell.Kind == CellNumber {
				numericCells++
				if cell.Number > largeAmountFloor {
					largeCells++
				}
			}
		}
	}

	nameHit := sheetNameKeyword(sheet.Name, a.dict.SheetKeywords)
	profile.Score = SalaryLikelihood(largeCells, numericCells, nameHit)
	profile.HeaderCandidates = a.headerCandidates(sheet)
	profile.KeywordHits = a.keywordHits(sheet, profile.HeaderCandidates)

	return profile
}

// SalaryLikelihood 급여 시트 가능성 점수 [0,100].
// 워크북 픽스처 없이 단독 검증 가능하도록 순수 함수로 유지한다.
func SalaryLikelihood(largeNumeric, totalNumeric int, nameHasKeyword bool) float64 {
	score := 0.0
	if totalNumeric > 0 {
		score += 40 * float64(largeNumeric) / float64(totalNumeric)
	}
	if nameHasKeyword {
		score += 30
	}
	if largeNumeric > 10 {
		score += 20
	}
	if totalNumeric > 50 {
		score += 10
	}
	if score > 100 {
		score = 100
	}
	return score
}

// headerCandidates 앞쪽 행을 훑어 헤더 후보를 수집
func (a *StructureAnalyzer) headerCandidates(sheet *Sheet) []HeaderCandidate {
	var candidates []HeaderCandidate

	limit := headerScanRows
	if limit > len(sheet.Rows) {
		limit = len(sheet.Rows)
	}

	for rowIdx := 0; rowIdx < limit; rowIdx++ {
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

		if textCount+numberCount < minHeaderCells || textCount <= numberCount {
			continue
		}

		candidates = append(candidates, HeaderCandidate{
			RowIndex:    rowIdx,
			HeaderTexts: texts,
			TextCount:   textCount,
			NumberCount: numberCount,
		})
		if len(candidates) >= maxHeaderCandidates {
			break
		}
	}
	return candidates
}

// keywordHits 헤더 후보와 시트명에서 사전 별칭 적중 수집
func (a *StructureAnalyzer) keywordHits(sheet *Sheet, candidates []HeaderCandidate) []string {
	seen := make(map[string]struct{})
	var hits []string

	record := func(alias string) {
		if _, ok := seen[alias]; ok {
			return
		}
		seen[alias] = struct{}{}
		hits = append(hits, alias)
	}

	normalizedName := NormalizeHeader(sheet.Name)
	for _, spec := range a.dict.Fields {
		for _, alias := range spec.Aliases {
			if strings.Contains(normalizedName, alias) {
				record(alias)
			}
			for _, cand := range candidates {
				for _, text := range cand.HeaderTexts {
					if text == "" {
						continue
					}
					if strings.Contains(NormalizeHeader(text), alias) {
						record(alias)
					}
				}
			}
		}
	}
	return hits
}

// sheetNameKeyword 시트명이 급여 키워드를 포함하는지
func sheetNameKeyword(name string, keywords []string) bool {
	normalized := NormalizeHeader(name)
	return ContainsAny(normalized, keywords)
}
