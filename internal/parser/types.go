package parser

import (
	"errors"
	"time"

	"salarysync/internal/model"
)

// ErrNoPayrollSheet 급여 시트로 볼 수 있는 시트가 없음 (구조 오류, 파일 단위 치명)
var ErrNoPayrollSheet = errors.New("no payroll sheet found")

// ErrNoHeaderRow 헤더 후보 행이 없음
var ErrNoHeaderRow = errors.New("no qualifying header row found")

// ErrNoNameColumn 성명 컬럼이 매핑되지 않음. 이름 없이는 행을 식별할 수 없다.
var ErrNoNameColumn = errors.New("name column not mapped")

// HeaderCandidate 헤더 행 후보.
// 텍스트 셀 수가 숫자 셀 수를 넘고 비어있지 않은 셀이 3개 이상이어야 한다.
type HeaderCandidate struct {
	RowIndex    int      `json:"rowIndex"`
	HeaderTexts []string `json:"headerTexts"`
	TextCount   int      `json:"textCount"`
	NumberCount int      `json:"numberCount"`
}

// SheetProfile 시트별 구조 분석 결과
type SheetProfile struct {
	Name             string            `json:"name"`
	Index            int               `json:"index"`
	MaxRow           int               `json:"maxRow"`
	MaxCol           int               `json:"maxCol"`
	Score            float64           `json:"score"` // 급여 시트 가능성 [0,100]
	KeywordHits      []string          `json:"keywordHits,omitempty"`
	HeaderCandidates []HeaderCandidate `json:"headerCandidates,omitempty"`
}

// AnalysisResult 워크북 전체 구조 분석 결과
type AnalysisResult struct {
	Profiles  []SheetProfile `json:"profiles"`
	MainSheet int            `json:"mainSheet"` // 워크북 내 시트 인덱스, 없으면 -1
}

// MappedField 헤더 -> 시스템 필드 매핑 항목
type MappedField struct {
	Header      string  `json:"header"`
	Field       string  `json:"field"`
	Confidence  float64 `json:"confidence"`
	ColumnIndex int     `json:"columnIndex"`
}

// UnmappedColumn 매핑 실패한 헤더와 추천 필드
type UnmappedColumn struct {
	Header          string   `json:"header"`
	ColumnIndex     int      `json:"columnIndex"`
	SuggestedFields []string `json:"suggestedFields,omitempty"`
}

// ColumnMapping 컬럼 매핑 결과
type ColumnMapping struct {
	Columns    map[int]MappedField `json:"columns"` // 컬럼 인덱스 -> 매핑
	Unmapped   []UnmappedColumn    `json:"unmapped,omitempty"`
	Confidence float64             `json:"mappingConfidence"` // 필드 중요도 가중 평균
}

// FieldColumn 시스템 필드가 매핑된 컬럼 인덱스. 없으면 -1.
func (m *ColumnMapping) FieldColumn(field string) int {
	for idx, mf := range m.Columns {
		if mf.Field == field {
			return idx
		}
	}
	return -1
}

// ParseResult 파싱 단계의 최종 산출물
type ParseResult struct {
	SourceFile    string                 `json:"sourceFile"`
	ExtractedAt   time.Time              `json:"extractedAt"`
	SheetName     string                 `json:"sheetName"`
	Year          int                    `json:"year,omitempty"`  // 시트/파일명에서 추론, 실패 시 0
	Month         int                    `json:"month,omitempty"` // 시트/파일명에서 추론, 실패 시 0
	TotalRecords  int                    `json:"totalRecords"`
	PayrollData   []*model.PayrollRecord `json:"payrollData"`
	MappingReport *ColumnMapping         `json:"mappingReport"`
	Analysis      *AnalysisResult        `json:"analysis,omitempty"`
	Annotations   []string               `json:"annotations,omitempty"` // duplicateFileSuspect 등 주의 표시
}
