package reconcile

import (
	"errors"

	"salarysync/internal/model"
)

// Strategy 배치 단위 충돌 해소 전략
type Strategy string

const (
	StrategyUpsert         Strategy = "UPSERT"
	StrategySkip           Strategy = "SKIP"
	StrategyMerge          Strategy = "MERGE"
	StrategyVersionArchive Strategy = "VERSION_ARCHIVE"
	StrategyManualReview   Strategy = "MANUAL_REVIEW"
)

// Classification 기존 데이터 대비 수신 항목의 분류
type Classification string

const (
	ClassificationNew       Classification = "NEW"
	ClassificationIdentical Classification = "IDENTICAL"
	ClassificationConflict  Classification = "CONFLICT"
)

// Resolution 충돌 레코드의 처리 결과
type Resolution string

const (
	ResolutionUpsert       Resolution = "UPSERT"
	ResolutionSkip         Resolution = "SKIP"
	ResolutionMerge        Resolution = "MERGE"
	ResolutionManualReview Resolution = "AWAITING_MANUAL_REVIEW"
)

// MergeRule 필드별 병합 규칙. 규칙은 코드가 아니라 호출별 데이터다.
type MergeRule string

const (
	MergeUseIncoming MergeRule = "useIncoming"
	MergeUseExisting MergeRule = "useExisting"
	MergeSum         MergeRule = "sum"
	MergeMax         MergeRule = "max"
	MergeAppend      MergeRule = "append" // 자유 텍스트 필드 전용
)

// DefaultMergeRules 기본 병합 규칙 테이블
func DefaultMergeRules() map[string]MergeRule {
	return map[string]MergeRule{
		"baseSalary": MergeUseIncoming,
		"netSalary":  MergeUseIncoming,
		"allowances": MergeSum,
		"deductions": MergeMax,
		"department": MergeAppend,
	}
}

// 퍼지 중복 주석. 커밋을 막지 않는 참고 표시다.
const (
	AnnotationAdjacentMonth    = "adjacentMonthSuspect"
	AnnotationAmountSimilarity = "amountSimilaritySuspect"
	AnnotationDuplicateInBatch = "duplicateInBatch"
)

// FieldDiff 기존/수신 값 차이
type FieldDiff struct {
	Old               float64 `json:"old"`
	New               float64 `json:"new"`
	ToleranceExceeded bool    `json:"toleranceExceeded"`
}

// ConflictReport 단일 키에 대한 충돌 보고
type ConflictReport struct {
	Key            model.EntryKey               `json:"key"`
	Existing       *model.CanonicalPayrollEntry `json:"existing,omitempty"`
	Incoming       *model.CanonicalPayrollEntry `json:"incoming"`
	Differences    map[string]FieldDiff         `json:"differences,omitempty"`
	Classification Classification               `json:"classification"`
	Resolution     Resolution                   `json:"resolution"`
	Annotations    []string                     `json:"annotations,omitempty"`
}

// DefaultTolerance 허용 오차 미지정 시 적용되는 기본값 (통화 최소 단위)
const DefaultTolerance = 1000

// Options 호출자가 배치별로 지정하는 대사 설정
type Options struct {
	Strategy        Strategy             `json:"resolutionStrategy"`
	MergeRules      map[string]MergeRule `json:"mergeRules,omitempty"`
	// Tolerance 0 이하이면 DefaultTolerance 가 적용된다.
	// 엄격 비교가 필요하면 1 미만의 양수를 지정한다.
	Tolerance       float64 `json:"toleranceAmount"`
	DryRun          bool    `json:"dryRun"`
	AbortOnConflict bool    `json:"abortOnConflict"`
	AbortOnError    bool    `json:"abortOnError"`
}

// Summary 배치 처리 집계
type Summary struct {
	Created   int `json:"created"`
	Updated   int `json:"updated"`
	Skipped   int `json:"skipped"`
	Conflicts int `json:"conflicts"`
	Errors    int `json:"errors"`
}

// Result 대사 단계의 최종 산출물
type Result struct {
	Summary       Summary          `json:"summary"`
	Conflicts     []ConflictReport `json:"conflicts,omitempty"`
	RecordErrors  []string         `json:"recordErrors,omitempty"`
	TransactionID string           `json:"transactionId,omitempty"`
	DryRun        bool             `json:"dryRun,omitempty"`
}

// ErrBatchValidation 검증 실패로 배치 전체 중단 (저장소 무변경)
var ErrBatchValidation = errors.New("batch validation failed")

// ErrConflictAbort abort-on-conflict 설정으로 배치 전체 중단
var ErrConflictAbort = errors.New("batch aborted on conflict")

// TransactionError 스테이징/커밋 실패. 배치 단위로 치명적이며 전체 롤백된다.
type TransactionError struct {
	TxID string
	Err  error
}

func (e *TransactionError) Error() string {
	return "transaction " + e.TxID + ": " + e.Err.Error()
}

func (e *TransactionError) Unwrap() error {
	return e.Err
}
