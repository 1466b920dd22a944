package reconcile

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"salarysync/internal/model"
	"salarysync/internal/store"
)

// EntryStore 엔진이 소비하는 저장소 인터페이스
type EntryStore interface {
	FindEntry(ctx context.Context, key model.EntryKey) (*model.CanonicalPayrollEntry, error)
	FindByEmployee(ctx context.Context, employeeKey string) ([]*model.CanonicalPayrollEntry, error)
	CreateTransaction(ctx context.Context, txID string, entryCount int) error
	StageEntries(ctx context.Context, txID string, staged []store.StagedEntry) error
	CommitStaged(ctx context.Context, txID string) error
	MarkRolledBack(ctx context.Context, txID string) error
}

// Engine 수신 배치를 기존 데이터와 대사하고 2단계 커밋으로 반영한다.
// 저장소를 만지는 유일한 파이프라인 구성요소다.
type Engine struct {
	store  EntryStore
	locks  *keyLocks
	logger *zap.Logger
}

// NewEngine 대사 엔진 생성
func NewEngine(st EntryStore, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		store:  st,
		locks:  newKeyLocks(),
		logger: logger,
	}
}

// plannedWrite 분류 후 확정된 쓰기 작업
type plannedWrite struct {
	entry   *model.CanonicalPayrollEntry
	archive bool
}

// Commit 배치 대사 실행.
// 1단계에서 전체 검증/스테이징, 2단계에서 키 락을 잡고 원자적으로 반영한다.
// 부분 커밋은 없다: 저장 실패는 전체 롤백이다.
func (e *Engine) Commit(ctx context.Context, entries []*model.CanonicalPayrollEntry, opts Options) (*Result, error) {
	if opts.Strategy == "" {
		opts.Strategy = StrategyUpsert
	}
	if opts.Strategy == StrategyMerge && opts.MergeRules == nil {
		opts.MergeRules = DefaultMergeRules()
	}
	if opts.Tolerance <= 0 {
		opts.Tolerance = DefaultTolerance
	}

	result := &Result{DryRun: opts.DryRun}

	// 레코드 단위 검증. abort-on-error 면 한 건이라도 실패 시 전체 중단.
	valid := make([]*model.CanonicalPayrollEntry, 0, len(entries))
	for _, entry := range entries {
		if err := validateEntry(entry); err != nil {
			result.Summary.Errors++
			result.RecordErrors = append(result.RecordErrors, err.Error())
			continue
		}
		valid = append(valid, entry)
	}
	if opts.AbortOnError && result.Summary.Errors > 0 {
		return result, ErrBatchValidation
	}

	// 배치 내 중복 키: 뒤 항목이 앞 항목을 대체한다
	byKey := make(map[model.EntryKey]*model.CanonicalPayrollEntry, len(valid))
	var order []model.EntryKey
	duplicateInBatch := make(map[model.EntryKey]bool)
	for _, entry := range valid {
		key := entry.Key()
		if _, seen := byKey[key]; seen {
			duplicateInBatch[key] = true
		} else {
			order = append(order, key)
		}
		byKey[key] = entry
	}

	// 분류와 쓰기 계획
	var writes []plannedWrite
	for _, key := range order {
		incoming := byKey[key]

		existing, err := e.store.FindEntry(ctx, key)
		if err != nil {
			return result, fmt.Errorf("failed to classify %s: %w", key, err)
		}

		annotations := e.fuzzyAnnotations(ctx, incoming)
		if duplicateInBatch[key] {
			annotations = append(annotations, AnnotationDuplicateInBatch)
		}

		if existing == nil {
			result.Summary.Created++
			writes = append(writes, plannedWrite{entry: incoming})
			if len(annotations) > 0 {
				result.Conflicts = append(result.Conflicts, ConflictReport{
					Key:            key,
					Incoming:       incoming,
					Classification: ClassificationNew,
					Resolution:     ResolutionUpsert,
					Annotations:    annotations,
				})
			}
			continue
		}

		diffs := diffEntries(existing, incoming, opts.Tolerance)
		if !anyExceeded(diffs) {
			result.Summary.Skipped++
			if len(annotations) > 0 {
				result.Conflicts = append(result.Conflicts, ConflictReport{
					Key:            key,
					Existing:       existing,
					Incoming:       incoming,
					Classification: ClassificationIdentical,
					Resolution:     ResolutionSkip,
					Annotations:    annotations,
				})
			}
			continue
		}

		result.Summary.Conflicts++
		report := ConflictReport{
			Key:            key,
			Existing:       existing,
			Incoming:       incoming,
			Differences:    diffs,
			Classification: ClassificationConflict,
			Annotations:    annotations,
		}

		switch opts.Strategy {
		case StrategyUpsert:
			report.Resolution = ResolutionUpsert
			result.Summary.Updated++
			writes = append(writes, plannedWrite{entry: incoming})
		case StrategySkip:
			report.Resolution = ResolutionSkip
			result.Summary.Skipped++
		case StrategyMerge:
			report.Resolution = ResolutionMerge
			result.Summary.Updated++
			writes = append(writes, plannedWrite{entry: mergeEntries(existing, incoming, opts.MergeRules)})
		case StrategyVersionArchive:
			report.Resolution = ResolutionUpsert
			result.Summary.Updated++
			writes = append(writes, plannedWrite{entry: incoming, archive: true})
		case StrategyManualReview:
			report.Resolution = ResolutionManualReview
		default:
			return result, fmt.Errorf("unknown resolution strategy %q", opts.Strategy)
		}

		result.Conflicts = append(result.Conflicts, report)

		if opts.AbortOnConflict && report.Resolution == ResolutionManualReview {
			return result, ErrConflictAbort
		}
	}

	if opts.DryRun || len(writes) == 0 {
		return result, nil
	}

	// 2단계 시작 전까지는 취소가 안전하다
	if err := ctx.Err(); err != nil {
		return result, err
	}

	txID, err := e.commitTwoPhase(ctx, writes)
	if err != nil {
		return result, err
	}
	result.TransactionID = txID
	return result, nil
}

// commitTwoPhase 스테이징 후 키 락 아래에서 원자적 반영.
// 2단계 진입 후에는 호출자 취소를 무시하고 완료 또는 롤백까지 진행한다.
func (e *Engine) commitTwoPhase(ctx context.Context, writes []plannedWrite) (string, error) {
	txID := uuid.New().String()

	staged := make([]store.StagedEntry, 0, len(writes))
	keys := make([]string, 0, len(writes))
	for _, w := range writes {
		staged = append(staged, store.StagedEntry{Entry: w.entry, ArchiveExisting: w.archive})
		keys = append(keys, w.entry.Key().String())
	}

	// 1단계: 스테이징
	if err := e.store.CreateTransaction(ctx, txID, len(staged)); err != nil {
		return "", &TransactionError{TxID: txID, Err: err}
	}
	if err := e.store.StageEntries(ctx, txID, staged); err != nil {
		e.rollback(txID)
		return "", &TransactionError{TxID: txID, Err: err}
	}

	// 2단계: 키 락을 잡고 커밋. 락은 쓰기에 필요한 최소 시간만 유지한다.
	unlock := e.locks.lockAll(keys)
	defer unlock()

	commitCtx := context.WithoutCancel(ctx)
	if err := e.store.CommitStaged(commitCtx, txID); err != nil {
		e.rollback(txID)
		return "", &TransactionError{TxID: txID, Err: err}
	}

	return txID, nil
}

// rollback 트랜잭션 표시와 스테이징 정리 (최선 노력)
func (e *Engine) rollback(txID string) {
	if err := e.store.MarkRolledBack(context.Background(), txID); err != nil {
		e.logger.Error("failed to mark transaction rolled back",
			zap.String("tx_id", txID), zap.Error(err))
	}
}

// fuzzyAnnotations 참고용 퍼지 중복 표시.
// 인접 월 항목 존재, 다른 월의 기본급 ±10% 유사를 탐지한다. 분류를 바꾸지 않는다.
func (e *Engine) fuzzyAnnotations(ctx context.Context, incoming *model.CanonicalPayrollEntry) []string {
	others, err := e.store.FindByEmployee(ctx, incoming.EmployeeKey)
	if err != nil {
		e.logger.Warn("fuzzy duplicate scan failed",
			zap.String("employee", incoming.EmployeeKey), zap.Error(err))
		return nil
	}

	var annotations []string
	adjacent, similar := false, false
	for _, other := range others {
		if other.Year == incoming.Year && other.Month == incoming.Month {
			continue
		}
		if monthDistance(incoming.Year, incoming.Month, other.Year, other.Month) == 1 {
			adjacent = true
		}
		if incoming.BaseSalary > 0 &&
			math.Abs(other.BaseSalary-incoming.BaseSalary)/incoming.BaseSalary <= 0.10 {
			similar = true
		}
	}
	if adjacent {
		annotations = append(annotations, AnnotationAdjacentMonth)
	}
	if similar {
		annotations = append(annotations, AnnotationAmountSimilarity)
	}
	return annotations
}

// monthDistance 두 연월 간 개월 수 차이
func monthDistance(y1, m1, y2, m2 int) int {
	d := (y1*12 + m1) - (y2*12 + m2)
	if d < 0 {
		d = -d
	}
	return d
}

// validateEntry 커밋 전 레코드 단위 검증
func validateEntry(e *model.CanonicalPayrollEntry) error {
	if e.EmployeeKey == "" {
		return fmt.Errorf("entry %d-%02d: empty employee key", e.Year, e.Month)
	}
	if e.Year < 2000 || e.Year > 2100 {
		return fmt.Errorf("entry %s: year %d out of range", e.EmployeeKey, e.Year)
	}
	if e.Month < 1 || e.Month > 12 {
		return fmt.Errorf("entry %s: month %d out of range", e.EmployeeKey, e.Month)
	}
	if e.BaseSalary < 0 {
		return fmt.Errorf("entry %s: negative base salary", e.Key())
	}
	return nil
}

// diffEntries 금액 필드별 차이 계산
func diffEntries(existing, incoming *model.CanonicalPayrollEntry, tolerance float64) map[string]FieldDiff {
	diffs := make(map[string]FieldDiff)

	addDiff := func(field string, old, new float64) {
		if old == new {
			return
		}
		diffs[field] = FieldDiff{
			Old:               old,
			New:               new,
			ToleranceExceeded: math.Abs(old-new) > tolerance,
		}
	}

	addDiff("baseSalary", existing.BaseSalary, incoming.BaseSalary)
	addDiff("netSalary", existing.NetSalary, incoming.NetSalary)

	for _, field := range unionKeys(existing.Allowances, incoming.Allowances) {
		addDiff("allowances."+field, existing.Allowances[field], incoming.Allowances[field])
	}
	for _, field := range unionKeys(existing.Deductions, incoming.Deductions) {
		addDiff("deductions."+field, existing.Deductions[field], incoming.Deductions[field])
	}
	return diffs
}

// anyExceeded 허용 오차를 넘는 차이가 하나라도 있는지
func anyExceeded(diffs map[string]FieldDiff) bool {
	for _, d := range diffs {
		if d.ToleranceExceeded {
			return true
		}
	}
	return false
}

// mergeEntries 규칙 테이블에 따라 기존/수신 항목을 병합한 새 항목 생성
func mergeEntries(existing, incoming *model.CanonicalPayrollEntry, rules map[string]MergeRule) *model.CanonicalPayrollEntry {
	merged := *incoming
	merged.Allowances = mergeAmounts(existing.Allowances, incoming.Allowances, rules["allowances"])
	merged.Deductions = mergeAmounts(existing.Deductions, incoming.Deductions, rules["deductions"])
	merged.BaseSalary = mergeAmount(existing.BaseSalary, incoming.BaseSalary, rules["baseSalary"])
	merged.NetSalary = mergeAmount(existing.NetSalary, incoming.NetSalary, rules["netSalary"])
	merged.Department = mergeText(existing.Department, incoming.Department, rules["department"])
	return &merged
}

func mergeAmount(old, new float64, rule MergeRule) float64 {
	switch rule {
	case MergeUseExisting:
		return old
	case MergeSum:
		return old + new
	case MergeMax:
		return math.Max(old, new)
	default:
		return new
	}
}

func mergeAmounts(old, new map[string]float64, rule MergeRule) map[string]float64 {
	merged := make(map[string]float64)
	for _, field := range unionKeys(old, new) {
		merged[field] = mergeAmount(old[field], new[field], rule)
	}
	return merged
}

func mergeText(old, new string, rule MergeRule) string {
	switch rule {
	case MergeUseExisting:
		return old
	case MergeAppend:
		if old == "" || old == new {
			return new
		}
		if new == "" {
			return old
		}
		return old + "; " + new
	default:
		return new
	}
}

// unionKeys 두 금액 맵의 키 합집합 (결정적 순서)
func unionKeys(a, b map[string]float64) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	var keys []string
	for k := range a {
		if _, ok := seen[k]; !ok {
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
	}
	for k := range b {
		if _, ok := seen[k]; !ok {
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
	}
	// 맵 순회 순서에 의존하지 않도록 정렬
	sort.Strings(keys)
	return keys
}
