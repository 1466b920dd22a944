package importer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"salarysync/internal/converter"
	"salarysync/internal/parser"
	"salarysync/internal/reconcile"
	"salarysync/internal/store"
)

// Coordinator 업로드 1건의 파싱 -> 변환 -> 대사 흐름을 조정한다.
// 파싱 단계는 락 없이 진행되고 저장소 접근은 대사 엔진에만 위임한다.
type Coordinator struct {
	store  *store.Store
	parser *parser.Parser
	engine *reconcile.Engine
	logger *zap.Logger
}

// NewCoordinator 코디네이터 생성
func NewCoordinator(st *store.Store, p *parser.Parser, engine *reconcile.Engine, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{store: st, parser: p, engine: engine, logger: logger}
}

// ImportOptions 업로드 처리 옵션
type ImportOptions struct {
	Filename  string
	Data      []byte
	Year      int // 0 이면 시트/파일명에서 추론한 값 사용
	Month     int
	ParseOnly bool // true 면 대사/커밋 없이 파싱 보고서만 생성
	Reconcile reconcile.Options
}

// ImportOutcome 업로드 처리 최종 산출물
type ImportOutcome struct {
	Parse     *parser.ParseResult `json:"parse"`
	Reconcile *reconcile.Result   `json:"reconcile,omitempty"`
	ImportID  int64               `json:"importId"`
}

// ProgressEvent 진행 이벤트
type ProgressEvent struct {
	Type      string      `json:"type"` // start/info/warning/parsed/reconciled/done/error
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// Import 업로드 처리를 시작하고 진행 이벤트 채널을 반환
func (c *Coordinator) Import(ctx context.Context, opts ImportOptions) <-chan ProgressEvent {
	progress := make(chan ProgressEvent, 100)
	go func() {
		defer close(progress)
		c.doImport(ctx, opts, progress)
	}()
	return progress
}

func (c *Coordinator) doImport(ctx context.Context, opts ImportOptions, progress chan ProgressEvent) {
	start := time.Now()
	c.send(progress, "start", fmt.Sprintf("파일 처리 시작: %s", opts.Filename), map[string]interface{}{
		"filename": opts.Filename,
		"size":     len(opts.Data),
	})

	hash := sha256.Sum256(opts.Data)
	fileHash := hex.EncodeToString(hash[:])

	importID, err := c.store.CreateImportLog(ctx, opts.Filename, int64(len(opts.Data)), fileHash)
	if err != nil {
		c.fail(ctx, progress, 0, fmt.Errorf("failed to record import: %w", err))
		return
	}

	// 파싱 (순수 단계, 저장소 미접근)
	parseResult, err := c.parser.ParseBytes(opts.Data, opts.Filename)
	if err != nil {
		c.fail(ctx, progress, importID, err)
		return
	}

	// 같은 내용의 완료된 업로드가 있으면 참고 표시
	if prev, err := c.store.FindCompletedImportByHash(ctx, fileHash); err == nil && prev != nil {
		parseResult.Annotations = append(parseResult.Annotations, "duplicateFileSuspect")
		c.send(progress, "warning",
			fmt.Sprintf("동일한 내용의 파일이 이미 처리되었습니다 (업로드 #%d)", prev.ID), nil)
	}

	year, month := opts.Year, opts.Month
	if year == 0 || month == 0 {
		year, month = parseResult.Year, parseResult.Month
	}

	c.send(progress, "parsed",
		fmt.Sprintf("시트 \"%s\" 에서 %d건 추출 (매핑 신뢰도 %.2f)",
			parseResult.SheetName, parseResult.TotalRecords, parseResult.MappingReport.Confidence),
		map[string]interface{}{
			"sheet_name":    parseResult.SheetName,
			"total_records": parseResult.TotalRecords,
			"confidence":    parseResult.MappingReport.Confidence,
			"year":          year,
			"month":         month,
		})

	outcome := &ImportOutcome{Parse: parseResult, ImportID: importID}

	if opts.ParseOnly {
		c.finishLog(ctx, importID, year, month, parseResult.TotalRecords, nil)
		c.send(progress, "done", "파싱 완료", outcome)
		return
	}

	if year == 0 || month == 0 {
		c.fail(ctx, progress, importID,
			errors.New("year/month not specified and not inferable from workbook"))
		return
	}

	// 변환 + 대사
	entries := converter.ToCanonical(parseResult.PayrollData, year, month, opts.Filename, parseResult.ExtractedAt)

	reconcileResult, err := c.engine.Commit(ctx, entries, opts.Reconcile)
	if err != nil &&
		!errors.Is(err, reconcile.ErrBatchValidation) &&
		!errors.Is(err, reconcile.ErrConflictAbort) {
		c.fail(ctx, progress, importID, err)
		return
	}
	outcome.Reconcile = reconcileResult

	status := store.ImportStatusCompleted
	message := ""
	if err != nil {
		status = store.ImportStatusFailed
		message = err.Error()
		c.send(progress, "warning", fmt.Sprintf("배치 중단: %v", err), reconcileResult)
	}

	s := reconcileResult.Summary
	if logErr := c.store.UpdateImportLog(ctx, importID, year, month, parseResult.TotalRecords,
		s.Created, s.Updated, s.Skipped, s.Conflicts, s.Errors, status, message); logErr != nil {
		c.logger.Warn("failed to update import log", zap.Int64("import_id", importID), zap.Error(logErr))
	}

	c.send(progress, "reconciled",
		fmt.Sprintf("대사 완료: 신규 %d, 갱신 %d, 건너뜀 %d, 충돌 %d, 오류 %d",
			s.Created, s.Updated, s.Skipped, s.Conflicts, s.Errors),
		reconcileResult)

	c.logger.Info("import finished",
		zap.String("filename", opts.Filename),
		zap.Int("records", parseResult.TotalRecords),
		zap.String("status", status),
		zap.Duration("duration", time.Since(start)))

	c.send(progress, "done", "처리 완료", outcome)
}

// finishLog 대사 없이 종료되는 경우의 이력 마감
func (c *Coordinator) finishLog(ctx context.Context, importID int64, year, month, total int, err error) {
	status := store.ImportStatusCompleted
	message := ""
	if err != nil {
		status = store.ImportStatusFailed
		message = err.Error()
	}
	if logErr := c.store.UpdateImportLog(ctx, importID, year, month, total,
		0, 0, 0, 0, 0, status, message); logErr != nil {
		c.logger.Warn("failed to update import log", zap.Int64("import_id", importID), zap.Error(logErr))
	}
}

// fail 오류 이벤트 발행과 이력 마감
func (c *Coordinator) fail(ctx context.Context, progress chan ProgressEvent, importID int64, err error) {
	c.logger.Error("import failed", zap.Int64("import_id", importID), zap.Error(err))
	if importID > 0 {
		c.finishLog(ctx, importID, 0, 0, 0, err)
	}
	c.send(progress, "error", err.Error(), nil)
}

// send 진행 이벤트 발행. 채널이 가득 차면 버린다.
func (c *Coordinator) send(ch chan ProgressEvent, eventType, message string, data interface{}) {
	event := ProgressEvent{
		Type:      eventType,
		Message:   message,
		Data:      data,
		Timestamp: time.Now(),
	}
	select {
	case ch <- event:
	default:
	}
}
