package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"salarysync/internal/importer"
	"salarysync/internal/reconcile"
	"salarysync/internal/store"
)

// Handler API 처리기
type Handler struct {
	store       *store.Store
	coordinator *importer.Coordinator
	logger      *zap.Logger
	maxUploadMB int64
	tolerance   float64
	strategy    reconcile.Strategy
}

// NewHandler API 처리기 생성. tolerance/strategy 는 요청에서 생략했을 때의 기본값.
func NewHandler(st *store.Store, coordinator *importer.Coordinator, logger *zap.Logger,
	maxUploadMB int64, tolerance float64, strategy string) *Handler {
	if maxUploadMB <= 0 {
		maxUploadMB = 32
	}
	if tolerance < 0 {
		tolerance = reconcile.DefaultTolerance
	}
	if strategy == "" {
		strategy = string(reconcile.StrategyUpsert)
	}
	return &Handler{
		store:       st,
		coordinator: coordinator,
		logger:      logger,
		maxUploadMB: maxUploadMB,
		tolerance:   tolerance,
		strategy:    reconcile.Strategy(strategy),
	}
}

// RegisterRoutes API 라우트 등록
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	// 시스템 상태
	router.GET("/status", h.GetStatus)

	// 파일 분석 (커밋 없음)
	router.POST("/parse", h.Parse)
	// 파일 반입 (SSE 진행 스트림)
	router.POST("/import", h.Import)

	// 급여 데이터 조회
	router.GET("/entries", h.ListEntries)
	router.GET("/entries/:employeeKey/history", h.GetHistory)

	// 업로드 이력
	router.GET("/imports", h.ListImports)
}

// GetStatus 시스템 상태 조회
// GET /api/status
func (h *Handler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "salarysync",
	})
}

// readUpload multipart 업로드에서 파일 내용을 읽는다
func (h *Handler) readUpload(c *gin.Context) (string, []byte, bool) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "업로드된 파일이 없습니다"})
		return "", nil, false
	}
	if fileHeader.Size > h.maxUploadMB*1024*1024 {
		c.JSON(http.StatusRequestEntityTooLarge,
			gin.H{"error": fmt.Sprintf("파일이 너무 큽니다 (최대 %dMB)", h.maxUploadMB)})
		return "", nil, false
	}

	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "파일을 열 수 없습니다"})
		return "", nil, false
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "파일을 읽을 수 없습니다"})
		return "", nil, false
	}
	return fileHeader.Filename, data, true
}

// Parse 파일을 분석만 하고 결과 보고서를 반환
// POST /api/parse
func (h *Handler) Parse(c *gin.Context) {
	filename, data, ok := h.readUpload(c)
	if !ok {
		return
	}

	opts := importer.ImportOptions{
		Filename:  filename,
		Data:      data,
		ParseOnly: true,
	}

	var outcome *importer.ImportOutcome
	var failure string
	for event := range h.coordinator.Import(c.Request.Context(), opts) {
		switch event.Type {
		case "done":
			if o, isOutcome := event.Data.(*importer.ImportOutcome); isOutcome {
				outcome = o
			}
		case "error":
			failure = event.Message
		}
	}

	if outcome == nil {
		if failure == "" {
			failure = "파일을 처리할 수 없습니다"
		}
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": failure})
		return
	}
	c.JSON(http.StatusOK, outcome)
}

// Import 파일을 반입하고 진행 상황을 SSE 로 스트리밍
// POST /api/import
func (h *Handler) Import(c *gin.Context) {
	filename, data, ok := h.readUpload(c)
	if !ok {
		return
	}

	year, _ := strconv.Atoi(c.DefaultPostForm("year", "0"))
	month, _ := strconv.Atoi(c.DefaultPostForm("month", "0"))
	tolerance := h.tolerance
	if raw := c.PostForm("tolerance"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil && v >= 0 {
			tolerance = v
		}
	}

	strategy := reconcile.Strategy(c.DefaultPostForm("strategy", string(h.strategy)))
	switch strategy {
	case reconcile.StrategyUpsert, reconcile.StrategySkip, reconcile.StrategyMerge,
		reconcile.StrategyVersionArchive, reconcile.StrategyManualReview:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("알 수 없는 전략: %s", strategy)})
		return
	}

	var mergeRules map[string]reconcile.MergeRule
	if raw := c.PostForm("mergeRules"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &mergeRules); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "mergeRules 형식이 잘못되었습니다"})
			return
		}
	}

	opts := importer.ImportOptions{
		Filename: filename,
		Data:     data,
		Year:     year,
		Month:    month,
		Reconcile: reconcile.Options{
			Strategy:        strategy,
			MergeRules:      mergeRules,
			Tolerance:       tolerance,
			DryRun:          c.DefaultPostForm("dryRun", "false") == "true",
			AbortOnConflict: c.DefaultPostForm("abortOnConflict", "false") == "true",
			AbortOnError:    c.DefaultPostForm("abortOnError", "false") == "true",
		},
	}

	// SSE 응답 헤더
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	flusher, canFlush := c.Writer.(http.Flusher)
	if !canFlush {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "스트리밍 응답을 지원하지 않습니다"})
		return
	}

	for event := range h.coordinator.Import(c.Request.Context(), opts) {
		eventData, err := json.Marshal(event)
		if err != nil {
			continue
		}
		// SSE 형식: data: {json}\n\n
		fmt.Fprintf(c.Writer, "data: %s\n\n", eventData)
		flusher.Flush()
	}
}

// ListEntries 확정 급여 데이터 조회
// GET /api/entries?year=2024&month=3
func (h *Handler) ListEntries(c *gin.Context) {
	year, _ := strconv.Atoi(c.Query("year"))
	month, _ := strconv.Atoi(c.Query("month"))
	if year == 0 || month == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "year, month 파라미터가 필요합니다"})
		return
	}

	entries, err := h.store.ListEntries(c.Request.Context(), year, month)
	if err != nil {
		h.logger.Error("failed to list entries", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "조회에 실패했습니다"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"year":    year,
		"month":   month,
		"total":   len(entries),
		"entries": entries,
	})
}

// GetHistory 특정 직원의 변경 이력 조회
// GET /api/entries/:employeeKey/history
func (h *Handler) GetHistory(c *gin.Context) {
	employeeKey := c.Param("employeeKey")
	history, err := h.store.ListHistory(c.Request.Context(), employeeKey)
	if err != nil {
		h.logger.Error("failed to list history", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "조회에 실패했습니다"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"employeeKey": employeeKey,
		"total":       len(history),
		"history":     history,
	})
}

// ListImports 업로드 이력 조회
// GET /api/imports?limit=50
func (h *Handler) ListImports(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	logs, err := h.store.ListImportLogs(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list imports", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "조회에 실패했습니다"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"total":   len(logs),
		"imports": logs,
	})
}
