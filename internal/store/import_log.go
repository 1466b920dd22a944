package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// 업로드 처리 상태
const (
	ImportStatusProcessing = "processing"
	ImportStatusCompleted  = "completed"
	ImportStatusFailed     = "failed"
)

// ImportLog 업로드 이력 행
type ImportLog struct {
	ID            int64      `json:"id"`
	Filename      string     `json:"filename"`
	FileSize      int64      `json:"fileSize"`
	FileHash      string     `json:"fileHash"`
	Year          int        `json:"year"`
	Month         int        `json:"month"`
	TotalRecords  int        `json:"totalRecords"`
	CreatedCount  int        `json:"createdCount"`
	UpdatedCount  int        `json:"updatedCount"`
	SkippedCount  int        `json:"skippedCount"`
	ConflictCount int        `json:"conflictCount"`
	ErrorCount    int        `json:"errorCount"`
	Status        string     `json:"status"`
	ErrorMessage  string     `json:"errorMessage,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	CompletedAt   *time.Time `json:"completedAt,omitempty"`
}

// CreateImportLog 업로드 이력 생성, id 반환
func (s *Store) CreateImportLog(ctx context.Context, filename string, fileSize int64, fileHash string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO import_logs (filename, file_size, file_hash, status)
		VALUES (?, ?, ?, ?)
	`, filename, fileSize, fileHash, ImportStatusProcessing)
	if err != nil {
		return 0, fmt.Errorf("failed to create import log: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get import log id: %w", err)
	}
	return id, nil
}

// UpdateImportLog 처리 완료 시 카운터와 상태 기록
func (s *Store) UpdateImportLog(ctx context.Context, id int64, year, month, totalRecords, created, updated, skipped, conflicts, errors int, status, errorMessage string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE import_logs SET
			year           = ?,
			month          = ?,
			total_records  = ?,
			created_count  = ?,
			updated_count  = ?,
			skipped_count  = ?,
			conflict_count = ?,
			error_count    = ?,
			status         = ?,
			error_message  = ?,
			completed_at   = CURRENT_TIMESTAMP
		WHERE id = ?
	`, year, month, totalRecords, created, updated, skipped, conflicts, errors, status, errorMessage, id)
	if err != nil {
		return fmt.Errorf("failed to update import log %d: %w", id, err)
	}
	return nil
}

// FindCompletedImportByHash 같은 내용의 완료된 업로드 검색 (중복 파일 탐지)
func (s *Store) FindCompletedImportByHash(ctx context.Context, fileHash string) (*ImportLog, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, filename, file_size, file_hash, year, month,
		       total_records, created_count, updated_count, skipped_count,
		       conflict_count, error_count, status, error_message, created_at, completed_at
		FROM import_logs
		WHERE file_hash = ? AND status = ?
		ORDER BY id DESC LIMIT 1
	`, fileHash, ImportStatusCompleted)

	log, err := scanImportLog(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find import by hash: %w", err)
	}
	return log, nil
}

// ListImportLogs 업로드 이력 목록 (최신 우선)
func (s *Store) ListImportLogs(ctx context.Context, limit int) ([]*ImportLog, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, filename, file_size, file_hash, year, month,
		       total_records, created_count, updated_count, skipped_count,
		       conflict_count, error_count, status, error_message, created_at, completed_at
		FROM import_logs
		ORDER BY id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list import logs: %w", err)
	}
	defer rows.Close()

	var logs []*ImportLog
	for rows.Next() {
		var l ImportLog
		var completedAt sql.NullTime
		if err := rows.Scan(
			&l.ID, &l.Filename, &l.FileSize, &l.FileHash, &l.Year, &l.Month,
			&l.TotalRecords, &l.CreatedCount, &l.UpdatedCount, &l.SkippedCount,
			&l.ConflictCount, &l.ErrorCount, &l.Status, &l.ErrorMessage, &l.CreatedAt, &completedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan import log: %w", err)
		}
		if completedAt.Valid {
			l.CompletedAt = &completedAt.Time
		}
		logs = append(logs, &l)
	}
	return logs, rows.Err()
}

func scanImportLog(row *sql.Row) (*ImportLog, error) {
	var l ImportLog
	var completedAt sql.NullTime
	err := row.Scan(
		&l.ID, &l.Filename, &l.FileSize, &l.FileHash, &l.Year, &l.Month,
		&l.TotalRecords, &l.CreatedCount, &l.UpdatedCount, &l.SkippedCount,
		&l.ConflictCount, &l.ErrorCount, &l.Status, &l.ErrorMessage, &l.CreatedAt, &completedAt,
	)
	if err != nil {
		return nil, err
	}
	if completedAt.Valid {
		l.CompletedAt = &completedAt.Time
	}
	return &l, nil
}
