package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"salarysync/internal/model"
)

// 트랜잭션 상태
const (
	TxPrepared   = "PREPARED"
	TxCommitted  = "COMMITTED"
	TxRolledBack = "ROLLED_BACK"
)

// MigrationTransaction 배치 커밋 트랜잭션. 배치 커밋 동안만 존재한다.
type MigrationTransaction struct {
	ID          string     `json:"id"`
	Status      string     `json:"status"`
	EntryCount  int        `json:"entryCount"`
	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// StagedEntry 스테이징 대상 항목.
// ArchiveExisting 이 true 면 커밋 시 기존 라이브 행을 이력으로 보존한다.
type StagedEntry struct {
	Entry           *model.CanonicalPayrollEntry
	ArchiveExisting bool
}

// FindEntry 대사 키로 라이브 항목 조회. 없으면 (nil, nil).
func (s *Store) FindEntry(ctx context.Context, key model.EntryKey) (*model.CanonicalPayrollEntry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT employee_key, employee_id, employee_name, department,
		       year, month, base_salary, allowances, deductions,
		       net_salary, payment_status, source_file, extracted_at, version
		FROM payroll_entries
		WHERE employee_key = ? AND year = ? AND month = ?
	`, key.EmployeeKey, key.Year, key.Month)

	entry, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find entry %s: %w", key, err)
	}
	return entry, nil
}

// FindByEmployee 직원의 전체 월별 항목 조회 (퍼지 중복 탐지용)
func (s *Store) FindByEmployee(ctx context.Context, employeeKey string) ([]*model.CanonicalPayrollEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT employee_key, employee_id, employee_name, department,
		       year, month, base_salary, allowances, deductions,
		       net_salary, payment_status, source_file, extracted_at, version
		FROM payroll_entries
		WHERE employee_key = ?
		ORDER BY year, month
	`, employeeKey)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries for %q: %w", employeeKey, err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// ListEntries 해당 연월의 전체 항목 조회
func (s *Store) ListEntries(ctx context.Context, year, month int) ([]*model.CanonicalPayrollEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT employee_key, employee_id, employee_name, department,
		       year, month, base_salary, allowances, deductions,
		       net_salary, payment_status, source_file, extracted_at, version
		FROM payroll_entries
		WHERE year = ? AND month = ?
		ORDER BY employee_key
	`, year, month)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries %d-%02d: %w", year, month, err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// CreateTransaction PREPARED 상태의 트랜잭션 행 생성
func (s *Store) CreateTransaction(ctx context.Context, txID string, entryCount int) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO migration_transactions (id, status, entry_count)
		VALUES (?, ?, ?)
	`, txID, TxPrepared, entryCount)
	if err != nil {
		return fmt.Errorf("failed to create transaction %s: %w", txID, err)
	}
	return nil
}

// GetTransaction 트랜잭션 조회. 없으면 (nil, nil).
func (s *Store) GetTransaction(ctx context.Context, txID string) (*MigrationTransaction, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, status, entry_count, created_at, completed_at
		FROM migration_transactions WHERE id = ?
	`, txID)

	var tx MigrationTransaction
	var completedAt sql.NullTime
	err := row.Scan(&tx.ID, &tx.Status, &tx.EntryCount, &tx.CreatedAt, &completedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction %s: %w", txID, err)
	}
	if completedAt.Valid {
		tx.CompletedAt = &completedAt.Time
	}
	return &tx, nil
}

// setTransactionStatus 트랜잭션 상태 갱신
func (s *Store) setTransactionStatus(ctx context.Context, exec interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
}, txID, status string) error {
	_, err := exec.ExecContext(ctx, `
		UPDATE migration_transactions
		SET status = ?, completed_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, status, txID)
	if err != nil {
		return fmt.Errorf("failed to update transaction %s: %w", txID, err)
	}
	return nil
}

// StageEntries 1단계: 배치 항목을 스테이징 영역에 기록
func (s *Store) StageEntries(ctx context.Context, txID string, staged []StagedEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin staging transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO payroll_staging (
			tx_id, employee_key, employee_id, employee_name, department,
			year, month, base_salary, allowances, deductions,
			net_salary, payment_status, source_file, extracted_at, archive_existing
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare staging statement: %w", err)
	}
	defer stmt.Close()

	for _, se := range staged {
		e := se.Entry
		allowances, deductions, err := marshalAmounts(e)
		if err != nil {
			return err
		}
		archive := 0
		if se.ArchiveExisting {
			archive = 1
		}
		if _, err := stmt.ExecContext(ctx,
			txID, e.EmployeeKey, e.EmployeeID, e.EmployeeName, e.Department,
			e.Year, e.Month, e.BaseSalary, allowances, deductions,
			e.NetSalary, e.PaymentStatus, e.SourceFile, e.ExtractedAt, archive,
		); err != nil {
			return fmt.Errorf("failed to stage entry %s: %w", e.Key(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit staging: %w", err)
	}

	s.logger.Debug("entries staged", zap.String("tx_id", txID), zap.Int("count", len(staged)))
	return nil
}

// PurgeStaged 스테이징 영역에서 배치 제거 (취소/롤백 시)
func (s *Store) PurgeStaged(ctx context.Context, txID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM payroll_staging WHERE tx_id = ?`, txID); err != nil {
		return fmt.Errorf("failed to purge staged entries for %s: %w", txID, err)
	}
	return nil
}

// MarkRolledBack 트랜잭션을 ROLLED_BACK 으로 표시하고 스테이징을 비운다
func (s *Store) MarkRolledBack(ctx context.Context, txID string) error {
	if err := s.setTransactionStatus(ctx, s.db, txID, TxRolledBack); err != nil {
		return err
	}
	return s.PurgeStaged(ctx, txID)
}

// CommitStaged 2단계: 스테이징된 배치 전체를 하나의 원자적 쓰기로 라이브에 반영.
// 실패 시 라이브 저장소는 변경되지 않은 채 오류를 반환한다.
func (s *Store) CommitStaged(ctx context.Context, txID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin commit transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `
		SELECT employee_key, employee_id, employee_name, department,
		       year, month, base_salary, allowances, deductions,
		       net_salary, payment_status, source_file, extracted_at, archive_existing
		FROM payroll_staging
		WHERE tx_id = ?
		ORDER BY id
	`, txID)
	if err != nil {
		return fmt.Errorf("failed to read staged entries for %s: %w", txID, err)
	}

	type stagedRow struct {
		entry   *model.CanonicalPayrollEntry
		archive bool
	}
	var staged []stagedRow
	for rows.Next() {
		var e model.CanonicalPayrollEntry
		var allowances, deductions string
		var extractedAt sql.NullTime
		var archive int
		if err := rows.Scan(
			&e.EmployeeKey, &e.EmployeeID, &e.EmployeeName, &e.Department,
			&e.Year, &e.Month, &e.BaseSalary, &allowances, &deductions,
			&e.NetSalary, &e.PaymentStatus, &e.SourceFile, &extractedAt, &archive,
		); err != nil {
			rows.Close()
			return fmt.Errorf("staging area corrupted for %s: %w", txID, err)
		}
		if err := unmarshalAmounts(&e, allowances, deductions); err != nil {
			rows.Close()
			return fmt.Errorf("staging area corrupted for %s: %w", txID, err)
		}
		if extractedAt.Valid {
			e.ExtractedAt = extractedAt.Time
		}
		staged = append(staged, stagedRow{entry: &e, archive: archive != 0})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate staged entries for %s: %w", txID, err)
	}

	for _, sr := range staged {
		if sr.archive {
			if err := archiveLiveEntry(ctx, tx, sr.entry.Key(), txID); err != nil {
				return err
			}
		}
		if err := upsertEntry(ctx, tx, sr.entry); err != nil {
			return err
		}
	}

	if err := s.setTransactionStatus(ctx, tx, txID, TxCommitted); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM payroll_staging WHERE tx_id = ?`, txID); err != nil {
		return fmt.Errorf("failed to clear staging for %s: %w", txID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit batch %s: %w", txID, err)
	}

	s.logger.Info("batch committed", zap.String("tx_id", txID), zap.Int("entries", len(staged)))
	return nil
}

// archiveLiveEntry 기존 라이브 행을 이력으로 복사
func archiveLiveEntry(ctx context.Context, tx *sql.Tx, key model.EntryKey, txID string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO payroll_history (
			employee_key, year, month, base_salary, allowances, deductions,
			net_salary, source_file, version, tx_id
		)
		SELECT employee_key, year, month, base_salary, allowances, deductions,
		       net_salary, source_file, version, ?
		FROM payroll_entries
		WHERE employee_key = ? AND year = ? AND month = ?
	`, txID, key.EmployeeKey, key.Year, key.Month)
	if err != nil {
		return fmt.Errorf("failed to archive entry %s: %w", key, err)
	}
	return nil
}

// upsertEntry 라이브 항목 삽입/갱신. 갱신 시 버전이 증가한다.
func upsertEntry(ctx context.Context, tx *sql.Tx, e *model.CanonicalPayrollEntry) error {
	allowances, deductions, err := marshalAmounts(e)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO payroll_entries (
			employee_key, employee_id, employee_name, department,
			year, month, base_salary, allowances, deductions,
			net_salary, payment_status, source_file, extracted_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (employee_key, year, month) DO UPDATE SET
			employee_id    = excluded.employee_id,
			employee_name  = excluded.employee_name,
			department     = excluded.department,
			base_salary    = excluded.base_salary,
			allowances     = excluded.allowances,
			deductions     = excluded.deductions,
			net_salary     = excluded.net_salary,
			payment_status = excluded.payment_status,
			source_file    = excluded.source_file,
			extracted_at   = excluded.extracted_at,
			version        = payroll_entries.version + 1,
			updated_at     = CURRENT_TIMESTAMP
	`,
		e.EmployeeKey, e.EmployeeID, e.EmployeeName, e.Department,
		e.Year, e.Month, e.BaseSalary, allowances, deductions,
		e.NetSalary, e.PaymentStatus, e.SourceFile, e.ExtractedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert entry %s: %w", e.Key(), err)
	}
	return nil
}

// HistoryEntry 이력 행
type HistoryEntry struct {
	EmployeeKey string    `json:"employeeKey"`
	Year        int       `json:"year"`
	Month       int       `json:"month"`
	BaseSalary  float64   `json:"baseSalary"`
	NetSalary   float64   `json:"netSalary"`
	SourceFile  string    `json:"sourceFile"`
	Version     int       `json:"version"`
	TxID        string    `json:"txId"`
	ArchivedAt  time.Time `json:"archivedAt"`
}

// ListHistory 직원의 이력 조회 (최신 우선)
func (s *Store) ListHistory(ctx context.Context, employeeKey string) ([]*HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT employee_key, year, month, base_salary, net_salary,
		       source_file, version, tx_id, archived_at
		FROM payroll_history
		WHERE employee_key = ?
		ORDER BY archived_at DESC
	`, employeeKey)
	if err != nil {
		return nil, fmt.Errorf("failed to list history for %q: %w", employeeKey, err)
	}
	defer rows.Close()

	var history []*HistoryEntry
	for rows.Next() {
		var h HistoryEntry
		if err := rows.Scan(
			&h.EmployeeKey, &h.Year, &h.Month, &h.BaseSalary, &h.NetSalary,
			&h.SourceFile, &h.Version, &h.TxID, &h.ArchivedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		history = append(history, &h)
	}
	return history, rows.Err()
}

// scanEntry 단일 행 스캔
func scanEntry(row *sql.Row) (*model.CanonicalPayrollEntry, error) {
	var e model.CanonicalPayrollEntry
	var allowances, deductions string
	var extractedAt sql.NullTime
	err := row.Scan(
		&e.EmployeeKey, &e.EmployeeID, &e.EmployeeName, &e.Department,
		&e.Year, &e.Month, &e.BaseSalary, &allowances, &deductions,
		&e.NetSalary, &e.PaymentStatus, &e.SourceFile, &extractedAt, &e.Version,
	)
	if err != nil {
		return nil, err
	}
	if err := unmarshalAmounts(&e, allowances, deductions); err != nil {
		return nil, err
	}
	if extractedAt.Valid {
		e.ExtractedAt = extractedAt.Time
	}
	return &e, nil
}

// scanEntries 다중 행 스캔
func scanEntries(rows *sql.Rows) ([]*model.CanonicalPayrollEntry, error) {
	var entries []*model.CanonicalPayrollEntry
	for rows.Next() {
		var e model.CanonicalPayrollEntry
		var allowances, deductions string
		var extractedAt sql.NullTime
		if err := rows.Scan(
			&e.EmployeeKey, &e.EmployeeID, &e.EmployeeName, &e.Department,
			&e.Year, &e.Month, &e.BaseSalary, &allowances, &deductions,
			&e.NetSalary, &e.PaymentStatus, &e.SourceFile, &extractedAt, &e.Version,
		); err != nil {
			return nil, fmt.Errorf("failed to scan entry row: %w", err)
		}
		if err := unmarshalAmounts(&e, allowances, deductions); err != nil {
			return nil, err
		}
		if extractedAt.Valid {
			e.ExtractedAt = extractedAt.Time
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// marshalAmounts 수당/공제 맵을 JSON 컬럼으로 직렬화
func marshalAmounts(e *model.CanonicalPayrollEntry) (string, string, error) {
	allowances, err := json.Marshal(nonNil(e.Allowances))
	if err != nil {
		return "", "", fmt.Errorf("failed to marshal allowances for %s: %w", e.Key(), err)
	}
	deductions, err := json.Marshal(nonNil(e.Deductions))
	if err != nil {
		return "", "", fmt.Errorf("failed to marshal deductions for %s: %w", e.Key(), err)
	}
	return string(allowances), string(deductions), nil
}

// unmarshalAmounts JSON 컬럼을 금액 맵으로 복원
func unmarshalAmounts(e *model.CanonicalPayrollEntry, allowances, deductions string) error {
	if err := json.Unmarshal([]byte(allowances), &e.Allowances); err != nil {
		return fmt.Errorf("failed to unmarshal allowances for %s: %w", e.Key(), err)
	}
	if err := json.Unmarshal([]byte(deductions), &e.Deductions); err != nil {
		return fmt.Errorf("failed to unmarshal deductions for %s: %w", e.Key(), err)
	}
	return nil
}

func nonNil(m map[string]float64) map[string]float64 {
	if m == nil {
		return map[string]float64{}
	}
	return m
}
