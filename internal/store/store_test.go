package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salarysync/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testEntry(employeeKey string, year, month int, base float64) *model.CanonicalPayrollEntry {
	return &model.CanonicalPayrollEntry{
		EmployeeKey:   employeeKey,
		EmployeeID:    employeeKey,
		EmployeeName:  "김철수",
		Department:    "영업",
		Year:          year,
		Month:         month,
		BaseSalary:    base,
		Allowances:    map[string]float64{"mealAllowance": 100000},
		Deductions:    map[string]float64{"nationalPension": 135000},
		NetSalary:     base - 35000,
		PaymentStatus: model.PaymentStatusPending,
		SourceFile:    "test.xlsx",
		ExtractedAt:   time.Now().UTC().Truncate(time.Second),
	}
}

// commitOne 스테이징 경로로 단일 항목을 라이브에 반영
func commitOne(t *testing.T, s *Store, txID string, e *model.CanonicalPayrollEntry, archive bool) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.CreateTransaction(ctx, txID, 1))
	require.NoError(t, s.StageEntries(ctx, txID, []StagedEntry{{Entry: e, ArchiveExisting: archive}}))
	require.NoError(t, s.CommitStaged(ctx, txID))
}

func TestFindEntry_AbsentReturnsNil(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	entry, err := s.FindEntry(context.Background(),
		model.EntryKey{EmployeeKey: "E999", Year: 2025, Month: 7})
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestCommitStaged_RoundTrip(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	e := testEntry("E001", 2025, 7, 3000000)

	commitOne(t, s, "tx-1", e, false)

	found, err := s.FindEntry(ctx, e.Key())
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "E001", found.EmployeeKey)
	assert.Equal(t, 3000000.0, found.BaseSalary)
	assert.Equal(t, map[string]float64{"mealAllowance": 100000}, found.Allowances)
	assert.Equal(t, map[string]float64{"nationalPension": 135000}, found.Deductions)
	assert.Equal(t, 0, found.Version)

	// 커밋 후 스테이징은 비어 있고 트랜잭션은 COMMITTED
	tx, err := s.GetTransaction(ctx, "tx-1")
	require.NoError(t, err)
	require.NotNil(t, tx)
	assert.Equal(t, TxCommitted, tx.Status)
	assert.NotNil(t, tx.CompletedAt)

	var stagedCount int
	require.NoError(t, s.db.QueryRow(
		`SELECT COUNT(*) FROM payroll_staging WHERE tx_id = ?`, "tx-1").Scan(&stagedCount))
	assert.Equal(t, 0, stagedCount)
}

func TestCommitStaged_UpsertBumpsVersion(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	commitOne(t, s, "tx-1", testEntry("E001", 2025, 7, 3000000), false)

	updated := testEntry("E001", 2025, 7, 3200000)
	commitOne(t, s, "tx-2", updated, false)

	found, err := s.FindEntry(ctx, updated.Key())
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, 3200000.0, found.BaseSalary)
	assert.Equal(t, 1, found.Version)
}

func TestCommitStaged_ArchivesExisting(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	commitOne(t, s, "tx-1", testEntry("E001", 2025, 7, 3000000), false)
	commitOne(t, s, "tx-2", testEntry("E001", 2025, 7, 3200000), true)

	history, err := s.ListHistory(ctx, "E001")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, 3000000.0, history[0].BaseSalary, "history must hold the pre-overwrite row")
	assert.Equal(t, "tx-2", history[0].TxID)

	live, err := s.FindEntry(ctx, model.EntryKey{EmployeeKey: "E001", Year: 2025, Month: 7})
	require.NoError(t, err)
	assert.Equal(t, 3200000.0, live.BaseSalary)
}

func TestMarkRolledBack_PurgesStaging(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	e := testEntry("E001", 2025, 7, 3000000)

	require.NoError(t, s.CreateTransaction(ctx, "tx-rb", 1))
	require.NoError(t, s.StageEntries(ctx, "tx-rb", []StagedEntry{{Entry: e}}))
	require.NoError(t, s.MarkRolledBack(ctx, "tx-rb"))

	// 라이브에는 반영되지 않아야 한다
	found, err := s.FindEntry(ctx, e.Key())
	require.NoError(t, err)
	assert.Nil(t, found)

	tx, err := s.GetTransaction(ctx, "tx-rb")
	require.NoError(t, err)
	assert.Equal(t, TxRolledBack, tx.Status)

	var stagedCount int
	require.NoError(t, s.db.QueryRow(
		`SELECT COUNT(*) FROM payroll_staging WHERE tx_id = ?`, "tx-rb").Scan(&stagedCount))
	assert.Equal(t, 0, stagedCount)
}

func TestListEntries_FiltersByMonth(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateTransaction(ctx, "tx-1", 3))
	require.NoError(t, s.StageEntries(ctx, "tx-1", []StagedEntry{
		{Entry: testEntry("E001", 2025, 7, 3000000)},
		{Entry: testEntry("E002", 2025, 7, 3500000)},
		{Entry: testEntry("E001", 2025, 8, 3000000)},
	}))
	require.NoError(t, s.CommitStaged(ctx, "tx-1"))

	july, err := s.ListEntries(ctx, 2025, 7)
	require.NoError(t, err)
	assert.Len(t, july, 2)

	august, err := s.ListEntries(ctx, 2025, 8)
	require.NoError(t, err)
	assert.Len(t, august, 1)

	byEmployee, err := s.FindByEmployee(ctx, "E001")
	require.NoError(t, err)
	assert.Len(t, byEmployee, 2)
}

func TestImportLog_Lifecycle(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.CreateImportLog(ctx, "july.xlsx", 2048, "abc123")
	require.NoError(t, err)
	require.NotZero(t, id)

	// 처리 중에는 해시 중복 검색에 걸리지 않는다
	dup, err := s.FindCompletedImportByHash(ctx, "abc123")
	require.NoError(t, err)
	assert.Nil(t, dup)

	require.NoError(t, s.UpdateImportLog(ctx, id, 2025, 7, 10, 8, 1, 1, 1, 0,
		ImportStatusCompleted, ""))

	dup, err = s.FindCompletedImportByHash(ctx, "abc123")
	require.NoError(t, err)
	require.NotNil(t, dup)
	assert.Equal(t, id, dup.ID)
	assert.Equal(t, "july.xlsx", dup.Filename)
	assert.Equal(t, 10, dup.TotalRecords)

	logs, err := s.ListImportLogs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, ImportStatusCompleted, logs[0].Status)
}
