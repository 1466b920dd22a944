package converter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salarysync/internal/model"
)

func sampleRecord() *model.PayrollRecord {
	return &model.PayrollRecord{
		RowIndex:   2,
		Name:       "김철수",
		EmployeeID: "E001",
		Department: "영업",
		BaseSalary: 3000000,
		Allowances: map[string]float64{"mealAllowance": 100000, "incentive": 0},
		Deductions: map[string]float64{"nationalPension": 135000},
		NetPay:     2965000,
	}
}

func TestToCanonical(t *testing.T) {
	t.Parallel()

	extractedAt := time.Date(2025, 7, 28, 10, 0, 0, 0, time.UTC)
	entries := ToCanonical([]*model.PayrollRecord{sampleRecord()}, 2025, 7, "july.xlsx", extractedAt)
	require.Len(t, entries, 1)

	e := entries[0]
	assert.Equal(t, "E001", e.EmployeeKey)
	assert.Equal(t, "김철수", e.EmployeeName)
	assert.Equal(t, 2025, e.Year)
	assert.Equal(t, 7, e.Month)
	assert.Equal(t, 3000000.0, e.BaseSalary)
	assert.Equal(t, 2965000.0, e.NetSalary)
	assert.Equal(t, model.PaymentStatusPending, e.PaymentStatus)
	assert.Equal(t, "july.xlsx", e.SourceFile)
	assert.Equal(t, extractedAt, e.ExtractedAt)
	assert.Equal(t, 0, e.Version)
}

func TestToCanonical_DropsZeroAmounts(t *testing.T) {
	t.Parallel()

	entries := ToCanonical([]*model.PayrollRecord{sampleRecord()}, 2025, 7, "a.xlsx", time.Now())
	require.Len(t, entries, 1)

	assert.Equal(t, map[string]float64{"mealAllowance": 100000}, entries[0].Allowances)
	assert.NotContains(t, entries[0].Allowances, "incentive")
}

func TestToCanonical_EmployeeKeyFallsBackToName(t *testing.T) {
	t.Parallel()

	r := sampleRecord()
	r.EmployeeID = ""
	entries := ToCanonical([]*model.PayrollRecord{r}, 2025, 7, "a.xlsx", time.Now())
	require.Len(t, entries, 1)
	assert.Equal(t, "김철수", entries[0].EmployeeKey)
}

func TestToCanonical_DoesNotShareMaps(t *testing.T) {
	t.Parallel()

	r := sampleRecord()
	entries := ToCanonical([]*model.PayrollRecord{r}, 2025, 7, "a.xlsx", time.Now())
	require.Len(t, entries, 1)

	r.Allowances["mealAllowance"] = 999999
	assert.Equal(t, 100000.0, entries[0].Allowances["mealAllowance"],
		"canonical entry must not observe later mutation of the source record")
}

func TestToCanonical_Deterministic(t *testing.T) {
	t.Parallel()

	extractedAt := time.Now()
	records := []*model.PayrollRecord{sampleRecord()}

	first := ToCanonical(records, 2025, 7, "a.xlsx", extractedAt)
	second := ToCanonical(records, 2025, 7, "a.xlsx", extractedAt)
	assert.Equal(t, first, second)
}
