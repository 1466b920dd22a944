package model

import (
	"fmt"
	"time"
)

// PaymentStatus 급여 지급 상태
const (
	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
)

// PayrollRecord 시트에서 추출된 1명분 원시 급여 레코드
type PayrollRecord struct {
	RowIndex   int    `json:"rowIndex"` // 시트 상의 행 번호 (0-based)
	Name       string `json:"name"`
	EmployeeID string `json:"employeeId,omitempty"`
	Department string `json:"department,omitempty"`
	JobType    string `json:"jobType,omitempty"`

	BaseSalary float64            `json:"baseSalary"`
	Allowances map[string]float64 `json:"allowances"` // 수당 필드 (필드명 -> 금액)
	Deductions map[string]float64 `json:"deductions"` // 공제 필드 (필드명 -> 금액)

	// 파생 합계. 시트에 명시된 값과 계산값을 모두 보존한다.
	TotalAllowances           float64 `json:"totalAllowances"`
	ComputedGross             float64 `json:"computedGross"`     // 기본급 + 수당 합계
	DeclaredGross             float64 `json:"declaredGross"`     // 시트의 지급총액 컬럼 (없으면 0)
	GrossSalaryPreTax         float64 `json:"grossSalaryPreTax"` // 유효 세전 총액 (명시값 우선)
	CalculatedTotalDeductions float64 `json:"calculatedTotalDeductions"`
	DeclaredTotalDeductions   float64 `json:"declaredTotalDeductions"` // 시트의 공제총액 컬럼 (없으면 0)
	NetPay                    float64 `json:"netPay"`                  // 시트에 명시된 실지급액

	WorkDays      float64 `json:"workDays,omitempty"`
	OvertimeHours float64 `json:"overtimeHours,omitempty"`

	// 검증 경고. 추출은 관대하게 진행하고 불일치는 표시만 한다.
	ValidationWarnings []string `json:"validationWarnings,omitempty"`
}

// EmployeeKey 중복 판정에 쓰는 직원 식별자. 사번이 있으면 사번, 없으면 성명.
func (r *PayrollRecord) EmployeeKey() string {
	if r.EmployeeID != "" {
		return r.EmployeeID
	}
	return r.Name
}

// CanonicalPayrollEntry 정규화된 급여 레코드. 생성 후 불변이며
// 저장소와 대사(reconciliation) 단계에서만 소비된다.
type CanonicalPayrollEntry struct {
	EmployeeKey  string `json:"employeeKey"`
	EmployeeID   string `json:"employeeId,omitempty"`
	EmployeeName string `json:"employeeName"`
	Department   string `json:"department,omitempty"`

	Year  int `json:"year"`
	Month int `json:"month"`

	BaseSalary float64            `json:"baseSalary"`
	Allowances map[string]float64 `json:"allowances"`
	Deductions map[string]float64 `json:"deductions"`
	NetSalary  float64            `json:"netSalary"`

	PaymentStatus string    `json:"paymentStatus"`
	SourceFile    string    `json:"sourceFile"`
	ExtractedAt   time.Time `json:"extractedAt"`
	Version       int       `json:"version,omitempty"` // 저장소가 관리, 신규는 0
}

// Key 대사 키 (직원 식별자, 연, 월)
func (e *CanonicalPayrollEntry) Key() EntryKey {
	return EntryKey{EmployeeKey: e.EmployeeKey, Year: e.Year, Month: e.Month}
}

// EntryKey 중복/충돌 판정에 쓰는 대사 키
type EntryKey struct {
	EmployeeKey string `json:"employeeKey"`
	Year        int    `json:"year"`
	Month       int    `json:"month"`
}

func (k EntryKey) String() string {
	return fmt.Sprintf("%s/%04d-%02d", k.EmployeeKey, k.Year, k.Month)
}
