// Package converter 추출된 원시 급여 레코드를 표준 스키마로 변환한다.
// 파싱과 영속화 사이의 이음새로, 네트워크/저장소 접근 없이 단독 테스트된다.
package converter

import (
	"time"

	"salarysync/internal/model"
)

// ToCanonical 원시 레코드 목록을 (연, 월, 출처) 범위의 표준 급여 항목으로 변환.
// 순수 함수이며 동일 입력에 대해 동일 출력을 보장한다.
func ToCanonical(records []*model.PayrollRecord, year, month int, sourceFile string, extractedAt time.Time) []*model.CanonicalPayrollEntry {
	entries := make([]*model.CanonicalPayrollEntry, 0, len(records))
	for _, r := range records {
		entries = append(entries, convertRecord(r, year, month, sourceFile, extractedAt))
	}
	return entries
}

func convertRecord(r *model.PayrollRecord, year, month int, sourceFile string, extractedAt time.Time) *model.CanonicalPayrollEntry {
	entry := &model.CanonicalPayrollEntry{
		EmployeeKey:   r.EmployeeKey(),
		EmployeeID:    r.EmployeeID,
		EmployeeName:  r.Name,
		Department:    r.Department,
		Year:          year,
		Month:         month,
		BaseSalary:    r.BaseSalary,
		Allowances:    copyAmounts(r.Allowances),
		Deductions:    copyAmounts(r.Deductions),
		NetSalary:     r.NetPay,
		PaymentStatus: model.PaymentStatusPending,
		SourceFile:    sourceFile,
		ExtractedAt:   extractedAt,
	}
	return entry
}

// copyAmounts 0원 필드를 버리고 금액 맵을 복사.
// 표준 항목은 생성 후 불변이므로 원본 맵을 공유하지 않는다.
func copyAmounts(src map[string]float64) map[string]float64 {
	dst := make(map[string]float64, len(src))
	for field, amount := range src {
		if amount == 0 {
			continue
		}
		dst[field] = amount
	}
	return dst
}
