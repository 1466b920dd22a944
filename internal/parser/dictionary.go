package parser

// FieldCategory 시스템 필드 분류. 파생 합계 계산 시 카테고리를 기준으로 집계한다.
type FieldCategory string

const (
	CategoryIdentity   FieldCategory = "identity"
	CategoryBasePay    FieldCategory = "base_pay"
	CategoryAllowance  FieldCategory = "allowance"
	CategoryDeduction  FieldCategory = "deduction"
	CategorySummary    FieldCategory = "summary"
	CategoryAttendance FieldCategory = "attendance"
)

// 표준 시스템 필드명
const (
	FieldEmployeeID = "employeeId"
	FieldName       = "name"
	FieldDepartment = "department"
	FieldJobType    = "jobType"

	FieldBaseSalary = "baseSalary"

	FieldOvertimeAllowance   = "overtimeAllowance"
	FieldHolidayAllowance    = "holidayAllowance"
	FieldNightAllowance      = "nightAllowance"
	FieldIncentive           = "incentive"
	FieldFixedIncentive      = "fixedIncentive"
	FieldBonusReward         = "bonusReward"
	FieldMealAllowance       = "mealAllowance"
	FieldRetroactivePay      = "retroactivePay"
	FieldAdditionalAllowance = "additionalAllowance"

	FieldNationalPension       = "nationalPension"
	FieldHealthInsurance       = "healthInsurance"
	FieldLongTermCareInsurance = "longTermCareInsurance"
	FieldEmploymentInsurance   = "employmentInsurance"
	FieldIncomeTax             = "incomeTax"
	FieldLocalIncomeTax        = "localIncomeTax"

	FieldGrossSalary     = "grossSalary"
	FieldTotalDeductions = "totalDeductions"
	FieldNetPay          = "netPay"

	FieldWorkDays      = "workDays"
	FieldOvertimeHours = "overtimeHours"
)

// FieldSpec 단일 시스템 필드의 사전 항목
type FieldSpec struct {
	Field    string
	Category FieldCategory
	Weight   float64  // 매핑 신뢰도 가중 평균에 쓰는 중요도
	Aliases  []string // 헤더 텍스트와 대조할 별칭 (정규화된 형태)
}

// Dictionary 필드 -> 별칭 -> 가중치 키워드 사전.
// 전역 상태 대신 주입 가능한 불변 설정 테이블로 다루어
// 로케일/고객사별 사전을 교체할 수 있게 한다.
type Dictionary struct {
	Fields        []FieldSpec
	SheetKeywords []string // 시트명 급여 관련 키워드
	MinConfidence float64  // 퍼지 매칭 하한

	byField map[string]*FieldSpec
}

// NewDictionary 필드 스펙으로 사전을 구성
func NewDictionary(fields []FieldSpec, sheetKeywords []string, minConfidence float64) *Dictionary {
	d := &Dictionary{
		Fields:        fields,
		SheetKeywords: sheetKeywords,
		MinConfidence: minConfidence,
		byField:       make(map[string]*FieldSpec, len(fields)),
	}
	for i := range d.Fields {
		d.byField[d.Fields[i].Field] = &d.Fields[i]
	}
	return d
}

// Lookup 필드명으로 스펙 조회. 없으면 nil.
func (d *Dictionary) Lookup(field string) *FieldSpec {
	return d.byField[field]
}

// CategoryOf 필드의 카테고리. 미등록 필드는 빈 문자열.
func (d *Dictionary) CategoryOf(field string) FieldCategory {
	if spec := d.byField[field]; spec != nil {
		return spec.Category
	}
	return ""
}

// WeightOf 필드 가중치. 미등록 필드는 1.
func (d *Dictionary) WeightOf(field string) float64 {
	if spec := d.byField[field]; spec != nil && spec.Weight > 0 {
		return spec.Weight
	}
	return 1
}

// DefaultDictionary 한국어/영어 급여 명세 기본 사전
func DefaultDictionary() *Dictionary {
	fields := []FieldSpec{
		{Field: FieldEmployeeID, Category: CategoryIdentity, Weight: 1,
			Aliases: []string{"사번", "사원번호", "직원번호", "사원코드", "employeeid", "empno"}},
		{Field: FieldName, Category: CategoryIdentity, Weight: 1,
			Aliases: []string{"성명", "이름", "직원명", "사원명", "name"}},
		{Field: FieldDepartment, Category: CategoryIdentity, Weight: 1,
			Aliases: []string{"부서", "부서명", "소속", "소속부서", "department"}},
		{Field: FieldJobType, Category: CategoryIdentity, Weight: 1,
			Aliases: []string{"직종", "직급", "직책", "고용형태", "jobtype"}},

		{Field: FieldBaseSalary, Category: CategoryBasePay, Weight: 2,
			Aliases: []string{"기본급", "기본급여", "기본임금", "basesalary", "basepay"}},

		{Field: FieldOvertimeAllowance, Category: CategoryAllowance, Weight: 1,
			Aliases: []string{"연장수당", "연장근로수당", "시간외수당", "초과근무수당", "overtime"}},
		{Field: FieldHolidayAllowance, Category: CategoryAllowance, Weight: 1,
			Aliases: []string{"휴일수당", "휴일근로수당", "특근수당", "holiday"}},
		{Field: FieldNightAllowance, Category: CategoryAllowance, Weight: 1,
			Aliases: []string{"야간수당", "야간근로수당", "심야수당", "night"}},
		{Field: FieldIncentive, Category: CategoryAllowance, Weight: 1,
			Aliases: []string{"인센티브", "성과급", "성과수당", "incentive"}},
		{Field: FieldFixedIncentive, Category: CategoryAllowance, Weight: 1,
			Aliases: []string{"고정인센티브", "고정성과급"}},
		{Field: FieldBonusReward, Category: CategoryAllowance, Weight: 1,
			Aliases: []string{"상여금", "상여", "포상금", "보너스", "bonus"}},
		{Field: FieldMealAllowance, Category: CategoryAllowance, Weight: 1,
			Aliases: []string{"식대", "식대수당", "식비", "중식대", "meal"}},
		{Field: FieldRetroactivePay, Category: CategoryAllowance, Weight: 1,
			Aliases: []string{"소급분", "소급급여", "소급지급액"}},
		{Field: FieldAdditionalAllowance, Category: CategoryAllowance, Weight: 1,
			Aliases: []string{"추가수당", "기타수당", "제수당", "기타지급"}},

		{Field: FieldNationalPension, Category: CategoryDeduction, Weight: 1,
			Aliases: []string{"국민연금", "연금보험료", "nationalpension"}},
		{Field: FieldHealthInsurance, Category: CategoryDeduction, Weight: 1,
			Aliases: []string{"건강보험", "건강보험료", "healthinsurance"}},
		{Field: FieldLongTermCareInsurance, Category: CategoryDeduction, Weight: 1,
			Aliases: []string{"장기요양보험", "장기요양", "노인장기요양보험"}},
		{Field: FieldEmploymentInsurance, Category: CategoryDeduction, Weight: 1,
			Aliases: []string{"고용보험", "고용보험료", "employmentinsurance"}},
		{Field: FieldIncomeTax, Category: CategoryDeduction, Weight: 1,
			Aliases: []string{"소득세", "갑근세", "근로소득세", "incometax"}},
		{Field: FieldLocalIncomeTax, Category: CategoryDeduction, Weight: 1,
			Aliases: []string{"지방소득세", "주민세", "지방세"}},

		{Field: FieldGrossSalary, Category: CategorySummary, Weight: 1,
			Aliases: []string{"지급총액", "지급합계", "급여총액", "세전총액", "총지급액", "지급액계"}},
		{Field: FieldTotalDeductions, Category: CategorySummary, Weight: 1,
			Aliases: []string{"공제총액", "공제합계", "공제액계", "총공제액"}},
		{Field: FieldNetPay, Category: CategorySummary, Weight: 2,
			Aliases: []string{"실지급액", "실수령액", "차인지급액", "차감지급액", "netpay"}},

		{Field: FieldWorkDays, Category: CategoryAttendance, Weight: 1,
			Aliases: []string{"근무일수", "출근일수", "근무일", "workdays"}},
		{Field: FieldOvertimeHours, Category: CategoryAttendance, Weight: 1,
			Aliases: []string{"연장시간", "연장근로시간", "초과근무시간", "시간외시간"}},
	}

	sheetKeywords := []string{
		"급여", "급상여", "월급", "임금", "상여", "명세",
		"payroll", "salary", "wage",
	}

	return NewDictionary(fields, sheetKeywords, 0.5)
}
