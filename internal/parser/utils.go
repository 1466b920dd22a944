package parser

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/width"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// NormalizeHeader 헤더 텍스트 정규화.
// 전각 문자를 반각으로 통일하고 공백/개행/괄호 주석을 제거한다.
func NormalizeHeader(name string) string {
	name = width.Narrow.String(name)
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, "\n", "")
	name = strings.ReplaceAll(name, "\r", "")
	name = strings.ReplaceAll(name, "\t", "")
	name = whitespaceRe.ReplaceAllString(name, "")
	// 단위 주석 제거: "기본급(원)" -> "기본급"
	if i := strings.IndexAny(name, "(（"); i > 0 {
		name = name[:i]
	}
	return strings.ToLower(name)
}

// Tokenize 정규화된 문자열의 문자 바이그램 집합.
// 한국어 복합어("야간근무수당" 대 "야간수당")의 퍼지 중첩 판정에 쓴다.
func Tokenize(s string) map[string]struct{} {
	runes := []rune(s)
	tokens := make(map[string]struct{})
	if len(runes) == 1 {
		tokens[string(runes)] = struct{}{}
		return tokens
	}
	for i := 0; i+1 < len(runes); i++ {
		tokens[string(runes[i:i+2])] = struct{}{}
	}
	return tokens
}

// TokenOverlap 별칭 토큰 중 헤더에 존재하는 비율 [0,1]
func TokenOverlap(header, alias string) float64 {
	aliasTokens := Tokenize(alias)
	if len(aliasTokens) == 0 {
		return 0
	}
	headerTokens := Tokenize(header)
	shared := 0
	for tok := range aliasTokens {
		if _, ok := headerTokens[tok]; ok {
			shared++
		}
	}
	return float64(shared) / float64(len(aliasTokens))
}

var yearMonthPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(\d{4})년\s*0?(\d{1,2})월`),
	regexp.MustCompile(`(\d{4})[-./](\d{1,2})`),
	regexp.MustCompile(`(20\d{2})(0[1-9]|1[0-2])`),
}

// ExtractYearMonth 텍스트에서 연월 추출.
// "2025년 7월" / "2025-07" / "202507" 형식을 지원한다.
func ExtractYearMonth(text string) (year, month int, found bool) {
	for _, re := range yearMonthPatterns {
		matches := re.FindStringSubmatch(text)
		if len(matches) >= 3 {
			year, _ = strconv.Atoi(matches[1])
			month, _ = strconv.Atoi(matches[2])
			if month >= 1 && month <= 12 {
				return year, month, true
			}
		}
	}
	return 0, 0, false
}

// ContainsAny 키워드 중 하나라도 포함하는지 검사
func ContainsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
