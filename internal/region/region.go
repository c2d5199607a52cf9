// Package region maps Korean administrative region names to URL slugs.
package region

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Sido is a first-level region with its canonical slug and official name.
type Sido struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// sidos is ordered; the first name per slug is the official one.
var sidos = []struct {
	slug  string
	names []string
}{
	{"seoul", []string{"서울특별시", "서울"}},
	{"busan", []string{"부산광역시", "부산"}},
	{"daegu", []string{"대구광역시", "대구"}},
	{"incheon", []string{"인천광역시", "인천"}},
	{"gwangju", []string{"광주광역시", "광주"}},
	{"daejeon", []string{"대전광역시", "대전"}},
	{"ulsan", []string{"울산광역시", "울산"}},
	{"sejong", []string{"세종특별자치시", "세종"}},
	{"gyeonggi", []string{"경기도", "경기"}},
	{"gangwon", []string{"강원특별자치도", "강원도", "강원"}},
	{"chungbuk", []string{"충청북도", "충북"}},
	{"chungnam", []string{"충청남도", "충남"}},
	{"jeonbuk", []string{"전북특별자치도", "전라북도", "전북"}},
	{"jeonnam", []string{"전라남도", "전남"}},
	{"gyeongbuk", []string{"경상북도", "경북"}},
	{"gyeongnam", []string{"경상남도", "경남"}},
	{"jeju", []string{"제주특별자치도", "제주"}},
}

var (
	nameToSlug = map[string]string{}
	slugToName = map[string]string{}
)

func init() {
	for _, s := range sidos {
		for _, name := range s.names {
			nameToSlug[name] = s.slug
		}
		if _, ok := slugToName[s.slug]; !ok {
			slugToName[s.slug] = s.names[0]
		}
	}
}

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	nonSlugRe    = regexp.MustCompile(`[^a-z0-9가-힣\-]`)
	bracketRe    = regexp.MustCompile(`[()\[\]]`)
	sidoSuffixRe = regexp.MustCompile(`(특별시|광역시|특별자치시|특별자치도|도)$`)
)

// SidoToSlug returns the table slug for a sido name, with or without its
// official suffix. Unknown names fall back to ToSlug.
func SidoToSlug(name string) string {
	if slug, ok := nameToSlug[norm.NFC.String(strings.TrimSpace(name))]; ok {
		return slug
	}
	return ToSlug(name)
}

// SlugToSido returns the official sido name for a slug.
func SlugToSido(slug string) (string, bool) {
	name, ok := slugToName[strings.ToLower(strings.TrimSpace(slug))]
	return name, ok
}

// Sidos lists every known sido in table order.
func Sidos() []Sido {
	out := make([]Sido, 0, len(sidos))
	for _, s := range sidos {
		out = append(out, Sido{Slug: s.slug, Name: s.names[0]})
	}
	return out
}

// ToSlug lowercases, hyphenates whitespace and drops every rune outside
// [a-z0-9가-힣-]. Hangul is NFC-composed first so decomposed jamo input
// yields the same slug as precomposed syllables.
func ToSlug(text string) string {
	s := norm.NFC.String(text)
	s = strings.ToLower(strings.TrimSpace(s))
	s = whitespaceRe.ReplaceAllString(s, "-")
	return nonSlugRe.ReplaceAllString(s, "")
}

// PoolNameToSlug hyphenates whitespace and strips brackets. Other
// characters are kept as-is.
func PoolNameToSlug(name string) string {
	s := norm.NFC.String(strings.TrimSpace(name))
	s = whitespaceRe.ReplaceAllString(s, "-")
	s = bracketRe.ReplaceAllString(s, "")
	return strings.ToLower(s)
}

// ShortSido trims the administrative suffix for display, e.g. 서울특별시 -> 서울.
func ShortSido(name string) string {
	return sidoSuffixRe.ReplaceAllString(strings.TrimSpace(name), "")
}

// FromAddress extracts sido and sigungu from a Korean street or lot address.
// Both are empty when the first token is not a known sido.
func FromAddress(address string) (sido, sigungu string) {
	fields := strings.Fields(norm.NFC.String(address))
	if len(fields) == 0 {
		return "", ""
	}
	if _, ok := nameToSlug[fields[0]]; !ok {
		return "", ""
	}
	sido = fields[0]
	if nameToSlug[sido] == "sejong" {
		return sido, sido
	}
	if len(fields) > 1 {
		sigungu = fields[1]
		// 수원시 장안구 style addresses carry a district under the city.
		if len(fields) > 2 && strings.HasSuffix(fields[1], "시") && strings.HasSuffix(fields[2], "구") {
			sigungu = fields[1] + " " + fields[2]
		}
	}
	return sido, sigungu
}
