package service

import (
	"errors"
	"strings"
	"testing"

	"poolfinder/internal/client/publicdata"
	"poolfinder/internal/models"
)

func TestIsSwimmingPool(t *testing.T) {
	cases := []struct {
		name string
		item publicdata.FacilityItem
		want bool
	}{
		{"name keyword", publicdata.FacilityItem{FacltNm: "잠실 실내수영장"}, true},
		{"category keyword", publicdata.FacilityItem{FacltNm: "구민체육센터", FcltySeCdNm: "수영장"}, true},
		{"english mixed case", publicdata.FacilityItem{FacltNm: "Olympic Swimming Center"}, true},
		{"aqua", publicdata.FacilityItem{FacltNm: "아쿠아센터"}, true},
		{"industry", publicdata.FacilityItem{FacltNm: "시민회관", IndutyNm: "Pool"}, true},
		{"unrelated", publicdata.FacilityItem{FacltNm: "시립 테니스장", FcltySeCdNm: "테니스장"}, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := IsSwimmingPool(c.item); got != c.want {
				t.Fatalf("IsSwimmingPool=%v want=%v", got, c.want)
			}
		})
	}
}

func TestIsOperatingLocal(t *testing.T) {
	for state, want := range map[publicdata.FlexString]bool{
		"영업":    true,
		" 정상 ": true,
		"영업중":   true,
		"폐업":    false,
		"휴업":    false,
		"":      false,
	} {
		if got := IsOperatingLocal(publicdata.LocalDataItem{DtlStateNm: state}); got != want {
			t.Fatalf("state=%q got=%v want=%v", state, got, want)
		}
	}
}

func TestNormalizeFacility_WithDetail(t *testing.T) {
	item := publicdata.FacilityItem{
		FacltNm:  " 올림픽 수영장 (본관) ",
		CtprvnNm: "서울특별시",
		SignguNm: "송파구",
		Rdnmadr:  "",
		Lnmadr:   "서울 송파구 방이동 88",
		TelNo:    "02-410-1114",
		FcltyLa:  "37.5152",
		FcltyLo:  "127.1237",
	}
	detail := &publicdata.FacilityDetailItem{
		FacltNm:         "올림픽 수영장 (본관)",
		FcltySe:         "공공체육시설",
		LaneCo:          "10",
		SwmplSmr:        "1,250.5",
		SwmplLt:         "50",
		IndoorOutdoorGb: "실내",
	}
	rec, err := NormalizeFacility(item, detail)
	if err != nil {
		t.Fatalf("NormalizeFacility: %v", err)
	}
	if rec.Name != "올림픽 수영장 (본관)" {
		t.Fatalf("name not trimmed: %q", rec.Name)
	}
	if strings.ContainsAny(rec.Slug, "()[] ") || rec.Slug != "올림픽-수영장-본관" {
		t.Fatalf("slug=%q", rec.Slug)
	}
	if rec.SidoSlug != "seoul" || rec.SigunguSlug != "송파구" {
		t.Fatalf("region slugs=%q/%q", rec.SidoSlug, rec.SigunguSlug)
	}
	if rec.Address == nil || *rec.Address != "서울 송파구 방이동 88" {
		t.Fatalf("address fallback=%v", rec.Address)
	}
	if rec.Type == nil || *rec.Type != models.PoolTypePublic {
		t.Fatalf("type=%v", rec.Type)
	}
	if rec.Indoor == nil || !*rec.Indoor {
		t.Fatalf("indoor=%v", rec.Indoor)
	}
	if rec.LaneCount == nil || *rec.LaneCount != 10 || rec.PoolLength == nil || *rec.PoolLength != 50 {
		t.Fatalf("lane=%v length=%v", rec.LaneCount, rec.PoolLength)
	}
	if rec.PoolArea == nil || rec.PoolArea.String() != "1250.5" {
		t.Fatalf("area=%v", rec.PoolArea)
	}
	if rec.Lat == nil || rec.Lat.String() != "37.5152" || rec.Lng == nil {
		t.Fatalf("coords=%v,%v", rec.Lat, rec.Lng)
	}
	if rec.SourceAPI != models.SourceNationalFacility || rec.SourceID != "nf_"+rec.Slug {
		t.Fatalf("source=%s/%s", rec.SourceAPI, rec.SourceID)
	}
	if !rec.IsOperating {
		t.Fatalf("synced records are operating")
	}
}

func TestNormalizeFacility_UnknownsAreNil(t *testing.T) {
	item := publicdata.FacilityItem{FacltNm: "동네풀", CtprvnNm: "강원", SignguNm: "춘천시", FcltyLa: "abc", FcltyLo: "127.7"}
	detail := &publicdata.FacilityDetailItem{LaneCo: "n/a", SwmplLt: "-", IndoorOutdoorGb: "기타", FcltySe: "기타"}
	rec, err := NormalizeFacility(item, detail)
	if err != nil {
		t.Fatalf("NormalizeFacility: %v", err)
	}
	if rec.Indoor != nil || rec.LaneCount != nil || rec.PoolLength != nil || rec.PoolArea != nil {
		t.Fatalf("unparseable values must be nil: %+v", rec)
	}
	if rec.Lat != nil || rec.Lng != nil {
		t.Fatalf("half a coordinate pair must be dropped")
	}
	if rec.Type == nil || *rec.Type != models.PoolTypePublic {
		t.Fatalf("registry rows default to public: %v", rec.Type)
	}
	if rec.SidoSlug != "gangwon" {
		t.Fatalf("short sido slug=%q", rec.SidoSlug)
	}
}

func TestNormalizeFacility_RequiredFields(t *testing.T) {
	if _, err := NormalizeFacility(publicdata.FacilityItem{CtprvnNm: "서울"}, nil); !errors.Is(err, ErrMissingName) {
		t.Fatalf("err=%v want ErrMissingName", err)
	}
	if _, err := NormalizeFacility(publicdata.FacilityItem{FacltNm: "수영장"}, nil); !errors.Is(err, ErrMissingSido) {
		t.Fatalf("err=%v want ErrMissingSido", err)
	}
}

func TestNormalizeLocal(t *testing.T) {
	item := publicdata.LocalDataItem{
		MgtNo:       "3220000-104-2001-00001",
		BplcNm:      "강남 스포츠 풀",
		DtlStateNm:  "영업",
		UptaeNm:     "민간수영장",
		InOutGbnNm:  "실외",
		SafetyMngYn: "y",
		RdnWhlAddr:  "경기도 수원시 장안구 정자로 1",
		Y:           "37.30",
		X:           "127.01",
		SiteTel:     " ",
	}
	rec, err := NormalizeLocal(item)
	if err != nil {
		t.Fatalf("NormalizeLocal: %v", err)
	}
	if rec.Sido != "경기도" || rec.SidoSlug != "gyeonggi" || rec.Sigungu != "수원시 장안구" || rec.SigunguSlug != "수원시-장안구" {
		t.Fatalf("region=%q/%q %q/%q", rec.Sido, rec.SidoSlug, rec.Sigungu, rec.SigunguSlug)
	}
	if rec.Type == nil || *rec.Type != models.PoolTypePrivate {
		t.Fatalf("type=%v", rec.Type)
	}
	if rec.Indoor == nil || *rec.Indoor {
		t.Fatalf("indoor=%v", rec.Indoor)
	}
	if rec.SafetyGrade == nil || *rec.SafetyGrade != "certified" {
		t.Fatalf("safety=%v", rec.SafetyGrade)
	}
	if rec.Phone != nil {
		t.Fatalf("blank phone must be nil")
	}
	if rec.SourceAPI != models.SourceLocalData || rec.SourceID != "3220000-104-2001-00001" {
		t.Fatalf("source=%s/%s", rec.SourceAPI, rec.SourceID)
	}
}

func TestNormalizeLocal_Rejects(t *testing.T) {
	cases := []struct {
		name string
		item publicdata.LocalDataItem
		want error
	}{
		{"no name", publicdata.LocalDataItem{MgtNo: "1", RdnWhlAddr: "서울특별시 중구"}, ErrMissingName},
		{"no id", publicdata.LocalDataItem{BplcNm: "풀", RdnWhlAddr: "서울특별시 중구"}, ErrMissingSourceID},
		{"no sido", publicdata.LocalDataItem{BplcNm: "풀", MgtNo: "1", SiteWhlAddr: "어딘가 1"}, ErrMissingSido},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := NormalizeLocal(c.item); !errors.Is(err, c.want) {
				t.Fatalf("err=%v want=%v", err, c.want)
			}
		})
	}
}

func TestParseLatLng_OutsideKorea(t *testing.T) {
	// Projected TM metres, as some licensing rows carry.
	lat, lng := parseLatLng("451234.5", "198765.4")
	if lat != nil || lng != nil {
		t.Fatalf("out-of-range pair must be nil")
	}
}

func TestDisambiguateSlug(t *testing.T) {
	cases := []struct{ slug, sourceID, want string }{
		{"올림픽-수영장", "3220000-104", "올림픽-수영장-322000"},
		{"pool", "nf_가나다라마바사", "pool-nf가나다라"},
		{"pool", "ab", "pool-ab"},
		{"pool", "___", "pool"},
	}
	for _, c := range cases {
		if got := DisambiguateSlug(c.slug, c.sourceID); got != c.want {
			t.Fatalf("DisambiguateSlug(%q,%q)=%q want=%q", c.slug, c.sourceID, got, c.want)
		}
	}
}

func TestParseNaturalKey(t *testing.T) {
	if k, err := ParseNaturalKey(""); err != nil || k != NaturalKeySlug {
		t.Fatalf("default=%v err=%v", k, err)
	}
	if k, err := ParseNaturalKey("SOURCE_ID"); err != nil || k != NaturalKeySourceID {
		t.Fatalf("source_id=%v err=%v", k, err)
	}
	if _, err := ParseNaturalKey("name"); err == nil {
		t.Fatalf("expected error")
	}
}
