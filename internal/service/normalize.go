package service

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"poolfinder/internal/client/publicdata"
	"poolfinder/internal/models"
	"poolfinder/internal/region"
)

var (
	ErrMissingName     = errors.New("record has no facility name")
	ErrMissingSido     = errors.New("record has no sido")
	ErrMissingSourceID = errors.New("record has no source id")
)

var poolKeywords = []string{"수영", "풀", "pool", "swimming", "아쿠아"}

// Korea mainland and islands, WGS84.
var (
	minLat = decimal.NewFromInt(33)
	maxLat = decimal.NewFromInt(39)
	minLng = decimal.NewFromInt(124)
	maxLng = decimal.NewFromInt(132)
)

// PoolRecord is the canonical shape every source is normalized into before
// upsert.
type PoolRecord struct {
	Name        string
	Slug        string
	Type        *models.PoolType
	Indoor      *bool
	Sido        string
	SidoSlug    string
	Sigungu     string
	SigunguSlug string
	Address     *string
	Lat         *decimal.Decimal
	Lng         *decimal.Decimal
	Phone       *string
	Website     *string
	LaneCount   *int
	PoolArea    *decimal.Decimal
	PoolLength  *int
	SafetyGrade *string
	IsOperating bool
	SourceAPI   string
	SourceID    string
}

func (r PoolRecord) toModel(now time.Time) *models.Pool {
	return &models.Pool{
		Name:        r.Name,
		Slug:        r.Slug,
		Type:        r.Type,
		Indoor:      r.Indoor,
		Sido:        r.Sido,
		SidoSlug:    r.SidoSlug,
		Sigungu:     r.Sigungu,
		SigunguSlug: r.SigunguSlug,
		Address:     r.Address,
		Lat:         r.Lat,
		Lng:         r.Lng,
		Phone:       r.Phone,
		Website:     r.Website,
		LaneCount:   r.LaneCount,
		PoolArea:    r.PoolArea,
		PoolLength:  r.PoolLength,
		SafetyGrade: r.SafetyGrade,
		IsOperating: r.IsOperating,
		SourceAPI:   strPtr(r.SourceAPI),
		SourceID:    strPtr(r.SourceID),
		UpdatedAt:   now,
	}
}

// IsSwimmingPool matches the pool keywords against name, category and
// industry of a registry row.
func IsSwimmingPool(item publicdata.FacilityItem) bool {
	target := strings.ToLower(item.FacltNm.String() + " " + item.FcltySeCdNm.String() + " " + item.IndutyNm.String())
	for _, kw := range poolKeywords {
		if strings.Contains(target, kw) {
			return true
		}
	}
	return false
}

// IsOperatingLocal reports whether a licensing row is currently in business.
func IsOperatingLocal(item publicdata.LocalDataItem) bool {
	switch item.DtlStateNm.String() {
	case "영업", "정상", "영업중":
		return true
	default:
		return false
	}
}

// IndexDetails keys survey rows by trimmed facility name; later rows win.
func IndexDetails(details []publicdata.FacilityDetailItem) map[string]publicdata.FacilityDetailItem {
	out := make(map[string]publicdata.FacilityDetailItem, len(details))
	for _, d := range details {
		if name := d.FacltNm.String(); name != "" {
			out[name] = d
		}
	}
	return out
}

// NormalizeFacility maps a national registry row, optionally joined with its
// survey detail, to a PoolRecord.
func NormalizeFacility(item publicdata.FacilityItem, detail *publicdata.FacilityDetailItem) (PoolRecord, error) {
	name := item.FacltNm.String()
	if name == "" {
		return PoolRecord{}, ErrMissingName
	}
	sido := item.CtprvnNm.String()
	if sido == "" {
		return PoolRecord{}, ErrMissingSido
	}
	sigungu := item.SignguNm.String()
	slug := region.PoolNameToSlug(name)

	lat, lng := parseLatLng(item.FcltyLa.String(), item.FcltyLo.String())
	rec := PoolRecord{
		Name:        name,
		Slug:        slug,
		Type:        poolTypePtr(models.PoolTypePublic),
		Sido:        sido,
		SidoSlug:    region.SidoToSlug(sido),
		Sigungu:     sigungu,
		SigunguSlug: region.ToSlug(sigungu),
		Address:     firstNonEmpty(item.Rdnmadr.String(), item.Lnmadr.String()),
		Lat:         lat,
		Lng:         lng,
		Phone:       strPtr(item.TelNo.String()),
		Website:     strPtr(item.HmpgAddr.String()),
		IsOperating: true,
		SourceAPI:   models.SourceNationalFacility,
		SourceID:    "nf_" + slug,
	}
	if detail != nil {
		if t := parsePoolType(detail.FcltySe.String()); t != nil {
			rec.Type = t
		}
		rec.Indoor = parseIndoor(detail.IndoorOutdoorGb.String())
		rec.LaneCount = parsePositiveInt(detail.LaneCo.String())
		rec.PoolArea = parseDecimal(detail.SwmplSmr.String())
		rec.PoolLength = parsePositiveInt(detail.SwmplLt.String())
	}
	return rec, nil
}

// NormalizeLocal maps a licensing row to a PoolRecord keyed by its
// management number. Region columns come from the address.
func NormalizeLocal(item publicdata.LocalDataItem) (PoolRecord, error) {
	name := item.BplcNm.String()
	if name == "" {
		return PoolRecord{}, ErrMissingName
	}
	sourceID := item.MgtNo.String()
	if sourceID == "" {
		return PoolRecord{}, ErrMissingSourceID
	}
	address := firstNonEmpty(item.RdnWhlAddr.String(), item.SiteWhlAddr.String())
	var addr string
	if address != nil {
		addr = *address
	}
	sido, sigungu := region.FromAddress(addr)
	if sido == "" {
		return PoolRecord{}, ErrMissingSido
	}

	lat, lng := parseLatLng(item.Y.String(), item.X.String())
	return PoolRecord{
		Name:        name,
		Slug:        region.PoolNameToSlug(name),
		Type:        parsePoolType(item.UptaeNm.String()),
		Indoor:      parseIndoor(item.InOutGbnNm.String()),
		Sido:        sido,
		SidoSlug:    region.SidoToSlug(sido),
		Sigungu:     sigungu,
		SigunguSlug: region.ToSlug(sigungu),
		Address:     address,
		Lat:         lat,
		Lng:         lng,
		Phone:       strPtr(item.SiteTel.String()),
		SafetyGrade: parseSafetyGrade(item.SafetyMngYn.String()),
		IsOperating: IsOperatingLocal(item),
		SourceAPI:   models.SourceLocalData,
		SourceID:    sourceID,
	}, nil
}

func parsePoolType(raw string) *models.PoolType {
	switch {
	case strings.Contains(raw, "공공"):
		return poolTypePtr(models.PoolTypePublic)
	case strings.Contains(raw, "민간"):
		return poolTypePtr(models.PoolTypePrivate)
	default:
		return nil
	}
}

func parseIndoor(raw string) *bool {
	switch {
	case strings.Contains(raw, "실내"):
		return boolPtr(true)
	case strings.Contains(raw, "실외"), strings.Contains(raw, "야외"):
		return boolPtr(false)
	default:
		return nil
	}
}

func parseSafetyGrade(raw string) *string {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "Y":
		return strPtr("certified")
	case "N":
		return strPtr("uncertified")
	default:
		return nil
	}
}

func parsePositiveInt(raw string) *int {
	raw = strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		f, ferr := strconv.ParseFloat(raw, 64)
		if ferr != nil {
			return nil
		}
		v = int(f)
	}
	if v <= 0 {
		return nil
	}
	return &v
}

func parseDecimal(raw string) *decimal.Decimal {
	raw = strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if raw == "" {
		return nil
	}
	v, err := decimal.NewFromString(raw)
	if err != nil || !v.IsPositive() {
		return nil
	}
	return &v
}

// parseLatLng keeps a coordinate pair only when both parse and fall inside
// Korea.
func parseLatLng(latRaw, lngRaw string) (*decimal.Decimal, *decimal.Decimal) {
	lat := parseDecimal(latRaw)
	lng := parseDecimal(lngRaw)
	if lat == nil || lng == nil {
		return nil, nil
	}
	if lat.LessThan(minLat) || lat.GreaterThan(maxLat) || lng.LessThan(minLng) || lng.GreaterThan(maxLng) {
		return nil, nil
	}
	return lat, lng
}

func firstNonEmpty(values ...string) *string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return &v
		}
	}
	return nil
}

func poolTypePtr(t models.PoolType) *models.PoolType {
	return &t
}
