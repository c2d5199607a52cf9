package publicdata

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// FlexString accepts JSON strings, numbers, booleans and null.
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "null" || raw == "" {
		*f = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		*f = FlexString(n.String())
		return nil
	}
	var v bool
	if err := json.Unmarshal(b, &v); err == nil {
		*f = FlexString(strconv.FormatBool(v))
		return nil
	}
	return fmt.Errorf("invalid scalar: %s", raw)
}

func (f FlexString) String() string {
	return strings.TrimSpace(string(f))
}

// Int parses the value as an integer, zero when it is not one.
func (f FlexString) Int() int {
	v, err := strconv.Atoi(f.String())
	if err != nil {
		return 0
	}
	return v
}

// FacilityItem is a row of the national sports facility registry.
type FacilityItem struct {
	FacltNm     FlexString `json:"facltNm"`
	FcltySeCdNm FlexString `json:"fcltySeCdNm"`
	IndutyNm    FlexString `json:"indutyNm"`
	CtprvnNm    FlexString `json:"ctprvnNm"`
	SignguNm    FlexString `json:"signguNm"`
	Rdnmadr     FlexString `json:"rdnmadr"`
	Lnmadr      FlexString `json:"lnmadr"`
	Zip         FlexString `json:"zip"`
	TelNo       FlexString `json:"telNo"`
	HmpgAddr    FlexString `json:"hmpgAddr"`
	FcltyLa     FlexString `json:"fcltyLa"`
	FcltyLo     FlexString `json:"fcltyLo"`
}

// FacilityDetailItem carries pool dimensions from the public facility survey.
type FacilityDetailItem struct {
	FacltNm         FlexString `json:"facltNm"`
	FcltySe         FlexString `json:"fcltySe"`
	FcltyTy         FlexString `json:"fcltyTy"`
	FcltyKnd        FlexString `json:"fcltyKnd"`
	CtprvnNm        FlexString `json:"ctprvnNm"`
	SignguNm        FlexString `json:"signguNm"`
	SwmplSmr        FlexString `json:"swmplSmr"`
	LaneCo          FlexString `json:"laneCo"`
	SwmplLt         FlexString `json:"swmplLt"`
	SeatCo          FlexString `json:"seatCo"`
	IndoorOutdoorGb FlexString `json:"indoorOutdoorGb"`
}

// LocalDataItem is a licensed-business row (private pools included), keyed
// by its management number.
type LocalDataItem struct {
	MgtNo            FlexString `json:"mgtNo"`
	BplcNm           FlexString `json:"bplcNm"`
	DtlStateNm       FlexString `json:"dtlStateNm"`
	UptaeNm          FlexString `json:"uptaeNm"`
	InOutGbnNm       FlexString `json:"inOutGbnNm"`
	SafetyMngYn      FlexString `json:"safetyMngYn"`
	RdnWhlAddr       FlexString `json:"rdnWhlAddr"`
	SiteWhlAddr      FlexString `json:"siteWhlAddr"`
	Y                FlexString `json:"y"`
	X                FlexString `json:"x"`
	SiteTel          FlexString `json:"siteTel"`
	ApvPermYmd       FlexString `json:"apvPermYmd"`
	DcbYmd           FlexString `json:"dcbYmd"`
	JidoSu           FlexString `json:"jidoSu"`
	HoewonMojibInwon FlexString `json:"hoewonMojibInwon"`
}
