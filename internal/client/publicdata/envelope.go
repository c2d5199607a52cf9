package publicdata

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrShape marks a body that is not a recognisable JSON envelope.
var ErrShape = errors.New("unexpected response shape")

// ResultError is an API-level failure reported in the envelope header
// while the HTTP status was 200.
type ResultError struct {
	Code    string
	Message string
}

func (e *ResultError) Error() string {
	return fmt.Sprintf("API result %s: %s", e.Code, e.Message)
}

// Page is one decoded page. TotalCount is zero when the gateway omits it.
type Page[T any] struct {
	PageNo     int
	Items      []T
	TotalCount int
}

type envelope struct {
	Response *struct {
		Header struct {
			ResultCode FlexString `json:"resultCode"`
			ResultMsg  FlexString `json:"resultMsg"`
		} `json:"header"`
		Body *struct {
			Items      json.RawMessage `json:"items"`
			TotalCount FlexString      `json:"totalCount"`
		} `json:"body"`
	} `json:"response"`
	Data       json.RawMessage `json:"data"`
	TotalCount FlexString      `json:"totalCount"`
}

func isSuccessCode(code string) bool {
	switch strings.TrimSpace(code) {
	case "", "0", "00", "000", "INFO-000":
		return true
	default:
		return false
	}
}

// decodePage pulls items out of the gateway's envelope. Items are looked up
// at response.body.items.item, then response.body.items, then a top-level
// data field; each may hold a single object or an array.
func decodePage[T any](body []byte, pageNo int) (Page[T], error) {
	page := Page[T]{PageNo: pageNo}
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return page, fmt.Errorf("%w: %v", ErrShape, err)
	}

	var raws []json.RawMessage
	switch {
	case env.Response != nil:
		code := env.Response.Header.ResultCode.String()
		if !isSuccessCode(code) {
			return page, &ResultError{Code: code, Message: env.Response.Header.ResultMsg.String()}
		}
		if env.Response.Body == nil {
			return page, nil
		}
		page.TotalCount = env.Response.Body.TotalCount.Int()
		items, err := extractItems(env.Response.Body.Items)
		if err != nil {
			return page, err
		}
		raws = items
	case len(env.Data) > 0:
		page.TotalCount = env.TotalCount.Int()
		items, err := oneOrMany(env.Data)
		if err != nil {
			return page, err
		}
		raws = items
	}

	page.Items = make([]T, 0, len(raws))
	for _, raw := range raws {
		var item T
		if err := json.Unmarshal(raw, &item); err != nil {
			return page, fmt.Errorf("%w: item: %v", ErrShape, err)
		}
		page.Items = append(page.Items, item)
	}
	return page, nil
}

func extractItems(raw json.RawMessage) ([]json.RawMessage, error) {
	raw = bytes.TrimSpace(raw)
	if isBlank(raw) {
		return nil, nil
	}
	if raw[0] == '{' {
		var wrapper map[string]json.RawMessage
		if err := json.Unmarshal(raw, &wrapper); err != nil {
			return nil, fmt.Errorf("%w: items: %v", ErrShape, err)
		}
		if inner, ok := wrapper["item"]; ok && !isBlank(bytes.TrimSpace(inner)) {
			return oneOrMany(inner)
		}
	}
	return oneOrMany(raw)
}

func oneOrMany(raw json.RawMessage) ([]json.RawMessage, error) {
	raw = bytes.TrimSpace(raw)
	if isBlank(raw) {
		return nil, nil
	}
	switch raw[0] {
	case '[':
		var list []json.RawMessage
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrShape, err)
		}
		return list, nil
	case '{':
		return []json.RawMessage{raw}, nil
	default:
		return nil, fmt.Errorf("%w: items is %s", ErrShape, truncate(string(raw), 40))
	}
}

// isBlank treats null and the empty string the gateway sends for
// zero-result pages as no items.
func isBlank(raw []byte) bool {
	s := string(raw)
	return s == "" || s == "null" || s == `""`
}
