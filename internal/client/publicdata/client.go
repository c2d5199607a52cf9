package publicdata

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const (
	DefaultHost = "https://apis.data.go.kr"

	NationalFacilityPath = "/B551014/SRVC_OD_API_FACIL_MNG/todz_api_facil_mng_i"
	FacilityDetailPath   = "/B551014/SRVC_SFMS_FACIL_INFO/TODZ_SFMS_FACIL_INFO"
)

type Client struct {
	host       string
	serviceKey string
	localPath  string
	httpClient *http.Client
}

// APIError is a non-200 response from the gateway.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (%d): %s", e.Status, truncate(e.Body, 200))
}

// NewClient builds a data.go.kr client. A nil httpClient gets a client
// without timeout. Service keys copied from the portal are often already
// URL-encoded; they are decoded once so the query encoder does not double-escape.
func NewClient(httpClient *http.Client, host, serviceKey string) *Client {
	if host == "" {
		host = DefaultHost
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	key := strings.TrimSpace(serviceKey)
	if strings.Contains(key, "%") {
		if decoded, err := url.QueryUnescape(key); err == nil {
			key = decoded
		}
	}
	return &Client{
		host:       strings.TrimRight(host, "/"),
		serviceKey: key,
		httpClient: httpClient,
	}
}

// WithLocalDataPath sets the endpoint serving licensing (local data) rows.
func (c *Client) WithLocalDataPath(path string) *Client {
	c.localPath = strings.TrimSpace(path)
	return c
}

func (c *Client) FetchNationalFacilities(ctx context.Context, page, perPage int) (Page[FacilityItem], error) {
	body, err := c.doRequest(ctx, NationalFacilityPath, pageQuery(page, perPage))
	if err != nil {
		return Page[FacilityItem]{}, err
	}
	return decodePage[FacilityItem](body, page)
}

func (c *Client) FetchFacilityDetails(ctx context.Context, page, perPage int) (Page[FacilityDetailItem], error) {
	body, err := c.doRequest(ctx, FacilityDetailPath, pageQuery(page, perPage))
	if err != nil {
		return Page[FacilityDetailItem]{}, err
	}
	return decodePage[FacilityDetailItem](body, page)
}

func (c *Client) FetchLocalData(ctx context.Context, page, perPage int) (Page[LocalDataItem], error) {
	if c.localPath == "" {
		return Page[LocalDataItem]{}, fmt.Errorf("local data endpoint is not configured")
	}
	body, err := c.doRequest(ctx, c.localPath, pageQuery(page, perPage))
	if err != nil {
		return Page[LocalDataItem]{}, err
	}
	return decodePage[LocalDataItem](body, page)
}

func pageQuery(page, perPage int) url.Values {
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 {
		perPage = 1000
	}
	query := url.Values{}
	query.Set("pageNo", strconv.Itoa(page))
	query.Set("numOfRows", strconv.Itoa(perPage))
	return query
}

func (c *Client) doRequest(ctx context.Context, path string, query url.Values) ([]byte, error) {
	if query == nil {
		query = url.Values{}
	}
	query.Set("serviceKey", c.serviceKey)
	query.Set("type", "json")
	fullURL := c.host + path + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Status: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
