package sakuracloud

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-logr/logr"

	"github.com/yuriy-kovalchuk/sakuracloud-dns/internal/dns"
	"github.com/yuriy-kovalchuk/sakuracloud-dns/internal/metrics"
)

// APIError describes a failed exchange with the Sakura Cloud API, or a
// change the API state cannot accept. It always matches dns.ErrAPI and
// unwraps to the underlying cause (dns.ErrAuth for 401/403 responses).
type APIError struct {
	Op         string
	Method     string
	URL        string
	StatusCode int
	Status     string
	Serial     string
	Code       string
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	var b strings.Builder
	b.WriteString("sakuracloud: ")
	if e.Op != "" {
		b.WriteString(e.Op)
	} else {
		fmt.Fprintf(&b, "%s %s", e.Method, e.URL)
	}
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, ": status=%s, serial=%s, error_code=%s, error_msg=%s", e.Status, e.Serial, e.Code, e.Message)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *APIError) Unwrap() error {
	return e.Err
}

func (e *APIError) Is(target error) bool {
	return target == dns.ErrAPI
}

// client is a thin wrapper over the CommonServiceItem endpoints.
type client struct {
	endpoint string
	token    string
	secret   string
	http     *http.Client
	log      logr.Logger
}

func newClient(log logr.Logger, endpoint, token, secret string, timeout time.Duration) *client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	return &client{
		endpoint: strings.TrimRight(endpoint, "/"),
		token:    token,
		secret:   secret,
		http:     &http.Client{Transport: transport, Timeout: timeout},
		log:      log,
	}
}

// do builds and executes an HTTP request against the API and decodes the
// JSON response into out when out is non-nil.
func (c *client) do(ctx context.Context, method, path string, body, out interface{}) error {
	reqURL := c.endpoint + "/" + strings.TrimLeft(path, "/")

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &APIError{Method: method, URL: reqURL, Err: fmt.Errorf("marshal request body: %w", err)}
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, bodyReader)
	if err != nil {
		return &APIError{Method: method, URL: reqURL, Err: fmt.Errorf("build request: %w", err)}
	}
	req.SetBasicAuth(c.token, c.secret)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json; charset=UTF-8")
	}

	c.log.V(1).Info("api request", "method", method, "path", path)
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.ObserveRequest(providerName, method, 0, time.Since(start))
		return &APIError{Method: method, URL: reqURL, Err: err}
	}
	defer resp.Body.Close()
	metrics.ObserveRequest(providerName, method, resp.StatusCode, time.Since(start))
	c.log.V(1).Info("api response", "method", method, "path", path, "status", resp.StatusCode)

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{Method: method, URL: reqURL, StatusCode: resp.StatusCode, Status: resp.Status, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(method, reqURL, resp, data)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &APIError{Method: method, URL: reqURL, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func statusError(method, reqURL string, resp *http.Response, data []byte) error {
	apiErr := &APIError{
		Method:     method,
		URL:        reqURL,
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
	}
	var body errorResponse
	if err := json.Unmarshal(data, &body); err == nil {
		if body.Status != "" {
			apiErr.Status = body.Status
		}
		apiErr.Serial = body.Serial
		apiErr.Code = body.ErrorCode
		apiErr.Message = html.UnescapeString(body.ErrorMsg)
	} else {
		apiErr.Message = strings.TrimSpace(string(data))
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		apiErr.Err = dns.ErrAuth
	}
	return apiErr
}

// listItems returns every CommonServiceItem in the account.
func (c *client) listItems(ctx context.Context) ([]commonServiceItem, error) {
	// The query string is flow-style YAML; Count 0 means "no limit".
	path := "/commonserviceitem?" + url.QueryEscape("{Count: 0}")

	var resp listResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	if resp.CommonServiceItems == nil {
		return nil, &APIError{Method: http.MethodGet, URL: c.endpoint + path, Err: fmt.Errorf("response has no CommonServiceItems")}
	}
	return *resp.CommonServiceItems, nil
}

// zones returns the DNS zones in the account keyed by FQDN.
func (c *client) zones(ctx context.Context) (map[string]*commonServiceItem, error) {
	items, err := c.listItems(ctx)
	if err != nil {
		return nil, err
	}
	zones := make(map[string]*commonServiceItem, len(items))
	for i := range items {
		if items[i].ServiceClass != serviceClassDNS {
			continue
		}
		zones[strings.ToLower(dns.Fqdn(items[i].zone()))] = &items[i]
	}
	return zones, nil
}

// findZone returns the item holding zone, or nil when there is none.
func (c *client) findZone(ctx context.Context, zone string) (*commonServiceItem, error) {
	zones, err := c.zones(ctx)
	if err != nil {
		return nil, err
	}
	return zones[strings.ToLower(dns.Fqdn(zone))], nil
}

// createZone submits a new, empty zone.
func (c *client) createZone(ctx context.Context, zone string) (*commonServiceItem, error) {
	name := dns.TrimDot(zone)
	req := itemRequest{CommonServiceItem: commonServiceItem{
		Name:     name,
		Status:   &itemStatus{Zone: name},
		Settings: &itemSettings{DNS: dnsSettings{ResourceRecordSets: []resourceRecord{}}},
		Provider: &itemProvider{Class: "dns"},
	}}
	return c.submit(ctx, http.MethodPost, "/commonserviceitem", req)
}

// putRecords replaces the zone's ResourceRecordSets.
func (c *client) putRecords(ctx context.Context, id string, rrs []resourceRecord) (*commonServiceItem, error) {
	if rrs == nil {
		rrs = []resourceRecord{}
	}
	req := itemRequest{CommonServiceItem: commonServiceItem{
		Settings: &itemSettings{DNS: dnsSettings{ResourceRecordSets: rrs}},
	}}
	return c.submit(ctx, http.MethodPut, "/commonserviceitem/"+id, req)
}

func (c *client) submit(ctx context.Context, method, path string, req itemRequest) (*commonServiceItem, error) {
	var resp itemResponse
	if err := c.do(ctx, method, path, req, &resp); err != nil {
		return nil, err
	}
	if resp.CommonServiceItem == nil {
		return nil, &APIError{Method: method, URL: c.endpoint + path, Err: fmt.Errorf("response has no CommonServiceItem")}
	}
	return resp.CommonServiceItem, nil
}
