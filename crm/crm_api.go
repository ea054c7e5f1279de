package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/time/rate"
)

const peopleRecordsPath = "objects/people/records"
const companyRecordsPath = "objects/companies/records"

const queryPageSize = 500

// APIError is a non-2xx response from the CRM. Payload holds the decoded
// error body when the server returned JSON; Body always holds the raw text.
type APIError struct {
	Method  string
	Path    string
	Status  int
	Payload map[string]any
	Body    string
}

func (e *APIError) Error() string {
	if len(e.Body) > 0 {
		return fmt.Sprintf("%s CRM \"%s\" error: %s", e.Method, e.Path, e.Body)
	}
	return fmt.Sprintf("%s CRM \"%s\" error: Status code %d", e.Method, e.Path, e.Status)
}

// Client is a bearer-token REST client for the CRM record endpoints.
type Client struct {
	baseUrl    string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
}

func NewClient(baseUrl string, token string) *Client {
	return &Client{
		baseUrl:    baseUrl,
		token:      token,
		httpClient: http.DefaultClient,
	}
}

// SetRateLimit caps outgoing requests at rps per second. Zero or negative
// removes the cap.
func (c *Client) SetRateLimit(rps float64) {
	if rps > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	} else {
		c.limiter = nil
	}
}

// AssertPerson upserts one person record keyed by email address. The server
// resolves match-or-create; the matching attribute is always email_addresses.
func (c *Client) AssertPerson(ctx context.Context, values PersonValues) (person map[string]any, err error) {
	var query = url.Values{}
	query.Set("matching_attribute", "email_addresses")
	var payload = map[string]any{
		"data": map[string]any{"values": values},
	}
	person, err = c.sendResource(ctx, "PUT", payload, query, peopleRecordsPath)
	return
}

// CreateCompany creates a company record from a name and a web domain.
func (c *Client) CreateCompany(ctx context.Context, name string, domain string) (company map[string]any, err error) {
	var payload = map[string]any{
		"data": map[string]any{
			"values": map[string]any{
				"name":    name,
				"domains": []map[string]any{{"domain": domain}},
			},
		},
	}
	company, err = c.sendResource(ctx, "POST", payload, nil, companyRecordsPath)
	return
}

// DeleteCompany deletes a company record by its record identifier.
func (c *Client) DeleteCompany(ctx context.Context, recordId string) (err error) {
	var uri *url.URL
	if uri, err = c.composeUrl(companyRecordsPath, recordId); err != nil {
		return
	}

	var rq *http.Request
	if rq, err = http.NewRequestWithContext(ctx, "DELETE", uri.String(), nil); err != nil {
		return
	}
	rq.Header.Add("Authorization", fmt.Sprintf("Bearer %s", c.token))

	_, err = c.executeRequest(rq)
	return
}

// QueryCompanies fetches every company record, invoking cb once per record.
func (c *Client) QueryCompanies(ctx context.Context, cb func(map[string]any)) (err error) {
	var uri *url.URL
	if uri, err = c.composeUrl(companyRecordsPath, "query"); err != nil {
		return
	}

	var offset = 0
	var attempt = 0
	for {
		attempt += 1
		if attempt > 20 {
			err = fmt.Errorf("query CRM resource \"%s\" canceled", companyRecordsPath)
			return
		}
		var payload = map[string]any{
			"limit":  queryPageSize,
			"offset": offset,
		}
		var data []byte
		if data, err = json.Marshal(payload); err != nil {
			return
		}

		var rq *http.Request
		if rq, err = http.NewRequestWithContext(ctx, "POST", uri.String(), bytes.NewBuffer(data)); err != nil {
			return
		}
		rq.Header.Add("Authorization", fmt.Sprintf("Bearer %s", c.token))
		rq.Header.Add("Content-Type", "application/json")

		var jo map[string]any
		if jo, err = c.executeRequest(rq); err != nil {
			return
		}
		var count = 0
		if j, ok := jo["data"]; ok {
			var jr []any
			if jr, ok = j.([]any); ok {
				for _, j = range jr {
					var jor map[string]any
					if jor, ok = j.(map[string]any); ok {
						cb(jor)
					}
				}
				count = len(jr)
			}
		}
		if count < queryPageSize {
			return
		}
		offset += count
	}
}

func (c *Client) sendResource(ctx context.Context, method string, payload any, query url.Values, paths ...string) (resource map[string]any, err error) {
	var uri *url.URL
	if uri, err = c.composeUrl(paths...); err != nil {
		return
	}
	if query != nil {
		uri.RawQuery = query.Encode()
	}

	var data []byte
	if data, err = json.Marshal(payload); err != nil {
		return
	}

	var rq *http.Request
	if rq, err = http.NewRequestWithContext(ctx, method, uri.String(), bytes.NewBuffer(data)); err != nil {
		return
	}
	rq.Header.Add("Authorization", fmt.Sprintf("Bearer %s", c.token))
	rq.Header.Add("Content-Type", "application/json")

	resource, err = c.executeRequest(rq)
	return
}

func (c *Client) composeUrl(paths ...string) (result *url.URL, err error) {
	var uri *url.URL
	if uri, err = url.Parse(c.baseUrl); err != nil {
		return
	}
	var ruri *url.URL
	for _, path := range paths {
		if ruri, err = url.Parse(path); err != nil {
			return
		}
		if !strings.HasSuffix(uri.Path, "/") {
			uri.Path += "/"
		}
		uri = uri.ResolveReference(ruri)
	}

	result = uri
	return
}

func (c *Client) executeRequest(rq *http.Request) (response map[string]any, err error) {
	if c.limiter != nil {
		if err = c.limiter.Wait(rq.Context()); err != nil {
			return
		}
	}
	var rs *http.Response
	if rs, err = c.httpClient.Do(rq); err != nil {
		return
	}
	defer func() {
		_ = rs.Body.Close()
	}()
	var body []byte
	var contentType = rs.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "application/") {
		if body, err = io.ReadAll(rs.Body); err != nil {
			return
		}
	}
	if rs.StatusCode >= 300 {
		var crmUrl = rq.URL.String()
		if strings.HasPrefix(crmUrl, c.baseUrl) {
			crmUrl = crmUrl[len(c.baseUrl):]
			crmUrl = strings.Trim(crmUrl, "/")
		}
		var apiErr = &APIError{
			Method: rq.Method,
			Path:   crmUrl,
			Status: rs.StatusCode,
			Body:   string(body),
		}
		if len(body) > 0 {
			var jo map[string]any
			if json.Unmarshal(body, &jo) == nil {
				apiErr.Payload = jo
			}
		}
		err = apiErr
		return
	}
	if (rs.StatusCode == 200 || rs.StatusCode == 201) && len(body) > 0 {
		err = json.Unmarshal(body, &response)
	}
	return
}
