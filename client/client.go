package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/dandihub/dandinotes"
	"github.com/dandihub/dandinotes/internal/domain"
	"github.com/dandihub/dandinotes/internal/usecase"
)

const defaultTimeout = 10 * time.Second

// Client talks to a dandinotes server. Session cookies set by Login and
// Register are kept in the jar and sent on subsequent requests.
type Client struct {
	client    *http.Client
	cache     *cache.Cache
	baseURL   string
	userAgent string
}

func New(baseURL string) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &Client{
		client: &http.Client{
			Timeout: defaultTimeout,
			Jar:     jar,
		},
		cache:     cache.New(1*time.Minute, 5*time.Minute),
		baseURL:   baseURL,
		userAgent: "dandinotes-client/1.0",
	}, nil
}

type envelope struct {
	Success    bool            `json:"success"`
	Data       json.RawMessage `json:"data"`
	Message    string          `json:"message"`
	Pagination *domain.Page    `json:"pagination"`
	Error      *APIError       `json:"error"`
}

// APIError is the error payload the server returns on failures.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (c *Client) do(ctx context.Context, method, path string, body, result any) (*domain.Page, error) {
	var reqBody *bytes.Buffer
	if body != nil {
		reqBody = &bytes.Buffer{}
		if err := json.NewEncoder(reqBody).Encode(body); err != nil {
			return nil, fmt.Errorf("failed to encode request: %v", err)
		}
	}

	var req *http.Request
	var err error
	if reqBody != nil {
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to perform request: %v", err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("failed to decode response: %v", err)
	}

	if env.Error != nil {
		env.Error.Status = resp.StatusCode
		return nil, env.Error
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	if result != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, result); err != nil {
			return nil, fmt.Errorf("failed to decode data: %v", err)
		}
	}
	return env.Pagination, nil
}

func pageQuery(page, perPage int) string {
	return fmt.Sprintf("?page=%d&per_page=%d", page, perPage)
}

// ListDandisets returns one page of annotated dandisets.
func (c *Client) ListDandisets(ctx context.Context, page, perPage int) ([]usecase.DandisetInfo, *domain.Page, error) {
	var infos []usecase.DandisetInfo
	meta, err := c.do(ctx, http.MethodGet, "/api/dandisets"+pageQuery(page, perPage), nil, &infos)
	if err != nil {
		return nil, nil, err
	}
	return infos, meta, nil
}

// GetDandiset returns one dandiset's summary, cached briefly.
func (c *Client) GetDandiset(ctx context.Context, dandisetID string) (*usecase.DandisetInfo, error) {
	cacheKey := "dandiset:" + dandisetID
	if x, found := c.cache.Get(cacheKey); found {
		info := x.(usecase.DandisetInfo)
		return &info, nil
	}

	var info usecase.DandisetInfo
	if _, err := c.do(ctx, http.MethodGet, "/api/dandisets/"+url.PathEscape(dandisetID), nil, &info); err != nil {
		return nil, err
	}
	c.cache.Set(cacheKey, info, cache.DefaultExpiration)
	return &info, nil
}

// ListResources returns one page of a dandiset's resources.
func (c *Client) ListResources(ctx context.Context, dandisetID string, page, perPage int) ([]dandinotes.Resource, *domain.Page, error) {
	path := "/api/dandisets/" + url.PathEscape(dandisetID) + "/resources" + pageQuery(page, perPage)
	var resources []dandinotes.Resource
	meta, err := c.do(ctx, http.MethodGet, path, nil, &resources)
	if err != nil {
		return nil, nil, err
	}
	return resources, meta, nil
}

// SubmitRequest carries a new annotation submission.
type SubmitRequest struct {
	ResourceName          string `json:"resource_name"`
	ResourceURL           string `json:"resource_url"`
	ResourceIdentifier    string `json:"resource_identifier,omitempty"`
	Repository            string `json:"repository"`
	Relation              string `json:"relation"`
	ResourceType          string `json:"resource_type"`
	ContributorName       string `json:"contributor_name"`
	ContributorEmail      string `json:"contributor_email"`
	ContributorIdentifier string `json:"contributor_identifier,omitempty"`
	ContributorURL        string `json:"contributor_url,omitempty"`
}

// Submit files a new annotation against a dandiset. The returned resource
// carries the assigned id and pending status.
func (c *Client) Submit(ctx context.Context, dandisetID string, req SubmitRequest) (*dandinotes.Resource, error) {
	var res dandinotes.Resource
	path := "/api/dandisets/" + url.PathEscape(dandisetID) + "/resources"
	if _, err := c.do(ctx, http.MethodPost, path, req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// GetResource fetches a single resource by its record id.
func (c *Client) GetResource(ctx context.Context, recordID string) (*dandinotes.Resource, error) {
	var res dandinotes.Resource
	if _, err := c.do(ctx, http.MethodGet, "/api/resources/"+url.PathEscape(recordID), nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// PendingSubmissions lists pending submissions across all dandisets.
// Requires a moderator session.
func (c *Client) PendingSubmissions(ctx context.Context, page, perPage int) ([]dandinotes.Resource, *domain.Page, error) {
	var resources []dandinotes.Resource
	meta, err := c.do(ctx, http.MethodGet, "/api/submissions/pending"+pageQuery(page, perPage), nil, &resources)
	if err != nil {
		return nil, nil, err
	}
	return resources, meta, nil
}

// Approve promotes a pending submission. Requires a moderator session.
func (c *Client) Approve(ctx context.Context, dandisetID, recordID string) (*dandinotes.Resource, error) {
	var res dandinotes.Resource
	path := fmt.Sprintf("/api/submissions/%s/%s/approve", url.PathEscape(dandisetID), url.PathEscape(recordID))
	if _, err := c.do(ctx, http.MethodPost, path, struct{}{}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Stats returns the site-wide aggregate.
func (c *Client) Stats(ctx context.Context) (*usecase.Stats, error) {
	var stats usecase.Stats
	if _, err := c.do(ctx, http.MethodGet, "/api/stats/overview", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// Login opens a session; the cookie is retained for later calls.
func (c *Client) Login(ctx context.Context, username, password string) (*domain.Principal, error) {
	var principal domain.Principal
	body := map[string]string{"username": username, "password": password}
	if _, err := c.do(ctx, http.MethodPost, "/api/auth/login", body, &principal); err != nil {
		return nil, err
	}
	return &principal, nil
}

// Register creates an account and opens a session.
func (c *Client) Register(ctx context.Context, email, password string) (*domain.Principal, error) {
	var principal domain.Principal
	body := map[string]string{"email": email, "password": password, "confirm_password": password}
	if _, err := c.do(ctx, http.MethodPost, "/api/auth/register", body, &principal); err != nil {
		return nil, err
	}
	return &principal, nil
}

// Logout closes the current session.
func (c *Client) Logout(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
	return err
}

// Me returns the authenticated principal for the current session.
func (c *Client) Me(ctx context.Context) (*domain.Principal, error) {
	var principal domain.Principal
	if _, err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, &principal); err != nil {
		return nil, err
	}
	return &principal, nil
}
