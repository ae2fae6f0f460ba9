// Package strapi implements the core repositories on top of the Strapi CMS REST API.
package strapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"github.com/studytrack/studytrack/core"
)

// Client talks to the CMS REST API mounted at <baseURL>/api.
// Requests carry the session token found on the context, else the configured API token.
type Client struct {
	baseURL  string
	apiToken string
	rc       *resty.Client
}

func NewClient(conf core.CMSConfig) *Client {
	rc := resty.New().
		SetHostURL(conf.URL+"/api").
		SetTimeout(conf.Timeout).
		SetHeader("Accept", "application/json").
		SetRedirectPolicy(resty.RedirectPolicyFunc(func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		})).
		SetRetryCount(conf.RetryCount).
		SetRetryWaitTime(200 * time.Millisecond).
		AddRetryCondition(retryReads)

	return &Client{
		baseURL:  conf.URL,
		apiToken: conf.APIToken,
		rc:       rc,
	}
}

// retryReads retries idempotent reads on transport errors and 5xx responses.
func retryReads(resp *resty.Response, err error) bool {
	if resp == nil || resp.Request == nil || resp.Request.Method != http.MethodGet {
		return false
	}
	return err != nil || resp.StatusCode() >= http.StatusInternalServerError
}

// token picks the bearer for a call. The session JWT wins over the API token
// so the CMS applies the user's own permissions; keep that order.
func (c *Client) token(ctx context.Context) string {
	if isAnonymous(ctx) {
		return ""
	}
	if token, ok := core.AuthToken(ctx); ok {
		return token
	}
	return c.apiToken
}

type (
	errorEnvelope struct {
		Error *core.CMSError `json:"error"`
	}

	dataEnvelope struct {
		Data json.RawMessage `json:"data"`
		Meta struct {
			Pagination core.Pagination `json:"pagination"`
		} `json:"meta"`
	}
)

// do sends a request to path (relative to /api) and returns the raw response body.
// Error responses come back as *core.CMSError; 404s as core.ErrNotFound.
// Without a base URL nothing is sent and core.ErrCMSNotConfigured is returned.
func (c *Client) do(ctx context.Context, method, path string, params url.Values, body interface{}) ([]byte, error) {
	if c.baseURL == "" {
		return nil, core.ErrCMSNotConfigured
	}
	req := c.rc.R().SetContext(ctx)
	if token := c.token(ctx); token != "" {
		req.SetAuthToken(token)
	}
	if params != nil {
		req.SetQueryParamsFromValues(params)
	}
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return nil, core.NewNetworkError(err)
	}
	if resp.StatusCode() >= http.StatusBadRequest {
		cmsErr := parseError(resp.StatusCode(), resp.Body())
		if cmsErr.Status == http.StatusNotFound {
			return nil, errors.Wrap(core.ErrNotFound, cmsErr.Message)
		}
		return nil, cmsErr
	}
	return resp.Body(), nil
}

// parseError reads the CMS error envelope; bodies that are not JSON become the message.
func parseError(status int, body []byte) *core.CMSError {
	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err == nil && env.Error != nil {
		if env.Error.Status == 0 {
			env.Error.Status = status
		}
		if env.Error.Name == "" {
			env.Error.Name = core.CMSErrorName
		}
		return env.Error
	}

	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = http.StatusText(status)
	} else {
		var generic struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(body, &generic); err == nil && generic.Message != "" {
			msg = generic.Message
		}
	}
	return &core.CMSError{Status: status, Name: core.CMSErrorName, Message: msg}
}

// getData reads a `{data, meta}` response into out and returns its pagination.
func (c *Client) getData(ctx context.Context, path string, params url.Values, out interface{}) (core.Pagination, error) {
	body, err := c.do(ctx, http.MethodGet, path, params, nil)
	if err != nil {
		return core.Pagination{}, err
	}
	return decodeData(body, out)
}

// writeData sends `{data: payload}` and reads the `{data}` response into out.
func (c *Client) writeData(ctx context.Context, method, path string, payload, out interface{}) error {
	body, err := c.do(ctx, method, path, nil, map[string]interface{}{"data": payload})
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	_, err = decodeData(body, out)
	return err
}

func (c *Client) delete(ctx context.Context, path string) error {
	_, err := c.do(ctx, http.MethodDelete, path, nil, nil)
	return err
}

// getJSON reads a response that is not enveloped (auth and users endpoints).
func (c *Client) getJSON(ctx context.Context, method, path string, params url.Values, body, out interface{}) error {
	raw, err := c.do(ctx, method, path, params, body)
	if err != nil {
		return err
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	return errors.Wrap(json.Unmarshal(raw, out), "decoding CMS response")
}

func decodeData(body []byte, out interface{}) (core.Pagination, error) {
	var env dataEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return core.Pagination{}, errors.Wrap(err, "decoding CMS envelope")
	}
	if err := unmarshalFlat(env.Data, out); err != nil {
		return core.Pagination{}, err
	}
	return env.Meta.Pagination, nil
}

// PingResult describes a CMS connectivity check.
type PingResult struct {
	URL     string        `json:"url"`
	Status  int           `json:"status"`
	Latency time.Duration `json:"latency"`
}

// Ping checks that the CMS answers its health endpoint.
func (c *Client) Ping(ctx context.Context) (PingResult, error) {
	res := PingResult{URL: c.baseURL}
	if c.baseURL == "" {
		return res, core.ErrCMSNotConfigured
	}
	start := time.Now()
	resp, err := c.rc.R().SetContext(ctx).Get(c.baseURL + "/_health")
	res.Latency = time.Since(start)
	if err != nil {
		return res, core.NewNetworkError(err)
	}
	res.Status = resp.StatusCode()
	if resp.IsError() {
		return res, parseError(resp.StatusCode(), resp.Body())
	}
	return res, nil
}

func itemPath(kind string, id int) string {
	return "/" + kind + "/" + strconv.Itoa(id)
}
