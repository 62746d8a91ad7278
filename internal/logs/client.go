package logs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"crmagent/internal/api"
	"crmagent/internal/campaign"
	"crmagent/internal/logstream"
)

// ErrAPIUnavailable is returned when the daemon cannot be reached.
var ErrAPIUnavailable = errors.New("crmagent API unavailable")

// StatusError is a non-2xx response.
type StatusError struct {
	Code    int
	Message string
	Kind    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api returned status %d", e.Code)
	}
	return fmt.Sprintf("api returned status %d: %s", e.Code, e.Message)
}

// Client talks to the daemon API.
type Client struct {
	base  *url.URL
	http  *http.Client
	token string
}

// Option customizes a Client.
type Option func(*Client)

// WithToken sends token as a bearer credential.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = strings.TrimSpace(token)
	}
}

// NewClient builds a client for bind, which may be host:port or a URL.
func NewClient(bind string, opts ...Option) (*Client, error) {
	bind = strings.TrimSpace(bind)
	if bind == "" {
		return nil, errors.New("api bind address is empty")
	}
	if !strings.Contains(bind, "://") {
		bind = "http://" + bind
	}
	base, err := url.Parse(bind)
	if err != nil {
		return nil, err
	}
	base.Path = ""
	base.RawQuery = ""
	base.Fragment = ""

	client := &Client{
		base: base,
		// Follow mode polls, so no request needs to outlive this.
		http: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Submit starts a batch.
func (c *Client) Submit(ctx context.Context, clientIDs []string) (api.SubmitResponse, error) {
	var resp api.SubmitResponse
	err := c.doJSON(ctx, http.MethodPost, "/api/sessions", nil, api.SubmitRequest{ClientIDs: clientIDs}, &resp)
	return resp, err
}

// Sessions lists known sessions.
func (c *Client) Sessions(ctx context.Context) ([]api.SessionStatus, error) {
	var resp api.SessionList
	err := c.doJSON(ctx, http.MethodGet, "/api/sessions", nil, nil, &resp)
	return resp.Sessions, err
}

// Session fetches one session snapshot.
func (c *Client) Session(ctx context.Context, id string) (api.SessionStatus, error) {
	var resp api.SessionStatus
	err := c.doJSON(ctx, http.MethodGet, sessionPath(id, ""), nil, nil, &resp)
	return resp, err
}

// Logs fetches the entries of a session starting at since.
func (c *Client) Logs(ctx context.Context, id string, since int) (api.LogsResponse, error) {
	values := url.Values{}
	if since > 0 {
		values.Set("since", strconv.Itoa(since))
	}
	var resp api.LogsResponse
	err := c.doJSON(ctx, http.MethodGet, sessionPath(id, "logs"), values, nil, &resp)
	return resp, err
}

// LogSince implements logstream.Source over the logs endpoint.
func (c *Client) LogSince(ctx context.Context, id string, offset int) (logstream.Page, bool, error) {
	resp, err := c.Logs(ctx, id, offset)
	if err != nil {
		if IsNotFound(err) {
			return logstream.Page{}, false, nil
		}
		return logstream.Page{}, false, err
	}
	entries := make([]campaign.LogEntry, 0, len(resp.Entries))
	for _, e := range resp.Entries {
		entries = append(entries, api.ToLogEntry(e))
	}
	return logstream.Page{
		Entries:   entries,
		Next:      resp.Next,
		Completed: resp.Status == "completed",
	}, true, nil
}

// Results fetches rendered results.
func (c *Client) Results(ctx context.Context, id string) (api.ResultsResponse, error) {
	var resp api.ResultsResponse
	err := c.doJSON(ctx, http.MethodGet, sessionPath(id, "results"), nil, nil, &resp)
	return resp, err
}

// Export downloads results in format and returns the raw document.
func (c *Client) Export(ctx context.Context, id, format string) ([]byte, error) {
	resp, err := c.do(ctx, http.MethodGet, sessionPath(id, "export/"+url.PathEscape(format)), nil, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// Clients lists the daemon's client directory.
func (c *Client) Clients(ctx context.Context) (api.ClientsResponse, error) {
	var resp api.ClientsResponse
	err := c.doJSON(ctx, http.MethodGet, "/api/clients", nil, nil, &resp)
	return resp, err
}

// Health reports daemon readiness.
func (c *Client) Health(ctx context.Context) (api.Health, error) {
	var resp api.Health
	err := c.doJSON(ctx, http.MethodGet, "/api/health", nil, nil, &resp)
	return resp, err
}

func sessionPath(id, suffix string) string {
	p := "/api/sessions/" + url.PathEscape(strings.TrimSpace(id))
	if suffix != "" {
		p += "/" + suffix
	}
	return p
}

func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	resp, err := c.do(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) (*http.Response, error) {
	if c == nil {
		return nil, ErrAPIUnavailable
	}
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(data)
	}
	endpoint := c.base.ResolveReference(&url.URL{Path: path, RawQuery: query.Encode()})
	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if isDialError(err) {
			return nil, fmt.Errorf("%w: %v", ErrAPIUnavailable, err)
		}
		return nil, err
	}
	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		statusErr := &StatusError{Code: resp.StatusCode}
		var payload api.ErrorResponse
		if json.NewDecoder(resp.Body).Decode(&payload) == nil {
			statusErr.Message = payload.Error
			statusErr.Kind = payload.Kind
		}
		return nil, statusErr
	}
	return resp, nil
}

func isDialError(err error) bool {
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		err = urlErr.Err
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}

// IsAPIUnavailable reports whether err means the daemon could not be reached.
func IsAPIUnavailable(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrAPIUnavailable) || isDialError(err)
}

// IsNotFound reports whether err is a 404 response.
func IsNotFound(err error) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.Code == http.StatusNotFound
}
