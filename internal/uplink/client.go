package uplink

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/parnurzeal/gorequest"
)

// DefaultTimeout bounds every exchange.
const DefaultTimeout = 5 * time.Second

// Client performs one upload/reply exchange.
type Client interface {
	Exchange(u Upload) (Reply, error)
}

// HTTPClient posts uploads as JSON.
type HTTPClient struct {
	URL      string
	Username string
	Password string
	Timeout  time.Duration
}

// NewHTTPClient creates a client for url with the default timeout.
func NewHTTPClient(url, username, password string) *HTTPClient {
	return &HTTPClient{URL: url, Username: username, Password: password, Timeout: DefaultTimeout}
}

// StatusError is returned for non-2xx replies.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Code)
}

// Exchange posts u and decodes the reply. Transport errors, non-2xx status
// codes and undecodable bodies are all errors.
func (c *HTTPClient) Exchange(u Upload) (Reply, error) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	req := gorequest.New().Post(c.URL).Timeout(timeout).Type(gorequest.TypeJSON)
	if c.Username != "" {
		req = req.SetBasicAuth(c.Username, c.Password)
	}
	resp, body, errs := req.SendStruct(u).EndBytes()
	if len(errs) > 0 {
		return Reply{}, fmt.Errorf("post %s: %w", c.URL, errors.Join(errs...))
	}
	if resp == nil {
		return Reply{}, fmt.Errorf("post %s: no response", c.URL)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Reply{}, &StatusError{Code: resp.StatusCode}
	}

	var r Reply
	if err := json.Unmarshal(body, &r); err != nil {
		return Reply{}, fmt.Errorf("decode reply: %w", err)
	}
	return r, nil
}
