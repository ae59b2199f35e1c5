package sms

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/YelzhanWeb/errwatch/internal/domain"
	"github.com/YelzhanWeb/errwatch/internal/interfaces"
)

// maxBodyBytes caps how much of the gateway response is kept.
const maxBodyBytes = 64 << 10

type client struct {
	endpoint string
	http     *http.Client
}

// NewClient returns an AlertSender that issues one GET per alert against
// endpoint. A zero timeout leaves the request unbounded.
func NewClient(endpoint string, timeout time.Duration) interfaces.AlertSender {
	return &client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: timeout},
	}
}

func NewClientWithHTTP(endpoint string, hc *http.Client) interfaces.AlertSender {
	return &client{endpoint: endpoint, http: hc}
}

func (c *client) Send(ctx context.Context, alert domain.AlertRequest) (string, error) {
	reqURL, err := buildURL(c.endpoint, alert)
	if err != nil {
		return "", &domain.TransportError{Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", &domain.TransportError{Err: fmt.Errorf("failed to build request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", &domain.TransportError{Err: err}
	}
	defer resp.Body.Close()

	return readResult(resp)
}

func buildURL(endpoint string, alert domain.AlertRequest) (string, error) {
	if endpoint == "" {
		return "", fmt.Errorf("alert endpoint is not configured")
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid alert endpoint: %v", err)
	}

	q := u.Query()
	q.Set("name", alert.Name)
	q.Set("errorMsg", alert.ErrorMsg())
	q.Set("level", strconv.Itoa(alert.Level))
	q.Set("phoneNumbers", alert.PhoneNumbers())
	q.Set("templateCode", alert.TemplateCode)
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// readResult accepts only a 200 with a non-empty body, judged on the bytes
// read rather than on Content-Length.
func readResult(resp *http.Response) (string, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", &domain.TransportError{Status: resp.StatusCode, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK || len(body) == 0 {
		return "", &domain.TransportError{Status: resp.StatusCode, Body: string(body)}
	}

	return string(body), nil
}
