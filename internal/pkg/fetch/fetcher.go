// Package fetch is the transport collaborator of the crawler: it retrieves
// page content and raw documents over HTTP. Every fetch runs with its own
// cookie jar so concurrent jobs never share session state.
package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// defaultDownloadTimeout bounds linked-document downloads, which carry no
// per-job timeout of their own.
const defaultDownloadTimeout = 30 * time.Second

// Client fetches rendered page content and binary documents.
type Client struct {
	userAgent       string
	downloadTimeout time.Duration
	logger          *zap.Logger
}

func New(userAgent string, logger *zap.Logger) *Client {
	return &Client{userAgent: userAgent, downloadTimeout: defaultDownloadTimeout, logger: logger}
}

// Fetch returns the body of url as a string, bounded by timeout.
func (c *Client) Fetch(ctx context.Context, url string, timeout time.Duration) (string, error) {
	resp, err := c.get(ctx, url, timeout)
	if err != nil {
		return "", err
	}
	return string(resp.Body()), nil
}

// Download returns the raw bytes of url, for linked documents such as
// product-passport PDFs. A stalled host fails the download after the
// default timeout instead of hanging the job.
func (c *Client) Download(ctx context.Context, url string) ([]byte, error) {
	resp, err := c.get(ctx, url, c.downloadTimeout)
	if err != nil {
		return nil, err
	}
	return resp.Body(), nil
}

func (c *Client) get(ctx context.Context, url string, timeout time.Duration) (*resty.Response, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}

	client := resty.New().SetCookieJar(jar)
	if timeout > 0 {
		client.SetTimeout(timeout)
	}
	if c.userAgent != "" {
		client.SetHeader("User-Agent", c.userAgent)
	}

	resp, err := client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", url, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("get %s: unexpected status %d", url, resp.StatusCode())
	}
	c.logger.Debug("fetched", zap.String("url", url), zap.Int("bytes", len(resp.Body())))
	return resp, nil
}
