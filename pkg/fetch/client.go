package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"

	"sancg/pkg/config"
	errs "sancg/pkg/errors"
	"sancg/pkg/logger"
	"sancg/pkg/ratelimit"
)

// Client fetches wiki pages and image bytes. One Client is owned by a crawl
// run and shared by every stage that touches the network.
type Client struct {
	httpClient      *http.Client
	headers         map[string]string
	pageTimeout     time.Duration
	downloadTimeout time.Duration
	limiter         ratelimit.Limiter
	logger          logger.Logger
}

// NewClient creates a client from the site and download settings
func NewClient(cfg *config.Config, limiter ratelimit.Limiter, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}
	if limiter == nil {
		limiter = ratelimit.Unlimited{}
	}

	headers := map[string]string{}
	if cfg.Site.UserAgent != "" {
		headers["User-Agent"] = cfg.Site.UserAgent
	}

	return &Client{
		httpClient:      &http.Client{},
		headers:         headers,
		pageTimeout:     cfg.Site.Timeout,
		downloadTimeout: cfg.Download.Timeout,
		limiter:         limiter,
		logger:          log,
	}
}

// get performs a paced GET request. The caller must close the body and
// call the returned cancel func.
func (c *Client) get(ctx context.Context, url string, timeout time.Duration) (*http.Response, context.CancelFunc, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		cancel()
		return nil, nil, err
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		cancel()
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"url":      url,
			"error":    err.Error(),
			"duration": time.Since(start),
		})
		return nil, nil, err
	}

	logger.LogRequest(c.logger, req.Method, url, resp.StatusCode, time.Since(start))
	return resp, cancel, nil
}

// Document fetches and parses an HTML page. Any failure is a fetch error.
// The document URL is the final URL after redirects so relative links
// resolve correctly.
func (c *Client) Document(ctx context.Context, url string) (*goquery.Document, error) {
	resp, cancel, err := c.get(ctx, url, c.pageTimeout)
	if err != nil {
		return nil, errs.NewFetchError(url, 0, "request failed", err)
	}
	defer cancel()
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errs.NewFetchError(url, resp.StatusCode, fmt.Sprintf("unexpected status code: %d", resp.StatusCode), nil)
	}

	body, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, errs.NewFetchError(url, resp.StatusCode, "unsupported charset", err)
	}

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, errs.NewFetchError(url, resp.StatusCode, "failed to parse HTML", err)
	}
	doc.Url = resp.Request.URL

	return doc, nil
}

// Bytes downloads a resource in one request. Connection failures are
// download errors, 404 is not_found and other statuses are download errors
// carrying the code.
func (c *Client) Bytes(ctx context.Context, url string) ([]byte, error) {
	resp, cancel, err := c.get(ctx, url, c.downloadTimeout)
	if err != nil {
		return nil, errs.NewDownloadError(url, 0, "request failed", err)
	}
	defer cancel()
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, &errs.Error{Type: errs.ErrorTypeNotFound, Message: "resource not found", Code: resp.StatusCode, URL: url}
	case resp.StatusCode != http.StatusOK:
		return nil, errs.NewDownloadError(url, resp.StatusCode, fmt.Sprintf("unexpected status code: %d", resp.StatusCode), nil)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.NewDownloadError(url, resp.StatusCode, "failed to read response body", err)
	}

	c.logger.DebugWithFields("Resource downloaded", map[string]interface{}{
		"url":  url,
		"size": len(data),
	})

	return data, nil
}
