// Package report renders invoice and billing-report PDFs. The HTML is
// built locally (builders.go) and converted by a Gotenberg sidecar.
package report

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// Client talks to a Gotenberg instance over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient returns a client for the Gotenberg instance at baseURL.
// Chromium conversion of an invoice-sized document finishes well
// inside the 30s timeout.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Ping reports whether the sidecar answers its health endpoint.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("gotenberg health returned status %d", resp.StatusCode)
	}
	return nil
}

// RenderHTML converts a self-contained HTML document to PDF bytes via
// Gotenberg's Chromium route. The document must not reference external
// assets; the builders inline their styles.
func (c *Client) RenderHTML(ctx context.Context, html string) ([]byte, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("files", "document.html")
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, strings.NewReader(html)); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/forms/chromium/convert/html", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("pdf conversion failed with status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
