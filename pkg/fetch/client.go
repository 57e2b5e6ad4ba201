// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package fetch

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/NVIDIA/nvidia-driver-operator/pkg/defaults"
)

const (
	DefaultUserAgent = "nvidia-driver-operator/1.0"
)

var (
	DefaultTimeout               = defaults.HTTPClientTimeout
	DefaultKeepAlive             = defaults.HTTPKeepAlive
	DefaultConnectTimeout        = defaults.HTTPConnectTimeout
	DefaultTLSHandshakeTimeout   = defaults.HTTPTLSHandshakeTimeout
	DefaultResponseHeaderTimeout = defaults.HTTPResponseHeaderTimeout
	DefaultMaxBytes        int64 = defaults.HTTPMaxDownloadBytes
)

// Option configures a Client.
type Option func(*Client)

// Client downloads vendor repository artifacts.
type Client struct {
	UserAgent string
	MaxBytes  int64
	HTTP      *http.Client
}

// WithUserAgent sets the User-Agent sent with every request.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.UserAgent = userAgent
	}
}

// NewClient creates a Client with the package defaults and the given options.
func NewClient(options ...Option) *Client {
	c := &Client{
		UserAgent: DefaultUserAgent,
		MaxBytes:  DefaultMaxBytes,
		HTTP: &http.Client{
			Timeout:   DefaultTimeout,
			Transport: newDefaultTransport(),
		},
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

func newDefaultTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   DefaultConnectTimeout,
			KeepAlive: DefaultKeepAlive,
		}).DialContext,
		TLSHandshakeTimeout:   DefaultTLSHandshakeTimeout,
		ResponseHeaderTimeout: DefaultResponseHeaderTimeout,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	}
}

// Read fetches url and returns the body. Non-200 responses and bodies larger
// than MaxBytes are errors.
func (c *Client) Read(ctx context.Context, url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("url is empty")
	}
	if c.HTTP == nil {
		return nil, fmt.Errorf("http client is nil")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for url %s: %w", url, err)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	start := time.Now()
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed for url %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch %s: status %s", url, resp.Status)
	}

	limit := c.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxBytes
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response from %s: %w", url, err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("response from %s exceeds maximum size of %d bytes", url, limit)
	}

	slog.Debug("fetched",
		"url", url,
		"bytes", len(data),
		"duration", time.Since(start).String())
	return data, nil
}

// Download fetches url into dir and returns the path of the written file.
// The file name is the last element of the URL path.
func (c *Client) Download(ctx context.Context, url, dir string) (string, error) {
	data, err := c.Read(ctx, url)
	if err != nil {
		return "", err
	}

	name := filepath.Base(url)
	if name == "." || name == "/" || name == "" {
		return "", fmt.Errorf("cannot derive file name from url %s", url)
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("failed to write file %s: %w", path, err)
	}
	return path, nil
}
