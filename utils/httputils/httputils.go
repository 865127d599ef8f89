// Copyright 2025 The Pickup Authors
// SPDX-License-Identifier: Apache-2.0

// Package httputils provides the HTTP plumbing shared by the geocoding providers.
package httputils

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"regexp"
	"strings"
	"time"
)

// DefaultTimeout bounds a single geocoding request.
const DefaultTimeout = 10 * time.Second

// ClientOptions configures NewClient.
type ClientOptions struct {
	// UserAgent is sent with every request. Public geocoders reject
	// anonymous clients.
	UserAgent string

	// Timeout for a whole request. Zero means DefaultTimeout.
	Timeout time.Duration

	// TraceWriter receives a dump of every request and response when set.
	TraceWriter io.Writer

	// TraceBody includes bodies in the dump.
	TraceBody bool
}

// NewClient builds the HTTP client used to talk to geocoding services.
func NewClient(options ClientOptions) *http.Client {
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          4,
		MaxIdleConnsPerHost:   2,
		MaxConnsPerHost:       2,
		IdleConnTimeout:       30 * time.Second,
		ResponseHeaderTimeout: timeout,
	}

	var rt http.RoundTripper = &LoggingRoundTripper{
		Transport: transport,
		Writer:    options.TraceWriter,
		DumpBody:  options.TraceBody,
	}

	if options.UserAgent != "" {
		rt = &AppendRequestHeadersRoundTripper{
			Transport: rt,
			Headers:   map[string]string{"User-Agent": options.UserAgent},
		}
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: rt,
	}
}

/////////////////////////////////////////
/// RoundTrippers

// LoggingRoundTripper adds a very primitive logging to a http transaction.
type LoggingRoundTripper struct {
	Transport http.RoundTripper
	Writer    io.Writer
	DumpBody  bool
}

// secretParams matches query parameters that carry credentials.
var secretParams = regexp.MustCompile(`(?i)\b(key|api_key|apikey)=[^&\s]+`)

// reduce the content of the lines and hide credentials.
func abbreviate(lines []string, prefix rune) []string {
	const maxLines, maxChars = 256, 512

	if len(lines) > maxLines {
		lines = append(lines[:maxLines], "…")
	}

	for i, line := range lines {
		line = secretParams.ReplaceAllString(line, "$1=REDACTED")
		if len(line) > maxChars {
			line = line[0:maxChars] + "…"
		}

		lines[i] = fmt.Sprintf("%c %s", prefix, line)
	}

	return lines
}

func (t *LoggingRoundTripper) dumpRequest(req *http.Request) error {
	dump, err := httputil.DumpRequestOut(req, true)
	if err != nil {
		return fmt.Errorf("tracing HTTP request: %w", err)
	}

	lines := abbreviate(strings.Split(string(dump), "\n"), '>')
	lines = append(lines, "")
	_, err = fmt.Fprint(t.Writer, strings.Join(lines, "\n"))

	return err
}

func (t *LoggingRoundTripper) dumpResponse(resp *http.Response, duration time.Duration) error {
	dump, err := httputil.DumpResponse(resp, t.DumpBody)
	if err != nil {
		return fmt.Errorf("tracing HTTP response: %w", err)
	}

	lines := abbreviate(strings.Split(string(dump), "\n"), '<')

	_, err = fmt.Fprintf(t.Writer, "< RESPONSE: [%v]\n", duration)
	if err != nil {
		return fmt.Errorf("tracing HTTP response: %w", err)
	}

	lines = append(lines, "")
	_, err = fmt.Fprint(t.Writer, strings.Join(lines, "\n"))

	return err
}

// RoundTrip implements the http.RoundTripper interface.
func (t *LoggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.Writer == nil {
		return t.Transport.RoundTrip(req)
	}

	if err := t.dumpRequest(req); err != nil {
		return nil, err
	}

	start := time.Now()

	resp, err := t.Transport.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	if err := t.dumpResponse(resp, time.Since(start)); err != nil {
		return nil, err
	}

	return resp, nil
}

// AppendRequestHeadersRoundTripper adds headers to the request.
type AppendRequestHeadersRoundTripper struct {
	Transport http.RoundTripper
	Headers   map[string]string
}

// RoundTrip implements the http.RoundTripper interface.
func (t *AppendRequestHeadersRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	for k, v := range t.Headers {
		req.Header.Set(k, v)
	}

	return t.Transport.RoundTrip(req)
}
