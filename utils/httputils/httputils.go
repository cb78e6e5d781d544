// Copyright 2025 The PostalGeo Authors
// SPDX-License-Identifier: Apache-2.0

// Package httputils builds the HTTP clients used to talk to geocoding providers.
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

// DefaultTimeout bounds every provider request.
const DefaultTimeout = 10 * time.Second

// ClientOptions configures NewClient.
type ClientOptions struct {
	// Timeout for the whole request. Zero means DefaultTimeout.
	Timeout time.Duration

	// Headers are set on every outgoing request (e.g. User-Agent).
	Headers map[string]string

	// Trace receives a dump of every request and response. Nil disables it.
	Trace io.Writer

	// TraceBody includes response bodies in the trace.
	TraceBody bool

	// Transport is the base transport. Nil means http.DefaultTransport.
	Transport http.RoundTripper
}

// NewClient returns an http.Client with the header and trace layers requested
// in opts.
func NewClient(opts ClientOptions) *http.Client {
	transport := opts.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}

	if opts.Trace != nil {
		transport = &TraceTransport{Transport: transport, Writer: opts.Trace, DumpBody: opts.TraceBody}
	}

	if len(opts.Headers) > 0 {
		transport = &HeaderTransport{Transport: transport, Headers: opts.Headers}
	}

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	return &http.Client{Transport: transport, Timeout: timeout}
}

// TraceTransport writes a light dump of every HTTP transaction. Secrets passed
// as query parameters (key, api_key, token) are masked.
type TraceTransport struct {
	Transport http.RoundTripper
	Writer    io.Writer
	DumpBody  bool
}

var secretParam = regexp.MustCompile(`(?i)\b((?:api_?)?key|token)=[^&\s]+`)

// Redact masks secrets in a line of trace output.
func Redact(line string) string {
	return secretParam.ReplaceAllString(line, "$1=REDACTED")
}

// prefix and trim dump lines.
func abbreviate(lines []string, prefix rune) []string {
	const maxLines, maxChars = 256, 512

	if len(lines) > maxLines {
		lines = append(lines[:maxLines], "…")
	}

	for i, line := range lines {
		line = Redact(line)
		if len(line) > maxChars {
			line = line[:maxChars] + "…"
		}

		lines[i] = fmt.Sprintf("%c %s", prefix, line)
	}

	return lines
}

func (t *TraceTransport) write(dump []byte, prefix rune) error {
	lines := abbreviate(strings.Split(string(dump), "\n"), prefix)
	lines = append(lines, "")
	_, err := fmt.Fprint(t.Writer, strings.Join(lines, "\n"))

	return err
}

// RoundTrip implements the http.RoundTripper interface.
func (t *TraceTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.Writer == nil {
		return t.Transport.RoundTrip(req)
	}

	dump, err := httputil.DumpRequestOut(req, true)
	if err != nil {
		return nil, fmt.Errorf("tracing HTTP request: %w", err)
	}

	if err := t.write(dump, '>'); err != nil {
		return nil, err
	}

	start := time.Now()

	resp, err := t.Transport.RoundTrip(req)
	if err != nil {
		fmt.Fprintf(t.Writer, "< ERROR: [%v] %s\n", time.Since(start), Redact(err.Error()))

		return nil, err
	}

	dump, err = httputil.DumpResponse(resp, t.DumpBody)
	if err != nil {
		return nil, fmt.Errorf("tracing HTTP response: %w", err)
	}

	if _, err := fmt.Fprintf(t.Writer, "< RESPONSE: [%v]\n", time.Since(start)); err != nil {
		return nil, fmt.Errorf("tracing HTTP response: %w", err)
	}

	if err := t.write(dump, '<'); err != nil {
		return nil, err
	}

	return resp, nil
}

// HeaderTransport sets fixed headers on every request.
type HeaderTransport struct {
	Transport http.RoundTripper
	Headers   map[string]string
}

// RoundTrip implements the http.RoundTripper interface.
func (t *HeaderTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	for k, v := range t.Headers {
		req.Header.Set(k, v)
	}

	return t.Transport.RoundTrip(req)
}
