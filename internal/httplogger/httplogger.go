// © 2025 dgfeed authors. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package httplogger provides a http.RoundTripper middleware that logs HTTP
// requests and responses. It is used for debugging the pipeline's outbound
// traffic.
package httplogger

import (
	"net/http"
	"time"

	"github.com/dgfeed/dgfeed/internal/logger"
)

// New wraps t with request and response logging through logf. A nil t means
// http.DefaultTransport.
func New(t http.RoundTripper, logf logger.Logf) http.RoundTripper {
	if t == nil {
		t = http.DefaultTransport
	}
	return &loggingTransport{transport: t, logf: logf}
}

type loggingTransport struct {
	transport http.RoundTripper
	logf      logger.Logf
}

func (t *loggingTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	start := time.Now()
	t.logf("HTTP: > %s %s", r.Method, r.URL.Redacted())

	resp, err := t.transport.RoundTrip(r)

	elapsed := time.Since(start).Round(time.Millisecond)
	if err != nil {
		t.logf("HTTP: < %s %s error after %s: %v", r.Method, r.URL.Redacted(), elapsed, err)
		return resp, err
	}
	t.logf("HTTP: < %s %s %s (%s)", r.Method, r.URL.Redacted(), resp.Status, elapsed)

	return resp, nil
}
