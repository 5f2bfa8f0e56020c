/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package httpclient

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"gotest.tools/assert"
)

// flakyServer drops the connection on the first request and records every
// body it reads.
type flakyServer struct {
	mu       sync.Mutex
	attempts int
	bodies   []string
}

func (f *flakyServer) handle(w http.ResponseWriter, r *http.Request) {
	data, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.attempts++
	first := f.attempts == 1
	f.bodies = append(f.bodies, string(data))
	f.mu.Unlock()
	if first {
		hj, ok := w.(http.Hijacker)
		if !ok {
			panic("response writer does not support hijacking")
		}
		conn, _, err := hj.Hijack()
		if err != nil {
			panic(err)
		}
		conn.Close()
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (f *flakyServer) seen() (int, []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.attempts, append([]string(nil), f.bodies...)
}

func TestDoRetriesWithFullBody(t *testing.T) {
	flaky := &flakyServer{}
	srv := httptest.NewServer(http.HandlerFunc(flaky.handle))
	defer srv.Close()

	c := &client{Client: srv.Client()}
	req, err := BuildRequest(context.Background(), srv.URL, http.MethodPost, []byte(`{"k":"v"}`))
	assert.NilError(t, err)

	result, err := c.Do(req)
	assert.NilError(t, err)
	assert.Equal(t, result.StatusCode, http.StatusOK)

	attempts, bodies := flaky.seen()
	assert.Equal(t, attempts, 2)
	// the retry resends the whole body, not the leftovers of the first attempt
	assert.Equal(t, bodies[1], `{"k":"v"}`)
}

func TestDoDoesNotRetryOneShotBody(t *testing.T) {
	flaky := &flakyServer{}
	srv := httptest.NewServer(http.HandlerFunc(flaky.handle))
	defer srv.Close()

	c := &client{Client: srv.Client()}
	// an opaque reader leaves req.GetBody unset, so the body cannot be rewound
	body := struct{ io.Reader }{strings.NewReader(`{"k":"v"}`)}
	req, err := BuildRequest(context.Background(), srv.URL, http.MethodPost, body)
	assert.NilError(t, err)

	_, err = c.Do(req)
	assert.Assert(t, err != nil)
	attempts, _ := flaky.seen()
	assert.Equal(t, attempts, 1)
}

func TestDoSucceedsWithoutBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := &client{Client: srv.Client()}
	req, err := BuildRequest(context.Background(), srv.URL, http.MethodGet, nil)
	assert.NilError(t, err)

	result, err := c.Do(req)
	assert.NilError(t, err)
	assert.Equal(t, result.StatusCode, http.StatusNoContent)
}
