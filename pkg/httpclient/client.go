/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package httpclient

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

type client struct {
	*http.Client
}

const (
	DefaultTimeout = 30 * time.Second
	DefaultMaxTry  = 2
)

var (
	once     sync.Once
	instance *client
)

type Interface interface {
	Get(ctx context.Context, url string, headers ...string) (*Result, error)
	Post(ctx context.Context, url string, body interface{}, headers ...string) (*Result, error)
	Put(ctx context.Context, url string, body interface{}, headers ...string) (*Result, error)
	Delete(ctx context.Context, url string, headers ...string) (*Result, error)
	Do(req *http.Request) (*Result, error)
}

func NewHttpClient() Interface {
	once.Do(func() {
		instance = &client{
			Client: &http.Client{
				Timeout: DefaultTimeout,
				Transport: &http.Transport{
					TLSClientConfig: &tls.Config{
						InsecureSkipVerify: true,
					},
					TLSHandshakeTimeout:   10 * time.Second,
					MaxIdleConns:          128,
					MaxConnsPerHost:       64,
					IdleConnTimeout:       1 * time.Minute,
					ExpectContinueTimeout: 10 * time.Second,
				},
			},
		}
	})
	return instance
}

func (c *client) Get(ctx context.Context, url string, headers ...string) (*Result, error) {
	return c.do(ctx, url, http.MethodGet, nil, headers...)
}

func (c *client) Post(ctx context.Context, url string, body interface{}, headers ...string) (*Result, error) {
	return c.do(ctx, url, http.MethodPost, body, headers...)
}

func (c *client) Put(ctx context.Context, url string, body interface{}, headers ...string) (*Result, error) {
	return c.do(ctx, url, http.MethodPut, body, headers...)
}

func (c *client) Delete(ctx context.Context, url string, headers ...string) (*Result, error) {
	return c.do(ctx, url, http.MethodDelete, nil, headers...)
}

func (c *client) do(ctx context.Context, url, method string, body interface{}, headers ...string) (*Result, error) {
	req, err := BuildRequest(ctx, url, method, body, headers...)
	if err != nil {
		return nil, err
	}
	return c.Do(req)
}

// Do executes the HTTP request with retry logic.
// It attempts to send the request up to DefaultMaxTry times (2 attempts total).
// A retry rewinds the body through req.GetBody; a request whose body cannot be
// rewound is not retried. If all attempts fail, it returns the last error
// encountered. On success, it reads the response body and returns a Result
// containing the status code, response body, and headers. The response body is
// automatically closed.
func (c *client) Do(req *http.Request) (*Result, error) {
	var rsp *http.Response
	var err error
	for i := 0; i < DefaultMaxTry; i++ {
		if i > 0 && req.Body != nil {
			// the failed attempt consumed the body
			if req.GetBody == nil {
				return nil, err
			}
			if req.Body, err = req.GetBody(); err != nil {
				return nil, err
			}
		}
		if rsp, err = c.Client.Do(req); err == nil {
			break
		} else if i == DefaultMaxTry-1 {
			return nil, err
		}
	}
	if rsp == nil {
		return nil, fmt.Errorf("no result")
	}
	data, err := io.ReadAll(rsp.Body)
	defer rsp.Body.Close()
	if err != nil {
		return nil, err
	}
	return &Result{StatusCode: rsp.StatusCode, Body: data, Header: rsp.Header}, nil
}

// BuildRequest creates an HTTP request with the given URL, method, body, and headers.
// It defaults the scheme to "http://" when none is given and converts the body
// to an io.Reader. Headers are set in pairs (key, value); Content-Type defaults
// to "application/json" unless a pair overrides it.
func BuildRequest(ctx context.Context, url, method string, body interface{}, headers ...string) (*http.Request, error) {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = "http://" + url
	}
	reader, err := cvtIOReader(body)
	if err != nil {
		return nil, err
	}
	request, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, err
	}
	request.Header.Set("Content-Type", "application/json")
	for i := 0; i < len(headers); i += 2 {
		if i+1 >= len(headers) {
			break
		}
		request.Header.Set(headers[i], headers[i+1])
	}
	return request, nil
}

// cvtIOReader converts the given body interface{} to an io.Reader.
// It handles different types of input:
// - string: converts to strings.Reader
// - io.Reader: returns as-is
// - []byte: converts to bytes.Reader
// - other types: marshals to JSON and converts to bytes.Reader
// Returns an error if JSON marshaling fails for unknown types.
func cvtIOReader(body interface{}) (io.Reader, error) {
	if body == nil {
		return nil, nil
	}
	var reader io.Reader
	switch b := body.(type) {
	case string:
		reader = strings.NewReader(b)
	case io.Reader:
		reader = b
	case []byte:
		reader = bytes.NewReader(b)
	default:
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(data)
	}
	return reader, nil
}
