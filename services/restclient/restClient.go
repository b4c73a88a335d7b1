// Copyright (C) 2019-2024 Algorand, Inc.
// This file is part of go-algorand
//
// go-algorand is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// go-algorand is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with go-algorand.  If not, see <https://www.gnu.org/licenses/>.

// Package restclient is the HTTP plumbing shared by the clients of external
// services.
package restclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-querystring/query"
)

const (
	maxRawResponseBytes = 10e6
	defaultTimeout      = 30 * time.Second
)

// HTTPError is generated when we receive an unhandled error from the server.
type HTTPError struct {
	StatusCode  int
	Status      string
	ErrorString string
}

// Error formats an error string.
func (e HTTPError) Error() string {
	return fmt.Sprintf("HTTP %s: %s", e.Status, e.ErrorString)
}

// RestClient issues requests against one service.
type RestClient struct {
	serverURL  url.URL
	headers    map[string]string
	httpClient *http.Client
}

// MakeRestClient is the factory for constructing a RestClient for a given
// endpoint. headers are sent with every request.
func MakeRestClient(serverURL url.URL, headers map[string]string) RestClient {
	h := make(map[string]string, len(headers))
	for k, v := range headers {
		h[k] = v
	}
	return RestClient{
		serverURL:  serverURL,
		headers:    h,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

// ParseEndpoint parses a base URL, rejecting anything but http and https.
func ParseEndpoint(raw string) (url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return url.URL{}, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return url.URL{}, fmt.Errorf("endpoint %q: unsupported scheme %q", raw, u.Scheme)
	}
	return *u, nil
}

// WithHTTPClient returns a copy of client using hc.
func (client RestClient) WithHTTPClient(hc *http.Client) RestClient {
	client.httpClient = hc
	return client
}

// filterASCII filter out the non-ascii printable characters out of the given input string.
// It's used as a security qualifier before adding network provided data into an error message.
func filterASCII(unfilteredString string) (filteredString string) {
	for i, r := range unfilteredString {
		if int(r) >= 0x20 && int(r) <= 0x7e {
			filteredString += string(unfilteredString[i])
		}
	}
	return
}

// extractError checks if the response signifies an error.
// If so, it returns the error.
// Otherwise, it returns nil.
func extractError(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	errorBuf, _ := io.ReadAll(resp.Body) // ignore returned error
	var errorJSON struct {
		Message string `json:"message"`
		Error   struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	errorString := string(errorBuf)
	if json.Unmarshal(errorBuf, &errorJSON) == nil {
		switch {
		case errorJSON.Message != "":
			errorString = errorJSON.Message
		case errorJSON.Error.Message != "":
			errorString = errorJSON.Error.Message
		}
	}
	return HTTPError{StatusCode: resp.StatusCode, Status: resp.Status, ErrorString: filterASCII(errorString)}
}

// mergeRawQueries merges two raw queries, appending an "&" if both are non-empty
func mergeRawQueries(q1, q2 string) string {
	if q1 == "" || q2 == "" {
		return q1 + q2
	}
	return q1 + "&" + q2
}

func (client RestClient) do(ctx context.Context, method, path string, params interface{}, contentType string, body io.Reader) ([]byte, error) {
	queryURL := client.serverURL
	queryURL.Path = strings.TrimRight(queryURL.Path, "/") + path

	if params != nil {
		v, err := query.Values(params)
		if err != nil {
			return nil, err
		}
		queryURL.RawQuery = mergeRawQueries(queryURL.RawQuery, v.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, queryURL.String(), body)
	if err != nil {
		return nil, err
	}
	for k, v := range client.headers {
		req.Header.Set(k, v)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	// Ensure response isn't too large
	resp.Body = http.MaxBytesReader(nil, resp.Body, maxRawResponseBytes)
	defer resp.Body.Close()

	if err := extractError(resp); err != nil {
		return nil, err
	}
	return io.ReadAll(resp.Body)
}

// Get performs a GET request and decodes the JSON response into response.
func (client RestClient) Get(ctx context.Context, response interface{}, path string, params interface{}) error {
	raw, err := client.do(ctx, http.MethodGet, path, params, "", nil)
	if err != nil {
		return err
	}
	return decode(raw, response)
}

// GetRaw performs a GET request and returns the undecoded body.
func (client RestClient) GetRaw(ctx context.Context, path string, params interface{}) ([]byte, error) {
	return client.do(ctx, http.MethodGet, path, params, "", nil)
}

// Post sends body as JSON and decodes the JSON response into response.
func (client RestClient) Post(ctx context.Context, response interface{}, path string, params interface{}, body interface{}) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}
	raw, err := client.do(ctx, http.MethodPost, path, params, "application/json", reader)
	if err != nil {
		return err
	}
	return decode(raw, response)
}

// PostRaw sends body with the given content type and decodes the JSON response.
func (client RestClient) PostRaw(ctx context.Context, response interface{}, path string, params interface{}, contentType string, body io.Reader) error {
	raw, err := client.do(ctx, http.MethodPost, path, params, contentType, body)
	if err != nil {
		return err
	}
	return decode(raw, response)
}

func decode(raw []byte, response interface{}) error {
	if response == nil {
		return nil
	}
	if err := json.Unmarshal(raw, response); err != nil {
		return fmt.Errorf("malformed response body: %w", err)
	}
	return nil
}

// PostBytes sends a POST without a body and returns the undecoded response.
func (client RestClient) PostBytes(ctx context.Context, path string, params interface{}) ([]byte, error) {
	return client.do(ctx, http.MethodPost, path, params, "", nil)
}
