package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"modelrepomgr/pkg/types"
)

// client talks to a running modeld over its HTTP API.
type client struct {
	baseURL string
	http    *http.Client
}

func newClient(baseURL string) *client {
	return &client{baseURL: baseURL, http: &http.Client{Timeout: 30 * time.Second}}
}

// apiError carries the server's JSON error payload plus the HTTP status.
type apiError struct {
	Status int
	types.ErrorResponse
}

func (e *apiError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.ErrorResponse.Error)
}

func (c *client) do(method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var ae apiError
		ae.Status = resp.StatusCode
		_ = json.NewDecoder(resp.Body).Decode(&ae.ErrorResponse)
		return &ae
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *client) listModels() (types.ModelsResponse, error) {
	var out types.ModelsResponse
	err := c.do(http.MethodGet, "/v1/models", nil, &out)
	return out, err
}

func (c *client) modelVersions(name string) (types.ModelStateResponse, error) {
	var out types.ModelStateResponse
	err := c.do(http.MethodGet, "/v1/models/"+url.PathEscape(name)+"/versions", nil, &out)
	return out, err
}

func (c *client) repositoryIndex(readyOnly bool) (types.RepositoryIndexResponse, error) {
	var out types.RepositoryIndexResponse
	path := "/v1/repository/index"
	if readyOnly {
		path += "?ready_only=true"
	}
	err := c.do(http.MethodGet, path, nil, &out)
	return out, err
}

func (c *client) load(name string, req types.LoadRequest) (types.WriteOpResult, error) {
	var out types.WriteOpResult
	err := c.do(http.MethodPost, "/v1/repository/models/"+url.PathEscape(name)+"/load", req, &out)
	return out, err
}

func (c *client) unload(name string, req types.UnloadRequest) (types.WriteOpResult, error) {
	var out types.WriteOpResult
	err := c.do(http.MethodPost, "/v1/repository/models/"+url.PathEscape(name)+"/unload", req, &out)
	return out, err
}

func (c *client) poll() (types.WriteOpResult, error) {
	var out types.WriteOpResult
	err := c.do(http.MethodPost, "/v1/repository/poll", nil, &out)
	return out, err
}

func (c *client) unloadAllModels() error {
	return c.do(http.MethodPost, "/v1/repository/unload-all", nil, nil)
}

func (c *client) drain() error {
	return c.do(http.MethodPost, "/v1/repository/drain", nil, nil)
}

func (c *client) registerRepository(req types.RegisterRepositoryRequest) error {
	return c.do(http.MethodPost, "/v1/repositories", req, nil)
}

func (c *client) unregisterRepository(path string) error {
	return c.do(http.MethodDelete, "/v1/repositories?path="+url.QueryEscape(path), nil, nil)
}
