// Copyright 2025 Arcade Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cli is the REST client behind pulse-cli.
package cli

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-arcade/pulse/internal/engine/model"
	"github.com/go-arcade/pulse/internal/engine/service/metrics"
	"github.com/go-arcade/pulse/internal/engine/service/notify"
	"github.com/go-resty/resty/v2"
)

const apiPrefix = "/api/v1"

// APIError is the error body written by the server.
type APIError struct {
	Status  int    `json:"-"`
	Code    int    `json:"code"`
	Message string `json:"errMsg"`
	Path    string `json:"path"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed with status %d", e.Status)
	}
	return fmt.Sprintf("%s (status %d, code %d)", e.Message, e.Status, e.Code)
}

type envelope[T any] struct {
	Code   int    `json:"code"`
	Detail T      `json:"detail"`
	Msg    string `json:"msg"`
}

type Client struct {
	http *resty.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetJSONMarshaler(sonic.Marshal).
		SetJSONUnmarshaler(sonic.Unmarshal)
	return &Client{http: c}
}

// TestAlertResult is the detail of POST /alerts/test.
type TestAlertResult struct {
	Message string         `json:"message"`
	Alert   *model.Alert   `json:"alert"`
	Result  *notify.Result `json:"result"`
}

func (c *Client) Summary(ctx context.Context, projectID uint64, period string) (*metrics.ProjectMetrics, error) {
	var out envelope[metrics.ProjectMetrics]
	req := c.http.R().SetContext(ctx).
		SetPathParam("projectId", strconv.FormatUint(projectID, 10))
	if period != "" {
		req.SetQueryParam("period", period)
	}
	if err := do(req, &out, "GET", apiPrefix+"/metrics/projects/{projectId}"); err != nil {
		return nil, err
	}
	return &out.Detail, nil
}

func (c *Client) Overview(ctx context.Context, period string) (*metrics.Overview, error) {
	var out envelope[metrics.Overview]
	req := c.http.R().SetContext(ctx)
	if period != "" {
		req.SetQueryParam("period", period)
	}
	if err := do(req, &out, "GET", apiPrefix+"/metrics/overview"); err != nil {
		return nil, err
	}
	return &out.Detail, nil
}

func (c *Client) TestAlert(ctx context.Context, projectID uint64, channels []string) (*TestAlertResult, error) {
	var out envelope[TestAlertResult]
	body := map[string]any{"project_id": projectID}
	if len(channels) > 0 {
		body["channels"] = channels
	}
	req := c.http.R().SetContext(ctx).SetBody(body)
	if err := do(req, &out, "POST", apiPrefix+"/alerts/test"); err != nil {
		return nil, err
	}
	return &out.Detail, nil
}

func do(req *resty.Request, out any, method, url string) error {
	apiErr := &APIError{}
	resp, err := req.SetResult(out).SetError(apiErr).Execute(method, url)
	if err != nil {
		return err
	}
	if resp.IsError() {
		apiErr.Status = resp.StatusCode()
		return apiErr
	}
	return nil
}
