// Package client empa-cela HTTP API 客户端（供 CLI 与集成脚本使用）
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"strconv"
	"strings"
	"time"

	"github.com/Dkijas/EMPA-CELA-sub000/internal/anatomy"
	"github.com/Dkijas/EMPA-CELA-sub000/internal/domain"
	"github.com/Dkijas/EMPA-CELA-sub000/internal/service"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	apiPrefix     = "/empa/api/v1"
	resultSuccess = 2000
)

// APIError 服务端返回 code != 2000
type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("empa api error: %s (code: %d)", e.Message, e.Code)
}

type envelope struct {
	Code    int             `json:"code"`
	Type    string          `json:"type"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

// Client empa-cela API 客户端。
// 只有 GET 走带重试的 reader；POST/DELETE 不重试，避免重复创建评估
type Client struct {
	reader *resty.Client
	writer *resty.Client
	logger *zap.Logger
}

const (
	retryCount   = 2
	retryWait    = 500 * time.Millisecond
	retryMaxWait = 2 * time.Second
)

// New 创建客户端
func New(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	base := strings.TrimRight(baseURL, "/")
	reader := resty.New().
		SetBaseURL(base).
		SetTimeout(timeout).
		SetRetryCount(retryCount).
		SetRetryWaitTime(retryWait).
		SetRetryMaxWaitTime(retryMaxWait).
		SetHeader("Accept", "application/json")
	writer := resty.New().
		SetBaseURL(base).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	return &Client{reader: reader, writer: writer, logger: logger}
}

func (c *Client) clientFor(method string) *resty.Client {
	if method == resty.MethodGet {
		return c.reader
	}
	return c.writer
}

// call 发送请求并把 result 解到 out（out 可为 nil）
func (c *Client) call(ctx context.Context, method, path string, pathParams map[string]string, body, out any) error {
	req := c.clientFor(method).R().SetContext(ctx).SetPathParams(pathParams)
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}
	resp, err := req.Execute(method, apiPrefix+path)
	if err != nil {
		c.logger.Error("empa api call failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return fmt.Errorf("call %s %s: %w", method, path, err)
	}
	if resp.IsError() {
		return fmt.Errorf("call %s %s: unexpected status %d", method, path, resp.StatusCode())
	}

	var env envelope
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if env.Code != resultSuccess {
		return &APIError{Code: env.Code, Message: env.Message}
	}
	if out == nil || len(env.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Result, out); err != nil {
		return fmt.Errorf("decode result: %w", err)
	}
	return nil
}

// Catalog 区域目录
func (c *Client) Catalog(ctx context.Context) ([]domain.AnatomicalArea, error) {
	var out []domain.AnatomicalArea
	if err := c.call(ctx, resty.MethodGet, "/catalog", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Score 计分
func (c *Client) Score(ctx context.Context, selections map[string]int) (*domain.ScoreResult, error) {
	var out domain.ScoreResult
	body := map[string]any{"selections": selections}
	if err := c.call(ctx, resty.MethodPost, "/score", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListAreas 患者已选区域
func (c *Client) ListAreas(ctx context.Context, patientID string) (*service.AreasResponse, error) {
	var out service.AreasResponse
	if err := c.call(ctx, resty.MethodGet, "/patients/{id}/areas", map[string]string{"id": patientID}, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SaveArea 新增或编辑区域
func (c *Client) SaveArea(ctx context.Context, patientID string, form anatomy.Form) (*service.SaveAreaResponse, error) {
	var out service.SaveAreaResponse
	if err := c.call(ctx, resty.MethodPost, "/patients/{id}/areas", map[string]string{"id": patientID}, form, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RemoveArea 删除区域
func (c *Client) RemoveArea(ctx context.Context, patientID, area string) (*service.AreasResponse, error) {
	var out service.AreasResponse
	params := map[string]string{"id": patientID, "area": area}
	if err := c.call(ctx, resty.MethodDelete, "/patients/{id}/areas/{area}", params, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Progression 进展序列
func (c *Client) Progression(ctx context.Context, patientID string) ([]domain.ProgressionPoint, error) {
	var out []domain.ProgressionPoint
	if err := c.call(ctx, resty.MethodGet, "/patients/{id}/progression", map[string]string{"id": patientID}, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SaveAssessment 保存评估
func (c *Client) SaveAssessment(ctx context.Context, patientID string, req service.SaveAssessmentRequest) (*domain.Assessment, error) {
	var out domain.Assessment
	if err := c.call(ctx, resty.MethodPost, "/patients/{id}/assessments", map[string]string{"id": patientID}, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListAssessments 患者评估列表（按时间倒序）
func (c *Client) ListAssessments(ctx context.Context, patientID string, limit int) ([]*domain.Assessment, error) {
	var out struct {
		Items []*domain.Assessment `json:"items"`
	}
	path := "/patients/{id}/assessments"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	if err := c.call(ctx, resty.MethodGet, path, map[string]string{"id": patientID}, nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// Download 下载报告；format 为 "pdf" 或 "xlsx"
func (c *Client) Download(ctx context.Context, assessmentID, format string) (*service.Export, error) {
	if format != "pdf" && format != "xlsx" {
		return nil, fmt.Errorf("unsupported report format %q", format)
	}
	resp, err := c.reader.R().
		SetContext(ctx).
		SetHeader("Accept", "*/*").
		SetPathParam("id", assessmentID).
		Get(apiPrefix + "/assessments/{id}/report." + format)
	if err != nil {
		return nil, fmt.Errorf("download report: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("download report: unexpected status %d", resp.StatusCode())
	}

	contentType := resp.Header().Get("Content-Type")
	if strings.HasPrefix(contentType, "application/json") {
		var env envelope
		if err := json.Unmarshal(resp.Body(), &env); err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
		return nil, &APIError{Code: env.Code, Message: env.Message}
	}

	name := "empa-cela-" + assessmentID + "." + format
	if _, params, err := mime.ParseMediaType(resp.Header().Get("Content-Disposition")); err == nil && params["filename"] != "" {
		name = params["filename"]
	}
	return &service.Export{FileName: name, ContentType: contentType, Data: resp.Body()}, nil
}

// IsAPIError 是否为服务端业务错误
func IsAPIError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}
