package reputation

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/apk-risk/apk-risk-go/internal/domain"
	"github.com/apk-risk/apk-risk-go/internal/retry"
	"github.com/sirupsen/logrus"
)

// MalwareBazaarClient MalwareBazaar 样本信誉客户端
// hash_not_found 是正常结果，只有网络层失败才算错误
type MalwareBazaarClient struct {
	apiURL     string
	apiKey     string
	httpClient *http.Client
	logger     *logrus.Logger
	retryCfg   *retry.Config
}

// mbResponse MalwareBazaar query 响应
type mbResponse struct {
	QueryStatus string `json:"query_status"`
	Data        []struct {
		Signature string `json:"signature"`
	} `json:"data"`
}

// NewMalwareBazaarClient 创建 MalwareBazaar 客户端
func NewMalwareBazaarClient(apiURL, apiKey string, timeout time.Duration, logger *logrus.Logger) *MalwareBazaarClient {
	if apiURL == "" {
		apiURL = "https://mb-api.abuse.ch/api/v1/"
	}
	return &MalwareBazaarClient{
		apiURL: apiURL,
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger:   logger,
		retryCfg: retry.DefaultConfig(logger),
	}
}

// Lookup 按 SHA256 查询样本是否在库
// 命中返回 Detections=匹配记录数，未命中返回零值
func (c *MalwareBazaarClient) Lookup(ctx context.Context, sha256 string) (*domain.ReputationResult, error) {
	return retry.DoWithResult(ctx, c.retryCfg, "malwarebazaar_lookup", func(ctx context.Context) (*domain.ReputationResult, error) {
		return c.query(ctx, sha256)
	})
}

func (c *MalwareBazaarClient) query(ctx context.Context, sha256 string) (*domain.ReputationResult, error) {
	form := url.Values{}
	form.Set("query", "get_info")
	form.Set("hash", sha256)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if c.apiKey != "" {
		req.Header.Set("Auth-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("malwarebazaar request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("malwarebazaar returned status %d: %s", resp.StatusCode, string(body))
	}

	var parsed mbResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode malwarebazaar response failed: %w", err)
	}

	if parsed.QueryStatus != "ok" {
		c.logger.WithFields(logrus.Fields{
			"sha256": sha256,
			"status": parsed.QueryStatus,
		}).Debug("Sample not found on MalwareBazaar")
		return &domain.ReputationResult{}, nil
	}

	result := &domain.ReputationResult{
		Detections: len(parsed.Data),
		Total:      len(parsed.Data),
	}

	c.logger.WithFields(logrus.Fields{
		"sha256":  sha256,
		"matches": result.Detections,
	}).Info("MalwareBazaar lookup completed")

	return result, nil
}
