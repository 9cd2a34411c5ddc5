package reputation

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/apk-risk/apk-risk-go/internal/domain"
	"github.com/apk-risk/apk-risk-go/internal/retry"
	"github.com/sirupsen/logrus"
)

// VirusTotalClient VirusTotal 文件信誉客户端
// 按 SHA256 查询 last_analysis_stats，未收录视为零检出而非错误
type VirusTotalClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *logrus.Logger
	retryCfg   *retry.Config
}

// vtResponse VirusTotal v3 文件报告响应
type vtResponse struct {
	Data struct {
		Attributes struct {
			LastAnalysisStats map[string]int `json:"last_analysis_stats"`
		} `json:"attributes"`
	} `json:"data"`
}

// NewVirusTotalClient 创建 VirusTotal 客户端
func NewVirusTotalClient(baseURL, apiKey string, timeout time.Duration, logger *logrus.Logger) *VirusTotalClient {
	if baseURL == "" {
		baseURL = "https://www.virustotal.com/api/v3/files/"
	}
	return &VirusTotalClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger:   logger,
		retryCfg: retry.DefaultConfig(logger),
	}
}

// Lookup 按 SHA256 查询文件信誉
func (c *VirusTotalClient) Lookup(ctx context.Context, sha256 string) (*domain.ReputationResult, error) {
	return retry.DoWithResult(ctx, c.retryCfg, "virustotal_lookup", func(ctx context.Context) (*domain.ReputationResult, error) {
		return c.query(ctx, sha256)
	})
}

func (c *VirusTotalClient) query(ctx context.Context, sha256 string) (*domain.ReputationResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+sha256, nil)
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}
	req.Header.Set("x-apikey", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("virustotal request failed: %w", err)
	}
	defer resp.Body.Close()

	// 未收录的样本按零检出处理
	if resp.StatusCode == http.StatusNotFound {
		c.logger.WithField("sha256", sha256).Debug("Sample not found on VirusTotal")
		return &domain.ReputationResult{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("virustotal returned status %d: %s", resp.StatusCode, string(body))
	}

	var parsed vtResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode virustotal response failed: %w", err)
	}

	stats := parsed.Data.Attributes.LastAnalysisStats
	detections := stats["malicious"] + stats["suspicious"]
	total := 0
	for _, key := range []string{"malicious", "suspicious", "undetected", "harmless", "timeout"} {
		total += stats[key]
	}
	if total < 1 {
		total = 1
	}

	c.logger.WithFields(logrus.Fields{
		"sha256":     sha256,
		"detections": detections,
		"total":      total,
	}).Info("VirusTotal lookup completed")

	return &domain.ReputationResult{Detections: detections, Total: total}, nil
}
