package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/apk-risk/apk-risk-go/internal/domain"
	"github.com/sirupsen/logrus"
)

// Client 外部恶意分类模型客户端
// 模型不可达时降级为零概率，绝不阻断分析流水线
type Client struct {
	serverURL  string
	enabled    bool
	httpClient *http.Client
	logger     *logrus.Logger
}

// predictRequest 模型打分请求体
type predictRequest struct {
	Features []float64 `json:"features"`
	Names    []string  `json:"feature_names"`
}

// predictResponse 模型打分响应
type predictResponse struct {
	Probability  float64  `json:"probability"`
	Explanations []string `json:"explanations"`
}

// NewClient 创建分类器客户端
func NewClient(serverURL string, enabled bool, timeout time.Duration, logger *logrus.Logger) *Client {
	return &Client{
		serverURL: serverURL,
		enabled:   enabled && serverURL != "",
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Predict 提交特征向量换取恶意概率
// 禁用或失败时返回零概率的空输出，由调用方继续融合
func (c *Client) Predict(ctx context.Context, features []float64, names []string) *domain.ModelOutput {
	if !c.enabled {
		return &domain.ModelOutput{}
	}

	output, err := c.predict(ctx, features, names)
	if err != nil {
		c.logger.WithError(err).Warn("Classifier unavailable, falling back to zero probability")
		return &domain.ModelOutput{}
	}
	return output
}

func (c *Client) predict(ctx context.Context, features []float64, names []string) (*domain.ModelOutput, error) {
	payload, err := json.Marshal(predictRequest{Features: features, Names: names})
	if err != nil {
		return nil, fmt.Errorf("marshal predict request failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.serverURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("classifier request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("classifier returned status %d: %s", resp.StatusCode, string(body))
	}

	var parsed predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode classifier response failed: %w", err)
	}

	// 概率钳位到 [0, 1]
	if parsed.Probability < 0 {
		parsed.Probability = 0
	}
	if parsed.Probability > 1 {
		parsed.Probability = 1
	}

	c.logger.WithFields(logrus.Fields{
		"probability": parsed.Probability,
	}).Info("Classifier prediction completed")

	return &domain.ModelOutput{
		Probability:  parsed.Probability,
		Explanations: parsed.Explanations,
	}, nil
}
