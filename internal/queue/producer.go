package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"
)

// AnalysisMessage 送检消息
// APKPath 必须是消费端可见的路径（共享卷或本地盘）
type AnalysisMessage struct {
	ID      string `json:"id"`
	APKPath string `json:"apk_path"`
}

// Producer 送检消息生产者
type Producer struct {
	mq     *RabbitMQ
	logger *logrus.Logger
}

// NewProducer 创建生产者
func NewProducer(mq *RabbitMQ, logger *logrus.Logger) *Producer {
	return &Producer{mq: mq, logger: logger}
}

// PublishAnalysis 发布送检消息
func (p *Producer) PublishAnalysis(ctx context.Context, msg *AnalysisMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	if err := p.mq.Publish(ctx, body); err != nil {
		p.logger.WithError(err).WithField("id", msg.ID).Error("Failed to publish analysis message")
		return fmt.Errorf("failed to publish: %w", err)
	}

	p.logger.WithFields(logrus.Fields{
		"id":       msg.ID,
		"apk_path": msg.APKPath,
	}).Info("Analysis message published")

	return nil
}
