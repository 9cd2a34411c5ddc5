package queue

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// MessageHandler 送检消息处理函数
type MessageHandler func(ctx context.Context, msg *AnalysisMessage) error

// Consumer 送检消息消费者
// 单消费协程，把反序列化后的消息交给处理函数（通常是 worker 池的入队）
type Consumer struct {
	mq      *RabbitMQ
	logger  *logrus.Logger
	handler MessageHandler

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewConsumer 创建消费者
func NewConsumer(mq *RabbitMQ, handler MessageHandler, logger *logrus.Logger) *Consumer {
	return &Consumer{
		mq:      mq,
		logger:  logger,
		handler: handler,
	}
}

// Start 启动消费循环
func (c *Consumer) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		c.logger.Warn("Consumer already running, skipping start")
		return nil
	}
	c.running = true
	c.mu.Unlock()

	msgs, err := c.mq.Consume()
	if err != nil {
		c.mu.Lock()
		c.running = false
		c.mu.Unlock()
		return err
	}

	loopCtx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.cancel = cancel
	c.done = make(chan struct{})
	c.mu.Unlock()

	go c.loop(loopCtx, msgs)

	c.mq.StartConnectionWatcher()
	go c.handleReconnect(ctx)

	c.logger.Info("Queue consumer started")
	return nil
}

func (c *Consumer) loop(ctx context.Context, msgs <-chan amqp.Delivery) {
	defer close(c.done)

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Consumer loop stopped by context")
			return
		case delivery, ok := <-msgs:
			if !ok {
				c.logger.Warn("Message channel closed")
				return
			}
			c.processMessage(ctx, delivery)
		}
	}
}

// processMessage 处理单条消息
// 格式错误的消息直接丢弃，处理失败的消息不重新入队避免死循环
func (c *Consumer) processMessage(ctx context.Context, delivery amqp.Delivery) {
	startTime := time.Now()

	var msg AnalysisMessage
	if err := json.Unmarshal(delivery.Body, &msg); err != nil {
		c.logger.WithError(err).Error("Failed to unmarshal analysis message")
		delivery.Nack(false, false)
		return
	}

	if err := c.handler(ctx, &msg); err != nil {
		c.logger.WithError(err).WithField("id", msg.ID).Error("Analysis message handling failed")
		delivery.Nack(false, false)
		return
	}

	if err := delivery.Ack(false); err != nil {
		c.logger.WithError(err).Error("Failed to acknowledge message")
	}

	c.logger.WithFields(logrus.Fields{
		"id":       msg.ID,
		"duration": time.Since(startTime).Seconds(),
	}).Info("Analysis message handled")
}

// handleReconnect 连接断开后重连并重启消费循环
func (c *Consumer) handleReconnect(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-c.mq.GetReconnectChan():
			if !ok {
				return
			}

			c.logger.Warn("Connection lost, attempting to reconnect...")
			c.Stop()

			if err := c.mq.Reconnect(); err != nil {
				c.logger.WithError(err).Error("Failed to reconnect, will retry on next signal")
				continue
			}

			if err := c.Start(ctx); err != nil {
				c.logger.WithError(err).Error("Failed to restart consumer")
			}
		}
	}
}

// Stop 停止消费并等待循环退出
func (c *Consumer) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.running = false
	cancel := c.cancel
	done := c.done
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		select {
		case <-done:
		case <-time.After(30 * time.Second):
			c.logger.Warn("Timeout waiting for consumer loop to stop")
		}
	}
	c.logger.Info("Queue consumer stopped")
}
