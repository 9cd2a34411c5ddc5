package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// RabbitMQConfig RabbitMQ 连接配置
type RabbitMQConfig struct {
	Host      string
	Port      int
	User      string
	Password  string
	VHost     string
	Heartbeat time.Duration // 默认 10 秒
}

// RabbitMQ RabbitMQ 客户端
// 批量送检入口: 外部系统把待分析 APK 的路径投递到队列
type RabbitMQ struct {
	config     *RabbitMQConfig
	conn       *amqp.Connection
	channel    *amqp.Channel
	logger     *logrus.Logger
	queueName  string
	reconnect  chan bool
	maxRetries int

	mu         sync.RWMutex
	closed     bool
	connNotify chan *amqp.Error
}

// NewRabbitMQ 创建 RabbitMQ 客户端并声明队列
func NewRabbitMQ(config *RabbitMQConfig, queueName string, logger *logrus.Logger) (*RabbitMQ, error) {
	if config.Heartbeat == 0 {
		config.Heartbeat = 10 * time.Second
	}

	mq := &RabbitMQ{
		config:     config,
		logger:     logger,
		queueName:  queueName,
		reconnect:  make(chan bool, 10),
		maxRetries: 10,
	}

	if err := mq.connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	return mq, nil
}

// connect 建立连接并声明持久化队列
func (mq *RabbitMQ) connect() error {
	mq.mu.Lock()
	defer mq.mu.Unlock()

	url := fmt.Sprintf("amqp://%s:%s@%s:%d/%s",
		mq.config.User,
		mq.config.Password,
		mq.config.Host,
		mq.config.Port,
		mq.config.VHost,
	)

	conn, err := amqp.DialConfig(url, amqp.Config{
		Heartbeat: mq.config.Heartbeat,
		Locale:    "en_US",
	})
	if err != nil {
		return fmt.Errorf("failed to dial: %w", err)
	}
	mq.conn = conn

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to open channel: %w", err)
	}
	mq.channel = ch

	// 逐条确认，prefetch 1: 分析耗时远大于投递耗时
	if err := ch.Qos(1, 0, false); err != nil {
		ch.Close()
		conn.Close()
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	_, err = ch.QueueDeclare(
		mq.queueName, // name
		true,         // durable
		false,        // delete when unused
		false,        // exclusive
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	mq.connNotify = make(chan *amqp.Error, 1)
	mq.conn.NotifyClose(mq.connNotify)

	mq.logger.WithFields(logrus.Fields{
		"host":  mq.config.Host,
		"port":  mq.config.Port,
		"queue": mq.queueName,
	}).Info("Connected to RabbitMQ")

	return nil
}

// StartConnectionWatcher 监听连接异常关闭并发送重连信号
func (mq *RabbitMQ) StartConnectionWatcher() {
	go func() {
		for {
			mq.mu.RLock()
			if mq.closed {
				mq.mu.RUnlock()
				return
			}
			notify := mq.connNotify
			mq.mu.RUnlock()

			err, ok := <-notify
			if !ok {
				mq.mu.RLock()
				closed := mq.closed
				mq.mu.RUnlock()
				if closed {
					return
				}
			}
			if err != nil {
				mq.logger.WithError(err).Error("RabbitMQ connection closed unexpectedly")
			}

			select {
			case mq.reconnect <- true:
			default:
			}
		}
	}()
}

// Reconnect 带退避的重连
func (mq *RabbitMQ) Reconnect() error {
	mq.closeConnections()

	for retries := 0; retries < mq.maxRetries; retries++ {
		mq.logger.Infof("Attempting to reconnect to RabbitMQ (attempt %d/%d)", retries+1, mq.maxRetries)

		if err := mq.connect(); err != nil {
			mq.logger.WithError(err).Error("Failed to reconnect")
			time.Sleep(time.Duration(retries+1) * time.Second)
			continue
		}

		mq.logger.Info("Successfully reconnected to RabbitMQ")
		return nil
	}

	return fmt.Errorf("failed to reconnect after %d attempts", mq.maxRetries)
}

// closeConnections 关闭现有连接（不设置 closed 标志）
func (mq *RabbitMQ) closeConnections() {
	mq.mu.Lock()
	defer mq.mu.Unlock()

	if mq.channel != nil {
		mq.channel.Close()
		mq.channel = nil
	}
	if mq.conn != nil {
		mq.conn.Close()
		mq.conn = nil
	}
}

// Publish 发布持久化消息
func (mq *RabbitMQ) Publish(ctx context.Context, body []byte) error {
	mq.mu.RLock()
	ch := mq.channel
	mq.mu.RUnlock()
	if ch == nil {
		return fmt.Errorf("channel is nil")
	}

	return ch.PublishWithContext(
		ctx,
		"",           // exchange
		mq.queueName, // routing key
		false,        // mandatory
		false,        // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Body:         body,
			Timestamp:    time.Now(),
		},
	)
}

// Consume 打开手动确认的消费通道
func (mq *RabbitMQ) Consume() (<-chan amqp.Delivery, error) {
	mq.mu.RLock()
	ch := mq.channel
	mq.mu.RUnlock()
	if ch == nil {
		return nil, fmt.Errorf("channel is nil")
	}

	msgs, err := ch.Consume(
		mq.queueName, // queue
		"",           // consumer
		false,        // auto-ack
		false,        // exclusive
		false,        // no-local
		false,        // no-wait
		nil,          // args
	)
	if err != nil {
		return nil, fmt.Errorf("failed to consume: %w", err)
	}

	return msgs, nil
}

// GetReconnectChan 获取重连信号通道
func (mq *RabbitMQ) GetReconnectChan() <-chan bool {
	return mq.reconnect
}

// Close 关闭连接
func (mq *RabbitMQ) Close() error {
	mq.mu.Lock()
	mq.closed = true
	mq.mu.Unlock()

	mq.closeConnections()
	mq.logger.Info("RabbitMQ connection closed")
	return nil
}
