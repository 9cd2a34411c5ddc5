package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// Config 重试配置
// 仅用于外部信誉查询: 核心分析流水线内部不做任何重试
type Config struct {
	MaxAttempts     int           // 最大尝试次数
	InitialInterval time.Duration // 初始间隔
	MaxInterval     time.Duration // 最大间隔（指数退避封顶）
	Logger          *logrus.Logger
}

// DefaultConfig 默认配置: 3 次尝试，1s 起步指数退避
func DefaultConfig(logger *logrus.Logger) *Config {
	return &Config{
		MaxAttempts:     3,
		InitialInterval: 1 * time.Second,
		MaxInterval:     15 * time.Second,
		Logger:          logger,
	}
}

// Do 执行带指数退避的重试
func Do(ctx context.Context, config *Config, op string, fn func(ctx context.Context) error) error {
	attempts := config.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	interval := config.InitialInterval

	for attempt := 1; attempt <= attempts; attempt++ {
		select {
		case <-ctx.Done():
			return fmt.Errorf("%s canceled: %w", op, ctx.Err())
		default:
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}

		if attempt >= attempts {
			break
		}

		config.Logger.WithFields(logrus.Fields{
			"op":      op,
			"attempt": attempt,
			"max":     attempts,
			"wait":    interval,
			"error":   lastErr.Error(),
		}).Warn("Operation failed, retrying")

		select {
		case <-ctx.Done():
			return fmt.Errorf("%s canceled during wait: %w", op, ctx.Err())
		case <-time.After(interval):
		}

		interval *= 2
		if interval > config.MaxInterval {
			interval = config.MaxInterval
		}
	}

	return fmt.Errorf("%s: max attempts (%d) reached: %w", op, attempts, lastErr)
}

// DoWithResult 执行带重试的操作并返回结果
func DoWithResult[T any](ctx context.Context, config *Config, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := Do(ctx, config, op, func(ctx context.Context) error {
		res, err := fn(ctx)
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	return result, err
}
