package manifest

import (
	"github.com/apk-risk/apk-risk-go/internal/domain"
	"github.com/sirupsen/logrus"
)

// Backend 单个 Manifest 提取后端
// TryExtract 失败时返回 nil 而不是错误: 后端内部的任何异常都只意味着
// "本后端没有产出"，由链路继续尝试下一个后端
type Backend interface {
	Name() string
	Available() bool
	TryExtract(apkPath string) *domain.ExtractionRecord
}

// Chain 按固定优先级顺序尝试各提取后端
// 使用第一个返回非空记录的后端，不同后端的部分结果绝不合并
type Chain struct {
	backends []Backend
	logger   *logrus.Logger
}

// NewChain 创建默认后端链: apkparser 优先，androidbinary 兜底
func NewChain(logger *logrus.Logger) *Chain {
	return NewChainWithBackends(logger,
		newAPKParserBackend(logger),
		newAndroidBinaryBackend(logger),
	)
}

// NewChainWithBackends 以显式后端列表创建链路
func NewChainWithBackends(logger *logrus.Logger, backends ...Backend) *Chain {
	c := &Chain{logger: logger}
	for _, b := range backends {
		if !b.Available() {
			logger.WithField("backend", b.Name()).Warn("Manifest backend unavailable, skipping")
			continue
		}
		c.backends = append(c.backends, b)
	}
	return c
}

// Extract 执行后端链
// 所有后端都失败时返回全空记录，这不是错误: 调用方继续用可推导的信号分析
func (c *Chain) Extract(apkPath string) *domain.ExtractionRecord {
	for _, b := range c.backends {
		record := c.tryBackend(b, apkPath)
		if record != nil {
			c.logger.WithFields(logrus.Fields{
				"backend": b.Name(),
				"package": record.Package,
			}).Debug("Manifest extracted")
			return record
		}
		c.logger.WithField("backend", b.Name()).Debug("Manifest backend produced nothing")
	}

	c.logger.Warn("All manifest backends failed, proceeding without metadata")
	return &domain.ExtractionRecord{}
}

// tryBackend 调用单个后端并吸收 panic
func (c *Chain) tryBackend(b Backend, apkPath string) (record *domain.ExtractionRecord) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.WithFields(logrus.Fields{
				"backend": b.Name(),
				"panic":   r,
			}).Warn("Manifest backend panicked, degrading")
			record = nil
		}
	}()

	return b.TryExtract(apkPath)
}
