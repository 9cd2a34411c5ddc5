package service

import (
	"context"
	"time"

	"github.com/apk-risk/apk-risk-go/internal/domain"
)

// AnalysisMetrics 分析指标记录器
type AnalysisMetrics interface {
	RecordAnalysisStarted()
	RecordAnalysisCompleted(verdict string, duration time.Duration)
	RecordAnalysisRejected()
}

// instrumentedService 带指标记录的分析服务装饰器
type instrumentedService struct {
	inner   AnalysisService
	metrics AnalysisMetrics
}

// NewInstrumentedService 为分析服务附加指标记录
func NewInstrumentedService(inner AnalysisService, metrics AnalysisMetrics) AnalysisService {
	return &instrumentedService{inner: inner, metrics: metrics}
}

func (s *instrumentedService) AnalyzeAPK(ctx context.Context, apkPath string) (*domain.AnalysisReport, error) {
	startTime := time.Now()
	s.metrics.RecordAnalysisStarted()

	report, err := s.inner.AnalyzeAPK(ctx, apkPath)
	if err != nil {
		s.metrics.RecordAnalysisRejected()
		return nil, err
	}

	s.metrics.RecordAnalysisCompleted(string(report.Verdict), time.Since(startTime))
	return report, nil
}
