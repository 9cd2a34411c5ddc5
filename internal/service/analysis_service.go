package service

import (
	"context"
	"path/filepath"
	"time"

	"github.com/apk-risk/apk-risk-go/internal/analyzer"
	"github.com/apk-risk/apk-risk-go/internal/domain"
	"github.com/apk-risk/apk-risk-go/internal/features"
	"github.com/apk-risk/apk-risk-go/internal/fusion"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ReputationLookup 外部信誉源
type ReputationLookup interface {
	Lookup(ctx context.Context, sha256 string) (*domain.ReputationResult, error)
}

// Predictor 恶意分类模型
type Predictor interface {
	Predict(ctx context.Context, features []float64, names []string) *domain.ModelOutput
}

// AnalysisService APK 风险分析服务
type AnalysisService interface {
	AnalyzeAPK(ctx context.Context, apkPath string) (*domain.AnalysisReport, error)
}

type analysisService struct {
	logger        *logrus.Logger
	analyzer      *analyzer.Analyzer
	virusTotal    ReputationLookup
	malwareBazaar ReputationLookup
	predictor     Predictor
}

// NewAnalysisService 创建分析服务
// virusTotal / malwareBazaar / predictor 允许为 nil，对应信号按零值参与融合
func NewAnalysisService(logger *logrus.Logger, a *analyzer.Analyzer, vt, mb ReputationLookup, predictor Predictor) AnalysisService {
	return &analysisService{
		logger:        logger,
		analyzer:      a,
		virusTotal:    vt,
		malwareBazaar: mb,
		predictor:     predictor,
	}
}

// AnalyzeAPK 执行完整分析: 静态提取、信誉查询、模型打分、信号融合
// 只有无效 APK 容器会返回错误，外部信号失败一律降级为零值
func (s *analysisService) AnalyzeAPK(ctx context.Context, apkPath string) (*domain.AnalysisReport, error) {
	startTime := time.Now()
	reportID := uuid.New().String()

	result, err := s.analyzer.Analyze(ctx, apkPath)
	if err != nil {
		return nil, err
	}

	vtResult := s.lookup(ctx, s.virusTotal, "virustotal", result.SHA256)
	mbResult := s.lookup(ctx, s.malwareBazaar, "malwarebazaar", result.SHA256)

	model := &domain.ModelOutput{}
	if s.predictor != nil {
		model = s.predictor.Predict(ctx, features.Vector(result), features.Names)
	}

	score, verdict := fusion.Fuse(model.Probability, vtResult.Detections, vtResult.Total, mbResult.Detections)

	report := &domain.AnalysisReport{
		ID:            reportID,
		APKName:       filepath.Base(apkPath),
		Result:        result,
		VirusTotal:    *vtResult,
		MalwareBazaar: *mbResult,
		Model:         *model,
		FinalScore:    score,
		Verdict:       verdict,
		AnalyzedAt:    startTime.UTC(),
		DurationMs:    time.Since(startTime).Milliseconds(),
	}

	s.logger.WithFields(logrus.Fields{
		"report_id": report.ID,
		"apk":       report.APKName,
		"sha256":    result.SHA256,
		"score":     report.FinalScore,
		"verdict":   report.Verdict,
	}).Info("APK analysis completed")

	return report, nil
}

// lookup 查询单个信誉源，失败降级为零检出
func (s *analysisService) lookup(ctx context.Context, source ReputationLookup, name, sha256 string) *domain.ReputationResult {
	if source == nil {
		return &domain.ReputationResult{}
	}
	result, err := source.Lookup(ctx, sha256)
	if err != nil {
		s.logger.WithError(err).WithField("source", name).Warn("Reputation lookup failed, using zero detections")
		return &domain.ReputationResult{}
	}
	return result
}
