package worker

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/apk-risk/apk-risk-go/internal/domain"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockAnalysisService Mock Service
type MockAnalysisService struct {
	mock.Mock
}

func (m *MockAnalysisService) AnalyzeAPK(ctx context.Context, apkPath string) (*domain.AnalysisReport, error) {
	args := m.Called(apkPath)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AnalysisReport), args.Error(1)
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

// TestPool_WritesReport 任务完成后报告以任务 ID 命名落盘
func TestPool_WritesReport(t *testing.T) {
	resultDir := t.TempDir()

	svc := new(MockAnalysisService)
	svc.On("AnalyzeAPK", "/data/sample.apk").Return(&domain.AnalysisReport{
		ID:      "service-generated",
		Verdict: domain.VerdictLikelySafe,
	}, nil)

	p := NewPool(2, 8, svc, resultDir, testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p.Start(ctx)

	err := p.SubmitAndWait(ctx, &Task{ID: "task-42", APKPath: "/data/sample.apk"})
	require.NoError(t, err)
	p.Stop()

	data, err := os.ReadFile(filepath.Join(resultDir, "task-42.json"))
	require.NoError(t, err)

	var report domain.AnalysisReport
	require.NoError(t, json.Unmarshal(data, &report))
	assert.Equal(t, "task-42", report.ID)
	assert.Equal(t, domain.VerdictLikelySafe, report.Verdict)

	svc.AssertExpectations(t)
}

// TestPool_SubmitFullQueue 队列满时 Submit 立即报错
func TestPool_SubmitFullQueue(t *testing.T) {
	// 未启动 worker，队列容量 1
	p := NewPool(1, 1, new(MockAnalysisService), t.TempDir(), testLogger())

	require.NoError(t, p.Submit(&Task{ID: "first"}))
	assert.Error(t, p.Submit(&Task{ID: "second"}))
	assert.Equal(t, 1, p.GetQueueSize())
}
