package manifest

import (
	"testing"

	"github.com/apk-risk/apk-risk-go/internal/domain"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend 测试用后端
type fakeBackend struct {
	name      string
	available bool
	record    *domain.ExtractionRecord
	panics    bool
	calls     int
}

func (f *fakeBackend) Name() string    { return f.name }
func (f *fakeBackend) Available() bool { return f.available }

func (f *fakeBackend) TryExtract(apkPath string) *domain.ExtractionRecord {
	f.calls++
	if f.panics {
		panic("backend exploded")
	}
	return f.record
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

// TestChain_FirstBackendWins 首个产出记录的后端胜出，后续后端不再调用
func TestChain_FirstBackendWins(t *testing.T) {
	primary := &fakeBackend{name: "primary", available: true, record: &domain.ExtractionRecord{Package: "com.example.a"}}
	secondary := &fakeBackend{name: "secondary", available: true, record: &domain.ExtractionRecord{Package: "com.example.b"}}

	chain := NewChainWithBackends(testLogger(), primary, secondary)
	record := chain.Extract("dummy.apk")

	require.NotNil(t, record)
	assert.Equal(t, "com.example.a", record.Package)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 0, secondary.calls)
}

// TestChain_FallbackNoMerge 主后端失败时使用兜底后端的输出，绝不合并字段
func TestChain_FallbackNoMerge(t *testing.T) {
	primary := &fakeBackend{name: "primary", available: true, record: nil}
	secondary := &fakeBackend{
		name:      "secondary",
		available: true,
		record: &domain.ExtractionRecord{
			Package:     "com.example.fallback",
			Permissions: []string{"android.permission.INTERNET"},
		},
	}

	chain := NewChainWithBackends(testLogger(), primary, secondary)
	record := chain.Extract("dummy.apk")

	require.NotNil(t, record)
	assert.Equal(t, "com.example.fallback", record.Package)
	assert.Equal(t, []string{"android.permission.INTERNET"}, record.Permissions)
	assert.Empty(t, record.Label, "secondary output must be used verbatim")
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, secondary.calls)
}

// TestChain_PanicDegrades 后端 panic 只降级，不向外传播
func TestChain_PanicDegrades(t *testing.T) {
	exploding := &fakeBackend{name: "exploding", available: true, panics: true}
	secondary := &fakeBackend{name: "secondary", available: true, record: &domain.ExtractionRecord{Package: "com.example.safe"}}

	chain := NewChainWithBackends(testLogger(), exploding, secondary)

	var record *domain.ExtractionRecord
	assert.NotPanics(t, func() {
		record = chain.Extract("dummy.apk")
	})
	assert.Equal(t, "com.example.safe", record.Package)
}

// TestChain_AllFail 全部后端失败时返回全空记录，不是错误
func TestChain_AllFail(t *testing.T) {
	chain := NewChainWithBackends(testLogger(),
		&fakeBackend{name: "a", available: true},
		&fakeBackend{name: "b", available: true},
	)

	record := chain.Extract("dummy.apk")
	require.NotNil(t, record)
	assert.True(t, record.IsEmpty())
}

// TestChain_SkipsUnavailable 不可用的后端在构建时剔除
func TestChain_SkipsUnavailable(t *testing.T) {
	unavailable := &fakeBackend{name: "off", available: false, record: &domain.ExtractionRecord{Package: "com.example.off"}}
	active := &fakeBackend{name: "on", available: true, record: &domain.ExtractionRecord{Package: "com.example.on"}}

	chain := NewChainWithBackends(testLogger(), unavailable, active)
	record := chain.Extract("dummy.apk")

	assert.Equal(t, "com.example.on", record.Package)
	assert.Equal(t, 0, unavailable.calls)
}

// TestDefaultChain_InvalidArchive 默认链对无效压缩包降级为全空记录
func TestDefaultChain_InvalidArchive(t *testing.T) {
	chain := NewChain(testLogger())
	record := chain.Extract("/nonexistent/path.apk")

	require.NotNil(t, record)
	assert.True(t, record.IsEmpty())
}
