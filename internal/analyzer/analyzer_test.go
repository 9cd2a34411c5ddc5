package analyzer

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/apk-risk/apk-risk-go/internal/domain"
	"github.com/apk-risk/apk-risk-go/internal/iconhash"
	"github.com/apk-risk/apk-risk-go/internal/manifest"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubBackend 注入固定提取记录的后端
type stubBackend struct {
	record *domain.ExtractionRecord
}

func (s *stubBackend) Name() string    { return "stub" }
func (s *stubBackend) Available() bool { return true }
func (s *stubBackend) TryExtract(apkPath string) *domain.ExtractionRecord {
	return s.record
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

// buildAPK 构造测试 APK
func buildAPK(t *testing.T, entries map[string][]byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "sample.apk")
	f, err := os.Create(path)
	require.NoError(t, err)

	w := zip.NewWriter(f)
	for name, data := range entries {
		ew, err := w.Create(name)
		require.NoError(t, err)
		_, err = ew.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())

	return path
}

// iconPNG 生成渐变测试图标
func iconPNG(t *testing.T, size int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			img.Set(x, y, color.RGBA{uint8(x * 255 / size), uint8(y * 255 / size), 64, 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// TestAnalyze_InvalidArchive 无效容器硬拒绝
func TestAnalyze_InvalidArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.apk")
	require.NoError(t, os.WriteFile(path, []byte("definitely not a zip"), 0644))

	a := New(testLogger(), filepath.Join(t.TempDir(), "trust.json"))
	result, err := a.Analyze(context.Background(), path)

	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrInvalidAPK)
}

// TestAnalyze_FullPipeline 完整流水线: 元数据、熵、字符串、图标、信任匹配
func TestAnalyze_FullPipeline(t *testing.T) {
	dex := []byte("UEsDBpayload http://evil.example.com/c2 with password token\x00\x01\x02binary tail")
	icon := iconPNG(t, 96)

	apkPath := buildAPK(t, map[string][]byte{
		"AndroidManifest.xml":               {0x03, 0x00, 0x08, 0x00},
		"classes.dex":                       dex,
		"res/mipmap-xxhdpi/ic_launcher.png": icon,
	})

	// 预先计算图标哈希，放入信任库并同时放入一个大写证书指纹
	img, _, err := image.Decode(bytes.NewReader(icon))
	require.NoError(t, err)
	expectedHash, err := iconhash.PerceptualHash(img)
	require.NoError(t, err)

	trustPath := filepath.Join(t.TempDir(), "trusted_bank_data.json")
	trustDoc := fmt.Sprintf(`{"trusted_certs": ["ab12cd34"], "trusted_icons": [%q], "bank_packages": []}`, expectedHash)
	require.NoError(t, os.WriteFile(trustPath, []byte(trustDoc), 0644))

	chain := manifest.NewChainWithBackends(testLogger(), &stubBackend{record: &domain.ExtractionRecord{
		Package:         "com.example.bankapp",
		Label:           "Example Bank",
		VersionName:     "2.1.0",
		VersionCode:     "42",
		Permissions:     []string{"android.permission.READ_SMS", "android.permission.INTERNET"},
		CertFingerprint: "AB12CD34",
	}})

	a := NewWithChain(testLogger(), chain, trustPath)
	result, err := a.Analyze(context.Background(), apkPath)
	require.NoError(t, err)

	assert.Equal(t, "com.example.bankapp", result.Package)
	assert.Equal(t, "Example Bank", result.AppLabel)
	assert.Equal(t, "2.1.0", result.VersionName)
	assert.Equal(t, "42", result.VersionCode)
	assert.Len(t, result.SHA256, 64)

	// 敏感权限为目录交集，顺序排序
	assert.Equal(t, []string{"android.permission.READ_SMS"}, result.DangerousPermissions)

	// 熵来自 classes.dex，非空载荷必大于 0
	assert.Greater(t, result.EntropyClassesDex, 0.0)
	assert.LessOrEqual(t, result.EntropyClassesDex, 8.0)

	// dex 中嵌入的 URL 与关键词被分类
	assert.Equal(t, 1, result.Suspicious.URLCount)
	assert.GreaterOrEqual(t, result.Suspicious.KeywordHits, 1)

	// 证书指纹大小写不敏感匹配
	assert.True(t, result.CertTrustedMatch)

	// 图标哈希命中信任库
	assert.Equal(t, expectedHash, result.IconHash)
	assert.Equal(t, 1.0, result.IconSimilarityScore)
}

// TestAnalyze_Deterministic 相同输入产生相同输出
func TestAnalyze_Deterministic(t *testing.T) {
	apkPath := buildAPK(t, map[string][]byte{
		"AndroidManifest.xml": []byte("manifest with http://a.example.com/x inside"),
		"classes.dex":         []byte("some dex payload bytes"),
	})

	a := New(testLogger(), filepath.Join(t.TempDir(), "missing-trust.json"))

	first, err := a.Analyze(context.Background(), apkPath)
	require.NoError(t, err)
	second, err := a.Analyze(context.Background(), apkPath)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

// TestAnalyze_NoMetadata 提取链全败时仍输出可推导信号
func TestAnalyze_NoMetadata(t *testing.T) {
	apkPath := buildAPK(t, map[string][]byte{
		"AndroidManifest.xml": {0x03, 0x00, 0x08, 0x00},
		"classes.dex":         []byte("payload with password inside"),
	})

	// 默认链对非法二进制 manifest 降级为空记录
	a := New(testLogger(), filepath.Join(t.TempDir(), "missing-trust.json"))
	result, err := a.Analyze(context.Background(), apkPath)
	require.NoError(t, err)

	assert.Empty(t, result.Package)
	assert.Empty(t, result.CertFingerprint)
	assert.False(t, result.CertTrustedMatch)
	assert.NotEmpty(t, result.SHA256)
	assert.Greater(t, result.EntropyClassesDex, 0.0)
	assert.Equal(t, []string{}, result.Permissions)
	assert.Equal(t, []string{}, result.DangerousPermissions)
}

// TestAnalyze_ManifestStringFallback 无 dex 时熵为 0，字符串回退到 manifest 字节
func TestAnalyze_ManifestStringFallback(t *testing.T) {
	apkPath := buildAPK(t, map[string][]byte{
		"AndroidManifest.xml": []byte("plain manifest mentioning http://fallback.example.com/x"),
	})

	a := New(testLogger(), filepath.Join(t.TempDir(), "missing-trust.json"))
	result, err := a.Analyze(context.Background(), apkPath)
	require.NoError(t, err)

	assert.Equal(t, 0.0, result.EntropyClassesDex)
	assert.Equal(t, 1, result.Suspicious.URLCount)
}

// TestAnalyze_NoIcon 图标缺失时哈希为空、相似度为 0
func TestAnalyze_NoIcon(t *testing.T) {
	apkPath := buildAPK(t, map[string][]byte{
		"AndroidManifest.xml": {0x03, 0x00},
		"classes.dex":         []byte("bytes"),
	})

	a := New(testLogger(), filepath.Join(t.TempDir(), "missing-trust.json"))
	result, err := a.Analyze(context.Background(), apkPath)
	require.NoError(t, err)

	assert.Empty(t, result.IconHash)
	assert.Equal(t, 0.0, result.IconSimilarityScore)
}
