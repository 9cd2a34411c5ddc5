package analyzer

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/apk-risk/apk-risk-go/internal/contentutil"
	"github.com/apk-risk/apk-risk-go/internal/domain"
	"github.com/apk-risk/apk-risk-go/internal/iconhash"
	"github.com/apk-risk/apk-risk-go/internal/manifest"
	"github.com/apk-risk/apk-risk-go/internal/trust"
	"github.com/sirupsen/logrus"
)

// ErrInvalidAPK 输入不是有效的 APK 容器
// 这是流水线唯一向外传播的失败，调用方应硬拒绝该输入
var ErrInvalidAPK = errors.New("not a valid APK archive")

// dexEntryName 可执行载荷条目名
const dexEntryName = "classes.dex"

// Analyzer 静态分析编排器
// 对同一 APK 与同一信任库文档，Analyze 的输出是确定性的；不做网络 I/O
type Analyzer struct {
	logger    *logrus.Logger
	chain     *manifest.Chain
	trustPath string
}

// New 创建分析编排器
func New(logger *logrus.Logger, trustPath string) *Analyzer {
	return &Analyzer{
		logger:    logger,
		chain:     manifest.NewChain(logger),
		trustPath: trustPath,
	}
}

// NewWithChain 以显式后端链创建编排器
func NewWithChain(logger *logrus.Logger, chain *manifest.Chain, trustPath string) *Analyzer {
	return &Analyzer{logger: logger, chain: chain, trustPath: trustPath}
}

// Analyze 对单个 APK 执行完整静态分析
// 元数据缺失不致命: 提取链全败时仍输出哈希、熵与字符串信号
func (a *Analyzer) Analyze(ctx context.Context, apkPath string) (*domain.AnalysisResult, error) {
	startTime := time.Now()

	if !contentutil.IsValidAPK(apkPath) {
		return nil, ErrInvalidAPK
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	record := a.chain.Extract(apkPath)

	dangerous := intersectDangerous(record.Permissions)

	classes := contentutil.ExtractZipEntry(apkPath, dexEntryName)
	entropy := contentutil.ShannonEntropy(classes)

	strs := contentutil.ExtractPrintableStrings(classes, contentutil.DefaultMinStringLength)
	if len(strs) == 0 {
		manifestBytes := contentutil.ExtractZipEntry(apkPath, "AndroidManifest.xml")
		strs = contentutil.ExtractPrintableStrings(manifestBytes, contentutil.DefaultMinStringLength)
	}
	suspicious := contentutil.ClassifySuspiciousStrings(strs)

	var iconHash string
	if _, img := iconhash.ExtractPrimaryIcon(apkPath, record.IconHint); img != nil {
		if h, err := iconhash.PerceptualHash(img); err == nil {
			iconHash = h
		} else {
			a.logger.WithError(err).Debug("Icon hashing failed, proceeding without icon signal")
		}
	}

	sha256, err := contentutil.SHA256File(apkPath)
	if err != nil {
		// 文件在校验后消失或不可读，按无效输入处理
		return nil, ErrInvalidAPK
	}

	db := trust.Load(a.trustPath)

	result := &domain.AnalysisResult{
		SHA256:               sha256,
		Package:              record.Package,
		AppLabel:             record.Label,
		VersionName:          record.VersionName,
		VersionCode:          record.VersionCode,
		Permissions:          record.Permissions,
		DangerousPermissions: dangerous,
		CertFingerprint:      record.CertFingerprint,
		CertTrustedMatch:     db.IsCertTrusted(record.CertFingerprint),
		IconHash:             iconHash,
		IconSimilarityScore:  db.BestIconSimilarity(iconHash),
		EntropyClassesDex:    entropy,
		Suspicious:           suspicious,
	}
	if result.Permissions == nil {
		result.Permissions = []string{}
	}

	a.logger.WithFields(logrus.Fields{
		"sha256":      result.SHA256,
		"package":     result.Package,
		"entropy":     result.EntropyClassesDex,
		"duration_ms": time.Since(startTime).Milliseconds(),
	}).Info("Static analysis completed")

	return result, nil
}

// intersectDangerous 求权限列表与敏感权限目录的交集（排序去重）
func intersectDangerous(permissions []string) []string {
	seen := make(map[string]struct{})
	result := []string{}
	for _, p := range permissions {
		if _, dangerous := dangerousPermissions[p]; !dangerous {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		result = append(result, p)
	}
	sort.Strings(result)
	return result
}
