package manifest

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/xml"

	"github.com/apk-risk/apk-risk-go/internal/domain"
	"github.com/avast/apkparser"
	"github.com/avast/apkverifier"
	"github.com/sirupsen/logrus"
)

// axmlManifest 二进制 AndroidManifest.xml 解码后的结构
type axmlManifest struct {
	XMLName         xml.Name             `xml:"manifest"`
	Package         string               `xml:"package,attr"`
	VersionCode     string               `xml:"versionCode,attr"`
	VersionName     string               `xml:"versionName,attr"`
	Application     axmlApplication      `xml:"application"`
	UsesPermissions []axmlUsesPermission `xml:"uses-permission"`
}

type axmlApplication struct {
	Label string `xml:"label,attr"`
	Icon  string `xml:"icon,attr"`
}

type axmlUsesPermission struct {
	Name string `xml:"name,attr"`
}

// apkParserBackend 主提取后端
// 通过 avast/apkparser 解码二进制 manifest 与资源表，
// 通过 avast/apkverifier 提取签名证书（签名方案优先级 v3 > v2 > v1）
type apkParserBackend struct {
	logger *logrus.Logger
}

func newAPKParserBackend(logger *logrus.Logger) *apkParserBackend {
	return &apkParserBackend{logger: logger}
}

func (b *apkParserBackend) Name() string { return "apkparser" }

func (b *apkParserBackend) Available() bool { return true }

func (b *apkParserBackend) TryExtract(apkPath string) *domain.ExtractionRecord {
	var buf bytes.Buffer
	enc := xml.NewEncoder(&buf)

	zipErr, resErr, manErr := apkparser.ParseApk(apkPath, enc)
	if zipErr != nil || manErr != nil {
		return nil
	}
	if resErr != nil {
		// 资源表解析失败只影响引用解析，manifest 本体仍可用
		b.logger.WithError(resErr).Debug("apkparser: resources not parsed, references unresolved")
	}

	var m axmlManifest
	if err := xml.Unmarshal(buf.Bytes(), &m); err != nil {
		return nil
	}
	if m.Package == "" {
		return nil
	}

	record := &domain.ExtractionRecord{
		Package:     m.Package,
		Label:       m.Application.Label,
		VersionName: m.VersionName,
		VersionCode: m.VersionCode,
		IconHint:    m.Application.Icon,
	}
	for _, p := range m.UsesPermissions {
		if p.Name != "" {
			record.Permissions = append(record.Permissions, p.Name)
		}
	}

	record.CertFingerprint = b.extractCertFingerprint(apkPath)

	return record
}

// extractCertFingerprint 提取签名块主证书的 SHA256 指纹
// apkverifier 的 PickBestApkCert 在多签名方案并存时优先取最新方案
func (b *apkParserBackend) extractCertFingerprint(apkPath string) string {
	res, err := apkverifier.Verify(apkPath, nil)
	if err != nil {
		b.logger.WithError(err).Debug("apkparser: signature verification failed")
		return ""
	}

	_, cert := apkverifier.PickBestApkCert(res.SignerCerts)
	if cert == nil {
		return ""
	}

	sum := sha256.Sum256(cert.Raw)
	return hex.EncodeToString(sum[:])
}
