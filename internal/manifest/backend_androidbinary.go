package manifest

import (
	"archive/zip"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/apk-risk/apk-risk-go/internal/domain"
	"github.com/shogo82148/androidbinary"
	"github.com/shogo82148/androidbinary/apk"
	"github.com/sirupsen/logrus"
)

// maxManifestBytes 二进制 manifest 的读取上限
const maxManifestBytes = 8 * 1024 * 1024 // 8MB

// abManifest androidbinary 解码后的权限声明
type abManifest struct {
	XMLName         xml.Name           `xml:"manifest"`
	UsesPermissions []abUsesPermission `xml:"uses-permission"`
}

type abUsesPermission struct {
	Name string `xml:"name,attr"`
}

// androidBinaryBackend 兜底提取后端
// 通过 shogo82148/androidbinary 读取基础元数据与权限；
// 证书指纹走无结构化解析的兜底策略: 扫描 META-INF 下的证书文件并直接哈希
type androidBinaryBackend struct {
	logger *logrus.Logger
}

func newAndroidBinaryBackend(logger *logrus.Logger) *androidBinaryBackend {
	return &androidBinaryBackend{logger: logger}
}

func (b *androidBinaryBackend) Name() string { return "androidbinary" }

func (b *androidBinaryBackend) Available() bool { return true }

func (b *androidBinaryBackend) TryExtract(apkPath string) *domain.ExtractionRecord {
	pkg, err := apk.OpenFile(apkPath)
	if err != nil {
		return nil
	}
	defer pkg.Close()

	m := pkg.Manifest()
	record := &domain.ExtractionRecord{
		Package:     m.Package.MustString(),
		VersionName: m.VersionName.MustString(),
	}
	if record.Package == "" {
		return nil
	}
	if code := m.VersionCode.MustInt32(); code != 0 {
		record.VersionCode = fmt.Sprintf("%d", code)
	}
	if label, err := pkg.Label(nil); err == nil {
		record.Label = label
	}

	record.Permissions = b.extractPermissions(apkPath)
	record.CertFingerprint = b.hashSignatureFile(apkPath)

	return record
}

// extractPermissions 从二进制 manifest 解码 uses-permission 声明
func (b *androidBinaryBackend) extractPermissions(apkPath string) []string {
	data := readZipEntry(apkPath, "AndroidManifest.xml")
	if data == nil {
		return nil
	}

	xmlFile, err := androidbinary.NewXMLFile(bytes.NewReader(data))
	if err != nil {
		return nil
	}

	var m abManifest
	if err := xml.NewDecoder(xmlFile.Reader()).Decode(&m); err != nil {
		return nil
	}

	var perms []string
	for _, p := range m.UsesPermissions {
		if p.Name != "" {
			perms = append(perms, p.Name)
		}
	}
	return perms
}

// hashSignatureFile 扫描签名目录按扩展名找证书文件并直接哈希
// 这是无结构化签名解析可用时的最后手段
func (b *androidBinaryBackend) hashSignatureFile(apkPath string) string {
	r, err := zip.OpenReader(apkPath)
	if err != nil {
		return ""
	}
	defer r.Close()

	for _, f := range r.File {
		upper := strings.ToUpper(f.Name)
		if !strings.HasPrefix(upper, "META-INF/") {
			continue
		}
		if !strings.HasSuffix(upper, ".RSA") && !strings.HasSuffix(upper, ".DSA") && !strings.HasSuffix(upper, ".EC") {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return ""
		}
		data, err := io.ReadAll(io.LimitReader(rc, maxManifestBytes))
		rc.Close()
		if err != nil {
			return ""
		}

		sum := sha256.Sum256(data)
		return hex.EncodeToString(sum[:])
	}

	return ""
}

// readZipEntry 按精确名称读取压缩包条目
func readZipEntry(apkPath, name string) []byte {
	r, err := zip.OpenReader(apkPath)
	if err != nil {
		return nil
	}
	defer r.Close()

	for _, f := range r.File {
		if f.Name != name {
			continue
		}
		if f.UncompressedSize64 > maxManifestBytes {
			return nil
		}
		rc, err := f.Open()
		if err != nil {
			return nil
		}
		data, err := io.ReadAll(io.LimitReader(rc, maxManifestBytes))
		rc.Close()
		if err != nil {
			return nil
		}
		return data
	}

	return nil
}
