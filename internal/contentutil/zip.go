package contentutil

import (
	"archive/zip"
	"io"
	"strings"
)

// MaxZipEntrySize 单个压缩包条目的读取上限
// 防止恶意构造的 APK 导致内存耗尽
const MaxZipEntrySize = 64 * 1024 * 1024 // 64MB

// ExtractZipEntry 按名称子串（大小写不敏感）查找压缩包条目并读取内容
// 返回枚举顺序中第一个匹配条目；压缩包不可读或无匹配时返回 nil，不报错
func ExtractZipEntry(path, nameContains string) []byte {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil
	}
	defer r.Close()

	needle := strings.ToLower(nameContains)
	for _, f := range r.File {
		if !strings.Contains(strings.ToLower(f.Name), needle) {
			continue
		}
		if f.UncompressedSize64 > MaxZipEntrySize {
			return nil
		}
		rc, err := f.Open()
		if err != nil {
			return nil
		}
		data, err := io.ReadAll(io.LimitReader(rc, MaxZipEntrySize))
		rc.Close()
		if err != nil {
			return nil
		}
		return data
	}

	return nil
}

// IsValidAPK 检查文件是否是包含 AndroidManifest.xml 的有效 zip 容器
func IsValidAPK(path string) bool {
	r, err := zip.OpenReader(path)
	if err != nil {
		return false
	}
	defer r.Close()

	for _, f := range r.File {
		if strings.HasSuffix(f.Name, "AndroidManifest.xml") {
			return true
		}
	}

	return false
}
