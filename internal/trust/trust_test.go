package trust

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTrustFile 写入测试信任库文档
func writeTrustFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "trusted_bank_data.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// TestLoad_MissingFile 文件缺失返回空库且不报错
func TestLoad_MissingFile(t *testing.T) {
	db := Load(filepath.Join(t.TempDir(), "does-not-exist.json"))

	require.NotNil(t, db)
	assert.Equal(t, 0, db.CertCount())
	assert.Equal(t, 0, db.IconCount())
	assert.False(t, db.IsCertTrusted("ab12"))
	assert.Equal(t, 0.0, db.BestIconSimilarity("00ff00ff00ff00ff"))
}

// TestLoad_MalformedFile 内容不可解析时降级为空库
func TestLoad_MalformedFile(t *testing.T) {
	db := Load(writeTrustFile(t, "{not json"))

	assert.Equal(t, 0, db.CertCount())
	assert.Equal(t, 0, db.IconCount())
}

// TestIsCertTrusted_CaseInsensitive 指纹匹配大小写不敏感
func TestIsCertTrusted_CaseInsensitive(t *testing.T) {
	db := Load(writeTrustFile(t, `{"trusted_certs": ["ab12"], "trusted_icons": [], "bank_packages": []}`))

	assert.True(t, db.IsCertTrusted("AB12"))
	assert.True(t, db.IsCertTrusted("ab12"))
	assert.False(t, db.IsCertTrusted("cd34"))

	// 指纹缺失不得匹配
	assert.False(t, db.IsCertTrusted(""))
}

// TestBestIconSimilarity 取全库最大相似度
func TestBestIconSimilarity(t *testing.T) {
	db := Load(writeTrustFile(t, `{
		"trusted_certs": [],
		"trusted_icons": ["0000000000000000", "00000000000000ff"],
		"bank_packages": ["com.example.bank"]
	}`))

	// 与第二个条目完全一致
	assert.Equal(t, 1.0, db.BestIconSimilarity("00000000000000ff"))

	// 与最近条目相差 1 位
	assert.InDelta(t, 1.0-1.0/64.0, db.BestIconSimilarity("0000000000000001"), 1e-9)

	// 哈希缺失返回 0
	assert.Equal(t, 0.0, db.BestIconSimilarity(""))

	assert.Equal(t, []string{"com.example.bank"}, db.BankPackages())
}
