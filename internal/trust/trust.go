package trust

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/apk-risk/apk-risk-go/internal/iconhash"
)

// Database 信任库: 已知可信的签名证书指纹与图标感知哈希
// 加载后只读，可在并发分析间共享
type Database struct {
	certs        map[string]struct{}
	icons        []string
	bankPackages []string
}

// trustFile 信任库文档格式
type trustFile struct {
	TrustedCerts []string `json:"trusted_certs"`
	TrustedIcons []string `json:"trusted_icons"`
	BankPackages []string `json:"bank_packages"`
}

// Load 从 JSON 文档加载信任库
// 文件缺失或内容不可解析时返回空库，不报错
func Load(path string) *Database {
	db := &Database{certs: make(map[string]struct{})}

	data, err := os.ReadFile(path)
	if err != nil {
		return db
	}

	var doc trustFile
	if err := json.Unmarshal(data, &doc); err != nil {
		return db
	}

	for _, c := range doc.TrustedCerts {
		db.certs[strings.ToLower(c)] = struct{}{}
	}
	db.icons = doc.TrustedIcons
	db.bankPackages = doc.BankPackages

	return db
}

// IsCertTrusted 证书指纹成员检查（大小写不敏感）
// 指纹缺失时恒为 false
func (db *Database) IsCertTrusted(fingerprint string) bool {
	if fingerprint == "" {
		return false
	}
	_, ok := db.certs[strings.ToLower(fingerprint)]
	return ok
}

// BestIconSimilarity 返回与所有可信图标哈希的最大相似度
// 哈希缺失或库中无图标条目时返回 0
func (db *Database) BestIconSimilarity(hash string) float64 {
	if hash == "" || len(db.icons) == 0 {
		return 0
	}

	best := 0.0
	for _, trusted := range db.icons {
		if s := iconhash.Similarity(hash, trusted); s > best {
			best = s
		}
	}
	return best
}

// CertCount 库中证书条目数
func (db *Database) CertCount() int {
	return len(db.certs)
}

// IconCount 库中图标哈希条目数
func (db *Database) IconCount() int {
	return len(db.icons)
}

// BankPackages 银行包名允许列表（随文档一并加载，核心输出不使用）
func (db *Database) BankPackages() []string {
	return db.bankPackages
}
