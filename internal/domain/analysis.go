package domain

import "time"

// Verdict 风险裁决结果
type Verdict string

const (
	VerdictConfirmedMalware Verdict = "Likely Malware (Confirmed)"
	VerdictSuspiciousNew    Verdict = "Suspicious (New Malware?)"
	VerdictLikelySafe       Verdict = "Likely Safe"
	VerdictPotentiallyRisky Verdict = "Potentially Risky"
)

// ExtractionRecord Manifest 提取后端的统一输出
// 各字段均为尽力提取，后端无法得到的字段留空
type ExtractionRecord struct {
	Package         string   `json:"package,omitempty"`
	Label           string   `json:"label,omitempty"`
	VersionName     string   `json:"version_name,omitempty"`
	VersionCode     string   `json:"version_code,omitempty"`
	Permissions     []string `json:"permissions,omitempty"`
	CertFingerprint string   `json:"cert_fingerprint,omitempty"`
	IconHint        string   `json:"icon_hint,omitempty"`
}

// IsEmpty 判断记录是否完全为空（全部后端都失败时的结果）
func (r *ExtractionRecord) IsEmpty() bool {
	return r == nil || (r.Package == "" && r.Label == "" && r.VersionName == "" &&
		r.VersionCode == "" && len(r.Permissions) == 0 &&
		r.CertFingerprint == "" && r.IconHint == "")
}

// SuspiciousSummary 可疑字符串统计
type SuspiciousSummary struct {
	URLs        []string `json:"urls"`
	IPs         []string `json:"ips"`
	URLCount    int      `json:"url_count"`
	IPCount     int      `json:"ip_count"`
	KeywordHits int      `json:"keyword_hits"`
}

// AnalysisResult 静态分析流水线的唯一输出
// 对同一 APK 与同一信任库输入是确定性的，不包含任何网络查询结果
type AnalysisResult struct {
	SHA256               string            `json:"sha256"`
	Package              string            `json:"package,omitempty"`
	AppLabel             string            `json:"app_label,omitempty"`
	VersionName          string            `json:"version_name,omitempty"`
	VersionCode          string            `json:"version_code,omitempty"`
	Permissions          []string          `json:"permissions"`
	DangerousPermissions []string          `json:"dangerous_permissions"`
	CertFingerprint      string            `json:"cert_fingerprint,omitempty"`
	CertTrustedMatch     bool              `json:"cert_trusted_match"`
	IconHash             string            `json:"icon_hash,omitempty"`
	IconSimilarityScore  float64           `json:"icon_similarity_score"`
	EntropyClassesDex    float64           `json:"entropy_classes_dex"`
	Suspicious           SuspiciousSummary `json:"suspicious"`
}

// ReputationResult 外部信誉查询结果
// Total == 0 表示无数据，调用方不得据此做除法
type ReputationResult struct {
	Detections int `json:"detections"`
	Total      int `json:"total"`
}

// ModelOutput 分类器输出
type ModelOutput struct {
	Probability  float64  `json:"probability"`
	Explanations []string `json:"explanations,omitempty"`
}

// AnalysisReport HTTP/队列消费方收到的完整报告
type AnalysisReport struct {
	ID            string           `json:"id"`
	APKName       string           `json:"apk_name"`
	Result        *AnalysisResult  `json:"analysis"`
	VirusTotal    ReputationResult `json:"vt"`
	MalwareBazaar ReputationResult `json:"malwarebazaar"`
	Model         ModelOutput      `json:"model"`
	FinalScore    float64          `json:"final_score"`
	Verdict       Verdict          `json:"decision"`
	AnalyzedAt    time.Time        `json:"analyzed_at"`
	DurationMs    int64            `json:"duration_ms"`
}
