package features

import "github.com/apk-risk/apk-risk-go/internal/domain"

// Names 特征槽位名称，顺序即分类器输入顺序，不可改动
// suspicious_strings 槽位取关键词命中数（原始训练管线中该字段从未被
// 填充，这里显式绑定到 KeywordHits，避免推理侧继续喂 0）
var Names = []string{
	"permissions_score",
	"entropy",
	"cert_mismatch",
	"suspicious_strings",
	"icon_similarity",
	"ip_count",
	"url_count",
	"dangerous_permissions",
	"cert_trusted_match",
	"perm_dangerous_count",
	"perm_normal_count",
	"perm_custom_count",
}

// Vector 由分析结果构造固定顺序的数值特征向量
func Vector(result *domain.AnalysisResult) []float64 {
	certMismatch := 1.0
	certTrusted := 0.0
	if result.CertTrustedMatch {
		certMismatch = 0.0
		certTrusted = 1.0
	}

	dangerous := float64(len(result.DangerousPermissions))
	total := float64(len(result.Permissions))

	return []float64{
		total,
		result.EntropyClassesDex,
		certMismatch,
		float64(result.Suspicious.KeywordHits),
		result.IconSimilarityScore,
		float64(result.Suspicious.IPCount),
		float64(result.Suspicious.URLCount),
		dangerous,
		certTrusted,
		dangerous,
		total - dangerous,
		0, // perm_custom_count: 训练数据中恒为 0，保持槽位
	}
}
