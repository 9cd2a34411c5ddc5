package fusion

import "github.com/apk-risk/apk-risk-go/internal/domain"

// 融合权重: 分类器概率占 0.7，两个信誉信号各占 0.15
const (
	weightModel     = 0.7
	weightPrimary   = 0.15
	weightSecondary = 0.15
)

// Fuse 将分类器概率与外部检出信号融合为有界风险分与裁决
//
// ratio 取主信誉源检出比（total 为 0 时视为无数据，取 0）；
// 次级信誉源只要有任何检出即记满格信号。
// 裁决按优先级判定，首条命中即返回:
//  1. 主源检出 > 5 或次级源有检出        → 确认恶意
//  2. 两源均无检出且概率 > 0.7           → 可疑新样本
//  3. 两源均无检出且概率 < 0.3           → 大概率安全
//  4. 其余                              → 潜在风险
func Fuse(mlProbability float64, detectionCount, detectionTotal, secondaryDetectionCount int) (float64, domain.Verdict) {
	ratio := 0.0
	if detectionTotal > 0 {
		ratio = float64(detectionCount) / float64(detectionTotal)
	}

	secondarySignal := 0.0
	if secondaryDetectionCount > 0 {
		secondarySignal = 1.0
	}

	score := weightModel*mlProbability + weightPrimary*ratio + weightSecondary*secondarySignal
	if score > 1.0 {
		score = 1.0
	}

	var verdict domain.Verdict
	switch {
	case detectionCount > 5 || secondaryDetectionCount > 0:
		verdict = domain.VerdictConfirmedMalware
	case detectionCount == 0 && secondaryDetectionCount == 0 && mlProbability > 0.7:
		verdict = domain.VerdictSuspiciousNew
	case detectionCount == 0 && secondaryDetectionCount == 0 && mlProbability < 0.3:
		verdict = domain.VerdictLikelySafe
	default:
		verdict = domain.VerdictPotentiallyRisky
	}

	return score, verdict
}
