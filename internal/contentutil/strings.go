package contentutil

import (
	"regexp"
	"strings"

	"github.com/apk-risk/apk-risk-go/internal/domain"
)

// DefaultMinStringLength 可打印字符串的最小长度
const DefaultMinStringLength = 5

var (
	urlRegex = regexp.MustCompile(`(?i)https?://[\w\-\.]+(:\d+)?(/[\w\-\./?%&=+#]*)?`)
	ipRegex  = regexp.MustCompile(`\b((25[0-5]|2[0-4]\d|1\d\d|[1-9]?\d)\.){3}(25[0-5]|2[0-4]\d|1\d\d|[1-9]?\d)\b`)
)

// ExtractPrintableStrings 扫描缓冲区提取可打印 ASCII 字符串
// 累积 [32,126] 范围内的连续字节，长度达到 minLen 才输出；
// 任何范围外字节终止当前串，缓冲区结尾会刷出最后一个串
func ExtractPrintableStrings(data []byte, minLen int) []string {
	if minLen <= 0 {
		minLen = DefaultMinStringLength
	}

	var out []string
	var acc []byte
	for _, b := range data {
		if b >= 32 && b <= 126 {
			acc = append(acc, b)
			continue
		}
		if len(acc) >= minLen {
			out = append(out, string(acc))
		}
		acc = acc[:0]
	}
	if len(acc) >= minLen {
		out = append(out, string(acc))
	}

	return out
}

// ClassifySuspiciousStrings 对字符串集合做 URL / IP / 关键词分类
// 每个字符串最多贡献一次关键词命中
func ClassifySuspiciousStrings(strs []string) domain.SuspiciousSummary {
	summary := domain.SuspiciousSummary{
		URLs: []string{},
		IPs:  []string{},
	}

	for _, s := range strs {
		if urlRegex.MatchString(s) {
			summary.URLs = append(summary.URLs, s)
		}
		if ipRegex.MatchString(s) {
			summary.IPs = append(summary.IPs, s)
		}

		lower := strings.ToLower(s)
		for _, kw := range suspiciousKeywords {
			if strings.Contains(lower, kw) {
				summary.KeywordHits++
				break
			}
		}
	}

	summary.URLCount = len(summary.URLs)
	summary.IPCount = len(summary.IPs)

	return summary
}
