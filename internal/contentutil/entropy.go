package contentutil

import "math"

// ShannonEntropy 计算字节频率香农熵（bits/byte），范围 [0, 8]
// 空输入返回 0；单一重复字节返回 0；256 个等频字节值返回 8
func ShannonEntropy(data []byte) float64 {
	if len(data) == 0 {
		return 0
	}

	var freq [256]int
	for _, b := range data {
		freq[b]++
	}

	entropy := 0.0
	length := float64(len(data))
	for _, c := range freq {
		if c == 0 {
			continue
		}
		p := float64(c) / length
		entropy -= p * math.Log2(p)
	}

	return entropy
}
