package iconhash

import (
	"fmt"
	"image"
	"math/bits"
	"strconv"

	"github.com/corona10/goimagehash"
)

// hashBits 感知哈希位宽（8x8 DCT）
const hashBits = 64

// PerceptualHash 计算图像的 64 位感知哈希（频域），返回 16 位十六进制字符串
// 视觉相近的图标产生汉明距离很小的哈希
func PerceptualHash(img image.Image) (string, error) {
	if img == nil {
		return "", fmt.Errorf("nil image")
	}

	h, err := goimagehash.PerceptionHash(img)
	if err != nil {
		return "", fmt.Errorf("perception hash failed: %w", err)
	}

	return fmt.Sprintf("%016x", h.GetHash()), nil
}

// Similarity 计算两个感知哈希的相似度: 1 - 汉明距离/位宽
// 任一哈希缺失或不可解析时返回 0；对称；相同哈希返回 1.0
func Similarity(hashA, hashB string) float64 {
	if hashA == "" || hashB == "" {
		return 0
	}

	a, err := strconv.ParseUint(hashA, 16, 64)
	if err != nil {
		return 0
	}
	b, err := strconv.ParseUint(hashB, 16, 64)
	if err != nil {
		return 0
	}

	dist := bits.OnesCount64(a ^ b)
	return 1.0 - float64(dist)/float64(hashBits)
}
