package iconhash

import (
	"archive/zip"
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// makePNG 生成纯色测试 PNG
func makePNG(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// makeGradient 生成渐变测试图像
func makeGradient(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{uint8(x * 255 / w), uint8(y * 255 / h), 128, 255})
		}
	}
	return img
}

// writeAPK 构造测试 APK
func writeAPK(t *testing.T, entries map[string][]byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "icons.apk")
	f, err := os.Create(path)
	require.NoError(t, err)

	w := zip.NewWriter(f)
	for name, data := range entries {
		ew, err := w.Create(name)
		require.NoError(t, err)
		_, err = ew.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())

	return path
}

// TestExtractPrimaryIcon_Hint 提示路径优先
func TestExtractPrimaryIcon_Hint(t *testing.T) {
	small := makePNG(t, 16, 16, color.RGBA{255, 0, 0, 255})
	large := makePNG(t, 96, 96, color.RGBA{0, 255, 0, 255})

	apk := writeAPK(t, map[string][]byte{
		"res/mipmap-mdpi/ic_launcher.png":   small,
		"res/mipmap-xxhdpi/ic_launcher.png": large,
	})

	data, img := ExtractPrimaryIcon(apk, "res/mipmap-mdpi/ic_launcher.png")
	require.NotNil(t, img)
	assert.Equal(t, small, data)
	assert.Equal(t, 16, img.Bounds().Dx())
}

// TestExtractPrimaryIcon_LargestArea 无提示时选择像素面积最大的候选
func TestExtractPrimaryIcon_LargestArea(t *testing.T) {
	apk := writeAPK(t, map[string][]byte{
		"res/mipmap-mdpi/ic_launcher.png":    makePNG(t, 16, 16, color.White),
		"res/drawable-hdpi/ic_launcher.png":  makePNG(t, 48, 48, color.White),
		"res/mipmap-xxxhdpi/ic_launcher.png": makePNG(t, 192, 192, color.White),
		"res/raw/banner.png":                 makePNG(t, 512, 512, color.White), // 不在 mipmap/drawable 下
		"assets/logo.png":                    makePNG(t, 512, 512, color.White), // 不在 res/ 下
	})

	_, img := ExtractPrimaryIcon(apk, "")
	require.NotNil(t, img)
	assert.Equal(t, 192, img.Bounds().Dx())
}

// TestExtractPrimaryIcon_BadHint 提示不可解码时回退扫描
func TestExtractPrimaryIcon_BadHint(t *testing.T) {
	apk := writeAPK(t, map[string][]byte{
		"res/mipmap-anydpi-v26/ic_launcher.xml": []byte("<adaptive-icon/>"),
		"res/mipmap-hdpi/ic_launcher.png":       makePNG(t, 48, 48, color.White),
	})

	_, img := ExtractPrimaryIcon(apk, "res/mipmap-anydpi-v26/ic_launcher.xml")
	require.NotNil(t, img)
	assert.Equal(t, 48, img.Bounds().Dx())
}

// TestExtractPrimaryIcon_Absent 无候选时返回空
func TestExtractPrimaryIcon_Absent(t *testing.T) {
	apk := writeAPK(t, map[string][]byte{
		"classes.dex": []byte("dex"),
	})

	data, img := ExtractPrimaryIcon(apk, "")
	assert.Nil(t, data)
	assert.Nil(t, img)

	// 不可读的压缩包同样不是错误
	data, img = ExtractPrimaryIcon(filepath.Join(t.TempDir(), "missing.apk"), "")
	assert.Nil(t, data)
	assert.Nil(t, img)
}

// TestPerceptualHash_Format 哈希为 16 位十六进制且确定
func TestPerceptualHash_Format(t *testing.T) {
	img := makeGradient(64, 64)

	h1, err := PerceptualHash(img)
	require.NoError(t, err)
	assert.Len(t, h1, 16)

	h2, err := PerceptualHash(img)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)

	_, err = PerceptualHash(nil)
	assert.Error(t, err)
}

// TestSimilarity 相似度性质: 自反、对称、缺失为 0
func TestSimilarity(t *testing.T) {
	img, err := PerceptualHash(makeGradient(64, 64))
	require.NoError(t, err)

	assert.Equal(t, 1.0, Similarity(img, img))

	other, err := PerceptualHash(makeGradient(32, 48))
	require.NoError(t, err)
	assert.Equal(t, Similarity(img, other), Similarity(other, img))

	assert.Equal(t, 0.0, Similarity("", img))
	assert.Equal(t, 0.0, Similarity(img, ""))
	assert.Equal(t, 0.0, Similarity("zz-not-hex", img))
}

// TestSimilarity_KnownDistance 已知汉明距离的哈希对
func TestSimilarity_KnownDistance(t *testing.T) {
	// 0x0f 与 0x00 相差 4 位
	assert.InDelta(t, 1.0-4.0/64.0, Similarity("000000000000000f", "0000000000000000"), 1e-9)
}
